package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/shop_engine/internal/domain"
	"github.com/Skotchmaster/shop_engine/internal/models"
	"gorm.io/gorm"
)

type GormAccounts struct {
	DB *gorm.DB
}

func (r *GormAccounts) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := conn(ctx, r.DB).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &u, nil
}

func (r *GormAccounts) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := conn(ctx, r.DB).Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %q", domain.ErrNotFound, username)
		}
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return &u, nil
}

func (r *GormAccounts) Create(ctx context.Context, u models.User) (*models.User, error) {
	err := runInTx(ctx, r.DB, func(ctx context.Context) error {
		tx := conn(ctx, r.DB)
		if err := lockTable(tx, "users"); err != nil {
			return err
		}

		var taken int64
		if err := tx.Model(&models.User{}).Where("username = ?", u.Username).Count(&taken).Error; err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if taken > 0 {
			return fmt.Errorf("%w: username %q already registered", domain.ErrConflict, u.Username)
		}

		var n int64
		if err := tx.Model(&models.User{}).Count(&n).Error; err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		u.ID = uint(n) + 1
		if err := tx.Create(&u).Error; err != nil {
			if ClassifyError(err) == ErrorClassUniqueViolation {
				return fmt.Errorf("%w: username %q already registered", domain.ErrConflict, u.Username)
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormAccounts) List(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	if err := conn(ctx, r.DB).Order("id ASC").Limit(limit).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *GormAccounts) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := conn(ctx, r.DB).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *GormAccounts) Reset(ctx context.Context) error {
	if err := conn(ctx, r.DB).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.User{}).Error; err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	return nil
}
