package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/shop_engine/internal/domain"
	"github.com/Skotchmaster/shop_engine/internal/models"
	"gorm.io/gorm"
)

// GormLedger assigns order ids as count+1 inside a transaction. On Postgres
// the orders table is locked first so concurrent appends cannot read the
// same count.
type GormLedger struct {
	DB *gorm.DB
}

func (r *GormLedger) Append(ctx context.Context, o models.Order) (*models.Order, error) {
	err := runInTx(ctx, r.DB, func(ctx context.Context) error {
		tx := conn(ctx, r.DB)
		if err := lockTable(tx, "orders"); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.Order{}).Count(&n).Error; err != nil {
			return fmt.Errorf("count orders: %w", err)
		}
		o.ID = uint(n) + 1
		if err := tx.Create(&o).Error; err != nil {
			return fmt.Errorf("append order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormLedger) Get(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := conn(ctx, r.DB).Where("id = ?", id).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	return &o, nil
}

func (r *GormLedger) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := conn(ctx, r.DB).Where("user_id = ?", userID).Order("id ASC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders of user %d: %w", userID, err)
	}
	return orders, nil
}

func (r *GormLedger) List(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := conn(ctx, r.DB).Order("id ASC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (r *GormLedger) SetStatus(ctx context.Context, id uint, status models.OrderStatus) error {
	res := conn(ctx, r.DB).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("set status of order %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
	}
	return nil
}

// Transition runs apply before the conditional status write. Concurrent
// transitions of the same order both may run apply, but only one status
// write matches and the loser's transaction rolls back with its effects.
func (r *GormLedger) Transition(ctx context.Context, id uint, from, to models.OrderStatus, apply ApplyFunc) (*models.Order, error) {
	var out *models.Order
	err := runInTx(ctx, r.DB, func(ctx context.Context) error {
		o, err := r.Get(ctx, id)
		if err != nil {
			return err
		}
		if o.Status != from {
			return fmt.Errorf("%w: order %d is %s", domain.ErrInvalidState, id, o.Status)
		}
		if apply != nil {
			if err := apply(ctx, *o); err != nil {
				return err
			}
		}
		res := conn(ctx, r.DB).Model(&models.Order{}).
			Where("id = ? AND status = ?", id, from).
			Update("status", to)
		if res.Error != nil {
			return fmt.Errorf("transition order %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order %d is no longer %s", domain.ErrInvalidState, id, from)
		}
		o.Status = to
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormLedger) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := conn(ctx, r.DB).Model(&models.Order{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (r *GormLedger) Reset(ctx context.Context) error {
	if err := conn(ctx, r.DB).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Order{}).Error; err != nil {
		return fmt.Errorf("clear orders: %w", err)
	}
	return nil
}
