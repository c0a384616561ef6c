package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/shop_engine/internal/domain"
	"github.com/Skotchmaster/shop_engine/internal/models"
	"gorm.io/gorm"
)

type GormCatalog struct {
	DB *gorm.DB
}

func (r *GormCatalog) Get(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := conn(ctx, r.DB).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &p, nil
}

func (r *GormCatalog) Create(ctx context.Context, p models.Product) (*models.Product, error) {
	if p.Price.IsNegative() || p.Stock < 0 {
		return nil, fmt.Errorf("%w: price and stock must be >= 0", domain.ErrValidation)
	}

	err := runInTx(ctx, r.DB, func(ctx context.Context) error {
		tx := conn(ctx, r.DB)
		if err := lockTable(tx, "products"); err != nil {
			return err
		}
		var maxID uint
		if err := tx.Model(&models.Product{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
			return fmt.Errorf("next product id: %w", err)
		}
		p.ID = maxID + 1
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormCatalog) AdjustStock(ctx context.Context, id uint, delta int) (*models.Product, error) {
	res := conn(ctx, r.DB).Model(&models.Product{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return nil, fmt.Errorf("adjust stock of product %d: %w", id, res.Error)
	}

	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: product %d has %d, requested %d", domain.ErrInsufficientStock, id, p.Stock, -delta)
	}
	return p, nil
}

func (r *GormCatalog) List(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	q := conn(ctx, r.DB).Model(&models.Product{})
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}

	var items []models.Product
	if err := q.Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	out := items[:0]
	for _, p := range items {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *GormCatalog) Update(ctx context.Context, id uint, patch models.ProductPatch) (*models.Product, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	var out *models.Product
	err := runInTx(ctx, r.DB, func(ctx context.Context) error {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		fields := map[string]any{}
		if patch.Price != nil {
			fields["price"] = *patch.Price
		}
		if patch.Stock != nil {
			fields["stock"] = *patch.Stock
		}
		if len(fields) > 0 {
			if err := conn(ctx, r.DB).Model(&models.Product{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return fmt.Errorf("update product %d: %w", id, err)
			}
		}
		p, err := r.Get(ctx, id)
		if err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormCatalog) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := conn(ctx, r.DB).Model(&models.Product{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *GormCatalog) Reset(ctx context.Context, seed []models.Product) error {
	return runInTx(ctx, r.DB, func(ctx context.Context) error {
		tx := conn(ctx, r.DB)
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Product{}).Error; err != nil {
			return fmt.Errorf("clear products: %w", err)
		}
		if len(seed) == 0 {
			return nil
		}
		rows := make([]models.Product, len(seed))
		copy(rows, seed)
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("seed products: %w", err)
		}
		return nil
	})
}
