package repo

import (
	"context"
	"fmt"
	"sync"

	"github.com/Skotchmaster/shop_engine/internal/domain"
	"github.com/Skotchmaster/shop_engine/internal/models"
)

// MemoryCatalog keeps products ordered by id. New ids are always max+1 so
// append order and id order coincide.
type MemoryCatalog struct {
	mu       sync.RWMutex
	products []models.Product
	byID     map[uint]int
}

func NewMemoryCatalog(seed []models.Product) *MemoryCatalog {
	c := &MemoryCatalog{}
	c.load(seed)
	return c
}

func (c *MemoryCatalog) load(seed []models.Product) {
	c.products = make([]models.Product, 0, len(seed))
	c.byID = make(map[uint]int, len(seed))
	for _, p := range seed {
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
}

func (c *MemoryCatalog) Get(_ context.Context, id uint) (*models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	p := c.products[i]
	return &p, nil
}

func (c *MemoryCatalog) Create(_ context.Context, p models.Product) (*models.Product, error) {
	if p.Price.IsNegative() || p.Stock < 0 {
		return nil, fmt.Errorf("%w: price and stock must be >= 0", domain.ErrValidation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var maxID uint
	for _, existing := range c.products {
		if existing.ID > maxID {
			maxID = existing.ID
		}
	}
	p.ID = maxID + 1
	c.byID[p.ID] = len(c.products)
	c.products = append(c.products, p)
	return &p, nil
}

func (c *MemoryCatalog) AdjustStock(_ context.Context, id uint, delta int) (*models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	next := c.products[i].Stock + delta
	if next < 0 {
		return nil, fmt.Errorf("%w: product %d has %d, requested %d", domain.ErrInsufficientStock, id, c.products[i].Stock, -delta)
	}
	c.products[i].Stock = next
	p := c.products[i]
	return &p, nil
}

func (c *MemoryCatalog) List(_ context.Context, f models.ProductFilter) ([]models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Product, 0, len(c.products))
	for _, p := range c.products {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *MemoryCatalog) Update(_ context.Context, id uint, patch models.ProductPatch) (*models.Product, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	if patch.Price != nil {
		c.products[i].Price = *patch.Price
	}
	if patch.Stock != nil {
		c.products[i].Stock = *patch.Stock
	}
	p := c.products[i]
	return &p, nil
}

func (c *MemoryCatalog) Count(_ context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int64(len(c.products)), nil
}

func (c *MemoryCatalog) Reset(_ context.Context, seed []models.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load(seed)
	return nil
}

func validatePatch(patch models.ProductPatch) error {
	if patch.Price != nil && patch.Price.IsNegative() {
		return fmt.Errorf("%w: price must be >= 0", domain.ErrValidation)
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		return fmt.Errorf("%w: stock must be >= 0", domain.ErrValidation)
	}
	return nil
}
