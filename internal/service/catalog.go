package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Skotchmaster/shop_engine/internal/domain"
	"github.com/Skotchmaster/shop_engine/internal/logging"
	"github.com/Skotchmaster/shop_engine/internal/models"
	"github.com/Skotchmaster/shop_engine/internal/mykafka"
	"github.com/Skotchmaster/shop_engine/internal/repo"
	"github.com/Skotchmaster/shop_engine/internal/transport"
	"github.com/Skotchmaster/shop_engine/internal/util"
)

// Indexer is the full text index behind product search.
type Indexer interface {
	IndexProduct(ctx context.Context, p models.Product) error
	Search(ctx context.Context, query string, from, size int) (int64, []uint, error)
}

type CatalogService struct {
	Catalog repo.Catalog
	Events  mykafka.Publisher
	// Search is nil when no search backend is configured.
	Search Indexer
}

func (s *CatalogService) Get(ctx context.Context, id uint) (*models.Product, error) {
	return s.Catalog.Get(ctx, id)
}

func (s *CatalogService) List(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	if f.MinPrice != nil && f.MinPrice.IsNegative() || f.MaxPrice != nil && f.MaxPrice.IsNegative() {
		return nil, fmt.Errorf("%w: price bounds must be >= 0", domain.ErrValidation)
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, fmt.Errorf("%w: min_price must not exceed max_price", domain.ErrValidation)
	}
	return s.Catalog.List(ctx, f)
}

func (s *CatalogService) Create(ctx context.Context, id domain.Identity, req transport.CreateProductRequest) (*models.Product, error) {
	if err := domain.RequireAdmin(id); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	category := strings.TrimSpace(req.Category)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", domain.ErrValidation)
	}
	if category == "" {
		return nil, fmt.Errorf("%w: category required", domain.ErrValidation)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must be >= 0", domain.ErrValidation)
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must be >= 0", domain.ErrValidation)
	}

	p, err := s.Catalog.Create(ctx, models.Product{Name: name, Price: req.Price, Stock: req.Stock, Category: category})
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, "product_created", p)
	return p, nil
}

func (s *CatalogService) Update(ctx context.Context, id domain.Identity, productID uint, req transport.UpdateProductRequest) (*models.Product, error) {
	if err := domain.RequireAdmin(id); err != nil {
		return nil, err
	}
	patch := models.ProductPatch{Price: req.Price, Stock: req.Stock}
	if patch.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}

	p, err := s.Catalog.Update(ctx, productID, patch)
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, "product_updated", p)
	return p, nil
}

// SearchProducts returns one page of matching products read back from the
// catalog, so price and stock are always current.
func (s *CatalogService) SearchProducts(ctx context.Context, query string, page, size int) (int64, []models.Product, error) {
	if s.Search == nil {
		return 0, nil, fmt.Errorf("%w: search backend not configured", domain.ErrUnavailable)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, fmt.Errorf("%w: q required", domain.ErrValidation)
	}

	from, limit := util.Calculate(page, size)
	total, ids, err := s.Search.Search(ctx, query, from, limit)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	products := make([]models.Product, 0, len(ids))
	for _, pid := range ids {
		p, err := s.Catalog.Get(ctx, pid)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return 0, nil, err
		}
		products = append(products, *p)
	}
	return total, products, nil
}

// Reindex pushes the whole catalog into the search index.
func (s *CatalogService) Reindex(ctx context.Context) error {
	if s.Search == nil {
		return nil
	}
	items, err := s.Catalog.List(ctx, models.ProductFilter{})
	if err != nil {
		return err
	}
	for _, p := range items {
		if err := s.Search.IndexProduct(ctx, p); err != nil {
			return fmt.Errorf("reindex product %d: %w", p.ID, err)
		}
	}
	return nil
}

func (s *CatalogService) afterWrite(ctx context.Context, typ string, p *models.Product) {
	publish(ctx, s.Events, mykafka.TopicProducts, strconv.FormatUint(uint64(p.ID), 10), typ, p)

	if s.Search == nil {
		return
	}
	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := s.Search.IndexProduct(ictx, *p); err != nil {
		logging.FromContext(ctx).Warn("index_product_error", "product_id", p.ID, "error", err)
	}
}
