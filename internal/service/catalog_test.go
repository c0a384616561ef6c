package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Skotchmaster/shop_engine/internal/domain"
	"github.com/Skotchmaster/shop_engine/internal/models"
	"github.com/Skotchmaster/shop_engine/internal/repo"
	"github.com/Skotchmaster/shop_engine/internal/transport"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	mu      sync.Mutex
	indexed []uint
	hits    []uint
	total   int64
	err     error
	from    int
	size    int
}

func (f *fakeIndex) IndexProduct(_ context.Context, p models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, p.ID)
	return f.err
}

func (f *fakeIndex) Search(_ context.Context, _ string, from, size int) (int64, []uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.from, f.size = from, size
	return f.total, f.hits, f.err
}

func ptr[T any](v T) *T { return &v }

func TestCatalogService_List(t *testing.T) {
	t.Parallel()
	f := newFixture(t, repo.NewMemoryStores(models.DefaultCatalog()))
	ctx := context.Background()

	items, err := f.catalog.List(ctx, models.ProductFilter{Category: ptr("Electronics"), MaxPrice: ptr(decimal.NewFromInt(100))})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Mouse", items[0].Name)
	assert.Equal(t, "Keyboard", items[1].Name)

	_, err = f.catalog.List(ctx, models.ProductFilter{MinPrice: ptr(decimal.NewFromInt(500)), MaxPrice: ptr(decimal.NewFromInt(100))})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.catalog.List(ctx, models.ProductFilter{MinPrice: ptr(decimal.NewFromInt(-1))})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCatalogService_Create(t *testing.T) {
	t.Parallel()

	valid := transport.CreateProductRequest{Name: "Lamp", Price: decimal.RequireFromString("19.90"), Stock: 4, Category: "Furniture"}

	tests := []struct {
		name    string
		id      domain.Identity
		mutate  func(*transport.CreateProductRequest)
		wantErr error
	}{
		{name: "admin", id: boss},
		{name: "anonymous", id: domain.Anonymous, wantErr: domain.ErrUnauthenticated},
		{name: "user", id: alice, wantErr: domain.ErrForbidden},
		{name: "blank name", id: boss, mutate: func(r *transport.CreateProductRequest) { r.Name = "  " }, wantErr: domain.ErrValidation},
		{name: "no category", id: boss, mutate: func(r *transport.CreateProductRequest) { r.Category = "" }, wantErr: domain.ErrValidation},
		{name: "negative price", id: boss, mutate: func(r *transport.CreateProductRequest) { r.Price = decimal.NewFromInt(-1) }, wantErr: domain.ErrValidation},
		{name: "negative stock", id: boss, mutate: func(r *transport.CreateProductRequest) { r.Stock = -1 }, wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, repo.NewMemoryStores(models.DefaultCatalog()))
			idx := &fakeIndex{}
			f.catalog.Search = idx

			req := valid
			if tt.mutate != nil {
				tt.mutate(&req)
			}
			p, err := f.catalog.Create(context.Background(), tt.id, req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, f.events.types())
				assert.Empty(t, idx.indexed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint(7), p.ID)
			assert.Equal(t, []string{"product_created"}, f.events.types())
			assert.Equal(t, []uint{7}, idx.indexed)
		})
	}
}

func TestCatalogService_Update(t *testing.T) {
	t.Parallel()
	f := newFixture(t, repo.NewMemoryStores(models.DefaultCatalog()))
	ctx := context.Background()

	_, err := f.catalog.Update(ctx, alice, 1, transport.UpdateProductRequest{Stock: ptr(1)})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.catalog.Update(ctx, boss, 1, transport.UpdateProductRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.catalog.Update(ctx, boss, 404, transport.UpdateProductRequest{Stock: ptr(1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p, err := f.catalog.Update(ctx, boss, 1, transport.UpdateProductRequest{Price: ptr(decimal.RequireFromString("899.00")), Stock: ptr(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
	assert.True(t, decimal.RequireFromString("899").Equal(p.Price))
	assert.Equal(t, []string{"product_updated"}, f.events.types())

	o, err := f.engine.CreateOrder(ctx, alice, 1, 2)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1798").Equal(o.TotalPrice), "orders use the price current at commit")
}

func TestCatalogService_Search(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("unavailable without backend", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, repo.NewMemoryStores(models.DefaultCatalog()))
		_, _, err := f.catalog.SearchProducts(ctx, "desk", 1, 10)
		assert.ErrorIs(t, err, domain.ErrUnavailable)
	})

	t.Run("hits are read from the catalog", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, repo.NewMemoryStores(models.DefaultCatalog()))
		f.catalog.Search = &fakeIndex{total: 3, hits: []uint{6, 99, 5}}

		_, err := f.stores.Catalog.AdjustStock(ctx, 5, -2)
		require.NoError(t, err)

		total, products, err := f.catalog.SearchProducts(ctx, "desk", 2, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, products, 2)
		assert.Equal(t, "Desk 1", products[0].Name)
		assert.Equal(t, 3, products[1].Stock)

		idx := f.catalog.Search.(*fakeIndex)
		assert.Equal(t, 10, idx.from)
		assert.Equal(t, 10, idx.size)
	})

	t.Run("empty query", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, repo.NewMemoryStores(models.DefaultCatalog()))
		f.catalog.Search = &fakeIndex{}
		_, _, err := f.catalog.SearchProducts(ctx, " ", 1, 10)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("backend failure", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, repo.NewMemoryStores(models.DefaultCatalog()))
		f.catalog.Search = &fakeIndex{err: errors.New("connection refused")}
		_, _, err := f.catalog.SearchProducts(ctx, "desk", 1, 10)
		assert.ErrorIs(t, err, domain.ErrUnavailable)
	})
}

func TestCatalogService_Reindex(t *testing.T) {
	t.Parallel()
	f := newFixture(t, repo.NewMemoryStores(models.DefaultCatalog()))
	idx := &fakeIndex{}
	f.catalog.Search = idx

	require.NoError(t, f.catalog.Reindex(context.Background()))
	assert.Equal(t, []uint{1, 2, 3, 4, 5, 6}, idx.indexed)
}
