package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Skotchmaster/shop_engine/internal/auth"
	"github.com/Skotchmaster/shop_engine/internal/db"
	"github.com/Skotchmaster/shop_engine/internal/domain"
	"github.com/Skotchmaster/shop_engine/internal/models"
	"github.com/Skotchmaster/shop_engine/internal/mykafka"
	"github.com/Skotchmaster/shop_engine/internal/repo"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	Topic string
	Key   string
	Event mykafka.Event
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Topic: topic, Key: key, Event: event.(mykafka.Event)})
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Event.Type
	}
	return out
}

type backend struct {
	name string
	open func(t *testing.T) repo.Stores
}

func backends() []backend {
	return []backend{
		{name: "memory", open: func(*testing.T) repo.Stores { return repo.NewMemoryStores(models.DefaultCatalog()) }},
		{name: "sqlite", open: openSQLite},
	}
}

func openSQLite(t *testing.T) repo.Stores {
	t.Helper()

	ctx := context.Background()
	gdb, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, db.Migrate(gdb))

	s := repo.NewGormStores(gdb)
	require.NoError(t, s.Catalog.Reset(ctx, models.DefaultCatalog()))
	return s
}

type fixture struct {
	stores   repo.Stores
	events   *recorder
	engine   *Engine
	catalog  *CatalogService
	accounts *AccountService
	admin    *AdminService
}

func newFixture(t *testing.T, stores repo.Stores) *fixture {
	t.Helper()

	events := &recorder{}
	gate := auth.NewGate(stores.Accounts, []byte("test-secret"), time.Hour)
	catalog := &CatalogService{Catalog: stores.Catalog, Events: events}
	accounts := &AccountService{Accounts: stores.Accounts, Gate: gate, Events: events}
	return &fixture{
		stores:   stores,
		events:   events,
		engine:   NewEngine(stores, events),
		catalog:  catalog,
		accounts: accounts,
		admin: &AdminService{
			Stores:   stores,
			Accounts: accounts,
			Catalog:  catalog,
			Admin:    AdminAccount{Username: "root", Email: "root@example.com", Password: "rootpass"},
		},
	}
}

var (
	alice = domain.Identity{UserID: 1, Username: "alice", Role: domain.RoleUser}
	bob   = domain.Identity{UserID: 2, Username: "bob", Role: domain.RoleUser}
	boss  = domain.Identity{UserID: 3, Username: "boss", Role: domain.RoleAdmin}
)

func (f *fixture) stock(t *testing.T, productID uint) int {
	t.Helper()
	p, err := f.stores.Catalog.Get(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) orderCount(t *testing.T) int64 {
	t.Helper()
	n, err := f.stores.Ledger.Count(context.Background())
	require.NoError(t, err)
	return n
}
