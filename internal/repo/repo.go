// Package repo holds the catalog, account and order stores. Every store has an
// in-memory implementation and a gorm implementation for SQLite and Postgres.
package repo

import (
	"context"

	"github.com/Skotchmaster/shop_engine/internal/models"
	"gorm.io/gorm"
)

type Catalog interface {
	Get(ctx context.Context, id uint) (*models.Product, error)
	Create(ctx context.Context, p models.Product) (*models.Product, error)
	// AdjustStock applies stock += delta only when the result stays non-negative.
	AdjustStock(ctx context.Context, id uint, delta int) (*models.Product, error)
	List(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	Update(ctx context.Context, id uint, patch models.ProductPatch) (*models.Product, error)
	Count(ctx context.Context) (int64, error)
	Reset(ctx context.Context, seed []models.Product) error
}

type Accounts interface {
	Get(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, u models.User) (*models.User, error)
	List(ctx context.Context, limit int) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
	Reset(ctx context.Context) error
}

// ApplyFunc runs inside a ledger transition before the new status is written.
// A non-nil error aborts the transition.
type ApplyFunc func(ctx context.Context, o models.Order) error

type Ledger interface {
	Append(ctx context.Context, o models.Order) (*models.Order, error)
	Get(ctx context.Context, id uint) (*models.Order, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	SetStatus(ctx context.Context, id uint, status models.OrderStatus) error
	Transition(ctx context.Context, id uint, from, to models.OrderStatus, apply ApplyFunc) (*models.Order, error)
	Count(ctx context.Context) (int64, error)
	Reset(ctx context.Context) error
}

// Stores bundles one backend's stores with the transactor that spans them.
type Stores struct {
	Catalog  Catalog
	Accounts Accounts
	Ledger   Ledger
	Tx       Transactor
}

func NewMemoryStores(seed []models.Product) Stores {
	return Stores{
		Catalog:  NewMemoryCatalog(seed),
		Accounts: NewMemoryAccounts(),
		Ledger:   NewMemoryLedger(),
		Tx:       NoTx{},
	}
}

func NewGormStores(db *gorm.DB) Stores {
	return Stores{
		Catalog:  &GormCatalog{DB: db},
		Accounts: &GormAccounts{DB: db},
		Ledger:   &GormLedger{DB: db},
		Tx:       GormTransactor{DB: db, MaxRetries: 3},
	}
}
