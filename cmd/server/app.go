package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_engine/internal/auth"
	"github.com/Skotchmaster/shop_engine/internal/config"
	"github.com/Skotchmaster/shop_engine/internal/db"
	"github.com/Skotchmaster/shop_engine/internal/httpserver"
	"github.com/Skotchmaster/shop_engine/internal/models"
	"github.com/Skotchmaster/shop_engine/internal/mykafka"
	"github.com/Skotchmaster/shop_engine/internal/repo"
	"github.com/Skotchmaster/shop_engine/internal/search"
	"github.com/Skotchmaster/shop_engine/internal/service"
)

type app struct {
	Echo   *echo.Echo
	logger *slog.Logger
	db     *gorm.DB
	events mykafka.Publisher
}

func (a *app) Close() {
	if err := a.events.Close(); err != nil {
		a.logger.Error("kafka_close_error", "error", err)
	}
	if a.db != nil {
		if err := db.Close(a.db); err != nil {
			a.logger.Error("db_close_error", "error", err)
		}
	}
}

func openStores(ctx context.Context, cfg config.Config) (repo.Stores, *gorm.DB, error) {
	var seed []models.Product
	if cfg.SeedCatalog {
		seed = models.DefaultCatalog()
	}

	var (
		gdb *gorm.DB
		err error
	)
	switch cfg.Storage {
	case config.StorageMemory:
		return repo.NewMemoryStores(seed), nil, nil
	case config.StorageSQLite:
		gdb, err = db.OpenSQLite(ctx, cfg.SQLitePath)
	case config.StoragePostgres:
		gdb, err = db.Open(ctx, cfg.DatabaseURL)
	default:
		return repo.Stores{}, nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
	if err != nil {
		return repo.Stores{}, nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		return repo.Stores{}, nil, err
	}

	stores := repo.NewGormStores(gdb)
	if cfg.SeedCatalog {
		n, err := stores.Catalog.Count(ctx)
		if err != nil {
			return repo.Stores{}, nil, err
		}
		if n == 0 {
			if err := stores.Catalog.Reset(ctx, seed); err != nil {
				return repo.Stores{}, nil, err
			}
		}
	}
	return stores, gdb, nil
}

func build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	stores, gdb, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{logger: logger, db: gdb, events: mykafka.NopPublisher{}}

	if len(cfg.KafkaBrokers) > 0 {
		prod, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.events = prod
	} else {
		logger.Info("kafka disabled, events are dropped")
	}

	gate := auth.NewGate(stores.Accounts, cfg.JWTSecret, cfg.AccessTTL)
	catalog := &service.CatalogService{Catalog: stores.Catalog, Events: a.events}
	if cfg.ESURL != "" {
		es, err := search.NewClient(ctx, search.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword, Index: cfg.ESIndex})
		if err != nil {
			logger.Warn("elasticsearch unavailable, search disabled", "error", err)
		} else {
			catalog.Search = es
			if err := catalog.Reindex(ctx); err != nil {
				logger.Warn("reindex_error", "error", err)
			}
		}
	}

	accounts := &service.AccountService{Accounts: stores.Accounts, Gate: gate, Events: a.events}
	adminAcc := service.AdminAccount{Username: cfg.AdminUsername, Email: cfg.AdminEmail, Password: cfg.AdminPassword}
	if adminAcc.Username != "" {
		if _, err := accounts.EnsureAdmin(ctx, adminAcc.Username, adminAcc.Email, adminAcc.Password); err != nil {
			a.Close()
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
	}
	admin := &service.AdminService{Stores: stores, Accounts: accounts, Catalog: catalog, Admin: adminAcc}

	d := httpserver.NewDeps(cfg.ServiceName, logger, gate, service.NewEngine(stores, a.events), catalog, accounts, admin)
	d.CORSOrigins = cfg.CORSOrigins
	if gdb != nil {
		d.Ready = func() error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(context.Background())
		}
	}
	a.Echo = httpserver.New(d)
	return a, nil
}
