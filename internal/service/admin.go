package service

import (
	"context"

	"github.com/Skotchmaster/shop_engine/internal/domain"
	"github.com/Skotchmaster/shop_engine/internal/logging"
	"github.com/Skotchmaster/shop_engine/internal/models"
	"github.com/Skotchmaster/shop_engine/internal/repo"
	"github.com/Skotchmaster/shop_engine/internal/transport"
	"github.com/shopspring/decimal"
)

// AdminAccount is the account recreated after every reset. A zero value
// means no admin is bootstrapped.
type AdminAccount struct {
	Username string
	Email    string
	Password string
}

type AdminService struct {
	Stores   repo.Stores
	Accounts *AccountService
	Catalog  *CatalogService
	Admin    AdminAccount
}

func (s *AdminService) Stats(ctx context.Context, id domain.Identity) (*transport.Stats, error) {
	if err := domain.RequireAdmin(id); err != nil {
		return nil, err
	}

	users, err := s.Stores.Accounts.List(ctx, -1)
	if err != nil {
		return nil, err
	}
	products, err := s.Stores.Catalog.Count(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.Stores.Ledger.List(ctx)
	if err != nil {
		return nil, err
	}

	st := &transport.Stats{
		TotalUsers:    int64(len(users)),
		TotalProducts: products,
		TotalOrders:   int64(len(orders)),
		Revenue:       decimal.Zero,
		Users:         users,
	}
	for _, o := range orders {
		if o.Status == models.OrderStatusPending {
			st.PendingOrders++
			st.Revenue = st.Revenue.Add(o.TotalPrice)
		}
	}
	return st, nil
}

// Reset wipes orders and accounts, restores the default catalog and
// recreates the configured admin.
func (s *AdminService) Reset(ctx context.Context, id domain.Identity) error {
	if err := domain.RequireAdmin(id); err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)

	err := s.Stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Stores.Ledger.Reset(ctx); err != nil {
			return err
		}
		if err := s.Stores.Accounts.Reset(ctx); err != nil {
			return err
		}
		if err := s.Stores.Catalog.Reset(ctx, models.DefaultCatalog()); err != nil {
			return err
		}
		if s.Admin.Username != "" {
			if _, err := s.Accounts.EnsureAdmin(ctx, s.Admin.Username, s.Admin.Email, s.Admin.Password); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.Catalog != nil {
		if err := s.Catalog.Reindex(ctx); err != nil {
			logging.FromContext(ctx).Warn("reindex_error", "error", err)
		}
	}
	return nil
}
