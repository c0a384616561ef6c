package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Skotchmaster/shop_engine/internal/domain"
	"github.com/Skotchmaster/shop_engine/internal/models"
	"github.com/Skotchmaster/shop_engine/internal/mykafka"
	"github.com/Skotchmaster/shop_engine/internal/repo"
	"github.com/shopspring/decimal"
)

// Engine places and cancels orders. A committed order always has a matching
// stock reservation, and a cancellation always returns it.
type Engine struct {
	Catalog repo.Catalog
	Ledger  repo.Ledger
	Tx      repo.Transactor
	Events  mykafka.Publisher
}

func NewEngine(s repo.Stores, events mykafka.Publisher) *Engine {
	return &Engine{Catalog: s.Catalog, Ledger: s.Ledger, Tx: s.Tx, Events: events}
}

type orderEvent struct {
	OrderID    uint               `json:"order_id"`
	UserID     uint               `json:"user_id"`
	ProductID  uint               `json:"product_id"`
	Quantity   int                `json:"quantity"`
	TotalPrice decimal.Decimal    `json:"total_price"`
	Status     models.OrderStatus `json:"status"`
}

func newOrderEvent(o *models.Order) orderEvent {
	return orderEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		ProductID:  o.ProductID,
		Quantity:   o.Quantity,
		TotalPrice: o.TotalPrice,
		Status:     o.Status,
	}
}

func (e *Engine) CreateOrder(ctx context.Context, id domain.Identity, productID uint, quantity int) (*models.Order, error) {
	if err := domain.RequireUser(id); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", domain.ErrValidation)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Once started the reservation runs to completion even if the client goes away.
	ctx = context.WithoutCancel(ctx)

	product, err := e.Catalog.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = e.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := e.Catalog.AdjustStock(ctx, productID, -quantity); err != nil {
			return err
		}
		o, err := e.Ledger.Append(ctx, models.Order{
			UserID:     id.UserID,
			ProductID:  productID,
			Quantity:   quantity,
			TotalPrice: product.Price.Mul(decimal.NewFromInt(int64(quantity))),
			Status:     models.OrderStatusPending,
			CreatedAt:  time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, e.Events, mykafka.TopicOrders, strconv.FormatUint(uint64(order.ID), 10), "order_created", newOrderEvent(order))
	return order, nil
}

func (e *Engine) CancelOrder(ctx context.Context, id domain.Identity, orderID uint) (*models.Order, error) {
	if err := domain.RequireUser(id); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	current, err := e.Ledger.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current.UserID != id.UserID {
		return nil, fmt.Errorf("%w: order %d belongs to another user", domain.ErrForbidden, orderID)
	}
	if current.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("%w: order %d is %s", domain.ErrInvalidState, orderID, current.Status)
	}

	var order *models.Order
	err = e.Tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := e.Ledger.Transition(ctx, orderID, models.OrderStatusPending, models.OrderStatusCancelled,
			func(ctx context.Context, o models.Order) error {
				_, err := e.Catalog.AdjustStock(ctx, o.ProductID, o.Quantity)
				return err
			})
		if err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, e.Events, mykafka.TopicOrders, strconv.FormatUint(uint64(order.ID), 10), "order_cancelled", newOrderEvent(order))
	return order, nil
}

func (e *Engine) ListOrders(ctx context.Context, id domain.Identity) ([]models.Order, error) {
	if err := domain.RequireUser(id); err != nil {
		return nil, err
	}
	return e.Ledger.ListByUser(ctx, id.UserID)
}

func (e *Engine) GetOrder(ctx context.Context, id domain.Identity, orderID uint) (*models.Order, error) {
	if err := domain.RequireUser(id); err != nil {
		return nil, err
	}
	o, err := e.Ledger.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != id.UserID && !id.IsAdmin() {
		return nil, fmt.Errorf("%w: order %d belongs to another user", domain.ErrForbidden, orderID)
	}
	return o, nil
}
