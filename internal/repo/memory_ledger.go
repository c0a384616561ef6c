package repo

import (
	"context"
	"fmt"
	"sync"

	"github.com/Skotchmaster/shop_engine/internal/domain"
	"github.com/Skotchmaster/shop_engine/internal/models"
)

// MemoryLedger stores orders in append order. Transition holds the ledger
// lock while apply runs, so apply may take the catalog lock but nothing that
// holds the catalog lock may call into the ledger.
type MemoryLedger struct {
	mu     sync.Mutex
	orders []models.Order
	byID   map[uint]int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{byID: make(map[uint]int)}
}

func (l *MemoryLedger) Append(_ context.Context, o models.Order) (*models.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	o.ID = uint(len(l.orders)) + 1
	if _, dup := l.byID[o.ID]; dup {
		panic(fmt.Sprintf("ledger: order id %d already assigned", o.ID))
	}
	l.byID[o.ID] = len(l.orders)
	l.orders = append(l.orders, o)
	return &o, nil
}

func (l *MemoryLedger) Get(_ context.Context, id uint) (*models.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
	}
	o := l.orders[i]
	return &o, nil
}

func (l *MemoryLedger) ListByUser(_ context.Context, userID uint) ([]models.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Order, 0)
	for _, o := range l.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (l *MemoryLedger) List(_ context.Context) ([]models.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Order, len(l.orders))
	copy(out, l.orders)
	return out, nil
}

func (l *MemoryLedger) SetStatus(_ context.Context, id uint, status models.OrderStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.byID[id]
	if !ok {
		return fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
	}
	l.orders[i].Status = status
	return nil
}

func (l *MemoryLedger) Transition(ctx context.Context, id uint, from, to models.OrderStatus, apply ApplyFunc) (*models.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
	}
	if l.orders[i].Status != from {
		return nil, fmt.Errorf("%w: order %d is %s", domain.ErrInvalidState, id, l.orders[i].Status)
	}
	if apply != nil {
		if err := apply(ctx, l.orders[i]); err != nil {
			return nil, err
		}
	}
	l.orders[i].Status = to
	o := l.orders[i]
	return &o, nil
}

func (l *MemoryLedger) Count(_ context.Context) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int64(len(l.orders)), nil
}

func (l *MemoryLedger) Reset(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders = nil
	l.byID = make(map[uint]int)
	return nil
}
