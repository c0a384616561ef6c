package repo

import (
	"context"
	"fmt"
	"sync"

	"github.com/Skotchmaster/shop_engine/internal/domain"
	"github.com/Skotchmaster/shop_engine/internal/models"
)

type MemoryAccounts struct {
	mu         sync.RWMutex
	users      []models.User
	byUsername map[string]int
}

func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{byUsername: make(map[string]int)}
}

func (a *MemoryAccounts) Get(_ context.Context, id uint) (*models.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if id == 0 || int(id) > len(a.users) {
		return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	u := a.users[id-1]
	return &u, nil
}

func (a *MemoryAccounts) GetByUsername(_ context.Context, username string) (*models.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	i, ok := a.byUsername[username]
	if !ok {
		return nil, fmt.Errorf("%w: user %q", domain.ErrNotFound, username)
	}
	u := a.users[i]
	return &u, nil
}

func (a *MemoryAccounts) Create(_ context.Context, u models.User) (*models.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, taken := a.byUsername[u.Username]; taken {
		return nil, fmt.Errorf("%w: username %q already registered", domain.ErrConflict, u.Username)
	}
	u.ID = uint(len(a.users)) + 1
	a.byUsername[u.Username] = len(a.users)
	a.users = append(a.users, u)
	return &u, nil
}

func (a *MemoryAccounts) List(_ context.Context, limit int) ([]models.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	n := len(a.users)
	if limit >= 0 && limit < n {
		n = limit
	}
	out := make([]models.User, n)
	copy(out, a.users[:n])
	return out, nil
}

func (a *MemoryAccounts) Count(_ context.Context) (int64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return int64(len(a.users)), nil
}

func (a *MemoryAccounts) Reset(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.users = nil
	a.byUsername = make(map[string]int)
	return nil
}
