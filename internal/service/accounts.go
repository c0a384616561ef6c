package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Skotchmaster/shop_engine/internal/auth"
	"github.com/Skotchmaster/shop_engine/internal/domain"
	"github.com/Skotchmaster/shop_engine/internal/hash"
	"github.com/Skotchmaster/shop_engine/internal/models"
	"github.com/Skotchmaster/shop_engine/internal/mykafka"
	"github.com/Skotchmaster/shop_engine/internal/repo"
	"github.com/Skotchmaster/shop_engine/internal/transport"
	"github.com/Skotchmaster/shop_engine/internal/util"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 6
	maxUsersLimit  = 1000
)

type AccountService struct {
	Accounts repo.Accounts
	Gate     *auth.Gate
	Events   mykafka.Publisher
}

type userEvent struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func validateCredentials(username, email, password string) error {
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return fmt.Errorf("%w: username must be %d..%d characters", domain.ErrValidation, minUsernameLen, maxUsernameLen)
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLen)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}
	return nil
}

func (s *AccountService) create(ctx context.Context, username, email, password, role string) (*models.User, error) {
	h, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return s.Accounts.Create(ctx, models.User{
		Username:     username,
		Email:        email,
		PasswordHash: h,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
}

func (s *AccountService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if err := validateCredentials(username, email, req.Password); err != nil {
		return nil, err
	}

	u, err := s.create(ctx, username, email, req.Password, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.Events, mykafka.TopicUsers, strconv.FormatUint(uint64(u.ID), 10), "user_registered",
		userEvent{UserID: u.ID, Username: u.Username, Role: u.Role})
	return u, nil
}

func (s *AccountService) Login(ctx context.Context, req transport.LoginRequest) (*transport.LoginResponse, error) {
	u, err := s.Accounts.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(u.PasswordHash, req.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	token, exp, err := s.Gate.Issue(*u)
	if err != nil {
		return nil, err
	}
	return &transport.LoginResponse{Token: token, ExpiresAt: exp, User: *u}, nil
}

func (s *AccountService) Me(ctx context.Context, id domain.Identity) (*models.User, error) {
	if err := domain.RequireUser(id); err != nil {
		return nil, err
	}
	u, err := s.Accounts.Get(ctx, id.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthenticated
	}
	return u, err
}

func (s *AccountService) ListUsers(ctx context.Context, id domain.Identity, limit int) ([]models.User, error) {
	if err := domain.RequireAdmin(id); err != nil {
		return nil, err
	}
	return s.Accounts.List(ctx, util.Clamp(limit, 1, maxUsersLimit))
}

// EnsureAdmin creates the admin account unless it already exists.
func (s *AccountService) EnsureAdmin(ctx context.Context, username, email, password string) (*models.User, error) {
	existing, err := s.Accounts.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if existing.Role != domain.RoleAdmin {
			return nil, fmt.Errorf("%w: %q exists and is not an admin", domain.ErrConflict, username)
		}
		return existing, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	if err := validateCredentials(username, email, password); err != nil {
		return nil, err
	}
	return s.create(ctx, username, email, password, domain.RoleAdmin)
}
