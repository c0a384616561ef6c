// Package auth turns bearer tokens into identities and issues access tokens.
// It never authorises; callers check the resolved identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/shop_engine/internal/domain"
	"github.com/Skotchmaster/shop_engine/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type UserLookup interface {
	Get(ctx context.Context, id uint) (*models.User, error)
}

type Gate struct {
	Users  UserLookup
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func NewGate(users UserLookup, secret []byte, ttl time.Duration) *Gate {
	return &Gate{Users: users, Secret: secret, TTL: ttl, Now: time.Now}
}

func (g *Gate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// Issue signs an HS256 access token for u.
func (g *Gate) Issue(u models.User) (string, time.Time, error) {
	now := g.now()
	exp := now.Add(g.TTL)
	claims := AccessClaims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(u.ID), 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

// Resolve returns the identity behind token, or domain.Anonymous when the
// token is absent, invalid, expired or names an account that no longer exists.
func (g *Gate) Resolve(ctx context.Context, token string) domain.Identity {
	raw := strings.TrimSpace(token)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return domain.Anonymous
	}

	claims, err := g.parse(raw)
	if err != nil {
		return domain.Anonymous
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return domain.Anonymous
	}

	u, err := g.Users.Get(ctx, uint(id))
	if err != nil {
		return domain.Anonymous
	}
	return domain.Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func (g *Gate) parse(raw string) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return g.Secret, nil
	}, jwt.WithTimeFunc(g.now))
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return &claims, nil
}
