package auth

import (
	"context"

	"github.com/Skotchmaster/shop_engine/internal/domain"
	"github.com/labstack/echo/v4"
)

type ctxKey struct{}

const identityKey = "identity"

func IntoContext(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns Anonymous when no identity was resolved.
func FromContext(ctx context.Context) domain.Identity {
	if id, ok := ctx.Value(ctxKey{}).(domain.Identity); ok {
		return id
	}
	return domain.Anonymous
}

func IdentityOf(c echo.Context) domain.Identity {
	if id, ok := c.Get(identityKey).(domain.Identity); ok {
		return id
	}
	return FromContext(c.Request().Context())
}

func setIdentity(c echo.Context, id domain.Identity) {
	c.Set(identityKey, id)
	c.SetRequest(c.Request().WithContext(IntoContext(c.Request().Context(), id)))
}
