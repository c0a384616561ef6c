package auth

import (
	"context"

	"github.com/Skotchmaster/shop_engine/internal/domain"
	"github.com/Skotchmaster/shop_engine/internal/logging"
	"github.com/labstack/echo/v4"
)

type Resolver interface {
	Resolve(ctx context.Context, token string) domain.Identity
}

// Resolve attaches the caller identity to every request. Requests without a
// valid bearer token continue as Anonymous.
func Resolve(r Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			id := r.Resolve(ctx, c.Request().Header.Get(echo.HeaderAuthorization))
			setIdentity(c, id)

			if !id.IsAnonymous() {
				l := logging.FromContext(ctx).With("user_id", id.UserID)
				c.SetRequest(c.Request().WithContext(logging.IntoContext(c.Request().Context(), l)))
			}
			return next(c)
		}
	}
}
