package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := IdentityOf(c)
		if id.IsAnonymous() {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		if !id.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	}
}
