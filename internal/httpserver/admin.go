package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/shop_engine/internal/logging"
	authmw "github.com/Skotchmaster/shop_engine/internal/middleware/auth"
	"github.com/Skotchmaster/shop_engine/internal/service"
	"github.com/Skotchmaster/shop_engine/internal/transport"
	"github.com/labstack/echo/v4"
)

type AdminHTTP struct {
	Svc *service.AdminService
}

func (h *AdminHTTP) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.stats")

	st, err := h.Svc.Stats(ctx, authmw.IdentityOf(c))
	if err != nil {
		return fail(l, "stats_error", err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *AdminHTTP) Reset(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.reset")

	if err := h.Svc.Reset(ctx, authmw.IdentityOf(c)); err != nil {
		return fail(l, "reset_error", err)
	}

	l.Info("reset_success")
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Database reset successfully"})
}
