package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/shop_engine/internal/logging"
	authmw "github.com/Skotchmaster/shop_engine/internal/middleware/auth"
	"github.com/Skotchmaster/shop_engine/internal/service"
	"github.com/Skotchmaster/shop_engine/internal/transport"
	"github.com/labstack/echo/v4"
)

const defaultUsersLimit = 100

type UserHTTP struct {
	Svc *service.AccountService
}

func (h *UserHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_error", "invalid body", err)
	}

	u, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_error", err)
	}

	l.Info("register_success", "user_id", u.ID)
	return c.JSON(http.StatusCreated, u)
}

func (h *UserHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", "invalid body", err)
	}
	if req.Username == "" || req.Password == "" {
		return badRequest(l, "login_error", "username and password required", nil)
	}

	res, err := h.Svc.Login(ctx, req)
	if err != nil {
		return fail(l, "login_error", err)
	}

	l.Info("login_success", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, res)
}

func (h *UserHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.me")

	u, err := h.Svc.Me(ctx, authmw.IdentityOf(c))
	if err != nil {
		return fail(l, "me_error", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.list")

	limit := parseIntDefault(c.QueryParam("limit"), defaultUsersLimit)
	users, err := h.Svc.ListUsers(ctx, authmw.IdentityOf(c), limit)
	if err != nil {
		return fail(l, "list_users_error", err)
	}
	return c.JSON(http.StatusOK, users)
}
