package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/shop_engine/internal/logging"
	authmw "github.com/Skotchmaster/shop_engine/internal/middleware/auth"
	"github.com/Skotchmaster/shop_engine/internal/service"
	"github.com/Skotchmaster/shop_engine/internal/transport"
	"github.com/labstack/echo/v4"
)

type OrderHTTP struct {
	Engine *service.Engine
}

func (h *OrderHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order_error", "invalid body", err)
	}
	if req.ProductID == 0 {
		return badRequest(l, "create_order_error", "product_id required", nil)
	}

	o, err := h.Engine.CreateOrder(ctx, authmw.IdentityOf(c), req.ProductID, req.Quantity)
	if err != nil {
		return fail(l, "create_order_error", err)
	}

	l.Info("create_order_success", "order_id", o.ID, "product_id", o.ProductID, "quantity", o.Quantity)
	return c.JSON(http.StatusCreated, o)
}

func (h *OrderHTTP) My(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_my_orders")

	orders, err := h.Engine.ListOrders(ctx, authmw.IdentityOf(c))
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	id, err := parseID(c)
	if err != nil {
		return badRequest(l, "get_order_error", err.Error(), err)
	}

	o, err := h.Engine.GetOrder(ctx, authmw.IdentityOf(c), id)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel_order")

	id, err := parseID(c)
	if err != nil {
		return badRequest(l, "cancel_order_error", err.Error(), err)
	}

	o, err := h.Engine.CancelOrder(ctx, authmw.IdentityOf(c), id)
	if err != nil {
		return fail(l, "cancel_order_error", err)
	}

	l.Info("cancel_order_success", "order_id", o.ID)
	return c.JSON(http.StatusOK, transport.CancelOrderResponse{Message: "Order cancelled", OrderID: o.ID, Order: *o})
}
