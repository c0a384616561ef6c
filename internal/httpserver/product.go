package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/shop_engine/internal/logging"
	authmw "github.com/Skotchmaster/shop_engine/internal/middleware/auth"
	"github.com/Skotchmaster/shop_engine/internal/models"
	"github.com/Skotchmaster/shop_engine/internal/service"
	"github.com/Skotchmaster/shop_engine/internal/transport"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ProductHTTP struct {
	Svc *service.CatalogService
}

func (h *ProductHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list")

	var f models.ProductFilter
	if v := c.QueryParam("category"); v != "" {
		f.Category = &v
	}
	for _, q := range []struct {
		name string
		dst  **decimal.Decimal
	}{{"min_price", &f.MinPrice}, {"max_price", &f.MaxPrice}} {
		raw := c.QueryParam(q.name)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return badRequest(l, "list_products_error", q.name+" is not a number", err)
		}
		*q.dst = &d
	}

	items, err := h.Svc.List(ctx, f)
	if err != nil {
		return fail(l, "list_products_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ProductHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), 0)

	total, items, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		return fail(l, "search_products_error", err)
	}
	return c.JSON(http.StatusOK, transport.SearchResponse{Total: total, Products: items})
}

func (h *ProductHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	id, err := parseID(c)
	if err != nil {
		return badRequest(l, "get_product_error", err.Error(), err)
	}

	p, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_product_error", "invalid body", err)
	}

	p, err := h.Svc.Create(ctx, authmw.IdentityOf(c), req)
	if err != nil {
		return fail(l, "create_product_error", err)
	}

	l.Info("create_product_success", "product_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	id, err := parseID(c)
	if err != nil {
		return badRequest(l, "update_product_error", err.Error(), err)
	}
	var req transport.UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_product_error", "invalid body", err)
	}

	p, err := h.Svc.Update(ctx, authmw.IdentityOf(c), id, req)
	if err != nil {
		return fail(l, "update_product_error", err)
	}

	l.Info("update_product_success", "product_id", p.ID)
	return c.JSON(http.StatusOK, p)
}
