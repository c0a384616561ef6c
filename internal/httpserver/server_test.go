package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Skotchmaster/shop_engine/internal/auth"
	"github.com/Skotchmaster/shop_engine/internal/logging"
	"github.com/Skotchmaster/shop_engine/internal/models"
	"github.com/Skotchmaster/shop_engine/internal/mykafka"
	"github.com/Skotchmaster/shop_engine/internal/repo"
	"github.com/Skotchmaster/shop_engine/internal/service"
	"github.com/Skotchmaster/shop_engine/internal/transport"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	Stores repo.Stores
	Admin  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	stores := repo.NewMemoryStores(models.DefaultCatalog())
	gate := auth.NewGate(stores.Accounts, []byte("test-secret"), time.Hour)
	events := mykafka.NopPublisher{}

	catalog := &service.CatalogService{Catalog: stores.Catalog, Events: events}
	accounts := &service.AccountService{Accounts: stores.Accounts, Gate: gate, Events: events}
	adminAcc := service.AdminAccount{Username: "root", Email: "root@example.com", Password: "rootpass"}
	admin := &service.AdminService{Stores: stores, Accounts: accounts, Catalog: catalog, Admin: adminAcc}

	_, err := accounts.EnsureAdmin(context.Background(), adminAcc.Username, adminAcc.Email, adminAcc.Password)
	require.NoError(t, err)

	d := NewDeps("shop_engine", logging.NewWithWriter(io.Discard, "error"), gate, service.NewEngine(stores, events), catalog, accounts, admin)
	env := &testEnv{T: t, E: New(d), Stores: stores}
	env.Admin = env.login("root", "rootpass")
	return env
}

func (env *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	env.T.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(env.T, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) login(username, password string) string {
	env.T.Helper()

	rec := env.do(http.MethodPost, "/api/users/login", "", transport.LoginRequest{Username: username, Password: password})
	require.Equal(env.T, http.StatusOK, rec.Code, rec.Body.String())
	var res transport.LoginResponse
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &res))
	return res.Token
}

func (env *testEnv) register(username string) string {
	env.T.Helper()

	rec := env.do(http.MethodPost, "/api/users/register", "", transport.RegisterRequest{
		Username: username, Email: username + "@example.com", Password: "secret1",
	})
	require.Equal(env.T, http.StatusCreated, rec.Code, rec.Body.String())
	return env.login(username, "secret1")
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health/live", "", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health/ready", "", nil).Code)

	rec := env.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "running", decode[map[string]any](t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestUsers(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/users/register", "", transport.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.do(http.MethodPost, "/api/users/register", "", transport.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPost, "/api/users/register", "", transport.RegisterRequest{Username: "al", Email: "bad", Password: "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/users/login", "", transport.LoginRequest{Username: "alice", Password: "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := env.login("alice", "secret1")

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/users/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/users/me", "garbage", nil).Code)

	rec = env.do(http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decode[models.User](t, rec).Username)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/users", token, nil).Code)

	rec = env.do(http.MethodGet, "/api/users?limit=1", env.Admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.User](t, rec), 1)
}

func TestProducts(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	user := env.register("alice")

	rec := env.do(http.MethodGet, "/api/products?category=Furniture&min_price=250", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]models.Product](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "Desk 1", items[0].Name)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/products?min_price=abc", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/products?min_price=10&max_price=5", "", nil).Code)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/products/1", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/products/99", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/products/abc", "", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, env.do(http.MethodGet, "/api/products/search?q=desk", "", nil).Code)

	body := map[string]any{"name": "Lamp", "price": "19.90", "stock": 4, "category": "Furniture"}
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/api/products", "", body).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/api/products", user, body).Code)

	rec = env.do(http.MethodPost, "/api/products", env.Admin, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Product](t, rec)
	assert.Equal(t, uint(7), created.ID)
	assert.True(t, decimal.RequireFromString("19.9").Equal(created.Price))

	rec = env.do(http.MethodPut, "/api/products/7", env.Admin, map[string]any{"stock": 9})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 9, decode[models.Product](t, rec).Stock)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPut, "/api/products/7", env.Admin, map[string]any{}).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPut, "/api/products/70", env.Admin, map[string]any{"stock": 1}).Code)
}

func TestOrders(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	alice := env.register("alice")
	bob := env.register("bobby")

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/api/orders", "", transport.CreateOrderRequest{ProductID: 1, Quantity: 1}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/orders", alice, transport.CreateOrderRequest{ProductID: 1, Quantity: 0}).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/api/orders", alice, transport.CreateOrderRequest{ProductID: 99, Quantity: 1}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/orders", alice, transport.CreateOrderRequest{ProductID: 1, Quantity: 11}).Code)

	rec := env.do(http.MethodPost, "/api/orders", alice, transport.CreateOrderRequest{ProductID: 1, Quantity: 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[models.Order](t, rec)
	assert.Equal(t, uint(1), order.ID)
	assert.True(t, decimal.RequireFromString("1999.98").Equal(order.TotalPrice))

	rec = env.do(http.MethodGet, "/api/orders/my", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Order](t, rec), 1)

	rec = env.do(http.MethodGet, "/api/orders/my", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.Order](t, rec))

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/orders/1", bob, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/orders/1", env.Admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/orders/5", alice, nil).Code)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodDelete, "/api/orders/1", bob, nil).Code)

	rec = env.do(http.MethodDelete, "/api/orders/1", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[transport.CancelOrderResponse](t, rec)
	assert.Equal(t, "Order cancelled", res.Message)
	assert.Equal(t, uint(1), res.OrderID)
	assert.Equal(t, models.OrderStatusCancelled, res.Order.Status)

	assert.Equal(t, http.StatusConflict, env.do(http.MethodDelete, "/api/orders/1", alice, nil).Code)

	p, err := env.Stores.Catalog.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)
}

func TestAdmin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	alice := env.register("alice")

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/admin/stats", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/admin/stats", alice, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/api/admin/reset", alice, nil).Code)

	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/orders", alice, transport.CreateOrderRequest{ProductID: 2, Quantity: 3}).Code)

	rec := env.do(http.MethodGet, "/api/admin/stats", env.Admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	st := decode[transport.Stats](t, rec)
	assert.Equal(t, int64(2), st.TotalUsers)
	assert.Equal(t, int64(1), st.PendingOrders)
	assert.True(t, decimal.RequireFromString("89.97").Equal(st.Revenue))

	rec = env.do(http.MethodPost, "/api/admin/reset", env.Admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Database reset successfully", decode[transport.MessageResponse](t, rec).Message)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/users/me", alice, nil).Code, "accounts are wiped by reset")

	rec = env.do(http.MethodGet, "/api/admin/stats", env.Admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st = decode[transport.Stats](t, rec)
	assert.Equal(t, int64(1), st.TotalUsers)
	assert.Zero(t, st.TotalOrders)
}
