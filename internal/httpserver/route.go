package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Skotchmaster/shop_engine/internal/auth"
	authmw "github.com/Skotchmaster/shop_engine/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/shop_engine/internal/middleware/logging"
	"github.com/Skotchmaster/shop_engine/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Deps struct {
	ServiceName string
	Logger      *slog.Logger
	Gate        *auth.Gate
	CORSOrigins []string
	// Ready reports whether backing stores are reachable.
	Ready func() error

	Users    *UserHTTP
	Products *ProductHTTP
	Orders   *OrderHTTP
	Admin    *AdminHTTP
}

func NewDeps(name string, logger *slog.Logger, gate *auth.Gate, engine *service.Engine, catalog *service.CatalogService, accounts *service.AccountService, admin *service.AdminService) *Deps {
	return &Deps{
		ServiceName: name,
		Logger:      logger,
		Gate:        gate,
		Users:       &UserHTTP{Svc: accounts},
		Products:    &ProductHTTP{Svc: catalog},
		Orders:      &OrderHTTP{Engine: engine},
		Admin:       &AdminHTTP{Svc: admin},
	}
}

// New builds the echo instance with the middleware chain and every route.
func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(d.Logger))
	if len(d.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: d.CORSOrigins,
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		}))
	}
	e.Use(authmw.Resolve(d.Gate))

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":    "running",
			"service":   d.ServiceName,
			"timestamp": time.Now().UTC(),
		})
	})
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	api := e.Group("/api")

	users := api.Group("/users")
	users.POST("/register", d.Users.Register)
	users.POST("/login", d.Users.Login)
	users.GET("/me", d.Users.Me, authmw.RequireLogin)
	users.GET("", d.Users.List, authmw.AdminOnly)

	products := api.Group("/products")
	products.GET("", d.Products.List)
	products.GET("/search", d.Products.Search)
	products.GET("/:id", d.Products.Get)
	products.POST("", d.Products.Create, authmw.AdminOnly)
	products.PUT("/:id", d.Products.Update, authmw.AdminOnly)

	orders := api.Group("/orders", authmw.RequireLogin)
	orders.POST("", d.Orders.Create)
	orders.GET("/my", d.Orders.My)
	orders.GET("/:id", d.Orders.Get)
	orders.DELETE("/:id", d.Orders.Cancel)

	admin := api.Group("/admin", authmw.AdminOnly)
	admin.GET("/stats", d.Admin.Stats)
	admin.POST("/reset", d.Admin.Reset)
}
