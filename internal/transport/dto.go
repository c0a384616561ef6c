package transport

import (
	"time"

	"github.com/Skotchmaster/shop_engine/internal/models"
	"github.com/shopspring/decimal"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

type CreateProductRequest struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Category string          `json:"category"`
}

type UpdateProductRequest struct {
	Price *decimal.Decimal `json:"price"`
	Stock *int             `json:"stock"`
}

type SearchResponse struct {
	Total    int64            `json:"total"`
	Products []models.Product `json:"products"`
}

type CreateOrderRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CancelOrderResponse struct {
	Message string       `json:"message"`
	OrderID uint         `json:"order_id"`
	Order   models.Order `json:"order"`
}

type Stats struct {
	TotalUsers    int64           `json:"total_users"`
	TotalProducts int64           `json:"total_products"`
	TotalOrders   int64           `json:"total_orders"`
	PendingOrders int64           `json:"pending_orders"`
	Revenue       decimal.Decimal `json:"revenue"`
	Users         []models.User   `json:"users"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
