package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type Product struct {
	ID       uint            `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name     string          `gorm:"not null"                       json:"name"`
	Price    decimal.Decimal `gorm:"type:numeric(12,2);not null"    json:"price"`
	Stock    int             `gorm:"not null;check:stock >= 0"      json:"stock"`
	Category string          `gorm:"index;not null"                 json:"category"`
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"           json:"username"`
	PasswordHash string    `gorm:"not null"                       json:"-"`
	Email        string    `gorm:"not null"                       json:"email"`
	Role         string    `gorm:"not null;default:user"          json:"role"`
	CreatedAt    time.Time `gorm:"not null"                       json:"created_at"`
}

type Order struct {
	ID         uint            `gorm:"primaryKey;autoIncrement:false" json:"id"`
	UserID     uint            `gorm:"index;not null"                 json:"user_id"`
	ProductID  uint            `gorm:"index;not null"                 json:"product_id"`
	Quantity   int             `gorm:"not null;check:quantity > 0"    json:"quantity"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(14,2);not null"    json:"total_price"`
	Status     OrderStatus     `gorm:"index;not null"                 json:"status"`
	CreatedAt  time.Time       `gorm:"not null"                       json:"created_at"`
}

// ProductFilter narrows a catalog listing. Nil fields do not filter.
type ProductFilter struct {
	Category *string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

func (f ProductFilter) Match(p Product) bool {
	if f.Category != nil && p.Category != *f.Category {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

// ProductPatch overwrites the non-nil fields of a product.
type ProductPatch struct {
	Price *decimal.Decimal
	Stock *int
}

func (p ProductPatch) Empty() bool {
	return p.Price == nil && p.Stock == nil
}

func DefaultCatalog() []Product {
	return []Product{
		{ID: 1, Name: "Laptop", Price: decimal.RequireFromString("999.99"), Stock: 10, Category: "Electronics"},
		{ID: 2, Name: "Mouse", Price: decimal.RequireFromString("29.99"), Stock: 50, Category: "Electronics"},
		{ID: 3, Name: "Keyboard", Price: decimal.RequireFromString("79.99"), Stock: 30, Category: "Electronics"},
		{ID: 4, Name: "Monitor", Price: decimal.RequireFromString("299.99"), Stock: 15, Category: "Electronics"},
		{ID: 5, Name: "Desk", Price: decimal.RequireFromString("199.99"), Stock: 5, Category: "Furniture"},
		{ID: 6, Name: "Desk 1", Price: decimal.RequireFromString("299.99"), Stock: 15, Category: "Furniture"},
	}
}
