package model

import "github.com/shopspring/decimal"

// Product is an opaque catalog DTO; the client only reads stock and price.
type Product struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Cost     decimal.Decimal `json:"cost"`
	Stock    int             `json:"stock"`
	Category string          `json:"category"`
	IsActive bool            `json:"is_active"`
}

// CartLine is one pending line of an order under composition. It exists only
// inside a cart; it is never persisted on its own.
type CartLine struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}
