package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConsumptionLine is one charged order line on a table's running tab.
type ConsumptionLine struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Dispatched  bool            `json:"dispatched"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PaymentLine is one registered payment against a table's tab.
type PaymentLine struct {
	ID        int64           `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableAccount is the per-table consumption/payment snapshot. BalanceDue may
// go negative after a confirmed overpayment (advance payment).
type TableAccount struct {
	TableID       int64             `json:"table_id"`
	TableName     string            `json:"table_name"`
	TotalConsumed decimal.Decimal   `json:"total_consumed"`
	TotalPaid     decimal.Decimal   `json:"total_paid"`
	BalanceDue    decimal.Decimal   `json:"balance_due"`
	Consumptions  []ConsumptionLine `json:"consumptions"`
	Payments      []PaymentLine     `json:"payments"`
}

// Settled reports whether the table can be deactivated or its session closed.
func (a *TableAccount) Settled() bool {
	return a.BalanceDue.LessThanOrEqual(decimal.Zero)
}

// PreviousAccount is an archived tab from a closed table session.
type PreviousAccount struct {
	ID            int64           `json:"id"`
	TableID       int64           `json:"table_id"`
	TotalConsumed decimal.Decimal `json:"total_consumed"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	ClosedAt      time.Time       `json:"closed_at"`
}

// Table is the table resource itself, distinct from its running account.
type Table struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// RecentConsumption is one entry in the operator dispatch feed.
type RecentConsumption struct {
	ID          int64           `json:"id"`
	TableName   string          `json:"table_name"`
	UserNick    string          `json:"user_nick"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Dispatched  bool            `json:"dispatched"`
	CreatedAt   time.Time       `json:"created_at"`
}
