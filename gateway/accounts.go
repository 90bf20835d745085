package gateway

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"QRKara/model"
)

// PaymentRequest registers a payment against a table's tab.
type PaymentRequest struct {
	TableID int64           `json:"table_id"`
	Amount  decimal.Decimal `json:"amount"`
	Method  string          `json:"method"`
}

// FetchPaymentStatusReport returns the account snapshot for every active
// table (operator console view).
func (c *Client) FetchPaymentStatusReport(ctx context.Context) ([]model.TableAccount, error) {
	var accounts []model.TableAccount
	if err := c.get(ctx, "/admin/reports/table-payment-status", &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// FetchTableAccount returns one table's account snapshot (table client view).
func (c *Client) FetchTableAccount(ctx context.Context, tableID int64) (*model.TableAccount, error) {
	var account model.TableAccount
	if err := c.get(ctx, fmt.Sprintf("/tables/%d/payment-status", tableID), &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// FetchPreviousAccounts returns the archived tabs of a table's closed sessions.
func (c *Client) FetchPreviousAccounts(ctx context.Context, tableID int64) ([]model.PreviousAccount, error) {
	var prev []model.PreviousAccount
	if err := c.get(ctx, fmt.Sprintf("/admin/tables/%d/previous-accounts", tableID), &prev); err != nil {
		return nil, err
	}
	return prev, nil
}

// CreatePayment registers a payment. The overpayment confirmation gate lives
// in the tab store; by the time this is called the amount is final.
func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest) error {
	return c.post(ctx, "/admin/payments", req, nil)
}

// FetchTables lists all tables, active or not.
func (c *Client) FetchTables(ctx context.Context) ([]model.Table, error) {
	var tables []model.Table
	if err := c.get(ctx, "/tables/", &tables); err != nil {
		return nil, err
	}
	return tables, nil
}

// FetchConnectedUsers lists the user sessions currently connected at a table.
// Orders target one of these, never the table itself.
func (c *Client) FetchConnectedUsers(ctx context.Context, tableID int64) ([]model.ConnectedUser, error) {
	var users []model.ConnectedUser
	if err := c.get(ctx, fmt.Sprintf("/tables/%d/users", tableID), &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateTable creates a table.
func (c *Client) CreateTable(ctx context.Context, name string) (*model.Table, error) {
	var table model.Table
	if err := c.post(ctx, "/admin/tables", map[string]string{"name": name}, &table); err != nil {
		return nil, err
	}
	return &table, nil
}

// ActivateTable activates a table for service.
func (c *Client) ActivateTable(ctx context.Context, tableID int64) error {
	return c.post(ctx, fmt.Sprintf("/admin/tables/%d/activate", tableID), nil, nil)
}

// DeactivateTable deactivates a table. The balance guard is enforced by the
// tab store before this is ever reached; the server still has the last word.
func (c *Client) DeactivateTable(ctx context.Context, tableID int64) error {
	return c.post(ctx, fmt.Sprintf("/admin/tables/%d/deactivate", tableID), nil, nil)
}

// CloseTableSession archives the table's current account and deactivates it.
func (c *Client) CloseTableSession(ctx context.Context, tableID int64) error {
	return c.post(ctx, fmt.Sprintf("/admin/tables/%d/close-session", tableID), nil, nil)
}

// DeleteTable removes a table permanently.
func (c *Client) DeleteTable(ctx context.Context, tableID int64) error {
	return c.delete(ctx, fmt.Sprintf("/admin/tables/%d", tableID))
}
