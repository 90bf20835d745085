package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"QRKara/gateway"
	"QRKara/logger"
	"QRKara/model"
)

var (
	// ErrInvalidAmount rejects a non-positive payment before any call.
	ErrInvalidAmount = errors.New("payment amount must be greater than zero")
	// ErrUnknownTable rejects operations against a table the store has no
	// account for.
	ErrUnknownTable = errors.New("table not resolved")
	// ErrNoOverpaymentPending is returned when confirming or cancelling a
	// prompt that no longer exists.
	ErrNoOverpaymentPending = errors.New("no overpayment confirmation pending for table")
)

// BalanceError blocks deactivation or session close while the table owes
// money. Raised locally; no call is attempted.
type BalanceError struct {
	TableID int64
	Balance decimal.Decimal
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("table %d still owes %s; settle the tab first", e.TableID, e.Balance.StringFixed(2))
}

// OverpaymentPrompt is a pending confirmation for a payment that exceeds the
// balance due. Nothing has been sent; the payment only goes out through
// ConfirmOverpayment.
type OverpaymentPrompt struct {
	TableID int64
	Amount  decimal.Decimal
	Balance decimal.Decimal
	Excess  decimal.Decimal
	Method  string
}

// AccountsAPI is the slice of the gateway the tab store drives.
type AccountsAPI interface {
	FetchPaymentStatusReport(ctx context.Context) ([]model.TableAccount, error)
	FetchTableAccount(ctx context.Context, tableID int64) (*model.TableAccount, error)
	CreatePayment(ctx context.Context, req gateway.PaymentRequest) error
	DeactivateTable(ctx context.Context, tableID int64) error
	CloseTableSession(ctx context.Context, tableID int64) error
}

// TabStore holds per-table account snapshots and runs the payment workflow.
// The operator console tracks every table; a table client tracks one.
type TabStore struct {
	api AccountsAPI

	mu       sync.RWMutex
	accounts map[int64]model.TableAccount
	tracked  int64 // 0 means all tables (operator)
	prompts  map[int64]OverpaymentPrompt
	subs     []func()
}

// NewTabStore creates a tab store over the given gateway slice.
func NewTabStore(api AccountsAPI) *TabStore {
	return &TabStore{
		api:      api,
		accounts: make(map[int64]model.TableAccount),
		prompts:  make(map[int64]OverpaymentPrompt),
	}
}

// Subscribe registers fn to run after every account change.
func (t *TabStore) Subscribe(fn func()) {
	t.mu.Lock()
	t.subs = append(t.subs, fn)
	t.mu.Unlock()
}

func (t *TabStore) notify() {
	t.mu.RLock()
	subs := make([]func(), len(t.subs))
	copy(subs, t.subs)
	t.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}

// Track restricts the store to a single table (table-client mode). Events
// for other tables are ignored rather than fetched.
func (t *TabStore) Track(tableID int64) {
	t.mu.Lock()
	t.tracked = tableID
	t.mu.Unlock()
}

// Tracks reports whether an account event for tableID concerns this store.
func (t *TabStore) Tracks(tableID int64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tracked == 0 || t.tracked == tableID
}

// LoadAccounts replaces local state with the full payment-status report.
// Operator mode only.
func (t *TabStore) LoadAccounts(ctx context.Context) error {
	accounts, err := t.api.FetchPaymentStatusReport(ctx)
	if err != nil {
		return fmt.Errorf("loading account report: %w", err)
	}
	t.mu.Lock()
	t.accounts = make(map[int64]model.TableAccount, len(accounts))
	for _, a := range accounts {
		t.accounts[a.TableID] = a
	}
	t.mu.Unlock()
	t.notify()
	return nil
}

// RefreshAccount refetches one table's snapshot, if this store tracks it.
// Safe to call repeatedly and out of order: the fetch is canonical.
func (t *TabStore) RefreshAccount(ctx context.Context, tableID int64) error {
	if !t.Tracks(tableID) {
		return nil
	}
	account, err := t.api.FetchTableAccount(ctx, tableID)
	if err != nil {
		return fmt.Errorf("refreshing account for table %d: %w", tableID, err)
	}
	t.mu.Lock()
	t.accounts[account.TableID] = *account
	t.mu.Unlock()
	t.notify()
	return nil
}

// Account returns the tracked snapshot for a table.
func (t *TabStore) Account(tableID int64) (model.TableAccount, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.accounts[tableID]
	return a, ok
}

// Accounts returns every tracked snapshot ordered by table id.
func (t *TabStore) Accounts() []model.TableAccount {
	t.mu.RLock()
	out := make([]model.TableAccount, 0, len(t.accounts))
	for _, a := range t.accounts {
		out = append(out, a)
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].TableID < out[j].TableID })
	return out
}

// SubmitPayment validates and submits a payment. Non-positive amounts and
// unresolved tables are rejected locally with no network call. When the
// amount exceeds a non-negative balance due, nothing is sent either: the
// returned prompt must be explicitly confirmed first. A nil prompt and nil
// error means the payment went through and the snapshot was refreshed.
func (t *TabStore) SubmitPayment(ctx context.Context, tableID int64, amount decimal.Decimal, method string) (*OverpaymentPrompt, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	t.mu.Lock()
	account, ok := t.accounts[tableID]
	if !ok {
		t.mu.Unlock()
		return nil, ErrUnknownTable
	}
	balance := account.BalanceDue
	if amount.GreaterThan(balance) && balance.GreaterThanOrEqual(decimal.Zero) {
		// Rebind the prompt wholesale: a stale prompt from a previous
		// attempt must never fire with outdated parameters.
		prompt := OverpaymentPrompt{
			TableID: tableID,
			Amount:  amount,
			Balance: balance,
			Excess:  amount.Sub(balance),
			Method:  method,
		}
		t.prompts[tableID] = prompt
		t.mu.Unlock()
		logger.Info("overpayment confirmation required",
			logger.Int64("tableId", tableID),
			logger.String("amount", amount.StringFixed(2)),
			logger.String("excess", prompt.Excess.StringFixed(2)))
		return &prompt, nil
	}
	t.mu.Unlock()

	return nil, t.processPayment(ctx, tableID, amount, method)
}

// ConfirmOverpayment sends the payment held by the table's pending prompt as
// an advance payment.
func (t *TabStore) ConfirmOverpayment(ctx context.Context, tableID int64) error {
	t.mu.Lock()
	prompt, ok := t.prompts[tableID]
	delete(t.prompts, tableID)
	t.mu.Unlock()
	if !ok {
		return ErrNoOverpaymentPending
	}
	return t.processPayment(ctx, tableID, prompt.Amount, prompt.Method)
}

// CancelOverpayment drops the pending prompt. Nothing was sent; the caller
// should ask the user to re-enter an amount.
func (t *TabStore) CancelOverpayment(tableID int64) error {
	t.mu.Lock()
	_, ok := t.prompts[tableID]
	delete(t.prompts, tableID)
	t.mu.Unlock()
	if !ok {
		return ErrNoOverpaymentPending
	}
	return nil
}

// PendingOverpayment returns the table's live prompt, if any.
func (t *TabStore) PendingOverpayment(tableID int64) (OverpaymentPrompt, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.prompts[tableID]
	return p, ok
}

func (t *TabStore) processPayment(ctx context.Context, tableID int64, amount decimal.Decimal, method string) error {
	err := t.api.CreatePayment(ctx, gateway.PaymentRequest{
		TableID: tableID,
		Amount:  amount,
		Method:  method,
	})
	if err != nil {
		return fmt.Errorf("registering payment for table %d: %w", tableID, err)
	}
	logger.Info("payment registered",
		logger.Int64("tableId", tableID),
		logger.String("amount", amount.StringFixed(2)),
		logger.String("method", method))
	return t.RefreshAccount(ctx, tableID)
}

// Deactivate deactivates a table. Refused locally, with no network call,
// while the table owes money; the server remains the source of truth for
// everything else.
func (t *TabStore) Deactivate(ctx context.Context, tableID int64) error {
	if err := t.guardSettled(tableID); err != nil {
		return err
	}
	if err := t.api.DeactivateTable(ctx, tableID); err != nil {
		return fmt.Errorf("deactivating table %d: %w", tableID, err)
	}
	return nil
}

// CloseSession archives the table's account and deactivates it. Same local
// guard as Deactivate: closing is only permitted once the tab is settled.
func (t *TabStore) CloseSession(ctx context.Context, tableID int64) error {
	if err := t.guardSettled(tableID); err != nil {
		return err
	}
	if err := t.api.CloseTableSession(ctx, tableID); err != nil {
		return fmt.Errorf("closing session for table %d: %w", tableID, err)
	}
	t.mu.Lock()
	delete(t.accounts, tableID)
	t.mu.Unlock()
	t.notify()
	return nil
}

func (t *TabStore) guardSettled(tableID int64) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if account, ok := t.accounts[tableID]; ok && account.BalanceDue.GreaterThan(decimal.Zero) {
		return &BalanceError{TableID: tableID, Balance: account.BalanceDue}
	}
	return nil
}
