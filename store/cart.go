package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"QRKara/gateway"
	"QRKara/logger"
	"QRKara/model"
)

var (
	// ErrEmptyCart rejects submitting a cart with no lines; no call is made.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNoRecipient rejects submission without a destination user. Orders
	// target a connected user session, never a bare table.
	ErrNoRecipient = errors.New("order needs a destination user")
)

// PartialError reports a sequential submission that failed mid-loop: lines
// before Failed are committed server-side, lines after were never attempted,
// and nothing is rolled back. The operator resolves the difference by
// inspecting the resulting account state.
type PartialError struct {
	Committed int
	Failed    model.CartLine
	Err       error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("order partially applied: %d line(s) committed, failed on %q: %v",
		e.Committed, e.Failed.ProductName, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

// OrderAPI is the slice of the gateway a cart submits through.
type OrderAPI interface {
	SubmitCart(ctx context.Context, userID int64, items []gateway.CartItem) error
	CreateConsumption(ctx context.Context, userID int64, item gateway.CartItem) error
}

// Cart accumulates pending order lines for one composition interaction. The
// same rules back both surfaces (quick-order and the inline per-account
// form); each surface owns its own instance.
type Cart struct {
	mu     sync.Mutex
	lines  []model.CartLine
	stocks map[int64]int
}

// NewCart creates an empty cart.
func NewCart() *Cart {
	return &Cart{stocks: make(map[int64]int)}
}

// Add puts one unit of the product in the cart. Adding a product already in
// the cart increments its line instead of duplicating it. Quantity is
// clamped to the product's stock.
func (c *Cart) Add(p model.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stocks[p.ID] = p.Stock
	for i := range c.lines {
		if c.lines[i].ProductID == p.ID {
			if c.lines[i].Quantity < p.Stock {
				c.lines[i].Quantity++
			}
			return
		}
	}
	if p.Stock > 0 {
		c.lines = append(c.lines, model.CartLine{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    1,
		})
	}
}

// Increment raises a line's quantity, clamped to the product's stock.
func (c *Cart) Increment(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			if stock, ok := c.stocks[productID]; !ok || c.lines[i].Quantity < stock {
				c.lines[i].Quantity++
			}
			return
		}
	}
}

// Decrement lowers a line's quantity; reaching zero removes the line.
func (c *Cart) Decrement(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].Quantity--
			if c.lines[i].Quantity <= 0 {
				c.lines = append(c.lines[:i], c.lines[i+1:]...)
			}
			return
		}
	}
}

// Remove drops a line regardless of quantity.
func (c *Cart) Remove(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Lines returns a copy of the current lines in insertion order.
func (c *Cart) Lines() []model.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.CartLine(nil), c.lines...)
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// Clear drops every line (cancelled composition).
func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

// Submit sends the whole cart in one batched call and clears it on success.
// Empty carts and missing recipients are rejected locally.
func (c *Cart) Submit(ctx context.Context, api OrderAPI, userID int64) error {
	items, err := c.itemsForSubmit(userID)
	if err != nil {
		return err
	}
	if err := api.SubmitCart(ctx, userID, items); err != nil {
		return fmt.Errorf("submitting order: %w", err)
	}
	c.Clear()
	logger.Info("order submitted", logger.Int64("userId", userID), logger.Int("lines", len(items)))
	return nil
}

// SubmitLines sends one creation call per line, sequentially. Not atomic: a
// failure on line N leaves earlier lines committed and later lines
// unattempted, reported through PartialError. The cart is cleared only after
// the loop completes without error, so a retry re-sends everything; the
// operator owns that call.
func (c *Cart) SubmitLines(ctx context.Context, api OrderAPI, userID int64) error {
	items, err := c.itemsForSubmit(userID)
	if err != nil {
		return err
	}
	lines := c.Lines()
	for i, item := range items {
		if err := api.CreateConsumption(ctx, userID, item); err != nil {
			logger.Warn("order line failed mid-batch",
				logger.Int64("userId", userID),
				logger.Int("committed", i),
				logger.Int64("productId", item.ProductID),
				logger.ErrorField(err))
			return &PartialError{Committed: i, Failed: lines[i], Err: err}
		}
	}
	c.Clear()
	logger.Info("order submitted line by line", logger.Int64("userId", userID), logger.Int("lines", len(items)))
	return nil
}

func (c *Cart) itemsForSubmit(userID int64) ([]gateway.CartItem, error) {
	if userID == 0 {
		return nil, ErrNoRecipient
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.lines) == 0 {
		return nil, ErrEmptyCart
	}
	items := make([]gateway.CartItem, len(c.lines))
	for i, line := range c.lines {
		items[i] = gateway.CartItem{ProductID: line.ProductID, Quantity: line.Quantity}
	}
	return items, nil
}
