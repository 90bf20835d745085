package reconcile

import (
	"context"
	"errors"
	"sync"

	"QRKara/logger"
)

// ErrAborted is returned when the user declines a destructive action.
var ErrAborted = errors.New("action aborted by user")

// Confirmer answers a yes/no question for a destructive action. Render
// adapters implement it (modal dialog, terminal prompt); tests stub it.
type Confirmer interface {
	Confirm(message string) bool
}

// ConfirmFunc adapts a plain function to the Confirmer interface.
type ConfirmFunc func(message string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(message string) bool { return f(message) }

// Gate runs destructive actions behind an explicit confirmation. It owns a
// single current action reference that is rebound on every request, so
// repeated opens can never leave a stale handler pointing at old parameters.
type Gate struct {
	mu        sync.Mutex
	confirmer Confirmer
	action    func(context.Context) error
}

// NewGate creates a confirmation gate.
func NewGate(confirmer Confirmer) *Gate {
	return &Gate{confirmer: confirmer}
}

// Request asks for confirmation and, on approval, runs action. On refusal it
// returns ErrAborted and the action is dropped; nothing is sent anywhere.
func (g *Gate) Request(ctx context.Context, message string, action func(context.Context) error) error {
	g.mu.Lock()
	g.action = action
	g.mu.Unlock()

	if !g.confirmer.Confirm(message) {
		g.mu.Lock()
		g.action = nil
		g.mu.Unlock()
		logger.Info("destructive action aborted", logger.String("message", message))
		return ErrAborted
	}

	g.mu.Lock()
	bound := g.action
	g.action = nil
	g.mu.Unlock()
	if bound == nil {
		return ErrAborted
	}
	logger.Info("destructive action confirmed", logger.String("message", message))
	return bound(ctx)
}
