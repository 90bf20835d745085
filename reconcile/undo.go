// Package reconcile wraps risky actions in confirmation gates and automatic
// actions in a time-boxed undo affordance.
package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"QRKara/logger"
)

// ErrNothingToUndo is returned when Invoke finds no live banner, either
// because none was offered or because its grace period elapsed.
var ErrNothingToUndo = errors.New("no undoable action pending")

// Banner describes the live undo affordance for rendering.
type Banner struct {
	Token    string
	Message  string
	Deadline time.Time
}

// Undo manages the single live undo banner. Offering a new banner replaces
// the previous one outright, action included, so a stale closure can never
// fire against outdated parameters. After the grace period the banner is
// dismissed silently and the automatic action stands.
type Undo struct {
	mu      sync.Mutex
	token   string
	message string
	action  func(context.Context) error
	timer   *time.Timer

	// OnChange, when set, is called with the live banner (or nil after a
	// dismissal) so a render adapter can show or hide it.
	OnChange func(*Banner)
}

// NewUndo creates an undo controller.
func NewUndo() *Undo {
	return &Undo{}
}

// Offer displays an undo banner for the given automatic action. The action
// runs only if Invoke is called before timeout elapses.
func (u *Undo) Offer(message string, action func(context.Context) error, timeout time.Duration) Banner {
	u.mu.Lock()
	if u.timer != nil {
		u.timer.Stop()
	}
	token := uuid.New().String()
	u.token = token
	u.message = message
	u.action = action
	deadline := time.Now().Add(timeout)
	u.timer = time.AfterFunc(timeout, func() { u.expire(token) })
	banner := Banner{Token: token, Message: message, Deadline: deadline}
	onChange := u.OnChange
	u.mu.Unlock()

	logger.Info("undo offered",
		logger.String("message", message),
		logger.Duration("timeout", timeout))
	if onChange != nil {
		onChange(&banner)
	}
	return banner
}

// Invoke runs the pending undo action and dismisses the banner. Returns
// ErrNothingToUndo once the grace period has elapsed: the action must not
// fire late.
func (u *Undo) Invoke(ctx context.Context) error {
	u.mu.Lock()
	action := u.action
	message := u.message
	if action == nil {
		u.mu.Unlock()
		return ErrNothingToUndo
	}
	u.clearLocked()
	onChange := u.OnChange
	u.mu.Unlock()

	if onChange != nil {
		onChange(nil)
	}
	logger.Info("undo invoked", logger.String("message", message))
	return action(ctx)
}

// Dismiss drops the banner without running the action.
func (u *Undo) Dismiss() {
	u.mu.Lock()
	u.clearLocked()
	onChange := u.OnChange
	u.mu.Unlock()
	if onChange != nil {
		onChange(nil)
	}
}

// Current returns the live banner, if any.
func (u *Undo) Current() (Banner, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.action == nil {
		return Banner{}, false
	}
	return Banner{Token: u.token, Message: u.message}, true
}

// expire is the timer callback: dismiss silently, the action stands. The
// token guard keeps an old timer from dismissing a newer banner.
func (u *Undo) expire(token string) {
	u.mu.Lock()
	if u.token != token {
		u.mu.Unlock()
		return
	}
	u.clearLocked()
	onChange := u.OnChange
	u.mu.Unlock()
	if onChange != nil {
		onChange(nil)
	}
}

// clearLocked must be called with the lock held.
func (u *Undo) clearLocked() {
	if u.timer != nil {
		u.timer.Stop()
		u.timer = nil
	}
	u.token = ""
	u.message = ""
	u.action = nil
}
