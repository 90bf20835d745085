// Package coordinator ties the queue store to the gateway: it refreshes
// canonical state, applies optimistic hints, and drives the lazy-queue
// auto-promotion with its undo affordance.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"QRKara/logger"
	"QRKara/model"
	"QRKara/reconcile"
	"QRKara/store"
)

// QueueAPI is the slice of the gateway the coordinator drives.
type QueueAPI interface {
	FetchQueue(ctx context.Context) (*model.QueueSnapshot, error)
	ApproveNextLazy(ctx context.Context) (*model.Song, error)
	RevertApprove(ctx context.Context, songID int64) error
	MoveSong(ctx context.Context, songID int64, kind model.QueueKind, dir model.MoveDirection) error
	RejectSong(ctx context.Context, songID int64) error
	PausePlayback(ctx context.Context) error
	ResumePlayback(ctx context.Context) error
	AdvanceQueue(ctx context.Context) error
	RestartSong(ctx context.Context) error
	PlaySong(ctx context.Context, songID int64) error
}

// Notifier surfaces transient messages to whatever render surface is
// attached. Nil-safe via the notify helper.
type Notifier func(message string)

// Promoter watches refreshed snapshots for the promotion condition: no song
// playing and a non-empty lazy queue. The backend decides *when* a song
// becomes eligible (its playback-progress policy is never computed here);
// the client only reacts to the observable effect.
type Promoter struct {
	api         QueueAPI
	queue       *store.QueueStore
	undo        *reconcile.Undo
	undoTimeout time.Duration
	notify      Notifier

	mu       sync.Mutex
	inFlight bool
}

// NewPromoter creates a promoter. undoTimeout is the grace period offered
// after every automatic promotion.
func NewPromoter(api QueueAPI, queue *store.QueueStore, undo *reconcile.Undo, undoTimeout time.Duration, notify Notifier) *Promoter {
	return &Promoter{
		api:         api,
		queue:       queue,
		undo:        undo,
		undoTimeout: undoTimeout,
		notify:      notify,
	}
}

func (p *Promoter) say(message string) {
	if p.notify != nil {
		p.notify(message)
	}
}

// Refresh fetches the canonical snapshot, applies it wholesale, and runs the
// auto-promotion check. Every mutating signal funnels through here, so the
// local view converges to the server's order no matter how events and
// responses interleave.
func (p *Promoter) Refresh(ctx context.Context) error {
	if err := p.refetch(ctx); err != nil {
		return err
	}
	p.EnsurePromotion(ctx)
	return nil
}

// refetch replaces local state from the backend without the promotion check.
func (p *Promoter) refetch(ctx context.Context) error {
	snap, err := p.api.FetchQueue(ctx)
	if err != nil {
		return fmt.Errorf("refreshing queue: %w", err)
	}
	p.queue.ApplySnapshot(*snap)
	return nil
}

// HandleSnapshot applies a pushed snapshot and runs the promotion check.
func (p *Promoter) HandleSnapshot(ctx context.Context, snap model.QueueSnapshot) {
	p.queue.ApplySnapshot(snap)
	p.EnsurePromotion(ctx)
}

// EnsurePromotion promotes the lazy-queue head when nothing is playing and
// offers a time-boxed undo naming the promoted song. It must not fire while
// a song is playing, and a failed promote call is surfaced without assuming
// the promotion happened. One attempt at a time; overlapping promotions are
// not expected since the condition requires an idle player.
func (p *Promoter) EnsurePromotion(ctx context.Context) {
	if !p.queue.NeedsPromotion() {
		return
	}
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return
	}
	p.inFlight = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.inFlight = false
		p.mu.Unlock()
	}()

	promoted, err := p.api.ApproveNextLazy(ctx)
	if err != nil {
		logger.Warn("lazy auto-promotion failed", logger.ErrorField(err))
		p.say("Could not auto-approve the next waiting song.")
		return
	}

	logger.Info("lazy song auto-promoted",
		logger.Int64("songId", promoted.ID),
		logger.String("title", promoted.Title))

	songID := promoted.ID
	p.undo.Offer(
		fmt.Sprintf("Auto-approved: %s", promoted.Title),
		func(ctx context.Context) error {
			if err := p.api.RevertApprove(ctx, songID); err != nil {
				return fmt.Errorf("reverting promotion of song %d: %w", songID, err)
			}
			p.say("Approval reverted.")
			// Plain refetch: re-running the promotion check here would
			// immediately re-approve the song just reverted.
			return p.refetch(ctx)
		},
		p.undoTimeout,
	)

	if err := p.refetch(ctx); err != nil {
		logger.Warn("queue refresh after promotion failed", logger.ErrorField(err))
	}
}
