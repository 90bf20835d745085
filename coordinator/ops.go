package coordinator

import (
	"context"
	"errors"
	"fmt"

	"QRKara/logger"
	"QRKara/model"
	"QRKara/store"
)

// ErrMoveLocked rejects reordering the song at primary position 1: the
// server may promote it to position 0 at any moment and a reorder would race
// that promotion.
var ErrMoveLocked = errors.New("next-up song cannot be reordered")

// Ops issues queue mutations with optimistic local hints. Every path ends in
// a canonical refetch, so a response arriving after a newer snapshot can
// never leave stale local state behind.
type Ops struct {
	api      QueueAPI
	queue    *store.QueueStore
	promoter *Promoter
}

// NewOps creates the queue operation front.
func NewOps(api QueueAPI, queue *store.QueueStore, promoter *Promoter) *Ops {
	return &Ops{api: api, queue: queue, promoter: promoter}
}

// Move swaps a song with its neighbor. The local swap happens first as a
// latency hint; the follow-up refetch converges to whatever order the server
// settled on, including when the call fails.
func (o *Ops) Move(ctx context.Context, songID int64, kind model.QueueKind, dir model.MoveDirection) error {
	if kind == model.QueuePrimary && !o.queue.Movable(songID) {
		return ErrMoveLocked
	}
	o.queue.ApplyMove(songID, kind, dir)
	if err := o.api.MoveSong(ctx, songID, kind, dir); err != nil {
		if rerr := o.promoter.refetch(ctx); rerr != nil {
			logger.Warn("queue refresh after failed move also failed", logger.ErrorField(rerr))
		}
		return fmt.Errorf("moving song %d: %w", songID, err)
	}
	return o.promoter.refetch(ctx)
}

// Remove rejects a song out of either queue. The caller gates this behind a
// destructive-action confirmation; by the time Remove runs, the user said yes.
func (o *Ops) Remove(ctx context.Context, songID int64, kind model.QueueKind) error {
	o.queue.ApplyRemove(songID, kind)
	if err := o.api.RejectSong(ctx, songID); err != nil {
		if rerr := o.promoter.refetch(ctx); rerr != nil {
			logger.Warn("queue refresh after failed removal also failed", logger.ErrorField(rerr))
		}
		return fmt.Errorf("rejecting song %d: %w", songID, err)
	}
	return o.promoter.refetch(ctx)
}

// TogglePause flips the player state optimistically and reverts on failure.
func (o *Ops) TogglePause(ctx context.Context) error {
	wasPlaying := o.queue.Playing()
	o.queue.SetPlaying(!wasPlaying)

	var err error
	if wasPlaying {
		err = o.api.PausePlayback(ctx)
	} else {
		err = o.api.ResumePlayback(ctx)
	}
	if err != nil {
		o.queue.SetPlaying(wasPlaying)
		return fmt.Errorf("toggling playback: %w", err)
	}
	return o.promoter.refetch(ctx)
}

// Advance skips to the next song. The resulting queue_update usually beats
// the refetch; both apply the same authoritative snapshot, so order is moot.
func (o *Ops) Advance(ctx context.Context) error {
	if err := o.api.AdvanceQueue(ctx); err != nil {
		return fmt.Errorf("advancing queue: %w", err)
	}
	return o.promoter.Refresh(ctx)
}

// Restart restarts the currently playing song.
func (o *Ops) Restart(ctx context.Context) error {
	if err := o.api.RestartSong(ctx); err != nil {
		return fmt.Errorf("restarting song: %w", err)
	}
	return nil
}

// Play orders playback of a specific song.
func (o *Ops) Play(ctx context.Context, songID int64) error {
	if err := o.api.PlaySong(ctx, songID); err != nil {
		return fmt.Errorf("playing song %d: %w", songID, err)
	}
	return nil
}
