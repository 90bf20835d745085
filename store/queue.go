// Package store holds the client's locally known state: the song queue, the
// per-table tabs, personal song lists and order carts. Stores are pure state
// owners; they never talk to the network. Gateway responses and channel
// events mutate them, subscribers get a change signal, and the next full
// snapshot always wins over any optimistic local edit.
package store

import (
	"sync"

	"QRKara/logger"
	"QRKara/model"
)

// QueueStore is the locally known view of the song queue.
type QueueStore struct {
	mu      sync.RWMutex
	snap    model.QueueSnapshot
	playing bool // optimistic player pause state, position 0 only
	subs    []func()
}

// NewQueueStore creates an empty queue store. The player is considered
// playing until told otherwise; the backend never pushes pause state.
func NewQueueStore() *QueueStore {
	return &QueueStore{playing: true}
}

// Subscribe registers fn to run after every state change. Subscribers are
// invoked outside the store lock.
func (q *QueueStore) Subscribe(fn func()) {
	q.mu.Lock()
	q.subs = append(q.subs, fn)
	q.mu.Unlock()
}

func (q *QueueStore) notify() {
	q.mu.RLock()
	subs := make([]func(), len(q.subs))
	copy(subs, q.subs)
	q.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}

// ApplySnapshot replaces the queue state wholesale. The snapshot is
// authoritative: any optimistic move or removal still in flight is simply
// overwritten. A song reported as now playing is dropped from upcoming if
// the backend ever double-reports it, keeping the at-most-one invariant.
func (q *QueueStore) ApplySnapshot(snap model.QueueSnapshot) {
	q.mu.Lock()
	if snap.NowPlaying != nil {
		upcoming := snap.Upcoming[:0:0]
		for _, s := range snap.Upcoming {
			if s.ID != snap.NowPlaying.ID {
				upcoming = append(upcoming, s)
			}
		}
		snap.Upcoming = upcoming
	}
	q.snap = snap
	q.mu.Unlock()

	logger.Debug("queue snapshot applied",
		logger.Bool("nowPlaying", snap.NowPlaying != nil),
		logger.Int("upcoming", len(snap.Upcoming)),
		logger.Int("lazy", len(snap.LazyQueue)))
	q.notify()
}

// Snapshot returns a copy of the current queue state.
func (q *QueueStore) Snapshot() model.QueueSnapshot {
	q.mu.RLock()
	defer q.mu.RUnlock()
	snap := model.QueueSnapshot{
		Upcoming:  append([]model.Song(nil), q.snap.Upcoming...),
		LazyQueue: append([]model.Song(nil), q.snap.LazyQueue...),
	}
	if q.snap.NowPlaying != nil {
		np := *q.snap.NowPlaying
		snap.NowPlaying = &np
	}
	return snap
}

// NowPlaying returns the song at primary position 0, if any.
func (q *QueueStore) NowPlaying() (model.Song, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.snap.NowPlaying == nil {
		return model.Song{}, false
	}
	return *q.snap.NowPlaying, true
}

// NeedsPromotion reports whether the lazy-queue head should be auto-promoted:
// nothing is playing and the lazy queue is non-empty. The backend's progress
// threshold is its own policy; the client only ever observes its effect, the
// absence of a now-playing song.
func (q *QueueStore) NeedsPromotion() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.snap.NowPlaying == nil && len(q.snap.LazyQueue) > 0
}

// Movable reports whether reorder/remove controls apply to the song. The
// song at primary position 1 is next up: the server may promote it to
// position 0 at any moment, so its controls are suppressed to keep an
// operator's reorder from racing that promotion. Lazy songs are always
// movable.
func (q *QueueStore) Movable(songID int64) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.snap.NowPlaying != nil && q.snap.NowPlaying.ID == songID {
		return false
	}
	if len(q.snap.Upcoming) > 0 && q.snap.Upcoming[0].ID == songID {
		return false
	}
	return true
}

// ApplyMove optimistically swaps a song with its neighbor in the given
// queue. This is a latency-hiding hint only; the next snapshot is the
// authoritative order. Returns false when the song is absent or the move
// falls off either end.
func (q *QueueStore) ApplyMove(songID int64, kind model.QueueKind, dir model.MoveDirection) bool {
	q.mu.Lock()
	list := q.listFor(kind)
	idx := indexOf(*list, songID)
	moved := false
	if idx >= 0 {
		swap := idx - 1
		if dir == model.MoveDown {
			swap = idx + 1
		}
		if swap >= 0 && swap < len(*list) {
			(*list)[idx], (*list)[swap] = (*list)[swap], (*list)[idx]
			moved = true
		}
	}
	q.mu.Unlock()

	if moved {
		q.notify()
	}
	return moved
}

// ApplyRemove optimistically removes a song from the given queue. Returns
// false when the song is not there, which is fine: an event may have beaten
// the caller to it.
func (q *QueueStore) ApplyRemove(songID int64, kind model.QueueKind) bool {
	q.mu.Lock()
	list := q.listFor(kind)
	idx := indexOf(*list, songID)
	removed := false
	if idx >= 0 {
		*list = append((*list)[:idx], (*list)[idx+1:]...)
		removed = true
	}
	q.mu.Unlock()

	if removed {
		q.notify()
	}
	return removed
}

// listFor must be called with the lock held.
func (q *QueueStore) listFor(kind model.QueueKind) *[]model.Song {
	if kind == model.QueueLazy {
		return &q.snap.LazyQueue
	}
	return &q.snap.Upcoming
}

func indexOf(songs []model.Song, songID int64) int {
	for i := range songs {
		if songs[i].ID == songID {
			return i
		}
	}
	return -1
}

// Playing reports the optimistic player state.
func (q *QueueStore) Playing() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.playing
}

// SetPlaying records the optimistic pause/resume toggle. Callers revert it
// when the corresponding gateway call fails.
func (q *QueueStore) SetPlaying(playing bool) {
	q.mu.Lock()
	changed := q.playing != playing
	q.playing = playing
	q.mu.Unlock()
	if changed {
		q.notify()
	}
}
