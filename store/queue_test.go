package store

import (
	"testing"

	"QRKara/model"
)

func song(id int64, title string, state model.SongState) model.Song {
	return model.Song{ID: id, Title: title, State: state}
}

func snapshot(now *model.Song, upcoming, lazy []model.Song) model.QueueSnapshot {
	return model.QueueSnapshot{NowPlaying: now, Upcoming: upcoming, LazyQueue: lazy}
}

func TestApplySnapshotReplacesWholesale(t *testing.T) {
	q := NewQueueStore()
	np := song(1, "first", model.SongStateApproved)
	q.ApplySnapshot(snapshot(&np, []model.Song{song(2, "second", model.SongStateApproved)}, nil))

	q.ApplySnapshot(snapshot(nil, nil, []model.Song{song(9, "waiting", model.SongStatePendingLazy)}))

	snap := q.Snapshot()
	if snap.NowPlaying != nil {
		t.Fatal("expected no now playing after replacement")
	}
	if len(snap.Upcoming) != 0 || len(snap.LazyQueue) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestApplySnapshotKeepsSingleNowPlaying(t *testing.T) {
	q := NewQueueStore()
	np := song(1, "first", model.SongStateApproved)
	// Backend double-reports the playing song in upcoming.
	q.ApplySnapshot(snapshot(&np, []model.Song{np, song(2, "second", model.SongStateApproved)}, nil))

	snap := q.Snapshot()
	if snap.NowPlaying == nil || snap.NowPlaying.ID != 1 {
		t.Fatal("expected song 1 now playing")
	}
	if len(snap.Upcoming) != 1 || snap.Upcoming[0].ID != 2 {
		t.Fatalf("expected deduplicated upcoming, got %+v", snap.Upcoming)
	}
}

func TestApplySnapshotPreservesServerOrder(t *testing.T) {
	q := NewQueueStore()
	upcoming := []model.Song{
		song(5, "e", model.SongStateApproved),
		song(3, "c", model.SongStateApproved),
		song(8, "h", model.SongStateApproved),
	}
	q.ApplySnapshot(snapshot(nil, upcoming, nil))

	snap := q.Snapshot()
	for i, want := range []int64{5, 3, 8} {
		if snap.Upcoming[i].ID != want {
			t.Fatalf("order not preserved at %d: got %d want %d", i, snap.Upcoming[i].ID, want)
		}
	}
}

func TestNeedsPromotion(t *testing.T) {
	q := NewQueueStore()
	lazy := []model.Song{song(4, "lazy", model.SongStatePendingLazy)}

	q.ApplySnapshot(snapshot(nil, nil, lazy))
	if !q.NeedsPromotion() {
		t.Fatal("no now playing + non-empty lazy queue should need promotion")
	}

	np := song(1, "playing", model.SongStateApproved)
	q.ApplySnapshot(snapshot(&np, nil, lazy))
	if q.NeedsPromotion() {
		t.Fatal("must not promote while a song is playing")
	}

	q.ApplySnapshot(snapshot(nil, nil, nil))
	if q.NeedsPromotion() {
		t.Fatal("empty lazy queue has nothing to promote")
	}
}

func TestMovableSuppressesNextUp(t *testing.T) {
	q := NewQueueStore()
	np := song(1, "playing", model.SongStateApproved)
	q.ApplySnapshot(snapshot(&np, []model.Song{
		song(2, "next up", model.SongStateApproved),
		song(3, "third", model.SongStateApproved),
	}, []model.Song{song(9, "lazy", model.SongStatePendingLazy)}))

	if q.Movable(1) {
		t.Fatal("now playing must not be movable")
	}
	if q.Movable(2) {
		t.Fatal("next-up song controls are suppressed")
	}
	if !q.Movable(3) {
		t.Fatal("later songs are reorderable")
	}
	if !q.Movable(9) {
		t.Fatal("lazy songs are always movable")
	}
}

func TestApplyMoveSwapsAdjacent(t *testing.T) {
	q := NewQueueStore()
	q.ApplySnapshot(snapshot(nil, []model.Song{
		song(1, "a", model.SongStateApproved),
		song(2, "b", model.SongStateApproved),
		song(3, "c", model.SongStateApproved),
	}, nil))

	if !q.ApplyMove(3, model.QueuePrimary, model.MoveUp) {
		t.Fatal("move should apply")
	}
	snap := q.Snapshot()
	if snap.Upcoming[1].ID != 3 || snap.Upcoming[2].ID != 2 {
		t.Fatalf("unexpected order: %+v", snap.Upcoming)
	}

	// Moves off either end do not apply.
	if q.ApplyMove(1, model.QueuePrimary, model.MoveUp) {
		t.Fatal("cannot move the head up")
	}
	if q.ApplyMove(2, model.QueuePrimary, model.MoveDown) {
		t.Fatal("cannot move the tail down")
	}
	if q.ApplyMove(42, model.QueuePrimary, model.MoveUp) {
		t.Fatal("unknown song cannot move")
	}
}

func TestApplyRemove(t *testing.T) {
	q := NewQueueStore()
	q.ApplySnapshot(snapshot(nil, nil, []model.Song{
		song(1, "a", model.SongStatePendingLazy),
		song(2, "b", model.SongStatePendingLazy),
	}))

	if !q.ApplyRemove(1, model.QueueLazy) {
		t.Fatal("remove should apply")
	}
	if q.ApplyRemove(1, model.QueueLazy) {
		t.Fatal("second remove should be a no-op")
	}
	snap := q.Snapshot()
	if len(snap.LazyQueue) != 1 || snap.LazyQueue[0].ID != 2 {
		t.Fatalf("unexpected lazy queue: %+v", snap.LazyQueue)
	}
}

func TestOptimisticMoveConvergesToSnapshot(t *testing.T) {
	q := NewQueueStore()
	q.ApplySnapshot(snapshot(nil, []model.Song{
		song(1, "a", model.SongStateApproved),
		song(2, "b", model.SongStateApproved),
		song(3, "c", model.SongStateApproved),
	}, nil))

	// Optimistic hint the server never saw.
	q.ApplyMove(3, model.QueuePrimary, model.MoveUp)
	q.ApplyRemove(1, model.QueuePrimary)

	// Authoritative snapshot wins outright.
	server := []model.Song{
		song(2, "b", model.SongStateApproved),
		song(1, "a", model.SongStateApproved),
		song(3, "c", model.SongStateApproved),
	}
	q.ApplySnapshot(snapshot(nil, server, nil))

	snap := q.Snapshot()
	for i, want := range []int64{2, 1, 3} {
		if snap.Upcoming[i].ID != want {
			t.Fatalf("did not converge at %d: got %d want %d", i, snap.Upcoming[i].ID, want)
		}
	}
}

func TestSubscribeNotifiedOnChange(t *testing.T) {
	q := NewQueueStore()
	var notified int
	q.Subscribe(func() { notified++ })

	q.ApplySnapshot(snapshot(nil, []model.Song{song(1, "a", model.SongStateApproved)}, nil))
	if notified != 1 {
		t.Fatalf("expected 1 notification, got %d", notified)
	}

	// A move that does not apply must not notify.
	q.ApplyMove(42, model.QueuePrimary, model.MoveUp)
	if notified != 1 {
		t.Fatalf("no-op move notified: %d", notified)
	}
}

func TestPlayingToggle(t *testing.T) {
	q := NewQueueStore()
	if !q.Playing() {
		t.Fatal("player starts playing")
	}
	q.SetPlaying(false)
	if q.Playing() {
		t.Fatal("expected paused")
	}
}
