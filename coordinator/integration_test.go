package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QRKara/gateway"
	"QRKara/model"
	"QRKara/reconcile"
	"QRKara/store"
	"QRKara/venuetest"
)

func newWiredFixture(t *testing.T, srv *venuetest.Server) (*Promoter, *Ops, *store.QueueStore, *reconcile.Undo) {
	t.Helper()
	client := gateway.NewClient(srv.URL(), "", 2*time.Second)
	queue := store.NewQueueStore()
	undo := reconcile.NewUndo()
	p := NewPromoter(client, queue, undo, time.Minute, nil)
	return p, NewOps(client, queue, p), queue, undo
}

func TestPromotionAndUndoOverTheWire(t *testing.T) {
	srv := venuetest.NewServer()
	defer srv.Close()
	srv.SetQueue(model.QueueSnapshot{LazyQueue: []model.Song{
		{ID: 7, Title: "Garota de Ipanema", State: model.SongStatePendingLazy},
		{ID: 8, Title: "Evidências", State: model.SongStatePendingLazy},
	}})

	p, _, queue, undo := newWiredFixture(t, srv)

	require.NoError(t, p.Refresh(context.Background()))
	assert.Equal(t, 1, srv.CallCount("approve-next"))

	np, ok := queue.NowPlaying()
	require.True(t, ok)
	assert.Equal(t, int64(7), np.ID)
	assert.Equal(t, model.SongStateApproved, np.State)
	assert.Len(t, queue.Snapshot().LazyQueue, 1)

	banner, ok := undo.Current()
	require.True(t, ok)
	assert.Equal(t, "Auto-approved: Garota de Ipanema", banner.Message)

	require.NoError(t, undo.Invoke(context.Background()))
	assert.Equal(t, 1, srv.CallCount("revert-approve"))
	assert.Equal(t, 1, srv.CallCount("approve-next"), "the undone promotion must not re-fire")

	_, ok = queue.NowPlaying()
	assert.False(t, ok)
	snap := queue.Snapshot()
	require.Len(t, snap.LazyQueue, 2)
	assert.Equal(t, int64(7), snap.LazyQueue[0].ID, "reverted song is back at the lazy head")
}

func TestPromotionFailureLeavesStateUntouched(t *testing.T) {
	srv := venuetest.NewServer()
	defer srv.Close()
	srv.SetQueue(model.QueueSnapshot{LazyQueue: []model.Song{
		{ID: 7, Title: "waiting", State: model.SongStatePendingLazy},
	}})
	srv.FailNext("approve-next", 500)

	client := gateway.NewClient(srv.URL(), "", 2*time.Second)
	queue := store.NewQueueStore()
	undo := reconcile.NewUndo()
	var notes []string
	p := NewPromoter(client, queue, undo, time.Minute, func(m string) { notes = append(notes, m) })

	require.NoError(t, p.Refresh(context.Background()))

	_, ok := queue.NowPlaying()
	assert.False(t, ok)
	assert.Len(t, queue.Snapshot().LazyQueue, 1)
	_, ok = undo.Current()
	assert.False(t, ok)
	assert.Len(t, notes, 1)
}

func TestMoveConvergesToServerOrder(t *testing.T) {
	srv := venuetest.NewServer()
	defer srv.Close()
	playing := model.Song{ID: 1, Title: "current", State: model.SongStateApproved}
	srv.SetQueue(model.QueueSnapshot{
		NowPlaying: &playing,
		Upcoming: []model.Song{
			{ID: 2, Title: "next up", State: model.SongStateApproved},
			{ID: 3, Title: "third", State: model.SongStateApproved},
			{ID: 4, Title: "fourth", State: model.SongStateApproved},
		},
	})

	p, ops, queue, _ := newWiredFixture(t, srv)
	require.NoError(t, p.Refresh(context.Background()))

	// Next-up reorder is refused before any call goes out.
	err := ops.Move(context.Background(), 2, model.QueuePrimary, model.MoveDown)
	assert.ErrorIs(t, err, ErrMoveLocked)
	assert.Zero(t, srv.CallCount("move-"))

	require.NoError(t, ops.Move(context.Background(), 4, model.QueuePrimary, model.MoveUp))
	assert.Equal(t, 1, srv.CallCount("move-up"))

	snap := queue.Snapshot()
	want := []int64{2, 4, 3}
	require.Len(t, snap.Upcoming, len(want))
	for i, id := range want {
		assert.Equal(t, id, snap.Upcoming[i].ID, "position %d", i)
	}
}

func TestRemoveRejectsOnServerAndRefetches(t *testing.T) {
	srv := venuetest.NewServer()
	defer srv.Close()
	srv.SetQueue(model.QueueSnapshot{LazyQueue: []model.Song{
		{ID: 5, Title: "a", State: model.SongStatePendingLazy},
		{ID: 6, Title: "b", State: model.SongStatePendingLazy},
	}})

	p, ops, queue, _ := newWiredFixture(t, srv)
	require.NoError(t, p.refetch(context.Background()))

	require.NoError(t, ops.Remove(context.Background(), 5, model.QueueLazy))
	assert.Equal(t, 1, srv.CallCount("/songs/5/reject"))

	snap := queue.Snapshot()
	require.Len(t, snap.LazyQueue, 1)
	assert.Equal(t, int64(6), snap.LazyQueue[0].ID)
}
