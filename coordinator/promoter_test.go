package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QRKara/model"
	"QRKara/reconcile"
	"QRKara/store"
)

// fakeQueueAPI scripts the backend: FetchQueue serves snap, ApproveNextLazy
// pops the lazy head into now playing, RevertApprove reverses it.
type fakeQueueAPI struct {
	snap model.QueueSnapshot

	approveCalls int
	approveErr   error
	revertCalls  []int64
	moveCalls    int
	rejectCalls  []int64
	pauseCalls   int
	resumeCalls  int
	pauseErr     error
	advanceCalls int
	restartCalls int
	playCalls    []int64
}

func (f *fakeQueueAPI) FetchQueue(ctx context.Context) (*model.QueueSnapshot, error) {
	snap := f.snap
	return &snap, nil
}

func (f *fakeQueueAPI) ApproveNextLazy(ctx context.Context) (*model.Song, error) {
	f.approveCalls++
	if f.approveErr != nil {
		return nil, f.approveErr
	}
	if len(f.snap.LazyQueue) == 0 {
		return nil, errors.New("lazy queue empty")
	}
	promoted := f.snap.LazyQueue[0]
	promoted.State = model.SongStateApproved
	f.snap.LazyQueue = f.snap.LazyQueue[1:]
	f.snap.NowPlaying = &promoted
	return &promoted, nil
}

func (f *fakeQueueAPI) RevertApprove(ctx context.Context, songID int64) error {
	f.revertCalls = append(f.revertCalls, songID)
	if f.snap.NowPlaying != nil && f.snap.NowPlaying.ID == songID {
		demoted := *f.snap.NowPlaying
		demoted.State = model.SongStatePendingLazy
		f.snap.NowPlaying = nil
		f.snap.LazyQueue = append([]model.Song{demoted}, f.snap.LazyQueue...)
	}
	return nil
}

func (f *fakeQueueAPI) MoveSong(ctx context.Context, songID int64, kind model.QueueKind, dir model.MoveDirection) error {
	f.moveCalls++
	return nil
}

func (f *fakeQueueAPI) RejectSong(ctx context.Context, songID int64) error {
	f.rejectCalls = append(f.rejectCalls, songID)
	return nil
}

func (f *fakeQueueAPI) PausePlayback(ctx context.Context) error {
	f.pauseCalls++
	return f.pauseErr
}

func (f *fakeQueueAPI) ResumePlayback(ctx context.Context) error {
	f.resumeCalls++
	return nil
}

func (f *fakeQueueAPI) AdvanceQueue(ctx context.Context) error {
	f.advanceCalls++
	return nil
}

func (f *fakeQueueAPI) RestartSong(ctx context.Context) error {
	f.restartCalls++
	return nil
}

func (f *fakeQueueAPI) PlaySong(ctx context.Context, songID int64) error {
	f.playCalls = append(f.playCalls, songID)
	return nil
}

func lazySong(id int64, title string) model.Song {
	return model.Song{ID: id, Title: title, State: model.SongStatePendingLazy}
}

func newPromoterFixture(api *fakeQueueAPI) (*Promoter, *store.QueueStore, *reconcile.Undo, *[]string) {
	queue := store.NewQueueStore()
	undo := reconcile.NewUndo()
	var notes []string
	p := NewPromoter(api, queue, undo, time.Minute, func(m string) { notes = append(notes, m) })
	return p, queue, undo, &notes
}

func TestRefreshPromotesIdleLazyHead(t *testing.T) {
	api := &fakeQueueAPI{snap: model.QueueSnapshot{
		LazyQueue: []model.Song{lazySong(7, "Garota de Ipanema"), lazySong(8, "Evidências")},
	}}
	p, queue, undo, _ := newPromoterFixture(api)

	require.NoError(t, p.Refresh(context.Background()))

	assert.Equal(t, 1, api.approveCalls)
	np, ok := queue.NowPlaying()
	require.True(t, ok)
	assert.Equal(t, int64(7), np.ID)

	banner, ok := undo.Current()
	require.True(t, ok, "promotion must offer an undo")
	assert.Equal(t, "Auto-approved: Garota de Ipanema", banner.Message)
}

func TestNoPromotionWhileSongPlaying(t *testing.T) {
	playing := model.Song{ID: 1, Title: "current", State: model.SongStateApproved}
	api := &fakeQueueAPI{snap: model.QueueSnapshot{
		NowPlaying: &playing,
		LazyQueue:  []model.Song{lazySong(7, "waiting")},
	}}
	p, _, undo, _ := newPromoterFixture(api)

	require.NoError(t, p.Refresh(context.Background()))
	assert.Zero(t, api.approveCalls, "must not promote past a playing song")
	_, ok := undo.Current()
	assert.False(t, ok)
}

func TestNoPromotionWithEmptyLazyQueue(t *testing.T) {
	api := &fakeQueueAPI{snap: model.QueueSnapshot{
		Upcoming: []model.Song{{ID: 2, Title: "queued", State: model.SongStateApproved}},
	}}
	p, _, _, _ := newPromoterFixture(api)

	require.NoError(t, p.Refresh(context.Background()))
	assert.Zero(t, api.approveCalls)
}

func TestPromotionFailureSurfacedWithoutAssumingSuccess(t *testing.T) {
	api := &fakeQueueAPI{
		snap:       model.QueueSnapshot{LazyQueue: []model.Song{lazySong(7, "waiting")}},
		approveErr: errors.New("backend down"),
	}
	p, queue, undo, notes := newPromoterFixture(api)

	require.NoError(t, p.Refresh(context.Background()))

	_, playing := queue.NowPlaying()
	assert.False(t, playing, "failed promotion must not fake a playing song")
	_, ok := undo.Current()
	assert.False(t, ok, "no undo without a promotion")
	require.Len(t, *notes, 1)
	assert.Contains(t, (*notes)[0], "auto-approve")
}

func TestUndoRevertsWithoutImmediateRepromotion(t *testing.T) {
	api := &fakeQueueAPI{snap: model.QueueSnapshot{
		LazyQueue: []model.Song{lazySong(7, "Garota de Ipanema")},
	}}
	p, queue, undo, _ := newPromoterFixture(api)

	require.NoError(t, p.Refresh(context.Background()))
	require.Equal(t, 1, api.approveCalls)

	require.NoError(t, undo.Invoke(context.Background()))

	assert.Equal(t, []int64{7}, api.revertCalls)
	assert.Equal(t, 1, api.approveCalls, "revert must not trigger a fresh promotion")
	_, playing := queue.NowPlaying()
	assert.False(t, playing)
	snap := queue.Snapshot()
	require.Len(t, snap.LazyQueue, 1)
	assert.Equal(t, int64(7), snap.LazyQueue[0].ID, "reverted song returns to the lazy head")
}

func TestHandleSnapshotRunsPromotionCheck(t *testing.T) {
	api := &fakeQueueAPI{snap: model.QueueSnapshot{
		LazyQueue: []model.Song{lazySong(9, "pushed")},
	}}
	p, queue, _, _ := newPromoterFixture(api)

	p.HandleSnapshot(context.Background(), model.QueueSnapshot{
		LazyQueue: []model.Song{lazySong(9, "pushed")},
	})

	assert.Equal(t, 1, api.approveCalls)
	_, playing := queue.NowPlaying()
	require.True(t, playing)
}

func TestMoveRefusesNextUpLocally(t *testing.T) {
	playing := model.Song{ID: 1, Title: "current", State: model.SongStateApproved}
	api := &fakeQueueAPI{snap: model.QueueSnapshot{
		NowPlaying: &playing,
		Upcoming: []model.Song{
			{ID: 2, Title: "next up", State: model.SongStateApproved},
			{ID: 3, Title: "third", State: model.SongStateApproved},
		},
	}}
	p, queue, _, _ := newPromoterFixture(api)
	require.NoError(t, p.Refresh(context.Background()))
	ops := NewOps(api, queue, p)

	err := ops.Move(context.Background(), 2, model.QueuePrimary, model.MoveDown)
	assert.ErrorIs(t, err, ErrMoveLocked)
	assert.Zero(t, api.moveCalls, "locked move never reaches the backend")

	require.NoError(t, ops.Move(context.Background(), 3, model.QueuePrimary, model.MoveUp))
	assert.Equal(t, 1, api.moveCalls)
}

func TestPlaybackControlsReachBackend(t *testing.T) {
	playing := model.Song{ID: 1, Title: "current", State: model.SongStateApproved}
	api := &fakeQueueAPI{snap: model.QueueSnapshot{NowPlaying: &playing}}
	p, queue, _, _ := newPromoterFixture(api)
	ops := NewOps(api, queue, p)

	require.NoError(t, ops.Restart(context.Background()))
	assert.Equal(t, 1, api.restartCalls)

	require.NoError(t, ops.Play(context.Background(), 1))
	assert.Equal(t, []int64{1}, api.playCalls)

	require.NoError(t, ops.Advance(context.Background()))
	assert.Equal(t, 1, api.advanceCalls)
}

func TestTogglePauseRevertsOnFailure(t *testing.T) {
	api := &fakeQueueAPI{pauseErr: errors.New("backend down")}
	p, queue, _, _ := newPromoterFixture(api)
	ops := NewOps(api, queue, p)

	err := ops.TogglePause(context.Background())
	require.Error(t, err)
	assert.True(t, queue.Playing(), "failed pause reverts the optimistic flip")

	api.pauseErr = nil
	require.NoError(t, ops.TogglePause(context.Background()))
	assert.False(t, queue.Playing())
}
