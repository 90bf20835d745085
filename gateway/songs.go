package gateway

import (
	"context"
	"fmt"

	"QRKara/model"
)

// SongSubmission is the payload for every add-song variant.
type SongSubmission struct {
	Title           string `json:"title"`
	MediaID         string `json:"media_id"`
	DurationSeconds int    `json:"duration_seconds"`
}

// FetchQueue returns the full extended queue snapshot: now playing, upcoming
// and the lazy queue. This is the authoritative state every optimistic local
// mutation converges back to.
func (c *Client) FetchQueue(ctx context.Context) (*model.QueueSnapshot, error) {
	var snap model.QueueSnapshot
	if err := c.get(ctx, "/songs/queue/extended", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// FetchPersonalSongs returns the submitter's own song list, including songs
// still in pending state that no shared queue shows yet.
func (c *Client) FetchPersonalSongs(ctx context.Context, userID int64) ([]model.Song, error) {
	var songs []model.Song
	if err := c.get(ctx, fmt.Sprintf("/users/%d/songs", userID), &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// SubmitSong adds a song on behalf of a table user.
func (c *Client) SubmitSong(ctx context.Context, userID int64, sub SongSubmission) (*model.Song, error) {
	var song model.Song
	if err := c.post(ctx, fmt.Sprintf("/users/%d/songs", userID), sub, &song); err != nil {
		return nil, err
	}
	return &song, nil
}

// AdminAddSong adds a song to the general queue from the operator console.
func (c *Client) AdminAddSong(ctx context.Context, sub SongSubmission) (*model.Song, error) {
	var song model.Song
	if err := c.post(ctx, "/admin/songs/add", sub, &song); err != nil {
		return nil, err
	}
	return &song, nil
}

// AdminAddSongForTable adds a song attributed to a specific table.
func (c *Client) AdminAddSongForTable(ctx context.Context, tableID int64, sub SongSubmission) (*model.Song, error) {
	var song model.Song
	if err := c.post(ctx, fmt.Sprintf("/admin/tables/%d/add-song", tableID), sub, &song); err != nil {
		return nil, err
	}
	return &song, nil
}

// RejectSong rejects a song from any non-terminal state. Irreversible.
func (c *Client) RejectSong(ctx context.Context, songID int64) error {
	return c.post(ctx, fmt.Sprintf("/songs/%d/reject", songID), nil, nil)
}

// DeleteOwnSong removes a song from the submitter's personal list.
func (c *Client) DeleteOwnSong(ctx context.Context, songID, userID int64) error {
	return c.delete(ctx, fmt.Sprintf("/songs/%d?user_id=%d", songID, userID))
}

// MoveSong swaps a song with its neighbor in the given queue. Moves are
// relative, never absolute, so concurrent operators cannot race each other
// into an index that no longer exists.
func (c *Client) MoveSong(ctx context.Context, songID int64, kind model.QueueKind, dir model.MoveDirection) error {
	prefix := "/admin/songs"
	if kind == model.QueueLazy {
		prefix = "/admin/songs/lazy"
	}
	return c.post(ctx, fmt.Sprintf("%s/%d/move-%s", prefix, songID, dir), nil, nil)
}

// PlaySong orders the player to play a specific song.
func (c *Client) PlaySong(ctx context.Context, songID int64) error {
	return c.post(ctx, fmt.Sprintf("/songs/%d/play", songID), nil, nil)
}

// RestartSong restarts the currently playing song.
func (c *Client) RestartSong(ctx context.Context) error {
	return c.post(ctx, "/admin/songs/restart", nil, nil)
}

// AdvanceQueue skips to the next song in the primary queue.
func (c *Client) AdvanceQueue(ctx context.Context) error {
	return c.post(ctx, "/songs/next", nil, nil)
}

// PausePlayback pauses the player.
func (c *Client) PausePlayback(ctx context.Context) error {
	return c.post(ctx, "/admin/player/pause", nil, nil)
}

// ResumePlayback resumes the player.
func (c *Client) ResumePlayback(ctx context.Context) error {
	return c.post(ctx, "/admin/player/resume", nil, nil)
}

// ApproveNextLazy promotes the head of the lazy queue into the primary queue.
// Returns the promoted song so the caller can name it in the undo banner.
func (c *Client) ApproveNextLazy(ctx context.Context) (*model.Song, error) {
	var song model.Song
	if err := c.post(ctx, "/admin/songs/lazy/approve-next", nil, &song); err != nil {
		return nil, err
	}
	return &song, nil
}

// RevertApprove undoes a lazy promotion, returning the song to the lazy queue.
func (c *Client) RevertApprove(ctx context.Context, songID int64) error {
	return c.post(ctx, fmt.Sprintf("/admin/songs/%d/revert-approve", songID), nil, nil)
}
