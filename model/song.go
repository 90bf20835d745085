package model

import (
	"fmt"
	"time"
)

// SongState is the lifecycle state of a queued song.
type SongState string

const (
	SongStatePending     SongState = "pending"      // submitted, only visible in the submitter's list
	SongStatePendingLazy SongState = "pending_lazy" // admitted to the waiting-for-turn queue
	SongStateApproved    SongState = "approved"     // member of the primary queue
	SongStateSung        SongState = "sung"         // terminal, removed from active queues
	SongStateRejected    SongState = "rejected"     // terminal, manual or automatic rejection
)

// songTransitions lists every edge the lifecycle allows. The server owns the
// actual transitions; the client uses this table to reject impossible local
// mutations before any call is issued.
var songTransitions = map[SongState][]SongState{
	SongStatePending:     {SongStatePendingLazy, SongStateApproved, SongStateRejected},
	SongStatePendingLazy: {SongStateApproved, SongStateRejected},
	SongStateApproved:    {SongStateSung, SongStateRejected},
	SongStateSung:        {},
	SongStateRejected:    {},
}

// Valid reports whether s is a known lifecycle state.
func (s SongState) Valid() bool {
	_, ok := songTransitions[s]
	return ok
}

// Terminal reports whether no further transition is possible.
func (s SongState) Terminal() bool {
	return s == SongStateSung || s == SongStateRejected
}

// CanTransition reports whether the lifecycle allows moving from s to next.
func (s SongState) CanTransition(next SongState) bool {
	for _, t := range songTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Song is a queued song as reported by the backend. Content fields are never
// mutated in place; only the lifecycle state moves.
type Song struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	MediaID         string    `json:"media_id"` // external video/media identifier
	DurationSeconds int       `json:"duration_seconds"`
	State           SongState `json:"state"`
	SubmittedByNick string    `json:"submitted_by_nick,omitempty"`
	SubmittedByID   int64     `json:"submitted_by_id,omitempty"`
	TableName       string    `json:"table_name,omitempty"`
	Score           *float64  `json:"score,omitempty"` // optional AI score, set when sung
	CreatedAt       time.Time `json:"created_at"`
}

// Transition validates and applies a lifecycle change.
func (s *Song) Transition(next SongState) error {
	if !next.Valid() {
		return fmt.Errorf("unknown song state %q", next)
	}
	if !s.State.CanTransition(next) {
		return fmt.Errorf("song %d: invalid transition %s -> %s", s.ID, s.State, next)
	}
	s.State = next
	return nil
}

// SubmittedBy is the display name to attribute the song to: the table name
// when the submitter sits at a table, the nick otherwise.
func (s *Song) SubmittedBy() string {
	if s.TableName != "" {
		return s.TableName
	}
	if s.SubmittedByNick != "" {
		return s.SubmittedByNick
	}
	return "unknown"
}

// QueueSnapshot is a point-in-time aggregate of the whole queue. It replaces
// local queue state wholesale; it is never merged.
type QueueSnapshot struct {
	NowPlaying *Song  `json:"now_playing"`
	Upcoming   []Song `json:"upcoming"`
	LazyQueue  []Song `json:"lazy_queue"`
}

// QueueKind selects which of the two ordered queues an operation targets.
type QueueKind string

const (
	QueuePrimary QueueKind = "primary"
	QueueLazy    QueueKind = "lazy"
)

// MoveDirection is a position-relative reorder; absolute indexes are never
// sent so that two operators acting at once cannot clobber each other.
type MoveDirection string

const (
	MoveUp   MoveDirection = "up"
	MoveDown MoveDirection = "down"
)
