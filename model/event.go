package model

import "encoding/json"

// EventType discriminates push events on the shared channel.
type EventType string

const (
	EventNotification      EventType = "notification"       // transient user-facing message
	EventAdminNotification EventType = "admin_notification" // transient operator-facing message
	EventQueueUpdate       EventType = "queue_update"       // authoritative QueueSnapshot payload
	EventSongFinished      EventType = "song_finished"      // submitter list must be refetched
	EventConsumptionNew    EventType = "consumo_created"    // affected table account must be refetched
	EventConsumptionGone   EventType = "consumo_deleted"    // affected table account must be refetched
	EventAccountUpdate     EventType = "update_account"     // carries a table id, refetch if tracked
	EventProductUpdate     EventType = "product_update"     // product catalog must be refetched
	EventReaction          EventType = "reaction"           // ephemeral, presentational only
)

// Event is the wire envelope for one pushed message. Data stays raw until the
// handler for the type decodes it; unknown types are logged and dropped.
type Event struct {
	Type    EventType       `json:"type"`
	Message string          `json:"message,omitempty"`
	TableID int64           `json:"table_id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ReactionPayload is the ephemeral emoji broadcast.
type ReactionPayload struct {
	Reaction string `json:"reaction"`
	Sender   string `json:"sender"`
}
