package model

import "time"

// Settings mirrors the backend's global configuration. Opaque to the client
// beyond display and form round-trips.
type Settings struct {
	ClosingTime string `json:"closing_time"`
	Theme       string `json:"theme"`
}

// APIKey is an operator-managed backend credential. The secret is only ever
// present in the creation response.
type APIKey struct {
	ID        int64     `json:"id"`
	Label     string    `json:"label"`
	Secret    string    `json:"secret,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ConnectedUser is a user session at a table; orders target these, never a
// bare table.
type ConnectedUser struct {
	ID      int64  `json:"id"`
	Nick    string `json:"nick"`
	TableID int64  `json:"table_id"`
}
