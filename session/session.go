// Package session persists the authenticated user/table identity locally so
// a client can be restored without re-authentication. The token is stored as
// issued; its claims are only parsed for display fields, never verified.
// Verification is the backend's job on every call.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession is returned when no session has been saved yet.
var ErrNoSession = errors.New("no saved session")

// Session is the restorable client identity.
type Session struct {
	UserID    int64  `json:"user_id"`
	Nick      string `json:"nick"`
	TableID   int64  `json:"table_id"`
	TableName string `json:"table_name"`
	Token     string `json:"token"`
}

// Store reads and writes the session file.
type Store struct {
	path string
}

// NewStore creates a session store at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load restores the saved session.
func (s *Store) Load() (*Session, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decoding session file: %w", err)
	}
	return &sess, nil
}

// Save persists the session, private to the current user.
func (s *Store) Save(sess *Session) error {
	raw, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}

// Clear removes the saved session. Missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}

// FromToken builds a session from a backend-issued token by reading its
// claims without verifying the signature. The client has no signing key and
// needs none: a forged token buys nothing, every call is re-checked remotely.
func FromToken(token string) (*Session, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("parsing session token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected token claims")
	}

	sess := &Session{Token: token}
	if v, ok := claims["user_id"].(float64); ok {
		sess.UserID = int64(v)
	}
	if v, ok := claims["nick"].(string); ok {
		sess.Nick = v
	}
	if v, ok := claims["table_id"].(float64); ok {
		sess.TableID = int64(v)
	}
	if v, ok := claims["table_name"].(string); ok {
		sess.TableName = v
	}
	return sess, nil
}
