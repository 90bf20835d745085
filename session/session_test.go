package session

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestSaveLoadClear(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.json"))

	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	want := &Session{UserID: 12, Nick: "ana", TableID: 4, TableName: "Mesa 04", Token: "tok"}
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *got != *want {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after clear, got %v", err)
	}
	// Clearing twice is fine.
	if err := store.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestFromTokenReadsClaimsUnverified(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    float64(12),
		"nick":       "ana",
		"table_id":   float64(4),
		"table_name": "Mesa 04",
	}).SignedString([]byte("some-backend-key-the-client-never-has"))
	if err != nil {
		t.Fatalf("building token: %v", err)
	}

	sess, err := FromToken(token)
	if err != nil {
		t.Fatalf("from token: %v", err)
	}
	if sess.UserID != 12 || sess.Nick != "ana" || sess.TableID != 4 || sess.TableName != "Mesa 04" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if sess.Token != token {
		t.Fatal("raw token must be kept as issued")
	}

	if _, err := FromToken("garbage"); err == nil {
		t.Fatal("expected malformed token to fail")
	}
}
