package reconcile

import (
	"context"
	"errors"
	"testing"
)

func TestGateRunsActionOnApproval(t *testing.T) {
	gate := NewGate(ConfirmFunc(func(message string) bool { return true }))
	ran := false
	err := gate.Request(context.Background(), "Remove song?", func(ctx context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if !ran {
		t.Fatal("approved action did not run")
	}
}

func TestGateDropsActionOnRefusal(t *testing.T) {
	gate := NewGate(ConfirmFunc(func(message string) bool { return false }))
	ran := false
	err := gate.Request(context.Background(), "Reset the night?", func(ctx context.Context) error {
		ran = true
		return nil
	})
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if ran {
		t.Fatal("refused action must not run")
	}
}

func TestGateRebindsActionPerRequest(t *testing.T) {
	answers := []bool{false, true}
	gate := NewGate(ConfirmFunc(func(message string) bool {
		a := answers[0]
		answers = answers[1:]
		return a
	}))

	var got []string
	action := func(name string) func(context.Context) error {
		return func(ctx context.Context) error {
			got = append(got, name)
			return nil
		}
	}

	_ = gate.Request(context.Background(), "first", action("first"))
	if err := gate.Request(context.Background(), "second", action("second")); err != nil {
		t.Fatalf("second request: %v", err)
	}
	if len(got) != 1 || got[0] != "second" {
		t.Fatalf("stale action fired: %v", got)
	}
}

func TestGatePropagatesActionError(t *testing.T) {
	gate := NewGate(ConfirmFunc(func(message string) bool { return true }))
	boom := errors.New("backend down")
	err := gate.Request(context.Background(), "Advance?", func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected action error, got %v", err)
	}
}
