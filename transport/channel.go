// Package transport owns the persistent push channel from the backend. It
// delivers discrete typed events with no ordering guarantee relative to
// in-flight gateway calls, so every handler is written to be idempotent:
// apart from queue snapshots and reactions, whose payloads are
// authoritative, handlers refetch the canonical resource instead of trusting
// deltas.
package transport

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"QRKara/logger"
	"QRKara/model"
)

// Handlers holds the per-event reactions. Nil fields drop their events.
type Handlers struct {
	// OnNotification surfaces a transient message; admin marks the
	// operator-only variant. No state mutation.
	OnNotification func(message string, admin bool)
	// OnQueueUpdate receives an authoritative queue snapshot.
	OnQueueUpdate func(snap model.QueueSnapshot)
	// OnSongFinished signals that the personal song list must be refetched;
	// the event carries no payload.
	OnSongFinished func()
	// OnConsumptionChanged fires for created and deleted consumption lines;
	// the affected table's account must be refetched.
	OnConsumptionChanged func(tableID int64)
	// OnAccountUpdate fires when a table's account changed server-side.
	OnAccountUpdate func(tableID int64)
	// OnProductUpdate signals that the product catalog must be refetched.
	OnProductUpdate func()
	// OnReaction receives the ephemeral reaction payload. Presentational
	// only; it expires on its own and touches no store.
	OnReaction func(r model.ReactionPayload)
}

// Channel is the shared duplex connection to the backend's event endpoint.
type Channel struct {
	url      string
	delay    time.Duration
	handlers Handlers
	dialer   *websocket.Dialer
}

// NewChannel creates a channel for the given ws endpoint. delay is the fixed
// wait between reconnect attempts.
func NewChannel(url string, delay time.Duration, handlers Handlers) *Channel {
	if delay <= 0 {
		delay = 3 * time.Second
	}
	return &Channel{
		url:      url,
		delay:    delay,
		handlers: handlers,
		dialer:   websocket.DefaultDialer,
	}
}

// Run connects and reads events until ctx is cancelled. Disconnects trigger
// a reconnect after the fixed delay, forever: this is a liveness property.
// Events lost during the gap are acceptable because state is re-derived from
// full snapshots, not replayed; OnConnect-style refreshes belong to the
// caller via the onOpen callback.
func (c *Channel) Run(ctx context.Context, onOpen func()) {
	for {
		if err := c.connectAndRead(ctx, onOpen); err != nil {
			logger.Warn("event channel disconnected",
				logger.String("url", c.url),
				logger.ErrorField(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.delay):
		}
	}
}

func (c *Channel) connectAndRead(ctx context.Context, onOpen func()) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.Info("event channel connected", logger.String("url", c.url))
	if onOpen != nil {
		onOpen()
	}

	// Close the socket when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		c.dispatch(raw)
	}
}

// dispatch decodes one pushed message and routes it. Malformed or unknown
// events are logged and dropped; the channel never dies over a bad payload.
func (c *Channel) dispatch(raw []byte) {
	var event model.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		logger.Warn("undecodable event dropped", logger.ErrorField(err))
		return
	}

	logger.Debug("event received", logger.String("type", string(event.Type)))

	switch event.Type {
	case model.EventNotification, model.EventAdminNotification:
		if c.handlers.OnNotification != nil {
			c.handlers.OnNotification(event.Message, event.Type == model.EventAdminNotification)
		}
	case model.EventQueueUpdate:
		if c.handlers.OnQueueUpdate == nil {
			return
		}
		var snap model.QueueSnapshot
		if err := json.Unmarshal(event.Data, &snap); err != nil {
			logger.Warn("undecodable queue snapshot dropped", logger.ErrorField(err))
			return
		}
		c.handlers.OnQueueUpdate(snap)
	case model.EventSongFinished:
		if c.handlers.OnSongFinished != nil {
			c.handlers.OnSongFinished()
		}
	case model.EventConsumptionNew, model.EventConsumptionGone:
		if c.handlers.OnConsumptionChanged != nil {
			c.handlers.OnConsumptionChanged(event.TableID)
		}
	case model.EventAccountUpdate:
		if c.handlers.OnAccountUpdate != nil {
			c.handlers.OnAccountUpdate(event.TableID)
		}
	case model.EventProductUpdate:
		if c.handlers.OnProductUpdate != nil {
			c.handlers.OnProductUpdate()
		}
	case model.EventReaction:
		if c.handlers.OnReaction == nil {
			return
		}
		var r model.ReactionPayload
		if err := json.Unmarshal(event.Data, &r); err != nil {
			logger.Warn("undecodable reaction dropped", logger.ErrorField(err))
			return
		}
		c.handlers.OnReaction(r)
	default:
		logger.Debug("unknown event type ignored", logger.String("type", string(event.Type)))
	}
}
