package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"QRKara/model"
)

// FetchReport runs a named backend report. The result shape varies per report
// type, so the raw JSON is handed to the render layer untouched.
func (c *Client) FetchReport(ctx context.Context, reportType string, params url.Values) (json.RawMessage, error) {
	path := "/admin/reports/" + url.PathEscape(reportType)
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var raw json.RawMessage
	if err := c.get(ctx, path, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// FetchSettings returns the backend's global settings.
func (c *Client) FetchSettings(ctx context.Context) (*model.Settings, error) {
	var s model.Settings
	if err := c.get(ctx, "/admin/settings", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateClosingTime sets the venue closing time.
func (c *Client) UpdateClosingTime(ctx context.Context, closingTime string) error {
	return c.put(ctx, "/admin/settings/closing-time", map[string]string{"closing_time": closingTime}, nil)
}

// UpdateTheme sets the UI theme pushed to all clients.
func (c *Client) UpdateTheme(ctx context.Context, theme string) error {
	return c.put(ctx, "/admin/settings/theme", map[string]string{"theme": theme}, nil)
}

// FetchAPIKeys lists operator API keys. Secrets are not included.
func (c *Client) FetchAPIKeys(ctx context.Context) ([]model.APIKey, error) {
	var keys []model.APIKey
	if err := c.get(ctx, "/admin/api-keys", &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// CreateAPIKey creates an API key; the response is the only time the secret
// is visible.
func (c *Client) CreateAPIKey(ctx context.Context, label string) (*model.APIKey, error) {
	var key model.APIKey
	if err := c.post(ctx, "/admin/api-keys", map[string]string{"label": label}, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// DeleteAPIKey revokes an API key.
func (c *Client) DeleteAPIKey(ctx context.Context, keyID int64) error {
	return c.delete(ctx, fmt.Sprintf("/admin/api-keys/%d", keyID))
}

// BroadcastMessage pushes a transient notification to every connected client.
func (c *Client) BroadcastMessage(ctx context.Context, message string) error {
	return c.post(ctx, "/broadcast/message", map[string]string{"message": message}, nil)
}

// SendReaction broadcasts an ephemeral reaction emoji.
func (c *Client) SendReaction(ctx context.Context, payload model.ReactionPayload) error {
	return c.post(ctx, "/broadcast/reaction", payload, nil)
}

// ResetNight wipes tables, users, songs and consumptions. Destructive; must
// sit behind the confirmation gate.
func (c *Client) ResetNight(ctx context.Context) error {
	return c.post(ctx, "/admin/reset-night", nil, nil)
}
