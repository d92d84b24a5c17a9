package remote

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// CheckServerStatus reports whether the server answers its root path with
// HTTP 200. The root path is not authenticated but the api key is still
// required so that a half configured client never makes requests.
func (c *client) CheckServerStatus(ctx context.Context) (bool, error) {
	code, _, err := c.request(ctx, http.MethodGet, "/", nil, nil)
	if err != nil {
		return false, err
	}
	return code == http.StatusOK, nil
}

// StartBot starts the bot and returns the resulting active state.
func (c *client) StartBot(ctx context.Context) (bool, error) {
	if _, err := c.call(ctx, http.MethodPost, "/api/start-bot", nil, nil); err != nil {
		return false, err
	}
	return true, nil
}

// StopBot stops the bot and returns the resulting active state.
func (c *client) StopBot(ctx context.Context) (bool, error) {
	if _, err := c.call(ctx, http.MethodPost, "/api/stop-bot", nil, nil); err != nil {
		return false, err
	}
	return false, nil
}

// CheckBotStatus reports whether the bot is running. The server answers a
// stopped bot with HTTP 503, which is a valid answer rather than a failure.
func (c *client) CheckBotStatus(ctx context.Context) (bool, error) {
	code, b, err := c.request(ctx, http.MethodGet, "/api/bot-status", nil, nil)
	if err != nil {
		return false, err
	}
	if code == http.StatusServiceUnavailable {
		return false, nil
	}
	if _, err := decodeEnvelope(code, b); err != nil {
		return false, err
	}
	return true, nil
}

// Ping asks the bot for its gateway latency. The fields are at the top level
// of the answer rather than inside data.
func (c *client) Ping(ctx context.Context) (Ping, error) {
	code, b, err := c.request(ctx, http.MethodGet, "/api/ping", nil, nil)
	if err != nil {
		return Ping{}, err
	}
	if _, err := decodeEnvelope(code, b); err != nil {
		return Ping{}, err
	}
	var p Ping
	if err := json.Unmarshal(b, &p); err != nil {
		return Ping{}, &Error{Kind: KindProtocol, Message: "failed to parse response: " + string(b), StatusCode: code, err: err}
	}
	return p, nil
}

// FetchServerInfo returns the guilds the bot is connected to.
func (c *client) FetchServerInfo(ctx context.Context) ([]Guild, error) {
	env, err := c.call(ctx, http.MethodGet, "/api/server-info", nil, nil)
	if err != nil {
		return nil, err
	}
	return flattenValues[Guild](env.Data)
}

// SendHello makes the bot greet a member with the given message.
func (c *client) SendHello(ctx context.Context, memberID, message string) (string, error) {
	return c.message(ctx, http.MethodPost, "/api/hello", q{"member": memberID, "message": message})
}

// lower normalizes identifiers the server compares case-sensitively in
// lower case, such as group ids and button types.
func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
