package remote

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Jeffail/gabs/v2"
	"github.com/goccy/go-json"
)

// NoTokenMessage is returned by UpdateBotToken when there is nothing to send.
const NoTokenMessage = "No token to update"

func (c *client) UpdateDevelopmentMode(ctx context.Context, enabled bool) (string, error) {
	return c.message(ctx, http.MethodPost, "/api/settings/bot/development_mode", q{"development_mode": strconv.FormatBool(enabled)})
}

// UpdateBotToken stores the production token, or the development token when
// developmentMode is set. An empty token succeeds without a request.
func (c *client) UpdateBotToken(ctx context.Context, developmentMode bool, token string) (string, error) {
	if token == "" {
		return NoTokenMessage, nil
	}
	if developmentMode {
		return c.message(ctx, http.MethodPost, "/api/settings/bot/dev_token", q{"dev_token": token})
	}
	return c.message(ctx, http.MethodPost, "/api/settings/bot/token", q{"token": token})
}

// UpdateGroups replaces the server's group list. The names are sent as a JSON
// body rather than query parameters.
func (c *client) UpdateGroups(ctx context.Context, groups []string) (string, error) {
	if groups == nil {
		groups = []string{}
	}
	body := gabs.New()
	if _, err := body.Set(groups, "groups"); err != nil {
		return "", newError(KindInvalidArgument, err.Error(), err)
	}
	env, err := c.call(ctx, http.MethodPost, "/api/settings/groups", nil, body.Bytes())
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// ClearGroups removes every group from the server's settings.
func (c *client) ClearGroups(ctx context.Context) (string, error) {
	return c.message(ctx, http.MethodPost, "/api/settings/groups/clear", nil)
}

// FetchSettings returns the bot settings held by the server.
func (c *client) FetchSettings(ctx context.Context) (Settings, error) {
	env, err := c.call(ctx, http.MethodGet, "/api/settings", nil, nil)
	if err != nil {
		return Settings{}, err
	}

	invalid := func(err error) (Settings, error) {
		return Settings{}, &Error{Kind: KindProtocol, Message: "failed to parse response: " + string(env.Data), err: err}
	}
	doc, err := gabs.ParseJSON(env.Data)
	if err != nil {
		return invalid(err)
	}
	bot := doc.S("bot")
	if bot == nil {
		return invalid(nil)
	}

	s := Settings{Groups: []string{}, AccessRoles: []AccessRole{}}
	s.DevelopmentMode, _ = bot.S("development_mode").Data().(bool)
	s.Token, _ = bot.S("token").Data().(string)
	s.DevToken, _ = bot.S("dev_token").Data().(string)
	for _, g := range doc.S("groups").Children() {
		if name, ok := g.Data().(string); ok {
			s.Groups = append(s.Groups, name)
		}
	}
	if roles := doc.S("access_roles"); roles != nil {
		if err := json.Unmarshal(roles.Bytes(), &s.AccessRoles); err != nil {
			return invalid(err)
		}
	}
	return s, nil
}
