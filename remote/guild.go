package remote

import (
	"context"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
)

// MaxClearLimit is the largest number of messages one clear request removes.
const MaxClearLimit = 10

func (c *client) FetchMemberCount(ctx context.Context) (MemberCount, error) {
	env, err := c.call(ctx, http.MethodGet, "/api/member-count", nil, nil)
	if err != nil {
		return MemberCount{}, err
	}
	var mc MemberCount
	if err := json.Unmarshal(env.Data, &mc); err != nil {
		return MemberCount{}, &Error{Kind: KindProtocol, Message: "failed to parse response: " + string(env.Data), err: err}
	}
	return mc, nil
}

// FetchMembers returns the members of every guild as one list.
func (c *client) FetchMembers(ctx context.Context) ([]Member, error) {
	env, err := c.call(ctx, http.MethodGet, "/api/members", nil, nil)
	if err != nil {
		return nil, err
	}
	return flattenLists[Member](env.Data)
}

// FetchRoles returns the roles of every guild as one list.
func (c *client) FetchRoles(ctx context.Context) ([]Role, error) {
	env, err := c.call(ctx, http.MethodGet, "/api/roles", nil, nil)
	if err != nil {
		return nil, err
	}
	return flattenLists[Role](env.Data)
}

// FetchChannels returns the channels of every guild as one list.
func (c *client) FetchChannels(ctx context.Context) ([]Channel, error) {
	env, err := c.call(ctx, http.MethodGet, "/api/channels", nil, nil)
	if err != nil {
		return nil, err
	}
	return flattenLists[Channel](env.Data)
}

func (c *client) GiveMemberRole(ctx context.Context, userID, roleID string) (string, error) {
	return c.message(ctx, http.MethodPost, "/api/give-member-role", q{"role_id": roleID, "user_id": userID})
}

// ClearMessages deletes the last limit messages of a channel. The limit must
// be between 1 and MaxClearLimit.
func (c *client) ClearMessages(ctx context.Context, channelID string, limit int) (string, error) {
	if limit < 1 || limit > MaxClearLimit {
		return "", newError(KindInvalidArgument, "limit must be between 1 and "+strconv.Itoa(MaxClearLimit), nil)
	}
	return c.message(ctx, http.MethodPost, "/api/clear", q{"channel_id": channelID, "limit": strconv.Itoa(limit)})
}
