package manager

import (
	"context"
	"strings"

	"emperror.dev/errors"
	"github.com/apex/log"

	"github.com/priyxstudio/botdeck/internal/models"
	"github.com/priyxstudio/botdeck/remote"
)

// GroupSetting is a group as edited on the settings screen. Only valid
// groups are offered for attendance and tutor feedback.
type GroupSetting struct {
	Name    string `json:"name"`
	IsValid bool   `json:"is_valid"`
}

// ValidGroups returns a valid GroupSetting for every name.
func ValidGroups(names ...string) []GroupSetting {
	out := make([]GroupSetting, len(names))
	for i, n := range names {
		out[i] = GroupSetting{Name: n, IsValid: true}
	}
	return out
}

// Management is the set of values edited on the settings screen.
type Management struct {
	DeveloperMode bool           `json:"development_mode"`
	Token         string         `json:"token"`
	DevToken      string         `json:"dev_token"`
	Groups        []GroupSetting `json:"groups"`
}

// ManagementFrom returns the values currently stored for b.
func ManagementFrom(b models.Bot) Management {
	mg := Management{DeveloperMode: b.DeveloperMode, Groups: make([]GroupSetting, len(b.Groups))}
	for i, g := range b.Groups {
		mg.Groups[i] = GroupSetting{Name: g.Name, IsValid: g.IsValid}
	}
	if b.Token != nil {
		mg.Token = *b.Token
	}
	if b.DevToken != nil {
		mg.DevToken = *b.DevToken
	}
	return mg
}

// ActiveToken returns the token sent to the server for the selected mode.
func (mg Management) ActiveToken() string {
	if mg.DeveloperMode {
		return mg.DevToken
	}
	return mg.Token
}

// groups returns the groups with trimmed, non-empty names in order.
func (mg Management) groups() []models.Group {
	out := make([]models.Group, 0, len(mg.Groups))
	for _, g := range mg.Groups {
		if name := strings.TrimSpace(g.Name); name != "" {
			out = append(out, models.Group{Name: name, IsValid: g.IsValid})
		}
	}
	return out
}

// ensureOnline runs the liveness check that precedes every settings flow.
func ensureOnline(ctx context.Context, c remote.Client) error {
	online, err := c.CheckServerStatus(ctx)
	if err != nil {
		return err
	}
	if !online {
		return ErrServerOffline
	}
	return nil
}

// FetchSettings pulls the settings document from the server and merges it into
// the bot. The stored groups are replaced by the server's group names.
func (m *Manager) FetchSettings(ctx context.Context) (remote.Settings, error) {
	b, err := m.Current(ctx)
	if err != nil {
		return remote.Settings{}, err
	}
	c := m.newClient(b.Config())
	if err := ensureOnline(ctx, c); err != nil {
		return remote.Settings{}, err
	}
	s, err := c.FetchSettings(ctx)
	if err != nil {
		return remote.Settings{}, err
	}

	groups := make([]models.Group, len(s.Groups))
	for i, name := range s.Groups {
		groups[i] = models.Group{Name: name, IsValid: true}
	}
	err = m.mutate(ctx, b.ID, func(bot *models.Bot) error {
		bot.DeveloperMode = s.DevelopmentMode
		bot.Token = optional(s.Token)
		bot.DevToken = optional(s.DevToken)
		if err := m.store.Save(ctx, bot); err != nil {
			return err
		}
		return m.store.ReplaceGroups(ctx, bot, groups)
	})
	if err != nil {
		return remote.Settings{}, err
	}
	log.WithFields(log.Fields{"groups": len(groups), "development_mode": s.DevelopmentMode}).Debug("merged server settings")
	return s, nil
}

// SaveManagement sends the development mode, the token and the groups to the
// server in that order, stopping at the first failure. The bot is only updated
// once all three calls have succeeded.
func (m *Manager) SaveManagement(ctx context.Context, mg Management) error {
	b, err := m.Current(ctx)
	if err != nil {
		return err
	}
	if b.IsActive {
		return ErrBotRunning
	}
	c := m.newClient(b.Config())
	if err := ensureOnline(ctx, c); err != nil {
		return err
	}

	if _, err := c.UpdateDevelopmentMode(ctx, mg.DeveloperMode); err != nil {
		return errors.Wrap(err, "failed to update development mode")
	}
	if _, err := c.UpdateBotToken(ctx, mg.DeveloperMode, mg.ActiveToken()); err != nil {
		return errors.Wrap(err, "failed to update bot token")
	}
	groups := mg.groups()
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	if _, err := c.UpdateGroups(ctx, names); err != nil {
		return errors.Wrap(err, "failed to update groups")
	}

	return m.mutate(ctx, b.ID, func(bot *models.Bot) error {
		bot.DeveloperMode = mg.DeveloperMode
		if mg.Token != "" {
			bot.Token = optional(mg.Token)
		}
		if mg.DevToken != "" {
			bot.DevToken = optional(mg.DevToken)
		}
		if err := m.store.Save(ctx, bot); err != nil {
			return err
		}
		return m.store.ReplaceGroups(ctx, bot, groups)
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ClearGroups removes every group on the server and then locally.
func (m *Manager) ClearGroups(ctx context.Context) (string, error) {
	b, err := m.Current(ctx)
	if err != nil {
		return "", err
	}
	if b.IsActive {
		return "", ErrBotRunning
	}
	msg, err := m.newClient(b.Config()).ClearGroups(ctx)
	if err != nil {
		return "", err
	}
	err = m.mutate(ctx, b.ID, func(bot *models.Bot) error {
		return m.store.ReplaceGroups(ctx, bot, nil)
	})
	if err != nil {
		return "", err
	}
	log.WithField("bot", b.Name).Info("cleared groups")
	return msg, nil
}
