package models

import (
	"time"
)

// DefaultGroupNames are the groups every new bot starts with.
var DefaultGroupNames = []string{"G1", "G2"}

// BotConfig is the address and key used to reach a bot server.
type BotConfig struct {
	ServerAddress string `json:"server_address"`
	APIKey        string `json:"api_key"`
}

// Bot is the persisted bot configuration together with its groups. There is
// one bot per installation.
type Bot struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name          string  `gorm:"not null" json:"name"`
	ServerAddress string  `json:"server_address"`
	APIKey        string  `json:"-"`
	IsActive      bool    `gorm:"default:false" json:"is_active"`
	Token         *string `json:"-"`
	DevToken      *string `json:"-"`
	DeveloperMode bool    `gorm:"default:false" json:"developer_mode"`

	Groups []Group `gorm:"foreignKey:BotID;constraint:OnDelete:CASCADE" json:"groups"`
}

func (Bot) TableName() string {
	return "bots"
}

// NewBot returns an unsaved bot with the default groups.
func NewBot(name string, cfg BotConfig) *Bot {
	b := &Bot{
		Name:          name,
		ServerAddress: cfg.ServerAddress,
		APIKey:        cfg.APIKey,
	}
	for i, n := range DefaultGroupNames {
		b.Groups = append(b.Groups, Group{Name: n, IsValid: true, Position: i})
	}
	return b
}

// Config returns the connection settings of the bot.
func (b *Bot) Config() BotConfig {
	return BotConfig{ServerAddress: b.ServerAddress, APIKey: b.APIKey}
}

// ActiveToken returns the token matching the developer mode, or an empty
// string when it has not been set.
func (b *Bot) ActiveToken() string {
	t := b.Token
	if b.DeveloperMode {
		t = b.DevToken
	}
	if t == nil {
		return ""
	}
	return *t
}

// Group looks up a group by name, ignoring case.
func (b *Bot) Group(name string) *Group {
	for i := range b.Groups {
		if equalFold(b.Groups[i].Name, name) {
			return &b.Groups[i]
		}
	}
	return nil
}

// GroupNames returns the group names in display order.
func (b *Bot) GroupNames() []string {
	out := make([]string, len(b.Groups))
	for i, g := range b.Groups {
		out[i] = g.Name
	}
	return out
}

// Clone returns a deep copy that shares no memory with b.
func (b *Bot) Clone() Bot {
	c := *b
	c.Token = cloneString(b.Token)
	c.DevToken = cloneString(b.DevToken)
	c.Groups = make([]Group, len(b.Groups))
	for i, g := range b.Groups {
		g.AttendanceCode = cloneString(g.AttendanceCode)
		c.Groups[i] = g
	}
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
