package remote

import "time"

// Member is a guild member as reported by the bot server.
type Member struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	DisplayName   string   `json:"display_name"`
	Discriminator string   `json:"discriminator"`
	AvatarURL     *string  `json:"avatar_url"`
	Bot           bool     `json:"bot"`
	JoinedAt      string   `json:"joined_at"`
	Roles         []string `json:"roles"`
	Status        string   `json:"status"`
}

// Role is a guild role.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Permissions string `json:"permissions"`
	Position    int    `json:"position"`
	Mentionable bool   `json:"mentionable"`
}

// Channel is a guild channel.
type Channel struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Position   int     `json:"position"`
	CategoryID *string `json:"category_id"`
}

// Guild is a server the bot is connected to.
type Guild struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	MemberCount int     `json:"member_count"`
	IconURL     *string `json:"icon_url"`
	Description *string `json:"description"`
	CreatedAt   *string `json:"created_at"`
	OwnerID     *string `json:"owner_id"`
}

// MemberCount is the presence breakdown of all members.
type MemberCount struct {
	Online  int `json:"online"`
	Offline int `json:"offline"`
	Total   int `json:"total"`
}

// Ping is the answer of the ping endpoint, e.g. {Latency: "42ms", Message: "Pong!"}.
type Ping struct {
	Latency string `json:"latency"`
	Message string `json:"message"`
}

// AccessRole is a role allowed to operate the bot.
type AccessRole struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Mentionable bool   `json:"mentionable"`
	Permissions string `json:"permissions"`
	Position    int    `json:"position"`
}

// Settings is the bot configuration stored on the server.
type Settings struct {
	DevelopmentMode bool         `json:"development_mode"`
	Token           string       `json:"token"`
	DevToken        string       `json:"dev_token"`
	Groups          []string     `json:"groups"`
	AccessRoles     []AccessRole `json:"access_roles"`
}

// FileInfo describes a CSV file kept by the server.
type FileInfo struct {
	Name     string `json:"name"`
	Created  string `json:"created"`
	Modified string `json:"modified"`
	Size     int    `json:"size"`
}

// AttendanceEntry is one row of an attendance file.
type AttendanceEntry struct {
	Attendance string `json:"Attendance"`
}

// FeedbackEntry is one row of a feedback file.
type FeedbackEntry struct {
	Feedback string `json:"Feedback"`
	Name     string `json:"Name"`
}

// SurveyQuestion is one question of a complex survey and the button set
// offered as answers.
type SurveyQuestion struct {
	Text       string
	ButtonType string
}

// ComplexSurvey holds the parameters of a multi question survey.
type ComplexSurvey struct {
	Message   string
	Topic     string
	ChannelID string
	Questions []SurveyQuestion
	// Duration defaults to one minute when zero.
	Duration time.Duration
}

// SimpleSurvey holds the parameters of a single question survey.
type SimpleSurvey struct {
	Message    string
	Topic      string
	ChannelID  string
	ButtonType string
	// Duration defaults to one minute when zero.
	Duration time.Duration
}

// Attendance starts or stops attendance tracking for a group.
type Attendance struct {
	GroupID      string
	TargetUserID string
	Start        bool
	Code         string
}

// TutorFeedback starts a tutor session feedback round for a group.
type TutorFeedback struct {
	GroupID   string
	ChannelID string
	Duration  time.Duration
}
