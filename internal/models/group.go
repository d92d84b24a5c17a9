package models

import (
	"strings"
	"time"
)

// Group is a tutorial group owned by a bot. Attendance is tracked per group.
type Group struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BotID    uint   `gorm:"index;not null" json:"bot_id"`
	Position int    `gorm:"not null;default:0" json:"position"`
	Name     string `gorm:"not null" json:"name"`
	IsValid  bool   `gorm:"default:false" json:"is_valid"`

	AttendanceActive bool `gorm:"default:false" json:"attendance_active"`
	// AttendanceCode is only set while AttendanceActive is true.
	AttendanceCode *string `json:"attendance_code,omitempty"`
}

func (Group) TableName() string {
	return "bot_groups"
}

// StartAttendance marks attendance as running with the given code.
func (g *Group) StartAttendance(code string) {
	g.AttendanceActive = true
	g.AttendanceCode = &code
}

// StopAttendance marks attendance as stopped and forgets the code.
func (g *Group) StopAttendance() {
	g.AttendanceActive = false
	g.AttendanceCode = nil
}

// Code returns the attendance code or an empty string.
func (g *Group) Code() string {
	if g.AttendanceCode == nil {
		return ""
	}
	return *g.AttendanceCode
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
