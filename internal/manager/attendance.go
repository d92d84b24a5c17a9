package manager

import (
	"context"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/apex/log"

	"github.com/priyxstudio/botdeck/internal/models"
	"github.com/priyxstudio/botdeck/remote"
)

const (
	ErrGroupNotFound     = errors.Sentinel("group not found")
	ErrGroupInvalid      = errors.Sentinel("group is not marked as valid")
	ErrCodeRequired      = errors.Sentinel("attendance code is required")
	ErrAttendanceActive  = errors.Sentinel("attendance is already active for this group")
	ErrAttendanceStopped = errors.Sentinel("attendance is already inactive for this group")
)

// AttendanceRequest starts or stops attendance for one group.
type AttendanceRequest struct {
	Group        string
	TargetUserID string
	Code         string
	Start        bool
}

func (r AttendanceRequest) check(g *models.Group) error {
	if err := usable(g); err != nil {
		return err
	}
	if r.Start {
		if strings.TrimSpace(r.Code) == "" {
			return ErrCodeRequired
		}
		if g.AttendanceActive {
			return ErrAttendanceActive
		}
		return nil
	}
	if !g.AttendanceActive {
		return ErrAttendanceStopped
	}
	return nil
}

// usable reports whether commands may target g.
func usable(g *models.Group) error {
	if g == nil {
		return ErrGroupNotFound
	}
	if !g.IsValid {
		return ErrGroupInvalid
	}
	return nil
}

// Attendance validates the request against the stored group state, sends it to
// the server and records the new state of the group.
func (m *Manager) Attendance(ctx context.Context, r AttendanceRequest) (string, error) {
	b, err := m.Current(ctx)
	if err != nil {
		return "", err
	}
	g := b.Group(r.Group)
	if err := r.check(g); err != nil {
		return "", err
	}

	code := strings.TrimSpace(r.Code)
	if !r.Start {
		code = g.Code()
	}
	msg, err := m.newClient(b.Config()).ManageAttendance(ctx, remote.Attendance{
		GroupID:      g.Name,
		TargetUserID: r.TargetUserID,
		Start:        r.Start,
		Code:         code,
	})
	if err != nil {
		return "", err
	}

	err = m.mutate(ctx, b.ID, func(bot *models.Bot) error {
		grp := bot.Group(r.Group)
		if grp == nil {
			return ErrGroupNotFound
		}
		prev := *grp
		if r.Start {
			grp.StartAttendance(code)
		} else {
			grp.StopAttendance()
		}
		if err := m.store.SaveGroup(ctx, grp); err != nil {
			*grp = prev
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	log.WithFields(log.Fields{"group": g.Name, "start": r.Start}).Info("updated attendance")
	return msg, nil
}

// TutorFeedback starts a feedback round for a valid group.
func (m *Manager) TutorFeedback(ctx context.Context, group, channelID string, d time.Duration) (string, error) {
	b, err := m.Current(ctx)
	if err != nil {
		return "", err
	}
	g := b.Group(group)
	if err := usable(g); err != nil {
		return "", err
	}
	return m.newClient(b.Config()).StartTutorFeedback(ctx, remote.TutorFeedback{
		GroupID:   g.Name,
		ChannelID: channelID,
		Duration:  d,
	})
}
