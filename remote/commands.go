package remote

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const defaultSurveyDuration = time.Minute

func seconds(d time.Duration, fallback time.Duration) string {
	if d <= 0 {
		d = fallback
	}
	return strconv.Itoa(int(d / time.Second))
}

// CreateComplexSurvey posts a survey with several questions. Questions are
// numbered from 1 in the order given.
func (c *client) CreateComplexSurvey(ctx context.Context, s ComplexSurvey) (string, error) {
	if len(s.Questions) == 0 {
		return "", newError(KindInvalidArgument, "a survey needs at least one question", nil)
	}
	params := q{
		"message":    s.Message,
		"main_topic": s.Topic,
		"channel_id": s.ChannelID,
		"duration":   seconds(s.Duration, defaultSurveyDuration),
	}
	for i, question := range s.Questions {
		params[fmt.Sprintf("question_%d", i+1)] = question.Text
		params[fmt.Sprintf("button_%d", i+1)] = question.ButtonType
	}
	return c.message(ctx, http.MethodPost, "/api/create-complex-survey", params)
}

func (c *client) CreateSimpleSurvey(ctx context.Context, s SimpleSurvey) (string, error) {
	return c.message(ctx, http.MethodPost, "/api/create-simple-survey", q{
		"message":     s.Message,
		"main_topic":  s.Topic,
		"channel_id":  s.ChannelID,
		"button_type": lower(s.ButtonType),
		"duration":    seconds(s.Duration, defaultSurveyDuration),
	})
}

// ManageAttendance starts or stops attendance tracking for a group. The
// target user is the member receiving the attendance list.
func (c *client) ManageAttendance(ctx context.Context, a Attendance) (string, error) {
	status := "stop"
	if a.Start {
		status = "start"
	}
	return c.message(ctx, http.MethodPost, "/api/attendance", q{
		"status":         status,
		"target_user_id": a.TargetUserID,
		"code":           a.Code,
		"group_id":       lower(a.GroupID),
	})
}

func (c *client) StartTutorFeedback(ctx context.Context, f TutorFeedback) (string, error) {
	if f.Duration < time.Second {
		return "", newError(KindInvalidArgument, "duration must be at least one second", nil)
	}
	return c.message(ctx, http.MethodPost, "/api/tutor-session-feedback", q{
		"group_id":   lower(f.GroupID),
		"channel_id": f.ChannelID,
		"duration":   seconds(f.Duration, 0),
	})
}
