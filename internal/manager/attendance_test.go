package manager

import (
	"context"
	"testing"
	"time"

	"emperror.dev/errors"
)

func TestAttendanceGuards(t *testing.T) {
	m, fc, _ := newTestManager(t)
	ctx := context.Background()
	withBot(t, m)

	cases := []struct {
		name string
		req  AttendanceRequest
		err  error
	}{
		{"unknown group", AttendanceRequest{Group: "G9", Start: true, Code: "X"}, ErrGroupNotFound},
		{"missing code", AttendanceRequest{Group: "G1", Start: true, Code: "  "}, ErrCodeRequired},
		{"stop inactive", AttendanceRequest{Group: "G1"}, ErrAttendanceStopped},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Attendance(ctx, tc.req)
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
		})
	}
	if len(fc.Calls()) != 0 {
		t.Fatalf("expected no requests, got %v", fc.Calls())
	}
}

func TestAttendanceStartStop(t *testing.T) {
	m, fc, st := newTestManager(t)
	ctx := context.Background()
	withBot(t, m)

	if _, err := m.Attendance(ctx, AttendanceRequest{Group: "g2", TargetUserID: "42", Start: true, Code: "XYZ"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := st.First(ctx)
	if g := b.Group("G2"); !g.AttendanceActive || g.Code() != "XYZ" {
		t.Fatalf("expected active attendance with a code, got %+v", g)
	}

	if _, err := m.Attendance(ctx, AttendanceRequest{Group: "G2", Start: true, Code: "ABC"}); !errors.Is(err, ErrAttendanceActive) {
		t.Fatalf("expected ErrAttendanceActive, got %v", err)
	}

	if _, err := m.Attendance(ctx, AttendanceRequest{Group: "G2", TargetUserID: "42"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ = st.First(ctx)
	if g := b.Group("G2"); g.AttendanceActive || g.AttendanceCode != nil {
		t.Fatalf("expected stopped attendance without a code, got %+v", g)
	}

	if len(fc.attendance) != 2 {
		t.Fatalf("expected two attendance requests, got %d", len(fc.attendance))
	}
	start, stop := fc.attendance[0], fc.attendance[1]
	if !start.Start || start.GroupID != "G2" || start.Code != "XYZ" || start.TargetUserID != "42" {
		t.Fatalf("unexpected start request %+v", start)
	}
	if stop.Start || stop.Code != "XYZ" {
		t.Fatalf("expected the stop to carry the stored code, got %+v", stop)
	}
}

func markInvalid(t *testing.T, m *Manager, name string) {
	t.Helper()
	mg := ManagementFrom(m.Snapshot())
	for i := range mg.Groups {
		if mg.Groups[i].Name == name {
			mg.Groups[i].IsValid = false
		}
	}
	if err := m.SaveManagement(context.Background(), mg); err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}
}

func TestInvalidGroupsAreRejected(t *testing.T) {
	m, fc, _ := newTestManager(t)
	ctx := context.Background()
	withBot(t, m)
	markInvalid(t, m, "G2")
	before := len(fc.Calls())

	if _, err := m.Attendance(ctx, AttendanceRequest{Group: "G2", Start: true, Code: "ABC"}); !errors.Is(err, ErrGroupInvalid) {
		t.Fatalf("expected ErrGroupInvalid, got %v", err)
	}
	if _, err := m.TutorFeedback(ctx, "G2", "123", time.Minute); !errors.Is(err, ErrGroupInvalid) {
		t.Fatalf("expected ErrGroupInvalid, got %v", err)
	}
	if _, err := m.TutorFeedback(ctx, "G9", "123", time.Minute); !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}
	if calls := fc.Calls(); len(calls) != before {
		t.Fatalf("expected no requests, got %v", calls[before:])
	}
}

func TestTutorFeedback(t *testing.T) {
	m, fc, _ := newTestManager(t)
	withBot(t, m)

	if _, err := m.TutorFeedback(context.Background(), "g1", "123", 2*time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fc.feedback) != 1 {
		t.Fatalf("expected one feedback request, got %d", len(fc.feedback))
	}
	if f := fc.feedback[0]; f.GroupID != "G1" || f.ChannelID != "123" || f.Duration != 2*time.Minute {
		t.Fatalf("unexpected request %+v", f)
	}
}
