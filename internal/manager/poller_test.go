package manager

import (
	"context"
	"testing"
	"time"

	"github.com/priyxstudio/botdeck/remote"
)

func TestApplyStatusDropsStaleResults(t *testing.T) {
	m, _, st := newTestManager(t)
	ctx := context.Background()
	withBot(t, m)

	var applied []uint64
	m.SubscribeStatus(func(s Status) {
		applied = append(applied, s.Seq)
	})

	if err := m.applyStatus(ctx, Status{Seq: 2, ServerOnline: true, BotActive: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.applyStatus(ctx, Status{Seq: 1, ServerOnline: true, BotActive: false}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s := m.LastStatus(); s.Seq != 2 {
		t.Fatalf("expected status 2 to win, got %d", s.Seq)
	}
	if len(applied) != 1 || applied[0] != 2 {
		t.Fatalf("expected only status 2 to be published, got %v", applied)
	}
	if b, _ := st.First(ctx); !b.IsActive {
		t.Fatal("expected the stale result not to overwrite the bot state")
	}
}

func TestApplyStatusIgnoresFailedPolls(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()
	withBot(t, m)
	if _, err := m.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := m.applyStatus(ctx, Status{Seq: 1, ServerOnline: false}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Snapshot().IsActive {
		t.Fatal("expected an offline server to leave the bot state alone")
	}
}

func TestStoppedBotDetectedDespiteMemberCountFailure(t *testing.T) {
	m, fc, st := newTestManager(t)
	ctx := context.Background()
	withBot(t, m)
	if _, err := m.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.Attendance(ctx, AttendanceRequest{Group: "G2", Start: true, Code: "XYZ"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fc.active = false
	fc.countErr = &remote.Error{Kind: remote.KindApplication, Message: "Bot is not running"}
	s, err := m.Refresh(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Err != nil || s.MemberCountErr == nil || s.MemberCount.Total != 0 {
		t.Fatalf("expected only the member count to fail, got %+v", s)
	}
	if m.Snapshot().IsActive {
		t.Fatal("expected the poll to record the stopped bot")
	}
	b, _ := st.First(ctx)
	if b.IsActive {
		t.Fatal("expected the stopped state to be stored")
	}
	if g := b.Group("G2"); g.AttendanceActive {
		t.Fatal("expected attendance to be cleared when the bot was seen stopping")
	}
}

func TestCheck(t *testing.T) {
	fc := &fakeClient{online: true, active: true, count: remote.MemberCount{Online: 3, Offline: 4, Total: 7}}
	s := check(context.Background(), fc)
	if !s.ServerOnline || !s.BotActive || s.MemberCount.Total != 7 || s.Err != nil {
		t.Fatalf("unexpected status %+v", s)
	}

	offline := &fakeClient{}
	s = check(context.Background(), offline)
	if s.ServerOnline || len(offline.Calls()) != 1 {
		t.Fatalf("expected only the liveness check, got %+v with %v", s, offline.Calls())
	}

	failing := &fakeClient{online: true, statusErr: appError("boom")}
	if s = check(context.Background(), failing); s.Err == nil {
		t.Fatal("expected the bot status failure to be reported")
	}
}

func TestPoller(t *testing.T) {
	m, fc, _ := newTestManager(t)
	withBot(t, m)
	fc.active = true

	p, err := m.NewPoller(20*time.Millisecond, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.Start()

	deadline := time.Now().Add(5 * time.Second)
	for m.LastStatus().Seq < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.LastStatus().Seq < 2 {
		t.Fatalf("expected at least two polls, got %+v", m.LastStatus())
	}
	if !m.Snapshot().IsActive {
		t.Fatal("expected the poller to record the running bot")
	}

	s, err := m.Refresh(context.Background())
	if err != nil || s.Seq <= 2 || !s.ServerOnline {
		t.Fatalf("unexpected refresh result %+v, %v", s, err)
	}
}
