package manager

import (
	"context"
	"reflect"
	"testing"

	"emperror.dev/errors"

	"github.com/priyxstudio/botdeck/remote"
)

func TestSaveManagementOrder(t *testing.T) {
	m, fc, st := newTestManager(t)
	ctx := context.Background()
	withBot(t, m)

	err := m.SaveManagement(ctx, Management{
		DeveloperMode: true,
		Token:         "prod",
		DevToken:      "dev",
		Groups:        []GroupSetting{{Name: "Tue-14", IsValid: true}, {Name: " "}, {Name: "Mon-10"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"server-status", "development-mode", "dev-token:dev", "groups"}
	if !reflect.DeepEqual(fc.Calls(), expected) {
		t.Fatalf("expected %v, got %v", expected, fc.Calls())
	}
	if !reflect.DeepEqual(fc.groups, []string{"Tue-14", "Mon-10"}) {
		t.Fatalf("expected blank group names to be dropped, got %v", fc.groups)
	}

	b, err := st.First(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.DeveloperMode || b.ActiveToken() != "dev" || *b.Token != "prod" {
		t.Fatalf("unexpected stored bot %+v", b)
	}
	if !reflect.DeepEqual(b.GroupNames(), []string{"Tue-14", "Mon-10"}) {
		t.Fatalf("expected groups to be replaced, got %v", b.GroupNames())
	}
	if !b.Groups[0].IsValid || b.Groups[1].IsValid {
		t.Fatalf("expected the validity of each group to be kept, got %+v", b.Groups)
	}
}

func TestSaveManagementAbortsOnFirstFailure(t *testing.T) {
	m, fc, st := newTestManager(t)
	ctx := context.Background()
	withBot(t, m)
	fc.tokenErr = appError("Invalid token")

	err := m.SaveManagement(ctx, Management{Token: "prod", Groups: ValidGroups("G9")})
	if err == nil || err.Error() != "failed to update bot token: Invalid token" {
		t.Fatalf("unexpected error %v", err)
	}
	if !remote.IsKind(err, remote.KindApplication) {
		t.Fatal("expected the remote error to stay reachable")
	}
	expected := []string{"server-status", "development-mode", "token:prod"}
	if !reflect.DeepEqual(fc.Calls(), expected) {
		t.Fatalf("expected %v, got %v", expected, fc.Calls())
	}
	b, _ := st.First(ctx)
	if b.Token != nil || !reflect.DeepEqual(b.GroupNames(), []string{"G1", "G2"}) {
		t.Fatalf("expected the bot to be left untouched, got %+v", b)
	}
}

func TestSaveManagementDevelopmentModeFailure(t *testing.T) {
	m, fc, _ := newTestManager(t)
	withBot(t, m)
	fc.devModeErr = appError("Invalid value")

	err := m.SaveManagement(context.Background(), Management{})
	if err == nil || err.Error() != "failed to update development mode: Invalid value" {
		t.Fatalf("unexpected error %v", err)
	}
	if len(fc.Calls()) != 2 {
		t.Fatalf("expected to stop after the first update, got %v", fc.Calls())
	}
}

func TestSaveManagementGroupsFailure(t *testing.T) {
	m, fc, _ := newTestManager(t)
	withBot(t, m)
	fc.groupsErr = appError("Invalid JSON")

	err := m.SaveManagement(context.Background(), Management{Groups: ValidGroups("G1")})
	if err == nil || err.Error() != "failed to update groups: Invalid JSON" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSaveManagementRefusedWhileRunning(t *testing.T) {
	m, fc, _ := newTestManager(t)
	ctx := context.Background()
	withBot(t, m)
	if _, err := m.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := m.SaveManagement(ctx, Management{Groups: ValidGroups("G1")})
	if !errors.Is(err, ErrBotRunning) {
		t.Fatalf("expected ErrBotRunning, got %v", err)
	}
	if err.Error() != "settings cannot be modified while the bot is running" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if calls := fc.Calls(); len(calls) != 1 {
		t.Fatalf("expected only the start request, got %v", calls)
	}
}

func TestSaveManagementOffline(t *testing.T) {
	m, fc, _ := newTestManager(t)
	withBot(t, m)
	fc.online = false

	if err := m.SaveManagement(context.Background(), Management{}); !errors.Is(err, ErrServerOffline) {
		t.Fatalf("expected ErrServerOffline, got %v", err)
	}
	if calls := fc.Calls(); len(calls) != 1 {
		t.Fatalf("expected only the liveness check, got %v", calls)
	}
}

func TestFetchSettingsMerges(t *testing.T) {
	m, fc, st := newTestManager(t)
	ctx := context.Background()
	withBot(t, m)
	fc.settings = remote.Settings{
		DevelopmentMode: true,
		Token:           "prod",
		DevToken:        "dev",
		Groups:          []string{"Wed-08", "Thu-12", "Fri-10"},
	}

	s, err := m.FetchSettings(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Token != "prod" {
		t.Fatalf("expected the server settings to be returned, got %+v", s)
	}
	b, _ := st.First(ctx)
	if !b.DeveloperMode || *b.Token != "prod" || *b.DevToken != "dev" {
		t.Fatalf("unexpected stored bot %+v", b)
	}
	if !reflect.DeepEqual(b.GroupNames(), fc.settings.Groups) {
		t.Fatalf("expected %v, got %v", fc.settings.Groups, b.GroupNames())
	}
	if snap := m.Snapshot(); !reflect.DeepEqual(snap.GroupNames(), fc.settings.Groups) {
		t.Fatalf("expected the snapshot to carry the new groups, got %v", snap.GroupNames())
	}
}

func TestFetchSettingsOffline(t *testing.T) {
	m, fc, _ := newTestManager(t)
	withBot(t, m)
	fc.online = false

	if _, err := m.FetchSettings(context.Background()); !errors.Is(err, ErrServerOffline) {
		t.Fatalf("expected ErrServerOffline, got %v", err)
	}
}

func TestManagementFrom(t *testing.T) {
	m, _, _ := newTestManager(t)
	b := withBot(t, m)

	mg := ManagementFrom(b)
	if mg.Token != "" || mg.DevToken != "" || !reflect.DeepEqual(mg.Groups, ValidGroups("G1", "G2")) {
		t.Fatalf("unexpected management values %+v", mg)
	}
	mg.DeveloperMode, mg.DevToken, mg.Token = true, "dev", "prod"
	if mg.ActiveToken() != "dev" {
		t.Fatalf("expected the dev token, got %q", mg.ActiveToken())
	}
}

func TestClearGroups(t *testing.T) {
	m, fc, st := newTestManager(t)
	ctx := context.Background()
	withBot(t, m)

	if _, err := m.ClearGroups(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(fc.Calls(), []string{"clear-groups"}) {
		t.Fatalf("unexpected requests %v", fc.Calls())
	}
	b, _ := st.First(ctx)
	if len(b.Groups) != 0 || len(m.Snapshot().Groups) != 0 {
		t.Fatalf("expected no groups left, got %v", b.GroupNames())
	}
}

func TestClearGroupsRefusedWhileRunning(t *testing.T) {
	m, fc, _ := newTestManager(t)
	ctx := context.Background()
	withBot(t, m)
	if _, err := m.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.ClearGroups(ctx); !errors.Is(err, ErrBotRunning) {
		t.Fatalf("expected ErrBotRunning, got %v", err)
	}
	if len(fc.Calls()) != 1 {
		t.Fatalf("expected only the start request, got %v", fc.Calls())
	}
}
