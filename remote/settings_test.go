package remote

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// settingsServer keeps a group list the way the bot server does, so that a
// write followed by a read can be compared.
func settingsServer(t *testing.T) *fakeServer {
	var (
		mu     sync.Mutex
		groups = []string{"G1", "G2"}
	)
	return newFakeServer(t, func(r *gin.Engine) {
		ok := raw(http.StatusOK, `{"status":"success","message":"updated"}`)
		r.POST("/api/settings/bot/development_mode", ok)
		r.POST("/api/settings/bot/token", ok)
		r.POST("/api/settings/bot/dev_token", ok)
		r.POST("/api/settings/groups", func(c *gin.Context) {
			var body struct {
				Groups []string `json:"groups"`
			}
			if err := c.ShouldBindJSON(&body); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid JSON"})
				return
			}
			mu.Lock()
			groups = body.Groups
			mu.Unlock()
			c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Groups updated", "data": gin.H{"groups": body.Groups}})
		})
		r.POST("/api/settings/groups/clear", func(c *gin.Context) {
			mu.Lock()
			groups = []string{}
			mu.Unlock()
			c.JSON(http.StatusOK, gin.H{"status": "success", "message": "All groups cleared"})
		})
		r.GET("/api/settings", func(c *gin.Context) {
			mu.Lock()
			defer mu.Unlock()
			c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{
				"bot":    gin.H{"development_mode": true, "token": "prod", "dev_token": "dev"},
				"groups": groups,
				"access_roles": []gin.H{
					{"id": "r1", "name": "Admin", "color": "#fff", "mentionable": false, "permissions": "8", "position": 5},
				},
			}})
		})
	})
}

func TestUpdateBotTokenEmptyIsNoop(t *testing.T) {
	srv := settingsServer(t)
	c := srv.client()

	for _, dev := range []bool{false, true} {
		msg, err := c.UpdateBotToken(context.Background(), dev, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg != NoTokenMessage {
			t.Fatalf("expected %q, got %q", NoTokenMessage, msg)
		}
	}
	if n := srv.totalHits(); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}
}

func TestUpdateBotTokenEmptyWithoutCredentials(t *testing.T) {
	if _, err := New("").UpdateBotToken(context.Background(), true, ""); err != nil {
		t.Fatalf("expected success without any request, got %v", err)
	}
}

func TestUpdateBotTokenEndpoints(t *testing.T) {
	srv := settingsServer(t)
	c := srv.client()

	if _, err := c.UpdateBotToken(context.Background(), false, "prod-token"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q := srv.query("POST /api/settings/bot/token"); q.Get("token") != "prod-token" {
		t.Fatalf("unexpected query %v", q)
	}

	if _, err := c.UpdateBotToken(context.Background(), true, "dev-token"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q := srv.query("POST /api/settings/bot/dev_token"); q.Get("dev_token") != "dev-token" || q.Has("token") {
		t.Fatalf("unexpected query %v", q)
	}
	if srv.hitCount("POST /api/settings/bot/token") != 1 {
		t.Fatal("expected the production endpoint to be used once")
	}
}

func TestUpdateDevelopmentMode(t *testing.T) {
	srv := settingsServer(t)

	if _, err := srv.client().UpdateDevelopmentMode(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q := srv.query("POST /api/settings/bot/development_mode"); q.Get("development_mode") != "true" {
		t.Fatalf("unexpected query %v", q)
	}
}

func TestUpdateGroupsSendsJSONBody(t *testing.T) {
	srv := settingsServer(t)

	msg, err := srv.client().UpdateGroups(context.Background(), []string{"G3", "G1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != "Groups updated" {
		t.Fatalf("unexpected message %q", msg)
	}
	if ct := srv.header("POST /api/settings/groups").Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected a JSON content type, got %q", ct)
	}
	var body map[string][]string
	if err := json.Unmarshal(srv.body("POST /api/settings/groups"), &body); err != nil {
		t.Fatalf("unexpected body: %v", err)
	}
	if len(body["groups"]) != 2 || body["groups"][0] != "G3" || body["groups"][1] != "G1" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestGroupsRoundTrip(t *testing.T) {
	srv := settingsServer(t)
	c := srv.client()

	names := []string{"Tue-14", "Mon-10", "Wed-08"}
	if _, err := c.UpdateGroups(context.Background(), names); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, err := c.FetchSettings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Groups) != len(names) {
		t.Fatalf("expected %v, got %v", names, s.Groups)
	}
	for i := range names {
		if s.Groups[i] != names[i] {
			t.Fatalf("expected %v, got %v", names, s.Groups)
		}
	}

	if _, err := c.ClearGroups(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, err = c.FetchSettings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Groups) != 0 {
		t.Fatalf("expected no groups after clearing, got %v", s.Groups)
	}
}

func TestFetchSettings(t *testing.T) {
	srv := settingsServer(t)

	s, err := srv.client().FetchSettings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.DevelopmentMode || s.Token != "prod" || s.DevToken != "dev" {
		t.Fatalf("unexpected bot settings %+v", s)
	}
	if len(s.AccessRoles) != 1 || s.AccessRoles[0].Name != "Admin" || s.AccessRoles[0].Position != 5 {
		t.Fatalf("unexpected access roles %+v", s.AccessRoles)
	}
}

func TestFetchSettingsWithoutBotSection(t *testing.T) {
	srv := newFakeServer(t, func(r *gin.Engine) {
		r.GET("/api/settings", raw(http.StatusOK, `{"status":"success","data":{"groups":[]}}`))
	})

	_, err := srv.client().FetchSettings(context.Background())
	expectKind(t, err, KindProtocol)
}
