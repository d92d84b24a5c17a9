package remote

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCheckServerStatus(t *testing.T) {
	srv := newFakeServer(t, func(r *gin.Engine) {
		r.GET("/", func(c *gin.Context) {
			c.String(http.StatusOK, "Server is running!")
		})
	})

	online, err := srv.client().CheckServerStatus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !online {
		t.Fatal("expected the server to be online")
	}

	down := newFakeServer(t, func(r *gin.Engine) {
		r.GET("/", raw(http.StatusBadGateway, ""))
	})
	online, err = down.client().CheckServerStatus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if online {
		t.Fatal("expected a non-200 answer to mean offline")
	}
}

func TestStartStopBot(t *testing.T) {
	srv := newFakeServer(t, func(r *gin.Engine) {
		r.POST("/api/start-bot", raw(http.StatusOK, `{"status":"success","message":"Bot started successfully"}`))
		r.POST("/api/stop-bot", raw(http.StatusOK, `{"status":"success","message":"Bot stopped successfully"}`))
	})
	c := srv.client()

	active, err := c.StartBot(context.Background())
	if err != nil || !active {
		t.Fatalf("expected an active bot, got %v, %v", active, err)
	}
	active, err = c.StopBot(context.Background())
	if err != nil || active {
		t.Fatalf("expected a stopped bot, got %v, %v", active, err)
	}
}

func TestStartBotAlreadyRunning(t *testing.T) {
	srv := newFakeServer(t, func(r *gin.Engine) {
		r.POST("/api/start-bot", raw(http.StatusBadRequest, `{"status":"error","message":"Bot is already running"}`))
	})

	active, err := srv.client().StartBot(context.Background())
	if active {
		t.Fatal("expected no active state alongside a failure")
	}
	e := expectKind(t, err, KindApplication)
	if e.Message != "Bot is already running" {
		t.Fatalf("unexpected message %q", e.Message)
	}
}

func TestCheckBotStatus(t *testing.T) {
	running := newFakeServer(t, func(r *gin.Engine) {
		r.GET("/api/bot-status", raw(http.StatusOK, `{"status":"success","message":"Bot is running"}`))
	})
	stopped := newFakeServer(t, func(r *gin.Engine) {
		r.GET("/api/bot-status", raw(http.StatusServiceUnavailable, `{"status":"Service Unavailable","message":"Bot is not running"}`))
	})
	broken := newFakeServer(t, func(r *gin.Engine) {
		r.GET("/api/bot-status", raw(http.StatusInternalServerError, `oops`))
	})

	if active, err := running.client().CheckBotStatus(context.Background()); err != nil || !active {
		t.Fatalf("expected running, got %v, %v", active, err)
	}
	if active, err := stopped.client().CheckBotStatus(context.Background()); err != nil || active {
		t.Fatalf("expected stopped without error, got %v, %v", active, err)
	}
	if _, err := broken.client().CheckBotStatus(context.Background()); !IsKind(err, KindProtocol) {
		t.Fatalf("expected a protocol error, got %v", err)
	}
}

func TestWrongAPIKey(t *testing.T) {
	srv := newFakeServer(t, func(r *gin.Engine) {
		r.POST("/api/start-bot", raw(http.StatusOK, `{"status":"success"}`))
	})

	_, err := New(srv.URL, WithAPIKey("wrong")).StartBot(context.Background())
	e := expectKind(t, err, KindApplication)
	if e.Message != "Invalid API key" || e.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected error %+v", e)
	}
}
