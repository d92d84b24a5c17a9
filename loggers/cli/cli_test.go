package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/apex/log"
)

func TestHandleLog(t *testing.T) {
	var buf bytes.Buffer
	l := &log.Logger{Handler: New(&buf, true), Level: log.DebugLevel}

	l.WithField("bot", "Master Mind").Warn("failed to stop bot")

	out := buf.String()
	if !strings.Contains(out, "WARN: failed to stop bot") {
		t.Fatalf("expected the level and message, got %q", out)
	}
	if !strings.Contains(out, "bot=Master Mind") {
		t.Fatalf("expected the field, got %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no escape codes for a non-file writer, got %q", out)
	}
}
