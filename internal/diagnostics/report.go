package diagnostics

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/priyxstudio/botdeck/config"
	"github.com/priyxstudio/botdeck/internal/manager"
	"github.com/priyxstudio/botdeck/internal/models"
	"github.com/priyxstudio/botdeck/system"
)

const redacted = "{redacted}"

// Options selects what goes into a report.
type Options struct {
	IncludeEndpoints bool
	IncludeLogs      bool
	LogLines         int
}

// Input is everything a report is built from. Bot is nil when none exists
// and Status is the zero value when no check could be made.
type Input struct {
	Config *config.Configuration
	Bot    *models.Bot
	Status manager.Status
}

// GenerateReport renders a plain text report. Tokens and api keys are never
// included; server addresses only when IncludeEndpoints is set.
func GenerateReport(in Input, opts Options) string {
	var out strings.Builder

	section(&out, "Versions")
	fmt.Fprintf(&out, "botdeck:  %s\n", system.Version)
	fmt.Fprintf(&out, "go:       %s\n", runtime.Version())
	fmt.Fprintf(&out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	if c := in.Config; c != nil {
		section(&out, "Configuration")
		fmt.Fprintf(&out, "config file:      %s\n", c.Path())
		fmt.Fprintf(&out, "database:         %s\n", c.Database)
		fmt.Fprintf(&out, "debug:            %t\n", c.Debug)
		fmt.Fprintf(&out, "log level:        %s\n", c.Log.Level)
		fmt.Fprintf(&out, "request timeout:  %s\n", c.Remote.RequestTimeout())
		fmt.Fprintf(&out, "custom headers:   %d\n", len(c.Remote.CustomHeaders))
		fmt.Fprintf(&out, "poll interval:    %s\n", c.Poll.Every())
		fmt.Fprintf(&out, "poll workers:     %d\n", c.Poll.Workers)
	}

	section(&out, "Bot")
	if b := in.Bot; b == nil {
		out.WriteString("no bot has been created\n")
	} else {
		server := redacted
		if opts.IncludeEndpoints {
			server = b.ServerAddress
		}
		fmt.Fprintf(&out, "name:             %s\n", b.Name)
		fmt.Fprintf(&out, "server:           %s\n", server)
		fmt.Fprintf(&out, "active:           %t\n", b.IsActive)
		fmt.Fprintf(&out, "development mode: %t\n", b.DeveloperMode)
		fmt.Fprintf(&out, "token set:        %t\n", b.Token != nil)
		fmt.Fprintf(&out, "dev token set:    %t\n", b.DevToken != nil)
		for _, g := range b.Groups {
			fmt.Fprintf(&out, "group:            %s (valid %t, attendance %t)\n", g.Name, g.IsValid, g.AttendanceActive)
		}
	}

	section(&out, "Server")
	if s := in.Status; s.CheckedAt.IsZero() {
		out.WriteString("not checked\n")
	} else {
		fmt.Fprintf(&out, "checked at:   %s\n", s.CheckedAt.Format(time.RFC3339))
		fmt.Fprintf(&out, "online:       %t\n", s.ServerOnline)
		fmt.Fprintf(&out, "bot running:  %t\n", s.BotActive)
		fmt.Fprintf(&out, "members:      %d\n", s.MemberCount.Total)
		if s.Err != nil {
			fmt.Fprintf(&out, "error:        %s\n", s.Err)
		}
		if s.MemberCountErr != nil {
			fmt.Fprintf(&out, "member count: %s\n", s.MemberCountErr)
		}
	}

	if opts.IncludeLogs && in.Config != nil {
		section(&out, "Logs")
		if in.Config.Log.File == "" {
			out.WriteString("no log file configured\n")
		} else if lines, err := tail(in.Config.Log.File, opts.LogLines); err != nil {
			fmt.Fprintf(&out, "failed to read %s: %s\n", in.Config.Log.File, err)
		} else {
			for _, l := range lines {
				out.WriteString(l)
				out.WriteString("\n")
			}
		}
	}

	return out.String()
}

func section(b *strings.Builder, title string) {
	fmt.Fprintf(b, "\n|\n| %s\n| ------------------------------\n", title)
}

// tail returns the last n lines of the file at path.
func tail(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if n <= 0 {
		return nil, nil
	}
	lines := make([]string, 0, n)
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	for s.Scan() {
		if len(lines) == n {
			lines = lines[1:]
		}
		lines = append(lines, s.Text())
	}
	return lines, s.Err()
}
