package cmd

import (
	"context"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/priyxstudio/botdeck/config"
	"github.com/priyxstudio/botdeck/internal/manager"
	"github.com/priyxstudio/botdeck/internal/models"
	"github.com/priyxstudio/botdeck/internal/tui"
)

func newDashboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Open a live view of the bot, refreshed in the background.",
		RunE:  dashboardCmdRun,
	}
}

func dashboardCmdRun(cmd *cobra.Command, _ []string) error {
	// Terminal log lines would tear the alternate screen; only the log file,
	// if any, keeps receiving them.
	if logFile == nil {
		log.SetHandler(discard.Default)
	} else {
		log.SetHandler(jsonFileHandler())
	}

	return withManager(cmd.Context(), func(ctx context.Context, m *manager.Manager) error {
		cfg := config.Get().Poll
		poller, err := m.NewPoller(cfg.Every(), cfg.Workers)
		if err != nil {
			return err
		}

		model := tui.New(m.Snapshot(), func(start bool) (bool, error) {
			if start {
				return m.Start(ctx)
			}
			return m.Stop(ctx)
		}, poller.Trigger)
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

		m.Subscribe(func(b models.Bot) {
			p.Send(tui.SnapshotMsg{Bot: b})
		})
		m.SubscribeStatus(func(s manager.Status) {
			p.Send(tui.StatusMsg{Status: s})
		})

		poller.Start()
		_, err = p.Run()
		if serr := poller.Stop(); serr != nil {
			log.WithError(serr).Warn("failed to stop status poller")
		}
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})
}
