package cmd

import (
	"context"
	"fmt"
	"strings"

	"emperror.dev/errors"
	"github.com/charmbracelet/huh"
	"github.com/mitchellh/colorstring"
	"github.com/spf13/cobra"

	"github.com/priyxstudio/botdeck/internal/manager"
	"github.com/priyxstudio/botdeck/internal/models"
)

var botArgs struct {
	Name    string
	Server  string
	APIKey  string
	Confirm bool
}

func newBotCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "bot",
		Short: "Create, inspect and control the bot.",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create the bot and store its server credentials.",
		RunE:  botCreateCmdRun,
	}
	create.Flags().StringVar(&botArgs.Name, "name", "", "the display name of the bot")
	create.Flags().StringVar(&botArgs.Server, "server", "", "the base URL of the bot server, e.g. http://127.0.0.1:5000")
	create.Flags().StringVar(&botArgs.APIKey, "api-key", "", "the api key of the bot server, supports ${ENV} and file:// values")

	server := &cobra.Command{
		Use:   "server",
		Short: "Change the server address or api key of the bot.",
		RunE:  botServerCmdRun,
	}
	server.Flags().StringVar(&botArgs.Server, "server", "", "the base URL of the bot server")
	server.Flags().StringVar(&botArgs.APIKey, "api-key", "", "the api key of the bot server")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the stored bot.",
		RunE:  botShowCmdRun,
	}
	addJSONFlag(show)

	del := &cobra.Command{
		Use:   "delete",
		Short: "Delete the bot, stopping it on the server first if it is running.",
		RunE:  botDeleteCmdRun,
	}
	del.Flags().BoolVarP(&botArgs.Confirm, "yes", "y", false, "do not ask for confirmation")

	command.AddCommand(
		create,
		server,
		show,
		del,
		&cobra.Command{
			Use:   "start",
			Short: "Start the bot on the server.",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return toggleBot(cmd, true)
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop the bot on the server.",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return toggleBot(cmd, false)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Check the server, the bot and the member counts.",
			RunE:  botStatusCmdRun,
		},
	)
	return command
}

func botCreateCmdRun(cmd *cobra.Command, _ []string) error {
	if botArgs.Name == "" || botArgs.Server == "" || botArgs.APIKey == "" {
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Bot name").Value(&botArgs.Name).Validate(required("a name")),
			huh.NewInput().Title("Server address").Placeholder("http://127.0.0.1:5000").Value(&botArgs.Server).Validate(required("a server address")),
			huh.NewInput().Title("API key").EchoMode(huh.EchoModePassword).Value(&botArgs.APIKey).Validate(required("an api key")),
		))
		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
	}

	cfg := models.BotConfig{ServerAddress: strings.TrimSpace(botArgs.Server), APIKey: strings.TrimSpace(botArgs.APIKey)}
	return withManager(cmd.Context(), func(ctx context.Context, m *manager.Manager) error {
		b, err := m.Create(ctx, botArgs.Name, cfg)
		if err != nil {
			return err
		}
		success("created bot %s with groups %s", b.Name, strings.Join(b.GroupNames(), ", "))
		return nil
	})
}

func botServerCmdRun(cmd *cobra.Command, _ []string) error {
	return withManager(cmd.Context(), func(ctx context.Context, m *manager.Manager) error {
		b, err := m.Current(ctx)
		if err != nil {
			return err
		}
		cfg := b.Config()
		if botArgs.Server != "" {
			cfg.ServerAddress = strings.TrimSpace(botArgs.Server)
		}
		if botArgs.APIKey != "" {
			cfg.APIKey = strings.TrimSpace(botArgs.APIKey)
		}
		if err := m.UpdateServer(ctx, cfg); err != nil {
			return err
		}
		success("bot now talks to %s", cfg.ServerAddress)
		return nil
	})
}

func botShowCmdRun(cmd *cobra.Command, _ []string) error {
	return withManager(cmd.Context(), func(ctx context.Context, m *manager.Manager) error {
		b, err := m.Current(ctx)
		if err != nil {
			return err
		}
		if outputJSON(cmd) {
			return printJSON(b)
		}
		printBot(b)
		return nil
	})
}

func printBot(b models.Bot) {
	colorstring.Printf("[bold]%s[reset]\n", b.Name)
	fmt.Printf("  server:     %s\n", b.ServerAddress)
	fmt.Printf("  state:      %s\n", state(b.IsActive, "running", "stopped"))
	fmt.Printf("  mode:       %s\n", state(b.DeveloperMode, "development", "production"))
	fmt.Printf("  token:      %s\n", mask(deref(b.Token)))
	fmt.Printf("  dev token:  %s\n", mask(deref(b.DevToken)))
	fmt.Println("  groups:")
	for _, g := range b.Groups {
		line := "    - " + g.Name
		if !g.IsValid {
			line += " (invalid)"
		}
		if g.AttendanceActive {
			line += colorstring.Color(" [yellow]attendance running[reset] code " + g.Code())
		}
		fmt.Println(line)
	}
}

func botDeleteCmdRun(cmd *cobra.Command, _ []string) error {
	if !botArgs.Confirm {
		err := huh.NewConfirm().
			Title("Delete the bot and all of its groups?").
			Description("A running bot is stopped on the server first.").
			Value(&botArgs.Confirm).
			Run()
		if err != nil && !errors.Is(err, huh.ErrUserAborted) {
			return err
		}
		if !botArgs.Confirm {
			return nil
		}
	}
	return withManager(cmd.Context(), func(ctx context.Context, m *manager.Manager) error {
		if err := m.Delete(ctx); err != nil {
			return err
		}
		success("deleted bot")
		return nil
	})
}

func toggleBot(cmd *cobra.Command, start bool) error {
	return withManager(cmd.Context(), func(ctx context.Context, m *manager.Manager) error {
		call := m.Stop
		if start {
			call = m.Start
		}
		active, err := call(ctx)
		if err != nil {
			return err
		}
		success("bot is %s", state(active, "running", "stopped"))
		return nil
	})
}

func botStatusCmdRun(cmd *cobra.Command, _ []string) error {
	return withManager(cmd.Context(), func(ctx context.Context, m *manager.Manager) error {
		s, err := m.Refresh(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("server:  %s\n", state(s.ServerOnline, "online", "offline"))
		if !s.ServerOnline {
			if s.Err != nil {
				return s.Err
			}
			return manager.ErrServerOffline
		}
		if s.Err != nil {
			return s.Err
		}
		fmt.Printf("bot:     %s\n", state(s.BotActive, "running", "stopped"))
		if s.MemberCountErr != nil {
			fmt.Printf("members: unavailable (%s)\n", s.MemberCountErr)
			return nil
		}
		fmt.Printf("members: %d online, %d offline, %d total\n", s.MemberCount.Online, s.MemberCount.Offline, s.MemberCount.Total)
		return nil
	})
}

func state(v bool, on, off string) string {
	if v {
		return colorstring.Color("[green]" + on + "[reset]")
	}
	return colorstring.Color("[red]" + off + "[reset]")
}

func mask(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 8:
		return strings.Repeat("*", len(s))
	default:
		return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
	}
}
