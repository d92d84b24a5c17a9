package cmd

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"emperror.dev/errors"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/priyxstudio/botdeck/internal/manager"
	"github.com/priyxstudio/botdeck/remote"
)

var settingsArgs struct {
	Confirm bool
}

func newSettingsCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "settings",
		Short: "Manage the development mode, tokens and groups of the bot.",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the settings stored locally.",
		RunE:  settingsShowCmdRun,
	}
	addJSONFlag(show)

	fetch := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the settings from the server and store them locally.",
		RunE:  settingsFetchCmdRun,
	}
	addJSONFlag(fetch)

	clearGroups := &cobra.Command{
		Use:   "clear-groups",
		Short: "Remove every group on the server.",
		RunE:  settingsClearGroupsCmdRun,
	}
	clearGroups.Flags().BoolVarP(&settingsArgs.Confirm, "yes", "y", false, "do not ask for confirmation")

	command.AddCommand(
		show,
		fetch,
		&cobra.Command{
			Use:   "save",
			Short: "Edit the settings and send them to the server.",
			RunE:  settingsSaveCmdRun,
		},
		clearGroups,
	)
	return command
}

func settingsShowCmdRun(cmd *cobra.Command, _ []string) error {
	return withManager(cmd.Context(), func(ctx context.Context, m *manager.Manager) error {
		b, err := m.Current(ctx)
		if err != nil {
			return err
		}
		mg := manager.ManagementFrom(b)
		if outputJSON(cmd) {
			mg.Token, mg.DevToken = mask(mg.Token), mask(mg.DevToken)
			return printJSON(mg)
		}
		fmt.Printf("development mode: %s\n", state(mg.DeveloperMode, "on", "off"))
		fmt.Printf("token:            %s\n", mask(mg.Token))
		fmt.Printf("dev token:        %s\n", mask(mg.DevToken))
		fmt.Printf("groups:           %s\n", groupList(mg.Groups))
		return nil
	})
}

func settingsFetchCmdRun(cmd *cobra.Command, _ []string) error {
	return withManager(cmd.Context(), func(ctx context.Context, m *manager.Manager) error {
		s, err := m.FetchSettings(ctx)
		if err != nil {
			return err
		}
		if outputJSON(cmd) {
			return printJSON(maskedSettings(s))
		}
		success("stored %d groups from the server", len(s.Groups))
		rows := make([][]string, len(s.AccessRoles))
		for i, r := range s.AccessRoles {
			rows[i] = []string{r.ID, r.Name, r.Color, strconv.Itoa(r.Position), r.Permissions}
		}
		fmt.Println("access roles:")
		return printTable(cmd, s.AccessRoles, []string{"ID", "Name", "Color", "Position", "Permissions"}, rows)
	})
}

func settingsSaveCmdRun(cmd *cobra.Command, _ []string) error {
	return withManager(cmd.Context(), func(ctx context.Context, m *manager.Manager) error {
		b, err := m.Current(ctx)
		if err != nil {
			return err
		}
		if b.IsActive {
			return manager.ErrBotRunning
		}

		mg := manager.ManagementFrom(b)
		names := make([]string, len(mg.Groups))
		for i, g := range mg.Groups {
			names[i] = g.Name
		}
		groups := strings.Join(names, ", ")
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Development mode").
				Description("The bot logs in with the dev token while this is on.").
				Value(&mg.DeveloperMode),
			huh.NewInput().
				Title("Token").
				Description("Leave unchanged to keep the current token.").
				EchoMode(huh.EchoModePassword).
				Value(&mg.Token),
			huh.NewInput().
				Title("Dev token").
				EchoMode(huh.EchoModePassword).
				Value(&mg.DevToken),
			huh.NewText().
				Title("Groups").
				Description("Comma or newline separated, in display order.").
				Value(&groups),
		))
		if err := form.RunWithContext(ctx); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}

		names = splitGroups(groups)
		valid := validNames(mg.Groups, names)
		if len(names) > 0 {
			options := make([]huh.Option[string], len(names))
			for i, n := range names {
				options[i] = huh.NewOption(n, n).Selected(slices.Contains(valid, n))
			}
			err := huh.NewForm(huh.NewGroup(
				huh.NewMultiSelect[string]().
					Title("Valid groups").
					Description("Only valid groups can run attendance and tutor feedback.").
					Options(options...).
					Value(&valid),
			)).RunWithContext(ctx)
			if err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return err
			}
		}
		mg.Groups = groupSettings(names, valid)

		if err := m.SaveManagement(ctx, mg); err != nil {
			return err
		}
		success("saved settings with groups %s", groupList(mg.Groups))
		return nil
	})
}

func settingsClearGroupsCmdRun(cmd *cobra.Command, _ []string) error {
	if !settingsArgs.Confirm {
		err := huh.NewConfirm().Title("Remove every group on the server?").Value(&settingsArgs.Confirm).Run()
		if err != nil && !errors.Is(err, huh.ErrUserAborted) {
			return err
		}
		if !settingsArgs.Confirm {
			return nil
		}
	}
	return withManager(cmd.Context(), func(ctx context.Context, m *manager.Manager) error {
		return printMessage(m.ClearGroups(ctx))
	})
}

func splitGroups(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// validNames returns the names that keep their validity from existing. Names
// that are new are valid.
func validNames(existing []manager.GroupSetting, names []string) []string {
	known := make(map[string]bool, len(existing))
	for _, g := range existing {
		known[g.Name] = g.IsValid
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if v, ok := known[n]; !ok || v {
			out = append(out, n)
		}
	}
	return out
}

func groupSettings(names, valid []string) []manager.GroupSetting {
	out := make([]manager.GroupSetting, len(names))
	for i, n := range names {
		out[i] = manager.GroupSetting{Name: n, IsValid: slices.Contains(valid, n)}
	}
	return out
}

func groupList(groups []manager.GroupSetting) string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Name
		if !g.IsValid {
			out[i] += " (invalid)"
		}
	}
	return strings.Join(out, ", ")
}

// maskedSettings hides the tokens of s for printing.
func maskedSettings(s remote.Settings) remote.Settings {
	s.Token, s.DevToken = mask(s.Token), mask(s.DevToken)
	return s
}
