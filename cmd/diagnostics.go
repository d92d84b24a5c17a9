package cmd

import (
	"context"
	"fmt"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/priyxstudio/botdeck/config"
	"github.com/priyxstudio/botdeck/internal/diagnostics"
	"github.com/priyxstudio/botdeck/internal/manager"
)

const (
	DefaultLogLines = 200
)

var diagnosticsArgs struct {
	IncludeEndpoints   bool
	IncludeLogs        bool
	ReviewBeforeUpload bool
	MclogsURL          string
	LogLines           int
}

func newDiagnosticsCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "diagnostics",
		Short: "Collect and report information about this installation to assist in debugging.",
		RunE:  diagnosticsCmdRun,
	}

	command.Flags().StringVar(&diagnosticsArgs.MclogsURL, "mclogs-api-url", diagnostics.DefaultMclogsAPIURL, "the mclo.gs API endpoint to use for uploads")
	command.Flags().IntVar(&diagnosticsArgs.LogLines, "log-lines", DefaultLogLines, "the number of log lines to include in the report")

	return command
}

// diagnosticsCmdRun collects diagnostics about botdeck and the bot server.
// We collect:
// - botdeck and go versions
// - relevant parts of the configuration
// - the stored bot, without any secrets
// - the result of a status check
// - logs
func diagnosticsCmdRun(cmd *cobra.Command, _ []string) error {
	// To set default to true
	defaultTrueConfirmAccessor := func() huh.Accessor[bool] {
		accessor := huh.EmbeddedAccessor[bool]{}
		accessor.Set(true)
		return &accessor
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Do you want to include endpoints (i.e. the address of your bot server)?").
				Value(&diagnosticsArgs.IncludeEndpoints),
			huh.NewConfirm().
				Title("Do you want to include the latest logs?").
				Accessor(defaultTrueConfirmAccessor()).
				Value(&diagnosticsArgs.IncludeLogs),
			huh.NewConfirm().
				Title(fmt.Sprintf("Do you want to review the collected data before uploading to %s?", diagnosticsArgs.MclogsURL)).
				Description("The data, especially the logs, might contain sensitive information, so you should review it. You will be asked again if you want to upload.").
				Accessor(defaultTrueConfirmAccessor()).
				Value(&diagnosticsArgs.ReviewBeforeUpload),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}

	in := diagnostics.Input{Config: config.Get()}
	err := withManager(cmd.Context(), func(ctx context.Context, m *manager.Manager) error {
		b, err := m.Current(ctx)
		if err != nil {
			return err
		}
		in.Bot = &b
		if in.Status, err = m.Refresh(ctx); err != nil {
			log.WithError(err).Warn("failed to check the bot server")
		}
		return nil
	})
	if err != nil && !errors.Is(err, manager.ErrNoBot) {
		return err
	}

	report := diagnostics.GenerateReport(in, diagnostics.Options{
		IncludeEndpoints: diagnosticsArgs.IncludeEndpoints,
		IncludeLogs:      diagnosticsArgs.IncludeLogs,
		LogLines:         diagnosticsArgs.LogLines,
	})

	fmt.Println("\n---------------  generated report  ---------------")
	fmt.Println(report)
	fmt.Print("---------------   end of report    ---------------\n\n")

	if diagnosticsArgs.ReviewBeforeUpload {
		upload := false
		if err := huh.NewConfirm().Title("Upload to " + diagnosticsArgs.MclogsURL + "?").Value(&upload).Run(); err != nil && !errors.Is(err, huh.ErrUserAborted) {
			return err
		}
		if !upload {
			return nil
		}
	}

	paste, err := diagnostics.Uploader{APIURL: diagnosticsArgs.MclogsURL}.Upload(cmd.Context(), report)
	if err != nil {
		return errors.WrapIf(err, "failed to upload report")
	}
	success("your report is available here: %s", paste.URL)
	return nil
}
