package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"emperror.dev/errors"
	"github.com/NYTimes/logrotate"
	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/multi"
	"github.com/mitchellh/colorstring"
	"github.com/spf13/cobra"

	"github.com/priyxstudio/botdeck/config"
	"github.com/priyxstudio/botdeck/internal/database"
	"github.com/priyxstudio/botdeck/internal/manager"
	"github.com/priyxstudio/botdeck/internal/models"
	"github.com/priyxstudio/botdeck/internal/store"
	"github.com/priyxstudio/botdeck/loggers/cli"
	"github.com/priyxstudio/botdeck/remote"
	"github.com/priyxstudio/botdeck/system"
)

var (
	configPath = config.DefaultLocation
	debug      = false
)

var rootCommand = &cobra.Command{
	Use:           "botdeck",
	Short:         "Manage a remotely hosted Discord bot from the command line.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		return initLogging()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLogFile()
	},
}

// Execute runs the command tree and exits with a non-zero code on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCommand.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
}

func init() {
	rootCommand.PersistentFlags().StringVar(&configPath, "config", config.DefaultLocation, "set the location for the configuration file")
	rootCommand.PersistentFlags().BoolVar(&debug, "debug", false, "pass in order to run botdeck in debug mode")

	rootCommand.AddCommand(
		versionCommand,
		newConfigureCommand(),
		newBotCommand(),
		newSettingsCommand(),
		newDashboardCommand(),
		newAttendanceCommand(),
		newDataCommand(),
		newSurveyCommand(),
		newFeedbackCommand(),
		newDiagnosticsCommand(),
	)
	rootCommand.AddCommand(newGuildCommands()...)
}

func initConfig() error {
	if !filepath.IsAbs(configPath) {
		p, err := filepath.Abs(configPath)
		if err != nil {
			return errors.Wrap(err, "cmd/root: failed to resolve config path")
		}
		configPath = p
	}
	if err := config.FromFile(configPath); err != nil {
		return err
	}
	if debug {
		config.SetDebugViaFlag(debug)
	}
	return nil
}

var logFile *logrotate.File

// initLogging configures the terminal handler and, when a log file is set,
// appends JSON lines to that file as well.
func initLogging() error {
	cfg := config.Get()

	level := log.InfoLevel
	if cfg.Log.Level != "" {
		l, err := log.ParseLevel(cfg.Log.Level)
		if err != nil {
			return errors.Wrapf(err, "cmd/root: invalid log level %q", cfg.Log.Level)
		}
		level = l
	}
	if cfg.Debug {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	if cfg.Log.File == "" {
		log.SetHandler(cli.Default)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o700); err != nil {
		return errors.Wrap(err, "cmd/root: failed to create log directory")
	}
	w, err := logrotate.NewFile(cfg.Log.File)
	if err != nil {
		return errors.Wrap(err, "cmd/root: failed to open log file")
	}
	logFile = w
	log.SetHandler(multi.New(cli.Default, jsonFileHandler()))
	log.WithField("path", cfg.Log.File).Debug("writing log files to disk")
	return nil
}

// jsonFileHandler writes JSON log lines to the open log file.
func jsonFileHandler() log.Handler {
	return json.New(logFile)
}

func closeLogFile() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// newClient builds the API client for a bot using the remote section of the
// configuration.
func newClient(cfg models.BotConfig) remote.Client {
	rc := config.Get().Remote
	ua := rc.UserAgent
	if ua == "" {
		ua = system.UserAgent()
	}
	key, err := config.Expand(cfg.APIKey)
	if err != nil {
		log.WithError(err).Warn("failed to expand api key, using it as is")
		key = cfg.APIKey
	}
	return remote.New(
		cfg.ServerAddress,
		remote.WithAPIKey(key),
		remote.WithTimeout(rc.RequestTimeout()),
		remote.WithUserAgent(ua),
		remote.WithCustomHeaders(rc.CustomHeaders),
	)
}

// withManager opens the database, runs a manager for the duration of fn and
// closes everything afterwards.
func withManager(ctx context.Context, fn func(ctx context.Context, m *manager.Manager) error) error {
	if err := config.EnsureDirectories(); err != nil {
		return err
	}
	if err := database.Initialize(config.Get().Database); err != nil {
		return err
	}
	defer database.Close()

	m := manager.New(store.New(database.Instance()), newClient)
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx)
	}()

	err := fn(ctx, m)
	cancel()
	if rerr := <-done; rerr != nil {
		return rerr
	}
	return err
}

// withClient runs fn with the API client of the stored bot.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, c remote.Client) error) error {
	return withManager(cmd.Context(), func(ctx context.Context, m *manager.Manager) error {
		c, err := m.Client(ctx)
		if err != nil {
			return err
		}
		return fn(ctx, c)
	})
}

func printError(err error) {
	var re *remote.Error
	switch {
	case errors.Is(err, manager.ErrNoBot):
		colorstring.Fprintf(os.Stderr, "[red][bold]error:[reset] %s\n", "no bot has been created yet, run \"botdeck bot create\" first")
	case errors.As(err, &re):
		colorstring.Fprintf(os.Stderr, "[red][bold]error:[reset] %s [dark_gray](%s)\n", re.Message, re.Kind)
	default:
		colorstring.Fprintf(os.Stderr, "[red][bold]error:[reset] %s\n", err)
	}
}

func success(format string, args ...interface{}) {
	colorstring.Printf("[green]✓[reset] "+format+"\n", args...)
}

func printMessage(msg string, err error) error {
	if err != nil {
		return err
	}
	success("%s", msg)
	return nil
}
