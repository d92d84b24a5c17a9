package cmd

import (
	"strconv"
	"strings"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/priyxstudio/botdeck/config"
)

func newConfigureCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Edit the local configuration file.",
		RunE:  configureCmdRun,
	}
}

func configureCmdRun(cmd *cobra.Command, _ []string) error {
	cfg := config.Get()

	var (
		timeout  = strconv.Itoa(cfg.Remote.Timeout)
		interval = strconv.Itoa(cfg.Poll.Interval)
		workers  = strconv.Itoa(cfg.Poll.Workers)
		level    = cfg.Log.Level
		logFile  = cfg.Log.File
		database = cfg.Database
	)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Database file").
				Description("The sqlite file holding the bot and its groups.").
				Value(&database).
				Validate(required("a database file")),
			huh.NewInput().
				Title("Request timeout (seconds)").
				Value(&timeout).
				Validate(nonNegative),
			huh.NewInput().
				Title("Status poll interval (seconds)").
				Value(&interval).
				Validate(positive),
			huh.NewInput().
				Title("Status poll workers").
				Value(&workers).
				Validate(positive),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&level),
			huh.NewInput().
				Title("Log file").
				Description("Leave empty to only log to the terminal.").
				Value(&logFile),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}

	config.Update(func(c *config.Configuration) {
		c.Database = strings.TrimSpace(database)
		c.Remote.Timeout = atoi(timeout)
		c.Poll.Interval = atoi(interval)
		c.Poll.Workers = atoi(workers)
		c.Log.Level = level
		c.Log.File = strings.TrimSpace(logFile)
	})
	c := config.Get()
	if err := config.WriteToDisk(c); err != nil {
		return err
	}
	log.WithField("path", c.Path()).Debug("updated configuration")
	success("configuration written to %s", c.Path())
	return nil
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.Errorf("%s is required", what)
		}
		return nil
	}
}

// atoi parses a value that already passed validation.
func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func positive(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return errors.New("enter a whole number greater than zero")
	}
	return nil
}

func nonNegative(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return errors.New("enter a whole number, zero disables the timeout")
	}
	return nil
}
