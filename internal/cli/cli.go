// Package cli implements the clubreport command-line interface.
package cli

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/clubreport/pkg/buildinfo"
	"github.com/matzehuels/clubreport/pkg/cache"
	"github.com/matzehuels/clubreport/pkg/config"
	"github.com/matzehuels/clubreport/pkg/errors"
	"github.com/matzehuels/clubreport/pkg/integrations/strava"
	"github.com/matzehuels/clubreport/pkg/pipeline"
	"github.com/matzehuels/clubreport/pkg/source"
)

// appName is the application name used for directories and display.
const appName = "clubreport"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is set by --config; empty means the default location.
	ConfigPath string

	// Out receives command output that is not logging.
	Out io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), Out: w}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "clubreport renders the daily Strava club activity report",
		Long:         `clubreport fetches yesterday's club activities and roster from Strava, lays them out in per-category columns and delivers the report as PDF by mail, to a directory or to a MongoDB archive.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}
	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/clubreport/config.toml)")

	root.AddCommand(c.runCommand())
	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration and checks the groups a command needs.
func (c *CLI) loadConfig(checks ...config.Check) (*config.Config, error) {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(checks...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openCache opens the configured cache, or a null cache when noCache is set.
func openCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	return cfg.OpenCache(ctx)
}

// stravaSource builds the Strava data source for cfg.
func stravaSource(cfg *config.Config, c cache.Cache, logger *log.Logger) (*strava.Source, error) {
	client, err := strava.NewClient(cfg.Strava, c)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &strava.Source{Client: client, Location: loc, Logger: logger}, nil
}

// newRunner creates a pipeline runner over src for CLI use.
func (c *CLI) newRunner(src source.Source, ch cache.Cache, logger *log.Logger) *pipeline.Runner {
	return pipeline.NewRunner(src, ch, nil, logger)
}

// reportOptions returns the configured pipeline options for the --date and
// --format flags.
func reportOptions(cfg *config.Config, date, formats string) (pipeline.Options, error) {
	opts, err := cfg.PipelineOptions()
	if err != nil {
		return opts, err
	}
	day, err := parseDate(date, opts.Location, time.Now())
	if err != nil {
		return opts, err
	}
	opts.Date = day
	if formats != "" {
		opts.Formats = parseFormats(formats)
		if err := pipeline.ValidateFormats(opts.Formats); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// parseDate parses a YYYY-MM-DD flag value. Empty means yesterday; "today"
// is accepted for manual runs.
func parseDate(s string, loc *time.Location, now time.Time) (time.Time, error) {
	switch s {
	case "", "yesterday":
		return pipeline.Yesterday(now, loc), nil
	case "today":
		return pipeline.Yesterday(now.AddDate(0, 0, 1), loc), nil
	}
	return errors.ValidateDate(s, loc)
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
