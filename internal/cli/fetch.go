package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/clubreport/pkg/config"
	"github.com/matzehuels/clubreport/pkg/pipeline"
	"github.com/matzehuels/clubreport/pkg/source"
)

// fetchCommand creates the command that stores a day's club data as a snapshot.
func (c *CLI) fetchCommand() *cobra.Command {
	var date, output string
	var noCache bool
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download a day's club activities and members to a snapshot file",
		Long: `Download a day's club activities and members and write them to a JSON
snapshot. Snapshots can be rendered and previewed offline with the render and
preview commands.`,
		Example: `  clubreport fetch --date 2024-03-05 -o march5.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.fetch(cmd.Context(), date, output, noCache)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "report date YYYY-MM-DD (default yesterday)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "snapshot file (default snapshot-<date>.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) fetch(ctx context.Context, date, output string, noCache bool) error {
	logger := loggerFromContext(ctx)
	cfg, err := c.loadConfig(config.CheckStrava)
	if err != nil {
		return err
	}
	opts, err := reportOptions(cfg, date, "")
	if err != nil {
		return err
	}
	ch, err := openCache(ctx, cfg, noCache)
	if err != nil {
		return err
	}
	defer ch.Close()

	src, err := stravaSource(cfg, ch, logger)
	if err != nil {
		return err
	}
	prog := newProgress(logger)
	snap, err := c.newRunner(src, ch, logger).Fetch(ctx, opts)
	if err != nil {
		return err
	}
	prog.done("fetched club data", "activities", len(snap.Activities), "members", len(snap.Members))

	if output == "" {
		output = "snapshot-" + opts.DateString() + ".json"
	}
	if err := source.WriteFile(output, snap); err != nil {
		return err
	}
	printSuccess(c.Out, "Saved snapshot for %s", opts.DateString())
	printFile(c.Out, output)
	return nil
}

// snapshotOptions loads the configuration (without credentials) and returns
// options for the date stored in a snapshot.
func (c *CLI) snapshotOptions(snap *source.Snapshot, formats string) (*config.Config, pipeline.Options, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, pipeline.Options{}, err
	}
	opts, err := reportOptions(cfg, snap.Date, formats)
	return cfg, opts, err
}
