package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/clubreport/pkg/delivery"
	"github.com/matzehuels/clubreport/pkg/source"
)

// renderCommand creates the command that renders a snapshot file offline.
func (c *CLI) renderCommand() *cobra.Command {
	var formats, output string
	var noCache bool
	cmd := &cobra.Command{
		Use:   "render <snapshot.json>",
		Short: "Render a report from a snapshot file",
		Long: `Render a report from a snapshot written by fetch. No Strava credentials are
needed; the banner image is still downloaded when [report] banner_url is set.`,
		Example: `  clubreport render snapshot-2024-03-05.json -f pdf,json -o out`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.render(cmd.Context(), args[0], formats, output, noCache)
		},
	}
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output formats, comma separated (pdf,json)")
	cmd.Flags().StringVarP(&output, "output", "o", ".", "output directory")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) render(ctx context.Context, path, formats, output string, noCache bool) error {
	logger := loggerFromContext(ctx)
	snap, err := source.ReadFile(path)
	if err != nil {
		return err
	}
	cfg, opts, err := c.snapshotOptions(snap, formats)
	if err != nil {
		return err
	}
	opts.Logger = logger

	ch, err := openCache(ctx, cfg, noCache)
	if err != nil {
		return err
	}
	defer ch.Close()

	runner := c.newRunner(source.Static{Snapshot: snap}, ch, logger)
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		return err
	}
	printResult(c.Out, result, opts.Unit)

	dir := delivery.Directory{Dir: output}
	if err := runner.Deliver(ctx, dir, result); err != nil {
		return err
	}
	for _, a := range result.Artifacts {
		printFile(c.Out, dir.Path(a))
	}
	return nil
}
