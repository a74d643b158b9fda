package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/clubreport/pkg/config"
	"github.com/matzehuels/clubreport/pkg/delivery"
	"github.com/matzehuels/clubreport/pkg/observability"
)

type runFlags struct {
	date      string
	formats   string
	output    string
	noDeliver bool
	noCache   bool
	refresh   bool
}

// runCommand creates the command that fetches, renders and delivers a report.
func (c *CLI) runCommand() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, render and deliver the daily report",
		Long: `Fetch the club's activities for one day (yesterday by default), render the
report and hand it to every configured destination: the output directory,
SMTP mail when [mail] host is set and MongoDB when [archive] uri is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.date, "date", "", "report date YYYY-MM-DD (default yesterday)")
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output formats, comma separated (pdf,json)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output directory (overrides [output] dir)")
	cmd.Flags().BoolVar(&f.noDeliver, "no-deliver", false, "render only; skip mail and archive")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "refresh cached members and banner")
	return cmd
}

func (c *CLI) run(ctx context.Context, f runFlags) error {
	logger := loggerFromContext(ctx)
	cfg, err := c.loadConfig(config.CheckStrava)
	if err != nil {
		return err
	}
	if f.output != "" {
		cfg.Output.Dir = f.output
	}
	opts, err := reportOptions(cfg, f.date, f.formats)
	if err != nil {
		return err
	}
	opts.RefreshBanner = f.refresh
	opts.Logger = logger

	ch, err := openCache(ctx, cfg, f.noCache)
	if err != nil {
		return err
	}
	defer ch.Close()
	observability.SetPipelineHooks(observability.NewLogHooks(logger))
	defer observability.Reset()

	src, err := stravaSource(cfg, ch, logger)
	if err != nil {
		return err
	}
	src.RefreshMembers = f.refresh

	spin := newSpinner(ctx, c.Out, "Fetching club data for "+opts.DateString())
	spin.Start()
	runner := c.newRunner(src, ch, logger)
	result, err := runner.Execute(ctx, opts)
	spin.Stop()
	if err != nil {
		return err
	}
	printResult(c.Out, result, opts.Unit)

	var dests delivery.Multi
	release := func(context.Context) error { return nil }
	if f.noDeliver {
		if cfg.Output.Dir != "" {
			dests = delivery.Multi{delivery.Directory{Dir: cfg.Output.Dir}}
		}
	} else {
		dests, release, err = cfg.Deliverers(ctx)
		if err != nil {
			return err
		}
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := release(ctx); err != nil {
			logger.Warn("close delivery", "error", err)
		}
	}()
	if len(dests) == 0 {
		printWarning(c.Out, "No destination configured; nothing was delivered")
		return nil
	}

	prog := newProgress(logger)
	if err := runner.Deliver(ctx, dests, result); err != nil {
		return err
	}
	prog.done("delivered report", "destinations", len(dests))
	for _, d := range dests {
		if dir, ok := d.(delivery.Directory); ok {
			for _, a := range result.Artifacts {
				printFile(c.Out, dir.Path(a))
			}
			continue
		}
		printInfo(c.Out, "Delivered to %s", d.Name())
	}
	return nil
}
