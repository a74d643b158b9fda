package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/clubreport/pkg/source"
)

// previewCommand creates the command that browses a planned report in the terminal.
func (c *CLI) previewCommand() *cobra.Command {
	var page int
	var plain bool
	cmd := &cobra.Command{
		Use:   "preview <snapshot.json>",
		Short: "Browse the pages of a report in the terminal",
		Long: `Plan the report for a snapshot file and browse its pages interactively.
With --plain, print one page and exit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.preview(cmd.Context(), args[0], page, plain)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page to show first")
	cmd.Flags().BoolVar(&plain, "plain", false, "print the page instead of starting the browser")
	return cmd
}

func (c *CLI) preview(ctx context.Context, path string, page int, plain bool) error {
	snap, err := source.ReadFile(path)
	if err != nil {
		return err
	}
	_, opts, err := c.snapshotOptions(snap, "")
	if err != nil {
		return err
	}
	runner := c.newRunner(source.Static{Snapshot: snap}, nil, loggerFromContext(ctx))
	totals, err := runner.Aggregate(snap, opts)
	if err != nil {
		return err
	}
	doc, err := runner.Layout(ctx, totals, opts)
	if err != nil {
		return err
	}

	m := NewPreviewModel(doc, fmt.Sprintf("%s · %s", opts.Title, opts.DateString()))
	m.Page = min(max(page-1, 0), max(doc.Pages-1, 0))
	if plain {
		fmt.Fprintln(c.Out, m.View())
		return nil
	}
	_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}
