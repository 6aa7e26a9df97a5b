package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/argo-ocean/oceanq/internal/query"
	"github.com/argo-ocean/oceanq/internal/tui"
	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run every query once against the loaded data",
	Long: `Demo runs a fixed walkthrough: a three row sample, the record count,
the dataset summary, an equatorial Indian Ocean box and two days of
January 2019.
Every step runs even when an earlier one fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *query.Service) error {
			return runDemo(ctx, cmd.OutOrStdout(), svc)
		})
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

type demoStep struct {
	title string
	run   func(ctx context.Context, w io.Writer) error
}

func runDemo(ctx context.Context, w io.Writer, svc *query.Service) error {
	steps := []demoStep{
		{"Sample data", func(ctx context.Context, w io.Writer) error {
			return emit(w, svc.GetSampleData(ctx, 3))
		}},
		{"Record count", func(ctx context.Context, w io.Writer) error {
			return emit(w, svc.GetDataCount(ctx))
		}},
		{"Dataset summary", func(ctx context.Context, w io.Writer) error {
			return emit(w, svc.GetDataSummary(ctx))
		}},
		{"Location lat -10..10, lon 60..80", func(ctx context.Context, w io.Writer) error {
			return emit(w, svc.QueryByLocation(ctx, oceanq.NewRange(-10, 10), oceanq.NewRange(60, 80), 5))
		}},
		{"Date range 2019-01-29..2019-01-30", func(ctx context.Context, w io.Writer) error {
			return emit(w, svc.QueryByDateRange(ctx, "2019-01-29", "2019-01-30", 5))
		}},
	}

	var errs []error
	for i, step := range steps {
		fmt.Fprintln(w, tui.TitleStyle.Render(fmt.Sprintf("%d. %s", i+1, step.title)))
		if err := step.run(ctx, w); err != nil {
			fmt.Fprintln(w, tui.ErrorStyle.Render(tui.SymbolCross+" "+err.Error()))
			errs = append(errs, err)
		}
		fmt.Fprintln(w)
	}
	return errors.Join(errs...)
}
