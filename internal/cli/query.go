package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/argo-ocean/oceanq/internal/query"
	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

var queryFlags struct {
	sampleLimit int
	limit       int
	lat         []float64
	lon         []float64
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a query against the measurement table and print its JSON envelope",
	Long: `Each query subcommand prints one JSON envelope to stdout. A failed query
still prints its envelope, then exits with the code of its error kind.`,
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print the earliest measurements",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *query.Service) error {
			return emit(cmd.OutOrStdout(), svc.GetSampleData(ctx, queryFlags.sampleLimit))
		})
	},
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of measurements",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *query.Service) error {
			return emit(cmd.OutOrStdout(), svc.GetDataCount(ctx))
		})
	},
}

var locationCmd = &cobra.Command{
	Use:     "location",
	Short:   "Print measurements inside a latitude/longitude box",
	Example: `  oceanq query location --lat=-10,10 --lon 60,80 --limit 20`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		lat, err := rangeFlag("lat", queryFlags.lat)
		if err != nil {
			return err
		}
		lon, err := rangeFlag("lon", queryFlags.lon)
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *query.Service) error {
			return emit(cmd.OutOrStdout(), svc.QueryByLocation(ctx, lat, lon, queryFlags.limit))
		})
	},
}

var datesCmd = &cobra.Command{
	Use:     "dates START END",
	Short:   "Print measurements between two dates (YYYY-MM-DD, both inclusive)",
	Example: `  oceanq query dates 2019-01-29 2019-01-30`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *query.Service) error {
			return emit(cmd.OutOrStdout(), svc.QueryByDateRange(ctx, args[0], args[1], queryFlags.limit))
		})
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print dataset statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *query.Service) error {
			return emit(cmd.OutOrStdout(), svc.GetDataSummary(ctx))
		})
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.AddCommand(sampleCmd, countCmd, locationCmd, datesCmd, summaryCmd)

	sampleCmd.Flags().IntVarP(&queryFlags.sampleLimit, "limit", "n", oceanq.DefaultSampleLimit, "Maximum number of rows")
	for _, c := range []*cobra.Command{locationCmd, datesCmd} {
		c.Flags().IntVarP(&queryFlags.limit, "limit", "n", oceanq.DefaultQueryLimit, "Maximum number of rows")
	}
	locationCmd.Flags().Float64SliceVar(&queryFlags.lat, "lat",
		[]float64{oceanq.MinLatitude, oceanq.MaxLatitude}, "Latitude range as MIN,MAX")
	locationCmd.Flags().Float64SliceVar(&queryFlags.lon, "lon",
		[]float64{oceanq.MinLongitude, oceanq.MaxLongitude}, "Longitude range as MIN,MAX")
}

// rangeFlag turns a MIN,MAX flag value into a Range. Bounds are checked by
// the query itself so that the envelope reports them.
func rangeFlag(name string, values []float64) (oceanq.Range, error) {
	if len(values) != 2 {
		return oceanq.Range{}, fmt.Errorf("invalid argument for --%s: want MIN,MAX, got %d values", name, len(values))
	}
	return oceanq.NewRange(values[0], values[1]), nil
}

// withService opens a session and runs fn with a query service bound to the
// configured table.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *query.Service) error) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	svc := query.New(s.conn, query.WithTableName(s.cfg.Table), query.WithLogger(s.logger))
	return fn(cmd.Context(), svc)
}

// emit prints env as indented JSON and returns its error, if any.
func emit[T any](w io.Writer, env oceanq.Envelope[T]) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return env.Err()
}
