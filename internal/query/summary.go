package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

// GetDataSummary aggregates the whole table: record and day counts, time and
// coordinate extents, per measured column statistics and monthly counts.
func (s *Service) GetDataSummary(ctx context.Context) oceanq.Envelope[oceanq.Summary] {
	md := s.start(oceanq.QueryTypeSummary)

	if s.tableErr != nil {
		return fail(s, md, oceanq.NewSummary(), prefixSummary, s.tableErr)
	}

	summary, err := s.summarize(ctx)
	if err != nil {
		return fail(s, md, oceanq.NewSummary(), prefixSummary, err)
	}
	return succeed(s, md, summary, "Dataset summary generated successfully")
}

func (s *Service) summarize(ctx context.Context) (oceanq.Summary, error) {
	summary := oceanq.NewSummary()

	measured, err := s.tables.MeasuredColumns(ctx, s.conn, s.table)
	if err != nil {
		return summary, err
	}

	var earliest, latest *time.Time
	var latMin, latMax, lonMin, lonMax *float64
	overview := &summary.DatasetOverview
	stats := make([]oceanq.ColumnStats, len(measured))

	dest := []any{
		&overview.TotalRecords, &overview.UniqueDates,
		&earliest, &latest,
		&latMin, &latMax, &lonMin, &lonMax,
	}
	for i := range stats {
		dest = append(dest, &stats[i].Average, &stats[i].Minimum, &stats[i].Maximum, &stats[i].Count)
	}

	if err := s.conn.QueryRow(ctx, summarySQL(s.table, measured)).Scan(dest...); err != nil {
		return summary, fmt.Errorf("failed to aggregate %s: %w", s.tableName, err)
	}

	overview.DateRange = oceanq.DateRange{Earliest: earliest, Latest: latest}
	summary.GeographicExtent = oceanq.GeographicExtent{
		LatitudeRange:  oceanq.Extent{Min: finite(latMin), Max: finite(latMax)},
		LongitudeRange: oceanq.Extent{Min: finite(lonMin), Max: finite(lonMax)},
	}
	for i, col := range measured {
		st := stats[i]
		st.Average, st.Minimum, st.Maximum = finite(st.Average), finite(st.Minimum), finite(st.Maximum)
		summary.MeasurementStats[col] = st
	}

	months, err := s.temporalDistribution(ctx)
	if err != nil {
		return summary, err
	}
	summary.TemporalDistribution = months
	return summary, nil
}

func (s *Service) temporalDistribution(ctx context.Context) ([]oceanq.MonthCount, error) {
	rows, err := s.conn.Query(ctx, distributionSQL(s.table))
	if err != nil {
		return nil, fmt.Errorf("failed to compute temporal distribution: %w", err)
	}
	defer rows.Close()

	months := []oceanq.MonthCount{}
	for rows.Next() {
		var mc oceanq.MonthCount
		if err := rows.Scan(&mc.Year, &mc.Month, &mc.RecordCount); err != nil {
			return nil, fmt.Errorf("failed to read temporal distribution: %w", err)
		}
		months = append(months, mc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to compute temporal distribution: %w", err)
	}
	return months, nil
}

// summarySQL builds the single aggregate statement behind GetDataSummary.
// Non-finite values are excluded from every numeric aggregate.
func summarySQL(table pgx.Identifier, measured []string) string {
	ts := quote(oceanq.ColumnTimestamp)
	lat := quote(oceanq.ColumnLatitude)
	lon := quote(oceanq.ColumnLongitude)

	exprs := []string{
		"count(*)",
		fmt.Sprintf("count(DISTINCT %s::date)", ts),
		fmt.Sprintf("min(%s)", ts),
		fmt.Sprintf("max(%s)", ts),
		finiteAgg("min", lat),
		finiteAgg("max", lat),
		finiteAgg("min", lon),
		finiteAgg("max", lon),
	}
	for _, col := range measured {
		q := quote(col)
		exprs = append(exprs,
			finiteAgg("avg", q),
			finiteAgg("min", q),
			finiteAgg("max", q),
			fmt.Sprintf("count(%s) FILTER (WHERE %s)", q, finitePredicate(q)),
		)
	}
	return fmt.Sprintf("SELECT\n\t%s\nFROM %s", strings.Join(exprs, ",\n\t"), table.Sanitize())
}

func distributionSQL(table pgx.Identifier) string {
	ts := quote(oceanq.ColumnTimestamp)
	return fmt.Sprintf(`SELECT
	extract(year FROM %[1]s)::int AS year,
	extract(month FROM %[1]s)::int AS month,
	count(*) AS record_count
FROM %[2]s
WHERE %[1]s IS NOT NULL
GROUP BY 1, 2
ORDER BY 1, 2`, ts, table.Sanitize())
}

func finiteAgg(fn, col string) string {
	return fmt.Sprintf("%s(%s::float8) FILTER (WHERE %s)", fn, col, finitePredicate(col))
}

func finitePredicate(col string) string {
	return fmt.Sprintf("%s::float8 NOT IN ('NaN', 'Infinity', '-Infinity')", col)
}

func quote(col string) string {
	return pgx.Identifier{col}.Sanitize()
}

func finite(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return oceanq.Finite(*v)
}
