package query

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

const (
	prefixSample   = "Error retrieving sample data: "
	prefixCount    = "Error counting records: "
	prefixLocation = "Error querying by location: "
	prefixDates    = "Error querying by date range: "
	prefixSummary  = "Error generating data summary: "
)

// GetSampleData returns the first limit rows in timestamp order.
func (s *Service) GetSampleData(ctx context.Context, limit int) oceanq.Envelope[[]oceanq.Measurement] {
	md := s.start(oceanq.QueryTypeSampleData)
	md.Limit = limit
	empty := []oceanq.Measurement{}

	if s.tableErr != nil {
		return fail(s, md, empty, prefixSample, s.tableErr)
	}
	if err := validateLimit(limit); err != nil {
		return fail(s, md, empty, prefixSample, err)
	}

	sql := fmt.Sprintf(`SELECT * FROM %s ORDER BY %s LIMIT $1`,
		s.table.Sanitize(), quote(oceanq.ColumnTimestamp))
	records, columns, err := s.fetch(ctx, sql, limit)
	if err != nil {
		return fail(s, md, empty, prefixSample, err)
	}

	md.ReturnedRecords = ptr(len(records))
	md.Columns = columns
	return succeed(s, md, records, fmt.Sprintf("Retrieved %d sample records", len(records)))
}

// GetDataCount returns the total number of rows.
func (s *Service) GetDataCount(ctx context.Context) oceanq.Envelope[oceanq.Count] {
	md := s.start(oceanq.QueryTypeDataCount)

	if s.tableErr != nil {
		return fail(s, md, oceanq.Count{}, prefixCount, s.tableErr)
	}

	count, err := s.tables.RowCount(ctx, s.conn, s.table)
	if err != nil {
		return fail(s, md, oceanq.Count{}, prefixCount, err)
	}

	return succeed(s, md, oceanq.Count{TotalRecords: count},
		fmt.Sprintf("Total records in %s: %s", s.tableName, humanize.Comma(count)))
}

// QueryByLocation returns rows inside the inclusive latitude and longitude
// ranges, in timestamp order, bounded by limit.
func (s *Service) QueryByLocation(ctx context.Context, lat, lon oceanq.Range, limit int) oceanq.Envelope[[]oceanq.Measurement] {
	md := s.start(oceanq.QueryTypeLocation)
	md.Limit = limit
	empty := []oceanq.Measurement{}

	if s.tableErr != nil {
		return fail(s, md, empty, prefixLocation, s.tableErr)
	}
	if err := validateLocation(lat, lon, limit); err != nil {
		return fail(s, md, empty, prefixLocation, err)
	}
	md.Filters = &oceanq.Filters{LatitudeRange: &lat, LongitudeRange: &lon}

	sql := fmt.Sprintf(`SELECT * FROM %s
WHERE %s BETWEEN $1 AND $2 AND %s BETWEEN $3 AND $4
ORDER BY %s
LIMIT $5`,
		s.table.Sanitize(),
		quote(oceanq.ColumnLatitude), quote(oceanq.ColumnLongitude),
		quote(oceanq.ColumnTimestamp))
	records, columns, err := s.fetch(ctx, sql, lat.Min, lat.Max, lon.Min, lon.Max, limit)
	if err != nil {
		return fail(s, md, empty, prefixLocation, err)
	}

	md.ReturnedRecords = ptr(len(records))
	md.Columns = columns
	return succeed(s, md, records, fmt.Sprintf("Retrieved %d records for location query", len(records)))
}

// QueryByDateRange returns rows whose timestamp falls on any calendar day from
// start through end inclusive. Both dates use the YYYY-MM-DD format.
func (s *Service) QueryByDateRange(ctx context.Context, start, end string, limit int) oceanq.Envelope[[]oceanq.Measurement] {
	md := s.start(oceanq.QueryTypeDateRange)
	md.Limit = limit
	empty := []oceanq.Measurement{}

	if s.tableErr != nil {
		return fail(s, md, empty, prefixDates, s.tableErr)
	}
	from, to, err := validateDates(start, end, limit)
	if err != nil {
		return fail(s, md, empty, prefixDates, err)
	}
	startStr, endStr := from.Format(oceanq.DateLayout), to.Format(oceanq.DateLayout)
	md.Filters = &oceanq.Filters{StartDate: startStr, EndDate: endStr}

	ts := quote(oceanq.ColumnTimestamp)
	sql := fmt.Sprintf(`SELECT * FROM %s
WHERE %s >= $1::date AND %s < ($2::date + 1)
ORDER BY %s
LIMIT $3`,
		s.table.Sanitize(), ts, ts, ts)
	records, columns, err := s.fetch(ctx, sql, startStr, endStr, limit)
	if err != nil {
		return fail(s, md, empty, prefixDates, err)
	}

	md.ReturnedRecords = ptr(len(records))
	md.Columns = columns
	return succeed(s, md, records,
		fmt.Sprintf("Retrieved %d records for date range %s to %s", len(records), startStr, endStr))
}

func (s *Service) fetch(ctx context.Context, sql string, args ...any) ([]oceanq.Measurement, []string, error) {
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, nil, err
	}
	return collect(rows)
}
