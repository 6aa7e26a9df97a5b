package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/argo-ocean/oceanq/internal/db/manager"
	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

// maxColumnNameLength is PostgreSQL's NAMEDATALEN - 1.
const maxColumnNameLength = 63

// timestampLayouts are tried in order for the datetime column.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	oceanq.DateLayout,
}

// nullTokens load as NULL in measured columns. Compared case-insensitively.
var nullTokens = []string{"", "nan", "na", "n/a", "null"}

// schema maps CSV positions onto table columns.
type schema struct {
	columns  []string
	measured []string
	tsIdx    int
	latIdx   int
	lonIdx   int
}

// parseHeader normalizes header names (trimmed, lowercased) and checks the
// mandatory columns.
func parseHeader(header []string) (*schema, error) {
	s := &schema{tsIdx: -1, latIdx: -1, lonIdx: -1}
	seen := make(map[string]bool, len(header))

	for i, raw := range header {
		if i == 0 {
			raw = strings.TrimPrefix(raw, "\ufeff")
		}
		name := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case name == "":
			return nil, fmt.Errorf("%w: header column %d is empty", oceanq.ErrSchemaMismatch, i+1)
		case len(name) > maxColumnNameLength:
			return nil, fmt.Errorf("%w: header column %q exceeds %d characters",
				oceanq.ErrSchemaMismatch, preview(name), maxColumnNameLength)
		case seen[name]:
			return nil, fmt.Errorf("%w: duplicate header column %q", oceanq.ErrSchemaMismatch, name)
		}
		seen[name] = true
		s.columns = append(s.columns, name)

		switch name {
		case oceanq.ColumnTimestamp:
			s.tsIdx = i
		case oceanq.ColumnLatitude:
			s.latIdx = i
		case oceanq.ColumnLongitude:
			s.lonIdx = i
		default:
			s.measured = append(s.measured, name)
		}
	}

	var missing []string
	for _, req := range []struct {
		name string
		idx  int
	}{
		{oceanq.ColumnTimestamp, s.tsIdx},
		{oceanq.ColumnLatitude, s.latIdx},
		{oceanq.ColumnLongitude, s.lonIdx},
	} {
		if req.idx < 0 {
			missing = append(missing, req.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required column(s): %s",
			oceanq.ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	return s, nil
}

// checkAgainst verifies that every CSV column exists in the existing table.
func (s *schema) checkAgainst(table string, existing []manager.Column) error {
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c.Name] = true
	}
	var unknown []string
	for _, c := range s.columns {
		if !have[c] {
			unknown = append(unknown, c)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: table %s has no column(s) %s",
			oceanq.ErrSchemaMismatch, table, strings.Join(unknown, ", "))
	}
	return nil
}

// convert turns one CSV record into COPY values in header order.
func (s *schema) convert(record []string, line int) ([]any, error) {
	values := make([]any, len(record))
	for i, raw := range record {
		field := strings.TrimSpace(raw)
		var err error
		switch i {
		case s.tsIdx:
			values[i], err = parseTimestamp(field)
		case s.latIdx:
			values[i], err = parseCoordinate(field, oceanq.MinLatitude, oceanq.MaxLatitude)
		case s.lonIdx:
			values[i], err = parseCoordinate(field, oceanq.MinLongitude, oceanq.MaxLongitude)
		default:
			values[i], err = parseMeasured(field)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d, column %s: %w",
				oceanq.ErrSchemaMismatch, line, s.columns[i], err)
		}
	}
	return values, nil
}

func parseTimestamp(field string) (time.Time, error) {
	if field == "" {
		return time.Time{}, errors.New("timestamp is required")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, field); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", preview(field))
}

func parseCoordinate(field string, min, max float64) (float64, error) {
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", preview(field))
	}
	if math.IsNaN(v) || v < min || v > max {
		return 0, fmt.Errorf("%s is outside [%g, %g]", preview(field), min, max)
	}
	return v, nil
}

// parseMeasured returns nil for null tokens and non-finite numbers.
func parseMeasured(field string) (any, error) {
	for _, tok := range nullTokens {
		if strings.EqualFold(field, tok) {
			return nil, nil
		}
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", preview(field))
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil, nil
	}
	return v, nil
}

func preview(s string) string {
	if len(s) <= oceanq.MaxErrorPreviewLength {
		return s
	}
	return s[:oceanq.MaxErrorPreviewLength] + "..."
}

// rowSource streams CSV records into pgx.CopyFrom.
type rowSource struct {
	r        *csv.Reader
	schema   *schema
	values   []any
	err      error
	rows     int64
	progress func(int64)
}

func (s *rowSource) Next() bool {
	if s.err != nil {
		return false
	}
	record, err := s.r.Read()
	if err == io.EOF {
		return false
	}
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			s.err = fmt.Errorf("%w: %w", oceanq.ErrSchemaMismatch, err)
		} else {
			s.err = fmt.Errorf("failed to read CSV: %w", err)
		}
		return false
	}

	line, _ := s.r.FieldPos(0)
	s.values, s.err = s.schema.convert(record, line)
	if s.err != nil {
		return false
	}
	s.rows++
	if s.progress != nil && s.rows%progressInterval == 0 {
		s.progress(s.rows)
	}
	return true
}

func (s *rowSource) Values() ([]any, error) {
	return s.values, nil
}

func (s *rowSource) Err() error {
	return s.err
}
