package query

import (
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

// collect reads every row of rows into measurements keyed by the result's
// column names. NULL and non-finite numbers become nil.
func collect(rows pgx.Rows) ([]oceanq.Measurement, []string, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	records := []oceanq.Measurement{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, err
		}
		m, err := toMeasurement(columns, values)
		if err != nil {
			return nil, nil, err
		}
		records = append(records, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return records, columns, nil
}

func toMeasurement(columns []string, values []any) (oceanq.Measurement, error) {
	m := oceanq.NewMeasurement(columns)
	for i, col := range columns {
		v := values[i]
		switch col {
		case oceanq.ColumnTimestamp:
			ts, err := toTime(v)
			if err != nil {
				return m, fmt.Errorf("column %s: %w", col, err)
			}
			m.Timestamp = ts
			continue
		case oceanq.ColumnLatitude:
			m.Latitude = toFloat(v)
			continue
		case oceanq.ColumnLongitude:
			m.Longitude = toFloat(v)
			continue
		}

		if v == nil {
			m.Values[col] = nil
			continue
		}
		if f, ok := numeric(v); ok {
			m.Values[col] = oceanq.Finite(f)
			continue
		}
		s := text(v)
		m.Attributes[col] = &s
	}
	return m, nil
}

func toTime(v any) (*time.Time, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &t, nil
	case pgtype.Timestamp:
		if !t.Valid || t.InfinityModifier != pgtype.Finite {
			return nil, nil
		}
		return &t.Time, nil
	case pgtype.Timestamptz:
		if !t.Valid || t.InfinityModifier != pgtype.Finite {
			return nil, nil
		}
		return &t.Time, nil
	case pgtype.InfinityModifier:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected timestamp type %T", v)
	}
}

func toFloat(v any) *float64 {
	if v == nil {
		return nil
	}
	f, ok := numeric(v)
	if !ok {
		return nil
	}
	return oceanq.Finite(f)
}

// numeric converts the numeric values pgx decodes into float64.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case pgtype.Numeric:
		if !n.Valid {
			return 0, false
		}
		if n.NaN || n.InfinityModifier != pgtype.Finite {
			return math.NaN(), true
		}
		f, err := n.Float64Value()
		if err != nil || !f.Valid {
			return 0, false
		}
		return f.Float64, true
	default:
		return 0, false
	}
}

func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(v)
	}
}
