package oceanq

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"time"
)

// Measurement is one row of the measurement table.
//
// Numeric cells live in Values and are nil when the database holds NULL or a
// non-finite value. Cells of non-numeric columns live in Attributes.
// The JSON form is a flat object whose keys follow the table's column order.
type Measurement struct {
	Timestamp  *time.Time
	Latitude   *float64
	Longitude  *float64
	Values     map[string]*float64
	Attributes map[string]*string

	columns []string
}

// NewMeasurement creates an empty record whose JSON keys follow columns.
func NewMeasurement(columns []string) Measurement {
	return Measurement{
		Values:     map[string]*float64{},
		Attributes: map[string]*string{},
		columns:    columns,
	}
}

// Columns returns the column order used for encoding.
func (m Measurement) Columns() []string {
	if m.columns != nil {
		return m.columns
	}
	cols := []string{ColumnTimestamp, ColumnLatitude, ColumnLongitude}
	extra := make([]string, 0, len(m.Values)+len(m.Attributes))
	for k := range m.Values {
		extra = append(extra, k)
	}
	for k := range m.Attributes {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	return append(cols, extra...)
}

// Value returns the numeric value of column, or nil when it is undefined.
func (m Measurement) Value(column string) *float64 {
	return m.Values[column]
}

// Finite returns a pointer to v, or nil when v is NaN or infinite.
func Finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (m Measurement) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range m.Columns() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := json.Marshal(m.cell(col))
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m Measurement) cell(col string) any {
	switch col {
	case ColumnTimestamp:
		return m.Timestamp
	case ColumnLatitude:
		return finitePtr(m.Latitude)
	case ColumnLongitude:
		return finitePtr(m.Longitude)
	}
	if v, ok := m.Values[col]; ok {
		return finitePtr(v)
	}
	if s, ok := m.Attributes[col]; ok {
		return s
	}
	return nil
}

func finitePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Finite(*v)
}
