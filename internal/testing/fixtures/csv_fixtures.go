package fixtures

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

// CSVBuilder provides a fluent API for building measurement CSV fixtures.
//
// Example usage:
//
//	path := NewCSVBuilder("datetime", "lat", "lon", "mld").
//	    Row("2019-01-29 00:00:00", "65.5", "-3.2", "42.0").
//	    Row("2019-01-30 12:00:00", "66.1", "-2.9", "NaN").
//	    WriteFile(t, t.TempDir(), "argo.csv")
type CSVBuilder struct {
	header []string
	rows   [][]string
}

// NewCSVBuilder starts a fixture with the given header.
func NewCSVBuilder(header ...string) *CSVBuilder {
	return &CSVBuilder{header: header}
}

// Row appends a record. Fields are written as given, without validation.
func (b *CSVBuilder) Row(fields ...string) *CSVBuilder {
	b.rows = append(b.rows, fields)
	return b
}

// Len returns the number of data rows.
func (b *CSVBuilder) Len() int {
	return len(b.rows)
}

// Bytes renders the CSV.
func (b *CSVBuilder) Bytes() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(b.header) //nolint:errcheck
	for _, r := range b.rows {
		w.Write(r) //nolint:errcheck
	}
	w.Flush()
	return buf.Bytes()
}

// WriteFile writes the CSV to dir/name and returns the path.
func (b *CSVBuilder) WriteFile(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, b.Bytes(), 0644); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
	return path
}

// ArgoSample returns six profiles from January and February 2019 in the
// layout of the ARGO export: a timestamp, coordinates and two measured
// columns, with one missing and one NaN value.
//
// Rows by month: 2019-01 has 4, 2019-02 has 2. Two fall on 2019-01-29 or
// 2019-01-30.
func ArgoSample() *CSVBuilder {
	return NewCSVBuilder("datetime", "lat", "lon", "mld", "temperature").
		Row("2019-01-03 04:00:00", "65.5", "-3.25", "42.5", "3.1").
		Row("2019-01-15 10:30:00", "-45.0", "120.0", "80", "11.2").
		Row("2019-01-29 00:00:00", "70.25", "5.5", "", "2.4").
		Row("2019-01-30 23:59:59", "12.0", "-150.0", "10", "NaN").
		Row("2019-02-11 22:15:00", "79.0", "-9.75", "35", "1.9").
		Row("2019-02-20T06:00:00Z", "0.0", "0.0", "NA", "27.5")
}

// ArgoIndianOcean returns profiles around the box lat [-10, 10] x lon [60, 80].
// Three rows match, two of them on the corners. The rest miss by a hundredth
// of a degree on one axis, or sit in the transposed box lat [60, 80] x lon [-10, 10].
func ArgoIndianOcean() *CSVBuilder {
	return NewCSVBuilder("datetime", "lat", "lon", "mld", "temperature").
		Row("2019-03-01 00:00:00", "-10.0", "60.0", "22", "28.1").
		Row("2019-03-02 06:00:00", "10.0", "80.0", "31", "27.4").
		Row("2019-03-03 12:00:00", "0.5", "72.25", "", "28.6").
		Row("2019-03-04 18:00:00", "5.0", "80.01", "25", "27.9").
		Row("2019-03-05 00:00:00", "-10.01", "65.0", "40", "26.5").
		Row("2019-03-06 06:00:00", "10.01", "70.0", "18", "28.0").
		Row("2019-03-07 12:00:00", "3.0", "59.99", "27", "28.3").
		Row("2019-03-08 18:00:00", "70.0", "5.0", "55", "2.2")
}
