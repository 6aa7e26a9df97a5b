package oceanq

import (
	"encoding/json"
	"fmt"
	"time"
)

// QueryType names the operation that produced an envelope.
type QueryType string

const (
	QueryTypeSampleData QueryType = "sample_data"
	QueryTypeDataCount  QueryType = "data_count"
	QueryTypeLocation   QueryType = "location_filter"
	QueryTypeDateRange  QueryType = "date_range_filter"
	QueryTypeSummary    QueryType = "data_summary"
)

// Envelope is the uniform response of every query operation.
// Callers branch on Success without knowing which operation ran.
type Envelope[T any] struct {
	Success   bool         `json:"success"`
	Timestamp time.Time    `json:"timestamp"`
	Message   string       `json:"message"`
	Data      T            `json:"data"`
	Metadata  *Metadata    `json:"metadata,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail explains a failed operation.
type ErrorDetail struct {
	Kind   ErrorKind `json:"kind"`
	Detail string    `json:"detail"`
}

// Err returns nil for a successful envelope, otherwise an error that matches
// the sentinel of the failure kind (ErrValidation, ErrConnection or ErrQueryExecution).
func (e Envelope[T]) Err() error {
	if e.Success {
		return nil
	}
	if e.Error == nil {
		return fmt.Errorf("%s: %w", e.Message, ErrQueryExecution)
	}
	return fmt.Errorf("%s: %w", e.Message, e.Error.Kind.sentinel())
}

// Metadata describes the query behind an envelope.
type Metadata struct {
	QueryID         string    `json:"query_id"`
	QueryType       QueryType `json:"query_type"`
	TableName       string    `json:"table_name"`
	Filters         *Filters  `json:"filters,omitempty"`
	Limit           int       `json:"limit,omitempty"`
	ReturnedRecords *int      `json:"returned_records,omitempty"`
	Columns         []string  `json:"columns,omitempty"`
}

// Filters echoes the validated filter parameters of a query.
type Filters struct {
	LatitudeRange  *Range `json:"latitude_range,omitempty"`
	LongitudeRange *Range `json:"longitude_range,omitempty"`
	StartDate      string `json:"start_date,omitempty"`
	EndDate        string `json:"end_date,omitempty"`
}

// Range is an inclusive [Min, Max] pair. It encodes as a two-element JSON array.
type Range struct {
	Min float64
	Max float64
}

// NewRange builds a Range.
func NewRange(min, max float64) Range {
	return Range{Min: min, Max: max}
}

func (r Range) String() string {
	return fmt.Sprintf("(%g, %g)", r.Min, r.Max)
}

func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{r.Min, r.Max})
}

func (r *Range) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("range must be a [min, max] array: %w", err)
	}
	r.Min, r.Max = pair[0], pair[1]
	return nil
}

// Count is the payload of GetDataCount.
type Count struct {
	TotalRecords int64 `json:"total_records"`
}

// Summary is the payload of GetDataSummary.
type Summary struct {
	DatasetOverview      DatasetOverview        `json:"dataset_overview"`
	GeographicExtent     GeographicExtent       `json:"geographic_extent"`
	MeasurementStats     map[string]ColumnStats `json:"measurement_stats"`
	TemporalDistribution []MonthCount           `json:"temporal_distribution"`
}

// NewSummary returns an empty summary with non-nil collections, the shape
// reported for an empty table.
func NewSummary() Summary {
	return Summary{
		MeasurementStats:     map[string]ColumnStats{},
		TemporalDistribution: []MonthCount{},
	}
}

type DatasetOverview struct {
	TotalRecords int64     `json:"total_records"`
	UniqueDates  int64     `json:"unique_dates"`
	DateRange    DateRange `json:"date_range"`
}

type DateRange struct {
	Earliest *time.Time `json:"earliest"`
	Latest   *time.Time `json:"latest"`
}

type GeographicExtent struct {
	LatitudeRange  Extent `json:"latitude_range"`
	LongitudeRange Extent `json:"longitude_range"`
}

// Extent is a min/max pair that is null when the table is empty.
type Extent struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// ColumnStats aggregates one measured column. Count is the number of non-null values.
type ColumnStats struct {
	Average *float64 `json:"average"`
	Minimum *float64 `json:"minimum"`
	Maximum *float64 `json:"maximum"`
	Count   int64    `json:"count"`
}

// MonthCount is one bucket of the temporal distribution.
type MonthCount struct {
	Year        int   `json:"year"`
	Month       int   `json:"month"`
	RecordCount int64 `json:"record_count"`
}
