package oceanq_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

func ptr[T any](v T) *T { return &v }

func TestMeasurement_MarshalJSON_ColumnOrder(t *testing.T) {
	ts := time.Date(2019, 1, 29, 12, 0, 0, 0, time.UTC)
	m := oceanq.NewMeasurement([]string{"datetime", "lat", "lon", "mld", "platform"})
	m.Timestamp = &ts
	m.Latitude = ptr(-3.5)
	m.Longitude = ptr(65.25)
	m.Values["mld"] = ptr(42.0)
	m.Attributes["platform"] = ptr("2902746")

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"datetime":"2019-01-29T12:00:00Z","lat":-3.5,"lon":65.25,"mld":42,"platform":"2902746"}`
	if string(data) != want {
		t.Errorf("Marshal =\n%s\nwant\n%s", data, want)
	}
}

func TestMeasurement_MarshalJSON_UndefinedValuesAreNull(t *testing.T) {
	m := oceanq.NewMeasurement([]string{"datetime", "lat", "lon", "mld", "temp", "missing"})
	m.Latitude = ptr(math.NaN())
	m.Longitude = ptr(10.0)
	m.Values["mld"] = ptr(math.NaN())
	m.Values["temp"] = ptr(math.Inf(1))
	m.Values["missing"] = nil

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"datetime":null,"lat":null,"lon":10,"mld":null,"temp":null,"missing":null}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}
}

func TestMeasurement_DefaultColumnOrder(t *testing.T) {
	m := oceanq.Measurement{Values: map[string]*float64{"zeta": nil, "mld": ptr(1.0)}}

	got := m.Columns()
	want := []string{"datetime", "lat", "lon", "mld", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("Columns() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Columns()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFinite(t *testing.T) {
	if oceanq.Finite(math.NaN()) != nil {
		t.Error("Finite(NaN) should be nil")
	}
	if oceanq.Finite(math.Inf(-1)) != nil {
		t.Error("Finite(-Inf) should be nil")
	}
	if v := oceanq.Finite(1.5); v == nil || *v != 1.5 {
		t.Errorf("Finite(1.5) = %v, want 1.5", v)
	}
}
