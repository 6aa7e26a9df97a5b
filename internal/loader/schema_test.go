package loader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argo-ocean/oceanq/internal/db/manager"
	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

func TestParseHeader(t *testing.T) {
	s, err := parseHeader([]string{"lon", "Temperature", "datetime", "LAT", "mld"})
	require.NoError(t, err)

	assert.Equal(t, []string{"lon", "temperature", "datetime", "lat", "mld"}, s.columns)
	assert.Equal(t, []string{"temperature", "mld"}, s.measured)
	assert.Equal(t, 2, s.tsIdx)
	assert.Equal(t, 3, s.latIdx)
	assert.Equal(t, 0, s.lonIdx)
}

func TestParseHeader_Rejects(t *testing.T) {
	tests := map[string][]string{
		"empty column":  {"datetime", "lat", "lon", " "},
		"duplicate":     {"datetime", "lat", "lon", "lat"},
		"missing lon":   {"datetime", "lat"},
		"overlong name": {"datetime", "lat", "lon", "m234567890123456789012345678901234567890123456789012345678901234"},
		"no columns":    {},
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseHeader(header)
			assert.ErrorIs(t, err, oceanq.ErrSchemaMismatch)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2019, 1, 29, 13, 45, 0, 0, time.UTC)
	for _, in := range []string{
		"2019-01-29 13:45:00",
		"2019-01-29T13:45:00",
		"2019-01-29T13:45:00Z",
		"2019-01-29T15:45:00+02:00",
		"2019-01-29 13:45:00+00:00",
	} {
		got, err := parseTimestamp(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s parsed as %s", in, got)
		assert.Equal(t, time.UTC, got.Location(), in)
	}

	got, err := parseTimestamp("2019-01-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2019, 1, 29, 0, 0, 0, 0, time.UTC), got)

	_, err = parseTimestamp("29/01/2019")
	assert.Error(t, err)
}

func TestParseMeasured(t *testing.T) {
	for _, null := range []string{"", "NaN", "nan", "NA", "n/a", "NULL", "null", "Inf", "-inf"} {
		v, err := parseMeasured(null)
		require.NoError(t, err, null)
		assert.Nil(t, v, null)
	}

	v, err := parseMeasured("1e3")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, v)

	_, err = parseMeasured("12,5")
	assert.ErrorContains(t, err, `invalid number "12,5"`)
}

func TestParseCoordinate(t *testing.T) {
	v, err := parseCoordinate("-180", oceanq.MinLongitude, oceanq.MaxLongitude)
	require.NoError(t, err)
	assert.Equal(t, -180.0, v)

	_, err = parseCoordinate("NaN", oceanq.MinLatitude, oceanq.MaxLatitude)
	assert.Error(t, err)
	_, err = parseCoordinate("", oceanq.MinLatitude, oceanq.MaxLatitude)
	assert.Error(t, err)
	_, err = parseCoordinate("-90.0001", oceanq.MinLatitude, oceanq.MaxLatitude)
	assert.ErrorContains(t, err, "outside [-90, 90]")
}

func TestCheckAgainst(t *testing.T) {
	s, err := parseHeader([]string{"datetime", "lat", "lon", "mld"})
	require.NoError(t, err)

	existing := []manager.Column{{Name: "datetime"}, {Name: "lat"}, {Name: "lon"}, {Name: "mld"}, {Name: "salinity"}}
	assert.NoError(t, s.checkAgainst("argo_data", existing))
	assert.ErrorIs(t, s.checkAgainst("argo_data", existing[:3]), oceanq.ErrSchemaMismatch)
}

func TestPreview(t *testing.T) {
	long := make([]byte, oceanq.MaxErrorPreviewLength+50)
	for i := range long {
		long[i] = 'x'
	}
	got := preview(string(long))
	assert.Len(t, got, oceanq.MaxErrorPreviewLength+3)
	assert.Equal(t, "short", preview("short"))
}
