package query

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

func TestValidateLimit(t *testing.T) {
	assert.NoError(t, validateLimit(1))
	assert.NoError(t, validateLimit(oceanq.MaxLimit))

	err := validateLimit(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, oceanq.ErrValidation)

	var ve *oceanq.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "limit", ve.Field)
	assert.Equal(t, "must be between 1 and 10000, got 0", ve.Reason)
}

func TestValidateLocation_JoinsEveryFailure(t *testing.T) {
	err := validateLocation(oceanq.NewRange(95, 10), oceanq.NewRange(-200, 0), -5)
	require.Error(t, err)
	assert.ErrorIs(t, err, oceanq.ErrValidation)

	var fields []string
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var ve *oceanq.ValidationError
		require.True(t, errors.As(e, &ve))
		fields = append(fields, ve.Field)
	}
	assert.Equal(t, []string{"lat_range", "lon_range", "limit"}, fields)
}

func TestValidateLocation_NaN(t *testing.T) {
	assert.Error(t, validateLocation(oceanq.NewRange(0, 1), oceanq.NewRange(0, math.NaN()), 10))
	assert.Error(t, validateLocation(oceanq.NewRange(math.Inf(-1), 1), oceanq.NewRange(0, 1), 10))
	assert.NoError(t, validateLocation(oceanq.NewRange(-90, -90), oceanq.NewRange(180, 180), 10))
}

func TestValidateDates(t *testing.T) {
	from, to, err := validateDates("2019-01-01", "2019-12-31", 100)
	require.NoError(t, err)
	assert.Equal(t, "2019-01-01", from.Format(oceanq.DateLayout))
	assert.Equal(t, "2019-12-31", to.Format(oceanq.DateLayout))

	_, _, err = validateDates("2019-1-1", "2019-12-31", 100)
	assert.ErrorContains(t, err, `invalid start_date: "2019-1-1" is not a date in YYYY-MM-DD format`)

	_, _, err = validateDates("2019-03-01", "2019-02-01", 100)
	assert.ErrorContains(t, err, "start_date 2019-03-01 is after end_date 2019-02-01")
	assert.ErrorIs(t, err, oceanq.ErrValidation)
}
