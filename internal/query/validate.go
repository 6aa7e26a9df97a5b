package query

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("param"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

type limitParams struct {
	Limit int `param:"limit" validate:"gte=1,lte=10000"`
}

type locationParams struct {
	LatMin float64 `param:"lat_range" validate:"gte=-90,lte=90"`
	LatMax float64 `param:"lat_range" validate:"gte=-90,lte=90,gtefield=LatMin"`
	LonMin float64 `param:"lon_range" validate:"gte=-180,lte=180"`
	LonMax float64 `param:"lon_range" validate:"gte=-180,lte=180,gtefield=LonMin"`
	Limit  int     `param:"limit" validate:"gte=1,lte=10000"`
}

type dateParams struct {
	Start string `param:"start_date" validate:"required,datetime=2006-01-02"`
	End   string `param:"end_date" validate:"required,datetime=2006-01-02"`
	Limit int    `param:"limit" validate:"gte=1,lte=10000"`
}

// check validates params and converts every failing parameter into one
// *oceanq.ValidationError. describe supplies the reason for a parameter name.
func check(params any, describe func(field string) string) error {
	err := validate.Struct(params)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return oceanq.NewValidationError("", "%v", err)
	}

	seen := map[string]bool{}
	var errs []error
	for _, fe := range fieldErrs {
		name := fe.Field()
		if seen[name] {
			continue
		}
		seen[name] = true
		errs = append(errs, &oceanq.ValidationError{Field: name, Reason: describe(name)})
	}
	return errors.Join(errs...)
}

func limitReason(limit int) string {
	return fmt.Sprintf("must be between 1 and %d, got %d", oceanq.MaxLimit, limit)
}

func validateLimit(limit int) error {
	return check(limitParams{Limit: limit}, func(string) string {
		return limitReason(limit)
	})
}

func validateLocation(lat, lon oceanq.Range, limit int) error {
	p := locationParams{
		LatMin: lat.Min, LatMax: lat.Max,
		LonMin: lon.Min, LonMax: lon.Max,
		Limit: limit,
	}
	return check(p, func(field string) string {
		switch field {
		case "lat_range":
			return fmt.Sprintf("latitudes must satisfy %g <= min <= max <= %g, got %s",
				oceanq.MinLatitude, oceanq.MaxLatitude, lat)
		case "lon_range":
			return fmt.Sprintf("longitudes must satisfy %g <= min <= max <= %g, got %s",
				oceanq.MinLongitude, oceanq.MaxLongitude, lon)
		default:
			return limitReason(limit)
		}
	})
}

// validateDates checks both boundaries and returns them parsed.
func validateDates(start, end string, limit int) (time.Time, time.Time, error) {
	p := dateParams{Start: start, End: end, Limit: limit}
	err := check(p, func(field string) string {
		switch field {
		case "start_date":
			return fmt.Sprintf("%q is not a date in YYYY-MM-DD format", start)
		case "end_date":
			return fmt.Sprintf("%q is not a date in YYYY-MM-DD format", end)
		default:
			return limitReason(limit)
		}
	})
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	from, _ := time.Parse(oceanq.DateLayout, start)
	to, _ := time.Parse(oceanq.DateLayout, end)
	if from.After(to) {
		return time.Time{}, time.Time{}, oceanq.NewValidationError("date range",
			"start_date %s is after end_date %s", start, end)
	}
	return from, to, nil
}
