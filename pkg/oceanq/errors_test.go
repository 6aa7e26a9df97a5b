package oceanq_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

func TestExitCodeForError_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown flag", errors.New("unknown flag --foo"), oceanq.ExitUsageError},
		{"unknown shorthand flag", errors.New("unknown shorthand flag: 'x'"), oceanq.ExitUsageError},
		{"accepts args", errors.New("accepts at most 1 arg(s), received 2"), oceanq.ExitUsageError},
		{"invalid argument", errors.New("invalid argument \"abc\" for \"--limit\""), oceanq.ExitUsageError},
		{"general error", errors.New("something went wrong"), oceanq.ExitGeneralError},
		{"nil error", nil, oceanq.ExitSuccess},
		{"connection refused text", errors.New("dial tcp: connection refused"), oceanq.ExitConnectionError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := oceanq.ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodeForError_Sentinels(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{oceanq.ErrInvalidConfig, oceanq.ExitConfigError},
		{oceanq.ErrUnsupportedAuthMethod, oceanq.ExitConfigError},
		{oceanq.ErrValidation, oceanq.ExitValidationFailed},
		{oceanq.ErrConnection, oceanq.ExitConnectionError},
		{oceanq.ErrApprovalDenied, oceanq.ExitApprovalDenied},
		{oceanq.ErrQueryExecution, oceanq.ExitQueryFailed},
		{oceanq.ErrSourceNotFound, oceanq.ExitSourceNotFound},
		{oceanq.ErrSchemaMismatch, oceanq.ExitSchemaMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if got := oceanq.ExitCodeForError(wrapped); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", wrapped, got, tt.want)
			}
		})
	}
}

func TestValidationError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("query: %w", oceanq.NewValidationError("limit", "must be between 1 and %d", oceanq.MaxLimit))

	if !errors.Is(err, oceanq.ErrValidation) {
		t.Fatalf("expected errors.Is(err, ErrValidation) for %v", err)
	}
	if errors.Is(err, oceanq.ErrQueryExecution) {
		t.Errorf("validation error must not match ErrQueryExecution")
	}

	var ve *oceanq.ValidationError
	if !errors.As(err, &ve) {
		t.Fatal("expected errors.As to find *ValidationError")
	}
	if ve.Field != "limit" {
		t.Errorf("Field = %q, want limit", ve.Field)
	}
	if want := "invalid limit: must be between 1 and 10000"; ve.Error() != want {
		t.Errorf("Error() = %q, want %q", ve.Error(), want)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want oceanq.ErrorKind
	}{
		{oceanq.NewValidationError("lat_range", "bad"), oceanq.ErrorKindValidation},
		{fmt.Errorf("ping: %w", oceanq.ErrConnection), oceanq.ErrorKindConnection},
		{fmt.Errorf("select: %w", oceanq.ErrQueryExecution), oceanq.ErrorKindQueryExecution},
		{errors.New("anything else"), oceanq.ErrorKindQueryExecution},
	}

	for _, tt := range tests {
		if got := oceanq.KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
