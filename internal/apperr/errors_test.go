package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/apperr"
)

func TestNewValidation(t *testing.T) {
	err := apperr.NewValidation("field is required")

	if err.Error() != "field is required" {
		t.Errorf("expected 'field is required', got %q", err.Error())
	}
	if err.Unwrap() != nil {
		t.Errorf("expected nil unwrap, got %v", err.Unwrap())
	}
}

func TestNewValidationWrap(t *testing.T) {
	inner := fmt.Errorf("parse failed")
	err := apperr.NewValidationWrap("invalid urn", inner)

	if err.Error() != "invalid urn: parse failed" {
		t.Errorf("expected 'invalid urn: parse failed', got %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to return inner error")
	}
}

func TestValidationError_SurvivesFmtWrapping(t *testing.T) {
	original := apperr.NewValidation("run id is required")

	wrapped := fmt.Errorf("failed to build context: %w", original)
	doubleWrapped := fmt.Errorf("pipeline error: %w", wrapped)

	var ve *apperr.ValidationError
	if !errors.As(doubleWrapped, &ve) {
		t.Fatal("errors.As should find ValidationError through double wrapping")
	}
	if ve.Message != "run id is required" {
		t.Errorf("expected 'run id is required', got %q", ve.Message)
	}
}

func TestConnectionError_KeepsEndpointAndCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := apperr.NewConnection("http://localhost:8080", cause)

	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to return the cause")
	}
	want := "failed to connect to metadata service at http://localhost:8080: connection refused"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}

	var ce *apperr.ConnectionError
	if !errors.As(fmt.Errorf("run: %w", err), &ce) {
		t.Fatal("errors.As should find ConnectionError")
	}
	if ce.Endpoint != "http://localhost:8080" {
		t.Errorf("unexpected endpoint %q", ce.Endpoint)
	}
}

func TestDuplicateRegistration_NamesCommittable(t *testing.T) {
	err := apperr.NewDuplicateRegistration("stale_entity_removal")

	if err.Error() != `checkpointing provider "stale_entity_removal" already registered` {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestMalformedWorkUnit(t *testing.T) {
	inner := errors.New("empty id")

	withID := apperr.NewMalformedWorkUnit("wu-1", inner)
	if withID.Error() != `malformed work unit "wu-1": empty id` {
		t.Errorf("unexpected message %q", withID.Error())
	}
	withoutID := apperr.NewMalformedWorkUnit("", inner)
	if withoutID.Error() != "malformed work unit: empty id" {
		t.Errorf("unexpected message %q", withoutID.Error())
	}
	if !errors.Is(withID, inner) {
		t.Error("expected Unwrap to return inner error")
	}
}

func TestValidationError_NotFoundForPlainErrors(t *testing.T) {
	plain := fmt.Errorf("database connection failed")
	wrapped := fmt.Errorf("storage error: %w", plain)

	var ve *apperr.ValidationError
	if errors.As(wrapped, &ve) {
		t.Fatal("errors.As should NOT find ValidationError in plain error chain")
	}
}
