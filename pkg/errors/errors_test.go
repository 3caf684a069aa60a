package errors

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestAppErrorMessage(t *testing.T) {
	err := NotFoundWithID("Booking", "abc123")

	if err.Code != CodeNotFound {
		t.Errorf("expected code %s, got %s", CodeNotFound, err.Code)
	}
	if err.StatusCode() != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", err.StatusCode())
	}
	if err.Details["id"] != "abc123" {
		t.Errorf("expected id detail abc123, got %v", err.Details["id"])
	}
	if !strings.Contains(err.Error(), "Booking not found") {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal("Failed to reach store", cause)

	if !errors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable via errors.Is")
	}
	if !strings.Contains(err.Error(), "caused by: connection refused") {
		t.Errorf("expected cause in error string, got: %s", err.Error())
	}
}

func TestAsAppError(t *testing.T) {
	plain := errors.New("boom")
	appErr := AsAppError(plain)

	if appErr.Code != CodeInternal {
		t.Errorf("expected plain errors to map to %s, got %s", CodeInternal, appErr.Code)
	}

	conflict := Conflict("already approved")
	if got := AsAppError(conflict); got != conflict {
		t.Error("expected AsAppError to pass AppError through unchanged")
	}
}

func TestToJSONOmitsInternals(t *testing.T) {
	err := Internal("Failed to write calendar", errors.New("socket closed"))
	payload := string(err.ToJSON())

	if strings.Contains(payload, "socket closed") {
		t.Errorf("internal cause leaked into JSON payload: %s", payload)
	}
	if !strings.Contains(payload, CodeInternal) {
		t.Errorf("expected code in JSON payload: %s", payload)
	}
}
