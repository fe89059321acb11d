package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/medorbit/telecare/utils"
)

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"validation", utils.ValidationError("amount must be positive"), http.StatusBadRequest, "validation"},
		{"authorization denied", utils.AuthorizationDeniedError("not yours"), http.StatusForbidden, "authorization_denied"},
		{"not found", utils.NotFoundError("payment", "p1"), http.StatusNotFound, "not_found"},
		{"invalid transition", utils.InvalidTransitionError("completed", "completed"), http.StatusConflict, "invalid_state_transition"},
		{"resource conflict", utils.ResourceConflictError("slot is already booked"), http.StatusConflict, "resource_conflict"},
		{"lock busy", utils.LockBusyError("payment:c1:u1"), http.StatusConflict, "lock_busy"},
		{"deadlock", utils.DeadlockError(errors.New("40P01")), http.StatusServiceUnavailable, "deadlock_detected"},
		{"unavailable", utils.UnavailableError("circuit breaker is open"), http.StatusServiceUnavailable, "unavailable"},
		{"plain error", errors.New("pq: connection reset"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid error body: %v", err)
			}
			if resp.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", resp.Kind, tt.wantKind)
			}
		})
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	if strings.Contains(w.Body.String(), "10.0.0.5") {
		t.Error("internal error details leaked into response body")
	}
}

func TestPaymentHandler_InvalidBody(t *testing.T) {
	handler := CreatePaymentHandler(nil)

	req := httptest.NewRequest("POST", "/v1/payments", strings.NewReader("not json"))
	w := httptest.NewRecorder()

	handler.HandleProcess(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAppointmentHandler_InvalidBody(t *testing.T) {
	handler := CreateAppointmentHandler(nil)

	req := httptest.NewRequest("POST", "/v1/appointments", strings.NewReader("{"))
	w := httptest.NewRecorder()

	handler.HandleBook(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
