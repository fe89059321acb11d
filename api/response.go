package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medorbit/telecare/utils"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses. Anything that
// is not a DomainError is reported as a bare 500 so internals stay out of the
// response body.
func writeError(w http.ResponseWriter, err error) {
	var domainErr *utils.DomainError
	if !errors.As(err, &domainErr) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch domainErr.Kind {
	case utils.KindValidation:
		status = http.StatusBadRequest
	case utils.KindAuthorizationDenied:
		status = http.StatusForbidden
	case utils.KindNotFound:
		status = http.StatusNotFound
	case utils.KindInvalidStateTransition, utils.KindResourceConflict, utils.KindLockBusy:
		status = http.StatusConflict
	case utils.KindDeadlockDetected, utils.KindUnavailable:
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, ErrorResponse{Error: domainErr.Message, Kind: string(domainErr.Kind)})
}
