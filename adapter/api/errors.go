package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// APIError is the JSON body of every error response.
type APIError struct {
	Status   int            `json:"-"`
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Conflict *conflictBody  `json:"conflict,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type conflictBody struct {
	Participant   string    `json:"participant"`
	ParticipantID uuid.UUID `json:"participant_id"`
	DisplayName   string    `json:"display_name"`
	SessionID     uuid.UUID `json:"session_id,omitempty"`
	StartTime     string    `json:"start_time,omitempty"`
	EndTime       string    `json:"end_time,omitempty"`
}

func badRequest(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: "bad_request", Message: message}
}

// toAPIError maps domain errors onto HTTP responses.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		body := &conflictBody{
			Participant:   string(conflict.Participant),
			ParticipantID: conflict.ParticipantID,
			DisplayName:   conflict.DisplayName,
			SessionID:     conflict.SessionID,
		}
		if !conflict.Interval.IsEmpty() {
			body.StartTime = conflict.Interval.Start.Format(timeLayout)
			body.EndTime = conflict.Interval.End.Format(timeLayout)
		}
		return &APIError{Status: http.StatusConflict, Code: "scheduling_conflict", Message: err.Error(), Conflict: body}
	}

	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "not_found", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidInterval):
		return &APIError{Status: http.StatusUnprocessableEntity, Code: "invalid_interval", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidStatus):
		return &APIError{Status: http.StatusUnprocessableEntity, Code: "invalid_status", Message: err.Error(),
			Details: map[string]any{"allowed": domain.Statuses}}
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		return &APIError{Status: http.StatusUnprocessableEntity, Code: "invalid_status_transition", Message: err.Error()}
	case domain.IsValidationError(err):
		return &APIError{Status: http.StatusUnprocessableEntity, Code: "validation_failed", Message: err.Error()}
	case errors.Is(err, domain.ErrStoreFailure):
		return &APIError{Status: http.StatusServiceUnavailable, Code: "store_unavailable", Message: "session store unavailable"}
	}
	return &APIError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal server error"}
}

func writeError(w http.ResponseWriter, err error) {
	apiErr := toAPIError(err)
	if apiErr.Status == http.StatusServiceUnavailable && database.IsTransactionAborted(err) {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, apiErr.Status, apiErr)
}
