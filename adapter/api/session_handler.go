package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const timeLayout = time.RFC3339

// SessionHandler serves the session and availability endpoints.
type SessionHandler struct {
	create      *commands.CreateSessionHandler
	update      *commands.UpdateSessionHandler
	cancel      *commands.CancelSessionHandler
	remove      *commands.DeleteSessionHandler
	get         *queries.GetSessionHandler
	list        *queries.ListSessionsHandler
	bookedSlots *queries.BookedSlotsHandler
	validate    *validator.Validate
	logger      *slog.Logger
	now         func() time.Time
}

// SessionHandlerConfig holds dependencies for the session handler.
type SessionHandlerConfig struct {
	CreateSession *commands.CreateSessionHandler
	UpdateSession *commands.UpdateSessionHandler
	CancelSession *commands.CancelSessionHandler
	DeleteSession *commands.DeleteSessionHandler
	GetSession    *queries.GetSessionHandler
	ListSessions  *queries.ListSessionsHandler
	BookedSlots   *queries.BookedSlotsHandler
	Logger        *slog.Logger
	Clock         func() time.Time
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(cfg SessionHandlerConfig) *SessionHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &SessionHandler{
		create:      cfg.CreateSession,
		update:      cfg.UpdateSession,
		cancel:      cfg.CancelSession,
		remove:      cfg.DeleteSession,
		get:         cfg.GetSession,
		list:        cfg.ListSessions,
		bookedSlots: cfg.BookedSlots,
		validate:    validator.New(),
		logger:      cfg.Logger,
		now:         cfg.Clock,
	}
}

// CreateSessionRequest is the body of POST /api/v1/sessions.
type CreateSessionRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
	StudentID   string `json:"student_id" validate:"required"`
	CoachID     string `json:"coach_id" validate:"required"`
	Status      string `json:"status"`
}

// UpdateSessionRequest is the body of PATCH /api/v1/sessions/{id}. Absent
// fields are left unchanged.
type UpdateSessionRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	Status      *string `json:"status"`
}

// CreateSession handles POST /api/v1/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	studentID, err := requiredUUID("student_id", req.StudentID)
	if err != nil {
		writeError(w, err)
		return
	}
	coachID, err := requiredUUID("coach_id", req.CoachID)
	if err != nil {
		writeError(w, err)
		return
	}
	start, end, err := parseRange(req.StartTime, req.EndTime)
	if err != nil {
		writeError(w, err)
		return
	}

	session, err := h.create.Handle(r.Context(), commands.CreateSessionCommand{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   start,
		EndTime:     end,
		StudentID:   studentID,
		CoachID:     coachID,
		Status:      req.Status,
	})
	if err != nil {
		h.fail(r, "create session", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, queries.ToSessionDTO(session))
}

// ListSessions handles GET /api/v1/sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	var q queries.ListSessionsQuery
	var err error

	if q.From, err = optionalTime(params.Get("start_time")); err != nil {
		writeError(w, err)
		return
	}
	if q.To, err = optionalTime(params.Get("end_time")); err != nil {
		writeError(w, err)
		return
	}
	if q.StudentID, err = optionalUUID("student_id", params.Get("student_id")); err != nil {
		writeError(w, err)
		return
	}
	if q.CoachID, err = optionalUUID("coach_id", params.Get("coach_id")); err != nil {
		writeError(w, err)
		return
	}
	if status := params.Get("status"); status != "" {
		q.Status = &status
	}

	sessions, err := h.list.Handle(r.Context(), q)
	if err != nil {
		h.fail(r, "list sessions", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}

// GetSession handles GET /api/v1/sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	session, err := h.get.Handle(r.Context(), queries.GetSessionQuery{ID: id})
	if err != nil {
		h.fail(r, "get session", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// UpdateSession handles PATCH /api/v1/sessions/{id}
func (h *SessionHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateSessionRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	cmd := commands.UpdateSessionCommand{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	}
	if req.StartTime != nil {
		start, err := parseTimestamp(*req.StartTime)
		if err != nil {
			writeError(w, err)
			return
		}
		cmd.StartTime = &start
	}
	if req.EndTime != nil {
		end, err := parseTimestamp(*req.EndTime)
		if err != nil {
			writeError(w, err)
			return
		}
		cmd.EndTime = &end
	}

	session, err := h.update.Handle(r.Context(), cmd)
	if err != nil {
		h.fail(r, "update session", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, queries.ToSessionDTO(session))
}

// DeleteSession handles DELETE /api/v1/sessions/{id}. The session is
// cancelled unless permanent=true asks for removal.
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("permanent") != "true" {
		h.CancelSession(w, r)
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.remove.Handle(r.Context(), commands.DeleteSessionCommand{ID: id}); err != nil {
		h.fail(r, "delete session", err)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CancelSession handles POST /api/v1/sessions/{id}/cancel
func (h *SessionHandler) CancelSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	session, err := h.cancel.Handle(r.Context(), commands.CancelSessionCommand{ID: id})
	if err != nil {
		h.fail(r, "cancel session", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, queries.ToSessionDTO(session))
}

// BookedSlots handles GET /api/v1/slots
func (h *SessionHandler) BookedSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.slots(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

// BookedSlotsCalendar handles GET /api/v1/slots.ics
func (h *SessionHandler) BookedSlotsCalendar(w http.ResponseWriter, r *http.Request) {
	slots, err := h.slots(r)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="booked-slots.ics"`)
	if err := queries.WriteCalendar(w, slots, h.now()); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to encode calendar", "error", err)
	}
}

func (h *SessionHandler) slots(r *http.Request) ([]queries.SlotDTO, error) {
	params := r.URL.Query()
	start, end, err := parseRange(params.Get("start_time"), params.Get("end_time"))
	if err != nil {
		return nil, err
	}
	coachID, err := optionalUUID("coach_id", params.Get("coach_id"))
	if err != nil {
		return nil, err
	}

	slots, err := h.bookedSlots.Handle(r.Context(), queries.BookedSlotsQuery{Start: start, End: end, CoachID: coachID})
	if err != nil {
		h.fail(r, "booked slots", err)
		return nil, err
	}
	return slots, nil
}

// decode reads a JSON body and runs struct validation.
func (h *SessionHandler) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return badRequest("cannot parse JSON body: " + err.Error())
	}

	if err := h.validate.Struct(dst); err != nil {
		apiErr := badRequest("invalid input")
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			apiErr.Details = make(map[string]any, len(fieldErrs))
			for _, fe := range fieldErrs {
				apiErr.Details[fe.Field()] = fe.Tag()
			}
		}
		return apiErr
	}
	return nil
}

// fail logs unexpected failures. Client errors are logged by the request
// middleware only.
func (h *SessionHandler) fail(r *http.Request, op string, err error) {
	if toAPIError(err).Status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "operation", op, "error", err)
	}
}

// parseTimestamp accepts RFC 3339 timestamps with an explicit offset.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not an RFC 3339 timestamp with offset", domain.ErrInvalidInterval, s)
	}
	return t, nil
}

func parseRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	if startRaw == "" || endRaw == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start_time and end_time are required", domain.ErrInvalidInterval)
	}
	start, err := parseTimestamp(startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseTimestamp(endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func optionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseTimestamp(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func requiredUUID(name, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		apiErr := badRequest(fmt.Sprintf("invalid %s", name))
		apiErr.Details = map[string]any{name: "uuid"}
		return uuid.Nil, apiErr
	}
	return id, nil
}

func optionalUUID(name, s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, badRequest(fmt.Sprintf("invalid %s", name))
	}
	return &id, nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, badRequest("invalid session ID format")
	}
	return id, nil
}
