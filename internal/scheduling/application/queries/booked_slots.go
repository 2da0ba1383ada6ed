package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/cadence/internal/directory"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
)

// BookedSlotsQuery asks for occupied time inside a window.
type BookedSlotsQuery struct {
	Start   time.Time
	End     time.Time
	CoachID *uuid.UUID
}

// SlotDTO is one occupied slot.
type SlotDTO struct {
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	SessionID        uuid.UUID `json:"session_id"`
	Title            string    `json:"title"`
	CoachID          uuid.UUID `json:"coach_id"`
	ParticipantLabel string    `json:"participant_label"`
}

// BookedSlotsHandler reports non-cancelled sessions lying entirely inside
// a window.
type BookedSlotsHandler struct {
	repo      domain.SessionRepository
	directory directory.Directory
}

// NewBookedSlotsHandler creates a new BookedSlotsHandler. dir may be nil,
// in which case slots are labelled with the student id.
func NewBookedSlotsHandler(repo domain.SessionRepository, dir directory.Directory) *BookedSlotsHandler {
	return &BookedSlotsHandler{repo: repo, directory: dir}
}

// Handle returns slots ordered by start time.
func (h *BookedSlotsHandler) Handle(ctx context.Context, q BookedSlotsQuery) ([]SlotDTO, error) {
	window, err := domain.NewInterval(q.Start, q.End)
	if err != nil {
		return nil, err
	}

	sessions, err := h.repo.FindBooked(ctx, window, q.CoachID)
	if err != nil {
		return nil, domain.NewStoreError("find booked slots", err)
	}

	labels := make(map[uuid.UUID]string)
	slots := make([]SlotDTO, 0, len(sessions))
	for _, s := range sessions {
		if !s.OccupiesTime() || !s.Interval().Within(window) {
			continue
		}
		label, ok := labels[s.StudentID()]
		if !ok {
			label = directory.Resolve(ctx, h.directory, s.StudentID())
			labels[s.StudentID()] = label
		}
		slots = append(slots, SlotDTO{
			StartTime:        s.StartTime(),
			EndTime:          s.EndTime(),
			SessionID:        s.ID(),
			Title:            s.Title(),
			CoachID:          s.CoachID(),
			ParticipantLabel: label,
		})
	}
	return slots, nil
}
