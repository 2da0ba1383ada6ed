// Package directory resolves participant ids to display names.
package directory

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// ErrUnknownParticipant is returned when the directory has no entry.
var ErrUnknownParticipant = errors.New("participant not found")

// Directory looks up participant display names.
type Directory interface {
	DisplayName(ctx context.Context, id uuid.UUID) (string, error)
}

// Resolve returns the display name of id, or the id itself when the
// lookup fails. Lookups never fail the caller.
func Resolve(ctx context.Context, d Directory, id uuid.UUID) string {
	if d == nil {
		return id.String()
	}
	name, err := d.DisplayName(ctx, id)
	if err != nil || name == "" {
		if err != nil && !errors.Is(err, ErrUnknownParticipant) {
			slog.WarnContext(ctx, "participant lookup failed", "participant_id", id, "error", err)
		}
		return id.String()
	}
	return name
}

// StaticDirectory serves names from a fixed map.
type StaticDirectory struct {
	names map[uuid.UUID]string
}

// NewStaticDirectory creates a directory over names. A nil map yields an
// empty directory.
func NewStaticDirectory(names map[uuid.UUID]string) *StaticDirectory {
	copied := make(map[uuid.UUID]string, len(names))
	for id, name := range names {
		copied[id] = name
	}
	return &StaticDirectory{names: copied}
}

// DisplayName returns the stored name.
func (d *StaticDirectory) DisplayName(_ context.Context, id uuid.UUID) (string, error) {
	name, ok := d.names[id]
	if !ok {
		return "", ErrUnknownParticipant
	}
	return name, nil
}
