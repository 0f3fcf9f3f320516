package ports

import (
	"context"

	"github.com/agentry-dev/agentry/pkg/domain"
)

// RunStore defines the interface for persisting run snapshots.
// This enables durable execution: a run suspended on an approval can be
// persisted, the process restarted, and the engine reconstructed mid-suspension.
type RunStore interface {
	// Save persists the snapshot under its run id.
	Save(ctx context.Context, snap *domain.RunSnapshot) error

	// Load retrieves the snapshot for a run id.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.RunSnapshot, error)

	// Delete removes the snapshot for a run id.
	Delete(ctx context.Context, runID string) error

	// List returns the ids of all persisted runs.
	List(ctx context.Context) ([]string, error)
}
