package repository

import (
	"context"

	"github.com/transit-ticketing-service/internal/domain"
)

// SnapshotRepository persists the registry state as a whole.
type SnapshotRepository interface {
	// Load returns the last saved snapshot, or an empty one when the
	// store has never been written.
	Load(ctx context.Context) (*domain.Snapshot, error)

	// Save replaces the stored snapshot atomically.
	Save(ctx context.Context, snap *domain.Snapshot) error
}
