package service

import (
	"context"

	"github.com/jaidevxr/monsoon-guardian-sub001/internal/models"
)

// SyncService is the handler-facing surface of the sync coordinator.
type SyncService interface {
	// TriggerDrain starts a drain pass unless one is already running.
	// Returns true when a new pass was started.
	TriggerDrain(ctx context.Context) bool
	// LastSummary returns the most recent drain result, if any pass has
	// completed since startup.
	LastSummary() (models.DrainSummary, bool)
}
