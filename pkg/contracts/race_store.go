package contracts

import (
	"context"

	"github.com/XavierBriggs/Paddock/pkg/models"
)

// RaceStore is the document store the reconciliation passes read and
// update. The store itself is external; this interface covers the three
// operations the core depends on: get-by-key for the configuration
// document, filter-by-equality over races, and partial field updates.
type RaceStore interface {
	// GetActiveMeeting returns the active-meeting config document, or
	// (nil, nil) when none is set.
	GetActiveMeeting(ctx context.Context) (*models.Meeting, error)

	// ListRacesByDate returns all stored races for a YYYY-MM-DD date.
	ListRacesByDate(ctx context.Context, date string) ([]models.StoredRace, error)

	// UpdateRunners replaces a race's runner list and stamps the odds
	// update time (RFC3339) when oddsUpdatedAt is non-empty. Other
	// fields are untouched.
	UpdateRunners(ctx context.Context, raceID string, runners []models.RaceRunner, oddsUpdatedAt string) error

	// SetResult attaches a result to a race that does not already have
	// one. Returns false without error when the race already holds a
	// result, making the call safe to repeat.
	SetResult(ctx context.Context, raceID string, result models.RaceResult) (bool, error)
}
