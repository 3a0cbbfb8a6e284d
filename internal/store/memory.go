package store

import (
	"context"
	"sync"

	"github.com/XavierBriggs/Paddock/pkg/contracts"
	"github.com/XavierBriggs/Paddock/pkg/models"
)

// Memory is an in-memory RaceStore for tests.
type Memory struct {
	mu      sync.Mutex
	meeting *models.Meeting
	races   map[string]models.StoredRace

	// UpdateCalls counts UpdateRunners invocations, letting tests
	// assert writes happen per race rather than per runner.
	UpdateCalls int
}

var _ contracts.RaceStore = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{races: make(map[string]models.StoredRace)}
}

// SetActiveMeeting stores the active meeting document.
func (m *Memory) SetActiveMeeting(ctx context.Context, meeting models.Meeting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meeting = &meeting
	return nil
}

// GetActiveMeeting returns the active meeting, or nil when unset.
func (m *Memory) GetActiveMeeting(ctx context.Context) (*models.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.meeting == nil {
		return nil, nil
	}
	meeting := *m.meeting
	return &meeting, nil
}

// Put seeds a race document.
func (m *Memory) Put(race models.StoredRace) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.races[race.ID] = race
}

// UpsertRace inserts or replaces a race document, keeping an existing
// result when the incoming document carries none.
func (m *Memory) UpsertRace(ctx context.Context, race models.StoredRace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.races[race.ID]; ok && race.Result == nil {
		race.Result = existing.Result
	}
	m.races[race.ID] = race
	return nil
}

// Get returns a race by id for test assertions.
func (m *Memory) Get(raceID string) (models.StoredRace, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	race, ok := m.races[raceID]
	return race, ok
}

// ListRacesByDate returns all races stored for the given date.
func (m *Memory) ListRacesByDate(ctx context.Context, date string) ([]models.StoredRace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var races []models.StoredRace
	for _, race := range m.races {
		if race.Date == date {
			races = append(races, race)
		}
	}
	return races, nil
}

// UpdateRunners replaces the runner list of a race.
func (m *Memory) UpdateRunners(ctx context.Context, raceID string, runners []models.RaceRunner, oddsUpdatedAt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	race, ok := m.races[raceID]
	if !ok {
		return &StoreError{Op: "update runners", Key: raceID, Err: errNotFound}
	}
	race.Runners = runners
	m.races[raceID] = race
	return nil
}

// SetResult attaches a result when none exists yet.
func (m *Memory) SetResult(ctx context.Context, raceID string, result models.RaceResult) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	race, ok := m.races[raceID]
	if !ok {
		return false, &StoreError{Op: "set result", Key: raceID, Err: errNotFound}
	}
	if race.Result != nil {
		return false, nil
	}
	race.Result = &result
	m.races[raceID] = race
	return true, nil
}

type notFoundError struct{}

func (notFoundError) Error() string { return "race not found" }

var errNotFound = notFoundError{}
