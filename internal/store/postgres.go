// Package store implements the race document store on PostgreSQL, with
// an in-memory twin for testing. Races are stored as one row per race
// with JSONB runner and result documents; updates touch single fields,
// never the whole row.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/XavierBriggs/Paddock/pkg/contracts"
	"github.com/XavierBriggs/Paddock/pkg/models"
)

const activeMeetingKey = "activeMeeting"

// StoreError wraps a failure updating a single record. Reconciliation
// logs these and carries on with the remaining records.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Postgres is the production RaceStore.
type Postgres struct {
	db *sql.DB
}

var _ contracts.RaceStore = (*Postgres)(nil)

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the config and races tables when absent.
// Idempotent.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS config (
			key   TEXT PRIMARY KEY,
			value JSONB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS races (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL DEFAULT '',
			date            TEXT NOT NULL,
			api_id          TEXT NOT NULL DEFAULT '',
			off_time        TEXT NOT NULL DEFAULT '',
			runners         JSONB NOT NULL DEFAULT '[]',
			result          JSONB,
			odds_updated_at TEXT
		);
		CREATE INDEX IF NOT EXISTS races_date_idx ON races (date);
	`
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// GetActiveMeeting reads the activeMeeting config document. A missing
// document is not an error; the caller treats it as "nothing to do".
func (p *Postgres) GetActiveMeeting(ctx context.Context) (*models.Meeting, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT value FROM config WHERE key = $1`, activeMeetingKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query active meeting: %w", err)
	}

	var meeting models.Meeting
	if err := json.Unmarshal(raw, &meeting); err != nil {
		return nil, fmt.Errorf("decode active meeting: %w", err)
	}
	return &meeting, nil
}

// SetActiveMeeting upserts the activeMeeting config document.
func (p *Postgres) SetActiveMeeting(ctx context.Context, meeting models.Meeting) error {
	raw, err := json.Marshal(meeting)
	if err != nil {
		return fmt.Errorf("encode active meeting: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, activeMeetingKey, raw)
	if err != nil {
		return &StoreError{Op: "upsert", Key: activeMeetingKey, Err: err}
	}
	return nil
}

// ListRacesByDate returns all races stored for the given date.
func (p *Postgres) ListRacesByDate(ctx context.Context, date string) ([]models.StoredRace, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, date, api_id, off_time, runners, result
		FROM races
		WHERE date = $1
		ORDER BY off_time, id
	`, date)
	if err != nil {
		return nil, fmt.Errorf("query races for %s: %w", date, err)
	}
	defer rows.Close()

	var races []models.StoredRace
	for rows.Next() {
		var (
			race       models.StoredRace
			runnersRaw []byte
			resultRaw  []byte
		)
		if err := rows.Scan(&race.ID, &race.Name, &race.Date, &race.APIID, &race.Time, &runnersRaw, &resultRaw); err != nil {
			return nil, fmt.Errorf("scan race: %w", err)
		}
		if err := json.Unmarshal(runnersRaw, &race.Runners); err != nil {
			return nil, fmt.Errorf("decode runners for race %s: %w", race.ID, err)
		}
		if len(resultRaw) > 0 {
			race.Result = &models.RaceResult{}
			if err := json.Unmarshal(resultRaw, race.Result); err != nil {
				return nil, fmt.Errorf("decode result for race %s: %w", race.ID, err)
			}
		}
		races = append(races, race)
	}
	return races, rows.Err()
}

// UpsertRace inserts or replaces a race document. Backs the admin
// seeding route; reconciliation never replaces whole documents. An
// existing result survives the upsert.
func (p *Postgres) UpsertRace(ctx context.Context, race models.StoredRace) error {
	runnersRaw, err := json.Marshal(race.Runners)
	if err != nil {
		return fmt.Errorf("encode runners: %w", err)
	}
	var resultRaw interface{}
	if race.Result != nil {
		raw, err := json.Marshal(race.Result)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		resultRaw = raw
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO races (id, name, date, api_id, off_time, runners, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			date = EXCLUDED.date,
			api_id = EXCLUDED.api_id,
			off_time = EXCLUDED.off_time,
			runners = EXCLUDED.runners
	`, race.ID, race.Name, race.Date, race.APIID, race.Time, runnersRaw, resultRaw)
	if err != nil {
		return &StoreError{Op: "upsert", Key: race.ID, Err: err}
	}
	return nil
}

// UpdateRunners replaces a race's runner list, optionally stamping the
// odds update time. No other field changes.
func (p *Postgres) UpdateRunners(ctx context.Context, raceID string, runners []models.RaceRunner, oddsUpdatedAt string) error {
	raw, err := json.Marshal(runners)
	if err != nil {
		return fmt.Errorf("encode runners: %w", err)
	}

	if oddsUpdatedAt != "" {
		_, err = p.db.ExecContext(ctx,
			`UPDATE races SET runners = $2, odds_updated_at = $3 WHERE id = $1`,
			raceID, raw, oddsUpdatedAt)
	} else {
		_, err = p.db.ExecContext(ctx,
			`UPDATE races SET runners = $2 WHERE id = $1`,
			raceID, raw)
	}
	if err != nil {
		return &StoreError{Op: "update runners", Key: raceID, Err: err}
	}
	return nil
}

// SetResult attaches a result to a race that has none. The guard lives
// in the WHERE clause, so a concurrent or repeated call can never
// overwrite a recorded result.
func (p *Postgres) SetResult(ctx context.Context, raceID string, result models.RaceResult) (bool, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return false, fmt.Errorf("encode result: %w", err)
	}

	res, err := p.db.ExecContext(ctx,
		`UPDATE races SET result = $2 WHERE id = $1 AND result IS NULL`,
		raceID, raw)
	if err != nil {
		return false, &StoreError{Op: "set result", Key: raceID, Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, &StoreError{Op: "set result", Key: raceID, Err: err}
	}
	return affected > 0, nil
}
