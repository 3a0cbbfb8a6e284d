package recon

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/XavierBriggs/Paddock/pkg/models"
	"github.com/sirupsen/logrus"
)

// RecordedByScheduler tags results written by the scheduled pass.
const RecordedByScheduler = "auto-scheduler"

// RecordedResult pairs a stored race id with the result written for it
// during a reconciliation pass.
type RecordedResult struct {
	RaceID string
	Result models.RaceResult
}

// ReconcileResults records finishing results for the meeting's stored
// races. Outcomes are filtered to the venue and matched by external id.
// A race that already holds a result is never touched, and an outcome
// without a position-1 finisher is skipped as incomplete, so the pass
// can re-run on a timer without duplicating or corrupting anything.
// Returns the newly recorded results so callers can fan them out.
func (e *Engine) ReconcileResults(ctx context.Context, meeting models.Meeting, outcomes []models.RaceOutcome) ([]RecordedResult, error) {
	var venueOutcomes []models.RaceOutcome
	for _, outcome := range outcomes {
		if equalFold(outcome.Course, meeting.Venue) {
			venueOutcomes = append(venueOutcomes, outcome)
		}
	}
	if len(venueOutcomes) == 0 {
		return nil, nil
	}

	races, err := e.store.ListRacesByDate(ctx, meeting.Date)
	if err != nil {
		return nil, err
	}
	byAPIID := make(map[string]models.StoredRace, len(races))
	for _, race := range races {
		if race.APIID != "" {
			byAPIID[race.APIID] = race
		}
	}

	var recorded []RecordedResult
	for _, outcome := range venueOutcomes {
		race, ok := byAPIID[outcome.ExternalID()]
		if !ok || race.Result != nil {
			continue
		}

		winner := finisherAt(outcome.Runners, 1)
		if winner == nil {
			// Incomplete result, try again next cycle.
			continue
		}

		result := models.RaceResult{
			Winner:     winner.DisplayName(),
			Second:     finisherName(outcome.Runners, 2),
			Third:      finisherName(outcome.Runners, 3),
			Fourth:     finisherName(outcome.Runners, 4),
			RecordedAt: time.Now().UTC().Format(time.RFC3339),
			RecordedBy: RecordedByScheduler,
		}

		written, err := e.store.SetResult(ctx, race.ID, result)
		if err != nil {
			e.logger.WithError(err).WithField("race", race.ID).Warn("result update failed")
			continue
		}
		if written {
			recorded = append(recorded, RecordedResult{RaceID: race.ID, Result: result})
			e.logger.WithFields(logrus.Fields{
				"race":   race.Name,
				"winner": result.Winner,
			}).Info("result recorded")
		}
	}

	return recorded, nil
}

// finisherAt returns the runner that finished in the given position, or
// nil. The feed reports the position in either of two fields.
func finisherAt(runners []models.ResultRunner, position int) *models.ResultRunner {
	for i := range runners {
		pos := runners[i].Position
		if pos == "" {
			pos = runners[i].FinishingPosition
		}
		if n, err := strconv.Atoi(strings.TrimSpace(pos)); err == nil && n == position {
			return &runners[i]
		}
	}
	return nil
}

func finisherName(runners []models.ResultRunner, position int) string {
	if r := finisherAt(runners, position); r != nil {
		return r.DisplayName()
	}
	return ""
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
