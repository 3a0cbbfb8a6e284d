package recon

import (
	"context"
	"strings"
	"time"

	"github.com/XavierBriggs/Paddock/pkg/contracts"
	"github.com/XavierBriggs/Paddock/pkg/models"
	"github.com/sirupsen/logrus"
)

// Engine runs the reconciliation passes against the race store.
type Engine struct {
	store  contracts.RaceStore
	logger *logrus.Logger
}

// NewEngine creates a reconciliation engine.
func NewEngine(store contracts.RaceStore, logger *logrus.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// ReconcileOdds attaches fractional odds from a fresh odds map to the
// stored races of the given date. Lookup tries the time-adjusted bucket
// first, then the flat name map; unmatched runners keep whatever they
// had. One store update per race. Returns the number of runners
// matched.
func (e *Engine) ReconcileOdds(ctx context.Context, date string, odds models.OddsMap) (int, error) {
	if odds.Empty() {
		return 0, nil
	}

	races, err := e.store.ListRacesByDate(ctx, date)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	matched := 0
	for _, race := range races {
		bucket := AdjustRaceTime(race.Time)
		raceMatched := false

		updated := make([]models.RaceRunner, len(race.Runners))
		for i, runner := range race.Runners {
			updated[i] = runner
			upper := strings.ToUpper(runner.Name)
			odd, ok := odds.ByTime[bucket+"|"+upper]
			if !ok {
				odd, ok = odds.Flat[upper]
			}
			if ok {
				updated[i].Odds = odd
				matched++
				raceMatched = true
			}
		}

		if !raceMatched {
			continue
		}
		if err := e.store.UpdateRunners(ctx, race.ID, updated, now); err != nil {
			// A single failing record does not abort the rest.
			e.logger.WithError(err).WithField("race", race.ID).Warn("odds update failed")
		}
	}

	e.logger.WithFields(logrus.Fields{"date": date, "matched": matched}).Info("odds reconciled")
	return matched, nil
}
