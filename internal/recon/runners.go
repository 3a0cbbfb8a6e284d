package recon

import (
	"context"

	"github.com/XavierBriggs/Paddock/pkg/models"
	"github.com/sirupsen/logrus"
)

// ReconcileRunners merges a fresh racecard list into the stored races
// for the meeting. A stored runner is marked non-runner when its
// normalized name is absent from the fresh racecard or the feed flags
// it withdrawn. Jockey and trainer fields refresh from fresh data when
// present and keep their stored values otherwise. The derived NR flag
// is deterministic: unchanged source data yields unchanged flags.
// Returns races updated and new non-runners marked.
func (e *Engine) ReconcileRunners(ctx context.Context, meeting models.Meeting, cards []models.Racecard) (int, int, error) {
	venueCards := filterCardsByCourse(cards, meeting.Venue)
	if len(venueCards) == 0 {
		e.logger.WithField("venue", meeting.Venue).Info("no fresh racecards for venue")
		return 0, 0, nil
	}

	races, err := e.store.ListRacesByDate(ctx, meeting.Date)
	if err != nil {
		return 0, 0, err
	}

	updated, newNR := 0, 0
	for _, race := range races {
		fresh, ok := matchCard(venueCards, race.APIID)
		if !ok {
			continue
		}

		freshByName := make(map[string]models.RacecardEntry, len(fresh.Runners))
		for _, entry := range fresh.Runners {
			freshByName[NormalizeRunner(entry.DisplayName())] = entry
		}

		runners := make([]models.RaceRunner, len(race.Runners))
		for i, runner := range race.Runners {
			runners[i] = runner

			entry, present := freshByName[NormalizeRunner(runner.Name)]
			isNR := !present || entry.Withdrawn()

			if isNR && !runner.NR {
				newNR++
				e.logger.WithFields(logrus.Fields{
					"runner": runner.Name,
					"race":   race.Name,
				}).Info("non-runner marked")
			}
			runners[i].NR = isNR

			if present {
				if entry.Jockey != "" {
					runners[i].Jockey = entry.Jockey
				}
				if entry.Trainer != "" {
					runners[i].Trainer = entry.Trainer
				}
			}
		}

		if err := e.store.UpdateRunners(ctx, race.ID, runners, ""); err != nil {
			e.logger.WithError(err).WithField("race", race.ID).Warn("runner update failed")
			continue
		}
		updated++
	}

	e.logger.WithFields(logrus.Fields{
		"venue":       meeting.Venue,
		"races":       updated,
		"non_runners": newNR,
	}).Info("runners reconciled")
	return updated, newNR, nil
}

func filterCardsByCourse(cards []models.Racecard, venue string) []models.Racecard {
	var out []models.Racecard
	for _, card := range cards {
		if equalFold(card.Course, venue) {
			out = append(out, card)
		}
	}
	return out
}

func matchCard(cards []models.Racecard, apiID string) (models.Racecard, bool) {
	if apiID == "" {
		return models.Racecard{}, false
	}
	for _, card := range cards {
		if card.ExternalID() == apiID {
			return card, true
		}
	}
	return models.Racecard{}, false
}
