// Package testutil provides fixture builders shared by the
// reconciliation and server tests.
package testutil

import (
	"github.com/XavierBriggs/Paddock/pkg/models"
	"github.com/sirupsen/logrus"
)

// QuietLogger returns a logger that discards everything below panic,
// keeping test output readable.
func QuietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// NewStoredRace creates a stored race with active runners of the given
// names.
func NewStoredRace(id, apiID, date, offTime string, runnerNames ...string) models.StoredRace {
	runners := make([]models.RaceRunner, len(runnerNames))
	for i, name := range runnerNames {
		runners[i] = models.RaceRunner{Name: name}
	}
	return models.StoredRace{
		ID:      id,
		Name:    offTime + " race",
		Date:    date,
		APIID:   apiID,
		Time:    offTime,
		Runners: runners,
	}
}

// NewRacecard creates a fresh racecard with active entries of the given
// names.
func NewRacecard(raceID, course string, horseNames ...string) models.Racecard {
	runners := make([]models.RacecardEntry, len(horseNames))
	for i, name := range horseNames {
		runners[i] = models.RacecardEntry{Horse: name}
	}
	return models.Racecard{
		RaceID:  raceID,
		Course:  course,
		Runners: runners,
	}
}

// NewOutcome creates a race outcome with finishers in the order given
// (first name listed finishes first, and so on).
func NewOutcome(raceID, course string, finishers ...string) models.RaceOutcome {
	runners := make([]models.ResultRunner, len(finishers))
	for i, name := range finishers {
		runners[i] = models.ResultRunner{
			Horse:    name,
			Position: positionLabel(i + 1),
		}
	}
	return models.RaceOutcome{
		RaceID:  raceID,
		Course:  course,
		Runners: runners,
	}
}

func positionLabel(n int) string {
	if n <= 4 {
		return []string{"1", "2", "3", "4"}[n-1]
	}
	return "99"
}
