package contracts

import (
	"context"

	"github.com/XavierBriggs/Paddock/pkg/models"
)

// OddsSource fetches the day's win-market odds for a venue from the
// exchange. A venue/date that matches no markets yields empty maps, not
// an error; errors are reserved for auth and transport failures.
type OddsSource interface {
	FetchOdds(ctx context.Context, venue, date string) (models.OddsMap, error)
}

// RacingDataSource fetches racecards and results from the racing-data
// API. Day is "today" or "tomorrow".
type RacingDataSource interface {
	FetchRacecards(ctx context.Context, day string) ([]models.Racecard, error)
	FetchResults(ctx context.Context, day string) ([]models.RaceOutcome, error)
}
