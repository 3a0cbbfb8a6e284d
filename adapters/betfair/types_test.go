package betfair

import (
	"testing"
	"time"
)

func TestCatalogueMarketToModel(t *testing.T) {
	tests := []struct {
		name      string
		market    catalogueMarket
		wantVenue string
		wantZero  bool
	}{
		{
			name: "event venue preferred",
			market: catalogueMarket{
				MarketID:        "1.234",
				MarketName:      "2m Hcap Chs",
				MarketStartTime: "2026-03-14T14:30:00Z",
				Event:           &catalogueEvent{Venue: "Leopardstown", Name: "Leop 14th Mar"},
			},
			wantVenue: "Leopardstown",
		},
		{
			name: "event name fallback",
			market: catalogueMarket{
				MarketStartTime: "2026-03-14T14:30:00Z",
				Event:           &catalogueEvent{Name: "Leop 14th Mar"},
			},
			wantVenue: "Leop 14th Mar",
		},
		{
			name:     "missing event and bad timestamp",
			market:   catalogueMarket{MarketStartTime: "not-a-time"},
			wantZero: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.market.toModel()
			if got.Venue != tt.wantVenue {
				t.Errorf("venue = %q, want %q", got.Venue, tt.wantVenue)
			}
			if got.StartTime.IsZero() != tt.wantZero {
				t.Errorf("start time = %v, want zero = %v", got.StartTime, tt.wantZero)
			}
		})
	}
}

func TestCatalogueMarketToModelRunners(t *testing.T) {
	market := catalogueMarket{
		MarketStartTime: "2026-03-14T14:30:00Z",
		Runners: []catalogueRunner{
			{SelectionID: 7, RunnerName: "Speedy Horse"},
			{SelectionID: 9, RunnerName: "Slow Coach"},
		},
	}

	got := market.toModel()
	if len(got.Runners) != 2 {
		t.Fatalf("runners = %d, want 2", len(got.Runners))
	}
	if got.Runners[0].SelectionID != 7 || got.Runners[0].Name != "Speedy Horse" {
		t.Errorf("runner = %+v, want selection 7 Speedy Horse", got.Runners[0])
	}
	if !got.StartTime.Equal(time.Date(2026, 3, 14, 14, 30, 0, 0, time.UTC)) {
		t.Errorf("start time = %v", got.StartTime)
	}
}

func TestMarketBookToModel(t *testing.T) {
	book := marketBook{
		MarketID: "1.234",
		Runners: []bookRunner{
			{
				SelectionID:     7,
				Status:          "ACTIVE",
				LastPriceTraded: 6.0,
				Ex: &exchangePrice{AvailableToBack: []priceSize{
					{Price: 5.5, Size: 120},
					{Price: 5.4, Size: 80},
				}},
			},
			{SelectionID: 9, Status: "REMOVED"},
		},
	}

	got := book.toModel()
	if got.MarketID != "1.234" {
		t.Errorf("market id = %q", got.MarketID)
	}
	if len(got.Runners) != 2 {
		t.Fatalf("runners = %d, want 2", len(got.Runners))
	}
	// Best back is the first offer in the ladder.
	if got.Runners[0].BestBackPrice != 5.5 {
		t.Errorf("best back = %v, want 5.5", got.Runners[0].BestBackPrice)
	}
	if got.Runners[0].LastPriceTraded != 6.0 {
		t.Errorf("last traded = %v, want 6.0", got.Runners[0].LastPriceTraded)
	}
	// No ex block means no back price.
	if got.Runners[1].BestBackPrice != 0 {
		t.Errorf("best back = %v, want 0 without offers", got.Runners[1].BestBackPrice)
	}
	if got.Runners[1].Status != "REMOVED" {
		t.Errorf("status = %q", got.Runners[1].Status)
	}
}
