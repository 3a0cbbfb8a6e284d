package betfair

import (
	"time"

	"github.com/XavierBriggs/Paddock/pkg/models"
)

// Wire structures matching the exchange's JSON-RPC result payloads.
// Decoded once and converted straight into the model types.

type catalogueMarket struct {
	MarketID        string            `json:"marketId"`
	MarketName      string            `json:"marketName"`
	MarketStartTime string            `json:"marketStartTime"`
	Event           *catalogueEvent   `json:"event"`
	Runners         []catalogueRunner `json:"runners"`
}

// toModel converts the wire market. The venue prefers the event venue
// and falls back to the event name, which some markets carry instead.
// An unparseable start time becomes the zero time.
func (m catalogueMarket) toModel() models.Market {
	venue := ""
	if m.Event != nil {
		venue = m.Event.Venue
		if venue == "" {
			venue = m.Event.Name
		}
	}
	start, _ := time.Parse(time.RFC3339, m.MarketStartTime)

	runners := make([]models.MarketRunner, len(m.Runners))
	for i, r := range m.Runners {
		runners[i] = models.MarketRunner{SelectionID: r.SelectionID, Name: r.RunnerName}
	}
	return models.Market{
		MarketID:  m.MarketID,
		Name:      m.MarketName,
		Venue:     venue,
		StartTime: start,
		Runners:   runners,
	}
}

type catalogueEvent struct {
	Venue string `json:"venue"`
	Name  string `json:"name"`
}

type catalogueRunner struct {
	SelectionID int64  `json:"selectionId"`
	RunnerName  string `json:"runnerName"`
}

type marketBook struct {
	MarketID string       `json:"marketId"`
	Runners  []bookRunner `json:"runners"`
}

func (b marketBook) toModel() models.MarketBook {
	runners := make([]models.BookRunner, len(b.Runners))
	for i, r := range b.Runners {
		runners[i] = models.BookRunner{
			SelectionID:     r.SelectionID,
			Status:          r.Status,
			LastPriceTraded: r.LastPriceTraded,
			BestBackPrice:   r.bestBackPrice(),
		}
	}
	return models.MarketBook{MarketID: b.MarketID, Runners: runners}
}

type bookRunner struct {
	SelectionID     int64          `json:"selectionId"`
	Status          string         `json:"status"`
	LastPriceTraded float64        `json:"lastPriceTraded"`
	Ex              *exchangePrice `json:"ex"`
}

// bestBackPrice returns the top available back price, or zero when the
// book carries no back offers.
func (r bookRunner) bestBackPrice() float64 {
	if r.Ex == nil || len(r.Ex.AvailableToBack) == 0 {
		return 0
	}
	return r.Ex.AvailableToBack[0].Price
}

type exchangePrice struct {
	AvailableToBack []priceSize `json:"availableToBack"`
}

type priceSize struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}
