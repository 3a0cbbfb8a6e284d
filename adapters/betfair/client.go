// Package betfair implements odds acquisition against the Betfair
// exchange: certificate login, JSON-RPC market queries, and conversion
// of priced market books into the fractional odds maps the
// reconciliation passes consume.
package betfair

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/XavierBriggs/Paddock/pkg/contracts"
	"github.com/XavierBriggs/Paddock/pkg/models"
	"github.com/XavierBriggs/Paddock/pkg/oddsmath"
	"github.com/sirupsen/logrus"
)

const (
	horseRacingEventType = "7"
	maxCatalogueResults  = "200"
)

// sideMarketPattern matches each-way, to-be-placed, ante-post and
// specials markets. These are side markets, not the main win market,
// and must not pollute the odds map.
var sideMarketPattern = regexp.MustCompile(`(?i)each way|to be placed|\d+ tbp|tbp|antepost|specials`)

// Client fetches a day's win-market odds for a venue. It owns the
// session manager and the RPC transport.
type Client struct {
	sessions *SessionManager
	rpc      *rpcClient
	logger   *logrus.Logger
}

var _ contracts.OddsSource = (*Client)(nil)

// NewClient creates an exchange client with a fresh session manager.
func NewClient(creds Credentials, logger *logrus.Logger) *Client {
	return &Client{
		sessions: NewSessionManager(creds, logger),
		rpc:      newRPCClient(creds.AppKey),
		logger:   logger,
	}
}

// SetEndpoints overrides the login and RPC URLs. Used by tests to point
// the client at local servers.
func (c *Client) SetEndpoints(loginURL, rpcURL string) {
	c.sessions.loginURL = loginURL
	c.rpc.rpcURL = rpcURL
}

// FetchOdds discovers the venue's win markets for the given date
// (YYYY-MM-DD), prices them, and returns the time-keyed and flat odds
// maps. A venue or date matching no markets is a legitimate "no data"
// outcome and yields empty maps; only auth and RPC failures error.
func (c *Client) FetchOdds(ctx context.Context, venue, date string) (models.OddsMap, error) {
	empty := models.OddsMap{ByTime: map[string]string{}, Flat: map[string]string{}}

	token, err := c.sessions.Token(ctx)
	if err != nil {
		return empty, err
	}

	catalogue, err := c.listMarketCatalogue(ctx, token, date)
	if err != nil {
		return empty, err
	}

	markets := filterMarkets(catalogue, venue)
	if len(markets) == 0 {
		c.logger.WithFields(logrus.Fields{
			"venue":  venue,
			"date":   date,
			"venues": availableVenues(catalogue),
		}).Info("no markets matched venue")
		return empty, nil
	}

	books, err := c.listMarketBook(ctx, token, marketIDs(markets))
	if err != nil {
		return empty, err
	}

	odds := buildOddsMap(markets, books)
	c.logger.WithFields(logrus.Fields{
		"venue":   venue,
		"date":    date,
		"runners": odds.Count(),
		"races":   len(markets),
	}).Info("odds fetched")
	return odds, nil
}

func (c *Client) listMarketCatalogue(ctx context.Context, token, date string) ([]models.Market, error) {
	params := map[string]interface{}{
		"filter": map[string]interface{}{
			"eventTypeIds":    []string{horseRacingEventType},
			"marketCountries": []string{"GB", "IE"},
			"marketStartTime": map[string]string{
				"from": date + "T00:00:00Z",
				"to":   date + "T23:59:59Z",
			},
		},
		"marketProjection": []string{"RUNNER_DESCRIPTION", "EVENT", "MARKET_START_TIME"},
		"maxResults":       maxCatalogueResults,
	}

	result, err := c.rpc.call(ctx, token, "listMarketCatalogue", params)
	if err != nil {
		return nil, err
	}

	var wire []catalogueMarket
	if err := json.Unmarshal(result, &wire); err != nil {
		return nil, &RPCError{Method: "listMarketCatalogue", Detail: "decode result", Err: err}
	}
	markets := make([]models.Market, len(wire))
	for i, m := range wire {
		markets[i] = m.toModel()
	}
	return markets, nil
}

func (c *Client) listMarketBook(ctx context.Context, token string, ids []string) ([]models.MarketBook, error) {
	params := map[string]interface{}{
		"marketIds":       ids,
		"priceProjection": map[string]interface{}{"priceData": []string{"EX_BEST_OFFERS"}},
		"orderProjection": "EXECUTABLE",
		"currencyCode":    "GBP",
	}

	result, err := c.rpc.call(ctx, token, "listMarketBook", params)
	if err != nil {
		return nil, err
	}

	var wire []marketBook
	if err := json.Unmarshal(result, &wire); err != nil {
		return nil, &RPCError{Method: "listMarketBook", Detail: "decode result", Err: err}
	}
	books := make([]models.MarketBook, len(wire))
	for i, b := range wire {
		books[i] = b.toModel()
	}
	return books, nil
}

// VenueMatches reports whether a market's venue name loosely matches
// the requested venue. The match succeeds when the market venue
// contains the full query, or the query contains the market venue's
// first token, case-insensitively. This absorbs spelling and
// abbreviation drift between data providers at the cost of occasional
// over-matching on shared first words.
func VenueMatches(marketVenue, query string) bool {
	mv := strings.ToUpper(strings.TrimSpace(marketVenue))
	q := strings.ToUpper(strings.TrimSpace(query))
	if mv == "" || q == "" {
		return false
	}
	first := mv
	if i := strings.IndexByte(mv, ' '); i >= 0 {
		first = mv[:i]
	}
	return strings.Contains(mv, q) || strings.Contains(q, first)
}

// IsSideMarket reports whether a market name identifies a side market
// rather than the main win market.
func IsSideMarket(marketName string) bool {
	return sideMarketPattern.MatchString(marketName)
}

func filterMarkets(catalogue []models.Market, venue string) []models.Market {
	var out []models.Market
	for _, m := range catalogue {
		if !VenueMatches(m.Venue, venue) {
			continue
		}
		if IsSideMarket(m.Name) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func marketIDs(markets []models.Market) []string {
	ids := make([]string, len(markets))
	for i, m := range markets {
		ids[i] = m.MarketID
	}
	return ids
}

func availableVenues(catalogue []models.Market) []string {
	seen := make(map[string]bool)
	var venues []string
	for _, m := range catalogue {
		v := m.Venue
		if v == "" {
			v = "?"
		}
		if !seen[v] {
			seen[v] = true
			venues = append(venues, v)
		}
	}
	return venues
}

// buildOddsMap joins the catalogue's runner names and start times with
// the books' prices. A traded price beats a quoted one since it
// reflects real market activity; prices at or below 1.0 are treated as
// absent. Removed runners never appear.
func buildOddsMap(markets []models.Market, books []models.MarketBook) models.OddsMap {
	runnerNames := make(map[string]map[int64]string, len(markets))
	startTimes := make(map[string]string, len(markets))

	for _, m := range markets {
		names := make(map[int64]string, len(m.Runners))
		for _, r := range m.Runners {
			names[r.SelectionID] = r.Name
		}
		runnerNames[m.MarketID] = names
		startTimes[m.MarketID] = raceTimeUTC(m.StartTime)
	}

	odds := models.OddsMap{ByTime: map[string]string{}, Flat: map[string]string{}}
	for _, book := range books {
		names := runnerNames[book.MarketID]
		raceTime := startTimes[book.MarketID]
		if raceTime == "" {
			raceTime = "00:00"
		}
		for _, runner := range book.Runners {
			if runner.Status == "REMOVED" {
				continue
			}
			name, ok := names[runner.SelectionID]
			if !ok {
				continue
			}
			price := runner.LastPriceTraded
			if price <= 1 {
				price = runner.BestBackPrice
			}
			if price <= 1 {
				continue
			}
			frac := oddsmath.DecimalToFraction(price)
			upper := strings.ToUpper(name)
			odds.ByTime[raceTime+"|"+upper] = frac
			odds.Flat[upper] = frac
		}
	}
	return odds
}

// raceTimeUTC formats a market start time as HH:MM in UTC, matching the
// key format the reconciliation passes expect.
func raceTimeUTC(startTime time.Time) string {
	if startTime.IsZero() {
		return ""
	}
	t := startTime.UTC()
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}
