package models

import "time"

// Market represents a single tradable win market on the exchange,
// fetched per request and never persisted.
type Market struct {
	MarketID  string
	Name      string
	Venue     string
	StartTime time.Time
	Runners   []MarketRunner
}

// MarketRunner is an entrant as the exchange describes it.
type MarketRunner struct {
	SelectionID int64
	Name        string
}

// MarketBook holds the priced view of a market.
type MarketBook struct {
	MarketID string
	Runners  []BookRunner
}

// BookRunner carries the price data for one selection.
// BestBackPrice is zero when no back offer is available.
type BookRunner struct {
	SelectionID     int64
	Status          string // ACTIVE, REMOVED, WINNER, ...
	LastPriceTraded float64
	BestBackPrice   float64
}

// OddsMap is the result of one acquisition run. ByTime is keyed
// "HH:MM|UPPERCASED RUNNER NAME" and is authoritative; Flat is keyed by
// runner name alone and is a lossy fallback (last writer wins).
type OddsMap struct {
	ByTime map[string]string
	Flat   map[string]string
}

// Count returns the number of time-keyed entries.
func (o OddsMap) Count() int {
	return len(o.ByTime)
}

// Empty reports whether the acquisition matched nothing.
func (o OddsMap) Empty() bool {
	return len(o.ByTime) == 0 && len(o.Flat) == 0
}

// StoredRace is the working copy of a race document owned by the
// external store. Reconciliation mutates it field by field, never
// wholesale.
type StoredRace struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Date    string       `json:"date"` // YYYY-MM-DD
	APIID   string       `json:"apiId"`
	Time    string       `json:"time"` // HH:MM, possibly missing its PM offset
	Runners []RaceRunner `json:"runners"`
	Result  *RaceResult  `json:"result,omitempty"`
}

// RaceRunner is one entrant in a stored race.
type RaceRunner struct {
	Name    string `json:"name"`
	Jockey  string `json:"jockey,omitempty"`
	Trainer string `json:"trainer,omitempty"`
	NR      bool   `json:"nr"`
	Odds    string `json:"odds,omitempty"`
}

// RaceResult records the first four finishers. Written once and never
// overwritten.
type RaceResult struct {
	Winner     string `json:"winner"`
	Second     string `json:"second"`
	Third      string `json:"third"`
	Fourth     string `json:"fourth"`
	RecordedAt string `json:"recordedAt"`
	RecordedBy string `json:"recordedBy"`
}

// Meeting is the active-meeting configuration document.
type Meeting struct {
	Venue string `json:"venue"`
	Date  string `json:"date"` // YYYY-MM-DD
	Day   string `json:"day"`  // "today" or "tomorrow", for the results feed
}

// Racecard is a fresh race from the racing-data API.
type Racecard struct {
	RaceID  string          `json:"race_id"`
	ID      string          `json:"id"`
	Course  string          `json:"course"`
	OffTime string          `json:"off_time"`
	Runners []RacecardEntry `json:"runners"`
}

// ExternalID returns whichever identifier the feed populated.
func (r Racecard) ExternalID() string {
	if r.RaceID != "" {
		return r.RaceID
	}
	return r.ID
}

// RacecardEntry is one entrant on a fresh racecard. The feed is
// inconsistent about field names and NR flagging, so all variants are
// carried.
type RacecardEntry struct {
	Horse       string `json:"horse"`
	Name        string `json:"name"`
	Jockey      string `json:"jockey"`
	Trainer     string `json:"trainer"`
	NonRunner   bool   `json:"non_runner"`
	IsNonRunner bool   `json:"is_non_runner"`
	Status      string `json:"status"`
}

// DisplayName returns whichever name field the feed populated.
func (e RacecardEntry) DisplayName() string {
	if e.Horse != "" {
		return e.Horse
	}
	return e.Name
}

// Withdrawn reports whether the feed explicitly flags this entrant as
// not running.
func (e RacecardEntry) Withdrawn() bool {
	return e.NonRunner || e.IsNonRunner || e.Status == "Non Runner" || e.Status == "Withdrawn"
}

// RaceOutcome is one finished race from the results feed.
type RaceOutcome struct {
	RaceID  string         `json:"race_id"`
	ID      string         `json:"id"`
	Course  string         `json:"course"`
	Runners []ResultRunner `json:"runners"`
}

// ExternalID returns whichever identifier the feed populated.
func (r RaceOutcome) ExternalID() string {
	if r.RaceID != "" {
		return r.RaceID
	}
	return r.ID
}

// ResultRunner is one finisher in a race outcome.
type ResultRunner struct {
	Horse             string `json:"horse"`
	Name              string `json:"name"`
	Position          string `json:"position"`
	FinishingPosition string `json:"finishing_position"`
}

// DisplayName returns whichever name field the feed populated.
func (r ResultRunner) DisplayName() string {
	if r.Horse != "" {
		return r.Horse
	}
	return r.Name
}
