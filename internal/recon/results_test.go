package recon_test

import (
	"context"
	"testing"

	"github.com/XavierBriggs/Paddock/internal/recon"
	"github.com/XavierBriggs/Paddock/internal/store"
	"github.com/XavierBriggs/Paddock/pkg/models"
	"github.com/XavierBriggs/Paddock/pkg/testutil"
)

func TestReconcileResults(t *testing.T) {
	mem := store.NewMemory()
	mem.Put(testutil.NewStoredRace("race-1", "api-1", "2026-03-14", "2:30",
		"Speedy Horse", "Slow Coach", "Outsider", "Plodder"))

	engine := recon.NewEngine(mem, testutil.QuietLogger())

	outcomes := []models.RaceOutcome{
		testutil.NewOutcome("api-1", "Leopardstown",
			"Speedy Horse", "Slow Coach", "Outsider", "Plodder"),
	}

	recorded, err := engine.ReconcileResults(context.Background(), meeting, outcomes)
	if err != nil {
		t.Fatalf("ReconcileResults: %v", err)
	}
	if len(recorded) != 1 {
		t.Fatalf("recorded = %d, want 1", len(recorded))
	}
	if recorded[0].RaceID != "race-1" || recorded[0].Result.Winner != "Speedy Horse" {
		t.Errorf("recorded[0] = %+v, want race-1 / Speedy Horse", recorded[0])
	}

	race, _ := mem.Get("race-1")
	if race.Result == nil {
		t.Fatal("result not stored")
	}
	if race.Result.Winner != "Speedy Horse" {
		t.Errorf("winner = %q, want Speedy Horse", race.Result.Winner)
	}
	if race.Result.Second != "Slow Coach" || race.Result.Third != "Outsider" || race.Result.Fourth != "Plodder" {
		t.Errorf("placings = %q/%q/%q, want Slow Coach/Outsider/Plodder",
			race.Result.Second, race.Result.Third, race.Result.Fourth)
	}
	if race.Result.RecordedBy != recon.RecordedByScheduler {
		t.Errorf("recordedBy = %q, want %q", race.Result.RecordedBy, recon.RecordedByScheduler)
	}
	if race.Result.RecordedAt == "" {
		t.Error("recordedAt not stamped")
	}
}

func TestReconcileResultsIdempotent(t *testing.T) {
	mem := store.NewMemory()
	mem.Put(testutil.NewStoredRace("race-1", "api-1", "2026-03-14", "2:30", "Speedy Horse", "Slow Coach"))

	engine := recon.NewEngine(mem, testutil.QuietLogger())
	outcomes := []models.RaceOutcome{
		testutil.NewOutcome("api-1", "Leopardstown", "Speedy Horse", "Slow Coach"),
	}

	if recorded, err := engine.ReconcileResults(context.Background(), meeting, outcomes); err != nil || len(recorded) != 1 {
		t.Fatalf("first pass: recorded = %d, err = %v, want 1, nil", len(recorded), err)
	}
	first, _ := mem.Get("race-1")

	// Feeding the identical results again writes nothing.
	if recorded, err := engine.ReconcileResults(context.Background(), meeting, outcomes); err != nil || len(recorded) != 0 {
		t.Fatalf("second pass: recorded = %d, err = %v, want 0, nil", len(recorded), err)
	}
	second, _ := mem.Get("race-1")

	if *first.Result != *second.Result {
		t.Errorf("result changed on re-run: %+v vs %+v", *first.Result, *second.Result)
	}
}

func TestReconcileResultsIncompleteSkipped(t *testing.T) {
	mem := store.NewMemory()
	mem.Put(testutil.NewStoredRace("race-1", "api-1", "2026-03-14", "2:30", "Speedy Horse"))

	engine := recon.NewEngine(mem, testutil.QuietLogger())

	// Outcome with no position-1 finisher.
	outcome := models.RaceOutcome{
		RaceID: "api-1",
		Course: "Leopardstown",
		Runners: []models.ResultRunner{
			{Horse: "Slow Coach", Position: "2"},
		},
	}

	recorded, err := engine.ReconcileResults(context.Background(), meeting, []models.RaceOutcome{outcome})
	if err != nil {
		t.Fatalf("ReconcileResults: %v", err)
	}
	if len(recorded) != 0 {
		t.Errorf("recorded = %d, want 0 for an outcome without a winner", len(recorded))
	}
	race, _ := mem.Get("race-1")
	if race.Result != nil {
		t.Error("incomplete outcome must not be stored")
	}
}

func TestReconcileResultsFewerThanFourFinishers(t *testing.T) {
	mem := store.NewMemory()
	mem.Put(testutil.NewStoredRace("race-1", "api-1", "2026-03-14", "2:30", "Speedy Horse", "Slow Coach"))

	engine := recon.NewEngine(mem, testutil.QuietLogger())
	outcomes := []models.RaceOutcome{
		testutil.NewOutcome("api-1", "Leopardstown", "Speedy Horse", "Slow Coach"),
	}

	if _, err := engine.ReconcileResults(context.Background(), meeting, outcomes); err != nil {
		t.Fatalf("ReconcileResults: %v", err)
	}
	race, _ := mem.Get("race-1")
	if race.Result == nil {
		t.Fatal("result not stored")
	}
	if race.Result.Third != "" || race.Result.Fourth != "" {
		t.Errorf("third/fourth = %q/%q, want empty for a two-horse finish",
			race.Result.Third, race.Result.Fourth)
	}
}

func TestReconcileResultsOtherVenueIgnored(t *testing.T) {
	mem := store.NewMemory()
	mem.Put(testutil.NewStoredRace("race-1", "api-1", "2026-03-14", "2:30", "Speedy Horse"))

	engine := recon.NewEngine(mem, testutil.QuietLogger())
	outcomes := []models.RaceOutcome{
		testutil.NewOutcome("api-1", "Ascot", "Speedy Horse"),
	}

	recorded, err := engine.ReconcileResults(context.Background(), meeting, outcomes)
	if err != nil {
		t.Fatalf("ReconcileResults: %v", err)
	}
	if len(recorded) != 0 {
		t.Errorf("recorded = %d, want 0 for results from another course", len(recorded))
	}
}

func TestReconcileResultsFinishingPositionField(t *testing.T) {
	mem := store.NewMemory()
	mem.Put(testutil.NewStoredRace("race-1", "api-1", "2026-03-14", "2:30", "Speedy Horse", "Slow Coach"))

	engine := recon.NewEngine(mem, testutil.QuietLogger())

	// Some feeds populate finishing_position instead of position.
	outcome := models.RaceOutcome{
		RaceID: "api-1",
		Course: "leopardstown",
		Runners: []models.ResultRunner{
			{Name: "Slow Coach", FinishingPosition: "2"},
			{Name: "Speedy Horse", FinishingPosition: "1"},
		},
	}

	if _, err := engine.ReconcileResults(context.Background(), meeting, []models.RaceOutcome{outcome}); err != nil {
		t.Fatalf("ReconcileResults: %v", err)
	}
	race, _ := mem.Get("race-1")
	if race.Result == nil || race.Result.Winner != "Speedy Horse" {
		t.Fatalf("result = %+v, want Speedy Horse as winner", race.Result)
	}
}
