//go:build integration
// +build integration

package snapshot_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/XavierBriggs/Paddock/internal/snapshot"
	"github.com/XavierBriggs/Paddock/pkg/models"
	"github.com/redis/go-redis/v9"
)

func TestPublisherRoundTrip(t *testing.T) {
	ctx := context.Background()

	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       1, // test DB
	})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("skipping integration test: %v", err)
	}
	client.FlushDB(ctx)

	pub := snapshot.NewPublisher(client, 30*time.Second)

	odds := models.OddsMap{
		ByTime: map[string]string{"14:30|SPEEDY HORSE": "5/1"},
		Flat:   map[string]string{"SPEEDY HORSE": "5/1"},
	}
	if err := pub.CacheOdds(ctx, "Leopardstown", "2026-03-14", odds); err != nil {
		t.Fatalf("CacheOdds: %v", err)
	}

	got, err := client.Get(ctx, "paddock:odds:2026-03-14:Leopardstown:SPEEDY HORSE").Result()
	if err != nil {
		t.Fatalf("get cached odd: %v", err)
	}
	if got != "5/1" {
		t.Errorf("cached odd = %q, want 5/1", got)
	}

	result := models.RaceResult{
		Winner:     "Speedy Horse",
		RecordedAt: time.Now().UTC().Format(time.RFC3339),
		RecordedBy: "auto-scheduler",
	}
	if err := pub.PublishResult(ctx, "race-1", result); err != nil {
		t.Fatalf("PublishResult: %v", err)
	}

	entries, err := client.XRange(ctx, "race.results", "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("stream entries = %d, want 1", len(entries))
	}
	if entries[0].Values["winner"] != "Speedy Horse" {
		t.Errorf("stream winner = %v, want Speedy Horse", entries[0].Values["winner"])
	}
}
