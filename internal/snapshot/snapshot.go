// Package snapshot publishes acquisition output to Redis: a
// write-through cache of the latest odds map plus a stream of recorded
// results for downstream consumers.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/XavierBriggs/Paddock/pkg/models"
	"github.com/redis/go-redis/v9"
)

const resultsStream = "race.results"

// Publisher mirrors reconciliation output into Redis.
type Publisher struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewPublisher creates a publisher. The TTL bounds how long a cached
// odds snapshot survives without a refresh.
func NewPublisher(redisClient *redis.Client, cacheTTL time.Duration) *Publisher {
	return &Publisher{redis: redisClient, ttl: cacheTTL}
}

// CacheOdds stores each flat odds entry under its own key so readers
// can look a runner up without deserializing the whole snapshot, plus
// the full map as JSON for bulk consumers.
func (p *Publisher) CacheOdds(ctx context.Context, venue, date string, odds models.OddsMap) error {
	if odds.Empty() {
		return nil
	}

	pipe := p.redis.Pipeline()
	for name, frac := range odds.Flat {
		pipe.Set(ctx, oddsKey(venue, date, name), frac, p.ttl)
	}

	blob, err := json.Marshal(odds.ByTime)
	if err != nil {
		return fmt.Errorf("marshal odds snapshot: %w", err)
	}
	pipe.Set(ctx, snapshotKey(venue, date), blob, p.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline exec: %w", err)
	}
	return nil
}

// PublishResult appends a recorded result to the results stream.
func (p *Publisher) PublishResult(ctx context.Context, raceID string, result models.RaceResult) error {
	values := map[string]interface{}{
		"race_id":     raceID,
		"winner":      result.Winner,
		"second":      result.Second,
		"third":       result.Third,
		"fourth":      result.Fourth,
		"recorded_at": result.RecordedAt,
	}

	if _, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: resultsStream,
		Values: values,
	}).Result(); err != nil {
		return fmt.Errorf("xadd to stream: %w", err)
	}
	return nil
}

// oddsKey formats the per-runner cache key.
// Format: paddock:odds:{date}:{venue}:{UPPERCASED RUNNER NAME}
func oddsKey(venue, date, runner string) string {
	return fmt.Sprintf("paddock:odds:%s:%s:%s", date, venue, runner)
}

func snapshotKey(venue, date string) string {
	return fmt.Sprintf("paddock:snapshot:%s:%s", date, venue)
}
