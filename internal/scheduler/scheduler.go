// Package scheduler drives the periodic reconciliation cycle: fetch
// exchange odds, refresh runners, record results.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/XavierBriggs/Paddock/internal/metrics"
	"github.com/XavierBriggs/Paddock/internal/recon"
	"github.com/XavierBriggs/Paddock/pkg/contracts"
	"github.com/XavierBriggs/Paddock/pkg/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Publisher mirrors cycle output into a cache and event stream.
// Implemented by snapshot.Publisher.
type Publisher interface {
	CacheOdds(ctx context.Context, venue, date string, odds models.OddsMap) error
	PublishResult(ctx context.Context, raceID string, result models.RaceResult) error
}

// Options configures a Scheduler.
type Options struct {
	// Interval between cycles.
	Interval time.Duration

	// Cycles run only when the local hour is within
	// [WindowStartHour, WindowEndHour).
	WindowStartHour int
	WindowEndHour   int

	// Location the window and meeting dates are evaluated in.
	Location *time.Location
}

// Scheduler runs reconciliation cycles on a timer. Cycles are
// single-flight: the loop runs each to completion before the next tick
// is read, so a slow cycle delays rather than overlaps.
type Scheduler struct {
	store     contracts.RaceStore
	odds      contracts.OddsSource
	racing    contracts.RacingDataSource
	engine    *recon.Engine
	publisher Publisher
	logger    *logrus.Logger
	opts      Options

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler. The publisher may be nil when no
// Redis mirror is wanted.
func NewScheduler(
	store contracts.RaceStore,
	odds contracts.OddsSource,
	racing contracts.RacingDataSource,
	engine *recon.Engine,
	publisher Publisher,
	logger *logrus.Logger,
	opts Options,
) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Scheduler{
		store:     store,
		odds:      odds,
		racing:    racing,
		engine:    engine,
		publisher: publisher,
		logger:    logger,
		opts:      opts,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the cycle loop in a goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()
	s.logger.WithFields(logrus.Fields{
		"interval": s.opts.Interval,
		"window":   timeWindowLabel(s.opts.WindowStartHour, s.opts.WindowEndHour),
	}).Info("scheduler started")
}

// Stop shuts the scheduler down and waits for an in-flight cycle.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	// Initial cycle immediately.
	s.tick(ctx)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now().In(s.opts.Location)
	if !WithinWindow(now, s.opts.WindowStartHour, s.opts.WindowEndHour) {
		s.logger.WithField("hour", now.Hour()).Debug("outside cycle window")
		metrics.CyclesTotal.WithLabelValues("outside_window").Inc()
		return
	}
	s.RunCycle(ctx)
}

// RunCycle executes one full reconciliation cycle. Pass failures are
// logged and counted; the cycle always moves on to the next pass.
func (s *Scheduler) RunCycle(ctx context.Context) {
	runID := uuid.NewString()
	log := s.logger.WithField("run_id", runID)

	meeting, err := s.store.GetActiveMeeting(ctx)
	if err != nil {
		log.WithError(err).Error("cannot load active meeting")
		metrics.CyclesTotal.WithLabelValues("error").Inc()
		return
	}
	if meeting == nil || meeting.Venue == "" || meeting.Date == "" {
		log.Info("no active meeting configured, cycle skipped")
		metrics.CyclesTotal.WithLabelValues("no_meeting").Inc()
		return
	}

	log = log.WithFields(logrus.Fields{"venue": meeting.Venue, "date": meeting.Date})
	start := time.Now()

	s.runOddsPass(ctx, log, *meeting)
	s.runRunnerPass(ctx, log, *meeting)
	s.runResultsPass(ctx, log, *meeting)

	log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("cycle complete")
	metrics.CyclesTotal.WithLabelValues("ok").Inc()
}

func (s *Scheduler) runOddsPass(ctx context.Context, log *logrus.Entry, meeting models.Meeting) {
	odds, err := s.odds.FetchOdds(ctx, meeting.Venue, meeting.Date)
	if err != nil {
		log.WithError(err).Warn("odds fetch failed")
		metrics.PassErrorsTotal.WithLabelValues("odds").Inc()
		return
	}
	if odds.Empty() {
		log.Info("no exchange odds for venue")
		return
	}

	matched, err := s.engine.ReconcileOdds(ctx, meeting.Date, odds)
	if err != nil {
		log.WithError(err).Warn("odds reconciliation failed")
		metrics.PassErrorsTotal.WithLabelValues("odds").Inc()
		return
	}
	metrics.OddsMatchedTotal.Add(float64(matched))

	if s.publisher != nil {
		if err := s.publisher.CacheOdds(ctx, meeting.Venue, meeting.Date, odds); err != nil {
			// Cache rebuilds on the next cycle.
			log.WithError(err).Warn("odds snapshot cache failed")
		}
	}
}

func (s *Scheduler) runRunnerPass(ctx context.Context, log *logrus.Entry, meeting models.Meeting) {
	if meeting.Day == "" {
		log.Debug("meeting has no feed day, runner pass skipped")
		return
	}
	if !s.meetingIsCurrent(meeting) {
		log.Debug("meeting date not today or tomorrow, runner pass skipped")
		return
	}

	cards, err := s.racing.FetchRacecards(ctx, meeting.Day)
	if err != nil {
		log.WithError(err).Warn("racecard fetch failed")
		metrics.PassErrorsTotal.WithLabelValues("runners").Inc()
		return
	}

	_, newNR, err := s.engine.ReconcileRunners(ctx, meeting, cards)
	if err != nil {
		log.WithError(err).Warn("runner reconciliation failed")
		metrics.PassErrorsTotal.WithLabelValues("runners").Inc()
		return
	}
	metrics.NonRunnersTotal.Add(float64(newNR))
}

func (s *Scheduler) runResultsPass(ctx context.Context, log *logrus.Entry, meeting models.Meeting) {
	if meeting.Day == "" {
		log.Debug("meeting has no feed day, results pass skipped")
		return
	}

	outcomes, err := s.racing.FetchResults(ctx, meeting.Day)
	if err != nil {
		log.WithError(err).Warn("results fetch failed")
		metrics.PassErrorsTotal.WithLabelValues("results").Inc()
		return
	}

	recorded, err := s.engine.ReconcileResults(ctx, meeting, outcomes)
	if err != nil {
		log.WithError(err).Warn("results reconciliation failed")
		metrics.PassErrorsTotal.WithLabelValues("results").Inc()
		return
	}
	metrics.ResultsRecordedTotal.Add(float64(len(recorded)))

	if s.publisher == nil {
		return
	}
	for _, rec := range recorded {
		if err := s.publisher.PublishResult(ctx, rec.RaceID, rec.Result); err != nil {
			// The result is stored; only the stream event is lost.
			log.WithError(err).WithField("race", rec.RaceID).Warn("result publish failed")
		}
	}
}

// meetingIsCurrent reports whether the meeting date is today or
// tomorrow in the scheduler's location. Runner data for older meetings
// is history and must not be rewritten.
func (s *Scheduler) meetingIsCurrent(meeting models.Meeting) bool {
	now := time.Now().In(s.opts.Location)
	today := now.Format("2006-01-02")
	tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")
	return meeting.Date == today || meeting.Date == tomorrow
}

// WithinWindow reports whether t's hour falls in [startHour, endHour).
func WithinWindow(t time.Time, startHour, endHour int) bool {
	h := t.Hour()
	return h >= startHour && h < endHour
}

func timeWindowLabel(start, end int) string {
	return time.Date(0, 1, 1, start, 0, 0, 0, time.UTC).Format("15:04") +
		"-" + time.Date(0, 1, 1, end, 0, 0, 0, time.UTC).Format("15:04")
}
