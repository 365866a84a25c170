package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Abdurahmanit/GroupProject/board-service/internal/adapter/messaging/nats"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/domain"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/metrics"
	"go.uber.org/zap"
)

// resetEvent is the payload published on the board.reset subject.
type resetEvent struct {
	Survivors int       `json:"survivors"`
	Purged    int64     `json:"purged"`
	NextReset time.Time `json:"next_reset"`
}

// ExpiryScheduler owns the recurring purge of non-permanent approved
// listings. It polls on a coarse cadence and fires when the long interval
// has elapsed; the poll cadence is not itself the expiry period. The
// `nextReset` timestamp lives here, persisted through the cache so a
// restarted process resumes the running cycle.
type ExpiryScheduler struct {
	listings    domain.ListingRepository
	permanents  domain.PermanentRepository
	cache       domain.VisibleCache
	broadcaster domain.Broadcaster
	publisher   domain.EventPublisher
	metrics     *metrics.MetricsManager
	logger      *logger.Logger

	interval     time.Duration
	pollInterval time.Duration
	visibleLimit int

	mu        sync.Mutex
	nextReset time.Time
	inFlight  atomic.Bool
}

func NewExpiryScheduler(
	listings domain.ListingRepository,
	permanents domain.PermanentRepository,
	cache domain.VisibleCache,
	broadcaster domain.Broadcaster,
	publisher domain.EventPublisher,
	mm *metrics.MetricsManager,
	interval, pollInterval time.Duration,
	visibleLimit int,
	log *logger.Logger,
) *ExpiryScheduler {
	s := &ExpiryScheduler{
		listings:     listings,
		permanents:   permanents,
		cache:        cache,
		broadcaster:  broadcaster,
		publisher:    publisher,
		metrics:      mm,
		interval:     interval,
		pollInterval: pollInterval,
		visibleLimit: visibleLimit,
		logger:       log.Named("ExpiryScheduler"),
	}
	s.restoreClock()
	return s
}

// restoreClock loads the persisted nextReset or starts a fresh interval.
func (s *ExpiryScheduler) restoreClock() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	next, err := s.cache.GetNextReset(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn("Failed to load persisted expiry clock, starting a fresh interval", zap.Error(err))
		}
		next = time.Now().UTC().Add(s.interval)
		if err := s.cache.SetNextReset(ctx, next); err != nil {
			s.logger.Warn("Failed to persist expiry clock", zap.Error(err))
		}
	}

	s.mu.Lock()
	s.nextReset = next
	s.mu.Unlock()
	s.logger.Info("Expiry clock initialized", zap.Time("next_reset", next))
}

// NextReset returns the timestamp of the upcoming expiry cycle.
func (s *ExpiryScheduler) NextReset() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextReset
}

// Run polls until the context is cancelled. Blocking; callers start it in a
// goroutine.
func (s *ExpiryScheduler) Run(ctx context.Context) {
	s.logger.Info("Expiry scheduler started",
		zap.Duration("interval", s.interval),
		zap.Duration("poll_interval", s.pollInterval))

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Expiry scheduler stopped")
			return
		case <-ticker.C:
			s.maybeRun(ctx)
		}
	}
}

// maybeRun fires the cycle when the interval has elapsed. A tick that
// arrives while a cycle is still running is skipped, never run concurrently.
func (s *ExpiryScheduler) maybeRun(ctx context.Context) {
	if time.Now().Before(s.NextReset()) {
		return
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn("Skipping expiry tick: previous cycle still running")
		return
	}
	defer s.inFlight.Store(false)

	if err := s.RunCycle(ctx); err != nil {
		s.logger.Error("Expiry cycle failed", zap.Error(err))
	}
}

// RunCycle purges every approved listing outside the permanent set, advances
// the clock and broadcasts the full replacement set. Firing it twice in a row
// is safe: the second purge deletes an empty set and permanent listings are
// never touched.
func (s *ExpiryScheduler) RunCycle(ctx context.Context) error {
	entries, err := s.permanents.FindAll(ctx)
	if err != nil {
		return err
	}

	keep := make([]string, 0, len(entries))
	for _, e := range entries {
		keep = append(keep, e.ListingID)
	}

	purged, err := s.listings.DeleteApprovedExcluding(ctx, keep)
	if err != nil {
		return err
	}

	next := time.Now().UTC().Add(s.interval)
	s.mu.Lock()
	s.nextReset = next
	s.mu.Unlock()
	if err := s.cache.SetNextReset(ctx, next); err != nil {
		s.logger.Warn("Failed to persist expiry clock", zap.Error(err))
	}
	if err := s.cache.InvalidateVisible(ctx); err != nil {
		s.logger.Warn("Failed to invalidate visible cache", zap.Error(err))
	}

	survivors := MergeVisible(nil, entries, s.visibleLimit)

	s.logger.Info("Expiry cycle completed",
		zap.Int64("purged", purged),
		zap.Int("survivors", len(survivors)),
		zap.Time("next_reset", next))
	s.metrics.ExpiryCyclesTotal.Inc()
	s.metrics.ExpiredListingsTotal.Add(float64(purged))

	s.broadcaster.BoardReset(survivors, next)
	if err := s.publisher.Publish(ctx, nats.SubjectBoardReset, resetEvent{
		Survivors: len(survivors),
		Purged:    purged,
		NextReset: next,
	}); err != nil {
		s.logger.Warn("Failed to publish reset event", zap.Error(err))
	}
	return nil
}
