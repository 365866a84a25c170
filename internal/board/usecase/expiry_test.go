package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	natsAdapter "github.com/Abdurahmanit/GroupProject/board-service/internal/adapter/messaging/nats"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/domain"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/logger"
)

type expiryFixture struct {
	listings    *MockListingRepository
	permanents  *MockPermanentRepository
	cache       *MockVisibleCache
	broadcaster *MockBroadcaster
	publisher   *MockEventPublisher
}

func newExpiryFixture(t *testing.T, persisted time.Time) (*expiryFixture, *ExpiryScheduler) {
	t.Helper()
	f := &expiryFixture{
		listings:    new(MockListingRepository),
		permanents:  new(MockPermanentRepository),
		cache:       new(MockVisibleCache),
		broadcaster: new(MockBroadcaster),
		publisher:   new(MockEventPublisher),
	}
	if persisted.IsZero() {
		f.cache.On("GetNextReset", mock.Anything).Return(time.Time{}, domain.ErrCacheMiss).Once()
		f.cache.On("SetNextReset", mock.Anything, mock.AnythingOfType("time.Time")).Return(nil).Once()
	} else {
		f.cache.On("GetNextReset", mock.Anything).Return(persisted, nil).Once()
	}
	s := NewExpiryScheduler(
		f.listings, f.permanents, f.cache, f.broadcaster, f.publisher,
		newTestMetrics(), 24*time.Hour, time.Minute, 100, logger.NewNop())
	return f, s
}

func TestExpiryScheduler_RestoresPersistedClock(t *testing.T) {
	persisted := time.Now().UTC().Add(3 * time.Hour).Truncate(time.Second)
	_, s := newExpiryFixture(t, persisted)

	assert.Equal(t, persisted, s.NextReset())
}

func TestExpiryScheduler_FreshClockOnCacheMiss(t *testing.T) {
	f, s := newExpiryFixture(t, time.Time{})

	next := s.NextReset()
	assert.WithinDuration(t, time.Now().UTC().Add(24*time.Hour), next, time.Minute)
	f.cache.AssertExpectations(t)
}

func TestExpiryScheduler_RunCycle(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("PurgesEverythingOutsidePermanentSet", func(t *testing.T) {
		f, s := newExpiryFixture(t, base)
		entries := []*domain.PermanentEntry{
			domain.SnapshotOf(listingAt("keep1", false, base), base),
			domain.SnapshotOf(listingAt("keep2", true, base), base),
		}
		f.permanents.On("FindAll", ctx).Return(entries, nil).Once()
		f.listings.On("DeleteApprovedExcluding", ctx, []string{"keep1", "keep2"}).Return(int64(7), nil).Once()
		f.cache.On("SetNextReset", ctx, mock.AnythingOfType("time.Time")).Return(nil).Once()
		f.cache.On("InvalidateVisible", ctx).Return(nil).Once()
		f.broadcaster.On("BoardReset", mock.MatchedBy(func(v []*domain.VisibleListing) bool {
			return len(v) == 2 && v[0].Permanent && v[1].Permanent
		}), mock.AnythingOfType("time.Time")).Once()
		f.publisher.On("Publish", ctx, natsAdapter.SubjectBoardReset, mock.Anything).Return(nil).Once()

		before := s.NextReset()
		err := s.RunCycle(ctx)

		require.NoError(t, err)
		assert.True(t, s.NextReset().After(before), "clock advances by a full interval")
		f.listings.AssertExpectations(t)
		f.broadcaster.AssertExpectations(t)
	})

	t.Run("SecondImmediateCycleIsHarmless", func(t *testing.T) {
		f, s := newExpiryFixture(t, base)
		f.permanents.On("FindAll", ctx).Return([]*domain.PermanentEntry{}, nil).Twice()
		f.listings.On("DeleteApprovedExcluding", ctx, []string{}).Return(int64(3), nil).Once()
		f.listings.On("DeleteApprovedExcluding", ctx, []string{}).Return(int64(0), nil).Once()
		f.cache.On("SetNextReset", ctx, mock.Anything).Return(nil).Twice()
		f.cache.On("InvalidateVisible", ctx).Return(nil).Twice()
		f.broadcaster.On("BoardReset", mock.Anything, mock.Anything).Twice()
		f.publisher.On("Publish", ctx, natsAdapter.SubjectBoardReset, mock.Anything).Return(nil).Twice()

		require.NoError(t, s.RunCycle(ctx))
		require.NoError(t, s.RunCycle(ctx))
		f.listings.AssertExpectations(t)
	})

	t.Run("EmptyBoardResetStillBroadcasts", func(t *testing.T) {
		f, s := newExpiryFixture(t, base)
		f.permanents.On("FindAll", ctx).Return([]*domain.PermanentEntry{}, nil).Once()
		f.listings.On("DeleteApprovedExcluding", ctx, []string{}).Return(int64(0), nil).Once()
		f.cache.On("SetNextReset", ctx, mock.Anything).Return(nil).Once()
		f.cache.On("InvalidateVisible", ctx).Return(nil).Once()
		f.broadcaster.On("BoardReset", mock.MatchedBy(func(v []*domain.VisibleListing) bool {
			return len(v) == 0
		}), mock.Anything).Once()
		f.publisher.On("Publish", ctx, natsAdapter.SubjectBoardReset, mock.Anything).Return(nil).Once()

		require.NoError(t, s.RunCycle(ctx))
		f.broadcaster.AssertExpectations(t)
	})
}
