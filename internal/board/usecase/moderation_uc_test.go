package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	natsAdapter "github.com/Abdurahmanit/GroupProject/board-service/internal/adapter/messaging/nats"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/domain"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/logger"
)

type moderationFixture struct {
	listings    *MockListingRepository
	permanents  *MockPermanentRepository
	promos      *MockPromoRepository
	cache       *MockVisibleCache
	broadcaster *MockBroadcaster
	publisher   *MockEventPublisher
	uc          *ModerationUsecase
}

func newModerationFixture() *moderationFixture {
	f := &moderationFixture{
		listings:    new(MockListingRepository),
		permanents:  new(MockPermanentRepository),
		promos:      new(MockPromoRepository),
		cache:       new(MockVisibleCache),
		broadcaster: new(MockBroadcaster),
		publisher:   new(MockEventPublisher),
	}
	f.uc = NewModerationUsecase(
		f.listings, f.permanents, f.promos, f.cache,
		f.broadcaster, f.publisher, newTestMetrics(), logger.NewNop())
	return f
}

func pendingListing(id string) *domain.Listing {
	return &domain.Listing{
		ID: id, Title: "Bike", OwnerID: "alice",
		Status: domain.StatusPending, CreatedAt: time.Now().UTC(),
	}
}

func approvedListing(id string) *domain.Listing {
	l := pendingListing(id)
	l.Status = domain.StatusApproved
	return l
}

func TestModerationUsecase_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("PendingBecomesApproved_AndBroadcast", func(t *testing.T) {
		f := newModerationFixture()
		f.listings.On("FindByID", ctx, "l1").Return(pendingListing("l1"), nil).Once()
		f.listings.On("UpdateStatus", ctx, "l1", domain.StatusApproved).Return(nil).Once()
		f.cache.On("InvalidateVisible", ctx).Return(nil).Once()
		f.broadcaster.On("ListingAdded", mock.MatchedBy(func(v *domain.VisibleListing) bool {
			return v.ID == "l1" && !v.Permanent && v.Status == domain.StatusApproved
		})).Once()
		f.publisher.On("Publish", ctx, natsAdapter.SubjectListingApproved, mock.Anything).Return(nil).Once()

		listing, err := f.uc.Approve(ctx, "l1")

		require.NoError(t, err)
		assert.Equal(t, domain.StatusApproved, listing.Status)
		f.listings.AssertExpectations(t)
		f.broadcaster.AssertExpectations(t)
	})

	t.Run("AlreadyApproved_NoOpWithoutBroadcast", func(t *testing.T) {
		f := newModerationFixture()
		f.listings.On("FindByID", ctx, "l1").Return(approvedListing("l1"), nil).Once()

		listing, err := f.uc.Approve(ctx, "l1")

		require.NoError(t, err)
		assert.Equal(t, domain.StatusApproved, listing.Status)
		f.listings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		f.broadcaster.AssertNotCalled(t, "ListingAdded", mock.Anything)
	})

	t.Run("Missing", func(t *testing.T) {
		f := newModerationFixture()
		f.listings.On("FindByID", ctx, "nope").Return(nil, domain.ErrNotFound).Once()

		_, err := f.uc.Approve(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestModerationUsecase_Reject(t *testing.T) {
	ctx := context.Background()

	t.Run("PendingIsRemovedEntirely", func(t *testing.T) {
		f := newModerationFixture()
		f.listings.On("FindByID", ctx, "l1").Return(pendingListing("l1"), nil).Once()
		f.listings.On("Delete", ctx, "l1").Return(nil).Once()
		f.broadcaster.On("ListingRemoved", "l1").Once()
		f.publisher.On("Publish", ctx, natsAdapter.SubjectListingRejected, mock.Anything).Return(nil).Once()

		err := f.uc.Reject(ctx, "l1")

		require.NoError(t, err)
		f.listings.AssertExpectations(t)
		f.broadcaster.AssertExpectations(t)
	})

	t.Run("ApprovedListingCannotBeRejected", func(t *testing.T) {
		f := newModerationFixture()
		f.listings.On("FindByID", ctx, "l1").Return(approvedListing("l1"), nil).Once()

		err := f.uc.Reject(ctx, "l1")

		assert.ErrorIs(t, err, domain.ErrNotFound)
		f.listings.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestModerationUsecase_Promote(t *testing.T) {
	ctx := context.Background()

	t.Run("ApprovedListingGetsSnapshot", func(t *testing.T) {
		f := newModerationFixture()
		f.listings.On("FindByID", ctx, "l1").Return(approvedListing("l1"), nil).Once()
		f.permanents.On("Insert", ctx, mock.MatchedBy(func(e *domain.PermanentEntry) bool {
			return e.ListingID == "l1" && e.Title == "Bike"
		})).Return(nil).Once()
		f.cache.On("InvalidateVisible", ctx).Return(nil).Once()
		f.broadcaster.On("ListingAdded", mock.MatchedBy(func(v *domain.VisibleListing) bool {
			return v.ID == "l1" && v.Permanent
		})).Once()
		f.publisher.On("Publish", ctx, natsAdapter.SubjectListingPromoted, mock.Anything).Return(nil).Once()

		_, err := f.uc.Promote(ctx, "l1")

		require.NoError(t, err)
		f.permanents.AssertExpectations(t)
		f.broadcaster.AssertExpectations(t)
	})

	t.Run("PendingListingIsAutoApproved", func(t *testing.T) {
		f := newModerationFixture()
		f.listings.On("FindByID", ctx, "l1").Return(pendingListing("l1"), nil).Once()
		f.listings.On("UpdateStatus", ctx, "l1", domain.StatusApproved).Return(nil).Once()
		f.permanents.On("Insert", ctx, mock.Anything).Return(nil).Once()
		f.cache.On("InvalidateVisible", ctx).Return(nil).Once()
		f.broadcaster.On("ListingAdded", mock.Anything).Once()
		f.publisher.On("Publish", ctx, natsAdapter.SubjectListingPromoted, mock.Anything).Return(nil).Once()

		listing, err := f.uc.Promote(ctx, "l1")

		require.NoError(t, err)
		assert.Equal(t, domain.StatusApproved, listing.Status)
		f.listings.AssertExpectations(t)
	})

	t.Run("AlreadyPermanent", func(t *testing.T) {
		f := newModerationFixture()
		f.listings.On("FindByID", ctx, "l1").Return(approvedListing("l1"), nil).Once()
		f.permanents.On("Insert", ctx, mock.Anything).Return(domain.ErrAlreadyPermanent).Once()

		_, err := f.uc.Promote(ctx, "l1")

		assert.ErrorIs(t, err, domain.ErrAlreadyPermanent)
		f.broadcaster.AssertNotCalled(t, "ListingAdded", mock.Anything)
	})
}

func TestModerationUsecase_RevokePermanent(t *testing.T) {
	ctx := context.Background()

	t.Run("MemberLosesPermanence_StaysVisible", func(t *testing.T) {
		f := newModerationFixture()
		f.permanents.On("Delete", ctx, "l1").Return(true, nil).Once()
		f.cache.On("InvalidateVisible", ctx).Return(nil).Once()
		f.listings.On("FindByID", ctx, "l1").Return(approvedListing("l1"), nil).Once()
		f.broadcaster.On("ListingAdded", mock.MatchedBy(func(v *domain.VisibleListing) bool {
			return v.ID == "l1" && !v.Permanent
		})).Once()
		f.publisher.On("Publish", ctx, natsAdapter.SubjectListingRevoked, mock.Anything).Return(nil).Once()

		err := f.uc.RevokePermanent(ctx, "l1")

		require.NoError(t, err)
		f.broadcaster.AssertExpectations(t)
	})

	t.Run("NonMemberIsNoOp", func(t *testing.T) {
		f := newModerationFixture()
		f.permanents.On("Delete", ctx, "l1").Return(false, nil).Once()

		err := f.uc.RevokePermanent(ctx, "l1")

		require.NoError(t, err)
		f.broadcaster.AssertNotCalled(t, "ListingAdded", mock.Anything)
		f.broadcaster.AssertNotCalled(t, "ListingRemoved", mock.Anything)
	})

	t.Run("OrphanSnapshot_BroadcastsRemoval", func(t *testing.T) {
		f := newModerationFixture()
		f.permanents.On("Delete", ctx, "l1").Return(true, nil).Once()
		f.cache.On("InvalidateVisible", ctx).Return(nil).Once()
		f.listings.On("FindByID", ctx, "l1").Return(nil, domain.ErrNotFound).Once()
		f.broadcaster.On("ListingRemoved", "l1").Once()
		f.publisher.On("Publish", ctx, natsAdapter.SubjectListingRevoked, mock.Anything).Return(nil).Once()

		err := f.uc.RevokePermanent(ctx, "l1")

		require.NoError(t, err)
		f.broadcaster.AssertExpectations(t)
	})
}

func TestModerationUsecase_DeleteAny(t *testing.T) {
	ctx := context.Background()

	t.Run("RemovesListingAndSnapshot_SingleBroadcast", func(t *testing.T) {
		f := newModerationFixture()
		f.listings.On("Delete", ctx, "l1").Return(nil).Once()
		f.permanents.On("Delete", ctx, "l1").Return(true, nil).Once()
		f.cache.On("InvalidateVisible", ctx).Return(nil).Once()
		f.broadcaster.On("ListingRemoved", "l1").Once()
		f.publisher.On("Publish", ctx, natsAdapter.SubjectListingRemoved, mock.Anything).Return(nil).Once()

		err := f.uc.DeleteAny(ctx, "l1")

		require.NoError(t, err)
		f.broadcaster.AssertNumberOfCalls(t, "ListingRemoved", 1)
	})

	t.Run("OnlySnapshotExists", func(t *testing.T) {
		f := newModerationFixture()
		f.listings.On("Delete", ctx, "l1").Return(domain.ErrNotFound).Once()
		f.permanents.On("Delete", ctx, "l1").Return(true, nil).Once()
		f.cache.On("InvalidateVisible", ctx).Return(nil).Once()
		f.broadcaster.On("ListingRemoved", "l1").Once()
		f.publisher.On("Publish", ctx, natsAdapter.SubjectListingRemoved, mock.Anything).Return(nil).Once()

		err := f.uc.DeleteAny(ctx, "l1")
		require.NoError(t, err)
	})

	t.Run("NeitherExists", func(t *testing.T) {
		f := newModerationFixture()
		f.listings.On("Delete", ctx, "l1").Return(domain.ErrNotFound).Once()
		f.permanents.On("Delete", ctx, "l1").Return(false, nil).Once()

		err := f.uc.DeleteAny(ctx, "l1")

		assert.ErrorIs(t, err, domain.ErrNotFound)
		f.broadcaster.AssertNotCalled(t, "ListingRemoved", mock.Anything)
	})
}

func TestModerationUsecase_MintPromoCode(t *testing.T) {
	ctx := context.Background()
	f := newModerationFixture()

	minted := make(map[string]bool)
	f.promos.On("Mint", ctx, mock.AnythingOfType("string")).Return(nil).Times(20)

	for i := 0; i < 20; i++ {
		code, err := f.uc.MintPromoCode(ctx)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(code, "PREMIUM_"), "code %q lacks prefix", code)
		assert.Len(t, code, len("PREMIUM_")+8)
		for _, r := range strings.TrimPrefix(code, "PREMIUM_") {
			assert.Contains(t, promoAlphabet, string(r))
		}
		assert.False(t, minted[code], "minted a duplicate code %q", code)
		minted[code] = true
	}
}
