package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/board-service/internal/adapter/messaging/nats"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/domain"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/metrics"
	"go.uber.org/zap"
)

const pendingQueueLimit = 500

// ModerationUsecase implements the operator-side state machine over
// {pending, approved} crossed with permanent-set membership. Authorization
// happens at the transport layer; every method here assumes an already
// authorized operator. Mutations are serialized so each broadcast goes out in
// commit order.
type ModerationUsecase struct {
	listings    domain.ListingRepository
	permanents  domain.PermanentRepository
	promos      domain.PromoRepository
	cache       domain.VisibleCache
	broadcaster domain.Broadcaster
	publisher   domain.EventPublisher
	metrics     *metrics.MetricsManager
	logger      *logger.Logger

	mu sync.Mutex
}

func NewModerationUsecase(
	listings domain.ListingRepository,
	permanents domain.PermanentRepository,
	promos domain.PromoRepository,
	cache domain.VisibleCache,
	broadcaster domain.Broadcaster,
	publisher domain.EventPublisher,
	mm *metrics.MetricsManager,
	log *logger.Logger,
) *ModerationUsecase {
	return &ModerationUsecase{
		listings:    listings,
		permanents:  permanents,
		promos:      promos,
		cache:       cache,
		broadcaster: broadcaster,
		publisher:   publisher,
		metrics:     mm,
		logger:      log.Named("ModerationUsecase"),
	}
}

// Approve moves a pending listing to approved and announces it to every
// session. Approving an already approved listing is a no-op without a
// broadcast (nothing visible changed).
func (uc *ModerationUsecase) Approve(ctx context.Context, listingID string) (*domain.Listing, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	listing, err := uc.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status == domain.StatusApproved {
		uc.logger.Info("Approve is a no-op: listing already approved", zap.String("listing_id", listingID))
		return listing, nil
	}

	if err := uc.listings.UpdateStatus(ctx, listingID, domain.StatusApproved); err != nil {
		return nil, err
	}
	listing.Status = domain.StatusApproved

	uc.logger.Info("Listing approved", zap.String("listing_id", listingID), zap.Bool("premium", listing.IsPremium))
	uc.metrics.ApprovalsTotal.Inc()
	uc.afterVisibleMutation(ctx)
	uc.broadcaster.ListingAdded(&domain.VisibleListing{Listing: *listing, Permanent: false})
	uc.publish(ctx, nats.SubjectListingApproved, listing)
	return listing, nil
}

// Reject removes a pending listing from the store entirely. Rejecting a
// listing that is absent or no longer pending fails with ErrNotFound.
func (uc *ModerationUsecase) Reject(ctx context.Context, listingID string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	listing, err := uc.listings.FindByID(ctx, listingID)
	if err != nil {
		return err
	}
	if listing.Status != domain.StatusPending {
		return fmt.Errorf("%w: listing is not pending", domain.ErrNotFound)
	}

	if err := uc.listings.Delete(ctx, listingID); err != nil {
		return err
	}

	uc.logger.Info("Listing rejected", zap.String("listing_id", listingID))
	uc.metrics.RejectionsTotal.Inc()
	uc.broadcaster.ListingRemoved(listingID)
	uc.publish(ctx, nats.SubjectListingRejected, map[string]string{"listing_id": listingID})
	return nil
}

// Promote inserts a promotion-time snapshot into the permanent set,
// auto-approving pending listings as a side effect.
func (uc *ModerationUsecase) Promote(ctx context.Context, listingID string) (*domain.Listing, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	listing, err := uc.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if listing.Status == domain.StatusPending {
		if err := uc.listings.UpdateStatus(ctx, listingID, domain.StatusApproved); err != nil {
			return nil, err
		}
		listing.Status = domain.StatusApproved
		uc.metrics.ApprovalsTotal.Inc()
	}

	if err := uc.permanents.Insert(ctx, domain.SnapshotOf(listing, time.Now().UTC())); err != nil {
		return nil, err // ErrAlreadyPermanent surfaces here unchanged
	}

	uc.logger.Info("Listing promoted to permanent", zap.String("listing_id", listingID))
	uc.metrics.PromotionsTotal.Inc()
	uc.afterVisibleMutation(ctx)
	uc.broadcaster.ListingAdded(&domain.VisibleListing{Listing: *listing, Permanent: true})
	uc.publish(ctx, nats.SubjectListingPromoted, listing)
	return listing, nil
}

// RevokePermanent removes the listing's snapshot from the permanent set; the
// listing stays approved and becomes eligible for the next expiry cycle.
// Revoking a non-member is a no-op.
func (uc *ModerationUsecase) RevokePermanent(ctx context.Context, listingID string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	removed, err := uc.permanents.Delete(ctx, listingID)
	if err != nil {
		return err
	}
	if !removed {
		uc.logger.Info("Revoke is a no-op: listing not in permanent set", zap.String("listing_id", listingID))
		return nil
	}

	uc.logger.Info("Permanent promotion revoked", zap.String("listing_id", listingID))
	uc.metrics.RevocationsTotal.Inc()
	uc.afterVisibleMutation(ctx)

	// The listing remains visible; announce its new non-permanent shape so
	// clients can update badges and expiry eligibility.
	listing, err := uc.listings.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Snapshot existed without a backing listing; its removal means the
			// entry just left the visible set.
			uc.broadcaster.ListingRemoved(listingID)
			uc.publish(ctx, nats.SubjectListingRevoked, map[string]string{"listing_id": listingID})
			return nil
		}
		return err
	}
	uc.broadcaster.ListingAdded(&domain.VisibleListing{Listing: *listing, Permanent: false})
	uc.publish(ctx, nats.SubjectListingRevoked, listing)
	return nil
}

// DeleteAny removes the listing from both the listing store and the permanent
// set unconditionally. ErrNotFound only when it was present in neither.
func (uc *ModerationUsecase) DeleteAny(ctx context.Context, listingID string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	listingErr := uc.listings.Delete(ctx, listingID)
	if listingErr != nil && !errors.Is(listingErr, domain.ErrNotFound) {
		return listingErr
	}
	snapshotRemoved, err := uc.permanents.Delete(ctx, listingID)
	if err != nil {
		return err
	}

	if errors.Is(listingErr, domain.ErrNotFound) && !snapshotRemoved {
		return domain.ErrNotFound
	}

	uc.logger.Info("Listing deleted by operator",
		zap.String("listing_id", listingID),
		zap.Bool("had_snapshot", snapshotRemoved))
	uc.metrics.DeletionsTotal.Inc()
	uc.afterVisibleMutation(ctx)
	uc.broadcaster.ListingRemoved(listingID)
	uc.publish(ctx, nats.SubjectListingRemoved, map[string]string{"listing_id": listingID})
	return nil
}

// ListPending returns the moderation queue, newest first.
func (uc *ModerationUsecase) ListPending(ctx context.Context) ([]*domain.Listing, error) {
	return uc.listings.FindByStatus(ctx, domain.StatusPending, pendingQueueLimit)
}

// ListAll returns every stored listing regardless of status.
func (uc *ModerationUsecase) ListAll(ctx context.Context) ([]*domain.Listing, error) {
	return uc.listings.FindAll(ctx, 0)
}

const (
	promoPrefix   = "PREMIUM_"
	promoAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	promoLength   = 8
)

// MintPromoCode generates and stores a fresh one-time promo code.
func (uc *ModerationUsecase) MintPromoCode(ctx context.Context) (string, error) {
	buf := make([]byte, promoLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate promo token: %w", err)
	}
	for i, b := range buf {
		buf[i] = promoAlphabet[int(b)%len(promoAlphabet)]
	}
	code := promoPrefix + string(buf)

	if err := uc.promos.Mint(ctx, code); err != nil {
		return "", err
	}
	uc.logger.Info("Promo code minted")
	uc.metrics.PromoCodesMintedTotal.Inc()
	return code, nil
}

func (uc *ModerationUsecase) afterVisibleMutation(ctx context.Context) {
	if err := uc.cache.InvalidateVisible(ctx); err != nil {
		uc.logger.Warn("Failed to invalidate visible cache", zap.Error(err))
	}
}

func (uc *ModerationUsecase) publish(ctx context.Context, subject string, data interface{}) {
	if err := uc.publisher.Publish(ctx, subject, data); err != nil {
		uc.logger.Warn("Failed to publish moderation event", zap.String("subject", subject), zap.Error(err))
	}
}
