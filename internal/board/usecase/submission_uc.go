package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/board-service/internal/adapter/messaging/nats"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/domain"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxTitleLength = 200

// SubmissionUsecase implements the viewer-side operations: submitting a
// listing into the moderation queue and deleting one's own approved listing.
type SubmissionUsecase struct {
	listings    domain.ListingRepository
	permanents  domain.PermanentRepository
	promos      domain.PromoRepository
	photos      domain.PhotoStorage
	cache       domain.VisibleCache
	broadcaster domain.Broadcaster
	publisher   domain.EventPublisher
	notifier    domain.Notifier
	metrics     *metrics.MetricsManager
	logger      *logger.Logger

	// Serializes the uniqueness check against the subsequent insert. This is a
	// best-effort guard within one process; the unique partial owner index in
	// the listing repository is the hard backstop.
	mu sync.Mutex

	maxPhotoBytes int
}

func NewSubmissionUsecase(
	listings domain.ListingRepository,
	permanents domain.PermanentRepository,
	promos domain.PromoRepository,
	photos domain.PhotoStorage,
	cache domain.VisibleCache,
	broadcaster domain.Broadcaster,
	publisher domain.EventPublisher,
	notifier domain.Notifier,
	mm *metrics.MetricsManager,
	maxPhotoBytes int,
	log *logger.Logger,
) *SubmissionUsecase {
	return &SubmissionUsecase{
		listings:      listings,
		permanents:    permanents,
		promos:        promos,
		photos:        photos,
		cache:         cache,
		broadcaster:   broadcaster,
		publisher:     publisher,
		notifier:      notifier,
		metrics:       mm,
		maxPhotoBytes: maxPhotoBytes,
		logger:        log.Named("SubmissionUsecase"),
	}
}

// MaxPhotoBytes exposes the configured photo size cap so transports can
// reject oversized payloads before decoding them.
func (uc *SubmissionUsecase) MaxPhotoBytes() int {
	return uc.maxPhotoBytes
}

// SubmitInput holds the input parameters for submitting a listing.
type SubmitInput struct {
	Title       string
	Description string
	Category    string
	OwnerID     string
	PromoCode   string
	PhotoName   string
	PhotoData   []byte
}

// Submit runs the submission pipeline: validation, uniqueness guard, photo
// upload, promo redemption, insert as pending. The steps are an ordered
// pipeline with early exit on first failure; a listing that fails any step
// leaves no store mutation behind except an already-redeemed promo code when
// the final insert fails, whether on a storage fault or on the unique owner
// index catching a concurrent duplicate (used never reverts).
func (uc *SubmissionUsecase) Submit(ctx context.Context, in SubmitInput) (*domain.Listing, error) {
	uc.logger.Info("Submitting listing",
		zap.String("owner_id", in.OwnerID),
		zap.String("title", in.Title),
		zap.Bool("has_promo", in.PromoCode != ""),
		zap.Int("photo_bytes", len(in.PhotoData)))

	if err := uc.validate(in); err != nil {
		uc.metrics.SubmissionsRejectedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	count, err := uc.listings.CountByOwnerAndStatuses(ctx, in.OwnerID,
		[]domain.ListingStatus{domain.StatusPending, domain.StatusApproved})
	if err != nil {
		uc.metrics.SubmissionsRejectedTotal.WithLabelValues("storage").Inc()
		return nil, err
	}
	if count > 0 {
		uc.logger.Info("Submission rejected: owner already has a live listing", zap.String("owner_id", in.OwnerID))
		uc.metrics.SubmissionsRejectedTotal.WithLabelValues("duplicate").Inc()
		return nil, fmt.Errorf("%w: you already have a listing awaiting moderation or on the board", domain.ErrDuplicateSubmission)
	}

	// The photo goes up before the promo code is touched so a storage failure
	// cannot burn the code.
	var photoURL string
	if len(in.PhotoData) > 0 {
		photoURL, err = uc.photos.Upload(ctx, in.PhotoName, in.PhotoData)
		if err != nil {
			uc.logger.Error("Photo upload failed", zap.String("owner_id", in.OwnerID), zap.Error(err))
			uc.metrics.SubmissionsRejectedTotal.WithLabelValues("storage").Inc()
			return nil, fmt.Errorf("%w: photo upload failed", domain.ErrRepository)
		}
	}

	isPremium := false
	if in.PromoCode != "" {
		if err := uc.promos.Redeem(ctx, in.PromoCode); err != nil {
			if errors.Is(err, domain.ErrPromoInvalid) {
				uc.metrics.SubmissionsRejectedTotal.WithLabelValues("promo").Inc()
				return nil, err
			}
			uc.metrics.SubmissionsRejectedTotal.WithLabelValues("storage").Inc()
			return nil, err
		}
		isPremium = true
		uc.metrics.PromoCodesRedeemedTotal.Inc()
	}

	listing := &domain.Listing{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		PhotoURL:    photoURL,
		Category:    in.Category,
		OwnerID:     in.OwnerID,
		IsPremium:   isPremium,
		Status:      domain.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}

	if err := uc.listings.Insert(ctx, listing); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// The unique owner index caught a concurrent submission that slipped
			// past the in-process guard.
			uc.metrics.SubmissionsRejectedTotal.WithLabelValues("duplicate").Inc()
			return nil, fmt.Errorf("%w: you already have a listing awaiting moderation or on the board", domain.ErrDuplicateSubmission)
		}
		uc.logger.Error("Failed to insert submitted listing", zap.String("owner_id", in.OwnerID), zap.Error(err))
		uc.metrics.SubmissionsRejectedTotal.WithLabelValues("storage").Inc()
		return nil, err
	}

	uc.metrics.SubmissionsTotal.Inc()
	uc.broadcaster.PendingAdded(listing)
	uc.notifier.NotifyPendingListing(listing)
	if err := uc.publisher.Publish(ctx, nats.SubjectListingSubmitted, listing); err != nil {
		uc.logger.Warn("Failed to publish submission event", zap.String("listing_id", listing.ID), zap.Error(err))
	}

	return listing, nil
}

func (uc *SubmissionUsecase) validate(in SubmitInput) error {
	if in.OwnerID == "" {
		return fmt.Errorf("%w: owner id is required", domain.ErrValidation)
	}
	if in.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if len(in.Title) > maxTitleLength {
		return fmt.Errorf("%w: title is too long", domain.ErrValidation)
	}
	if uc.maxPhotoBytes > 0 && len(in.PhotoData) > uc.maxPhotoBytes {
		return fmt.Errorf("%w: photo exceeds the %d byte limit", domain.ErrValidation, uc.maxPhotoBytes)
	}
	return nil
}

// DeleteOwn removes the caller's own listing. Permitted only on approved,
// non-permanent listings owned by the requester.
func (uc *SubmissionUsecase) DeleteOwn(ctx context.Context, listingID, ownerID string) error {
	uc.logger.Info("Owner delete requested",
		zap.String("listing_id", listingID),
		zap.String("owner_id", ownerID))

	listing, err := uc.listings.FindByID(ctx, listingID)
	if err != nil {
		return err
	}
	if listing.OwnerID != ownerID {
		uc.logger.Warn("Owner delete forbidden: requester does not own the listing",
			zap.String("listing_id", listingID),
			zap.String("owner_id", ownerID))
		return fmt.Errorf("%w: listing belongs to another user", domain.ErrUnauthorized)
	}
	if listing.Status != domain.StatusApproved {
		return fmt.Errorf("%w: only approved listings can be withdrawn", domain.ErrValidation)
	}

	permanent, err := uc.permanents.Exists(ctx, listingID)
	if err != nil {
		return err
	}
	if permanent {
		return fmt.Errorf("%w: permanent listings can only be removed by the operator", domain.ErrValidation)
	}

	if err := uc.listings.Delete(ctx, listingID); err != nil {
		return err
	}

	uc.metrics.DeletionsTotal.Inc()
	if err := uc.cache.InvalidateVisible(ctx); err != nil {
		uc.logger.Warn("Failed to invalidate visible cache", zap.Error(err))
	}
	uc.broadcaster.ListingRemoved(listingID)
	if err := uc.publisher.Publish(ctx, nats.SubjectListingRemoved, map[string]string{"listing_id": listingID}); err != nil {
		uc.logger.Warn("Failed to publish removal event", zap.String("listing_id", listingID), zap.Error(err))
	}
	return nil
}
