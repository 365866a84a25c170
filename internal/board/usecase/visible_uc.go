package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/domain"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/logger"
	"go.uber.org/zap"
)

const visibleCacheTTL = 30 * time.Second

// VisibleUsecase computes the viewer-facing projection: approved listings
// merged with the permanent set, deduplicated by id with permanent snapshots
// winning, ordered premium-first then by recency, capped at a fixed count.
type VisibleUsecase struct {
	listings   domain.ListingRepository
	permanents domain.PermanentRepository
	cache      domain.VisibleCache
	limit      int
	logger     *logger.Logger
}

func NewVisibleUsecase(
	listings domain.ListingRepository,
	permanents domain.PermanentRepository,
	cache domain.VisibleCache,
	limit int,
	log *logger.Logger,
) *VisibleUsecase {
	return &VisibleUsecase{
		listings:   listings,
		permanents: permanents,
		cache:      cache,
		limit:      limit,
		logger:     log.Named("VisibleUsecase"),
	}
}

// Visible returns the current visible set, read-through-cached.
func (uc *VisibleUsecase) Visible(ctx context.Context) ([]*domain.VisibleListing, error) {
	cached, err := uc.cache.GetVisible(ctx)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		// A broken cache must not take the board down; fall through to the store.
		uc.logger.Warn("Visible cache read failed, falling back to store", zap.Error(err))
	}

	approved, err := uc.listings.FindByStatus(ctx, domain.StatusApproved, 0)
	if err != nil {
		return nil, err
	}
	entries, err := uc.permanents.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	visible := MergeVisible(approved, entries, uc.limit)

	if err := uc.cache.SetVisible(ctx, visible, visibleCacheTTL); err != nil {
		uc.logger.Warn("Failed to cache visible set", zap.Error(err))
	}
	return visible, nil
}

// MergeVisible merges approved listings with permanent snapshots. Permanent
// entries override duplicates and are included even when the raw listing is
// gone (it survives through its snapshot).
func MergeVisible(approved []*domain.Listing, entries []*domain.PermanentEntry, limit int) []*domain.VisibleListing {
	byID := make(map[string]*domain.VisibleListing, len(approved)+len(entries))
	for _, l := range approved {
		byID[l.ID] = &domain.VisibleListing{Listing: *l, Permanent: false}
	}
	for _, e := range entries {
		byID[e.ListingID] = &domain.VisibleListing{Listing: *e.Listing(), Permanent: true}
	}

	visible := make([]*domain.VisibleListing, 0, len(byID))
	for _, v := range byID {
		visible = append(visible, v)
	}
	SortVisible(visible)

	if limit > 0 && len(visible) > limit {
		visible = visible[:limit]
	}
	return visible
}

// SortVisible orders listings premium-first, then newest-first, with the id
// as a stable tie-breaker.
func SortVisible(visible []*domain.VisibleListing) {
	sort.Slice(visible, func(i, j int) bool {
		if visible[i].IsPremium != visible[j].IsPremium {
			return visible[i].IsPremium
		}
		if !visible[i].CreatedAt.Equal(visible[j].CreatedAt) {
			return visible[i].CreatedAt.After(visible[j].CreatedAt)
		}
		return visible[i].ID < visible[j].ID
	})
}
