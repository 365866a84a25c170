package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/domain"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/metrics"
)

type MockListingRepository struct{ mock.Mock }

func (m *MockListingRepository) Insert(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}
func (m *MockListingRepository) FindByStatus(ctx context.Context, status domain.ListingStatus, limit int) ([]*domain.Listing, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}
func (m *MockListingRepository) FindAll(ctx context.Context, limit int) ([]*domain.Listing, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}
func (m *MockListingRepository) CountByOwnerAndStatuses(ctx context.Context, ownerID string, statuses []domain.ListingStatus) (int64, error) {
	args := m.Called(ctx, ownerID, statuses)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockListingRepository) UpdateStatus(ctx context.Context, id string, status domain.ListingStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}
func (m *MockListingRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockListingRepository) DeleteApprovedExcluding(ctx context.Context, keep []string) (int64, error) {
	args := m.Called(ctx, keep)
	return args.Get(0).(int64), args.Error(1)
}

type MockPermanentRepository struct{ mock.Mock }

func (m *MockPermanentRepository) Insert(ctx context.Context, entry *domain.PermanentEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
func (m *MockPermanentRepository) Exists(ctx context.Context, listingID string) (bool, error) {
	args := m.Called(ctx, listingID)
	return args.Bool(0), args.Error(1)
}
func (m *MockPermanentRepository) FindAll(ctx context.Context) ([]*domain.PermanentEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PermanentEntry), args.Error(1)
}
func (m *MockPermanentRepository) Delete(ctx context.Context, listingID string) (bool, error) {
	args := m.Called(ctx, listingID)
	return args.Bool(0), args.Error(1)
}

type MockPromoRepository struct{ mock.Mock }

func (m *MockPromoRepository) Mint(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}
func (m *MockPromoRepository) Redeem(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

type MockPhotoStorage struct{ mock.Mock }

func (m *MockPhotoStorage) Upload(ctx context.Context, fileName string, data []byte) (string, error) {
	args := m.Called(ctx, fileName, data)
	return args.String(0), args.Error(1)
}

type MockVisibleCache struct{ mock.Mock }

func (m *MockVisibleCache) GetVisible(ctx context.Context) ([]*domain.VisibleListing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.VisibleListing), args.Error(1)
}
func (m *MockVisibleCache) SetVisible(ctx context.Context, listings []*domain.VisibleListing, ttl time.Duration) error {
	args := m.Called(ctx, listings, ttl)
	return args.Error(0)
}
func (m *MockVisibleCache) InvalidateVisible(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockVisibleCache) GetNextReset(ctx context.Context) (time.Time, error) {
	args := m.Called(ctx)
	return args.Get(0).(time.Time), args.Error(1)
}
func (m *MockVisibleCache) SetNextReset(ctx context.Context, t time.Time) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type MockBroadcaster struct{ mock.Mock }

func (m *MockBroadcaster) ListingAdded(listing *domain.VisibleListing) {
	m.Called(listing)
}
func (m *MockBroadcaster) ListingRemoved(listingID string) {
	m.Called(listingID)
}
func (m *MockBroadcaster) PendingAdded(listing *domain.Listing) {
	m.Called(listing)
}
func (m *MockBroadcaster) BoardReset(listings []*domain.VisibleListing, nextReset time.Time) {
	m.Called(listings, nextReset)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) NotifyPendingListing(listing *domain.Listing) {
	m.Called(listing)
}

// newTestMetrics builds a metrics manager with its own registry so parallel
// tests never collide on collector registration.
func newTestMetrics() *metrics.MetricsManager {
	return metrics.NewMetricsManager("board-service-test")
}
