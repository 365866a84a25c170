package domain

import (
	"context"
	"time"
)

// ListingRepository defines the interface for listing persistence.
// Methods operate on the clean domain.Listing entity, without any
// direct knowledge of database-specific tags or structures.
type ListingRepository interface {
	// Insert stores a new listing. Returns ErrAlreadyExists on id collision.
	Insert(ctx context.Context, listing *Listing) error
	// FindByID returns ErrNotFound when the id is absent.
	FindByID(ctx context.Context, id string) (*Listing, error)
	// FindByStatus returns listings in the given status, newest first, up to limit (0 = no cap).
	FindByStatus(ctx context.Context, status ListingStatus, limit int) ([]*Listing, error)
	// FindAll returns every stored listing regardless of status, newest first.
	FindAll(ctx context.Context, limit int) ([]*Listing, error)
	// CountByOwnerAndStatuses counts the owner's listings in any of the given statuses.
	CountByOwnerAndStatuses(ctx context.Context, ownerID string, statuses []ListingStatus) (int64, error)
	// UpdateStatus mutates the status of an existing listing. Returns ErrNotFound when absent.
	UpdateStatus(ctx context.Context, id string, status ListingStatus) error
	// Delete removes a listing. Returns ErrNotFound when absent.
	Delete(ctx context.Context, id string) error
	// DeleteApprovedExcluding bulk-deletes approved listings whose ids are not
	// in keep. Returns the number of deleted listings; deleting nothing is a no-op.
	DeleteApprovedExcluding(ctx context.Context, keep []string) (int64, error)
}

// PermanentRepository persists promotion-time snapshots keyed by listing id.
type PermanentRepository interface {
	Insert(ctx context.Context, entry *PermanentEntry) error
	Exists(ctx context.Context, listingID string) (bool, error)
	FindAll(ctx context.Context) ([]*PermanentEntry, error)
	// Delete removes the snapshot and reports whether one existed.
	Delete(ctx context.Context, listingID string) (bool, error)
}

// PromoRepository is the one-time-use promo code ledger.
type PromoRepository interface {
	// Mint stores a fresh unused code.
	Mint(ctx context.Context, code string) error
	// Redeem atomically flips used false -> true. Returns ErrPromoInvalid when
	// the code is absent or already used, even under concurrent attempts.
	Redeem(ctx context.Context, code string) error
}

// PhotoStorage stores raw photo payloads and returns a serving URL.
type PhotoStorage interface {
	Upload(ctx context.Context, fileName string, data []byte) (string, error)
}

// VisibleCache caches the viewer-facing projection and the expiry clock.
type VisibleCache interface {
	GetVisible(ctx context.Context) ([]*VisibleListing, error) // ErrCacheMiss when absent
	SetVisible(ctx context.Context, listings []*VisibleListing, ttl time.Duration) error
	InvalidateVisible(ctx context.Context) error
	GetNextReset(ctx context.Context) (time.Time, error) // ErrCacheMiss when absent
	SetNextReset(ctx context.Context, t time.Time) error
}

// EventPublisher fans board events out to the rest of the platform (NATS).
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// Broadcaster delivers state-change events to all connected viewer sessions.
// Delivery must never block the mutation that triggered it.
type Broadcaster interface {
	// ListingAdded announces a listing that became visible or changed shape
	// (approval, promotion, revocation).
	ListingAdded(listing *VisibleListing)
	// ListingRemoved announces a listing that left the visible set.
	ListingRemoved(listingID string)
	// PendingAdded notifies operator sessions about a fresh moderation-queue item.
	PendingAdded(listing *Listing)
	// BoardReset replaces every session's view after a bulk expiry cycle.
	BoardReset(listings []*VisibleListing, nextReset time.Time)
}

// Notifier informs the operator out-of-band about new pending submissions.
type Notifier interface {
	NotifyPendingListing(listing *Listing)
}
