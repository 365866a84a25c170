package domain

import "time"

// ListingStatus represents the moderation status of a listing.
type ListingStatus string

const (
	StatusPending  ListingStatus = "pending"
	StatusApproved ListingStatus = "approved"
)

// IsValid checks if the ListingStatus is one of the defined constants.
func (s ListingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved:
		return true
	}
	return false
}

// Listing is a single classified-ad submission with moderation status.
// Rejected and deleted listings are removed from the store, never tombstoned.
// Note: no storage tags on this entity; mapping to database structures is
// handled by the repository implementation.
type Listing struct {
	ID          string
	Title       string
	Description string
	PhotoURL    string
	Category    string
	OwnerID     string // opaque identifier supplied by the client, not authenticated
	IsPremium   bool   // fixed at submission time via promo code, never changes afterwards
	Status      ListingStatus
	CreatedAt   time.Time
}

// PermanentEntry is a snapshot of a listing taken at promotion time.
// Membership in the permanent set exempts the listing from expiry cycles.
type PermanentEntry struct {
	ListingID   string
	Title       string
	Description string
	PhotoURL    string
	Category    string
	OwnerID     string
	IsPremium   bool
	CreatedAt   time.Time
	PromotedAt  time.Time
}

// SnapshotOf captures a listing into a permanent-set entry.
func SnapshotOf(l *Listing, promotedAt time.Time) *PermanentEntry {
	return &PermanentEntry{
		ListingID:   l.ID,
		Title:       l.Title,
		Description: l.Description,
		PhotoURL:    l.PhotoURL,
		Category:    l.Category,
		OwnerID:     l.OwnerID,
		IsPremium:   l.IsPremium,
		CreatedAt:   l.CreatedAt,
		PromotedAt:  promotedAt,
	}
}

// Listing rebuilds the viewer-facing listing from the snapshot.
func (e *PermanentEntry) Listing() *Listing {
	return &Listing{
		ID:          e.ListingID,
		Title:       e.Title,
		Description: e.Description,
		PhotoURL:    e.PhotoURL,
		Category:    e.Category,
		OwnerID:     e.OwnerID,
		IsPremium:   e.IsPremium,
		Status:      StatusApproved,
		CreatedAt:   e.CreatedAt,
	}
}

// PromoCode is a one-time token exchanged for premium placement.
// The used flag transitions false -> true exactly once and never reverts.
type PromoCode struct {
	Code      string
	Used      bool
	CreatedAt time.Time
	UsedAt    *time.Time
}

// VisibleListing is the viewer-facing projection: the raw listing merged with
// permanent-set membership. Permanent snapshots override the stored listing.
type VisibleListing struct {
	Listing
	Permanent bool
}
