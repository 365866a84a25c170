package mongodb

import (
	"time"

	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/domain"
)

// listingDocument is the persistence shape of a listing. All bson tags live
// here, not on the domain entity.
type listingDocument struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	PhotoURL    string    `bson:"photo_url,omitempty"`
	Category    string    `bson:"category,omitempty"`
	OwnerID     string    `bson:"owner_id"`
	IsPremium   bool      `bson:"is_premium"`
	Status      string    `bson:"status"`
	CreatedAt   time.Time `bson:"created_at"`
}

func fromDomainListing(l *domain.Listing) *listingDocument {
	return &listingDocument{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		PhotoURL:    l.PhotoURL,
		Category:    l.Category,
		OwnerID:     l.OwnerID,
		IsPremium:   l.IsPremium,
		Status:      string(l.Status),
		CreatedAt:   l.CreatedAt,
	}
}

func (d *listingDocument) toDomain() *domain.Listing {
	return &domain.Listing{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		PhotoURL:    d.PhotoURL,
		Category:    d.Category,
		OwnerID:     d.OwnerID,
		IsPremium:   d.IsPremium,
		Status:      domain.ListingStatus(d.Status),
		CreatedAt:   d.CreatedAt,
	}
}

// permanentDocument is the stored promotion-time snapshot, keyed by listing id.
type permanentDocument struct {
	ListingID   string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	PhotoURL    string    `bson:"photo_url,omitempty"`
	Category    string    `bson:"category,omitempty"`
	OwnerID     string    `bson:"owner_id"`
	IsPremium   bool      `bson:"is_premium"`
	CreatedAt   time.Time `bson:"created_at"`
	PromotedAt  time.Time `bson:"promoted_at"`
}

func fromDomainPermanent(e *domain.PermanentEntry) *permanentDocument {
	return &permanentDocument{
		ListingID:   e.ListingID,
		Title:       e.Title,
		Description: e.Description,
		PhotoURL:    e.PhotoURL,
		Category:    e.Category,
		OwnerID:     e.OwnerID,
		IsPremium:   e.IsPremium,
		CreatedAt:   e.CreatedAt,
		PromotedAt:  e.PromotedAt,
	}
}

func (d *permanentDocument) toDomain() *domain.PermanentEntry {
	return &domain.PermanentEntry{
		ListingID:   d.ListingID,
		Title:       d.Title,
		Description: d.Description,
		PhotoURL:    d.PhotoURL,
		Category:    d.Category,
		OwnerID:     d.OwnerID,
		IsPremium:   d.IsPremium,
		CreatedAt:   d.CreatedAt,
		PromotedAt:  d.PromotedAt,
	}
}

// promoDocument is the stored one-time promo code.
type promoDocument struct {
	Code      string     `bson:"_id"`
	Used      bool       `bson:"used"`
	CreatedAt time.Time  `bson:"created_at"`
	UsedAt    *time.Time `bson:"used_at,omitempty"`
}
