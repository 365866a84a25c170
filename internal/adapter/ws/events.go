package ws

import (
	"encoding/json"
	"time"

	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/domain"
)

// Server-to-client event types.
const (
	eventInitialState    = "initial-state"
	eventListingAdded    = "listing-added"
	eventListingRemoved  = "listing-removed"
	eventBoardReset      = "board-reset"
	eventPendingAdded    = "pending-added"
	eventAck             = "ack"
	eventOperatorToken   = "operator-token"
	eventPendingListings = "pending-listings"
	eventAllListings     = "all-listings"
)

// Client-to-server event types.
const (
	eventSubmitListing = "submit-listing"
	eventDeleteListing = "delete-listing"
	eventOperatorAuth  = "operator-auth"
	eventGetPending    = "get-pending"
	eventGetAll        = "get-all"
	eventApprove       = "approve"
	eventReject        = "reject"
	eventDeleteAny     = "delete-any"
)

// clientEnvelope is the uniform wrapper for inbound messages. ID is an
// optional correlation id echoed back in acks.
type clientEnvelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// serverEnvelope wraps every outbound message.
type serverEnvelope struct {
	Type    string      `json:"type"`
	ID      string      `json:"id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

type submitPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	OwnerID     string `json:"ownerId"`
	PromoCode   string `json:"promoCode,omitempty"`
	PhotoName   string `json:"photoName,omitempty"`
	Photo       string `json:"photo,omitempty"` // base64-encoded
}

type deleteOwnPayload struct {
	ListingID string `json:"listingId"`
	OwnerID   string `json:"ownerId"`
}

type operatorAuthPayload struct {
	Secret string `json:"secret"`
}

type operatorActionPayload struct {
	Token     string `json:"token"`
	ListingID string `json:"listingId"`
	// Premium is accepted for compatibility with older operator pages and
	// ignored: premium placement is fixed at submission time via promo codes.
	Premium bool `json:"premium,omitempty"`
}

type ackPayload struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type tokenPayload struct {
	Token string `json:"token"`
}

// wireListing is the JSON shape of a listing on the channel.
type wireListing struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PhotoURL    string    `json:"photoUrl,omitempty"`
	Category    string    `json:"category,omitempty"`
	OwnerID     string    `json:"ownerId"`
	IsPremium   bool      `json:"isPremium"`
	Permanent   bool      `json:"permanent"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type initialStatePayload struct {
	Listings  []wireListing `json:"listings"`
	NextReset time.Time     `json:"nextReset"`
}

type boardResetPayload struct {
	Listings  []wireListing `json:"listings"`
	NextReset time.Time     `json:"nextReset"`
}

type listingRemovedPayload struct {
	ListingID string `json:"listingId"`
}

func toWireListing(l *domain.Listing, permanent bool) wireListing {
	return wireListing{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		PhotoURL:    l.PhotoURL,
		Category:    l.Category,
		OwnerID:     l.OwnerID,
		IsPremium:   l.IsPremium,
		Permanent:   permanent,
		Status:      string(l.Status),
		CreatedAt:   l.CreatedAt,
	}
}

func toWireVisible(visible []*domain.VisibleListing) []wireListing {
	out := make([]wireListing, 0, len(visible))
	for _, v := range visible {
		out = append(out, toWireListing(&v.Listing, v.Permanent))
	}
	return out
}

func toWireListings(listings []*domain.Listing) []wireListing {
	out := make([]wireListing, 0, len(listings))
	for _, l := range listings {
		out = append(out, toWireListing(l, false))
	}
	return out
}
