package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/domain"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const listingCollectionName = "listings"

// ListingRepository implements domain.ListingRepository using MongoDB.
type ListingRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewListingRepository creates a new MongoDB listing repository.
func NewListingRepository(db *mongo.Database, log *logger.Logger) (*ListingRepository, error) {
	collection := db.Collection(listingCollectionName)

	// The unique partial index on owner_id is the hard backstop for the
	// one-live-listing-per-owner invariant; the usecase-level guard is
	// best-effort only.
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "owner_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"status": bson.M{"$in": []string{string(domain.StatusPending), string(domain.StatusApproved)}}},
			),
		},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "is_premium", Value: -1}, {Key: "created_at", Value: -1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to create indexes for listings collection", zap.Error(err))
		// Don't fail startup; indexes might already exist or be created manually.
	} else {
		log.Info("Successfully ensured indexes for listings collection")
	}

	return &ListingRepository{
		collection: collection,
		logger:     log.Named("ListingRepository"),
	}, nil
}

// Insert stores a new listing. Duplicate ids map to domain.ErrAlreadyExists.
func (r *ListingRepository) Insert(ctx context.Context, listing *domain.Listing) error {
	r.logger.Debug("Inserting listing", zap.String("listing_id", listing.ID), zap.String("owner_id", listing.OwnerID))

	_, err := r.collection.InsertOne(ctx, fromDomainListing(listing))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyExists
		}
		r.logger.Error("Failed to insert listing", zap.String("listing_id", listing.ID), zap.Error(err))
		return fmt.Errorf("%w: insert listing %s: %v", domain.ErrRepository, listing.ID, err)
	}
	return nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	var doc listingDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to find listing by id", zap.String("listing_id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: find listing %s: %v", domain.ErrRepository, id, err)
	}
	return doc.toDomain(), nil
}

func (r *ListingRepository) FindByStatus(ctx context.Context, status domain.ListingStatus, limit int) ([]*domain.Listing, error) {
	return r.find(ctx, bson.M{"status": string(status)}, limit)
}

func (r *ListingRepository) FindAll(ctx context.Context, limit int) ([]*domain.Listing, error) {
	return r.find(ctx, bson.M{}, limit)
}

func (r *ListingRepository) find(ctx context.Context, filter bson.M, limit int) ([]*domain.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "is_premium", Value: -1}, {Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to query listings", zap.Any("filter", filter), zap.Error(err))
		return nil, fmt.Errorf("%w: find listings: %v", domain.ErrRepository, err)
	}
	var docs []*listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode listings cursor", zap.Error(err))
		return nil, fmt.Errorf("%w: decode listings: %v", domain.ErrRepository, err)
	}

	listings := make([]*domain.Listing, 0, len(docs))
	for _, doc := range docs {
		listings = append(listings, doc.toDomain())
	}
	return listings, nil
}

func (r *ListingRepository) CountByOwnerAndStatuses(ctx context.Context, ownerID string, statuses []domain.ListingStatus) (int64, error) {
	statusStrings := make([]string, 0, len(statuses))
	for _, s := range statuses {
		statusStrings = append(statusStrings, string(s))
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"owner_id": ownerID,
		"status":   bson.M{"$in": statusStrings},
	})
	if err != nil {
		r.logger.Error("Failed to count listings by owner", zap.String("owner_id", ownerID), zap.Error(err))
		return 0, fmt.Errorf("%w: count listings for owner %s: %v", domain.ErrRepository, ownerID, err)
	}
	return count, nil
}

// UpdateStatus mutates the status of an existing listing. Strict policy:
// a missing id is domain.ErrNotFound, never a silent no-op.
func (r *ListingRepository) UpdateStatus(ctx context.Context, id string, status domain.ListingStatus) error {
	res, err := r.collection.UpdateByID(ctx, id, bson.M{"$set": bson.M{"status": string(status)}})
	if err != nil {
		r.logger.Error("Failed to update listing status", zap.String("listing_id", id), zap.Error(err))
		return fmt.Errorf("%w: update status of %s: %v", domain.ErrRepository, id, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		r.logger.Error("Failed to delete listing", zap.String("listing_id", id), zap.Error(err))
		return fmt.Errorf("%w: delete listing %s: %v", domain.ErrRepository, id, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteApprovedExcluding purges every approved listing whose id is not in
// keep. Used by the expiry cycle; deleting an empty set is a no-op.
func (r *ListingRepository) DeleteApprovedExcluding(ctx context.Context, keep []string) (int64, error) {
	filter := bson.M{"status": string(domain.StatusApproved)}
	if len(keep) > 0 {
		filter["_id"] = bson.M{"$nin": keep}
	}

	res, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to bulk-delete expired listings", zap.Error(err))
		return 0, fmt.Errorf("%w: bulk-delete approved listings: %v", domain.ErrRepository, err)
	}
	r.logger.Info("Bulk-deleted approved listings", zap.Int64("deleted", res.DeletedCount), zap.Int("kept", len(keep)))
	return res.DeletedCount, nil
}
