package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/domain"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const permanentCollectionName = "permanent_listings"

// PermanentRepository implements domain.PermanentRepository using MongoDB.
// The collection holds promotion-time snapshots keyed by listing id.
type PermanentRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewPermanentRepository creates a new MongoDB permanent-set repository.
func NewPermanentRepository(db *mongo.Database, log *logger.Logger) *PermanentRepository {
	return &PermanentRepository{
		collection: db.Collection(permanentCollectionName),
		logger:     log.Named("PermanentRepository"),
	}
}

// Insert stores a promotion snapshot. An existing snapshot for the same
// listing maps to domain.ErrAlreadyPermanent.
func (r *PermanentRepository) Insert(ctx context.Context, entry *domain.PermanentEntry) error {
	r.logger.Debug("Inserting permanent snapshot", zap.String("listing_id", entry.ListingID))

	_, err := r.collection.InsertOne(ctx, fromDomainPermanent(entry))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyPermanent
		}
		r.logger.Error("Failed to insert permanent snapshot", zap.String("listing_id", entry.ListingID), zap.Error(err))
		return fmt.Errorf("%w: insert permanent snapshot %s: %v", domain.ErrRepository, entry.ListingID, err)
	}
	return nil
}

func (r *PermanentRepository) Exists(ctx context.Context, listingID string) (bool, error) {
	err := r.collection.FindOne(ctx, bson.M{"_id": listingID}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		r.logger.Error("Failed to check permanent membership", zap.String("listing_id", listingID), zap.Error(err))
		return false, fmt.Errorf("%w: check permanent membership of %s: %v", domain.ErrRepository, listingID, err)
	}
	return true, nil
}

func (r *PermanentRepository) FindAll(ctx context.Context) ([]*domain.PermanentEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "is_premium", Value: -1}, {Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		r.logger.Error("Failed to query permanent snapshots", zap.Error(err))
		return nil, fmt.Errorf("%w: find permanent snapshots: %v", domain.ErrRepository, err)
	}
	var docs []*permanentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode permanent snapshots cursor", zap.Error(err))
		return nil, fmt.Errorf("%w: decode permanent snapshots: %v", domain.ErrRepository, err)
	}

	entries := make([]*domain.PermanentEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, doc.toDomain())
	}
	return entries, nil
}

// Delete removes the snapshot and reports whether one existed. Removing a
// non-member is a no-op so revocation and delete cascades stay idempotent.
func (r *PermanentRepository) Delete(ctx context.Context, listingID string) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": listingID})
	if err != nil {
		r.logger.Error("Failed to delete permanent snapshot", zap.String("listing_id", listingID), zap.Error(err))
		return false, fmt.Errorf("%w: delete permanent snapshot %s: %v", domain.ErrRepository, listingID, err)
	}
	return res.DeletedCount > 0, nil
}
