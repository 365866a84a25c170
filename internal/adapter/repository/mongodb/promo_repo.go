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
	"go.uber.org/zap"
)

const promoCollectionName = "promo_codes"

// PromoRepository implements the one-time promo code ledger on MongoDB.
type PromoRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewPromoRepository creates a new MongoDB promo-code repository.
func NewPromoRepository(db *mongo.Database, log *logger.Logger) *PromoRepository {
	return &PromoRepository{
		collection: db.Collection(promoCollectionName),
		logger:     log.Named("PromoRepository"),
	}
}

// Mint stores a fresh unused code.
func (r *PromoRepository) Mint(ctx context.Context, code string) error {
	_, err := r.collection.InsertOne(ctx, &promoDocument{
		Code:      code,
		Used:      false,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyExists
		}
		r.logger.Error("Failed to mint promo code", zap.Error(err))
		return fmt.Errorf("%w: mint promo code: %v", domain.ErrRepository, err)
	}
	r.logger.Info("Promo code minted")
	return nil
}

// Redeem flips used false -> true in a single conditional update. The filter
// carries used:false, so under concurrent redemption exactly one caller
// matches the document; every other caller gets ErrPromoInvalid.
func (r *PromoRepository) Redeem(ctx context.Context, code string) error {
	now := time.Now().UTC()
	res := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": code, "used": false},
		bson.M{"$set": bson.M{"used": true, "used_at": now}},
	)
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrPromoInvalid
		}
		r.logger.Error("Failed to redeem promo code", zap.Error(err))
		return fmt.Errorf("%w: redeem promo code: %v", domain.ErrRepository, err)
	}
	r.logger.Info("Promo code redeemed")
	return nil
}
