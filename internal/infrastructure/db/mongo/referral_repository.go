package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AkshadGawde/linktree-api/internal/core/domain"
)

const collectionReferrals = "referrals"

// ReferralRepository implements ports.ReferralRepository using MongoDB.
type ReferralRepository struct {
	col *mongo.Collection
}

func NewReferralRepository(db *mongo.Database) *ReferralRepository {
	return &ReferralRepository{col: db.Collection(collectionReferrals)}
}

type referralDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	ReferrerID     primitive.ObjectID `bson:"referrer_id"`
	ReferredUserID primitive.ObjectID `bson:"referred_user_id"`
	DateReferred   time.Time          `bson:"date_referred"`
	Status         string             `bson:"status"`
}

type referredUserDocument struct {
	Username string `bson:"username"`
	Email    string `bson:"email"`
}

// referralDetailDocument is the shape produced by the $lookup pipeline.
type referralDetailDocument struct {
	ID             primitive.ObjectID    `bson:"_id"`
	ReferrerID     primitive.ObjectID    `bson:"referrer_id"`
	ReferredUserID primitive.ObjectID    `bson:"referred_user_id"`
	DateReferred   time.Time             `bson:"date_referred"`
	Status         string                `bson:"status"`
	ReferredUser   *referredUserDocument `bson:"referred_user"`
}

func (d *referralDocument) toDomain() domain.Referral {
	return domain.Referral{
		ID:             d.ID.Hex(),
		ReferrerID:     d.ReferrerID.Hex(),
		ReferredUserID: d.ReferredUserID.Hex(),
		DateReferred:   d.DateReferred.UTC(),
		Status:         domain.ReferralStatus(d.Status),
	}
}

// Create inserts a referral. Unknown statuses are rejected before writing.
func (r *ReferralRepository) Create(ctx context.Context, ref *domain.Referral) (*domain.Referral, error) {
	if !ref.Status.Valid() {
		return nil, fmt.Errorf("%w: referral status %q", domain.ErrInvalidInput, ref.Status)
	}
	referrer, err := primitive.ObjectIDFromHex(ref.ReferrerID)
	if err != nil {
		return nil, fmt.Errorf("%w: referrer id", domain.ErrInvalidInput)
	}
	referred, err := primitive.ObjectIDFromHex(ref.ReferredUserID)
	if err != nil {
		return nil, fmt.Errorf("%w: referred user id", domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := referralDocument{
		ReferrerID:     referrer,
		ReferredUserID: referred,
		DateReferred:   ref.DateReferred.UTC(),
		Status:         string(ref.Status),
	}
	if doc.DateReferred.IsZero() {
		doc.DateReferred = time.Now().UTC()
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert referral: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = id
	}

	out := doc.toDomain()
	return &out, nil
}

// ListByReferrer joins each referral with the referred user's username and
// email. No other user field leaves the database.
func (r *ReferralRepository) ListByReferrer(ctx context.Context, referrerID string) ([]domain.ReferralDetail, error) {
	oid, err := primitive.ObjectIDFromHex(referrerID)
	if err != nil {
		return []domain.ReferralDetail{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "referrer_id", Value: oid}}}},
		{{Key: "$sort", Value: bson.D{{Key: "date_referred", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: collectionUsers},
			{Key: "localField", Value: "referred_user_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "referred_user"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$referred_user"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "referrer_id", Value: 1},
			{Key: "referred_user_id", Value: 1},
			{Key: "date_referred", Value: 1},
			{Key: "status", Value: 1},
			{Key: "referred_user.username", Value: 1},
			{Key: "referred_user.email", Value: 1},
		}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate referrals: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []referralDetailDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode referrals: %w", err)
	}

	out := make([]domain.ReferralDetail, 0, len(docs))
	for _, d := range docs {
		base := referralDocument{
			ID:             d.ID,
			ReferrerID:     d.ReferrerID,
			ReferredUserID: d.ReferredUserID,
			DateReferred:   d.DateReferred,
			Status:         d.Status,
		}
		item := domain.ReferralDetail{Referral: base.toDomain()}
		if d.ReferredUser != nil {
			item.ReferredUser = &domain.ReferredUser{
				Username: d.ReferredUser.Username,
				Email:    d.ReferredUser.Email,
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// CountByStatus groups the referrer's referrals by status in one aggregation.
func (r *ReferralRepository) CountByStatus(ctx context.Context, referrerID string) (map[domain.ReferralStatus]int64, error) {
	counts := make(map[domain.ReferralStatus]int64)
	oid, err := primitive.ObjectIDFromHex(referrerID)
	if err != nil {
		return counts, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "referrer_id", Value: oid}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("count referrals: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode referral counts: %w", err)
	}
	for _, row := range rows {
		counts[domain.ReferralStatus(row.Status)] = row.Count
	}
	return counts, nil
}

// EnsureIndexes creates the lookup indexes on the referrals collection.
// A user can be referred at most once.
func (r *ReferralRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "referrer_id", Value: 1}, {Key: "date_referred", Value: 1}}},
		{Keys: bson.D{{Key: "referred_user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
