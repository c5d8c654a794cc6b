package operators

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository defines persistence operations for operator accounts.
type Repository interface {
	UpsertBySub(ctx context.Context, o *Operator) (*Operator, error)
	GetBySub(ctx context.Context, sub string) (*Operator, error)
	SetRoles(ctx context.Context, sub string, roles []string) error
}

// MongoRepository implements Repository using MongoDB.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

// UpsertBySub refreshes the claim-derived fields. Role grants are set only on
// first insert so a login can never wipe grants made through SetRoles.
func (r *MongoRepository) UpsertBySub(ctx context.Context, o *Operator) (*Operator, error) {
	now := time.Now().UTC()
	filter := bson.M{"sub": o.Sub}
	update := bson.M{
		"$set": bson.M{
			"email":     o.Email,
			"name":      o.Name,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"roles":     []string{},
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated Operator
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			// Shouldn't happen because of upsert, but handle gracefully
			return o, nil
		}
		return nil, err
	}
	return &updated, nil
}

func (r *MongoRepository) GetBySub(ctx context.Context, sub string) (*Operator, error) {
	var o Operator
	if err := r.col.FindOne(ctx, bson.M{"sub": sub}).Decode(&o); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *MongoRepository) SetRoles(ctx context.Context, sub string, roles []string) error {
	update := bson.M{"$set": bson.M{"roles": roles, "updatedAt": time.Now().UTC()}}
	res, err := r.col.UpdateOne(ctx, bson.M{"sub": sub}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
