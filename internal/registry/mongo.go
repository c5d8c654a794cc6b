package registry

import (
	"context"
	"fmt"

	"github.com/skyfield/listenerd/internal/document"
	"github.com/skyfield/listenerd/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements a MongoDB-backed repository for registry documents.
// Documents are stored as-is under their "_id", with an index on "type" so
// per-type listings stay cheap as telemetry accumulates.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	idxModel := mongo.IndexModel{Keys: bson.D{{Key: "type", Value: 1}}}
	if _, err := col.Indexes().CreateOne(context.Background(), idxModel); err != nil {
		logger.Warnf("failed to ensure registry type index: %v", err)
	}
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Get(ctx context.Context, id string) (document.Doc, error) {
	var d document.Doc
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	return d, nil
}

func (m *MongoRepo) Put(ctx context.Context, id string, doc document.Doc) error {
	stored := doc.Clone()
	stored[document.FieldID] = id
	opts := options.Replace().SetUpsert(true)
	if _, err := m.col.ReplaceOne(ctx, bson.M{"_id": id}, stored, opts); err != nil {
		return fmt.Errorf("put %s: %w", id, err)
	}
	return nil
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) ListByType(ctx context.Context, docType string) ([]document.Doc, error) {
	cur, err := m.col.Find(ctx, bson.M{"type": docType})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", docType, err)
	}
	defer cur.Close(ctx)
	out := []document.Doc{}
	for cur.Next(ctx) {
		var d document.Doc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, cur.Err()
}
