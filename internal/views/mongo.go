package views

import (
	"context"
	"fmt"

	"github.com/skyfield/listenerd/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoIndex persists view rows in a collection, one row per source doc.
type MongoIndex struct {
	col *mongo.Collection
}

func NewMongoIndex(col *mongo.Collection) *MongoIndex {
	idxModel := mongo.IndexModel{Keys: bson.D{{Key: "callsign", Value: 1}, {Key: "timeCreated", Value: 1}}}
	if _, err := col.Indexes().CreateOne(context.Background(), idxModel); err != nil {
		logger.Warnf("failed to ensure view callsign index: %v", err)
	}
	return &MongoIndex{col: col}
}

func (m *MongoIndex) Update(ctx context.Context, e *Entry) error {
	filter := bson.M{"_id": e.DocID}
	opts := options.Update().SetUpsert(true)
	rec := bson.M{"$set": bson.M{
		"docType":     e.DocType,
		"callsign":    e.Callsign,
		"timeCreated": e.TimeCreated,
	}}
	if _, err := m.col.UpdateOne(ctx, filter, rec, opts); err != nil {
		return fmt.Errorf("update view row %s: %w", e.DocID, err)
	}
	return nil
}

func (m *MongoIndex) Remove(ctx context.Context, docID string) error {
	if _, err := m.col.DeleteOne(ctx, bson.M{"_id": docID}); err != nil {
		return fmt.Errorf("remove view row %s: %w", docID, err)
	}
	return nil
}

func (m *MongoIndex) ByCallsign(ctx context.Context, callsign string) ([]Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timeCreated", Value: 1}})
	cur, err := m.col.Find(ctx, bson.M{"callsign": callsign}, opts)
	if err != nil {
		return nil, fmt.Errorf("view by_callsign %s: %w", callsign, err)
	}
	defer cur.Close(ctx)
	out := []Entry{}
	for cur.Next(ctx) {
		var e Entry
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, cur.Err()
}
