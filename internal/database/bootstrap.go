package database

import (
	"context"
	"fmt"

	"github.com/Sladrus/messenger-server2/internal/model"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Bootstrap creates the indexes the queries rely on and seeds reference
// collections that must never be empty (default stages, a task type).
func Bootstrap(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		"conversations": {
			{Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "createdAt", Value: 1}}},
			{Keys: bson.D{{Key: "updatedAt", Value: -1}}},
			{Keys: bson.D{{Key: "workAt", Value: 1}}},
			{Keys: bson.D{{Key: "stage", Value: 1}}},
			{Keys: bson.D{{Key: "user", Value: 1}}},
			{Keys: bson.D{{Key: "tags", Value: 1}}},
		},
		"stage_history": {
			{Keys: bson.D{{Key: "createdAt", Value: 1}}},
			{Keys: bson.D{{Key: "conversation", Value: 1}}},
		},
		"stages": {
			{Keys: bson.D{{Key: "value", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "position", Value: 1}}},
		},
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"task_types": {
			{Keys: bson.D{{Key: "title", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}

	if err := seedStages(ctx, db); err != nil {
		return err
	}
	return seedTaskTypes(ctx, db)
}

func seedStages(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection("stages")
	n, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("count stages: %w", err)
	}
	if n > 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(model.DefaultStages))
	for _, s := range model.DefaultStages {
		docs = append(docs, s)
	}
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("seed default stages: %w", err)
	}
	log.Info().Int("count", len(docs)).Msg("Seeded default stages")
	return nil
}

func seedTaskTypes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection("task_types")
	n, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("count task types: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := coll.InsertOne(ctx, model.TaskType{Title: "Call"}); err != nil {
		return fmt.Errorf("seed task types: %w", err)
	}
	log.Info().Msg("Seeded default task type")
	return nil
}
