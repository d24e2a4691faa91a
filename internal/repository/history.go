package repository

import (
	"context"
	"time"

	"github.com/Sladrus/messenger-server2/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StageHistoryRepository is the append-only stage-transition log. Records
// are never updated or deleted.
type StageHistoryRepository struct {
	coll *mongo.Collection
}

func NewStageHistoryRepository(db *mongo.Database) *StageHistoryRepository {
	return &StageHistoryRepository{coll: db.Collection("stage_history")}
}

// Append records one stage transition.
func (r *StageHistoryRepository) Append(ctx context.Context, conversationID, stageID primitive.ObjectID, at time.Time) (*model.StageHistory, error) {
	rec := &model.StageHistory{
		Stage:        stageID,
		Conversation: conversationID,
		CreatedAt:    at,
	}
	res, err := r.coll.InsertOne(ctx, rec)
	if err != nil {
		return nil, err
	}
	rec.ID = res.InsertedID.(primitive.ObjectID)
	return rec, nil
}

// ListRange returns all transitions with created_at inside [from, to],
// ordered chronologically.
func (r *StageHistoryRepository) ListRange(ctx context.Context, from, to time.Time) ([]model.StageHistory, error) {
	cur, err := r.coll.Find(ctx,
		bson.M{"createdAt": bson.M{"$gte": from, "$lte": to}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []model.StageHistory
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
