package repository

import (
	"context"
	"errors"

	"github.com/Sladrus/messenger-server2/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type StageRepository struct {
	coll *mongo.Collection
}

func NewStageRepository(db *mongo.Database) *StageRepository {
	return &StageRepository{coll: db.Collection("stages")}
}

// List returns all stages ordered by position.
func (r *StageRepository) List(ctx context.Context) ([]model.Stage, error) {
	return r.find(ctx, bson.M{})
}

// ListByType returns the stages applicable to the given conversation-type
// filter, ordered by position. Stages marked "all" always apply.
func (r *StageRepository) ListByType(ctx context.Context, convType string) ([]model.Stage, error) {
	if convType == "" || convType == model.StageTypeAll {
		return r.List(ctx)
	}
	return r.find(ctx, bson.M{"type": bson.M{"$in": []string{convType, model.StageTypeAll}}})
}

func (r *StageRepository) find(ctx context.Context, filter bson.M) ([]model.Stage, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []model.Stage
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *StageRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Stage, error) {
	var s model.Stage
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StageRepository) FindByValue(ctx context.Context, value string) (*model.Stage, error) {
	var s model.Stage
	err := r.coll.FindOne(ctx, bson.M{"value": value}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindDefault returns the stage new conversations start in.
func (r *StageRepository) FindDefault(ctx context.Context) (*model.Stage, error) {
	var s model.Stage
	err := r.coll.FindOne(ctx, bson.M{"default": true},
		options.FindOne().SetSort(bson.D{{Key: "position", Value: 1}})).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StageRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Stage, error) {
	if len(ids) == 0 {
		return map[primitive.ObjectID]model.Stage{}, nil
	}
	stages, err := r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]model.Stage, len(stages))
	for _, s := range stages {
		out[s.ID] = s
	}
	return out, nil
}

// Create inserts a stage at the end of the ordering.
func (r *StageRepository) Create(ctx context.Context, s *model.Stage) (*model.Stage, error) {
	var last model.Stage
	err := r.coll.FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "position", Value: -1}})).Decode(&last)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		s.Position = 0
	case err != nil:
		return nil, err
	default:
		s.Position = last.Position + 1
	}
	s.Default = false
	if s.Type == "" {
		s.Type = model.StageTypeAll
	}

	res, err := r.coll.InsertOne(ctx, s)
	if err != nil {
		return nil, err
	}
	s.ID = res.InsertedID.(primitive.ObjectID)
	return s, nil
}

func (r *StageRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
