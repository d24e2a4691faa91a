package repository

import (
	"context"

	"github.com/Sladrus/messenger-server2/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type TagRepository struct {
	coll *mongo.Collection
}

func NewTagRepository(db *mongo.Database) *TagRepository {
	return &TagRepository{coll: db.Collection("tags")}
}

func (r *TagRepository) List(ctx context.Context) ([]model.Tag, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []model.Tag
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TagRepository) Create(ctx context.Context, value string) (*model.Tag, error) {
	t := &model.Tag{Value: value}
	res, err := r.coll.InsertOne(ctx, t)
	if err != nil {
		return nil, err
	}
	t.ID = res.InsertedID.(primitive.ObjectID)
	return t, nil
}

func (r *TagRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Tag, error) {
	if len(ids) == 0 {
		return map[primitive.ObjectID]model.Tag{}, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var tags []model.Tag
	if err := cur.All(ctx, &tags); err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]model.Tag, len(tags))
	for _, t := range tags {
		out[t.ID] = t
	}
	return out, nil
}
