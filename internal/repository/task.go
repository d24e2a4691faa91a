package repository

import (
	"context"
	"time"

	"github.com/Sladrus/messenger-server2/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type TaskRepository struct {
	coll *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{coll: db.Collection("tasks")}
}

func (r *TaskRepository) Create(ctx context.Context, t *model.Task) (*model.Task, error) {
	t.CreatedAt = time.Now()
	res, err := r.coll.InsertOne(ctx, t)
	if err != nil {
		return nil, err
	}
	t.ID = res.InsertedID.(primitive.ObjectID)
	return t, nil
}

func (r *TaskRepository) SetDone(ctx context.Context, id primitive.ObjectID, result string) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"done": true, "result": result}})
	return err
}

func (r *TaskRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Task, error) {
	if len(ids) == 0 {
		return map[primitive.ObjectID]model.Task{}, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var tasks []model.Task
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]model.Task, len(tasks))
	for _, t := range tasks {
		out[t.ID] = t
	}
	return out, nil
}

type TaskTypeRepository struct {
	coll *mongo.Collection
}

func NewTaskTypeRepository(db *mongo.Database) *TaskTypeRepository {
	return &TaskTypeRepository{coll: db.Collection("task_types")}
}

func (r *TaskTypeRepository) List(ctx context.Context) ([]model.TaskType, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []model.TaskType
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TaskTypeRepository) Create(ctx context.Context, title string) (*model.TaskType, error) {
	t := &model.TaskType{Title: title}
	res, err := r.coll.InsertOne(ctx, t)
	if err != nil {
		return nil, err
	}
	t.ID = res.InsertedID.(primitive.ObjectID)
	return t, nil
}

func (r *TaskTypeRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.TaskType, error) {
	if len(ids) == 0 {
		return map[primitive.ObjectID]model.TaskType{}, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var types []model.TaskType
	if err := cur.All(ctx, &types); err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]model.TaskType, len(types))
	for _, t := range types {
		out[t.ID] = t
	}
	return out, nil
}
