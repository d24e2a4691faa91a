package repository

import (
	"context"

	"github.com/Sladrus/messenger-server2/internal/model"
	"github.com/Sladrus/messenger-server2/internal/view"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ViewStore adapts the collection repositories to the materializer's
// read interface.
type ViewStore struct {
	Convs     *ConversationRepository
	Stages    *StageRepository
	Users     *UserRepository
	Tags      *TagRepository
	Tasks     *TaskRepository
	TaskTypes *TaskTypeRepository
	Messages  *MessageRepository
}

var _ view.Store = (*ViewStore)(nil)

func (s *ViewStore) Conversations(ctx context.Context, f view.Filter) ([]model.Conversation, error) {
	return s.Convs.Find(ctx, f.Query())
}

func (s *ViewStore) StagesByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Stage, error) {
	return s.Stages.FindByIDs(ctx, ids)
}

func (s *ViewStore) UsersByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.User, error) {
	return s.Users.FindByIDs(ctx, ids)
}

func (s *ViewStore) TagsByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Tag, error) {
	return s.Tags.FindByIDs(ctx, ids)
}

func (s *ViewStore) TasksByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Task, error) {
	return s.Tasks.FindByIDs(ctx, ids)
}

func (s *ViewStore) TaskTypesByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.TaskType, error) {
	return s.TaskTypes.FindByIDs(ctx, ids)
}

func (s *ViewStore) MessagesByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Message, error) {
	return s.Messages.FindByIDs(ctx, ids)
}
