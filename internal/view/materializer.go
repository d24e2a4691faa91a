package view

import (
	"context"
	"sort"
	"time"

	"github.com/Sladrus/messenger-server2/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is the slice of the document store the materializer reads from.
type Store interface {
	Conversations(ctx context.Context, f Filter) ([]model.Conversation, error)
	StagesByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Stage, error)
	UsersByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.User, error)
	TagsByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Tag, error)
	TasksByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Task, error)
	TaskTypesByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.TaskType, error)
	MessagesByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Message, error)
}

// Materializer assembles canonical denormalized conversation views: it
// deduplicates raw records, resolves references, applies the visibility
// window and orders the result. One instance serves every mutation handler.
type Materializer struct {
	store Store
	now   func() time.Time
}

func NewMaterializer(store Store) *Materializer {
	return &Materializer{store: store, now: time.Now}
}

// List returns the canonical views matching the filter, ordered by
// updated_at descending.
func (m *Materializer) List(ctx context.Context, f Filter) ([]model.ConversationView, error) {
	convs, err := m.store.Conversations(ctx, f)
	if err != nil {
		return nil, err
	}

	convs = dedupe(convs)
	convs = m.visible(convs)

	views, err := m.assemble(ctx, convs)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].UpdatedAt.After(views[j].UpdatedAt)
	})
	return views, nil
}

// One returns the canonical view for a single conversation id, or nil when
// the id does not resolve. Callers treat nil as a no-op, never as a fatal
// error.
func (m *Materializer) One(ctx context.Context, id primitive.ObjectID) (*model.ConversationView, error) {
	views, err := m.List(ctx, NewFilter().WithID(id))
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, nil
	}
	return &views[0], nil
}

// Search returns views whose title matches the input, case-insensitively.
func (m *Materializer) Search(ctx context.Context, input string) ([]model.ConversationView, error) {
	return m.List(ctx, NewFilter().WithSearch(input))
}

// dedupe groups candidates by (chat_id, createdAt) and keeps the record
// with the greatest updatedAt as canonical.
func dedupe(convs []model.Conversation) []model.Conversation {
	type key struct {
		chatID  int64
		created time.Time
	}
	canonical := make(map[key]model.Conversation, len(convs))
	order := make([]key, 0, len(convs))
	for _, c := range convs {
		k := key{c.ChatID, c.CreatedAt}
		cur, ok := canonical[k]
		if !ok {
			canonical[k] = c
			order = append(order, k)
			continue
		}
		if c.UpdatedAt.After(cur.UpdatedAt) {
			canonical[k] = c
		}
	}

	out := make([]model.Conversation, 0, len(order))
	for _, k := range order {
		out = append(out, canonical[k])
	}
	return out
}

// visible keeps conversations whose work date falls within
// [epoch, end of the current calendar day].
func (m *Materializer) visible(convs []model.Conversation) []model.Conversation {
	now := m.now()
	dayEnd := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())

	out := convs[:0]
	for _, c := range convs {
		if c.WorkAt == nil || c.WorkAt.After(dayEnd) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (m *Materializer) assemble(ctx context.Context, convs []model.Conversation) ([]model.ConversationView, error) {
	var stageIDs, userIDs, tagIDs, taskIDs, msgIDs []primitive.ObjectID
	for _, c := range convs {
		if !c.Stage.IsZero() {
			stageIDs = append(stageIDs, c.Stage)
		}
		if c.User != nil {
			userIDs = append(userIDs, *c.User)
		}
		tagIDs = append(tagIDs, c.Tags...)
		taskIDs = append(taskIDs, c.Tasks...)
		if len(c.Messages) > 0 {
			msgIDs = append(msgIDs, c.Messages[len(c.Messages)-1])
		}
	}

	stages, err := m.store.StagesByID(ctx, stageIDs)
	if err != nil {
		return nil, err
	}
	users, err := m.store.UsersByID(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	tags, err := m.store.TagsByID(ctx, tagIDs)
	if err != nil {
		return nil, err
	}
	tasks, err := m.store.TasksByID(ctx, taskIDs)
	if err != nil {
		return nil, err
	}
	msgs, err := m.store.MessagesByID(ctx, msgIDs)
	if err != nil {
		return nil, err
	}

	// Tasks referenced by last messages, then their types.
	var msgTaskIDs []primitive.ObjectID
	for _, msg := range msgs {
		if msg.Task != nil {
			msgTaskIDs = append(msgTaskIDs, *msg.Task)
		}
	}
	msgTasks, err := m.store.TasksByID(ctx, msgTaskIDs)
	if err != nil {
		return nil, err
	}
	var typeIDs []primitive.ObjectID
	for _, t := range msgTasks {
		if t.Type != nil {
			typeIDs = append(typeIDs, *t.Type)
		}
	}
	taskTypes, err := m.store.TaskTypesByID(ctx, typeIDs)
	if err != nil {
		return nil, err
	}

	views := make([]model.ConversationView, 0, len(convs))
	for _, c := range convs {
		stage, ok := stages[c.Stage]
		if !ok {
			// A conversation without a resolvable stage is excluded.
			continue
		}

		v := model.ConversationView{
			ID:          c.ID,
			Title:       c.Title,
			ChatID:      c.ChatID,
			Type:        c.Type,
			UnreadCount: c.UnreadCount,
			Stage:       model.StageRef{ID: stage.ID, Value: stage.Value, Label: stage.Label, Color: stage.Color},
			Tags:        []model.Tag{},
			Tasks:       []model.Task{},
			Link:        c.Link,
			WorkAt:      c.WorkAt,
			CreatedAt:   c.CreatedAt,
			UpdatedAt:   c.UpdatedAt,
		}

		if c.User != nil {
			if u, ok := users[*c.User]; ok {
				v.User = &u
			}
		}
		for _, id := range c.Tags {
			if t, ok := tags[id]; ok {
				v.Tags = append(v.Tags, t)
			}
		}
		for _, id := range c.Tasks {
			if t, ok := tasks[id]; ok {
				v.Tasks = append(v.Tasks, t)
			}
		}
		if len(c.Messages) > 0 {
			if msg, ok := msgs[c.Messages[len(c.Messages)-1]]; ok {
				mv := model.MessageView{Message: msg}
				if msg.Task != nil {
					if t, ok := msgTasks[*msg.Task]; ok {
						tv := model.TaskView{Task: t}
						if t.Type != nil {
							if tt, ok := taskTypes[*t.Type]; ok {
								tv.TypeRef = &tt
							}
						}
						mv.TaskRef = &tv
					}
				}
				v.LastMessage = &mv
			}
		}

		views = append(views, v)
	}
	return views, nil
}
