package view

import (
	"context"
	"testing"
	"time"

	"github.com/Sladrus/messenger-server2/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeStore serves a fixed set of documents and ignores filters except the
// id predicate, which is enough to exercise the materializer's own logic.
type fakeStore struct {
	convs     []model.Conversation
	stages    map[primitive.ObjectID]model.Stage
	users     map[primitive.ObjectID]model.User
	tags      map[primitive.ObjectID]model.Tag
	tasks     map[primitive.ObjectID]model.Task
	taskTypes map[primitive.ObjectID]model.TaskType
	messages  map[primitive.ObjectID]model.Message
}

func (s *fakeStore) Conversations(_ context.Context, f Filter) ([]model.Conversation, error) {
	if f.id == nil {
		return s.convs, nil
	}
	var out []model.Conversation
	for _, c := range s.convs {
		if c.ID == *f.id {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeStore) StagesByID(context.Context, []primitive.ObjectID) (map[primitive.ObjectID]model.Stage, error) {
	return s.stages, nil
}

func (s *fakeStore) UsersByID(context.Context, []primitive.ObjectID) (map[primitive.ObjectID]model.User, error) {
	return s.users, nil
}

func (s *fakeStore) TagsByID(context.Context, []primitive.ObjectID) (map[primitive.ObjectID]model.Tag, error) {
	return s.tags, nil
}

func (s *fakeStore) TasksByID(context.Context, []primitive.ObjectID) (map[primitive.ObjectID]model.Task, error) {
	return s.tasks, nil
}

func (s *fakeStore) TaskTypesByID(context.Context, []primitive.ObjectID) (map[primitive.ObjectID]model.TaskType, error) {
	return s.taskTypes, nil
}

func (s *fakeStore) MessagesByID(context.Context, []primitive.ObjectID) (map[primitive.ObjectID]model.Message, error) {
	return s.messages, nil
}

var testNow = time.Date(2025, time.August, 20, 12, 0, 0, 0, time.UTC)

func newTestMaterializer(s *fakeStore) *Materializer {
	m := NewMaterializer(s)
	m.now = func() time.Time { return testNow }
	return m
}

func conv(chatID int64, created, updated time.Time, stage primitive.ObjectID, workAt *time.Time) model.Conversation {
	return model.Conversation{
		ID:        primitive.NewObjectID(),
		Title:     "chat",
		ChatID:    chatID,
		Type:      model.ChatTypeGroup,
		Stage:     stage,
		WorkAt:    workAt,
		CreatedAt: created,
		UpdatedAt: updated,
	}
}

func ts(day, hour int) time.Time {
	return time.Date(2025, time.August, day, hour, 0, 0, 0, time.UTC)
}

func TestListDeduplicatesByChatIDAndCreation(t *testing.T) {
	stageID := primitive.NewObjectID()
	work := ts(1, 10)
	created := ts(1, 9)

	older := conv(100, created, ts(2, 10), stageID, &work)
	newer := conv(100, created, ts(5, 10), stageID, &work)
	other := conv(200, created, ts(3, 10), stageID, &work)

	store := &fakeStore{
		convs:  []model.Conversation{older, newer, other},
		stages: map[primitive.ObjectID]model.Stage{stageID: {ID: stageID, Value: "raw", Label: "Unprocessed"}},
	}

	views, err := newTestMaterializer(store).List(context.Background(), NewFilter())
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 views after dedup, got %d", len(views))
	}
	for _, v := range views {
		if v.ChatID == 100 && !v.UpdatedAt.Equal(newer.UpdatedAt) {
			t.Errorf("dedup must keep the record with the greatest updatedAt, got %v", v.UpdatedAt)
		}
	}
}

func TestListKeepsDistinctCreationTimes(t *testing.T) {
	stageID := primitive.NewObjectID()
	work := ts(1, 10)

	// Same chat id rebuilt later: two distinct creation timestamps are two
	// separate conversations.
	first := conv(100, ts(1, 9), ts(2, 10), stageID, &work)
	second := conv(100, ts(6, 9), ts(6, 10), stageID, &work)

	store := &fakeStore{
		convs:  []model.Conversation{first, second},
		stages: map[primitive.ObjectID]model.Stage{stageID: {ID: stageID, Value: "raw"}},
	}

	views, err := newTestMaterializer(store).List(context.Background(), NewFilter())
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 views for distinct creation times, got %d", len(views))
	}
}

func TestListVisibilityWindow(t *testing.T) {
	stageID := primitive.NewObjectID()
	past := ts(10, 10)
	today := time.Date(2025, time.August, 20, 18, 0, 0, 0, time.UTC)
	tomorrow := time.Date(2025, time.August, 21, 1, 0, 0, 0, time.UTC)

	visible := conv(1, ts(1, 1), ts(2, 1), stageID, &past)
	laterToday := conv(2, ts(1, 2), ts(2, 2), stageID, &today)
	future := conv(3, ts(1, 3), ts(2, 3), stageID, &tomorrow)
	notStarted := conv(4, ts(1, 4), ts(2, 4), stageID, nil)

	store := &fakeStore{
		convs:  []model.Conversation{visible, laterToday, future, notStarted},
		stages: map[primitive.ObjectID]model.Stage{stageID: {ID: stageID, Value: "raw"}},
	}

	views, err := newTestMaterializer(store).List(context.Background(), NewFilter())
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 visible views, got %d", len(views))
	}
	for _, v := range views {
		if v.ChatID == 3 || v.ChatID == 4 {
			t.Errorf("chat %d must be outside the visibility window", v.ChatID)
		}
	}
}

func TestListOrdersByUpdatedAtDescending(t *testing.T) {
	stageID := primitive.NewObjectID()
	work := ts(1, 10)

	a := conv(1, ts(1, 1), ts(3, 10), stageID, &work)
	b := conv(2, ts(1, 2), ts(7, 10), stageID, &work)
	c := conv(3, ts(1, 3), ts(5, 10), stageID, &work)

	store := &fakeStore{
		convs:  []model.Conversation{a, b, c},
		stages: map[primitive.ObjectID]model.Stage{stageID: {ID: stageID, Value: "raw"}},
	}

	views, err := newTestMaterializer(store).List(context.Background(), NewFilter())
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 3 {
		t.Fatalf("expected 3 views, got %d", len(views))
	}
	want := []int64{2, 3, 1}
	for i, v := range views {
		if v.ChatID != want[i] {
			t.Errorf("position %d: expected chat %d, got %d", i, want[i], v.ChatID)
		}
	}
}

func TestListExcludesUnresolvableStage(t *testing.T) {
	known := primitive.NewObjectID()
	unknown := primitive.NewObjectID()
	work := ts(1, 10)

	ok := conv(1, ts(1, 1), ts(2, 1), known, &work)
	orphan := conv(2, ts(1, 2), ts(2, 2), unknown, &work)

	store := &fakeStore{
		convs:  []model.Conversation{ok, orphan},
		stages: map[primitive.ObjectID]model.Stage{known: {ID: known, Value: "raw"}},
	}

	views, err := newTestMaterializer(store).List(context.Background(), NewFilter())
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}
	if views[0].ChatID != 1 {
		t.Errorf("expected chat 1, got %d", views[0].ChatID)
	}
}

func TestListResolvesLastMessageChain(t *testing.T) {
	stageID := primitive.NewObjectID()
	taskID := primitive.NewObjectID()
	typeID := primitive.NewObjectID()
	msgOld := primitive.NewObjectID()
	msgNew := primitive.NewObjectID()
	work := ts(1, 10)

	c := conv(1, ts(1, 1), ts(2, 1), stageID, &work)
	c.Messages = []primitive.ObjectID{msgOld, msgNew}

	store := &fakeStore{
		convs:  []model.Conversation{c},
		stages: map[primitive.ObjectID]model.Stage{stageID: {ID: stageID, Value: "raw"}},
		messages: map[primitive.ObjectID]model.Message{
			msgNew: {ID: msgNew, Text: "latest", Task: &taskID},
		},
		tasks: map[primitive.ObjectID]model.Task{
			taskID: {ID: taskID, Text: "call back", Type: &typeID},
		},
		taskTypes: map[primitive.ObjectID]model.TaskType{
			typeID: {ID: typeID, Title: "Call"},
		},
	}

	views, err := newTestMaterializer(store).List(context.Background(), NewFilter())
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}
	lm := views[0].LastMessage
	if lm == nil || lm.Text != "latest" {
		t.Fatalf("expected last message resolved, got %+v", lm)
	}
	if lm.TaskRef == nil || lm.TaskRef.Text != "call back" {
		t.Fatalf("expected task resolved on last message, got %+v", lm.TaskRef)
	}
	if lm.TaskRef.TypeRef == nil || lm.TaskRef.TypeRef.Title != "Call" {
		t.Errorf("expected task type resolved, got %+v", lm.TaskRef.TypeRef)
	}
}

func TestOneReturnsNilWhenAbsent(t *testing.T) {
	store := &fakeStore{}

	v, err := newTestMaterializer(store).One(context.Background(), primitive.NewObjectID())
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Errorf("expected nil view for unknown id, got %+v", v)
	}
}
