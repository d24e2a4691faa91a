package view

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestQueryEmptyFilter(t *testing.T) {
	q := NewFilter().Query()
	if len(q) != 0 {
		t.Errorf("empty filter must render an empty query, got %v", q)
	}
}

func TestQueryComposesWithAND(t *testing.T) {
	stageID := primitive.NewObjectID()
	tagID := primitive.NewObjectID()

	q := NewFilter().
		WithStage(stageID.Hex()).
		WithUnread(true).
		WithTags([]primitive.ObjectID{tagID}).
		Query()

	if len(q) != 3 {
		t.Fatalf("expected 3 predicates, got %d: %v", len(q), q)
	}
	if q["stage"] != stageID {
		t.Errorf("expected stage predicate, got %v", q["stage"])
	}
	if m, ok := q["unreadCount"].(bson.M); !ok || m["$gt"] != 0 {
		t.Errorf("expected unreadCount $gt 0, got %v", q["unreadCount"])
	}
}

func TestQueryUserSentinels(t *testing.T) {
	if q := NewFilter().WithUser(SelectAll).Query(); len(q) != 0 {
		t.Errorf("user=all must add no predicate, got %v", q)
	}

	q := NewFilter().WithUser(SelectNobody).Query()
	if v, ok := q["user"]; !ok || v != nil {
		t.Errorf("user=nobody must match null owner, got %v", q)
	}

	id := primitive.NewObjectID()
	q = NewFilter().WithUser(id.Hex()).Query()
	if q["user"] != id {
		t.Errorf("expected user id predicate, got %v", q["user"])
	}
}

func TestQueryTypeGroupCollapsesKinds(t *testing.T) {
	q := NewFilter().WithType("group").Query()
	m, ok := q["type"].(bson.M)
	if !ok {
		t.Fatalf("expected $in document, got %v", q["type"])
	}
	kinds, ok := m["$in"].([]string)
	if !ok || len(kinds) != 2 {
		t.Fatalf("expected two grouped kinds, got %v", m["$in"])
	}

	q = NewFilter().WithType("private").Query()
	if q["type"] != "private" {
		t.Errorf("expected plain private predicate, got %v", q["type"])
	}

	if q := NewFilter().WithType(SelectAll).Query(); len(q) != 0 {
		t.Errorf("type=all must add no predicate, got %v", q)
	}
}

func TestQueryDateRangeDefaultsFromToEpoch(t *testing.T) {
	to := time.Date(2025, time.August, 20, 0, 0, 0, 0, time.UTC)

	q := NewFilter().WithDateRange(nil, &to).Query()
	m, ok := q["workAt"].(bson.M)
	if !ok {
		t.Fatalf("expected workAt range, got %v", q["workAt"])
	}
	gte, ok := m["$gte"].(time.Time)
	if !ok || !gte.Equal(time.Unix(0, 0)) {
		t.Errorf("missing start must default to the epoch, got %v", m["$gte"])
	}
	lte, ok := m["$lte"].(time.Time)
	if !ok || !lte.Equal(to) {
		t.Errorf("expected end bound %v, got %v", to, m["$lte"])
	}
}

func TestQuerySearchIsCaseInsensitive(t *testing.T) {
	q := NewFilter().WithSearch("acme").Query()
	m, ok := q["title"].(bson.M)
	if !ok {
		t.Fatalf("expected title regex, got %v", q["title"])
	}
	re, ok := m["$regex"].(primitive.Regex)
	if !ok || re.Pattern != "acme" || re.Options != "i" {
		t.Errorf("expected case-insensitive regex, got %v", m)
	}
}

func TestFilterIsImmutable(t *testing.T) {
	base := NewFilter()
	_ = base.WithUnread(true)

	if q := base.Query(); len(q) != 0 {
		t.Errorf("deriving a filter must not mutate the base, got %v", q)
	}
}
