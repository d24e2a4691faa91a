package view

import (
	"time"

	"github.com/Sladrus/messenger-server2/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Filter selector sentinels used by the dashboard.
const (
	SelectAll    = "all"
	SelectNobody = "nobody"
)

// Filter is a composable conversation predicate. Predicates are combined
// with AND; tag membership is an OR within the tag set. The zero value
// matches everything.
type Filter struct {
	id       *primitive.ObjectID
	chatID   *int64
	user     string
	stage    string
	unread   *bool
	tags     []primitive.ObjectID
	users    []primitive.ObjectID
	stageIDs []primitive.ObjectID
	convType string
	dateFrom *time.Time
	dateTo   *time.Time
	search   string
}

func NewFilter() Filter { return Filter{} }

func (f Filter) WithID(id primitive.ObjectID) Filter {
	f.id = &id
	return f
}

func (f Filter) WithChatID(chatID int64) Filter {
	f.chatID = &chatID
	return f
}

// WithUser filters by assigned user id; SelectNobody matches unassigned
// conversations and SelectAll (or empty) disables the predicate.
func (f Filter) WithUser(user string) Filter {
	f.user = user
	return f
}

func (f Filter) WithStage(stage string) Filter {
	f.stage = stage
	return f
}

func (f Filter) WithUnread(unread bool) Filter {
	f.unread = &unread
	return f
}

func (f Filter) WithTags(tags []primitive.ObjectID) Filter {
	f.tags = tags
	return f
}

// WithUsers filters by a set of assigned users (OR within the set).
func (f Filter) WithUsers(users []primitive.ObjectID) Filter {
	f.users = users
	return f
}

// WithStages filters by a set of stages (OR within the set).
func (f Filter) WithStages(stages []primitive.ObjectID) Filter {
	f.stageIDs = stages
	return f
}

// WithType filters by conversation type; "group" collapses the platform's
// group and supergroup kinds into one category.
func (f Filter) WithType(convType string) Filter {
	f.convType = convType
	return f
}

func (f Filter) WithDateRange(from, to *time.Time) Filter {
	f.dateFrom = from
	f.dateTo = to
	return f
}

func (f Filter) WithSearch(input string) Filter {
	f.search = input
	return f
}

// Query renders the filter as a Mongo filter document.
func (f Filter) Query() bson.M {
	q := bson.M{}

	if f.id != nil {
		q["_id"] = *f.id
	}
	if f.chatID != nil {
		q["chat_id"] = *f.chatID
	}

	switch f.user {
	case "", SelectAll:
	case SelectNobody:
		q["user"] = nil
	default:
		if id, err := primitive.ObjectIDFromHex(f.user); err == nil {
			q["user"] = id
		}
	}

	if f.stage != "" && f.stage != SelectAll {
		if id, err := primitive.ObjectIDFromHex(f.stage); err == nil {
			q["stage"] = id
		}
	}

	if f.unread != nil {
		if *f.unread {
			q["unreadCount"] = bson.M{"$gt": 0}
		} else {
			q["unreadCount"] = bson.M{"$eq": 0}
		}
	}

	if len(f.tags) > 0 {
		q["tags"] = bson.M{"$in": f.tags}
	}
	if len(f.users) > 0 {
		q["user"] = bson.M{"$in": f.users}
	}
	if len(f.stageIDs) > 0 {
		q["stage"] = bson.M{"$in": f.stageIDs}
	}

	switch f.convType {
	case "", SelectAll:
	case model.ChatTypePrivate:
		q["type"] = model.ChatTypePrivate
	default:
		q["type"] = bson.M{"$in": []string{model.ChatTypeGroup, model.ChatTypeSupergroup}}
	}

	if f.dateFrom != nil || f.dateTo != nil {
		r := bson.M{}
		if f.dateFrom != nil {
			r["$gte"] = *f.dateFrom
		} else {
			r["$gte"] = time.Unix(0, 0)
		}
		if f.dateTo != nil {
			r["$lte"] = *f.dateTo
		}
		q["workAt"] = r
	}

	if f.search != "" {
		q["title"] = bson.M{"$regex": primitive.Regex{Pattern: f.search, Options: "i"}}
	}

	return q
}
