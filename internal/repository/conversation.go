package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Sladrus/messenger-server2/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ConversationRepository struct {
	coll *mongo.Collection
}

func NewConversationRepository(db *mongo.Database) *ConversationRepository {
	return &ConversationRepository{coll: db.Collection("conversations")}
}

func (r *ConversationRepository) Create(ctx context.Context, c *model.Conversation) (*model.Conversation, error) {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Messages == nil {
		c.Messages = []primitive.ObjectID{}
	}
	if c.Tags == nil {
		c.Tags = []primitive.ObjectID{}
	}
	if c.Tasks == nil {
		c.Tasks = []primitive.ObjectID{}
	}
	res, err := r.coll.InsertOne(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	return c, nil
}

func (r *ConversationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Conversation, error) {
	var c model.Conversation
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ConversationRepository) FindByChatID(ctx context.Context, chatID int64) (*model.Conversation, error) {
	var c model.Conversation
	err := r.coll.FindOne(ctx, bson.M{"chat_id": chatID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Find returns all conversations matching the given filter document.
func (r *ConversationRepository) Find(ctx context.Context, filter bson.M) ([]model.Conversation, error) {
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []model.Conversation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByIDs returns the matching conversations keyed by id.
func (r *ConversationRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Conversation, error) {
	if len(ids) == 0 {
		return map[primitive.ObjectID]model.Conversation{}, nil
	}
	convs, err := r.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]model.Conversation, len(convs))
	for _, c := range convs {
		out[c.ID] = c
	}
	return out, nil
}

func (r *ConversationRepository) SetStage(ctx context.Context, id, stageID primitive.ObjectID) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"stage": stageID, "updatedAt": time.Now()}})
	return err
}

func (r *ConversationRepository) SetUser(ctx context.Context, id primitive.ObjectID, userID *primitive.ObjectID) error {
	set := bson.M{"updatedAt": time.Now()}
	if userID != nil {
		set["user"] = *userID
		_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
		return err
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": set, "$unset": bson.M{"user": ""}})
	return err
}

func (r *ConversationRepository) SetTags(ctx context.Context, id primitive.ObjectID, tagIDs []primitive.ObjectID) error {
	if tagIDs == nil {
		tagIDs = []primitive.ObjectID{}
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"tags": tagIDs, "updatedAt": time.Now()}})
	return err
}

// AddTag attaches a tag with an atomic single-document update so that two
// concurrent additions both survive.
func (r *ConversationRepository) AddTag(ctx context.Context, id, tagID primitive.ObjectID) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"tags": tagID}, "$set": bson.M{"updatedAt": time.Now()}})
	return err
}

func (r *ConversationRepository) AddTask(ctx context.Context, id, taskID primitive.ObjectID) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$push": bson.M{"tasks": taskID}, "$set": bson.M{"updatedAt": time.Now()}})
	return err
}

// PushMessage appends a message ref and adjusts the unread counter in one
// atomic update.
func (r *ConversationRepository) PushMessage(ctx context.Context, id, messageID primitive.ObjectID, unreadDelta int) error {
	update := bson.M{
		"$push": bson.M{"messages": messageID},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	if unreadDelta != 0 {
		update["$inc"] = bson.M{"unreadCount": unreadDelta}
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (r *ConversationRepository) ResetUnread(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"unreadCount": 0}})
	return err
}

func (r *ConversationRepository) SetLink(ctx context.Context, id primitive.ObjectID, link string) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"link": link}})
	return err
}

func (r *ConversationRepository) SetTitle(ctx context.Context, id primitive.ObjectID, title string) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"title": title, "updatedAt": time.Now()}})
	return err
}

// MarkWorkStarted stamps workAt exactly once. The filter on a missing workAt
// keeps the field immutable after the first stamp. Returns whether this call
// performed the stamp.
func (r *ConversationRepository) MarkWorkStarted(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "workAt": bson.M{"$eq": nil}},
		bson.M{"$set": bson.M{"workAt": at}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// MigrateChatID rewrites the external chat id after a group upgrade.
func (r *ConversationRepository) MigrateChatID(ctx context.Context, oldID, newID int64) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"chat_id": oldID},
		bson.M{"$set": bson.M{"chat_id": newID, "type": model.ChatTypeSupergroup, "updatedAt": time.Now()}})
	return err
}

func (r *ConversationRepository) AddMember(ctx context.Context, id primitive.ObjectID, m model.ChatMember) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"members": m}, "$set": bson.M{"updatedAt": time.Now()}})
	return err
}

func (r *ConversationRepository) RemoveMember(ctx context.Context, id primitive.ObjectID, userID int64) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$pull": bson.M{"members": bson.M{"user_id": userID}}, "$set": bson.M{"updatedAt": time.Now()}})
	return err
}

// CountByStage reports how many conversations currently reference a stage.
func (r *ConversationRepository) CountByStage(ctx context.Context, stageID primitive.ObjectID) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"stage": stageID})
}
