package service

import (
	"context"
	"errors"
	"time"

	"github.com/Sladrus/messenger-server2/internal/model"
	"github.com/Sladrus/messenger-server2/internal/view"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrStageNotFound = errors.New("stage not found")

// unprocessedStageValue is the stage a conversation moves into when a human
// first shows up in the chat.
const unprocessedStageValue = "raw"

type convStore interface {
	Create(ctx context.Context, c *model.Conversation) (*model.Conversation, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Conversation, error)
	FindByChatID(ctx context.Context, chatID int64) (*model.Conversation, error)
	SetStage(ctx context.Context, id, stageID primitive.ObjectID) error
	SetUser(ctx context.Context, id primitive.ObjectID, userID *primitive.ObjectID) error
	SetTags(ctx context.Context, id primitive.ObjectID, tagIDs []primitive.ObjectID) error
	AddTag(ctx context.Context, id, tagID primitive.ObjectID) error
	PushMessage(ctx context.Context, id, messageID primitive.ObjectID, unreadDelta int) error
	ResetUnread(ctx context.Context, id primitive.ObjectID) error
	SetLink(ctx context.Context, id primitive.ObjectID, link string) error
	SetTitle(ctx context.Context, id primitive.ObjectID, title string) error
	MarkWorkStarted(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error)
	MigrateChatID(ctx context.Context, oldID, newID int64) error
	AddMember(ctx context.Context, id primitive.ObjectID, m model.ChatMember) error
	RemoveMember(ctx context.Context, id primitive.ObjectID, userID int64) error
}

type stageLookup interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Stage, error)
	FindByValue(ctx context.Context, value string) (*model.Stage, error)
	FindDefault(ctx context.Context) (*model.Stage, error)
}

type tagCatalog interface {
	Create(ctx context.Context, value string) (*model.Tag, error)
	List(ctx context.Context) ([]model.Tag, error)
}

type messageLog interface {
	Create(ctx context.Context, m *model.Message) (*model.Message, error)
	MarkRead(ctx context.Context, ids []primitive.ObjectID) error
}

type historyLog interface {
	Append(ctx context.Context, conversationID, stageID primitive.ObjectID, at time.Time) (*model.StageHistory, error)
}

type viewProducer interface {
	List(ctx context.Context, f view.Filter) ([]model.ConversationView, error)
	One(ctx context.Context, id primitive.ObjectID) (*model.ConversationView, error)
	Search(ctx context.Context, input string) ([]model.ConversationView, error)
}

type broadcaster interface {
	Broadcast(eventType string, payload interface{})
}

// Outbound is the messaging-platform collaborator. Failures of outbound
// calls are logged and swallowed; the triggering mutation proceeds with a
// degraded side effect.
type Outbound interface {
	SendMessage(ctx context.Context, chatID int64, text string) (*model.Message, error)
	ExportInviteLink(ctx context.Context, chatID int64) (string, error)
}

// ConversationService orchestrates conversation mutations. Every mutation
// follows mutate, materialize, broadcast; materialization and broadcast are
// not atomic with the write.
type ConversationService struct {
	convs    convStore
	stages   stageLookup
	tags     tagCatalog
	messages messageLog
	history  historyLog
	mat      viewProducer
	hub      broadcaster
	outbound Outbound
}

func NewConversationService(
	convs convStore,
	stages stageLookup,
	tags tagCatalog,
	messages messageLog,
	history historyLog,
	mat viewProducer,
	hub broadcaster,
) *ConversationService {
	return &ConversationService{
		convs:    convs,
		stages:   stages,
		tags:     tags,
		messages: messages,
		history:  history,
		mat:      mat,
		hub:      hub,
	}
}

// SetOutbound attaches the messaging collaborator once it is constructed.
// A nil collaborator leaves outbound side effects disabled.
func (s *ConversationService) SetOutbound(o Outbound) {
	s.outbound = o
}

// List returns materialized views for the dashboard list.
func (s *ConversationService) List(ctx context.Context, f view.Filter) ([]model.ConversationView, error) {
	return s.mat.List(ctx, f)
}

func (s *ConversationService) Search(ctx context.Context, input string) ([]model.ConversationView, error) {
	return s.mat.Search(ctx, input)
}

func (s *ConversationService) Get(ctx context.Context, id primitive.ObjectID) (*model.ConversationView, error) {
	return s.mat.One(ctx, id)
}

// UpdateStage moves a conversation to a new stage, appends the transition
// to the stage-history log and stamps the work date if it is still unset.
// The stamp uses a guarded update, so it sticks only once.
func (s *ConversationService) UpdateStage(ctx context.Context, id, stageID primitive.ObjectID) error {
	stage, err := s.stages.FindByID(ctx, stageID)
	if err != nil {
		return err
	}
	if stage == nil {
		return ErrStageNotFound
	}

	now := time.Now()
	if err := s.convs.SetStage(ctx, id, stageID); err != nil {
		return err
	}
	if _, err := s.history.Append(ctx, id, stageID, now); err != nil {
		return err
	}
	if _, err := s.convs.MarkWorkStarted(ctx, id, now); err != nil {
		log.Error().Err(err).Str("conversation", id.Hex()).Msg("Failed to stamp work date")
	}

	s.refresh(ctx, id)
	return nil
}

// UpdateUser changes or clears the assigned user.
func (s *ConversationService) UpdateUser(ctx context.Context, id primitive.ObjectID, userID *primitive.ObjectID) error {
	if err := s.convs.SetUser(ctx, id, userID); err != nil {
		return err
	}
	s.refresh(ctx, id)
	return nil
}

// ReplaceTags swaps the whole tag set.
func (s *ConversationService) ReplaceTags(ctx context.Context, id primitive.ObjectID, tagIDs []primitive.ObjectID) error {
	if err := s.convs.SetTags(ctx, id, tagIDs); err != nil {
		return err
	}
	s.refresh(ctx, id)
	return nil
}

// AddTag attaches an existing tag atomically; concurrent additions of
// different tags both survive.
func (s *ConversationService) AddTag(ctx context.Context, id, tagID primitive.ObjectID) error {
	if err := s.convs.AddTag(ctx, id, tagID); err != nil {
		return err
	}
	s.refresh(ctx, id)
	return nil
}

// CreateTag creates a tag, attaches it and pushes the replaced tag list.
func (s *ConversationService) CreateTag(ctx context.Context, id primitive.ObjectID, value string) (*model.Tag, error) {
	tag, err := s.tags.Create(ctx, value)
	if err != nil {
		return nil, err
	}
	if err := s.convs.AddTag(ctx, id, tag.ID); err != nil {
		return nil, err
	}

	s.refresh(ctx, id)
	if all, err := s.tags.List(ctx); err == nil {
		s.hub.Broadcast(model.WSTagsSet, all)
	}
	return tag, nil
}

// MarkRead clears the unread counter and flips stored messages to read.
func (s *ConversationService) MarkRead(ctx context.Context, id primitive.ObjectID) error {
	conv, err := s.convs.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if conv == nil {
		return nil
	}
	if err := s.convs.ResetUnread(ctx, id); err != nil {
		return err
	}
	if err := s.messages.MarkRead(ctx, conv.Messages); err != nil {
		return err
	}
	s.refresh(ctx, id)
	return nil
}

// SendMessage delivers a text through the messaging collaborator and
// records it on the conversation. A delivery failure is logged and the
// message is stored anyway.
func (s *ConversationService) SendMessage(ctx context.Context, id primitive.ObjectID, text string, from model.User) error {
	conv, err := s.convs.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if conv == nil {
		return nil
	}

	msg := &model.Message{
		ChatID: conv.ChatID,
		Text:   text,
		Type:   "text",
		Unread: false,
		Date:   time.Now(),
		From: model.MessageSender{
			ID:        from.ID.Hex(),
			FirstName: from.Username,
			IsBot:     true,
		},
	}

	if s.outbound != nil {
		sent, err := s.outbound.SendMessage(ctx, conv.ChatID, text)
		if err != nil {
			log.Error().Err(err).Int64("chat_id", conv.ChatID).Msg("Outbound send failed, storing message anyway")
		} else {
			msg.MessageID = sent.MessageID
			msg.Date = sent.Date
		}
	}

	stored, err := s.messages.Create(ctx, msg)
	if err != nil {
		return err
	}
	if err := s.convs.PushMessage(ctx, id, stored.ID, 0); err != nil {
		return err
	}
	if err := s.convs.ResetUnread(ctx, id); err != nil {
		return err
	}
	if err := s.messages.MarkRead(ctx, conv.Messages); err != nil {
		return err
	}

	s.refresh(ctx, id)
	return nil
}

// ExportInviteLink fetches and stores the chat invite link. On collaborator
// failure the link is simply omitted.
func (s *ConversationService) ExportInviteLink(ctx context.Context, id primitive.ObjectID) (string, error) {
	conv, err := s.convs.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if conv == nil {
		return "", nil
	}
	if conv.Link != "" {
		return conv.Link, nil
	}
	if s.outbound == nil {
		return "", nil
	}

	link, err := s.outbound.ExportInviteLink(ctx, conv.ChatID)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", conv.ChatID).Msg("Invite link export failed, proceeding without link")
		return "", nil
	}
	if err := s.convs.SetLink(ctx, id, link); err != nil {
		return "", err
	}
	s.refresh(ctx, id)
	return link, nil
}

// InboundMessage records a message arriving from the messaging platform,
// creating the conversation on first contact.
func (s *ConversationService) InboundMessage(ctx context.Context, chatID int64, title, chatType string, msg *model.Message) error {
	conv, err := s.findOrCreate(ctx, chatID, title, chatType)
	if err != nil {
		return err
	}
	if msg == nil {
		// Chat-created event: register the conversation only.
		s.refresh(ctx, conv.ID)
		return nil
	}

	stored, err := s.messages.Create(ctx, msg)
	if err != nil {
		return err
	}
	if err := s.convs.PushMessage(ctx, conv.ID, stored.ID, 1); err != nil {
		return err
	}

	s.refresh(ctx, conv.ID)
	return nil
}

// MemberJoined registers a new chat member, creating the conversation when
// the bot itself is added to a new group. The first human member pulls the
// conversation into operator work.
func (s *ConversationService) MemberJoined(ctx context.Context, chatID int64, title, chatType string, member model.ChatMember) error {
	conv, err := s.findOrCreate(ctx, chatID, title, chatType)
	if err != nil {
		return err
	}
	if err := s.convs.AddMember(ctx, conv.ID, member); err != nil {
		return err
	}
	if !member.IsBot {
		if err := s.startWork(ctx, conv.ID); err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to start work on conversation")
		}
	}
	s.refresh(ctx, conv.ID)
	return nil
}

// startWork stamps the work date and moves the conversation into the
// unprocessed stage. The stamp is guarded on an unset work date, so repeat
// joins neither restamp nor retrigger the transition.
func (s *ConversationService) startWork(ctx context.Context, id primitive.ObjectID) error {
	stamped, err := s.convs.MarkWorkStarted(ctx, id, time.Now())
	if err != nil || !stamped {
		return err
	}
	stage, err := s.stages.FindByValue(ctx, unprocessedStageValue)
	if err != nil || stage == nil {
		return err
	}
	if err := s.convs.SetStage(ctx, id, stage.ID); err != nil {
		return err
	}
	_, err = s.history.Append(ctx, id, stage.ID, time.Now())
	return err
}

func (s *ConversationService) MemberLeft(ctx context.Context, chatID int64, userID int64) error {
	conv, err := s.convs.FindByChatID(ctx, chatID)
	if err != nil || conv == nil {
		return err
	}
	if err := s.convs.RemoveMember(ctx, conv.ID, userID); err != nil {
		return err
	}
	s.refresh(ctx, conv.ID)
	return nil
}

// ChatMigrated rewrites the external chat id after a group-to-supergroup
// upgrade. The rewrite changes list keys, so the whole list is re-pushed.
func (s *ConversationService) ChatMigrated(ctx context.Context, oldChatID, newChatID int64) error {
	if err := s.convs.MigrateChatID(ctx, oldChatID, newChatID); err != nil {
		return err
	}
	s.BroadcastList(ctx)
	return nil
}

// BroadcastList pushes a full list replacement to every dashboard client.
func (s *ConversationService) BroadcastList(ctx context.Context) {
	views, err := s.mat.List(ctx, view.NewFilter())
	if err != nil {
		log.Error().Err(err).Msg("List materialization for broadcast failed")
		return
	}
	s.hub.Broadcast(model.WSConversationsSet, views)
}

// BotPromoted reacts to the bot being granted admin rights by exporting the
// invite link for the chat.
func (s *ConversationService) BotPromoted(ctx context.Context, chatID int64) {
	conv, err := s.convs.FindByChatID(ctx, chatID)
	if err != nil || conv == nil {
		return
	}
	if _, err := s.ExportInviteLink(ctx, conv.ID); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Invite link export after promotion failed")
	}
}

// TitleChanged renames a conversation after the platform chat is renamed.
func (s *ConversationService) TitleChanged(ctx context.Context, chatID int64, title string) error {
	conv, err := s.convs.FindByChatID(ctx, chatID)
	if err != nil || conv == nil {
		return err
	}
	if err := s.convs.SetTitle(ctx, conv.ID, title); err != nil {
		return err
	}
	s.refresh(ctx, conv.ID)
	return nil
}

func (s *ConversationService) findOrCreate(ctx context.Context, chatID int64, title, chatType string) (*model.Conversation, error) {
	conv, err := s.convs.FindByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if conv != nil {
		return conv, nil
	}

	stage, err := s.stages.FindDefault(ctx)
	if err != nil {
		return nil, err
	}

	c := &model.Conversation{
		Title:  title,
		ChatID: chatID,
		Type:   chatType,
	}
	if stage != nil {
		c.Stage = stage.ID
	}
	conv, err = s.convs.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	if stage != nil {
		// The initial stage assignment is a transition too.
		if _, err := s.history.Append(ctx, conv.ID, stage.ID, conv.CreatedAt); err != nil {
			log.Error().Err(err).Str("conversation", conv.ID.Hex()).Msg("Failed to log initial stage")
		}
	}
	log.Info().Int64("chat_id", chatID).Str("title", title).Msg("Conversation created")
	return conv, nil
}

// refresh materializes the canonical view and pushes it to observers. An
// unresolved id is a no-op; a failure is logged and never aborts the
// triggering mutation.
func (s *ConversationService) refresh(ctx context.Context, id primitive.ObjectID) {
	v, err := s.mat.One(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("conversation", id.Hex()).Msg("Materialization failed")
		return
	}
	if v == nil {
		return
	}
	s.hub.Broadcast(model.WSConversationUpdate, v)
}
