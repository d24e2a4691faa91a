package telegram

import (
	"context"
	"strconv"
	"time"

	"github.com/Sladrus/messenger-server2/internal/model"
	"github.com/Sladrus/messenger-server2/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Bot bridges Telegram updates into the conversation service and carries
// outbound sends back to Telegram. A nil Bot (no token configured) is safe
// to call.
type Bot struct {
	api     *tgbotapi.BotAPI
	convSvc *service.ConversationService
	done    chan struct{}
}

func NewBot(token string, convSvc *service.ConversationService) (*Bot, error) {
	if token == "" {
		log.Info().Msg("No bot token configured, telegram bot disabled")
		return nil, nil
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		api:     api,
		convSvc: convSvc,
		done:    make(chan struct{}),
	}
	convSvc.SetOutbound(bot)
	return bot, nil
}

// Start begins long-polling for updates in a background goroutine.
func (b *Bot) Start() {
	if b == nil {
		return
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-b.done:
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				b.handleUpdate(update)
			}
		}
	}()

	log.Info().Str("username", b.api.Self.UserName).Msg("Telegram bot connected")
}

func (b *Bot) Stop() {
	if b == nil {
		return
	}
	b.api.StopReceivingUpdates()
	close(b.done)
}

// SendMessage implements service.Outbound.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) (*model.Message, error) {
	sent, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return nil, err
	}
	return &model.Message{
		MessageID: int64(sent.MessageID),
		From: model.MessageSender{
			ID:        strconv.FormatInt(b.api.Self.ID, 10),
			Username:  b.api.Self.UserName,
			FirstName: b.api.Self.FirstName,
			IsBot:     true,
		},
		ChatID: chatID,
		Text:   text,
		Type:   "text",
		Date:   time.Unix(int64(sent.Date), 0),
	}, nil
}

// ExportInviteLink implements service.Outbound. Requires admin rights in
// the chat.
func (b *Bot) ExportInviteLink(ctx context.Context, chatID int64) (string, error) {
	return b.api.GetInviteLink(tgbotapi.ChatInviteLinkConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.MyChatMember != nil:
		b.handleMyChatMember(ctx, update.MyChatMember)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chat := msg.Chat
	if chat == nil {
		return
	}
	chatID := chat.ID
	title := chatTitle(chat)

	switch {
	case msg.MigrateToChatID != 0:
		if err := b.convSvc.ChatMigrated(ctx, chatID, msg.MigrateToChatID); err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Msg("Chat migration failed")
		}
		return

	case len(msg.NewChatMembers) > 0:
		for _, m := range msg.NewChatMembers {
			if m.ID == b.api.Self.ID {
				// The bot being added registers the chat; work starts
				// once a human shows up.
				if err := b.convSvc.InboundMessage(ctx, chatID, title, chat.Type, nil); err != nil {
					log.Error().Err(err).Int64("chat_id", chatID).Msg("Chat registration failed")
				}
				continue
			}
			member := model.ChatMember{
				UserID:    m.ID,
				Username:  m.UserName,
				FirstName: m.FirstName,
				IsBot:     m.IsBot,
			}
			if err := b.convSvc.MemberJoined(ctx, chatID, title, chat.Type, member); err != nil {
				log.Error().Err(err).Int64("chat_id", chatID).Msg("Member join failed")
			}
		}
		return

	case msg.LeftChatMember != nil:
		if msg.LeftChatMember.ID == b.api.Self.ID {
			return
		}
		if err := b.convSvc.MemberLeft(ctx, chatID, msg.LeftChatMember.ID); err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Msg("Member leave failed")
		}
		return

	case msg.NewChatTitle != "":
		if err := b.convSvc.TitleChanged(ctx, chatID, msg.NewChatTitle); err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Msg("Title change failed")
		}
		return

	case msg.GroupChatCreated || msg.SuperGroupChatCreated:
		if err := b.convSvc.InboundMessage(ctx, chatID, title, chat.Type, nil); err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Msg("Chat registration failed")
		}
		return
	}

	if msg.From != nil && msg.From.IsBot {
		return
	}

	stored := &model.Message{
		MessageID: int64(msg.MessageID),
		Unread:    true,
		ChatID:    chatID,
		Text:      msg.Text,
		Type:      messageType(msg),
		Date:      time.Unix(int64(msg.Date), 0),
	}
	if msg.From != nil {
		stored.From = model.MessageSender{
			ID:        strconv.FormatInt(msg.From.ID, 10),
			FirstName: msg.From.FirstName,
			Username:  msg.From.UserName,
			IsBot:     msg.From.IsBot,
		}
	}

	if err := b.convSvc.InboundMessage(ctx, chatID, title, chat.Type, stored); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Inbound message failed")
	}
}

// handleMyChatMember reacts to the bot's own status change: being promoted
// to administrator unlocks invite-link export.
func (b *Bot) handleMyChatMember(ctx context.Context, upd *tgbotapi.ChatMemberUpdated) {
	if upd.NewChatMember.User == nil || upd.NewChatMember.User.ID != b.api.Self.ID {
		return
	}
	if upd.NewChatMember.Status == "administrator" {
		b.convSvc.BotPromoted(ctx, upd.Chat.ID)
	}
}

func chatTitle(chat *tgbotapi.Chat) string {
	if chat.Title != "" {
		return chat.Title
	}
	if chat.UserName != "" {
		return chat.UserName
	}
	return chat.FirstName
}

func messageType(msg *tgbotapi.Message) string {
	switch {
	case msg.Photo != nil:
		return "photo"
	case msg.Document != nil:
		return "document"
	case msg.Voice != nil:
		return "voice"
	case msg.Sticker != nil:
		return "sticker"
	default:
		return "text"
	}
}
