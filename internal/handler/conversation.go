package handler

import (
	"strings"
	"time"

	"github.com/Sladrus/messenger-server2/internal/model"
	"github.com/Sladrus/messenger-server2/internal/service"
	"github.com/Sladrus/messenger-server2/internal/view"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ConversationHandler struct {
	convSvc *service.ConversationService
}

func NewConversationHandler(convSvc *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{convSvc: convSvc}
}

// List returns materialized conversation views. Filters arrive as query
// parameters and compose with AND semantics.
func (h *ConversationHandler) List(c *fiber.Ctx) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	views, err := h.convSvc.List(c.Context(), f)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load conversations"})
	}
	return c.JSON(views)
}

func (h *ConversationHandler) Search(c *fiber.Ctx) error {
	input := c.Query("q")
	if input == "" {
		return c.JSON([]model.ConversationView{})
	}
	views, err := h.convSvc.Search(c.Context(), input)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "search failed"})
	}
	return c.JSON(views)
}

func (h *ConversationHandler) Get(c *fiber.Ctx) error {
	id, err := objectID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid conversation id"})
	}
	v, err := h.convSvc.Get(c.Context(), id)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load conversation"})
	}
	if v == nil {
		return c.Status(404).JSON(fiber.Map{"error": "conversation not found"})
	}
	return c.JSON(v)
}

func (h *ConversationHandler) UpdateStage(c *fiber.Ctx) error {
	id, err := objectID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid conversation id"})
	}

	var req struct {
		Stage string `json:"stage"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	stageID, err := objectID(req.Stage)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid stage id"})
	}

	if err := h.convSvc.UpdateStage(c.Context(), id, stageID); err != nil {
		if err == service.ErrStageNotFound {
			return c.Status(404).JSON(fiber.Map{"error": "stage not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "failed to update stage"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *ConversationHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := objectID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid conversation id"})
	}

	var req struct {
		User string `json:"user"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	var userID *primitive.ObjectID
	if req.User != "" {
		uid, err := objectID(req.User)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid user id"})
		}
		userID = &uid
	}

	if err := h.convSvc.UpdateUser(c.Context(), id, userID); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to assign user"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *ConversationHandler) ReplaceTags(c *fiber.Ctx) error {
	id, err := objectID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid conversation id"})
	}

	var req struct {
		Tags []string `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	tagIDs, err := objectIDs(req.Tags)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid tag id"})
	}

	if err := h.convSvc.ReplaceTags(c.Context(), id, tagIDs); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update tags"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// CreateTag creates a tag by value and attaches it to the conversation in
// one call.
func (h *ConversationHandler) CreateTag(c *fiber.Ctx) error {
	id, err := objectID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid conversation id"})
	}

	var req struct {
		Value string `json:"value"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	req.Value = strings.TrimSpace(req.Value)
	if req.Value == "" {
		return c.Status(400).JSON(fiber.Map{"error": "value is required"})
	}

	tag, err := h.convSvc.CreateTag(c.Context(), id, req.Value)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to create tag"})
	}
	return c.Status(201).JSON(tag)
}

func (h *ConversationHandler) MarkRead(c *fiber.Ctx) error {
	id, err := objectID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid conversation id"})
	}
	if err := h.convSvc.MarkRead(c.Context(), id); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to mark read"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *ConversationHandler) SendMessage(c *fiber.Ctx) error {
	id, err := objectID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid conversation id"})
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.Status(400).JSON(fiber.Map{"error": "text is required"})
	}

	username, _ := c.Locals("username").(string)
	from := model.User{Username: username}
	if uid, ok := c.Locals("user_id").(string); ok {
		if oid, err := primitive.ObjectIDFromHex(uid); err == nil {
			from.ID = oid
		}
	}

	if err := h.convSvc.SendMessage(c.Context(), id, req.Text, from); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to send message"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *ConversationHandler) ExportInviteLink(c *fiber.Ctx) error {
	id, err := objectID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid conversation id"})
	}
	link, err := h.convSvc.ExportInviteLink(c.Context(), id)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to export link"})
	}
	return c.JSON(fiber.Map{"link": link})
}

func filterFromQuery(c *fiber.Ctx) (view.Filter, error) {
	f := view.NewFilter()

	if v := c.Query("stage"); v != "" {
		f = f.WithStage(v)
	}
	if v := c.Query("user"); v != "" {
		f = f.WithUser(v)
	}
	if v := c.Query("unread"); v != "" {
		f = f.WithUnread(v == "true" || v == "1")
	}
	if v := c.Query("tags"); v != "" {
		ids, err := objectIDs(strings.Split(v, ","))
		if err != nil {
			return f, fiber.NewError(400, "invalid tags filter")
		}
		f = f.WithTags(ids)
	}
	if v := c.Query("type"); v != "" {
		f = f.WithType(v)
	}
	if v := c.Query("search"); v != "" {
		f = f.WithSearch(v)
	}

	var from, to *time.Time
	if v := c.Query("dateFrom"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fiber.NewError(400, "invalid dateFrom")
		}
		from = &t
	}
	if v := c.Query("dateTo"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fiber.NewError(400, "invalid dateTo")
		}
		to = &t
	}
	if from != nil || to != nil {
		f = f.WithDateRange(from, to)
	}

	return f, nil
}

func objectID(s string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(s)
}

func objectIDs(ss []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ss))
	for _, s := range ss {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
