package handler

import (
	"strings"
	"time"

	"github.com/Sladrus/messenger-server2/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskHandler struct {
	taskSvc *service.TaskService
}

func NewTaskHandler(taskSvc *service.TaskService) *TaskHandler {
	return &TaskHandler{taskSvc: taskSvc}
}

func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var req struct {
		Conversation string `json:"conversation"`
		Type         string `json:"type"`
		Text         string `json:"text"`
		EndAt        string `json:"endAt"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	convID, err := objectID(req.Conversation)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid conversation id"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.Status(400).JSON(fiber.Map{"error": "text is required"})
	}
	endAt, err := time.Parse(time.RFC3339, req.EndAt)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid endAt"})
	}

	var typeID *primitive.ObjectID
	if req.Type != "" {
		tid, err := objectID(req.Type)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid type id"})
		}
		typeID = &tid
	}

	task, err := h.taskSvc.Create(c.Context(), convID, typeID, req.Text, endAt)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to create task"})
	}
	return c.Status(201).JSON(task)
}

func (h *TaskHandler) Complete(c *fiber.Ctx) error {
	id, err := objectID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid task id"})
	}

	var req struct {
		Result string `json:"result"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.taskSvc.Complete(c.Context(), id, req.Result); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to complete task"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *TaskHandler) ListTypes(c *fiber.Ctx) error {
	types, err := h.taskSvc.ListTypes(c.Context())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load task types"})
	}
	return c.JSON(types)
}

func (h *TaskHandler) CreateType(c *fiber.Ctx) error {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.Status(400).JSON(fiber.Map{"error": "title is required"})
	}

	tt, err := h.taskSvc.CreateType(c.Context(), req.Title)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to create task type"})
	}
	return c.Status(201).JSON(tt)
}
