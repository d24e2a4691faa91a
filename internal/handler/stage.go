package handler

import (
	"errors"
	"strings"

	"github.com/Sladrus/messenger-server2/internal/model"
	"github.com/Sladrus/messenger-server2/internal/service"
	"github.com/gofiber/fiber/v2"
)

type StageHandler struct {
	stageSvc *service.StageService
}

func NewStageHandler(stageSvc *service.StageService) *StageHandler {
	return &StageHandler{stageSvc: stageSvc}
}

func (h *StageHandler) List(c *fiber.Ctx) error {
	if t := c.Query("type"); t != "" {
		stages, err := h.stageSvc.ListForType(c.Context(), t)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to load stages"})
		}
		return c.JSON(stages)
	}

	stages, err := h.stageSvc.List(c.Context())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load stages"})
	}
	return c.JSON(stages)
}

func (h *StageHandler) Create(c *fiber.Ctx) error {
	var req struct {
		Label string `json:"label"`
		Color string `json:"color"`
		Value string `json:"value"`
		Type  string `json:"type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	req.Label = strings.TrimSpace(req.Label)
	req.Value = strings.TrimSpace(req.Value)
	if req.Label == "" || req.Value == "" {
		return c.Status(400).JSON(fiber.Map{"error": "label and value are required"})
	}
	if req.Type == "" {
		req.Type = model.StageTypeAll
	}

	stage, err := h.stageSvc.Create(c.Context(), &model.Stage{
		Label: req.Label,
		Color: req.Color,
		Value: req.Value,
		Type:  req.Type,
	})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to create stage"})
	}
	return c.Status(201).JSON(stage)
}

// Delete refuses to remove a stage that still classifies conversations.
func (h *StageHandler) Delete(c *fiber.Ctx) error {
	id, err := objectID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid stage id"})
	}

	if err := h.stageSvc.Delete(c.Context(), id); err != nil {
		if errors.Is(err, service.ErrStageInUse) {
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		}
		if errors.Is(err, service.ErrStageNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "stage not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete stage"})
	}
	return c.JSON(fiber.Map{"ok": true})
}
