package handler

import (
	"github.com/Sladrus/messenger-server2/internal/repository"
	"github.com/gofiber/fiber/v2"
)

type TagHandler struct {
	tags *repository.TagRepository
}

func NewTagHandler(tags *repository.TagRepository) *TagHandler {
	return &TagHandler{tags: tags}
}

func (h *TagHandler) List(c *fiber.Ctx) error {
	tags, err := h.tags.List(c.Context())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load tags"})
	}
	return c.JSON(tags)
}
