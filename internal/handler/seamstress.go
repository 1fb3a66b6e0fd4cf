package handler

import (
	"log"

	"sewconnect-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type SeamstressHandler struct {
	userRepo *repository.UserRepository
}

func NewSeamstressHandler(userRepo *repository.UserRepository) *SeamstressHandler {
	return &SeamstressHandler{userRepo: userRepo}
}

// GET /api/v1/seamstresses
func (h *SeamstressHandler) List(c *fiber.Ctx) error {
	profiles, err := h.userRepo.ListSeamstresses(c.Context())
	if err != nil {
		log.Printf("[Directory] list error: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to list seamstresses"})
	}

	return c.JSON(fiber.Map{"seamstresses": profiles})
}
