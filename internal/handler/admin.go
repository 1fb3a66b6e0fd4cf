package handler

import (
	"encoding/json"

	"sewconnect-backend/internal/model"
	"sewconnect-backend/internal/repository"
	"sewconnect-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	userRepo  *repository.UserRepository
	convRepo  *repository.ConversationRepository
	orderRepo *repository.OrderRepository
	wsHub     *service.WSHub
}

func NewAdminHandler(userRepo *repository.UserRepository, convRepo *repository.ConversationRepository, orderRepo *repository.OrderRepository, wsHub *service.WSHub) *AdminHandler {
	return &AdminHandler{userRepo: userRepo, convRepo: convRepo, orderRepo: orderRepo, wsHub: wsHub}
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	totalUsers, _ := h.userRepo.CountTotal(c.Context())
	totalConversations, _ := h.convRepo.CountTotal(c.Context())
	totalOrders, _ := h.orderRepo.CountTotal(c.Context())
	online := h.wsHub.OnlineCount()

	return c.JSON(fiber.Map{
		"users_total":         totalUsers,
		"users_online":        online,
		"conversations_total": totalConversations,
		"orders_total":        totalOrders,
	})
}

func (h *AdminHandler) Announce(c *fiber.Ctx) error {
	var req model.WSAnnounce
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.Message == "" {
		return c.Status(400).JSON(fiber.Map{"error": "message is required"})
	}

	data, _ := json.Marshal(req)
	h.wsHub.Broadcast(&model.WSEvent{
		Type: "server:announce",
		Data: data,
	})

	return c.JSON(fiber.Map{"ok": true, "online": h.wsHub.OnlineCount()})
}
