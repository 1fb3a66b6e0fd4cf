package handler

import (
	"errors"
	"log"
	"strings"

	"sewconnect-backend/internal/model"
	"sewconnect-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	orderSvc *service.OrderService
}

func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// GET /api/v1/orders
func (h *OrderHandler) List(c *fiber.Ctx) error {
	seamstressID := c.Locals("user_id").(string)
	status := c.Query("status", "all")

	orders, err := h.orderSvc.ListForSeamstress(c.Context(), seamstressID, status)
	if err != nil {
		log.Printf("[Order] list error: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to list orders"})
	}

	return c.JSON(fiber.Map{"orders": orders})
}

// GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	actorID := c.Locals("user_id").(string)

	order, err := h.orderSvc.Get(c.Context(), c.Params("id"), actorID)
	if err != nil {
		return orderError(c, err)
	}

	return c.JSON(order)
}

// PUT /api/v1/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	seamstressID := c.Locals("user_id").(string)

	var req model.UpdateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Status == "" {
		return c.Status(400).JSON(fiber.Map{"error": "status is required"})
	}

	if err := h.orderSvc.UpdateStatus(c.Context(), c.Params("id"), seamstressID, req.Status); err != nil {
		return orderError(c, err)
	}

	return c.JSON(fiber.Map{"ok": true})
}

func orderError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "order not found"})
	case errors.Is(err, service.ErrNotOrderOwner):
		return c.Status(403).JSON(fiber.Map{"error": "not the order owner"})
	case errors.Is(err, service.ErrNotParticipant):
		return c.Status(403).JSON(fiber.Map{"error": "not a participant in this order"})
	case errors.Is(err, service.ErrInvalidOrderStatus):
		return c.Status(400).JSON(fiber.Map{"error": "status must be queued, in_progress, or completed"})
	default:
		if strings.Contains(err.Error(), "no rows") {
			return c.Status(404).JSON(fiber.Map{"error": "order not found"})
		}
		log.Printf("[Order ERROR] %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "internal server error"})
	}
}
