package handler

import (
	"errors"
	"io"
	"log"
	"strings"

	"sewconnect-backend/internal/model"
	"sewconnect-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ConversationHandler struct {
	convSvc  *service.ConversationService
	sessions *service.SessionManager
	images   *service.AttachmentStore
}

func NewConversationHandler(convSvc *service.ConversationService, sessions *service.SessionManager, images *service.AttachmentStore) *ConversationHandler {
	return &ConversationHandler{convSvc: convSvc, sessions: sessions, images: images}
}

// POST /api/v1/conversations
func (h *ConversationHandler) Start(c *fiber.Ctx) error {
	customerID := c.Locals("user_id").(string)

	var req model.StartConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.SeamstressID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "seamstress_id is required"})
	}

	conv, err := h.convSvc.GetOrCreate(c.Context(), customerID, req.SeamstressID)
	if err != nil {
		return conversationError(c, err)
	}

	return c.Status(201).JSON(conv)
}

// GET /api/v1/conversations
func (h *ConversationHandler) List(c *fiber.Ctx) error {
	actorID := c.Locals("user_id").(string)
	role, _ := c.Locals("role").(string)

	convs, err := h.convSvc.ListFor(c.Context(), actorID, role)
	if err != nil {
		log.Printf("[Chat] list error: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to list conversations"})
	}

	return c.JSON(fiber.Map{"conversations": convs})
}

// GET /api/v1/conversations/:id
func (h *ConversationHandler) Get(c *fiber.Ctx) error {
	actorID := c.Locals("user_id").(string)

	conv, err := h.convSvc.Get(c.Context(), c.Params("id"), actorID)
	if err != nil {
		return conversationError(c, err)
	}

	return c.JSON(conv)
}

// POST /api/v1/conversations/:id/messages
func (h *ConversationHandler) PostMessage(c *fiber.Ctx) error {
	var req model.SendTextRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	sess, err := h.session(c)
	if err != nil {
		return conversationError(c, err)
	}

	msg, err := sess.SendText(c.Context(), req.Text)
	if err != nil {
		return conversationError(c, err)
	}

	return c.Status(201).JSON(msg)
}

// POST /api/v1/conversations/:id/images
func (h *ConversationHandler) PostImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "image file is required"})
	}

	f, err := file.Open()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "failed to read image"})
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "failed to read image"})
	}

	ref, err := h.images.ImageRef(file.Filename, data)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedImage) {
			return c.Status(400).JSON(fiber.Map{"error": "file is not a supported image"})
		}
		log.Printf("[Chat] image store error: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to store image"})
	}

	sess, err := h.session(c)
	if err != nil {
		return conversationError(c, err)
	}

	msg, err := sess.AttachImage(c.Context(), ref)
	if err != nil {
		return conversationError(c, err)
	}

	return c.Status(201).JSON(msg)
}

// POST /api/v1/conversations/:id/measurements
func (h *ConversationHandler) PostMeasurements(c *fiber.Ctx) error {
	var req model.MeasurementsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	sess, err := h.session(c)
	if err != nil {
		return conversationError(c, err)
	}

	msg, err := sess.ShareMeasurements(c.Context(), req)
	if err != nil {
		return conversationError(c, err)
	}

	return c.Status(201).JSON(msg)
}

// POST /api/v1/conversations/:id/delivery
func (h *ConversationHandler) PostDelivery(c *fiber.Ctx) error {
	var req model.DeliveryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	sess, err := h.session(c)
	if err != nil {
		return conversationError(c, err)
	}

	msg, err := sess.SelectDelivery(c.Context(), req)
	if err != nil {
		return conversationError(c, err)
	}

	return c.Status(201).JSON(msg)
}

// POST /api/v1/conversations/:id/submit-order
func (h *ConversationHandler) SubmitOrder(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return conversationError(c, err)
	}

	order, err := sess.SubmitOrder(c.Context())
	if err != nil {
		return conversationError(c, err)
	}

	return c.Status(201).JSON(order)
}

func (h *ConversationHandler) session(c *fiber.Ctx) (*service.Session, error) {
	actorID := c.Locals("user_id").(string)
	return h.sessions.Session(c.Context(), c.Params("id"), actorID)
}

func conversationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "conversation not found"})
	case errors.Is(err, service.ErrSeamstressNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "seamstress not found"})
	case errors.Is(err, service.ErrNotParticipant):
		return c.Status(403).JSON(fiber.Map{"error": "not a participant in this conversation"})
	case errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrEmptyMeasurements),
		errors.Is(err, service.ErrMissingDeliveryDate),
		errors.Is(err, service.ErrInvalidUrgency):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrSessionClosed):
		return c.Status(409).JSON(fiber.Map{"error": "session is closed"})
	default:
		if strings.Contains(err.Error(), "no rows") {
			return c.Status(404).JSON(fiber.Map{"error": "conversation not found"})
		}
		log.Printf("[Chat ERROR] %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "internal server error"})
	}
}
