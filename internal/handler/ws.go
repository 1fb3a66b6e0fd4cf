package handler

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"sewconnect-backend/internal/model"
	"sewconnect-backend/internal/service"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type WSHandler struct {
	hub     *service.WSHub
	authSvc *service.AuthService
	convSvc *service.ConversationService
}

func NewWSHandler(hub *service.WSHub, authSvc *service.AuthService, convSvc *service.ConversationService) *WSHandler {
	return &WSHandler{hub: hub, authSvc: authSvc, convSvc: convSvc}
}

func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		// Browsers cannot set headers on the upgrade request, so the token
		// arrives as a query param.
		token := c.Query("token")
		if token == "" {
			return c.Status(401).JSON(fiber.Map{"error": "token required"})
		}

		userID, username, _, err := h.authSvc.ValidateAccessToken(token)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "invalid token"})
		}

		c.Locals("user_id", userID)
		c.Locals("username", username)
		return websocket.New(h.handleConnection)(c)
	}
	return fiber.ErrUpgradeRequired
}

func (h *WSHandler) handleConnection(c *websocket.Conn) {
	userID, _ := c.Locals("user_id").(string)
	username, _ := c.Locals("username").(string)

	client := service.NewWSClient(c, userID, username)

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	// Writer goroutine
	go func() {
		defer c.Close()
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	// Reader loop
	c.SetReadDeadline(time.Now().Add(60 * time.Second))
	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			break
		}

		// Reset deadline on any message
		c.SetReadDeadline(time.Now().Add(60 * time.Second))

		var event model.WSEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			continue
		}

		switch event.Type {
		case "ping":
			pong, _ := json.Marshal(model.WSEvent{Type: "pong"})
			select {
			case client.Send <- pong:
			default:
			}
		case "subscribe":
			var sub model.WSSubscribe
			if err := json.Unmarshal(event.Data, &sub); err != nil || sub.ConversationID == "" {
				continue
			}
			// Only participants may watch a conversation.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_, err := h.convSvc.Get(ctx, sub.ConversationID, userID)
			cancel()
			if err != nil {
				denied, _ := json.Marshal(fiber.Map{"conversation_id": sub.ConversationID, "error": "not a participant"})
				evt, _ := json.Marshal(model.WSEvent{Type: "subscribe:denied", Data: denied})
				select {
				case client.Send <- evt:
				default:
				}
				continue
			}
			client.SubscribeConversation(sub.ConversationID)
		case "unsubscribe":
			var sub model.WSSubscribe
			if err := json.Unmarshal(event.Data, &sub); err == nil && sub.ConversationID != "" {
				client.UnsubscribeConversation(sub.ConversationID)
			}
		default:
			log.Printf("WS: unknown event type %s from %s", event.Type, username)
		}
	}
}
