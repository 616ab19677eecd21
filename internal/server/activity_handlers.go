// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"log"

	"driveline/internal/models"
	"driveline/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// GetRecentActivity handles GET /api/activity/recent. Returns the most
// recent marketplace events, newest first.
func (s *Server) GetRecentActivity(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)

	events, err := s.notifier.Recent(c.UserContext(), limit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"events": events})
}

// feedIdentity runs before the WebSocket upgrade. It rejects non-upgrade
// requests and attributes the connection to a user when a valid token is
// presented, without requiring one.
func (s *Server) feedIdentity(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if userID, ok := s.optionalUserID(c); ok {
		c.Locals("feedUserID", userID)
	}
	return c.Next()
}

// ActivityFeedHandler handles GET /api/ws, the live marketplace activity
// stream. The feed is public; a valid token only attributes the connection
// to a user for per-user connection limits.
func (s *Server) ActivityFeedHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("feedUserID").(uint)

		if s.hub == nil {
			_ = conn.Close()
			return
		}

		client := notifications.NewClient(s.hub, conn, userID)
		if err := s.hub.RegisterClient(client); err != nil {
			log.Printf("activity feed: rejecting connection (user %d): %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"feed unavailable"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
