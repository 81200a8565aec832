package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)

	notifs, err := s.notifService.List(c.Context(), currentUserID(c), limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"notifications": notifs})
}

// GetUnreadCount handles GET /api/notifications/unread-count
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	count, err := s.notifService.UnreadCount(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"unread": count})
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	marked, err := s.notifService.MarkAllRead(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"marked": marked})
}
