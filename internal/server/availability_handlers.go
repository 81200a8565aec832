package server

import (
	"gatherly/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SaveAvailability handles POST /api/availability
func (s *Server) SaveAvailability(c *fiber.Ctx) error {
	var req struct {
		WeekStart string        `json:"week_start"`
		Slots     []models.Slot `json:"slots"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.availService.Save(c.Context(), currentUserID(c), req.WeekStart, req.Slots)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// GetMyAvailability handles GET /api/availability?week_start=YYYY-MM-DD
func (s *Server) GetMyAvailability(c *fiber.Ctx) error {
	weekStart := c.Query("week_start")
	if weekStart == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("week_start query parameter is required"))
	}

	snapshot, err := s.availService.GetWeek(c.Context(), currentUserID(c), weekStart)
	if err != nil {
		return respondServiceError(c, err)
	}
	if snapshot == nil {
		return c.JSON(fiber.Map{"week_start": weekStart, "slots": []models.Slot{}})
	}
	return c.JSON(snapshot)
}

// GetFriendAvailability handles GET /api/availability/friends
func (s *Server) GetFriendAvailability(c *fiber.Ctx) error {
	friends, err := s.availService.GetFriendAvailability(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"friends": friends})
}

// NudgeFriend handles POST /api/friends/:userId/nudge
func (s *Server) NudgeFriend(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	if err := s.availService.Nudge(c.Context(), currentUserID(c), targetID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"nudged": true})
}
