package server

import (
	"gatherly/internal/models"
	"gatherly/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateHangout handles POST /api/hangouts
func (s *Server) CreateHangout(c *fiber.Ctx) error {
	var params service.HangoutParams
	if err := c.BodyParser(&params); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	hangout, err := s.hangoutService.Create(c.Context(), currentUserID(c), params)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(hangout)
}

// GetHangouts handles GET /api/hangouts
func (s *Server) GetHangouts(c *fiber.Ctx) error {
	hangouts, err := s.hangoutService.List(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"hangouts": hangouts})
}

// GetHangout handles GET /api/hangouts/:id
func (s *Server) GetHangout(c *fiber.Ctx) error {
	hangoutID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	hangout, err := s.hangoutService.Get(c.Context(), currentUserID(c), hangoutID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(hangout)
}

// RespondToHangout handles POST /api/hangouts/:id/respond
func (s *Server) RespondToHangout(c *fiber.Ctx) error {
	hangoutID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status models.InviteeStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	hangout, err := s.hangoutService.Respond(c.Context(), currentUserID(c), hangoutID, req.Status)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(hangout)
}

// RespondByToken handles POST /api/invites/:token/respond.
// The invite token authenticates the caller, so this route is public.
func (s *Server) RespondByToken(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invite token is required"))
	}

	var req struct {
		Status models.InviteeStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	hangout, err := s.hangoutService.RespondByToken(c.Context(), token, req.Status)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(hangout)
}

// UpdateHangout handles PUT /api/hangouts/:id
func (s *Server) UpdateHangout(c *fiber.Ctx) error {
	hangoutID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var params service.HangoutParams
	if err := c.BodyParser(&params); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	hangout, err := s.hangoutService.Update(c.Context(), currentUserID(c), hangoutID, params)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(hangout)
}

// CancelHangout handles POST /api/hangouts/:id/cancel
func (s *Server) CancelHangout(c *fiber.Ctx) error {
	hangoutID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	hangout, err := s.hangoutService.Cancel(c.Context(), currentUserID(c), hangoutID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(hangout)
}

// PostHangoutMessage handles POST /api/hangouts/:id/messages
func (s *Server) PostHangoutMessage(c *fiber.Ctx) error {
	hangoutID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	message, err := s.hangoutService.PostMessage(c.Context(), currentUserID(c), hangoutID, req.Body)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// GetHangoutMessages handles GET /api/hangouts/:id/messages
func (s *Server) GetHangoutMessages(c *fiber.Ctx) error {
	hangoutID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	limit := c.QueryInt("limit", 0)

	messages, err := s.hangoutService.GetMessages(c.Context(), currentUserID(c), hangoutID, limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}
