package server

import (
	"gatherly/internal/models"
	"gatherly/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetProfile(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// UpdateReminderSettings handles PUT /api/users/me/reminders
func (s *Server) UpdateReminderSettings(c *fiber.Ctx) error {
	var req struct {
		Enabled bool     `json:"enabled"`
		Days    []string `json:"days"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateReminderSettings(c.Context(), currentUserID(c), req.Enabled, req.Days)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// ImportContacts handles POST /api/users/me/contacts
func (s *Server) ImportContacts(c *fiber.Ctx) error {
	var req struct {
		Contacts []service.ContactEntry `json:"contacts"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if len(req.Contacts) == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("At least one contact is required"))
	}

	imported, err := s.userService.ImportContacts(c.Context(), currentUserID(c), req.Contacts)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"imported": imported})
}

// GetContacts handles GET /api/users/me/contacts
func (s *Server) GetContacts(c *fiber.Ctx) error {
	contacts, err := s.userService.ListContacts(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"contacts": contacts})
}

// DeleteContact handles DELETE /api/users/me/contacts/:id
func (s *Server) DeleteContact(c *fiber.Ctx) error {
	contactID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.userService.DeleteContact(c.Context(), currentUserID(c), contactID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RegisterDevice handles POST /api/users/me/devices
func (s *Server) RegisterDevice(c *fiber.Ctx) error {
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := s.userService.RegisterDevice(c.Context(), currentUserID(c), req.Endpoint); err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"registered": true})
}

// RemoveDevice handles DELETE /api/users/me/devices
func (s *Server) RemoveDevice(c *fiber.Ctx) error {
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := s.userService.RemoveDevice(c.Context(), currentUserID(c), req.Endpoint); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
