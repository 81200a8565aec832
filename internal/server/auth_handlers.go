package server

import (
	"errors"

	"gatherly/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.userService.Register(c.Context(), req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": result.Token,
		"user":  result.User,
	})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.userService.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		// Bad credentials are 401, not the 403 that authorization
		// failures elsewhere map to.
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "UNAUTHORIZED" {
			return models.RespondWithError(c, fiber.StatusUnauthorized, appErr)
		}
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"token": result.Token,
		"user":  result.User,
	})
}
