package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/rewind/pkg/authtoken"
)

// handleGenerateToken mints a bearer token for a user ID.
func (s *Server) handleGenerateToken(c *fiber.Ctx) error {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}
	if req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "user_id is required",
		})
	}

	token, err := authtoken.IssueToken([]byte(s.config.AuthSecret), req.UserID)
	if err != nil {
		s.logger.Error("token generation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to generate token",
		})
	}

	return c.JSON(map[string]any{
		"token":   token,
		"user_id": req.UserID,
		"note":    "Store this token securely. Use it as: Authorization: Bearer <token>",
	})
}

// handleVerifyToken checks a token and reports the user ID it carries.
func (s *Server) handleVerifyToken(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}
	if req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "token is required",
		})
	}

	claims, err := authtoken.ParseToken([]byte(s.config.AuthSecret), req.Token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(map[string]any{
			"valid": false,
			"error": "Invalid token",
		})
	}

	return c.JSON(map[string]any{
		"valid":   true,
		"user_id": claims.UserID,
	})
}
