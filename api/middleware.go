package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/rewind/pkg/authtoken"
)

const bearerPrefix = "Bearer "

// requireAuth guards the /api/v1 routes behind a bearer token signed with
// the server's auth secret. The token's user ID is stashed in the request
// locals for handlers that record who ingested what.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, bearerPrefix) {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error: "Missing or invalid Authorization header",
		})
	}

	claims, err := authtoken.ParseToken([]byte(s.config.AuthSecret), strings.TrimPrefix(header, bearerPrefix))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error: "Invalid or expired token",
		})
	}

	c.Locals("user_id", claims.UserID)
	return c.Next()
}

// userID returns the authenticated user ID stashed by requireAuth.
func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
