package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/rewind/pkg/attribution"
)

// handleBlame handles POST /api/v1/blame: full attribution of a file's
// blame segments against the project's stored traces.
func (s *Server) handleBlame(c *fiber.Ctx) error {
	var req attribution.FileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}

	result, err := s.engine.AttributeFile(c.Context(), req)
	if err != nil {
		var verr attribution.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: verr.Error(),
			})
		}
		s.logger.Error("attribution failed",
			zap.String("project_id", req.ProjectID),
			zap.String("file_path", req.FilePath),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "attribution failed",
		})
	}

	return c.JSON(result)
}
