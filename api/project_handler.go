package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/rewind/pkg/storage"
)

// handleCreateProject creates or updates a project.
func (s *Server) handleCreateProject(c *fiber.Ctx) error {
	var req struct {
		ProjectID   string `json:"project_id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}
	if req.ProjectID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "project_id is required",
		})
	}

	project, err := s.storer.UpsertProject(c.Context(), &storage.Project{
		ID:          req.ProjectID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		s.logger.Error("project upsert failed",
			zap.String("project_id", req.ProjectID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to create project",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(map[string]any{
		"project": project,
	})
}

// handleGetProject returns a project with its stored record counts.
func (s *Server) handleGetProject(c *fiber.Ctx) error {
	projectID := c.Params("projectID")

	project, err := s.storer.GetProject(c.Context(), projectID)
	if err != nil {
		if isNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error: "Project not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to load project",
		})
	}

	stats, err := s.storer.ProjectStats(c.Context(), projectID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to load project stats",
		})
	}

	return c.JSON(map[string]any{
		"project": project,
		"stats":   stats,
	})
}
