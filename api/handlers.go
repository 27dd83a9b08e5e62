package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/rewind/pkg/utils"
)

// handleRoot returns the service descriptor and an endpoint map.
func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(map[string]any{
		"name":    "rewind",
		"version": utils.Version,
		"docs": map[string]string{
			"health":             "GET /health",
			"generate_token":     "POST /api/v1/tokens/generate",
			"verify_token":       "POST /api/v1/tokens/verify",
			"create_project":     "POST /api/v1/projects",
			"project_info":       "GET /api/v1/projects/:projectID",
			"ingest_trace":       "POST /api/v1/traces",
			"batch_ingest":       "POST /api/v1/traces/batch",
			"list_traces":        "GET /api/v1/traces?project_id=...",
			"get_trace":          "GET /api/v1/traces/:traceID?project_id=...",
			"sync_conversation":  "POST /api/v1/conversations/sync",
			"create_commit_link": "POST /api/v1/commit-links",
			"commit_link_info":   "GET /api/v1/commit-links/:commitSHA?project_id=...",
			"commit_ledger":      "GET /api/v1/commit-links/:commitSHA/ledger?project_id=...",
			"blame":              "POST /api/v1/blame",
			"mcp":                "ALL /mcp",
		},
	})
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleHealth reports service and storage health.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	if err := s.storer.Ping(c.Context()); err != nil {
		s.logger.Warn("storage ping failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(map[string]any{
			"status": "error",
			"db":     "disconnected",
			"error":  err.Error(),
		})
	}

	return c.JSON(map[string]any{
		"status":    "ok",
		"db":        "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
