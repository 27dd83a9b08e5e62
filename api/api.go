package api

import (
	"errors"
	"fmt"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	mcpapi "github.com/papercomputeco/rewind/api/mcp"
	"github.com/papercomputeco/rewind/pkg/agenttrace"
	"github.com/papercomputeco/rewind/pkg/attribution"
	"github.com/papercomputeco/rewind/pkg/eventstream"
	"github.com/papercomputeco/rewind/pkg/storage"
	"github.com/papercomputeco/rewind/pkg/worker"
)

// ErrorResponse is the JSON body every failing handler returns.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the API server for ingesting traces and answering blame queries.
type Server struct {
	config Config
	storer storage.Driver
	engine *attribution.Engine
	pool   *worker.Pool
	logger *zap.Logger
	app    *fiber.App
}

// NewServer creates a new API server.
// The storer is injected to allow sharing with other components; a nil
// publisher disables event emission.
func NewServer(config Config, storer storage.Driver, publisher eventstream.Publisher, logger *zap.Logger) (*Server, error) {
	if storer == nil {
		return nil, errors.New("storage driver is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		storer: storer,
		engine: attribution.NewEngine(attribution.DefaultConfig(), storer, logger),
		logger: logger,
		app:    app,
	}

	if publisher != nil {
		pool, err := worker.NewPool(&worker.Config{
			Publisher: publisher,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("starting publish pool: %w", err)
		}
		s.pool = pool
	}

	mcpServer, err := mcpapi.NewServer(mcpapi.Config{
		Engine: s.engine,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating mcp server: %w", err)
	}

	app.Get("/", s.handleRoot)
	app.Get("/ping", s.handlePing)
	app.Get("/health", s.handleHealth)

	// Token routes are registered before the group middleware so they
	// stay public; they are how clients obtain credentials.
	app.Post("/api/v1/tokens/generate", s.handleGenerateToken)
	app.Post("/api/v1/tokens/verify", s.handleVerifyToken)

	v1 := app.Group("/api/v1", s.requireAuth)
	v1.Post("/projects", s.handleCreateProject)
	v1.Get("/projects/:projectID", s.handleGetProject)
	v1.Post("/traces", s.handleIngestTrace)
	v1.Post("/traces/batch", s.handleIngestTraceBatch)
	v1.Get("/traces", s.handleQueryTraces)
	v1.Get("/traces/:traceID", s.handleGetTrace)
	v1.Post("/conversations/sync", s.handleSyncConversations)
	v1.Post("/commit-links", s.handleCreateCommitLink)
	v1.Get("/commit-links/:commitSHA", s.handleGetCommitLink)
	v1.Get("/commit-links/:commitSHA/ledger", s.handleGetCommitLedger)
	v1.Post("/blame", s.handleBlame)

	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server and drains the publish pool.
func (s *Server) Shutdown() error {
	err := s.app.Shutdown()
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}

// isNotFound reports whether err is a storage not-found error.
func isNotFound(err error) bool {
	var nf storage.NotFoundError
	return errors.As(err, &nf)
}

// publishTraceIngested enqueues a trace ingest event when publishing is
// enabled. Enqueue never blocks the request path.
func (s *Server) publishTraceIngested(projectID, userID string, trace *agenttrace.AgentTrace) {
	if s.pool == nil {
		return
	}
	s.pool.Enqueue(worker.Job{Trace: eventstream.NewTraceIngestedEvent(projectID, userID, trace)})
}

// publishCommitLinked enqueues a commit link event when publishing is enabled.
func (s *Server) publishCommitLinked(projectID, userID string, link *agenttrace.CommitLink) {
	if s.pool == nil {
		return
	}
	s.pool.Enqueue(worker.Job{Commit: eventstream.NewCommitLinkedEvent(projectID, userID, link)})
}
