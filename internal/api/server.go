package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"logpipe-go/internal/buffer"
	"logpipe-go/internal/config"
)

// Unit is the read-only view of a producer or consumer unit exposed by
// the ops API.
type Unit interface {
	ID() int
	Running() bool
}

// UnitView is the serialized state of one unit.
type UnitView struct {
	ID        int    `json:"id"`
	Role      string `json:"role"`
	Running   bool   `json:"running"`
	Processed uint64 `json:"processed"`
}

// RegisteredUnit couples a unit with its role and processed counter.
type RegisteredUnit struct {
	Role  string
	Unit  Unit
	Count func() uint64
}

// Server represents the ops HTTP server.
type Server struct {
	app    *fiber.App
	config *config.ServerConfig
	logger *slog.Logger

	buf     *buffer.Buffer[string]
	units   []RegisteredUnit
	runID   string
	started time.Time
}

// ServerDeps contains all dependencies required to create a new Server.
type ServerDeps struct {
	Config *config.ServerConfig
	Logger *slog.Logger
	Buffer *buffer.Buffer[string]
	Units  []RegisteredUnit
	RunID  string
}

// NewServer creates the ops server with all routes configured.
func NewServer(deps ServerDeps) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		StrictRouting:         true,
		CaseSensitive:         true,
		ReadTimeout:           deps.Config.ReadTimeout.Std(),
		WriteTimeout:          deps.Config.WriteTimeout.Std(),
		IdleTimeout:           deps.Config.IdleTimeout.Std(),
		ErrorHandler:          customErrorHandler,
	})

	s := &Server{
		app:     app,
		config:  deps.Config,
		logger:  deps.Logger,
		buf:     deps.Buffer,
		units:   deps.Units,
		runID:   deps.RunID,
		started: time.Now(),
	}

	s.registerMiddleware()
	s.registerRoutes()

	return s
}

// registerMiddleware sets up all middleware for the server.
func (s *Server) registerMiddleware() {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	s.app.Use(requestid.New())

	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} | ${path} | ${error}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
}

// registerRoutes sets up all routes.
func (s *Server) registerRoutes() {
	s.app.Get("/healthz", s.healthCheck)

	// Prometheus metrics endpoint
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := s.app.Group("/v1")
	v1.Get("/buffer", s.bufferState)
	v1.Get("/units", s.listUnits)
	v1.Get("/units/:id", s.getUnit)
}

// healthCheck returns the health status of the pipeline process.
func (s *Server) healthCheck(c *fiber.Ctx) error {
	return Success(c, map[string]interface{}{
		"status": "healthy",
		"run_id": s.runID,
		"uptime": time.Since(s.started).String(),
	})
}

// bufferState returns an advisory snapshot of the shared buffer.
func (s *Server) bufferState(c *fiber.Ctx) error {
	return Success(c, map[string]interface{}{
		"depth":    s.buf.Len(),
		"capacity": s.buf.Cap(),
		"full":     s.buf.Full(),
		"empty":    s.buf.Empty(),
		"closed":   s.buf.Closed(),
	})
}

// listUnits returns the state of every producer and consumer unit.
func (s *Server) listUnits(c *fiber.Ctx) error {
	views := make([]UnitView, 0, len(s.units))
	for _, ru := range s.units {
		views = append(views, UnitView{
			ID:        ru.Unit.ID(),
			Role:      ru.Role,
			Running:   ru.Unit.Running(),
			Processed: ru.Count(),
		})
	}
	return Success(c, views)
}

// getUnit returns the state of one unit by role-qualified id, e.g.
// "producer-1" or "consumer-2".
func (s *Server) getUnit(c *fiber.Ctx) error {
	id := c.Params("id")
	for _, ru := range s.units {
		if fmt.Sprintf("%s-%d", ru.Role, ru.Unit.ID()) == id {
			return Success(c, UnitView{
				ID:        ru.Unit.ID(),
				Role:      ru.Role,
				Running:   ru.Unit.Running(),
				Processed: ru.Count(),
			})
		}
	}
	return NotFound(c, fmt.Sprintf("unit %q not found", id))
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	addr := s.config.Address()
	s.logger.Info("starting ops HTTP server", "address", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down ops HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler handles errors returned from handlers.
func customErrorHandler(c *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return Error(c, e.Code, ErrCodeInternalError, e.Message)
	}

	return InternalError(c, fmt.Sprintf("unexpected error: %v", err))
}
