package web

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"spam-trainer/internal/bootstrap"
	"spam-trainer/internal/config"
	"spam-trainer/internal/domain"
	"spam-trainer/internal/jobs"
	"spam-trainer/internal/trainer"
	"spam-trainer/internal/upload"
)

// Backend is the command surface shared with the desktop binding.
type Backend interface {
	CurrentState() domain.Snapshot
	GetStages() domain.StagePlan
	SelectCandidate(file domain.CandidateFile) (domain.Snapshot, error)
	RemoveFile() (domain.Snapshot, error)
	Submit() (domain.Snapshot, error)
	Retry() (domain.Snapshot, error)
	Reset() (domain.Snapshot, error)
	JobEvents(sinceSeq int64) []jobs.Event
	LoadResults() (bootstrap.ResultsView, error)
	ClearResults() error
	Predict(text string) (domain.PredictionResult, error)
	GetDiagnostics() domain.DiagnosticReport
	RefreshDiagnostics() (domain.DiagnosticReport, error)
	FixDiagnostic(itemID string) (domain.DiagnosticReport, error)
	GetSettings() (domain.Settings, error)
	SaveSettings(settings domain.Settings) (domain.Settings, error)
}

var _ Backend = (*bootstrap.App)(nil)

// Server exposes Backend over HTTP under /api/v1.
type Server struct {
	app     *fiber.App
	backend Backend
	port    string
	logger  zerolog.Logger
}

// NewServer builds the fiber app with middleware and routes.
func NewServer(backend Backend, cfg config.WebConfig, log zerolog.Logger) *Server {
	bodyLimit := cfg.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = 20 * 1024 * 1024
	}

	app := fiber.New(fiber.Config{
		AppName:               "Spam Detection Trainer",
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		BodyLimit:             bodyLimit,
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		Output:     log,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	s := &Server{app: app, backend: backend, port: cfg.Port, logger: log}
	s.routes(cfg.FrontendDir)
	return s
}

func (s *Server) routes(frontendDir string) {
	api := s.app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Get("/state", s.handleState)
	api.Get("/stages", s.handleStages)
	api.Post("/dataset", s.handleSelectDataset)
	api.Delete("/dataset", s.command(s.backend.RemoveFile))
	api.Post("/submit", s.command(s.backend.Submit))
	api.Post("/retry", s.command(s.backend.Retry))
	api.Post("/reset", s.command(s.backend.Reset))
	api.Get("/events", s.handleEvents)
	api.Get("/results", s.handleResults)
	api.Delete("/results", s.handleClearResults)
	api.Post("/predict", s.handlePredict)
	api.Get("/diagnostics", s.handleDiagnostics)
	api.Post("/diagnostics/refresh", s.handleRefreshDiagnostics)
	api.Post("/diagnostics/:id/fix", s.handleFixDiagnostic)
	api.Get("/settings", s.handleGetSettings)
	api.Put("/settings", s.handleSaveSettings)

	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	if frontendDir != "" {
		s.app.Static("/", frontendDir)
	}
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on the configured port until Shutdown.
func (s *Server) Listen() error {
	addr := fmt.Sprintf(":%s", s.port)
	s.logger.Info().Str("addr", addr).Msg("http bridge listening")
	return s.app.Listen(addr)
}

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}

// statusFor maps workflow errors to HTTP status codes.
func statusFor(err error) int {
	var (
		subErr *trainer.SubmissionError
		reqErr *trainer.RequestError
	)
	switch {
	case errors.Is(err, upload.ErrInvalidFileType),
		errors.Is(err, upload.ErrFileTooLarge),
		errors.Is(err, upload.ErrEmptySelection),
		errors.Is(err, jobs.ErrNoFileSelected),
		errors.Is(err, jobs.ErrEmptyPredictionInput):
		return fiber.StatusBadRequest
	case errors.Is(err, jobs.ErrSubmissionInFlight),
		errors.Is(err, jobs.ErrPredictionInFlight),
		errors.Is(err, jobs.ErrInvalidTransition):
		return fiber.StatusConflict
	case errors.As(err, &subErr), errors.As(err, &reqErr):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
