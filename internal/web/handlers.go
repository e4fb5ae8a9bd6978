package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"spam-trainer/internal/domain"
	"spam-trainer/internal/upload"
)

type predictRequest struct {
	EmailText string `json:"email_text"`
}

// command adapts a snapshot-returning workflow command to a handler.
func (s *Server) command(fn func() (domain.Snapshot, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := fn()
		return s.snapshotResponse(c, snap, err)
	}
}

func (s *Server) snapshotResponse(c *fiber.Ctx, snap domain.Snapshot, err error) error {
	if err != nil {
		code := statusFor(err)
		return c.Status(code).JSON(fiber.Map{
			"error":    err.Error(),
			"code":     code,
			"snapshot": snap,
		})
	}
	return c.JSON(snap)
}

func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.backend.CurrentState())
}

func (s *Server) handleStages(c *fiber.Ctx) error {
	return c.JSON(s.backend.GetStages())
}

func (s *Server) handleSelectDataset(c *fiber.Ctx) error {
	header, err := c.FormFile("dataset")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "dataset file is required")
	}

	file, err := upload.FromMultipart(header, upload.MaxFileSize)
	if err != nil {
		return err
	}

	snap, err := s.backend.SelectCandidate(file)
	return s.snapshotResponse(c, snap, err)
}

func (s *Server) handleEvents(c *fiber.Ctx) error {
	since := c.QueryInt("since", 0)
	events := s.backend.JobEvents(int64(since))
	return c.JSON(fiber.Map{"events": events})
}

func (s *Server) handleResults(c *fiber.Ctx) error {
	view, err := s.backend.LoadResults()
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (s *Server) handleClearResults(c *fiber.Ctx) error {
	if err := s.backend.ClearResults(); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handlePredict(c *fiber.Ctx) error {
	var req predictRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := s.backend.Predict(req.EmailText)
	if err != nil {
		code := statusFor(err)
		return c.Status(code).JSON(fiber.Map{"error": err.Error(), "code": code})
	}
	return c.JSON(fiber.Map{
		"prediction":       result.Prediction,
		"ham_probability":  result.HamProbability,
		"spam_probability": result.SpamProbability,
		"processed_text":   result.ProcessedText,
		"confidence":       result.Confidence(),
		"high_confidence":  result.HighConfidence(),
	})
}

func (s *Server) handleDiagnostics(c *fiber.Ctx) error {
	return c.JSON(s.backend.GetDiagnostics())
}

func (s *Server) handleRefreshDiagnostics(c *fiber.Ctx) error {
	report, err := s.backend.RefreshDiagnostics()
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func (s *Server) handleFixDiagnostic(c *fiber.Ctx) error {
	report, err := s.backend.FixDiagnostic(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  err.Error(),
			"code":   fiber.StatusUnprocessableEntity,
			"report": report,
		})
	}
	return c.JSON(report)
}

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	settings, err := s.backend.GetSettings()
	if err != nil {
		return err
	}
	return c.JSON(settings)
}

func (s *Server) handleSaveSettings(c *fiber.Ctx) error {
	var settings domain.Settings
	if err := c.BodyParser(&settings); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid settings body")
	}

	saved, err := s.backend.SaveSettings(settings)
	if err != nil {
		return err
	}
	return c.JSON(saved)
}
