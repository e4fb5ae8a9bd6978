package jobs

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"spam-trainer/internal/domain"
	"spam-trainer/internal/metrics"
)

var (
	// ErrEmptyPredictionInput is returned for blank text; no request is made.
	ErrEmptyPredictionInput = errors.New("please enter some email text to analyze")
	// ErrPredictionInFlight is returned while an earlier prediction is pending.
	ErrPredictionInFlight = errors.New("a prediction is already in progress")
)

// Predictor classifies one email.
type Predictor interface {
	Predict(ctx context.Context, text string) (domain.PredictionResult, error)
}

// Predictions guards single-email classification: blank input is rejected
// locally and at most one request is pending at a time.
type Predictions struct {
	predictor Predictor
	busy      atomic.Bool
	logger    zerolog.Logger
}

// NewPredictions wraps predictor with the caller-side guards.
func NewPredictions(predictor Predictor, logger zerolog.Logger) *Predictions {
	return &Predictions{predictor: predictor, logger: logger}
}

// NormalizeInput applies NFKC and trims surrounding whitespace. It decides
// whether input is blank; the text sent to the service is only trimmed.
func NormalizeInput(text string) string {
	return strings.TrimSpace(norm.NFKC.String(text))
}

// Predict validates text and forwards it trimmed. Results are returned unmodified.
func (p *Predictions) Predict(ctx context.Context, text string) (domain.PredictionResult, error) {
	trimmed := strings.TrimSpace(text)
	if NormalizeInput(trimmed) == "" {
		metrics.IncPrediction("rejected")
		return domain.PredictionResult{}, ErrEmptyPredictionInput
	}
	if !p.busy.CompareAndSwap(false, true) {
		return domain.PredictionResult{}, ErrPredictionInFlight
	}
	defer p.busy.Store(false)

	result, err := p.predictor.Predict(ctx, trimmed)
	if err != nil {
		metrics.IncPrediction("failed")
		p.logger.Warn().Err(err).Msg("prediction failed")
		return domain.PredictionResult{}, err
	}

	metrics.IncPrediction(result.Prediction)
	return result, nil
}

// Pending reports whether a prediction is in flight.
func (p *Predictions) Pending() bool {
	return p.busy.Load()
}
