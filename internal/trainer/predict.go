package trainer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"spam-trainer/internal/domain"
)

type predictRequest struct {
	EmailText string `json:"email_text"`
}

// Predict classifies one email. The caller rejects empty text and guards
// against concurrent calls. Failures are returned as *RequestError.
func (c *Client) Predict(ctx context.Context, text string) (domain.PredictionResult, error) {
	payload, err := json.Marshal(predictRequest{EmailText: text})
	if err != nil {
		return domain.PredictionResult{}, &RequestError{Message: "failed to encode prediction request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+predictPath, bytes.NewReader(payload))
	if err != nil {
		return domain.PredictionResult{}, &RequestError{Message: "failed to build prediction request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	status, body, err := c.roundTrip(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("prediction request failed")
		return domain.PredictionResult{}, &RequestError{Message: "failed to reach prediction service", StatusCode: status, Err: err}
	}

	if !isSuccess(status) {
		msg, _ := serverError(body)
		if msg == "" {
			msg = httpStatusMessage(status)
		}
		return domain.PredictionResult{}, &RequestError{Message: msg, StatusCode: status}
	}
	if msg, ok := serverError(body); ok {
		if msg == "" {
			msg = "prediction failed"
		}
		return domain.PredictionResult{}, &RequestError{Message: msg, StatusCode: status}
	}

	var result domain.PredictionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return domain.PredictionResult{}, &RequestError{
			Message:    "invalid response from prediction service",
			StatusCode: status,
			Err:        fmt.Errorf("decode prediction: %w", err),
		}
	}

	c.logger.Debug().Str("prediction", result.Prediction).Float64("spam_probability", result.SpamProbability).Msg("prediction received")
	return result, nil
}
