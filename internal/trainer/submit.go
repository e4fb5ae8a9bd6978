package trainer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"spam-trainer/internal/domain"
)

// Multipart field names of a training submission.
const (
	FieldDataset   = "dataset"
	FieldTimestamp = "timestamp"
	FieldModelType = "model_type"
)

// isoMillis matches the millisecond ISO-8601 form browsers emit.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Submit uploads file with submission metadata and waits for the training
// result. Every failure is returned as *SubmissionError; nothing is retried.
func (c *Client) Submit(ctx context.Context, file domain.CandidateFile) (domain.JobResult, error) {
	body, contentType, err := c.buildSubmission(file)
	if err != nil {
		return domain.JobResult{}, &SubmissionError{Message: err.Error(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+processPath, body)
	if err != nil {
		return domain.JobResult{}, &SubmissionError{Message: "failed to build training request", Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	status, payload, err := c.roundTrip(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("file", file.Name).Msg("training request failed")
		msg := "failed to reach training service"
		if errors.Is(err, context.Canceled) {
			msg = "training request cancelled"
		}
		return domain.JobResult{}, &SubmissionError{Message: msg, StatusCode: status, Err: err}
	}

	log := c.logger.With().Str("file", file.Name).Int("status", status).Dur("elapsed", time.Since(started)).Logger()

	if !isSuccess(status) {
		msg, _ := serverError(payload)
		if msg == "" {
			msg = FallbackSubmissionMessage
		}
		log.Warn().Str("error", msg).Msg("training service rejected dataset")
		return domain.JobResult{}, &SubmissionError{Message: msg, StatusCode: status}
	}

	if msg, ok := serverError(payload); ok {
		if msg == "" {
			msg = FallbackSubmissionMessage
		}
		log.Warn().Str("error", msg).Msg("training service reported error")
		return domain.JobResult{}, &SubmissionError{Message: msg, StatusCode: status}
	}

	if !isJSONObject(payload) {
		err := fmt.Errorf("malformed training response (%d bytes)", len(payload))
		log.Warn().Err(err).Msg("training response not decodable")
		return domain.JobResult{}, &SubmissionError{Message: "invalid response from training service", StatusCode: status, Err: err}
	}

	log.Info().Int("bytes", len(payload)).Msg("training result received")
	return domain.JobResult{Raw: json.RawMessage(bytes.TrimSpace(payload))}, nil
}

func (c *Client) buildSubmission(file domain.CandidateFile) (io.Reader, string, error) {
	src, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open dataset: %w", err)
	}
	defer src.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(FieldDataset, file.Name)
	if err != nil {
		return nil, "", fmt.Errorf("create dataset part: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, "", fmt.Errorf("read dataset: %w", err)
	}
	if err := w.WriteField(FieldTimestamp, c.now().UTC().Format(isoMillis)); err != nil {
		return nil, "", fmt.Errorf("write timestamp: %w", err)
	}
	if err := w.WriteField(FieldModelType, c.modelType); err != nil {
		return nil, "", fmt.Errorf("write model type: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finish multipart body: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}
