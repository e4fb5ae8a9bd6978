package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"spam-trainer/internal/config"
)

// TestNewJSONRespectsLevel checks level filtering and json output.
func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, config.LogConfig{Level: "warn", Format: "json"}, false)

	logger.Info().Msg("hidden")
	logger.Warn().Str("file", "report.csv").Msg("shown")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["message"] != "shown" || entry["file"] != "report.csv" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

// TestNewUnknownLevelFallsBackToInfo checks invalid config handling.
func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, config.LogConfig{Level: "loud", Format: "json"}, false)

	logger.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line written at info level: %q", buf.String())
	}
	logger.Info().Msg("shown")
	if buf.Len() == 0 {
		t.Fatal("expected info line")
	}
}

// TestComponentTagsLogger checks the component field.
func TestComponentTagsLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(newWithWriter(&buf, config.LogConfig{Level: "info", Format: "json"}, false), "jobs")
	logger.Info().Msg("x")

	if !bytes.Contains(buf.Bytes(), []byte(`"component":"jobs"`)) {
		t.Fatalf("missing component field: %s", buf.String())
	}
}
