package config

import (
	"os"
	"path/filepath"

	"spam-trainer/internal/domain"
)

// DefaultServiceURL points at the training service started locally.
const DefaultServiceURL = "http://localhost:5000"

// DefaultRequestTimeoutSeconds bounds one training round trip.
const DefaultRequestTimeoutSeconds = 300

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return domain.Settings{
		ServiceURL:            DefaultServiceURL,
		ModelType:             domain.DefaultModelType,
		RequestTimeoutSeconds: DefaultRequestTimeoutSeconds,
		DatasetDir:            filepath.Join(homeDir, "Documents"),
	}
}
