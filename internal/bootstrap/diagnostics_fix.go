package bootstrap

import (
	"fmt"
	"os"
	"strings"

	"spam-trainer/internal/config"
	"spam-trainer/internal/diagnostics"
	"spam-trainer/internal/domain"
)

// FixDiagnostic applies the remediation for one failed diagnostic item and
// returns the refreshed report.
func (a *App) FixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	if a.Store == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("settings store is not configured")
	}

	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	var (
		changed bool
		fixErr  error
	)
	switch id {
	case diagnostics.CheckServiceURL:
		settings, changed = restoreServiceURL(settings)
	case diagnostics.CheckModelType:
		settings, changed = restoreModelType(settings)
	case diagnostics.CheckRequestTimeout:
		settings, changed = restoreRequestTimeout(settings)
	case diagnostics.CheckDatasetDir:
		settings, changed, fixErr = fixDatasetDir(settings)
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	if changed {
		if saveErr := a.Store.Save(settings); saveErr != nil {
			report := a.refreshDiagnosticsFromSettings(settings)
			return report, fmt.Errorf("save settings after fix: %w", saveErr)
		}
	}

	report := a.refreshDiagnosticsFromSettings(settings)
	if fixErr != nil {
		return report, fixErr
	}
	return report, nil
}

func restoreServiceURL(settings domain.Settings) (domain.Settings, bool) {
	changed := settings.ServiceURL != config.DefaultServiceURL
	settings.ServiceURL = config.DefaultServiceURL
	return settings, changed
}

func restoreModelType(settings domain.Settings) (domain.Settings, bool) {
	changed := settings.ModelType != domain.DefaultModelType
	settings.ModelType = domain.DefaultModelType
	return settings, changed
}

func restoreRequestTimeout(settings domain.Settings) (domain.Settings, bool) {
	changed := settings.RequestTimeoutSeconds != config.DefaultRequestTimeoutSeconds
	settings.RequestTimeoutSeconds = config.DefaultRequestTimeoutSeconds
	return settings, changed
}

// fixDatasetDir creates the configured folder, or the default one when unset.
func fixDatasetDir(settings domain.Settings) (domain.Settings, bool, error) {
	dir := strings.TrimSpace(settings.DatasetDir)
	changed := false
	if dir == "" {
		dir = config.DefaultSettings().DatasetDir
		settings.DatasetDir = dir
		changed = true
	}

	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		return settings, changed, fmt.Errorf("dataset path is a file: %s", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return settings, changed, fmt.Errorf("create dataset directory %s: %w", dir, err)
	}
	return settings, changed, nil
}
