package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"spam-trainer/internal/domain"
	"spam-trainer/internal/trainer"
)

// Check IDs reported by Run.
const (
	CheckServiceURL       = "service_url"
	CheckServiceReachable = "service_reachable"
	CheckModelType        = "model_type"
	CheckRequestTimeout   = "request_timeout"
	CheckDatasetDir       = "dataset_dir"
	CheckResultStore      = "result_store"
)

const pingTimeout = 3 * time.Second

// Checker validates the training service, settings and the result store.
type Checker struct {
	ping       func(ctx context.Context, baseURL string) error
	stat       func(string) (os.FileInfo, error)
	knownModel func(string) bool
	storePing  func(ctx context.Context) error
}

// NewChecker builds a checker using real network and filesystem access.
// storePing may be nil when results are kept in memory.
func NewChecker(storePing func(ctx context.Context) error) *Checker {
	return &Checker{
		ping:       httpPing,
		stat:       os.Stat,
		knownModel: isKnownModel,
		storePing:  storePing,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(ctx context.Context, settings domain.Settings) domain.DiagnosticReport {
	urlItem := c.checkServiceURL(settings.ServiceURL)
	items := []domain.DiagnosticItem{
		urlItem,
		c.checkReachable(ctx, settings.ServiceURL, urlItem.Status == domain.DiagnosticStatusPass),
		c.checkModelType(settings.ModelType),
		c.checkRequestTimeout(settings.RequestTimeoutSeconds),
		c.checkDatasetDir(settings.DatasetDir),
		c.checkResultStore(ctx),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkServiceURL validates the configured service root.
func (c *Checker) checkServiceURL(raw string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: CheckServiceURL, Name: "Training service URL", Fixable: true}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Service URL is empty."
		item.Hint = "Set the address of the training service, e.g. http://localhost:5000."
		return item
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Service URL is not a valid http(s) address: %s", raw)
		item.Hint = "Use a full URL including scheme and host."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Using %s", raw)
	return item
}

// checkReachable probes the service root; skipped when the URL itself is invalid.
func (c *Checker) checkReachable(ctx context.Context, baseURL string, valid bool) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: CheckServiceReachable, Name: "Training service"}

	if !valid {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Skipped: service URL is invalid."
		return item
	}

	if err := c.ping(ctx, strings.TrimSpace(baseURL)); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot reach training service: %v", err)
		item.Hint = "Start the training service or correct the URL in settings."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = "Training service is reachable."
	return item
}

// checkModelType validates the model tag sent with submissions.
func (c *Checker) checkModelType(modelType string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: CheckModelType, Name: "Model type", Fixable: true}

	if strings.TrimSpace(modelType) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Model type is empty."
		item.Hint = fmt.Sprintf("Use %q.", domain.DefaultModelType)
		return item
	}
	if !c.knownModel(modelType) {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Unknown model type: %s", modelType)
		item.Hint = fmt.Sprintf("Use %q.", domain.DefaultModelType)
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Training %s", modelType)
	return item
}

func (c *Checker) checkRequestTimeout(seconds int) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: CheckRequestTimeout, Name: "Request timeout", Fixable: true}
	if seconds <= 0 {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Request timeout must be positive."
		item.Hint = "Training can take minutes; a few hundred seconds is typical."
		return item
	}
	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("%ds", seconds)
	return item
}

// checkDatasetDir validates the optional starting folder of the dataset picker.
func (c *Checker) checkDatasetDir(dir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: CheckDatasetDir, Name: "Dataset directory", Fixable: true}

	if strings.TrimSpace(dir) == "" {
		item.Status = domain.DiagnosticStatusPass
		item.Message = "Not set; the picker opens in the default location."
		return item
	}

	info, err := c.stat(dir)
	switch {
	case err != nil && IsNotExist(err):
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Dataset directory does not exist: %s", dir)
		item.Hint = "Choose an existing folder or clear the setting."
	case err != nil:
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot access dataset directory: %s", dir)
		item.Hint = "Check permissions for the folder."
	case !info.IsDir():
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Dataset path is not a directory: %s", dir)
		item.Hint = "Choose a folder, not a file."
	default:
		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("Directory found: %s", dir)
	}
	return item
}

func (c *Checker) checkResultStore(ctx context.Context) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: CheckResultStore, Name: "Result store"}

	if c.storePing == nil {
		item.Status = domain.DiagnosticStatusPass
		item.Message = "Results are kept in memory."
		return item
	}
	if err := c.storePing(ctx); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Result store unavailable: %v", err)
		item.Hint = "Check REDIS_ADDR or switch RESULTS_BACKEND to memory."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = "Result store is reachable."
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	ping func(ctx context.Context, baseURL string) error,
	stat func(string) (os.FileInfo, error),
	knownModel func(string) bool,
	storePing func(ctx context.Context) error,
) *Checker {
	return &Checker{
		ping:       ping,
		stat:       stat,
		knownModel: knownModel,
		storePing:  storePing,
	}
}

// IsNotExist reports whether error represents file-not-found.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func isKnownModel(modelType string) bool {
	_, ok := domain.PlanFor(modelType)
	return ok
}

// httpPing treats any HTTP response as reachable.
func httpPing(ctx context.Context, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return trainer.NewClient(domain.Settings{ServiceURL: baseURL}).Ping(ctx)
}
