package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"spam-trainer/internal/config"
	"spam-trainer/internal/diagnostics"
	"spam-trainer/internal/domain"
	"spam-trainer/internal/jobs"
	"spam-trainer/internal/logging"
	"spam-trainer/internal/results"
	"spam-trainer/internal/trainer"
	"spam-trainer/internal/upload"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// Runtime event names pushed to the webview.
const (
	EventJob      = "job:event"
	EventNavigate = "navigate"
)

var datasetDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "CSV datasets",
		Pattern:     "*.csv;*.CSV",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// ResultsView is what the results page needs on load.
type ResultsView struct {
	Found    bool                   `json:"found"`
	Redirect string                 `json:"redirect,omitempty"`
	Result   domain.JobResult       `json:"result"`
	Report   *domain.TrainingReport `json:"report,omitempty"`
}

// App wires configuration, the workflow, predictions and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Workflow    *jobs.Controller
	Predictions *jobs.Predictions
	Diagnostics domain.DiagnosticReport
	assets      fs.FS
	frontendDir string
	checker     *diagnostics.Checker
	service     *serviceClient
	logger      zerolog.Logger

	mu          sync.Mutex
	events      *jobs.EventBus
	runtimeCtx  context.Context
	unsubscribe func()
	closers     []func() error
}

// services is the remote training and prediction API.
type services interface {
	jobs.Submitter
	jobs.Predictor
}

// New builds the application from process environment, persisted settings and
// startup diagnostics.
func New(env config.Env, logger zerolog.Logger) (*App, error) {
	return NewWithAssets(env, logger, nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(env config.Env, logger zerolog.Logger, assets fs.FS) (*App, error) {
	store := config.NewFileStore(env.SettingsPath)
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	// One browsing session per process; it scopes the persisted result slot.
	browsingSession := uuid.NewString()
	resultStore, closeStore, err := results.Open(context.Background(), env.Results, browsingSession, logging.Component(logger, "results"))
	if err != nil {
		return nil, err
	}

	var storePing func(context.Context) error
	if pinger, ok := resultStore.(interface{ Ping(context.Context) error }); ok {
		storePing = pinger.Ping
	}

	service := &serviceClient{logger: logging.Component(logger, "trainer")}
	service.configure(settings)

	app := assemble(store, settings, service, resultStore, diagnostics.NewChecker(storePing), logger)
	app.service = service
	app.assets = assets
	app.frontendDir = env.Web.FrontendDir
	app.closers = append(app.closers, closeStore)
	app.Diagnostics = app.checker.Run(context.Background(), settings)

	logger.Info().
		Str("settings", store.Path()).
		Str("service", settings.ServiceURL).
		Str("results", resultStore.Backend()).
		Bool("diagnostics_failed", app.Diagnostics.HasFailures).
		Msg("application initialised")
	return app, nil
}

// assemble wires the workflow around already constructed collaborators.
func assemble(
	store config.Store,
	settings domain.Settings,
	svc services,
	resultStore results.Store,
	checker *diagnostics.Checker,
	logger zerolog.Logger,
	opts ...jobs.ControllerOption,
) *App {
	a := &App{
		Settings: settings,
		Store:    store,
		checker:  checker,
		logger:   logger,
		events:   jobs.NewEventBus(1000),
	}

	base := []jobs.ControllerOption{
		jobs.WithControllerLogger(logging.Component(logger, "workflow")),
		jobs.WithStages(a.currentStages),
		jobs.WithNavigator(a.navigate),
	}
	a.Workflow = jobs.NewController(upload.NewSelector(upload.MaxFileSize), svc, resultStore, a.events, append(base, opts...)...)
	a.Predictions = jobs.NewPredictions(svc, logging.Component(logger, "predictions"))
	a.unsubscribe = a.events.Subscribe(func(event jobs.Event) {
		a.emit(EventJob, event)
	})
	return a
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		dir := a.frontendDir
		if dir == "" {
			dir = "./frontend"
		}
		assetOptions.Handler = http.FileServer(http.Dir(dir))
	}

	return wails.Run(&options.App{
		Title:       "Spam Detection Trainer",
		Width:       1180,
		Height:      820,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown:  a.Shutdown,
		Bind:        []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// Shutdown abandons in-flight work and releases backends.
func (a *App) Shutdown(context.Context) {
	a.mu.Lock()
	a.runtimeCtx = nil
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	a.Workflow.Close()
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			a.logger.Warn().Err(err).Msg("close backend")
		}
	}
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.refreshDiagnosticsFromSettings(normalized)
	return normalized, nil
}

// RefreshDiagnostics reloads settings and reruns all checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	return a.refreshDiagnosticsFromSettings(settings), nil
}

// PickDataset opens a native file dialog and selects the chosen CSV.
// Cancelling the dialog leaves the workflow unchanged.
func (a *App) PickDataset() (domain.Snapshot, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return domain.Snapshot{}, err
	}

	a.mu.Lock()
	dir := a.Settings.DatasetDir
	a.mu.Unlock()

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:            "Select email dataset",
		DefaultDirectory: dir,
		Filters:          datasetDialogFilter,
	})
	if err != nil {
		return domain.Snapshot{}, err
	}
	if strings.TrimSpace(path) == "" {
		return a.Workflow.Snapshot(), nil
	}
	return a.SelectFile(path)
}

// SelectFile selects a dataset on disk.
func (a *App) SelectFile(path string) (domain.Snapshot, error) {
	file, err := upload.FromPath(path)
	if err != nil {
		return a.Workflow.Snapshot(), err
	}
	return a.SelectCandidate(file)
}

// SelectUpload selects a dataset dropped onto the webview.
func (a *App) SelectUpload(name string, data []byte) (domain.Snapshot, error) {
	return a.SelectCandidate(upload.FromBytes(name, data))
}

// SelectCandidate selects an already described dataset.
func (a *App) SelectCandidate(file domain.CandidateFile) (domain.Snapshot, error) {
	_, err := a.Workflow.SelectFile(file)
	return a.Workflow.Snapshot(), err
}

// RemoveFile drops the selected dataset.
func (a *App) RemoveFile() (domain.Snapshot, error) {
	err := a.Workflow.RemoveFile()
	return a.Workflow.Snapshot(), err
}

// Submit starts training with the selected dataset.
func (a *App) Submit() (domain.Snapshot, error) {
	_, err := a.Workflow.Submit()
	return a.Workflow.Snapshot(), err
}

// Retry returns from a failed submission to the selection step.
func (a *App) Retry() (domain.Snapshot, error) {
	err := a.Workflow.Retry()
	return a.Workflow.Snapshot(), err
}

// Reset abandons everything and clears stored results.
func (a *App) Reset() (domain.Snapshot, error) {
	err := a.Workflow.Reset(a.requestContext())
	return a.Workflow.Snapshot(), err
}

// CurrentState returns the upload page render input.
func (a *App) CurrentState() domain.Snapshot {
	return a.Workflow.Snapshot()
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// Predict classifies a single email with the trained model.
func (a *App) Predict(text string) (domain.PredictionResult, error) {
	return a.Predictions.Predict(a.requestContext(), text)
}

// LoadResults returns the stored training result, or a redirect to the upload
// page when there is none.
func (a *App) LoadResults() (ResultsView, error) {
	result, ok, err := a.Workflow.Result(a.requestContext())
	if err != nil {
		return ResultsView{}, fmt.Errorf("load results: %w", err)
	}
	if !ok {
		return ResultsView{Found: false, Redirect: jobs.UploadRoute}, nil
	}

	view := ResultsView{Found: true, Result: result}
	if report, err := result.Report(); err == nil {
		view.Report = &report
	} else {
		a.logger.Warn().Err(err).Msg("training result does not match report layout")
	}
	return view, nil
}

// ClearResults empties the result slot.
func (a *App) ClearResults() error {
	return a.Workflow.ClearResult(a.requestContext())
}

// navigate forwards the controller's hand-off to the webview router.
func (a *App) navigate(route string) {
	a.logger.Debug().Str("route", route).Msg("navigation requested")
	a.emit(EventNavigate, route)
}

// emit pushes a runtime event when the webview is attached.
func (a *App) emit(name string, payload interface{}) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, name, payload)
	}
}

func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	if a.service != nil {
		a.service.configure(settings)
	}
	var report domain.DiagnosticReport
	if a.checker != nil {
		report = a.checker.Run(a.requestContext(), settings)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = report
	}
	return a.Diagnostics
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, errors.New("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

func (a *App) requestContext() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx != nil {
		return a.runtimeCtx
	}
	return context.Background()
}

// normalizeSettings trims user inputs and applies defaults to empty fields.
func normalizeSettings(settings domain.Settings) domain.Settings {
	return config.WithDefaults(settings)
}

// serviceClient forwards to a trainer client rebuilt whenever settings change.
type serviceClient struct {
	mu     sync.RWMutex
	client *trainer.Client
	logger zerolog.Logger
}

func (s *serviceClient) configure(settings domain.Settings) {
	client := trainer.NewClient(settings, trainer.WithLogger(s.logger))
	s.mu.Lock()
	s.client = client
	s.mu.Unlock()
}

func (s *serviceClient) current() *trainer.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

func (s *serviceClient) Submit(ctx context.Context, file domain.CandidateFile) (domain.JobResult, error) {
	return s.current().Submit(ctx, file)
}

func (s *serviceClient) Predict(ctx context.Context, text string) (domain.PredictionResult, error) {
	return s.current().Predict(ctx, text)
}
