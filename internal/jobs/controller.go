package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"spam-trainer/internal/domain"
	"spam-trainer/internal/metrics"
	"spam-trainer/internal/progress"
	"spam-trainer/internal/results"
	"spam-trainer/internal/trainer"
	"spam-trainer/internal/upload"
)

var (
	// ErrNoFileSelected is returned when submitting without a valid candidate.
	ErrNoFileSelected = errors.New("please select a file first")
	// ErrSubmissionInFlight is returned for commands that cannot run while submitting.
	ErrSubmissionInFlight = errors.New("a training job is already being processed")
)

const (
	// ResultsRoute is where the UI goes after a successful training job.
	ResultsRoute = "/results"
	// UploadRoute is the dataset selection entry point.
	UploadRoute = "/upload"
	// DefaultHandoffDelay leaves time for the completion state to render.
	DefaultHandoffDelay = 1500 * time.Millisecond
)

// Submitter performs one training round trip.
type Submitter interface {
	Submit(ctx context.Context, file domain.CandidateFile) (domain.JobResult, error)
}

// Navigator is told where the UI should go next.
type Navigator func(route string)

// Controller drives the select -> submit -> succeeded/failed workflow.
//
// Lock order is Controller.mu, then the simulator run, then the event bus.
// storeMu serialises result slot writes and is never taken while holding mu.
type Controller struct {
	mu      sync.Mutex
	storeMu sync.Mutex

	manager   *Manager
	selector  *upload.Selector
	simulator *progress.Simulator
	scheduler progress.Scheduler
	submitter Submitter
	store     results.Store
	events    *EventBus
	stages    func() []domain.StageDescriptor
	logger    zerolog.Logger
	delay     time.Duration
	navigate  Navigator
	newID     func() string

	baseCtx    context.Context
	baseCancel context.CancelFunc

	session string
	run     *progress.Run
	cancel  context.CancelFunc
	handoff progress.Timer
	lastErr string
	started time.Time
	pending sync.WaitGroup
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithScheduler sets the clock used for hand-off timers and display sampling.
func WithScheduler(s progress.Scheduler) ControllerOption {
	return func(c *Controller) { c.scheduler = s }
}

// WithSimulator replaces the progress simulator.
func WithSimulator(sim *progress.Simulator) ControllerOption {
	return func(c *Controller) { c.simulator = sim }
}

// WithStages sets the stage source read at the start of every submission.
func WithStages(fn func() []domain.StageDescriptor) ControllerOption {
	return func(c *Controller) { c.stages = fn }
}

// WithHandoffDelay changes the wait between success and navigation.
func WithHandoffDelay(d time.Duration) ControllerOption {
	return func(c *Controller) { c.delay = d }
}

// WithNavigator registers the navigation callback.
func WithNavigator(fn Navigator) ControllerOption {
	return func(c *Controller) { c.navigate = fn }
}

// WithControllerLogger attaches a logger.
func WithControllerLogger(l zerolog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = l }
}

// WithSessionIDs replaces the session id generator.
func WithSessionIDs(fn func() string) ControllerOption {
	return func(c *Controller) { c.newID = fn }
}

// NewController wires the workflow around its collaborators.
func NewController(selector *upload.Selector, submitter Submitter, store results.Store, events *EventBus, opts ...ControllerOption) *Controller {
	baseCtx, baseCancel := context.WithCancel(context.Background())
	c := &Controller{
		manager:    NewManager(),
		selector:   selector,
		scheduler:  progress.SystemScheduler(),
		submitter:  submitter,
		store:      store,
		events:     events,
		stages:     func() []domain.StageDescriptor { return domain.NaiveBayesPlan().Stages },
		logger:     zerolog.Nop(),
		delay:      DefaultHandoffDelay,
		newID:      uuid.NewString,
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.simulator == nil {
		c.simulator = progress.NewSimulator(progress.WithScheduler(c.scheduler))
	}

	selector.OnChange(func(hasCandidate bool) {
		file, _ := selector.Current()
		c.events.Publish(Event{Type: EventTypeFile, HasFile: hasCandidate, Message: file.Name})
	})
	return c
}

// SelectFile validates file and makes it the candidate. A rejected file leaves
// no candidate and the workflow idle.
func (c *Controller) SelectFile(file domain.CandidateFile) (domain.CandidateFile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.manager.IsSubmitting() {
		return domain.CandidateFile{}, ErrSubmissionInFlight
	}

	if file.IsZero() {
		return domain.CandidateFile{}, upload.ErrEmptySelection
	}

	c.stopHandoffLocked()
	c.run = nil
	c.session = ""

	selected, err := c.selector.Select(file)
	metrics.IncFileSelection(selectionOutcome(err))
	if err != nil {
		c.lastErr = err.Error()
		c.manager.Reset()
		c.publishStatusLocked(c.lastErr)
		c.logger.Info().Str("file", file.Name).Err(err).Msg("dataset rejected")
		return domain.CandidateFile{}, err
	}

	c.lastErr = ""
	if err := c.manager.Transition(domain.StateFileSelected); err != nil {
		return domain.CandidateFile{}, err
	}
	c.publishStatusLocked("File selected")
	c.logger.Info().Str("file", selected.Name).Int64("size", selected.Size).Msg("dataset selected")
	return selected, nil
}

// RemoveFile drops the candidate and returns to idle.
func (c *Controller) RemoveFile() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.manager.IsSubmitting() {
		return ErrSubmissionInFlight
	}

	c.stopHandoffLocked()
	c.selector.Clear()
	c.run = nil
	c.session = ""
	c.lastErr = ""
	c.manager.Reset()
	c.publishStatusLocked("File removed")
	return nil
}

// Submit starts a training session for the current candidate and returns its id.
// The outcome is delivered through events and Snapshot.
func (c *Controller) Submit() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.manager.IsSubmitting() {
		return "", ErrSubmissionInFlight
	}
	file, ok := c.selector.Current()
	if !ok {
		return "", ErrNoFileSelected
	}
	if err := c.manager.Transition(domain.StateSubmitting); err != nil {
		return "", err
	}

	c.stopHandoffLocked()
	session := c.newID()
	c.session = session
	c.lastErr = ""
	c.started = time.Now()

	ctx, cancel := context.WithCancel(c.baseCtx)
	c.cancel = cancel

	c.publishLocked(Event{Type: EventTypeProgress, Progress: floatPtr(0)})
	c.publishStatusLocked("Processing dataset")
	c.run = c.simulator.Start(c.stages(), c.stageEmitter(session))

	c.logger.Info().Str("session", session).Str("file", file.Name).Msg("training submitted")

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		result, err := c.submitter.Submit(ctx, file)
		c.resolve(session, result, err)
	}()
	return session, nil
}

// stageEmitter publishes simulator updates for one session. It runs under the
// simulator run's lock and only touches the event bus.
func (c *Controller) stageEmitter(session string) func(progress.Update) {
	return func(u progress.Update) {
		metrics.IncStageEntered(u.Stage.ID)
		c.events.Publish(Event{
			SessionID:  session,
			Type:       EventTypeStage,
			State:      domain.StateSubmitting,
			StageIndex: intPtr(u.Index),
			StageID:    u.Stage.ID,
			StageLabel: u.Stage.Label,
			Message:    u.Stage.Description,
			Completed:  u.Completed,
			Progress:   floatPtr(u.Target),
		})
	}
}

// resolve applies the outcome of one submission unless its session was superseded.
func (c *Controller) resolve(session string, result domain.JobResult, err error) {
	if err == nil {
		c.storeMu.Lock()
		defer c.storeMu.Unlock()

		if !c.isCurrent(session) {
			c.dropStale(session)
			return
		}
		if putErr := c.store.Put(c.baseCtx, result); putErr != nil {
			err = &trainer.SubmissionError{Message: "failed to store training result", Err: putErr}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != session || !c.manager.IsSubmitting() {
		c.dropStale(session)
		return
	}
	elapsed := time.Since(c.started)
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if err != nil {
		c.failLocked(session, err, elapsed)
		return
	}
	c.succeedLocked(session, elapsed)
}

func (c *Controller) succeedLocked(session string, elapsed time.Duration) {
	update := c.run.Complete()
	_ = c.manager.Transition(domain.StateSucceeded)
	metrics.ObserveSubmission("succeeded", elapsed)

	c.publishLocked(Event{Type: EventTypeProgress, Completed: update.Completed, Progress: floatPtr(update.Target)})
	c.publishLocked(Event{Type: EventTypeResult, Message: "Training completed"})
	c.publishStatusLocked("Training completed")

	c.handoff = c.scheduler.AfterFunc(c.delay, func() { c.handOff(session) })
	c.logger.Info().Str("session", session).Dur("elapsed", elapsed).Msg("training succeeded")
}

func (c *Controller) failLocked(session string, err error, elapsed time.Duration) {
	c.run.Cancel()
	c.lastErr = failureMessage(err)
	_ = c.manager.Transition(domain.StateFailed)
	metrics.ObserveSubmission("failed", elapsed)

	c.publishLocked(Event{Type: EventTypeError, Message: c.lastErr})
	c.publishStatusLocked(c.lastErr)
	c.logger.Warn().Str("session", session).Err(err).Dur("elapsed", elapsed).Msg("training failed")
}

// handOff fires once after success; Navigator runs without the lock held.
func (c *Controller) handOff(session string) {
	c.mu.Lock()
	if c.session != session || c.manager.State() != domain.StateSucceeded || c.handoff == nil {
		c.mu.Unlock()
		return
	}
	c.handoff = nil
	c.publishLocked(Event{Type: EventTypeNavigate, Route: ResultsRoute})
	navigate := c.navigate
	c.mu.Unlock()

	if navigate != nil {
		navigate(ResultsRoute)
	}
}

// Retry leaves the failed state, keeping the candidate when one is still held.
func (c *Controller) Retry() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if state := c.manager.State(); state != domain.StateFailed {
		return fmt.Errorf("%w: retry from %s", ErrInvalidTransition, state)
	}

	c.selector.ResetError()
	c.run = nil
	c.session = ""
	c.lastErr = ""

	if _, ok := c.selector.Current(); ok {
		_ = c.manager.Transition(domain.StateFileSelected)
	} else {
		c.manager.Reset()
	}
	c.publishStatusLocked("Ready to retry")
	return nil
}

// Reset abandons any session, clears the candidate and the result slot, and
// returns to idle. It is valid in every state.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.run != nil {
		c.run.Cancel()
		c.run = nil
	}
	if c.manager.IsSubmitting() {
		metrics.ObserveSubmission("superseded", time.Since(c.started))
	}
	c.stopHandoffLocked()
	c.session = ""
	c.lastErr = ""
	c.selector.Clear()
	c.manager.Reset()
	c.publishStatusLocked("Reset")
	c.mu.Unlock()

	c.storeMu.Lock()
	defer c.storeMu.Unlock()
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear results: %w", err)
	}
	return nil
}

// Result reads the stored training result for the rendering stage.
func (c *Controller) Result(ctx context.Context) (domain.JobResult, bool, error) {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()
	return c.store.Get(ctx)
}

// ClearResult empties the result slot without touching the workflow.
func (c *Controller) ClearResult(ctx context.Context) error {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()
	return c.store.Clear(ctx)
}

// Snapshot returns the render input for the upload page.
func (c *Controller) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.manager.State()
	snap := domain.Snapshot{
		State:     state,
		SessionID: c.session,
		Error:     c.lastErr,
	}
	if file, ok := c.selector.Current(); ok {
		snap.File = &file
		snap.FileSizeLabel = upload.FormatSize(file.Size)
		snap.CanSubmit = state == domain.StateFileSelected || state == domain.StateFailed
	}
	if c.run != nil {
		snap.Progress = c.run.Target()
		snap.DisplayProgress = c.run.Displayed(c.scheduler.Now())
		snap.ActiveStage = c.run.ActiveStage()
		snap.CompletedStages = c.run.CompletedStages()
	}
	return snap
}

// State returns the current workflow state.
func (c *Controller) State() domain.WorkflowState {
	return c.manager.State()
}

// Events returns workflow events with sequence greater than since.
func (c *Controller) Events(since int64) []Event {
	return c.events.Since(since)
}

// Wait blocks until every in-flight submission has resolved.
func (c *Controller) Wait() {
	c.pending.Wait()
}

// Close cancels in-flight work and pending timers, then waits for resolution.
func (c *Controller) Close() {
	c.mu.Lock()
	c.baseCancel()
	if c.run != nil {
		c.run.Cancel()
	}
	c.stopHandoffLocked()
	c.mu.Unlock()

	c.pending.Wait()
}

func (c *Controller) isCurrent(session string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session == session && c.manager.IsSubmitting()
}

func (c *Controller) dropStale(session string) {
	c.logger.Debug().Str("session", session).Msg("ignoring superseded training outcome")
}

func (c *Controller) stopHandoffLocked() {
	if c.handoff != nil {
		c.handoff.Stop()
		c.handoff = nil
	}
}

func (c *Controller) publishStatusLocked(message string) {
	c.publishLocked(Event{Type: EventTypeStatus, Message: message})
}

func (c *Controller) publishLocked(event Event) {
	if event.SessionID == "" {
		event.SessionID = c.session
	}
	if event.State == "" {
		event.State = c.manager.State()
	}
	c.events.Publish(event)
}

func failureMessage(err error) string {
	var subErr *trainer.SubmissionError
	if errors.As(err, &subErr) && subErr.Message != "" {
		return subErr.Message
	}
	if err == nil || err.Error() == "" {
		return trainer.FallbackSubmissionMessage
	}
	return err.Error()
}

func selectionOutcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, upload.ErrInvalidFileType):
		return "invalid_type"
	case errors.Is(err, upload.ErrFileTooLarge):
		return "too_large"
	default:
		return "empty"
	}
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }
