package progress

import (
	"sync"
	"time"

	"spam-trainer/internal/domain"
)

const (
	// MaxSimulated caps the target while the real outcome is unknown.
	MaxSimulated = 90.0
	// Complete is the value shown once success is confirmed.
	Complete = 100.0
	// DefaultAnimationWindow is how long the display takes to reach a new target.
	DefaultAnimationWindow = time.Second
)

// Update is emitted each time a stage becomes active, and once on completion.
type Update struct {
	Index     int                    `json:"index"`
	Stage     domain.StageDescriptor `json:"stage"`
	Completed []string               `json:"completed"`
	Target    float64                `json:"target"`
	At        time.Time              `json:"at"`
	Done      bool                   `json:"done,omitempty"`
}

// TargetFor returns min(90, 100*elapsedEstimate/total).
func TargetFor(elapsedEstimate, total time.Duration) float64 {
	if total <= 0 {
		return MaxSimulated
	}
	v := 100 * float64(elapsedEstimate) / float64(total)
	if v > MaxSimulated {
		return MaxSimulated
	}
	return v
}

// Simulator fabricates perceived progress from estimated stage durations.
// It never reports job completion on its own.
type Simulator struct {
	scheduler Scheduler
	window    time.Duration
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithScheduler replaces the system timers, mainly for tests.
func WithScheduler(s Scheduler) Option {
	return func(sim *Simulator) { sim.scheduler = s }
}

// WithAnimationWindow changes the ease-out window.
func WithAnimationWindow(d time.Duration) Option {
	return func(sim *Simulator) { sim.window = d }
}

// NewSimulator builds a simulator using system timers by default.
func NewSimulator(opts ...Option) *Simulator {
	sim := &Simulator{
		scheduler: SystemScheduler(),
		window:    DefaultAnimationWindow,
	}
	for _, opt := range opts {
		opt(sim)
	}
	return sim
}

// Run is one cancellable timed stage sequence.
type Run struct {
	mu        sync.Mutex
	scheduler Scheduler
	stages    []domain.StageDescriptor
	ends      []time.Duration
	total     time.Duration
	next      int
	timers    []Timer
	stopped   bool
	done      bool
	anim      Animation
	emit      func(Update)
}

// Start schedules every stage at the cumulative offset of the stages before it.
// emit is called with the run's lock held and must not call back into the Run.
func (s *Simulator) Start(stages []domain.StageDescriptor, emit func(Update)) *Run {
	r := &Run{
		scheduler: s.scheduler,
		stages:    append([]domain.StageDescriptor(nil), stages...),
		ends:      make([]time.Duration, len(stages)),
		emit:      emit,
		anim:      Animation{Start: s.scheduler.Now(), Window: s.window},
	}

	var offset time.Duration
	starts := make([]time.Duration, len(stages))
	for i, stage := range r.stages {
		starts[i] = offset
		offset += stage.Duration
		r.ends[i] = offset
	}
	r.total = offset

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.stages {
		index := i
		r.timers = append(r.timers, s.scheduler.AfterFunc(starts[i], func() {
			r.enterThrough(index)
		}))
	}
	return r
}

// enterThrough activates every not-yet-entered stage up to index, in order.
// Timers firing late or out of order therefore never reorder stage events.
func (r *Run) enterThrough(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for !r.stopped && r.next <= index {
		r.enterLocked(r.next)
		r.next++
	}
}

func (r *Run) enterLocked(i int) {
	now := r.scheduler.Now()
	target := TargetFor(r.ends[i], r.total)
	r.anim.Retarget(now, target)

	if r.emit != nil {
		r.emit(Update{
			Index:     i,
			Stage:     r.stages[i],
			Completed: r.idsBefore(i),
			Target:    r.anim.To,
			At:        now,
		})
	}
}

// Cancel invalidates all pending stage timers. No Update is emitted after
// Cancel returns. The display freezes at its current value.
func (r *Run) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return
	}
	r.stopLocked()
	r.anim.Freeze(r.scheduler.Now())
}

// Complete cancels pending stages, marks every stage completed and drives the
// display to 100. It is the only way the value reaches 100.
func (r *Run) Complete() Update {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLocked()
	r.done = true
	r.next = len(r.stages)

	now := r.scheduler.Now()
	r.anim.Retarget(now, Complete)
	return Update{
		Index:     len(r.stages) - 1,
		Completed: r.idsBefore(len(r.stages)),
		Target:    Complete,
		At:        now,
		Done:      true,
	}
}

func (r *Run) stopLocked() {
	r.stopped = true
	for _, t := range r.timers {
		t.Stop()
	}
	r.timers = nil
}

// Target returns the latest progress target.
func (r *Run) Target() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.anim.To
}

// Displayed returns the eased value shown at t.
func (r *Run) Displayed(t time.Time) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.anim.ValueAt(t)
}

// ActiveStage returns the id of the stage currently shown as active.
func (r *Run) ActiveStage() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done || r.next == 0 {
		return ""
	}
	return r.stages[r.next-1].ID
}

// CompletedStages returns ids of stages shown as completed.
func (r *Run) CompletedStages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return r.idsBefore(len(r.stages))
	}
	if r.next == 0 {
		return nil
	}
	return r.idsBefore(r.next - 1)
}

// Stopped reports whether the run was cancelled or completed.
func (r *Run) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

func (r *Run) idsBefore(i int) []string {
	ids := make([]string, 0, i)
	for _, stage := range r.stages[:i] {
		ids = append(ids, stage.ID)
	}
	return ids
}
