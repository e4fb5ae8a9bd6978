package progress

import (
	"math"
	"testing"
	"time"

	"spam-trainer/internal/domain"
)

var epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func testStages() []domain.StageDescriptor {
	return []domain.StageDescriptor{
		{ID: "a", Duration: 1 * time.Second},
		{ID: "b", Duration: 2 * time.Second},
		{ID: "c", Duration: 1 * time.Second},
	}
}

type recorder struct {
	updates []Update
}

func (r *recorder) emit(u Update) { r.updates = append(r.updates, u) }

// TestTargetFor checks the capped linear target.
func TestTargetFor(t *testing.T) {
	cases := []struct {
		elapsed, total time.Duration
		want           float64
	}{
		{1 * time.Second, 4 * time.Second, 25},
		{3 * time.Second, 4 * time.Second, 75},
		{4 * time.Second, 4 * time.Second, MaxSimulated},
		{time.Second, 0, MaxSimulated},
	}
	for _, tc := range cases {
		if got := TargetFor(tc.elapsed, tc.total); got != tc.want {
			t.Fatalf("TargetFor(%s, %s) = %v, want %v", tc.elapsed, tc.total, got, tc.want)
		}
	}
}

// TestStagesEnterAtCumulativeOffsets checks time-offset scheduling and targets.
func TestStagesEnterAtCumulativeOffsets(t *testing.T) {
	clock := NewManualScheduler(epoch)
	rec := &recorder{}
	sim := NewSimulator(WithScheduler(clock))
	run := sim.Start(testStages(), rec.emit)

	clock.Advance(0)
	if len(rec.updates) != 1 || rec.updates[0].Stage.ID != "a" || rec.updates[0].Target != 25 {
		t.Fatalf("after 0s: %+v", rec.updates)
	}

	clock.Advance(999 * time.Millisecond)
	if len(rec.updates) != 1 {
		t.Fatalf("stage b entered early: %+v", rec.updates)
	}

	clock.Advance(time.Millisecond)
	if len(rec.updates) != 2 || rec.updates[1].Stage.ID != "b" || rec.updates[1].Target != 75 {
		t.Fatalf("after 1s: %+v", rec.updates)
	}
	if got := rec.updates[1].Completed; len(got) != 1 || got[0] != "a" {
		t.Fatalf("completed = %v, want [a]", got)
	}

	clock.Advance(2 * time.Second)
	last := rec.updates[len(rec.updates)-1]
	if last.Stage.ID != "c" || last.Target != MaxSimulated {
		t.Fatalf("last update = %+v, want stage c capped at 90", last)
	}
	if run.ActiveStage() != "c" {
		t.Fatalf("active = %q, want c", run.ActiveStage())
	}
	if got := run.CompletedStages(); len(got) != 2 {
		t.Fatalf("completed = %v, want [a b]", got)
	}
}

// TestDisplayedIsMonotonicAndBelowComplete samples the eased display over a full run.
func TestDisplayedIsMonotonicAndBelowComplete(t *testing.T) {
	clock := NewManualScheduler(epoch)
	run := NewSimulator(WithScheduler(clock)).Start(domain.NaiveBayesPlan().Stages, nil)

	prev := -1.0
	for i := 0; i < 300; i++ {
		clock.Advance(50 * time.Millisecond)
		v := run.Displayed(clock.Now())
		if v < prev {
			t.Fatalf("display regressed at step %d: %v < %v", i, v, prev)
		}
		if v > MaxSimulated || v >= Complete {
			t.Fatalf("display reached %v before completion", v)
		}
		prev = v
	}
	if math.Abs(prev-MaxSimulated) > 1e-9 {
		t.Fatalf("display settled at %v, want %v", prev, MaxSimulated)
	}
}

// TestCancelStopsFurtherUpdates checks timer invalidation.
func TestCancelStopsFurtherUpdates(t *testing.T) {
	clock := NewManualScheduler(epoch)
	rec := &recorder{}
	run := NewSimulator(WithScheduler(clock)).Start(testStages(), rec.emit)

	clock.Advance(1500 * time.Millisecond)
	run.Cancel()
	if clock.Pending() != 0 {
		t.Fatalf("pending timers = %d, want 0", clock.Pending())
	}

	frozen := run.Displayed(clock.Now())
	clock.Advance(10 * time.Second)
	if len(rec.updates) != 2 {
		t.Fatalf("updates after cancel: %+v", rec.updates)
	}
	if got := run.Displayed(clock.Now()); got != frozen {
		t.Fatalf("display moved after cancel: %v != %v", got, frozen)
	}
	run.Cancel()
}

// TestCompleteForcesHundred checks completion semantics.
func TestCompleteForcesHundred(t *testing.T) {
	clock := NewManualScheduler(epoch)
	rec := &recorder{}
	run := NewSimulator(WithScheduler(clock)).Start(testStages(), rec.emit)

	clock.Advance(500 * time.Millisecond)
	before := run.Displayed(clock.Now())
	u := run.Complete()
	if !u.Done || u.Target != Complete || len(u.Completed) != 3 {
		t.Fatalf("complete update = %+v", u)
	}
	if run.Target() != Complete {
		t.Fatalf("target = %v, want 100", run.Target())
	}

	clock.Advance(DefaultAnimationWindow / 2)
	mid := run.Displayed(clock.Now())
	if mid < before || mid >= Complete {
		t.Fatalf("mid animation value = %v (before %v)", mid, before)
	}
	clock.Advance(DefaultAnimationWindow)
	if got := run.Displayed(clock.Now()); got != Complete {
		t.Fatalf("display = %v, want 100", got)
	}
	if len(rec.updates) != 1 {
		t.Fatalf("stage updates after completion: %+v", rec.updates)
	}
	if run.ActiveStage() != "" {
		t.Fatalf("active = %q, want none after completion", run.ActiveStage())
	}
}

// TestLateTimerCatchesUpInOrder checks ordering when a later timer fires first.
func TestLateTimerCatchesUpInOrder(t *testing.T) {
	clock := NewManualScheduler(epoch)
	rec := &recorder{}
	run := NewSimulator(WithScheduler(clock)).Start(testStages(), rec.emit)

	run.enterThrough(2)
	clock.Advance(5 * time.Second)

	if len(rec.updates) != 3 {
		t.Fatalf("updates = %d, want 3", len(rec.updates))
	}
	for i, u := range rec.updates {
		if u.Index != i {
			t.Fatalf("update %d has index %d", i, u.Index)
		}
		if i > 0 && u.Target < rec.updates[i-1].Target {
			t.Fatalf("target regressed: %+v", rec.updates)
		}
	}
}

// TestEaseOutCubic checks curve endpoints and shape.
func TestEaseOutCubic(t *testing.T) {
	if EaseOutCubic(-1) != 0 || EaseOutCubic(0) != 0 || EaseOutCubic(1) != 1 || EaseOutCubic(2) != 1 {
		t.Fatal("unexpected endpoints")
	}
	if got := EaseOutCubic(0.5); math.Abs(got-0.875) > 1e-9 {
		t.Fatalf("EaseOutCubic(0.5) = %v, want 0.875", got)
	}
}

// TestAnimationRetargetNeverRegresses checks lower targets are ignored.
func TestAnimationRetargetNeverRegresses(t *testing.T) {
	a := Animation{Start: epoch, Window: time.Second}
	a.Retarget(epoch, 50)
	a.Retarget(epoch.Add(2*time.Second), 10)
	if a.To != 50 || a.ValueAt(epoch.Add(3*time.Second)) != 50 {
		t.Fatalf("animation regressed: %+v", a)
	}
}
