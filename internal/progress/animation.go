package progress

import (
	"math"
	"time"
)

// EaseOutCubic maps linear progress p in [0,1] to 1-(1-p)^3.
func EaseOutCubic(p float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	return 1 - math.Pow(1-p, 3)
}

// Animation interpolates the displayed progress toward a target.
type Animation struct {
	From   float64
	To     float64
	Start  time.Time
	Window time.Duration
}

// ValueAt returns the displayed value at t.
func (a Animation) ValueAt(t time.Time) float64 {
	if !t.After(a.Start) {
		return a.From
	}
	if a.Window <= 0 {
		return a.To
	}
	p := float64(t.Sub(a.Start)) / float64(a.Window)
	if p >= 1 {
		return a.To
	}
	return a.From + (a.To-a.From)*EaseOutCubic(p)
}

// Retarget restarts the animation at now from the current displayed value.
// Targets below the displayed value are raised to it so the display never regresses.
func (a *Animation) Retarget(now time.Time, target float64) {
	current := a.ValueAt(now)
	if target < current {
		target = current
	}
	a.From = current
	a.To = target
	a.Start = now
}

// Freeze pins the display at its value at now.
func (a *Animation) Freeze(now time.Time) {
	current := a.ValueAt(now)
	a.From, a.To, a.Start = current, current, now
}
