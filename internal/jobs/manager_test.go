package jobs

import (
	"errors"
	"testing"

	"spam-trainer/internal/domain"
)

// TestManagerLifecycle verifies normal progression to succeeded state.
func TestManagerLifecycle(t *testing.T) {
	m := NewManager()
	if m.IsSubmitting() {
		t.Fatal("new manager should be idle")
	}

	for _, state := range []domain.WorkflowState{
		domain.StateFileSelected,
		domain.StateSubmitting,
		domain.StateSucceeded,
		domain.StateFileSelected,
	} {
		if err := m.Transition(state); err != nil {
			t.Fatalf("transition to %s: %v", state, err)
		}
	}

	if m.State() != domain.StateFileSelected {
		t.Fatalf("state = %s, want file_selected", m.State())
	}
}

// TestManagerRejectsInvalidTransition checks state machine constraints.
func TestManagerRejectsInvalidTransition(t *testing.T) {
	m := NewManager()
	if err := m.Transition(domain.StateSubmitting); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("idle -> submitting error = %v, want %v", err, ErrInvalidTransition)
	}

	_ = m.Transition(domain.StateFileSelected)
	if err := m.Transition(domain.StateSucceeded); err == nil {
		t.Fatal("expected invalid transition error")
	}
}

// TestManagerFailedAllowsResubmit verifies failure recovery edges.
func TestManagerFailedAllowsResubmit(t *testing.T) {
	m := NewManager()
	for _, state := range []domain.WorkflowState{domain.StateFileSelected, domain.StateSubmitting, domain.StateFailed, domain.StateSubmitting} {
		if err := m.Transition(state); err != nil {
			t.Fatalf("transition to %s: %v", state, err)
		}
	}
	if !m.IsSubmitting() {
		t.Fatal("expected submitting")
	}

	m.Reset()
	if m.State() != domain.StateIdle {
		t.Fatalf("state = %s, want idle", m.State())
	}
}
