package jobs

import (
	"errors"
	"fmt"
	"sync"

	"spam-trainer/internal/domain"
)

// ErrInvalidTransition is returned for a state change the workflow does not allow.
var ErrInvalidTransition = errors.New("invalid workflow transition")

// Manager tracks the single active workflow state and its transitions.
type Manager struct {
	mu    sync.RWMutex
	state domain.WorkflowState
}

// NewManager creates a manager in idle state.
func NewManager() *Manager {
	return &Manager{state: domain.StateIdle}
}

// Transition validates and applies a state change. Staying in the same state is allowed.
func (m *Manager) Transition(to domain.WorkflowState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if to == m.state {
		return nil
	}
	if !isValidTransition(m.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
	}

	m.state = to
	return nil
}

// State returns the current state.
func (m *Manager) State() domain.WorkflowState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Reset returns the manager to idle from any state.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = domain.StateIdle
}

// IsSubmitting reports whether a training request is in flight.
func (m *Manager) IsSubmitting() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == domain.StateSubmitting
}

// isValidTransition enforces the allowed workflow edges.
func isValidTransition(from, to domain.WorkflowState) bool {
	switch from {
	case domain.StateIdle:
		return to == domain.StateFileSelected
	case domain.StateFileSelected:
		return to == domain.StateSubmitting || to == domain.StateIdle
	case domain.StateSubmitting:
		return to == domain.StateSucceeded || to == domain.StateFailed || to == domain.StateIdle
	case domain.StateSucceeded:
		return to == domain.StateFileSelected || to == domain.StateIdle
	case domain.StateFailed:
		return to == domain.StateSubmitting || to == domain.StateFileSelected || to == domain.StateIdle
	default:
		return false
	}
}
