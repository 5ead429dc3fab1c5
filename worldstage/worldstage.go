package worldstage

import (
	"sync/atomic"
)

type Stage string

const (
	Init         Stage = "Init"         // The default stage of the world
	Loading      Stage = "Loading"      // World is moved to this stage while it reloads committed state from storage
	Ready        Stage = "Ready"        // World is moved to this stage when it accepts operations
	Running      Stage = "Running"      // World is moved to this stage when the tick task first fires
	ShuttingDown Stage = "ShuttingDown" // World is moved to this stage when it received a shutdown signal
	ShutDown     Stage = "ShutDown"     // World is moved to this stage when it has successfully shutdown
)

// Manager holds the current Stage. The zero value is not usable, use NewManager.
type Manager struct {
	current *atomic.Value
}

func NewManager() *Manager {
	m := &Manager{
		current: &atomic.Value{},
	}
	m.Store(Init)
	return m
}

func (m *Manager) CompareAndSwap(oldStage, newStage Stage) (swapped bool) {
	return m.current.CompareAndSwap(oldStage, newStage)
}

func (m *Manager) Current() Stage {
	return m.current.Load().(Stage)
}

func (m *Manager) Store(val Stage) {
	m.current.Store(val)
}

func (m *Manager) Swap(newStage Stage) (oldStage Stage) {
	return m.current.Swap(newStage).(Stage)
}

// IsAcceptingOperations reports whether external operations may run in the current stage.
func (m *Manager) IsAcceptingOperations() bool {
	switch m.Current() {
	case Ready, Running:
		return true
	default:
		return false
	}
}

// IsRunning reports whether the tick task has started and the world has not begun shutting down.
func (m *Manager) IsRunning() bool {
	return m.Current() == Running
}
