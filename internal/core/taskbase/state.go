// SPDX-License-Identifier: MPL-2.0

package taskbase

const (
	// StateCreated indicates the task was created but Start() not called.
	StateCreated State = iota
	// StateStarting indicates Start() was called and the task is attaching resources.
	StateStarting
	// StateRunning indicates the task's workers are active.
	StateRunning
	// StateStopping indicates Stop() was called and workers are draining.
	StateStopping
	// StateStopped is terminal: the task has stopped.
	StateStopped
	// StateFailed is terminal: the task failed to start or hit a fatal error.
	StateFailed
)

// State represents the lifecycle state of a task.
type State int32

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
