// SPDX-License-Identifier: MPL-2.0

package taskbase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Base provides lifecycle infrastructure for a task. Concrete tasks embed it.
//
// The context passed to TransitionToStarting only gates the start itself;
// workers run on an internal context that lives until Stop, so a task started
// from a short-lived request outlives that request.
type Base struct {
	state atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	errCh  chan error
}

// NewBase creates a Base in the Created state.
func NewBase() *Base {
	b := &Base{errCh: make(chan error, 1)}
	b.state.Store(int32(StateCreated))
	return b
}

// State returns the current state (atomic, lock-free read).
func (b *Base) State() State {
	return State(b.state.Load())
}

// IsRunning returns true if the task is in the Running state.
func (b *Base) IsRunning() bool {
	return b.State() == StateRunning
}

// Err returns a channel for receiving async errors. The channel holds one
// error; later errors are dropped until it is drained.
func (b *Base) Err() <-chan error {
	return b.errCh
}

// Context returns the worker context, or nil before TransitionToStarting.
func (b *Base) Context() context.Context {
	return b.ctx
}

// TransitionToStarting moves Created -> Starting and creates the worker
// context. A ctx that is already cancelled fails the task immediately.
func (b *Base) TransitionToStarting(ctx context.Context) error {
	// Checked before the CAS so a worker can never observe Running on a
	// task whose start was already abandoned.
	select {
	case <-ctx.Done():
		err := fmt.Errorf("context cancelled before start: %w", ctx.Err())
		b.TransitionToFailed(err)
		return err
	default:
	}

	if !b.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("cannot start task in state %s", State(b.state.Load()))
	}

	b.ctx, b.cancel = context.WithCancel(context.Background())
	return nil
}

// TransitionToRunning marks a starting task as running.
func (b *Base) TransitionToRunning() {
	b.state.CompareAndSwap(int32(StateStarting), int32(StateRunning))
}

// TransitionToFailed cancels workers and publishes err on Err().
func (b *Base) TransitionToFailed(err error) {
	b.state.Store(int32(StateFailed))

	if b.cancel != nil {
		b.cancel()
	}

	b.SendError(err)
}

// TransitionToStopping moves Starting/Running -> Stopping and cancels the
// worker context. It returns false when there is nothing to stop; a task
// that never started goes straight to Stopped.
func (b *Base) TransitionToStopping() bool {
	for {
		current := State(b.state.Load())
		switch current {
		case StateCreated:
			if b.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				return false
			}
		case StateStarting, StateRunning:
			if !b.state.CompareAndSwap(int32(current), int32(StateStopping)) {
				continue
			}
			if b.cancel != nil {
				b.cancel()
			}
			return true
		default:
			return false
		}
	}
}

// TransitionToStopped marks the task as fully stopped.
// Must be called after all workers have exited.
func (b *Base) TransitionToStopped() {
	b.state.Store(int32(StateStopped))
}

// Shutdown is the blocking Stop sequence: Stopping, wait for workers,
// Stopped. It returns false when the task was not running.
func (b *Base) Shutdown() bool {
	if !b.TransitionToStopping() {
		return false
	}
	b.wg.Wait()
	b.TransitionToStopped()
	return true
}

// Cancel is the non-blocking Stop sequence. It cancels the workers and
// returns at once; the task reaches Stopped when the last worker returns.
// Work a worker already has in progress may still complete after Cancel.
func (b *Base) Cancel() bool {
	if !b.TransitionToStopping() {
		return false
	}
	go func() {
		b.wg.Wait()
		b.TransitionToStopped()
	}()
	return true
}

// Go runs fn on a tracked goroutine with the worker context.
// Must be called after TransitionToStarting.
func (b *Base) Go(fn func(ctx context.Context)) {
	ctx := b.ctx
	b.wg.Go(func() {
		fn(ctx)
	})
}

// SendError sends an error to the error channel (non-blocking).
// If the channel is full, the error is dropped.
func (b *Base) SendError(err error) {
	select {
	case b.errCh <- err:
	default:
	}
}
