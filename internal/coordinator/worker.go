package coordinator

import (
	"context"
	"fmt"
	"log"
)

// Task is one unit of background work the update worker performs:
// transforming a staged impulse response into frequency-domain spectra
// and committing it into the IR store. Transform runs first; Commit runs
// only if Transform returned nil. The tan package's update path uses
// Transform to move the channel to Transforming and Commit to build the
// spectra, rotate the IR store's triple buffer and arm the channel's
// ReadyToFlip state.
type Task struct {
	ChannelID int
	Transform func() error
	Commit    func() error
}

// Worker drains a task queue on its own goroutine, so IR updates never
// run on the audio thread. Cancellation is cooperative via ctx, mirroring
// Design Notes' guidance to replace ad hoc worker-thread shutdown with a
// poison-pill/cancellation-aware task queue rather than a raw OS thread
// handle.
type Worker struct {
	tasks  chan Task
	done   chan struct{}
	logger *log.Logger
}

// NewWorker creates a worker with the given task queue depth.
func NewWorker(queueDepth int, logger *log.Logger) *Worker {
	return &Worker{
		tasks:  make(chan Task, queueDepth),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Submit enqueues t. Returns an error if the worker has already been
// stopped or the queue is full.
func (w *Worker) Submit(t Task) error {
	select {
	case <-w.done:
		return fmt.Errorf("coordinator: worker stopped")
	default:
	}

	select {
	case w.tasks <- t:
		return nil
	case <-w.done:
		return fmt.Errorf("coordinator: worker stopped")
	default:
		return fmt.Errorf("coordinator: task queue full for channel %d", t.ChannelID)
	}
}

// Run drains the task queue until ctx is cancelled or Stop is called.
// Intended to be run on its own goroutine.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case t := <-w.tasks:
			w.runTask(t)
		}
	}
}

func (w *Worker) runTask(t Task) {
	if err := t.Transform(); err != nil {
		if w.logger != nil {
			w.logger.Printf("coordinator: channel %d transform failed: %v", t.ChannelID, err)
		}

		return
	}

	if err := t.Commit(); err != nil && w.logger != nil {
		w.logger.Printf("coordinator: channel %d commit failed: %v", t.ChannelID, err)
	}
}

// Stop signals the worker to exit; every later Submit call returns an
// error. Safe to call more than once.
func (w *Worker) Stop() {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
}
