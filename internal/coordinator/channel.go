package coordinator

import "sync"

// Channel drives one convolution channel's state machine through the
// Idle → UpdateQueued → Transforming → ReadyToFlip → CrossFading → Idle
// cycle (spec.md §4.6), coordinating the audio thread and the update
// worker via three auto-reset latches:
//
//   - procReady fires when FinishCrossfade returns the channel to Idle,
//     ready to accept a new response; nothing in this package waits on
//     it.
//   - updateFinished fires when the worker has finished transforming a
//     staged response and moved to ReadyToFlip.
//   - xfadeStarted fires when the audio thread begins the one-block
//     cross-fade (TryBeginCrossfade); Channel has no method that waits
//     on it.
type Channel struct {
	mu    sync.Mutex
	state State

	procReady       *Latch
	updateFinished  *Latch
	xfadeStarted    *Latch
}

// NewChannel creates a channel coordinator in the Idle state.
func NewChannel() *Channel {
	return &Channel{
		state:          Idle,
		procReady:      NewLatch(),
		updateFinished: NewLatch(),
		xfadeStarted:   NewLatch(),
	}
}

// State returns the channel's current state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// RequestUpdate transitions Idle → UpdateQueued, failing if an update is
// already in flight (spec.md's §7 WrongState error kind covers this at
// the public API boundary).
func (c *Channel) RequestUpdate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Idle {
		return false
	}

	c.state = UpdateQueued

	return true
}

// BeginTransform transitions UpdateQueued → Transforming. Called by the
// update worker immediately before it runs the FFT transform stage.
func (c *Channel) BeginTransform() {
	c.mu.Lock()
	c.state = Transforming
	c.mu.Unlock()
}

// FinishTransform transitions Transforming → ReadyToFlip and arms
// updateFinished, so the audio thread's next block boundary check can
// begin the cross-fade.
func (c *Channel) FinishTransform() {
	c.mu.Lock()
	c.state = ReadyToFlip
	c.mu.Unlock()
	c.updateFinished.Signal()
}

// TryBeginCrossfade transitions ReadyToFlip → CrossFading if the update
// worker has signaled updateFinished; called by the audio thread at a
// block boundary. Returns false if no update is ready yet.
func (c *Channel) TryBeginCrossfade() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != ReadyToFlip {
		return false
	}

	c.state = CrossFading
	c.xfadeStarted.Signal()

	return true
}

// FinishCrossfade transitions CrossFading → Idle once the one-block
// blend has been produced, and signals procReady so a waiting worker (if
// any) knows the channel can accept another update.
func (c *Channel) FinishCrossfade() {
	c.mu.Lock()
	c.state = Idle
	c.mu.Unlock()
	c.procReady.Signal()
}

// Abort forces the channel back to Idle, for callers that requested an
// update but failed to submit it for processing (e.g. a full task
// queue).
func (c *Channel) Abort() {
	c.mu.Lock()
	c.state = Idle
	c.mu.Unlock()
}

// WaitUpdateFinished blocks until FinishTransform has armed the
// updateFinished latch, or the channel is closed.
func (c *Channel) WaitUpdateFinished() bool {
	return c.updateFinished.Wait()
}

// Close unblocks any goroutine waiting on this channel's latches,
// permanently. Called during Terminate.
func (c *Channel) Close() {
	c.procReady.Close()
	c.updateFinished.Close()
	c.xfadeStarted.Close()
}
