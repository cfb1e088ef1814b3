// Package coordinator implements the Update/Process coordinator (C6):
// the per-channel state machine and background update worker that let an
// IR hot-swap commit without ever blocking the real-time audio thread.
package coordinator

// State is one channel's position in the update/cross-fade lifecycle.
type State int

const (
	// Idle: no update pending, audio thread reads the current response.
	Idle State = iota
	// UpdateQueued: a new response has been staged, waiting for the
	// update worker to pick it up.
	UpdateQueued
	// Transforming: the update worker is computing the new response's
	// frequency-domain spectra.
	Transforming
	// ReadyToFlip: the new response has been committed and loaded; the
	// audio thread's next Process call starts the cross-fade.
	ReadyToFlip
	// CrossFading: the audio thread is blending old and new responses
	// over one block.
	CrossFading
)

// String returns the state's name, for logging.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case UpdateQueued:
		return "UpdateQueued"
	case Transforming:
		return "Transforming"
	case ReadyToFlip:
		return "ReadyToFlip"
	case CrossFading:
		return "CrossFading"
	default:
		return "Unknown"
	}
}
