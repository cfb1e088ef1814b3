package tan

import (
	"fmt"

	"github.com/cwbudde/tanconv/internal/convengine"
	"github.com/cwbudde/tanconv/internal/coordinator"
	"github.com/cwbudde/tanconv/internal/irstore"
)

// UpdateResponseTD stages a new time-domain impulse response for
// channelID and queues it for background transformation. The swap onto
// the audio thread happens transparently inside the next one or two
// Process calls via the one-block cross-fade protocol; UpdateResponseTD
// itself never blocks the caller on transform work.
//
// A zero-length samples slice is a valid request: it mutes the channel
// (AMD TAN's UpdateResponseTD convention for lengths[ch] == 0), still
// going through the cross-fade protocol rather than cutting to silence.
func (c *Convolution) UpdateResponseTD(channelID int, samples []float32) error {
	if !c.initialized || c.terminated {
		return ErrWrongState
	}

	ch, err := c.channel(channelID)
	if err != nil {
		return err
	}

	if !ch.coord.RequestUpdate() {
		return fmt.Errorf("%w: channel %d has an update already in flight", ErrWrongState, channelID)
	}

	samplesCopy := append([]float32(nil), samples...)

	task := coordinator.Task{
		ChannelID: channelID,
		Transform: func() error {
			ch.coord.BeginTransform()
			return nil
		},
		Commit: func() error {
			return c.finishUpdate(channelID, samplesCopy)
		},
	}

	if err := c.worker.Submit(task); err != nil {
		ch.coord.Abort()
		return fmt.Errorf("%w: %v", ErrComputeFailure, err)
	}

	return nil
}

// finishUpdate runs on the update worker goroutine: it computes the
// frequency-domain spectra this channel's algorithm needs (if any),
// stages the result in the IR store, commits the rotation, and arms the
// channel's ReadyToFlip state.
func (c *Convolution) finishUpdate(channelID int, samples []float32) error {
	ch, err := c.channel(channelID)
	if err != nil {
		return err
	}

	var spectra [][][]complex128

	if builder, ok := ch.alg.(convengine.SpectraBuilder); ok {
		spectra, err = builder.BuildSpectra(samples)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrComputeFailure, err)
		}
	}

	return c.commitUpdate(channelID, samples, spectra)
}

func (c *Convolution) updateChannel(channelID int, samples []float32, spectra [][][]complex128) error {
	ch, err := c.channel(channelID)
	if err != nil {
		return err
	}

	if !ch.coord.RequestUpdate() {
		return fmt.Errorf("%w: channel %d has an update already in flight", ErrWrongState, channelID)
	}

	ch.coord.BeginTransform()

	return c.commitUpdate(channelID, samples, spectra)
}

func (c *Convolution) commitUpdate(channelID int, samples []float32, spectra [][][]complex128) error {
	ch, err := c.channel(channelID)
	if err != nil {
		return err
	}

	slot := irstore.Slot{ChannelID: channelID}

	staged := c.store.BeginUpdate(slot, samples)
	staged.Spectra = spectra

	if err := c.store.CommitUpdate(slot); err != nil {
		return fmt.Errorf("%w: %v", ErrComputeFailure, err)
	}

	newIR, _ := c.store.Current(slot)
	ch.alg.LoadResponse(newIR, true)

	ch.coord.FinishTransform()

	return nil
}
