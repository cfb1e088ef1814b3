// Package samplebuffer implements the sample-buffer façade (C7): a
// channel-striped view over host-owned sample memory, so the rest of the
// engine deals in one typed container instead of a raw array of
// per-channel pointers.
//
// Grounded on the reuse-friendly single-channel Buffer/Pool pair,
// generalized from one []float64 to a channel-indexed [][]float32 whose
// ownership is explicit: Wrap never copies, and its documentation warns
// callers not to retain or mutate the slices once they are handed to the
// engine (spec.md §3).
package samplebuffer

import "fmt"

// Buffer is a channel-striped, fixed-length sample view: Buffer.Channel(c)
// returns channel c's samples, all channels sharing the same length.
type Buffer struct {
	channels [][]float32
	length   int
}

// New allocates a zero-filled Buffer with the given channel count and
// per-channel length.
func New(numChannels, length int) *Buffer {
	if length < 0 {
		length = 0
	}

	ch := make([][]float32, numChannels)
	for i := range ch {
		ch[i] = make([]float32, length)
	}

	return &Buffer{channels: ch, length: length}
}

// Wrap takes ownership of existing per-channel slices without copying.
// All slices must have equal length; ErrChannelLengthMismatch is
// returned otherwise. The caller must not retain or mutate the slices
// concurrently once wrapped.
func Wrap(channels [][]float32) (*Buffer, error) {
	if len(channels) == 0 {
		return &Buffer{}, nil
	}

	length := len(channels[0])
	for _, c := range channels {
		if len(c) != length {
			return nil, ErrChannelLengthMismatch
		}
	}

	return &Buffer{channels: channels, length: length}, nil
}

// ErrChannelLengthMismatch is returned by Wrap when channels disagree in
// length.
var ErrChannelLengthMismatch = fmt.Errorf("samplebuffer: channel length mismatch")

// NumChannels returns the number of channels.
func (b *Buffer) NumChannels() int { return len(b.channels) }

// Len returns the per-channel sample count.
func (b *Buffer) Len() int { return b.length }

// Channel returns channel index c's samples.
func (b *Buffer) Channel(c int) []float32 { return b.channels[c] }

// Zero sets every channel's samples to 0.
func (b *Buffer) Zero() {
	for _, c := range b.channels {
		for i := range c {
			c[i] = 0
		}
	}
}

// Resize sets every channel's length to n, reusing capacity when
// possible and zeroing any newly exposed tail.
func (b *Buffer) Resize(n int) {
	if n < 0 {
		n = 0
	}

	for i, c := range b.channels {
		oldLen := len(c)

		if n <= cap(c) {
			c = c[:n]
		} else {
			grown := make([]float32, n)
			copy(grown, c)
			c = grown
		}

		if n > oldLen {
			for j := oldLen; j < n; j++ {
				c[j] = 0
			}
		}

		b.channels[i] = c
	}

	b.length = n
}
