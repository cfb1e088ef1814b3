// Package convengine implements the Convolution Engine (C5): the four
// algorithm variants (time-domain, overlap-add, uniform-partitioned,
// non-uniform-partitioned) plus the head-tail split, all driven through
// one shared Algorithm interface so the coordinator never branches on
// which variant a channel is running.
package convengine

import (
	"fmt"

	"github.com/cwbudde/tanconv/internal/irstore"
)

// BlockSize is the fixed host-driven block size a channel processes per
// Process call. It must be a power of two.
type BlockSize int

// PartitionSize is the FFT partition size a uniform or non-uniform stage
// operates at. Must be a power of two, at least as large as BlockSize.
type PartitionSize int

// OverlapTail holds the trailing samples an overlap-add style algorithm
// must add into the next block's output, carried across Process calls.
type OverlapTail struct {
	Samples []float32
}

// Reset zeroes the tail in place, keeping the underlying allocation.
func (t *OverlapTail) Reset() {
	for i := range t.Samples {
		t.Samples[i] = 0
	}
}

// CrossfadeState tracks progress through the one-block-boundary
// cross-fade protocol spec.md's C5/C6 require when an IR update commits
// mid-stream: the engine computes one block against both the previous
// and current response and linearly blends them, instead of producing an
// audible click at the instant of the swap.
type CrossfadeState struct {
	// Active is true for exactly the one Process call spanning the swap.
	Active bool
	// RampLen is the number of samples the fade ramps over, at most
	// BlockSize.
	RampLen int
}

// ProcessArgs carries the per-call driver flags spec.md's C5/C6 name,
// generalized from GraalConv's positional boolean parameters into one
// named struct.
type ProcessArgs struct {
	// Input is this block's new input samples, length == int(BlockSize).
	Input []float32
	// Output receives this block's convolved output, same length as
	// Input.
	Output []float32
	// PrevInput, when true, tells the algorithm to reuse the previously
	// buffered input instead of consuming Input. OLA does not read it,
	// and the tan package's Process, ProcessDirect and ProcessFinalize
	// all leave it false.
	PrevInput bool
	// AdvanceTime, when false, recomputes the current block without
	// advancing any ring-buffer position — used by ProcessDirect, which
	// must not disturb the streaming state driven by Process.
	AdvanceTime bool
	// SkipStage selects which half of a head-tail split runs: 0 runs
	// only the head partitions, 1 runs only the tail partitions, and
	// SkipStageAll runs every stage (the non-head-tail path). Callers
	// that are not HT must set this explicitly; the zero value means
	// "head only", not "all".
	SkipStage int
	// Crossfade carries cross-fade protocol state, nil when no IR update
	// is in flight for this channel.
	Crossfade *CrossfadeState
}

// Algorithm is the shared interface every convolution variant
// implements, letting the coordinator and public API call the same three
// methods regardless of which variant backs a channel.
type Algorithm interface {
	// Process runs one block of convolution per args, honoring
	// PrevInput/AdvanceTime/SkipStage/Crossfade.
	Process(args ProcessArgs) error
	// Reset clears all ring-buffer and history state, without changing
	// the loaded impulse response.
	Reset()
	// Latency reports the algorithm's inherent output delay in samples.
	Latency() int
	// LoadResponse installs ir as the algorithm's current response,
	// demoting the previous current response to previous when
	// asPrevious is true (the cross-fade protocol's "old" side).
	LoadResponse(ir irstore.IR, asPrevious bool)
}

// SpectraBuilder is implemented by algorithm variants whose response
// needs frequency-domain precomputation (OLA, UP, NU, HT) before it can
// be installed via LoadResponse. TD has no SpectraBuilder: its response
// is consumed directly in the time domain.
type SpectraBuilder interface {
	BuildSpectra(kernel []float32) ([][][]complex128, error)
}

// SkipStageAll is the SkipStage value meaning "run every partition
// stage" — the value every Algorithm driven outside of HT must use.
const SkipStageAll = -1

// ErrLengthMismatch is returned when Input/Output lengths disagree with
// the algorithm's configured block size.
var ErrLengthMismatch = fmt.Errorf("convengine: input/output length mismatch")

// ErrInvalidBlockSize is returned when a requested block size is not a
// positive power of two.
var ErrInvalidBlockSize = fmt.Errorf("convengine: block size must be a positive power of two")

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
