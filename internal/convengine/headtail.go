package convengine

import (
	"fmt"

	"github.com/cwbudde/tanconv/internal/irstore"
)

// HT is the head-tail convolution algorithm (spec.md §4.5.5): the same
// uniform partition ladder as UP, but split into two passes, ProcessHead
// (the head partition) and ProcessTail (the remaining partitions), that a
// caller can run at different points of its schedule. HT submits no
// work to a compute queue itself, and ProcessTail for one block must run
// before ProcessHead for the next, so the two blocks' passes do not
// overlap.
//
// The output ring buffer is shifted and the input ring buffer pushed
// exactly once per block, in ProcessHead; ProcessTail only adds the
// remaining partitions' contribution into the state ProcessHead already
// advanced and finalizes (and cross-fade blends) the result. Calling
// ProcessTail without a preceding ProcessHead is an error.
//
// Grounded on UP's skip_stage-aware partition loop; HT itself only
// sequences the two calls and merges their output.
type HT struct {
	up      *UP
	pending *htBlock
}

// htBlock carries the state ProcessHead must hand off to ProcessTail for
// one in-flight block.
type htBlock struct {
	output       []float32
	prevSnapshot []float32
	crossfade    *CrossfadeState
}

// NewHT wraps an existing UP algorithm for head-tail scheduling.
func NewHT(up *UP) *HT {
	return &HT{up: up}
}

// LoadResponse installs ir as current, delegating to the wrapped UP.
func (h *HT) LoadResponse(ir irstore.IR, asPrevious bool) {
	h.up.LoadResponse(ir, asPrevious)
}

// BuildSpectra implements SpectraBuilder by delegating to the wrapped UP,
// so the background update worker can transform a new kernel for an
// HT-configured channel exactly as it would for a plain UP one.
func (h *HT) BuildSpectra(kernel []float32) ([][][]complex128, error) {
	return h.up.BuildSpectra(kernel)
}

// ProcessHead advances the shared input/output ring buffers for one new
// block and runs only the head partition (block 0). Call this first;
// ProcessTail must follow before the next ProcessHead.
func (h *HT) ProcessHead(args ProcessArgs) error {
	if len(args.Input) != h.up.latency || len(args.Output) != h.up.latency {
		return ErrLengthMismatch
	}

	var prevSnapshot []float32
	if args.Crossfade != nil && args.Crossfade.Active {
		prevSnapshot = append([]float32(nil), h.up.outputBuffer...)
	}

	h.up.advanceBlock(args.Input, args.PrevInput)
	h.up.runStageRange(0)

	if prevSnapshot != nil {
		h.up.shiftOutput(prevSnapshot)
		h.up.runPartitions(h.up.previous, prevSnapshot, 0)
	}

	h.pending = &htBlock{output: args.Output, prevSnapshot: prevSnapshot, crossfade: args.Crossfade}

	return nil
}

// ProcessTail runs the remaining partitions (blocks 1..N-1) against the
// state ProcessHead already advanced, writes the combined result into
// the output slice ProcessHead was given, and applies the cross-fade
// blend exactly once if one is in flight.
func (h *HT) ProcessTail(ProcessArgs) error {
	if h.pending == nil {
		return fmt.Errorf("convengine: ProcessTail called without a preceding ProcessHead")
	}

	block := h.pending
	h.pending = nil

	h.up.runStageRange(1)
	h.up.readOutput(block.output)

	if block.prevSnapshot != nil {
		h.up.runPartitions(h.up.previous, block.prevSnapshot, 1)
		blendCrossfade(block.output, block.prevSnapshot[:h.up.latency], block.crossfade.RampLen)
	}

	return nil
}

// Process implements Algorithm by running the head and tail passes back
// to back, for callers that do not need the two-queue split.
func (h *HT) Process(args ProcessArgs) error {
	if err := h.ProcessHead(args); err != nil {
		return err
	}

	return h.ProcessTail(ProcessArgs{})
}

// Reset implements Algorithm.
func (h *HT) Reset() {
	h.up.Reset()
	h.pending = nil
}

// Latency implements Algorithm.
func (h *HT) Latency() int { return h.up.Latency() }
