package convengine

import (
	"fmt"

	"github.com/cwbudde/tanconv/internal/complexmath"
	"github.com/cwbudde/tanconv/internal/irstore"
	"github.com/cwbudde/tanconv/internal/transform"
)

// UP is the uniform-partitioned convolution algorithm (spec.md §4.5.3):
// the impulse response is split into equal-size partitions, one FFT size
// for the whole kernel, every partition convolved and overlap-added every
// block. Unlike NU there is no modulo scheduling — every partition runs
// on every call, trading CPU cost for a simpler, perfectly even load.
//
// Grounded on the same partition-stage process loop as NU, specialized to
// a single stage whose partition count equals the number of kernel
// blocks, one fftOrder for every block.
type UP struct {
	engine *transform.Engine

	partOrder int
	partSize  int
	fftSize   int
	latency   int
	numParts  int

	inputBuffer  []float32
	outputBuffer []float32
	blockPos     int

	current  irstore.IR
	previous irstore.IR
}

// NewUP creates a uniform-partitioned algorithm. partitionOrder sets both
// the block latency and the partition size to 2^partitionOrder.
func NewUP(engine *transform.Engine, kernelLen, partitionOrder int) (*UP, error) {
	if partitionOrder < 1 {
		return nil, fmt.Errorf("%w: partitionOrder must be >= 1, got %d", ErrInvalidBlockOrder, partitionOrder)
	}

	partSize := 1 << partitionOrder
	numParts := (kernelLen + partSize - 1) / partSize
	if numParts < 1 {
		numParts = 1
	}

	fftSize := partSize * 2

	return &UP{
		engine:       engine,
		partOrder:    partitionOrder,
		partSize:     partSize,
		fftSize:      fftSize,
		latency:      partSize,
		numParts:     numParts,
		inputBuffer:  make([]float32, fftSize),
		outputBuffer: make([]float32, partSize*(numParts+1)),
	}, nil
}

// BuildSpectra transforms kernel into per-partition frequency domain
// spectra for the update worker to attach to an irstore.IR. The layout
// is a single "stage" (index 0) holding NumParts() blocks, matching what
// Process expects in ir.Spectra[0].
func (u *UP) BuildSpectra(kernel []float32) ([][][]complex128, error) {
	blocks := make([][]complex128, u.numParts)

	for i := range blocks {
		padded := make([]complex128, u.fftSize)

		start := i * u.partSize
		end := minInt(start+u.partSize, len(kernel))

		if start < len(kernel) {
			for j, v := range kernel[start:end] {
				padded[u.partSize+j] = complex(float64(v), 0)
			}
		}

		out := make([]complex128, u.fftSize)
		if err := u.engine.Transform(transform.Forward, out, padded); err != nil {
			return nil, err
		}

		blocks[i] = out
	}

	return [][][]complex128{blocks}, nil
}

// LoadResponse installs ir's precomputed spectra as current.
func (u *UP) LoadResponse(ir irstore.IR, asPrevious bool) {
	if asPrevious {
		u.previous = u.current
	}

	u.current = ir
}

// NumParts reports the number of equal-size partitions.
func (u *UP) NumParts() int { return u.numParts }

// Process implements Algorithm. args.SkipStage selects the head-tail
// split when driven by HT: 0 processes only partition 0 (the head), 1
// processes partitions 1..N-1 (the tail), anything else processes every
// partition (the plain UP path).
func (u *UP) Process(args ProcessArgs) error {
	if len(args.Input) != u.latency || len(args.Output) != u.latency {
		return ErrLengthMismatch
	}

	// Snapshot the output ring buffer's pre-block state before advancing
	// it for the current response, so a crossfade can independently
	// replay the same block boundary against the previous response
	// instead of shifting an already-shifted buffer.
	var prevSnapshot []float32
	if args.Crossfade != nil && args.Crossfade.Active {
		prevSnapshot = append([]float32(nil), u.outputBuffer...)
	}

	u.advanceBlock(args.Input, args.PrevInput)
	u.runStageRange(args.SkipStage)
	u.readOutput(args.Output)

	if prevSnapshot != nil {
		u.shiftOutput(prevSnapshot)
		u.runPartitions(u.previous, prevSnapshot, args.SkipStage)

		blendCrossfade(args.Output, prevSnapshot[:u.latency], args.Crossfade.RampLen)
	}

	return nil
}

// advanceBlock pushes input (unless prevInput reuses the last buffered
// block) and shifts the output ring buffer once. HT's two-pass scheduling
// calls this exactly once per block, before its head and tail partition
// runs, instead of once per pass.
func (u *UP) advanceBlock(input []float32, prevInput bool) {
	if !prevInput {
		copy(u.inputBuffer, u.inputBuffer[u.latency:])

		tail := u.inputBuffer[len(u.inputBuffer)-u.latency:]
		copy(tail, input)
	}

	u.shiftOutput(u.outputBuffer)
}

// runStageRange runs the current response's partitions selected by
// skipStage into the live output buffer.
func (u *UP) runStageRange(skipStage int) {
	u.runPartitions(u.current, u.outputBuffer, skipStage)
}

// readOutput copies this block's latency-sized result out of the live
// output buffer.
func (u *UP) readOutput(out []float32) {
	copy(out, u.outputBuffer[:u.latency])
}

func (u *UP) shiftOutput(buf []float32) {
	outLen := len(buf)
	copy(buf, buf[u.latency:])

	tail := buf[outLen-u.latency:]
	for i := range tail {
		tail[i] = 0
	}
}

func (u *UP) runPartitions(ir irstore.IR, outputBuf []float32, skipStage int) {
	if ir.emptyMute() || len(ir.Spectra) == 0 {
		return
	}

	blocks := ir.Spectra[0]

	padded := make([]complex128, u.fftSize)
	for i, v := range u.inputBuffer {
		padded[i] = complex(float64(v), 0)
	}

	signalFreq := make([]complex128, u.fftSize)
	if err := u.engine.Transform(transform.Forward, signalFreq, padded); err != nil {
		return
	}

	lo, hi := 0, len(blocks)

	switch skipStage {
	case 0:
		hi = minInt(hi, 1)
	case 1:
		lo = minInt(lo+1, hi)
	}

	for blockIdx := lo; blockIdx < hi; blockIdx++ {
		convolved := make([]complex128, u.fftSize)
		complexmath.ComplexMul(convolved, signalFreq, blocks[blockIdx])

		timeDomain := make([]complex128, u.fftSize)
		if err := u.engine.Transform(transform.Inverse, timeDomain, convolved); err != nil {
			continue
		}

		outPos := blockIdx * u.partSize
		if outPos+u.partSize > len(outputBuf) {
			continue
		}

		for i := 0; i < u.partSize; i++ {
			outputBuf[outPos+i] += float32(real(timeDomain[i]))
		}
	}
}

// Reset implements Algorithm.
func (u *UP) Reset() {
	for i := range u.inputBuffer {
		u.inputBuffer[i] = 0
	}

	for i := range u.outputBuffer {
		u.outputBuffer[i] = 0
	}
}

// Latency implements Algorithm: one partition size.
func (u *UP) Latency() int { return u.latency }
