package convengine

import (
	"fmt"
	"math"

	"github.com/cwbudde/tanconv/internal/complexmath"
	"github.com/cwbudde/tanconv/internal/irstore"
	"github.com/cwbudde/tanconv/internal/transform"
)

// ErrInvalidBlockOrder is returned when minBlockOrder/maxBlockOrder are
// out of range relative to each other.
var ErrInvalidBlockOrder = fmt.Errorf("convengine: invalid block order")

// stageLayout describes one non-uniform partition stage: its FFT size,
// how many IR blocks of that size it holds, and where in the kernel and
// output ring buffers it reads/writes.
type stageLayout struct {
	fftOrder  int
	fftSize   int // 2 * partSize, zero-padded
	partSize  int
	outputPos int
	modAnd    int
	count     int // number of IR blocks this stage holds
}

// NU is the non-uniform partitioned convolution algorithm (spec.md
// §4.5.4): an exponentially growing ladder of partition sizes scheduled
// by a per-stage modulo counter, so small partitions run every block
// (bounding latency) and large partitions run only every Nth block
// (bounding CPU cost). This is the UPOLA / TLowLatencyConvolution32
// algorithm.
//
// Grounded on the non-uniform partitioned convolver's stage-ladder
// construction and modulo-scheduled process loop, adapted to read
// precomputed IR spectra from the IR store instead of owning its own
// per-stage FFT plans, and to support the cross-fade protocol against a
// previous response.
type NU struct {
	engine *transform.Engine

	minBlockOrder, maxBlockOrder int
	latency                      int
	kernelLenPadded              int

	layout []stageLayout
	mods   []int

	inputBuffer    []float32
	outputBuffer   []float32
	blockPos       int

	current  irstore.IR
	previous irstore.IR
}

// NewNU creates a non-uniform partitioned convolution algorithm.
// latency = 2^minBlockOrder samples. maxBlockOrder caps the largest
// partition size at 2^maxBlockOrder.
func NewNU(engine *transform.Engine, kernelLen, minBlockOrder, maxBlockOrder int) (*NU, error) {
	if minBlockOrder < 1 {
		return nil, fmt.Errorf("%w: minBlockOrder must be >= 1, got %d", ErrInvalidBlockOrder, minBlockOrder)
	}

	// maxBlockOrder <= 0 asks for an auto-picked ladder ceiling, derived
	// from bestNUMultiple's cost-model search (spec.md §4.5.4) over the
	// tail super-partition multiple M.
	if maxBlockOrder <= 0 {
		latency := 1 << minBlockOrder
		m := bestNUMultiple(kernelLen, latency)
		maxBlockOrder = minBlockOrder + truncLog2(m)
	}

	if maxBlockOrder < minBlockOrder {
		return nil, fmt.Errorf("%w: maxBlockOrder (%d) must be >= minBlockOrder (%d)",
			ErrInvalidBlockOrder, maxBlockOrder, minBlockOrder)
	}

	latency := 1 << minBlockOrder
	kernelLenPadded := ((kernelLen + latency - 1) / latency) * latency

	layout := buildStageLayout(kernelLenPadded, minBlockOrder, maxBlockOrder, latency)

	maxIROrd := minBlockOrder
	if len(layout) > 0 {
		maxIROrd = layout[len(layout)-1].fftOrder
	}

	inputBufSize := 2 << maxIROrd
	outputHistSize := maxInt(0, kernelLenPadded-latency)

	return &NU{
		engine:          engine,
		minBlockOrder:   minBlockOrder,
		maxBlockOrder:   maxBlockOrder,
		latency:         latency,
		kernelLenPadded: kernelLenPadded,
		layout:          layout,
		mods:            make([]int, len(layout)),
		inputBuffer:     make([]float32, inputBufSize),
		outputBuffer:    make([]float32, outputHistSize+latency),
	}, nil
}

// bestNUMultiple picks the tail super-partition multiple M for a kernel
// of length L partitioned in blocks of B samples (spec.md §4.5.4): the
// power of two, searched over [1, L/(8B)], minimizing the textbook FFT
// partition cost model 2*M*log2(2*M*B) + 2*L/(M*B) (FFT work grows with
// M log M, scheduling/buffering overhead shrinks with 1/M).
func bestNUMultiple(L, B int) int {
	if B <= 0 {
		return 1
	}

	maxM := L / (8 * B)
	if maxM < 1 {
		maxM = 1
	}

	best := 1
	bestCost := nuPartitionCost(best, L, B)

	for m := 2; m <= maxM; m *= 2 {
		if cost := nuPartitionCost(m, L, B); cost < bestCost {
			bestCost, best = cost, m
		}
	}

	return best
}

// nuPartitionCost evaluates bestNUMultiple's cost model at multiple m.
func nuPartitionCost(m, L, B int) float64 {
	return 2*float64(m)*math.Log2(2*float64(m)*float64(B)) + 2*float64(L)/(float64(m)*float64(B))
}

// truncLog2 returns floor(log2(n)) for n >= 1.
func truncLog2(n int) int {
	if n <= 0 {
		return 0
	}

	result := 0
	for n > 1 {
		n >>= 1
		result++
	}

	return result
}

// bitCountToBits returns (2 << n) - 1.
func bitCountToBits(n int) int {
	return (2 << n) - 1
}

// buildStageLayout computes the non-uniform partition ladder for a
// padded kernel length, following the exponential-growth cost model
// spec.md §4.5.4 describes: partitions double in size from
// minBlockOrder up to maxBlockOrder (capped by the IR's own length), and
// the final stage absorbs whatever IR tail remains.
func buildStageLayout(kernelLenPadded, minBlockOrder, maxBlockOrder, latency int) []stageLayout {
	maxIROrd := truncLog2(kernelLenPadded+latency) - 1

	resIRSize := kernelLenPadded - (bitCountToBits(maxIROrd) - bitCountToBits(minBlockOrder-1))

	if resIRSize > 0 && (resIRSize>>maxIROrd)&1 == 0 && maxIROrd > minBlockOrder {
		maxIROrd--
	}

	if maxIROrd > maxBlockOrder {
		maxIROrd = maxBlockOrder
	}

	resIRSize = kernelLenPadded - (bitCountToBits(maxIROrd) - bitCountToBits(minBlockOrder-1))

	var layout []stageLayout

	startPos := 0

	for order := minBlockOrder; order < maxIROrd; order++ {
		count := 1 + ((resIRSize >> order) & 1)
		partSize := 1 << order

		layout = append(layout, stageLayout{
			fftOrder:  order,
			fftSize:   1 << (order + 1),
			partSize:  partSize,
			outputPos: startPos,
			modAnd:    partSize/latency - 1,
			count:     count,
		})

		startPos += count * partSize
		resIRSize -= (count - 1) * partSize
	}

	count := 1
	if maxIROrd > 0 {
		count = maxInt(1, 1+resIRSize/(1<<maxIROrd))
	}

	layout = append(layout, stageLayout{
		fftOrder:  maxIROrd,
		fftSize:   1 << (maxIROrd + 1),
		partSize:  1 << maxIROrd,
		outputPos: startPos,
		modAnd:    (1<<maxIROrd)/latency - 1,
		count:     count,
	})

	return layout
}

// BuildSpectra transforms kernel into per-stage, per-block frequency
// domain spectra matching this algorithm's stage layout, for the update
// worker to attach to an irstore.IR before committing it.
func (n *NU) BuildSpectra(kernel []float32) ([][][]complex128, error) {
	kernel64 := make([]float64, len(kernel))
	for i, v := range kernel {
		kernel64[i] = float64(v)
	}

	spectra := make([][][]complex128, len(n.layout))

	for si, stage := range n.layout {
		spectra[si] = make([][]complex128, stage.count)

		for blockIdx := range spectra[si] {
			padded := make([]complex128, stage.fftSize)

			kernelStart := stage.outputPos + blockIdx*stage.partSize
			kernelEnd := minInt(kernelStart+stage.partSize, len(kernel64))

			if kernelStart < len(kernel64) {
				chunk := kernel64[kernelStart:kernelEnd]
				for i, v := range chunk {
					padded[stage.partSize+i] = complex(v, 0)
				}
			}

			out := make([]complex128, stage.fftSize)
			if err := n.engine.Transform(transform.Forward, out, padded); err != nil {
				return nil, err
			}

			spectra[si][blockIdx] = out
		}
	}

	return spectra, nil
}

// LoadResponse installs ir's precomputed spectra as current.
func (n *NU) LoadResponse(ir irstore.IR, asPrevious bool) {
	if asPrevious {
		n.previous = n.current
	}

	n.current = ir
}

// Process implements Algorithm. Input/Output length must equal the
// algorithm's latency (one full partition block); spec.md's Process
// coordinator is responsible for chunking a host's arbitrary block size
// against this algorithm's latency boundary.
func (n *NU) Process(args ProcessArgs) error {
	if len(args.Input) != n.latency || len(args.Output) != n.latency {
		return ErrLengthMismatch
	}

	// Snapshot the output ring buffer and the modulo schedule before
	// advancing either, so a crossfade can independently replay this same
	// block boundary against the previous response: it must make the
	// identical run/skip decision per stage that the current response's
	// pass is about to make (same pre-block mods state), without
	// disturbing the live schedule those decisions advance.
	var prevOutSnapshot []float32

	var prevModsSnapshot []int

	if args.Crossfade != nil && args.Crossfade.Active {
		prevOutSnapshot = append([]float32(nil), n.outputBuffer...)
		prevModsSnapshot = append([]int(nil), n.mods...)
	}

	if !args.PrevInput {
		n.pushInput(args.Input)
	}

	n.shiftOutput()

	for si := range n.layout {
		n.runStage(si, n.current, args.SkipStage)
	}

	copy(args.Output, n.outputBuffer[:n.latency])

	if prevOutSnapshot != nil {
		n.shiftOutputFrom(prevOutSnapshot)

		for si := range n.layout {
			n.runStageWith(si, n.previous, prevOutSnapshot, prevModsSnapshot, args.SkipStage)
		}

		blendCrossfade(args.Output, prevOutSnapshot[:n.latency], args.Crossfade.RampLen)
	}

	if args.AdvanceTime {
		n.advanceInput()
	}

	return nil
}

func (n *NU) pushInput(input []float32) {
	start := len(n.inputBuffer) - n.latency + n.blockPos
	copy(n.inputBuffer[start:start+len(input)], input)
	n.blockPos += len(input)
}

func (n *NU) advanceInput() {
	if n.blockPos < n.latency {
		return
	}

	copy(n.inputBuffer, n.inputBuffer[n.latency:])

	tail := n.inputBuffer[len(n.inputBuffer)-n.latency:]
	for i := range tail {
		tail[i] = 0
	}

	n.blockPos = 0
}

func (n *NU) shiftOutput() {
	n.shiftOutputFrom(n.outputBuffer)
}

func (n *NU) shiftOutputFrom(buf []float32) {
	outLen := len(buf)

	copy(buf, buf[n.latency:])

	tail := buf[outLen-n.latency:]
	for i := range tail {
		tail[i] = 0
	}
}

func (n *NU) runStage(idx int, ir irstore.IR, skipStage int) {
	n.runStageWith(idx, ir, n.outputBuffer, n.mods, skipStage)
}

// runStageWith is runStageAgainst generalized over which mods slice
// drives (and receives) the per-stage modulo schedule, so a crossfade's
// previous-response replay can read the pre-block schedule and advance
// its own private copy instead of the live one the current response's
// pass already advanced.
//
// head/tail split: a skipStage of 0 runs only stages whose partition
// size fits within the head budget (spec.md's C5.4.5 "head" half of the
// head-tail algorithm); 1 runs the remainder; anything else runs every
// stage (the plain non-uniform path).
func (n *NU) runStageWith(idx int, ir irstore.IR, outputBuf []float32, mods []int, skipStage int) {
	stage := n.layout[idx]

	switch skipStage {
	case 0:
		if stage.fftOrder > n.minBlockOrder {
			return
		}
	case 1:
		if stage.fftOrder <= n.minBlockOrder {
			return
		}
	}

	if mods[idx] != 0 {
		mods[idx] = (mods[idx] + 1) & stage.modAnd
		return
	}

	mods[idx] = (mods[idx] + 1) & stage.modAnd

	if ir.emptyMute() || idx >= len(ir.Spectra) {
		return
	}

	irStage := ir.Spectra[idx]

	inputStart := len(n.inputBuffer) - stage.fftSize
	padded := make([]complex128, stage.fftSize)

	for i := 0; i < stage.fftSize; i++ {
		padded[i] = complex(float64(n.inputBuffer[inputStart+i]), 0)
	}

	signalFreq := make([]complex128, stage.fftSize)
	if err := n.engine.Transform(transform.Forward, signalFreq, padded); err != nil {
		return
	}

	for blockIdx, irSpec := range irStage {
		convolved := make([]complex128, stage.fftSize)
		complexmath.ComplexMul(convolved, signalFreq, irSpec)

		timeDomain := make([]complex128, stage.fftSize)
		if err := n.engine.Transform(transform.Inverse, timeDomain, convolved); err != nil {
			continue
		}

		outPos := stage.outputPos + n.latency - stage.partSize + blockIdx*stage.partSize
		if outPos < 0 || outPos+stage.partSize > len(outputBuf) {
			continue
		}

		for i := 0; i < stage.partSize; i++ {
			outputBuf[outPos+i] += float32(real(timeDomain[i]))
		}
	}
}

// Reset implements Algorithm.
func (n *NU) Reset() {
	for i := range n.inputBuffer {
		n.inputBuffer[i] = 0
	}

	for i := range n.outputBuffer {
		n.outputBuffer[i] = 0
	}

	n.blockPos = 0

	for i := range n.mods {
		n.mods[i] = 0
	}
}

// Latency implements Algorithm: 2^minBlockOrder samples.
func (n *NU) Latency() int { return n.latency }

// StageCount returns the number of partition stages.
func (n *NU) StageCount() int { return len(n.layout) }

// StageInfo returns the partition size and IR block count of stage idx.
func (n *NU) StageInfo(idx int) (partSize, blockCount int, err error) {
	if idx < 0 || idx >= len(n.layout) {
		return 0, 0, fmt.Errorf("convengine: stage index %d out of range (have %d)", idx, len(n.layout))
	}

	return n.layout[idx].partSize, n.layout[idx].count, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}

	return b
}
