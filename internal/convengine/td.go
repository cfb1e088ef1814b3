package convengine

import "github.com/cwbudde/tanconv/internal/irstore"

// TD is the time-domain convolution algorithm (spec.md §4.5.1): a
// circular input-history delay line convolved directly against the
// impulse response, pruned to the response's [FirstNZ, LastNZ] nonzero
// range so leading/trailing silence in the IR costs nothing.
//
// Grounded on the circular delay-line/linearize-then-dot-product pattern
// used for FIR filtering, generalized here to skip known-zero taps and to
// support the cross-fade protocol against a previous response.
type TD struct {
	blockSize int

	history    []float32 // circular input history, len >= kernel capacity
	historyPos int

	current  irstore.IR
	previous irstore.IR
}

// NewTD creates a time-domain algorithm for the given block size and
// maximum impulse response length the history buffer must accommodate.
func NewTD(blockSize, maxKernelLen int) (*TD, error) {
	if !isPowerOfTwo(blockSize) {
		return nil, ErrInvalidBlockSize
	}

	histLen := maxKernelLen + blockSize

	return &TD{
		blockSize: blockSize,
		history:   make([]float32, histLen),
	}, nil
}

// LoadResponse installs ir as the algorithm's current impulse response;
// if asPrevious is true, the old current response becomes previous.
func (t *TD) LoadResponse(ir irstore.IR, asPrevious bool) {
	if asPrevious {
		t.previous = t.current
	}

	t.current = ir
}

// Process implements Algorithm.
func (t *TD) Process(args ProcessArgs) error {
	if len(args.Input) != t.blockSize || len(args.Output) != t.blockSize {
		return ErrLengthMismatch
	}

	if !args.PrevInput {
		t.pushHistory(args.Input)
	}

	t.convolveInto(args.Output, t.current)

	if args.Crossfade != nil && args.Crossfade.Active {
		prevOut := make([]float32, t.blockSize)
		t.convolveInto(prevOut, t.previous)
		blendCrossfade(args.Output, prevOut, args.Crossfade.RampLen)
	}

	if args.AdvanceTime {
		t.historyPos = (t.historyPos + t.blockSize) % len(t.history)
	}

	return nil
}

func (t *TD) pushHistory(input []float32) {
	n := len(t.history)
	for i, x := range input {
		t.history[(t.historyPos+i)%n] = x
	}
}

// convolveInto computes one block of direct convolution against ir's
// nonzero tap range, reading input history ending at the most recently
// pushed sample.
func (t *TD) convolveInto(out []float32, ir irstore.IR) {
	for i := range out {
		out[i] = 0
	}

	if ir.emptyMute() || ir.LastNZ < ir.FirstNZ {
		return
	}

	n := len(t.history)
	taps := ir.Samples

	for i := range out {
		var acc float32

		// Output sample i in this block corresponds to history position
		// historyPos + i, convolved back through the nonzero tap range.
		base := t.historyPos + i

		for k := ir.FirstNZ; k <= ir.LastNZ; k++ {
			hPos := (base - k + n) % n
			acc += taps[k] * t.history[hPos]
		}

		out[i] = acc
	}
}

// blendCrossfade linearly ramps from prev (weight 1→0) to cur (weight
// 0→1) over the first rampLen samples of out, leaving the remainder at
// cur's value. out holds the "new response" output on entry. Sample 0 is
// pure prev; the ramp approaches but never reaches pure cur within the
// block (weight reaches 1 only at i == rampLen, one past the last
// blended sample).
func blendCrossfade(cur, prev []float32, rampLen int) {
	if rampLen <= 0 {
		return
	}

	if rampLen > len(cur) {
		rampLen = len(cur)
	}

	for i := 0; i < rampLen; i++ {
		w := float32(i) / float32(rampLen)
		cur[i] = prev[i]*(1-w) + cur[i]*w
	}
}

// Reset implements Algorithm.
func (t *TD) Reset() {
	for i := range t.history {
		t.history[i] = 0
	}

	t.historyPos = 0
}

// Latency implements Algorithm. TD has zero inherent algorithmic delay.
func (t *TD) Latency() int { return 0 }
