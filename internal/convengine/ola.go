package convengine

import (
	"github.com/cwbudde/tanconv/internal/irstore"
	"github.com/cwbudde/tanconv/internal/transform"
)

// OLA is the overlap-add convolution algorithm (spec.md §4.5.2): a single
// FFT partition sized to the whole impulse response, convolving each
// input block with one forward/inverse transform pair and carrying the
// resulting tail into the next block.
//
// Grounded on the streaming overlap-add convolver's persistent-tail
// design, generalized to the shared transform.Engine and the IR store's
// per-channel spectra rather than owning its own FFT plan.
type OLA struct {
	engine    *transform.Engine
	blockSize int
	fftSize   int

	inFreq   []complex128
	outFreq  []complex128
	tail     OverlapTail
	prevTail OverlapTail

	current  irstore.IR
	previous irstore.IR
}

// NewOLA creates an overlap-add algorithm for the given block size and
// maximum kernel length, using engine for all transforms.
func NewOLA(engine *transform.Engine, blockSize, maxKernelLen int) (*OLA, error) {
	if !isPowerOfTwo(blockSize) {
		return nil, ErrInvalidBlockSize
	}

	fftSize := nextPowerOfTwo(blockSize + maxKernelLen - 1)

	return &OLA{
		engine:    engine,
		blockSize: blockSize,
		fftSize:   fftSize,
		inFreq:    make([]complex128, fftSize),
		outFreq:   make([]complex128, fftSize),
		tail:      OverlapTail{Samples: make([]float32, fftSize)},
		prevTail:  OverlapTail{Samples: make([]float32, fftSize)},
	}, nil
}

// LoadResponse installs ir's precomputed spectrum (Spectra[0][0], the
// single stage/partition an OLA response uses) as current.
func (o *OLA) LoadResponse(ir irstore.IR, asPrevious bool) {
	if asPrevious {
		o.previous = o.current
	}

	o.current = ir
}

// TransformKernel computes and caches the frequency-domain kernel for a
// time-domain impulse response, for the update worker to call before
// committing ir into the store.
func (o *OLA) TransformKernel(samples []float32) ([]complex128, error) {
	padded := make([]complex128, o.fftSize)
	f32 := make([]float64, len(samples))

	for i, v := range samples {
		f32[i] = float64(v)
	}

	transform.PackReal(padded, f32)

	spectrum := make([]complex128, o.fftSize)
	if err := o.engine.Transform(transform.Forward, spectrum, padded); err != nil {
		return nil, err
	}

	return spectrum, nil
}

// BuildSpectra implements SpectraBuilder: OLA has a single stage with a
// single partition, so the layout TransformKernel feeds processAgainst
// through is just that one spectrum wrapped in stage/partition brackets.
func (o *OLA) BuildSpectra(kernel []float32) ([][][]complex128, error) {
	spectrum, err := o.TransformKernel(kernel)
	if err != nil {
		return nil, err
	}

	return [][][]complex128{{spectrum}}, nil
}

// Process implements Algorithm.
func (o *OLA) Process(args ProcessArgs) error {
	if len(args.Input) != o.blockSize || len(args.Output) != o.blockSize {
		return ErrLengthMismatch
	}

	if err := o.processAgainst(args.Output, args.Input, o.current, &o.tail); err != nil {
		return err
	}

	if args.Crossfade != nil && args.Crossfade.Active {
		prevOut := make([]float32, o.blockSize)
		if err := o.processAgainst(prevOut, args.Input, o.previous, &o.prevTail); err != nil {
			return err
		}

		blendCrossfade(args.Output, prevOut, args.Crossfade.RampLen)
	}

	return nil
}

// processAgainst runs one overlap-add block against ir, carrying its
// convolution tail in tail. current and previous responses each keep
// their own tail so that evaluating one during a cross-fade block never
// disturbs the other's in-flight overlap.
func (o *OLA) processAgainst(out, in []float32, ir irstore.IR, tail *OverlapTail) error {
	for i := range out {
		out[i] = 0
	}

	if ir.emptyMute() || len(ir.Spectra) == 0 || len(ir.Spectra[0]) == 0 {
		return nil
	}

	kernel := ir.Spectra[0][0]

	padded := make([]complex128, o.fftSize)
	inF64 := make([]float64, len(in))

	for i, v := range in {
		inF64[i] = float64(v)
	}

	transform.PackReal(padded, inF64)

	if err := o.engine.Transform(transform.Forward, o.inFreq, padded); err != nil {
		return err
	}

	for i := range o.outFreq {
		o.outFreq[i] = o.inFreq[i] * kernel[i]
	}

	timeDomain := make([]complex128, o.fftSize)
	if err := o.engine.Transform(transform.Inverse, timeDomain, o.outFreq); err != nil {
		return err
	}

	for i := 0; i < o.blockSize; i++ {
		out[i] = float32(real(timeDomain[i])) + tail.Samples[i]
	}

	for i := 0; i < o.fftSize-o.blockSize; i++ {
		tail.Samples[i] = float32(real(timeDomain[o.blockSize+i])) + tail.Samples[o.blockSize+i]
	}

	for i := o.fftSize - o.blockSize; i < len(tail.Samples); i++ {
		tail.Samples[i] = 0
	}

	return nil
}

// Reset implements Algorithm.
func (o *OLA) Reset() {
	o.tail.Reset()
	o.prevTail.Reset()
}

// Latency implements Algorithm. OLA has zero inherent algorithmic delay:
// output block i corresponds exactly to input block i.
func (o *OLA) Latency() int { return 0 }

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
