// Package transform implements the FFT/FHT primitive (C2): a thin,
// size-cached wrapper around algofft plans that the convolution engine
// drives for every partitioned/overlap algorithm.
package transform

import (
	"fmt"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Direction selects which transform an Engine call performs.
type Direction int

const (
	// Forward transforms a zero-padded real/complex time-domain block into
	// its frequency-domain representation.
	Forward Direction = iota
	// Inverse transforms a frequency-domain block back to the time domain.
	Inverse
)

// Engine wraps a cached set of algofft plans, one per FFT size, so that
// repeated partitions of the same size (the common case in uniform and
// non-uniform partitioned convolution) reuse plan setup cost.
//
// Engine is safe for concurrent use; the update worker and the audio
// thread may both request plans for different sizes without contention,
// since each size's plan is looked up once and then used exclusively by
// its caller's own buffers.
type Engine struct {
	mu    sync.Mutex
	plans map[int]*algofft.Plan[complex128]
}

// NewEngine creates an empty, lazily-populated transform engine.
func NewEngine() *Engine {
	return &Engine{plans: make(map[int]*algofft.Plan[complex128])}
}

// Plan returns the cached algofft plan for fftSize, creating it on first
// use. fftSize must be a power of two.
func (e *Engine) Plan(fftSize int) (*algofft.Plan[complex128], error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p, ok := e.plans[fftSize]; ok {
		return p, nil
	}

	p, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("transform: create plan size %d: %w", fftSize, err)
	}

	e.plans[fftSize] = p

	return p, nil
}

// Transform runs dir on src into dst using the plan for len(dst).
// src and dst must have equal length, a power of two.
func (e *Engine) Transform(dir Direction, dst, src []complex128) error {
	if len(dst) != len(src) {
		return fmt.Errorf("transform: length mismatch dst=%d src=%d", len(dst), len(src))
	}

	p, err := e.Plan(len(dst))
	if err != nil {
		return err
	}

	switch dir {
	case Forward:
		return p.Forward(dst, src)
	case Inverse:
		return p.Inverse(dst, src)
	default:
		return fmt.Errorf("transform: unknown direction %d", dir)
	}
}

// TransformBatch runs dir over batch consecutive buffers of length
// fftSize, packed back-to-back in src/dst (spec.md §4.2's explicit batch
// parameter), reusing one cached plan across every channel instead of
// looking it up per call.
func (e *Engine) TransformBatch(dir Direction, dst, src []complex128, fftSize, batch int) error {
	if fftSize <= 0 || batch <= 0 {
		return fmt.Errorf("transform: fftSize and batch must be positive, got %d/%d", fftSize, batch)
	}

	want := fftSize * batch
	if len(dst) != want || len(src) != want {
		return fmt.Errorf("transform: batch length mismatch dst=%d src=%d want=%d", len(dst), len(src), want)
	}

	p, err := e.Plan(fftSize)
	if err != nil {
		return err
	}

	for b := 0; b < batch; b++ {
		off := b * fftSize
		chunkDst, chunkSrc := dst[off:off+fftSize], src[off:off+fftSize]

		switch dir {
		case Forward:
			err = p.Forward(chunkDst, chunkSrc)
		case Inverse:
			err = p.Inverse(chunkDst, chunkSrc)
		default:
			err = fmt.Errorf("transform: unknown direction %d", dir)
		}

		if err != nil {
			return fmt.Errorf("transform: batch channel %d: %w", b, err)
		}
	}

	return nil
}

// ForwardReal computes the packed real→complex forward transform
// (spec.md §4.2): src is a real time-domain block of length n, dst holds
// the n/2+1 unique complex bins of its spectrum — bins n/2+1..n-1 are the
// conjugate mirror of bins 1..n/2-1 and are not stored.
func (e *Engine) ForwardReal(dst []complex128, src []float64) error {
	n := len(src)
	if len(dst) != n/2+1 {
		return fmt.Errorf("transform: packed real forward dst must be len %d, got %d", n/2+1, len(dst))
	}

	full := make([]complex128, n)
	PackReal(full, src)

	freq := make([]complex128, n)
	if err := e.Transform(Forward, freq, full); err != nil {
		return err
	}

	copy(dst, freq[:n/2+1])

	return nil
}

// InverseReal reconstructs a length-n real time-domain block from its
// packed n/2+1-bin spectrum (spec.md §4.2's complex(packed)→real
// inverse), rebuilding the conjugate-mirrored upper half before running
// the inverse transform.
func (e *Engine) InverseReal(dst []float64, src []complex128) error {
	n := len(dst)
	half := n / 2
	if len(src) != half+1 {
		return fmt.Errorf("transform: packed real inverse src must be len %d, got %d", half+1, len(src))
	}

	full := make([]complex128, n)
	copy(full[:half+1], src)
	for idx := half + 1; idx < n; idx++ {
		k := n - idx
		full[idx] = complex(real(full[k]), -imag(full[k]))
	}

	freq := make([]complex128, n)
	if err := e.Transform(Inverse, freq, full); err != nil {
		return err
	}

	UnpackReal(dst, freq)

	return nil
}

// ForwardPlanar is Transform's forward direction with the signal held in
// planar layout (spec.md §4.2's "planar real↔complex" variant): re/im
// hold the time-domain block's real and imaginary parts in separate
// slices on entry and its spectrum's real/imaginary parts on return.
func (e *Engine) ForwardPlanar(re, im []float64) error {
	return e.transformPlanar(Forward, re, im)
}

// InversePlanar is ForwardPlanar's inverse-direction counterpart.
func (e *Engine) InversePlanar(re, im []float64) error {
	return e.transformPlanar(Inverse, re, im)
}

func (e *Engine) transformPlanar(dir Direction, re, im []float64) error {
	if len(re) != len(im) {
		return fmt.Errorf("transform: planar re/im length mismatch %d/%d", len(re), len(im))
	}

	n := len(re)
	buf := make([]complex128, n)
	for i := range buf {
		buf[i] = complex(re[i], im[i])
	}

	out := make([]complex128, n)
	if err := e.Transform(dir, out, buf); err != nil {
		return err
	}

	for i, v := range out {
		re[i] = real(v)
		im[i] = imag(v)
	}

	return nil
}

// Hartley computes the discrete Hartley transform (spec.md §4.2's
// Hartley forward/inverse direction, AMD TAN's FHT convolution path) via
// Bracewell's FFT relation: H(k) = Re(X(k)) - Im(X(k)) where X is the
// ordinary DFT of src. The DHT is involutory up to a factor of n (two
// forward applications return n·src), so the inverse direction runs the
// same relation and rescales by 1/n.
func (e *Engine) Hartley(dir Direction, dst, src []float64) error {
	n := len(src)
	if len(dst) != n {
		return fmt.Errorf("transform: hartley length mismatch dst=%d src=%d", len(dst), n)
	}

	full := make([]complex128, n)
	PackReal(full, src)

	freq := make([]complex128, n)
	if err := e.Transform(Forward, freq, full); err != nil {
		return err
	}

	for i, v := range freq {
		dst[i] = real(v) - imag(v)
	}

	if dir == Inverse {
		inv := 1 / float64(n)
		for i := range dst {
			dst[i] *= inv
		}
	}

	return nil
}

// SelfTest round-trips every direction this engine exposes at size n and
// reports whether each reconstructed signal matches the original within
// tol. This mirrors the startup FFT sanity kernel AMD TAN's MathImpl
// performs before the engine accepts real work; callers may invoke it
// once per process, not on the audio thread.
func (e *Engine) SelfTest(n int, tol float64) error {
	src := make([]complex128, n)
	for i := range src {
		src[i] = complex(float64(i%7)-3, float64(i%5)-2)
	}

	freq := make([]complex128, n)
	if err := e.Transform(Forward, freq, src); err != nil {
		return fmt.Errorf("transform: self-test forward: %w", err)
	}

	back := make([]complex128, n)
	if err := e.Transform(Inverse, back, freq); err != nil {
		return fmt.Errorf("transform: self-test inverse: %w", err)
	}

	for i, v := range src {
		d := back[i] - v
		mag := real(d)*real(d) + imag(d)*imag(d)
		if mag > tol*tol {
			return fmt.Errorf("transform: self-test mismatch at %d: got %v want %v", i, back[i], v)
		}
	}

	if err := e.selfTestBatch(n, tol); err != nil {
		return err
	}

	if err := e.selfTestReal(n, tol); err != nil {
		return err
	}

	if err := e.selfTestPlanar(n, tol); err != nil {
		return err
	}

	return e.selfTestHartley(n, tol)
}

func (e *Engine) selfTestBatch(n int, tol float64) error {
	const batch = 2

	src := make([]complex128, n*batch)
	for i := range src {
		src[i] = complex(float64(i%5)-2, float64(i%3))
	}

	freq := make([]complex128, len(src))
	if err := e.TransformBatch(Forward, freq, src, n, batch); err != nil {
		return fmt.Errorf("transform: self-test batch forward: %w", err)
	}

	back := make([]complex128, len(src))
	if err := e.TransformBatch(Inverse, back, freq, n, batch); err != nil {
		return fmt.Errorf("transform: self-test batch inverse: %w", err)
	}

	for i, v := range src {
		d := back[i] - v
		mag := real(d)*real(d) + imag(d)*imag(d)
		if mag > tol*tol {
			return fmt.Errorf("transform: self-test batch mismatch at %d: got %v want %v", i, back[i], v)
		}
	}

	return nil
}

func (e *Engine) selfTestReal(n int, tol float64) error {
	if n < 2 {
		return nil
	}

	src := make([]float64, n)
	for i := range src {
		src[i] = float64(i%7) - 3
	}

	freq := make([]complex128, n/2+1)
	if err := e.ForwardReal(freq, src); err != nil {
		return fmt.Errorf("transform: self-test real forward: %w", err)
	}

	back := make([]float64, n)
	if err := e.InverseReal(back, freq); err != nil {
		return fmt.Errorf("transform: self-test real inverse: %w", err)
	}

	for i, v := range src {
		if d := back[i] - v; d > tol || d < -tol {
			return fmt.Errorf("transform: self-test real mismatch at %d: got %v want %v", i, back[i], v)
		}
	}

	return nil
}

func (e *Engine) selfTestPlanar(n int, tol float64) error {
	re := make([]float64, n)
	im := make([]float64, n)
	for i := range re {
		re[i] = float64(i%5) - 2
		im[i] = float64(i % 3)
	}

	wantRe, wantIm := append([]float64(nil), re...), append([]float64(nil), im...)

	if err := e.ForwardPlanar(re, im); err != nil {
		return fmt.Errorf("transform: self-test planar forward: %w", err)
	}
	if err := e.InversePlanar(re, im); err != nil {
		return fmt.Errorf("transform: self-test planar inverse: %w", err)
	}

	for i := range re {
		if d := re[i] - wantRe[i]; d > tol || d < -tol {
			return fmt.Errorf("transform: self-test planar mismatch (re) at %d: got %v want %v", i, re[i], wantRe[i])
		}
		if d := im[i] - wantIm[i]; d > tol || d < -tol {
			return fmt.Errorf("transform: self-test planar mismatch (im) at %d: got %v want %v", i, im[i], wantIm[i])
		}
	}

	return nil
}

func (e *Engine) selfTestHartley(n int, tol float64) error {
	src := make([]float64, n)
	for i := range src {
		src[i] = float64(i%7) - 3
	}

	freq := make([]float64, n)
	if err := e.Hartley(Forward, freq, src); err != nil {
		return fmt.Errorf("transform: self-test hartley forward: %w", err)
	}

	back := make([]float64, n)
	if err := e.Hartley(Inverse, back, freq); err != nil {
		return fmt.Errorf("transform: self-test hartley inverse: %w", err)
	}

	for i, v := range src {
		if d := back[i] - v; d > tol || d < -tol {
			return fmt.Errorf("transform: self-test hartley mismatch at %d: got %v want %v", i, back[i], v)
		}
	}

	return nil
}
