// Package registry is the SIMD-dispatch registry for complexmath ops,
// mirroring the priority-sorted architecture-registration pattern used
// throughout this module's DSP kernels: architecture packages self-register
// via init(), and the fastest entry compatible with the detected CPU
// features wins.
package registry

import (
	"sync"

	"github.com/cwbudde/algo-vecmath/cpu"
)

// OpEntry is one registered implementation of the complex-vector kernels
// spec.md's C3 names: planar complex multiply-accumulate for partitioned
// convolution, plain complex multiply/divide for the FFT bin math the
// convolution engine does around every transform.
type OpEntry struct {
	Name      string
	SIMDLevel cpu.SIMDLevel
	Priority  int

	// ComplexMul computes dst[i] = a[i] * b[i] for interleaved complex
	// slices (re, im pairs laid out as complex128).
	ComplexMul func(dst, a, b []complex128)

	// ComplexMulAccumulate computes dst[i] += a[i] * b[i].
	ComplexMulAccumulate func(dst, a, b []complex128)

	// PlanarComplexMulAccumulate computes, for separate real/imag planes,
	// dstRe[i] += aRe[i]*bRe[i] - aIm[i]*bIm[i]
	// dstIm[i] += aRe[i]*bIm[i] + aIm[i]*bRe[i]
	// This is the hot inner loop of uniform/non-uniform partitioned
	// convolution, where IR spectra are stored split-plane to keep SIMD
	// loads contiguous.
	PlanarComplexMulAccumulate func(dstRe, dstIm, aRe, aIm, bRe, bIm []float64)

	// ComplexDiv computes dst[i] = a[i] / b[i].
	ComplexDiv func(dst, a, b []complex128)
}

// OpRegistry manages registered complexmath kernel variants.
type OpRegistry struct {
	mu      sync.RWMutex
	entries []OpEntry
	sorted  bool
}

// Global is the default registry populated by architecture packages.
var Global = &OpRegistry{}

// Register adds an implementation variant. Called from architecture
// package init() functions.
func (r *OpRegistry) Register(entry OpEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	r.sorted = false
}

// Lookup returns the highest-priority entry compatible with features.
func (r *OpRegistry) Lookup(features cpu.Features) *OpEntry {
	r.mu.Lock()
	if !r.sorted {
		r.sortByPriority()
		r.sorted = true
	}
	r.mu.Unlock()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.entries {
		entry := &r.entries[i]
		if cpu.Supports(features, entry.SIMDLevel) {
			return entry
		}
	}

	return nil
}

func (r *OpRegistry) sortByPriority() {
	for i := 1; i < len(r.entries); i++ {
		key := r.entries[i]
		j := i - 1
		for j >= 0 && r.entries[j].Priority < key.Priority {
			r.entries[j+1] = r.entries[j]
			j--
		}
		r.entries[j+1] = key
	}
}

// ListEntries returns a copy of registered entries, for tests.
func (r *OpRegistry) ListEntries() []OpEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]OpEntry, len(r.entries))
	copy(out, r.entries)

	return out
}

// Reset clears all entries. Test-only.
func (r *OpRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	r.sorted = false
}
