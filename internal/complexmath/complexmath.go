// Package complexmath is the complex-vector math primitive (C3): the
// small set of SIMD-dispatched kernels the convolution engine's
// frequency-domain inner loops are built from.
package complexmath

import (
	"sync"

	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/cwbudde/tanconv/internal/complexmath/registry"
)

var (
	kernelOnce sync.Once
	kernel     *registry.OpEntry
)

func selected() *registry.OpEntry {
	kernelOnce.Do(func() {
		kernel = registry.Global.Lookup(cpu.DetectFeatures())
		if kernel == nil {
			panic("complexmath: no kernel registered (missing generic fallback?)")
		}
	})

	return kernel
}

// ForFeatures returns the kernel the registry selects for an explicit
// feature set, bypassing process-wide detection. The package-level
// wrappers below do not use it; they dispatch through the kernel selected
// once per process from cpu.DetectFeatures().
func ForFeatures(features cpu.Features) *registry.OpEntry {
	entry := registry.Global.Lookup(features)
	if entry == nil {
		panic("complexmath: no kernel registered (missing generic fallback?)")
	}

	return entry
}

// ComplexMul computes dst[i] = a[i] * b[i] using the process-default kernel.
func ComplexMul(dst, a, b []complex128) { selected().ComplexMul(dst, a, b) }

// ComplexMulAccumulate computes dst[i] += a[i] * b[i].
func ComplexMulAccumulate(dst, a, b []complex128) { selected().ComplexMulAccumulate(dst, a, b) }

// PlanarComplexMulAccumulate performs the split-plane multiply-accumulate.
func PlanarComplexMulAccumulate(dstRe, dstIm, aRe, aIm, bRe, bIm []float64) {
	selected().PlanarComplexMulAccumulate(dstRe, dstIm, aRe, aIm, bRe, bIm)
}

// ComplexDiv computes dst[i] = a[i] / b[i].
func ComplexDiv(dst, a, b []complex128) { selected().ComplexDiv(dst, a, b) }
