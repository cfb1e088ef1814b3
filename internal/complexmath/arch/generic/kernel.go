// Package generic is the portable, always-registered complexmath kernel
// set. It is the fallback entry the registry picks when no SIMD feature
// level matches, and the baseline every other architecture's kernels are
// checked against.
package generic

import (
	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/cwbudde/tanconv/internal/complexmath/registry"
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:                       "generic",
		SIMDLevel:                  cpu.SIMDNone,
		Priority:                   0,
		ComplexMul:                 ComplexMul,
		ComplexMulAccumulate:       ComplexMulAccumulate,
		PlanarComplexMulAccumulate: PlanarComplexMulAccumulate,
		ComplexDiv:                 ComplexDiv,
	})
}

// ComplexMul computes dst[i] = a[i] * b[i].
func ComplexMul(dst, a, b []complex128) {
	for i := range dst {
		dst[i] = a[i] * b[i]
	}
}

// ComplexMulAccumulate computes dst[i] += a[i] * b[i].
func ComplexMulAccumulate(dst, a, b []complex128) {
	for i := range dst {
		dst[i] += a[i] * b[i]
	}
}

// PlanarComplexMulAccumulate performs the split-plane multiply-accumulate
// used by the partitioned convolution inner loop.
func PlanarComplexMulAccumulate(dstRe, dstIm, aRe, aIm, bRe, bIm []float64) {
	for i := range dstRe {
		dstRe[i] += aRe[i]*bRe[i] - aIm[i]*bIm[i]
		dstIm[i] += aRe[i]*bIm[i] + aIm[i]*bRe[i]
	}
}

// ComplexDiv computes dst[i] = a[i] / b[i].
func ComplexDiv(dst, a, b []complex128) {
	for i := range dst {
		dst[i] = a[i] / b[i]
	}
}
