// Package avx2 provides a manually-unrolled complexmath kernel variant
// registered under the AVX2 feature level. The unrolling mirrors the
// memory-access pattern a real AVX2 kernel would use (four lanes per
// iteration) without depending on architecture-specific assembly.
package avx2

import (
	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/cwbudde/tanconv/internal/complexmath/arch/generic"
	"github.com/cwbudde/tanconv/internal/complexmath/registry"
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:                       "avx2",
		SIMDLevel:                  cpu.SIMDAVX2,
		Priority:                   20,
		ComplexMul:                 ComplexMul,
		ComplexMulAccumulate:       ComplexMulAccumulate,
		PlanarComplexMulAccumulate: PlanarComplexMulAccumulate,
		ComplexDiv:                 generic.ComplexDiv,
	})
}

const lanes = 4

// ComplexMul computes dst[i] = a[i] * b[i], unrolled four at a time.
func ComplexMul(dst, a, b []complex128) {
	n := len(dst)
	i := 0

	for ; i+lanes <= n; i += lanes {
		dst[i] = a[i] * b[i]
		dst[i+1] = a[i+1] * b[i+1]
		dst[i+2] = a[i+2] * b[i+2]
		dst[i+3] = a[i+3] * b[i+3]
	}

	for ; i < n; i++ {
		dst[i] = a[i] * b[i]
	}
}

// ComplexMulAccumulate computes dst[i] += a[i] * b[i], unrolled four at a time.
func ComplexMulAccumulate(dst, a, b []complex128) {
	n := len(dst)
	i := 0

	for ; i+lanes <= n; i += lanes {
		dst[i] += a[i] * b[i]
		dst[i+1] += a[i+1] * b[i+1]
		dst[i+2] += a[i+2] * b[i+2]
		dst[i+3] += a[i+3] * b[i+3]
	}

	for ; i < n; i++ {
		dst[i] += a[i] * b[i]
	}
}

// PlanarComplexMulAccumulate is the split-plane multiply-accumulate,
// unrolled four lanes at a time.
func PlanarComplexMulAccumulate(dstRe, dstIm, aRe, aIm, bRe, bIm []float64) {
	n := len(dstRe)
	i := 0

	for ; i+lanes <= n; i += lanes {
		for k := 0; k < lanes; k++ {
			j := i + k
			dstRe[j] += aRe[j]*bRe[j] - aIm[j]*bIm[j]
			dstIm[j] += aRe[j]*bIm[j] + aIm[j]*bRe[j]
		}
	}

	for ; i < n; i++ {
		dstRe[i] += aRe[i]*bRe[i] - aIm[i]*bIm[i]
		dstIm[i] += aRe[i]*bIm[i] + aIm[i]*bRe[i]
	}
}
