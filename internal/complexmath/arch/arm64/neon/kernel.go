// Package neon provides a manually-unrolled complexmath kernel variant
// registered under the NEON feature level (two lanes per iteration,
// matching NEON's 128-bit vector width for complex128 pairs).
package neon

import (
	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/cwbudde/tanconv/internal/complexmath/arch/generic"
	"github.com/cwbudde/tanconv/internal/complexmath/registry"
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:                       "neon",
		SIMDLevel:                  cpu.SIMDNEON,
		Priority:                   15,
		ComplexMul:                 ComplexMul,
		ComplexMulAccumulate:       ComplexMulAccumulate,
		PlanarComplexMulAccumulate: generic.PlanarComplexMulAccumulate,
		ComplexDiv:                 generic.ComplexDiv,
	})
}

const lanes = 2

// ComplexMul computes dst[i] = a[i] * b[i], unrolled two at a time.
func ComplexMul(dst, a, b []complex128) {
	n := len(dst)
	i := 0

	for ; i+lanes <= n; i += lanes {
		dst[i] = a[i] * b[i]
		dst[i+1] = a[i+1] * b[i+1]
	}

	for ; i < n; i++ {
		dst[i] = a[i] * b[i]
	}
}

// ComplexMulAccumulate computes dst[i] += a[i] * b[i], unrolled two at a time.
func ComplexMulAccumulate(dst, a, b []complex128) {
	n := len(dst)
	i := 0

	for ; i+lanes <= n; i += lanes {
		dst[i] += a[i] * b[i]
		dst[i+1] += a[i+1] * b[i+1]
	}

	for ; i < n; i++ {
		dst[i] += a[i] * b[i]
	}
}
