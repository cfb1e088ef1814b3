//go:build arm64

package complexmath

import (
	_ "github.com/cwbudde/tanconv/internal/complexmath/arch/arm64/neon"
	_ "github.com/cwbudde/tanconv/internal/complexmath/arch/generic"
)
