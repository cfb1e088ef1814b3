//go:build !amd64 && !arm64

package complexmath

import (
	_ "github.com/cwbudde/tanconv/internal/complexmath/arch/generic"
)
