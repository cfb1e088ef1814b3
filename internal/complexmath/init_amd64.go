//go:build amd64

package complexmath

// Importing these packages for side effect triggers their init()
// registration with the global kernel registry.
import (
	_ "github.com/cwbudde/tanconv/internal/complexmath/arch/amd64/avx2"
	_ "github.com/cwbudde/tanconv/internal/complexmath/arch/generic"
)
