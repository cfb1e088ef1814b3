package transform

// PackReal copies a real-valued block into the real part of a complex
// scratch buffer, zeroing the imaginary part and any trailing padding.
// dst must be at least len(src) long.
func PackReal(dst []complex128, src []float64) {
	n := len(src)
	for i := 0; i < n; i++ {
		dst[i] = complex(src[i], 0)
	}
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// UnpackReal copies the real part of a complex buffer into dst.
func UnpackReal(dst []float64, src []complex128) {
	for i := range dst {
		dst[i] = real(src[i])
	}
}

// PackReal32 is the float32 counterpart of PackReal, used by the
// single-precision convolution variants.
func PackReal32(dst []complex128, src []float32) {
	n := len(src)
	for i := 0; i < n; i++ {
		dst[i] = complex(float64(src[i]), 0)
	}
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// UnpackReal32 is the float32 counterpart of UnpackReal.
func UnpackReal32(dst []float32, src []complex128) {
	for i := range dst {
		dst[i] = float32(real(src[i]))
	}
}
