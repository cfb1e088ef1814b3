package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Ones returns a slice of length n filled with 1.0.
func Ones(n int) []float64 {
	return DC(1.0, n)
}

// Impulse32 is Impulse with a float32 result, for convolution-engine tests
// that operate on audio-rate block buffers.
func Impulse32(length, pos int) []float32 {
	out := make([]float32, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DeterministicNoise32 is DeterministicNoise with a float32 result.
func DeterministicNoise32(seed int64, amplitude float64, length int) []float32 {
	src := DeterministicNoise(seed, amplitude, length)
	out := make([]float32, length)
	for i, v := range src {
		out[i] = float32(v)
	}
	return out
}

// RampKernel32 returns a linearly decaying synthetic impulse response of the
// given length, useful as a cheap non-trivial FIR kernel in tests: h[n] =
// (length-n)/length.
func RampKernel32(length int) []float32 {
	out := make([]float32, length)
	for i := range out {
		out[i] = float32(length-i) / float32(length)
	}
	return out
}
