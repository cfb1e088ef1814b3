// Package tan is the public API (spec.md §6): create, initialize, drive,
// and hot-swap impulse responses on multi-channel convolution engines
// built from the four algorithm variants in internal/convengine.
package tan

import "github.com/cwbudde/algo-vecmath/cpu"

// AlgorithmKind selects which convolution variant a channel set runs.
type AlgorithmKind int

const (
	// TimeDomain runs the direct time-domain algorithm (zero latency,
	// best for very short responses).
	TimeDomain AlgorithmKind = iota
	// OverlapAdd runs a single-partition FFT convolution (zero latency,
	// best for medium-length responses).
	OverlapAdd
	// UniformPartitioned runs equal-size FFT partitions every block.
	UniformPartitioned
	// NonUniformPartitioned runs the exponential partition ladder
	// (lowest latency-to-CPU tradeoff for long responses).
	NonUniformPartitioned
	// HeadTail runs UniformPartitioned split into head/tail passes.
	HeadTail
)

// Config holds the parameters Init needs to construct a Convolution.
// Generalized from the functional-options config pattern this module's
// DSP core uses elsewhere (sample-rate/block-size processor config),
// scaled up to the fuller parameter set a convolution engine needs.
type Config struct {
	Algorithm    AlgorithmKind
	SampleRate   float64
	BlockSize    int
	MaxChannels  int
	MaxKernelLen int

	// MinBlockOrder/MaxBlockOrder bound the partition ladder:
	// MinBlockOrder is read by NonUniformPartitioned, HeadTail and
	// UniformPartitioned, MaxBlockOrder only by NonUniformPartitioned;
	// both are ignored by TimeDomain/OverlapAdd.
	MinBlockOrder int
	MaxBlockOrder int

	// Capabilities records a CPU feature set. The complex-math kernels
	// do not read it: they dispatch on the features internal/complexmath
	// detects once per process.
	Capabilities cpu.Features

	// QueueDepth bounds the update worker's pending-task queue.
	QueueDepth int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns sensible defaults: non-uniform partitioned
// convolution at 48kHz, 512-sample blocks, 8 channels, a 10-second max
// kernel at 48kHz, partition orders 6..13 (64..8192 samples), and
// CPU features detected from the running process.
func DefaultConfig() Config {
	return Config{
		Algorithm:     NonUniformPartitioned,
		SampleRate:    48000,
		BlockSize:     512,
		MaxChannels:   8,
		MaxKernelLen:  480000,
		MinBlockOrder: 6,
		MaxBlockOrder: 13,
		Capabilities:  cpu.DetectFeatures(),
		QueueDepth:    16,
	}
}

// WithAlgorithm selects the convolution variant.
func WithAlgorithm(a AlgorithmKind) Option {
	return func(c *Config) { c.Algorithm = a }
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sr float64) Option {
	return func(c *Config) {
		if sr > 0 {
			c.SampleRate = sr
		}
	}
}

// WithBlockSize sets the host-driven block size.
func WithBlockSize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.BlockSize = n
		}
	}
}

// WithMaxChannels sets the channel capacity.
func WithMaxChannels(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxChannels = n
		}
	}
}

// WithMaxKernelLen sets the longest impulse response length the engine
// will accept.
func WithMaxKernelLen(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxKernelLen = n
		}
	}
}

// WithBlockOrders sets the non-uniform/uniform partition ladder bounds.
func WithBlockOrders(min, max int) Option {
	return func(c *Config) {
		c.MinBlockOrder = min
		c.MaxBlockOrder = max
	}
}

// WithCapabilities overrides Config.Capabilities. It does not change
// which complex-math kernel runs.
func WithCapabilities(f cpu.Features) Option {
	return func(c *Config) { c.Capabilities = f }
}

// WithQueueDepth sets the update worker's task queue depth.
func WithQueueDepth(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.QueueDepth = n
		}
	}
}

// ApplyOptions applies zero or more options to DefaultConfig.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
