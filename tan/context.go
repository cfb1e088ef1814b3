package tan

import (
	"fmt"

	"github.com/cwbudde/tanconv/internal/compute"
	"github.com/cwbudde/tanconv/internal/transform"
)

// Context owns the shared, process-independent resources a set of
// Convolution instances draw on: the compute backend (C1) and the
// transform engine (C2). CPU features for the complex-math kernels are
// not carried here: internal/complexmath detects them once per process.
type Context struct {
	backend  compute.Backend
	transform *transform.Engine
}

// NewContext creates a Context backed by HostBackend. The convolution
// algorithms in this module run on the host and do not call the
// backend; Backend returns it for callers that use it. A caller
// integrating a real GPU adapter constructs its own compute.Backend
// implementation and passes it to NewContextWithBackend instead.
func NewContext() *Context {
	return NewContextWithBackend(compute.NewHostBackend())
}

// NewContextWithBackend creates a Context over an arbitrary Backend,
// e.g. a real OpenCL/Metal adapter implementing compute.Backend.
func NewContextWithBackend(backend compute.Backend) *Context {
	return &Context{
		backend:   backend,
		transform: transform.NewEngine(),
	}
}

// SelfTest runs the transform engine's FFT round-trip sanity check at a
// representative size, mirroring AMD TAN's MathImpl startup self-test.
// Intended to be called once at startup, never on the audio thread.
func (c *Context) SelfTest() error {
	const testSize = 1024

	if err := c.transform.SelfTest(testSize, 1e-6); err != nil {
		return fmt.Errorf("%w: %v", ErrComputeFailure, err)
	}

	return nil
}

// Backend returns the compute backend this context was constructed with.
func (c *Context) Backend() compute.Backend { return c.backend }
