// Package compute implements the pluggable Compute Backend (C1): a thin
// interface abstraction over host memory and an optional device queue,
// so convolution algorithm code never branches on where its buffers live.
//
// The real GPU SDK choice (OpenCL, Metal, ...) is out of scope for this
// module; Backend is the seam a concrete adapter plugs into. HostBackend
// is the backend tan.NewContext uses by default. DeviceBackend is a
// reference software implementation of the same contract, useful for
// exercising the asynchronous queue semantics the convolution engine
// depends on without a real device present.
package compute

import "fmt"

// QueueKind distinguishes the two queues spec.md's C1 names: a general
// queue for housekeeping work (IR transforms, buffer copies during
// updates) and a dedicated convolution queue the audio thread's per-block
// kernels are enqueued on, so a slow update never blocks real-time audio
// work queued behind it.
type QueueKind int

const (
	// GeneralQueue carries update-worker housekeeping: IR transform
	// kernels, buffer copies, fills.
	GeneralQueue QueueKind = iota
	// ConvQueue carries the audio thread's per-block convolution kernels.
	ConvQueue
)

// BufferKind tags which storage a Buffer's data actually lives in.
type BufferKind int

const (
	// HostBuffer backs a Buffer with a plain Go slice.
	HostBuffer BufferKind = iota
	// DeviceBuffer backs a Buffer with an opaque device-side handle.
	DeviceBuffer
)

// Buffer is the opaque tagged handle Design Notes §9 calls for in place
// of a raw owning pointer: callers never type-switch on backend identity,
// only ask a Backend to operate on the Buffer it issued.
type Buffer struct {
	kind BufferKind
	host []float32
	dev  deviceHandle
	len  int
}

// Kind reports which storage backs the buffer.
func (b Buffer) Kind() BufferKind { return b.kind }

// Len reports the buffer's element count.
func (b Buffer) Len() int { return b.len }

// Kernel is a unit of work a Backend can enqueue. Host-side kernels are
// plain closures; device-side kernels are whatever the concrete adapter
// compiles them into (DeviceBackend's reference kernels are themselves
// closures run on a worker pool).
type Kernel func(args KernelArgs) error

// KernelArgs carries the buffers and scalars a Kernel operates over.
// Generalizes GraalConv's SetArgBuffer/SetArgScalar call-and-forget
// pattern into a single argument struct instead of stateful kernel state.
type KernelArgs struct {
	Buffers []Buffer
	Scalars []float64
}

// Backend is the interface abstraction spec.md §4.1 and Design Notes §9
// both call for: allocate/free, upload/download, buffer-to-buffer copy,
// fill, and kernel dispatch against one of two queues.
type Backend interface {
	// AllocBuffer reserves storage for n float32 elements.
	AllocBuffer(n int) (Buffer, error)
	// FreeBuffer releases storage associated with buf.
	FreeBuffer(buf Buffer) error
	// Upload copies host data into buf.
	Upload(buf Buffer, data []float32) error
	// Download copies buf's contents into dst.
	Download(dst []float32, buf Buffer) error
	// CopyBufferToBuffer copies src into dst, both backend-resident.
	CopyBufferToBuffer(dst, src Buffer) error
	// FillBuffer fills buf with value.
	FillBuffer(buf Buffer, value float32) error
	// EnqueueKernel submits k for execution on the given queue with args.
	EnqueueKernel(queue QueueKind, k Kernel, args KernelArgs) error
	// FinishQueue blocks until every kernel enqueued on queue has
	// completed.
	FinishQueue(queue QueueKind) error
	// FlushQueue requests that queued work start executing without
	// waiting for completion.
	FlushQueue(queue QueueKind) error
}

// ErrBufferKindMismatch is returned when an operation receives a Buffer
// whose Kind() does not match what the backend issuing the call expects.
var ErrBufferKindMismatch = fmt.Errorf("compute: buffer kind mismatch")
