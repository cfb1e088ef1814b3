package compute

// deviceHandle is opaque outside this package; HostBackend never
// populates it.
type deviceHandle struct {
	id int
}

// HostBackend executes everything on plain Go slices, synchronously.
// Queues are drained in FIFO order by FinishQueue; FlushQueue is a no-op
// since there is nothing asynchronous to kick off.
type HostBackend struct {
	general []queuedKernel
	conv    []queuedKernel
}

type queuedKernel struct {
	k    Kernel
	args KernelArgs
}

// NewHostBackend creates a Backend that runs all work on the calling
// goroutine's stack, in plain host memory.
func NewHostBackend() *HostBackend {
	return &HostBackend{}
}

// AllocBuffer reserves a zeroed host slice of n elements.
func (h *HostBackend) AllocBuffer(n int) (Buffer, error) {
	return Buffer{kind: HostBuffer, host: make([]float32, n), len: n}, nil
}

// FreeBuffer drops the backing slice reference (the GC reclaims it).
func (h *HostBackend) FreeBuffer(buf Buffer) error {
	return nil
}

// Upload copies data into buf's host slice.
func (h *HostBackend) Upload(buf Buffer, data []float32) error {
	if buf.kind != HostBuffer {
		return ErrBufferKindMismatch
	}

	copy(buf.host, data)

	return nil
}

// Download copies buf's host slice into dst.
func (h *HostBackend) Download(dst []float32, buf Buffer) error {
	if buf.kind != HostBuffer {
		return ErrBufferKindMismatch
	}

	copy(dst, buf.host)

	return nil
}

// CopyBufferToBuffer copies src's contents into dst.
func (h *HostBackend) CopyBufferToBuffer(dst, src Buffer) error {
	if dst.kind != HostBuffer || src.kind != HostBuffer {
		return ErrBufferKindMismatch
	}

	copy(dst.host, src.host)

	return nil
}

// FillBuffer fills buf's host slice with value.
func (h *HostBackend) FillBuffer(buf Buffer, value float32) error {
	if buf.kind != HostBuffer {
		return ErrBufferKindMismatch
	}

	for i := range buf.host {
		buf.host[i] = value
	}

	return nil
}

// EnqueueKernel appends k to the named queue's pending list.
func (h *HostBackend) EnqueueKernel(queue QueueKind, k Kernel, args KernelArgs) error {
	q := h.queueFor(queue)
	*q = append(*q, queuedKernel{k: k, args: args})

	return nil
}

// FinishQueue runs every pending kernel on queue, in order, and clears it.
func (h *HostBackend) FinishQueue(queue QueueKind) error {
	q := h.queueFor(queue)
	for _, qk := range *q {
		if err := qk.k(qk.args); err != nil {
			*q = nil
			return err
		}
	}

	*q = nil

	return nil
}

// FlushQueue is a no-op: HostBackend has nothing to kick off
// asynchronously.
func (h *HostBackend) FlushQueue(queue QueueKind) error {
	return nil
}

func (h *HostBackend) queueFor(queue QueueKind) *[]queuedKernel {
	if queue == ConvQueue {
		return &h.conv
	}

	return &h.general
}
