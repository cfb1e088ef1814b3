package samplebuffer

import "sync"

// Pool provides sync.Pool-based Buffer reuse, keeping per-block scratch
// buffers (crossfade shadow passes, head-tail tail accumulators) off the
// GC's radar in the audio thread's hot path.
type Pool struct {
	pool sync.Pool
}

// NewPool returns a Pool ready for use.
func NewPool() *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any { return &Buffer{} },
		},
	}
}

// Get returns a Buffer with numChannels channels of length samples each,
// zeroed. Callers must return it via Put when done.
func (p *Pool) Get(numChannels, length int) *Buffer {
	b := p.pool.Get().(*Buffer)

	if b.NumChannels() != numChannels {
		b.channels = make([][]float32, numChannels)
	}

	b.Resize(length)
	b.Zero()

	return b
}

// Put returns a Buffer to the pool for reuse. The caller must not use it
// afterward.
func (p *Pool) Put(b *Buffer) {
	if b == nil {
		return
	}

	p.pool.Put(b)
}
