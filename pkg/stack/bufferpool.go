package stack

import "context"

// SessionBufferSize is the size of one pooled session buffer.
const SessionBufferSize = 4096

// BufferPool is a bounded pool of session buffers. Get suspends until
// a buffer is free, bounding the number of concurrent sessions.
type BufferPool struct {
	buffers chan []byte
}

// NewBufferPool creates a pool with n preallocated buffers.
func NewBufferPool(n int) *BufferPool {
	p := &BufferPool{buffers: make(chan []byte, n)}
	for i := 0; i < n; i++ {
		p.buffers <- make([]byte, SessionBufferSize)
	}
	return p
}

// Get takes a buffer from the pool, waiting until one is free or ctx
// is cancelled.
func (p *BufferPool) Get(ctx context.Context) ([]byte, error) {
	select {
	case buf := <-p.buffers:
		return buf, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Put returns a buffer to the pool.
func (p *BufferPool) Put(buf []byte) {
	select {
	case p.buffers <- buf:
	default:
	}
}

// Free returns the number of buffers currently available.
func (p *BufferPool) Free() int {
	return len(p.buffers)
}
