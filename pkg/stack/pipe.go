package stack

import (
	"context"
	"time"

	"github.com/pion/transport/v3/packetio"
)

// Pipe returns two connected in-memory Conns. Frames written to one
// end are read from the other. Useful for loopback commissioning and
// deterministic tests without network I/O.
func Pipe() (Conn, Conn) {
	a2b := packetio.NewBuffer()
	b2a := packetio.NewBuffer()
	return &pipeConn{rx: b2a, tx: a2b}, &pipeConn{rx: a2b, tx: b2a}
}

// pipeConn is one end of an in-memory frame pipe. Each buffer write is
// one frame.
type pipeConn struct {
	rx *packetio.Buffer
	tx *packetio.Buffer
}

func (p *pipeConn) Send(ctx context.Context, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.tx.Write(payload)
	return err
}

func (p *pipeConn) Recv(ctx context.Context) ([]byte, error) {
	stop := p.watchCancel(ctx)
	defer stop()

	buf := make([]byte, MaxFrameSize)
	n, err := p.rx.Read(buf)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return buf[:n], nil
}

func (p *pipeConn) Close() error {
	p.tx.Close()
	return p.rx.Close()
}

// watchCancel expires the read deadline when ctx is cancelled so a
// blocked Recv returns.
func (p *pipeConn) watchCancel(ctx context.Context) func() {
	if ctx.Done() == nil {
		return func() {}
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		select {
		case <-ctx.Done():
			p.rx.SetReadDeadline(time.Now())
		case <-done:
		}
	}()
	return func() {
		close(done)
		<-finished
		p.rx.SetReadDeadline(time.Time{})
	}
}
