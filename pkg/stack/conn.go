package stack

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

// MaxFrameSize is the largest frame Send accepts and Recv returns.
const MaxFrameSize = SessionBufferSize

// ErrFrameTooLarge indicates a frame above MaxFrameSize.
var ErrFrameTooLarge = errors.New("stack: frame too large")

// StreamConn frames payloads over a stream connection with a 16-bit
// big-endian length prefix. It adapts any net.Conn, including in-memory
// test bridges, to the Conn contract.
type StreamConn struct {
	c net.Conn

	readMu  sync.Mutex
	writeMu sync.Mutex
}

// NewStreamConn wraps c.
func NewStreamConn(c net.Conn) *StreamConn {
	return &StreamConn{c: c}
}

// Send implements Conn.
func (s *StreamConn) Send(ctx context.Context, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return ErrFrameTooLarge
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	stop := watchCancel(ctx, s.c)
	defer stop()

	var header [2]byte
	binary.BigEndian.PutUint16(header[:], uint16(len(payload)))
	if _, err := s.c.Write(header[:]); err != nil {
		return connErr(ctx, err)
	}
	if _, err := s.c.Write(payload); err != nil {
		return connErr(ctx, err)
	}
	return nil
}

// Recv implements Conn.
func (s *StreamConn) Recv(ctx context.Context) ([]byte, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	stop := watchCancel(ctx, s.c)
	defer stop()

	var header [2]byte
	if _, err := io.ReadFull(s.c, header[:]); err != nil {
		return nil, connErr(ctx, err)
	}
	length := binary.BigEndian.Uint16(header[:])
	if int(length) > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(s.c, payload); err != nil {
		return nil, connErr(ctx, err)
	}
	return payload, nil
}

// Close implements Conn.
func (s *StreamConn) Close() error {
	return s.c.Close()
}

// PacketConn adapts a net.PacketConn to the Conn contract for a single
// peer. Recv accepts datagrams from anyone and remembers the latest
// sender; Send replies to that sender.
type PacketConn struct {
	pc net.PacketConn

	mu   sync.Mutex
	peer net.Addr
}

// NewPacketConn wraps pc.
func NewPacketConn(pc net.PacketConn) *PacketConn {
	return &PacketConn{pc: pc}
}

// Send implements Conn.
func (p *PacketConn) Send(ctx context.Context, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return ErrFrameTooLarge
	}

	p.mu.Lock()
	peer := p.peer
	p.mu.Unlock()
	if peer == nil {
		return errors.New("stack: no peer to send to")
	}

	stop := watchCancel(ctx, p.pc)
	defer stop()

	if _, err := p.pc.WriteTo(payload, peer); err != nil {
		return connErr(ctx, err)
	}
	return nil
}

// Recv implements Conn.
func (p *PacketConn) Recv(ctx context.Context) ([]byte, error) {
	stop := watchCancel(ctx, p.pc)
	defer stop()

	buf := make([]byte, MaxFrameSize)
	n, addr, err := p.pc.ReadFrom(buf)
	if err != nil {
		return nil, connErr(ctx, err)
	}

	p.mu.Lock()
	p.peer = addr
	p.mu.Unlock()

	return buf[:n], nil
}

// Close implements Conn.
func (p *PacketConn) Close() error {
	return p.pc.Close()
}

// deadliner is the common deadline surface of net.Conn and
// net.PacketConn.
type deadliner interface {
	SetDeadline(t time.Time) error
}

// watchCancel expires the connection deadline when ctx is cancelled so
// a blocked read or write returns. The returned stop function must be
// called once the operation finishes.
func watchCancel(ctx context.Context, c deadliner) func() {
	if ctx.Done() == nil {
		return func() {}
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		select {
		case <-ctx.Done():
			c.SetDeadline(time.Now())
		case <-done:
		}
	}()
	return func() {
		close(done)
		<-finished
		// Reset the deadline for the next operation.
		c.SetDeadline(time.Time{})
	}
}

// connErr maps a deadline expiry caused by cancellation back to the
// context error.
func connErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
