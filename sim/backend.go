package sim

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by a backend that has been closed.
var ErrClosed = errors.New("backend closed")

// Backend is the wire the simulated MAC is attached to.
type Backend interface {
	// Transmit sends a frame. It must not retain frame.
	Transmit(frame []byte) error
	// Receive blocks until a frame arrives from the wire.
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// Pipe is an in-memory wire. Frames transmitted by the MAC appear on Sent, and
// frames passed to Deliver are received by the MAC.
type Pipe struct {
	sent      chan []byte
	delivered chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

// NewPipe creates a pipe buffering up to depth frames in each direction.
func NewPipe(depth int) *Pipe {
	return &Pipe{
		sent:      make(chan []byte, depth),
		delivered: make(chan []byte, depth),
		closed:    make(chan struct{}),
	}
}

// Transmit never blocks; frames are dropped when nobody drains Sent.
func (p *Pipe) Transmit(frame []byte) error {
	select {
	case <-p.closed:
		return ErrClosed
	default:
	}

	select {
	case p.sent <- append([]byte(nil), frame...):
	default:
	}
	return nil
}

func (p *Pipe) Receive(ctx context.Context) ([]byte, error) {
	select {
	case f := <-p.delivered:
		return f, nil
	case <-p.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Sent yields the frames transmitted by the MAC.
func (p *Pipe) Sent() <-chan []byte {
	return p.sent
}

// Deliver queues a frame for the MAC to receive.
func (p *Pipe) Deliver(ctx context.Context, frame []byte) error {
	select {
	case p.delivered <- frame:
		return nil
	case <-p.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipe) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}

// Loopback returns every transmitted frame to the receiver.
type Loopback struct {
	p *Pipe
}

func NewLoopback(depth int) *Loopback {
	return &Loopback{p: NewPipe(depth)}
}

func (lb *Loopback) Transmit(frame []byte) error {
	select {
	case lb.p.delivered <- append([]byte(nil), frame...):
	case <-lb.p.closed:
		return ErrClosed
	default:
		// Wire is congested, the frame is lost
	}
	return nil
}

func (lb *Loopback) Receive(ctx context.Context) ([]byte, error) {
	return lb.p.Receive(ctx)
}

func (lb *Loopback) Close() error {
	return lb.p.Close()
}
