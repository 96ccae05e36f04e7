//go:build linux

package sim

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"github.com/slackhq/enet/eventfd"
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// PacketBackend attaches the simulated MAC to an existing host interface
// through an AF_PACKET socket. Every frame seen by the host interface is
// offered to the MAC, which applies its own address filter.
type PacketBackend struct {
	l     *logrus.Logger
	fd    int
	ifidx int
	mtu   int

	wake   eventfd.EventFD
	wakeFD int
	epoll  eventfd.Epoll
}

func htons(v uint16) uint16 {
	return v<<8 | v>>8
}

// NewPacketBackend opens a raw packet socket bound to the host interface dev.
func NewPacketBackend(l *logrus.Logger, dev string) (*PacketBackend, error) {
	ifi, err := net.InterfaceByName(dev)
	if err != nil {
		return nil, fmt.Errorf("failed to find interface %q: %w", dev, err)
	}

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, int(htons(unix.ETH_P_ALL)))
	if err != nil {
		return nil, fmt.Errorf("failed to open packet socket: %w", err)
	}

	p := &PacketBackend{l: l, fd: fd, ifidx: ifi.Index, mtu: ifi.MTU}

	sa := &unix.SockaddrLinklayer{Protocol: htons(unix.ETH_P_ALL), Ifindex: ifi.Index}
	if err = unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to bind packet socket to %s: %w", dev, err)
	}

	if p.wake, err = eventfd.New(); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to create eventfd: %w", err)
	}
	p.wakeFD = p.wake.FD()

	if p.epoll, err = eventfd.NewEpoll(); err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to create epoll: %w", err), p.closeFDs())
	}

	if err = p.epoll.AddEvent(fd); err != nil {
		return nil, multierr.Append(err, p.closeFDs())
	}
	if err = p.epoll.AddEvent(p.wake.FD()); err != nil {
		return nil, multierr.Append(err, p.closeFDs())
	}

	l.WithField("dev", dev).WithField("ifindex", ifi.Index).Info("Attached to host interface")
	return p, nil
}

func (p *PacketBackend) Transmit(frame []byte) error {
	_, err := unix.Write(p.fd, frame)
	return err
}

// Receive waits on the socket and the wake eventfd. Close kicks the eventfd
// so a blocked Receive returns ErrClosed.
func (p *PacketBackend) Receive(ctx context.Context) ([]byte, error) {
	size := p.mtu + 18
	if size < 1536 {
		size = 1536
	}
	buf := make([]byte, size)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, _, err := unix.Recvfrom(p.fd, buf, 0)
		if err == nil {
			return buf[:n], nil
		}
		if !errors.Is(err, unix.EAGAIN) && !errors.Is(err, unix.EINTR) {
			return nil, err
		}

		fds, err := p.epoll.Block()
		if err != nil {
			return nil, err
		}
		for _, fd := range fds {
			if fd == p.wakeFD {
				return nil, ErrClosed
			}
		}
	}
}

func (p *PacketBackend) Close() error {
	return multierr.Append(p.wake.Kick(), p.closeFDs())
}

func (p *PacketBackend) closeFDs() error {
	return multierr.Combine(
		p.epoll.Close(),
		p.wake.Close(),
		unix.Close(p.fd),
	)
}
