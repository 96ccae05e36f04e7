//go:build linux

package sim

import (
	"context"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"github.com/songgao/water"
	"github.com/vishvananda/netlink"
)

// TapBackend attaches the simulated MAC to a host TAP interface. Frames the
// MAC transmits show up on the host interface and vice versa.
type TapBackend struct {
	l    *logrus.Logger
	intf *water.Interface
	mtu  int
}

// NewTapBackend creates (or attaches to) the TAP interface name, sets its MTU
// and hardware address, and brings it up. An empty name lets the kernel pick.
func NewTapBackend(l *logrus.Logger, name string, mtu int, hwAddr net.HardwareAddr) (*TapBackend, error) {
	cfg := water.Config{DeviceType: water.TAP}
	cfg.Name = name

	intf, err := water.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tap device %q: %w", name, err)
	}

	link, err := netlink.LinkByName(intf.Name())
	if err != nil {
		intf.Close()
		return nil, fmt.Errorf("failed to get tap device link: %w", err)
	}

	if mtu > 0 {
		if err = netlink.LinkSetMTU(link, mtu); err != nil {
			l.WithError(err).WithField("mtu", mtu).Warn("Failed to set tap device mtu")
		}
	}

	if len(hwAddr) == 6 {
		if err = netlink.LinkSetHardwareAddr(link, hwAddr); err != nil {
			l.WithError(err).Warn("Failed to set tap device hardware address")
		}
	}

	if err = netlink.LinkSetUp(link); err != nil {
		intf.Close()
		return nil, fmt.Errorf("failed to bring the tap device up: %w", err)
	}

	l.WithField("dev", intf.Name()).Info("Attached to tap device")
	return &TapBackend{l: l, intf: intf, mtu: mtu}, nil
}

// Name is the host interface name.
func (t *TapBackend) Name() string {
	return t.intf.Name()
}

func (t *TapBackend) Transmit(frame []byte) error {
	_, err := t.intf.Write(frame)
	return err
}

// Receive blocks in a read on the tap device. Cancelling ctx does not
// interrupt a read in progress; Close does.
func (t *TapBackend) Receive(ctx context.Context) ([]byte, error) {
	size := t.mtu + 18
	if size < 1536 {
		size = 1536
	}
	buf := make([]byte, size)

	n, err := t.intf.Read(buf)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return buf[:n], nil
}

func (t *TapBackend) Close() error {
	return t.intf.Close()
}
