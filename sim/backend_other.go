//go:build !linux

package sim

import (
	"errors"
	"net"

	"github.com/sirupsen/logrus"
)

var errUnsupported = errors.New("backend is only supported on linux")

// TapBackend is unavailable on this platform.
type TapBackend struct{ Backend }

func NewTapBackend(_ *logrus.Logger, _ string, _ int, _ net.HardwareAddr) (*TapBackend, error) {
	return nil, errUnsupported
}

// PacketBackend is unavailable on this platform.
type PacketBackend struct{ Backend }

func NewPacketBackend(_ *logrus.Logger, _ string) (*PacketBackend, error) {
	return nil, errUnsupported
}
