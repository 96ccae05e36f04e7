package enet

import (
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"github.com/slackhq/enet/config"
	"github.com/slackhq/enet/sim"
)

// newBackend builds the wire the simulated MAC is attached to. A nil backend
// discards every transmitted frame and never receives.
func newBackend(l *logrus.Logger, c *config.C) (sim.Backend, error) {
	switch t := c.GetString("backend.type", "loopback"); t {
	case "none":
		return nil, nil

	case "loopback":
		return sim.NewLoopback(c.GetInt("backend.queue", 64)), nil

	case "pipe":
		// The far end is driven through Control.Wire
		return sim.NewPipe(c.GetInt("backend.queue", 64)), nil

	case "tap":
		var hwAddr net.HardwareAddr
		if raw := c.GetString("backend.mac", ""); raw != "" {
			a, err := net.ParseMAC(raw)
			if err != nil {
				return nil, fmt.Errorf("backend.mac is invalid: %w", err)
			}
			hwAddr = a
		}

		tb, err := sim.NewTapBackend(l, c.GetString("backend.dev", ""), c.GetInt("backend.mtu", 1500), hwAddr)
		if err != nil {
			return nil, err
		}
		return tb, nil

	case "packet":
		dev := c.GetString("backend.dev", "")
		if dev == "" {
			return nil, fmt.Errorf("backend.dev must be set for a packet backend")
		}
		pb, err := sim.NewPacketBackend(l, dev)
		if err != nil {
			return nil, err
		}
		return pb, nil

	default:
		return nil, fmt.Errorf("backend.type was not understood: %s", t)
	}
}
