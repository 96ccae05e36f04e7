package enet

import (
	"context"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"github.com/slackhq/enet/config"
	"github.com/slackhq/enet/hw"
	"github.com/slackhq/enet/mac"
	"github.com/slackhq/enet/nic"
	"github.com/slackhq/enet/phy"
	"github.com/slackhq/enet/sim"
	"github.com/slackhq/enet/util"
	"go.yaml.in/yaml/v3"
)

// Main builds the whole stack from config: DMA memory, the simulated MAC and
// its wire, the MAC driver, the PHY and the network interface. Nothing runs
// until Control.Start is called.
func Main(c *config.C, configTest bool, buildVersion string, logger *logrus.Logger) (retcon *Control, reterr error) {
	ctx, cancel := context.WithCancel(context.Background())
	// Automatically cancel the context if Main returns an error, to signal all created goroutines to quit.
	defer func() {
		if reterr != nil {
			cancel()
		}
	}()

	l := logger
	l.Formatter = &logrus.TextFormatter{
		FullTimestamp: true,
	}

	// Print the config if in test, the exit comes later
	if configTest {
		b, err := yaml.Marshal(c.Settings)
		if err != nil {
			return nil, err
		}

		// Print the final config
		l.Println(string(b))
	}

	err := configLogger(l, c)
	if err != nil {
		return nil, util.ContextualizeIfNeeded("Failed to configure the logger", err)
	}

	c.RegisterReloadCallback(func(c *config.C) {
		err := configLogger(l, c)
		if err != nil {
			l.WithError(err).Error("Failed to configure the logger")
		}
	})

	addr, err := macAddrFromConfig(c)
	if err != nil {
		return nil, util.ContextualizeIfNeeded("Failed to load the station address", err)
	}

	filters, err := filtersFromConfig(c)
	if err != nil {
		return nil, util.ContextualizeIfNeeded("Failed to load the receive filter", err)
	}

	speed, duplex, err := linkFromConfig(c)
	if err != nil {
		return nil, util.ContextualizeIfNeeded("Failed to load the link mode", err)
	}

	maxRingLen, err := maxRingLengthFromConfig(c)
	if err != nil {
		return nil, util.ContextualizeIfNeeded("Failed to configure the simulated MAC", err)
	}

	settings := macSettingsFromConfig(c)
	arena, err := newArena(settings)
	if err != nil {
		return nil, util.NewContextualError("Failed to allocate DMA memory", map[string]any{"size": settings.arenaSize()}, err)
	}
	defer func() {
		if reterr != nil {
			arena.Close()
		}
	}()

	var backend sim.Backend
	if !configTest {
		backend, err = newBackend(l, c)
		if err != nil {
			return nil, util.ContextualizeIfNeeded("Failed to attach the simulated wire", err)
		}
	}

	dev := sim.NewDevice(l, arena, backend, sim.WithMaxRingLength(maxRingLen))
	defer func() {
		if reterr != nil {
			dev.Close()
		}
	}()

	iface, err := nic.NewInterface(l, c.GetString("interface.name", "enet0"), addr, nicOptionsFromConfig(c)...)
	if err != nil {
		return nil, util.ContextualizeIfNeeded("Failed to create the interface", err)
	}

	macOpts := append(macOptionsFromConfig(c, settings), mac.WithInterruptController(dev))
	drv, err := mac.NewDriver(l, dev, arena, iface, macOpts...)
	if err != nil {
		return nil, util.ContextualizeIfNeeded("Failed to create the MAC driver", err)
	}

	simPhy, ev, err := attachPhy(l, c, dev, drv, iface)
	if err != nil {
		return nil, util.ContextualizeIfNeeded("Failed to attach the PHY", err)
	}
	iface.Attach(drv, ev)

	dev.AttachIRQ(hw.IRQTx, drv.TxIRQHandler)
	dev.AttachIRQ(hw.IRQRx, drv.RxIRQHandler)
	dev.AttachIRQ(hw.IRQErr, drv.ErrIRQHandler)

	for _, a := range filters {
		if err = iface.AcceptMacAddr(a); err != nil {
			return nil, util.NewContextualError("Failed to accept filter address", map[string]any{"addr": a.String()}, err)
		}
	}
	iface.ForceLink(speed, duplex)

	wireReload(l, c, iface, filters)

	statsStart, err := startStats(l, c, buildVersion, configTest)
	if err != nil {
		return nil, util.ContextualizeIfNeeded("Failed to start stats emitter", err)
	}

	if configTest {
		cancel()
		arena.Close()
		return nil, nil
	}

	l.WithFields(logrus.Fields{
		"interface": iface.Name(),
		"mac":       addr.String(),
		"txRing":    settings.txRingSize,
		"rxRing":    settings.rxRingSize,
		"buffer":    settings.bufferSize,
	}).Info("Interface created")

	c.CatchHUP(ctx)

	return &Control{
		l:          l,
		ctx:        ctx,
		cancel:     cancel,
		iface:      iface,
		drv:        drv,
		dev:        dev,
		backend:    backend,
		phy:        simPhy,
		arena:      arena,
		statsStart: statsStart,
	}, nil
}

// attachPhy creates the PHY model on the simulated management bus and the
// matching driver. The returned sim PHY is nil when the link is not modeled
// by a transceiver.
func attachPhy(l *logrus.Logger, c *config.C, dev *sim.Device, drv *mac.Driver, iface *nic.Interface) (*sim.PHY, nic.EventHandler, error) {
	addr, err := phyAddrFromConfig(c)
	if err != nil {
		return nil, nil, err
	}
	poll := c.GetBool("phy.poll", true)
	linkUp := c.GetBool("sim.link_up", true)

	// The simulated transceiver straps to the address the driver resolves to
	busAddr := addr
	if busAddr >= 32 {
		busAddr = phy.DefaultTJA1102Address
	}

	switch t := c.GetString("phy.type", "tja1102"); t {
	case "tja1102":
		p := sim.NewTJA1102PHY()
		p.SetLink(linkUp)
		d := phy.NewTJA1102(l, drv, iface, addr, poll)
		dev.AttachPHY(busAddr, p)
		drv.AttachPhy(d)
		return p, d, nil

	case "generic":
		p := sim.NewPHY(0x0022, 0x1560)
		p.SetLink(linkUp)
		d := phy.NewGeneric(l, drv, iface, addr, poll)
		dev.AttachPHY(busAddr, p)
		drv.AttachPhy(d)
		return p, d, nil

	case "fixed":
		speed, duplex, err := linkFromConfig(c)
		if err != nil {
			return nil, nil, err
		}
		s := phy.NewFixed(l, iface, speed, duplex)
		drv.AttachSwitch(s)
		return nil, s, nil

	case "none":
		// Init fails without a transceiver, which is what an unpopulated board does
		return nil, nil, nil

	default:
		return nil, nil, fmt.Errorf("phy.type was not understood: %s", t)
	}
}

// wireReload applies the settings that can change without rebuilding the rings.
func wireReload(l *logrus.Logger, c *config.C, iface *nic.Interface, filters []net.HardwareAddr) {
	current := filters

	c.RegisterReloadCallback(func(c *config.C) {
		if !c.HasChanged("mac.filters") {
			return
		}

		next, err := filtersFromConfig(c)
		if err != nil {
			l.WithError(err).Error("Failed to reload mac.filters")
			return
		}

		for _, a := range current {
			if !containsAddr(next, a) {
				if err := iface.DropMacAddr(a); err != nil {
					l.WithError(err).WithField("addr", a.String()).Error("Failed to drop filter address")
				}
			}
		}
		for _, a := range next {
			if !containsAddr(current, a) {
				if err := iface.AcceptMacAddr(a); err != nil {
					l.WithError(err).WithField("addr", a.String()).Error("Failed to accept filter address")
				}
			}
		}
		current = next
		l.WithField("filters", len(current)).Info("Receive filter reloaded")
	})

	c.RegisterReloadCallback(func(c *config.C) {
		if !c.HasChanged("link") {
			return
		}

		speed, duplex, err := linkFromConfig(c)
		if err != nil {
			l.WithError(err).Error("Failed to reload the link mode")
			return
		}
		iface.ForceLink(speed, duplex)
	})

	c.RegisterReloadCallback(func(c *config.C) {
		if !c.HasChanged("mac.address") {
			return
		}

		addr, err := macAddrFromConfig(c)
		if err != nil {
			l.WithError(err).Error("Failed to reload mac.address")
			return
		}
		if err = iface.SetMacAddr(addr); err != nil {
			l.WithError(err).Error("Failed to apply the new station address")
		}
	})
}

func containsAddr(list []net.HardwareAddr, a net.HardwareAddr) bool {
	for _, b := range list {
		if b.String() == a.String() {
			return true
		}
	}
	return false
}
