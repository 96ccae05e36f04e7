package nic

import (
	"github.com/sirupsen/logrus"
	"github.com/slackhq/enet/mac"
)

// LinkChange describes a transition of the link state.
type LinkChange struct {
	Up     bool
	Speed  mac.LinkSpeed
	Duplex mac.DuplexMode
}

// LinkListener is called from the interface task after the link changed.
type LinkListener func(LinkChange)

// OnLinkChange registers a listener for link transitions.
func (i *Interface) OnLinkChange(fn LinkListener) {
	i.handlersMu.Lock()
	i.linkListeners = append(i.linkListeners, fn)
	i.handlersMu.Unlock()
}

func (i *Interface) LinkState() bool {
	return i.linkState.Load()
}

func (i *Interface) LinkSpeed() mac.LinkSpeed {
	return mac.LinkSpeed(i.speed.Load())
}

func (i *Interface) DuplexMode() mac.DuplexMode {
	return mac.DuplexMode(i.duplex.Load())
}

// LinkUp records the negotiated mode, reconfigures the MAC and marks the link
// up. A forced speed or duplex mode overrides what the PHY reported. It is
// called by the PHY event handler, with the driver lock held.
func (i *Interface) LinkUp(speed mac.LinkSpeed, duplex mac.DuplexMode) {
	if fs := mac.LinkSpeed(i.forcedSpeed.Load()); fs != mac.LinkSpeedUnknown {
		speed = fs
	}
	if fd := mac.DuplexMode(i.forcedDuplex.Load()); fd != mac.DuplexUnknown {
		duplex = fd
	}

	i.speed.Store(int32(speed))
	i.duplex.Store(int32(duplex))

	if err := i.drv.UpdateMacConfig(); err != nil {
		i.l.WithError(err).WithField("interface", i.name).Error("Failed to update MAC configuration")
	}

	i.setLinkState(true)
}

// LinkDown marks the link down. It is called by the PHY event handler, with
// the driver lock held.
func (i *Interface) LinkDown() {
	i.setLinkState(false)
}

// ForceLink overrides the speed and duplex mode applied on link up. Unknown
// values leave the negotiated value in place. When the link is already up the
// MAC is reconfigured immediately.
func (i *Interface) ForceLink(speed mac.LinkSpeed, duplex mac.DuplexMode) {
	i.forcedSpeed.Store(int32(speed))
	i.forcedDuplex.Store(int32(duplex))

	if !i.LinkState() {
		return
	}

	i.mu.Lock()
	if i.drv == nil {
		i.mu.Unlock()
		return
	}
	if speed != mac.LinkSpeedUnknown {
		i.speed.Store(int32(speed))
	}
	if duplex != mac.DuplexUnknown {
		i.duplex.Store(int32(duplex))
	}
	if err := i.drv.UpdateMacConfig(); err != nil {
		i.l.WithError(err).WithField("interface", i.name).Error("Failed to update MAC configuration")
	}
	i.mu.Unlock()

	i.l.WithFields(logrus.Fields{
		"interface": i.name,
		"speed":     int(i.LinkSpeed()),
		"duplex":    i.DuplexMode(),
	}).Info("Forced link mode applied")
}

// setLinkState requires i.mu.
func (i *Interface) setLinkState(up bool) {
	if i.linkState.Swap(up) == up {
		return
	}

	i.metrics.linkChanges.Inc(1)
	i.linkQueue = append(i.linkQueue, LinkChange{
		Up:     up,
		Speed:  i.LinkSpeed(),
		Duplex: i.DuplexMode(),
	})
}

func (i *Interface) notifyLinkChange(c LinkChange) {
	if c.Up {
		i.l.WithFields(logrus.Fields{
			"interface": i.name,
			"speed":     int(c.Speed),
			"duplex":    c.Duplex,
		}).Info("Link is up")
	} else {
		i.l.WithField("interface", i.name).Info("Link is down")
	}

	i.handlersMu.RLock()
	listeners := i.linkListeners
	i.handlersMu.RUnlock()

	for _, fn := range listeners {
		fn(c)
	}
}
