package phy

import (
	"github.com/sirupsen/logrus"
	"github.com/slackhq/enet/mac"
)

// Fixed is a switch port or MAC-to-MAC connection without a manageable PHY.
// The link is reported up at a fixed mode as soon as the MAC is initialized.
// It satisfies [mac.SwitchDriver].
type Fixed struct {
	l      *logrus.Logger
	link   Link
	speed  mac.LinkSpeed
	duplex mac.DuplexMode
}

func NewFixed(l *logrus.Logger, link Link, speed mac.LinkSpeed, duplex mac.DuplexMode) *Fixed {
	if speed == mac.LinkSpeedUnknown {
		speed = mac.LinkSpeed100
	}
	if duplex == mac.DuplexUnknown {
		duplex = mac.FullDuplex
	}
	return &Fixed{l: l, link: link, speed: speed, duplex: duplex}
}

func (f *Fixed) Init() error {
	f.l.WithFields(logrus.Fields{"speed": int(f.speed), "duplex": f.duplex}).Info("Initializing fixed link")
	f.link.RaisePhyEvent()
	return nil
}

func (f *Fixed) Tick()       {}
func (f *Fixed) EnableIrq()  {}
func (f *Fixed) DisableIrq() {}

func (f *Fixed) EventHandler() {
	f.link.LinkUp(f.speed, f.duplex)
}
