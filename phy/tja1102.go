package phy

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/slackhq/enet/mac"
)

// ErrResetTimeout is returned by Init when the PHY does not leave reset.
var ErrResetTimeout = errors.New("timed out waiting for phy reset")

// resetPolls bounds the number of BASIC_CTRL reads while waiting for reset.
const resetPolls = 1000

// TJA1102 drives the NXP TJA1102 100BASE-T1 automotive transceiver. It has no
// auto-negotiation: a link is always 100 Mbit/s full duplex.
type TJA1102 struct {
	device
	poll bool
}

// NewTJA1102 creates a driver for the PHY at addr. An address of 32 or more
// selects [DefaultTJA1102Address]. With poll set the link is polled on every
// Tick; otherwise an external interrupt is expected to raise PHY events.
func NewTJA1102(l *logrus.Logger, smi SMI, link Link, addr uint8, poll bool) *TJA1102 {
	return &TJA1102{
		device: device{
			l:    l,
			smi:  smi,
			link: link,
			addr: addrOrDefault(addr, DefaultTJA1102Address),
		},
		poll: poll,
	}
}

func (p *TJA1102) Init() error {
	p.l.WithField("phyAddr", p.addr).Info("Initializing TJA1102")

	if err := p.reset(); err != nil {
		return err
	}

	p.dumpRegs()

	// Allow configuration register access
	v := p.read(TJA1102_EXTENDED_CTRL)
	p.write(TJA1102_EXTENDED_CTRL, v|TJA1102_EXTENDED_CTRL_CONFIG_EN)

	// Autonomous operation
	v = p.read(TJA1102_COMM_CTRL)
	p.write(TJA1102_COMM_CTRL, v|TJA1102_COMM_CTRL_AUTO_OP)

	// Evaluate the link state once the interface task runs
	p.link.RaisePhyEvent()
	return nil
}

// Tick polls the link status and raises a PHY event on a change.
func (p *TJA1102) Tick() {
	if !p.poll {
		return
	}

	up := p.read(TJA1102_BASIC_STAT)&TJA1102_BASIC_STAT_LINK_STATUS != 0
	if up != p.link.LinkState() {
		p.link.RaisePhyEvent()
	}
}

// EnableIrq is a no-op, the interrupt pin is not wired.
func (p *TJA1102) EnableIrq() {}

// DisableIrq is a no-op, the interrupt pin is not wired.
func (p *TJA1102) DisableIrq() {}

func (p *TJA1102) EventHandler() {
	if p.read(TJA1102_BASIC_STAT)&TJA1102_BASIC_STAT_LINK_STATUS != 0 {
		p.link.LinkUp(mac.LinkSpeed100, mac.FullDuplex)
	} else {
		p.link.LinkDown()
	}
}
