package phy

import (
	"github.com/sirupsen/logrus"
	"github.com/slackhq/enet/mac"
)

// Generic drives any IEEE 802.3 Clause 22 PHY through the standard register
// set, resolving the link from the auto-negotiation result.
type Generic struct {
	device
	poll bool
}

func NewGeneric(l *logrus.Logger, smi SMI, link Link, addr uint8, poll bool) *Generic {
	return &Generic{
		device: device{
			l:    l,
			smi:  smi,
			link: link,
			addr: addrOrDefault(addr, 0),
		},
		poll: poll,
	}
}

func (p *Generic) Init() error {
	id1 := p.read(PHYID1)
	id2 := p.read(PHYID2)
	p.l.WithFields(logrus.Fields{"phyAddr": p.addr, "id1": id1, "id2": id2}).Info("Initializing PHY")

	if err := p.reset(); err != nil {
		return err
	}

	p.dumpRegs()

	p.write(ANAR, AN_100BTX_FD|AN_100BTX_HD|AN_10BT_FD|AN_10BT_HD|AN_SELECTOR)
	p.write(BMCR, BMCR_AN_EN|BMCR_RESTART_AN)

	p.link.RaisePhyEvent()
	return nil
}

func (p *Generic) Tick() {
	if !p.poll {
		return
	}

	up := p.read(BMSR)&BMSR_LINK_STATUS != 0
	if up != p.link.LinkState() {
		p.link.RaisePhyEvent()
	}
}

func (p *Generic) EnableIrq()  {}
func (p *Generic) DisableIrq() {}

func (p *Generic) EventHandler() {
	if p.read(BMSR)&BMSR_LINK_STATUS == 0 {
		p.link.LinkDown()
		return
	}

	speed, duplex := p.resolve()
	p.link.LinkUp(speed, duplex)
}

// resolve picks the highest common mode of our and the partner's
// advertisement, or the forced mode when auto-negotiation is off.
func (p *Generic) resolve() (mac.LinkSpeed, mac.DuplexMode) {
	bmcr := p.read(BMCR)
	if bmcr&BMCR_AN_EN == 0 {
		speed := mac.LinkSpeed10
		if bmcr&BMCR_SPEED_SEL_LSB != 0 {
			speed = mac.LinkSpeed100
		}
		duplex := mac.HalfDuplex
		if bmcr&BMCR_DUPLEX_MODE != 0 {
			duplex = mac.FullDuplex
		}
		return speed, duplex
	}

	common := p.read(ANAR) & p.read(ANLPAR)
	switch {
	case common&AN_100BTX_FD != 0:
		return mac.LinkSpeed100, mac.FullDuplex
	case common&AN_100BTX_HD != 0:
		return mac.LinkSpeed100, mac.HalfDuplex
	case common&AN_10BT_FD != 0:
		return mac.LinkSpeed10, mac.FullDuplex
	default:
		return mac.LinkSpeed10, mac.HalfDuplex
	}
}
