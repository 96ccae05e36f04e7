package sim

import "sync"

// MDIODevice is a register file reachable over the management bus.
type MDIODevice interface {
	ReadReg(reg uint8) uint16
	WriteReg(reg uint8, value uint16)
}

// Clause 22 registers the PHY model gives behavior to.
const (
	regBMCR   = 0x00
	regBMSR   = 0x01
	regPHYID1 = 0x02
	regPHYID2 = 0x03
	regANAR   = 0x04
	regANLPAR = 0x05

	bmcrReset = 0x8000
	bmcrANEN  = 0x1000

	bmsrLinkStatus  = 0x0004
	bmsrANAbility   = 0x0008
	bmsrANComplete  = 0x0020
	bmsrCapabilites = 0x7800 // 100FD, 100HD, 10FD, 10HD
)

// PHY models a Clause 22 transceiver. The link is driven by the test or the
// daemon through SetLink.
type PHY struct {
	mu       sync.Mutex
	regs     [32]uint16
	defaults [32]uint16

	link    bool
	partner uint16

	// resetReads is the number of BMCR reads that still report the reset bit.
	resetReads int
}

// NewPHY returns a PHY with the given identifier and Clause 22 defaults. The
// link partner advertises 100BASE-TX full duplex.
func NewPHY(id1, id2 uint16) *PHY {
	p := &PHY{partner: 0x0100 | 0x0001}
	p.defaults[regBMCR] = bmcrANEN
	p.defaults[regPHYID1] = id1
	p.defaults[regPHYID2] = id2
	// 100FD, 100HD, 10FD, 10HD and selector 802.3
	p.defaults[regANAR] = 0x01E1
	p.regs = p.defaults
	return p
}

// NewTJA1102PHY returns a PHY answering with the TJA1102 identifier. The
// configuration and common control registers start cleared.
func NewTJA1102PHY() *PHY {
	p := NewPHY(0x0180, 0xDC80)
	// 100BASE-T1 has no auto-negotiation
	p.defaults[regBMCR] = 0x2100
	p.regs = p.defaults
	return p
}

func (p *PHY) ReadReg(reg uint8) uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()

	reg &= 0x1F
	switch reg {
	case regBMCR:
		v := p.regs[regBMCR]
		if p.resetReads > 0 {
			p.resetReads--
			return v | bmcrReset
		}
		return v
	case regBMSR:
		v := uint16(bmsrCapabilites | bmsrANAbility)
		if p.link {
			v |= bmsrLinkStatus
			if p.regs[regBMCR]&bmcrANEN != 0 {
				v |= bmsrANComplete
			}
		}
		return v
	case regANLPAR:
		if p.link {
			return p.partner
		}
		return 0
	}
	return p.regs[reg]
}

func (p *PHY) WriteReg(reg uint8, value uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()

	reg &= 0x1F
	switch reg {
	case regBMCR:
		if value&bmcrReset != 0 {
			p.regs = p.defaults
			p.resetReads = 1
			return
		}
		p.regs[regBMCR] = value
	case regBMSR, regPHYID1, regPHYID2, regANLPAR:
		// Read only
	default:
		p.regs[reg] = value
	}
}

// SetLink changes the state of the cable.
func (p *PHY) SetLink(up bool) {
	p.mu.Lock()
	p.link = up
	p.mu.Unlock()
}

// SetPartner sets the abilities the link partner advertises in ANLPAR.
func (p *PHY) SetPartner(abilities uint16) {
	p.mu.Lock()
	p.partner = abilities
	p.mu.Unlock()
}

// Reg returns a register without read side effects.
func (p *PHY) Reg(reg uint8) uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.regs[reg&0x1F]
}
