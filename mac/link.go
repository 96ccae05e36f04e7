package mac

import (
	"github.com/sirupsen/logrus"
	"github.com/slackhq/enet/hw"
)

// UpdateMacConfig applies the interface link speed and duplex mode. The MAC
// is disabled while the registers change and both rings are re-initialized,
// dropping anything in flight.
func (d *Driver) UpdateMacConfig() error {
	speed := d.nic.LinkSpeed()
	duplex := d.nic.DuplexMode()

	d.clearBits(hw.ECR, hw.ECR_ETHEREN)

	rcr := d.regs.Read(hw.RCR)
	tcr := d.regs.Read(hw.TCR)

	if speed == LinkSpeed100 {
		rcr &^= hw.RCR_RMII_10T
	} else {
		rcr |= hw.RCR_RMII_10T
	}

	if duplex == FullDuplex {
		tcr |= hw.TCR_FDEN
		// Receive path operates independently of transmit
		rcr &^= hw.RCR_DRT
	} else {
		tcr &^= hw.TCR_FDEN
		// No reception while transmitting
		rcr |= hw.RCR_DRT
	}

	d.regs.Write(hw.RCR, rcr)
	d.regs.Write(hw.TCR, tcr)

	d.initBufferDesc()

	d.setBits(hw.ECR, hw.ECR_ETHEREN)
	d.regs.Write(hw.RDAR, hw.DAR_ACTIVE)
	d.nic.SignalTxReady()

	d.l.WithFields(logrus.Fields{"speed": int(speed), "duplex": duplex}).Info("MAC configuration updated")

	return nil
}
