// Package phy drives Ethernet transceivers over the MAC management
// interface. Drivers report link changes to a [Link], normally the network
// interface, which in turn reconfigures the MAC.
package phy

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/slackhq/enet/hw"
	"github.com/slackhq/enet/mac"
)

// SMI is a Clause 22 management interface. mac.Driver implements it.
type SMI interface {
	WritePhyReg(opcode, phyAddr, regAddr uint8, data uint16) error
	ReadPhyReg(opcode, phyAddr, regAddr uint8) (uint16, error)
}

// Link is the side of the network interface a PHY driver talks to.
type Link interface {
	// LinkState is the link state the interface currently believes in.
	LinkState() bool
	// RaisePhyEvent schedules a call to the driver's EventHandler from the
	// interface task.
	RaisePhyEvent()
	// LinkUp and LinkDown report the result of an EventHandler pass.
	LinkUp(speed mac.LinkSpeed, duplex mac.DuplexMode)
	LinkDown()
}

// Driver is a PHY driver as seen by the network interface.
type Driver interface {
	mac.PhyDriver
	EventHandler()
}

// addrOrDefault treats addresses outside the 5-bit range as a request for the
// driver default.
func addrOrDefault(addr, def uint8) uint8 {
	if addr >= 32 {
		return def
	}
	return addr
}

// device bundles the management access shared by every driver.
type device struct {
	l    *logrus.Logger
	smi  SMI
	link Link
	addr uint8
}

func (d *device) write(reg uint8, v uint16) {
	if err := d.smi.WritePhyReg(hw.SMIOpcodeWrite, d.addr, reg, v); err != nil {
		d.l.WithError(err).WithField("phyAddr", d.addr).WithField("reg", reg).Error("Failed to write PHY register")
	}
}

func (d *device) read(reg uint8) uint16 {
	v, err := d.smi.ReadPhyReg(hw.SMIOpcodeRead, d.addr, reg)
	if err != nil {
		d.l.WithError(err).WithField("phyAddr", d.addr).WithField("reg", reg).Error("Failed to read PHY register")
		return 0
	}
	return v
}

// reset sets the reset bit in the basic control register and waits for the
// PHY to clear it. Management errors are returned as is.
func (d *device) reset() error {
	if err := d.smi.WritePhyReg(hw.SMIOpcodeWrite, d.addr, BMCR, BMCR_RESET); err != nil {
		return fmt.Errorf("failed to reset phy %d: %w", d.addr, err)
	}

	for i := 0; i < resetPolls; i++ {
		v, err := d.smi.ReadPhyReg(hw.SMIOpcodeRead, d.addr, BMCR)
		if err != nil {
			return fmt.Errorf("failed to read phy %d control register: %w", d.addr, err)
		}
		if v&BMCR_RESET == 0 {
			return nil
		}
	}
	return ErrResetTimeout
}

// dumpRegs logs every Clause 22 register at debug level.
func (d *device) dumpRegs() {
	if d.l.Level < logrus.DebugLevel {
		return
	}

	fields := make(logrus.Fields, 32)
	for i := uint8(0); i < 32; i++ {
		fields[fmt.Sprintf("reg%02X", i)] = d.read(i)
	}
	d.l.WithFields(fields).WithField("phyAddr", d.addr).Debug("PHY registers")
}
