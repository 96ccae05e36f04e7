package mac

import (
	"fmt"

	"github.com/slackhq/enet/hw"
)

// WritePhyReg performs a Clause 22 management write.
func (d *Driver) WritePhyReg(opcode, phyAddr, regAddr uint8, data uint16) error {
	if opcode != hw.SMIOpcodeWrite {
		// Only standard Clause 22 opcodes are supported by the MAC
		return fmt.Errorf("%w: %d", ErrUnsupportedOpcode, opcode)
	}

	frame := hw.MMFR_ST(1) | hw.MMFR_OP(uint32(hw.SMIOpcodeWrite)) | hw.MMFR_TA(2)
	frame |= hw.MMFR_PA(uint32(phyAddr))
	frame |= hw.MMFR_RA(uint32(regAddr))
	frame |= hw.MMFR_DATA(uint32(data))

	return d.mdioTransfer(frame)
}

// ReadPhyReg performs a Clause 22 management read.
func (d *Driver) ReadPhyReg(opcode, phyAddr, regAddr uint8) (uint16, error) {
	if opcode != hw.SMIOpcodeRead {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedOpcode, opcode)
	}

	frame := hw.MMFR_ST(1) | hw.MMFR_OP(uint32(hw.SMIOpcodeRead)) | hw.MMFR_TA(2)
	frame |= hw.MMFR_PA(uint32(phyAddr))
	frame |= hw.MMFR_RA(uint32(regAddr))

	if err := d.mdioTransfer(frame); err != nil {
		return 0, err
	}

	return uint16(d.regs.Read(hw.MMFR) & hw.MMFR_DATA_MASK), nil
}

func (d *Driver) mdioTransfer(frame uint32) error {
	d.regs.Write(hw.EIR, hw.EIR_MII)
	d.regs.Write(hw.MMFR, frame)

	if !d.waitFor(func() bool { return d.regs.Read(hw.EIR)&hw.EIR_MII != 0 }) {
		_, _, pa, ra, _, _ := hw.MMFRFields(frame)
		return fmt.Errorf("%w: phy %d register %d", ErrMdioTimeout, pa, ra)
	}
	return nil
}
