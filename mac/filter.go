package mac

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/slackhq/enet/hw"
)

// HashTables is the 64-bit unicast and multicast filter, word 0 is the lower
// register.
type HashTables struct {
	Unicast   [2]uint32
	Multicast [2]uint32
}

// BuildHashTables folds every entry with a positive reference count into the
// unicast or multicast table, selected by the group bit of the address.
func BuildHashTables(entries []FilterEntry) HashTables {
	var t HashTables
	for _, e := range entries {
		if e.RefCount == 0 || len(e.Addr) != 6 {
			continue
		}

		k := hw.HashIndex(e.Addr)
		if e.Addr[0]&0x01 != 0 {
			t.Multicast[k/32] |= 1 << (k % 32)
		} else {
			t.Unicast[k/32] |= 1 << (k % 32)
		}
	}
	return t
}

// UpdateMacAddrFilter programs the station address and rebuilds both hash
// tables from the interface filter. The previous tables are overwritten.
func (d *Driver) UpdateMacAddrFilter() error {
	d.l.Debug("Updating MAC filter")

	d.writeStationAddress()

	t := BuildHashTables(d.nic.MacAddrFilter())

	d.regs.Write(hw.IALR, t.Unicast[0])
	d.regs.Write(hw.IAUR, t.Unicast[1])
	d.regs.Write(hw.GALR, t.Multicast[0])
	d.regs.Write(hw.GAUR, t.Multicast[1])

	if d.l.Level >= logrus.DebugLevel {
		d.l.WithFields(logrus.Fields{
			"IALR": fmt.Sprintf("%08X", d.regs.Read(hw.IALR)),
			"IAUR": fmt.Sprintf("%08X", d.regs.Read(hw.IAUR)),
			"GALR": fmt.Sprintf("%08X", d.regs.Read(hw.GALR)),
			"GAUR": fmt.Sprintf("%08X", d.regs.Read(hw.GAUR)),
		}).Debug("MAC filter updated")
	}

	return nil
}
