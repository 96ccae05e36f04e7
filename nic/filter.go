package nic

import (
	"bytes"
	"fmt"
	"net"

	"github.com/slackhq/enet/mac"
)

// AcceptMacAddr adds addr to the receive filter, or takes another reference on
// it when it is already there.
func (i *Interface) AcceptMacAddr(addr net.HardwareAddr) error {
	if len(addr) != 6 {
		return fmt.Errorf("mac address %q is not 6 bytes", addr.String())
	}

	i.stateMu.Lock()
	found := false
	for k := range i.filter {
		if bytes.Equal(i.filter[k].Addr, addr) {
			i.filter[k].RefCount++
			found = true
			break
		}
	}
	if !found {
		i.filter = append(i.filter, mac.FilterEntry{
			Addr:     append(net.HardwareAddr(nil), addr...),
			RefCount: 1,
		})
	}
	i.stateMu.Unlock()

	return i.updateFilter()
}

// DropMacAddr releases one reference on addr. The entry leaves the filter
// when its last reference is dropped. Unknown addresses are ignored.
func (i *Interface) DropMacAddr(addr net.HardwareAddr) error {
	i.stateMu.Lock()
	changed := false
	for k := range i.filter {
		if !bytes.Equal(i.filter[k].Addr, addr) {
			continue
		}
		changed = true
		i.filter[k].RefCount--
		if i.filter[k].RefCount == 0 {
			i.filter = append(i.filter[:k], i.filter[k+1:]...)
		}
		break
	}
	i.stateMu.Unlock()

	if !changed {
		return nil
	}
	return i.updateFilter()
}

// MacAddrFilter returns a copy of the filter table.
func (i *Interface) MacAddrFilter() []mac.FilterEntry {
	i.stateMu.RLock()
	defer i.stateMu.RUnlock()

	out := make([]mac.FilterEntry, len(i.filter))
	for k, e := range i.filter {
		out[k] = mac.FilterEntry{Addr: append(net.HardwareAddr(nil), e.Addr...), RefCount: e.RefCount}
	}
	return out
}

func (i *Interface) updateFilter() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.drv == nil {
		return nil
	}
	return i.drv.UpdateMacAddrFilter()
}
