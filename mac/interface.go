package mac

import (
	"net"

	"github.com/slackhq/enet/dma"
)

// LinkSpeed is the negotiated link speed in Mbit/s.
type LinkSpeed int

const (
	LinkSpeedUnknown LinkSpeed = 0
	LinkSpeed10      LinkSpeed = 10
	LinkSpeed100     LinkSpeed = 100
	LinkSpeed1000    LinkSpeed = 1000
)

// DuplexMode is the negotiated duplex mode.
type DuplexMode int

const (
	DuplexUnknown DuplexMode = iota
	HalfDuplex
	FullDuplex
)

func (d DuplexMode) String() string {
	switch d {
	case HalfDuplex:
		return "half"
	case FullDuplex:
		return "full"
	default:
		return "unknown"
	}
}

// FilterEntry is one address accepted by the receive filter. Entries with a
// zero RefCount are ignored.
type FilterEntry struct {
	Addr     net.HardwareAddr
	RefCount uint
}

// RxAncillary carries the receive status flags that accompany a frame.
type RxAncillary struct {
	Broadcast bool
	Multicast bool
	// Miss is set when the frame was only accepted because the MAC is in
	// promiscuous mode.
	Miss bool
}

// Interface is the network interface the driver serves.
type Interface interface {
	MacAddr() net.HardwareAddr
	LinkSpeed() LinkSpeed
	DuplexMode() DuplexMode
	MacAddrFilter() []FilterEntry

	// ProcessPacket receives a frame. The slice is only valid for the duration
	// of the call.
	ProcessPacket(frame []byte, anc RxAncillary)

	// SignalTxReady tells the interface that a send can be attempted.
	SignalTxReady()

	// SignalEvent marks a pending driver event and wakes the task that calls
	// EventHandler. It is called from interrupt handlers and must not block.
	SignalEvent()
}

// PhyDriver is an Ethernet transceiver attached to the MAC.
type PhyDriver interface {
	Init() error
	Tick()
	EnableIrq()
	DisableIrq()
}

// SwitchDriver is an Ethernet switch attached to the MAC in place of a PHY.
type SwitchDriver interface {
	Init() error
	Tick()
	EnableIrq()
	DisableIrq()
}

// Memory hands out DMA visible memory.
type Memory interface {
	Alloc(size, align int) (dma.Region, error)
}
