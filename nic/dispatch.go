package nic

import (
	"bytes"
	"context"
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/slackhq/enet/mac"
)

// Frame is a received frame handed to a [Handler]. The frame is owned by the
// handler.
type Frame struct {
	Ethernet  layers.Ethernet
	Data      []byte
	Ancillary mac.RxAncillary
}

// Handler consumes frames of one EtherType.
type Handler func(*Frame)

type rxFrame struct {
	data []byte
	anc  mac.RxAncillary
}

// Handle registers h for frames carrying EtherType t, replacing any previous
// handler.
func (i *Interface) Handle(t layers.EthernetType, h Handler) {
	i.handlersMu.Lock()
	i.handlers[uint16(t)] = h
	i.handlersMu.Unlock()
}

// HandleDefault registers h for every EtherType without a handler of its own.
func (i *Interface) HandleDefault(h Handler) {
	i.handlersMu.Lock()
	i.defHandler = h
	i.handlersMu.Unlock()
}

// ProcessPacket is called by the driver for every valid received frame, with
// the driver lock held. The frame is copied and delivered once the lock is
// released.
func (i *Interface) ProcessPacket(frame []byte, anc mac.RxAncillary) {
	i.rxQueue = append(i.rxQueue, rxFrame{data: bytes.Clone(frame), anc: anc})
}

func (i *Interface) dispatch(r rxFrame) {
	f := &Frame{Data: r.data, Ancillary: r.anc}
	if err := f.Ethernet.DecodeFromBytes(r.data, gopacket.NilDecodeFeedback); err != nil {
		i.metrics.rxMalformed.Inc(1)
		i.l.WithError(err).WithField("interface", i.name).Debug("Dropping malformed frame")
		return
	}

	t := f.Ethernet.EthernetType
	i.metrics.rxEtherType(t).Inc(1)

	i.handlersMu.RLock()
	h, ok := i.handlers[uint16(t)]
	if !ok {
		h = i.defHandler
	}
	i.handlersMu.RUnlock()

	if h == nil {
		i.metrics.rxUnhandled.Inc(1)
		return
	}
	h(f)
}

// SendEthernet builds an Ethernet frame from the interface address to dst and
// sends it. Short frames are padded to the minimum frame size.
func (i *Interface) SendEthernet(ctx context.Context, dst net.HardwareAddr, t layers.EthernetType, payload []byte) error {
	eth := &layers.Ethernet{
		SrcMAC:       i.MacAddr(),
		DstMAC:       dst,
		EthernetType: t,
	}

	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, eth, gopacket.Payload(payload)); err != nil {
		return fmt.Errorf("failed to serialize frame: %w", err)
	}

	return i.SendPacket(ctx, buf.Bytes())
}
