//go:build e2e_testing
// +build e2e_testing

package router

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/slackhq/enet"
	"github.com/slackhq/enet/sim"
)

// R is a hub: every frame a station transmits is offered to every other
// station, whose MAC filter decides whether it is received.
type R struct {
	stations map[string]*station

	// All interactions are locked to help serialize behavior
	sync.Mutex
	flow []FlowEntry

	cancel context.CancelFunc
	wg     sync.WaitGroup
	t      testing.TB
}

type station struct {
	name string
	c    *enet.Control
	wire *sim.Pipe
}

// FlowEntry is one frame that crossed the hub.
type FlowEntry struct {
	From      string
	Src       net.HardwareAddr
	Dst       net.HardwareAddr
	EtherType layers.EthernetType
	Len       int
}

func (f FlowEntry) String() string {
	return fmt.Sprintf("%s: %s -> %s %s (%d bytes)", f.From, f.Src, f.Dst, f.EtherType, f.Len)
}

// NewR connects the named controls to a hub. Every control must use a pipe
// backend.
func NewR(t testing.TB, controls map[string]*enet.Control) *R {
	ctx, cancel := context.WithCancel(context.Background())

	r := &R{
		stations: make(map[string]*station),
		cancel:   cancel,
		t:        t,
	}

	for name, c := range controls {
		wire := c.Wire()
		if wire == nil {
			panic("Control " + name + " is not attached to a pipe backend")
		}
		r.stations[name] = &station{name: name, c: c, wire: wire}
	}

	for _, s := range r.stations {
		r.wg.Add(1)
		go r.forward(ctx, s)
	}

	t.Cleanup(r.Stop)
	return r
}

func (r *R) forward(ctx context.Context, from *station) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-from.wire.Sent():
			r.record(from.name, frame)

			for _, to := range r.stations {
				if to == from {
					continue
				}
				if err := to.wire.Deliver(ctx, append([]byte(nil), frame...)); err != nil {
					return
				}
			}
		}
	}
}

func (r *R) record(from string, frame []byte) {
	e := FlowEntry{From: from, Len: len(frame)}

	p := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Lazy)
	if eth, ok := p.Layer(layers.LayerTypeEthernet).(*layers.Ethernet); ok {
		e.Src = eth.SrcMAC
		e.Dst = eth.DstMAC
		e.EtherType = eth.EthernetType
	}

	r.Lock()
	r.flow = append(r.flow, e)
	r.Unlock()
	r.t.Logf("%s", e)
}

// Flow returns every frame that crossed the hub so far.
func (r *R) Flow() []FlowEntry {
	r.Lock()
	defer r.Unlock()
	return append([]FlowEntry(nil), r.flow...)
}

// WaitForFlow blocks until n frames have crossed the hub or timeout passes.
func (r *R) WaitForFlow(n int, timeout time.Duration) []FlowEntry {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if f := r.Flow(); len(f) >= n {
			return f
		}
		time.Sleep(5 * time.Millisecond)
	}
	return r.Flow()
}

// Stop disconnects the hub. The stations keep running.
func (r *R) Stop() {
	r.cancel()
	r.wg.Wait()
}
