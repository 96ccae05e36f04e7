//go:build e2e_testing
// +build e2e_testing

package e2e

import (
	"fmt"
	"net"
	"testing"
	"time"

	"dario.cat/mergo"
	"github.com/google/gopacket/layers"
	"github.com/slackhq/enet"
	"github.com/slackhq/enet/config"
	"github.com/slackhq/enet/nic"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

type m map[string]any

var testEtherType = layers.EthernetType(0x88B5)

// newSimpleStation creates a started station on a pipe backend with many assumptions
func newSimpleStation(t *testing.T, name string, addr net.HardwareAddr, overrides m) (*enet.Control, chan *nic.Frame) {
	l := NewTestLogger()

	mc := m{
		"mac": m{
			"address": addr.String(),
		},
		"backend": m{
			"type": "pipe",
		},
		"tick": m{
			"interval": "10ms",
		},
		"logging": m{
			"timestamp_format": fmt.Sprintf("%v 15:04:05.000000", name),
			"level":            l.Level.String(),
		},
	}

	if overrides != nil {
		err := mergo.Merge(&overrides, mc, mergo.WithAppendSlice)
		if err != nil {
			panic(err)
		}
		mc = overrides
	}

	cb, err := yaml.Marshal(mc)
	if err != nil {
		panic(err)
	}

	c := config.NewC(l)
	require.NoError(t, c.LoadString(string(cb)))

	control, err := enet.Main(c, false, "e2e-test", l)
	require.NoError(t, err)

	got := make(chan *nic.Frame, 16)
	control.Interface().Handle(testEtherType, func(f *nic.Frame) { got <- f })

	require.NoError(t, control.Start())
	t.Cleanup(control.Stop)

	require.Eventually(t, control.Interface().LinkState, time.Second, 5*time.Millisecond, "%s link never came up", name)
	return control, got
}

func expectFrame(t *testing.T, got chan *nic.Frame, payload string) *nic.Frame {
	t.Helper()
	select {
	case f := <-got:
		require.Equal(t, payload, string(f.Ethernet.Payload[:len(payload)]))
		return f
	case <-time.After(time.Second):
		t.Fatalf("frame %q never arrived", payload)
		return nil
	}
}

func expectNoFrame(t *testing.T, got chan *nic.Frame) {
	t.Helper()
	select {
	case f := <-got:
		t.Fatalf("unexpected frame from %s to %s", f.Ethernet.SrcMAC, f.Ethernet.DstMAC)
	case <-time.After(50 * time.Millisecond):
	}
}
