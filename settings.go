package enet

import (
	"crypto/rand"
	"fmt"
	"math"
	"net"
	"strings"

	"github.com/slackhq/enet/config"
	"github.com/slackhq/enet/dma"
	"github.com/slackhq/enet/hw"
	"github.com/slackhq/enet/mac"
	"github.com/slackhq/enet/nic"
)

// macAddrFromConfig reads mac.address. When unset a random locally
// administered unicast address is generated.
func macAddrFromConfig(c *config.C) (net.HardwareAddr, error) {
	raw := c.GetString("mac.address", "")
	if raw == "" {
		a := make(net.HardwareAddr, 6)
		if _, err := rand.Read(a); err != nil {
			return nil, fmt.Errorf("failed to generate a mac address: %w", err)
		}
		a[0] = (a[0] | 0x02) &^ 0x01
		return a, nil
	}

	a, err := net.ParseMAC(raw)
	if err != nil {
		return nil, fmt.Errorf("mac.address is invalid: %w", err)
	}
	if len(a) != 6 {
		return nil, fmt.Errorf("mac.address must be 6 bytes, got %d", len(a))
	}
	if a[0]&0x01 != 0 {
		return nil, fmt.Errorf("mac.address %s is a group address", a)
	}
	return a, nil
}

// filtersFromConfig reads mac.filters, the extra addresses the receive filter
// accepts.
func filtersFromConfig(c *config.C) ([]net.HardwareAddr, error) {
	raw := c.GetStringSlice("mac.filters", nil)
	out := make([]net.HardwareAddr, 0, len(raw))
	for i, s := range raw {
		a, err := net.ParseMAC(s)
		if err != nil || len(a) != 6 {
			return nil, fmt.Errorf("mac.filters entry %d (%q) is not a valid mac address", i, s)
		}
		out = append(out, a)
	}
	return out, nil
}

// macSettings is the part of the mac config the DMA memory depends on.
type macSettings struct {
	txRingSize int
	rxRingSize int
	bufferSize int
}

func macSettingsFromConfig(c *config.C) macSettings {
	buf := c.GetInt("mac.buffer_size", mac.DefaultBufferSize)
	// Round up to the descriptor alignment
	buf = (buf + hw.DescriptorAlignment - 1) &^ (hw.DescriptorAlignment - 1)

	return macSettings{
		txRingSize: c.GetInt("mac.tx_ring_size", mac.DefaultTxRingSize),
		rxRingSize: c.GetInt("mac.rx_ring_size", mac.DefaultRxRingSize),
		bufferSize: buf,
	}
}

// arenaSize is the DMA memory both rings need, rounded up to whole pages.
func (s macSettings) arenaSize() int {
	n := s.txRingSize + s.rxRingSize
	size := n*(hw.DescriptorSize+s.bufferSize) + 4*hw.DescriptorAlignment
	const page = 4096
	return (size + page - 1) &^ (page - 1)
}

func macOptionsFromConfig(c *config.C, s macSettings) []mac.Option {
	return []mac.Option{
		mac.WithTxRingSize(s.txRingSize),
		mac.WithRxRingSize(s.rxRingSize),
		mac.WithBufferSize(s.bufferSize),
		mac.WithRMII(c.GetBool("mac.rmii", true)),
		mac.WithMdcDivider(c.GetUint32("mac.mdc_divider", mac.DefaultMdcDivider)),
	}
}

func nicOptionsFromConfig(c *config.C) []nic.Option {
	return []nic.Option{
		nic.WithTickInterval(c.GetDuration("tick.interval", nic.DefaultTickInterval)),
		nic.WithTxTimeout(c.GetDuration("tx.timeout", nic.DefaultTxTimeout)),
	}
}

// linkFromConfig reads the forced link mode. auto yields the unknown value,
// which keeps whatever the PHY negotiated.
func linkFromConfig(c *config.C) (mac.LinkSpeed, mac.DuplexMode, error) {
	var speed mac.LinkSpeed
	switch s := strings.ToLower(c.GetString("link.speed", "auto")); s {
	case "auto":
		speed = mac.LinkSpeedUnknown
	case "10":
		speed = mac.LinkSpeed10
	case "100":
		speed = mac.LinkSpeed100
	default:
		return 0, 0, fmt.Errorf("link.speed was not understood: %s", s)
	}

	var duplex mac.DuplexMode
	switch d := strings.ToLower(c.GetString("link.duplex", "auto")); d {
	case "auto":
		duplex = mac.DuplexUnknown
	case "half":
		duplex = mac.HalfDuplex
	case "full":
		duplex = mac.FullDuplex
	default:
		return 0, 0, fmt.Errorf("link.duplex was not understood: %s", d)
	}

	return speed, duplex, nil
}

// phyAddrFromConfig reads phy.address. 32 leaves the choice to the PHY driver.
func phyAddrFromConfig(c *config.C) (uint8, error) {
	a := c.GetInt("phy.address", 32)
	if a < 0 || a > 32 {
		return 0, fmt.Errorf("phy.address must be between 0 and 32, got %d", a)
	}
	return uint8(a), nil
}

func maxRingLengthFromConfig(c *config.C) (uint32, error) {
	n := c.GetInt("sim.max_ring_length", 4096)
	if n < 1 || int64(n) > math.MaxUint32 {
		return 0, fmt.Errorf("sim.max_ring_length must be a positive 32 bit value, got %d", n)
	}
	return uint32(n), nil
}

func newArena(s macSettings) (*dma.Arena, error) {
	return dma.NewArena(s.arenaSize(), dma.DefaultBase)
}
