package mac

import (
	"net"
	"testing"

	"github.com/slackhq/enet/hw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildHashTables(t *testing.T) {
	allHosts := net.HardwareAddr{0x01, 0x00, 0x5E, 0x00, 0x00, 0x01}
	unicast := net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}

	tests := []struct {
		name    string
		entries []FilterEntry
		want    HashTables
	}{
		{name: "empty"},
		{
			name:    "all hosts group lands in bucket 54 of the multicast table",
			entries: []FilterEntry{{Addr: allHosts, RefCount: 1}},
			want:    HashTables{Multicast: [2]uint32{0, 1 << (54 - 32)}},
		},
		{
			name:    "unicast lands in bucket 29 of the unicast table",
			entries: []FilterEntry{{Addr: unicast, RefCount: 2}},
			want:    HashTables{Unicast: [2]uint32{1 << 29, 0}},
		},
		{
			name: "unreferenced entries are ignored",
			entries: []FilterEntry{
				{Addr: allHosts, RefCount: 0},
				{Addr: unicast, RefCount: 0},
			},
		},
		{
			name: "both tables",
			entries: []FilterEntry{
				{Addr: allHosts, RefCount: 1},
				{Addr: net.HardwareAddr{0x01, 0x00, 0x5E, 0x00, 0x00, 0x02}, RefCount: 1},
				{Addr: unicast, RefCount: 1},
			},
			want: HashTables{
				Unicast:   [2]uint32{1 << 29, 0},
				Multicast: [2]uint32{1 << 16, 1 << (54 - 32)},
			},
		},
		{
			name:    "short addresses are ignored",
			entries: []FilterEntry{{Addr: net.HardwareAddr{0x01, 0x00}, RefCount: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildHashTables(tt.entries))
		})
	}
}

func TestHashIndexDeterministic(t *testing.T) {
	addr := []byte{0x01, 0x00, 0x5E, 0x00, 0x00, 0x01}
	assert.Equal(t, uint32(0xD9B4C5FE), hw.CalcCrc(addr))
	for i := 0; i < 3; i++ {
		assert.Equal(t, uint(54), hw.HashIndex(addr))
	}
	assert.Equal(t, uint(63), hw.HashIndex(testMac))
}

func TestUpdateMacAddrFilter(t *testing.T) {
	h := newHarness(t, nil)

	allHosts := net.HardwareAddr{0x01, 0x00, 0x5E, 0x00, 0x00, 0x01}
	mdns := net.HardwareAddr{0x01, 0x00, 0x5E, 0x00, 0x00, 0xFB}

	// Not in the filter yet
	assert.False(t, h.dev.Inject(frame(allHosts, 1)))

	h.nic.filter = []FilterEntry{{Addr: allHosts, RefCount: 1}}
	require.NoError(t, h.drv.UpdateMacAddrFilter())

	assert.Zero(t, h.dev.Read(hw.IALR))
	assert.Zero(t, h.dev.Read(hw.IAUR))
	assert.Zero(t, h.dev.Read(hw.GALR))
	assert.Equal(t, uint32(1<<22), h.dev.Read(hw.GAUR))

	assert.True(t, h.dev.Inject(frame(allHosts, 2)))
	assert.False(t, h.dev.Inject(frame(mdns, 3)), "bucket 33 is not set")

	// The previous table is replaced, not merged
	h.nic.filter = []FilterEntry{{Addr: mdns, RefCount: 1}}
	require.NoError(t, h.drv.UpdateMacAddrFilter())
	assert.Equal(t, uint32(1<<1), h.dev.Read(hw.GAUR))
	assert.Zero(t, h.dev.Read(hw.GALR))

	h.drv.EventHandler()
	require.Len(t, h.nic.frames, 1)
	assert.Equal(t, byte(2), h.nic.frames[0][14])
}

func TestUpdateMacAddrFilterStationAddress(t *testing.T) {
	h := newHarness(t, nil)

	other := net.HardwareAddr{0x02, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE}
	assert.False(t, h.dev.Inject(frame(other, 1)))

	h.nic.addr = other
	require.NoError(t, h.drv.UpdateMacAddrFilter())
	assert.Equal(t, uint32(0x02AABBCC), h.dev.Read(hw.PALR))
	assert.Equal(t, uint32(0xDDEE<<16|hw.PauseFrameType), h.dev.Read(hw.PAUR))

	assert.True(t, h.dev.Inject(frame(other, 2)))
	assert.False(t, h.dev.Inject(frame(testMac, 3)))
}

func TestPromiscuous(t *testing.T) {
	h := newHarness(t, nil)
	h.dev.Write(hw.RCR, h.dev.Read(hw.RCR)|hw.RCR_PROM)

	require.True(t, h.dev.Inject(frame(net.HardwareAddr{0x02, 1, 2, 3, 4, 5}, 1)))
	h.drv.EventHandler()
	require.Len(t, h.nic.ancs, 1)
	assert.True(t, h.nic.ancs[0].Miss)
}
