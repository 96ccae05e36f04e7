package mac

import (
	"testing"

	"github.com/slackhq/enet/hw"
	"github.com/slackhq/enet/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateMacConfig(t *testing.T) {
	tests := []struct {
		name   string
		speed  LinkSpeed
		duplex DuplexMode
		rmii10 bool
		fden   bool
		drt    bool
	}{
		{name: "100 full", speed: LinkSpeed100, duplex: FullDuplex, fden: true},
		{name: "100 half", speed: LinkSpeed100, duplex: HalfDuplex, drt: true},
		{name: "10 full", speed: LinkSpeed10, duplex: FullDuplex, rmii10: true, fden: true},
		{name: "10 half", speed: LinkSpeed10, duplex: HalfDuplex, rmii10: true, drt: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.nic.speed = tt.speed
			h.nic.duplex = tt.duplex

			require.NoError(t, h.drv.UpdateMacConfig())

			rcr := h.dev.Read(hw.RCR)
			assert.Equal(t, tt.rmii10, rcr&hw.RCR_RMII_10T != 0)
			assert.Equal(t, tt.drt, rcr&hw.RCR_DRT != 0)
			assert.Equal(t, tt.fden, h.dev.Read(hw.TCR)&hw.TCR_FDEN != 0)

			// Nothing else in RCR is disturbed
			assert.NotZero(t, rcr&hw.RCR_RMII_MODE)
			assert.Equal(t, uint32(DefaultBufferSize), hw.RCRMaxFrameLength(rcr))

			assert.NotZero(t, h.dev.Read(hw.ECR)&hw.ECR_ETHEREN)
			assert.Equal(t, hw.DAR_ACTIVE, h.dev.Read(hw.RDAR))
		})
	}
}

func TestUpdateMacConfigResetsRings(t *testing.T) {
	h := newHarness(t, []sim.Option{sim.WithManualTx()}, WithTxRingSize(3), WithRxRingSize(3))

	require.NoError(t, h.drv.Send(frame(testMac, 1)))
	require.True(t, h.dev.Inject(frame(testMac, 2)))
	h.dev.Write(hw.EIR, hw.EIR_RXF)

	h.nic.duplex = HalfDuplex
	ready := h.nic.readyCount()
	require.NoError(t, h.drv.UpdateMacConfig())
	assert.Equal(t, ready+1, h.nic.readyCount(), "transmitter must be reported ready")

	assertRingLayout(t, h.drv.tx)
	assertRingLayout(t, h.drv.rx)
	assert.Zero(t, h.dev.ProcessTx())

	// The DMA engine restarts at slot 0 together with the driver
	require.NoError(t, h.drv.Send(frame(testMac, 3)))
	assert.Equal(t, 1, h.dev.ProcessTx())
	assert.Equal(t, [][]byte{frame(testMac, 3)}, h.sent(t))
}

func TestLinkStrings(t *testing.T) {
	assert.Equal(t, "full", FullDuplex.String())
	assert.Equal(t, "half", HalfDuplex.String())
	assert.Equal(t, "unknown", DuplexUnknown.String())
}
