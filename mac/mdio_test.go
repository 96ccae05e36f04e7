package mac

import (
	"testing"
	"time"

	"github.com/rcrowley/go-metrics"
	"github.com/slackhq/enet/dma"
	"github.com/slackhq/enet/hw"
	"github.com/slackhq/enet/sim"
	"github.com/slackhq/enet/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhyRegAccess(t *testing.T) {
	h := newHarness(t, nil)
	p := sim.NewPHY(0x0022, 0x1560)
	h.dev.AttachPHY(3, p)

	v, err := h.drv.ReadPhyReg(hw.SMIOpcodeRead, 3, 0x02)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0022), v)

	v, err = h.drv.ReadPhyReg(hw.SMIOpcodeRead, 3, 0x03)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1560), v)

	require.NoError(t, h.drv.WritePhyReg(hw.SMIOpcodeWrite, 3, 0x04, 0x0181))
	assert.Equal(t, uint16(0x0181), p.Reg(0x04))

	v, err = h.drv.ReadPhyReg(hw.SMIOpcodeRead, 3, 0x04)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0181), v)

	// Nobody answers at address 4
	v, err = h.drv.ReadPhyReg(hw.SMIOpcodeRead, 4, 0x02)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xFFFF), v)

	// The completion event does not leak into the interrupt path
	assert.Zero(t, h.dev.Read(hw.EIMR)&hw.EIR_MII)
}

func TestPhyRegUnsupportedOpcode(t *testing.T) {
	h := newHarness(t, nil)
	p := sim.NewPHY(0x0022, 0x1560)
	h.dev.AttachPHY(0, p)

	assert.ErrorIs(t, h.drv.WritePhyReg(hw.SMIOpcodeRead, 0, 0x04, 0x1234), ErrUnsupportedOpcode)
	assert.Equal(t, uint16(0x01E1), p.Reg(0x04), "no write may happen")

	v, err := h.drv.ReadPhyReg(0, 0, 0x02)
	assert.ErrorIs(t, err, ErrUnsupportedOpcode)
	assert.Zero(t, v)
}

func TestPhyRegTimeout(t *testing.T) {
	l := test.NewLogger()
	arena, err := dma.NewArena(16*1024, dma.DefaultBase)
	require.NoError(t, err)
	defer arena.Close()

	d, err := NewDriver(l, &stuckRegisters{regs: map[uint32]uint32{}}, arena, &fakeNic{addr: testMac},
		WithPollTimeout(5*time.Millisecond), WithMetricsRegistry(metrics.NewRegistry()))
	require.NoError(t, err)

	_, err = d.ReadPhyReg(hw.SMIOpcodeRead, 1, 0x01)
	assert.ErrorIs(t, err, ErrMdioTimeout)
	assert.ErrorIs(t, d.WritePhyReg(hw.SMIOpcodeWrite, 1, 0x00, 0x8000), ErrMdioTimeout)
}
