package mac

import (
	"testing"

	"github.com/slackhq/enet/hw"
	"github.com/slackhq/enet/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txWords(r *ring) [][8]uint32 {
	out := make([][8]uint32, r.size())
	for i := range r.descs {
		for w := 0; w < 8; w++ {
			out[i][w] = r.descs[i].Word(w)
		}
	}
	return out
}

func TestSendFillsRing(t *testing.T) {
	h := newHarness(t, []sim.Option{sim.WithManualTx()}, WithTxRingSize(4))
	ready := h.nic.readyCount()

	for i := 0; i < 4; i++ {
		require.NoError(t, h.drv.Send(frame(testMac, byte(i))), "send %d", i)
		assert.Equal(t, uint32((i+1)%4), h.drv.tx.cursor.Load())
	}

	// Every slot now belongs to the DMA engine, the last one wraps
	for i := range h.drv.tx.descs {
		status := h.drv.tx.descs[i].Status()
		assert.NotZero(t, status&hw.TBD0_R, "slot %d", i)
		assert.NotZero(t, status&hw.TBD0_L, "slot %d", i)
		assert.NotZero(t, status&hw.TBD0_TC, "slot %d", i)
		assert.Equal(t, uint32(60), status&hw.TBD0_DATA_LENGTH)
		assert.Equal(t, i == 3, status&hw.TBD0_W != 0, "wrap on slot %d", i)
		assert.Zero(t, h.drv.tx.descs[i].Word(4)&hw.TBD4_BDU)
	}

	// Ready was signalled after the first three sends only
	assert.Equal(t, ready+3, h.nic.readyCount())

	before := txWords(h.drv.tx)
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, h.drv.Send(frame(testMac, 9)), ErrBusy)
	}
	assert.Equal(t, before, txWords(h.drv.tx), "a busy send must not touch the ring")
	assert.Zero(t, h.drv.tx.cursor.Load())
	assert.Equal(t, int64(3), h.counter("enet.tx.busy"))
	assert.Equal(t, int64(4), h.counter("enet.tx.frames"))

	assert.Equal(t, 4, h.dev.ProcessTx())

	sent := h.sent(t)
	require.Len(t, sent, 4)
	for i, f := range sent {
		assert.Equal(t, frame(testMac, byte(i)), f)
	}

	// The transmit interrupt reported the freed slot
	assert.Equal(t, ready+4, h.nic.readyCount())
	for i := range h.drv.tx.descs {
		assert.Zero(t, h.drv.tx.descs[i].Status()&hw.TBD0_R, "slot %d", i)
		assert.NotZero(t, h.drv.tx.descs[i].Word(4)&hw.TBD4_BDU, "slot %d", i)
	}

	require.NoError(t, h.drv.Send(frame(testMac, 4)))
	assert.Equal(t, uint32(1), h.drv.tx.cursor.Load())
	assert.Equal(t, 1, h.dev.ProcessTx())
	assert.Equal(t, [][]byte{frame(testMac, 4)}, h.sent(t))
}

func TestSendWrapsAround(t *testing.T) {
	h := newHarness(t, nil, WithTxRingSize(3))

	for i := 0; i < 10; i++ {
		require.NoError(t, h.drv.Send(frame(testMac, byte(i))))
		assert.Equal(t, uint32((i+1)%3), h.drv.tx.cursor.Load())
	}

	sent := h.sent(t)
	require.Len(t, sent, 10)
	for i, f := range sent {
		assert.Equal(t, byte(i), f[14])
	}

	// The wrap flag survives every reuse of the last slot
	for i := range h.drv.tx.descs {
		assert.Equal(t, i == 2, h.drv.tx.descs[i].Status()&hw.TBD0_W != 0)
	}
}

func TestSendInvalidLength(t *testing.T) {
	h := newHarness(t, nil, WithBufferSize(128))
	ready := h.nic.readyCount()
	before := txWords(h.drv.tx)

	err := h.drv.Send(make([]byte, 129))
	assert.ErrorIs(t, err, ErrInvalidLength)
	assert.Equal(t, before, txWords(h.drv.tx))
	assert.Zero(t, h.drv.tx.cursor.Load())
	assert.Equal(t, ready+1, h.nic.readyCount())
	assert.Equal(t, int64(1), h.counter("enet.tx.invalid_length"))
	assert.Empty(t, h.sent(t))

	full := make([]byte, 128)
	copy(full, frame(testMac, 1))
	require.NoError(t, h.drv.Send(full))
	assert.Equal(t, [][]byte{full}, h.sent(t))
}

func TestTxIRQHandlerIgnoresOtherEvents(t *testing.T) {
	h := newHarness(t, nil)
	ready := h.nic.readyCount()

	h.drv.TxIRQHandler()
	assert.Equal(t, ready, h.nic.readyCount())
}
