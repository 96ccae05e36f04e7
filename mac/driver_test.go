package mac

import (
	"errors"
	"net"
	"sync"
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

var testMac = net.HardwareAddr{0x02, 0x11, 0x22, 0x33, 0x44, 0x55}

type fakeNic struct {
	mu      sync.Mutex
	addr    net.HardwareAddr
	speed   LinkSpeed
	duplex  DuplexMode
	filter  []FilterEntry
	frames  [][]byte
	ancs    []RxAncillary
	txReady int
	events  int

	// onPacket runs after each delivered frame, in the caller's context
	onPacket func()
}

func (n *fakeNic) MacAddr() net.HardwareAddr    { return n.addr }
func (n *fakeNic) LinkSpeed() LinkSpeed         { return n.speed }
func (n *fakeNic) DuplexMode() DuplexMode       { return n.duplex }
func (n *fakeNic) MacAddrFilter() []FilterEntry { return n.filter }

func (n *fakeNic) ProcessPacket(frame []byte, anc RxAncillary) {
	n.mu.Lock()
	n.frames = append(n.frames, append([]byte(nil), frame...))
	n.ancs = append(n.ancs, anc)
	hook := n.onPacket
	n.mu.Unlock()

	if hook != nil {
		hook()
	}
}

func (n *fakeNic) SignalTxReady() {
	n.mu.Lock()
	n.txReady++
	n.mu.Unlock()
}

func (n *fakeNic) SignalEvent() {
	n.mu.Lock()
	n.events++
	n.mu.Unlock()
}

func (n *fakeNic) readyCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.txReady
}

func (n *fakeNic) eventCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.events
}

type fakePhy struct {
	initErr  error
	inits    int
	ticks    int
	enabled  int
	disabled int
}

func (p *fakePhy) Init() error { p.inits++; return p.initErr }
func (p *fakePhy) Tick()       { p.ticks++ }
func (p *fakePhy) EnableIrq()  { p.enabled++ }
func (p *fakePhy) DisableIrq() { p.disabled++ }

type harness struct {
	drv  *Driver
	dev  *sim.Device
	nic  *fakeNic
	phy  *fakePhy
	wire *sim.Pipe
	reg  metrics.Registry
}

// newHarness builds a driver on a simulated MAC with the interrupt lines
// wired, runs Init and unmasks interrupts.
func newHarness(t *testing.T, simOpts []sim.Option, opts ...Option) *harness {
	t.Helper()
	l := test.NewLogger()

	arena, err := dma.NewArena(64*1024, dma.DefaultBase)
	require.NoError(t, err)
	t.Cleanup(func() { arena.Close() })

	h := &harness{
		nic:  &fakeNic{addr: testMac, speed: LinkSpeed100, duplex: FullDuplex},
		phy:  &fakePhy{},
		wire: sim.NewPipe(64),
		reg:  metrics.NewRegistry(),
	}
	h.dev = sim.NewDevice(l, arena, h.wire, simOpts...)

	opts = append([]Option{WithInterruptController(h.dev), WithMetricsRegistry(h.reg)}, opts...)
	h.drv, err = NewDriver(l, h.dev, arena, h.nic, opts...)
	require.NoError(t, err)
	h.drv.AttachPhy(h.phy)

	h.dev.AttachIRQ(hw.IRQTx, h.drv.TxIRQHandler)
	h.dev.AttachIRQ(hw.IRQRx, h.drv.RxIRQHandler)
	h.dev.AttachIRQ(hw.IRQErr, h.drv.ErrIRQHandler)

	require.NoError(t, h.drv.Init())
	h.drv.EnableIrq()
	return h
}

func (h *harness) counter(name string) int64 {
	c, ok := h.reg.Get(name).(metrics.Counter)
	if !ok {
		return 0
	}
	return c.Count()
}

// frame builds a minimum size frame to dst tagged with seq.
func frame(dst net.HardwareAddr, seq byte) []byte {
	f := make([]byte, 60)
	copy(f, dst)
	copy(f[6:], net.HardwareAddr{0x02, 0, 0, 0, 0, 0x99})
	f[12], f[13] = 0x88, 0xB5
	f[14] = seq
	return f
}

func (h *harness) sent(t *testing.T) [][]byte {
	t.Helper()
	var out [][]byte
	for {
		select {
		case f := <-h.wire.Sent():
			out = append(out, f)
		default:
			return out
		}
	}
}

func assertRingLayout(t *testing.T, r *ring) {
	t.Helper()
	for i := range r.descs {
		wrap := r.descs[i].Status()&hw.TBD0_W != 0
		assert.Equal(t, i == r.size()-1, wrap, "wrap flag on descriptor %d", i)
		assert.Equal(t, r.addrs[i], r.descs[i].Addr())
		if r.rx {
			assert.NotZero(t, r.descs[i].Status()&hw.RBD0_E, "rx descriptor %d not owned by hardware", i)
		} else {
			assert.Zero(t, r.descs[i].Status()&hw.TBD0_R, "tx descriptor %d owned by hardware", i)
		}
	}
	assert.Zero(t, r.cursor.Load())
}

func TestInit(t *testing.T) {
	h := newHarness(t, nil, WithTxRingSize(4), WithRxRingSize(5), WithBufferSize(1536))

	assert.Equal(t, 1, h.phy.inits)
	assert.Equal(t, 4, h.drv.tx.size())
	assert.Equal(t, 5, h.drv.rx.size())
	assertRingLayout(t, h.drv.tx)
	assertRingLayout(t, h.drv.rx)

	assert.Equal(t, h.drv.tx.base, h.dev.Read(hw.TDSR))
	assert.Equal(t, h.drv.rx.base, h.dev.Read(hw.RDSR))
	assert.Equal(t, uint32(1536), h.dev.Read(hw.MRBR))
	assert.Zero(t, h.drv.tx.base%hw.DescriptorAlignment)
	assert.Zero(t, h.drv.rx.base%hw.DescriptorAlignment)

	rcr := h.dev.Read(hw.RCR)
	assert.Equal(t, uint32(1536), hw.RCRMaxFrameLength(rcr))
	assert.NotZero(t, rcr&hw.RCR_MII_MODE)
	assert.NotZero(t, rcr&hw.RCR_RMII_MODE)
	assert.Equal(t, hw.MSCR_MII_SPEED(DefaultMdcDivider), h.dev.Read(hw.MSCR))

	assert.Equal(t, uint32(0x02112233), h.dev.Read(hw.PALR))
	assert.Equal(t, uint32(0x4455<<16|hw.PauseFrameType), h.dev.Read(hw.PAUR))

	ecr := h.dev.Read(hw.ECR)
	assert.NotZero(t, ecr&hw.ECR_ETHEREN)
	assert.NotZero(t, ecr&hw.ECR_EN1588)
	assert.Equal(t, enabledEvents, h.dev.Read(hw.EIMR))
	assert.Equal(t, hw.DAR_ACTIVE, h.dev.Read(hw.RDAR))

	// The transmitter is ready as soon as the MAC is up
	assert.Equal(t, 1, h.nic.readyCount())
}

func TestInitMII(t *testing.T) {
	h := newHarness(t, nil, WithRMII(false), WithMdcDivider(7))
	assert.Zero(t, h.dev.Read(hw.RCR)&hw.RCR_RMII_MODE)
	assert.Equal(t, hw.MSCR_MII_SPEED(7), h.dev.Read(hw.MSCR))
}

func TestInitWithoutPhy(t *testing.T) {
	l := test.NewLogger()
	arena, err := dma.NewArena(16*1024, dma.DefaultBase)
	require.NoError(t, err)
	defer arena.Close()

	dev := sim.NewDevice(l, arena, nil)
	d, err := NewDriver(l, dev, arena, &fakeNic{addr: testMac}, WithMetricsRegistry(metrics.NewRegistry()))
	require.NoError(t, err)

	err = d.Init()
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Zero(t, dev.Read(hw.ECR)&hw.ECR_ETHEREN, "the MAC must stay disabled")
}

func TestInitPhyFailure(t *testing.T) {
	l := test.NewLogger()
	arena, err := dma.NewArena(16*1024, dma.DefaultBase)
	require.NoError(t, err)
	defer arena.Close()

	phyErr := errors.New("phy on fire")
	d, err := NewDriver(l, sim.NewDevice(l, arena, nil), arena, &fakeNic{addr: testMac}, WithMetricsRegistry(metrics.NewRegistry()))
	require.NoError(t, err)
	d.AttachPhy(&fakePhy{initErr: phyErr})

	assert.ErrorIs(t, d.Init(), phyErr)
}

func TestInitSwitch(t *testing.T) {
	l := test.NewLogger()
	arena, err := dma.NewArena(16*1024, dma.DefaultBase)
	require.NoError(t, err)
	defer arena.Close()

	sw := &fakePhy{}
	d, err := NewDriver(l, sim.NewDevice(l, arena, nil), arena, &fakeNic{addr: testMac}, WithMetricsRegistry(metrics.NewRegistry()))
	require.NoError(t, err)
	d.AttachSwitch(sw)

	require.NoError(t, d.Init())
	assert.Equal(t, 1, sw.inits)

	d.Tick()
	d.EnableIrq()
	d.DisableIrq()
	assert.Equal(t, 1, sw.ticks)
	assert.Equal(t, 1, sw.enabled)
	assert.Equal(t, 1, sw.disabled)

	// A PHY takes precedence over a switch
	p := &fakePhy{}
	d.AttachPhy(p)
	d.Tick()
	assert.Equal(t, 1, p.ticks)
	assert.Equal(t, 1, sw.ticks)
}

// stuckRegisters never leaves reset and never completes a management frame.
type stuckRegisters struct {
	regs map[uint32]uint32
}

func (r *stuckRegisters) Read(off uint32) uint32 {
	if off == hw.ECR {
		return hw.ECR_RESET
	}
	return r.regs[off]
}

func (r *stuckRegisters) Write(off, v uint32) {
	if off == hw.EIR {
		r.regs[off] &^= v
		return
	}
	r.regs[off] = v
}

func TestInitResetTimeout(t *testing.T) {
	l := test.NewLogger()
	arena, err := dma.NewArena(16*1024, dma.DefaultBase)
	require.NoError(t, err)
	defer arena.Close()

	regs := &stuckRegisters{regs: map[uint32]uint32{}}
	d, err := NewDriver(l, regs, arena, &fakeNic{addr: testMac}, WithPollTimeout(5*time.Millisecond), WithMetricsRegistry(metrics.NewRegistry()))
	require.NoError(t, err)
	d.AttachPhy(&fakePhy{})

	assert.ErrorIs(t, d.Init(), ErrResetTimeout)
}

func TestNewDriverOptions(t *testing.T) {
	l := test.NewLogger()
	arena, err := dma.NewArena(64*1024, dma.DefaultBase)
	require.NoError(t, err)
	defer arena.Close()

	tests := []struct {
		name        string
		opts        []Option
		containsErr string
	}{
		{name: "defaults"},
		{name: "tiny tx ring", opts: []Option{WithTxRingSize(1)}, containsErr: "tx ring size"},
		{name: "tiny rx ring", opts: []Option{WithRxRingSize(0)}, containsErr: "rx ring size"},
		{name: "unaligned buffer", opts: []Option{WithBufferSize(1500)}, containsErr: "not a multiple"},
		{name: "huge buffer", opts: []Option{WithBufferSize(4096)}, containsErr: "must be between"},
		{name: "mdc divider", opts: []Option{WithMdcDivider(64)}, containsErr: "mdc divider"},
		{name: "poll timeout", opts: []Option{WithPollTimeout(0)}, containsErr: "poll timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]Option{WithMetricsRegistry(metrics.NewRegistry())}, tt.opts...)
			d, err := NewDriver(l, &stuckRegisters{regs: map[uint32]uint32{}}, arena, &fakeNic{addr: testMac}, opts...)
			if tt.containsErr == "" {
				require.NoError(t, err)
				assert.Equal(t, DefaultTxRingSize, d.tx.size())
				assert.Equal(t, DefaultRxRingSize, d.rx.size())
				assert.Equal(t, DefaultBufferSize, d.BufferSize())
				return
			}
			assert.ErrorContains(t, err, tt.containsErr)
		})
	}
}

func TestNewDriverOutOfMemory(t *testing.T) {
	l := test.NewLogger()
	arena, err := dma.NewArena(1024, dma.DefaultBase)
	require.NoError(t, err)
	defer arena.Close()

	_, err = NewDriver(l, &stuckRegisters{regs: map[uint32]uint32{}}, arena, &fakeNic{addr: testMac})
	assert.ErrorIs(t, err, dma.ErrArenaExhausted)
}

func TestStop(t *testing.T) {
	h := newHarness(t, nil)
	h.drv.Stop()

	assert.Zero(t, h.dev.Read(hw.ECR)&hw.ECR_ETHEREN)
	assert.Zero(t, h.dev.Read(hw.EIMR))
	assert.False(t, h.dev.Inject(frame(testMac, 1)))
}

func TestStats(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.drv.Send(frame(testMac, 1)))
	require.True(t, h.dev.Inject(frame(testMac, 2)))

	s := h.drv.Stats()
	assert.Equal(t, uint32(1), s["tx.packets"])
	assert.Equal(t, uint32(60), s["tx.octets"])
	assert.Equal(t, uint32(1), s["rx.packets"])
	assert.Equal(t, uint32(1), s["rx.frame_ok"])
	assert.Zero(t, s["rx.drop"])

	g, ok := h.reg.Get("enet.mib.tx.packets").(metrics.Gauge)
	require.True(t, ok)
	assert.Equal(t, int64(1), g.Value())
}
