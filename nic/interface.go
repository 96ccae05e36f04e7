// Package nic is the network interface layer on top of the MAC driver. It
// owns the interface state the driver reads (address, link, filter table),
// turns interrupt signals into task context work, serializes every call into
// the driver and hands received frames to protocol handlers.
package nic

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/slackhq/enet/mac"
)

var (
	// ErrTxTimeout is returned by SendPacket when the transmitter did not
	// become ready in time.
	ErrTxTimeout = errors.New("timed out waiting for the transmitter")

	// ErrNotAttached is returned when the interface has no driver.
	ErrNotAttached = errors.New("no driver attached")

	// ErrStopped is returned by SendPacket once the interface was stopped.
	ErrStopped = errors.New("interface is stopped")
)

// Driver is the MAC as seen by the interface. *mac.Driver implements it.
type Driver interface {
	Init() error
	Stop()
	Send(payload []byte) error
	EventHandler()
	UpdateMacAddrFilter() error
	UpdateMacConfig() error
	Tick()
	EnableIrq()
	DisableIrq()
	Stats() mac.Stats
}

// EventHandler is the PHY or switch driver half that runs in task context
// after RaisePhyEvent.
type EventHandler interface {
	EventHandler()
}

// Interface implements [mac.Interface] and [phy.Link].
type Interface struct {
	l    *logrus.Logger
	name string

	// mu serializes every call into the driver: sends, the event handlers,
	// ticks and reconfiguration.
	mu      sync.Mutex
	drv     Driver
	phy     EventHandler
	stopped bool

	stateMu sync.RWMutex
	macAddr net.HardwareAddr
	filter  []mac.FilterEntry

	linkState    atomic.Bool
	speed        atomic.Int32
	duplex       atomic.Int32
	forcedSpeed  atomic.Int32
	forcedDuplex atomic.Int32

	nicEvent atomic.Bool
	phyEvent atomic.Bool
	wake     chan struct{}
	txReady  chan struct{}

	tickInterval time.Duration
	txTimeout    time.Duration

	// Filled while mu is held, drained once it is released
	rxQueue   []rxFrame
	linkQueue []LinkChange

	handlersMu    sync.RWMutex
	handlers      map[uint16]Handler
	defHandler    Handler
	linkListeners []LinkListener

	metrics *nicMetrics
}

// NewInterface creates an interface with the given station address. The
// driver is attached separately since it needs the interface to be created.
func NewInterface(l *logrus.Logger, name string, addr net.HardwareAddr, options ...Option) (*Interface, error) {
	opts := optionDefaults
	opts.apply(options)
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid interface options: %w", err)
	}

	if len(addr) != 6 {
		return nil, fmt.Errorf("mac address %q is not 6 bytes", addr.String())
	}

	return &Interface{
		l:            l,
		name:         name,
		macAddr:      append(net.HardwareAddr(nil), addr...),
		wake:         make(chan struct{}, 1),
		txReady:      make(chan struct{}, 1),
		tickInterval: opts.tickInterval,
		txTimeout:    opts.txTimeout,
		handlers:     make(map[uint16]Handler),
		metrics:      newNicMetrics(opts.registry),
	}, nil
}

// Attach binds the MAC driver and the PHY or switch event handler. ev may be
// nil when nothing ever raises PHY events.
func (i *Interface) Attach(drv Driver, ev EventHandler) {
	i.mu.Lock()
	i.drv = drv
	i.phy = ev
	i.mu.Unlock()
}

func (i *Interface) Name() string {
	return i.name
}

// Start initializes the driver, programs the receive filter and unmasks
// interrupts.
func (i *Interface) Start() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.drv == nil {
		return ErrNotAttached
	}

	if err := i.drv.Init(); err != nil {
		return err
	}

	if err := i.drv.UpdateMacAddrFilter(); err != nil {
		return fmt.Errorf("failed to program the mac filter: %w", err)
	}

	i.drv.EnableIrq()
	i.stopped = false

	i.l.WithField("interface", i.name).WithField("macAddr", i.MacAddr().String()).Info("Interface started")
	return nil
}

// Stop masks interrupts and disables the MAC. Sends fail with [ErrStopped]
// until the next Start.
func (i *Interface) Stop() {
	i.mu.Lock()
	if i.drv == nil {
		i.mu.Unlock()
		return
	}

	i.stopped = true
	i.drv.DisableIrq()
	i.drv.Stop()
	i.setLinkState(false)

	changes := i.linkQueue
	i.linkQueue = nil
	i.mu.Unlock()

	for _, c := range changes {
		i.notifyLinkChange(c)
	}
}

// Run is the interface task. It services events signalled by interrupt
// handlers and calls Tick on every tick interval until ctx is done.
func (i *Interface) Run(ctx context.Context) error {
	ticker := time.NewTicker(i.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-i.wake:
			i.ProcessEvents()
		case <-ticker.C:
			i.Tick()
		}
	}
}

// ProcessEvents runs the driver and PHY event handlers for every pending
// event, then delivers the frames and link changes they produced.
func (i *Interface) ProcessEvents() {
	i.mu.Lock()
	if i.drv == nil {
		i.mu.Unlock()
		return
	}

	i.drv.DisableIrq()

	if i.nicEvent.Swap(false) {
		i.drv.EventHandler()
	}

	if i.phyEvent.Swap(false) && i.phy != nil {
		i.phy.EventHandler()
	}

	i.drv.EnableIrq()

	frames := i.rxQueue
	i.rxQueue = nil
	changes := i.linkQueue
	i.linkQueue = nil
	i.mu.Unlock()

	for _, f := range frames {
		i.dispatch(f)
	}

	for _, c := range changes {
		i.notifyLinkChange(c)
	}
}

// Tick forwards the periodic tick to the driver and samples its statistics.
func (i *Interface) Tick() {
	i.mu.Lock()
	if i.drv != nil {
		i.drv.Tick()
		i.drv.Stats()
	}
	changes := i.linkQueue
	i.linkQueue = nil
	i.mu.Unlock()

	for _, c := range changes {
		i.notifyLinkChange(c)
	}
}

// Stats returns a snapshot of the MAC statistics counters.
func (i *Interface) Stats() mac.Stats {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.drv == nil {
		return nil
	}
	return i.drv.Stats()
}

// SendPacket transmits a complete Ethernet frame. It waits for the
// transmitter to become ready for at most the configured transmit timeout.
func (i *Interface) SendPacket(ctx context.Context, frame []byte) error {
	if err := i.sendable(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, i.txTimeout)
	defer cancel()

	for {
		select {
		case <-i.txReady:
		case <-ctx.Done():
			i.metrics.txTimeouts.Inc(1)
			return fmt.Errorf("%w: %w", ErrTxTimeout, ctx.Err())
		}

		i.mu.Lock()
		err := i.sendableLocked()
		if err == nil {
			err = i.drv.Send(frame)
		}
		i.mu.Unlock()

		if !errors.Is(err, mac.ErrBusy) {
			return err
		}
	}
}

func (i *Interface) sendable() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.sendableLocked()
}

// sendableLocked requires i.mu.
func (i *Interface) sendableLocked() error {
	switch {
	case i.drv == nil:
		return ErrNotAttached
	case i.stopped:
		return ErrStopped
	}
	return nil
}

func (i *Interface) MacAddr() net.HardwareAddr {
	i.stateMu.RLock()
	defer i.stateMu.RUnlock()
	return i.macAddr
}

// SetMacAddr changes the station address and reprograms the filter.
func (i *Interface) SetMacAddr(addr net.HardwareAddr) error {
	if len(addr) != 6 {
		return fmt.Errorf("mac address %q is not 6 bytes", addr.String())
	}

	i.stateMu.Lock()
	i.macAddr = append(net.HardwareAddr(nil), addr...)
	i.stateMu.Unlock()

	return i.updateFilter()
}

// SignalTxReady is called by the driver when a send can be attempted. It
// never blocks.
func (i *Interface) SignalTxReady() {
	select {
	case i.txReady <- struct{}{}:
	default:
	}
}

// SignalEvent is called by the interrupt handlers. It never blocks.
func (i *Interface) SignalEvent() {
	i.nicEvent.Store(true)
	i.kick()
}

// RaisePhyEvent schedules the PHY event handler. It never blocks.
func (i *Interface) RaisePhyEvent() {
	i.phyEvent.Store(true)
	i.kick()
}

func (i *Interface) kick() {
	select {
	case i.wake <- struct{}{}:
	default:
	}
}
