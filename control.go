package enet

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/slackhq/enet/dma"
	"github.com/slackhq/enet/mac"
	"github.com/slackhq/enet/nic"
	"github.com/slackhq/enet/sim"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// ErrStopped is returned by Control.Start once the Control was stopped.
var ErrStopped = errors.New("control was stopped")

// Every interaction here needs to take extra care to copy memory and not return or use arguments "as is" when touching
// the interface. Frames handed in are copied before they reach the DMA engine.

type Control struct {
	l      *logrus.Logger
	ctx    context.Context
	cancel context.CancelFunc

	iface   *nic.Interface
	drv     *mac.Driver
	dev     *sim.Device
	backend sim.Backend
	phy     *sim.PHY
	arena   *dma.Arena

	statsStart func()
	eg         *errgroup.Group
	stopped    atomic.Bool
}

// Start initializes the MAC and starts the interface task and the simulated
// wire, this is a nonblocking call. To block use Control.ShutdownBlock()
func (c *Control) Start() error {
	if c.stopped.Load() {
		return ErrStopped
	}

	if err := c.iface.Start(); err != nil {
		return err
	}

	if c.statsStart != nil {
		go c.statsStart()
	}

	eg, ctx := errgroup.WithContext(c.ctx)
	eg.Go(func() error { return c.iface.Run(ctx) })
	eg.Go(func() error { return c.dev.Run(ctx) })
	c.eg = eg
	return nil
}

// Stop signals the interface to shutdown, returns after the shutdown is complete
func (c *Control) Stop() {
	if c.stopped.Swap(true) {
		return
	}
	c.cancel()

	var err error
	err = multierr.Append(err, c.dev.Close())
	if c.eg != nil {
		if werr := c.eg.Wait(); werr != nil && !errors.Is(werr, context.Canceled) {
			err = multierr.Append(err, werr)
		}
	}
	c.iface.Stop()
	err = multierr.Append(err, c.arena.Close())

	for _, e := range multierr.Errors(err) {
		c.l.WithError(e).Error("Shutdown failed")
	}
	c.l.Info("Goodbye")
}

// ShutdownBlock will listen for and block on term and interrupt signals, calling Control.Stop() once signalled
func (c *Control) ShutdownBlock() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM)
	signal.Notify(sigChan, syscall.SIGINT)

	rawSig := <-sigChan
	sig := rawSig.String()
	c.l.WithField("signal", sig).Info("Caught signal, shutting down")
	c.Stop()
}

// Interface returns the network interface, for registering protocol handlers.
func (c *Control) Interface() *nic.Interface {
	return c.iface
}

// Stats returns a snapshot of the MAC statistics.
func (c *Control) Stats() mac.Stats {
	return c.iface.Stats()
}

// Send transmits a complete Ethernet frame.
func (c *Control) Send(ctx context.Context, frame []byte) error {
	return c.iface.SendPacket(ctx, frame)
}

// Inject delivers frame to the simulated receiver as if it came off the wire.
// It returns false when the MAC dropped it.
func (c *Control) Inject(frame []byte) bool {
	return c.dev.Inject(append([]byte(nil), frame...))
}

// SetLink drives the simulated transceiver link status. It is a no-op when no
// transceiver is modeled.
func (c *Control) SetLink(up bool) {
	if c.phy == nil {
		return
	}
	c.phy.SetLink(up)
}

// Wire returns the far end of a pipe backend, or nil for any other backend.
func (c *Control) Wire() *sim.Pipe {
	p, _ := c.backend.(*sim.Pipe)
	return p
}
