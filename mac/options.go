package mac

import (
	"fmt"
	"time"

	"github.com/rcrowley/go-metrics"
	"github.com/slackhq/enet/hw"
)

const (
	DefaultTxRingSize = 3
	DefaultRxRingSize = 6
	DefaultBufferSize = 1536
	DefaultMdcDivider = 19

	// MaxBufferSize is the largest buffer that fits the 16-bit descriptor
	// length field and the receive buffer size register.
	MaxBufferSize = 2048
)

type optionValues struct {
	txRingSize  int
	rxRingSize  int
	bufferSize  int
	rmii        bool
	mdcDivider  uint32
	pollTimeout time.Duration
	irq         hw.InterruptController
	registry    metrics.Registry
}

func (o *optionValues) apply(options []Option) {
	for _, option := range options {
		option(o)
	}
}

func (o *optionValues) validate() error {
	if o.txRingSize < 2 {
		return fmt.Errorf("tx ring size %d is too small, at least 2 descriptors are required", o.txRingSize)
	}
	if o.rxRingSize < 2 {
		return fmt.Errorf("rx ring size %d is too small, at least 2 descriptors are required", o.rxRingSize)
	}
	if o.bufferSize <= 0 || o.bufferSize > MaxBufferSize {
		return fmt.Errorf("buffer size %d must be between 1 and %d", o.bufferSize, MaxBufferSize)
	}
	if o.bufferSize%hw.DescriptorAlignment != 0 {
		return fmt.Errorf("buffer size %d is not a multiple of %d", o.bufferSize, hw.DescriptorAlignment)
	}
	if o.mdcDivider == 0 || o.mdcDivider > 63 {
		return fmt.Errorf("mdc divider %d must be between 1 and 63", o.mdcDivider)
	}
	if o.pollTimeout <= 0 {
		return fmt.Errorf("poll timeout %s must be positive", o.pollTimeout)
	}
	return nil
}

var optionDefaults = optionValues{
	txRingSize:  DefaultTxRingSize,
	rxRingSize:  DefaultRxRingSize,
	bufferSize:  DefaultBufferSize,
	rmii:        true,
	mdcDivider:  DefaultMdcDivider,
	pollTimeout: 100 * time.Millisecond,
}

// Option can be passed to [NewDriver] to influence driver creation.
type Option func(*optionValues)

// WithTxRingSize sets the number of transmit descriptors. The ring is
// allocated once and never resized.
func WithTxRingSize(n int) Option {
	return func(o *optionValues) { o.txRingSize = n }
}

// WithRxRingSize sets the number of receive descriptors.
func WithRxRingSize(n int) Option {
	return func(o *optionValues) { o.rxRingSize = n }
}

// WithBufferSize sets the size of every transmit and receive buffer. It also
// bounds the maximum frame length accepted by the receiver. It must be a
// multiple of 64.
func WithBufferSize(n int) Option {
	return func(o *optionValues) { o.bufferSize = n }
}

// WithRMII selects RMII instead of MII.
func WithRMII(rmii bool) Option {
	return func(o *optionValues) { o.rmii = rmii }
}

// WithMdcDivider sets MSCR.MII_SPEED.
func WithMdcDivider(n uint32) Option {
	return func(o *optionValues) { o.mdcDivider = n }
}

// WithPollTimeout bounds the busy waits on reset and management frames.
func WithPollTimeout(d time.Duration) Option {
	return func(o *optionValues) { o.pollTimeout = d }
}

// WithInterruptController lets EnableIrq and DisableIrq gate the MAC
// interrupt lines.
func WithInterruptController(ic hw.InterruptController) Option {
	return func(o *optionValues) { o.irq = ic }
}

// WithMetricsRegistry selects the registry the driver counters are kept in.
// The default is metrics.DefaultRegistry.
func WithMetricsRegistry(r metrics.Registry) Option {
	return func(o *optionValues) { o.registry = r }
}
