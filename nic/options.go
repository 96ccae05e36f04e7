package nic

import (
	"fmt"
	"time"

	"github.com/rcrowley/go-metrics"
)

const (
	DefaultTickInterval = 100 * time.Millisecond
	DefaultTxTimeout    = 200 * time.Millisecond
)

type optionValues struct {
	tickInterval time.Duration
	txTimeout    time.Duration
	registry     metrics.Registry
}

func (o *optionValues) apply(options []Option) {
	for _, option := range options {
		option(o)
	}
}

func (o *optionValues) validate() error {
	if o.tickInterval <= 0 {
		return fmt.Errorf("tick interval %s must be positive", o.tickInterval)
	}
	if o.txTimeout <= 0 {
		return fmt.Errorf("tx timeout %s must be positive", o.txTimeout)
	}
	return nil
}

var optionDefaults = optionValues{
	tickInterval: DefaultTickInterval,
	txTimeout:    DefaultTxTimeout,
}

// Option can be passed to [NewInterface].
type Option func(*optionValues)

// WithTickInterval sets how often the driver Tick runs.
func WithTickInterval(d time.Duration) Option {
	return func(o *optionValues) { o.tickInterval = d }
}

// WithTxTimeout bounds how long SendPacket waits for the transmitter.
func WithTxTimeout(d time.Duration) Option {
	return func(o *optionValues) { o.txTimeout = d }
}

// WithMetricsRegistry selects the registry for the interface counters.
func WithMetricsRegistry(r metrics.Registry) Option {
	return func(o *optionValues) { o.registry = r }
}
