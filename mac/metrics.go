package mac

import (
	"github.com/rcrowley/go-metrics"
	"github.com/slackhq/enet/hw"
)

type driverMetrics struct {
	txFrames        metrics.Counter
	txBusy          metrics.Counter
	txInvalidLength metrics.Counter
	rxFrames        metrics.Counter
	rxInvalid       metrics.Counter
	busErrors       metrics.Counter

	mib []metrics.Gauge
}

func newDriverMetrics(r metrics.Registry) *driverMetrics {
	if r == nil {
		r = metrics.DefaultRegistry
	}

	m := &driverMetrics{
		txFrames:        metrics.GetOrRegisterCounter("enet.tx.frames", r),
		txBusy:          metrics.GetOrRegisterCounter("enet.tx.busy", r),
		txInvalidLength: metrics.GetOrRegisterCounter("enet.tx.invalid_length", r),
		rxFrames:        metrics.GetOrRegisterCounter("enet.rx.frames", r),
		rxInvalid:       metrics.GetOrRegisterCounter("enet.rx.invalid", r),
		busErrors:       metrics.GetOrRegisterCounter("enet.bus_error.recoveries", r),
		mib:             make([]metrics.Gauge, len(hw.MIBCounters)),
	}

	for i, c := range hw.MIBCounters {
		m.mib[i] = metrics.GetOrRegisterGauge("enet.mib."+c.Name, r)
	}

	return m
}

// Stats is a snapshot of the hardware statistics counters.
type Stats map[string]uint32

// Stats reads the MIB counters and mirrors them into the metrics registry.
func (d *Driver) Stats() Stats {
	s := make(Stats, len(hw.MIBCounters))
	for i, c := range hw.MIBCounters {
		v := d.regs.Read(c.Offset)
		s[c.Name] = v
		d.metrics.mib[i].Update(int64(v))
	}
	return s
}
