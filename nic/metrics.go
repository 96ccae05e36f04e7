package nic

import (
	"strings"

	"github.com/google/gopacket/layers"
	"github.com/rcrowley/go-metrics"
)

type nicMetrics struct {
	r metrics.Registry

	linkChanges metrics.Counter
	txTimeouts  metrics.Counter
	rxMalformed metrics.Counter
	rxUnhandled metrics.Counter
}

func newNicMetrics(r metrics.Registry) *nicMetrics {
	if r == nil {
		r = metrics.DefaultRegistry
	}

	return &nicMetrics{
		r:           r,
		linkChanges: metrics.GetOrRegisterCounter("enet.link.changes", r),
		txTimeouts:  metrics.GetOrRegisterCounter("nic.tx.timeouts", r),
		rxMalformed: metrics.GetOrRegisterCounter("nic.rx.malformed", r),
		rxUnhandled: metrics.GetOrRegisterCounter("nic.rx.unhandled", r),
	}
}

func (m *nicMetrics) rxEtherType(t layers.EthernetType) metrics.Counter {
	return metrics.GetOrRegisterCounter("nic.rx."+strings.ToLower(t.String()), m.r)
}
