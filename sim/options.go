package sim

type optionValues struct {
	manualTx   bool
	maxRingLen uint32
}

func (o *optionValues) apply(options []Option) {
	for _, option := range options {
		option(o)
	}
}

var optionDefaults = optionValues{
	maxRingLen: 4096,
}

// Option can be passed to [NewDevice] to influence the simulated peripheral.
type Option func(*optionValues)

// WithManualTx latches the transmit doorbell instead of acting on it. Frames
// stay owned by the DMA engine until [Device.ProcessTx] is called, which lets
// tests observe a full transmit ring.
func WithManualTx() Option {
	return func(o *optionValues) { o.manualTx = true }
}

// WithMaxRingLength bounds how many descriptors the DMA engine walks before it
// treats a ring without a wrap flag as a bus error.
func WithMaxRingLength(n uint32) Option {
	return func(o *optionValues) { o.maxRingLen = n }
}
