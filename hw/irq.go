package hw

// IRQLine identifies one of the three interrupt request lines of the MAC.
type IRQLine int

const (
	IRQTx IRQLine = iota
	IRQRx
	IRQErr

	NumIRQLines = 3
)

func (l IRQLine) String() string {
	switch l {
	case IRQTx:
		return "tx"
	case IRQRx:
		return "rx"
	case IRQErr:
		return "err"
	default:
		return "unknown"
	}
}

// Events returns the EIR bits routed to the line.
func (l IRQLine) Events() uint32 {
	switch l {
	case IRQTx:
		return EIR_TXF | EIR_TXB
	case IRQRx:
		return EIR_RXF | EIR_RXB
	case IRQErr:
		return EIR_EBERR | EIR_BABR | EIR_BABT | EIR_LC | EIR_RL | EIR_UN
	default:
		return 0
	}
}

// InterruptController gates the delivery of the MAC interrupt lines.
type InterruptController interface {
	EnableIRQ(line IRQLine)
	DisableIRQ(line IRQLine)
}
