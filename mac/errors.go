package mac

import "errors"

var (
	// ErrBusy is returned by Send when the descriptor at the transmit cursor is
	// still owned by the DMA engine. Nothing was written; retry after the next
	// transmit-ready signal.
	ErrBusy = errors.New("transmit descriptor is busy")

	// ErrInvalidLength is returned by Send when the payload does not fit in a
	// single transmit buffer.
	ErrInvalidLength = errors.New("invalid frame length")

	// ErrInvalidPacket is returned by ReceiveOne for a frame that spans
	// several buffers or carries an error status. The descriptor is recycled.
	ErrInvalidPacket = errors.New("invalid packet")

	// ErrBufferEmpty is returned by ReceiveOne when no received frame is
	// waiting. It terminates the receive drain loop.
	ErrBufferEmpty = errors.New("receive buffer empty")

	// ErrConfiguration is returned by Init when neither a PHY nor a switch
	// driver is attached.
	ErrConfiguration = errors.New("no phy or switch driver attached")

	// ErrResetTimeout is returned by Init when the MAC does not leave reset.
	ErrResetTimeout = errors.New("timed out waiting for mac reset")

	// ErrMdioTimeout is returned when a management frame does not complete.
	ErrMdioTimeout = errors.New("timed out waiting for mdio transfer")

	// ErrUnsupportedOpcode is returned for management frames other than
	// Clause 22 read and write.
	ErrUnsupportedOpcode = errors.New("unsupported smi opcode")
)
