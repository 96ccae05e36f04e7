package hw

// Registers is a 32-bit memory mapped register window.
type Registers interface {
	Read(offset uint32) uint32
	Write(offset uint32, value uint32)
}

// Register offsets from the ENET base address.
const (
	EIR  uint32 = 0x004 // Interrupt event, write 1 to clear
	EIMR uint32 = 0x008 // Interrupt mask
	RDAR uint32 = 0x010 // Receive descriptor active (doorbell)
	TDAR uint32 = 0x014 // Transmit descriptor active (doorbell)
	ECR  uint32 = 0x024 // Ethernet control
	MMFR uint32 = 0x040 // MII management frame
	MSCR uint32 = 0x044 // MII speed control
	MIBC uint32 = 0x064 // MIB control
	RCR  uint32 = 0x084 // Receive control
	TCR  uint32 = 0x0C4 // Transmit control
	PALR uint32 = 0x0E4 // Physical address lower
	PAUR uint32 = 0x0E8 // Physical address upper
	OPD  uint32 = 0x0EC // Opcode/pause duration
	IAUR uint32 = 0x118 // Individual hash table upper
	IALR uint32 = 0x11C // Individual hash table lower
	GAUR uint32 = 0x120 // Group hash table upper
	GALR uint32 = 0x124 // Group hash table lower
	TFWR uint32 = 0x144 // Transmit FIFO watermark
	RDSR uint32 = 0x180 // Receive descriptor ring start
	TDSR uint32 = 0x184 // Transmit descriptor ring start
	MRBR uint32 = 0x188 // Maximum receive buffer size
	TACC uint32 = 0x1C0 // Transmit accelerator function configuration
	RACC uint32 = 0x1C4 // Receive accelerator function configuration
)

// MIB statistics counters.
const (
	RMON_T_PACKETS   uint32 = 0x204
	RMON_T_BC_PKT    uint32 = 0x208
	RMON_T_MC_PKT    uint32 = 0x20C
	RMON_T_OCTETS    uint32 = 0x244
	IEEE_T_FRAME_OK  uint32 = 0x24C
	RMON_R_PACKETS   uint32 = 0x284
	RMON_R_BC_PKT    uint32 = 0x288
	RMON_R_MC_PKT    uint32 = 0x28C
	RMON_R_CRC_ALIGN uint32 = 0x290
	RMON_R_OVERSIZE  uint32 = 0x298
	RMON_R_OCTETS    uint32 = 0x2C4
	IEEE_R_DROP      uint32 = 0x2C8
	IEEE_R_FRAME_OK  uint32 = 0x2CC
	IEEE_R_CRC       uint32 = 0x2D0
)

// MIBCounters lists the statistics counters with their metric names.
var MIBCounters = []struct {
	Name   string
	Offset uint32
}{
	{"tx.packets", RMON_T_PACKETS},
	{"tx.broadcast", RMON_T_BC_PKT},
	{"tx.multicast", RMON_T_MC_PKT},
	{"tx.octets", RMON_T_OCTETS},
	{"tx.frame_ok", IEEE_T_FRAME_OK},
	{"rx.packets", RMON_R_PACKETS},
	{"rx.broadcast", RMON_R_BC_PKT},
	{"rx.multicast", RMON_R_MC_PKT},
	{"rx.crc_align", RMON_R_CRC_ALIGN},
	{"rx.oversize", RMON_R_OVERSIZE},
	{"rx.octets", RMON_R_OCTETS},
	{"rx.drop", IEEE_R_DROP},
	{"rx.frame_ok", IEEE_R_FRAME_OK},
	{"rx.crc", IEEE_R_CRC},
}

// EIR and EIMR bits.
const (
	EIR_BABR  uint32 = 1 << 30
	EIR_BABT  uint32 = 1 << 29
	EIR_GRA   uint32 = 1 << 28
	EIR_TXF   uint32 = 1 << 27
	EIR_TXB   uint32 = 1 << 26
	EIR_RXF   uint32 = 1 << 25
	EIR_RXB   uint32 = 1 << 24
	EIR_MII   uint32 = 1 << 23
	EIR_EBERR uint32 = 1 << 22
	EIR_LC    uint32 = 1 << 21
	EIR_RL    uint32 = 1 << 20
	EIR_UN    uint32 = 1 << 19
)

// Doorbell bit shared by RDAR and TDAR.
const DAR_ACTIVE uint32 = 1 << 24

// ECR bits.
const (
	ECR_RESET   uint32 = 1 << 0
	ECR_ETHEREN uint32 = 1 << 1
	ECR_MAGICEN uint32 = 1 << 2
	ECR_SLEEP   uint32 = 1 << 3
	ECR_EN1588  uint32 = 1 << 4
	ECR_DBSWP   uint32 = 1 << 8
)

// RCR bits.
const (
	RCR_LOOP      uint32 = 1 << 0
	RCR_DRT       uint32 = 1 << 1
	RCR_MII_MODE  uint32 = 1 << 2
	RCR_PROM      uint32 = 1 << 3
	RCR_BC_REJ    uint32 = 1 << 4
	RCR_RMII_MODE uint32 = 1 << 8
	RCR_RMII_10T  uint32 = 1 << 9

	rcrMaxFLShift = 16
	rcrMaxFLMask  = 0x3FFF << rcrMaxFLShift
)

// RCR_MAX_FL encodes the maximum frame length field.
func RCR_MAX_FL(n uint32) uint32 {
	return (n << rcrMaxFLShift) & rcrMaxFLMask
}

// RCRMaxFrameLength decodes the maximum frame length field.
func RCRMaxFrameLength(rcr uint32) uint32 {
	return (rcr & rcrMaxFLMask) >> rcrMaxFLShift
}

// TCR bits.
const (
	TCR_GTS  uint32 = 1 << 0
	TCR_FDEN uint32 = 1 << 2
)

// MIBC bits.
const (
	MIBC_MIB_DIS   uint32 = 1 << 31
	MIBC_MIB_IDLE  uint32 = 1 << 30
	MIBC_MIB_CLEAR uint32 = 1 << 29
)

// MSCR_MII_SPEED encodes the MDC clock divider.
func MSCR_MII_SPEED(n uint32) uint32 {
	return (n << 1) & 0x7E
}

// PAUR fields.
func PAUR_PADDR2(v uint32) uint32 { return v << 16 }
func PAUR_TYPE(v uint32) uint32   { return v & 0xFFFF }

// MMFR fields.
const (
	mmfrSTShift = 30
	mmfrOPShift = 28
	mmfrPAShift = 23
	mmfrRAShift = 18
	mmfrTAShift = 16

	MMFR_DATA_MASK uint32 = 0xFFFF
)

func MMFR_ST(v uint32) uint32   { return (v & 0x3) << mmfrSTShift }
func MMFR_OP(v uint32) uint32   { return (v & 0x3) << mmfrOPShift }
func MMFR_PA(v uint32) uint32   { return (v & 0x1F) << mmfrPAShift }
func MMFR_RA(v uint32) uint32   { return (v & 0x1F) << mmfrRAShift }
func MMFR_TA(v uint32) uint32   { return (v & 0x3) << mmfrTAShift }
func MMFR_DATA(v uint32) uint32 { return v & MMFR_DATA_MASK }

// MMFRFields splits a management frame into its fields.
func MMFRFields(v uint32) (st, op, pa, ra, ta uint32, data uint16) {
	return (v >> mmfrSTShift) & 0x3,
		(v >> mmfrOPShift) & 0x3,
		(v >> mmfrPAShift) & 0x1F,
		(v >> mmfrRAShift) & 0x1F,
		(v >> mmfrTAShift) & 0x3,
		uint16(v & MMFR_DATA_MASK)
}

// Clause 22 management frame opcodes carried in MMFR.OP.
const (
	SMIOpcodeWrite uint8 = 1
	SMIOpcodeRead  uint8 = 2
)

// PauseFrameType is the EtherType programmed into PAUR.TYPE.
const PauseFrameType = 0x8808
