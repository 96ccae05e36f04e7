package phy

// IEEE 802.3 Clause 22 registers.
const (
	BMCR   uint8 = 0x00
	BMSR   uint8 = 0x01
	PHYID1 uint8 = 0x02
	PHYID2 uint8 = 0x03
	ANAR   uint8 = 0x04
	ANLPAR uint8 = 0x05
)

// BMCR bits.
const (
	BMCR_RESET         uint16 = 0x8000
	BMCR_LOOPBACK      uint16 = 0x4000
	BMCR_SPEED_SEL_LSB uint16 = 0x2000
	BMCR_AN_EN         uint16 = 0x1000
	BMCR_POWER_DOWN    uint16 = 0x0800
	BMCR_ISOLATE       uint16 = 0x0400
	BMCR_RESTART_AN    uint16 = 0x0200
	BMCR_DUPLEX_MODE   uint16 = 0x0100
	BMCR_SPEED_SEL_MSB uint16 = 0x0040
)

// BMSR bits.
const (
	BMSR_100BT4         uint16 = 0x8000
	BMSR_100BTX_FD      uint16 = 0x4000
	BMSR_100BTX_HD      uint16 = 0x2000
	BMSR_10BT_FD        uint16 = 0x1000
	BMSR_10BT_HD        uint16 = 0x0800
	BMSR_AN_COMPLETE    uint16 = 0x0020
	BMSR_REMOTE_FAULT   uint16 = 0x0010
	BMSR_AN_CAPABLE     uint16 = 0x0008
	BMSR_LINK_STATUS    uint16 = 0x0004
	BMSR_EXTENDED_CAPAB uint16 = 0x0001
)

// ANAR and ANLPAR technology ability bits.
const (
	AN_100BTX_FD uint16 = 0x0100
	AN_100BTX_HD uint16 = 0x0080
	AN_10BT_FD   uint16 = 0x0040
	AN_10BT_HD   uint16 = 0x0020
	AN_SELECTOR  uint16 = 0x0001
)

// TJA1102 vendor registers.
const (
	TJA1102_BASIC_CTRL          = BMCR
	TJA1102_BASIC_STAT          = BMSR
	TJA1102_PHY_ID1             = PHYID1
	TJA1102_PHY_ID2             = PHYID2
	TJA1102_EXTENDED_CTRL uint8 = 0x11
	TJA1102_CONFIG1       uint8 = 0x12
	TJA1102_CONFIG2       uint8 = 0x13
	TJA1102_SYM_ERR_CNT   uint8 = 0x14
	TJA1102_INT_SRC       uint8 = 0x15
	TJA1102_INT_EN        uint8 = 0x16
	TJA1102_COMM_STAT     uint8 = 0x17
	TJA1102_GENERAL_STAT  uint8 = 0x18
	TJA1102_EXTERNAL_STAT uint8 = 0x19
	TJA1102_LINK_FAIL_CNT uint8 = 0x1A
	TJA1102_COMM_CTRL     uint8 = 0x1B

	TJA1102_BASIC_CTRL_RESET       = BMCR_RESET
	TJA1102_BASIC_STAT_LINK_STATUS = BMSR_LINK_STATUS

	TJA1102_EXTENDED_CTRL_LINK_CONTROL uint16 = 0x8000
	TJA1102_EXTENDED_CTRL_CONFIG_EN    uint16 = 0x0004
	TJA1102_COMM_CTRL_AUTO_OP          uint16 = 0x8000
)

// DefaultTJA1102Address is the PHY address the TJA1102 straps to by default.
const DefaultTJA1102Address uint8 = 0
