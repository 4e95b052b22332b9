// Package wm8350 register addresses and bitfields used for regulator setup.
package wm8350

const (
	// 7-bit I2C address on the WM1190-EV1 daughter-board.
	AddressDefault = 0x1a

	// RESET_ID reads back the chip identity.
	regResetID = 0x00
	chipID     = 0x6143

	// System Control 1: IRQ output polarity (set = active high).
	regSystemControl1 = 0x03
	irqPol            = 0x0400

	// DCDC/LDO requested: DCDCn enable in bit n-1, LDOn enable in bit n+7.
	regDCDCLDOEnable = 0x0D

	// Voltage select fields.
	dcdcVSelMask = 0x007F
	ldoVSelMask  = 0x001F

	// Low-power (hibernate) registers: mode in bits 13:12, enable in bit 14.
	lpModeShift = 12
	lpModeMask  = 0x3000
	lpEnable    = 1 << 14

	// DCDC converters: 25 mV steps from 850 mV.
	dcdcMinUV  = 850_000
	dcdcMaxUV  = 4_025_000
	dcdcStepUV = 25_000

	// LDOs: 50 mV steps 0.9-1.65 V (codes 0-15), 100 mV steps 1.8-3.3 V (codes 16-31).
	ldoMinUV      = 900_000
	ldoMaxUV      = 3_300_000
	ldoLowMaxUV   = 1_650_000
	ldoLowStepUV  = 50_000
	ldoHighBaseUV = 1_800_000
	ldoHighStepUV = 100_000
	ldoHighCode   = 16
)

// Regulator channels.
const (
	DCDC1 = iota
	DCDC2
	DCDC3
	DCDC4
	DCDC5
	DCDC6
	LDO1
	LDO2
	LDO3
	LDO4
)

type kind uint8

const (
	kindDCDC kind = iota
	kindBoost
	kindLDO
)

type channelRegs struct {
	name    string
	kind    kind
	control byte // voltage select
	lowPwr  byte // suspend voltage/mode; 0 if none
}

var channels = [...]channelRegs{
	DCDC1: {"DCDC1", kindDCDC, 0xB4, 0xB6},
	DCDC2: {"DCDC2", kindBoost, 0xB7, 0},
	DCDC3: {"DCDC3", kindDCDC, 0xBA, 0xBC},
	DCDC4: {"DCDC4", kindDCDC, 0xBD, 0xBF},
	DCDC5: {"DCDC5", kindBoost, 0xC0, 0},
	DCDC6: {"DCDC6", kindDCDC, 0xC3, 0xC5},
	LDO1:  {"LDO1", kindLDO, 0xC8, 0xCA},
	LDO2:  {"LDO2", kindLDO, 0xCB, 0xCD},
	LDO3:  {"LDO3", kindLDO, 0xCE, 0xD0},
	LDO4:  {"LDO4", kindLDO, 0xD1, 0xD3},
}

func enableBit(ch int) uint16 {
	if ch >= LDO1 {
		return 1 << (8 + ch - LDO1)
	}
	return 1 << ch
}

// ChannelName returns the datasheet name of a channel, or "" if unknown.
func ChannelName(ch int) string {
	if ch < 0 || ch >= len(channels) {
		return ""
	}
	return channels[ch].name
}
