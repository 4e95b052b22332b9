package types

// ------------------------
// Serial ports (S3C UART register fields)
// ------------------------

const (
	UCONRxIRQMode  = 1 << 0
	UCONTxIRQMode  = 1 << 2
	UCONRxFIFOTOI  = 1 << 7
	UCONRxILevel   = 1 << 8
	UCONTxILevel   = 1 << 9
	UCONUCLK       = 1 << 10
	UCONDefault    = UCONTxILevel | UCONRxILevel | UCONTxIRQMode | UCONRxIRQMode | UCONRxFIFOTOI
	ULCONCS5       = 0x0
	ULCONCS6       = 0x1
	ULCONCS7       = 0x2
	ULCONCS8       = 0x3
	ULCONCSMask    = 0x3
	ULCONStopB     = 1 << 2
	ULCONPNone     = 0x0 << 3
	ULCONPOdd      = 0x4 << 3
	ULCONPEven     = 0x5 << 3
	ULCONPMask     = 0x7 << 3
	UFCONFIFOMode  = 1 << 0
	UFCONRxTrig8   = 1 << 4
	DefaultBaudBPS = 115_200
)

// UARTConfig is the boot-time configuration of one serial port.
type UARTConfig struct {
	HWPort int
	Flags  uint32
	UCON   uint32
	ULCON  uint32
	UFCON  uint32
}

func (u UARTConfig) DataBits() uint8 { return uint8(u.ULCON&ULCONCSMask) + 5 }

func (u UARTConfig) StopBits() uint8 {
	if u.ULCON&ULCONStopB != 0 {
		return 2
	}
	return 1
}

// Parity returns "none", "odd" or "even".
func (u UARTConfig) Parity() string {
	switch u.ULCON & ULCONPMask {
	case ULCONPOdd:
		return "odd"
	case ULCONPEven:
		return "even"
	default:
		return "none"
	}
}

// ------------------------
// Static IO mappings
// ------------------------

type MapDesc struct {
	Virtual uint32
	PFN     uint32
	Length  uint32
	Type    uint8
}

// ------------------------
// Controller payloads
// ------------------------

// FBWindow is a display mode for one framebuffer window.
type FBWindow struct {
	PixClockPs  uint32
	LeftMargin  uint16
	RightMargin uint16
	UpperMargin uint16
	LowerMargin uint16
	HSyncLen    uint16
	VSyncLen    uint16
	XRes, YRes  uint16
	MaxBPP      uint8
	DefaultBPP  uint8
}

// RefreshHz derives the frame rate from the pixel clock and timings.
func (w FBWindow) RefreshHz() uint32 {
	if w.PixClockPs == 0 {
		return 0
	}
	h := uint64(w.XRes) + uint64(w.LeftMargin) + uint64(w.RightMargin) + uint64(w.HSyncLen)
	v := uint64(w.YRes) + uint64(w.UpperMargin) + uint64(w.LowerMargin) + uint64(w.VSyncLen)
	pixHz := uint64(1_000_000_000_000) / uint64(w.PixClockPs)
	if h*v == 0 {
		return 0
	}
	return uint32(pixHz / (h * v))
}

const (
	VIDCON0VidOutRGB  = 0 << 26
	VIDCON0PNRModeRGB = 0 << 17
	VIDCON1InvHSync   = 1 << 6
	VIDCON1InvVSync   = 1 << 5
)

// FBPlatformData configures the framebuffer controller.
type FBPlatformData struct {
	GPIOSetup string // named pin-mux routine, e.g. "24bpp"
	Windows   []FBWindow
	VIDCON0   uint32
	VIDCON1   uint32
}

// ControllerData is per-controller default platform data set during
// machine init. A nil Data means "no extra platform data".
type ControllerData struct {
	Controller string
	Data       any
}

// ------------------------
// Device payloads
// ------------------------

const (
	SMSC911xIRQPolarityActiveLow = 0
	SMSC911xIRQTypeOpenDrain     = 0
	SMSC911xUse32Bit             = 1 << 2
	SMSC911xForceInternalPHY     = 1 << 3
	PHYInterfaceMII              = 1
)

type SMSC911xConfig struct {
	IRQPolarity  uint8
	IRQType      uint8
	Flags        uint32
	PHYInterface uint8
}

// LCDPowerData is the payload of the panel power device. The power
// control itself is installed into the display driver at machine init.
type LCDPowerData struct {
	Parent string
}

// EEPROMInfo describes a 24cXX part on I2C.
type EEPROMInfo struct {
	SizeBytes uint32
	PageBytes uint16
}
