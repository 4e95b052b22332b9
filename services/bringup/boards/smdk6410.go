package boards

import (
	"bringup-go/drivers/wm8350"
	"bringup-go/services/bringup/internal/modesel"
	"bringup-go/types"
)

const SMDK6410 = "smdk6410"

// Feature flags understood by the SMDK6410.
const (
	FeatureSDCh0     types.Feature = "sd_ch0"
	FeatureSDCh1     types.Feature = "sd_ch1"
	FeatureWM1190EV1 types.Feature = "wm1190_ev1" // WM8350 power daughter-board
)

// S3C64xx system registers touched at mode select.
const (
	RegSPCON        = 0x7F0081A0
	SPCONLCDSelMask = 0x3
	SPCONLCDSelRGB  = 0x1

	RegMIFPCON       = 0x7410800C
	MIFPCONLCDBypass = 1 << 3
)

// EINTBase is the IRQ number of external interrupt 0.
const EINTBase = 96

func EINT(n int) int { return EINTBase + n }

var (
	gpf13 = types.Pin{Bank: "F", Num: 13} // panel power
	gpf15 = types.Pin{Bank: "F", Num: 15} // backlight enable
	gpn5  = types.Pin{Bank: "N", Num: 5}  // panel nRESET
	gpn12 = types.Pin{Bank: "N", Num: 12} // WM8350 IRQ
)

func init() { Register(SMDK6410, smdk6410) }

func smdk6410() Board {
	const (
		ucon  = types.UCONDefault | types.UCONUCLK
		ulcon = types.ULCONCS8 | types.ULCONPNone | types.ULCONStopB
		ufcon = types.UFCONRxTrig8 | types.UFCONFIFOMode
	)
	uarts := make([]types.UARTConfig, 4)
	for i := range uarts {
		uarts[i] = types.UARTConfig{HWPort: i, UCON: ucon, ULCON: ulcon, UFCON: ufcon}
	}

	return Board{
		Name:     SMDK6410,
		Features: []types.Feature{FeatureSDCh0, FeatureSDCh1, FeatureWM1190EV1},

		IODesc: nil,
		XtalHz: 12_000_000,
		UARTs:  uarts,

		ModeSelect: []modesel.Step{
			{Name: "spcon_lcd_sel_rgb", Addr: RegSPCON, Clear: SPCONLCDSelMask, Set: SPCONLCDSelRGB},
			{Name: "mifpcon_lcd_bypass_off", Addr: RegMIFPCON, Clear: MIFPCONLCDBypass},
		},

		ControllerData: []types.ControllerData{
			{Controller: "i2c0"},
			{Controller: "i2c1"},
			{Controller: "s3c-fb", Data: types.FBPlatformData{
				GPIOSetup: "24bpp",
				Windows: []types.FBWindow{{
					PixClockPs: 41094,
					LeftMargin: 8, RightMargin: 13, UpperMargin: 7, LowerMargin: 5,
					HSyncLen: 3, VSyncLen: 1,
					XRes: 800, YRes: 480,
					MaxBPP: 32, DefaultBPP: 16,
				}},
				VIDCON0: types.VIDCON0VidOutRGB | types.VIDCON0PNRModeRGB,
				VIDCON1: types.VIDCON1InvHSync | types.VIDCON1InvVSync,
			}},
		},

		LCDPower: types.PowerSequence{
			Owner: "LCD power",
			On: []types.GPIOActionStep{
				{Pin: gpf13, Level: types.High},
				{Pin: gpf15, Level: types.High},
				{Pin: gpn5, Level: types.Low, DelayMs: 10}, // nRESET pulse
				{Pin: gpn5, Level: types.High, DelayMs: 1},
			},
			Off: []types.GPIOActionStep{
				{Pin: gpf15, Level: types.Low},
				{Pin: gpf13, Level: types.Low},
			},
		},
		LCDDevice: "platform-lcd",

		I2C: []I2CBus{
			{Index: 0, Devices: []types.PeripheralDescriptor{
				i2cDev(0, "24c08", 0x50, types.EEPROMInfo{SizeBytes: 1024, PageBytes: 16}),
				i2cDev(0, "wm8580", 0x1b, nil),
				{
					Name:      "wm8350",
					Bus:       types.BusRef{Kind: types.BusI2C, Index: 0, Addr: wm8350.AddressDefault},
					Resources: []types.Resource{types.IRQResource(EINT(12), types.IRQLevelHigh)},
					Gate:      []types.Feature{FeatureWM1190EV1},
					Payload:   types.PMICPlatformData{IRQHigh: true},
				},
			}},
			{Index: 1, Devices: []types.PeripheralDescriptor{
				i2cDev(1, "24c128", 0x57, types.EEPROMInfo{SizeBytes: 16384, PageBytes: 64}),
			}},
		},
		PMIC:  "wm8350",
		Rails: wm1190Rails(),

		Devices: []types.PeripheralDescriptor{
			{Name: "s3c-sdhci", ID: 0, Gate: []types.Feature{FeatureSDCh0}},
			{Name: "s3c-sdhci", ID: 1, Gate: []types.Feature{FeatureSDCh1}},
			{Name: "s3c2410-i2c", ID: 0},
			{Name: "s3c2410-i2c", ID: 1},
			{Name: "s3c-fb", ID: -1},
			{Name: "s3c2410-ohci", ID: -1},
			{Name: "s3c-hsotg", ID: -1},
			{Name: "platform-lcd", ID: -1, Parent: "s3c-fb", Payload: types.LCDPowerData{Parent: "s3c-fb"}},
			{
				Name: "smsc911x", ID: -1,
				Resources: []types.Resource{
					types.MemResource(0x18000000, 64<<10),
					types.IRQResource(EINT(10), types.IRQLevelLow),
				},
				Payload: types.SMSC911xConfig{
					IRQPolarity:  types.SMSC911xIRQPolarityActiveLow,
					IRQType:      types.SMSC911xIRQTypeOpenDrain,
					Flags:        types.SMSC911xUse32Bit | types.SMSC911xForceInternalPHY,
					PHYInterface: types.PHYInterfaceMII,
				},
			},
		},
	}
}

func i2cDev(bus int, name string, addr uint16, payload any) types.PeripheralDescriptor {
	return types.PeripheralDescriptor{
		Name:    name,
		Bus:     types.BusRef{Kind: types.BusI2C, Index: bus, Addr: addr},
		Payload: payload,
	}
}

func fixed(name string, uV uint32, apply bool) types.PowerRailConstraint {
	return types.PowerRailConstraint{
		Name: name, MinMicrovolts: uV, MaxMicrovolts: uV,
		AlwaysOn: true, ApplyMicrovolts: apply,
	}
}

// wm1190Rails is the WM8350 rail table of the WM1190-EV1 daughter-board.
func wm1190Rails() types.RailSet {
	mem := fixed("PVDD_MEM", 1_700_000, false)
	mem.Suspend = &types.SuspendState{Microvolts: 1_700_000, Mode: types.ModeNormal, Enabled: true}
	mem.InitialSuspend = true

	return types.RailSet{
		Chip:         "wm8350",
		Gate:         []types.Feature{FeatureWM1190EV1},
		Prerequisite: &types.PullPrereq{Pin: gpn12, Pull: types.PullUp, Owner: "wm8350 irq"},
		Rails: []types.ChannelRail{
			{Channel: wm8350.DCDC1, Constraint: fixed("PVDD_INT/PVDD_PLL", 1_200_000, true)},
			{Channel: wm8350.DCDC3, Constraint: mem},
			{Channel: wm8350.DCDC4, Constraint: fixed("PVDD_HI/PVDD_EXT/PVDD_SYS/PVCCM2MTV", 3_000_000, false)},
			{Channel: wm8350.DCDC6, Constraint: types.PowerRailConstraint{
				Name: "PVDD_ARM", MinMicrovolts: 1_000_000, MaxMicrovolts: 1_300_000,
				AlwaysOn: true, AllowVoltageChange: true,
				Consumers: []string{"vddarm"},
			}},
			{Channel: wm8350.LDO1, Constraint: fixed("PVDD_ALIVE", 1_200_000, true)},
			{Channel: wm8350.LDO2, Constraint: fixed("PVDD_OTG", 3_300_000, false)},
			{Channel: wm8350.LDO3, Constraint: fixed("PVDD_LCD", 3_000_000, false)},
			{Channel: wm8350.LDO4, Constraint: fixed("PVDD_OTGI/HPVDD/AVDD", 1_200_000, true)},
		},
	}
}
