package core

import (
	"bringup-go/types"
)

// ---- GPIO ----

// GPIOLine is one SoC pin after it has been looked up by the provider.
type GPIOLine interface {
	Pin() types.Pin
	DirectionOutput(l types.Level) error
	SetPull(p types.Pull) error
}

// GPIOController resolves pin identities to lines. A pin the SoC does not
// have returns errcode.UnknownPin.
type GPIOController interface {
	Line(p types.Pin) (GPIOLine, error)
}

// ---- MapIO stage ----

type IOMapper interface {
	MapIO(descs []types.MapDesc) error
}

type ClockController interface {
	InitClocks(xtalHz uint32) error
}

type UARTController interface {
	InitUARTs(cfgs []types.UARTConfig) error
}

// ---- Electrical mode select ----

// RegisterFile is 32-bit register access to the SoC system controller.
type RegisterFile interface {
	Read32(addr uint32) (uint32, error)
	Write32(addr uint32, v uint32) error
}

// ---- MachineInit stage ----

// BusController owns the I2C masters.
type BusController interface {
	SetPlatformData(controller string, data any) error
	RegisterBoardInfo(bus int, devs []types.PeripheralDescriptor) error
}

type IRQController interface {
	ConfigureIRQ(line int, trig types.IRQTrigger) error
}

// DeviceFramework accepts the whole active device list in one call. The
// batch either succeeds or fails as a unit.
type DeviceFramework interface {
	RegisterAll(devs []types.PeripheralDescriptor) error
}

// PowerController is the single capability a display driver needs to
// switch its panel.
type PowerController interface {
	SetPower(target types.PowerTarget) error
}

type DisplayDriver interface {
	InstallPowerControl(device string, pc PowerController) error
}
