//go:build !linux || baremetal

package provider

import (
	"bringup-go/errcode"
	"bringup-go/services/bringup/internal/core"
	"bringup-go/types"
)

// PeriphGPIO is unavailable off Linux; every lookup fails.
type PeriphGPIO struct{}

func NewPeriphGPIO(map[types.Pin]string, map[string]int) *PeriphGPIO { return &PeriphGPIO{} }

func (*PeriphGPIO) Line(types.Pin) (core.GPIOLine, error) {
	return nil, errcode.New(errcode.HardwareUnavailable, "gpio_init", "periph", "linux only", errcode.Unsupported)
}
