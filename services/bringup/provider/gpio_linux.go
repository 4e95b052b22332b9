//go:build linux && !baremetal

package provider

import (
	"strconv"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"bringup-go/errcode"
	"bringup-go/services/bringup/internal/core"
	"bringup-go/types"
)

// PeriphGPIO drives board pins through the Linux GPIO drivers registered
// with periph.io. Pins are looked up by name: an explicit entry in the
// name map wins, otherwise "GPIO<n>" is derived from the bank base.
type PeriphGPIO struct {
	names map[types.Pin]string
	base  map[string]int // bank -> first line number

	once    sync.Once
	initErr error
}

var _ core.GPIOController = (*PeriphGPIO)(nil)

func NewPeriphGPIO(names map[types.Pin]string, bankBase map[string]int) *PeriphGPIO {
	return &PeriphGPIO{names: names, base: bankBase}
}

func (g *PeriphGPIO) init() error {
	g.once.Do(func() {
		if _, err := host.Init(); err != nil {
			g.initErr = errcode.New(errcode.HardwareUnavailable, "gpio_init", "periph", "", err)
		}
	})
	return g.initErr
}

func (g *PeriphGPIO) name(p types.Pin) (string, bool) {
	if n, ok := g.names[p]; ok {
		return n, true
	}
	if b, ok := g.base[p.Bank]; ok {
		return "GPIO" + strconv.Itoa(b+p.Num), true
	}
	return "", false
}

func (g *PeriphGPIO) Line(p types.Pin) (core.GPIOLine, error) {
	if err := g.init(); err != nil {
		return nil, err
	}
	name, ok := g.name(p)
	if !ok {
		return nil, errcode.UnknownPin
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, errcode.UnknownPin
	}
	return &periphLine{pin: p, p: pin}, nil
}

type periphLine struct {
	pin types.Pin
	p   gpio.PinIO
}

func (l *periphLine) Pin() types.Pin { return l.pin }

func (l *periphLine) DirectionOutput(v types.Level) error {
	lv := gpio.Low
	if v == types.High {
		lv = gpio.High
	}
	return l.p.Out(lv)
}

func (l *periphLine) SetPull(p types.Pull) error {
	pull := gpio.Float
	switch p {
	case types.PullUp:
		pull = gpio.PullUp
	case types.PullDown:
		pull = gpio.PullDown
	}
	return l.p.In(pull, gpio.NoEdge)
}
