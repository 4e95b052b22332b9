//go:build rp2040

package provider

import (
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"bringup-go/errcode"
	"bringup-go/services/bringup/internal/core"
	"bringup-go/types"
)

// -----------------------------------------------------------------------------
// GPIO
// -----------------------------------------------------------------------------

// RP2GPIO maps board pin identities onto RP2040 pins. It lets a Pico stand
// in for the panel and daughter-board control lines on a bench rig.
type RP2GPIO struct {
	pins map[types.Pin]machine.Pin
}

var _ core.GPIOController = (*RP2GPIO)(nil)

func NewRP2GPIO(wiring map[types.Pin]machine.Pin) *RP2GPIO {
	m := make(map[types.Pin]machine.Pin, len(wiring))
	for k, v := range wiring {
		m[k] = v
	}
	return &RP2GPIO{pins: m}
}

func (g *RP2GPIO) Line(p types.Pin) (core.GPIOLine, error) {
	mp, ok := g.pins[p]
	if !ok {
		return nil, errcode.UnknownPin
	}
	return &rp2Line{pin: p, p: mp}, nil
}

type rp2Line struct {
	pin types.Pin
	p   machine.Pin
}

func (l *rp2Line) Pin() types.Pin { return l.pin }

func (l *rp2Line) DirectionOutput(v types.Level) error {
	l.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	l.p.Set(v.Bool())
	return nil
}

func (l *rp2Line) SetPull(p types.Pull) error {
	var mode machine.PinMode
	switch p {
	case types.PullUp:
		mode = machine.PinInputPullup
	case types.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	l.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

// -----------------------------------------------------------------------------
// UART
// -----------------------------------------------------------------------------

// RP2UARTWiring places one hardware port on RP2040 pins.
type RP2UARTWiring struct {
	TX, RX int
	Baud   uint32
}

// RP2UARTs configures uartx ports from the board's serial configuration.
// Only hardware ports 0 and 1 exist; the rest are reported as unsupported.
type RP2UARTs struct {
	wiring map[int]RP2UARTWiring
}

var _ core.UARTController = (*RP2UARTs)(nil)

func NewRP2UARTs(wiring map[int]RP2UARTWiring) *RP2UARTs {
	return &RP2UARTs{wiring: wiring}
}

func (u *RP2UARTs) InitUARTs(cfgs []types.UARTConfig) error {
	for _, c := range cfgs {
		w, ok := u.wiring[c.HWPort]
		if !ok {
			continue // port not wired on this rig
		}
		var hw *uartx.UART
		switch c.HWPort {
		case 0:
			hw = uartx.UART0
		case 1:
			hw = uartx.UART1
		default:
			return errcode.Unsupported
		}
		baud := w.Baud
		if baud == 0 {
			baud = types.DefaultBaudBPS
		}
		if err := hw.Configure(uartx.UARTConfig{
			BaudRate: baud,
			TX:       machine.Pin(w.TX),
			RX:       machine.Pin(w.RX),
		}); err != nil {
			return err
		}
		var par uartx.UARTParity
		switch c.Parity() {
		case "even":
			par = uartx.ParityEven
		case "odd":
			par = uartx.ParityOdd
		default:
			par = uartx.ParityNone
		}
		if err := hw.SetFormat(c.DataBits(), c.StopBits(), par); err != nil {
			return err
		}
	}
	return nil
}
