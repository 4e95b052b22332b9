// Package wm8350 provides a minimal TinyGo driver for the regulator section
// of the Wolfson WM8350 power-management companion chip.
//
// Design notes (datasheet references):
// • I2C, 8-bit register address, 16-bit data sent MSB first.
// • RESET_ID (0x00) reads 0x6143.
// • DCDC1/3/4/6 are bucks with a 7-bit VSEL field; DCDC2/5 are boost
//   converters without a programmable set-point.
// • LDO1-4 use a 5-bit VSEL field with two step sizes.
// • Each programmable channel has a low-power register holding the
//   hibernate voltage and mode.
// • Output enables share one register (DCDC_LDO_REQUESTED, 0x0D).
// • IRQ polarity is IRQ_POL in System Control 1.
package wm8350

import (
	"errors"
	"sync"

	"bringup-go/types"
	"bringup-go/x/mathx"

	"tinygo.org/x/drivers"
)

var (
	// Sentinel errors (TinyGo-safe; no fmt)
	ErrBadID             = errors.New("wm8350: unexpected chip id")
	ErrUnknownChannel    = errors.New("wm8350: unknown regulator channel")
	ErrNotProgrammable   = errors.New("wm8350: channel has no voltage select")
	ErrChannelRegistered = errors.New("wm8350: channel already registered")
	ErrNotRegistered     = errors.New("wm8350: channel not registered")
	ErrVoltageRange      = errors.New("wm8350: voltage outside channel range")
	ErrVoltageStep       = errors.New("wm8350: voltage not on channel step grid")
	ErrOutsideEnvelope   = errors.New("wm8350: voltage outside rail constraint")
	ErrVoltageFixed      = errors.New("wm8350: rail does not allow voltage change")
	ErrAlwaysOn          = errors.New("wm8350: rail is always-on")
)

// Config selects the bus address and IRQ polarity. Probe programs the
// polarity.
type Config struct {
	Address uint16
	IRQHigh bool
}

type Device struct {
	i2c     drivers.I2C
	addr    uint16
	irqHigh bool

	mu       sync.Mutex
	rails    map[int]types.PowerRailConstraint
	order    []int
	disabled map[int]bool

	// Fixed buffers to avoid per-call heap allocations.
	w [3]byte
	r [2]byte
}

func New(i2c drivers.I2C, cfg Config) *Device {
	addr := cfg.Address
	if addr == 0 {
		addr = AddressDefault
	}
	return &Device{
		i2c:      i2c,
		addr:     addr,
		irqHigh:  cfg.IRQHigh,
		rails:    make(map[int]types.PowerRailConstraint),
		disabled: make(map[int]bool),
	}
}

func (d *Device) Address() uint16 { return d.addr }

// Probe confirms the chip answers with the expected identity and sets the
// IRQ output polarity.
func (d *Device) Probe() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readWord(regResetID)
	if err != nil {
		return err
	}
	if v != chipID {
		return ErrBadID
	}
	if d.irqHigh {
		return d.modifyWord(regSystemControl1, irqPol, 0)
	}
	return d.modifyWord(regSystemControl1, 0, irqPol)
}

// IRQHigh reports the configured IRQ polarity.
func (d *Device) IRQHigh() bool { return d.irqHigh }

// RegisterRegulator implements types.RailRegistrar. It records the
// constraint and, where requested, programs the fixed set-point. The suspend
// state is programmed now only for rails that start in it (InitialSuspend);
// the others are programmed by PrepareSuspend.
func (d *Device) RegisterRegulator(ch int, c types.PowerRailConstraint) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	regs, err := lookup(ch)
	if err != nil {
		return err
	}
	if _, dup := d.rails[ch]; dup {
		return ErrChannelRegistered
	}
	if regs.kind == kindBoost && (c.ApplyMicrovolts || c.Suspend != nil) {
		return ErrNotProgrammable
	}

	if c.ApplyMicrovolts {
		if err := d.writeVSel(regs, regs.control, c.MinMicrovolts); err != nil {
			return err
		}
	}
	if c.InitialSuspend && c.Suspend != nil && regs.lowPwr != 0 {
		if err := d.writeSuspend(regs, *c.Suspend); err != nil {
			return err
		}
	}

	d.rails[ch] = c.Clone()
	d.order = append(d.order, ch)
	return nil
}

// Registered returns the registered channels in registration order.
func (d *Device) Registered() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.order...)
}

// Constraint returns the constraint registered on ch.
func (d *Device) Constraint(ch int) (types.PowerRailConstraint, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.rails[ch]
	if !ok {
		return types.PowerRailConstraint{}, false
	}
	return c.Clone(), true
}

// SetVoltage moves a registered rail within its envelope.
func (d *Device) SetVoltage(ch int, uV uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.rails[ch]
	if !ok {
		return ErrNotRegistered
	}
	if !c.AllowVoltageChange {
		return ErrVoltageFixed
	}
	if !mathx.Between(uV, c.MinMicrovolts, c.MaxMicrovolts) {
		return ErrOutsideEnvelope
	}
	regs, err := lookup(ch)
	if err != nil {
		return err
	}
	return d.writeVSel(regs, regs.control, uV)
}

// PrepareSuspend programs the suspend state of every registered rail that
// has one, in registration order.
func (d *Device) PrepareSuspend() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ch := range d.order {
		c := d.rails[ch]
		regs := channels[ch]
		if c.Suspend == nil || regs.lowPwr == 0 {
			continue
		}
		if err := d.writeSuspend(regs, *c.Suspend); err != nil {
			return err
		}
	}
	return nil
}

// Disable clears the channel's output enable. Always-on rails are refused.
// Disabling an already disabled rail does not touch the chip.
func (d *Device) Disable(ch int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.rails[ch]
	if !ok {
		return ErrNotRegistered
	}
	if c.AlwaysOn {
		return ErrAlwaysOn
	}
	if d.disabled[ch] {
		return nil
	}
	if err := d.modifyWord(regDCDCLDOEnable, 0, enableBit(ch)); err != nil {
		return err
	}
	d.disabled[ch] = true
	return nil
}

// Enabled reports whether a registered rail has not been disabled.
func (d *Device) Enabled(ch int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.rails[ch]
	return ok && !d.disabled[ch]
}

// ---------------- Voltage encoding ----------------

// VSel encodes a voltage for the channel's VSEL field.
func VSel(ch int, uV uint32) (uint16, error) {
	regs, err := lookup(ch)
	if err != nil {
		return 0, err
	}
	return encode(regs.kind, uV)
}

func encode(k kind, uV uint32) (uint16, error) {
	switch k {
	case kindDCDC:
		if !mathx.Between(uV, dcdcMinUV, dcdcMaxUV) {
			return 0, ErrVoltageRange
		}
		code, exact := mathx.StepIndex(uV, dcdcMinUV, dcdcStepUV)
		if !exact {
			return 0, ErrVoltageStep
		}
		return uint16(code), nil
	case kindLDO:
		if !mathx.Between(uV, ldoMinUV, ldoMaxUV) {
			return 0, ErrVoltageRange
		}
		if uV <= ldoLowMaxUV {
			code, exact := mathx.StepIndex(uV, ldoMinUV, ldoLowStepUV)
			if !exact {
				return 0, ErrVoltageStep
			}
			return uint16(code), nil
		}
		code, exact := mathx.StepIndex(uV, ldoHighBaseUV, ldoHighStepUV)
		if !exact {
			return 0, ErrVoltageStep
		}
		return uint16(code) + ldoHighCode, nil
	default:
		return 0, ErrNotProgrammable
	}
}

func lookup(ch int) (channelRegs, error) {
	if ch < 0 || ch >= len(channels) {
		return channelRegs{}, ErrUnknownChannel
	}
	return channels[ch], nil
}

func vselMask(k kind) uint16 {
	if k == kindLDO {
		return ldoVSelMask
	}
	return dcdcVSelMask
}

// ---------------- Register helpers (caller holds mu) ----------------

func (d *Device) writeVSel(regs channelRegs, reg byte, uV uint32) error {
	code, err := encode(regs.kind, uV)
	if err != nil {
		return err
	}
	return d.modifyWord(reg, code, vselMask(regs.kind))
}

func (d *Device) writeSuspend(regs channelRegs, s types.SuspendState) error {
	var set uint16
	clear := uint16(lpModeMask | lpEnable)
	if s.Microvolts != 0 {
		code, err := encode(regs.kind, s.Microvolts)
		if err != nil {
			return err
		}
		set |= code
		clear |= vselMask(regs.kind)
	}
	set |= uint16(s.Mode) << lpModeShift & lpModeMask
	if s.Enabled {
		set |= lpEnable
	}
	return d.modifyWord(regs.lowPwr, set, clear)
}

// modifyWord is the read-modify-write pattern: bits in clear are dropped,
// then bits in set are applied.
func (d *Device) modifyWord(reg byte, set, clear uint16) error {
	cur, err := d.readWord(reg)
	if err != nil {
		return err
	}
	return d.writeWord(reg, (cur&^clear)|set)
}

func (d *Device) readWord(reg byte) (uint16, error) {
	d.w[0] = reg
	if err := d.i2c.Tx(d.addr, d.w[:1], d.r[:2]); err != nil {
		return 0, err
	}
	return uint16(d.r[0])<<8 | uint16(d.r[1]), nil
}

func (d *Device) writeWord(reg byte, v uint16) error {
	d.w[0] = reg
	d.w[1] = byte(v >> 8)
	d.w[2] = byte(v)
	return d.i2c.Tx(d.addr, d.w[:3], nil)
}
