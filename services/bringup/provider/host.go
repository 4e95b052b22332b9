package provider

import (
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"bringup-go/drivers/wm8350"
	"bringup-go/errcode"
	"bringup-go/services/bringup/internal/core"
	"bringup-go/types"
)

const (
	i2cControllerName = "s3c2410-i2c"
	pmicName          = "wm8350"
)

// Host is a simulated SoC implementing every bring-up collaborator. Its
// device framework probes I2C board info when an I2C controller registers,
// and powers a panel on when the device that owns its power control
// registers.
type Host struct {
	GPIO *HostGPIO
	log  zerolog.Logger

	mu         sync.Mutex
	regs       map[uint32]uint32
	stuck      map[uint32]uint32
	buses      map[int]*HostI2C
	pmics      map[int]*wm8350.Device
	iodesc     []types.MapDesc
	xtalHz     uint32
	uarts      []types.UARTConfig
	platData   map[string]any
	boardInfo  map[int][]types.PeripheralDescriptor
	irqs       map[int]types.IRQTrigger
	power      map[string]core.PowerController
	registered []types.PeripheralDescriptor
	calls      []string
	fail       map[string]error
}

var (
	_ core.IOMapper        = (*Host)(nil)
	_ core.ClockController = (*Host)(nil)
	_ core.UARTController  = (*Host)(nil)
	_ core.RegisterFile    = (*Host)(nil)
	_ core.BusController   = (*Host)(nil)
	_ core.IRQController   = (*Host)(nil)
	_ core.DeviceFramework = (*Host)(nil)
	_ core.DisplayDriver   = (*Host)(nil)
)

// NewHost returns a host with S3C6410 GPIO banks and two empty I2C buses.
func NewHost(log zerolog.Logger) *Host {
	return &Host{
		GPIO:      NewHostGPIO(nil),
		log:       log.With().Str("provider", "host").Logger(),
		regs:      make(map[uint32]uint32),
		stuck:     make(map[uint32]uint32),
		buses:     map[int]*HostI2C{0: NewHostI2C(), 1: NewHostI2C()},
		pmics:     make(map[int]*wm8350.Device),
		platData:  make(map[string]any),
		boardInfo: make(map[int][]types.PeripheralDescriptor),
		irqs:      make(map[int]types.IRQTrigger),
		power:     make(map[string]core.PowerController),
		fail:      make(map[string]error),
	}
}

// Bus returns the simulated I2C bus n.
func (h *Host) Bus(n int) *HostI2C {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.buses[n]
	if !ok {
		b = NewHostI2C()
		h.buses[n] = b
	}
	return b
}

// AttachWM8350 places a simulated companion chip on bus n at its default
// address.
func (h *Host) AttachWM8350(n int) *SimWM8350 {
	s := NewSimWM8350()
	h.Bus(n).Attach(wm8350.AddressDefault, s)
	return s
}

// Fail makes the named operation return err. Operation names match the
// method names in snake case, e.g. "register_all", "configure_irq".
func (h *Host) Fail(op string, err error) {
	h.mu.Lock()
	h.fail[op] = err
	h.mu.Unlock()
}

// SetRegister seeds a register value.
func (h *Host) SetRegister(addr, v uint32) {
	h.mu.Lock()
	h.regs[addr] = v
	h.mu.Unlock()
}

// StickBits makes mask bits of addr ignore writes.
func (h *Host) StickBits(addr, mask uint32) {
	h.mu.Lock()
	h.stuck[addr] = mask
	h.mu.Unlock()
}

// Calls lists collaborator calls in order, e.g. "init_clocks", "register_all".
func (h *Host) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

// Registered returns the device keys accepted by the framework.
func (h *Host) Registered() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.registered))
	for i, d := range h.registered {
		out[i] = d.Key()
	}
	return out
}

// PlatformData returns what was set for controller.
func (h *Host) PlatformData(controller string) (any, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.platData[controller]
	return v, ok
}

// BoardInfo returns what was registered against bus n.
func (h *Host) BoardInfo(n int) []types.PeripheralDescriptor {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]types.PeripheralDescriptor(nil), h.boardInfo[n]...)
}

// IRQ returns the trigger configured on line.
func (h *Host) IRQ(line int) (types.IRQTrigger, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.irqs[line]
	return t, ok
}

// PMIC returns the companion chip driver bound on bus n, if probed.
func (h *Host) PMIC(n int) (*wm8350.Device, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.pmics[n]
	return d, ok
}

// XtalHz returns the clock input frequency passed to InitClocks.
func (h *Host) XtalHz() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.xtalHz
}

// UARTs returns the configured serial ports.
func (h *Host) UARTs() []types.UARTConfig {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]types.UARTConfig(nil), h.uarts...)
}

// enter records the call and returns any injected failure.
func (h *Host) enter(op string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, op)
	return h.fail[op]
}

// ---------------- MapIO ----------------

func (h *Host) MapIO(descs []types.MapDesc) error {
	if err := h.enter("map_io"); err != nil {
		return err
	}
	h.mu.Lock()
	h.iodesc = append([]types.MapDesc(nil), descs...)
	h.mu.Unlock()
	return nil
}

func (h *Host) InitClocks(xtalHz uint32) error {
	if err := h.enter("init_clocks"); err != nil {
		return err
	}
	if xtalHz == 0 {
		return errcode.InvalidParams
	}
	h.mu.Lock()
	h.xtalHz = xtalHz
	h.mu.Unlock()
	return nil
}

func (h *Host) InitUARTs(cfgs []types.UARTConfig) error {
	if err := h.enter("init_uarts"); err != nil {
		return err
	}
	h.mu.Lock()
	h.uarts = append([]types.UARTConfig(nil), cfgs...)
	h.mu.Unlock()
	for _, u := range cfgs {
		h.log.Debug().Int("port", u.HWPort).Uint8("data_bits", u.DataBits()).
			Uint8("stop_bits", u.StopBits()).Str("parity", u.Parity()).Msg("uart configured")
	}
	return nil
}

// ---------------- Register file ----------------

func (h *Host) Read32(addr uint32) (uint32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.fail["read32"]; err != nil {
		return 0, err
	}
	return h.regs[addr], nil
}

func (h *Host) Write32(addr, v uint32) error {
	if err := h.enter("write32"); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	m := h.stuck[addr]
	h.regs[addr] = (v &^ m) | (h.regs[addr] & m)
	return nil
}

// ---------------- MachineInit ----------------

func (h *Host) SetPlatformData(controller string, data any) error {
	if err := h.enter("set_platform_data"); err != nil {
		return err
	}
	h.mu.Lock()
	h.platData[controller] = data
	h.mu.Unlock()
	return nil
}

func (h *Host) RegisterBoardInfo(bus int, devs []types.PeripheralDescriptor) error {
	if err := h.enter("register_board_info"); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.buses[bus]; !ok {
		return errcode.UnknownBus
	}
	h.boardInfo[bus] = append(h.boardInfo[bus], devs...)
	return nil
}

func (h *Host) ConfigureIRQ(line int, trig types.IRQTrigger) error {
	if err := h.enter("configure_irq"); err != nil {
		return err
	}
	h.mu.Lock()
	h.irqs[line] = trig
	h.mu.Unlock()
	return nil
}

func (h *Host) InstallPowerControl(device string, pc core.PowerController) error {
	if err := h.enter("install_power_control"); err != nil {
		return err
	}
	h.mu.Lock()
	h.power[device] = pc
	h.mu.Unlock()
	return nil
}

// RegisterAll accepts the batch in order. Registering an I2C controller
// probes its board info; registering a device that owns a power control
// switches it on. The batch is recorded only if every device succeeds.
func (h *Host) RegisterAll(devs []types.PeripheralDescriptor) error {
	if err := h.enter("register_all"); err != nil {
		return err
	}

	h.mu.Lock()
	seen := make(map[string]bool, len(h.registered)+len(devs))
	for _, d := range h.registered {
		seen[d.Key()] = true
	}
	h.mu.Unlock()
	for _, d := range devs {
		if seen[d.Key()] {
			return errcode.New(errcode.ResourceConflict, "register_all", d.Key(), "device already registered", errcode.Error)
		}
		seen[d.Key()] = true
	}

	for _, d := range devs {
		h.log.Debug().Str("device", d.Key()).Msg("probe")
		switch {
		case d.Name == i2cControllerName:
			if err := h.probeI2C(d.ID); err != nil {
				return err
			}
		default:
			h.mu.Lock()
			pc := h.power[d.Name]
			h.mu.Unlock()
			if pc != nil {
				if err := pc.SetPower(types.PowerOn); err != nil {
					return errcode.New(errcode.HardwareUnavailable, "probe", d.Key(), "panel power on", err)
				}
			}
		}
	}

	h.mu.Lock()
	for _, d := range devs {
		h.registered = append(h.registered, d.Clone())
	}
	h.mu.Unlock()
	return nil
}

// probeI2C binds drivers to the board info of bus n. Only the companion
// chip has a driver; other clients are left for their own drivers.
func (h *Host) probeI2C(n int) error {
	h.mu.Lock()
	info := append([]types.PeripheralDescriptor(nil), h.boardInfo[n]...)
	h.mu.Unlock()
	bus := h.Bus(n)

	for _, d := range info {
		if d.Name != pmicName {
			continue
		}
		pd, _ := d.Payload.(types.PMICPlatformData)
		dev := wm8350.New(bus, wm8350.Config{Address: d.Bus.Addr, IRQHigh: pd.IRQHigh})
		if err := dev.Probe(); err != nil {
			return errcode.New(errcode.HardwareUnavailable, "probe", d.Key(), "i2c"+strconv.Itoa(n), err)
		}
		h.mu.Lock()
		h.pmics[n] = dev
		h.mu.Unlock()
		if pd.Init != nil {
			if err := pd.Init(dev); err != nil {
				return err
			}
		}
	}
	return nil
}
