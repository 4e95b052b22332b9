package wm8350

import (
	"errors"
	"sync"
	"testing"

	"bringup-go/types"

	"tinygo.org/x/drivers"
)

var _ drivers.I2C = (*fakeBus)(nil)
var _ types.RailRegistrar = (*Device)(nil)

// fakeBus is a 16-bit register map behind one address.
type fakeBus struct {
	mu     sync.Mutex
	addr   uint16
	regs   map[byte]uint16
	writes int
	fail   error
}

func newFakeBus() *fakeBus {
	return &fakeBus{addr: AddressDefault, regs: map[byte]uint16{regResetID: chipID}}
}

func (f *fakeBus) Tx(addr uint16, w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	if addr != f.addr || len(w) == 0 {
		return errors.New("nack")
	}
	switch {
	case len(w) == 1 && len(r) == 2:
		v := f.regs[w[0]]
		r[0], r[1] = byte(v>>8), byte(v)
	case len(w) == 3 && len(r) == 0:
		f.regs[w[0]] = uint16(w[1])<<8 | uint16(w[2])
		f.writes++
	default:
		return errors.New("bad transfer")
	}
	return nil
}

func TestProbe(t *testing.T) {
	b := newFakeBus()
	if err := New(b, Config{}).Probe(); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	b.regs[regResetID] = 0x1234
	if err := New(b, Config{}).Probe(); !errors.Is(err, ErrBadID) {
		t.Fatalf("Probe with wrong id = %v", err)
	}
	if err := New(b, Config{Address: 0x1b}).Probe(); err == nil {
		t.Fatal("Probe on absent address succeeded")
	}
}

func TestProbe_IRQPolarity(t *testing.T) {
	b := newFakeBus()
	b.regs[regSystemControl1] = 0x0001
	if err := New(b, Config{IRQHigh: true}).Probe(); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if got := b.regs[regSystemControl1]; got != 0x0001|irqPol {
		t.Fatalf("active-high: SYSTEM_CONTROL_1 = %#04x", got)
	}
	if err := New(b, Config{}).Probe(); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if got := b.regs[regSystemControl1]; got != 0x0001 {
		t.Fatalf("active-low: SYSTEM_CONTROL_1 = %#04x", got)
	}
}

func TestVSelEncoding(t *testing.T) {
	cases := []struct {
		ch   int
		uV   uint32
		want uint16
		err  error
	}{
		{DCDC1, 1_200_000, 14, nil},
		{DCDC3, 1_700_000, 34, nil},
		{DCDC6, 850_000, 0, nil},
		{DCDC6, 1_212_500, 0, ErrVoltageStep},
		{DCDC4, 800_000, 0, ErrVoltageRange},
		{LDO1, 1_200_000, 6, nil},
		{LDO3, 1_650_000, 15, nil},
		{LDO3, 1_800_000, 16, nil},
		{LDO2, 3_300_000, 31, nil},
		{LDO2, 1_700_000, 0, ErrVoltageStep},
		{LDO4, 3_400_000, 0, ErrVoltageRange},
		{DCDC2, 5_000_000, 0, ErrNotProgrammable},
		{42, 1_000_000, 0, ErrUnknownChannel},
	}
	for _, c := range cases {
		got, err := VSel(c.ch, c.uV)
		if !errors.Is(err, c.err) || (c.err == nil && got != c.want) {
			t.Fatalf("VSel(%d, %d) = %d, %v; want %d, %v", c.ch, c.uV, got, err, c.want, c.err)
		}
	}
}

func TestRegisterRegulator_AppliesFixedVoltage(t *testing.T) {
	b := newFakeBus()
	b.regs[0xB4] = 0x8000 | 0x7F // enable bit outside VSEL must survive
	d := New(b, Config{})

	c := types.PowerRailConstraint{Name: "PVDD_INT", MinMicrovolts: 1_200_000, MaxMicrovolts: 1_200_000, AlwaysOn: true, ApplyMicrovolts: true}
	if err := d.RegisterRegulator(DCDC1, c); err != nil {
		t.Fatalf("RegisterRegulator: %v", err)
	}
	if got := b.regs[0xB4]; got != 0x8000|14 {
		t.Fatalf("DCDC1 control = %#04x", got)
	}
	if err := d.RegisterRegulator(DCDC1, c); !errors.Is(err, ErrChannelRegistered) {
		t.Fatalf("duplicate registration = %v", err)
	}
	if got := d.Registered(); len(got) != 1 || got[0] != DCDC1 {
		t.Fatalf("Registered() = %v", got)
	}
}

func TestRegisterRegulator_NoApplyLeavesControl(t *testing.T) {
	b := newFakeBus()
	d := New(b, Config{})
	c := types.PowerRailConstraint{Name: "PVDD_OTG", MinMicrovolts: 3_300_000, MaxMicrovolts: 3_300_000, AlwaysOn: true}
	if err := d.RegisterRegulator(LDO2, c); err != nil {
		t.Fatalf("RegisterRegulator: %v", err)
	}
	if b.writes != 0 {
		t.Fatalf("expected no register writes, got %d", b.writes)
	}
}

func TestRegisterRegulator_InitialSuspend(t *testing.T) {
	b := newFakeBus()
	d := New(b, Config{})
	c := types.PowerRailConstraint{
		Name: "PVDD_MEM", MinMicrovolts: 1_700_000, MaxMicrovolts: 1_700_000, AlwaysOn: true,
		Suspend:        &types.SuspendState{Microvolts: 1_700_000, Mode: types.ModeNormal, Enabled: true},
		InitialSuspend: true,
	}
	if err := d.RegisterRegulator(DCDC3, c); err != nil {
		t.Fatalf("RegisterRegulator: %v", err)
	}
	if got := b.regs[0xBC]; got != lpEnable|34 {
		t.Fatalf("DCDC3 low-power = %#04x", got)
	}

	// The stored constraint is a copy.
	c.Suspend.Microvolts = 0
	got, _ := d.Constraint(DCDC3)
	if got.Suspend.Microvolts != 1_700_000 {
		t.Fatal("driver shares suspend state with the caller")
	}
}

func TestRegisterRegulator_SuspendDeferred(t *testing.T) {
	b := newFakeBus()
	d := New(b, Config{})
	c := types.PowerRailConstraint{
		Name: "PVDD_MEM", MinMicrovolts: 1_700_000, MaxMicrovolts: 1_700_000,
		Suspend: &types.SuspendState{Microvolts: 1_700_000, Mode: types.ModeStandby, Enabled: true},
	}
	if err := d.RegisterRegulator(DCDC3, c); err != nil {
		t.Fatalf("RegisterRegulator: %v", err)
	}
	if b.writes != 0 {
		t.Fatalf("suspend state programmed at registration (%d writes)", b.writes)
	}
	if err := d.PrepareSuspend(); err != nil {
		t.Fatalf("PrepareSuspend: %v", err)
	}
	want := uint16(lpEnable | uint16(types.ModeStandby)<<lpModeShift | 34)
	if got := b.regs[0xBC]; got != want {
		t.Fatalf("DCDC3 low-power = %#04x, want %#04x", got, want)
	}
}

func TestRegisterRegulator_BoostRejected(t *testing.T) {
	d := New(newFakeBus(), Config{})
	c := types.PowerRailConstraint{Name: "boost", MinMicrovolts: 5_000_000, MaxMicrovolts: 5_000_000, ApplyMicrovolts: true}
	if err := d.RegisterRegulator(DCDC2, c); !errors.Is(err, ErrNotProgrammable) {
		t.Fatalf("boost = %v", err)
	}
	if len(d.Registered()) != 0 {
		t.Fatal("failed registration was recorded")
	}
}

func TestRegisterRegulator_BusFailure(t *testing.T) {
	b := newFakeBus()
	b.fail = errors.New("arbitration lost")
	d := New(b, Config{})
	c := types.PowerRailConstraint{Name: "PVDD_ALIVE", MinMicrovolts: 1_200_000, MaxMicrovolts: 1_200_000, ApplyMicrovolts: true}
	if err := d.RegisterRegulator(LDO1, c); err == nil {
		t.Fatal("expected bus error")
	}
	if len(d.Registered()) != 0 {
		t.Fatal("failed registration was recorded")
	}
}

func TestDisableAlwaysOn(t *testing.T) {
	d := New(newFakeBus(), Config{})
	_ = d.RegisterRegulator(LDO3, types.PowerRailConstraint{Name: "PVDD_LCD", MinMicrovolts: 3_000_000, MaxMicrovolts: 3_000_000, AlwaysOn: true})
	_ = d.RegisterRegulator(LDO4, types.PowerRailConstraint{Name: "spare", MinMicrovolts: 1_200_000, MaxMicrovolts: 1_200_000})

	if err := d.Disable(LDO3); !errors.Is(err, ErrAlwaysOn) {
		t.Fatalf("Disable(always-on) = %v", err)
	}
	if err := d.Disable(LDO1); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("Disable(unregistered) = %v", err)
	}
}

func TestDisable_ClearsEnableBit(t *testing.T) {
	b := newFakeBus()
	b.regs[regDCDCLDOEnable] = 0x0F3F // all DCDCs and LDOs on
	d := New(b, Config{})
	_ = d.RegisterRegulator(LDO2, types.PowerRailConstraint{Name: "PVDD_OTG", MinMicrovolts: 3_300_000, MaxMicrovolts: 3_300_000})
	_ = d.RegisterRegulator(DCDC4, types.PowerRailConstraint{Name: "PVDD_HI", MinMicrovolts: 3_000_000, MaxMicrovolts: 3_000_000})

	if err := d.Disable(LDO2); err != nil {
		t.Fatalf("Disable(LDO2) = %v", err)
	}
	if got := b.regs[regDCDCLDOEnable]; got != 0x0F3F&^(1<<9) {
		t.Fatalf("enable register = %#04x", got)
	}
	if d.Enabled(LDO2) || !d.Enabled(DCDC4) {
		t.Fatal("enable state not tracked per channel")
	}

	writes := b.writes
	if err := d.Disable(LDO2); err != nil {
		t.Fatalf("second Disable = %v", err)
	}
	if b.writes != writes {
		t.Fatal("second Disable wrote to the chip")
	}

	if err := d.Disable(DCDC4); err != nil {
		t.Fatalf("Disable(DCDC4) = %v", err)
	}
	if got := b.regs[regDCDCLDOEnable]; got != 0x0F3F&^(1<<9|1<<3) {
		t.Fatalf("enable register = %#04x", got)
	}
}

func TestDisable_BusFailureKeepsEnabled(t *testing.T) {
	b := newFakeBus()
	d := New(b, Config{})
	_ = d.RegisterRegulator(LDO2, types.PowerRailConstraint{Name: "PVDD_OTG", MinMicrovolts: 3_300_000, MaxMicrovolts: 3_300_000})
	b.fail = errors.New("nack")
	if err := d.Disable(LDO2); err == nil {
		t.Fatal("expected bus error")
	}
	if !d.Enabled(LDO2) {
		t.Fatal("failed Disable marked the rail off")
	}
}

func TestSetVoltage(t *testing.T) {
	b := newFakeBus()
	d := New(b, Config{})
	arm := types.PowerRailConstraint{Name: "PVDD_ARM", MinMicrovolts: 1_000_000, MaxMicrovolts: 1_300_000, AlwaysOn: true, AllowVoltageChange: true}
	if err := d.RegisterRegulator(DCDC6, arm); err != nil {
		t.Fatalf("RegisterRegulator: %v", err)
	}
	if err := d.SetVoltage(DCDC6, 1_100_000); err != nil {
		t.Fatalf("SetVoltage: %v", err)
	}
	if got := b.regs[0xC3] & dcdcVSelMask; got != 10 {
		t.Fatalf("DCDC6 vsel = %d", got)
	}
	if err := d.SetVoltage(DCDC6, 1_400_000); !errors.Is(err, ErrOutsideEnvelope) {
		t.Fatalf("SetVoltage above envelope = %v", err)
	}

	_ = d.RegisterRegulator(DCDC4, types.PowerRailConstraint{Name: "PVDD_HI", MinMicrovolts: 3_000_000, MaxMicrovolts: 3_000_000})
	if err := d.SetVoltage(DCDC4, 3_000_000); !errors.Is(err, ErrVoltageFixed) {
		t.Fatalf("SetVoltage on fixed rail = %v", err)
	}
}
