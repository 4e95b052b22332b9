package pins

import (
	"errors"
	"testing"

	"bringup-go/errcode"
	"bringup-go/services/bringup/internal/core"
	"bringup-go/types"
)

type fakeLine struct {
	pin  types.Pin
	pull types.Pull
}

func (l *fakeLine) Pin() types.Pin                    { return l.pin }
func (l *fakeLine) DirectionOutput(types.Level) error { return nil }
func (l *fakeLine) SetPull(p types.Pull) error        { l.pull = p; return nil }

type fakeGPIO struct {
	lines map[types.Pin]*fakeLine
	calls int
}

func (g *fakeGPIO) Line(p types.Pin) (core.GPIOLine, error) {
	g.calls++
	if p.Bank == "Z" {
		return nil, errcode.UnknownPin
	}
	if g.lines == nil {
		g.lines = map[types.Pin]*fakeLine{}
	}
	l, ok := g.lines[p]
	if !ok {
		l = &fakeLine{pin: p}
		g.lines[p] = l
	}
	return l, nil
}

func TestReserve_Exclusive(t *testing.T) {
	g := &fakeGPIO{}
	r := NewRegistry(g)
	f13 := types.Pin{Bank: "F", Num: 13}

	if _, err := r.Reserve("LCD power", f13); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	_, err := r.Reserve("backlight", f13)
	if !errors.Is(err, errcode.ResourceConflict) || !errors.Is(err, errcode.PinInUse) {
		t.Fatalf("second Reserve = %v", err)
	}
	if errcode.ResourceOf(err) != "GPF13" {
		t.Fatalf("resource = %q", errcode.ResourceOf(err))
	}
	// Same owner twice is still a conflict.
	if _, err := r.Reserve("LCD power", f13); !errors.Is(err, errcode.ResourceConflict) {
		t.Fatalf("re-reserve by owner = %v", err)
	}
	if o, _ := r.Owner(f13); o != "LCD power" {
		t.Fatalf("Owner = %q", o)
	}
	if g.calls != 1 {
		t.Fatalf("controller consulted %d times", g.calls)
	}
}

func TestReserve_UnknownPin(t *testing.T) {
	r := NewRegistry(&fakeGPIO{})
	_, err := r.Reserve("x", types.Pin{Bank: "Z", Num: 1})
	if !errors.Is(err, errcode.HardwareUnavailable) || !errors.Is(err, errcode.UnknownPin) {
		t.Fatalf("Reserve = %v", err)
	}
	if len(r.Reserved()) != 0 {
		t.Fatal("failed reservation was recorded")
	}
}

func TestReserveAll_StopsAtConflict(t *testing.T) {
	r := NewRegistry(&fakeGPIO{})
	n5 := types.Pin{Bank: "N", Num: 5}
	if _, err := r.Reserve("other", n5); err != nil {
		t.Fatal(err)
	}
	_, err := r.ReserveAll("LCD power", []types.Pin{{Bank: "F", Num: 13}, n5, {Bank: "F", Num: 15}})
	if !errors.Is(err, errcode.ResourceConflict) {
		t.Fatalf("ReserveAll = %v", err)
	}
	got := r.Reserved()
	if len(got) != 2 || got[0].String() != "GPF13" || got[1].String() != "GPN5" {
		t.Fatalf("Reserved = %v", got)
	}
}

func TestConfigurePull(t *testing.T) {
	g := &fakeGPIO{}
	r := NewRegistry(g)
	n12 := types.Pin{Bank: "N", Num: 12}
	if err := r.ConfigurePull("wm8350 irq", n12, types.PullUp); err != nil {
		t.Fatalf("ConfigurePull: %v", err)
	}
	if g.lines[n12].pull != types.PullUp {
		t.Fatal("pull not applied")
	}
}
