package types

import "testing"

func TestBoardConfiguration_CopiesInput(t *testing.T) {
	in := map[Feature]bool{"sd_ch0": true}
	cfg := NewBoardConfiguration(in)
	in["sd_ch0"] = false
	in["wm1190_ev1"] = true

	if !cfg.Enabled("sd_ch0") {
		t.Fatal("configuration observed a mutation of its source map")
	}
	if cfg.Enabled("wm1190_ev1") {
		t.Fatal("configuration observed a flag added after construction")
	}
}

func TestBoardConfiguration_Satisfies(t *testing.T) {
	cfg := NewBoardConfiguration(map[Feature]bool{"a": true, "b": false})
	cases := []struct {
		gate []Feature
		want bool
	}{
		{nil, true},
		{[]Feature{"a"}, true},
		{[]Feature{"b"}, false},
		{[]Feature{"a", "b"}, false},
		{[]Feature{"unknown"}, false},
	}
	for _, c := range cases {
		if got := cfg.Satisfies(c.gate); got != c.want {
			t.Fatalf("Satisfies(%v) = %v, want %v", c.gate, got, c.want)
		}
	}
	var zero BoardConfiguration
	if !zero.Satisfies(nil) || zero.Satisfies([]Feature{"a"}) {
		t.Fatal("zero configuration must only satisfy empty gates")
	}
}

func TestBoardConfiguration_FeaturesSorted(t *testing.T) {
	cfg := NewBoardConfiguration(map[Feature]bool{"wm1190_ev1": true, "sd_ch1": true, "sd_ch0": false})
	got := cfg.Features()
	if len(got) != 2 || got[0] != "sd_ch1" || got[1] != "wm1190_ev1" {
		t.Fatalf("Features() = %v", got)
	}
}

func TestDescriptor_WithPayloadLeavesOriginal(t *testing.T) {
	d := PeripheralDescriptor{
		Name:      "wm8350",
		Bus:       BusRef{Kind: BusI2C, Index: 0, Addr: 0x1a},
		Resources: []Resource{IRQResource(108, IRQLevelHigh)},
		Payload:   PMICPlatformData{IRQHigh: true},
	}
	c := d.WithPayload(PMICPlatformData{IRQHigh: true, Init: func(RailRegistrar) error { return nil }})
	c.Resources[0].Start = 1

	if d.Payload.(PMICPlatformData).Init != nil {
		t.Fatal("original payload changed")
	}
	if d.Resources[0].Start != 108 {
		t.Fatal("original resources share storage with the copy")
	}
	if d.Key() != "i2c0@0x1a" {
		t.Fatalf("Key() = %q", d.Key())
	}
}

func TestDescriptor_KeyAndIRQs(t *testing.T) {
	d := PeripheralDescriptor{
		Name: "smsc911x", ID: -1,
		Resources: []Resource{MemResource(0x18000000, 0x10000), IRQResource(106, IRQLevelLow)},
	}
	if d.Key() != "smsc911x" {
		t.Fatalf("Key() = %q", d.Key())
	}
	irqs := d.IRQs()
	if len(irqs) != 1 || irqs[0].Start != 106 || !irqs[0].Trigger.ActiveLow() {
		t.Fatalf("IRQs() = %+v", irqs)
	}
	if d.Resources[0].End != 0x1800ffff {
		t.Fatalf("mem window end = %#x", d.Resources[0].End)
	}
	if (PeripheralDescriptor{Name: "s3c-sdhci", ID: 1}).Key() != "s3c-sdhci.1" {
		t.Fatal("instance key mismatch")
	}
}

func TestPowerSequence_PinsFirstSeen(t *testing.T) {
	f13, f15, n5 := Pin{"F", 13}, Pin{"F", 15}, Pin{"N", 5}
	s := PowerSequence{
		On:  []GPIOActionStep{{Pin: f13, Level: High}, {Pin: f15, Level: High}, {Pin: n5, Level: Low}, {Pin: n5, Level: High}},
		Off: []GPIOActionStep{{Pin: f15}, {Pin: f13}},
	}
	got := s.Pins()
	if len(got) != 3 || got[0] != f13 || got[1] != f15 || got[2] != n5 {
		t.Fatalf("Pins() = %v", got)
	}
	if f13.String() != "GPF13" {
		t.Fatalf("String() = %q", f13.String())
	}
}

func TestUARTConfig_Decode(t *testing.T) {
	u := UARTConfig{ULCON: ULCONCS8 | ULCONPNone | ULCONStopB}
	if u.DataBits() != 8 || u.StopBits() != 2 || u.Parity() != "none" {
		t.Fatalf("decode: %d %d %s", u.DataBits(), u.StopBits(), u.Parity())
	}
	u = UARTConfig{ULCON: ULCONCS7 | ULCONPEven}
	if u.DataBits() != 7 || u.StopBits() != 1 || u.Parity() != "even" {
		t.Fatalf("decode: %d %d %s", u.DataBits(), u.StopBits(), u.Parity())
	}
}

func TestFBWindow_Refresh(t *testing.T) {
	// 405566 clocks per frame at ~24.33 MHz gives 60 Hz.
	w := FBWindow{
		PixClockPs: 41094, LeftMargin: 8, RightMargin: 13, UpperMargin: 7, LowerMargin: 5,
		HSyncLen: 3, VSyncLen: 1, XRes: 800, YRes: 480,
	}
	if hz := w.RefreshHz(); hz < 58 || hz > 62 {
		t.Fatalf("RefreshHz = %d", hz)
	}
}
