package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]Code{
		"configuration_defect": ConfigurationDefect,
		"resource_conflict":    ResourceConflict,
		"hardware_unavailable": HardwareUnavailable,
		"sequence_abort":       SequenceAbort,
		"unknown_pin":          UnknownPin,
		"pin_in_use":           PinInUse,
		"addr_in_use":          AddrInUse,
		"already_run":          AlreadyRun,
	}
	for want, c := range cases {
		if c.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, c.Error())
		}
	}
}

func TestE_IsMatchesClassAndCause(t *testing.T) {
	err := New(ResourceConflict, "reserve_gpio", "GPF13", "held by LCD power", PinInUse)
	wrapped := fmt.Errorf("machine init: %w", err)

	if !errors.Is(wrapped, ResourceConflict) {
		t.Fatal("expected class match through wrap")
	}
	if !errors.Is(wrapped, PinInUse) {
		t.Fatal("expected cause match through Unwrap")
	}
	if errors.Is(wrapped, HardwareUnavailable) {
		t.Fatal("unexpected match on a different class")
	}
	if got := ResourceOf(wrapped); got != "GPF13" {
		t.Fatalf("ResourceOf = %q, want GPF13", got)
	}
	if Of(err) != ResourceConflict {
		t.Fatalf("Of = %q", Of(err))
	}
}

func TestOf_Defaults(t *testing.T) {
	if Of(nil) != OK {
		t.Fatal("nil should map to ok")
	}
	if Of(errors.New("x")) != Error {
		t.Fatal("foreign error should map to generic error")
	}
	if Of(UnknownPin) != UnknownPin {
		t.Fatal("bare code should map to itself")
	}
}

func TestE_ErrorString(t *testing.T) {
	e := New(SequenceAbort, "set_power", "GPN5", "", HardwareUnavailable)
	want := "sequence_abort [set_power] GPN5: hardware_unavailable"
	if e.Error() != want {
		t.Fatalf("got %q want %q", e.Error(), want)
	}
}
