// Package modesel applies one-time register configuration steps, such as
// routing the display output path, before any consumer of that path starts.
package modesel

import (
	"strconv"

	"bringup-go/errcode"
	"bringup-go/services/bringup/internal/core"
)

// Step is a named read-modify-write on one 32-bit register: bits in Clear
// are dropped, then bits in Set are applied. Set must lie within Clear|Set
// and must not overlap a bit that is only cleared.
type Step struct {
	Name  string
	Addr  uint32
	Clear uint32
	Set   uint32
}

// Mask returns every bit the step defines.
func (s Step) Mask() uint32 { return s.Clear | s.Set }

// Want returns the value of the defined bits after the step.
func (s Step) Want() uint32 { return s.Set }

// Validate rejects unnamed steps and steps that define no bits.
func Validate(steps []Step) error {
	for i, s := range steps {
		if s.Name == "" {
			return errcode.New(errcode.ConfigurationDefect, "mode_select", "#"+strconv.Itoa(i), "step has no name", errcode.InvalidParams)
		}
		if s.Mask() == 0 {
			return errcode.New(errcode.ConfigurationDefect, "mode_select", s.Name, "step changes no bits", errcode.InvalidParams)
		}
	}
	return nil
}

// Applied reports whether the register already holds the step's post-state.
func Applied(rf core.RegisterFile, s Step) (bool, error) {
	v, err := rf.Read32(s.Addr)
	if err != nil {
		return false, err
	}
	return v&s.Mask() == s.Want(), nil
}

// Apply runs steps in order. Each step is skipped when its bits already
// match, and verified by read-back after the write. Running Apply twice
// leaves the registers as after the first run.
func Apply(rf core.RegisterFile, steps []Step) error {
	for _, s := range steps {
		if err := apply(rf, s); err != nil {
			return err
		}
	}
	return nil
}

func apply(rf core.RegisterFile, s Step) error {
	res := s.Name + "@0x" + strconv.FormatUint(uint64(s.Addr), 16)
	cur, err := rf.Read32(s.Addr)
	if err != nil {
		return errcode.New(errcode.HardwareUnavailable, "mode_select", res, "read", err)
	}
	if cur&s.Mask() == s.Want() {
		return nil
	}
	next := (cur &^ s.Clear) | s.Set
	if err := rf.Write32(s.Addr, next); err != nil {
		return errcode.New(errcode.HardwareUnavailable, "mode_select", res, "write", err)
	}
	got, err := rf.Read32(s.Addr)
	if err != nil {
		return errcode.New(errcode.HardwareUnavailable, "mode_select", res, "read-back", err)
	}
	if got&s.Mask() != s.Want() {
		return errcode.New(errcode.HardwareUnavailable, "mode_select", res,
			"read-back 0x"+strconv.FormatUint(uint64(got), 16)+" does not hold 0x"+strconv.FormatUint(uint64(s.Want()), 16),
			errcode.NoResponse)
	}
	return nil
}
