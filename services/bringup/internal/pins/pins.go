// Package pins tracks exclusive GPIO ownership for one bring-up session.
// A reserved pin is never released.
package pins

import (
	"sort"
	"sync"

	"bringup-go/errcode"
	"bringup-go/services/bringup/internal/core"
	"bringup-go/types"
)

type Registry struct {
	gpio core.GPIOController

	mu     sync.Mutex
	owners map[types.Pin]string
	lines  map[types.Pin]core.GPIOLine
}

func NewRegistry(gpio core.GPIOController) *Registry {
	return &Registry{
		gpio:   gpio,
		owners: make(map[types.Pin]string),
		lines:  make(map[types.Pin]core.GPIOLine),
	}
}

// Reserve gives owner exclusive use of p and returns its line. A second
// reservation, by anyone, is a ResourceConflict naming the holder.
func (r *Registry) Reserve(owner string, p types.Pin) (core.GPIOLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if holder, taken := r.owners[p]; taken {
		return nil, errcode.New(errcode.ResourceConflict, "reserve_gpio", p.String(), "held by "+holder, errcode.PinInUse)
	}
	line, err := r.gpio.Line(p)
	if err != nil {
		return nil, errcode.New(errcode.HardwareUnavailable, "reserve_gpio", p.String(), "", err)
	}
	r.owners[p] = owner
	r.lines[p] = line
	return line, nil
}

// ReserveAll reserves pins in order and stops at the first failure. Pins
// reserved before the failure stay reserved.
func (r *Registry) ReserveAll(owner string, ps []types.Pin) (map[types.Pin]core.GPIOLine, error) {
	out := make(map[types.Pin]core.GPIOLine, len(ps))
	for _, p := range ps {
		l, err := r.Reserve(owner, p)
		if err != nil {
			return nil, err
		}
		out[p] = l
	}
	return out, nil
}

// ConfigurePull reserves p for owner and applies the pull.
func (r *Registry) ConfigurePull(owner string, p types.Pin, pull types.Pull) error {
	line, err := r.Reserve(owner, p)
	if err != nil {
		return err
	}
	if err := line.SetPull(pull); err != nil {
		return errcode.New(errcode.HardwareUnavailable, "set_pull", p.String(), pull.String(), err)
	}
	return nil
}

// Owner returns the holder of p, if any.
func (r *Registry) Owner(p types.Pin) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.owners[p]
	return o, ok
}

// Reserved lists held pins sorted by name.
func (r *Registry) Reserved() []types.Pin {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Pin, 0, len(r.owners))
	for p := range r.owners {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
