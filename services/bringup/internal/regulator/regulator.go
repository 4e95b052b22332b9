// Package regulator validates a companion chip's rail table and hands each
// rail to the chip driver.
package regulator

import (
	"strconv"

	"bringup-go/errcode"
	"bringup-go/types"
	"bringup-go/x/mathx"
)

// PullConfigurer applies a pin pull on behalf of an owner. pins.Registry
// implements it.
type PullConfigurer interface {
	ConfigurePull(owner string, p types.Pin, pull types.Pull) error
}

// Result describes what was instantiated.
type Result struct {
	Chip      string
	Rails     []types.ChannelRail
	Consumers map[string]string // supply name -> rail name
}

// Skipped reports a set whose gate was not satisfied.
func (r Result) Skipped() bool { return r.Rails == nil }

// Validate checks every constraint in the set. Nothing is clamped.
func Validate(set types.RailSet) error {
	channels := make(map[int]bool, len(set.Rails))
	supplies := make(map[string]string)
	for i, cr := range set.Rails {
		c := cr.Constraint
		res := c.Name
		if res == "" {
			res = set.Chip + "#" + strconv.Itoa(i)
			return errcode.New(errcode.ConfigurationDefect, "validate_rail", res, "rail has no name", errcode.InvalidParams)
		}
		if !mathx.Ordered(c.MinMicrovolts, c.MaxMicrovolts) {
			return errcode.New(errcode.ConfigurationDefect, "validate_rail", res,
				"min "+strconv.FormatUint(uint64(c.MinMicrovolts), 10)+"uV > max "+strconv.FormatUint(uint64(c.MaxMicrovolts), 10)+"uV",
				errcode.InvalidParams)
		}
		if c.Suspend != nil && c.Suspend.Microvolts != 0 && !mathx.Between(c.Suspend.Microvolts, c.MinMicrovolts, c.MaxMicrovolts) {
			return errcode.New(errcode.ConfigurationDefect, "validate_rail", res, "suspend voltage outside envelope", errcode.InvalidParams)
		}
		if channels[cr.Channel] {
			return errcode.New(errcode.ConfigurationDefect, "validate_rail", res, "channel "+strconv.Itoa(cr.Channel)+" used twice", errcode.InvalidParams)
		}
		channels[cr.Channel] = true
		for _, s := range c.Consumers {
			if prev, dup := supplies[s]; dup {
				return errcode.New(errcode.ConfigurationDefect, "validate_rail", res, "supply "+s+" already fed by "+prev, errcode.InvalidParams)
			}
			supplies[s] = c.Name
		}
	}
	if p := set.Prerequisite; p != nil && p.Pin.IsZero() {
		return errcode.New(errcode.ConfigurationDefect, "validate_rail", set.Chip, "prerequisite has no pin", errcode.InvalidParams)
	}
	return nil
}

// Instantiate registers the rails of set with r when cfg enables the chip.
//
// The whole set is validated before the prerequisite runs or r is called,
// so a malformed table produces no driver traffic. A driver failure aborts
// the remaining rails.
func Instantiate(r types.RailRegistrar, pc PullConfigurer, cfg types.BoardConfiguration, set types.RailSet) (Result, error) {
	res := Result{Chip: set.Chip}
	if !cfg.Satisfies(set.Gate) {
		return res, nil
	}
	if err := Validate(set); err != nil {
		return res, err
	}

	if p := set.Prerequisite; p != nil {
		owner := p.Owner
		if owner == "" {
			owner = set.Chip
		}
		if err := pc.ConfigurePull(owner, p.Pin, p.Pull); err != nil {
			return res, err
		}
	}

	res.Rails = make([]types.ChannelRail, 0, len(set.Rails))
	res.Consumers = make(map[string]string)
	for _, cr := range set.Rails {
		c := cr.Constraint.Clone()
		if err := r.RegisterRegulator(cr.Channel, c); err != nil {
			return res, errcode.New(errcode.HardwareUnavailable, "register_regulator", c.Name, set.Chip+" channel "+strconv.Itoa(cr.Channel), err)
		}
		res.Rails = append(res.Rails, types.ChannelRail{Channel: cr.Channel, Constraint: c})
		for _, s := range c.Consumers {
			res.Consumers[s] = c.Name
		}
	}
	return res, nil
}
