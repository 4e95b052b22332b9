// Package catalog holds a board's peripheral inventory and resolves the
// subset active under a BoardConfiguration.
package catalog

import (
	"strconv"

	"bringup-go/errcode"
	"bringup-go/types"
)

// Catalog is an ordered, validated list of descriptors. Declaration order is
// registration order and is never changed.
type Catalog struct {
	descs []types.PeripheralDescriptor
}

// New validates and copies descs.
func New(descs ...types.PeripheralDescriptor) (*Catalog, error) {
	if err := Validate(descs); err != nil {
		return nil, err
	}
	c := &Catalog{descs: make([]types.PeripheralDescriptor, len(descs))}
	for i, d := range descs {
		c.descs[i] = d.Clone()
	}
	return c, nil
}

func (c *Catalog) Len() int { return len(c.descs) }

// All returns a copy of every descriptor in declaration order.
func (c *Catalog) All() []types.PeripheralDescriptor {
	out := make([]types.PeripheralDescriptor, len(c.descs))
	for i, d := range c.descs {
		out[i] = d.Clone()
	}
	return out
}

// Resolve returns the descriptors active under cfg.
func (c *Catalog) Resolve(cfg types.BoardConfiguration) []types.PeripheralDescriptor {
	return Resolve(c.descs, cfg)
}

// Resolve returns exactly the descriptors whose gate cfg satisfies, in their
// original relative order. An empty input or a configuration that disables
// everything yields an empty (non-nil) slice.
func Resolve(descs []types.PeripheralDescriptor, cfg types.BoardConfiguration) []types.PeripheralDescriptor {
	out := make([]types.PeripheralDescriptor, 0, len(descs))
	for _, d := range descs {
		if cfg.Satisfies(d.Gate) {
			out = append(out, d.Clone())
		}
	}
	return out
}

// Validate checks identity and address uniqueness and resource sanity.
func Validate(descs []types.PeripheralDescriptor) error {
	type instance struct {
		name string
		id   int
	}
	type slot struct {
		bus  int
		addr uint16
	}
	names := make(map[instance]bool, len(descs))
	addrs := make(map[slot]string)

	for i, d := range descs {
		if d.Name == "" {
			return errcode.New(errcode.ConfigurationDefect, "catalog", "#"+strconv.Itoa(i), "descriptor has no name", errcode.InvalidParams)
		}
		if d.Bus.Kind == types.BusI2C {
			s := slot{d.Bus.Index, d.Bus.Addr}
			if d.Bus.Addr == 0 || d.Bus.Addr > 0x7f {
				return errcode.New(errcode.ConfigurationDefect, "catalog", d.Key(), "invalid 7-bit address", errcode.InvalidParams)
			}
			if prev, dup := addrs[s]; dup {
				return errcode.New(errcode.ResourceConflict, "catalog", d.Key(), "address already used by "+prev, errcode.AddrInUse)
			}
			addrs[s] = d.Name
		} else {
			k := instance{d.Name, d.ID}
			if names[k] {
				return errcode.New(errcode.ConfigurationDefect, "catalog", d.Key(), "duplicate descriptor", errcode.InvalidParams)
			}
			names[k] = true
		}
		for _, r := range d.Resources {
			if r.Kind != types.ResMem {
				continue
			}
			if r.Size == 0 {
				return errcode.New(errcode.ConfigurationDefect, "catalog", d.Key(), "empty memory window", errcode.InvalidParams)
			}
			if r.End < r.Start || uint64(r.Start)+uint64(r.Size)-1 != uint64(r.End) {
				return errcode.New(errcode.ConfigurationDefect, "catalog", d.Key(), "memory window bounds do not match its size", errcode.InvalidParams)
			}
		}
	}
	return nil
}
