package types

import (
	"sort"
	"strconv"
)

// ------------------------
// Feature configuration
// ------------------------

// Feature names one optional piece of board hardware (daughter-board, slot).
type Feature string

// BoardConfiguration is the set of feature flags resolved once at bring-up
// start. It is read-only: the zero value has every feature disabled.
type BoardConfiguration struct {
	flags map[Feature]bool
}

// NewBoardConfiguration copies flags; later changes to the map are not seen.
func NewBoardConfiguration(flags map[Feature]bool) BoardConfiguration {
	m := make(map[Feature]bool, len(flags))
	for k, v := range flags {
		m[k] = v
	}
	return BoardConfiguration{flags: m}
}

func (c BoardConfiguration) Enabled(f Feature) bool { return c.flags[f] }

// Satisfies reports whether every feature in gate is enabled.
// An empty gate is always satisfied.
func (c BoardConfiguration) Satisfies(gate []Feature) bool {
	for _, f := range gate {
		if !c.flags[f] {
			return false
		}
	}
	return true
}

// Features returns the enabled features in name order.
func (c BoardConfiguration) Features() []Feature {
	out := make([]Feature, 0, len(c.flags))
	for f, on := range c.flags {
		if on {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ------------------------
// Peripheral descriptors
// ------------------------

type BusKind uint8

const (
	BusPlatform BusKind = iota // memory-mapped / SoC-internal
	BusI2C
)

func (k BusKind) String() string {
	switch k {
	case BusI2C:
		return "i2c"
	default:
		return "platform"
	}
}

// BusRef places a descriptor on a bus. Index and Addr only apply to BusI2C.
type BusRef struct {
	Kind  BusKind
	Index int
	Addr  uint16 // 7-bit
}

type ResourceKind uint8

const (
	ResMem ResourceKind = iota
	ResIRQ
)

// IRQTrigger combines polarity and trigger type.
type IRQTrigger uint8

const (
	IRQNone IRQTrigger = iota
	IRQEdgeRising
	IRQEdgeFalling
	IRQEdgeBoth
	IRQLevelHigh
	IRQLevelLow
)

func (t IRQTrigger) String() string {
	switch t {
	case IRQEdgeRising:
		return "edge_rising"
	case IRQEdgeFalling:
		return "edge_falling"
	case IRQEdgeBoth:
		return "edge_both"
	case IRQLevelHigh:
		return "level_high"
	case IRQLevelLow:
		return "level_low"
	default:
		return "none"
	}
}

// ActiveLow reports the line polarity implied by the trigger.
func (t IRQTrigger) ActiveLow() bool { return t == IRQLevelLow || t == IRQEdgeFalling }

// Resource is a memory window [Start, End] of Size bytes or an IRQ line
// (Start == End == line).
type Resource struct {
	Kind    ResourceKind
	Start   uint32
	End     uint32
	Size    uint32     // ResMem only
	Trigger IRQTrigger // ResIRQ only
}

// MemResource keeps size alongside the bounds so an empty or wrapping
// window is still visible to validation.
func MemResource(start, size uint32) Resource {
	return Resource{Kind: ResMem, Start: start, End: start + size - 1, Size: size}
}

func IRQResource(line int, trig IRQTrigger) Resource {
	return Resource{Kind: ResIRQ, Start: uint32(line), End: uint32(line), Trigger: trig}
}

// PeripheralDescriptor is one on-board device as declared by the board.
// Descriptors are values: catalogs copy them and nothing edits one in place.
type PeripheralDescriptor struct {
	Name      string
	ID        int // instance id; -1 for a single-instance device
	Bus       BusRef
	Parent    string
	Resources []Resource
	Gate      []Feature
	Payload   any
}

// Key is the descriptor identity used in logs and conflict reports,
// e.g. "s3c-sdhci.1", "smsc911x", "i2c0@0x1a".
func (d PeripheralDescriptor) Key() string {
	if d.Bus.Kind == BusI2C {
		return "i2c" + strconv.Itoa(d.Bus.Index) + "@0x" + strconv.FormatUint(uint64(d.Bus.Addr), 16)
	}
	if d.ID < 0 {
		return d.Name
	}
	return d.Name + "." + strconv.Itoa(d.ID)
}

// IRQs returns the IRQ resources in declaration order.
func (d PeripheralDescriptor) IRQs() []Resource {
	var out []Resource
	for _, r := range d.Resources {
		if r.Kind == ResIRQ {
			out = append(out, r)
		}
	}
	return out
}

// WithPayload returns a copy carrying p; the receiver is left untouched.
func (d PeripheralDescriptor) WithPayload(p any) PeripheralDescriptor {
	c := d.Clone()
	c.Payload = p
	return c
}

// Clone copies the slices so the result shares no backing arrays with d.
func (d PeripheralDescriptor) Clone() PeripheralDescriptor {
	c := d
	c.Resources = append([]Resource(nil), d.Resources...)
	c.Gate = append([]Feature(nil), d.Gate...)
	return c
}

// ------------------------
// Bring-up state (published)
// ------------------------

type BringupState struct {
	Stage    string `json:"stage"`  // "map_io", "mode_select", "machine_init", "complete"
	Status   string `json:"status"` // "running", "done", "failed"
	Resource string `json:"resource,omitempty"`
	Error    string `json:"error,omitempty"`
	TS       int64  `json:"ts_ms"`
}
