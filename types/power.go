package types

// ------------------------
// Regulators (power rails)
// ------------------------

type RegulatorMode uint8

const (
	ModeNormal RegulatorMode = iota
	ModeFast
	ModeIdle
	ModeStandby
)

func (m RegulatorMode) String() string {
	switch m {
	case ModeFast:
		return "fast"
	case ModeIdle:
		return "idle"
	case ModeStandby:
		return "standby"
	default:
		return "normal"
	}
}

// SuspendState is the rail target while the system is in suspend-to-memory.
type SuspendState struct {
	Microvolts uint32
	Mode       RegulatorMode
	Enabled    bool
}

// PowerRailConstraint is the allowed operating envelope of one rail.
type PowerRailConstraint struct {
	Name          string
	MinMicrovolts uint32
	MaxMicrovolts uint32

	AlwaysOn           bool // never powered off in normal operation
	ApplyMicrovolts    bool // program MinMicrovolts at registration (fixed rails)
	AllowVoltageChange bool // consumers may move the rail within the envelope

	Suspend        *SuspendState // nil: no suspend target
	InitialSuspend bool          // start in the suspend-to-memory state

	Consumers []string // supply names fed by this rail
}

// Fixed reports a rail whose envelope is a single voltage.
func (c PowerRailConstraint) Fixed() bool { return c.MinMicrovolts == c.MaxMicrovolts }

// Clone copies the consumer list and suspend state.
func (c PowerRailConstraint) Clone() PowerRailConstraint {
	out := c
	out.Consumers = append([]string(nil), c.Consumers...)
	if c.Suspend != nil {
		s := *c.Suspend
		out.Suspend = &s
	}
	return out
}

// ChannelRail binds a constraint to a companion-chip regulator channel.
type ChannelRail struct {
	Channel    int
	Constraint PowerRailConstraint
}

// PullPrereq is a pin pull configuration that must be in place before a
// rail set is instantiated (e.g. the companion chip's IRQ line).
type PullPrereq struct {
	Pin   Pin
	Pull  Pull
	Owner string
}

// RailSet is every rail owned by one companion chip.
type RailSet struct {
	Chip         string
	Gate         []Feature
	Prerequisite *PullPrereq
	Rails        []ChannelRail
}

// RailRegistrar is the companion-chip driver's registration entry point.
type RailRegistrar interface {
	RegisterRegulator(channel int, c PowerRailConstraint) error
}

// PMICInitFunc runs once when the companion chip is discovered.
type PMICInitFunc func(r RailRegistrar) error

// PMICPlatformData is the I2C payload of a companion chip.
type PMICPlatformData struct {
	IRQHigh bool
	Init    PMICInitFunc // bound by the orchestrator; nil in board tables
}
