package types

import "strconv"

// ------------------------
// GPIO identities and levels
// ------------------------

// Pin identifies one GPIO line as bank letter(s) plus index, e.g. GPF13.
type Pin struct {
	Bank string
	Num  int
}

func (p Pin) String() string { return "GP" + p.Bank + strconv.Itoa(p.Num) }

// IsZero reports an unset pin.
func (p Pin) IsZero() bool { return p.Bank == "" && p.Num == 0 }

type Level uint8

const (
	Low Level = iota
	High
)

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

func (l Level) Bool() bool { return l == High }

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

func (p Pull) String() string {
	switch p {
	case PullUp:
		return "up"
	case PullDown:
		return "down"
	default:
		return "none"
	}
}

// ------------------------
// Power sequences
// ------------------------

// GPIOActionStep drives Pin to Level, then waits DelayMs before the next step.
type GPIOActionStep struct {
	Pin     Pin
	Level   Level
	DelayMs uint32
}

// PowerSequence is the ordered pin choreography for one sub-system.
// On and Off need not mirror each other.
type PowerSequence struct {
	Owner string // reservation label, e.g. "LCD power"
	On    []GPIOActionStep
	Off   []GPIOActionStep
}

// Pins lists every pin referenced by the sequence in first-seen order
// (On before Off).
func (s PowerSequence) Pins() []Pin {
	seen := make(map[Pin]bool)
	var out []Pin
	for _, steps := range [][]GPIOActionStep{s.On, s.Off} {
		for _, st := range steps {
			if !seen[st.Pin] {
				seen[st.Pin] = true
				out = append(out, st.Pin)
			}
		}
	}
	return out
}

type PowerTarget uint8

const (
	PowerOff PowerTarget = iota
	PowerOn
)

func (t PowerTarget) String() string {
	if t == PowerOn {
		return "on"
	}
	return "off"
}

// DisplayPower is published when a power sequence completes.
type DisplayPower struct {
	Owner  string `json:"owner"`
	Target string `json:"target"`
	TS     int64  `json:"ts_ms"`
}
