// Package sequencer drives a sub-system's power pins through an ordered,
// timed list of steps.
package sequencer

import (
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"bringup-go/bus"
	"bringup-go/errcode"
	"bringup-go/services/bringup/internal/core"
	"bringup-go/types"
	"bringup-go/x/timex"
)

type Options struct {
	Logger zerolog.Logger
	Conn   *bus.Connection // nil: no publication
}

// Sequencer implements core.PowerController for one PowerSequence.
type Sequencer struct {
	seq   types.PowerSequence
	lines map[types.Pin]core.GPIOLine
	delay timex.Delayer
	log   zerolog.Logger
	conn  *bus.Connection

	mu     sync.Mutex
	target types.PowerTarget
	done   bool
}

var _ core.PowerController = (*Sequencer)(nil)

// Validate checks that On is non-empty and that every pin the sequence
// touches is driven by On.
func Validate(seq types.PowerSequence) error {
	if len(seq.On) == 0 {
		return errcode.New(errcode.ConfigurationDefect, "power_sequence", seq.Owner, "empty power-on list", errcode.InvalidParams)
	}
	inOn := make(map[types.Pin]bool, len(seq.On))
	for _, st := range seq.On {
		if st.Pin.IsZero() {
			return errcode.New(errcode.ConfigurationDefect, "power_sequence", seq.Owner, "step has no pin", errcode.InvalidParams)
		}
		inOn[st.Pin] = true
	}
	for _, st := range seq.Off {
		if !inOn[st.Pin] {
			return errcode.New(errcode.ConfigurationDefect, "power_sequence", st.Pin.String(), "pin not driven by power-on", errcode.InvalidParams)
		}
	}
	return nil
}

// New binds seq to already-reserved lines. It does not touch the pins.
func New(seq types.PowerSequence, lines map[types.Pin]core.GPIOLine, d timex.Delayer, opts Options) (*Sequencer, error) {
	if err := Validate(seq); err != nil {
		return nil, err
	}
	if d == nil {
		d = timex.Sleeper{}
	}
	own := make(map[types.Pin]core.GPIOLine, len(lines))
	for p, l := range lines {
		own[p] = l
	}
	return &Sequencer{
		seq:   seq,
		lines: own,
		delay: d,
		log:   opts.Logger.With().Str("owner", seq.Owner).Logger(),
		conn:  opts.Conn,
	}, nil
}

// SetPower runs the list for target strictly in order and returns after the
// last step's delay. A step that cannot be applied aborts the call; pins
// already driven keep their levels.
func (s *Sequencer) SetPower(target types.PowerTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	steps := s.seq.Off
	if target == types.PowerOn {
		steps = s.seq.On
	}
	s.log.Debug().Str("target", target.String()).Int("steps", len(steps)).Msg("power sequence start")

	for i, st := range steps {
		line, ok := s.lines[st.Pin]
		if !ok {
			return errcode.New(errcode.SequenceAbort, "set_power", st.Pin.String(),
				target.String()+" step "+strconv.Itoa(i), errcode.UnknownPin)
		}
		if err := line.DirectionOutput(st.Level); err != nil {
			return errcode.New(errcode.SequenceAbort, "set_power", st.Pin.String(),
				target.String()+" step "+strconv.Itoa(i),
				errcode.New(errcode.HardwareUnavailable, "drive_gpio", st.Pin.String(), "", err))
		}
		s.log.Debug().Str("pin", st.Pin.String()).Str("level", st.Level.String()).Uint32("delay_ms", st.DelayMs).Msg("step")
		if st.DelayMs > 0 {
			s.delay.Delay(st.DelayMs)
		}
	}

	s.target, s.done = target, true
	if s.conn != nil {
		s.conn.Publish(s.conn.NewMessage(
			bus.T("bringup", "display", s.seq.Owner, "power"),
			types.DisplayPower{Owner: s.seq.Owner, Target: target.String(), TS: timex.NowMs()},
			true,
		))
	}
	return nil
}

// Target reports the last target that completed, if any.
func (s *Sequencer) Target() (types.PowerTarget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target, s.done
}

func (s *Sequencer) Owner() string { return s.seq.Owner }
