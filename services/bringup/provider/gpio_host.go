package provider

import (
	"sync"
	"time"

	"bringup-go/errcode"
	"bringup-go/services/bringup/internal/core"
	"bringup-go/types"
)

// S3C6410Banks is the pin count of each GPIO bank.
var S3C6410Banks = map[string]int{
	"A": 8, "B": 7, "C": 8, "D": 5, "E": 5, "F": 16, "G": 7, "H": 10, "I": 16,
	"J": 12, "K": 16, "L": 15, "M": 6, "N": 16, "O": 16, "P": 15, "Q": 9,
}

// LevelChange is one output write seen by HostGPIO.
type LevelChange struct {
	Pin   types.Pin
	Level types.Level
	At    time.Time
}

// HostGPIO is a simulated GPIO block that keeps the history of every
// level written.
type HostGPIO struct {
	banks map[string]int

	mu      sync.Mutex
	lines   map[types.Pin]*HostLine
	history []LevelChange
	fail    map[types.Pin]error
}

var _ core.GPIOController = (*HostGPIO)(nil)

func NewHostGPIO(banks map[string]int) *HostGPIO {
	if banks == nil {
		banks = S3C6410Banks
	}
	return &HostGPIO{
		banks: banks,
		lines: make(map[types.Pin]*HostLine),
		fail:  make(map[types.Pin]error),
	}
}

func (g *HostGPIO) Line(p types.Pin) (core.GPIOLine, error) {
	n, ok := g.banks[p.Bank]
	if !ok || p.Num < 0 || p.Num >= n {
		return nil, errcode.UnknownPin
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.lines[p]
	if !ok {
		l = &HostLine{pin: p, g: g}
		g.lines[p] = l
	}
	return l, nil
}

// FailPin makes every later write to p return err.
func (g *HostGPIO) FailPin(p types.Pin, err error) {
	g.mu.Lock()
	g.fail[p] = err
	g.mu.Unlock()
}

// History returns every level change in order.
func (g *HostGPIO) History() []LevelChange {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]LevelChange(nil), g.history...)
}

// Level returns the last level driven on p and whether p is an output.
func (g *HostGPIO) Level(p types.Pin) (types.Level, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.lines[p]
	if !ok || !l.out {
		return types.Low, false
	}
	return l.level, true
}

// Pull returns the pull configured on p.
func (g *HostGPIO) Pull(p types.Pin) types.Pull {
	g.mu.Lock()
	defer g.mu.Unlock()
	if l, ok := g.lines[p]; ok {
		return l.pull
	}
	return types.PullNone
}

// HostLine is one simulated pin.
type HostLine struct {
	pin   types.Pin
	g     *HostGPIO
	out   bool
	level types.Level
	pull  types.Pull
}

func (l *HostLine) Pin() types.Pin { return l.pin }

func (l *HostLine) DirectionOutput(v types.Level) error {
	l.g.mu.Lock()
	defer l.g.mu.Unlock()
	if err := l.g.fail[l.pin]; err != nil {
		return err
	}
	l.out, l.level = true, v
	l.g.history = append(l.g.history, LevelChange{Pin: l.pin, Level: v, At: time.Now()})
	return nil
}

func (l *HostLine) SetPull(p types.Pull) error {
	l.g.mu.Lock()
	defer l.g.mu.Unlock()
	if err := l.g.fail[l.pin]; err != nil {
		return err
	}
	l.pull = p
	return nil
}

// S3C6410LineBase is the Linux gpiolib number of each bank's first pin.
var S3C6410LineBase = map[string]int{
	"A": 0, "B": 9, "C": 17, "D": 26, "E": 32, "F": 38, "G": 55, "H": 63, "I": 74,
	"J": 91, "K": 104, "L": 121, "M": 137, "N": 144, "O": 161, "P": 178, "Q": 194,
}
