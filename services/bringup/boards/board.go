// Package boards holds per-revision board declarations. A board is data
// only: the orchestrator interprets it.
package boards

import (
	"fmt"
	"sort"
	"sync"

	"bringup-go/services/bringup/internal/modesel"
	"bringup-go/types"
)

// I2CBus is the board info registered against one I2C controller.
type I2CBus struct {
	Index   int
	Devices []types.PeripheralDescriptor
}

// Board describes one board revision: what the SoC needs at MapIO, the
// mode-select writes, controller defaults, the panel power choreography
// and the peripheral inventory in registration order.
type Board struct {
	Name     string
	Features []types.Feature // every flag the board understands

	// MapIO
	IODesc []types.MapDesc
	XtalHz uint32
	UARTs  []types.UARTConfig

	ModeSelect []modesel.Step

	// MachineInit
	ControllerData []types.ControllerData
	LCDPower       types.PowerSequence
	LCDDevice      string // device whose driver receives the power control
	I2C            []I2CBus
	PMIC           string // I2C device name that carries PMICPlatformData
	Rails          types.RailSet
	Devices        []types.PeripheralDescriptor
}

// Knows reports whether f is one of the board's flags.
func (b Board) Knows(f types.Feature) bool {
	for _, k := range b.Features {
		if k == f {
			return true
		}
	}
	return false
}

var (
	mu     sync.RWMutex
	boards = map[string]func() Board{}
)

// Register adds a board constructor. Registering a name twice panics.
func Register(name string, fn func() Board) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := boards[name]; exists {
		panic(fmt.Sprintf("board already registered: %q", name))
	}
	boards[name] = fn
}

// Lookup builds a fresh copy of the named board.
func Lookup(name string) (Board, bool) {
	mu.RLock()
	fn, ok := boards[name]
	mu.RUnlock()
	if !ok {
		return Board{}, false
	}
	return fn(), true
}

// Names lists registered boards.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(boards))
	for n := range boards {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
