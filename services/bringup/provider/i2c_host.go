package provider

import (
	"sync"

	"bringup-go/errcode"

	"tinygo.org/x/drivers"
)

// HostI2C implements tinygo drivers.I2C by dispatching each transfer to the
// simulated target at the addressed slot. An empty slot does not ACK.
type HostI2C struct {
	mu      sync.Mutex
	targets map[uint16]drivers.I2C
	LastTx  struct {
		Addr uint16
		W    []byte
		Rn   int
	}
}

var _ drivers.I2C = (*HostI2C)(nil)

func NewHostI2C() *HostI2C { return &HostI2C{targets: make(map[uint16]drivers.I2C)} }

// Attach places a target at addr.
func (h *HostI2C) Attach(addr uint16, t drivers.I2C) {
	h.mu.Lock()
	h.targets[addr] = t
	h.mu.Unlock()
}

func (h *HostI2C) Tx(addr uint16, w, r []byte) error {
	h.mu.Lock()
	h.LastTx.Addr = addr
	h.LastTx.W = append(h.LastTx.W[:0], w...)
	h.LastTx.Rn = len(r)
	t := h.targets[addr]
	h.mu.Unlock()
	if t == nil {
		return errcode.NoResponse
	}
	return t.Tx(addr, w, r)
}

// SimWM8350 is the register file of a WM8350 as seen over I2C: an 8-bit
// register address followed by 16-bit big-endian data.
type SimWM8350 struct {
	mu     sync.Mutex
	regs   map[byte]uint16
	writes []SimWrite
}

type SimWrite struct {
	Reg   byte
	Value uint16
}

func NewSimWM8350() *SimWM8350 {
	return &SimWM8350{regs: map[byte]uint16{0x00: 0x6143}}
}

func (s *SimWM8350) Tx(_ uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case len(w) == 1 && len(r) == 2:
		v := s.regs[w[0]]
		r[0], r[1] = byte(v>>8), byte(v)
		return nil
	case len(w) == 3 && len(r) == 0:
		v := uint16(w[1])<<8 | uint16(w[2])
		s.regs[w[0]] = v
		s.writes = append(s.writes, SimWrite{Reg: w[0], Value: v})
		return nil
	}
	return errcode.Unsupported
}

// Reg returns the current value of a register.
func (s *SimWM8350) Reg(reg byte) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[reg]
}

// Writes returns every register write in order.
func (s *SimWM8350) Writes() []SimWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SimWrite(nil), s.writes...)
}
