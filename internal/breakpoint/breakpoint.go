// Package breakpoint implements the breakpoint object (C3) and the
// breakpoint table (§3) that the breakpoint manager (C8) indexes by address.
package breakpoint

import (
	"github.com/cmccarron/megadbg/internal/procerr"
	"github.com/cmccarron/megadbg/internal/trace"
)

// TrapOpcode is the x86-64 single-byte software breakpoint instruction.
const TrapOpcode = 0xCC

// Breakpoint is a runtime-address (C3) patched with the trap opcode.
// Invariant: when Enabled, the byte at Address in the inferior equals
// TrapOpcode and SavedByte holds the original value; when disabled, the
// original byte has been restored.
type Breakpoint struct {
	Address  uint64
	SavedByte byte
	Enabled  bool

	// Function/File/Line are descriptive only, filled in by whichever
	// setter (C8) created this breakpoint, for REPL acknowledgement
	// messages; they play no role in the enable/disable invariant.
	Function string
	File     string
	Line     int

	// Temporary marks a breakpoint installed internally by the stepper
	// (C7) for the duration of a single step-over/step-out command. The
	// manager never prints an acknowledgement for these.
	Temporary bool
}

// New constructs a disabled breakpoint record at addr. Callers must call
// Enable to actually patch the inferior.
func New(addr uint64) *Breakpoint {
	return &Breakpoint{Address: addr}
}

// Enable patches the trap opcode into the inferior at b.Address, saving the
// original byte. A second call while already enabled is a no-op (§4.3).
func (b *Breakpoint) Enable(t trace.Tracer) error {
	if b.Enabled {
		return nil
	}
	word, err := trace.ReadWord(t, b.Address)
	if err != nil {
		return err
	}
	b.SavedByte = byte(word)
	patched := (word &^ 0xff) | TrapOpcode
	if err := trace.WriteWord(t, b.Address, patched); err != nil {
		return err
	}
	b.Enabled = true
	return nil
}

// Disable restores the original byte at b.Address. A second call while
// already disabled is a no-op (§4.3).
func (b *Breakpoint) Disable(t trace.Tracer) error {
	if !b.Enabled {
		return nil
	}
	word, err := trace.ReadWord(t, b.Address)
	if err != nil {
		return err
	}
	restored := (word &^ 0xff) | uint64(b.SavedByte)
	if err := trace.WriteWord(t, b.Address, restored); err != nil {
		return err
	}
	b.Enabled = false
	return nil
}

// Table is the address-keyed breakpoint table of §3. At most one
// Breakpoint exists per address.
type Table struct {
	byAddr map[uint64]*Breakpoint
}

// NewTable returns an empty breakpoint table.
func NewTable() *Table {
	return &Table{byAddr: make(map[uint64]*Breakpoint)}
}

// Lookup returns the breakpoint at addr, if any.
func (tb *Table) Lookup(addr uint64) (*Breakpoint, bool) {
	bp, ok := tb.byAddr[addr]
	return bp, ok
}

// Insert adds bp to the table, keyed by bp.Address. Replacing an existing
// entry at that address is explicitly undefined by §3; this implementation
// simply overwrites, matching that contract without leaking the table
// entry (the caller is responsible for disabling the replaced breakpoint
// first if it cares).
func (tb *Table) Insert(bp *Breakpoint) {
	tb.byAddr[bp.Address] = bp
}

// Remove erases the table entry at addr, disabling it first if needed.
func (tb *Table) Remove(t trace.Tracer, addr uint64) (*Breakpoint, error) {
	bp, ok := tb.byAddr[addr]
	if !ok {
		return nil, &procerr.NoBreakpointAt{Addr: addr}
	}
	if err := bp.Disable(t); err != nil {
		return nil, err
	}
	delete(tb.byAddr, addr)
	return bp, nil
}

// All returns every breakpoint in the table; order is unspecified (§3).
func (tb *Table) All() []*Breakpoint {
	out := make([]*Breakpoint, 0, len(tb.byAddr))
	for _, bp := range tb.byAddr {
		out = append(out, bp)
	}
	return out
}

// Len reports how many breakpoints are currently tracked.
func (tb *Table) Len() int { return len(tb.byAddr) }
