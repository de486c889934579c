package trace

import (
	"syscall"

	"github.com/cmccarron/megadbg/internal/procerr"
)

// RegisterID is the logical_id of §4.1's register descriptor table.
type RegisterID int

const (
	R15 RegisterID = iota
	R14
	R13
	R12
	RBP
	RBX
	R11
	R10
	R9
	R8
	RAX
	RCX
	RDX
	RSI
	RDI
	ORIGRAX
	RIP
	CS
	EFLAGS
	RSP
	SS
	FSBASE
	GSBASE
	DS
	ES
	FS
	GS
)

type descriptor struct {
	id      RegisterID
	dwarfID uint64
	name    string
	get     func(*syscall.PtraceRegs) uint64
	set     func(*syscall.PtraceRegs, uint64)
}

// registerTable is the static, ordered descriptor table of §4.1. DWARF
// register numbers follow the x86-64 System V psABI.
var registerTable = []descriptor{
	{RAX, 0, "rax", func(r *syscall.PtraceRegs) uint64 { return r.Rax }, func(r *syscall.PtraceRegs, v uint64) { r.Rax = v }},
	{RDX, 1, "rdx", func(r *syscall.PtraceRegs) uint64 { return r.Rdx }, func(r *syscall.PtraceRegs, v uint64) { r.Rdx = v }},
	{RCX, 2, "rcx", func(r *syscall.PtraceRegs) uint64 { return r.Rcx }, func(r *syscall.PtraceRegs, v uint64) { r.Rcx = v }},
	{RBX, 3, "rbx", func(r *syscall.PtraceRegs) uint64 { return r.Rbx }, func(r *syscall.PtraceRegs, v uint64) { r.Rbx = v }},
	{RSI, 4, "rsi", func(r *syscall.PtraceRegs) uint64 { return r.Rsi }, func(r *syscall.PtraceRegs, v uint64) { r.Rsi = v }},
	{RDI, 5, "rdi", func(r *syscall.PtraceRegs) uint64 { return r.Rdi }, func(r *syscall.PtraceRegs, v uint64) { r.Rdi = v }},
	{RBP, 6, "rbp", func(r *syscall.PtraceRegs) uint64 { return r.Rbp }, func(r *syscall.PtraceRegs, v uint64) { r.Rbp = v }},
	{RSP, 7, "rsp", func(r *syscall.PtraceRegs) uint64 { return r.Rsp }, func(r *syscall.PtraceRegs, v uint64) { r.Rsp = v }},
	{R8, 8, "r8", func(r *syscall.PtraceRegs) uint64 { return r.R8 }, func(r *syscall.PtraceRegs, v uint64) { r.R8 = v }},
	{R9, 9, "r9", func(r *syscall.PtraceRegs) uint64 { return r.R9 }, func(r *syscall.PtraceRegs, v uint64) { r.R9 = v }},
	{R10, 10, "r10", func(r *syscall.PtraceRegs) uint64 { return r.R10 }, func(r *syscall.PtraceRegs, v uint64) { r.R10 = v }},
	{R11, 11, "r11", func(r *syscall.PtraceRegs) uint64 { return r.R11 }, func(r *syscall.PtraceRegs, v uint64) { r.R11 = v }},
	{R12, 12, "r12", func(r *syscall.PtraceRegs) uint64 { return r.R12 }, func(r *syscall.PtraceRegs, v uint64) { r.R12 = v }},
	{R13, 13, "r13", func(r *syscall.PtraceRegs) uint64 { return r.R13 }, func(r *syscall.PtraceRegs, v uint64) { r.R13 = v }},
	{R14, 14, "r14", func(r *syscall.PtraceRegs) uint64 { return r.R14 }, func(r *syscall.PtraceRegs, v uint64) { r.R14 = v }},
	{R15, 15, "r15", func(r *syscall.PtraceRegs) uint64 { return r.R15 }, func(r *syscall.PtraceRegs, v uint64) { r.R15 = v }},
	{RIP, 16, "rip", func(r *syscall.PtraceRegs) uint64 { return r.Rip }, func(r *syscall.PtraceRegs, v uint64) { r.Rip = v }},
	{EFLAGS, 49, "eflags", func(r *syscall.PtraceRegs) uint64 { return r.Eflags }, func(r *syscall.PtraceRegs, v uint64) { r.Eflags = v }},
	{CS, 51, "cs", func(r *syscall.PtraceRegs) uint64 { return r.Cs }, func(r *syscall.PtraceRegs, v uint64) { r.Cs = v }},
	{SS, 52, "ss", func(r *syscall.PtraceRegs) uint64 { return r.Ss }, func(r *syscall.PtraceRegs, v uint64) { r.Ss = v }},
	{DS, 53, "ds", func(r *syscall.PtraceRegs) uint64 { return r.Ds }, func(r *syscall.PtraceRegs, v uint64) { r.Ds = v }},
	{ES, 50, "es", func(r *syscall.PtraceRegs) uint64 { return r.Es }, func(r *syscall.PtraceRegs, v uint64) { r.Es = v }},
	{FS, 54, "fs", func(r *syscall.PtraceRegs) uint64 { return r.Fs }, func(r *syscall.PtraceRegs, v uint64) { r.Fs = v }},
	{GS, 55, "gs", func(r *syscall.PtraceRegs) uint64 { return r.Gs }, func(r *syscall.PtraceRegs, v uint64) { r.Gs = v }},
	{FSBASE, 58, "fs_base", func(r *syscall.PtraceRegs) uint64 { return r.Fs_base }, func(r *syscall.PtraceRegs, v uint64) { r.Fs_base = v }},
	{GSBASE, 59, "gs_base", func(r *syscall.PtraceRegs) uint64 { return r.Gs_base }, func(r *syscall.PtraceRegs, v uint64) { r.Gs_base = v }},
	{ORIGRAX, 0, "orig_rax", func(r *syscall.PtraceRegs) uint64 { return r.Orig_rax }, func(r *syscall.PtraceRegs, v uint64) { r.Orig_rax = v }},
}

func findByID(id RegisterID) (descriptor, bool) {
	for _, d := range registerTable {
		if d.id == id {
			return d, true
		}
	}
	return descriptor{}, false
}

func findByDwarf(dwarfID uint64) (descriptor, bool) {
	for _, d := range registerTable {
		if d.name == "orig_rax" {
			continue // orig_rax has no DWARF number; never matched by lookup
		}
		if d.dwarfID == dwarfID {
			return d, true
		}
	}
	return descriptor{}, false
}

func findByName(name string) (descriptor, bool) {
	for _, d := range registerTable {
		if d.name == name {
			return d, true
		}
	}
	return descriptor{}, false
}

// Get returns the named register's value (logical_id form of §4.1).
func Get(t Tracer, id RegisterID) (uint64, error) {
	d, ok := findByID(id)
	if !ok {
		return 0, &procerr.UnknownRegisterName{Name: "<invalid id>"}
	}
	regs, err := t.GetRegs()
	if err != nil {
		return 0, err
	}
	return d.get(regs), nil
}

// Set writes the named register's value.
func Set(t Tracer, id RegisterID, v uint64) error {
	d, ok := findByID(id)
	if !ok {
		return &procerr.UnknownRegisterName{Name: "<invalid id>"}
	}
	regs, err := t.GetRegs()
	if err != nil {
		return err
	}
	d.set(regs, v)
	return t.SetRegs(regs)
}

// GetByDwarf resolves a register by its DWARF register number.
func GetByDwarf(t Tracer, dwarfID uint64) (uint64, error) {
	d, ok := findByDwarf(dwarfID)
	if !ok {
		return 0, &procerr.UnknownDwarfRegister{Num: dwarfID}
	}
	regs, err := t.GetRegs()
	if err != nil {
		return 0, err
	}
	return d.get(regs), nil
}

// NameOf returns the canonical register name for id, or "" if unknown.
func NameOf(id RegisterID) string {
	d, ok := findByID(id)
	if !ok {
		return ""
	}
	return d.name
}

// IDOf resolves a register name (as typed by the user) to a logical_id.
func IDOf(name string) (RegisterID, error) {
	d, ok := findByName(name)
	if !ok {
		return 0, &procerr.UnknownRegisterName{Name: name}
	}
	return d.id, nil
}

// AllNames returns every register name in descriptor-table order, for the
// `register dump` command.
func AllNames() []string {
	names := make([]string, 0, len(registerTable))
	for _, d := range registerTable {
		names = append(names, d.name)
	}
	return names
}
