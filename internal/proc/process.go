// Package proc ties the register/memory I/O (C1/C2), symbol resolver (C4),
// load-base tracker (C5), signal waiter (C6), stepper (C7), and breakpoint
// manager (C8) together around a single tracked inferior (§2).
package proc

import (
	"bufio"
	"debug/elf"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/cmccarron/megadbg/internal/breakpoint"
	"github.com/cmccarron/megadbg/internal/symbols"
	"github.com/cmccarron/megadbg/internal/trace"
)

// Process is the inferior process of §3: an opaque process handle, its
// observed load base, and the breakpoint table that is uniquely owned by
// the debugger (§5).
type Process struct {
	Path string
	Pid  int

	Tracer      trace.Tracer
	Resolver    *symbols.Resolver
	Breakpoints *breakpoint.Table

	// LoadBase is 0 for non-relocatable binaries; for position-independent
	// binaries it is the first mapped segment's start address (§4.5).
	LoadBase uint64

	// Terminated is set when a non-trap signal reports the inferior's exit
	// (§3, §7's InferiorExited).
	Terminated bool

	log *logrus.Entry
}

// Spawn starts path under ptrace and stops it at the initial exec-stop,
// mirroring the teacher's `start` closure in main.go but generalized away
// from a single hardcoded flow.
func Spawn(path string, args []string) (*Process, error) {
	cmd := exec.Command(path, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	cmd.SysProcAttr = &syscall.SysProcAttr{Ptrace: true}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("could not start process: %w", err)
	}

	pid := cmd.Process.Pid
	var status syscall.WaitStatus
	if _, err := syscall.Wait4(pid, &status, 0, nil); err != nil {
		return nil, fmt.Errorf("could not wait for initial stop: %w", err)
	}

	return newProcess(path, pid)
}

// Attach attaches to an already-running process, as the teacher's
// NewDebugProcess did.
func Attach(path string, pid int) (*Process, error) {
	if err := syscall.PtraceAttach(pid); err != nil {
		return nil, fmt.Errorf("could not attach: %w", err)
	}
	var status syscall.WaitStatus
	if _, err := syscall.Wait4(pid, &status, 0, nil); err != nil {
		return nil, err
	}
	return newProcess(path, pid)
}

func newProcess(path string, pid int) (*Process, error) {
	p := &Process{
		Path:        path,
		Pid:         pid,
		Tracer:      trace.NewTracer(pid),
		Breakpoints: breakpoint.NewTable(),
		log:         logrus.WithField("pid", pid),
	}

	resolver, err := symbols.Load(path)
	if err != nil {
		return nil, fmt.Errorf("could not load debug info: %w", err)
	}
	p.Resolver = resolver

	if err := p.detectLoadBase(); err != nil {
		// A binary with no readable process map is unusual but not fatal
		// to the rest of the session; default to a zero load base and log
		// it rather than aborting attach.
		p.log.WithError(err).Warn("could not determine load base; assuming 0")
	}

	return p, nil
}

// detectLoadBase implements §4.5: only position-independent (ET_DYN)
// binaries get a nonzero load base, read from the first mapped region in
// /proc/<pid>/maps (§6.4).
func (p *Process) detectLoadBase() error {
	if p.Resolver.ELFType() != elf.ET_DYN {
		p.LoadBase = 0
		return nil
	}

	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", p.Pid))
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return fmt.Errorf("empty process map")
	}
	line := sc.Text()
	fields := strings.SplitN(line, "-", 2)
	if len(fields) != 2 {
		return fmt.Errorf("malformed process map line %q", line)
	}
	base, err := strconv.ParseUint(fields[0], 16, 64)
	if err != nil {
		return err
	}
	p.LoadBase = base
	return nil
}

// ToDwarf converts a runtime address to a DWARF address (§3, §4.5).
func (p *Process) ToDwarf(runtimeAddr uint64) uint64 { return runtimeAddr - p.LoadBase }

// ToRuntime converts a DWARF address to a runtime address (§3, §4.5).
func (p *Process) ToRuntime(dwarfAddr uint64) uint64 { return dwarfAddr + p.LoadBase }

// PC returns the current value of the instruction pointer.
func (p *Process) PC() (uint64, error) {
	return trace.Get(p.Tracer, trace.RIP)
}

// SetPC writes the instruction pointer.
func (p *Process) SetPC(addr uint64) error {
	return trace.Set(p.Tracer, trace.RIP, addr)
}

// Detach detaches from the inferior without killing it.
func (p *Process) Detach() error {
	return syscall.PtraceDetach(p.Pid)
}

// Kill terminates the inferior.
func (p *Process) Kill() error {
	proc, err := os.FindProcess(p.Pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}

// Close releases resources not tied to the inferior's lifetime (the parsed
// debug info).
func (p *Process) Close() error {
	if p.Resolver != nil {
		return p.Resolver.Close()
	}
	return nil
}
