// Package trace provides named access to the inferior's registers (C1) and
// word-granular access to its memory (C2), layered on the host ptrace
// primitive (§6.3).
package trace

import (
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/cmccarron/megadbg/internal/procerr"
)

// Tracer is the host trace primitive the rest of the engine is built on.
// It exists as an interface, rather than free functions over a pid, so the
// stepping and breakpoint logic can be exercised in tests against a fake
// without a real ptraced inferior.
type Tracer interface {
	PID() int
	GetRegs() (*syscall.PtraceRegs, error)
	SetRegs(regs *syscall.PtraceRegs) error
	PeekData(addr uintptr, out []byte) (int, error)
	PokeData(addr uintptr, data []byte) (int, error)
	SingleStep() error
	Cont(sig int) error
	Wait() (syscall.WaitStatus, error)
	// Siginfo returns the si_code of the most recent stop, used to tell a
	// breakpoint trap apart from a single-step trap (§4.6).
	Siginfo() (code int32, err error)
}

// ptraceTracer is the real implementation, built directly on the linux/amd64
// ptrace syscalls, matching the teacher's direct use of the syscall package
// rather than a heavier ptrace wrapper library (§4.11).
type ptraceTracer struct {
	pid int
}

// NewTracer returns a Tracer for an already-attached, stopped pid.
func NewTracer(pid int) Tracer {
	return &ptraceTracer{pid: pid}
}

func (t *ptraceTracer) PID() int { return t.pid }

func (t *ptraceTracer) GetRegs() (*syscall.PtraceRegs, error) {
	var regs syscall.PtraceRegs
	if err := syscall.PtraceGetRegs(t.pid, &regs); err != nil {
		return nil, &procerr.Trace{Op: "PTRACE_GETREGS", Err: err}
	}
	return &regs, nil
}

func (t *ptraceTracer) SetRegs(regs *syscall.PtraceRegs) error {
	if err := syscall.PtraceSetRegs(t.pid, regs); err != nil {
		return &procerr.Trace{Op: "PTRACE_SETREGS", Err: err}
	}
	return nil
}

func (t *ptraceTracer) PeekData(addr uintptr, out []byte) (int, error) {
	n, err := syscall.PtracePeekData(t.pid, addr, out)
	if err != nil {
		return n, &procerr.Trace{Op: "PTRACE_PEEKDATA", Err: err}
	}
	return n, nil
}

func (t *ptraceTracer) PokeData(addr uintptr, data []byte) (int, error) {
	n, err := syscall.PtracePokeData(t.pid, addr, data)
	if err != nil {
		return n, &procerr.Trace{Op: "PTRACE_POKEDATA", Err: err}
	}
	return n, nil
}

func (t *ptraceTracer) SingleStep() error {
	if err := syscall.PtraceSingleStep(t.pid); err != nil {
		return &procerr.Trace{Op: "PTRACE_SINGLESTEP", Err: err}
	}
	return nil
}

func (t *ptraceTracer) Cont(sig int) error {
	if err := syscall.PtraceCont(t.pid, sig); err != nil {
		return &procerr.Trace{Op: "PTRACE_CONT", Err: err}
	}
	return nil
}

func (t *ptraceTracer) Wait() (syscall.WaitStatus, error) {
	var status syscall.WaitStatus
	_, err := syscall.Wait4(t.pid, &status, 0, nil)
	if err != nil {
		return 0, &procerr.Trace{Op: "wait4", Err: err}
	}
	return status, nil
}

// Siginfo retrieves si_code via PTRACE_GETSIGINFO, which the standard
// syscall package does not expose; golang.org/x/sys/unix does, and is
// already a real dependency of the corpus's own delve forks (§4.11).
func (t *ptraceTracer) Siginfo() (int32, error) {
	var info unix.Siginfo
	if err := unix.PtraceGetSiginfo(t.pid, &info); err != nil {
		return 0, &procerr.Trace{Op: "PTRACE_GETSIGINFO", Err: err}
	}
	return info.Code, nil
}

// SignalName returns a human-readable name for a stop signal, used when the
// signal waiter (C6) reports "any other signal" to the REPL.
func SignalName(sig syscall.Signal) string {
	return unix.SignalName(unix.Signal(sig))
}
