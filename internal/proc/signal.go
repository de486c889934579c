package proc

import (
	"fmt"
	"syscall"

	"github.com/cmccarron/megadbg/internal/breakpoint"
	"github.com/cmccarron/megadbg/internal/procerr"
	"github.com/cmccarron/megadbg/internal/source"
	"github.com/cmccarron/megadbg/internal/trace"
)

// Echo controls whether the signal waiter prints the post-stop source
// window. §9 replaces the teacher's string-typed `call` parameter
// ("show"/"initial"/"break"/"step") with this small enum, threaded through
// the wait/handle chain and the breakpoint setter.
type Echo int

const (
	// EchoVerbose prints the source window on a breakpoint stop.
	EchoVerbose Echo = iota
	// EchoSilent suppresses the source window and the breakpoint setter's
	// acknowledgement; used by internal stepping sequences that aren't the
	// final stop of a command. SIGSEGV and other-signal notices are still
	// printed.
	EchoSilent
	// EchoInitial marks the very first stop of a debug session (before any
	// user command has run). The signal waiter prints no source window for
	// it, as with EchoSilent, but the breakpoint setter still prints its
	// acknowledgement.
	EchoInitial
)

// StopKind classifies a wait-for-stop result (§4.6).
type StopKind int

const (
	StopBreakpoint StopKind = iota
	StopSingleStep
	StopSegv
	StopExited
	StopOther
)

// si_code values from asm-generic/siginfo.h relevant to SIGTRAP.
const (
	siKernel  = 0x80
	trapBrkpt = 1
	trapTrace = 2
)

// Stop is the result of WaitAndHandle.
type Stop struct {
	Kind   StopKind
	Signal syscall.Signal
	// FaultCode is populated for StopSegv (the SEGV si_code).
	FaultCode int32
}

// WaitAndHandle blocks until the inferior stops, classifies the stop per
// §4.6, and applies the PC-rewind / source-echo / termination bookkeeping
// described there.
func (p *Process) WaitAndHandle(echo Echo) (Stop, error) {
	status, err := p.Tracer.Wait()
	if err != nil {
		if err == syscall.ECHILD {
			p.Terminated = true
			return Stop{Kind: StopExited}, &procerr.InferiorExited{}
		}
		return Stop{}, err
	}

	if status.Exited() {
		p.Terminated = true
		return Stop{Kind: StopExited}, &procerr.InferiorExited{ExitStatus: status.ExitStatus()}
	}
	if status.Signaled() {
		p.Terminated = true
		sig := status.Signal()
		return Stop{Kind: StopExited, Signal: sig}, &procerr.InferiorExited{Signaled: true, Signal: trace.SignalName(sig)}
	}
	if !status.Stopped() {
		return Stop{Kind: StopOther}, fmt.Errorf("unexpected wait status %v", status)
	}

	sig := status.StopSignal()

	if sig == syscall.SIGTRAP {
		code, _ := p.Tracer.Siginfo()
		if code == trapTrace {
			return Stop{Kind: StopSingleStep, Signal: sig}, nil
		}

		// Either si_code says kernel/breakpoint (the common case for an
		// int3-based software breakpoint on Linux), or we couldn't read
		// a usable code at all; fall back to checking whether PC-1 is a
		// known breakpoint address, matching whichever actually
		// happened.
		pc, err := p.PC()
		if err != nil {
			return Stop{}, err
		}
		if bp, ok := p.Breakpoints.Lookup(pc - 1); ok {
			if err := p.SetPC(bp.Address); err != nil {
				return Stop{}, err
			}
			if echo == EchoVerbose {
				p.echoStopAt(bp.Address)
			}
			return Stop{Kind: StopBreakpoint, Signal: sig}, nil
		}

		_ = code
		return Stop{Kind: StopBreakpoint, Signal: sig}, nil
	}

	if sig == syscall.SIGSEGV {
		code, _ := p.Tracer.Siginfo()
		fmt.Printf("inferior received SIGSEGV (code %d)\n", code)
		return Stop{Kind: StopSegv, Signal: sig, FaultCode: code}, nil
	}

	fmt.Printf("inferior received signal: %s\n", trace.SignalName(sig))
	p.Terminated = true
	return Stop{Kind: StopOther, Signal: sig}, &procerr.InferiorExited{Signaled: true, Signal: trace.SignalName(sig)}
}

func (p *Process) echoStopAt(runtimeAddr uint64) {
	dwarfAddr := p.ToDwarf(runtimeAddr)
	le, err := p.Resolver.LineEntryFor(dwarfAddr)
	if err != nil {
		// §9: landing with no line-table entry is a clean diagnostic, not
		// a crash.
		fmt.Printf("no source information for address %#x\n", runtimeAddr)
		return
	}
	source.Print(le.File, le.Line, source.DefaultContext)
}

// breakpointAt is a small helper the stepper uses to avoid importing the
// breakpoint package's Table type directly in every call site.
func (p *Process) breakpointAt(addr uint64) (*breakpoint.Breakpoint, bool) {
	return p.Breakpoints.Lookup(addr)
}
