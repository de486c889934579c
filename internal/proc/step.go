package proc

import (
	"github.com/cmccarron/megadbg/internal/procerr"
	"github.com/cmccarron/megadbg/internal/trace"
)

// singleStep issues one instruction step and waits for it silently (§4.7).
func (p *Process) singleStep() (Stop, error) {
	if err := p.Tracer.SingleStep(); err != nil {
		return Stop{}, err
	}
	return p.WaitAndHandle(EchoSilent)
}

// stepOverBreakpoint disables any breakpoint installed at the current PC,
// steps one instruction past it, and re-enables it (§4.7). A no-op when no
// breakpoint sits at PC.
func (p *Process) stepOverBreakpoint() (Stop, error) {
	pc, err := p.PC()
	if err != nil {
		return Stop{}, err
	}
	bp, ok := p.breakpointAt(pc)
	if !ok || !bp.Enabled {
		return Stop{}, nil
	}
	if err := bp.Disable(p.Tracer); err != nil {
		return Stop{}, err
	}
	stop, err := p.singleStep()
	if err != nil {
		return stop, err
	}
	if err := bp.Enable(p.Tracer); err != nil {
		return stop, err
	}
	return stop, nil
}

// singleStepChecked is the stepping primitive the source-level modes are
// built on: it reconciles any breakpoint at the current PC before issuing
// the step (§4.7).
func (p *Process) singleStepChecked() (Stop, error) {
	pc, err := p.PC()
	if err != nil {
		return Stop{}, err
	}
	if bp, ok := p.breakpointAt(pc); ok && bp.Enabled {
		return p.stepOverBreakpoint()
	}
	return p.singleStep()
}

// ContinueExecution resumes the inferior, first stepping past any
// breakpoint sitting at the current PC (§4.7).
func (p *Process) ContinueExecution(echo Echo) (Stop, error) {
	if _, err := p.stepOverBreakpoint(); err != nil {
		return Stop{}, err
	}
	if err := p.Tracer.Cont(0); err != nil {
		return Stop{}, err
	}
	return p.WaitAndHandle(echo)
}

// currentLineEntry resolves the line-table entry at the current PC, in
// DWARF coordinates translated through the load base.
func (p *Process) currentLineEntry() (lineEntry, error) {
	pc, err := p.PC()
	if err != nil {
		return lineEntry{}, err
	}
	le, err := p.Resolver.LineEntryFor(p.ToDwarf(pc))
	if err != nil {
		return lineEntry{}, err
	}
	return lineEntry{File: le.File, Line: le.Line}, nil
}

type lineEntry struct {
	File string
	Line int
}

// StepIn implements the step-in source-level mode (§4.7): repeatedly step
// one instruction at a time until the line-table entry at the new PC names
// a different line, then print the new source window.
func (p *Process) StepIn() error {
	start, err := p.currentLineEntry()
	if err != nil {
		return err
	}

	for {
		stop, err := p.singleStepChecked()
		if err != nil {
			return err
		}
		if stop.Kind == StopExited || p.Terminated {
			return nil
		}
		if stop.Kind == StopSegv {
			return nil
		}

		cur, err := p.currentLineEntry()
		if err != nil {
			// §9: no line-table entry at this address is a clean
			// diagnostic, not a crash; the REPL stays alive with the
			// inferior stopped where it is.
			addr, _ := p.PC()
			return &procerr.NoSourceForAddress{Addr: addr}
		}
		if cur.Line != start.Line {
			break
		}
	}

	pc, err := p.PC()
	if err != nil {
		return err
	}
	p.echoStopAt(pc)
	return nil
}

// returnAddress reads the return address at [rbp + word_size], per the
// frame-pointer discipline §4.7 requires of step-over/step-out.
func (p *Process) returnAddress() (uint64, error) {
	fp, err := trace.Get(p.Tracer, trace.RBP)
	if err != nil {
		return 0, err
	}
	return trace.ReadWord(p.Tracer, fp+trace.WordSize)
}

// StepOver implements the step-over source-level mode (§4.7): every other
// line-table address within the current function, plus the return
// address, gets a silent temporary breakpoint; the inferior is continued
// once; every temporary is removed afterward regardless of which one (if
// any) actually fired (§7's transaction policy, §8's step-over invariant).
func (p *Process) StepOver() error {
	pc, err := p.PC()
	if err != nil {
		return err
	}
	dwarfPC := p.ToDwarf(pc)

	fn, err := p.Resolver.FunctionContaining(dwarfPC)
	if err != nil {
		return err
	}
	cur, err := p.Resolver.LineEntryFor(dwarfPC)
	if err != nil {
		return err
	}
	entries, err := p.Resolver.LineEntriesInFunction(fn)
	if err != nil {
		return err
	}

	var temporaries []uint64
	install := func(runtimeAddr uint64) {
		if _, ok := p.breakpointAt(runtimeAddr); ok {
			return
		}
		if bp, err := p.SetAtAddress(runtimeAddr, EchoSilent); err == nil {
			bp.Temporary = true
			temporaries = append(temporaries, runtimeAddr)
		}
	}

	for _, le := range entries {
		if le.Address == cur.Address {
			continue
		}
		install(p.ToRuntime(le.Address))
	}

	if retAddr, err := p.returnAddress(); err == nil {
		install(retAddr)
	}

	defer func() {
		for _, addr := range temporaries {
			p.RemoveBreakpoint(addr)
		}
	}()

	stop, err := p.ContinueExecution(EchoSilent)
	if err != nil {
		return err
	}
	if stop.Kind == StopExited || p.Terminated {
		return nil
	}

	pcNow, err := p.PC()
	if err != nil {
		return err
	}
	p.echoStopAt(pcNow)
	return nil
}

// StepOut implements the step-out source-level mode (§4.7): a temporary
// breakpoint at the return address (installed only if one isn't already
// there), one continue, then removal of the temporary.
func (p *Process) StepOut() error {
	retAddr, err := p.returnAddress()
	if err != nil {
		return err
	}

	installedHere := false
	if _, ok := p.breakpointAt(retAddr); !ok {
		if _, err := p.SetAtAddress(retAddr, EchoSilent); err != nil {
			return err
		}
		if bp, ok := p.breakpointAt(retAddr); ok {
			bp.Temporary = true
		}
		installedHere = true
	}

	defer func() {
		if installedHere {
			p.RemoveBreakpoint(retAddr)
		}
	}()

	stop, err := p.ContinueExecution(EchoSilent)
	if err != nil {
		return err
	}
	if stop.Kind == StopExited || p.Terminated {
		return nil
	}

	pcNow, err := p.PC()
	if err != nil {
		return err
	}
	p.echoStopAt(pcNow)
	return nil
}
