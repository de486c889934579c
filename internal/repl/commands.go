package repl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cmccarron/megadbg/internal/proc"
	"github.com/cmccarron/megadbg/internal/procerr"
	"github.com/cmccarron/megadbg/internal/source"
	"github.com/cmccarron/megadbg/internal/trace"
)

func cmdContinue(p *proc.Process, args []string) error {
	_, err := p.ContinueExecution(proc.EchoVerbose)
	return err
}

// cmdBreak dispatches on the shape of its single argument, per §4.8/§4.10:
// "0x<hex>" is a runtime address, "<file>:<line>" a source line, anything
// else a function name.
func cmdBreak(p *proc.Process, args []string) error {
	if len(args) != 1 {
		return &procerr.MalformedCommand{Detail: "break takes exactly one argument"}
	}
	arg := args[0]

	if strings.HasPrefix(arg, "0x") || strings.HasPrefix(arg, "0X") {
		addr, err := strconv.ParseUint(arg, 0, 64)
		if err != nil {
			return &procerr.MalformedCommand{Detail: fmt.Sprintf("invalid address %q", arg)}
		}
		_, err = p.SetAtAddress(addr, proc.EchoVerbose)
		return err
	}

	if idx := strings.LastIndex(arg, ":"); idx >= 0 {
		file := arg[:idx]
		line, err := strconv.Atoi(arg[idx+1:])
		if err != nil {
			return &procerr.MalformedCommand{Detail: fmt.Sprintf("invalid line number in %q", arg)}
		}
		_, err = p.SetAtSourceLine(file, line, proc.EchoVerbose)
		return err
	}

	_, err := p.SetAtFunction(arg, proc.EchoVerbose)
	return err
}

func cmdStep(p *proc.Process, args []string) error {
	return p.StepIn()
}

func cmdNext(p *proc.Process, args []string) error {
	return p.StepOver()
}

func cmdFinish(p *proc.Process, args []string) error {
	return p.StepOut()
}

func cmdRegister(p *proc.Process, args []string) error {
	if len(args) == 0 {
		return &procerr.MalformedCommand{Detail: "register requires a subcommand: dump | read | write"}
	}

	switch args[0] {
	case "dump":
		for _, name := range trace.AllNames() {
			id, err := trace.IDOf(name)
			if err != nil {
				continue
			}
			v, err := trace.Get(p.Tracer, id)
			if err != nil {
				return err
			}
			fmt.Printf("%-8s %#016x\n", name, v)
		}
		return nil

	case "read":
		if len(args) != 2 {
			return &procerr.MalformedCommand{Detail: "register read <name>"}
		}
		id, err := trace.IDOf(args[1])
		if err != nil {
			return err
		}
		v, err := trace.Get(p.Tracer, id)
		if err != nil {
			return err
		}
		fmt.Printf("%#x\n", v)
		return nil

	case "write":
		if len(args) != 3 {
			return &procerr.MalformedCommand{Detail: "register write <name> 0x<value>"}
		}
		id, err := trace.IDOf(args[1])
		if err != nil {
			return err
		}
		v, err := strconv.ParseUint(args[2], 0, 64)
		if err != nil {
			return &procerr.MalformedCommand{Detail: fmt.Sprintf("invalid value %q", args[2])}
		}
		return trace.Set(p.Tracer, id, v)

	default:
		return &procerr.MalformedCommand{Detail: fmt.Sprintf("unknown register subcommand %q", args[0])}
	}
}

func cmdMemory(p *proc.Process, args []string) error {
	if len(args) == 0 {
		return &procerr.MalformedCommand{Detail: "memory requires a subcommand: read | write"}
	}

	switch args[0] {
	case "read":
		if len(args) != 2 {
			return &procerr.MalformedCommand{Detail: "memory read 0x<addr>"}
		}
		addr, err := strconv.ParseUint(args[1], 0, 64)
		if err != nil {
			return &procerr.MalformedCommand{Detail: fmt.Sprintf("invalid address %q", args[1])}
		}
		v, err := trace.ReadWord(p.Tracer, addr)
		if err != nil {
			return err
		}
		fmt.Printf("%#x\n", v)
		return nil

	case "write":
		if len(args) != 3 {
			return &procerr.MalformedCommand{Detail: "memory write 0x<addr> 0x<value>"}
		}
		addr, err := strconv.ParseUint(args[1], 0, 64)
		if err != nil {
			return &procerr.MalformedCommand{Detail: fmt.Sprintf("invalid address %q", args[1])}
		}
		v, err := strconv.ParseUint(args[2], 0, 64)
		if err != nil {
			return &procerr.MalformedCommand{Detail: fmt.Sprintf("invalid value %q", args[2])}
		}
		return trace.WriteWord(p.Tracer, addr, v)

	default:
		return &procerr.MalformedCommand{Detail: fmt.Sprintf("unknown memory subcommand %q", args[0])}
	}
}

func cmdSymbol(p *proc.Process, args []string) error {
	if len(args) != 1 {
		return &procerr.MalformedCommand{Detail: "symbol <name>"}
	}
	syms := p.Resolver.SymbolsNamed(args[0])
	if len(syms) == 0 {
		fmt.Printf("no symbols named %q\n", args[0])
		return nil
	}
	for _, s := range syms {
		fmt.Printf("%-8s %-20s %#x\n", s.Kind, s.Name, s.Address)
	}
	return nil
}

// cmdShow implements §4.10's `show` command: on the very first invocation
// (no breakpoints installed yet) it silently runs to `main` before
// printing, then disables whatever breakpoint happens to sit at the
// current PC so the silent bootstrap doesn't linger as a visible one.
func cmdShow(p *proc.Process, args []string) error {
	if p.Breakpoints.Len() == 0 {
		if _, err := p.SetAtFunction("main", proc.EchoSilent); err != nil {
			return err
		}
		if _, err := p.ContinueExecution(proc.EchoSilent); err != nil {
			return err
		}
	}

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

	minLine, maxLine := cur.Line, cur.Line
	for _, e := range entries {
		if e.Line < minLine {
			minLine = e.Line
		}
		if e.Line > maxLine {
			maxLine = e.Line
		}
	}
	if err := source.PrintRange(cur.File, minLine, maxLine); err != nil {
		return err
	}

	if bp, ok := p.Breakpoints.Lookup(pc); ok {
		_ = bp.Disable(p.Tracer)
	}
	return nil
}
