package proc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmccarron/megadbg/internal/proc"
	"github.com/cmccarron/megadbg/internal/testutil"
)

func TestAttachStopsAtEntry(t *testing.T) {
	testutil.WithTestProcess(t, "hello.c", func(p *proc.Process) {
		require.False(t, p.Terminated)
		require.NotZero(t, p.Pid)
	})
}

func TestBreakAtSourceLineAndContinueStopsThere(t *testing.T) {
	testutil.WithTestProcess(t, "hello.c", func(p *proc.Process) {
		bp, err := p.SetAtSourceLine("hello.c", 7, proc.EchoSilent)
		require.NoError(t, err)

		_, err = p.ContinueExecution(proc.EchoSilent)
		require.NoError(t, err)

		pc, err := p.PC()
		require.NoError(t, err)
		require.Equal(t, bp.Address, pc)
	})
}

func TestBreakAtFunctionAndContinueStopsThere(t *testing.T) {
	testutil.WithTestProcess(t, "hello.c", func(p *proc.Process) {
		bps, err := p.SetAtFunction("add", proc.EchoSilent)
		require.NoError(t, err)
		require.Len(t, bps, 1)

		_, err = p.ContinueExecution(proc.EchoSilent)
		require.NoError(t, err)

		pc, err := p.PC()
		require.NoError(t, err)
		require.Equal(t, bps[0].Address, pc)
	})
}

func TestRemoveBreakpointRestoresOriginalByte(t *testing.T) {
	testutil.WithTestProcess(t, "hello.c", func(p *proc.Process) {
		bp, err := p.SetAtSourceLine("hello.c", 7, proc.EchoSilent)
		require.NoError(t, err)

		removed, err := p.RemoveBreakpoint(bp.Address)
		require.NoError(t, err)
		require.False(t, removed.Enabled)

		_, ok := p.Breakpoints.Lookup(bp.Address)
		require.False(t, ok)
	})
}

func TestStepOverLeavesNoTemporaries(t *testing.T) {
	testutil.WithTestProcess(t, "foo.c", func(p *proc.Process) {
		// Line 13 is the call site `int result = foo(sum);`.
		_, err := p.SetAtSourceLine("foo.c", 13, proc.EchoSilent)
		require.NoError(t, err)

		_, err = p.ContinueExecution(proc.EchoSilent)
		require.NoError(t, err)

		before := p.Breakpoints.Len()
		require.NoError(t, p.StepOver())
		require.Equal(t, before, p.Breakpoints.Len())
	})
}

func TestStepInEntersCallee(t *testing.T) {
	testutil.WithTestProcess(t, "foo.c", func(p *proc.Process) {
		// Line 13 is the call site `int result = foo(sum);`.
		_, err := p.SetAtSourceLine("foo.c", 13, proc.EchoSilent)
		require.NoError(t, err)

		_, err = p.ContinueExecution(proc.EchoSilent)
		require.NoError(t, err)

		require.NoError(t, p.StepIn())

		pc, err := p.PC()
		require.NoError(t, err)
		dwarfPC := p.ToDwarf(pc)

		fn, err := p.Resolver.FunctionContaining(dwarfPC)
		require.NoError(t, err)
		require.Equal(t, "foo", fn.Name)

		le, err := p.Resolver.LineEntryFor(dwarfPC)
		require.NoError(t, err)
		require.Equal(t, "foo.c", le.File)
		require.Equal(t, 3, le.Line)
	})
}

func TestToDwarfToRuntimeRoundTrip(t *testing.T) {
	testutil.WithTestProcess(t, "hello.c", func(p *proc.Process) {
		for _, addr := range []uint64{0x400000, 0x401130, 0xdeadbeef} {
			require.Equal(t, addr, p.ToRuntime(p.ToDwarf(addr)))
			require.Equal(t, addr, p.ToDwarf(p.ToRuntime(addr)))
		}
	})
}
