package repl

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmccarron/megadbg/internal/proc"
	"github.com/cmccarron/megadbg/internal/testutil"
)

func TestFindLongestUnambiguousPrefix(t *testing.T) {
	cmd, ok := find("cont")
	require.True(t, ok)
	require.Equal(t, "continue", cmd.Name)

	cmd, ok = find("b")
	require.True(t, ok)
	require.Equal(t, "break", cmd.Name)
}

func TestFindCollisionResolvedByListingOrder(t *testing.T) {
	// "s" is a prefix of "step", "symbol" and "show"; "step" is listed
	// first in the table, so "s" should resolve to "step".
	cmd, ok := find("s")
	require.True(t, ok)
	require.Equal(t, "step", cmd.Name)
}

func TestFindExactMatch(t *testing.T) {
	cmd, ok := find("show")
	require.True(t, ok)
	require.Equal(t, "show", cmd.Name)
}

func TestFindUnknownCommand(t *testing.T) {
	_, ok := find("zzz")
	require.False(t, ok)
}

func TestFindEmptyToken(t *testing.T) {
	_, ok := find("")
	require.False(t, ok)
}

func TestParseCommandSplitsOnWhitespace(t *testing.T) {
	name, args := parseCommand("register write rax 0x2a")
	require.Equal(t, "register", name)
	require.Equal(t, []string{"write", "rax", "0x2a"}, args)
}

func TestParseCommandBlankLine(t *testing.T) {
	name, args := parseCommand("   ")
	require.Equal(t, "", name)
	require.Nil(t, args)
}

// TestCmdShowPrintsExactFunctionRange guards against the source window
// being reverse-engineered from a focal+context pair (which drops or adds
// lines when the function's line span is odd); `show` must print exactly
// [minLine, maxLine] as derived from the function's own line table.
func TestCmdShowPrintsExactFunctionRange(t *testing.T) {
	testutil.WithTestProcess(t, "hello.c", func(p *proc.Process) {
		_, err := p.SetAtFunction("add", proc.EchoSilent)
		require.NoError(t, err)
		_, err = p.ContinueExecution(proc.EchoSilent)
		require.NoError(t, err)

		pc, err := p.PC()
		require.NoError(t, err)
		dwarfPC := p.ToDwarf(pc)

		fn, err := p.Resolver.FunctionContaining(dwarfPC)
		require.NoError(t, err)
		entries, err := p.Resolver.LineEntriesInFunction(fn)
		require.NoError(t, err)
		require.NotEmpty(t, entries)

		minLine, maxLine := entries[0].Line, entries[0].Line
		for _, e := range entries {
			if e.Line < minLine {
				minLine = e.Line
			}
			if e.Line > maxLine {
				maxLine = e.Line
			}
		}

		out := captureStdout(t, func() {
			require.NoError(t, cmdShow(p, nil))
		})

		first, last := firstAndLastPrintedLines(t, out)
		require.Equal(t, minLine, first, "show must not print a line before the function's first line")
		require.Equal(t, maxLine, last, "show must not print a line past the function's last line")
	})
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w

	fn()

	require.NoError(t, w.Close())
	os.Stdout = orig

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func firstAndLastPrintedLines(t *testing.T, out string) (int, int) {
	t.Helper()
	sc := bufio.NewScanner(strings.NewReader(out))
	var first, last int
	for sc.Scan() {
		fields := strings.SplitN(strings.TrimSpace(sc.Text()), "\t", 2)
		require.NotEmpty(t, fields[0])
		n, err := strconv.Atoi(fields[0])
		require.NoError(t, err)
		if first == 0 {
			first = n
		}
		last = n
	}
	require.NoError(t, sc.Err())
	return first, last
}
