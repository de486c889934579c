package symbols

import (
	"debug/elf"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildFixture(t *testing.T, name string) string {
	t.Helper()
	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Skip("cc not available; skipping DWARF resolver test")
	}
	_, this, _, _ := runtime.Caller(0)
	src := filepath.Join(filepath.Dir(this), "..", "..", "_fixtures", "src", name)
	out := filepath.Join(t.TempDir(), "out")
	cmd := exec.Command(cc, "-g", "-O0", "-no-pie", "-o", out, src)
	require.NoError(t, cmd.Run())
	return out
}

func TestFunctionNamedAndAddressOfSourceLine(t *testing.T) {
	bin := buildFixture(t, "hello.c")
	r, err := Load(bin)
	require.NoError(t, err)
	defer r.Close()

	fns, err := r.FunctionNamed("main")
	require.NoError(t, err)
	require.Len(t, fns, 1)

	addr, err := r.AddressOfSourceLine("hello.c", 7)
	require.NoError(t, err)
	require.NotZero(t, addr)

	le, err := r.LineEntryFor(addr)
	require.NoError(t, err)
	require.Equal(t, 7, le.Line)
	require.True(t, le.IsStmt)
}

func TestFunctionContainingAndEntryAfterPrologue(t *testing.T) {
	bin := buildFixture(t, "hello.c")
	r, err := Load(bin)
	require.NoError(t, err)
	defer r.Close()

	fns, err := r.FunctionNamed("add")
	require.NoError(t, err)
	require.Len(t, fns, 1)

	entry, err := r.EntryPointAfterPrologue(fns[0])
	require.NoError(t, err)

	fn, err := r.FunctionContaining(entry)
	require.NoError(t, err)
	require.Equal(t, "add", fn.Name)
}

func TestAddressOfSourceLineMissing(t *testing.T) {
	bin := buildFixture(t, "hello.c")
	r, err := Load(bin)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.AddressOfSourceLine("hello.c", 9999)
	require.Error(t, err)
}

func TestSymbolsNamedFindsMain(t *testing.T) {
	bin := buildFixture(t, "hello.c")
	r, err := Load(bin)
	require.NoError(t, err)
	defer r.Close()

	syms := r.SymbolsNamed("main")
	require.NotEmpty(t, syms)
	require.Equal(t, KindFunc, syms[0].Kind)
}

func TestELFTypeNonPIEIsExec(t *testing.T) {
	bin := buildFixture(t, "hello.c")
	r, err := Load(bin)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, elf.ET_EXEC, r.ELFType())
}
