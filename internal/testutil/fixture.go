// Package testutil builds the C fixtures under _fixtures/src at test time
// and wraps them in a tracked process, mirroring the teacher's
// helper.WithTestProcess pattern but compiling with cc instead of go build.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/cmccarron/megadbg/internal/proc"
)

// fixturesDir locates _fixtures/src relative to this source file, so tests
// can run from any package directory.
func fixturesDir() string {
	_, this, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(this), "..", "..", "_fixtures", "src")
}

// BuildFixture compiles name (e.g. "hello.c") with cc -g -O0 into a temp
// directory and returns the resulting binary's path. Tests that call this
// skip, rather than fail, when no C compiler is available.
func BuildFixture(t *testing.T, name string) string {
	t.Helper()

	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Skip("cc not available; skipping ptrace integration test")
	}

	src := filepath.Join(fixturesDir(), name)
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("fixture %s not found: %v", name, err)
	}

	out := filepath.Join(t.TempDir(), name[:len(name)-len(filepath.Ext(name))])
	// -no-pie keeps addresses static across runs, so tests can assert on
	// concrete runtime addresses instead of re-deriving the load base.
	cmd := exec.Command(cc, "-g", "-O0", "-no-pie", "-o", out, src)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("could not compile fixture %s: %v", name, err)
	}
	return out
}

// WithTestProcess builds src, spawns it under ptrace, hands the resulting
// *proc.Process to fn, and always kills the inferior afterward.
func WithTestProcess(t *testing.T, src string, fn func(p *proc.Process)) {
	t.Helper()

	bin := BuildFixture(t, src)
	p, err := proc.Spawn(bin, nil)
	if err != nil {
		t.Fatalf("could not spawn %s: %v", bin, err)
	}
	defer p.Close()
	defer p.Kill()

	fn(p)
}
