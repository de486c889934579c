package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cmccarron/megadbg/internal/proc"
	"github.com/cmccarron/megadbg/internal/repl"
)

const historyFile = ".megadbg_history"

func main() {
	// We must ensure here that we are running on the same OS thread for
	// the lifetime of the session: ptrace(2) requires every call after
	// PTRACE_ATTACH to come from the thread that issued the attach.
	runtime.LockOSThread()

	var (
		procFlag string
		run      bool
	)

	root := &cobra.Command{
		Use:          "megadbg [executable]",
		Short:        "MEGAdbg — an interactive source-level debugger",
		SilenceUsage: true,
		Args:         cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := procFlag
			if target == "" && len(args) == 1 {
				target = args[0]
			}
			if target == "" {
				return fmt.Errorf("no executable given; pass it positionally or with -p")
			}
			return runSession(target, run)
		},
	}

	root.Flags().StringVarP(&procFlag, "proc", "p", "", "path to the executable to debug")
	root.Flags().BoolVar(&run, "run", false, "build the executable from source before attaching")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// cobra returns nil after printing help; -h/--help still exits non-zero.
	if help, _ := root.Flags().GetBool("help"); help {
		os.Exit(1)
	}
}

func runSession(target string, build bool) error {
	if build {
		built, err := buildFromSource(target)
		if err != nil {
			return fmt.Errorf("could not build %s: %w", target, err)
		}
		defer os.Remove(built)
		target = built
	}

	if _, err := os.Stat(target); err != nil {
		return fmt.Errorf("could not find executable %s: %w", target, err)
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		abs = target
	}

	p, err := proc.Spawn(abs, nil)
	if err != nil {
		return fmt.Errorf("could not start debugging process: %w", err)
	}
	defer p.Close()
	defer p.Kill()

	logrus.WithField("pid", p.Pid).Info("attached")

	return repl.Run(p, historyFile)
}

// buildFromSource shells out to a compiler chosen by the source file's
// extension, generalizing the teacher's `go build -gcflags "-N -l"` branch
// to the C/C++ targets this debugger actually steps through (§6.1).
func buildFromSource(src string) (string, error) {
	out := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))

	var build *exec.Cmd
	switch filepath.Ext(src) {
	case ".c":
		build = exec.Command("cc", "-g", "-O0", "-o", out, src)
	case ".cc", ".cpp", ".cxx":
		build = exec.Command("c++", "-g", "-O0", "-o", out, src)
	case ".go":
		build = exec.Command("go", "build", "-o", out, "-gcflags", "-N -l", src)
	default:
		return "", fmt.Errorf("don't know how to build %s", src)
	}

	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		return "", err
	}
	return filepath.Abs(out)
}
