// Package repl implements the command REPL (C10): a prefix-matching
// command dispatch table read over a readline-backed prompt, driving a
// single tracked inferior.
package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/cmccarron/megadbg/internal/proc"
	"github.com/cmccarron/megadbg/internal/procerr"
)

// Prompt is the fixed REPL prompt (§6.1).
const Prompt = "MEGAdbg> "

var errColor = color.New(color.FgRed)

// command is one entry of §4.10's dispatch table. Names is listing order:
// collisions between prefixes are resolved by picking the first command in
// this slice whose Name has the typed token as a prefix.
type command struct {
	Name string
	Help string
	Run  func(p *proc.Process, args []string) error
}

// table lists the commands in dispatch order; the handlers live in
// commands.go.
var table = []command{
	{"continue", "resume the inferior", cmdContinue},
	{"break", "set a breakpoint: 0x<addr> | <file>:<line> | <function>", cmdBreak},
	{"step", "step into the next source line", cmdStep},
	{"next", "step over the next source line", cmdNext},
	{"finish", "step out of the current function", cmdFinish},
	{"register", "register dump | register read <name> | register write <name> 0x<val>", cmdRegister},
	{"memory", "memory read 0x<addr> | memory write 0x<addr> 0x<val>", cmdMemory},
	{"symbol", "symbol <name>", cmdSymbol},
	{"show", "print the current function, first running to main if no breakpoints are set", cmdShow},
}

// find implements §9's prefix-match resolution: the first table entry (in
// listing order) whose Name has token as a prefix.
func find(token string) (command, bool) {
	if token == "" {
		return command{}, false
	}
	for _, c := range table {
		if strings.HasPrefix(c.Name, token) {
			return c, true
		}
	}
	return command{}, false
}

// Run drives the REPL loop over the given process until the inferior
// exits or the input stream hits EOF (§6.1).
func Run(p *proc.Process, historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          Prompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("could not start readline: %w", err)
	}
	defer rl.Close()

	log := logrus.WithField("component", "repl")

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				return nil
			}
			return err
		}

		name, args := parseCommand(line)
		if name == "" {
			continue
		}

		cmd, ok := find(name)
		if !ok {
			errColor.Fprintf(os.Stderr, "unknown command: %s\n", name)
			continue
		}

		if err := cmd.Run(p, args); err != nil {
			var exited *procerr.InferiorExited
			if errors.As(err, &exited) {
				fmt.Println(exited.Error())
				return nil
			}
			log.WithError(err).Debug("command failed")
			errColor.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
	}
}

func parseCommand(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}
