// Package source implements the source printer (C9): a window of source
// lines around a focal line, with the current line marked.
package source

import (
	"bufio"
	"fmt"
	"os"

	"github.com/fatih/color"
)

// DefaultContext is the default number of lines shown on either side of the
// focal line (§4.9).
const DefaultContext = 2

var markerColor = color.New(color.FgGreen, color.Bold)

// Print shows lines [focal-context, focal+context] from file, marking the
// focal line with "> " and all others with "  " (§4.9). If the focal line
// is within context of the start of the file, the window shifts right so
// the total line count is preserved.
func Print(file string, focal, context int) error {
	return print(file, focal, context, false)
}

// PrintSilent prints the same window as Print, but every line is prefixed
// "  " and no line is marked (§4.9). The `show` command uses PrintRange
// instead.
func PrintSilent(file string, focal, context int) error {
	return print(file, focal, context, true)
}

// PrintRange prints exactly lines [start, end] from file, with no marker
// (§4.10's `show` command: "the entire source range of the current
// function", not a focal-line window).
func PrintRange(file string, start, end int) error {
	lines, err := readLines(file)
	if err != nil {
		return err
	}
	printLines(lines, start, end, -1)
	return nil
}

func print(file string, focal, context int, silent bool) error {
	lines, err := readLines(file)
	if err != nil {
		return err
	}

	start := focal - context
	end := focal + context
	if start < 1 {
		shift := 1 - start
		start = 1
		end += shift
	}
	if end > len(lines) {
		end = len(lines)
	}

	marked := focal
	if silent {
		marked = -1
	}
	printLines(lines, start, end, marked)
	return nil
}

// printLines writes lines [start, end] (clamped to the file's bounds), one
// per output line. The line equal to marked, if any, is prefixed "> "
// instead of "  ".
func printLines(lines []string, start, end, marked int) {
	for n := start; n <= end; n++ {
		if n < 1 || n > len(lines) {
			continue
		}
		text := lines[n-1]
		if n == marked {
			fmt.Printf("%s %d\t%s\n", markerColor.Sprint(">"), n, text)
			continue
		}
		fmt.Printf("  %d\t%s\n", n, text)
	}
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
