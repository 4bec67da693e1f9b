package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/joseph-ayodele/backlog-forge/constants"
)

var (
	successColor  = color.New(color.FgGreen, color.Bold)
	errorColor    = color.New(color.FgRed, color.Bold)
	warningColor  = color.New(color.FgYellow)
	infoColor     = color.New(color.FgCyan)
	titleColor    = color.New(color.FgMagenta, color.Bold)
	progressColor = color.New(color.FgBlue)
)

// Console writes colored, human oriented CLI output. Logs go to stderr
// through slog; Console output is what the user reads.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

// DisableColor turns off ANSI codes for every Console, e.g. for --no-color
// or when stdout is not a terminal.
func DisableColor() {
	color.NoColor = true
}

func (c *Console) Success(format string, args ...any) {
	successColor.Fprintf(c.w, "✔ "+format+"\n", args...)
}

func (c *Console) Error(format string, args ...any) {
	errorColor.Fprintf(c.w, "✘ "+format+"\n", args...)
}

func (c *Console) Warn(format string, args ...any) {
	warningColor.Fprintf(c.w, "! "+format+"\n", args...)
}

func (c *Console) Info(format string, args ...any) {
	infoColor.Fprintf(c.w, format+"\n", args...)
}

func (c *Console) Title(format string, args ...any) {
	titleColor.Fprintf(c.w, format+"\n", args...)
}

// Status prints one pipeline status line as "[ 60%] generating  message".
func (c *Console) Status(step constants.Step, message string, progress int) {
	if step == constants.StepError {
		errorColor.Fprintf(c.w, "[%3d%%] %-10s %s\n", progress, step, message)
		return
	}
	progressColor.Fprintf(c.w, "[%3d%%] %-10s %s\n", progress, step, message)
}

// Progress prints a batch counter line.
func (c *Console) Progress(current, total int, message string) {
	infoColor.Fprintf(c.w, "[%d/%d] %s\n", current, total, message)
}

// Table prints rows under a header, padding each column to its widest cell.
func (c *Console) Table(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
	}
	titleColor.Fprintln(c.w, formatRow(header, widths))
	for _, row := range rows {
		fmt.Fprintln(c.w, formatRow(row, widths))
	}
}

func (c *Console) Separator() {
	fmt.Fprintln(c.w, strings.Repeat("─", 60))
}

func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

// IsTerminal reports whether stdout is a character device.
func IsTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
