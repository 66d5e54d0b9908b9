package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"

	"github.com/sokinpui/chatpatch/internal/logging"
	"github.com/sokinpui/chatpatch/model"
)

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SuccessColor = color.New(color.FgGreen)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
	PathColor    = color.New(color.FgYellow)
)

// Output is where all printers write. Tests may swap it.
var Output io.Writer = os.Stderr

var mu sync.Mutex

func write(c *color.Color, format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	c.Fprintf(Output, format+"\n", a...)
}

func Header(format string, a ...any) {
	write(HeaderColor, format, a...)
}

func Info(format string, a ...any) {
	write(InfoColor, format, a...)
}

func Success(format string, a ...any) {
	write(SuccessColor, format, a...)
}

func Warning(format string, a ...any) {
	write(WarningColor, format, a...)
}

func Error(format string, a ...any) {
	write(ErrorColor, format, a...)
}

func Path(format string, a ...any) {
	write(PathColor, "  "+format, a...)
}

// Logger forwards patcher progress to the debug log and, unless Quiet is
// set, to the colored printers.
type Logger struct {
	Quiet bool
}

func (l Logger) Infof(format string, args ...any) {
	logging.Log("info: "+format, args...)
	if !l.Quiet {
		Info("  -> "+format, args...)
	}
}

func (l Logger) Warnf(format string, args ...any) {
	logging.Log("warn: "+format, args...)
	if !l.Quiet {
		Warning("  -> "+format, args...)
	}
}

// --- Summaries ---

func PrintSummary(s model.Summary) {
	Header("\n--- Patch Summary ---")

	if s.Message != "" {
		Info("%s", s.Message)
	}
	if len(s.Patched) == 0 && len(s.Missing) == 0 && s.Skipped == 0 {
		if s.Message == "" {
			Info("No files were patched.")
		}
		return
	}

	if len(s.Patched) > 0 {
		Success("Patched %d file(s):", len(s.Patched))
		for _, f := range s.Patched {
			Path("- %s", f)
		}
	}
	if len(s.Missing) > 0 {
		Error("Original not found for %d file(s):", len(s.Missing))
		for _, f := range s.Missing {
			Path("- %s", f)
		}
	}
	if s.Skipped > 0 {
		Warning("Skipped %d malformed diff block(s).", s.Skipped)
	}
	if s.Target != "" && len(s.Written) > 0 {
		Success("Wrote %d file(s) to %s", len(s.Written), s.Target)
	}
}

// PrintDiffs writes the extracted records to w as plain unified diffs.
func PrintDiffs(w io.Writer, records []model.DiffRecord) {
	for _, r := range records {
		fmt.Fprintf(w, "--- a/%s\n+++ b/%s\n%s\n", r.Filename, r.Filename, r.Patch)
	}
}
