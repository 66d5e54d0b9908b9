package chatpatch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/sokinpui/chatpatch/cli"
	"github.com/sokinpui/chatpatch/internal/fs"
	"github.com/sokinpui/chatpatch/internal/logging"
	"github.com/sokinpui/chatpatch/internal/nvim"
	"github.com/sokinpui/chatpatch/internal/parser"
	"github.com/sokinpui/chatpatch/internal/patcher"
	"github.com/sokinpui/chatpatch/internal/sink"
	"github.com/sokinpui/chatpatch/internal/source"
	"github.com/sokinpui/chatpatch/internal/state"
	"github.com/sokinpui/chatpatch/internal/ui"
	"github.com/sokinpui/chatpatch/model"
)

// DefaultOutput is the archive written when no sink is selected.
const DefaultOutput = "patched.zip"

// App orchestrates the entire application logic.
type App struct {
	cfg            *cli.Config
	store          *fs.DirStore
	sourceProvider *source.Provider
	history        *state.Manager
	stdout         io.Writer
	quiet          bool
	openNvim       func(root string, save bool) (sink.Sink, func(), error)
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

func (e *DetailedError) Unwrap() error {
	return e.Err
}

// StackTrace returns the stack captured when the error was raised.
func (e *DetailedError) StackTrace() []byte {
	return e.Stack
}

// New creates a new App instance.
func New(cfg *cli.Config) (*App, error) {
	store, err := fs.NewDirStore(cfg.LookupDirs)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}
	history, err := state.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history: %w", err)
	}
	return newApp(cfg, store, history, os.Stdout), nil
}

func newApp(cfg *cli.Config, store *fs.DirStore, history *state.Manager, stdout io.Writer) *App {
	return &App{
		cfg:            cfg,
		store:          store,
		sourceProvider: source.New(cfg.Input),
		history:        history,
		stdout:         stdout,
		openNvim:       openNvim,
	}
}

func openNvim(root string, save bool) (sink.Sink, func(), error) {
	m, err := nvim.New(root, save)
	if err != nil {
		return nil, nil, err
	}
	return m, m.Close, nil
}

// SetQuiet stops progress lines from being printed while an interactive
// view owns the terminal. Warnings are still collected in the summary.
func (a *App) SetQuiet(quiet bool) {
	a.quiet = quiet
}

// SourceName describes where the reply is read from.
func (a *App) SourceName() string {
	return a.sourceProvider.Name()
}

// Execute executes the main application logic based on parsed flags.
func (a *App) Execute(ctx context.Context) (summary model.Summary, err error) {
	// Centralized panic recovery.
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	switch {
	case a.cfg.History:
		return a.printHistory()
	case a.cfg.ListDiffs:
		return a.listDiffs()
	default:
		return a.processContent(ctx)
	}
}

// collector records warnings for the summary and forwards everything to
// the terminal printers.
type collector struct {
	ui.Logger
	mu       sync.Mutex
	warnings []string
}

func (c *collector) Warnf(format string, args ...any) {
	c.mu.Lock()
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
	c.mu.Unlock()
	c.Logger.Warnf(format, args...)
}

// Extract returns the diff records in content that pass the extension
// filter, and how many diff fences produced no record.
func Extract(content string, extensions []string) ([]model.DiffRecord, int) {
	records := parser.ExtractDiffs(content)

	skipped := 0
	if fences, err := parser.CountDiffFences(content); err == nil && fences > len(records) {
		skipped = fences - len(records)
	}

	if len(extensions) == 0 {
		return records, skipped
	}
	filtered := records[:0:0]
	for _, r := range records {
		if hasAllowedExtension(r.Filename, extensions) {
			filtered = append(filtered, r)
		}
	}
	return filtered, skipped
}

func hasAllowedExtension(path string, extensions []string) bool {
	ext := filepath.Ext(path)
	for _, allowedExt := range extensions {
		if ext == allowedExt {
			return true
		}
	}
	return false
}

func (a *App) readSource() (string, error) {
	content, err := a.sourceProvider.GetContent()
	if err != nil {
		return "", err
	}
	logging.Log("read %d bytes from %s", len(content), a.sourceProvider.Name())
	return content, nil
}

// processContent extracts diffs from the source, applies them to the
// originals and hands the result to the selected sink.
func (a *App) processContent(ctx context.Context) (model.Summary, error) {
	content, err := a.readSource()
	if err != nil {
		return model.Summary{}, err
	}
	if content == "" {
		return model.Summary{Message: "Source is empty. Nothing to process."}, nil
	}

	records, skipped := Extract(content, a.cfg.Extensions)
	if len(records) == 0 {
		return model.Summary{Skipped: skipped, Message: "No diff blocks found. Nothing to do."}, nil
	}

	log := &collector{Logger: ui.Logger{Quiet: a.quiet}}
	res, err := patcher.PatchAll(ctx, records, a.store, patcher.Options{
		Workers: a.cfg.Workers,
		Verify:  a.cfg.Verify,
		Logger:  log,
	})
	if err != nil {
		return model.Summary{}, fmt.Errorf("failed to apply diffs: %w", err)
	}

	summary := model.Summary{
		Missing: res.Missing,
		Skipped: skipped,
	}
	for _, f := range res.Files {
		summary.Patched = append(summary.Patched, f.Path)
	}

	if len(res.Files) > 0 {
		if err := a.writeFiles(ctx, res.Files, &summary, log); err != nil {
			summary.Warnings = log.warnings
			return summary, err
		}
	}
	summary.Warnings = log.warnings
	return summary, nil
}

func (a *App) selectSink() (sink.Sink, func(), error) {
	opts := sink.Options{FinalNewline: !a.cfg.NoFinalNewline}
	switch {
	case a.cfg.Print:
		return sink.NewStdout(a.stdout, opts), func() {}, nil
	case a.cfg.Nvim:
		return a.openNvim(a.store.Dirs()[0], a.cfg.NvimSave)
	}

	output := a.cfg.Output
	if output == "" {
		output = DefaultOutput
	}
	if strings.EqualFold(filepath.Ext(output), ".zip") {
		return sink.NewZip(output, opts), func() {}, nil
	}
	return sink.NewDir(output, opts), func() {}, nil
}

func (a *App) writeFiles(ctx context.Context, files []model.PatchedFile, summary *model.Summary, log *collector) error {
	out, closeFn, err := a.selectSink()
	if err != nil {
		return err
	}
	defer closeFn()

	summary.Target = out.Target()
	written, err := out.Write(ctx, files)
	summary.Written = written
	if err != nil {
		return fmt.Errorf("failed to write patched files to %s: %w", out.Target(), err)
	}

	if _, isStdout := out.(*sink.Stdout); isStdout || a.history == nil {
		return nil
	}
	if err := a.history.Record(out.Target(), historyRecords(out, files, written)); err != nil {
		log.Warnf("Could not record history: %v", err)
	}
	return nil
}

// historyRecords hashes what a sink wrote. Files written to disk are hashed
// from disk; everything else from the patched content.
func historyRecords(out sink.Sink, files []model.PatchedFile, written []string) []state.FileRecord {
	records := make([]state.FileRecord, 0, len(written))
	_, onDisk := out.(*sink.Dir)
	for i, loc := range written {
		var hash string
		if onDisk {
			if abs, err := filepath.Abs(loc); err == nil {
				loc = abs
			}
			hash, _ = fs.GetFileSHA256(loc)
		} else if i < len(files) {
			hash = fs.ContentSHA256(files[i].Content)
		}
		records = append(records, state.FileRecord{Path: loc, ContentHash: hash})
	}
	return records
}

// listDiffs prints the extracted records without applying them.
func (a *App) listDiffs() (model.Summary, error) {
	content, err := a.readSource()
	if err != nil {
		return model.Summary{}, err
	}
	records, skipped := Extract(content, a.cfg.Extensions)
	ui.PrintDiffs(a.stdout, records)
	return model.Summary{Skipped: skipped, Message: fmt.Sprintf("Found %d diff block(s).", len(records))}, nil
}

// printHistory lists previous runs, newest first. Files written to disk
// whose content changed since are flagged.
func (a *App) printHistory() (model.Summary, error) {
	entries := a.history.Entries()
	if len(entries) == 0 {
		return model.Summary{Message: "No history yet."}, nil
	}
	for _, e := range entries {
		fmt.Fprintf(a.stdout, "%s  %s\n", e.Time().Format(time.DateTime), e.Target)
		for _, f := range e.Files {
			mark := ""
			if filepath.IsAbs(f.Path) {
				current, err := fs.GetFileSHA256(f.Path)
				switch {
				case os.IsNotExist(err):
					mark = " (deleted)"
				case err == nil && current != f.ContentHash:
					mark = " (modified)"
				}
			}
			fmt.Fprintf(a.stdout, "  %s%s\n", f.Path, mark)
		}
	}
	return model.Summary{Message: fmt.Sprintf("%d run(s) in %s", len(entries), a.history.Path())}, nil
}
