package chatpatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/sokinpui/chatpatch/internal/fs"
	"github.com/sokinpui/chatpatch/internal/patcher"
	"github.com/sokinpui/chatpatch/model"
)

// Config for using chatpatch as a library.
type Config struct {
	// Filter by extension, with or without the leading dot (e.g., 'py', '.js').
	Extensions []string
	// Workers bounds how many files are patched concurrently. Zero means one
	// goroutine per file.
	Workers int
	// Verify reports hunks that do not line up with the original in Warnings.
	Verify bool
}

// Result is what Apply produced.
type Result struct {
	Files    []model.PatchedFile
	Missing  []string
	Skipped  int
	Warnings []string
}

// Apply extracts the diff blocks in content and applies them to the
// originals in files, keyed by their path relative to the project root.
// Nothing is written anywhere.
func Apply(ctx context.Context, content string, files map[string]string, config Config) (Result, error) {
	if config.Workers < 0 {
		return Result{}, fmt.Errorf("workers must not be negative, got %d", config.Workers)
	}

	records, skipped := Extract(content, normalizeExtensions(config.Extensions))
	log := &warningLog{}
	res, err := patcher.PatchAll(ctx, records, fs.MapStore(files), patcher.Options{
		Workers: config.Workers,
		Verify:  config.Verify,
		Logger:  log,
	})
	if err != nil {
		return Result{}, err
	}

	return Result{
		Files:    res.Files,
		Missing:  res.Missing,
		Skipped:  skipped,
		Warnings: log.warnings,
	}, nil
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		if ext == "" {
			continue
		}
		if ext[0] != '.' {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// warningLog keeps warnings and drops progress lines.
type warningLog struct {
	mu       sync.Mutex
	warnings []string
}

func (l *warningLog) Infof(string, ...any) {}

func (l *warningLog) Warnf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}
