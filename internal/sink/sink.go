// Package sink writes patched file sets to their destination.
package sink

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/sokinpui/chatpatch/internal/fs"
	"github.com/sokinpui/chatpatch/model"
)

// Sink receives the patched files of one run and returns the locations it
// wrote.
type Sink interface {
	Write(ctx context.Context, files []model.PatchedFile) ([]string, error)
	// Target describes the destination for summaries and history.
	Target() string
}

// Options shared by the file-writing sinks.
type Options struct {
	// FinalNewline appends "\n" to non-empty content. Patched content is
	// always "\n"-joined without a terminator.
	FinalNewline bool
}

func (o Options) bytes(f model.PatchedFile) []byte {
	if o.FinalNewline && f.Content != "" && !strings.HasSuffix(f.Content, "\n") {
		return []byte(f.Content + "\n")
	}
	return []byte(f.Content)
}

// Zip writes every file as an entry of a zip archive.
type Zip struct {
	Path string
	Options
	now func() time.Time
}

// NewZip creates a zip sink writing to path.
func NewZip(path string, opts Options) *Zip {
	return &Zip{Path: path, Options: opts, now: time.Now}
}

func (z *Zip) Target() string { return z.Path }

func (z *Zip) Write(ctx context.Context, files []model.PatchedFile) ([]string, error) {
	if dir := filepath.Dir(z.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for archive: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(z.Path), ".chatpatch-*.zip")
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	entries, err := z.writeArchive(ctx, tmp, files)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close archive: %w", cerr)
	}
	if err != nil {
		return nil, err
	}
	if err := os.Rename(tmp.Name(), z.Path); err != nil {
		return nil, fmt.Errorf("failed to move archive into place: %w", err)
	}
	return entries, nil
}

func (z *Zip) writeArchive(ctx context.Context, w io.Writer, files []model.PatchedFile) ([]string, error) {
	now := z.now
	if now == nil {
		now = time.Now
	}
	zw := zip.NewWriter(w)
	var entries []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, err := entryName(f.Path)
		if err != nil {
			return nil, err
		}
		ew, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: now(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
		if _, err := ew.Write(z.bytes(f)); err != nil {
			return nil, fmt.Errorf("failed to write %s to archive: %w", name, err)
		}
		entries = append(entries, name)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	return entries, nil
}

// entryName converts a repository-relative path to a zip entry name.
func entryName(p string) (string, error) {
	name := path.Clean(filepath.ToSlash(p))
	if path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") || name == "." {
		return "", fmt.Errorf("%s: %w", p, fs.ErrOutsideRoot)
	}
	return name, nil
}

// Dir writes files under Root, creating parent directories.
type Dir struct {
	Root string
	Options
}

// NewDir creates a directory sink rooted at root.
func NewDir(root string, opts Options) *Dir {
	return &Dir{Root: root, Options: opts}
}

func (d *Dir) Target() string { return d.Root }

func (d *Dir) Write(ctx context.Context, files []model.PatchedFile) ([]string, error) {
	var written []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		dest, err := fs.Join(d.Root, f.Path)
		if err != nil {
			return written, err
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return written, fmt.Errorf("error creating directory for '%s': %w", f.Path, err)
		}
		if err := os.WriteFile(dest, d.bytes(f), 0o644); err != nil {
			return written, fmt.Errorf("error writing '%s': %w", f.Path, err)
		}
		written = append(written, dest)
	}
	return written, nil
}

// Stdout prints each file behind a `==> path <==` banner.
type Stdout struct {
	W io.Writer
	Options
}

// NewStdout creates a sink printing to w.
func NewStdout(w io.Writer, opts Options) *Stdout {
	return &Stdout{W: w, Options: opts}
}

func (s *Stdout) Target() string { return "stdout" }

func (s *Stdout) Write(ctx context.Context, files []model.PatchedFile) ([]string, error) {
	var written []string
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if i > 0 {
			fmt.Fprintln(s.W)
		}
		fmt.Fprintf(s.W, "==> %s <==\n", f.Path)
		b := s.bytes(f)
		if len(b) > 0 && b[len(b)-1] != '\n' {
			b = append(b, '\n')
		}
		if _, err := s.W.Write(b); err != nil {
			return written, fmt.Errorf("failed to print %s: %w", f.Path, err)
		}
		written = append(written, f.Path)
	}
	return written, nil
}
