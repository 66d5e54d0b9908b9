package state

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	stateDirName    = ".chatpatch"
	historyFileName = "history"
	// MaxEntries bounds how many runs the history file keeps.
	MaxEntries = 50
)

// FileRecord is one file written by a run.
type FileRecord struct {
	Path        string
	ContentHash string // SHA256 of the content written
}

// HistoryEntry represents one complete run of the tool.
type HistoryEntry struct {
	Timestamp int64
	Target    string
	Files     []FileRecord
}

// Time returns the entry timestamp as local time.
func (e HistoryEntry) Time() time.Time {
	return time.Unix(e.Timestamp, 0)
}

// Manager handles the lifecycle of the history file.
type Manager struct {
	historyPath string
	history     []HistoryEntry
	now         func() time.Time
}

// findGitRoot finds the root of the git repository.
func findGitRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// New creates a manager for the history under the git root, or the current
// directory outside a repository.
func New() (*Manager, error) {
	rootDir, err := findGitRoot()
	if err != nil {
		rootDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not get current working directory: %w", err)
		}
	}
	return NewAt(rootDir)
}

// NewAt creates a manager for the history stored under rootDir. The state
// directory is created on the first Record.
func NewAt(rootDir string) (*Manager, error) {
	m := &Manager{
		historyPath: filepath.Join(rootDir, stateDirName, historyFileName),
		now:         time.Now,
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

// Path returns the history file location.
func (m *Manager) Path() string {
	return m.historyPath
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.historyPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("could not read history: %w", err)
	}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	for _, block := range strings.Split(content, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			return fmt.Errorf("invalid history file: incomplete entry")
		}

		ts, err := strconv.ParseInt(lines[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid history file: could not parse timestamp from '%s': %w", lines[0], err)
		}
		entry := HistoryEntry{Timestamp: ts, Target: lines[1]}

		fileLines := lines[2:]
		if len(fileLines)%2 != 0 {
			return fmt.Errorf("invalid history file: incomplete file record")
		}
		for i := 0; i < len(fileLines); i += 2 {
			entry.Files = append(entry.Files, FileRecord{
				Path:        fileLines[i],
				ContentHash: fileLines[i+1],
			})
		}
		m.history = append(m.history, entry)
	}
	return nil
}

func (m *Manager) save() error {
	blocks := make([]string, 0, len(m.history))
	for _, entry := range m.history {
		var b strings.Builder
		fmt.Fprintf(&b, "%d\n%s", entry.Timestamp, entry.Target)
		for _, f := range entry.Files {
			fmt.Fprintf(&b, "\n%s\n%s", f.Path, f.ContentHash)
		}
		blocks = append(blocks, b.String())
	}

	if err := os.MkdirAll(filepath.Dir(m.historyPath), 0o755); err != nil {
		return fmt.Errorf("could not create state directory: %w", err)
	}
	content := strings.Join(blocks, "\n\n") + "\n"
	if err := os.WriteFile(m.historyPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("could not write history: %w", err)
	}
	return nil
}

// Record appends a run to the history and persists it. Only the newest
// MaxEntries runs are kept.
func (m *Manager) Record(target string, files []FileRecord) error {
	m.history = append(m.history, HistoryEntry{
		Timestamp: m.now().UTC().Unix(),
		Target:    target,
		Files:     files,
	})
	if n := len(m.history); n > MaxEntries {
		m.history = m.history[n-MaxEntries:]
	}
	return m.save()
}

// Entries returns the recorded runs, newest first.
func (m *Manager) Entries() []HistoryEntry {
	out := make([]HistoryEntry, len(m.history))
	for i, e := range m.history {
		out[len(m.history)-1-i] = e
	}
	return out
}
