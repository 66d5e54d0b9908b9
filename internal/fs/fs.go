package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a relative path resolves outside of every
// lookup directory.
var ErrOutsideRoot = errors.New("path escapes lookup directory")

// Store provides the original content of files by repository-relative path.
type Store interface {
	Lookup(path string) (content string, ok bool)
}

// MapStore is an in-memory Store.
type MapStore map[string]string

// Lookup implements Store.
func (m MapStore) Lookup(path string) (string, bool) {
	content, ok := m[path]
	return content, ok
}

// DirStore reads original files from one or more lookup directories. The
// first directory containing the file wins.
type DirStore struct {
	lookupDirs []string
}

// NewDirStore creates a DirStore. With no lookup directories it uses the
// current working directory.
func NewDirStore(lookupDirs []string) (*DirStore, error) {
	if len(lookupDirs) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not get current working directory: %w", err)
		}
		return &DirStore{lookupDirs: []string{wd}}, nil
	}

	absDirs := make([]string, 0, len(lookupDirs))
	for _, dir := range lookupDirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("invalid lookup directory '%s': %w", dir, err)
		}
		absDirs = append(absDirs, abs)
	}
	return &DirStore{lookupDirs: absDirs}, nil
}

// Dirs returns the absolute lookup directories.
func (s *DirStore) Dirs() []string {
	return s.lookupDirs
}

// Lookup implements Store.
func (s *DirStore) Lookup(relativePath string) (string, bool) {
	absPath, err := s.ResolveExisting(relativePath)
	if err != nil || absPath == "" {
		return "", false
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// ResolveExisting finds an absolute path only if the file exists. It
// returns "" when no lookup directory contains the file.
func (s *DirStore) ResolveExisting(relativePath string) (string, error) {
	var escaped bool
	for _, dir := range s.lookupDirs {
		absPath, err := Join(dir, relativePath)
		if err != nil {
			escaped = true
			continue
		}
		if info, err := os.Stat(absPath); err == nil && !info.IsDir() {
			return absPath, nil
		}
	}
	if escaped {
		return "", fmt.Errorf("%s: %w", relativePath, ErrOutsideRoot)
	}
	return "", nil
}

// Join joins a repository-relative path onto root, refusing results that
// leave root.
func Join(root, relativePath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relativePath))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", relativePath, ErrOutsideRoot)
	}
	return filepath.Join(root, cleaned), nil
}

// GetFileSHA256 returns the hex SHA-256 of a file's content.
func GetFileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ContentSHA256 returns the hex SHA-256 of content.
func ContentSHA256(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
