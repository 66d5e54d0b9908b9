package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
)

// Provider determines and retrieves the model reply to process.
type Provider struct {
	// InputPath, when set, is read instead of stdin or the clipboard.
	// "-" forces stdin.
	InputPath string

	stdin         io.Reader
	isPiped       func() bool
	readClipboard func() (string, error)
}

// New creates a new Provider.
func New(inputPath string) *Provider {
	return &Provider{
		InputPath:     inputPath,
		stdin:         os.Stdin,
		isPiped:       stdinIsPiped,
		readClipboard: clipboard.ReadAll,
	}
}

func stdinIsPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

type kind int

const (
	kindFile kind = iota
	kindStdin
	kindClipboard
)

func (p *Provider) kind() kind {
	switch {
	case p.InputPath == "-":
		return kindStdin
	case p.InputPath != "":
		return kindFile
	case p.isPiped():
		return kindStdin
	default:
		return kindClipboard
	}
}

// Name describes where GetContent reads from.
func (p *Provider) Name() string {
	switch p.kind() {
	case kindStdin:
		return "stdin"
	case kindClipboard:
		return "clipboard"
	default:
		return p.InputPath
	}
}

// GetContent retrieves content from the input file, stdin (if piped) or
// the clipboard. Whitespace-only content is returned as "".
func (p *Provider) GetContent() (string, error) {
	var content string
	switch p.kind() {
	case kindStdin:
		data, err := io.ReadAll(p.stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		content = string(data)
	case kindClipboard:
		text, err := p.readClipboard()
		if err != nil {
			return "", fmt.Errorf("failed to read from clipboard: %w", err)
		}
		content = text
	default:
		data, err := os.ReadFile(p.InputPath)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		content = string(data)
	}

	if strings.TrimSpace(content) == "" {
		return "", nil
	}
	return content, nil
}
