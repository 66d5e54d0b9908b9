package nvim

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/neovim/go-client/nvim"

	"github.com/sokinpui/chatpatch/internal/fs"
	"github.com/sokinpui/chatpatch/model"
)

// Manager handles the connection and interaction with a Neovim instance.
// It loads patched content into buffers and implements sink.Sink.
type Manager struct {
	nvim          *nvim.Nvim
	isSelfStarted bool
	cmd           *exec.Cmd
	socketPath    string

	root string
	save bool
}

// ListenAddress returns the address of the Neovim instance the tool was
// started from, if any.
func ListenAddress() string {
	if addr := os.Getenv("NVIM"); addr != "" {
		return addr
	}
	return os.Getenv("NVIM_LISTEN_ADDRESS")
}

// New creates a new Neovim manager, connecting to an existing instance
// or starting a new headless one. Buffers are opened for files under root;
// with save set they are written to disk after loading.
func New(root string, save bool) (*Manager, error) {
	if addr := ListenAddress(); addr != "" {
		v, err := nvim.Dial(addr)
		if err == nil {
			return &Manager{nvim: v, root: root, save: save}, nil
		}
	}

	// Without a running instance, buffers only matter if they get saved.
	tmpDir, err := os.MkdirTemp("", "chatpatch-nvim-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir for nvim: %w", err)
	}
	socketPath := filepath.Join(tmpDir, "nvim.sock")

	cmd := exec.Command("nvim", "--headless", "--clean", "--listen", socketPath)
	if err := cmd.Start(); err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("failed to start headless nvim: %w. Is 'nvim' in your PATH?", err)
	}

	// Wait for the socket file to appear.
	for i := 0; i < 20; i++ {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	v, err := nvim.Dial(socketPath)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("failed to connect to headless nvim: %w", err)
	}

	m := &Manager{
		nvim:          v,
		isSelfStarted: true,
		cmd:           cmd,
		socketPath:    socketPath,
		root:          root,
		save:          save,
	}
	if err := m.configureTempInstance(); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

func (m *Manager) configureTempInstance() error {
	b := m.nvim.NewBatch()
	b.Command("set noswapfile")
	b.Command("set hidden")
	if err := b.Execute(); err != nil {
		return fmt.Errorf("failed to configure headless nvim: %w", err)
	}
	return nil
}

// Close disconnects from Neovim and cleans up if it was self-started.
func (m *Manager) Close() {
	if m.nvim != nil {
		m.nvim.Close()
	}
	if m.isSelfStarted && m.cmd != nil && m.cmd.Process != nil {
		if err := m.cmd.Process.Kill(); err == nil {
			m.cmd.Wait()
			os.RemoveAll(filepath.Dir(m.socketPath))
		}
	}
}

// Target implements sink.Sink.
func (m *Manager) Target() string {
	if m.isSelfStarted {
		return "nvim (headless)"
	}
	return "nvim"
}

// Write loads each file into a buffer, replacing its lines. It implements
// sink.Sink; failures on one file do not stop the others and are joined
// into the returned error.
func (m *Manager) Write(ctx context.Context, files []model.PatchedFile) ([]string, error) {
	var updated, failed []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		absPath, err := fs.Join(m.root, f.Path)
		if err != nil {
			failed = append(failed, f.Path)
			continue
		}
		if err := m.updateBuffer(absPath, f.Content); err != nil {
			failed = append(failed, f.Path)
			continue
		}
		updated = append(updated, absPath)
	}

	if m.save && len(updated) > 0 {
		if err := m.nvim.Command("wa!"); err != nil {
			return updated, fmt.Errorf("failed to save buffers: %w", err)
		}
	}
	if len(failed) > 0 {
		return updated, fmt.Errorf("failed to update buffers: %s", strings.Join(failed, ", "))
	}
	return updated, nil
}

func (m *Manager) updateBuffer(absPath, content string) error {
	lines := strings.Split(content, "\n")
	byteContent := make([][]byte, len(lines))
	for i, s := range lines {
		byteContent[i] = []byte(s)
	}

	b := m.nvim.NewBatch()
	b.Command(fmt.Sprintf("edit %s", escapePath(absPath)))
	b.SetBufferLines(0, 0, -1, true, byteContent)
	return b.Execute()
}

// escapePath escapes characters that are special in an Ex file argument.
func escapePath(p string) string {
	var b strings.Builder
	for _, r := range p {
		switch r {
		case ' ', '\\', '%', '#', '|', '"':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
