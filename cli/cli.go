package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/sokinpui/chatpatch/internal/config"
)

// ErrHelp is returned when -h/--help was requested.
var ErrHelp = pflag.ErrHelp

// Config holds all the command-line flag values.
type Config struct {
	Input          string
	LookupDirs     []string
	Extensions     []string
	Output         string
	Print          bool
	Nvim           bool
	NvimSave       bool
	ListDiffs      bool
	History        bool
	Verify         bool
	Plain          bool
	Workers        int
	NoFinalNewline bool
}

// StdoutMode reports whether the run prints its results to stdout, in which
// case the interactive view must stay off.
func (c *Config) StdoutMode() bool {
	return c.Print || c.ListDiffs || c.History
}

// ParseFlags defines and parses command-line flags using pflag, then fills
// unset values from the config file.
func ParseFlags() (*Config, error) {
	file, err := config.Load()
	if err != nil {
		return nil, err
	}
	return Parse(os.Args[1:], file, os.Stderr)
}

// Parse parses args into a Config. Values from file apply where the
// corresponding flag was not given.
func Parse(args []string, file *config.File, usageOut io.Writer) (*Config, error) {
	cfg := &Config{}
	flags := pflag.NewFlagSet("chatpatch", pflag.ContinueOnError)
	flags.SetOutput(usageOut)

	flags.StringVarP(&cfg.Input, "input", "i", "", "Read the model reply from a file ('-' for stdin). Defaults to piped stdin, then the clipboard.")
	flags.StringSliceVarP(&cfg.LookupDirs, "lookup-dir", "l", []string{}, "Directory to look for original files (default: current directory). Repeatable.")
	flags.StringSliceVarP(&cfg.Extensions, "extension", "e", []string{}, "Only patch files with these extensions (e.g., 'py', 'js').")
	flags.StringVarP(&cfg.Output, "output", "o", "", "Write patched files to a .zip archive or a directory.")
	flags.BoolVarP(&cfg.Print, "print", "p", false, "Print patched files to stdout.")
	flags.BoolVar(&cfg.Nvim, "nvim", false, "Load patched files into Neovim buffers.")
	flags.BoolVar(&cfg.NvimSave, "nvim-save", false, "Save the Neovim buffers after loading (requires --nvim).")
	flags.BoolVar(&cfg.ListDiffs, "list-diffs", false, "Print the extracted diff blocks without applying them.")
	flags.BoolVar(&cfg.History, "history", false, "Show previous runs.")
	flags.BoolVar(&cfg.Verify, "verify", false, "Warn about hunks that do not line up with the original file.")
	flags.BoolVar(&cfg.Plain, "plain", false, "Disable the spinner and interactive summary.")
	flags.IntVarP(&cfg.Workers, "workers", "j", 0, "Maximum files patched concurrently (0: one per file).")
	flags.BoolVar(&cfg.NoFinalNewline, "no-final-newline", false, "Do not append a trailing newline to written files.")

	flags.Usage = func() {
		fmt.Fprintln(usageOut, "Usage: chatpatch [flags]")
		fmt.Fprintln(usageOut, "\nExtract ```diff blocks from an LLM reply and apply them to the original files.")
		fmt.Fprintln(usageOut, "\nExample: pbpaste | chatpatch -o patched.zip")
		fmt.Fprintln(usageOut, "\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(flags.Args(), " "))
	}

	if file != nil {
		if !flags.Changed("lookup-dir") {
			cfg.LookupDirs = append(cfg.LookupDirs, file.LookupDirs...)
		}
		if !flags.Changed("extension") {
			cfg.Extensions = append(cfg.Extensions, file.Extensions...)
		}
		if !flags.Changed("output") && !flags.Changed("print") && !flags.Changed("nvim") {
			cfg.Output = file.Output
		}
		if !flags.Changed("workers") {
			cfg.Workers = file.Workers
		}
		if !flags.Changed("verify") {
			cfg.Verify = file.Verify
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Normalize extensions
	for i, ext := range cfg.Extensions {
		if len(ext) > 0 && ext[0] != '.' {
			cfg.Extensions[i] = "." + ext
		}
	}

	return cfg, nil
}

func (c *Config) validate() error {
	sinks := 0
	for _, set := range []bool{c.Output != "", c.Print, c.Nvim} {
		if set {
			sinks++
		}
	}
	if sinks > 1 {
		return errors.New("error: --output, --print and --nvim are mutually exclusive")
	}
	if c.NvimSave && !c.Nvim {
		return errors.New("error: --nvim-save requires --nvim")
	}
	if c.ListDiffs && c.History {
		return errors.New("error: --list-diffs and --history are mutually exclusive")
	}
	if c.Workers < 0 {
		return errors.New("error: --workers must not be negative")
	}
	return nil
}
