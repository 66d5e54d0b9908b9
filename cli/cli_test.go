package cli

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/chatpatch/internal/config"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil, nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, &Config{LookupDirs: []string{}, Extensions: []string{}}, cfg)
	assert.False(t, cfg.StdoutMode())
}

func TestParse_Flags(t *testing.T) {
	cfg, err := Parse([]string{"-i", "reply.md", "-l", "src,lib", "-e", "py", "-e", ".go", "-o", "out.zip", "-j", "3", "--verify", "--plain"}, nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "reply.md", cfg.Input)
	assert.Equal(t, []string{"src", "lib"}, cfg.LookupDirs)
	assert.Equal(t, []string{".py", ".go"}, cfg.Extensions)
	assert.Equal(t, "out.zip", cfg.Output)
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.Verify)
	assert.True(t, cfg.Plain)
}

func TestParse_FileDefaults(t *testing.T) {
	file := &config.File{
		LookupDirs: []string{"from-file"},
		Extensions: []string{"rs"},
		Output:     "file.zip",
		Workers:    2,
		Verify:     true,
	}

	cfg, err := Parse(nil, file, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []string{"from-file"}, cfg.LookupDirs)
	assert.Equal(t, []string{".rs"}, cfg.Extensions)
	assert.Equal(t, "file.zip", cfg.Output)
	assert.Equal(t, 2, cfg.Workers)
	assert.True(t, cfg.Verify)
	assert.Equal(t, []string{"rs"}, file.Extensions, "file config must not be mutated")

	cfg, err = Parse([]string{"-l", "cli", "-j", "0", "--verify=false"}, file, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []string{"cli"}, cfg.LookupDirs)
	assert.Equal(t, 0, cfg.Workers)
	assert.False(t, cfg.Verify)

	// Choosing another sink on the command line drops the file's output.
	cfg, err = Parse([]string{"--print"}, file, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Output)
	assert.True(t, cfg.StdoutMode())
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string][]string{
		"two sinks":        {"-o", "x.zip", "--print"},
		"nvim-save alone":  {"--nvim-save"},
		"list and history": {"--list-diffs", "--history"},
		"negative workers": {"-j", "-1"},
		"positional args":  {"extra"},
		"unknown flag":     {"--bogus"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(args, nil, io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestParse_Help(t *testing.T) {
	_, err := Parse([]string{"--help"}, nil, io.Discard)
	assert.True(t, errors.Is(err, ErrHelp))
}
