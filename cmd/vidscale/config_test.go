package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFlags(t *testing.T, args ...string) (*pflag.FlagSet, *runOptions) {
	t.Helper()

	opts := &runOptions{}
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.register(flags)
	require.NoError(t, flags.Parse(args))
	return flags, opts
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestApplyConfigFillsUnsetFlags(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"
filter = "neural"
scale = 4.0
model = "model.onnx"
tta = true
bit_rate = 500000
metrics_addr = ":9090"
progress_interval = "250ms"
`)

	flags, opts := parseFlags(t)
	opts.configPath = path

	require.NoError(t, applyConfig(flags, opts))
	assert.Equal(t, "debug", opts.logLevel)
	assert.Equal(t, "neural", opts.filterKind)
	assert.Equal(t, 4.0, opts.scale)
	assert.Equal(t, "model.onnx", opts.model)
	assert.True(t, opts.tta)
	assert.Equal(t, int64(500000), opts.bitRate)
	assert.Equal(t, ":9090", opts.metricsAddr)
	assert.Equal(t, 250*time.Millisecond, opts.progressInterval)
}

func TestApplyConfigFlagsWin(t *testing.T) {
	path := writeConfig(t, `
scale = 4.0
kernel = "box"
log_level = "debug"
`)

	flags, opts := parseFlags(t, "--scale", "2", "--kernel", "lanczos")
	opts.configPath = path

	require.NoError(t, applyConfig(flags, opts))
	assert.Equal(t, 2.0, opts.scale)
	assert.Equal(t, "lanczos", opts.kernel)
	// Untouched flags still pick up the file.
	assert.Equal(t, "debug", opts.logLevel)
}

func TestApplyConfigWithoutPathIsNoop(t *testing.T) {
	flags, opts := parseFlags(t, "--scale", "2")
	require.NoError(t, applyConfig(flags, opts))
	assert.Equal(t, 2.0, opts.scale)
}

func TestApplyConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unparseable_toml",
			body: "scale = = 2",
			want: "parsing",
		},
		{
			name: "bad_progress_interval",
			body: `progress_interval = "soon"`,
			want: "progress_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags, opts := parseFlags(t)
			opts.configPath = writeConfig(t, tt.body)

			err := applyConfig(flags, opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("missing_file", func(t *testing.T) {
		flags, opts := parseFlags(t)
		opts.configPath = filepath.Join(t.TempDir(), "absent.toml")

		assert.Error(t, applyConfig(flags, opts))
	})
}
