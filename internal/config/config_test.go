package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/auvred/jregex"
)

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
flags: [i, multiline]
max_steps: 10000
timeout: 250ms
cache_size: 8
color: false
`))
	assert.NilError(t, err)
	assert.DeepEqual(t, cfg, Config{
		Flags:     []string{"i", "multiline"},
		MaxSteps:  10000,
		Timeout:   "250ms",
		CacheSize: 8,
		Color:     false,
	})

	flags, err := cfg.PatternFlags()
	assert.NilError(t, err)
	assert.Equal(t, flags, jregex.FlagCaseInsensitive|jregex.FlagMultiline)

	limits, err := cfg.Limits()
	assert.NilError(t, err)
	assert.Equal(t, limits, jregex.Limits{MaxSteps: 10000, Timeout: 250 * time.Millisecond})
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("max_steps: 5\n"))
	assert.NilError(t, err)
	assert.Equal(t, cfg.CacheSize, jregex.DefaultCacheSize)
	assert.Equal(t, cfg.Color, true)
	assert.Equal(t, cfg.MaxSteps, int64(5))
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		data string
		err  string
	}{
		{"unknown key", "colour: true\n", "field colour not found"},
		{"unknown flag", "flags: [q]\n", `config: unknown flag "q"`},
		{"bad timeout", "timeout: soon\n", "config: timeout"},
		{"negative steps", "max_steps: -1\n", "config: max_steps must not be negative, got -1"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			assert.ErrorContains(t, err, tc.err)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.NilError(t, err)
		assert.DeepEqual(t, cfg, Default())
	})
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "jregex.yaml")
		assert.NilError(t, os.WriteFile(path, []byte("flags: [literal]\n"), 0o600))
		cfg, err := Load(path)
		assert.NilError(t, err)
		flags, err := cfg.PatternFlags()
		assert.NilError(t, err)
		assert.Equal(t, flags, jregex.FlagLiteral)
	})
}
