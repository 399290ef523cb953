// Package config loads the optional YAML settings file of the jregex
// command.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/auvred/jregex"
)

// Config mirrors the settings file. Command-line flags override it.
type Config struct {
	// Pattern flags by name, e.g. [i, m] or [case_insensitive, multiline].
	Flags []string `yaml:"flags"`
	// MaxSteps bounds each search; 0 means unbounded.
	MaxSteps int64 `yaml:"max_steps"`
	// Timeout bounds each search, in time.ParseDuration syntax.
	Timeout string `yaml:"timeout"`
	// CacheSize is the capacity of the pattern cache.
	CacheSize int `yaml:"cache_size"`
	// Color enables highlighting of matches and groups.
	Color bool `yaml:"color"`
}

// Default returns the settings used when there is no file.
func Default() Config {
	return Config{
		CacheSize: jregex.DefaultCacheSize,
		Color:     true,
	}
}

// Load reads the file at path. A missing file yields Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

// Parse decodes settings on top of Default. Unknown keys are an error.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if _, err := cfg.PatternFlags(); err != nil {
		return Config{}, err
	}
	if _, err := cfg.Limits(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var flagNames = map[string]jregex.Flag{
	"i":                  jregex.FlagCaseInsensitive,
	"case_insensitive":   jregex.FlagCaseInsensitive,
	"m":                  jregex.FlagMultiline,
	"multiline":          jregex.FlagMultiline,
	"s":                  jregex.FlagDotAll,
	"dotall":             jregex.FlagDotAll,
	"x":                  jregex.FlagComments,
	"comments":           jregex.FlagComments,
	"literal":            jregex.FlagLiteral,
	"bounded_lookbehind": jregex.FlagBoundedLookbehind,
}

// ParseFlags converts flag names into a bitmask.
func ParseFlags(names []string) (jregex.Flag, error) {
	var flags jregex.Flag
	for _, name := range names {
		f, ok := flagNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return 0, fmt.Errorf("config: unknown flag %q", name)
		}
		flags |= f
	}
	return flags, nil
}

// PatternFlags returns the configured flags as a bitmask.
func (c Config) PatternFlags() (jregex.Flag, error) {
	return ParseFlags(c.Flags)
}

// Limits returns the configured search budget.
func (c Config) Limits() (jregex.Limits, error) {
	if c.MaxSteps < 0 {
		return jregex.Limits{}, fmt.Errorf("config: max_steps must not be negative, got %d", c.MaxSteps)
	}
	l := jregex.Limits{MaxSteps: c.MaxSteps}
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return jregex.Limits{}, fmt.Errorf("config: timeout: %w", err)
		}
		l.Timeout = d
	}
	return l, nil
}
