// Package config holds the tunable settings of the tracker: the minimum
// severity, the progress rate limit, and the display toggles of the
// readable line. Settings load from YAML or plain maps and may be swapped
// at runtime through a Runtime holder; the tracker only ever reads them.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/opline/opline/pkg/ports"
)

// Settings is one consistent configuration snapshot.
type Settings struct {
	// MinSeverity names the lowest severity the default sink lets
	// through: debug, info, warn, or error.
	MinSeverity string `yaml:"min_severity" mapstructure:"min_severity"`

	// ProgressIntervalMS rate-limits progress emissions: a progress call
	// stays silent unless this many milliseconds passed since the last
	// emitted one.
	ProgressIntervalMS int `yaml:"progress_interval_ms" mapstructure:"progress_interval_ms"`

	// Display toggles of the readable line.
	ShowCategory   bool `yaml:"show_category" mapstructure:"show_category"`
	ShowPosition   bool `yaml:"show_position" mapstructure:"show_position"`
	ShowLoad       bool `yaml:"show_load" mapstructure:"show_load"`
	ShowMemory     bool `yaml:"show_memory" mapstructure:"show_memory"`
	ShowGoroutines bool `yaml:"show_goroutines" mapstructure:"show_goroutines"`
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		MinSeverity:        "info",
		ProgressIntervalMS: 10_000,
		ShowCategory:       true,
		ShowPosition:       true,
		ShowLoad:           true,
		ShowMemory:         true,
		ShowGoroutines:     false,
	}
}

// ProgressInterval returns the progress rate limit as a duration.
func (s Settings) ProgressInterval() time.Duration {
	return time.Duration(s.ProgressIntervalMS) * time.Millisecond
}

// Severity returns the parsed minimum severity, Info when the configured
// name is invalid (Validate reports that case).
func (s Settings) Severity() ports.Severity {
	sev, err := ports.ParseSeverity(s.MinSeverity)
	if err != nil {
		return ports.Info
	}
	return sev
}

// ValidationError aggregates configuration problems.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid settings: %s", strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Is(target error) bool {
	var other *ValidationError
	return errors.As(target, &other)
}

// Validate checks the settings for semantic correctness and reports every
// problem at once.
func (s Settings) Validate() error {
	problems := make([]string, 0)

	if _, err := ports.ParseSeverity(s.MinSeverity); err != nil {
		problems = append(problems, fmt.Sprintf("min_severity: %v", err))
	}
	if s.ProgressIntervalMS < 0 {
		problems = append(problems, "progress_interval_ms must be non-negative")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Load reads, parses, and validates settings from a YAML file. Absent
// fields keep their defaults; unknown fields are rejected.
func Load(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return Settings{}, fmt.Errorf("open settings: %w", err)
	}
	defer f.Close()
	return decode(f)
}

func decode(r io.Reader) (Settings, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	cfg := Default()
	if err := decoder.Decode(&cfg); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

// FromMap builds settings from a plain map, for hosts that embed this
// library's settings inside their own configuration tree. Input is
// weakly typed; unknown keys are rejected.
func FromMap(m map[string]any) (Settings, error) {
	cfg := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Settings{}, fmt.Errorf("build settings decoder: %w", err)
	}
	if err := dec.Decode(m); err != nil {
		return Settings{}, fmt.Errorf("parse settings map: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

// Runtime hands one Settings snapshot to many readers and lets the host
// swap it atomically while trackers run.
type Runtime struct {
	cur atomic.Pointer[Settings]
}

// NewRuntime creates a holder with the given initial settings.
func NewRuntime(s Settings) *Runtime {
	r := &Runtime{}
	r.cur.Store(&s)
	return r
}

// Current returns the active snapshot.
func (r *Runtime) Current() Settings {
	return *r.cur.Load()
}

// Update validates and installs new settings.
func (r *Runtime) Update(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	r.cur.Store(&s)
	return nil
}
