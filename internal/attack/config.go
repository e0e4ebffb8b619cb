// Package attack runs ciphertext-only and known-plaintext attacks on the
// M-209: per-worker search loops, the multi-worker manager, progress
// reporting and run metrics.
package attack

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"m209/internal/search"
	"m209/internal/variant"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid attack config")

var validate = validator.New()

// Config configures an attack run.
type Config struct {
	// Version selects the machine constraints.
	Version variant.Version `yaml:"version" validate:"required"`

	// Threads is the number of search workers.
	Threads int `yaml:"threads" validate:"min=1,max=1024"`

	// Cycles bounds the restarts per worker. 0 runs until stopped.
	Cycles int `yaml:"cycles" validate:"min=0"`

	// Seed seeds the per-worker generators. 0 picks a random seed.
	Seed uint64 `yaml:"seed"`

	// Slide is the known slide of the key under attack. The searches keep it
	// fixed and move lugs and pins only.
	Slide int `yaml:"slide" validate:"min=0,max=25"`

	// CheckRules makes the lug climbs keep lug settings compliant with the
	// version's catalog.
	CheckRules bool `yaml:"check_rules"`

	// StopOnFound stops every worker once a key matching the whole crib is
	// found.
	StopOnFound bool `yaml:"stop_on_found"`

	CatalogFile string `yaml:"catalog_file"`
	StatsFile   string `yaml:"stats_file"`

	ResultsCapacity  int           `yaml:"results_capacity" validate:"min=1"`
	ProgressInterval time.Duration `yaml:"progress_interval" validate:"gt=0"`

	CiphertextOnly CiphertextOnlyConfig `yaml:"ciphertext_only"`
	KnownPlaintext KnownPlaintextConfig `yaml:"known_plaintext"`
}

// CiphertextOnlyConfig tunes the ciphertext-only driver.
type CiphertextOnlyConfig struct {
	RandomTrials int     `yaml:"random_trials" validate:"min=1"`
	Threshold    float64 `yaml:"threshold" validate:"min=0"`

	// AnnealCycles is the cycle count of the pin annealing phase. 0 uses
	// hill climbing instead.
	AnnealCycles int `yaml:"anneal_cycles" validate:"min=0"`

	// PinSearch runs after each lug change: none, hillclimb or anneal.
	PinSearch string          `yaml:"pin_search" validate:"oneof=none hillclimb anneal"`
	Schedule  search.Schedule `yaml:"schedule"`
}

// KnownPlaintextConfig tunes the known-plaintext driver.
type KnownPlaintextConfig struct {
	RandomTrials int     `yaml:"random_trials" validate:"min=1"`
	Threshold    float64 `yaml:"threshold" validate:"min=0"`

	// DeepAnnealCycles is the annealing effort of the first stagnation
	// round.
	DeepAnnealCycles int `yaml:"deep_anneal_cycles" validate:"min=1"`

	// MaxStagnation ends a cycle after that many rounds without
	// improvement.
	MaxStagnation int `yaml:"max_stagnation" validate:"min=1"`

	// QuickEvery runs a quick single-pass lug climb every that many
	// stagnation rounds.
	QuickEvery int `yaml:"quick_every" validate:"min=1"`

	PinSearch string          `yaml:"pin_search" validate:"oneof=none hillclimb anneal"`
	Schedule  search.Schedule `yaml:"schedule"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	return Config{
		Version:          variant.V1942,
		Threads:          4,
		CheckRules:       true,
		StopOnFound:      true,
		ResultsCapacity:  10,
		ProgressInterval: 2 * time.Second,
		CiphertextOnly: CiphertextOnlyConfig{
			RandomTrials: 200,
			AnnealCycles: 1,
			PinSearch:    "none",
			Schedule:     search.Schedule{Start: 0.2, End: 0.002, Decrement: 1.15},
		},
		KnownPlaintext: KnownPlaintextConfig{
			RandomTrials:     1000,
			DeepAnnealCycles: 3,
			MaxStagnation:    40,
			QuickEvery:       8,
			PinSearch:        "hillclimb",
			Schedule:         search.Schedule{Start: 1000, End: 10, Decrement: 1.2},
		},
	}
}

// LoadConfig merges defaults, the YAML file at path (if not empty) and
// M209_* environment overrides, then validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("M209_VERSION"); v != "" {
		version, err := variant.ParseVersion(v)
		if err != nil {
			return fmt.Errorf("M209_VERSION: %w", err)
		}
		c.Version = version
	}
	ints := map[string]*int{
		"M209_THREADS":          &c.Threads,
		"M209_CYCLES":           &c.Cycles,
		"M209_SLIDE":            &c.Slide,
		"M209_RESULTS_CAPACITY": &c.ResultsCapacity,
	}
	for name, dst := range ints {
		if v := getenv(name); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = i
		}
	}
	if v := getenv("M209_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("M209_SEED: %w", err)
		}
		c.Seed = seed
	}
	bools := map[string]*bool{
		"M209_CHECK_RULES":   &c.CheckRules,
		"M209_STOP_ON_FOUND": &c.StopOnFound,
	}
	for name, dst := range bools {
		if v := getenv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = b
		}
	}
	if v := getenv("M209_CATALOG_FILE"); v != "" {
		c.CatalogFile = v
	}
	if v := getenv("M209_STATS_FILE"); v != "" {
		c.StatsFile = v
	}
	return nil
}

// Validate checks field bounds and the annealing schedules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := variant.For(c.Version); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for _, s := range []search.Schedule{c.CiphertextOnly.Schedule, c.KnownPlaintext.Schedule} {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// parsePinSearch maps a validated pin search name.
func parsePinSearch(s string) search.PinSearch {
	switch s {
	case "hillclimb":
		return search.PinSearchHillClimb
	case "anneal":
		return search.PinSearchAnneal
	default:
		return search.PinSearchNone
	}
}
