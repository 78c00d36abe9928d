// Package config holds the scanner and walker tunables. The values are
// threaded explicitly into constructors; tests inject alternate
// configurations instead of mutating process-wide state.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults for the scanner tunables.
const (
	// DefaultBlockSize is how many bytes the scanner reads per block.
	DefaultBlockSize = 64 * 1024

	// DefaultOverlapSize is how many trailing bytes of the previous block
	// are retained to catch matches spanning a block boundary. Matches
	// longer than overlap+1 bytes may be missed across boundaries.
	DefaultOverlapSize = 1024

	// DefaultHitLimit caps the number of real hits per grep request; one
	// synthetic truncation notice follows when the cap is reached.
	DefaultHitLimit = 10000
)

// Config carries the process tunables for scanning and walking.
type Config struct {
	BlockSize   int `yaml:"block_size"`
	OverlapSize int `yaml:"overlap_size"`
	HitLimit    int `yaml:"hit_limit"`
}

// Default returns the documented default configuration.
func Default() Config {
	return Config{
		BlockSize:   DefaultBlockSize,
		OverlapSize: DefaultOverlapSize,
		HitLimit:    DefaultHitLimit,
	}
}

// Load reads a YAML configuration file. Absent fields keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the tunable invariants: positive sizes, overlap strictly
// smaller than the block, and a positive hit limit.
func (c Config) Validate() error {
	if c.BlockSize <= 0 {
		return fmt.Errorf("block size %d must be positive", c.BlockSize)
	}
	if c.OverlapSize <= 0 {
		return fmt.Errorf("overlap size %d must be positive", c.OverlapSize)
	}
	if c.OverlapSize >= c.BlockSize {
		return fmt.Errorf("overlap size %d must be smaller than block size %d", c.OverlapSize, c.BlockSize)
	}
	if c.HitLimit <= 0 {
		return fmt.Errorf("hit limit %d must be positive", c.HitLimit)
	}
	return nil
}
