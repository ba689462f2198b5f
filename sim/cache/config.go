package cache

import "fmt"

// Default geometry: a 32 KiB, 8-way L1 data cache with 64-byte lines.
const (
	DefaultCacheSize     = 32768
	DefaultBlockSize     = 64
	DefaultAssociativity = 8
)

// Config holds the cache geometry. It is fixed for a run.
type Config struct {
	CacheSize     uint64 `yaml:"cache_size"`    // total capacity in bytes
	BlockSize     uint64 `yaml:"block_size"`    // line size in bytes
	Associativity uint64 `yaml:"associativity"` // ways per set
}

// DefaultConfig returns the default geometry.
func DefaultConfig() Config {
	return Config{
		CacheSize:     DefaultCacheSize,
		BlockSize:     DefaultBlockSize,
		Associativity: DefaultAssociativity,
	}
}

// ConfigurationError reports cache parameters that do not describe a cache.
type ConfigurationError struct {
	Config Config
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid cache configuration (size=%d, block=%d, ways=%d): %s",
		e.Config.CacheSize, e.Config.BlockSize, e.Config.Associativity, e.Reason)
}

// Validate checks that every parameter is positive and that the capacity is
// a whole number of sets.
func (c Config) Validate() error {
	switch {
	case c.CacheSize == 0:
		return &ConfigurationError{Config: c, Reason: "cache_size must be positive"}
	case c.BlockSize == 0:
		return &ConfigurationError{Config: c, Reason: "block_size must be positive"}
	case c.Associativity == 0:
		return &ConfigurationError{Config: c, Reason: "associativity must be positive"}
	}
	setSize := c.BlockSize * c.Associativity
	if setSize/c.Associativity != c.BlockSize {
		return &ConfigurationError{Config: c, Reason: "block_size * associativity overflows"}
	}
	if c.CacheSize%setSize != 0 {
		return &ConfigurationError{Config: c, Reason: fmt.Sprintf("cache_size is not a multiple of the set size %d", setSize)}
	}
	return nil
}

// NumSets returns CacheSize / (BlockSize * Associativity). Only meaningful
// for a configuration that passes Validate.
func (c Config) NumSets() uint64 {
	setSize := c.BlockSize * c.Associativity
	if setSize == 0 {
		return 0
	}
	return c.CacheSize / setSize
}
