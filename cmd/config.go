package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nf-analysis/stateless-trace/sim"
	"github.com/nf-analysis/stateless-trace/sim/cache"
	"github.com/nf-analysis/stateless-trace/sim/demarc"
	"github.com/nf-analysis/stateless-trace/sim/trace"
)

// Config represents the full configuration file structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Cache      cache.Config     `yaml:"cache"`
	Lists      demarc.ListPaths `yaml:"lists"`
	TraceLevel trace.TraceLevel `yaml:"trace_level"`
	Strict     bool             `yaml:"strict"`
}

// DefaultFileConfig returns the values used when no file is given.
func DefaultFileConfig() Config {
	return Config{
		Cache:      cache.DefaultConfig(),
		TraceLevel: trace.TraceLevelNone,
	}
}

// loadConfig parses a configuration file over the defaults. Unknown keys
// are errors so typos do not silently fall back to defaults. An empty path
// returns the defaults.
func loadConfig(path string) (Config, error) {
	cfg := DefaultFileConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Flag values shared by the subcommands that accept them. They only
// override the file when set on the command line.
var (
	statefulList     string
	frameworkList    string
	timeList         string
	verificationList string

	cacheSize     uint64
	blockSize     uint64
	associativity uint64

	traceLevel string
	strict     bool
)

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&statefulList, "stateful", "", "File listing stateful (libVig) model functions")
	cmd.Flags().StringVar(&frameworkList, "framework", "", "File listing framework (DPDK) model functions")
	cmd.Flags().StringVar(&timeList, "time", "", "File listing time model functions")
	cmd.Flags().StringVar(&verificationList, "verification", "", "File listing verification functions")
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject back-to-back calls to different models")
}

func addCacheFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64Var(&cacheSize, "cache-size", cache.DefaultCacheSize, "Cache capacity in bytes")
	cmd.Flags().Uint64Var(&blockSize, "block-size", cache.DefaultBlockSize, "Cache line size in bytes")
	cmd.Flags().Uint64Var(&associativity, "associativity", cache.DefaultAssociativity, "Ways per cache set")
}

func addTraceLevelFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Decision trace verbosity (none, decisions)")
}

// resolveConfig loads the configuration file and applies the flags the
// user set explicitly on cmd.
func resolveConfig(cmd *cobra.Command) (Config, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	override := func(name string, dst *string, val string) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst = val
		}
	}
	override("stateful", &cfg.Lists.Stateful, statefulList)
	override("framework", &cfg.Lists.Framework, frameworkList)
	override("time", &cfg.Lists.Time, timeList)
	override("verification", &cfg.Lists.Verification, verificationList)

	if flags.Lookup("cache-size") != nil {
		if flags.Changed("cache-size") {
			cfg.Cache.CacheSize = cacheSize
		}
		if flags.Changed("block-size") {
			cfg.Cache.BlockSize = blockSize
		}
		if flags.Changed("associativity") {
			cfg.Cache.Associativity = associativity
		}
	}
	if flags.Lookup("trace-level") != nil && flags.Changed("trace-level") {
		cfg.TraceLevel = trace.TraceLevel(traceLevel)
	}
	if flags.Lookup("strict") != nil && flags.Changed("strict") {
		cfg.Strict = strict
	}
	return cfg, nil
}

// PipelineConfig returns the pipeline settings of the file.
func (c Config) PipelineConfig() sim.PipelineConfig {
	return sim.PipelineConfig{
		Cache:      c.Cache,
		TraceLevel: c.TraceLevel,
		Strict:     c.Strict,
	}
}

// newPipeline validates the cache geometry, then loads the lists.
func newPipeline(cfg Config) (*sim.Pipeline, error) {
	pc := cfg.PipelineConfig()
	if err := pc.Validate(); err != nil {
		return nil, err
	}
	lists, err := demarc.LoadLists(cfg.Lists)
	if err != nil {
		return nil, err
	}
	return sim.NewPipeline(pc, lists)
}
