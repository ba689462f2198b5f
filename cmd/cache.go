package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nf-analysis/stateless-trace/sim/cache"
)

var (
	cacheTracePath string
	cacheOutPath   string
	addressList    bool
)

// cacheCmd replays the memory accesses of one trace.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Count hits and misses of a trace's LOAD/STORE accesses",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		out := cacheOutPath
		if out == "" {
			out = cacheTracePath + ".cache_stats"
		}
		return simulateFile(cfg.Cache, cacheTracePath, out, addressList)
	},
}

// simulateFile validates config before touching the trace, replays it and
// writes the Hits/Misses report.
func simulateFile(config cache.Config, tracePath, outPath string, addresses bool) error {
	if err := config.Validate(); err != nil {
		return err
	}
	f, err := os.Open(tracePath)
	if err != nil {
		return fmt.Errorf("open trace: %w", err)
	}
	defer func() { _ = f.Close() }()

	var accesses []cache.Access
	if addresses {
		accesses, err = cache.ReadAddressList(f, tracePath)
	} else {
		accesses, err = cache.ReadAccesses(f, tracePath)
	}
	if err != nil {
		return err
	}

	logrus.Infof("simulating %d accesses: %d-byte cache, %d-byte blocks, %d ways, %d sets",
		len(accesses), config.CacheSize, config.BlockSize, config.Associativity, config.NumSets())
	res, err := cache.Simulate(accesses, config)
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	if err := res.Write(out); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	logrus.Infof("wrote %s (%d hits, %d misses)", outPath, res.Hits, res.Misses)
	return nil
}

func init() {
	cacheCmd.Flags().StringVar(&cacheTracePath, "trace", "", "Demarcated trace (or address list with --addresses)")
	cacheCmd.Flags().StringVar(&cacheOutPath, "out", "", "Output path (default <trace>.cache_stats)")
	cacheCmd.Flags().BoolVar(&addressList, "addresses", false, "Input is a bare list of hex addresses, one per line")
	addCacheFlags(cacheCmd)
	_ = cacheCmd.MarkFlagRequired("trace")
}
