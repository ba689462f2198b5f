package cmd

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runTracePath string

// runCmd executes the full pipeline for one trace
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Demarcate a trace, simulate the cache and write all outputs next to it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		p, err := newPipeline(cfg)
		if err != nil {
			return err
		}
		logrus.Infof("Starting run on %s with cache %+v", runTracePath, cfg.Cache)
		startTime := time.Now()

		res, err := p.Run(runTracePath)
		if err != nil {
			return err
		}
		if err := res.WriteOutputs(runTracePath); err != nil {
			return err
		}

		logrus.Infof("Run complete in %s.", time.Since(startTime))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runTracePath, "trace", "", "Raw instruction trace")
	addListFlags(runCmd)
	addCacheFlags(runCmd)
	addTraceLevelFlag(runCmd)
	_ = runCmd.MarkFlagRequired("trace")
}
