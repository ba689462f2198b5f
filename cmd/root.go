package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// Environment variables read after .env is loaded. Flags take precedence.
const (
	envConfig   = "STATELESS_TRACE_CONFIG"
	envLogLevel = "STATELESS_TRACE_LOG"
)

var (
	logLevel   string // Log verbosity level
	configPath string // YAML configuration file
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "stateless-trace",
	Short: "Demarcate network-function traces and simulate their cache behaviour",
	Long: `stateless-trace reduces instruction traces recorded under symbolic execution
to their stateless code, collapsing calls into modelled functions into single
summary lines, and replays the remaining memory accesses through a
set-associative LRU cache.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// setup loads .env, applies the log level and resolves the config path.
func setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.Warnf("ignoring .env: %v", err)
	}

	level := logLevel
	if env := os.Getenv(envLogLevel); env != "" && !cmd.Flags().Changed("log") {
		level = env
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(parsed)

	if configPath == "" {
		configPath = os.Getenv(envConfig)
	}
	return nil
}

// fatalf logs and exits non-zero after running the atexit handlers, so
// buffered results still reach the database.
func fatalf(format string, args ...any) {
	logrus.Errorf(format, args...)
	atexit.Exit(1)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fatalf("%v", err)
	}
	atexit.Exit(0)
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file (default $"+envConfig+")")

	rootCmd.AddCommand(demarcateCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(aggregateCmd)
}
