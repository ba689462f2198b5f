package cmd

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSetupCommand binds a fresh --log flag to logLevel and restores the
// package state touched by setup when the test ends.
func newSetupCommand(t *testing.T) *cobra.Command {
	t.Helper()
	oldLevel, oldPath, oldLogrus := logLevel, configPath, logrus.GetLevel()
	t.Cleanup(func() {
		logLevel, configPath = oldLevel, oldPath
		logrus.SetLevel(oldLogrus)
	})
	c := &cobra.Command{Use: "test"}
	c.Flags().StringVar(&logLevel, "log", "warn", "")
	configPath = ""
	return c
}

func TestSetup_EnvironmentLogLevel(t *testing.T) {
	// GIVEN the log level set only through the environment
	t.Setenv(envLogLevel, "debug")
	c := newSetupCommand(t)

	// WHEN setup runs
	require.NoError(t, setup(c, nil))

	// THEN the environment value applies
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
}

func TestSetup_FlagBeatsEnvironment(t *testing.T) {
	t.Setenv(envLogLevel, "debug")
	c := newSetupCommand(t)
	require.NoError(t, c.Flags().Set("log", "error"))

	require.NoError(t, setup(c, nil))

	assert.Equal(t, logrus.ErrorLevel, logrus.GetLevel())
}

func TestSetup_InvalidLevel(t *testing.T) {
	t.Setenv(envLogLevel, "")
	c := newSetupCommand(t)
	require.NoError(t, c.Flags().Set("log", "chatty"))

	assert.Error(t, setup(c, nil))
}

func TestSetup_ConfigPathFromEnvironment(t *testing.T) {
	// GIVEN no --config but a config path in the environment
	t.Setenv(envLogLevel, "")
	t.Setenv(envConfig, "/etc/stateless-trace.yaml")
	c := newSetupCommand(t)

	// WHEN setup runs
	require.NoError(t, setup(c, nil))

	// THEN the environment path is used
	assert.Equal(t, "/etc/stateless-trace.yaml", configPath)
}

func TestSetup_ExplicitConfigPathKept(t *testing.T) {
	t.Setenv(envLogLevel, "")
	t.Setenv(envConfig, "/etc/stateless-trace.yaml")
	c := newSetupCommand(t)
	configPath = "local.yaml"

	require.NoError(t, setup(c, nil))

	assert.Equal(t, "local.yaml", configPath)
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"demarcate", "cache", "run", "batch", "aggregate"} {
		assert.Contains(t, names, want)
	}
}
