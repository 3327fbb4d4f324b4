package main

import (
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/settlement-labs/op-settler/config"
)

var scenarioPath = "testdata/fraud.toml"

func TestLogLevel(t *testing.T) {
	t.Run("RejectInvalid", func(t *testing.T) {
		verifyArgsInvalid(t, "unknown level: foo", addRequiredArgs("--log.level=foo"))
	})

	for _, lvl := range []string{"trace", "debug", "info", "error", "crit"} {
		lvl := lvl
		t.Run("AcceptValid_"+lvl, func(t *testing.T) {
			logger, _, err := dryRunWithArgs(addRequiredArgs("--log.level", lvl))
			require.NoError(t, err)
			require.NotNil(t, logger)
		})
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := configForArgs(t, addRequiredArgs())
	defaultCfg := config.NewConfig(scenarioPath)
	require.Equal(t, defaultCfg, *cfg)
	require.NoError(t, cfg.Check())
}

func TestScenario(t *testing.T) {
	t.Run("Required", func(t *testing.T) {
		verifyArgsInvalid(t, "flag scenario is required", []string{"op-settler"})
	})

	t.Run("Valid", func(t *testing.T) {
		cfg := configForArgs(t, addRequiredArgs())
		require.Equal(t, scenarioPath, cfg.ScenarioPath)
	})
}

func TestChallengeTimeout(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		cfg := configForArgs(t, addRequiredArgs())
		require.Equal(t, config.DefaultChallengeTimeout, cfg.ChallengeTimeout)
	})

	t.Run("Valid", func(t *testing.T) {
		cfg := configForArgs(t, addRequiredArgs("--challenge-timeout=42"))
		require.Equal(t, uint64(42), cfg.ChallengeTimeout)
	})

	t.Run("Zero", func(t *testing.T) {
		cfg := configForArgs(t, addRequiredArgs("--challenge-timeout=0"))
		require.Equal(t, uint64(0), cfg.ChallengeTimeout)
	})
}

func TestReplayCacheSize(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		cfg := configForArgs(t, addRequiredArgs("--replay-cache-size=16"))
		require.Equal(t, 16, cfg.ReplayCacheSize)
	})

	t.Run("Invalid", func(t *testing.T) {
		verifyArgsInvalid(t, "replay cache size must be positive", addRequiredArgs("--replay-cache-size=0"))
	})
}

func TestMetrics(t *testing.T) {
	t.Run("Enabled", func(t *testing.T) {
		cfg := configForArgs(t, addRequiredArgs("--metrics.enabled"))
		require.True(t, cfg.Metrics.Enabled)
	})

	t.Run("CustomAddr", func(t *testing.T) {
		cfg := configForArgs(t, addRequiredArgs("--metrics.enabled", "--metrics.addr=127.0.0.1", "--metrics.port=9100"))
		require.Equal(t, "127.0.0.1", cfg.Metrics.ListenAddr)
		require.Equal(t, 9100, cfg.Metrics.ListenPort)
	})
}

func TestMonitorFlags(t *testing.T) {
	t.Run("Enabled", func(t *testing.T) {
		cfg := configForArgs(t, addRequiredArgs("--monitor.enabled"))
		require.True(t, cfg.Monitor.Enabled)
		require.Equal(t, config.DefaultMonitorInterval, cfg.Monitor.Interval)
	})

	t.Run("CustomInterval", func(t *testing.T) {
		cfg := configForArgs(t, addRequiredArgs("--monitor.enabled", "--monitor.interval=5s"))
		require.Equal(t, 5*time.Second, cfg.Monitor.Interval)
	})

	t.Run("InvalidInterval", func(t *testing.T) {
		verifyArgsInvalid(t, "monitor interval must be positive",
			addRequiredArgs("--monitor.enabled", "--monitor.interval=0"))
	})
}

func verifyArgsInvalid(t *testing.T, messageContains string, cliArgs []string) {
	_, _, err := dryRunWithArgs(cliArgs)
	require.ErrorContains(t, err, messageContains)
}

func configForArgs(t *testing.T, cliArgs []string) *config.Config {
	_, cfg, err := dryRunWithArgs(cliArgs)
	require.NoError(t, err)
	return cfg
}

// dryRunWithArgs parses the CLI args through the real app but swaps the
// scenario execution for a capture of the parsed config.
func dryRunWithArgs(cliArgs []string) (log.Logger, *config.Config, error) {
	var cfg *config.Config
	var logger log.Logger
	err := run(cliArgs, func(ctx *cli.Context, l log.Logger, c *config.Config) error {
		logger = l
		cfg = c
		return nil
	})
	return logger, cfg, err
}

func addRequiredArgs(args ...string) []string {
	required := []string{
		"op-settler",
		fmt.Sprintf("--scenario=%s", scenarioPath),
	}
	return append(required, args...)
}
