package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/settlement-labs/op-settler/config"
	"github.com/settlement-labs/op-settler/replay"
)

const EnvVarPrefix = "OP_SETTLER"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	// Required Flags
	ScenarioFlag = &cli.StringFlag{
		Name:    "scenario",
		Usage:   "Path to the TOML scenario file to run against the verifier",
		EnvVars: prefixEnvVars("SCENARIO"),
	}
	// Optional Flags
	ChallengeTimeoutFlag = &cli.Uint64Flag{
		Name:    "challenge-timeout",
		Usage:   "Logical ticks a fraud challenge must age before adjudication. Overridden by the scenario file when it sets its own timeout.",
		EnvVars: prefixEnvVars("CHALLENGE_TIMEOUT"),
		Value:   config.DefaultChallengeTimeout,
	}
	ReplayCacheSizeFlag = &cli.IntFlag{
		Name:    "replay-cache-size",
		Usage:   "Number of replay boundary snapshots kept in memory",
		EnvVars: prefixEnvVars("REPLAY_CACHE_SIZE"),
		Value:   replay.DefaultCacheSize,
	}
	LogLevelFlag = &cli.StringFlag{
		Name:    "log.level",
		Usage:   "The lowest log level that will be output. Valid options: trace, debug, info, warn, error, crit",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
		Value:   "info",
	}
	MetricsEnabledFlag = &cli.BoolFlag{
		Name:    "metrics.enabled",
		Usage:   "Enable the metrics server",
		EnvVars: prefixEnvVars("METRICS_ENABLED"),
	}
	MetricsAddrFlag = &cli.StringFlag{
		Name:    "metrics.addr",
		Usage:   "Metrics listening address",
		EnvVars: prefixEnvVars("METRICS_ADDR"),
		Value:   config.DefaultMetricsListenAddr,
	}
	MetricsPortFlag = &cli.IntFlag{
		Name:    "metrics.port",
		Usage:   "Metrics listening port",
		EnvVars: prefixEnvVars("METRICS_PORT"),
		Value:   config.DefaultMetricsListenPort,
	}
	MonitorEnabledFlag = &cli.BoolFlag{
		Name:    "monitor.enabled",
		Usage:   "Enable periodic health checks over the settlement state",
		EnvVars: prefixEnvVars("MONITOR_ENABLED"),
	}
	MonitorIntervalFlag = &cli.DurationFlag{
		Name:    "monitor.interval",
		Usage:   "Wall-clock delay between settlement health check rounds",
		EnvVars: prefixEnvVars("MONITOR_INTERVAL"),
		Value:   config.DefaultMonitorInterval,
	}
)

var requiredFlags = []cli.Flag{
	ScenarioFlag,
}

var optionalFlags = []cli.Flag{
	ChallengeTimeoutFlag,
	ReplayCacheSizeFlag,
	LogLevelFlag,
	MetricsEnabledFlag,
	MetricsAddrFlag,
	MetricsPortFlag,
	MonitorEnabledFlag,
	MonitorIntervalFlag,
}

// Flags contains the list of configuration options available to the binary.
var Flags []cli.Flag

func init() {
	Flags = append(Flags, requiredFlags...)
	Flags = append(Flags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}

// NewConfigFromCLI parses the Config from the provided flags or environment
// variables.
func NewConfigFromCLI(ctx *cli.Context) (*config.Config, error) {
	if err := CheckRequired(ctx); err != nil {
		return nil, err
	}
	cfg := config.NewConfig(ctx.String(ScenarioFlag.Name))
	cfg.ChallengeTimeout = ctx.Uint64(ChallengeTimeoutFlag.Name)
	cfg.ReplayCacheSize = ctx.Int(ReplayCacheSizeFlag.Name)
	cfg.Metrics = config.MetricsConfig{
		Enabled:    ctx.Bool(MetricsEnabledFlag.Name),
		ListenAddr: ctx.String(MetricsAddrFlag.Name),
		ListenPort: ctx.Int(MetricsPortFlag.Name),
	}
	cfg.Monitor = config.MonitorConfig{
		Enabled:  ctx.Bool(MonitorEnabledFlag.Name),
		Interval: ctx.Duration(MonitorIntervalFlag.Name),
	}
	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
