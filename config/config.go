package config

import (
	"errors"
	"time"

	"github.com/settlement-labs/op-settler/replay"
)

var (
	ErrMissingScenario        = errors.New("missing scenario file")
	ErrInvalidReplayCacheSize = errors.New("replay cache size must be positive")
	ErrMissingMetricsAddress  = errors.New("missing metrics listen address")
	ErrInvalidMetricsPort     = errors.New("invalid metrics listen port")
	ErrInvalidMonitorInterval = errors.New("monitor interval must be positive")
)

const (
	// DefaultChallengeTimeout is the number of logical ticks a challenge
	// must wait in the queue before it is adjudicated.
	DefaultChallengeTimeout = uint64(10)

	DefaultMetricsListenAddr = "0.0.0.0"
	DefaultMetricsListenPort = 7300

	DefaultMonitorInterval = 30 * time.Second
)

type MetricsConfig struct {
	Enabled    bool
	ListenAddr string
	ListenPort int
}

func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:    false,
		ListenAddr: DefaultMetricsListenAddr,
		ListenPort: DefaultMetricsListenPort,
	}
}

type MonitorConfig struct {
	Enabled  bool
	Interval time.Duration
}

func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:  false,
		Interval: DefaultMonitorInterval,
	}
}

// Config is a well typed config that is parsed from the CLI params.
// It is used to initialize the settler service.
type Config struct {
	ScenarioPath     string // Path to the TOML scenario driving the verifier
	ChallengeTimeout uint64 // Challenge maturity timeout in logical ticks
	ReplayCacheSize  int    // Number of replay boundary snapshots kept in memory

	Metrics MetricsConfig
	Monitor MonitorConfig
}

func NewConfig(scenarioPath string) Config {
	return Config{
		ScenarioPath:     scenarioPath,
		ChallengeTimeout: DefaultChallengeTimeout,
		ReplayCacheSize:  replay.DefaultCacheSize,
		Metrics:          DefaultMetricsConfig(),
		Monitor:          DefaultMonitorConfig(),
	}
}

func (c Config) Check() error {
	if c.ScenarioPath == "" {
		return ErrMissingScenario
	}
	if c.ReplayCacheSize <= 0 {
		return ErrInvalidReplayCacheSize
	}
	if c.Metrics.Enabled {
		if c.Metrics.ListenAddr == "" {
			return ErrMissingMetricsAddress
		}
		if c.Metrics.ListenPort < 0 || c.Metrics.ListenPort > 65535 {
			return ErrInvalidMetricsPort
		}
	}
	if c.Monitor.Enabled && c.Monitor.Interval <= 0 {
		return ErrInvalidMonitorInterval
	}
	return nil
}
