package verifier

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/log"

	"github.com/settlement-labs/op-settler/config"
	"github.com/settlement-labs/op-settler/metrics"
	"github.com/settlement-labs/op-settler/monitor"
	"github.com/settlement-labs/op-settler/version"
)

// Service wires a Verifier to its operational surroundings: metrics, the
// optional metrics server and the optional settlement monitor. The core
// itself is synchronous; the service only owns startup and shutdown.
type Service struct {
	logger   log.Logger
	metrics  *metrics.Metrics
	verifier *Verifier

	metricsSrv *metrics.Server
	monitor    *monitor.Monitor

	stopped atomic.Bool
}

// NewService creates a started service around a fresh Verifier.
func NewService(logger log.Logger, cfg *config.Config) (*Service, error) {
	s := &Service{
		logger:  logger,
		metrics: metrics.NewMetrics(),
	}
	if err := s.initFromConfig(cfg); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to init service: %w", err), s.Stop(context.Background()))
	}
	return s, nil
}

func (s *Service) initFromConfig(cfg *config.Config) error {
	if err := s.initMetricsServer(&cfg.Metrics); err != nil {
		return fmt.Errorf("failed to init metrics server: %w", err)
	}
	s.verifier = New(s.logger, s.metrics, cfg.ChallengeTimeout, cfg.ReplayCacheSize)
	s.initMonitor(&cfg.Monitor)

	s.metrics.RecordInfo(version.SimpleWithMeta)
	s.metrics.RecordUp()
	return nil
}

func (s *Service) initMetricsServer(cfg *config.MetricsConfig) error {
	if !cfg.Enabled {
		return nil
	}
	s.logger.Debug("starting metrics server", "addr", cfg.ListenAddr, "port", cfg.ListenPort)
	metricsSrv, err := metrics.StartServer(s.metrics.Registry(), cfg.ListenAddr, cfg.ListenPort)
	if err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	s.logger.Info("started metrics server", "addr", metricsSrv.Addr())
	s.metricsSrv = metricsSrv
	return nil
}

func (s *Service) initMonitor(cfg *config.MonitorConfig) {
	if !cfg.Enabled {
		return
	}
	conservation := monitor.NewConservationMonitor(s.logger, s.metrics)
	commitments := monitor.NewCommitmentMonitor(s.logger, s.metrics)
	backlog := monitor.NewBacklogMonitor(s.logger, s.metrics)
	s.monitor = monitor.NewMonitor(s.logger, s.metrics, cfg.Interval, s.snapshot,
		conservation.CheckConservation, commitments.CheckCommitments, backlog.CheckBacklog)
	s.monitor.StartMonitoring()
}

// snapshot copies the observable verifier state for the monitor. Each
// accessor takes the verifier lock separately; the monitor tolerates a
// snapshot torn across a concurrent submission.
func (s *Service) snapshot() monitor.Snapshot {
	return monitor.Snapshot{
		Now:              s.verifier.Now(),
		ChallengeTimeout: s.verifier.ChallengeTimeout(),
		Baseline:         s.verifier.Baseline(),
		Blocks:           s.verifier.Blocks(),
		Pending:          s.verifier.PendingChallenges(),
		Resolved:         s.verifier.ResolvedChallenges(),
	}
}

// Verifier exposes the settlement core for drivers.
func (s *Service) Verifier() *Verifier {
	return s.verifier
}

func (s *Service) Stopped() bool {
	return s.stopped.Load()
}

func (s *Service) Stop(ctx context.Context) error {
	s.logger.Info("Stopping settler service")
	var result error
	if s.monitor != nil {
		s.monitor.StopMonitoring()
		s.monitor = nil
	}
	if s.metricsSrv != nil {
		if err := s.metricsSrv.Stop(ctx); err != nil {
			result = errors.Join(result, fmt.Errorf("failed to close metrics server: %w", err))
		}
	}
	s.stopped.Store(true)
	return result
}
