// Package monitor runs periodic health checks over the settlement state.
// Checks observe the block log and challenge queue from outside the core:
// they never mutate the verifier and never participate in adjudication.
package monitor

import (
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/settlement-labs/op-settler/ledger"
	"github.com/settlement-labs/op-settler/rollup"
)

// Snapshot is a point-in-time copy of the externally observable settlement
// state. All fields are caller-owned copies.
type Snapshot struct {
	Now              uint64
	ChallengeTimeout uint64
	Baseline         *ledger.State
	Blocks           []*rollup.Block
	Pending          []*rollup.Challenge
	Resolved         []*rollup.Challenge
}

type SnapshotFetcher func() Snapshot
type Check func(snapshot Snapshot)

type MonitorMetrics interface {
	RecordMonitorDuration(dur time.Duration)
}

type Monitor struct {
	logger  log.Logger
	metrics MonitorMetrics

	done chan struct{}

	interval time.Duration
	fetch    SnapshotFetcher
	checks   []Check
}

func NewMonitor(
	logger log.Logger,
	metrics MonitorMetrics,
	interval time.Duration,
	fetch SnapshotFetcher,
	checks ...Check) *Monitor {
	return &Monitor{
		logger:   logger,
		metrics:  metrics,
		done:     make(chan struct{}),
		interval: interval,
		fetch:    fetch,
		checks:   checks,
	}
}

func (m *Monitor) runChecks() {
	start := time.Now()
	snapshot := m.fetch()
	for _, check := range m.checks {
		check(snapshot)
	}
	timeTaken := time.Since(start)
	m.metrics.RecordMonitorDuration(timeTaken)
	m.logger.Debug("Completed monitoring update",
		"clock", snapshot.Now,
		"blocks", len(snapshot.Blocks),
		"pending", len(snapshot.Pending),
		"resolved", len(snapshot.Resolved),
		"duration", timeTaken)
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.runChecks()
		case <-m.done:
			return
		}
	}
}

func (m *Monitor) StartMonitoring() {
	m.logger.Info("Starting settlement monitor", "interval", m.interval)
	go m.loop()
}

func (m *Monitor) StopMonitoring() {
	m.logger.Info("Stopping settlement monitor")
	close(m.done)
}
