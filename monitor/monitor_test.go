package monitor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"

	"github.com/settlement-labs/op-settler/rollup"
	"github.com/settlement-labs/op-settler/testlog"
)

func TestMonitor_RunChecks(t *testing.T) {
	monitor, fetcher, checks, metrics := setupMonitorTest(t)
	fetcher.snapshot = Snapshot{
		Now:    7,
		Blocks: []*rollup.Block{{Number: 0, Committed: true}},
	}
	monitor.runChecks()
	require.EqualValues(t, 1, fetcher.calls.Load())
	for _, check := range checks {
		require.EqualValues(t, 1, check.calls.Load())
		require.Equal(t, uint64(7), check.lastSnapshot.Now)
	}
	require.EqualValues(t, 1, metrics.durations.Load())
}

func TestMonitor_StartMonitoring(t *testing.T) {
	monitor, fetcher, checks, _ := setupMonitorTest(t)
	monitor.StartMonitoring()
	require.Eventually(t, func() bool {
		return fetcher.calls.Load() >= 2
	}, time.Second, 10*time.Millisecond)
	monitor.StopMonitoring()
	for _, check := range checks {
		require.GreaterOrEqual(t, check.calls.Load(), int64(2))
	}
}

func setupMonitorTest(t *testing.T) (*Monitor, *stubFetcher, []*stubCheck, *stubMonitorMetrics) {
	logger := testlog.Logger(t, log.LvlDebug)
	fetcher := &stubFetcher{}
	check1 := &stubCheck{}
	check2 := &stubCheck{}
	metrics := &stubMonitorMetrics{}
	monitor := NewMonitor(logger, metrics, 20*time.Millisecond, fetcher.Fetch, check1.Check, check2.Check)
	return monitor, fetcher, []*stubCheck{check1, check2}, metrics
}

type stubFetcher struct {
	calls    atomic.Int64
	snapshot Snapshot
}

func (s *stubFetcher) Fetch() Snapshot {
	s.calls.Add(1)
	return s.snapshot
}

type stubCheck struct {
	calls        atomic.Int64
	lastSnapshot Snapshot
}

func (s *stubCheck) Check(snapshot Snapshot) {
	s.lastSnapshot = snapshot
	s.calls.Add(1)
}

type stubMonitorMetrics struct {
	durations atomic.Int64
}

func (s *stubMonitorMetrics) RecordMonitorDuration(dur time.Duration) {
	s.durations.Add(1)
}
