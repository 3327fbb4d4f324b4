package monitor

import (
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"

	"github.com/settlement-labs/op-settler/rollup"
	"github.com/settlement-labs/op-settler/testlog"
)

func TestCheckBacklog(t *testing.T) {
	snapshot := Snapshot{
		Now:              10,
		ChallengeTimeout: 5,
		Pending: []*rollup.Challenge{
			{BlockNumber: 0, SubmittedAt: 2}, // matured, head of the queue
			{BlockNumber: 0, SubmittedAt: 7},
			{BlockNumber: 1, SubmittedAt: 9},
		},
	}
	metrics := &stubBacklogMetrics{}
	logger, capturedLogs := testlog.CaptureLogger(t, log.LvlDebug)
	monitor := NewBacklogMonitor(logger, metrics)
	monitor.CheckBacklog(snapshot)
	require.Equal(t, 1, metrics.matured)
	require.Equal(t, uint64(8), metrics.oldestWait)

	levelFilter := testlog.NewLevelFilter(log.LevelWarn)
	messageFilter := testlog.NewMessageFilter("Matured challenges awaiting a clock advance")
	l := capturedLogs.FindLog(levelFilter, messageFilter)
	require.NotNil(t, l)
	require.EqualValues(t, 1, l.AttrValue("matured"))
	require.EqualValues(t, 3, l.AttrValue("pending"))
	require.EqualValues(t, 8, l.AttrValue("oldestWait"))
}

func TestCheckBacklog_EmptyQueue(t *testing.T) {
	metrics := &stubBacklogMetrics{matured: -1, oldestWait: 99}
	logger, capturedLogs := testlog.CaptureLogger(t, log.LvlDebug)
	monitor := NewBacklogMonitor(logger, metrics)
	monitor.CheckBacklog(Snapshot{Now: 10, ChallengeTimeout: 5})
	require.Zero(t, metrics.matured)
	require.Zero(t, metrics.oldestWait)
	require.Nil(t, capturedLogs.FindLog(testlog.NewLevelFilter(log.LevelWarn)))
}

func TestCheckBacklog_ImmatureQueue(t *testing.T) {
	snapshot := Snapshot{
		Now:              10,
		ChallengeTimeout: 5,
		Pending: []*rollup.Challenge{
			{BlockNumber: 0, SubmittedAt: 8},
		},
	}
	metrics := &stubBacklogMetrics{}
	logger, _ := testlog.CaptureLogger(t, log.LvlDebug)
	monitor := NewBacklogMonitor(logger, metrics)
	monitor.CheckBacklog(snapshot)
	require.Zero(t, metrics.matured)
	require.Equal(t, uint64(2), metrics.oldestWait)
}

type stubBacklogMetrics struct {
	matured    int
	oldestWait uint64
}

func (s *stubBacklogMetrics) RecordChallengeBacklog(matured int, oldestWait uint64) {
	s.matured = matured
	s.oldestWait = oldestWait
}
