package monitor

import (
	"github.com/ethereum/go-ethereum/log"
)

type BacklogMetrics interface {
	RecordChallengeBacklog(matured int, oldestWait uint64)
}

// BacklogMonitor watches the pending challenge queue. Resolution is strictly
// FIFO, so an immature head holds back every challenge behind it; a matured
// challenge still pending means the clock has not advanced past it yet.
type BacklogMonitor struct {
	logger  log.Logger
	metrics BacklogMetrics
}

func NewBacklogMonitor(logger log.Logger, metrics BacklogMetrics) *BacklogMonitor {
	return &BacklogMonitor{
		logger:  logger,
		metrics: metrics,
	}
}

func (b *BacklogMonitor) CheckBacklog(snapshot Snapshot) {
	matured := 0
	var oldestWait uint64
	for i, challenge := range snapshot.Pending {
		wait := snapshot.Now - challenge.SubmittedAt
		if i == 0 {
			oldestWait = wait
		}
		if wait >= snapshot.ChallengeTimeout {
			matured++
		}
	}

	b.metrics.RecordChallengeBacklog(matured, oldestWait)

	if matured > 0 {
		b.logger.Warn("Matured challenges awaiting a clock advance",
			"matured", matured,
			"pending", len(snapshot.Pending),
			"oldestWait", oldestWait)
	}
}
