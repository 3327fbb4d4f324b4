package monitor

import (
	"github.com/ethereum/go-ethereum/log"
)

type CommitmentMetrics interface {
	RecordCondemnedBlocks(count int)
}

// CommitmentMonitor tracks blocks whose optimistic commitment was revoked
// by fraud adjudication.
type CommitmentMonitor struct {
	logger  log.Logger
	metrics CommitmentMetrics
}

func NewCommitmentMonitor(logger log.Logger, metrics CommitmentMetrics) *CommitmentMonitor {
	return &CommitmentMonitor{
		logger:  logger,
		metrics: metrics,
	}
}

func (c *CommitmentMonitor) CheckCommitments(snapshot Snapshot) {
	count := 0
	for _, block := range snapshot.Blocks {
		if !block.Committed {
			count++
			c.logger.Debug("Condemned block",
				"block", block.Number,
				"txs", len(block.Transactions))
		}
	}

	c.metrics.RecordCondemnedBlocks(count)

	if count > 0 {
		c.logger.Info("Condemned block summary", "condemned", count, "blocks", len(snapshot.Blocks))
	}
}
