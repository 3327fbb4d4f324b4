package monitor

import (
	"github.com/ethereum/go-ethereum/log"
)

type ConservationMetrics interface {
	RecordConservationViolations(count int)
}

// ConservationMonitor checks that claimed post-states only move value
// around. Transfers neither mint nor burn, so every committed block must
// carry the same total supply as the baseline state.
type ConservationMonitor struct {
	logger  log.Logger
	metrics ConservationMetrics
}

func NewConservationMonitor(logger log.Logger, metrics ConservationMetrics) *ConservationMonitor {
	return &ConservationMonitor{
		logger:  logger,
		metrics: metrics,
	}
}

func (c *ConservationMonitor) CheckConservation(snapshot Snapshot) {
	if snapshot.Baseline == nil {
		// No blocks yet, nothing to conserve.
		c.metrics.RecordConservationViolations(0)
		return
	}
	expected := snapshot.Baseline.TotalSupply()
	violations := 0
	for _, block := range snapshot.Blocks {
		if !block.Committed {
			continue
		}
		supply := block.PostState.TotalSupply()
		if supply != expected {
			violations++
			c.logger.Warn("Committed post-state breaks supply conservation",
				"block", block.Number,
				"supply", supply,
				"expected", expected)
		}
	}

	c.metrics.RecordConservationViolations(violations)

	if violations > 0 {
		c.logger.Info("Supply conservation summary", "violations", violations, "blocks", len(snapshot.Blocks))
	}
}
