package metrics

import (
	"time"

	"github.com/settlement-labs/op-settler/rollup"
)

type NoopMetricsImpl struct{}

var _ Metricer = (*NoopMetricsImpl)(nil)

var NoopMetrics Metricer = new(NoopMetricsImpl)

func (*NoopMetricsImpl) RecordInfo(version string) {}
func (*NoopMetricsImpl) RecordUp()                 {}

func (*NoopMetricsImpl) RecordBlockSubmitted(_ int) {}
func (*NoopMetricsImpl) RecordBlockCondemned()      {}
func (*NoopMetricsImpl) RecordTotalSupply(_ uint64) {}

func (*NoopMetricsImpl) RecordChallengeSubmitted()                {}
func (*NoopMetricsImpl) RecordChallengeResolved(_ rollup.Verdict) {}
func (*NoopMetricsImpl) RecordMalformedChallenge()                {}
func (*NoopMetricsImpl) RecordPendingChallenges(_ int)            {}

func (*NoopMetricsImpl) RecordClock(_ uint64)                 {}
func (*NoopMetricsImpl) RecordReplayDuration(_ time.Duration) {}

func (*NoopMetricsImpl) RecordMonitorDuration(_ time.Duration)  {}
func (*NoopMetricsImpl) RecordConservationViolations(_ int)     {}
func (*NoopMetricsImpl) RecordCondemnedBlocks(_ int)            {}
func (*NoopMetricsImpl) RecordChallengeBacklog(_ int, _ uint64) {}
