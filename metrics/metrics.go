package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/settlement-labs/op-settler/rollup"
)

const Namespace = "op_settler"

type Metricer interface {
	RecordInfo(version string)
	RecordUp()

	RecordBlockSubmitted(txCount int)
	RecordBlockCondemned()
	RecordTotalSupply(supply uint64)

	RecordChallengeSubmitted()
	RecordChallengeResolved(verdict rollup.Verdict)
	RecordMalformedChallenge()
	RecordPendingChallenges(count int)

	RecordClock(now uint64)
	RecordReplayDuration(dur time.Duration)

	RecordMonitorDuration(dur time.Duration)
	RecordConservationViolations(count int)
	RecordCondemnedBlocks(count int)
	RecordChallengeBacklog(matured int, oldestWait uint64)
}

type Metrics struct {
	registry *prometheus.Registry

	info prometheus.GaugeVec
	up   prometheus.Gauge

	blocksSubmitted      prometheus.Counter
	blockTxs             prometheus.Counter
	blocksCondemned      prometheus.Counter
	totalSupply          prometheus.Gauge
	challengesSubmitted  prometheus.Counter
	challengesResolved   *prometheus.CounterVec
	malformedChallenges  prometheus.Counter
	pendingChallenges    prometheus.Gauge
	verifierClock        prometheus.Gauge
	replayDurationSecond prometheus.Histogram

	monitorDurationSecond  prometheus.Histogram
	conservationViolations prometheus.Gauge
	condemnedBlocks        prometheus.Gauge
	maturedBacklog         prometheus.Gauge
	oldestChallengeWait    prometheus.Gauge
}

var _ Metricer = (*Metrics)(nil)

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		info: *factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "info",
			Help:      "Pseudo-metric tracking version and config info",
		}, []string{"version"}),
		up: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "up",
			Help:      "1 if the op-settler has finished starting up",
		}),
		blocksSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "blocks_submitted_total",
			Help:      "Number of rollup blocks appended to the log",
		}),
		blockTxs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "block_txs_total",
			Help:      "Number of transactions across all submitted blocks",
		}),
		blocksCondemned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "blocks_condemned_total",
			Help:      "Number of blocks whose commitment was revoked by fraud adjudication",
		}),
		totalSupply: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "total_supply",
			Help:      "Sum of all balances in the latest claimed post-state",
		}),
		challengesSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "challenges_submitted_total",
			Help:      "Number of fraud challenges enqueued",
		}),
		challengesResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "challenges_resolved_total",
			Help:      "Number of fraud challenges adjudicated, by verdict",
		}, []string{"verdict"}),
		malformedChallenges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "malformed_challenges_total",
			Help:      "Number of matured challenges dropped for out-of-bounds block or tx references",
		}),
		pendingChallenges: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "pending_challenges",
			Help:      "Current depth of the pending challenge queue",
		}),
		verifierClock: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "clock_ticks",
			Help:      "Current logical clock reading of the verifier",
		}),
		replayDurationSecond: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "replay_duration_seconds",
			Help:      "Time taken to reconstruct a pre-state for adjudication",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 10, 8),
		}),
		monitorDurationSecond: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "monitor_duration_seconds",
			Help:      "Time taken to run one round of settlement health checks",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 10, 8),
		}),
		conservationViolations: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "conservation_violations",
			Help:      "Number of committed blocks whose claimed post-state changes the total supply",
		}),
		condemnedBlocks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "condemned_blocks",
			Help:      "Number of blocks in the log whose commitment has been revoked",
		}),
		maturedBacklog: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "matured_backlog",
			Help:      "Number of pending challenges past the maturity timeout but not yet adjudicated",
		}),
		oldestChallengeWait: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "oldest_challenge_wait_ticks",
			Help:      "Logical ticks the challenge at the head of the queue has been waiting",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordInfo(version string) {
	m.info.WithLabelValues(version).Set(1)
}

func (m *Metrics) RecordUp() {
	m.up.Set(1)
}

func (m *Metrics) RecordBlockSubmitted(txCount int) {
	m.blocksSubmitted.Inc()
	m.blockTxs.Add(float64(txCount))
}

func (m *Metrics) RecordBlockCondemned() {
	m.blocksCondemned.Inc()
}

func (m *Metrics) RecordTotalSupply(supply uint64) {
	m.totalSupply.Set(float64(supply))
}

func (m *Metrics) RecordChallengeSubmitted() {
	m.challengesSubmitted.Inc()
}

func (m *Metrics) RecordChallengeResolved(verdict rollup.Verdict) {
	m.challengesResolved.WithLabelValues(verdict.String()).Inc()
}

func (m *Metrics) RecordMalformedChallenge() {
	m.malformedChallenges.Inc()
}

func (m *Metrics) RecordPendingChallenges(count int) {
	m.pendingChallenges.Set(float64(count))
}

func (m *Metrics) RecordClock(now uint64) {
	m.verifierClock.Set(float64(now))
}

func (m *Metrics) RecordReplayDuration(dur time.Duration) {
	m.replayDurationSecond.Observe(dur.Seconds())
}

func (m *Metrics) RecordMonitorDuration(dur time.Duration) {
	m.monitorDurationSecond.Observe(dur.Seconds())
}

func (m *Metrics) RecordConservationViolations(count int) {
	m.conservationViolations.Set(float64(count))
}

func (m *Metrics) RecordCondemnedBlocks(count int) {
	m.condemnedBlocks.Set(float64(count))
}

func (m *Metrics) RecordChallengeBacklog(matured int, oldestWait uint64) {
	m.maturedBacklog.Set(float64(matured))
	m.oldestChallengeWait.Set(float64(oldestWait))
}
