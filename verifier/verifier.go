// Package verifier implements the settlement-layer authority of the rollup:
// it owns the logical clock, the append-only block log and the fraud
// challenge queue, and adjudicates matured challenges by deterministic
// replay.
package verifier

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/settlement-labs/op-settler/ledger"
	"github.com/settlement-labs/op-settler/metrics"
	"github.com/settlement-labs/op-settler/replay"
	"github.com/settlement-labs/op-settler/rollup"
)

var (
	// ErrBlockNumberGap is returned when a submitted block does not extend
	// the log gap-free. Block numbers are assigned 0-based in submission
	// order by contract with the execution layer.
	ErrBlockNumberGap = errors.New("block number out of sequence")

	// ErrMissingPostState is returned when a submitted block carries no
	// claimed post-state. Such a block could never be adjudicated.
	ErrMissingPostState = errors.New("block has no claimed post-state")

	// ErrMalformedChallenge is returned from the resolution pass when a
	// matured challenge references a block or transaction that does not
	// exist. The challenge is dropped without a verdict.
	ErrMalformedChallenge = errors.New("malformed challenge")
)

// Verifier is the single authoritative settlement instance. The core is
// synchronous: every operation runs to completion before the next is
// accepted. The three mutating entry points share one mutex because the
// resolution pass is order sensitive and must never interleave with a block
// submission that would change what "pre-state at block N" means.
type Verifier struct {
	logger log.Logger
	m      metrics.Metricer

	mu sync.Mutex

	now              uint64
	challengeTimeout uint64
	replayCacheSize  int

	blocks   []*rollup.Block
	pending  []*rollup.Challenge
	resolved []*rollup.Challenge

	// baseline and engine are derived exactly once, from the very first
	// submitted block. They are never recomputed, even if that block is
	// later found fraudulent; see replay.DeriveBaseline.
	baseline *ledger.State
	engine   *replay.Engine
}

// New creates a Verifier with the given challenge timeout in logical ticks.
// A non-positive replayCacheSize selects replay.DefaultCacheSize.
func New(logger log.Logger, m metrics.Metricer, challengeTimeout uint64, replayCacheSize int) *Verifier {
	if replayCacheSize <= 0 {
		replayCacheSize = replay.DefaultCacheSize
	}
	return &Verifier{
		logger:           logger,
		m:                m,
		challengeTimeout: challengeTimeout,
		replayCacheSize:  replayCacheSize,
	}
}

// SubmitBlock appends a block to the log, accepting it optimistically: the
// commitment flag is forced true regardless of what the submitter set. The
// very first block additionally fixes the baseline snapshot the replay
// engine works from.
func (v *Verifier) SubmitBlock(block *rollup.Block) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if block.PostState == nil {
		return fmt.Errorf("%w: block %d", ErrMissingPostState, block.Number)
	}
	if block.Number != uint64(len(v.blocks)) {
		return fmt.Errorf("%w: got %d, want %d", ErrBlockNumberGap, block.Number, len(v.blocks))
	}
	block.Committed = true

	if len(v.blocks) == 0 {
		baseline := replay.DeriveBaseline(block)
		engine, err := replay.NewEngine(baseline, v.replayCacheSize)
		if err != nil {
			return fmt.Errorf("failed to init replay engine: %w", err)
		}
		v.baseline = baseline
		v.engine = engine
		v.logger.Info("Derived baseline snapshot from first block",
			"accounts", baseline.NumAccounts(),
			"totalSupply", baseline.TotalSupply())
	}

	v.blocks = append(v.blocks, block)
	v.m.RecordBlockSubmitted(len(block.Transactions))
	v.m.RecordTotalSupply(uint64(block.PostState.TotalSupply()))
	v.logger.Info("Block submitted",
		"block", block.Number,
		"txs", len(block.Transactions),
		"totalSupply", block.PostState.TotalSupply())
	return nil
}

// SubmitChallenge enqueues a fraud challenge behind all earlier ones,
// stamping it with the current clock. Bounds of the referenced block and
// transaction are deliberately not checked here; they are validated when the
// challenge matures.
func (v *Verifier) SubmitChallenge(challenge *rollup.Challenge) {
	v.mu.Lock()
	defer v.mu.Unlock()

	challenge.SubmittedAt = v.now
	challenge.Verdict = rollup.VerdictPending
	v.pending = append(v.pending, challenge)
	v.m.RecordChallengeSubmitted()
	v.m.RecordPendingChallenges(len(v.pending))
	v.logger.Info("Fraud challenge submitted",
		"block", challenge.BlockNumber,
		"txIndex", challenge.TxIndex,
		"challenger", challenge.Challenger,
		"time", v.now)
}

// AdvanceTime moves the logical clock forward by ticks and runs the
// challenge resolution pass. Zero ticks is a valid no-op advance that still
// triggers the pass. The returned error aggregates malformed challenges
// dropped during the pass; adjudication verdicts are never errors.
func (v *Verifier) AdvanceTime(ticks uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.now += ticks
	v.m.RecordClock(v.now)
	v.logger.Debug("Advanced clock", "ticks", ticks, "now", v.now)
	return v.processChallenges()
}

// processChallenges drains matured challenges strictly in arrival order:
// only the queue head is ever inspected, and the pass stops the moment the
// head is immature even if later entries have individually matured. This
// head-of-line blocking is a deliberate, observable ordering guarantee.
func (v *Verifier) processChallenges() error {
	var errs []error
	for len(v.pending) > 0 {
		head := v.pending[0]
		if v.now-head.SubmittedAt < v.challengeTimeout {
			break
		}
		v.pending = v.pending[1:]
		if err := v.adjudicate(head); err != nil {
			v.m.RecordMalformedChallenge()
			v.logger.Error("Dropping malformed challenge",
				"block", head.BlockNumber,
				"txIndex", head.TxIndex,
				"challenger", head.Challenger,
				"err", err)
			errs = append(errs, err)
		}
	}
	v.m.RecordPendingChallenges(len(v.pending))
	return errors.Join(errs...)
}

// adjudicate decides a single matured challenge. The block behaved correctly
// for the disputed transaction iff applying just that transaction to the
// replayed pre-state succeeds and lands exactly on the block's claimed
// post-state, compared across the entire balance map. A block with several
// transactions is therefore only ever exonerated or condemned one challenged
// transaction at a time.
func (v *Verifier) adjudicate(challenge *rollup.Challenge) error {
	if challenge.BlockNumber >= uint64(len(v.blocks)) {
		return fmt.Errorf("%w: block %d does not exist", ErrMalformedChallenge, challenge.BlockNumber)
	}
	block := v.blocks[challenge.BlockNumber]
	if challenge.TxIndex < 0 || challenge.TxIndex >= len(block.Transactions) {
		return fmt.Errorf("%w: tx index %d out of range for block %d with %d txs",
			ErrMalformedChallenge, challenge.TxIndex, block.Number, len(block.Transactions))
	}

	start := time.Now()
	preState := v.engine.StateAt(v.blocks, challenge.BlockNumber)
	v.m.RecordReplayDuration(time.Since(start))

	tx := block.Transactions[challenge.TxIndex]
	applied := preState.ApplyTransfer(tx)
	if applied && preState.Equal(block.PostState) {
		challenge.Verdict = rollup.VerdictValid
		v.logger.Info("Challenge resolved, block exonerated",
			"block", block.Number,
			"txIndex", challenge.TxIndex,
			"challenger", challenge.Challenger)
	} else {
		challenge.Verdict = rollup.VerdictFraud
		if block.Committed {
			block.Committed = false
			v.m.RecordBlockCondemned()
		}
		v.logger.Warn("Fraud detected, block commitment revoked",
			"block", block.Number,
			"txIndex", challenge.TxIndex,
			"challenger", challenge.Challenger,
			"txApplied", applied)
	}
	v.resolved = append(v.resolved, challenge)
	v.m.RecordChallengeResolved(challenge.Verdict)
	return nil
}

// Now returns the current logical clock reading.
func (v *Verifier) Now() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// ChallengeTimeout returns the fixed maturity timeout in ticks.
func (v *Verifier) ChallengeTimeout() uint64 {
	return v.challengeTimeout
}

// Blocks returns the block log. The slice is a copy but the blocks are
// shared, so commitment flags observed through it are live.
func (v *Verifier) Blocks() []*rollup.Block {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.blocks)
}

// PendingChallenges returns the challenges awaiting maturity, in arrival
// order.
func (v *Verifier) PendingChallenges() []*rollup.Challenge {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.pending)
}

// ResolvedChallenges returns adjudicated challenges in resolution order.
func (v *Verifier) ResolvedChallenges() []*rollup.Challenge {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.resolved)
}

// Baseline returns a copy of the derived baseline snapshot, or nil if no
// block has been submitted yet.
func (v *Verifier) Baseline() *ledger.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.baseline == nil {
		return nil
	}
	return v.baseline.Clone()
}
