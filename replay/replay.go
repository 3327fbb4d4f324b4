// Package replay reconstructs ledger state at arbitrary block boundaries by
// deterministic re-execution from a known baseline snapshot. It is the
// correctness oracle fraud adjudication is built on: the same log prefix
// replayed from the same baseline always yields the same state.
package replay

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/settlement-labs/op-settler/ledger"
	"github.com/settlement-labs/op-settler/rollup"
)

// DefaultCacheSize bounds the per-boundary snapshot cache of an Engine.
const DefaultCacheSize = 128

// DeriveBaseline heuristically reconstructs the state the rollup must have
// started from, by undoing the first submitted block's transactions in
// reverse order against its claimed post-state: the receiver-side undo debits
// an existing account flooring at zero, the sender-side undo credits the
// sender unconditionally.
//
// The floor-at-zero silently absorbs inconsistency: if the claimed post-state
// already embeds an invalid transaction the derived baseline can be wrong in
// a way that is never surfaced. This is a known correctness risk, kept for
// behavioral parity with deployed settlers. Do not "fix" the reversal without
// a migration plan for historical verdicts.
func DeriveBaseline(block *rollup.Block) *ledger.State {
	state := block.PostState.Clone()
	for i := len(block.Transactions) - 1; i >= 0; i-- {
		tx := block.Transactions[i]
		if bal, ok := state.Account(tx.To); ok {
			if bal < tx.Amount {
				state.SetBalance(tx.To, 0)
			} else {
				state.SetBalance(tx.To, bal-tx.Amount)
			}
		}
		state.SetBalance(tx.From, state.Balance(tx.From)+tx.Amount)
	}
	return state
}

// Engine replays block-log prefixes from a fixed baseline. Because the block
// log is append-only and replay never consults commitment flags, a replayed
// prefix never changes retroactively, so boundary snapshots are cached in an
// LRU keyed by block number.
type Engine struct {
	baseline *ledger.State
	cache    *lru.Cache[uint64, *ledger.State]
}

// NewEngine creates a replay engine over the given baseline. The engine keeps
// its own copy of the baseline; later mutation of the argument does not
// affect replay.
func NewEngine(baseline *ledger.State, cacheSize int) (*Engine, error) {
	cache, err := lru.New[uint64, *ledger.State](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot cache: %w", err)
	}
	return &Engine{
		baseline: baseline.Clone(),
		cache:    cache,
	}, nil
}

// StateAt returns the ledger state at the boundary before block number upto,
// i.e. after applying every transaction of every block numbered strictly
// below upto, in order, starting from the baseline. Per-transaction
// success is deliberately discarded: replayed history is already-accepted
// history, only a currently disputed transaction is independently checked by
// the caller. The returned state is owned by the caller.
//
// Blocks must hold at least the first upto entries of the log, in order.
func (e *Engine) StateAt(blocks []*rollup.Block, upto uint64) *ledger.State {
	if cached, ok := e.cache.Get(upto); ok {
		return cached.Clone()
	}
	state := e.baseline.Clone()
	for _, block := range blocks[:upto] {
		for _, tx := range block.Transactions {
			state.ApplyTransfer(tx)
		}
	}
	e.cache.Add(upto, state.Clone())
	return state
}
