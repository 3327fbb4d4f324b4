package replay

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/settlement-labs/op-settler/ledger"
	"github.com/settlement-labs/op-settler/rollup"
)

func balances(b map[ledger.Address]ledger.Balance) *ledger.State {
	return ledger.NewStateWithBalances(b)
}

func TestDeriveBaseline(t *testing.T) {
	t.Run("ReproducesPreStateOfConsistentBlock", func(t *testing.T) {
		pre := balances(map[ledger.Address]ledger.Balance{1: 100, 2: 50})
		txs := []ledger.Transaction{
			{From: 1, To: 2, Amount: 40},
			{From: 2, To: 3, Amount: 70},
		}
		post := pre.Clone()
		for _, tx := range txs {
			require.True(t, post.ApplyTransfer(tx))
		}
		block := &rollup.Block{Number: 0, Transactions: txs, PostState: post, Committed: true}

		baseline := DeriveBaseline(block)

		// Replaying the block forward from the derived baseline must land
		// exactly on the claimed post-state.
		replayed := baseline.Clone()
		for _, tx := range txs {
			replayed.ApplyTransfer(tx)
		}
		require.True(t, replayed.Equal(post))
	})

	t.Run("EmptyBlock", func(t *testing.T) {
		post := balances(map[ledger.Address]ledger.Balance{5: 11})
		block := &rollup.Block{Number: 0, PostState: post, Committed: true}
		require.True(t, DeriveBaseline(block).Equal(post))
	})

	t.Run("DoesNotMutateClaimedPostState", func(t *testing.T) {
		post := balances(map[ledger.Address]ledger.Balance{1: 60, 2: 90})
		block := &rollup.Block{
			Number:       0,
			Transactions: []ledger.Transaction{{From: 1, To: 2, Amount: 40}},
			PostState:    post,
			Committed:    true,
		}
		DeriveBaseline(block)
		require.True(t, post.Equal(balances(map[ledger.Address]ledger.Balance{1: 60, 2: 90})))
	})

	t.Run("FloorsReceiverUndoAtZero", func(t *testing.T) {
		// The claimed post-state shows the receiver with less than the
		// transferred amount, so the undo would underflow. The reversal
		// floors at zero instead of reporting the inconsistency.
		post := balances(map[ledger.Address]ledger.Balance{2: 30})
		block := &rollup.Block{
			Number:       0,
			Transactions: []ledger.Transaction{{From: 1, To: 2, Amount: 100}},
			PostState:    post,
			Committed:    true,
		}
		baseline := DeriveBaseline(block)
		require.Equal(t, ledger.Balance(0), baseline.Balance(2))
		require.Equal(t, ledger.Balance(100), baseline.Balance(1))
	})

	t.Run("AbsentReceiverStaysAbsent", func(t *testing.T) {
		post := balances(map[ledger.Address]ledger.Balance{1: 10})
		block := &rollup.Block{
			Number:       0,
			Transactions: []ledger.Transaction{{From: 1, To: 9, Amount: 5}},
			PostState:    post,
			Committed:    true,
		}
		baseline := DeriveBaseline(block)
		_, ok := baseline.Account(9)
		require.False(t, ok)
		require.Equal(t, ledger.Balance(15), baseline.Balance(1))
	})
}

func testBlocks(t *testing.T) (*ledger.State, []*rollup.Block) {
	t.Helper()
	baseline := balances(map[ledger.Address]ledger.Balance{1: 100, 2: 50})
	state := baseline.Clone()
	var blocks []*rollup.Block
	batches := [][]ledger.Transaction{
		{{From: 1, To: 2, Amount: 40}},
		{{From: 2, To: 3, Amount: 25}, {From: 3, To: 1, Amount: 5}},
		{{From: 1, To: 3, Amount: 65}},
	}
	for i, txs := range batches {
		for _, tx := range txs {
			require.True(t, state.ApplyTransfer(tx))
		}
		blocks = append(blocks, &rollup.Block{
			Number:       uint64(i),
			Transactions: txs,
			PostState:    state.Clone(),
			Committed:    true,
		})
	}
	return baseline, blocks
}

func TestStateAt(t *testing.T) {
	t.Run("ZeroPrefixIsBaseline", func(t *testing.T) {
		baseline, blocks := testBlocks(t)
		engine, err := NewEngine(baseline, DefaultCacheSize)
		require.NoError(t, err)
		require.True(t, engine.StateAt(blocks, 0).Equal(baseline))
	})

	t.Run("ReplaysPrefixes", func(t *testing.T) {
		baseline, blocks := testBlocks(t)
		engine, err := NewEngine(baseline, DefaultCacheSize)
		require.NoError(t, err)
		for upto := uint64(1); upto <= uint64(len(blocks)); upto++ {
			state := engine.StateAt(blocks, upto)
			require.True(t, state.Equal(blocks[upto-1].PostState),
				"state at boundary %d must match the preceding block's post-state", upto)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		baseline, blocks := testBlocks(t)
		// Two engines so the second pass cannot be satisfied from cache.
		a, err := NewEngine(baseline, DefaultCacheSize)
		require.NoError(t, err)
		b, err := NewEngine(baseline, DefaultCacheSize)
		require.NoError(t, err)
		require.True(t, a.StateAt(blocks, 3).Equal(b.StateAt(blocks, 3)))
	})

	t.Run("CachedResultIsCallerOwned", func(t *testing.T) {
		baseline, blocks := testBlocks(t)
		engine, err := NewEngine(baseline, DefaultCacheSize)
		require.NoError(t, err)
		first := engine.StateAt(blocks, 2)
		first.SetBalance(1, 99999)
		require.False(t, engine.StateAt(blocks, 2).Equal(first))
	})

	t.Run("BaselineCopiedAtConstruction", func(t *testing.T) {
		baseline, blocks := testBlocks(t)
		engine, err := NewEngine(baseline, DefaultCacheSize)
		require.NoError(t, err)
		baseline.SetBalance(1, 0)
		require.Equal(t, ledger.Balance(100), engine.StateAt(blocks, 0).Balance(1))
	})

	t.Run("DiscardsFailedHistoricalTransfers", func(t *testing.T) {
		baseline := balances(map[ledger.Address]ledger.Balance{1: 10})
		blocks := []*rollup.Block{{
			Number: 0,
			Transactions: []ledger.Transaction{
				{From: 1, To: 2, Amount: 10000}, // insufficient, skipped
				{From: 1, To: 2, Amount: 4},
			},
			PostState: balances(nil),
			Committed: true,
		}}
		engine, err := NewEngine(baseline, DefaultCacheSize)
		require.NoError(t, err)
		state := engine.StateAt(blocks, 1)
		require.Equal(t, ledger.Balance(6), state.Balance(1))
		require.Equal(t, ledger.Balance(4), state.Balance(2))
	})

	t.Run("RejectsNonPositiveCacheSize", func(t *testing.T) {
		_, err := NewEngine(balances(nil), 0)
		require.Error(t, err)
	})
}
