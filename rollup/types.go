// Package rollup defines the settlement-layer view of rollup data: blocks of
// already-executed transactions with an author-claimed post-state, and the
// fraud challenges raised against them.
package rollup

import (
	"fmt"

	"github.com/settlement-labs/op-settler/ledger"
)

// Block is a batch of executed transactions together with the full ledger
// snapshot its author claims results from applying them in order to the state
// at the end of the previous block. Blocks are numbered from zero without
// gaps, in submission order.
type Block struct {
	Number       uint64
	Transactions []ledger.Transaction

	// PostState is the author's claimed snapshot. Once a block is submitted
	// the snapshot is evidence and must never be mutated.
	PostState *ledger.State

	// Committed reports whether the claimed result currently stands. Blocks
	// are accepted optimistically, so it starts true; a successful fraud
	// challenge flips it to false, permanently.
	Committed bool
}

// Verdict is the outcome of a fraud challenge.
type Verdict uint8

const (
	// VerdictPending marks a challenge that has not been adjudicated yet.
	VerdictPending Verdict = iota
	// VerdictValid means the disputed transaction reproduced the claimed
	// post-state exactly.
	VerdictValid
	// VerdictFraud means replay refuted the claimed post-state.
	VerdictFraud
)

func (v Verdict) String() string {
	switch v {
	case VerdictPending:
		return "pending"
	case VerdictValid:
		return "valid"
	case VerdictFraud:
		return "fraud"
	default:
		return fmt.Sprintf("<invalid: %d>", uint8(v))
	}
}

// Challenge disputes that a single transaction of a single block produces the
// block's claimed post-state. Bounds of BlockNumber and TxIndex are not
// checked at submission; they are validated when the challenge matures.
type Challenge struct {
	BlockNumber uint64
	TxIndex     int
	Challenger  ledger.Address

	// SubmittedAt is the verifier clock reading at submission. The challenge
	// matures once the clock has advanced at least the challenge timeout
	// beyond it.
	SubmittedAt uint64

	// Verdict is set exactly once, at resolution.
	Verdict Verdict
}
