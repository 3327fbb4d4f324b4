// Package ledger implements the deterministic balance map the settlement
// layer replays rollup transactions against. It is pure data plus a single
// state-transition rule and performs no I/O.
package ledger

import (
	"maps"
	"slices"
)

// Address is an opaque account identifier.
type Address uint64

// Balance is a non-negative account balance. Debits that would underflow are
// rejected rather than wrapped.
type Balance uint64

// Transaction is an immutable value transfer between two accounts.
type Transaction struct {
	From   Address `toml:"from" json:"from"`
	To     Address `toml:"to" json:"to"`
	Amount Balance `toml:"amount" json:"amount"`
}

// State maps accounts to balances. Accounts absent from the map have balance
// zero. The zero value is not usable, use NewState.
type State struct {
	balances map[Address]Balance
}

func NewState() *State {
	return &State{balances: make(map[Address]Balance)}
}

// NewStateWithBalances creates a state pre-funded with the given balances.
func NewStateWithBalances(balances map[Address]Balance) *State {
	s := NewState()
	for addr, bal := range balances {
		s.balances[addr] = bal
	}
	return s
}

// Balance returns the balance of addr, zero if the account does not exist.
func (s *State) Balance(addr Address) Balance {
	return s.balances[addr]
}

// Account returns the balance of addr and whether the account has an entry
// in the map. Callers that must distinguish an explicit zero balance from an
// absent account use this instead of Balance.
func (s *State) Account(addr Address) (Balance, bool) {
	bal, ok := s.balances[addr]
	return bal, ok
}

// SetBalance sets the balance of addr, creating the account if needed.
func (s *State) SetBalance(addr Address, bal Balance) {
	s.balances[addr] = bal
}

// ApplyTransfer debits tx.From and credits tx.To by tx.Amount. It returns
// false and leaves the state untouched if the sender balance is insufficient.
// Insufficient funds is an expected outcome, not an error. The result is a
// pure function of the starting state and the transaction; this determinism
// is what makes fraud adjudication by replay sound.
func (s *State) ApplyTransfer(tx Transaction) bool {
	if s.balances[tx.From] < tx.Amount {
		return false
	}
	s.balances[tx.From] -= tx.Amount
	s.balances[tx.To] += tx.Amount
	return true
}

// Clone returns a deep copy sharing no storage with s.
func (s *State) Clone() *State {
	return &State{balances: maps.Clone(s.balances)}
}

// Equal reports whether both states hold exactly the same balances for
// exactly the same accounts. Adjudication relies on this being structural
// equality over the entire map, not just the accounts a disputed transaction
// touched.
func (s *State) Equal(other *State) bool {
	return maps.Equal(s.balances, other.balances)
}

// TotalSupply returns the sum of all balances. Successful transfers conserve
// it and failed ones leave it untouched.
func (s *State) TotalSupply() Balance {
	var total Balance
	for _, bal := range s.balances {
		total += bal
	}
	return total
}

// Accounts returns every account with an entry in the map in ascending
// order, so iteration for logging or encoding is deterministic.
func (s *State) Accounts() []Address {
	return slices.Sorted(maps.Keys(s.balances))
}

// NumAccounts returns the number of accounts with an entry in the map.
func (s *State) NumAccounts() int {
	return len(s.balances)
}
