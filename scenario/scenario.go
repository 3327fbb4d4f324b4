// Package scenario loads and executes settlement scenarios: ordered scripts
// of block submissions, fraud challenges and clock advances expressed in
// TOML. Scenarios stand in for the execution layer and the challengers the
// settler core trusts to drive it.
package scenario

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/settlement-labs/op-settler/ledger"
	"github.com/settlement-labs/op-settler/rollup"
	"github.com/settlement-labs/op-settler/verifier"
)

var (
	ErrEmptyStep     = errors.New("step defines no action")
	ErrAmbiguousStep = errors.New("step defines more than one action")
	ErrNoSteps       = errors.New("scenario has no steps")
)

// Scenario is an ordered script run against a fresh verifier.
type Scenario struct {
	// ChallengeTimeout overrides the configured timeout when set, so a
	// scenario file fully determines its own outcome.
	ChallengeTimeout *uint64 `toml:"challenge_timeout"`

	Steps []Step `toml:"steps"`
}

// Step performs exactly one action: submit a block, submit a challenge, or
// advance the clock.
type Step struct {
	Block     *BlockStep     `toml:"block"`
	Challenge *ChallengeStep `toml:"challenge"`
	Advance   *uint64        `toml:"advance"`
}

// AccountBalance is a single claimed post-state entry. TOML table keys are
// strings, so claimed states are spelled as entry lists rather than maps.
type AccountBalance struct {
	Account ledger.Address `toml:"account"`
	Balance ledger.Balance `toml:"balance"`
}

type BlockStep struct {
	Number       uint64               `toml:"number"`
	Transactions []ledger.Transaction `toml:"transactions"`
	PostState    []AccountBalance     `toml:"post_state"`
}

type ChallengeStep struct {
	Block      uint64         `toml:"block"`
	TxIndex    int            `toml:"tx_index"`
	Challenger ledger.Address `toml:"challenger"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	var s Scenario
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return nil, fmt.Errorf("failed to decode scenario %s: %w", path, err)
	}
	if err := s.Check(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &s, nil
}

// Parse decodes a scenario from TOML source and validates it.
func Parse(data string) (*Scenario, error) {
	var s Scenario
	if _, err := toml.Decode(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}
	if err := s.Check(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) Check() error {
	if len(s.Steps) == 0 {
		return ErrNoSteps
	}
	for i, step := range s.Steps {
		actions := 0
		if step.Block != nil {
			actions++
		}
		if step.Challenge != nil {
			actions++
		}
		if step.Advance != nil {
			actions++
		}
		switch {
		case actions == 0:
			return fmt.Errorf("%w: step %d", ErrEmptyStep, i)
		case actions > 1:
			return fmt.Errorf("%w: step %d", ErrAmbiguousStep, i)
		}
	}
	return nil
}

// Run replays the scenario against v, stopping at the first failing step.
func (s *Scenario) Run(v *verifier.Verifier) error {
	for i, step := range s.Steps {
		var err error
		switch {
		case step.Block != nil:
			err = v.SubmitBlock(step.Block.toBlock())
		case step.Challenge != nil:
			v.SubmitChallenge(step.Challenge.toChallenge())
		case step.Advance != nil:
			err = v.AdvanceTime(*step.Advance)
		}
		if err != nil {
			return fmt.Errorf("step %d failed: %w", i, err)
		}
	}
	return nil
}

func (b *BlockStep) toBlock() *rollup.Block {
	post := ledger.NewState()
	for _, entry := range b.PostState {
		post.SetBalance(entry.Account, entry.Balance)
	}
	return &rollup.Block{
		Number:       b.Number,
		Transactions: b.Transactions,
		PostState:    post,
		Committed:    true,
	}
}

func (c *ChallengeStep) toChallenge() *rollup.Challenge {
	return &rollup.Challenge{
		BlockNumber: c.Block,
		TxIndex:     c.TxIndex,
		Challenger:  c.Challenger,
	}
}
