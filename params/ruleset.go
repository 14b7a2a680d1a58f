// Package params is the chain-parameter oracle: it resolves a block number
// (and, for rule-sets that key off it, a total difficulty) to a named
// RuleSet and the set of protocol Amendments active at that point. It is
// the "rule-set oracle" of component 4.1: a pure function of its inputs,
// with no state-store or interpreter dependency.
//
// Grounded on the teacher's params/config.go (ChainConfig, Rules) —
// generalized from go-ethereum's hard-fork-by-name model to the spec's
// generic rule-set/amendment vocabulary.
package params

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
)

// Amendment is a numbered feature flag attached to a RuleSet version,
// changing specific gas costs, opcodes, or validation rules.
type Amendment int

const (
	// AmendmentAccessLists enables EIP-2930-style transaction access lists
	// and the warm/cold address & storage-slot access-gas split.
	AmendmentAccessLists Amendment = iota
	// AmendmentFeeMarket enables the base-fee/priority-fee transaction
	// pricing model (EIP-1559-style).
	AmendmentFeeMarket
	// AmendmentRefundQuotientV2 changes the refund-counter cap from gasUsed/2
	// to gasUsed/5 (EIP-3529-style).
	AmendmentRefundQuotientV2
	// AmendmentEmptyAccountCleanup requires touched-and-empty accounts to be
	// removed from state at the end of a transaction (EIP-161-style).
	AmendmentEmptyAccountCleanup
	// AmendmentInitcodeWordGas charges a per-32-byte-word fee on contract
	// creation init code (EIP-3860-style); distinct from the size-limit
	// amendment below even though the distilled source conflated them.
	AmendmentInitcodeWordGas
	// AmendmentInitcodeSizeLimit caps the size of contract-creation init
	// code, kept as its own amendment per REDESIGN FLAG (b): the two
	// behaviors are independent and must not be merged into one flag.
	AmendmentInitcodeSizeLimit
	// AmendmentCoinbaseWarming pre-warms the block's coinbase address at
	// transaction start in addition to sender/target/precompiles.
	AmendmentCoinbaseWarming
	// AmendmentTransientStorage enables the per-transaction transient
	// storage scratchpad (EIP-1153-style) and its TLOAD/TSTORE opcodes.
	AmendmentTransientStorage
	// AmendmentBlockRewardDisabled turns off the end-of-block miner/uncle
	// reward step in the block runner (post-merge-style rule sets).
	AmendmentBlockRewardDisabled
)

// String names an amendment for logging/diagnostics.
func (a Amendment) String() string {
	switch a {
	case AmendmentAccessLists:
		return "access-lists"
	case AmendmentFeeMarket:
		return "fee-market"
	case AmendmentRefundQuotientV2:
		return "refund-quotient-v2"
	case AmendmentEmptyAccountCleanup:
		return "empty-account-cleanup"
	case AmendmentInitcodeWordGas:
		return "initcode-word-gas"
	case AmendmentInitcodeSizeLimit:
		return "initcode-size-limit"
	case AmendmentCoinbaseWarming:
		return "coinbase-warming"
	case AmendmentTransientStorage:
		return "transient-storage"
	case AmendmentBlockRewardDisabled:
		return "block-reward-disabled"
	default:
		return fmt.Sprintf("amendment(%d)", int(a))
	}
}

// Tag names a rule-set version, e.g. "genesis", "fee-market-1", "merge-1".
type Tag string

// Activation describes when a rule-set tag becomes active: by block number
// alone, or — for chains configured with hardforkByTD — by total difficulty,
// gated additionally by a block number floor.
type Activation struct {
	Tag        Tag
	Block      *big.Int // nil means "active from genesis"
	TotalDiff  *big.Int // nil means this tag has no TD-gated activation
	Amendments []Amendment
	// BlockReward is the end-of-block reward paid to the block's coinbase
	// (and, where uncles exist, a fraction to uncle coinbases) while this
	// tag is active. Nil/zero means no reward is paid.
	BlockReward *big.Int
}

// Config is the chain-parameters contract consumed by the rule-set oracle:
// an ordered list of tag activations plus the two mutually-exclusive
// hard-fork-selection modes named in the option surface (spec §6).
type Config struct {
	Activations []Activation

	// HardforkByBlockNumber, when true, means only Activation.Block is
	// consulted; HardforkByTD carries the caller's chosen TD query value
	// when total-difficulty-based activation is configured instead.
	// Construction must set at most one, per ConflictingHardforkSelectors.
	HardforkByBlockNumber bool
	HardforkByTD          *big.Int

	// Supported lists every Tag this engine build knows how to execute.
	// A resolved tag outside this list fails with UnsupportedRuleSet.
	Supported []Tag
}

// Validate enforces construction-time invariants on the configuration
// itself (not a query): the two hardfork-selector modes are mutually
// exclusive, and every amendment named by an activation is one this
// engine build actually knows about (spec §6's "rejects unsupported
// amendment numbers listed at construction").
func (c *Config) Validate() error {
	if c.HardforkByBlockNumber && c.HardforkByTD != nil {
		return ErrConflictingHardforkSelectors
	}
	for _, act := range c.Activations {
		for _, a := range act.Amendments {
			if !knownAmendment(a) {
				return fmt.Errorf("params: %w: amendment %d in tag %q", ErrUnsupportedAmendment, int(a), act.Tag)
			}
		}
	}
	return nil
}

func knownAmendment(a Amendment) bool {
	return a >= AmendmentAccessLists && a <= AmendmentBlockRewardDisabled
}

var (
	// ErrConflictingHardforkSelectors is returned when both block-number and
	// total-difficulty activation selectors are supplied at construction.
	ErrConflictingHardforkSelectors = errors.New("params: both hardforkByBlockNumber and hardforkByTD were set")
	// ErrUnsupportedRuleSet is returned when the resolved tag falls outside
	// the engine's declared support list.
	ErrUnsupportedRuleSet = errors.New("params: resolved rule-set is not in the supported list")
	// ErrUnsupportedAmendment is returned when a configured activation
	// names an amendment number this engine build does not recognize.
	ErrUnsupportedAmendment = errors.New("params: unrecognized amendment number")
)

// AmendmentSet is the resolved set of active amendments for a query,
// queryable with Has.
type AmendmentSet map[Amendment]bool

// Has reports whether the amendment is active.
func (s AmendmentSet) Has(a Amendment) bool { return s[a] }

// RuleSet is the resolution of a (block number, optional total difficulty)
// query against a Config: a version Tag plus its derived amendment set.
type RuleSet struct {
	Tag         Tag
	Amendments  AmendmentSet
	BlockReward *big.Int
}

// Has is shorthand for rs.Amendments.Has(a), so callers outside this
// package don't need to reach through the Amendments field.
func (rs *RuleSet) Has(a Amendment) bool { return rs.Amendments.Has(a) }

// Resolve is the rule-set oracle's pure function: given the configured
// chain parameters and a query (block number, optional total difficulty),
// it returns the active RuleSet.
//
// Resolution rules (spec §4.1):
//   - If TD-based activation is configured, a tag whose TD threshold <=
//     query TD is active provided the block number also reaches the tag's
//     block activation.
//   - Block-number activation alone suffices otherwise.
//   - When both a block-number and a TD-threshold are configured for
//     different tags and a query satisfies both, block-number wins.
func Resolve(cfg *Config, blockNumber *big.Int, totalDifficulty *big.Int) (*RuleSet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.HardforkByBlockNumber {
		totalDifficulty = nil
	} else if totalDifficulty == nil {
		totalDifficulty = cfg.HardforkByTD
	}
	ordered := make([]Activation, len(cfg.Activations))
	copy(ordered, cfg.Activations)
	sort.SliceStable(ordered, func(i, j int) bool {
		return activationBlock(ordered[i]).Cmp(activationBlock(ordered[j])) < 0
	})

	var (
		byBlock *Activation
		byTD    *Activation
	)
	for i := range ordered {
		act := &ordered[i]
		if act.Block != nil && blockNumber.Cmp(act.Block) >= 0 {
			byBlock = act
		}
		if act.TotalDiff != nil && totalDifficulty != nil && totalDifficulty.Cmp(act.TotalDiff) >= 0 {
			// TD activation additionally requires the block-number floor,
			// when one is configured for the same tag, to be reached.
			if act.Block == nil || blockNumber.Cmp(act.Block) >= 0 {
				byTD = act
			}
		}
	}

	var resolved *Activation
	switch {
	case byBlock != nil && byTD != nil:
		// Block-number wins when both are satisfied for different tags.
		resolved = byBlock
	case byBlock != nil:
		resolved = byBlock
	case byTD != nil:
		resolved = byTD
	default:
		return nil, fmt.Errorf("params: %w: no activation covers block %s", ErrUnsupportedRuleSet, blockNumber)
	}

	if !supported(cfg.Supported, resolved.Tag) {
		return nil, fmt.Errorf("params: %w: tag %q", ErrUnsupportedRuleSet, resolved.Tag)
	}

	amendments := make(AmendmentSet, len(resolved.Amendments))
	for _, a := range resolved.Amendments {
		amendments[a] = true
	}
	return &RuleSet{Tag: resolved.Tag, Amendments: amendments, BlockReward: resolved.BlockReward}, nil
}

func activationBlock(a Activation) *big.Int {
	if a.Block != nil {
		return a.Block
	}
	return big.NewInt(0)
}

func supported(list []Tag, tag Tag) bool {
	if len(list) == 0 {
		// An engine with no declared support list accepts anything it can
		// resolve; a real deployment always sets Supported explicitly.
		return true
	}
	for _, t := range list {
		if t == tag {
			return true
		}
	}
	return false
}
