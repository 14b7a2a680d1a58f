// Package vm is the environment facade (EEI) of spec §4.3 and the narrow
// interpreter contract of spec §6: the seam the transaction runner
// invokes a bytecode interpreter through. The package also ships
// EVMInterpreter, a default implementation covering a subset of the
// opcode set.
//
// Grounded on the teacher's core/vm/interface.go and evm.go, trimmed to
// the message-in/result-out contract spec §6 names instead of the
// teacher's much larger StateDB/tracing surface.
package vm

import (
	"math/big"

	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/core/state"
	"github.com/vmchain/execengine/core/types"
	"github.com/vmchain/execengine/params"
)

// MessageStatus is the outcome of executing a Message, per spec §6.
type MessageStatus int

const (
	StatusSuccess MessageStatus = iota
	StatusRevert
	StatusExceptionalHalt
)

func (s MessageStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusRevert:
		return "revert"
	case StatusExceptionalHalt:
		return "exceptional-halt"
	default:
		return "unknown"
	}
}

// MessageResult is the interpreter's return value, per spec §6.
type MessageResult struct {
	Status          MessageStatus
	GasLeft         uint64
	ReturnData      []byte
	Logs            []*types.Log
	SelfDestructSet []common.Address
	RefundDelta     int64
	CreatedAddress  *common.Address
}

// BlockContext is the read-only block-level view of spec §4.3: coinbase,
// timestamp, base fee, prev-randao, chain id, plus the blockhash oracle.
type BlockContext struct {
	Coinbase    common.Address
	GasLimit    uint64
	BlockNumber *big.Int
	Time        uint64
	Difficulty  *big.Int
	BaseFee     *big.Int
	Random      *common.Hash // prev-randao, nil when the active rule-set has no randomness beacon
	ChainID     *big.Int

	// GetHash returns the hash of the block with number n. The 256-block
	// window is applied by Environment.BlockHash, not here.
	GetHash func(n uint64) common.Hash
}

// TxContext is the per-transaction context threaded through the call tree.
type TxContext struct {
	Origin   common.Address
	GasPrice *big.Int
}

// Interpreter is the narrow contract spec §6 names: executeMessage(msg,
// env) → MessageResult.
type Interpreter interface {
	ExecuteMessage(env *Environment, msg *types.Message, gas uint64) *MessageResult
}

// Environment is the environment facade of spec §4.3: the state
// interface, the block/tx context, the transient-storage map, and the
// blockhash oracle, all in one read/write facade the interpreter is
// handed for the duration of one top-level message.
type Environment struct {
	StateDB state.StateStore
	Block   BlockContext
	Tx      TxContext
	Rules   *params.RuleSet

	// StepFn, when set, is invoked by the interpreter before each opcode
	// dispatch (spec §4.8's "step" event). It never influences execution;
	// a non-nil return is collected into StepErrors rather than aborting
	// the run, matching the engine shell's fire-and-forget event contract.
	StepFn func(pc uint64, op byte, gasLeft uint64) error

	stepErrors []error
	depth      int
}

// StepErrors returns every error StepFn returned during the environment's
// lifetime, for the caller to surface as a side-channel warning.
func (e *Environment) StepErrors() []error { return e.stepErrors }

func (e *Environment) recordStepError(err error) {
	if err != nil {
		e.stepErrors = append(e.stepErrors, err)
	}
}

func NewEnvironment(st state.StateStore, block BlockContext, tx TxContext, rules *params.RuleSet) *Environment {
	return &Environment{StateDB: st, Block: block, Tx: tx, Rules: rules}
}

// BlockHash answers the blockhash oracle of spec §4.3: zero outside the
// 256-block window, total otherwise.
func (e *Environment) BlockHash(n uint64) common.Hash {
	if e.Block.GetHash == nil {
		return common.Hash{}
	}
	if e.Block.BlockNumber != nil {
		cur := e.Block.BlockNumber.Uint64()
		if n >= cur || cur-n > 256 {
			return common.Hash{}
		}
	}
	return e.Block.GetHash(n)
}

// Depth reports the current call/create nesting depth.
func (e *Environment) Depth() int { return e.depth }
