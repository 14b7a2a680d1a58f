package core

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/core/types"
	"github.com/vmchain/execengine/core/vm"
	"github.com/vmchain/execengine/params"
)

// ExecutionResult is the outcome of running one transaction's top-level
// message, grounded on the teacher's core/state_transition.go
// ExecutionResult but narrowed to what this engine's Interpreter contract
// (spec §6) actually reports.
type ExecutionResult struct {
	UsedGas        uint64
	ReturnData     []byte
	Logs           []*types.Log
	CreatedAddress *common.Address
	Err            error // nil, *Revert, or *ExceptionalHalt
}

func (r *ExecutionResult) Failed() bool { return r.Err != nil }

func (r *ExecutionResult) Return() []byte {
	if r.Failed() {
		return nil
	}
	return common.CopyBytes(r.ReturnData)
}

func (r *ExecutionResult) Revert() []byte {
	var rv *Revert
	if errors.As(r.Err, &rv) {
		return common.CopyBytes(rv.ReturnData)
	}
	return nil
}

// stateTransition carries one runTx call's working state across its
// buyGas/preCheck/execute/refundGas phases, named after the teacher's
// stateTransition type.
type stateTransition struct {
	env *vm.Environment
	in  vm.Interpreter
	gp  *GasPool
	msg *types.Message

	kind     types.TxKind
	gasLimit uint64

	effectiveGasPrice *big.Int
	intrinsicGas      uint64
}

// preCheck performs spec §4.4's seven pre-execution checks. None of them
// mutate state; a failure here leaves state bit-for-bit unchanged
// (invariant 1).
func (st *stateTransition) preCheck() error {
	msg, env := st.msg, st.env

	switch st.kind {
	case types.AccessListTxKind:
		if !env.Rules.Has(params.AmendmentAccessLists) {
			return ErrUnsupportedTxType
		}
	case types.FeeMarketTxKind:
		if !env.Rules.Has(params.AmendmentFeeMarket) {
			return ErrUnsupportedTxType
		}
	}

	if st.gasLimit > st.gp.Gas() {
		return ErrBlockGasLimitExceeded
	}

	intrinsic, err := IntrinsicGas(msg.Data, msg.AccessList, msg.To == nil, env.Rules)
	if err != nil {
		return err
	}
	if st.gasLimit < intrinsic {
		return ErrIntrinsicGasTooLow
	}
	st.intrinsicGas = intrinsic

	if !msg.SkipNonceChecks {
		if env.StateDB.GetNonce(msg.From) != msg.Nonce {
			return ErrNonceMismatch
		}
	}

	st.effectiveGasPrice = msg.GasPrice
	if st.kind == types.FeeMarketTxKind {
		if env.Block.BaseFee != nil {
			if msg.GasFeeCap.Cmp(env.Block.BaseFee) < 0 {
				return ErrFeeCapBelowBaseFee
			}
		}
		if msg.GasTipCap.Cmp(msg.GasFeeCap) > 0 {
			return ErrFeeCapBelowBaseFee
		}
	}

	upfront := new(big.Int).Mul(new(big.Int).SetUint64(st.gasLimit), st.effectiveGasPrice)
	upfront.Add(upfront, msg.Value)
	if env.StateDB.GetBalance(msg.From).ToBig().Cmp(upfront) < 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// execute runs spec §4.4's ten-step execution algorithm once preCheck has
// passed, returning the transaction's ExecutionResult. The caller (RunTx)
// is responsible for assembling the Receipt.
func (st *stateTransition) execute() *ExecutionResult {
	env, msg := st.env, st.msg

	txCheckpoint := env.StateDB.Checkpoint()

	gasCost := new(big.Int).Mul(new(big.Int).SetUint64(st.gasLimit), st.effectiveGasPrice)
	gasCostU256, _ := uint256.FromBig(gasCost)
	env.StateDB.SubBalance(msg.From, gasCostU256)
	env.StateDB.SetNonce(msg.From, msg.Nonce+1)

	st.prewarm()

	// Only the call's own effects are at risk below: a REVERT or
	// exceptional halt undoes the interpreter's storage/balance/log
	// writes, but the debit, nonce increment, unused-gas refund, and
	// coinbase payment around this inner checkpoint always stand — a
	// failed call still consumed real gas and is still included in the
	// block (spec §4.4 step 9).
	callCheckpoint := env.StateDB.Checkpoint()
	gasForExecution := st.gasLimit - st.intrinsicGas
	result := st.in.ExecuteMessage(env, msg, gasForExecution)

	gasUsed := st.gasLimit - result.GasLeft
	refund := clampRefund(result.RefundDelta, gasUsed, refundQuotientFor(env.Rules))
	gasUsed -= refund

	var execErr error
	switch result.Status {
	case vm.StatusRevert:
		execErr = &Revert{ReturnData: result.ReturnData}
	case vm.StatusExceptionalHalt:
		execErr = &ExceptionalHalt{}
	}

	if execErr == nil {
		st.sweepSelfDestructsAndEmpty(result)
		env.StateDB.Commit(callCheckpoint)
	} else {
		env.StateDB.Revert(callCheckpoint)
	}

	// Credit sender for unused gas, pay the coinbase its share.
	unused := new(big.Int).Mul(new(big.Int).SetUint64(st.gasLimit-gasUsed), st.effectiveGasPrice)
	unusedU256, _ := uint256.FromBig(unused)
	env.StateDB.AddBalance(msg.From, unusedU256)

	coinbaseAmount := st.coinbaseShare(gasUsed)
	env.StateDB.AddBalance(env.Block.Coinbase, coinbaseAmount)

	env.StateDB.Commit(txCheckpoint)
	env.StateDB.ResetTransient()

	out := &ExecutionResult{UsedGas: gasUsed, Logs: result.Logs, CreatedAddress: result.CreatedAddress, Err: execErr}
	if execErr == nil {
		out.ReturnData = result.ReturnData
	}
	return out
}

// prewarm implements spec §3's pre-warming list: sender, target,
// coinbase (when the coinbase-warming amendment is on), every precompile
// address, and every access-list entry.
func (st *stateTransition) prewarm() {
	env, msg := st.env, st.msg
	env.StateDB.WarmAddress(msg.From)
	if msg.To != nil {
		env.StateDB.WarmAddress(*msg.To)
	}
	if env.Rules.Has(params.AmendmentCoinbaseWarming) {
		env.StateDB.WarmAddress(env.Block.Coinbase)
	}
	for _, addr := range vm.PrecompileAddresses() {
		env.StateDB.WarmAddress(addr)
	}
	for _, entry := range msg.AccessList {
		env.StateDB.WarmAddress(entry.Address)
		for _, key := range entry.StorageKeys {
			env.StateDB.WarmStorage(entry.Address, key)
		}
	}
}

// coinbaseShare computes the coinbase's payment for gasUsed: the full
// effective gas price, or — under the fee-market amendment — only the
// priority-fee component (spec §4.4 step 7).
func (st *stateTransition) coinbaseShare(gasUsed uint64) *uint256.Int {
	env, msg := st.env, st.msg
	price := st.effectiveGasPrice
	if st.kind == types.FeeMarketTxKind && env.Rules.Has(params.AmendmentFeeMarket) && env.Block.BaseFee != nil {
		tip := new(big.Int).Sub(price, env.Block.BaseFee)
		if tip.Cmp(msg.GasTipCap) > 0 {
			tip = msg.GasTipCap
		}
		price = tip
	}
	amount := new(big.Int).Mul(new(big.Int).SetUint64(gasUsed), price)
	u, _ := uint256.FromBig(amount)
	return u
}

// sweepSelfDestructsAndEmpty implements spec §4.4 step 8: delete every
// self-destructed account, and — when the empty-account-cleanup amendment
// is on — delete every directly-touched account left empty by the
// transaction. "Directly touched" is approximated by the small set of
// addresses this transaction named explicitly, since the interpreter
// (spec §1's external collaborator) doesn't report a full touched-set for
// a contract-sized opcode subset with no nested calls.
func (st *stateTransition) sweepSelfDestructsAndEmpty(result *vm.MessageResult) {
	env, msg := st.env, st.msg
	for _, addr := range result.SelfDestructSet {
		env.StateDB.DeleteAccount(addr)
	}
	if !env.Rules.Has(params.AmendmentEmptyAccountCleanup) {
		return
	}
	candidates := []common.Address{msg.From, env.Block.Coinbase}
	if msg.To != nil {
		candidates = append(candidates, *msg.To)
	}
	if result.CreatedAddress != nil {
		candidates = append(candidates, *result.CreatedAddress)
	}
	for _, addr := range candidates {
		if env.StateDB.Exist(addr) && env.StateDB.Empty(addr) {
			env.StateDB.DeleteAccount(addr)
		}
	}
}

func clampRefund(refundDelta int64, gasUsed uint64, quotient uint64) uint64 {
	if refundDelta < 0 {
		return 0
	}
	maxRefund := gasUsed / quotient
	r := uint64(refundDelta)
	if r > maxRefund {
		return maxRefund
	}
	return r
}

func refundQuotientFor(rules *params.RuleSet) uint64 {
	if rules.Has(params.AmendmentRefundQuotientV2) {
		return params.RefundQuotientV2
	}
	return params.RefundQuotient
}

// messageKind infers the transaction kind a bare Message would have come
// from, for callers (ApplyMessage) that hold no signed Transaction to ask.
func messageKind(msg *types.Message) types.TxKind {
	switch {
	case msg.GasFeeCap != nil:
		return types.FeeMarketTxKind
	case msg.AccessList != nil:
		return types.AccessListTxKind
	default:
		return types.LegacyTxKind
	}
}

// ApplyMessage runs msg against env with gas accounting charged to gp,
// without recovering a sender from a signed Transaction. It exists for
// callers (e.g. eth_call-style simulation, or tests) that already hold a
// constructed Message rather than a signed Transaction.
func ApplyMessage(env *vm.Environment, in vm.Interpreter, msg *types.Message, gp *GasPool) (*ExecutionResult, error) {
	st := &stateTransition{env: env, in: in, gp: gp, msg: msg, kind: messageKind(msg), gasLimit: msg.GasLimit}
	if err := st.preCheck(); err != nil {
		return nil, err
	}
	return st.execute(), nil
}
