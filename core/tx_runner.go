package core

import (
	"github.com/vmchain/execengine/core/types"
	"github.com/vmchain/execengine/core/vm"
)

// RunTx recovers tx's sender, runs its top-level message against env
// through stateTransition's preCheck/execute phases, and assembles the
// resulting Receipt. cumulativeGasUsed is the block runner's running
// total before this transaction; RunTx adds this transaction's gasUsed
// and returns the new total alongside the receipt and execution result
// (spec §4.4/§4.5). skipNonce lets a block-runner replay bypass the
// sender-nonce pre-check.
func RunTx(tx *types.Transaction, env *vm.Environment, in vm.Interpreter, gp *GasPool, cumulativeGasUsed uint64, skipNonce bool) (*types.Receipt, *ExecutionResult, uint64, error) {
	msg, err := types.ToMessage(tx, env.Block.BaseFee)
	if err != nil {
		return nil, nil, cumulativeGasUsed, ErrBadSignature
	}
	msg.SkipNonceChecks = skipNonce
	if env.Block.ChainID != nil && tx.ChainID() != nil && tx.ChainID().Cmp(env.Block.ChainID) != 0 {
		return nil, nil, cumulativeGasUsed, ErrWrongChainID
	}

	st := &stateTransition{env: env, in: in, gp: gp, msg: msg, kind: tx.Kind(), gasLimit: tx.Gas()}
	if err := st.preCheck(); err != nil {
		return nil, nil, cumulativeGasUsed, err
	}
	if err := gp.SubGas(tx.Gas()); err != nil {
		return nil, nil, cumulativeGasUsed, err
	}

	result := st.execute()
	cumulativeGasUsed += result.UsedGas

	status := types.ReceiptStatusSuccessful
	if result.Failed() {
		status = types.ReceiptStatusFailed
	}
	receipt := types.NewReceipt(status, cumulativeGasUsed, result.Logs)
	receipt.TxHash = tx.Hash()
	receipt.GasUsed = result.UsedGas
	receipt.ContractAddress = result.CreatedAddress
	return receipt, result, cumulativeGasUsed, nil
}
