package core

import (
	"math/big"

	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/core/state"
	"github.com/vmchain/execengine/core/types"
	"github.com/vmchain/execengine/core/vm"
	"github.com/vmchain/execengine/params"
)

// BlockBuilder is the block builder of spec §4.7: the inverse of the
// block runner, accepting transactions one at a time against a
// long-running checkpoint instead of replaying an already-sealed block.
// Grounded on the teacher's chain_makers.go BlockGen, trimmed to this
// engine's own addTransaction/build/revert lifecycle since BlockGen's
// withdrawal/consensus-request/verkle plumbing has no SPEC_FULL
// counterpart.
type BlockBuilder struct {
	stateDB    state.StateStore
	env        *vm.Environment
	in         vm.Interpreter
	gp         *GasPool
	rules      *params.RuleSet
	chainID    *big.Int

	checkpoint int
	header     *types.Header
	parent     *types.Header

	txs      []*types.Transaction
	receipts []*types.Receipt
	results  []*ExecutionResult
	gasUsed  uint64
	bloom    types.Bloom

	closed bool
}

// NewBlockBuilder opens a long-lived checkpoint over stateDB and seeds a
// provisional header from parent: parent hash, coinbase, timestamp,
// block number, gas limit, and — when the fee-market amendment is active
// — a base fee derived from parent, per spec §4.7.
func NewBlockBuilder(stateDB state.StateStore, parent *types.Header, coinbase common.Address, timestamp uint64, gasLimit uint64, cfg *params.Config, chainID *big.Int, getHash func(n uint64) common.Hash, in vm.Interpreter) (*BlockBuilder, error) {
	number := new(big.Int).Add(parent.Number, big.NewInt(1))
	rules, err := params.Resolve(cfg, number, nil)
	if err != nil {
		return nil, err
	}

	header := &types.Header{
		ParentHash: parent.Hash(),
		Coinbase:   coinbase,
		Number:     number,
		GasLimit:   gasLimit,
		Timestamp:  timestamp,
		Difficulty: parent.Difficulty,
	}
	if rules.Has(params.AmendmentFeeMarket) {
		header.BaseFee = ComputeBaseFee(parent)
	}

	blockCtx := vm.BlockContext{
		Coinbase:    header.Coinbase,
		GasLimit:    header.GasLimit,
		BlockNumber: header.Number,
		Time:        header.Timestamp,
		Difficulty:  header.Difficulty,
		BaseFee:     header.BaseFee,
		ChainID:     chainID,
		GetHash:     getHash,
	}
	env := vm.NewEnvironment(stateDB, blockCtx, vm.TxContext{}, rules)

	return &BlockBuilder{
		stateDB:    stateDB,
		env:        env,
		in:         in,
		gp:         new(GasPool).AddGas(gasLimit),
		rules:      rules,
		chainID:    chainID,
		checkpoint: stateDB.Checkpoint(),
		header:     header,
		parent:     parent,
	}, nil
}

// AddTransaction runs tx against the builder's state and appends its
// receipt, per spec §4.7. Rejects with ErrTxGasLimitBlockOverflow before
// touching state if tx's gas limit would exceed the block's remaining
// gas, and with ErrBuilderClosed once build or revert has been called.
func (b *BlockBuilder) AddTransaction(tx *types.Transaction) (*types.Receipt, *ExecutionResult, error) {
	if b.closed {
		return nil, nil, ErrBuilderClosed
	}
	if tx.Gas() > b.gp.Gas() {
		return nil, nil, ErrTxGasLimitBlockOverflow
	}

	receipt, result, newCumulative, err := RunTx(tx, b.env, b.in, b.gp, b.gasUsed, false)
	if err != nil {
		return nil, nil, err
	}
	b.gasUsed = newCumulative
	receipt.BlockNumber = b.header.Number.Uint64()
	receipt.TransactionIndex = uint(len(b.txs))

	b.txs = append(b.txs, tx)
	b.receipts = append(b.receipts, receipt)
	b.results = append(b.results, result)
	b.bloom.OrBloom(receipt.Bloom)
	return receipt, result, nil
}

// Build applies end-of-block processing (the same block reward step the
// block runner applies), computes the header's roots, commits the
// builder's checkpoint, and returns the sealed block. Build is a
// terminal call: any AddTransaction/Build/Revert afterward fails with
// ErrBuilderClosed.
func (b *BlockBuilder) Build(uncles []*types.Header) (*types.Block, *BlockResult, error) {
	if b.closed {
		return nil, nil, ErrBuilderClosed
	}
	b.closed = true

	sp := &StateProcessor{StateDB: b.stateDB, ChainID: b.chainID}
	sp.applyBlockReward(b.rules, b.header, uncles)

	b.header.GasUsed = b.gasUsed
	b.header.LogsBloom = b.bloom
	b.header.StateRoot = b.stateDB.GetStateRoot()
	b.header.TxRoot = ComputeTxRoot(b.txs)
	b.header.ReceiptRoot = ComputeReceiptRoot(b.receipts)

	b.stateDB.Commit(b.checkpoint)

	block := types.NewBlock(b.header, b.txs, uncles)
	result := &BlockResult{
		Receipts:  b.receipts,
		Results:   b.results,
		StateRoot: b.header.StateRoot,
		LogsBloom: b.bloom,
		GasUsed:   b.gasUsed,
		Header:    b.header,
	}
	return block, result, nil
}

// Revert discards the builder's checkpoint, undoing every transaction
// applied so far. Terminal, like Build.
func (b *BlockBuilder) Revert() error {
	if b.closed {
		return ErrBuilderClosed
	}
	b.closed = true
	b.stateDB.Revert(b.checkpoint)
	return nil
}
