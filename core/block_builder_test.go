package core

import (
	"math/big"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/core/types"
	"github.com/vmchain/execengine/core/vm"
	"github.com/vmchain/execengine/testutil"
)

// revertingCode returns bytecode that always reverts with the exact
// return data 0xDEADBEEF (scenario S5).
func revertingCode() []byte {
	code := []byte{0x7f} // PUSH32
	word := make([]byte, 32)
	copy(word, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	code = append(code, word...)
	code = append(code, 0x60, 0x00) // PUSH1 0 (mstore offset)
	code = append(code, 0x52)       // MSTORE
	code = append(code, 0x60, 0x04) // PUSH1 4 (revert size)
	code = append(code, 0x60, 0x00) // PUSH1 0 (revert offset)
	code = append(code, 0xfd)       // REVERT
	return code
}

func blockHashStub(uint64) common.Hash { return common.Hash{} }

// S1 — empty block over an initialised genesis state.
func TestBlockBuilderEmptyBlock(t *testing.T) {
	st := stateForTest()
	cfg := testutil.AllAmendmentsConfig()
	parent := testutil.GenesisHeader(8_000_000, big.NewInt(1_000_000_000))
	coinbase := testutil.NewAccount(9).Addr

	builder, err := NewBlockBuilder(st, parent, coinbase, 2, 8_000_000, cfg, big.NewInt(1), blockHashStub, vm.NewEVMInterpreter())
	require.NoError(t, err)

	block, result, err := builder.Build(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), block.GasUsed())
	assert.Equal(t, ComputeReceiptRoot(nil), block.Header.ReceiptRoot)
	assert.Equal(t, uint64(0), result.GasUsed)
	// the all-amendments fixture pays a block reward, so the coinbase is
	// credited even though no transaction ran.
	assert.True(t, st.GetBalance(coinbase).Sign() > 0)
}

// S5 — a reverting call still advances the sender's nonce and charges the
// gas actually consumed, and S7 — the sealed block round-trips through
// the block runner unchanged.
func TestBlockBuilderRevertAndRoundTrip(t *testing.T) {
	st := stateForTest()
	cfg := testutil.AllAmendmentsConfig()
	genesis := testutil.GenesisHeader(8_000_000, big.NewInt(1_000_000_000))
	coinbase := testutil.NewAccount(9).Addr

	sender := testutil.NewAccount(1)
	receiver := testutil.NewAccount(2)
	testutil.Fund(st, sender, uint256.NewInt(1_000_000_000_000_000_000))

	contract := testutil.NewAccount(3).Addr
	st.PutContractCode(contract, revertingCode())

	builder, err := NewBlockBuilder(st, genesis, coinbase, 2, 8_000_000, cfg, big.NewInt(1), blockHashStub, vm.NewEVMInterpreter())
	require.NoError(t, err)

	transfer := testutil.SignLegacyTx(sender, 0, &receiver.Addr, big.NewInt(1_000_000_000_000), 21000, big.NewInt(1_000_000_000), nil)
	_, transferResult, err := builder.AddTransaction(transfer)
	require.NoError(t, err)
	require.False(t, transferResult.Failed())

	revertingTx := testutil.SignLegacyTx(sender, 1, &contract, big.NewInt(0), 100000, big.NewInt(1_000_000_000), nil)
	receipt, result, err := builder.AddTransaction(revertingTx)
	require.NoError(t, err)
	require.True(t, result.Failed())
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, result.Revert())
	assert.Equal(t, types.ReceiptStatusFailed, receipt.Status)
	assert.Equal(t, uint64(2), st.GetNonce(sender.Addr))

	block, sealedResult, err := builder.Build(nil)
	require.NoError(t, err)

	// Round-trip: replay the sealed block from a fresh copy of the
	// pre-block state and expect byte-identical roots (invariant 7).
	replay := stateForTest()
	testutil.Fund(replay, sender, uint256.NewInt(1_000_000_000_000_000_000))
	replay.PutContractCode(contract, revertingCode())

	sp := &StateProcessor{StateDB: replay, Cfg: cfg, ChainID: big.NewInt(1), GetHash: blockHashStub}
	replayResult, err := sp.RunBlock(block, genesis, RunBlockOptions{})
	require.NoError(t, err)

	if sealedResult.StateRoot != replayResult.StateRoot {
		t.Fatalf("state root diverged on replay:\nbuilt:    %s\nreplayed: %s", spew.Sdump(sealedResult), spew.Sdump(replayResult))
	}
	assert.Equal(t, sealedResult.GasUsed, replayResult.GasUsed)
	assert.Equal(t, sealedResult.LogsBloom, replayResult.LogsBloom)
}

// Invariant 4: cumulative gas used is non-decreasing and ends at the
// header's gasUsed.
func TestBlockBuilderCumulativeGasMonotonic(t *testing.T) {
	st := stateForTest()
	cfg := testutil.AllAmendmentsConfig()
	genesis := testutil.GenesisHeader(8_000_000, big.NewInt(1_000_000_000))
	coinbase := testutil.NewAccount(9).Addr

	sender := testutil.NewAccount(1)
	receiver := testutil.NewAccount(2)
	testutil.Fund(st, sender, uint256.NewInt(1_000_000_000_000_000_000))

	builder, err := NewBlockBuilder(st, genesis, coinbase, 2, 8_000_000, cfg, big.NewInt(1), blockHashStub, vm.NewEVMInterpreter())
	require.NoError(t, err)

	var last uint64
	for i := uint64(0); i < 3; i++ {
		tx := testutil.SignLegacyTx(sender, i, &receiver.Addr, big.NewInt(1), 21000, big.NewInt(1_000_000_000), nil)
		receipt, _, err := builder.AddTransaction(tx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, receipt.CumulativeGasUsed, last)
		last = receipt.CumulativeGasUsed
	}

	block, result, err := builder.Build(nil)
	require.NoError(t, err)
	assert.Equal(t, last, result.GasUsed)
	assert.Equal(t, last, block.GasUsed())
}

func TestBlockBuilderClosedAfterBuild(t *testing.T) {
	st := stateForTest()
	cfg := testutil.AllAmendmentsConfig()
	genesis := testutil.GenesisHeader(8_000_000, big.NewInt(1_000_000_000))
	builder, err := NewBlockBuilder(st, genesis, testutil.NewAccount(9).Addr, 2, 8_000_000, cfg, big.NewInt(1), blockHashStub, vm.NewEVMInterpreter())
	require.NoError(t, err)

	_, _, err = builder.Build(nil)
	require.NoError(t, err)

	_, _, err = builder.AddTransaction(nil)
	require.ErrorIs(t, err, ErrBuilderClosed)
	require.ErrorIs(t, builder.Revert(), ErrBuilderClosed)
}
