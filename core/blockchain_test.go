package core

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmchain/execengine/blockstore"
	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/core/state"
	"github.com/vmchain/execengine/core/types"
	"github.com/vmchain/execengine/core/vm"
	"github.com/vmchain/execengine/params"
	"github.com/vmchain/execengine/testutil"
)

// buildBlockFor runs a block builder to completion against db and returns
// the sealed block, for tests that want a store pre-loaded with real,
// executable blocks rather than hand-built headers.
func buildBlockFor(t *testing.T, db state.StateStore, parent *types.Header, coinbase common.Address, cfg *params.Config, chainID *big.Int, txs []*types.Transaction) *types.Block {
	t.Helper()
	builder, err := NewBlockBuilder(db, parent, coinbase, parent.Timestamp+1, parent.GasLimit, cfg, chainID, blockHashStub, vm.NewEVMInterpreter())
	require.NoError(t, err)
	for _, tx := range txs {
		_, _, err := builder.AddTransaction(tx)
		require.NoError(t, err)
	}
	block, _, err := builder.Build(nil)
	require.NoError(t, err)
	return block
}

func TestBlockChainInsertChainAdvancesHead(t *testing.T) {
	db := stateForTest()
	cfg := testutil.AllAmendmentsConfig()
	coinbase := testutil.NewAccount(9).Addr
	chainID := big.NewInt(1)

	sender := testutil.NewAccount(1)
	receiver := testutil.NewAccount(2)
	testutil.Fund(db, sender, uint256.NewInt(1_000_000_000_000_000_000))

	store := blockstore.NewMemStore()
	genesis := testutil.GenesisHeader(8_000_000, big.NewInt(1_000_000_000))
	require.NoError(t, store.PutBlock(types.NewBlock(genesis, nil, nil)))
	require.NoError(t, store.SetCanonicalHead(0))

	tx1 := testutil.SignLegacyTx(sender, 0, &receiver.Addr, big.NewInt(1), 21000, big.NewInt(1_000_000_000), nil)
	b1 := buildBlockFor(t, db, genesis, coinbase, cfg, chainID, []*types.Transaction{tx1})
	require.NoError(t, store.PutBlock(b1))

	tx2 := testutil.SignLegacyTx(sender, 1, &receiver.Addr, big.NewInt(1), 21000, big.NewInt(1_000_000_000), nil)
	b2 := buildBlockFor(t, db, b1.Header, coinbase, cfg, chainID, []*types.Transaction{tx2})
	require.NoError(t, store.PutBlock(b2))

	// The driver replays against a fresh state store: it must reach the
	// same result the builder did.
	replay := stateForTest()
	testutil.Fund(replay, sender, uint256.NewInt(1_000_000_000_000_000_000))
	sp := &StateProcessor{StateDB: replay, Cfg: cfg, ChainID: chainID, GetHash: func(n uint64) common.Hash {
		blk, err := store.GetBlockByNumber(n)
		if err != nil {
			return common.Hash{}
		}
		return blk.Hash()
	}}
	bc := NewBlockChain(store, sp, nil)

	result, err := bc.InsertChain(InsertChainOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.BlocksProcessed)
	assert.Equal(t, uint64(2), result.NewHead)

	head, err := store.GetCanonicalHead()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), head)
}

func TestBlockChainBusyRejectsConcurrentInsert(t *testing.T) {
	store := blockstore.NewMemStore()
	genesis := testutil.GenesisHeader(8_000_000, nil)
	require.NoError(t, store.PutBlock(types.NewBlock(genesis, nil, nil)))
	require.NoError(t, store.SetCanonicalHead(0))

	bc := NewBlockChain(store, &StateProcessor{StateDB: stateForTest(), Cfg: testutil.AllAmendmentsConfig(), ChainID: big.NewInt(1), GetHash: blockHashStub}, nil)
	bc.busy = true
	_, err := bc.InsertChain(InsertChainOptions{})
	require.ErrorIs(t, err, ErrEngineBusy)
}

func TestBlockChainStopsAtMaxBlocks(t *testing.T) {
	db := stateForTest()
	cfg := testutil.AllAmendmentsConfig()
	coinbase := testutil.NewAccount(9).Addr
	chainID := big.NewInt(1)

	store := blockstore.NewMemStore()
	genesis := testutil.GenesisHeader(8_000_000, big.NewInt(1_000_000_000))
	require.NoError(t, store.PutBlock(types.NewBlock(genesis, nil, nil)))
	require.NoError(t, store.SetCanonicalHead(0))

	b1 := buildBlockFor(t, db, genesis, coinbase, cfg, chainID, nil)
	require.NoError(t, store.PutBlock(b1))
	b2 := buildBlockFor(t, db, b1.Header, coinbase, cfg, chainID, nil)
	require.NoError(t, store.PutBlock(b2))

	replay := stateForTest()
	sp := &StateProcessor{StateDB: replay, Cfg: cfg, ChainID: chainID, GetHash: blockHashStub}
	bc := NewBlockChain(store, sp, nil)

	result, err := bc.InsertChain(InsertChainOptions{MaxBlocks: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, result.BlocksProcessed)
	assert.Equal(t, uint64(1), result.NewHead)
}
