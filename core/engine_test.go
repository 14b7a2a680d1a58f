package core

import (
	"math/big"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmchain/execengine/core/vm"
	"github.com/vmchain/execengine/testutil"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(Options{ChainConfig: testutil.AllAmendmentsConfig(), ChainID: big.NewInt(1)})
	require.NoError(t, err)
	require.NoError(t, e.Init(Options{}))
	return e
}

func TestValidateRawOptionsRejectsUnknownKey(t *testing.T) {
	err := ValidateRawOptions(map[string]any{"chainID": 1, "legacyTraceMode": true})
	require.ErrorIs(t, err, ErrLegacyOptionRejected)
}

func TestValidateRawOptionsAcceptsRecognizedKeys(t *testing.T) {
	err := ValidateRawOptions(map[string]any{"chainID": 1, "genesis": nil})
	require.NoError(t, err)
}

func TestNewEngineRejectsUnsupportedAmendment(t *testing.T) {
	cfg := testutil.AllAmendmentsConfig()
	cfg.Activations[0].Amendments = append(cfg.Activations[0].Amendments, 99)
	_, err := NewEngine(Options{ChainConfig: cfg})
	require.ErrorIs(t, err, ErrConfiguration)
}

// EngineBusy: a second call while one is already acquired fails fast
// instead of racing (spec §5).
func TestEngineAcquireSerializesCallers(t *testing.T) {
	e := newTestEngine(t)
	release, err := e.acquire()
	require.NoError(t, err)

	_, err = e.acquire()
	require.ErrorIs(t, err, ErrEngineBusy)

	release()
	release2, err := e.acquire()
	require.NoError(t, err)
	release2()
}

func TestEngineRunTxSerializesAgainstBuildBlock(t *testing.T) {
	e := newTestEngine(t)
	parent := testutil.GenesisHeader(8_000_000, big.NewInt(1_000_000_000))
	builder, err := e.BuildBlock(parent, testutil.NewAccount(9).Addr)
	require.NoError(t, err)

	_, _, err = e.RunTx(nil, vm.BlockContext{})
	require.ErrorIs(t, err, ErrEngineBusy)

	require.NoError(t, builder.Revert())
}

// Invariant 8: copy() followed by independent execution on either
// replica yields identical roots for identical inputs.
func TestEngineCopyIndependence(t *testing.T) {
	e := newTestEngine(t)
	sender := testutil.NewAccount(1)
	receiver := testutil.NewAccount(2)
	testutil.Fund(e.stateDB, sender, uint256.NewInt(1_000_000_000_000_000_000))

	clone, err := e.Copy()
	require.NoError(t, err)

	tx := testutil.SignLegacyTx(sender, 0, &receiver.Addr, big.NewInt(1_000_000_000_000), 21000, big.NewInt(1_000_000_000), nil)
	blockCtx := vm.BlockContext{Coinbase: testutil.NewAccount(9).Addr, GasLimit: 8_000_000, BlockNumber: big.NewInt(1), BaseFee: big.NewInt(1_000_000_000)}

	_, _, err = e.RunTx(tx, blockCtx)
	require.NoError(t, err)
	_, _, err = clone.RunTx(tx, blockCtx)
	require.NoError(t, err)

	assert.True(t, e.stateDB.GetBalance(receiver.Addr).Eq(clone.stateDB.GetBalance(receiver.Addr)))
	if e.stateDB.GetStateRoot() != clone.stateDB.GetStateRoot() {
		t.Fatalf("copy diverged from original after identical execution:\noriginal: %s\nclone:    %s", spew.Sdump(e.stateDB), spew.Sdump(clone.stateDB))
	}

	// mutating the clone further must not leak back into the original.
	testutil.Fund(clone.stateDB, testutil.NewAccount(3), uint256.NewInt(1))
	assert.NotEqual(t, e.stateDB.GetStateRoot(), clone.stateDB.GetStateRoot())
}
