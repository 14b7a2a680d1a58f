package core

import (
	"errors"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmchain/execengine/core/types"
	"github.com/vmchain/execengine/core/vm"
	"github.com/vmchain/execengine/params"
	"github.com/vmchain/execengine/testutil"
)

func newTxEnv(t *testing.T) (*vm.Environment, *params.RuleSet) {
	t.Helper()
	cfg := testutil.AllAmendmentsConfig()
	rules, err := params.Resolve(cfg, big.NewInt(1), nil)
	require.NoError(t, err)
	blockCtx := vm.BlockContext{
		Coinbase:    testutil.NewAccount(200).Addr,
		GasLimit:    8_000_000,
		BlockNumber: big.NewInt(1),
		Time:        100,
		BaseFee:     big.NewInt(1_000_000_000),
	}
	env := vm.NewEnvironment(nil, blockCtx, vm.TxContext{}, rules)
	return env, rules
}

// S2 — simple value transfer.
func TestRunTxValueTransfer(t *testing.T) {
	env, _ := newTxEnv(t)
	st := stateForTest()
	env.StateDB = st

	sender := testutil.NewAccount(1)
	to := testutil.NewAccount(2)
	testutil.Fund(st, sender, uint256.NewInt(1_000_000_000_000_000_000))

	tx := testutil.SignLegacyTx(sender, 0, &to.Addr, big.NewInt(1_000_000_000_000), 21000, big.NewInt(1_000_000_000), nil)

	gp := new(GasPool).AddGas(env.Block.GasLimit)
	receipt, result, cumulative, err := RunTx(tx, env, vm.NewEVMInterpreter(), gp, 0, false)
	require.NoError(t, err)
	require.False(t, result.Failed())

	wantSenderBalance := new(big.Int).Sub(big.NewInt(1_000_000_000_000_000_000), big.NewInt(1_000_000_000_000))
	wantSenderBalance.Sub(wantSenderBalance, new(big.Int).Mul(big.NewInt(21000), big.NewInt(1_000_000_000)))

	assert.Equal(t, wantSenderBalance, st.GetBalance(sender.Addr).ToBig())
	assert.Equal(t, uint64(1), st.GetNonce(sender.Addr))
	assert.Equal(t, big.NewInt(1_000_000_000_000), st.GetBalance(to.Addr).ToBig())
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	assert.Equal(t, uint64(21000), cumulative)
}

// S3 — insufficient funds: pre-execution failure leaves state untouched.
func TestRunTxInsufficientFunds(t *testing.T) {
	env, _ := newTxEnv(t)
	st := stateForTest()
	env.StateDB = st

	sender := testutil.NewAccount(1)
	to := testutil.NewAccount(2)
	testutil.Fund(st, sender, uint256.NewInt(1_000_000))

	before := st.GetBalance(sender.Addr).Clone()
	tx := testutil.SignLegacyTx(sender, 0, &to.Addr, big.NewInt(1_000_000_000_000), 21000, big.NewInt(1_000_000_000), nil)

	gp := new(GasPool).AddGas(env.Block.GasLimit)
	_, _, _, err := RunTx(tx, env, vm.NewEVMInterpreter(), gp, 0, false)
	require.ErrorIs(t, err, ErrValidationClass)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.True(t, before.Eq(st.GetBalance(sender.Addr)))
	assert.Equal(t, uint64(0), st.GetNonce(sender.Addr))
}

// S4 — nonce gap.
func TestRunTxNonceMismatch(t *testing.T) {
	env, _ := newTxEnv(t)
	st := stateForTest()
	env.StateDB = st

	sender := testutil.NewAccount(1)
	to := testutil.NewAccount(2)
	testutil.Fund(st, sender, uint256.NewInt(1_000_000_000_000_000_000))

	tx := testutil.SignLegacyTx(sender, 1, &to.Addr, big.NewInt(1_000_000_000_000), 21000, big.NewInt(1_000_000_000), nil)

	gp := new(GasPool).AddGas(env.Block.GasLimit)
	_, _, _, err := RunTx(tx, env, vm.NewEVMInterpreter(), gp, 0, false)
	require.ErrorIs(t, err, ErrNonceMismatch)
}

// S6 — fee-market transaction whose max fee falls below the block base fee.
func TestRunTxFeeCapBelowBaseFee(t *testing.T) {
	env, _ := newTxEnv(t)
	st := stateForTest()
	env.StateDB = st

	sender := testutil.NewAccount(1)
	to := testutil.NewAccount(2)
	testutil.Fund(st, sender, uint256.NewInt(1_000_000_000_000_000_000))

	tx := testutil.SignFeeMarketTx(sender, nil, 0, &to.Addr, big.NewInt(1), 21000, big.NewInt(100), big.NewInt(10), nil, nil)

	before := st.GetBalance(sender.Addr).Clone()
	gp := new(GasPool).AddGas(env.Block.GasLimit)
	_, _, _, err := RunTx(tx, env, vm.NewEVMInterpreter(), gp, 0, false)
	require.ErrorIs(t, err, ErrFeeCapBelowBaseFee)
	assert.True(t, before.Eq(st.GetBalance(sender.Addr)))
}

// Invariant 6: refund credited never exceeds gasUsed/refundQuotient.
func TestClampRefundNeverExceedsQuotient(t *testing.T) {
	assert.Equal(t, uint64(10), clampRefund(1000, 50, params.RefundQuotientV2))
	assert.Equal(t, uint64(0), clampRefund(-5, 1000, params.RefundQuotient))
	assert.Equal(t, uint64(500), clampRefund(1000, 1000, params.RefundQuotient))
}

func TestRunTxUnsupportedTxKind(t *testing.T) {
	cfg := &params.Config{
		HardforkByBlockNumber: true,
		Supported:             []params.Tag{"bare"},
		Activations:           []params.Activation{{Tag: "bare", Block: big.NewInt(0)}},
	}
	rules, err := params.Resolve(cfg, big.NewInt(1), nil)
	require.NoError(t, err)

	env := vm.NewEnvironment(stateForTest(), vm.BlockContext{GasLimit: 1_000_000, BlockNumber: big.NewInt(1)}, vm.TxContext{}, rules)
	sender := testutil.NewAccount(1)
	to := testutil.NewAccount(2)
	testutil.Fund(env.StateDB, sender, uint256.NewInt(1_000_000_000_000_000_000))

	tx := testutil.SignAccessListTx(sender, nil, 0, &to.Addr, big.NewInt(1), 21000, big.NewInt(1), nil, nil)
	gp := new(GasPool).AddGas(env.Block.GasLimit)
	_, _, _, err = RunTx(tx, env, vm.NewEVMInterpreter(), gp, 0, false)
	require.True(t, errors.Is(err, ErrUnsupportedTxType))
}
