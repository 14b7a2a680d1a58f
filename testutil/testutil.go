// Package testutil builds small, deterministic fixtures — seeded
// accounts, signed transactions, direct balance funding, a genesis header
// and an all-amendments chain config — for the engine's own test suites.
// It has no block or chain builder; tests that need blocks assemble them
// with core.BlockBuilder.
package testutil

import (
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/holiman/uint256"

	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/core/state"
	"github.com/vmchain/execengine/core/types"
	"github.com/vmchain/execengine/crypto"
	"github.com/vmchain/execengine/params"
)

// Account is a keypair usable to sign test transactions.
type Account struct {
	Priv *secp256k1.PrivateKey
	Addr common.Address
}

// NewAccount derives a deterministic account from seed: every call with
// the same seed produces the same key, so fixtures stay reproducible
// without carrying literal hex keys around.
func NewAccount(seed byte) *Account {
	var buf [32]byte
	for i := range buf {
		buf[i] = seed + byte(i)
	}
	// secp256k1 rejects the zero scalar and anything >= the curve order;
	// the seed-derived byte pattern never reaches either edge in practice
	// for the small seed values the test suites use.
	priv := secp256k1.PrivKeyFromBytes(buf[:])
	pub := priv.PubKey().SerializeUncompressed()
	addr, err := crypto.PubkeyToAddress(pub)
	if err != nil {
		panic(err)
	}
	return &Account{Priv: priv, Addr: addr}
}

// SignLegacyTx builds and signs a legacy transaction from acct.
func SignLegacyTx(acct *Account, nonce uint64, to *common.Address, value *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *types.Transaction {
	unsigned := types.NewLegacyTx(nonce, to, value, gasLimit, gasPrice, data, crypto.Signature{})
	sig := sign(acct, unsigned)
	return types.NewLegacyTx(nonce, to, value, gasLimit, gasPrice, data, sig)
}

// SignAccessListTx builds and signs an access-list transaction from acct.
func SignAccessListTx(acct *Account, chainID *big.Int, nonce uint64, to *common.Address, value *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte, al types.AccessList) *types.Transaction {
	unsigned := types.NewAccessListTx(chainID, nonce, to, value, gasLimit, gasPrice, data, al, crypto.Signature{})
	sig := sign(acct, unsigned)
	return types.NewAccessListTx(chainID, nonce, to, value, gasLimit, gasPrice, data, al, sig)
}

// SignFeeMarketTx builds and signs a fee-market transaction from acct.
func SignFeeMarketTx(acct *Account, chainID *big.Int, nonce uint64, to *common.Address, value *big.Int, gasLimit uint64, gasFeeCap, gasTipCap *big.Int, data []byte, al types.AccessList) *types.Transaction {
	unsigned := types.NewFeeMarketTx(chainID, nonce, to, value, gasLimit, gasFeeCap, gasTipCap, data, al, crypto.Signature{})
	sig := sign(acct, unsigned)
	return types.NewFeeMarketTx(chainID, nonce, to, value, gasLimit, gasFeeCap, gasTipCap, data, al, sig)
}

func sign(acct *Account, unsigned *types.Transaction) crypto.Signature {
	sig, err := crypto.Sign(unsigned.SigningHash().Bytes(), acct.Priv)
	if err != nil {
		panic(err)
	}
	return sig
}

// Fund credits acct's balance directly in store, outside any transaction
// — the equivalent of a genesis allocation for a test that doesn't want
// to run a genesis materialization step.
func Fund(store state.StateStore, acct *Account, amount *uint256.Int) {
	checkpoint := store.Checkpoint()
	store.AddBalance(acct.Addr, amount)
	store.Commit(checkpoint)
}

// GenesisHeader returns a minimal, already-sealed header for block number
// zero, suitable as the parent argument to a chain's first real block.
func GenesisHeader(gasLimit uint64, baseFee *big.Int) *types.Header {
	h := &types.Header{
		Number:     big.NewInt(0),
		GasLimit:   gasLimit,
		Timestamp:  1,
		Difficulty: big.NewInt(0),
		BaseFee:    baseFee,
	}
	h.StateRoot = common.Hash{}
	return h
}

// AllAmendmentsConfig returns a single-tag chain config with every
// amendment except AmendmentBlockRewardDisabled active from genesis and a
// non-zero block reward, the
// all-features-on baseline most of the engine's own test suites resolve
// against so a test doesn't have to hand-build an Activations slice.
func AllAmendmentsConfig() *params.Config {
	tag := params.Tag("testnet")
	return &params.Config{
		HardforkByBlockNumber: true,
		Supported:             []params.Tag{tag},
		Activations: []params.Activation{
			{
				Tag:         tag,
				Block:       big.NewInt(0),
				BlockReward: big.NewInt(2_000_000_000_000_000_000),
				Amendments: []params.Amendment{
					params.AmendmentAccessLists,
					params.AmendmentFeeMarket,
					params.AmendmentRefundQuotientV2,
					params.AmendmentEmptyAccountCleanup,
					params.AmendmentInitcodeWordGas,
					params.AmendmentInitcodeSizeLimit,
					params.AmendmentCoinbaseWarming,
					params.AmendmentTransientStorage,
				},
			},
		},
	}
}

