package blockstore

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmchain/execengine/core/types"
	"github.com/vmchain/execengine/testutil"
)

func TestTransactionCodecRoundTripPreservesSender(t *testing.T) {
	sender := testutil.NewAccount(1)
	to := testutil.NewAccount(2)
	tx := testutil.SignLegacyTx(sender, 7, &to.Addr, big.NewInt(1234), 21000, big.NewInt(1_000_000_000), []byte("payload"))

	buf := make([]byte, SizeTransaction(tx))
	n := MarshalTransaction(tx, buf)
	require.Equal(t, len(buf), n)

	decoded, n2, err := UnmarshalTransaction(buf)
	require.NoError(t, err)
	assert.Equal(t, n, n2)

	wantSender, err := tx.Sender()
	require.NoError(t, err)
	gotSender, err := decoded.Sender()
	require.NoError(t, err)
	assert.Equal(t, wantSender, gotSender)
	assert.Equal(t, tx.Hash(), decoded.Hash())
	assert.Equal(t, tx.Nonce(), decoded.Nonce())
	assert.Equal(t, tx.Value(), decoded.Value())
}

func TestFeeMarketTransactionCodecRoundTrip(t *testing.T) {
	sender := testutil.NewAccount(3)
	to := testutil.NewAccount(4)
	tx := testutil.SignFeeMarketTx(sender, big.NewInt(1), 0, &to.Addr, big.NewInt(5), 50000, big.NewInt(100), big.NewInt(10), nil, nil)

	buf := make([]byte, SizeTransaction(tx))
	MarshalTransaction(tx, buf)
	decoded, _, err := UnmarshalTransaction(buf)
	require.NoError(t, err)
	assert.Equal(t, types.FeeMarketTxKind, decoded.Kind())
	assert.Equal(t, tx.Hash(), decoded.Hash())
}

func TestBlockCodecRoundTrip(t *testing.T) {
	sender := testutil.NewAccount(5)
	to := testutil.NewAccount(6)
	tx := testutil.SignLegacyTx(sender, 0, &to.Addr, big.NewInt(1), 21000, big.NewInt(1), nil)

	header := &types.Header{
		Number:     big.NewInt(1),
		GasLimit:   8_000_000,
		GasUsed:    21000,
		Timestamp:  2,
		Difficulty: big.NewInt(0),
	}
	block := types.NewBlock(header, []*types.Transaction{tx}, nil)

	buf := make([]byte, SizeBlock(block))
	n := MarshalBlock(block, buf)
	require.Equal(t, len(buf), n)

	decoded, _, err := UnmarshalBlock(buf)
	require.NoError(t, err)
	require.Len(t, decoded.Transactions, 1)
	assert.Equal(t, tx.Hash(), decoded.Transactions[0].Hash())
	assert.Equal(t, block.Header.Hash(), decoded.Header.Hash())
}
