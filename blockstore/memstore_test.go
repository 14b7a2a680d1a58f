package blockstore

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmchain/execengine/core/types"
)

func testHeader(number int64) *types.Header {
	return &types.Header{Number: big.NewInt(number), GasLimit: 1000, Timestamp: uint64(number) + 1}
}

func TestMemStorePutAndGet(t *testing.T) {
	m := NewMemStore()
	block := types.NewBlock(testHeader(1), nil, nil)
	require.NoError(t, m.PutBlock(block))

	byNum, err := m.GetBlockByNumber(1)
	require.NoError(t, err)
	assert.Equal(t, block.Hash(), byNum.Hash())

	byHash, err := m.GetBlockByHash(block.Hash())
	require.NoError(t, err)
	assert.Equal(t, block.Hash(), byHash.Hash())

	_, err = m.GetBlockByNumber(2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreCanonicalHeadStartsNotFound(t *testing.T) {
	m := NewMemStore()
	_, err := m.GetCanonicalHead()
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.SetCanonicalHead(3))
	head, err := m.GetCanonicalHead()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), head)
}

func TestMemStoreCloneIsIndependent(t *testing.T) {
	m := NewMemStore()
	require.NoError(t, m.PutBlock(types.NewBlock(testHeader(1), nil, nil)))
	require.NoError(t, m.SetCanonicalHead(1))

	clone := m.Clone()
	require.NoError(t, clone.PutBlock(types.NewBlock(testHeader(2), nil, nil)))
	require.NoError(t, clone.SetCanonicalHead(2))

	_, err := m.GetBlockByNumber(2)
	assert.ErrorIs(t, err, ErrNotFound)

	head, err := m.GetCanonicalHead()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), head)
}
