package state

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"

	"github.com/vmchain/execengine/common"
)

func addr(b byte) common.Address {
	var a common.Address
	a[len(a)-1] = b
	return a
}

func TestCheckpointRevertUndoesBalanceChange(t *testing.T) {
	s := New()
	a := addr(1)
	s.AddBalance(a, uint256.NewInt(100))

	cp := s.Checkpoint()
	s.AddBalance(a, uint256.NewInt(50))
	assert.Equal(t, uint256.NewInt(150), s.GetBalance(a))

	s.Revert(cp)
	assert.Equal(t, uint256.NewInt(100), s.GetBalance(a))
}

func TestCheckpointCommitKeepsChange(t *testing.T) {
	s := New()
	a := addr(1)

	cp := s.Checkpoint()
	s.AddBalance(a, uint256.NewInt(75))
	s.Commit(cp)

	assert.Equal(t, uint256.NewInt(75), s.GetBalance(a))
}

// Invariant 5 at the state-store level: nested checkpoints revert in
// strictly-nested order, and a revert of an outer frame also undoes
// everything done inside any inner frame opened after it.
func TestNestedCheckpointsRevertInOrder(t *testing.T) {
	s := New()
	a := addr(1)

	outer := s.Checkpoint()
	s.SetNonce(a, 1)
	inner := s.Checkpoint()
	s.SetNonce(a, 2)
	s.Commit(inner)
	assert.Equal(t, uint64(2), s.GetNonce(a))

	s.Revert(outer)
	assert.Equal(t, uint64(0), s.GetNonce(a))
}

func TestStorageZeroValueDeletesSlot(t *testing.T) {
	s := New()
	a := addr(1)
	key := common.BytesToHash([]byte("key"))
	val := common.BytesToHash([]byte("value"))

	s.PutContractStorage(a, key, val)
	assert.Equal(t, val, s.GetContractStorage(a, key))

	s.PutContractStorage(a, key, common.Hash{})
	assert.Equal(t, common.Hash{}, s.GetContractStorage(a, key))
}

func TestOriginalStorageTracksFirstTouchOnly(t *testing.T) {
	s := New()
	a := addr(1)
	key := common.BytesToHash([]byte("key"))
	first := common.BytesToHash([]byte("first"))
	second := common.BytesToHash([]byte("second"))

	s.PutContractStorage(a, key, first)
	s.PutContractStorage(a, key, second)

	assert.Equal(t, common.Hash{}, s.GetOriginalContractStorage(a, key))
	assert.Equal(t, second, s.GetContractStorage(a, key))
}

func TestWarmSetRevertsWithCheckpoint(t *testing.T) {
	s := New()
	a := addr(1)
	assert.False(t, s.AddressIsWarm(a))

	cp := s.Checkpoint()
	s.WarmAddress(a)
	assert.True(t, s.AddressIsWarm(a))

	s.Revert(cp)
	assert.False(t, s.AddressIsWarm(a))
}

func TestRefundCounterRevertsWithCheckpoint(t *testing.T) {
	s := New()
	cp := s.Checkpoint()
	s.AddRefund(100)
	s.SubRefund(30)
	assert.Equal(t, uint64(70), s.GetRefund())

	s.Revert(cp)
	assert.Equal(t, uint64(0), s.GetRefund())
}

func TestResetTransientClearsAllAddresses(t *testing.T) {
	s := New()
	a, b := addr(1), addr(2)
	key := common.BytesToHash([]byte("k"))
	val := common.BytesToHash([]byte("v"))

	s.SetTransientState(a, key, val)
	s.SetTransientState(b, key, val)
	s.ResetTransient()

	assert.Equal(t, common.Hash{}, s.GetTransientState(a, key))
	assert.Equal(t, common.Hash{}, s.GetTransientState(b, key))
}

func TestEmptyAccountPredicate(t *testing.T) {
	s := New()
	a := addr(1)
	assert.True(t, s.Empty(a)) // never touched

	s.AddBalance(a, uint256.NewInt(0)) // touches, still empty
	assert.True(t, s.Empty(a))

	s.AddBalance(a, uint256.NewInt(1))
	assert.False(t, s.Empty(a))
}

func TestSelfDestructSetIsSortedAndDeduped(t *testing.T) {
	s := New()
	a, b := addr(2), addr(1)
	s.SelfDestruct(a)
	s.SelfDestruct(a)
	s.SelfDestruct(b)

	set := s.SelfDestructSet()
	assert.Equal(t, []common.Address{b, a}, set)
}

// Invariant 8's precondition at the state-store level: Copy shares no
// mutable state with the original.
func TestCopyIsIndependent(t *testing.T) {
	s := New()
	a := addr(1)
	s.AddBalance(a, uint256.NewInt(100))

	clone := s.Copy()
	clone.AddBalance(a, uint256.NewInt(1))

	assert.Equal(t, uint256.NewInt(100), s.GetBalance(a))
	assert.Equal(t, uint256.NewInt(101), clone.GetBalance(a))
	assert.NotEqual(t, s.GetStateRoot(), clone.GetStateRoot())
}
