// Package state implements the State interface of spec §4.2: the
// capability contract the rest of the engine uses to read and write
// accounts and storage, and the checkpoint/journal discipline (spec §3
// "Journal / checkpoint stack") that gives the engine its
// commit-or-revert-exactly guarantee.
//
// Grounded on the teacher's core/state/statedb.go and journal.go,
// generalized from go-ethereum's StateDB/Snapshot vocabulary to the
// spec's checkpoint/commit/revert contract.
package state

import (
	"github.com/holiman/uint256"

	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/core/types"
)

// StateStore is the capability contract of spec §4.2.
type StateStore interface {
	// Account access. GetAccount synthesizes an empty account on miss.
	GetAccount(addr common.Address) *types.Account
	PutAccount(addr common.Address, acct *types.Account)
	DeleteAccount(addr common.Address)
	Exist(addr common.Address) bool

	GetBalance(addr common.Address) *uint256.Int
	AddBalance(addr common.Address, amount *uint256.Int)
	SubBalance(addr common.Address, amount *uint256.Int)
	GetNonce(addr common.Address) uint64
	SetNonce(addr common.Address, nonce uint64)

	GetContractCode(addr common.Address) []byte
	PutContractCode(addr common.Address, code []byte)
	GetCodeHash(addr common.Address) common.Hash

	// Storage access; writing the zero value deletes the slot (spec §3).
	GetContractStorage(addr common.Address, key common.Hash) common.Hash
	PutContractStorage(addr common.Address, key common.Hash, value common.Hash)
	// GetOriginalContractStorage returns the value the slot held at the
	// outermost checkpoint for the current transaction, required for the
	// refund accounting of the active rule-set's storage pricing.
	GetOriginalContractStorage(addr common.Address, key common.Hash) common.Hash

	// Checkpoint discipline. Nest arbitrarily; callers must balance every
	// Checkpoint with exactly one Commit or Revert.
	Checkpoint() int
	Commit(id int)
	Revert(id int)

	// GetStateRoot hashes the store's current in-memory state, including
	// writes made inside checkpoints that are still open; it does not
	// separate committed from uncommitted changes.
	GetStateRoot() common.Hash

	// Access-list tracking, rolled back with checkpoints.
	AddressIsWarm(addr common.Address) bool
	StorageIsWarm(addr common.Address, key common.Hash) bool
	WarmAddress(addr common.Address)
	WarmStorage(addr common.Address, key common.Hash)

	// Refund counter, scoped to the current transaction.
	AddRefund(gas uint64)
	SubRefund(gas uint64)
	GetRefund() uint64

	// Transient storage (spec §3's "transient storage"), cleared at
	// transaction boundary by the transaction runner via ResetTransient.
	GetTransientState(addr common.Address, key common.Hash) common.Hash
	SetTransientState(addr common.Address, key common.Hash, value common.Hash)
	ResetTransient()

	// Self-destruct tracking.
	SelfDestruct(addr common.Address)
	HasSelfDestructed(addr common.Address) bool
	SelfDestructSet() []common.Address

	// Empty() reports the spec §3 "empty account" predicate.
	Empty(addr common.Address) bool

	// Copy returns an independent deep copy with no open checkpoints,
	// the basis for the engine shell's copy() (spec §4.8): the clone
	// shares no mutable state with the original.
	Copy() StateStore
}
