package types

import (
	"github.com/holiman/uint256"

	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/crypto"
)

// EmptyCodeHash is the Keccak256 hash of the empty byte string, the
// code-hash an account carries when it has no code.
var EmptyCodeHash = crypto.Keccak256Hash(nil)

// EmptyRootHash is the canonical "no storage" root, used to recognize
// accounts with empty storage without consulting the trie.
var EmptyRootHash = common.BytesToHash(crypto.Keccak256(nil))

// Account is the per-address state record of spec §3: nonce, balance,
// code-hash, and storage-root.
type Account struct {
	Nonce       uint64
	Balance     *uint256.Int
	CodeHash    common.Hash
	StorageRoot common.Hash
}

// NewEmptyAccount synthesizes the account miss-read default: nonce=0,
// balance=0, code-hash = hash-of-empty, storage-root = empty-root.
func NewEmptyAccount() *Account {
	return &Account{
		Balance:     new(uint256.Int),
		CodeHash:    EmptyCodeHash,
		StorageRoot: EmptyRootHash,
	}
}

// IsEmpty reports whether the account matches the spec's "empty account"
// predicate: nonce=0, balance=0, code-hash=hash-of-empty.
func (a *Account) IsEmpty() bool {
	return a.Nonce == 0 && (a.Balance == nil || a.Balance.IsZero()) && a.CodeHash == EmptyCodeHash
}

// Copy returns a deep copy suitable for journaling.
func (a *Account) Copy() *Account {
	cp := &Account{
		Nonce:       a.Nonce,
		CodeHash:    a.CodeHash,
		StorageRoot: a.StorageRoot,
	}
	if a.Balance != nil {
		cp.Balance = new(uint256.Int).Set(a.Balance)
	} else {
		cp.Balance = new(uint256.Int)
	}
	return cp
}
