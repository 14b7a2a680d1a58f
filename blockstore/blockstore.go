// Package blockstore is the durable block-store external collaborator
// named in spec §1/§6: the block runner and blockchain driver consult it
// for blocks and the canonical head, never reaching into a database
// directly themselves.
package blockstore

import (
	"errors"

	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/core/types"
)

// ErrNotFound is returned when a lookup finds no matching block/header.
var ErrNotFound = errors.New("blockstore: not found")

// Store is the block-store contract of spec §6: lookups by number and
// hash, a write path, and the canonical-head pointer the blockchain
// driver advances. Two implementations are provided: MemStore for tests
// and the engine's in-memory mode, and LevelDBStore for durable
// persistence.
type Store interface {
	GetBlockByNumber(number uint64) (*types.Block, error)
	GetBlockByHash(hash common.Hash) (*types.Block, error)
	PutBlock(block *types.Block) error
	GetCanonicalHead() (uint64, error)
	SetCanonicalHead(number uint64) error
}
