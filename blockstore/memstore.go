package blockstore

import (
	"sync"

	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/core/types"
)

// MemStore is an in-memory Store, used by tests and the engine's
// in-memory operating mode (spec §6 names both a durable and a
// transient store as valid backends).
type MemStore struct {
	mu        sync.RWMutex
	byHash    map[common.Hash]*types.Block
	byNumber  map[uint64]*types.Block
	headSet   bool
	head      uint64
}

func NewMemStore() *MemStore {
	return &MemStore{
		byHash:   make(map[common.Hash]*types.Block),
		byNumber: make(map[uint64]*types.Block),
	}
}

func (m *MemStore) GetBlockByNumber(number uint64) (*types.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.byNumber[number]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (m *MemStore) GetBlockByHash(hash common.Hash) (*types.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.byHash[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (m *MemStore) PutBlock(block *types.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	hash := blockKeyFor(block)
	m.byHash[hash] = block
	m.byNumber[block.NumberU64()] = block
	return nil
}

func (m *MemStore) GetCanonicalHead() (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.headSet {
		return 0, ErrNotFound
	}
	return m.head, nil
}

func (m *MemStore) SetCanonicalHead(number uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.head = number
	m.headSet = true
	return nil
}

// Clone returns an independent MemStore with the same blocks and
// canonical head, used by the engine shell's copy() (spec §4.8): blocks
// themselves are immutable once written, so only the maps and head
// pointer need to be independent copies, not the *types.Block values.
func (m *MemStore) Clone() *MemStore {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := NewMemStore()
	for k, v := range m.byHash {
		cp.byHash[k] = v
	}
	for k, v := range m.byNumber {
		cp.byNumber[k] = v
	}
	cp.head = m.head
	cp.headSet = m.headSet
	return cp
}
