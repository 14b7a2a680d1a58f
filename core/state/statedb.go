package state

import (
	"sort"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/holiman/uint256"

	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/core/types"
	"github.com/vmchain/execengine/crypto"
)

// account is the StateDB's private view of one address: the committed
// account record plus its dirty storage and the storage values it held
// the first time this process touched them, used for refund accounting.
type account struct {
	acct     *types.Account
	storage  map[common.Hash]common.Hash
	original map[common.Hash]common.Hash
	code     []byte
}

func newAccount() *account {
	return &account{
		acct:     types.NewEmptyAccount(),
		storage:  make(map[common.Hash]common.Hash),
		original: make(map[common.Hash]common.Hash),
	}
}

func (a *account) copy() *account {
	if a == nil {
		return nil
	}
	cp := &account{
		acct:     a.acct.Copy(),
		storage:  make(map[common.Hash]common.Hash, len(a.storage)),
		original: make(map[common.Hash]common.Hash, len(a.original)),
		code:     a.code,
	}
	for k, v := range a.storage {
		cp.storage[k] = v
	}
	for k, v := range a.original {
		cp.original[k] = v
	}
	return cp
}

// StateDB is the concrete StateStore of spec §4.2, grounded on the
// teacher's core/state/statedb.go: an in-memory account/storage map
// guarded by a journal of undoable diffs, plus a fastcache-backed
// contract code cache in place of the teacher's on-disk trie database
// (persistence across blocks is the blockstore package's concern).
type StateDB struct {
	accounts   map[common.Address]*account
	destructed map[common.Address]struct{}
	transient  map[common.Address]map[common.Hash]common.Hash

	journal *journal
	access  *accessSet
	refund  uint64

	codeCache *fastcache.Cache
}

// New returns an empty StateDB with a code cache sized for a single
// block's worth of contract bytecode.
func New() *StateDB {
	return &StateDB{
		accounts:   make(map[common.Address]*account),
		destructed: make(map[common.Address]struct{}),
		transient:  make(map[common.Address]map[common.Hash]common.Hash),
		journal:    newJournal(),
		access:     newAccessSet(),
		codeCache:  fastcache.New(32 * 1024 * 1024),
	}
}

func (s *StateDB) getOrCreate(addr common.Address) *account {
	if obj, ok := s.accounts[addr]; ok {
		return obj
	}
	obj := newAccount()
	s.accounts[addr] = obj
	s.journal.append(createAccountChange{addr: addr})
	return obj
}

// restore replaces the account slot wholesale, used by journal entries
// unwinding a checkpoint. prev == nil means the address did not exist at
// the time the entry was recorded.
func (s *StateDB) restore(addr common.Address, prev *account) {
	if prev == nil {
		delete(s.accounts, addr)
		return
	}
	s.accounts[addr] = prev
}

// --- account access ---

func (s *StateDB) GetAccount(addr common.Address) *types.Account {
	if obj, ok := s.accounts[addr]; ok {
		return obj.acct
	}
	return types.NewEmptyAccount()
}

func (s *StateDB) PutAccount(addr common.Address, acct *types.Account) {
	prev := s.accounts[addr].copy()
	obj := s.getOrCreate(addr)
	obj.acct = acct.Copy()
	s.journal.append(accountChange{addr: addr, prev: prev})
}

func (s *StateDB) DeleteAccount(addr common.Address) {
	prev := s.accounts[addr].copy()
	if prev == nil {
		return
	}
	delete(s.accounts, addr)
	s.journal.append(deleteAccountChange{addr: addr, prev: prev})
}

func (s *StateDB) Exist(addr common.Address) bool {
	_, ok := s.accounts[addr]
	return ok
}

func (s *StateDB) GetBalance(addr common.Address) *uint256.Int {
	return s.GetAccount(addr).Balance
}

func (s *StateDB) AddBalance(addr common.Address, amount *uint256.Int) {
	prev := s.accounts[addr].copy()
	obj := s.getOrCreate(addr)
	obj.acct.Balance = new(uint256.Int).Add(obj.acct.Balance, amount)
	s.journal.append(accountChange{addr: addr, prev: prev})
}

func (s *StateDB) SubBalance(addr common.Address, amount *uint256.Int) {
	prev := s.accounts[addr].copy()
	obj := s.getOrCreate(addr)
	obj.acct.Balance = new(uint256.Int).Sub(obj.acct.Balance, amount)
	s.journal.append(accountChange{addr: addr, prev: prev})
}

func (s *StateDB) GetNonce(addr common.Address) uint64 {
	return s.GetAccount(addr).Nonce
}

func (s *StateDB) SetNonce(addr common.Address, nonce uint64) {
	prev := s.accounts[addr].copy()
	obj := s.getOrCreate(addr)
	obj.acct.Nonce = nonce
	s.journal.append(accountChange{addr: addr, prev: prev})
}

// --- code access ---

func (s *StateDB) GetContractCode(addr common.Address) []byte {
	obj, ok := s.accounts[addr]
	if !ok || obj.acct.CodeHash == types.EmptyCodeHash {
		return nil
	}
	if obj.code != nil {
		return obj.code
	}
	if code, ok := s.codeCache.HasGet(nil, obj.acct.CodeHash.Bytes()); ok {
		return code
	}
	return nil
}

func (s *StateDB) PutContractCode(addr common.Address, code []byte) {
	prev := s.accounts[addr].copy()
	obj := s.getOrCreate(addr)
	hash := crypto.Keccak256Hash(code)
	obj.acct.CodeHash = hash
	obj.code = code
	s.codeCache.Set(hash.Bytes(), code)
	s.journal.append(accountChange{addr: addr, prev: prev})
}

func (s *StateDB) GetCodeHash(addr common.Address) common.Hash {
	return s.GetAccount(addr).CodeHash
}

// --- storage access ---

func (s *StateDB) GetContractStorage(addr common.Address, key common.Hash) common.Hash {
	obj, ok := s.accounts[addr]
	if !ok {
		return common.Hash{}
	}
	return obj.storage[key]
}

func (s *StateDB) PutContractStorage(addr common.Address, key common.Hash, value common.Hash) {
	obj := s.getOrCreate(addr)
	if _, tracked := obj.original[key]; !tracked {
		obj.original[key] = obj.storage[key]
	}
	prevVal, prevSet := obj.storage[key]
	if value.IsZero() {
		delete(obj.storage, key)
	} else {
		obj.storage[key] = value
	}
	s.journal.append(storageChange{addr: addr, key: key, prevVal: prevVal, prevSet: prevSet})
}

func (s *StateDB) GetOriginalContractStorage(addr common.Address, key common.Hash) common.Hash {
	obj, ok := s.accounts[addr]
	if !ok {
		return common.Hash{}
	}
	if v, tracked := obj.original[key]; tracked {
		return v
	}
	return obj.storage[key]
}

// --- checkpoint discipline ---

func (s *StateDB) Checkpoint() int { return s.journal.open() }

func (s *StateDB) Commit(id int) {
	if err := s.journal.commit(id); err != nil {
		panic(err)
	}
}

func (s *StateDB) Revert(id int) {
	if err := s.journal.revert(id, s); err != nil {
		panic(err)
	}
}

// Copy returns an independent StateDB sharing no mutable state with the
// receiver: a fresh journal and access set (both are transaction-scoped
// and therefore always empty at a commit boundary), a deep copy of every
// account, and the same code cache, since code is content-addressed and
// safe to share across clones. Grounded on the teacher's StateDB.Copy,
// minus its snapshot-tree bookkeeping (this engine has no nested
// call-frame snapshots to carry across a copy).
func (s *StateDB) Copy() StateStore {
	cp := &StateDB{
		accounts:   make(map[common.Address]*account, len(s.accounts)),
		destructed: make(map[common.Address]struct{}, len(s.destructed)),
		transient:  make(map[common.Address]map[common.Hash]common.Hash),
		journal:    newJournal(),
		access:     newAccessSet(),
		codeCache:  s.codeCache,
	}
	for addr, obj := range s.accounts {
		cp.accounts[addr] = obj.copy()
	}
	for addr := range s.destructed {
		cp.destructed[addr] = struct{}{}
	}
	return cp
}

// GetStateRoot folds every account currently in memory and its storage
// into a single hash, including changes made inside checkpoints that are
// still open. It stands in for the Merkle-Patricia root a production
// trie would compute; persistence and proofs are out of this engine's
// scope (spec §1).
func (s *StateDB) GetStateRoot() common.Hash {
	addrs := make([]common.Address, 0, len(s.accounts))
	for addr := range s.accounts {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Cmp(addrs[j]) < 0 })

	var buf []byte
	for _, addr := range addrs {
		obj := s.accounts[addr]
		buf = append(buf, addr.Bytes()...)
		balance := obj.acct.Balance.Bytes32()
		buf = append(buf, balance[:]...)
		buf = append(buf, obj.acct.CodeHash.Bytes()...)

		keys := make([]common.Hash, 0, len(obj.storage))
		for k := range obj.storage {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].Hex() < keys[j].Hex() })
		for _, k := range keys {
			buf = append(buf, k.Bytes()...)
			v := obj.storage[k]
			buf = append(buf, v.Bytes()...)
		}
	}
	return crypto.Keccak256Hash(buf)
}

// --- access-list tracking ---

func (s *StateDB) AddressIsWarm(addr common.Address) bool { return s.access.AddressIsWarm(addr) }

func (s *StateDB) StorageIsWarm(addr common.Address, key common.Hash) bool {
	return s.access.StorageIsWarm(addr, key)
}

func (s *StateDB) WarmAddress(addr common.Address) {
	key := addressKey(addr)
	if s.access.warm.Contains(key) {
		return
	}
	s.access.warm.Add(key)
	s.journal.append(accessChange{key: key})
}

func (s *StateDB) WarmStorage(addr common.Address, slot common.Hash) {
	key := storageKey(addr, slot)
	if s.access.warm.Contains(key) {
		return
	}
	s.access.warm.Add(key)
	s.journal.append(accessChange{key: key})
}

// --- refund counter ---

func (s *StateDB) AddRefund(gas uint64) {
	prev := s.refund
	s.refund += gas
	s.journal.append(refundChange{prev: prev})
}

func (s *StateDB) SubRefund(gas uint64) {
	prev := s.refund
	if gas > s.refund {
		panic("state: refund counter underflow")
	}
	s.refund -= gas
	s.journal.append(refundChange{prev: prev})
}

func (s *StateDB) GetRefund() uint64 { return s.refund }

// --- transient storage ---

func (s *StateDB) GetTransientState(addr common.Address, key common.Hash) common.Hash {
	m, ok := s.transient[addr]
	if !ok {
		return common.Hash{}
	}
	return m[key]
}

func (s *StateDB) SetTransientState(addr common.Address, key common.Hash, value common.Hash) {
	m, ok := s.transient[addr]
	if !ok {
		m = make(map[common.Hash]common.Hash)
		s.transient[addr] = m
	}
	prevVal, prevSet := m[key]
	if value.IsZero() {
		delete(m, key)
	} else {
		m[key] = value
	}
	s.journal.append(transientChange{addr: addr, key: key, prevVal: prevVal, prevSet: prevSet})
}

// ResetTransient clears all transient storage; the transaction runner
// calls this at every transaction boundary (spec §3).
func (s *StateDB) ResetTransient() {
	s.transient = make(map[common.Address]map[common.Hash]common.Hash)
}

// --- self-destruct tracking ---

func (s *StateDB) SelfDestruct(addr common.Address) {
	if _, ok := s.destructed[addr]; ok {
		return
	}
	s.destructed[addr] = struct{}{}
	s.journal.append(selfDestructChange{addr: addr, prev: false})
}

func (s *StateDB) HasSelfDestructed(addr common.Address) bool {
	_, ok := s.destructed[addr]
	return ok
}

func (s *StateDB) SelfDestructSet() []common.Address {
	out := make([]common.Address, 0, len(s.destructed))
	for addr := range s.destructed {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

// Empty reports the spec §3 empty-account predicate: zero nonce, zero
// balance, and no code.
func (s *StateDB) Empty(addr common.Address) bool {
	obj, ok := s.accounts[addr]
	if !ok {
		return true
	}
	return obj.acct.IsEmpty()
}
