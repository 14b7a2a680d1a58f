package state

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/vmchain/execengine/common"
)

// accessKey is the tagged variant of spec §9's design note: address-only
// and address-plus-slot warmth are the same kind of fact, so they live in
// one set keyed by a discriminated struct rather than two parallel maps.
type accessKey struct {
	Addr    common.Address
	Slot    common.Hash
	HasSlot bool
}

func addressKey(addr common.Address) accessKey {
	return accessKey{Addr: addr}
}

func storageKey(addr common.Address, slot common.Hash) accessKey {
	return accessKey{Addr: addr, Slot: slot, HasSlot: true}
}

// accessSet tracks which addresses and storage slots have been touched
// ("warmed") during the current transaction, per the access-list amendment
// (spec §4.1's AccessLists amendment, EIP-2929/2930 in the teacher).
type accessSet struct {
	warm mapset.Set[accessKey]
}

func newAccessSet() *accessSet {
	return &accessSet{warm: mapset.NewThreadUnsafeSet[accessKey]()}
}

func (a *accessSet) AddressIsWarm(addr common.Address) bool {
	return a.warm.Contains(addressKey(addr))
}

func (a *accessSet) StorageIsWarm(addr common.Address, slot common.Hash) bool {
	return a.warm.Contains(storageKey(addr, slot))
}

func (a *accessSet) Remove(key accessKey) {
	a.warm.Remove(key)
}
