package core

import (
	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/core/types"
	"github.com/vmchain/execengine/crypto"
)

// ComputeTxRoot and ComputeReceiptRoot fold a block's transaction/receipt
// list, in order, into a single Keccak256 accumulator. Both stand in for
// a real Merkle-Patricia trie root (spec §1 treats tries as an external
// collaborator) while still being order-sensitive and collision-resistant
// enough to detect any divergence the block runner needs to catch.
func ComputeTxRoot(txs []*types.Transaction) common.Hash {
	if len(txs) == 0 {
		return emptyListRoot
	}
	buf := make([]byte, 0, 32*len(txs))
	for _, tx := range txs {
		h := tx.Hash()
		buf = append(buf, h.Bytes()...)
	}
	return crypto.Keccak256Hash(buf)
}

func ComputeReceiptRoot(receipts []*types.Receipt) common.Hash {
	if len(receipts) == 0 {
		return emptyListRoot
	}
	buf := make([]byte, 0, 64*len(receipts))
	for _, r := range receipts {
		buf = append(buf, byte(r.Status))
		buf = append(buf, r.Bloom[:]...)
		for _, log := range r.Logs {
			buf = append(buf, log.Address.Bytes()...)
			for _, t := range log.Topics {
				buf = append(buf, t.Bytes()...)
			}
			buf = append(buf, log.Data...)
		}
	}
	return crypto.Keccak256Hash(buf)
}

// emptyListRoot is the fixed hash assigned to a zero-element transaction
// or receipt list (spec §8 scenario S1's emptyTrieRoot), computed once
// over the empty byte string rather than re-hashed on every empty block.
var emptyListRoot = crypto.Keccak256Hash(nil)
