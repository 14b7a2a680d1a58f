package types

import (
	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/crypto"
)

// Log is a single event emitted by an opcode during a successful call
// frame. The interpreter is the producer; the transaction/block runners
// only aggregate and bloom-index what it returns.
type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte

	// Indexing fields for the log's position within the block. The
	// transaction and block runners do not fill them in; they stay zero
	// unless the caller sets them.
	BlockNumber uint64
	TxHash      common.Hash
	TxIndex     uint
	Index       uint
	Removed     bool
}

// BloomByteLength is the size in bytes of a logs bloom filter.
const BloomByteLength = 256

// Bloom is a 2048-bit bloom filter over an account's address and its log
// topics, used to let clients skip fetching logs that cannot match a
// filter query.
type Bloom [BloomByteLength]byte

// Add folds the byte string's bloom contribution into b (3 set bits, each
// derived from a different slice of the Keccak256 hash of data).
func (b *Bloom) Add(data []byte) {
	hash := crypto.Keccak256(data)
	for i := 0; i < 6; i += 2 {
		bit := (uint(hash[i+1]) + (uint(hash[i]) << 8)) & 2047
		byteIdx := BloomByteLength - 1 - bit/8
		bitIdx := bit % 8
		b[byteIdx] |= 1 << bitIdx
	}
}

// OrBloom ORs other into b in place, matching the block runner's
// cumulative-bloom accumulation (spec §4.5 step 4).
func (b *Bloom) OrBloom(other Bloom) {
	for i := range b {
		b[i] |= other[i]
	}
}

// LogsBloom computes the bloom filter covering every log's address and
// topics, the receipt-level contribution OR'd together at the block level.
func LogsBloom(logs []*Log) Bloom {
	var bloom Bloom
	for _, l := range logs {
		bloom.Add(l.Address.Bytes())
		for _, t := range l.Topics {
			bloom.Add(t.Bytes())
		}
	}
	return bloom
}
