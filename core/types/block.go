package types

import (
	"math/big"

	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/crypto"
)

// Header is the block header of spec §3: everything the block runner
// must validate against the parent and everything a sealed block commits
// roots into.
type Header struct {
	ParentHash common.Hash
	Coinbase   common.Address
	StateRoot  common.Hash
	TxRoot     common.Hash
	ReceiptRoot common.Hash
	LogsBloom  Bloom

	Difficulty *big.Int // nil when the active rule-set has no difficulty field
	Number     *big.Int
	GasLimit   uint64
	GasUsed    uint64
	Timestamp  uint64
	BaseFee    *big.Int // nil unless the fee-market amendment is active
	MixHash    common.Hash
}

// Copy returns a deep copy, used by the block builder / generator to
// produce a provisional header it can mutate freely.
func (h *Header) Copy() *Header {
	cp := *h
	if h.Difficulty != nil {
		cp.Difficulty = new(big.Int).Set(h.Difficulty)
	}
	if h.Number != nil {
		cp.Number = new(big.Int).Set(h.Number)
	}
	if h.BaseFee != nil {
		cp.BaseFee = new(big.Int).Set(h.BaseFee)
	}
	return &cp
}

// Hash returns the header's identifying hash, a deterministic fold of
// its fields over Keccak256. Stands in for a real RLP-encoded block hash
// since wire encoding is an external-collaborator concern (spec §1).
func (h *Header) Hash() common.Hash {
	buf := make([]byte, 0, 256)
	buf = append(buf, h.ParentHash.Bytes()...)
	buf = append(buf, h.Coinbase.Bytes()...)
	buf = append(buf, h.StateRoot.Bytes()...)
	buf = append(buf, h.TxRoot.Bytes()...)
	buf = append(buf, h.ReceiptRoot.Bytes()...)
	buf = append(buf, h.LogsBloom[:]...)
	if h.Difficulty != nil {
		buf = append(buf, h.Difficulty.Bytes()...)
	}
	if h.Number != nil {
		buf = append(buf, h.Number.Bytes()...)
	}
	buf = appendUint64(buf, h.GasLimit)
	buf = appendUint64(buf, h.GasUsed)
	buf = appendUint64(buf, h.Timestamp)
	if h.BaseFee != nil {
		buf = append(buf, h.BaseFee.Bytes()...)
	}
	buf = append(buf, h.MixHash.Bytes()...)
	return crypto.Keccak256Hash(buf)
}

// Block pairs a header with its ordered transaction list and (where the
// active rule-set has uncles) uncle header list.
type Block struct {
	Header       *Header
	Transactions []*Transaction
	Uncles       []*Header
}

// NewBlock constructs a Block from a header and transaction list. The
// header's TxRoot/ReceiptRoot/LogsBloom/GasUsed fields are the caller's
// responsibility to have already populated (the block runner/builder do
// this before sealing).
func NewBlock(header *Header, txs []*Transaction, uncles []*Header) *Block {
	return &Block{Header: header, Transactions: txs, Uncles: uncles}
}

func (b *Block) Number() *big.Int        { return b.Header.Number }
func (b *Block) NumberU64() uint64       { return b.Header.Number.Uint64() }
func (b *Block) GasLimit() uint64        { return b.Header.GasLimit }
func (b *Block) GasUsed() uint64         { return b.Header.GasUsed }
func (b *Block) Time() uint64            { return b.Header.Timestamp }
func (b *Block) Coinbase() common.Address { return b.Header.Coinbase }
func (b *Block) ParentHash() common.Hash { return b.Header.ParentHash }
func (b *Block) Hash() common.Hash       { return b.Header.Hash() }
