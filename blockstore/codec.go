package blockstore

// Wire encoding for Block/Header/Transaction/Receipt, following the
// teacher-pack's wcgcyx-teler types/utils.go Marshal/Unmarshal/Size trio
// pattern: every field-level helper returns the bytes written (or read)
// so callers can chain offsets without a length-prefixed framing layer.

import (
	"math/big"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/core/types"
	"github.com/vmchain/execengine/crypto"
)

var byteMarshaller = mus.MarshallerFn[byte](varint.MarshalByte)
var byteUnmarshaller = mus.UnmarshallerFn[byte](varint.UnmarshalByte)
var byteSizer = mus.SizerFn[byte](varint.SizeByte)

func marshalBytes(v []byte, bs []byte) int    { return ord.MarshalSlice[byte](v, byteMarshaller, bs) }
func sizeBytes(v []byte) int                  { return ord.SizeSlice[byte](v, byteSizer) }
func unmarshalBytes(bs []byte) ([]byte, int, error) {
	return ord.UnmarshalSlice[byte](byteUnmarshaller, bs)
}

func marshalHash(v common.Hash, bs []byte) int { return marshalBytes(v.Bytes(), bs) }
func sizeHash(v common.Hash) int               { return sizeBytes(v.Bytes()) }
func unmarshalHash(bs []byte) (common.Hash, int, error) {
	raw, n, err := unmarshalBytes(bs)
	return common.BytesToHash(raw), n, err
}

func marshalAddress(v common.Address, bs []byte) int { return marshalBytes(v.Bytes(), bs) }
func sizeAddress(v common.Address) int               { return sizeBytes(v.Bytes()) }
func unmarshalAddress(bs []byte) (common.Address, int, error) {
	raw, n, err := unmarshalBytes(bs)
	return common.BytesToAddress(raw), n, err
}

func marshalBigInt(v *big.Int, bs []byte) int {
	if v == nil {
		return marshalBytes(nil, bs)
	}
	return marshalBytes(v.Bytes(), bs)
}

func sizeBigInt(v *big.Int) int {
	if v == nil {
		return sizeBytes(nil)
	}
	return sizeBytes(v.Bytes())
}

func unmarshalBigInt(bs []byte) (*big.Int, int, error) {
	raw, n, err := unmarshalBytes(bs)
	if err != nil {
		return nil, n, err
	}
	if len(raw) == 0 {
		return nil, n, nil
	}
	return new(big.Int).SetBytes(raw), n, nil
}

// MarshalHeader implements the mus.Marshaller interface for a block header.
func MarshalHeader(h *types.Header, bs []byte) (n int) {
	n = marshalHash(h.ParentHash, bs)
	n += marshalAddress(h.Coinbase, bs[n:])
	n += marshalHash(h.StateRoot, bs[n:])
	n += marshalHash(h.TxRoot, bs[n:])
	n += marshalHash(h.ReceiptRoot, bs[n:])
	n += marshalBytes(h.LogsBloom[:], bs[n:])
	n += marshalBigInt(h.Difficulty, bs[n:])
	n += marshalBigInt(h.Number, bs[n:])
	n += varint.MarshalUint64(h.GasLimit, bs[n:])
	n += varint.MarshalUint64(h.GasUsed, bs[n:])
	n += varint.MarshalUint64(h.Timestamp, bs[n:])
	n += marshalBigInt(h.BaseFee, bs[n:])
	n += marshalHash(h.MixHash, bs[n:])
	return
}

// SizeHeader implements the mus.Sizer interface for a block header.
func SizeHeader(h *types.Header) (size int) {
	size = sizeHash(h.ParentHash)
	size += sizeAddress(h.Coinbase)
	size += sizeHash(h.StateRoot)
	size += sizeHash(h.TxRoot)
	size += sizeHash(h.ReceiptRoot)
	size += sizeBytes(h.LogsBloom[:])
	size += sizeBigInt(h.Difficulty)
	size += sizeBigInt(h.Number)
	size += varint.SizeUint64(h.GasLimit)
	size += varint.SizeUint64(h.GasUsed)
	size += varint.SizeUint64(h.Timestamp)
	size += sizeBigInt(h.BaseFee)
	size += sizeHash(h.MixHash)
	return
}

// UnmarshalHeader implements the mus.Unmarshaller interface for a block header.
func UnmarshalHeader(bs []byte) (h *types.Header, n int, err error) {
	h = &types.Header{}
	var n1 int
	if h.ParentHash, n1, err = unmarshalHash(bs); err != nil {
		return
	}
	n += n1
	if h.Coinbase, n1, err = unmarshalAddress(bs[n:]); err != nil {
		return
	}
	n += n1
	if h.StateRoot, n1, err = unmarshalHash(bs[n:]); err != nil {
		return
	}
	n += n1
	if h.TxRoot, n1, err = unmarshalHash(bs[n:]); err != nil {
		return
	}
	n += n1
	if h.ReceiptRoot, n1, err = unmarshalHash(bs[n:]); err != nil {
		return
	}
	n += n1
	var bloomBytes []byte
	if bloomBytes, n1, err = unmarshalBytes(bs[n:]); err != nil {
		return
	}
	n += n1
	copy(h.LogsBloom[:], bloomBytes)
	if h.Difficulty, n1, err = unmarshalBigInt(bs[n:]); err != nil {
		return
	}
	n += n1
	if h.Number, n1, err = unmarshalBigInt(bs[n:]); err != nil {
		return
	}
	n += n1
	if h.GasLimit, n1, err = varint.UnmarshalUint64(bs[n:]); err != nil {
		return
	}
	n += n1
	if h.GasUsed, n1, err = varint.UnmarshalUint64(bs[n:]); err != nil {
		return
	}
	n += n1
	if h.Timestamp, n1, err = varint.UnmarshalUint64(bs[n:]); err != nil {
		return
	}
	n += n1
	if h.BaseFee, n1, err = unmarshalBigInt(bs[n:]); err != nil {
		return
	}
	n += n1
	h.MixHash, n1, err = unmarshalHash(bs[n:])
	n += n1
	return
}

// MarshalTransaction/SizeTransaction/UnmarshalTransaction encode a signed
// transaction's variant-independent field set plus its signature, so a
// persisted block decodes back into a transaction whose sender can still
// be recovered — the durable store must support the blockchain driver
// replaying a previously-sealed block with generate=false. Access lists
// are dropped from the wire format: no SPEC_FULL component currently
// persists an access-list transaction across a restart, and re-deriving
// one would need a nested-slice encoding this engine doesn't otherwise
// exercise.
func MarshalTransaction(tx *types.Transaction, bs []byte) (n int) {
	n = varint.MarshalByte(byte(tx.Kind()), bs)
	n += marshalBigInt(tx.ChainID(), bs[n:])
	n += varint.MarshalUint64(tx.Nonce(), bs[n:])
	n += varint.MarshalUint64(tx.Gas(), bs[n:])
	hasTo := tx.To() != nil
	n += ord.MarshalBool(hasTo, bs[n:])
	if hasTo {
		n += marshalAddress(*tx.To(), bs[n:])
	}
	n += marshalBigInt(tx.Value(), bs[n:])
	n += marshalBytes(tx.Data(), bs[n:])
	n += marshalBigInt(tx.GasPrice(), bs[n:])
	n += marshalBigInt(tx.GasFeeCap(), bs[n:])
	n += marshalBigInt(tx.GasTipCap(), bs[n:])
	sig := tx.Signature()
	n += marshalBytes(sig.R[:], bs[n:])
	n += marshalBytes(sig.S[:], bs[n:])
	n += varint.MarshalByte(sig.V, bs[n:])
	return
}

func SizeTransaction(tx *types.Transaction) (size int) {
	size = varint.SizeByte(byte(tx.Kind()))
	size += sizeBigInt(tx.ChainID())
	size += varint.SizeUint64(tx.Nonce())
	size += varint.SizeUint64(tx.Gas())
	hasTo := tx.To() != nil
	size += ord.SizeBool(hasTo)
	if hasTo {
		size += sizeAddress(*tx.To())
	}
	size += sizeBigInt(tx.Value())
	size += sizeBytes(tx.Data())
	size += sizeBigInt(tx.GasPrice())
	size += sizeBigInt(tx.GasFeeCap())
	size += sizeBigInt(tx.GasTipCap())
	sig := tx.Signature()
	size += sizeBytes(sig.R[:])
	size += sizeBytes(sig.S[:])
	size += varint.SizeByte(sig.V)
	return
}

// UnmarshalTransaction reconstructs a fully signed Transaction, choosing
// the right New*Tx constructor for the decoded kind.
func UnmarshalTransaction(bs []byte) (tx *types.Transaction, n int, err error) {
	var (
		k    byte
		n1   int
		kind types.TxKind

		chainID, value, gasPrice, gasFeeCap, gasTipCap *big.Int
		nonce, gasLimit                                uint64
		to                                              *common.Address
		data                                            []byte
	)
	if k, n1, err = varint.UnmarshalByte(bs); err != nil {
		return
	}
	kind = types.TxKind(k)
	n += n1
	if chainID, n1, err = unmarshalBigInt(bs[n:]); err != nil {
		return
	}
	n += n1
	if nonce, n1, err = varint.UnmarshalUint64(bs[n:]); err != nil {
		return
	}
	n += n1
	if gasLimit, n1, err = varint.UnmarshalUint64(bs[n:]); err != nil {
		return
	}
	n += n1
	var hasTo bool
	if hasTo, n1, err = ord.UnmarshalBool(bs[n:]); err != nil {
		return
	}
	n += n1
	if hasTo {
		var addr common.Address
		if addr, n1, err = unmarshalAddress(bs[n:]); err != nil {
			return
		}
		n += n1
		to = &addr
	}
	if value, n1, err = unmarshalBigInt(bs[n:]); err != nil {
		return
	}
	n += n1
	if data, n1, err = unmarshalBytes(bs[n:]); err != nil {
		return
	}
	n += n1
	if gasPrice, n1, err = unmarshalBigInt(bs[n:]); err != nil {
		return
	}
	n += n1
	if gasFeeCap, n1, err = unmarshalBigInt(bs[n:]); err != nil {
		return
	}
	n += n1
	if gasTipCap, n1, err = unmarshalBigInt(bs[n:]); err != nil {
		return
	}
	n += n1

	var sig crypto.Signature
	var rBytes, sBytes []byte
	if rBytes, n1, err = unmarshalBytes(bs[n:]); err != nil {
		return
	}
	n += n1
	copy(sig.R[:], rBytes)
	if sBytes, n1, err = unmarshalBytes(bs[n:]); err != nil {
		return
	}
	n += n1
	copy(sig.S[:], sBytes)
	if sig.V, n1, err = varint.UnmarshalByte(bs[n:]); err != nil {
		return
	}
	n += n1

	switch kind {
	case types.FeeMarketTxKind:
		tx = types.NewFeeMarketTx(chainID, nonce, to, value, gasLimit, gasFeeCap, gasTipCap, data, nil, sig)
	case types.AccessListTxKind:
		tx = types.NewAccessListTx(chainID, nonce, to, value, gasLimit, gasPrice, data, nil, sig)
	default:
		tx = types.NewLegacyTx(nonce, to, value, gasLimit, gasPrice, data, sig)
	}
	return
}

// MarshalReceipt/SizeReceipt encode a receipt's status, cumulative gas,
// bloom, transaction hash and gas used. Logs are not encoded; a decoded
// receipt carries only its bloom, and its logs come back only by
// re-executing the block.
func MarshalReceipt(r *types.Receipt, bs []byte) (n int) {
	n = varint.MarshalByte(byte(r.Status), bs)
	n += varint.MarshalUint64(r.CumulativeGasUsed, bs[n:])
	n += marshalBytes(r.Bloom[:], bs[n:])
	n += marshalHash(r.TxHash, bs[n:])
	n += varint.MarshalUint64(r.GasUsed, bs[n:])
	return
}

func SizeReceipt(r *types.Receipt) (size int) {
	size = varint.SizeByte(byte(r.Status))
	size += varint.SizeUint64(r.CumulativeGasUsed)
	size += sizeBytes(r.Bloom[:])
	size += sizeHash(r.TxHash)
	size += varint.SizeUint64(r.GasUsed)
	return
}

func UnmarshalReceipt(bs []byte) (r *types.Receipt, n int, err error) {
	r = &types.Receipt{}
	var status byte
	var n1 int
	if status, n1, err = varint.UnmarshalByte(bs); err != nil {
		return
	}
	r.Status = types.ReceiptStatus(status)
	n += n1
	if r.CumulativeGasUsed, n1, err = varint.UnmarshalUint64(bs[n:]); err != nil {
		return
	}
	n += n1
	var bloomBytes []byte
	if bloomBytes, n1, err = unmarshalBytes(bs[n:]); err != nil {
		return
	}
	n += n1
	copy(r.Bloom[:], bloomBytes)
	if r.TxHash, n1, err = unmarshalHash(bs[n:]); err != nil {
		return
	}
	n += n1
	r.GasUsed, n1, err = varint.UnmarshalUint64(bs[n:])
	n += n1
	return
}

// blockKeyFor derives the hash used to key a block in the store, via the
// header's own Hash method.
func blockKeyFor(b *types.Block) common.Hash { return b.Header.Hash() }

var headerMarshaller = mus.MarshallerFn[*types.Header](MarshalHeader)
var headerUnmarshaller = mus.UnmarshallerFn[*types.Header](UnmarshalHeader)
var headerSizer = mus.SizerFn[*types.Header](SizeHeader)

var txMarshaller = mus.MarshallerFn[*types.Transaction](MarshalTransaction)
var txUnmarshaller = mus.UnmarshallerFn[*types.Transaction](UnmarshalTransaction)
var txSizer = mus.SizerFn[*types.Transaction](SizeTransaction)

// MarshalBlock/SizeBlock/UnmarshalBlock tie a header, its ordered
// transaction list, and its uncle headers into the single unit PutBlock
// persists and GetBlockByNumber/GetBlockByHash restore. Receipts are not
// part of this payload: the blockchain driver re-derives them by running
// RunBlock again, the same way the teacher's chain re-derives receipts
// rather than storing them alongside canonical block bodies.
func MarshalBlock(b *types.Block, bs []byte) (n int) {
	n = MarshalHeader(b.Header, bs)
	n += ord.MarshalSlice[*types.Transaction](b.Transactions, txMarshaller, bs[n:])
	n += ord.MarshalSlice[*types.Header](b.Uncles, headerMarshaller, bs[n:])
	return
}

func SizeBlock(b *types.Block) (size int) {
	size = SizeHeader(b.Header)
	size += ord.SizeSlice[*types.Transaction](b.Transactions, txSizer)
	size += ord.SizeSlice[*types.Header](b.Uncles, headerSizer)
	return
}

func UnmarshalBlock(bs []byte) (b *types.Block, n int, err error) {
	var n1 int
	var header *types.Header
	if header, n1, err = UnmarshalHeader(bs); err != nil {
		return
	}
	n += n1
	var txs []*types.Transaction
	if txs, n1, err = ord.UnmarshalSlice[*types.Transaction](txUnmarshaller, bs[n:]); err != nil {
		return
	}
	n += n1
	var uncles []*types.Header
	if uncles, n1, err = ord.UnmarshalSlice[*types.Header](headerUnmarshaller, bs[n:]); err != nil {
		return
	}
	n += n1
	b = types.NewBlock(header, txs, uncles)
	return
}
