package types

import (
	"errors"
	"math/big"

	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/crypto"
)

// TxKind distinguishes the polymorphic transaction variants named in
// spec §3: legacy, access-list, fee-market.
type TxKind uint8

const (
	LegacyTxKind TxKind = iota
	AccessListTxKind
	FeeMarketTxKind
)

// AccessTuple is one (address, storage-keys) entry of an access list.
type AccessTuple struct {
	Address     common.Address
	StorageKeys []common.Hash
}

// AccessList is the EIP-2930-style list of addresses and storage keys a
// transaction pre-declares it will touch.
type AccessList []AccessTuple

// StorageKeys returns the total number of storage keys across all tuples.
func (al AccessList) StorageKeys() int {
	n := 0
	for _, tuple := range al {
		n += len(tuple.StorageKeys)
	}
	return n
}

// txData is the variant-specific payload every Transaction wraps.
type txData struct {
	Kind TxKind

	ChainID    *big.Int // nil for legacy transactions without replay protection
	Nonce      uint64
	GasLimit   uint64
	To         *common.Address // nil ⇒ contract creation
	Value      *big.Int
	Data       []byte
	AccessList AccessList

	// Legacy / access-list pricing.
	GasPrice *big.Int

	// Fee-market pricing (spec §3's "fee-market" variant).
	GasFeeCap *big.Int
	GasTipCap *big.Int

	// Signature.
	Sig crypto.Signature

	cachedSender *common.Address
}

// Transaction is the immutable, signed transaction envelope. Construction
// happens through the New*Tx constructors; signature recovery is memoized.
type Transaction struct {
	data txData
	hash *common.Hash
}

// NewLegacyTx constructs a signed legacy transaction.
func NewLegacyTx(nonce uint64, to *common.Address, value *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte, sig crypto.Signature) *Transaction {
	return &Transaction{data: txData{
		Kind: LegacyTxKind, Nonce: nonce, To: to, Value: value,
		GasLimit: gasLimit, GasPrice: gasPrice, Data: data, Sig: sig,
	}}
}

// NewAccessListTx constructs a signed access-list transaction.
func NewAccessListTx(chainID *big.Int, nonce uint64, to *common.Address, value *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte, al AccessList, sig crypto.Signature) *Transaction {
	return &Transaction{data: txData{
		Kind: AccessListTxKind, ChainID: chainID, Nonce: nonce, To: to, Value: value,
		GasLimit: gasLimit, GasPrice: gasPrice, Data: data, AccessList: al, Sig: sig,
	}}
}

// NewFeeMarketTx constructs a signed fee-market transaction.
func NewFeeMarketTx(chainID *big.Int, nonce uint64, to *common.Address, value *big.Int, gasLimit uint64, gasFeeCap, gasTipCap *big.Int, data []byte, al AccessList, sig crypto.Signature) *Transaction {
	return &Transaction{data: txData{
		Kind: FeeMarketTxKind, ChainID: chainID, Nonce: nonce, To: to, Value: value,
		GasLimit: gasLimit, GasFeeCap: gasFeeCap, GasTipCap: gasTipCap, Data: data, AccessList: al, Sig: sig,
	}}
}

func (tx *Transaction) Kind() TxKind           { return tx.data.Kind }
func (tx *Transaction) ChainID() *big.Int      { return tx.data.ChainID }
func (tx *Transaction) Nonce() uint64          { return tx.data.Nonce }
func (tx *Transaction) To() *common.Address    { return tx.data.To }
func (tx *Transaction) Value() *big.Int        { return tx.data.Value }
func (tx *Transaction) Gas() uint64            { return tx.data.GasLimit }
func (tx *Transaction) Data() []byte           { return tx.data.Data }
func (tx *Transaction) AccessList() AccessList { return tx.data.AccessList }

// Signature returns the transaction's signature, needed by anything that
// persists or re-derives the signed envelope (the durable block store's
// codec, in particular) rather than just replaying it in-process.
func (tx *Transaction) Signature() crypto.Signature { return tx.data.Sig }

// GasPrice returns the legacy/access-list gas price, or the fee-market
// GasFeeCap when the transaction carries no flat price, matching the
// teacher's TransactionToMessage fallback behavior.
func (tx *Transaction) GasPrice() *big.Int {
	if tx.data.GasPrice != nil {
		return new(big.Int).Set(tx.data.GasPrice)
	}
	return new(big.Int).Set(tx.data.GasFeeCap)
}

func (tx *Transaction) GasFeeCap() *big.Int {
	if tx.data.GasFeeCap != nil {
		return new(big.Int).Set(tx.data.GasFeeCap)
	}
	return new(big.Int).Set(tx.data.GasPrice)
}

func (tx *Transaction) GasTipCap() *big.Int {
	if tx.data.GasTipCap != nil {
		return new(big.Int).Set(tx.data.GasTipCap)
	}
	return new(big.Int).Set(tx.GasPrice())
}

// IsContractCreation reports whether the transaction has no recipient.
func (tx *Transaction) IsContractCreation() bool { return tx.data.To == nil }

// SigningHash returns the hash the transaction's signature was produced
// over. A real implementation would RLP-encode the signing payload per
// variant; this engine inlines a minimal, deterministic encoding since
// general RLP is outside its scope (wire format is an external-collaborator
// concern per spec §1).
func (tx *Transaction) SigningHash() common.Hash {
	buf := make([]byte, 0, 128)
	buf = append(buf, byte(tx.data.Kind))
	if tx.data.ChainID != nil {
		buf = append(buf, tx.data.ChainID.Bytes()...)
	}
	buf = appendUint64(buf, tx.data.Nonce)
	buf = appendUint64(buf, tx.data.GasLimit)
	if tx.data.To != nil {
		buf = append(buf, tx.data.To.Bytes()...)
	}
	if tx.data.Value != nil {
		buf = append(buf, tx.data.Value.Bytes()...)
	}
	buf = append(buf, tx.data.Data...)
	return crypto.Keccak256Hash(buf)
}

func appendUint64(b []byte, v uint64) []byte {
	var tmp [8]byte
	for i := 7; i >= 0; i-- {
		tmp[i] = byte(v)
		v >>= 8
	}
	return append(b, tmp[:]...)
}

// Hash returns the transaction's identifying hash, memoized.
func (tx *Transaction) Hash() common.Hash {
	if tx.hash != nil {
		return *tx.hash
	}
	h := crypto.Keccak256Hash(tx.SigningHash().Bytes(), tx.data.Sig.R[:], tx.data.Sig.S[:], []byte{tx.data.Sig.V})
	tx.hash = &h
	return h
}

// Sender recovers and memoizes the transaction's sender from its signature.
func (tx *Transaction) Sender() (common.Address, error) {
	if tx.data.cachedSender != nil {
		return *tx.data.cachedSender, nil
	}
	pub, err := crypto.Ecrecover(tx.SigningHash().Bytes(), tx.data.Sig)
	if err != nil {
		return common.Address{}, errors.New("types: invalid transaction signature")
	}
	addr, err := crypto.PubkeyToAddress(pub)
	if err != nil {
		return common.Address{}, err
	}
	tx.data.cachedSender = &addr
	return addr, nil
}
