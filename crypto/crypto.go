// Package crypto provides the cryptographic primitives the engine treats as
// an external collaborator: hashing for addresses/roots and signature
// recovery for transaction senders. Grounded on the teacher's crypto
// package, which wires the same two third-party libraries.
package crypto

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	decred_ecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/vmchain/execengine/common"
)

// DigestLength is the output size of Keccak256.
const DigestLength = 32

// Keccak256 hashes the concatenation of the given byte slices.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash hashes the concatenation of the given byte slices into a Hash.
func Keccak256Hash(data ...[]byte) common.Hash {
	return common.BytesToHash(Keccak256(data...))
}

// CreateAddress derives a contract address from a sender and nonce as
// keccak256(sender ++ nonce)[12:], where nonce is its minimal big-endian
// bytes (empty for zero). No RLP framing is applied, so the result differs
// from the classic keccak256(rlp([sender, nonce]))[12:] address.
func CreateAddress(sender common.Address, nonce uint64) common.Address {
	nonceBytes := big.NewInt(0).SetUint64(nonce).Bytes()
	payload := append(append([]byte{}, sender.Bytes()...), nonceBytes...)
	return common.BytesToAddress(Keccak256(payload))
}

// CreateAddress2 derives a CREATE2 contract address:
// addr = keccak256(0xff ++ sender ++ salt ++ keccak256(initCode))[12:]
func CreateAddress2(sender common.Address, salt [32]byte, codeHash []byte) common.Address {
	payload := make([]byte, 0, 1+20+32+32)
	payload = append(payload, 0xff)
	payload = append(payload, sender.Bytes()...)
	payload = append(payload, salt[:]...)
	payload = append(payload, codeHash...)
	return common.BytesToAddress(Keccak256(payload))
}

// Signature represents a recoverable secp256k1 signature: 32-byte r, 32-byte
// s, and a single recovery byte v in {0,1}.
type Signature struct {
	R, S [32]byte
	V    byte
}

// Ecrecover recovers the uncompressed public key that produced sig over hash.
func Ecrecover(hash []byte, sig Signature) ([]byte, error) {
	if len(hash) != DigestLength {
		return nil, errors.New("crypto: invalid hash length for ecrecover")
	}
	compact := make([]byte, 65)
	compact[0] = sig.V + 27
	copy(compact[1:33], sig.R[:])
	copy(compact[33:], sig.S[:])

	pub, _, err := decred_ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, fmt.Errorf("crypto: ecrecover failed: %w", err)
	}
	return pub.SerializeUncompressed(), nil
}

// PubkeyToAddress derives the 20-byte account address from an uncompressed
// secp256k1 public key (the low 20 bytes of Keccak256 of the 64-byte X||Y
// body, skipping the leading 0x04 prefix byte).
func PubkeyToAddress(pub []byte) (common.Address, error) {
	if len(pub) != 65 || pub[0] != 0x04 {
		return common.Address{}, errors.New("crypto: expected 65-byte uncompressed public key")
	}
	return common.BytesToAddress(Keccak256(pub[1:])), nil
}

// Sign produces a recoverable signature over hash using the secp256k1
// private key scalar priv. Provided for test fixtures that need to sign
// synthetic transactions without a wallet.
func Sign(hash []byte, priv *secp256k1.PrivateKey) (Signature, error) {
	if len(hash) != DigestLength {
		return Signature{}, errors.New("crypto: invalid hash length for sign")
	}
	sig := decred_ecdsa.SignCompact(priv, hash, false)
	if len(sig) != 65 {
		return Signature{}, errors.New("crypto: unexpected signature length")
	}
	var out Signature
	out.V = sig[0] - 27
	copy(out.R[:], sig[1:33])
	copy(out.S[:], sig[33:])
	return out, nil
}

// S256 returns the secp256k1 curve, exposed for callers that need curve
// parameters (e.g. bit-length validation of signature components).
func S256() *secp256k1.KoblitzCurve { return secp256k1.S256() }
