// Package common holds the small value types shared by every layer of the
// engine: fixed-size addresses and hashes, plus the handful of conversion
// helpers the rest of the tree leans on.
package common

import (
	"encoding/hex"
	"math/big"
)

const (
	// AddressLength is the length of an account address in bytes.
	AddressLength = 20
	// HashLength is the length of a state/transaction/block hash in bytes.
	HashLength = 32
)

// Address represents a 20-byte account identifier.
type Address [AddressLength]byte

// BytesToAddress returns Address with value b.
// If b is larger than len(h), b will be cropped from the left.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// Bytes returns the raw byte representation of the address.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the hex string representation of the address, 0x-prefixed.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

// String implements fmt.Stringer.
func (a Address) String() string { return a.Hex() }

// Cmp compares two addresses lexically.
func (a Address) Cmp(other Address) int {
	for i := range a {
		if a[i] != other[i] {
			if a[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// IsZero reports whether the address is the zero address.
func (a Address) IsZero() bool { return a == (Address{}) }

// Hash represents a 32-byte state/transaction/block identifier.
type Hash [HashLength]byte

// BytesToHash returns Hash with value b, left-padded/cropped as needed.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// Bytes returns the raw byte representation of the hash.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the hex string representation of the hash, 0x-prefixed.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// IsZero reports whether the hash is the zero hash.
func (h Hash) IsZero() bool { return h == (Hash{}) }

// Big returns the hash interpreted as a big-endian unsigned integer.
func (h Hash) Big() *big.Int { return new(big.Int).SetBytes(h[:]) }

// CopyBytes returns an exact copy of the provided slice.
func CopyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
