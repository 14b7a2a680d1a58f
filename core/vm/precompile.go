package vm

import (
	"crypto/sha256"

	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/crypto"
)

// PrecompiledContract is a fixed-address native contract. Grounded on the
// teacher's core/vm/contracts.go PrecompiledContract interface.
type PrecompiledContract interface {
	RequiredGas(input []byte) uint64
	Run(input []byte) ([]byte, error)
}

// Precompiles is the fixed address table named by spec §3's "pre-warmed
// at tx start ... every precompile address" and supplemented in §12 with
// concrete natives: a caller needs *some* addresses to pre-warm, so this
// engine ships ecrecover, sha256 and identity at their conventional
// addresses 1, 2 and 4.
var Precompiles = map[common.Address]PrecompiledContract{
	common.BytesToAddress([]byte{1}): &ecrecoverPrecompile{},
	common.BytesToAddress([]byte{2}): &sha256hashPrecompile{},
	common.BytesToAddress([]byte{4}): &identityPrecompile{},
}

// PrecompileAddresses lists the addresses in Precompiles, used by the
// transaction runner to pre-warm them at transaction start (spec §3).
func PrecompileAddresses() []common.Address {
	addrs := make([]common.Address, 0, len(Precompiles))
	for a := range Precompiles {
		addrs = append(addrs, a)
	}
	return addrs
}

type identityPrecompile struct{}

func (identityPrecompile) RequiredGas(input []byte) uint64 {
	return 15 + 3*wordCount(uint64(len(input)))
}

func (identityPrecompile) Run(input []byte) ([]byte, error) {
	out := make([]byte, len(input))
	copy(out, input)
	return out, nil
}

type sha256hashPrecompile struct{}

func (sha256hashPrecompile) RequiredGas(input []byte) uint64 {
	return 60 + 12*wordCount(uint64(len(input)))
}

func (sha256hashPrecompile) Run(input []byte) ([]byte, error) {
	h := sha256.Sum256(input)
	return h[:], nil
}

type ecrecoverPrecompile struct{}

func (ecrecoverPrecompile) RequiredGas(input []byte) uint64 { return 3000 }

// Run recovers the signing public key from a 128-byte {hash, v, r, s}
// input, mirroring the teacher's contracts.go ecrecover precompile, and
// returns the left-zero-padded recovered address.
func (ecrecoverPrecompile) Run(input []byte) ([]byte, error) {
	const inputLen = 128
	buf := make([]byte, inputLen)
	copy(buf, input)

	var sig crypto.Signature
	copy(sig.R[:], buf[64:96])
	copy(sig.S[:], buf[96:128])
	if buf[63] >= 27 {
		sig.V = buf[63] - 27
	} else {
		sig.V = buf[63]
	}
	pub, err := crypto.Ecrecover(buf[:32], sig)
	if err != nil {
		return nil, err
	}
	addr, err := crypto.PubkeyToAddress(pub)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 32)
	copy(out[12:], addr.Bytes())
	return out, nil
}
