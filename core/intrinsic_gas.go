package core

import (
	"math"

	"github.com/vmchain/execengine/core/types"
	"github.com/vmchain/execengine/params"
)

// IntrinsicGas computes the fixed cost charged before the first opcode
// executes (spec §4.4 step 4): a base cost, per-byte data cost
// distinguishing zero/non-zero bytes, access-list cost, and — when the
// amendment is active — a per-word create-initcode cost.
//
// Grounded on the teacher's core/state_transition.go IntrinsicGas,
// trimmed of EIP-7702 authorization-list accounting (out of this
// engine's transaction-kind set, spec §3).
func IntrinsicGas(data []byte, accessList types.AccessList, isContractCreation bool, rules *params.RuleSet) (uint64, error) {
	var gas uint64
	if isContractCreation {
		gas = params.TxGasContractCreation
	} else {
		gas = params.TxGas
	}

	dataLen := uint64(len(data))
	if dataLen > 0 {
		var nz uint64
		for _, b := range data {
			if b != 0 {
				nz++
			}
		}
		nonZeroGas := params.TxDataNonZeroGasFrontier
		if rules.Has(params.AmendmentAccessLists) {
			nonZeroGas = params.TxDataNonZeroGasEIP2028
		}
		if (math.MaxUint64-gas)/nonZeroGas < nz {
			return 0, ErrGasUintOverflow
		}
		gas += nz * nonZeroGas

		z := dataLen - nz
		if (math.MaxUint64-gas)/params.TxDataZeroGas < z {
			return 0, ErrGasUintOverflow
		}
		gas += z * params.TxDataZeroGas

		if isContractCreation && rules.Has(params.AmendmentInitcodeWordGas) {
			words := toWordSize(dataLen)
			if (math.MaxUint64-gas)/params.InitCodeWordGas < words {
				return 0, ErrGasUintOverflow
			}
			gas += words * params.InitCodeWordGas
		}
	}

	if accessList != nil {
		numKeys := uint64(accessList.StorageKeys())
		gas += uint64(len(accessList)) * params.TxAccessListAddressGas
		gas += numKeys * params.TxAccessListStorageKeyGas
	}
	return gas, nil
}

// toWordSize rounds size up to the nearest 32-byte word.
func toWordSize(size uint64) uint64 {
	if size > math.MaxUint64-31 {
		return math.MaxUint64/32 + 1
	}
	return (size + 31) / 32
}
