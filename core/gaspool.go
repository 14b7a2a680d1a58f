package core

import "math"

// GasPool tracks the gas remaining for the rest of a block. The zero
// value is a pool with zero gas available. Grounded on the teacher's
// core/gaspool.go.
type GasPool uint64

// AddGas makes gas available for execution.
func (gp *GasPool) AddGas(amount uint64) *GasPool {
	if uint64(*gp) > math.MaxUint64-amount {
		panic("core: gas pool pushed above uint64")
	}
	*(*uint64)(gp) += amount
	return gp
}

// SubGas deducts amount from the pool if enough gas is available.
func (gp *GasPool) SubGas(amount uint64) error {
	if uint64(*gp) < amount {
		return ErrBlockGasLimitExceeded
	}
	*(*uint64)(gp) -= amount
	return nil
}

// Gas returns the amount of gas remaining in the pool.
func (gp *GasPool) Gas() uint64 { return uint64(*gp) }

func (gp *GasPool) String() string {
	return "GasPool"
}
