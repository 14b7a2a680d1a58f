package core

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/core/state"
	"github.com/vmchain/execengine/core/types"
	"github.com/vmchain/execengine/core/vm"
)

// GenesisParams specifies the genesis block's header fields and initial
// account balances, the chain-parameters-driven state materialization
// named in spec §4.8. Grounded on the teacher's core/genesis.go Genesis
// struct, trimmed to the fields this engine's header/account model
// actually carries (no extra data, mix hash, or code allocation — this
// engine's scope has no genesis-deployed contracts).
type GenesisParams struct {
	Timestamp  uint64
	GasLimit   uint64
	Difficulty *big.Int
	Coinbase   common.Address
	BaseFee    *big.Int
	Alloc      map[common.Address]*uint256.Int
}

// ToHeader builds the unsealed genesis header (block number 0, no
// parent).
func (g *GenesisParams) ToHeader() *types.Header {
	return &types.Header{
		Number:     big.NewInt(0),
		Timestamp:  g.Timestamp,
		GasLimit:   g.GasLimit,
		Difficulty: g.Difficulty,
		Coinbase:   g.Coinbase,
		BaseFee:    g.BaseFee,
	}
}

// materializeGenesis credits every allocated account's balance inside a
// single checkpoint, then commits. Called once during Engine.Init when
// Options.ActivateGenesisState is set and no external state store was
// supplied.
func materializeGenesis(stateDB state.StateStore, g *GenesisParams) {
	checkpoint := stateDB.Checkpoint()
	for addr, balance := range g.Alloc {
		stateDB.AddBalance(addr, balance)
	}
	stateDB.Commit(checkpoint)
}

// primePrecompiles gives every precompile address a balance of 1 wei so
// that the first call into one isn't billed the interpreter's
// new-account gas surcharge (spec §4.8 step b). Skipped entirely when an
// external state store was supplied, since the caller owns that
// account's lifecycle.
func primePrecompiles(stateDB state.StateStore) {
	checkpoint := stateDB.Checkpoint()
	for _, addr := range vm.PrecompileAddresses() {
		if !stateDB.Exist(addr) {
			stateDB.AddBalance(addr, uint256.NewInt(1))
		}
	}
	stateDB.Commit(checkpoint)
}
