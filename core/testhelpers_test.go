package core

import "github.com/vmchain/execengine/core/state"

// stateForTest returns a fresh, empty in-memory state store for a single
// test case.
func stateForTest() *state.StateDB {
	return state.New()
}
