package vm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/core/state"
	"github.com/vmchain/execengine/core/types"
	"github.com/vmchain/execengine/params"
	"github.com/vmchain/execengine/testutil"
)

func testEnv(t *testing.T) *Environment {
	t.Helper()
	rules, err := params.Resolve(testutil.AllAmendmentsConfig(), big.NewInt(1), nil)
	require.NoError(t, err)
	return NewEnvironment(state.New(), BlockContext{BlockNumber: big.NewInt(1)}, TxContext{}, rules)
}

func TestExecuteMessageAddAndReturn(t *testing.T) {
	env := testEnv(t)
	in := NewEVMInterpreter()

	// PUSH1 2, PUSH1 3, ADD, PUSH1 0, MSTORE, PUSH1 32, PUSH1 0, RETURN
	code := []byte{
		byte(PUSH1), 2,
		byte(PUSH1), 3,
		byte(ADD),
		byte(PUSH1), 0,
		byte(MSTORE),
		byte(PUSH1), 32,
		byte(PUSH1), 0,
		byte(RETURN),
	}
	to := common.Address{0x01}
	env.StateDB.PutContractCode(to, code)

	res := in.ExecuteMessage(env, &types.Message{From: common.Address{0x02}, To: &to}, 100000)
	require.Equal(t, StatusSuccess, res.Status)
	require.Len(t, res.ReturnData, 32)
	require.Equal(t, byte(5), res.ReturnData[31])
}

func TestExecuteMessageRevertCarriesReturnData(t *testing.T) {
	env := testEnv(t)
	in := NewEVMInterpreter()

	// PUSH32 0xdeadbeef.., PUSH1 0, MSTORE, PUSH1 4, PUSH1 0, REVERT
	code := []byte{byte(PUSH1 + 31)} // PUSH32
	var word [32]byte
	word[0], word[1], word[2], word[3] = 0xde, 0xad, 0xbe, 0xef
	code = append(code, word[:]...)
	code = append(code,
		byte(PUSH1), 0x00,
		byte(MSTORE),
		byte(PUSH1), 0x04,
		byte(PUSH1), 0x00,
		byte(REVERT),
	)

	to := common.Address{0x03}
	env.StateDB.PutContractCode(to, code)

	res := in.ExecuteMessage(env, &types.Message{From: common.Address{0x04}, To: &to}, 100000)
	require.Equal(t, StatusRevert, res.Status)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, res.ReturnData[:4])
}

func TestExecuteMessageSstoreSloadRoundTrip(t *testing.T) {
	env := testEnv(t)
	in := NewEVMInterpreter()

	// PUSH1 7, PUSH1 0, SSTORE, PUSH1 0, SLOAD, PUSH1 0, MSTORE, PUSH1 32, PUSH1 0, RETURN
	code := []byte{
		byte(PUSH1), 7,
		byte(PUSH1), 0,
		byte(SSTORE),
		byte(PUSH1), 0,
		byte(SLOAD),
		byte(PUSH1), 0,
		byte(MSTORE),
		byte(PUSH1), 32,
		byte(PUSH1), 0,
		byte(RETURN),
	}
	to := common.Address{0x05}
	env.StateDB.PutContractCode(to, code)

	res := in.ExecuteMessage(env, &types.Message{From: common.Address{0x06}, To: &to}, 100000)
	require.Equal(t, StatusSuccess, res.Status)
	require.Equal(t, byte(7), res.ReturnData[31])
}

func TestExecuteMessageOutOfGasIsExceptionalHalt(t *testing.T) {
	env := testEnv(t)
	in := NewEVMInterpreter()

	code := []byte{byte(PUSH1), 1, byte(PUSH1), 2, byte(ADD)}
	to := common.Address{0x07}
	env.StateDB.PutContractCode(to, code)

	res := in.ExecuteMessage(env, &types.Message{From: common.Address{0x08}, To: &to}, 1)
	require.Equal(t, StatusExceptionalHalt, res.Status)
}

func TestStepFnIsInvokedPerOpcodeButNeverAborts(t *testing.T) {
	env := testEnv(t)
	in := NewEVMInterpreter()

	var steps int
	env.StepFn = func(pc uint64, op byte, gasLeft uint64) error {
		steps++
		return errFakeStep
	}

	code := []byte{byte(PUSH1), 1, byte(POP), byte(STOP)}
	to := common.Address{0x09}
	env.StateDB.PutContractCode(to, code)

	res := in.ExecuteMessage(env, &types.Message{From: common.Address{0x0a}, To: &to}, 100000)
	require.Equal(t, StatusSuccess, res.Status)
	require.Equal(t, 3, steps)
	require.Len(t, env.StepErrors(), 3)
}

var errFakeStep = &stepTestError{}

type stepTestError struct{}

func (*stepTestError) Error() string { return "step observer error" }
