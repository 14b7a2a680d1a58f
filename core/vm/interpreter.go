package vm

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/core/types"
	"github.com/vmchain/execengine/crypto"
)

// EVMInterpreter is this engine's default Interpreter, grounded on the
// teacher's core/vm/interpreter.go Run loop: a plain fetch-decode-execute
// switch over a *Contract's code, using the stack/memory helpers above
// instead of the teacher's jump table of per-opcode closures, since this
// engine's opcode set is intentionally a contract-sized subset (spec §1).
type EVMInterpreter struct {
	depth int
}

func NewEVMInterpreter() *EVMInterpreter { return &EVMInterpreter{} }

// callFrame carries one message's interpretation state, accumulated
// separately from Contract. Each ExecuteMessage call runs exactly one
// frame: the CALL/CREATE-family opcodes halt instead of recursing.
type callFrame struct {
	contract *Contract
	stack    *stack
	mem      *memory
	logs     []*types.Log
	destruct map[common.Address]bool
	refund   int64
}

// ExecuteMessage is the narrow contract of spec §6: it runs msg's code to
// completion (or an exceptional halt) against env, and always leaves env's
// checkpoint stack exactly where it found it — on revert/exceptional-halt
// the interpreter is responsible for unwinding its own inner checkpoints
// before returning.
func (in *EVMInterpreter) ExecuteMessage(env *Environment, msg *types.Message, gas uint64) *MessageResult {
	frame := &callFrame{
		stack:    newStack(),
		mem:      newMemory(),
		destruct: make(map[common.Address]bool),
	}

	if msg.To == nil {
		return in.runCreate(env, msg, gas, frame)
	}
	code := env.StateDB.GetContractCode(*msg.To)
	frame.contract = &Contract{
		Caller: msg.From,
		Self:   *msg.To,
		Code:   code,
		Input:  msg.Data,
		Value:  valueToUint256(msg.Value),
		Gas:    gas,
	}
	if v := frame.contract.Value; !v.IsZero() {
		env.StateDB.SubBalance(msg.From, v)
		env.StateDB.AddBalance(*msg.To, v)
	}
	return in.run(env, frame)
}

func (in *EVMInterpreter) runCreate(env *Environment, msg *types.Message, gas uint64, frame *callFrame) *MessageResult {
	nonce := env.StateDB.GetNonce(msg.From)
	addr := crypto.CreateAddress(msg.From, nonce)
	frame.contract = &Contract{
		Caller: msg.From,
		Self:   addr,
		Code:   msg.Data,
		Value:  valueToUint256(msg.Value),
		Gas:    gas,
	}
	if v := frame.contract.Value; !v.IsZero() {
		env.StateDB.SubBalance(msg.From, v)
		env.StateDB.AddBalance(addr, v)
	}
	res := in.run(env, frame)
	if res.Status == StatusSuccess {
		env.StateDB.PutContractCode(addr, res.ReturnData)
		res.CreatedAddress = &addr
	}
	return res
}

func valueToUint256(v *big.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	u, _ := uint256.FromBig(v)
	return u
}

// run executes frame.contract's code from pc 0 until STOP/RETURN/REVERT,
// an exceptional halt, or gas exhaustion.
func (in *EVMInterpreter) run(env *Environment, frame *callFrame) *MessageResult {
	c := frame.contract
	var pc uint64

	for {
		op := c.opAt(pc)
		if env.StepFn != nil {
			env.recordStepError(env.StepFn(pc, byte(op), c.Gas))
		}
		cost, err := in.gasCost(env, frame, op, pc)
		if err != nil {
			return exceptionalHalt(c.Gas)
		}
		if c.Gas < cost {
			return exceptionalHalt(c.Gas)
		}
		c.Gas -= cost

		switch {
		case op == STOP:
			return &MessageResult{Status: StatusSuccess, GasLeft: c.Gas, Logs: frame.logs, SelfDestructSet: destructList(frame.destruct), RefundDelta: frame.refund}
		case op == RETURN || op == REVERT:
			if frame.stack.len() < 2 {
				return exceptionalHalt(c.Gas)
			}
			offset, size := frame.stack.pop(), frame.stack.pop()
			data := frame.mem.get(offset.Uint64(), size.Uint64())
			if op == RETURN {
				return &MessageResult{Status: StatusSuccess, GasLeft: c.Gas, ReturnData: data, Logs: frame.logs, SelfDestructSet: destructList(frame.destruct), RefundDelta: frame.refund}
			}
			return &MessageResult{Status: StatusRevert, GasLeft: c.Gas, ReturnData: data}
		case op.isPush():
			n := op.pushSize()
			var buf [32]byte
			end := pc + 1 + uint64(n)
			if end > uint64(len(c.Code)) {
				end = uint64(len(c.Code))
			}
			copy(buf[32-n:], c.Code[pc+1:end])
			v := new(uint256.Int).SetBytes(buf[:])
			frame.stack.push(v)
			if frame.stack.len() > maxStackDepth {
				return exceptionalHalt(c.Gas)
			}
			pc += uint64(n) + 1
			continue
		case op.isDup():
			if frame.stack.len() < op.dupN() {
				return exceptionalHalt(c.Gas)
			}
			frame.stack.dup(op.dupN())
		case op.isSwap():
			if frame.stack.len() < op.swapN()+1 {
				return exceptionalHalt(c.Gas)
			}
			frame.stack.swap(op.swapN())
		case op.isLog():
			if res := in.execLog(env, frame, op); res != nil {
				return res
			}
		default:
			if res := in.execOp(env, frame, op, &pc); res != nil {
				return res
			}
			if op == JUMP || op == JUMPI {
				continue // pc already advanced by execOp
			}
		}
		if frame.stack.len() > maxStackDepth {
			return exceptionalHalt(c.Gas)
		}
		pc++
	}
}

func exceptionalHalt(_ uint64) *MessageResult {
	return &MessageResult{Status: StatusExceptionalHalt, GasLeft: 0}
}

func destructList(m map[common.Address]bool) []common.Address {
	out := make([]common.Address, 0, len(m))
	for a := range m {
		out = append(out, a)
	}
	return out
}
