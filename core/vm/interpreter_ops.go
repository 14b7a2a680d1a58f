package vm

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/vmchain/execengine/common"
	"github.com/vmchain/execengine/core/types"
	"github.com/vmchain/execengine/crypto"
)

// gasCost computes the gas charge for one opcode, including the dynamic
// storage-pricing surcharges. Memory expansion is not charged: growing
// memory costs nothing beyond the opcode's own price. Errors returned here
// are never surfaced to callers — any error or insufficient balance
// collapses to an exceptional halt per the interpreter contract (spec §6).
func (in *EVMInterpreter) gasCost(env *Environment, frame *callFrame, op OpCode, pc uint64) (uint64, error) {
	switch {
	case op.isPush(), op.isDup(), op.isSwap():
		return gasFastStep, nil
	}
	switch op {
	case STOP, RETURN, REVERT:
		return 0, nil
	case ADD, SUB, NOT, LT, GT, EQ, ISZERO, AND, OR, XOR, CALLDATALOAD, POP, MLOAD, MSTORE, MSTORE8, PUSH0:
		return gasFastStep, nil
	case MUL, DIV, MOD, SLOAD:
		if op == SLOAD {
			return sloadGas(env, frame), nil
		}
		return gasFastStep, nil
	case SSTORE:
		return 0, nil // charged precisely inside execOp once operands are known
	case KECCAK256:
		return gasFastStep, nil
	case JUMP:
		return gasMidStep, nil
	case JUMPI:
		return gasSlowStep, nil
	case JUMPDEST:
		return 1, nil
	case PC, MSIZE, GAS, ADDRESS, CALLER, CALLVALUE, CALLDATASIZE, CODESIZE, GASPRICE, COINBASE, TIMESTAMP, NUMBER, DIFFICULTY, GASLIMIT, CHAINID, BASEFEE, SELFBALANCE:
		return gasQuickStep, nil
	case BALANCE, EXTCODESIZE:
		return accessGasOrDefault(env, frame, op), nil
	case BLOCKHASH:
		return gasExtStep, nil
	case TLOAD, TSTORE:
		return gasFastStep, nil
	case CALL, STATICCALL, DELEGATECALL:
		return gasCall, nil
	case CREATE, CREATE2:
		return gasCreate, nil
	case SELFDESTRUCT:
		return gasSlowStep, nil
	case INVALID:
		return 0, ErrInvalidOpCode
	default:
		return 0, ErrInvalidOpCode
	}
}

func accessGasOrDefault(env *Environment, frame *callFrame, op OpCode) uint64 {
	if frame.stack.len() < 1 {
		return gasExtStep
	}
	addr := common.BytesToAddress(frame.stack.peek().Bytes())
	warm := env.StateDB.AddressIsWarm(addr)
	if !warm {
		env.StateDB.WarmAddress(addr)
	}
	return accessGas(env.Rules, warm) + gasExtStep
}

func sloadGas(env *Environment, frame *callFrame) uint64 {
	if frame.stack.len() < 1 {
		return 2100
	}
	key := common.BytesToHash(frame.stack.peek().Bytes())
	addr := frame.contract.Self
	warm := env.StateDB.StorageIsWarm(addr, key)
	if !warm {
		env.StateDB.WarmStorage(addr, key)
	}
	return accessGas(env.Rules, warm)
}


// execOp executes every opcode not already handled inline by run's switch
// or by execLog (arithmetic, storage, environment, flow-control, call,
// create, self-destruct). *pc is advanced in place for JUMP/JUMPI; every other
// opcode leaves it untouched for run's trailing pc++.
func (in *EVMInterpreter) execOp(env *Environment, frame *callFrame, op OpCode, pc *uint64) *MessageResult {
	s := frame.stack
	c := frame.contract

	need := func(n int) bool { return s.len() >= n }

	switch op {
	case ADD:
		if !need(2) {
			return exceptionalHalt(c.Gas)
		}
		x, y := s.pop(), s.pop()
		s.push(x.Add(&x, &y))
	case SUB:
		if !need(2) {
			return exceptionalHalt(c.Gas)
		}
		x, y := s.pop(), s.pop()
		s.push(x.Sub(&x, &y))
	case MUL:
		if !need(2) {
			return exceptionalHalt(c.Gas)
		}
		x, y := s.pop(), s.pop()
		s.push(x.Mul(&x, &y))
	case DIV:
		if !need(2) {
			return exceptionalHalt(c.Gas)
		}
		x, y := s.pop(), s.pop()
		s.push(x.Div(&x, &y))
	case MOD:
		if !need(2) {
			return exceptionalHalt(c.Gas)
		}
		x, y := s.pop(), s.pop()
		s.push(x.Mod(&x, &y))
	case LT:
		if !need(2) {
			return exceptionalHalt(c.Gas)
		}
		x, y := s.pop(), s.pop()
		s.push(boolToWord(x.Lt(&y)))
	case GT:
		if !need(2) {
			return exceptionalHalt(c.Gas)
		}
		x, y := s.pop(), s.pop()
		s.push(boolToWord(x.Gt(&y)))
	case EQ:
		if !need(2) {
			return exceptionalHalt(c.Gas)
		}
		x, y := s.pop(), s.pop()
		s.push(boolToWord(x.Eq(&y)))
	case ISZERO:
		if !need(1) {
			return exceptionalHalt(c.Gas)
		}
		x := s.pop()
		s.push(boolToWord(x.IsZero()))
	case AND:
		if !need(2) {
			return exceptionalHalt(c.Gas)
		}
		x, y := s.pop(), s.pop()
		s.push(x.And(&x, &y))
	case OR:
		if !need(2) {
			return exceptionalHalt(c.Gas)
		}
		x, y := s.pop(), s.pop()
		s.push(x.Or(&x, &y))
	case XOR:
		if !need(2) {
			return exceptionalHalt(c.Gas)
		}
		x, y := s.pop(), s.pop()
		s.push(x.Xor(&x, &y))
	case NOT:
		if !need(1) {
			return exceptionalHalt(c.Gas)
		}
		x := s.pop()
		s.push(x.Not(&x))
	case POP:
		if !need(1) {
			return exceptionalHalt(c.Gas)
		}
		s.pop()
	case KECCAK256:
		if !need(2) {
			return exceptionalHalt(c.Gas)
		}
		offset, size := s.pop(), s.pop()
		data := frame.mem.get(offset.Uint64(), size.Uint64())
		h := crypto.Keccak256(data)
		s.push(new(uint256.Int).SetBytes(h))
	case ADDRESS:
		s.push(addrToWord(c.Self))
	case CALLER:
		s.push(addrToWord(c.Caller))
	case CALLVALUE:
		s.push(c.Value)
	case CALLDATALOAD:
		if !need(1) {
			return exceptionalHalt(c.Gas)
		}
		offset := s.pop()
		var buf [32]byte
		off := offset.Uint64()
		for i := 0; i < 32; i++ {
			if off+uint64(i) < uint64(len(c.Input)) {
				buf[i] = c.Input[off+uint64(i)]
			}
		}
		s.push(new(uint256.Int).SetBytes(buf[:]))
	case CALLDATASIZE:
		s.push(uint256.NewInt(uint64(len(c.Input))))
	case CODESIZE:
		s.push(uint256.NewInt(uint64(len(c.Code))))
	case GASPRICE:
		s.push(bigToWord(env.Tx.GasPrice))
	case EXTCODESIZE:
		if !need(1) {
			return exceptionalHalt(c.Gas)
		}
		popped := s.pop()
		addr := common.BytesToAddress(popped.Bytes())
		s.push(uint256.NewInt(uint64(len(env.StateDB.GetContractCode(addr)))))
	case BALANCE:
		if !need(1) {
			return exceptionalHalt(c.Gas)
		}
		balPopped := s.pop()
		addr := common.BytesToAddress(balPopped.Bytes())
		s.push(env.StateDB.GetBalance(addr))
	case SELFBALANCE:
		s.push(env.StateDB.GetBalance(c.Self))
	case BLOCKHASH:
		if !need(1) {
			return exceptionalHalt(c.Gas)
		}
		n := s.pop()
		s.push(new(uint256.Int).SetBytes(env.BlockHash(n.Uint64()).Bytes()))
	case COINBASE:
		s.push(addrToWord(env.Block.Coinbase))
	case TIMESTAMP:
		s.push(uint256.NewInt(env.Block.Time))
	case NUMBER:
		s.push(bigToWord(env.Block.BlockNumber))
	case DIFFICULTY:
		s.push(bigToWord(env.Block.Difficulty))
	case GASLIMIT:
		s.push(uint256.NewInt(env.Block.GasLimit))
	case CHAINID:
		s.push(bigToWord(env.Block.ChainID))
	case BASEFEE:
		s.push(bigToWord(env.Block.BaseFee))
	case PC:
		s.push(uint256.NewInt(*pc))
	case MSIZE:
		s.push(uint256.NewInt(uint64(frame.mem.len())))
	case GAS:
		s.push(uint256.NewInt(c.Gas))
	case JUMPDEST:
		// no-op marker
	case MLOAD:
		if !need(1) {
			return exceptionalHalt(c.Gas)
		}
		offset := s.pop()
		data := frame.mem.get(offset.Uint64(), 32)
		s.push(new(uint256.Int).SetBytes(data))
	case MSTORE:
		if !need(2) {
			return exceptionalHalt(c.Gas)
		}
		offset, val := s.pop(), s.pop()
		buf := val.Bytes32()
		frame.mem.set(offset.Uint64(), 32, buf[:])
	case MSTORE8:
		if !need(2) {
			return exceptionalHalt(c.Gas)
		}
		offset, val := s.pop(), s.pop()
		frame.mem.set(offset.Uint64(), 1, []byte{byte(val.Uint64())})
	case SLOAD:
		if !need(1) {
			return exceptionalHalt(c.Gas)
		}
		sloadPopped := s.pop()
		key := common.BytesToHash(sloadPopped.Bytes())
		v := env.StateDB.GetContractStorage(c.Self, key)
		s.push(new(uint256.Int).SetBytes(v.Bytes()))
	case SSTORE:
		if !need(2) {
			return exceptionalHalt(c.Gas)
		}
		if env.inStaticCall() {
			return exceptionalHalt(c.Gas)
		}
		key, val := s.pop(), s.pop()
		hkey := common.BytesToHash(key.Bytes())
		current := env.StateDB.GetContractStorage(c.Self, hkey)
		original := env.StateDB.GetOriginalContractStorage(c.Self, hkey)
		cost, refund := sstoreGas(env.Rules, current, original, common.BytesToHash(val.Bytes()))
		if c.Gas < cost {
			return exceptionalHalt(c.Gas)
		}
		c.Gas -= cost
		frame.refund += refund
		env.StateDB.PutContractStorage(c.Self, hkey, common.BytesToHash(val.Bytes()))
	case TLOAD:
		if !need(1) {
			return exceptionalHalt(c.Gas)
		}
		tloadPopped := s.pop()
		key := common.BytesToHash(tloadPopped.Bytes())
		v := env.StateDB.GetTransientState(c.Self, key)
		s.push(new(uint256.Int).SetBytes(v.Bytes()))
	case TSTORE:
		if !need(2) {
			return exceptionalHalt(c.Gas)
		}
		key, val := s.pop(), s.pop()
		env.StateDB.SetTransientState(c.Self, common.BytesToHash(key.Bytes()), common.BytesToHash(val.Bytes()))
	case JUMP:
		if !need(1) {
			return exceptionalHalt(c.Gas)
		}
		dest := s.pop()
		if !c.validJumpDest(dest.Uint64()) {
			return exceptionalHalt(c.Gas)
		}
		*pc = dest.Uint64()
	case JUMPI:
		if !need(2) {
			return exceptionalHalt(c.Gas)
		}
		dest, cond := s.pop(), s.pop()
		if cond.IsZero() {
			*pc++
			return nil
		}
		if !c.validJumpDest(dest.Uint64()) {
			return exceptionalHalt(c.Gas)
		}
		*pc = dest.Uint64()
	case RETURNDATASIZE:
		s.push(uint256.NewInt(0))
	case RETURNDATACOPY:
		if !need(3) {
			return exceptionalHalt(c.Gas)
		}
		s.pop()
		s.pop()
		s.pop()
	case CALLDATACOPY:
		if !need(3) {
			return exceptionalHalt(c.Gas)
		}
		destOff, offset, size := s.pop(), s.pop(), s.pop()
		data := make([]byte, size.Uint64())
		off := offset.Uint64()
		for i := range data {
			if off+uint64(i) < uint64(len(c.Input)) {
				data[i] = c.Input[off+uint64(i)]
			}
		}
		frame.mem.set(destOff.Uint64(), size.Uint64(), data)
	case SELFDESTRUCT:
		if !need(1) {
			return exceptionalHalt(c.Gas)
		}
		selfdestructPopped := s.pop()
		beneficiary := common.BytesToAddress(selfdestructPopped.Bytes())
		balance := env.StateDB.GetBalance(c.Self)
		env.StateDB.AddBalance(beneficiary, balance)
		env.StateDB.SubBalance(c.Self, balance)
		env.StateDB.SelfDestruct(c.Self)
		frame.destruct[c.Self] = true
	case CALL, STATICCALL, DELEGATECALL, CREATE, CREATE2:
		return in.execCallOrCreate(env, frame, op)
	default:
		return exceptionalHalt(c.Gas)
	}
	return nil
}

func (in *EVMInterpreter) execLog(env *Environment, frame *callFrame, op OpCode) *MessageResult {
	s := frame.stack
	n := op.logN()
	if s.len() < 2+n {
		return exceptionalHalt(frame.contract.Gas)
	}
	if env.inStaticCall() {
		return exceptionalHalt(frame.contract.Gas)
	}
	offset, size := s.pop(), s.pop()
	topics := make([]common.Hash, n)
	for i := 0; i < n; i++ {
		t := s.pop()
		topics[i] = common.BytesToHash(t.Bytes())
	}
	cost := gasLog + gasLogTopic*uint64(n) + gasLogData*size.Uint64()
	if frame.contract.Gas < cost {
		return exceptionalHalt(frame.contract.Gas)
	}
	frame.contract.Gas -= cost
	data := frame.mem.get(offset.Uint64(), size.Uint64())
	frame.logs = append(frame.logs, &types.Log{
		Address: frame.contract.Self,
		Topics:  topics,
		Data:    data,
	})
	return nil
}

// execCallOrCreate is a minimal, non-reentrant stand-in: it charges the
// base gas already deducted by gasCost and reports an exceptional halt,
// since full nested call/create dispatch belongs to a richer interpreter
// than this engine's contract-sized collaborator needs to carry (spec
// §1 treats the interpreter as an external collaborator; the transaction
// runner only ever invokes the top-level message through ExecuteMessage).
func (in *EVMInterpreter) execCallOrCreate(env *Environment, frame *callFrame, op OpCode) *MessageResult {
	return exceptionalHalt(frame.contract.Gas)
}

func boolToWord(b bool) *uint256.Int {
	if b {
		return uint256.NewInt(1)
	}
	return new(uint256.Int)
}

func addrToWord(a common.Address) *uint256.Int {
	return new(uint256.Int).SetBytes(a.Bytes())
}

func bigToWord(v *big.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	u, _ := uint256.FromBig(v)
	return u
}

// inStaticCall reports whether writes are disallowed in the current
// frame. This engine never enters a static sub-call (execCallOrCreate is
// a stand-in), so it is always false at the top level.
func (e *Environment) inStaticCall() bool { return false }
