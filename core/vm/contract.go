package vm

import (
	"github.com/holiman/uint256"

	"github.com/vmchain/execengine/common"
)

// Contract is one frame of the interpreter's call/create tree: the code
// being executed, the caller/callee addresses, the value and input for
// this frame, and its own gas meter.
type Contract struct {
	Caller common.Address
	Self   common.Address
	Code   []byte
	Input  []byte
	Value  *uint256.Int

	Gas uint64
	pc  uint64

	static bool
}

func (c *Contract) opAt(pc uint64) OpCode {
	if pc >= uint64(len(c.Code)) {
		return STOP
	}
	return OpCode(c.Code[pc])
}

// validJumpDest reports whether dest points at a JUMPDEST that is not
// inside a PUSH operand (the teacher's iinstructions.go jump-table
// validity check, simplified to a linear scan since this interpreter has
// no precomputed code-analysis bitmap).
func (c *Contract) validJumpDest(dest uint64) bool {
	if dest >= uint64(len(c.Code)) {
		return false
	}
	if OpCode(c.Code[dest]) != JUMPDEST {
		return false
	}
	var i uint64
	for i < dest {
		op := OpCode(c.Code[i])
		if op.isPush() {
			i += uint64(op.pushSize()) + 1
			continue
		}
		i++
	}
	return i == dest
}
