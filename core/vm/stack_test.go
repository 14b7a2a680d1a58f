package vm

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestStackPushPopIsLIFO(t *testing.T) {
	s := newStack()
	s.push(uint256.NewInt(1))
	s.push(uint256.NewInt(2))
	s.push(uint256.NewInt(3))

	assert.Equal(t, 3, s.len())
	top := s.pop()
	assert.Equal(t, uint256.NewInt(3), &top)
	assert.Equal(t, 2, s.len())
}

func TestStackDupCopiesWithoutConsuming(t *testing.T) {
	s := newStack()
	s.push(uint256.NewInt(10))
	s.push(uint256.NewInt(20))

	s.dup(2) // dup the second-from-top
	assert.Equal(t, 3, s.len())
	top := s.pop()
	assert.Equal(t, uint256.NewInt(10), &top)
}

func TestStackSwapExchangesTopWithN(t *testing.T) {
	s := newStack()
	s.push(uint256.NewInt(1))
	s.push(uint256.NewInt(2))
	s.push(uint256.NewInt(3))

	s.swap(2) // swap top with third-from-top
	top := s.pop()
	assert.Equal(t, uint256.NewInt(1), &top)
}

func TestStackPeekDoesNotConsume(t *testing.T) {
	s := newStack()
	s.push(uint256.NewInt(42))
	assert.Equal(t, uint256.NewInt(42), s.peek())
	assert.Equal(t, 1, s.len())
}
