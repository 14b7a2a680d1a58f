package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemorySetAndGetRoundTrip(t *testing.T) {
	m := newMemory()
	m.set(0, 4, []byte{0xde, 0xad, 0xbe, 0xef})
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, m.get(0, 4))
}

func TestMemoryGetPastWrittenRangeIsZeroFilled(t *testing.T) {
	m := newMemory()
	m.set(0, 2, []byte{0x01, 0x02})
	assert.Equal(t, []byte{0x01, 0x02, 0x00, 0x00}, m.get(0, 4))
}

func TestMemoryResizeGrowsButNeverShrinks(t *testing.T) {
	m := newMemory()
	m.resize(64)
	assert.Equal(t, 64, m.len())
	m.resize(32)
	assert.Equal(t, 64, m.len())
}

func TestWordCountRoundsUpToNearestWord(t *testing.T) {
	assert.Equal(t, uint64(0), wordCount(0))
	assert.Equal(t, uint64(1), wordCount(1))
	assert.Equal(t, uint64(1), wordCount(32))
	assert.Equal(t, uint64(2), wordCount(33))
}
