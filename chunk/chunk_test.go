package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tacvm/value"
)

func TestWrite_AssignsSequentialIndices(t *testing.T) {
	c := New()

	i0 := c.Write(Instruction{Op: True}, 1)
	i1 := c.Write(Instruction{Op: False}, 1)
	i2 := c.Write(Instruction{Op: Halt}, 2)

	assert.Equal(t, 0, i0)
	assert.Equal(t, 1, i1)
	assert.Equal(t, 2, i2)
	assert.Equal(t, 3, len(c.Code))
}

func TestWrite_PanicsOnDecreasingLine(t *testing.T) {
	c := New()
	c.Write(Instruction{Op: True}, 5)
	assert.Panics(t, func() {
		c.Write(Instruction{Op: False}, 4)
	})
}

func TestPatch_OverwritesOperand(t *testing.T) {
	c := New()
	idx := c.Write(Instruction{Op: Goto, Operand: 0}, 1)
	c.Patch(idx, 42)
	assert.Equal(t, uint16(42), c.Code[idx].Operand)
}

func TestAddConstant_ReturnsIncreasingIndices(t *testing.T) {
	c := New()

	i0, err := c.AddConstant(value.NewU64(10))
	require.NoError(t, err)
	i1, err := c.AddConstant(value.NewU64(20))
	require.NoError(t, err)

	assert.Equal(t, uint16(0), i0)
	assert.Equal(t, uint16(1), i1)
	assert.Equal(t, value.NewU64(10), c.GetConstant(i0))
	assert.Equal(t, value.NewU64(20), c.GetConstant(i1))
}

func TestAddName_Deduplicates(t *testing.T) {
	c := New()

	i0, err := c.AddName("x")
	require.NoError(t, err)
	i1, err := c.AddName("y")
	require.NoError(t, err)
	i2, err := c.AddName("x")
	require.NoError(t, err)

	assert.Equal(t, i0, i2, "repeated name must reuse the same index")
	assert.NotEqual(t, i0, i1)
	assert.Equal(t, "x", c.GetName(i0))
	assert.Equal(t, "y", c.GetName(i1))
}

func TestGetLine_BinarySearchOverRunLengths(t *testing.T) {
	c := New()
	c.Write(Instruction{Op: True}, 1)  // idx 0, line 1
	c.Write(Instruction{Op: True}, 1)  // idx 1, line 1
	c.Write(Instruction{Op: True}, 3)  // idx 2, line 3
	c.Write(Instruction{Op: Halt}, 3)  // idx 3, line 3
	c.Write(Instruction{Op: Halt}, 10) // idx 4, line 10

	assert.Equal(t, 1, c.GetLine(0))
	assert.Equal(t, 1, c.GetLine(1))
	assert.Equal(t, 3, c.GetLine(2))
	assert.Equal(t, 3, c.GetLine(3))
	assert.Equal(t, 10, c.GetLine(4))
}

func TestGetLine_TwoGroupsReturnsSecondForItsOffset(t *testing.T) {
	c := New()
	c.Write(Instruction{Op: True}, 1) // idx 0, line 1
	c.Write(Instruction{Op: Halt}, 2) // idx 1, line 2

	assert.Equal(t, 1, c.GetLine(0))
	assert.Equal(t, 2, c.GetLine(1), "a chunk with exactly two line groups must not collapse to the first")
}

func TestGetLine_NonDecreasingAcrossAllIndices(t *testing.T) {
	c := New()
	lines := []int{1, 1, 2, 5, 5, 5, 9}
	for _, l := range lines {
		c.Write(Instruction{Op: Pop}, l)
	}

	prev := c.GetLine(0)
	for i := 1; i < len(lines); i++ {
		cur := c.GetLine(i)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}
