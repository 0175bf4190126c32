// Package chunk is the compiled program: an ordered instruction
// sequence plus the constant pool, name pool, and line map the
// compiler fills in and the VM reads back.
package chunk

import (
	"math"

	"github.com/pkg/errors"

	"tacvm/value"
)

// maxPoolSize is the capacity of the constant and name pools — both
// are addressed by a u16 operand.
const maxPoolSize = math.MaxUint16 + 1

// Instruction is one bytecode instruction: an opcode plus an inline
// u16 operand (unused by opcodes that take none).
type Instruction struct {
	Op      Opcode
	Operand uint16
}

type lineStart struct {
	offset int
	line   int
}

// Chunk is the compiler's output and the VM's input: code, constants,
// interned names, and a run-length line map.
type Chunk struct {
	Code      []Instruction
	constants []value.Value
	names     []string
	namesRev  map[string]uint16
	lines     []lineStart
}

// New returns an empty chunk ready for compilation to write into.
func New() *Chunk {
	return &Chunk{
		Code:     make([]Instruction, 0, 256),
		namesRev: make(map[string]uint16),
	}
}

// Write appends an instruction at the given source line and returns
// its index. Panics if line decreases relative to the previous write,
// mirroring the compiler invariant that statements are emitted in
// source order.
func (c *Chunk) Write(i Instruction, line int) int {
	if len(c.lines) > 0 {
		last := c.lines[len(c.lines)-1]
		if last.line > line {
			panic("chunk: line of new instruction cannot be smaller than previous instruction")
		}
	}

	index := len(c.Code)
	c.Code = append(c.Code, i)

	if len(c.lines) == 0 || c.lines[len(c.lines)-1].line != line {
		c.lines = append(c.lines, lineStart{offset: index, line: line})
	}

	return index
}

// Patch overwrites the operand of an already-written instruction, used
// for label backpatching of Goto/JumpIf placeholders.
func (c *Chunk) Patch(index int, operand uint16) {
	c.Code[index].Operand = operand
}

// AddConstant interns value into the constant pool and returns its
// index.
func (c *Chunk) AddConstant(v value.Value) (uint16, error) {
	if len(c.constants) >= maxPoolSize {
		return 0, errors.New("could not add constant, reached limit of u16 max size")
	}
	index := uint16(len(c.constants))
	c.constants = append(c.constants, v)
	return index, nil
}

// GetConstant reads a constant by index; index must be valid in a
// well-formed chunk.
func (c *Chunk) GetConstant(index uint16) value.Value {
	return c.constants[index]
}

// AddName interns name into the name pool, de-duplicating via a
// reverse map, and returns its index.
func (c *Chunk) AddName(name string) (uint16, error) {
	if index, ok := c.namesRev[name]; ok {
		return index, nil
	}

	if len(c.names) >= maxPoolSize {
		return 0, errors.New("could not add name, reached limit of u16 max size")
	}

	index := uint16(len(c.names))
	c.names = append(c.names, name)
	c.namesRev[name] = index
	return index, nil
}

// GetName reads a name by index; index must be valid in a well-formed
// chunk.
func (c *Chunk) GetName(index uint16) string {
	return c.names[index]
}

// GetLine resolves the source line of instructionIdx via binary search
// over the run-length line map.
func (c *Chunk) GetLine(instructionIdx int) int {
	if len(c.lines) == 0 {
		return 0
	}

	left, right := 0, len(c.lines)-1
	line := c.lines[0].line

	for left <= right {
		mid := (left + right) / 2
		if instructionIdx >= c.lines[mid].offset {
			line = c.lines[mid].line
			left = mid + 1
		} else {
			right = mid - 1
		}
	}

	return line
}
