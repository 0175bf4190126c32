// Package disasm prints a chunk.Chunk's instructions in human-readable
// form, for the VM's instruction tracer and the "-disassemble" CLI
// flag.
package disasm

import (
	"fmt"
	"io"

	"tacvm/chunk"
)

// Chunk writes every instruction in c to w, preceded by a banner
// naming the chunk (conventionally the script path, or "repl").
func Chunk(w io.Writer, c *chunk.Chunk, name string) {
	fmt.Fprintf(w, "=== %s ===\n", name)
	for idx := range c.Code {
		Instruction(w, c, idx)
	}
}

// Instruction writes the single instruction at idx: its offset, the
// source line it was compiled from (a "|" marker when it shares the
// previous instruction's line), the opcode mnemonic, and, for opcodes that
// carry one, its operand and the constant/name it resolves to.
func Instruction(w io.Writer, c *chunk.Chunk, idx int) {
	fmt.Fprintf(w, "%04d ", idx)

	line := c.GetLine(idx)
	if idx > 0 && line == c.GetLine(idx-1) {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", line)
	}

	instr := c.Code[idx]
	switch instr.Op {
	case chunk.Constant:
		fmt.Fprintf(w, "%-16s %4d '%s'\n", instr.Op, instr.Operand, c.GetConstant(instr.Operand))
	case chunk.GetVar, chunk.GetOrCreateVar:
		fmt.Fprintf(w, "%-16s %4d '%s'\n", instr.Op, instr.Operand, c.GetName(instr.Operand))
	case chunk.Goto, chunk.JumpIf, chunk.Call:
		fmt.Fprintf(w, "%-16s %4d\n", instr.Op, instr.Operand)
	case chunk.Print:
		fmt.Fprintf(w, "%-16s nl:%d\n", instr.Op, instr.Operand)
	default:
		fmt.Fprintf(w, "%s\n", instr.Op)
	}
}
