package vm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tacvm/chunk"
	"tacvm/value"
)

func run(t *testing.T, source string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errw bytes.Buffer
	v := New(&out, &errw)
	err = v.Interpret(source)
	return out.String(), errw.String(), err
}

func TestInterpret_SimpleArithmeticPrint(t *testing.T) {
	out, _, err := run(t, "print 1 + 2\n")
	require.NoError(t, err)
	assert.Equal(t, "3", out)
}

func TestInterpret_PrintLnAddsNewline(t *testing.T) {
	out, _, err := run(t, "println 1 + 2\n")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestInterpret_DivisionByZeroIsRuntimeError(t *testing.T) {
	out, errOut, err := run(t, "println 10u64 / 0u64\n")
	require.Error(t, err)
	assert.Equal(t, "", out)
	assert.Contains(t, errOut, "Division by 0")
	assert.Contains(t, errOut, "[line 1] in script")
}

func TestInterpret_RuntimeErrorOnSecondLineReportsThatLine(t *testing.T) {
	out, errOut, err := run(t, "a = 1\nb = 1 / 0\n")
	require.Error(t, err)
	assert.Equal(t, "", out)
	assert.Contains(t, errOut, "Division by 0")
	assert.Contains(t, errOut, "[line 2] in script")
}

func TestInterpret_TypeMismatchIsRuntimeError(t *testing.T) {
	_, errOut, err := run(t, "println 1 + true\n")
	require.Error(t, err)
	assert.Contains(t, errOut, "Operator '+' not supported between values of type 'i64' and 'bool'")
}

func TestInterpret_CompileErrorDoesNotRun(t *testing.T) {
	out, errOut, err := run(t, "= 1\n")
	require.Error(t, err)
	assert.Equal(t, "", out)
	assert.Contains(t, errOut, "[line 1] Error at '='")
}

func TestInterpret_AssignmentThenReadBack(t *testing.T) {
	out, _, err := run(t, "x = 10\nprint x\n")
	require.NoError(t, err)
	assert.Equal(t, "10", out)
}

func TestInterpret_GotoSkipsOverStatement(t *testing.T) {
	out, _, err := run(t, "goto L1\nprint 1\nL1:\nprint 2\n")
	require.NoError(t, err)
	assert.Equal(t, "2", out)
}

func TestInterpret_IfFalseBranchesOnFalseCondition(t *testing.T) {
	// ifFalse negates the condition before JumpIf, so a literal `false`
	// condition does take the branch to L1, skipping "print 1".
	out, _, err := run(t, "ifFalse false goto L1\nprint 1\ngoto L2\nL1:\nprint 2\nL2:\nhalt\n")
	require.NoError(t, err)
	assert.Equal(t, "2", out)
}

func TestInterpret_IfTrueTakesBranch(t *testing.T) {
	out, _, err := run(t, "if true goto L1\nprint 1\ngoto L2\nL1:\nprint 2\nL2:\nhalt\n")
	require.NoError(t, err)
	assert.Equal(t, "2", out)
}

func TestInterpret_ReusesVMAcrossCalls(t *testing.T) {
	var out, errw bytes.Buffer
	v := New(&out, &errw)

	require.NoError(t, v.Interpret("print 1\n"))
	require.NoError(t, v.Interpret("print 2\n"))

	assert.Equal(t, "12", out.String())
}

func TestInterpret_TraceExecutionWritesToStderr(t *testing.T) {
	var out, errw bytes.Buffer
	v := New(&out, &errw)
	v.SetTraceExecution(true)

	require.NoError(t, v.Interpret("print 1\n"))
	assert.Contains(t, errw.String(), "CONSTANT")
	assert.Contains(t, errw.String(), "PRINT")
}

func TestCall_ExposesArgcAndArgsThenReturns(t *testing.T) {
	c := chunk.New()
	argI, _ := c.AddConstant(value.NewI64(7))
	argcIdx, _ := c.AddName("argc")

	// 0: constant 7         (the argument)
	// 1: constant 1u64      (argc)
	c.Write(chunk.Instruction{Op: chunk.Constant, Operand: argI}, 1)
	oneIdx, _ := c.AddConstant(value.NewU64(1))
	c.Write(chunk.Instruction{Op: chunk.Constant, Operand: oneIdx}, 1)
	c.Write(chunk.Instruction{Op: chunk.Call, Operand: 5}, 1)
	// 3: halt (never reached directly; call jumps to 5)
	c.Write(chunk.Instruction{Op: chunk.Halt}, 1)
	// unused slot 4
	c.Write(chunk.Instruction{Op: chunk.Halt}, 1)
	// 5: GetVar argc, print, return
	c.Write(chunk.Instruction{Op: chunk.GetVar, Operand: argcIdx}, 2)
	c.Write(chunk.Instruction{Op: chunk.Print, Operand: 0}, 2)
	c.Write(chunk.Instruction{Op: chunk.Return}, 2)

	var out, errw bytes.Buffer
	v := New(&out, &errw)
	v.chunk = c
	v.frames = []*Frame{{symbolTable: make(map[uint16]int)}}
	v.ip = 0

	err := v.run()
	require.NoError(t, err)
	assert.Equal(t, "1", out.String())
}

func TestNegate_EmptyStackIsRuntimeError(t *testing.T) {
	c := chunk.New()
	c.Write(chunk.Instruction{Op: chunk.Negate}, 1)
	c.Write(chunk.Instruction{Op: chunk.Halt}, 1)

	var out, errw bytes.Buffer
	v := New(&out, &errw)
	v.chunk = c
	v.frames = []*Frame{{symbolTable: make(map[uint16]int)}}
	v.ip = 0

	err := v.run()
	require.Error(t, err)
	rte, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Contains(t, rte.Message, "unary operator '-'")
}
