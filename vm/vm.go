// Package vm implements the TAC stack machine: fetch/decode/execute
// over a chunk.Chunk, a single global operand stack shared across call
// frames, and the runtime error/trace-execution machinery.
package vm

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/pkg/errors"

	"tacvm/chunk"
	"tacvm/compiler"
	"tacvm/disasm"
	"tacvm/value"
)

// RuntimeError is returned by Interpret when execution fails after a
// successful compile. Message and Line are already reported to the
// VM's stderr writer by the time the caller sees this value.
type RuntimeError struct {
	Message string
	Line    int
}

func (e *RuntimeError) Error() string { return e.Message }

// Frame is one call activation. Unlike a conventional frame-owns-its-
// stack design, the operand stack is global to the VM; a Frame only
// remembers where on that shared stack its locals begin
// (returnStackPointer) so Return can unwind them, plus the mapping
// from interned variable names to their (global) stack slot.
type Frame struct {
	symbolTable        map[uint16]int
	hasReturn          bool
	returnAddress      int
	returnStackPointer int
}

// VM executes a single chunk at a time. It is reusable across
// Interpret calls (a REPL compiles and runs one line at a time against
// the same VM so the trace-execution flag persists across lines).
type VM struct {
	chunk  *chunk.Chunk
	stack  []value.Value
	frames []*Frame
	ip     int

	traceExecution atomic.Bool

	stdout io.Writer
	stderr io.Writer
}

// New returns a VM that writes program output to stdout and
// diagnostics/runtime errors to stderr.
func New(stdout, stderr io.Writer) *VM {
	return &VM{stdout: stdout, stderr: stderr}
}

// SetTraceExecution turns instruction tracing on or off. Safe to call
// concurrently with Interpret.
func (vm *VM) SetTraceExecution(on bool) {
	vm.traceExecution.Store(on)
}

// Interpret compiles source into a fresh chunk and runs it. A compile
// error returns compiler.ErrCompile (diagnostics already written to
// stderr by the compiler); a runtime error returns *RuntimeError
// (already reported to stderr by the VM).
func (vm *VM) Interpret(source string) error {
	c := chunk.New()
	if err := compiler.Compile(source, c, vm.stderr); err != nil {
		return err
	}

	vm.chunk = c
	vm.stack = vm.stack[:0]
	vm.frames = []*Frame{{symbolTable: make(map[uint16]int)}}
	vm.ip = 0

	err := vm.run()
	if err != nil {
		if rte, ok := err.(*RuntimeError); ok {
			fmt.Fprintf(vm.stderr, "%s\n[line %d] in script\n", rte.Message, rte.Line)
		}
	}
	return err
}

func (vm *VM) run() error {
	for {
		if vm.ip >= len(vm.chunk.Code) {
			return vm.runtimeError("Instruction pointer reached end of code without a finishing statement")
		}

		instr := vm.chunk.Code[vm.ip]
		vm.ip++

		if vm.traceExecution.Load() {
			disasm.Instruction(vm.stderr, vm.chunk, vm.ip-1)
		}

		switch instr.Op {
		case chunk.Halt:
			return nil

		case chunk.Return:
			done, err := vm.doReturn()
			if err != nil {
				return err
			}
			if done {
				return nil
			}

		case chunk.Constant:
			vm.stack = append(vm.stack, vm.chunk.GetConstant(instr.Operand))

		case chunk.True:
			vm.stack = append(vm.stack, value.NewBool(true))

		case chunk.False:
			vm.stack = append(vm.stack, value.NewBool(false))

		case chunk.Negate:
			if err := vm.unaryOp("-", func(v value.Value) (value.Value, error) { return v.Negate() }); err != nil {
				return err
			}

		case chunk.Not:
			if err := vm.unaryOp("!", func(v value.Value) (value.Value, error) { return v.Not() }); err != nil {
				return err
			}

		case chunk.Add:
			if err := vm.binaryOp("+", value.Value.Add); err != nil {
				return err
			}
		case chunk.Subtract:
			if err := vm.binaryOp("-", value.Value.Sub); err != nil {
				return err
			}
		case chunk.Multiply:
			if err := vm.binaryOp("*", value.Value.Mul); err != nil {
				return err
			}
		case chunk.Divide:
			if err := vm.binaryOp("/", value.Value.Div); err != nil {
				return err
			}
		case chunk.Modulo:
			if err := vm.binaryOp("%", value.Value.Mod); err != nil {
				return err
			}
		case chunk.ShiftLeft:
			if err := vm.binaryOp("<<", value.Value.ShiftLeft); err != nil {
				return err
			}
		case chunk.ShiftRight:
			if err := vm.binaryOp(">>", value.Value.ShiftRight); err != nil {
				return err
			}
		case chunk.Equal:
			if err := vm.binaryOp("==", value.Value.Equal); err != nil {
				return err
			}
		case chunk.Greater:
			if err := vm.binaryOp(">", value.Value.Greater); err != nil {
				return err
			}
		case chunk.Less:
			if err := vm.binaryOp("<", value.Value.Less); err != nil {
				return err
			}

		case chunk.Pop:
			if len(vm.stack) == 0 {
				return vm.runtimeError("Can not pop because there is not a value in the stack")
			}
			vm.stack = vm.stack[:len(vm.stack)-1]

		case chunk.Print:
			if len(vm.stack) == 0 {
				return vm.runtimeError("Can not print because there is not a value in the stack")
			}
			v := vm.stack[len(vm.stack)-1]
			vm.stack = vm.stack[:len(vm.stack)-1]
			fmt.Fprint(vm.stdout, v.String())
			if instr.Operand == 1 {
				fmt.Fprint(vm.stdout, "\n")
			}

		case chunk.Goto:
			vm.ip = int(instr.Operand)

		case chunk.JumpIf:
			if len(vm.stack) == 0 {
				return vm.runtimeError("Can not branch because there is not a value in the stack")
			}
			cond := vm.stack[len(vm.stack)-1]
			vm.stack = vm.stack[:len(vm.stack)-1]
			if cond.Kind() != value.KindBool {
				return vm.runtimeError("Invalid type '%s' for condition, 'bool' required.", cond.TypeName())
			}
			if cond.Bool() {
				vm.ip = int(instr.Operand)
			}

		case chunk.GetOrCreateVar:
			frame := vm.currentFrame()
			slot, ok := frame.symbolTable[instr.Operand]
			if !ok {
				slot = len(vm.stack)
				frame.symbolTable[instr.Operand] = slot
				vm.stack = append(vm.stack, value.NewU64(0))
			}
			vm.stack = append(vm.stack, value.NewAddr(slot))

		case chunk.GetVar:
			frame := vm.currentFrame()
			slot, ok := frame.symbolTable[instr.Operand]
			if !ok {
				return vm.runtimeError("Variable %s is undefined", vm.chunk.GetName(instr.Operand))
			}
			if slot < 0 || slot >= len(vm.stack) {
				return vm.runtimeError("Variable %s has invalid address on symbol table", vm.chunk.GetName(instr.Operand))
			}
			vm.stack = append(vm.stack, vm.stack[slot])

		case chunk.Assign:
			if len(vm.stack) < 2 {
				return vm.runtimeError("Can not assign because there are not enough values in the stack")
			}
			rhs := vm.stack[len(vm.stack)-1]
			addr := vm.stack[len(vm.stack)-2]
			vm.stack = vm.stack[:len(vm.stack)-2]
			if addr.Kind() != value.KindAddr {
				return vm.runtimeError("Assignment target in stack is not valid")
			}
			slot := addr.Addr()
			if slot < 0 || slot >= len(vm.stack) {
				return vm.runtimeError("Assignment target in stack is not valid")
			}
			vm.stack[slot] = rhs

		case chunk.Call:
			if err := vm.call(int(instr.Operand)); err != nil {
				return err
			}

		default:
			return vm.runtimeError("Unknown opcode '%s'", instr.Op)
		}
	}
}

func (vm *VM) currentFrame() *Frame {
	return vm.frames[len(vm.frames)-1]
}

// doReturn pops the current frame and unwinds the stack to the point
// it was called from. Returning out of the outermost frame ends the
// program, the same as Halt.
func (vm *VM) doReturn() (done bool, err error) {
	frame := vm.currentFrame()
	vm.frames = vm.frames[:len(vm.frames)-1]

	if frame.returnStackPointer > len(vm.stack) {
		return false, vm.runtimeError("Return unwound past the bottom of the stack")
	}
	vm.stack = vm.stack[:frame.returnStackPointer]

	if !frame.hasReturn {
		return true, nil
	}
	vm.ip = frame.returnAddress
	return false, nil
}

// call pops an argument count and that many arguments, then pushes a
// new frame exposing them as the "argc"/"args" variables before
// jumping to target. Argument order on re-push mirrors the VM this is
// ported from: arguments come back in the reverse of the order they
// were pushed at the call site.
func (vm *VM) call(target int) error {
	if len(vm.stack) == 0 {
		return vm.runtimeError("Can not call because there is not an argument count in the stack")
	}
	argcVal := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	if argcVal.Kind() != value.KindU64 {
		return vm.runtimeError("Call argument count must be of type 'u64', found '%s'", argcVal.TypeName())
	}
	argc := argcVal.U64()

	if uint64(len(vm.stack)) < argc {
		return vm.runtimeError("Can not call because there are not enough arguments in the stack")
	}

	args := make([]value.Value, argc)
	for i := uint64(0); i < argc; i++ {
		args[i] = vm.stack[len(vm.stack)-1]
		vm.stack = vm.stack[:len(vm.stack)-1]
	}

	returnStackPointer := len(vm.stack)

	argcName, err := vm.chunk.AddName("argc")
	if err != nil {
		return vm.runtimeError("%s", err.Error())
	}

	frame := &Frame{
		symbolTable:        make(map[uint16]int),
		hasReturn:          true,
		returnAddress:      vm.ip,
		returnStackPointer: returnStackPointer,
	}
	frame.symbolTable[argcName] = len(vm.stack)
	vm.stack = append(vm.stack, value.NewU64(argc))

	if argc > 0 {
		argsName, err := vm.chunk.AddName("args")
		if err != nil {
			return vm.runtimeError("%s", err.Error())
		}
		frame.symbolTable[argsName] = len(vm.stack)
		for _, a := range args {
			vm.stack = append(vm.stack, a)
		}
	}

	vm.frames = append(vm.frames, frame)
	vm.ip = target
	return nil
}

func (vm *VM) unaryOp(sym string, op func(value.Value) (value.Value, error)) error {
	if len(vm.stack) == 0 {
		return vm.runtimeError("Can not apply unary operator '%s' because there is not a value in the stack", sym)
	}
	top := len(vm.stack) - 1
	result, err := op(vm.stack[top])
	if err != nil {
		return vm.wrapRuntimeError(err)
	}
	vm.stack[top] = result
	return nil
}

func (vm *VM) binaryOp(sym string, op func(value.Value, value.Value) (value.Value, error)) error {
	if len(vm.stack) < 2 {
		return vm.runtimeError("Can not apply operator '%s' because there are not enough values in the stack", sym)
	}
	b := vm.stack[len(vm.stack)-1]
	a := vm.stack[len(vm.stack)-2]
	vm.stack = vm.stack[:len(vm.stack)-2]

	result, err := op(a, b)
	if err != nil {
		return vm.wrapRuntimeError(err)
	}
	vm.stack = append(vm.stack, result)
	return nil
}

// runtimeError resolves the current source line the same way this VM's
// origin does: via the already-incremented instruction pointer, so the
// reported line can be one past the failing instruction's own run in
// the line map when the failure is the last instruction on its line.
func (vm *VM) runtimeError(format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{
		Message: errors.Errorf(format, args...).Error(),
		Line:    vm.chunk.GetLine(vm.ip),
	}
}

// wrapRuntimeError lifts an error surfaced by the value package (a
// type-mismatch or division-by-zero) into a RuntimeError carrying the
// current source line. The value package's message is already the
// full diagnostic text, so its root cause's message is copied verbatim
// into Message; the RuntimeError does not keep the original error.
func (vm *VM) wrapRuntimeError(cause error) *RuntimeError {
	return &RuntimeError{
		Message: errors.Cause(cause).Error(),
		Line:    vm.chunk.GetLine(vm.ip),
	}
}
