package chunk

// Opcode identifies the operation an Instruction performs.
type Opcode byte

const (
	Return Opcode = iota
	Add
	Subtract
	Multiply
	Divide
	Modulo
	ShiftLeft
	ShiftRight
	Negate
	Not
	True
	False
	Equal
	Greater
	Less
	Call
	GetVar
	GetOrCreateVar
	Assign
	JumpIf
	Goto
	Pop
	Print
	Constant
	Halt
)

var opcodeNames = map[Opcode]string{
	Return:         "RETURN",
	Add:            "ADD",
	Subtract:       "SUBTRACT",
	Multiply:       "MULTIPLY",
	Divide:         "DIVIDE",
	Modulo:         "MODULO",
	ShiftLeft:      "SHIFT_LEFT",
	ShiftRight:     "SHIFT_RIGHT",
	Negate:         "NEGATE",
	Not:            "NOT",
	True:           "TRUE",
	False:          "FALSE",
	Equal:          "EQUAL",
	Greater:        "GREATER",
	Less:           "LESS",
	Call:           "CALL",
	GetVar:         "GET_VAR",
	GetOrCreateVar: "GET_OR_CREATE_VAR",
	Assign:         "ASSIGN",
	JumpIf:         "JUMP_IF",
	Goto:           "GOTO",
	Pop:            "POP",
	Print:          "PRINT",
	Constant:       "CONSTANT",
	Halt:           "HALT",
}

// String renders an Opcode mnemonic, used by the disassembler.
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// HasOperand reports whether op carries an inline u16 operand.
func (op Opcode) HasOperand() bool {
	switch op {
	case Call, GetVar, GetOrCreateVar, JumpIf, Goto, Constant:
		return true
	case Print:
		// Print's operand is a single bool (newline flag), not a u16
		// pool index, but it is still inline — callers special-case it.
		return true
	default:
		return false
	}
}
