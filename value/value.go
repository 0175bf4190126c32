// Package value implements the TAC scalar value type: a small tagged
// union with typed arithmetic, comparison, and negation.
package value

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindF64 Kind = iota
	KindU64
	KindI64
	KindBool
	KindChar
	KindAddr
)

var kindNames = map[Kind]string{
	KindF64:  "f64",
	KindU64:  "u64",
	KindI64:  "i64",
	KindBool: "bool",
	KindChar: "char",
	KindAddr: "addr",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Value is a tagged scalar: F64, U64, I64, Bool, Char, or Addr. Addr is
// VM-internal (a stack slot index) and is never produced by a literal.
type Value struct {
	kind Kind
	bits uint64
}

// NewF64 returns an F64 value.
func NewF64(f float64) Value { return Value{kind: KindF64, bits: math.Float64bits(f)} }

// NewU64 returns a U64 value.
func NewU64(u uint64) Value { return Value{kind: KindU64, bits: u} }

// NewI64 returns an I64 value.
func NewI64(i int64) Value { return Value{kind: KindI64, bits: uint64(i)} }

// NewBool returns a Bool value.
func NewBool(b bool) Value {
	var bits uint64
	if b {
		bits = 1
	}
	return Value{kind: KindBool, bits: bits}
}

// NewChar returns a Char value.
func NewChar(c rune) Value { return Value{kind: KindChar, bits: uint64(c)} }

// NewAddr returns an Addr value wrapping a stack slot index.
func NewAddr(slot int) Value { return Value{kind: KindAddr, bits: uint64(slot)} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// TypeName is the human-readable type name used in diagnostics.
func (v Value) TypeName() string { return v.kind.String() }

// F64 extracts the float payload; only meaningful when Kind() == KindF64.
func (v Value) F64() float64 { return math.Float64frombits(v.bits) }

// U64 extracts the unsigned payload; only meaningful when Kind() == KindU64.
func (v Value) U64() uint64 { return v.bits }

// I64 extracts the signed payload; only meaningful when Kind() == KindI64.
func (v Value) I64() int64 { return int64(v.bits) }

// Bool extracts the boolean payload; only meaningful when Kind() == KindBool.
func (v Value) Bool() bool { return v.bits != 0 }

// Char extracts the character payload; only meaningful when Kind() == KindChar.
func (v Value) Char() rune { return rune(v.bits) }

// Addr extracts the stack slot payload; only meaningful when Kind() == KindAddr.
func (v Value) Addr() int { return int(v.bits) }

// String renders v the way print/println emit it.
func (v Value) String() string {
	switch v.kind {
	case KindF64:
		return strconvFloat(v.F64())
	case KindU64:
		return fmt.Sprintf("%d", v.U64())
	case KindI64:
		return fmt.Sprintf("%d", v.I64())
	case KindBool:
		if v.Bool() {
			return "true"
		}
		return "false"
	case KindChar:
		return string(v.Char())
	case KindAddr:
		return fmt.Sprintf("<addr %d>", v.Addr())
	default:
		return "<unknown>"
	}
}

func strconvFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}

func opMismatch(op string, a, b Value) error {
	return errors.Errorf("Operator '%s' not supported between values of type '%s' and '%s'", op, a.TypeName(), b.TypeName())
}

func opUnsupportedUnary(op string, v Value) error {
	return errors.Errorf("Operator '%s' not supported for values of type '%s'", op, v.TypeName())
}

// Add implements '+'.
func (a Value) Add(b Value) (Value, error) {
	switch {
	case a.kind == KindF64 && b.kind == KindF64:
		return NewF64(a.F64() + b.F64()), nil
	case a.kind == KindU64 && b.kind == KindU64:
		return NewU64(a.U64() + b.U64()), nil
	case a.kind == KindI64 && b.kind == KindI64:
		return NewI64(a.I64() + b.I64()), nil
	default:
		return Value{}, opMismatch("+", a, b)
	}
}

// Sub implements '-'.
func (a Value) Sub(b Value) (Value, error) {
	switch {
	case a.kind == KindF64 && b.kind == KindF64:
		return NewF64(a.F64() - b.F64()), nil
	case a.kind == KindU64 && b.kind == KindU64:
		return NewU64(a.U64() - b.U64()), nil
	case a.kind == KindI64 && b.kind == KindI64:
		return NewI64(a.I64() - b.I64()), nil
	default:
		return Value{}, opMismatch("-", a, b)
	}
}

// Mul implements '*'.
func (a Value) Mul(b Value) (Value, error) {
	switch {
	case a.kind == KindF64 && b.kind == KindF64:
		return NewF64(a.F64() * b.F64()), nil
	case a.kind == KindU64 && b.kind == KindU64:
		return NewU64(a.U64() * b.U64()), nil
	case a.kind == KindI64 && b.kind == KindI64:
		return NewI64(a.I64() * b.I64()), nil
	default:
		return Value{}, opMismatch("*", a, b)
	}
}

// Div implements '/'. A numerically-zero denominator is always a
// "Division by 0" error, regardless of numeric kind.
func (a Value) Div(b Value) (Value, error) {
	switch {
	case a.kind == KindF64 && b.kind == KindF64:
		if b.F64() == 0 {
			return Value{}, errors.New("Division by 0")
		}
		return NewF64(a.F64() / b.F64()), nil
	case a.kind == KindU64 && b.kind == KindU64:
		if b.U64() == 0 {
			return Value{}, errors.New("Division by 0")
		}
		return NewU64(a.U64() / b.U64()), nil
	case a.kind == KindI64 && b.kind == KindI64:
		if b.I64() == 0 {
			return Value{}, errors.New("Division by 0")
		}
		return NewI64(a.I64() / b.I64()), nil
	default:
		return Value{}, opMismatch("/", a, b)
	}
}

// Mod implements '%'.
func (a Value) Mod(b Value) (Value, error) {
	switch {
	case a.kind == KindF64 && b.kind == KindF64:
		if b.F64() == 0 {
			return Value{}, errors.New("Division by 0")
		}
		return NewF64(math.Mod(a.F64(), b.F64())), nil
	case a.kind == KindU64 && b.kind == KindU64:
		if b.U64() == 0 {
			return Value{}, errors.New("Division by 0")
		}
		return NewU64(a.U64() % b.U64()), nil
	case a.kind == KindI64 && b.kind == KindI64:
		if b.I64() == 0 {
			return Value{}, errors.New("Division by 0")
		}
		return NewI64(a.I64() % b.I64()), nil
	default:
		return Value{}, opMismatch("%", a, b)
	}
}

// shiftCount interprets b as a shift amount: U64 used directly, I64
// used by magnitude with a negative value inverting the shift
// direction. The count saturates at math.MaxUint32.
func shiftCount(b Value) (count uint64, invert bool, err error) {
	switch b.kind {
	case KindU64:
		count = b.U64()
	case KindI64:
		n := b.I64()
		if n < 0 {
			invert = true
			count = uint64(-n)
		} else {
			count = uint64(n)
		}
	default:
		return 0, false, errors.Errorf("shift count must be u64 or i64, got '%s'", b.TypeName())
	}
	if count > math.MaxUint32 {
		count = math.MaxUint32
	}
	return count, invert, nil
}

// ShiftLeft implements '<<'.
func (a Value) ShiftLeft(b Value) (Value, error) {
	count, invert, err := shiftCount(b)
	if err != nil {
		return Value{}, opMismatch("<<", a, b)
	}

	switch a.kind {
	case KindU64:
		if invert {
			return NewU64(shiftRightU64(a.U64(), count)), nil
		}
		return NewU64(shiftLeftU64(a.U64(), count)), nil
	case KindI64:
		if invert {
			return NewI64(shiftRightI64(a.I64(), count)), nil
		}
		return NewI64(shiftLeftI64(a.I64(), count)), nil
	default:
		return Value{}, opMismatch("<<", a, b)
	}
}

// ShiftRight implements '>>'.
func (a Value) ShiftRight(b Value) (Value, error) {
	count, invert, err := shiftCount(b)
	if err != nil {
		return Value{}, opMismatch(">>", a, b)
	}

	switch a.kind {
	case KindU64:
		if invert {
			return NewU64(shiftLeftU64(a.U64(), count)), nil
		}
		return NewU64(shiftRightU64(a.U64(), count)), nil
	case KindI64:
		if invert {
			return NewI64(shiftLeftI64(a.I64(), count)), nil
		}
		return NewI64(shiftRightI64(a.I64(), count)), nil
	default:
		return Value{}, opMismatch(">>", a, b)
	}
}

func shiftLeftU64(v uint64, count uint64) uint64 {
	if count >= 64 {
		return 0
	}
	return v << count
}

func shiftRightU64(v uint64, count uint64) uint64 {
	if count >= 64 {
		return 0
	}
	return v >> count
}

func shiftLeftI64(v int64, count uint64) int64 {
	if count >= 64 {
		return 0
	}
	return v << count
}

func shiftRightI64(v int64, count uint64) int64 {
	if count >= 64 {
		if v < 0 {
			return -1
		}
		return 0
	}
	return v >> count
}

// Equal implements '=='. Values of different Kind are simply unequal,
// never a type error.
func (a Value) Equal(b Value) (Value, error) {
	if a.kind != b.kind {
		return NewBool(false), nil
	}
	switch a.kind {
	case KindF64:
		return NewBool(a.F64() == b.F64()), nil
	case KindU64:
		return NewBool(a.U64() == b.U64()), nil
	case KindI64:
		return NewBool(a.I64() == b.I64()), nil
	case KindBool:
		return NewBool(a.Bool() == b.Bool()), nil
	case KindChar:
		return NewBool(a.Char() == b.Char()), nil
	case KindAddr:
		return NewBool(a.Addr() == b.Addr()), nil
	default:
		return Value{}, opMismatch("==", a, b)
	}
}

// Greater implements '>'. Booleans are excluded.
func (a Value) Greater(b Value) (Value, error) {
	if a.kind != b.kind || a.kind == KindBool {
		return Value{}, opMismatch(">", a, b)
	}
	switch a.kind {
	case KindF64:
		return NewBool(a.F64() > b.F64()), nil
	case KindU64:
		return NewBool(a.U64() > b.U64()), nil
	case KindI64:
		return NewBool(a.I64() > b.I64()), nil
	case KindChar:
		return NewBool(a.Char() > b.Char()), nil
	default:
		return Value{}, opMismatch(">", a, b)
	}
}

// Less implements '<'. Booleans are excluded.
func (a Value) Less(b Value) (Value, error) {
	if a.kind != b.kind || a.kind == KindBool {
		return Value{}, opMismatch("<", a, b)
	}
	switch a.kind {
	case KindF64:
		return NewBool(a.F64() < b.F64()), nil
	case KindU64:
		return NewBool(a.U64() < b.U64()), nil
	case KindI64:
		return NewBool(a.I64() < b.I64()), nil
	case KindChar:
		return NewBool(a.Char() < b.Char()), nil
	default:
		return Value{}, opMismatch("<", a, b)
	}
}

// Negate implements unary '-'. Only F64 and I64 support negation.
func (v Value) Negate() (Value, error) {
	switch v.kind {
	case KindF64:
		return NewF64(-v.F64()), nil
	case KindI64:
		return NewI64(-v.I64()), nil
	default:
		return Value{}, opUnsupportedUnary("-", v)
	}
}

// Not implements unary '!'. Only Bool supports logical negation.
func (v Value) Not() (Value, error) {
	if v.kind != KindBool {
		return Value{}, opUnsupportedUnary("!", v)
	}
	return NewBool(!v.Bool()), nil
}
