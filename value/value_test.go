package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_SameKind(t *testing.T) {
	v, err := NewI64(1).Add(NewI64(2))
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.I64())
}

func TestAdd_MixedKindIsError(t *testing.T) {
	_, err := NewI64(1).Add(NewBool(true))
	require.Error(t, err)
	assert.Equal(t, "Operator '+' not supported between values of type 'i64' and 'bool'", err.Error())
}

func TestAdd_U64Wraps(t *testing.T) {
	v, err := NewU64(^uint64(0)).Add(NewU64(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v.U64())
}

func TestDiv_ByZero(t *testing.T) {
	cases := []Value{NewF64(0), NewF64(math.Copysign(0, -1)), NewI64(0), NewU64(0)}
	for _, zero := range cases {
		var a Value
		switch zero.Kind() {
		case KindF64:
			a = NewF64(1)
		case KindI64:
			a = NewI64(1)
		case KindU64:
			a = NewU64(1)
		}
		_, err := a.Div(zero)
		require.Error(t, err)
		assert.Equal(t, "Division by 0", err.Error())
	}
}

func TestShiftLeft_U64(t *testing.T) {
	v, err := NewU64(1).ShiftLeft(NewU64(4))
	require.NoError(t, err)
	assert.Equal(t, uint64(16), v.U64())
}

func TestShiftLeft_NegativeCountInvertsDirection(t *testing.T) {
	v, err := NewU64(16).ShiftLeft(NewI64(-2))
	require.NoError(t, err)
	assert.Equal(t, uint64(4), v.U64(), "negative count on << becomes >>")
}

func TestShiftRight_SaturatesAtU32Max(t *testing.T) {
	v, err := NewU64(1).ShiftRight(NewU64(1 << 40))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v.U64())
}

func TestEqual_DifferentKindsAreUnequalNotError(t *testing.T) {
	v, err := NewU64(1).Equal(NewI64(1))
	require.NoError(t, err)
	assert.False(t, v.Bool())
}

func TestLess_BoolExcluded(t *testing.T) {
	_, err := NewBool(true).Less(NewBool(false))
	require.Error(t, err)
}

func TestLess_Char(t *testing.T) {
	v, err := NewChar('a').Less(NewChar('b'))
	require.NoError(t, err)
	assert.True(t, v.Bool())
}

func TestNegate_F64AndI64Ok(t *testing.T) {
	v, err := NewF64(1.5).Negate()
	require.NoError(t, err)
	assert.Equal(t, -1.5, v.F64())

	v, err = NewI64(5).Negate()
	require.NoError(t, err)
	assert.Equal(t, int64(-5), v.I64())
}

func TestNegate_U64IsError(t *testing.T) {
	_, err := NewU64(5).Negate()
	require.Error(t, err)
}

func TestNegate_CharAndBoolAreErrors(t *testing.T) {
	_, err := NewChar('a').Negate()
	require.Error(t, err)

	_, err = NewBool(true).Negate()
	require.Error(t, err)
}

func TestNot_OnlyBool(t *testing.T) {
	v, err := NewBool(true).Not()
	require.NoError(t, err)
	assert.False(t, v.Bool())

	_, err = NewI64(1).Not()
	require.Error(t, err)
}

func TestString_Rendering(t *testing.T) {
	assert.Equal(t, "3", NewI64(3).String())
	assert.Equal(t, "3.14", NewF64(3.14).String())
	assert.Equal(t, "true", NewBool(true).String())
	assert.Equal(t, "a", NewChar('a').String())
}
