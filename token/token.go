// Package token defines the lexical vocabulary of the TAC language: the
// set of token kinds the scanner produces and the compiler consumes.
package token

// Kind identifies the lexical category of a Token.
type Kind string

// Token is a single lexical unit: its kind, the source slice it came
// from, and the line it was scanned on.
type Token struct {
	Kind   Kind
	Lexeme string
	Line   int
}

const (
	// Sentinels.
	Error Kind = "ERROR"
	Eof   Kind = "EOF"

	// Single-char punctuation.
	LeftParen  Kind = "("
	RightParen Kind = ")"
	LeftBrace  Kind = "{"
	RightBrace Kind = "}"
	LeftBrack  Kind = "["
	RightBrack Kind = "]"
	Comma      Kind = ","
	Colon      Kind = ":"
	Dot        Kind = "."
	Minus      Kind = "-"
	Plus       Kind = "+"
	Semicolon  Kind = ";"
	Slash      Kind = "/"
	Star       Kind = "*"
	Percent    Kind = "%"
	Amp        Kind = "&"
	NewLine    Kind = "NEWLINE"

	// One- or two-char operators.
	Bang         Kind = "!"
	BangEqual    Kind = "!="
	Equal        Kind = "="
	EqualEqual   Kind = "=="
	Greater      Kind = ">"
	GreaterEqual Kind = ">="
	Less         Kind = "<"
	LessEqual    Kind = "<="
	ShiftLeft    Kind = "<<"
	ShiftRight   Kind = ">>"

	// Literals.
	Identifier Kind = "IDENTIFIER"
	String     Kind = "STRING"
	Number     Kind = "NUMBER"
	Char       Kind = "CHAR"

	// Keywords.
	If      Kind = "IF"
	IfFalse Kind = "IFFALSE"
	Goto    Kind = "GOTO"
	Param   Kind = "PARAM"
	Call    Kind = "CALL"
	Return  Kind = "RETURN"
	True    Kind = "TRUE"
	False   Kind = "FALSE"
	Print   Kind = "PRINT"
	PrintLn Kind = "PRINTLN"
	Scan    Kind = "SCAN"
	Halt    Kind = "HALT"
	U64     Kind = "U64"
	I64     Kind = "I64"
	F64     Kind = "F64"
	CharKw  Kind = "CHAR_KW"
	Bool    Kind = "BOOL"
)

var keywords = map[string]Kind{
	"if":      If,
	"ifFalse": IfFalse,
	"goto":    Goto,
	"param":   Param,
	"call":    Call,
	"return":  Return,
	"true":    True,
	"false":   False,
	"print":   Print,
	"println": PrintLn,
	"scan":    Scan,
	"halt":    Halt,
	"u64":     U64,
	"i64":     I64,
	"f64":     F64,
	"char":    CharKw,
	"bool":    Bool,
}

// LookupIdent resolves an identifier lexeme to its keyword Kind, or to
// Identifier if it is not a reserved word.
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return Identifier
}
