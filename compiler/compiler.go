// Package compiler implements the single-pass, token-driven TAC
// compiler: it drives a scanner directly (there is no intermediate
// AST) and emits bytecode straight into a chunk.Chunk, resolving
// forward-referenced labels in a final patch pass.
package compiler

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"tacvm/chunk"
	"tacvm/scanner"
	"tacvm/token"
	"tacvm/value"
)

// ErrCompile is the sentinel returned by Compile when one or more
// diagnostics were emitted; every diagnostic itself was already
// written to the caller's stderr writer.
var ErrCompile = errors.New("compile error")

type pendingUse struct {
	instructionIdx int
	line           int
}

type compiler struct {
	scanner *scanner.Scanner
	chunk   *chunk.Chunk
	stderr  io.Writer

	hadError  bool
	panicMode bool

	current  token.Token
	previous token.Token

	labels        map[string]int
	pendingLabels map[string][]pendingUse
}

// Compile translates source into bytecode written into c, in a single
// pass. Diagnostics are written to stderr as they are found; Compile
// returns ErrCompile if any were emitted.
func Compile(source string, c *chunk.Chunk, stderr io.Writer) error {
	p := &compiler{
		scanner:       scanner.New(source),
		chunk:         c,
		stderr:        stderr,
		labels:        make(map[string]int),
		pendingLabels: make(map[string][]pendingUse),
	}

	p.advance()

	for p.current.Kind != token.Eof {
		p.statement()

		if p.panicMode {
			p.synchronize()
		}
	}

	p.end()

	if p.hadError {
		return ErrCompile
	}
	return nil
}

// CompileStderr is a convenience wrapper that writes diagnostics to
// os.Stderr, for callers that do not need to capture them.
func CompileStderr(source string, c *chunk.Chunk) error {
	return Compile(source, c, os.Stderr)
}

func (p *compiler) synchronize() {
	p.panicMode = false

	for p.current.Kind != token.Eof {
		if p.previous.Kind == token.NewLine {
			return
		}
		p.advance()
	}
}

func (p *compiler) statement() {
	p.advance()

	switch p.previous.Kind {
	case token.Print, token.PrintLn:
		p.printStatement()
	case token.If, token.IfFalse:
		p.ifStatement()
	case token.Goto:
		p.gotoStatement()
	case token.Halt:
		p.emitInstruction(chunk.Instruction{Op: chunk.Halt})
	case token.Star:
		p.assignment()
	case token.Identifier:
		p.labelOrAssignment()

	case token.NewLine, token.Eof:
		return
	case token.Equal:
		p.error("Assignments must have a variable on the left side")
	case token.Scan:
		p.error("Return value of scan must be assigned to a variable")
	case token.Param, token.Call, token.Return:
		p.error(fmt.Sprintf("'%s' is a reserved construct and is not yet implemented", p.previous.Lexeme))
	default:
		p.error(fmt.Sprintf("Invalid statement with token %s", p.previous.Kind))
	}

	switch p.current.Kind {
	case token.NewLine, token.Eof:
		// ok — end of statement
	case token.BangEqual, token.EqualEqual, token.Greater, token.GreaterEqual,
		token.Less, token.LessEqual, token.Minus, token.Plus, token.Star,
		token.Slash, token.Percent, token.ShiftLeft, token.ShiftRight,
		token.Bang, token.Amp:
		p.errorAtCurrent("Three-address code programs support at most binary expressions")
	default:
		p.errorAtCurrent("There must be at most one statement per line")
	}
}

func (p *compiler) labelOrAssignment() {
	identifier := p.previous

	if p.matchAdvance(token.Colon) {
		if _, ok := p.labels[identifier.Lexeme]; ok {
			p.errorAt(identifier, "Redefinition of labels is not allowed")
			return
		}
		p.labels[identifier.Lexeme] = len(p.chunk.Code)
		return
	}

	p.assignment()
}

func (p *compiler) assignment() {
	dereference := p.previous.Kind == token.Star

	if dereference {
		p.consume(token.Identifier, "A variable is required to be dereferenced")
	}

	name, err := p.chunk.AddName(p.previous.Lexeme)
	if err != nil {
		p.error("The program uses too many variables (65535+)")
		return
	}

	if p.matchAdvance(token.LeftBrack) {
		if dereference {
			p.error("Dereferenced variables can not be accessed via array indexes in the same statement")
			return
		}
		p.arraySubscript()
		p.consume(token.RightBrack, "Missing ']': Array accesses must be enclosed by brackets")
	}

	p.consume(token.Equal, "Assignment statement expected, but no '=' was found")

	p.emitInstruction(chunk.Instruction{Op: chunk.GetOrCreateVar, Operand: name})
	p.expression()
	p.emitInstruction(chunk.Instruction{Op: chunk.Assign})
}

// arraySubscript is a reserved syntactic hook (spec.md §9): it reports
// a compile error and neither parses nor compiles the subscript
// expression.
func (p *compiler) arraySubscript() {
	p.error("array subscripts are a reserved construct and are not yet implemented")
}

func (p *compiler) ifStatement() {
	negate := p.previous.Kind == token.IfFalse
	statementName := "if"
	if negate {
		statementName = "ifFalse"
	}

	p.expression()

	p.consume(token.Goto, fmt.Sprintf("Missing 'goto' keyword after %s statement", statementName))
	p.consume(token.Identifier, fmt.Sprintf("Missing label after %s statement", statementName))

	label := p.previous.Lexeme

	if negate {
		p.emitInstruction(chunk.Instruction{Op: chunk.Not})
	}

	p.pendingLabels[label] = append(p.pendingLabels[label], pendingUse{
		instructionIdx: len(p.chunk.Code),
		line:           p.previous.Line,
	})

	p.emitInstruction(chunk.Instruction{Op: chunk.JumpIf, Operand: 0})
}

func (p *compiler) gotoStatement() {
	p.consume(token.Identifier, "Missing label for 'goto' statement")

	label := p.previous.Lexeme

	p.pendingLabels[label] = append(p.pendingLabels[label], pendingUse{
		instructionIdx: len(p.chunk.Code),
		line:           p.previous.Line,
	})

	p.emitInstruction(chunk.Instruction{Op: chunk.Goto, Operand: 0})
}

func (p *compiler) printStatement() {
	newline := p.previous.Kind == token.PrintLn

	p.expression()

	operand := uint16(0)
	if newline {
		operand = 1
	}
	p.emitInstruction(chunk.Instruction{Op: chunk.Print, Operand: operand})
}

// expression parses the TAC-restricted grammar: a unary expression, a
// call/scan expression (reserved), or a single operand optionally
// followed by one binary operator and a second operand.
func (p *compiler) expression() {
	if p.unaryExpression() {
		return
	}

	if p.current.Kind == token.Call {
		p.advance()
		p.operand()
		p.operand()
		p.error("call expressions are a reserved construct and are not yet implemented")
		return
	}

	if p.current.Kind == token.Scan {
		p.advance()
		p.error("scan expressions are a reserved construct and are not yet implemented")
		return
	}

	p.operand()

	switch p.current.Kind {
	case token.BangEqual:
		p.emitBinOp(chunk.Equal, chunk.Not)
	case token.EqualEqual:
		p.emitBinOp(chunk.Equal)
	case token.Greater:
		p.emitBinOp(chunk.Greater)
	case token.GreaterEqual:
		p.emitBinOp(chunk.Less, chunk.Not)
	case token.Less:
		p.emitBinOp(chunk.Less)
	case token.LessEqual:
		p.emitBinOp(chunk.Greater, chunk.Not)
	case token.Minus:
		p.emitBinOp(chunk.Subtract)
	case token.Plus:
		p.emitBinOp(chunk.Add)
	case token.Star:
		p.emitBinOp(chunk.Multiply)
	case token.Slash:
		p.emitBinOp(chunk.Divide)
	case token.Percent:
		p.emitBinOp(chunk.Modulo)
	case token.ShiftLeft:
		p.emitBinOp(chunk.ShiftLeft)
	case token.ShiftRight:
		p.emitBinOp(chunk.ShiftRight)
	}
}

// emitBinOp consumes the operator token, the second operand, and
// emits one or two instructions synthesizing the comparison form.
func (p *compiler) emitBinOp(ops ...chunk.Opcode) {
	p.advance()
	p.operand()
	for _, op := range ops {
		p.emitInstruction(chunk.Instruction{Op: op})
	}
}

// unaryExpression handles the '!' and '-' prefix forms. '*' and '&'
// are reserved syntactic hooks (spec.md §9).
func (p *compiler) unaryExpression() bool {
	var op chunk.Opcode
	switch p.current.Kind {
	case token.Bang:
		op = chunk.Not
	case token.Minus:
		op = chunk.Negate
	case token.Star, token.Amp:
		sym := p.current.Lexeme
		p.advance()
		p.operand()
		p.error(fmt.Sprintf("'%s' is a reserved construct and is not yet implemented", sym))
		return true
	default:
		return false
	}

	p.advance()
	p.operand()
	p.emitInstruction(chunk.Instruction{Op: op})
	return true
}

func (p *compiler) operand() {
	p.advance()

	switch p.previous.Kind {
	case token.Identifier:
		name, err := p.chunk.AddName(p.previous.Lexeme)
		if err != nil {
			p.error("The program uses too many variables (65535+)")
			return
		}
		p.emitInstruction(chunk.Instruction{Op: chunk.GetVar, Operand: name})
	case token.True:
		p.emitInstruction(chunk.Instruction{Op: chunk.True})
	case token.False:
		p.emitInstruction(chunk.Instruction{Op: chunk.False})
	case token.Char:
		p.char()
	case token.Number:
		p.number()
	case token.String:
		p.error("String literals are only allowed in the data section")
	default:
		p.error("Invalid operand, expected literal value or variable name")
	}
}

func (p *compiler) number() {
	lexeme := p.previous.Lexeme

	numberEnd := len(lexeme)
	hasDot := false
	for i, c := range lexeme {
		if isAsciiAlpha(c) {
			numberEnd = i
			break
		}
		if c == '.' {
			hasDot = true
		}
	}

	digits := lexeme[:numberEnd]
	suffix := lexeme[numberEnd:]

	switch suffix {
	case "u64":
		if hasDot {
			p.error("Cannot set u64 suffix to a float number")
			return
		}
		p.parseU64(digits)
	case "i64":
		if hasDot {
			p.error("Cannot set i64 suffix to a float number")
			return
		}
		p.parseI64(digits)
	case "f64":
		p.parseF64(digits)
	case "":
		if hasDot {
			p.parseF64(digits)
		} else {
			p.parseI64(digits)
		}
	default:
		p.error(fmt.Sprintf("Invalid suffix '%s'", suffix))
	}
}

func (p *compiler) parseU64(digits string) {
	v, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		p.error("It was not possible to parse number to type u64")
		return
	}
	p.makeConstant(value.NewU64(v))
}

func (p *compiler) parseI64(digits string) {
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		p.error("It was not possible to parse number to type i64")
		return
	}
	p.makeConstant(value.NewI64(v))
}

func (p *compiler) parseF64(digits string) {
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		p.error("It was not possible to parse number to type f64")
		return
	}
	p.makeConstant(value.NewF64(v))
}

func (p *compiler) char() {
	runes := []rune(p.previous.Lexeme)
	if len(runes) < 2 {
		panic("compiler: invalid token of kind Char")
	}
	p.makeConstant(value.NewChar(runes[1]))
}

func (p *compiler) makeConstant(v value.Value) {
	idx, err := p.chunk.AddConstant(v)
	if err != nil {
		p.error(err.Error())
		return
	}
	p.emitInstruction(chunk.Instruction{Op: chunk.Constant, Operand: idx})
}

func (p *compiler) updatePendingLabels() {
	type patch struct {
		idx   int
		value uint16
	}
	var patches []patch
	var missing []pendingUse
	var missingNames []string

	for label, uses := range p.pendingLabels {
		if idx, ok := p.labels[label]; ok {
			for _, use := range uses {
				patches = append(patches, patch{idx: use.instructionIdx, value: uint16(idx)})
			}
		} else if len(uses) > 0 {
			missing = append(missing, uses[0])
			missingNames = append(missingNames, label)
		}
	}

	for i, use := range missing {
		p.error(fmt.Sprintf("Missing label '%s', first used in line %d", missingNames[i], use.line))
	}

	for _, pt := range patches {
		p.patchJump(pt.idx, pt.value)
	}
}

func (p *compiler) patchJump(idx int, val uint16) {
	switch p.chunk.Code[idx].Op {
	case chunk.Goto, chunk.JumpIf:
		p.chunk.Patch(idx, val)
	default:
		panic("compiler: patching jump led to invalid instruction")
	}
}

func (p *compiler) end() {
	if len(p.chunk.Code) == 0 || p.chunk.Code[len(p.chunk.Code)-1].Op != chunk.Halt {
		p.emitInstruction(chunk.Instruction{Op: chunk.Halt})
	}

	p.updatePendingLabels()
}

func (p *compiler) emitInstruction(i chunk.Instruction) {
	p.chunk.Write(i, p.previous.Line)
}

func (p *compiler) consume(kind token.Kind, message string) {
	if p.matchAdvance(kind) {
		return
	}
	p.errorAtCurrent(message)
}

func (p *compiler) matchAdvance(kind token.Kind) bool {
	if p.current.Kind == kind {
		p.advance()
		return true
	}
	return false
}

func (p *compiler) advance() {
	p.previous = p.current

	for {
		p.current = p.scanner.NextToken()
		if p.current.Kind != token.Error {
			break
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

func (p *compiler) errorAtCurrent(message string) {
	p.errorAt(p.current, message)
}

func (p *compiler) error(message string) {
	p.errorAt(p.previous, message)
}

func (p *compiler) errorAt(tok token.Token, message string) {
	if p.panicMode {
		return
	}

	fmt.Fprintf(p.stderr, "[line %d] Error", tok.Line)
	switch tok.Kind {
	case token.Eof:
		fmt.Fprint(p.stderr, " at end")
	case token.Error:
	default:
		fmt.Fprintf(p.stderr, " at '%s'", tok.Lexeme)
	}
	fmt.Fprintf(p.stderr, ": %s\n", message)

	p.hadError = true
	p.panicMode = true
}

func isAsciiAlpha(c rune) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}
