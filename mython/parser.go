package mython

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a grammar violation, an unknown base class, a
// duplicate class declaration, or a receiverless call.
type ParseError struct {
	Pos    Position
	Msg    string
	source string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "parse error at %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
	if frame := formatCodeFrame(e.source, e.Pos); frame != "" {
		b.WriteString("\n")
		b.WriteString(frame)
	}
	return b.String()
}

type parser struct {
	lexer   *Lexer
	classes map[string]*Class
}

// Parse consumes the lexer's token stream and builds the program AST. The
// first grammar violation aborts parsing with a *ParseError.
func Parse(l *Lexer) (*Program, error) {
	return ParseWithClasses(l, nil)
}

// ParseWithClasses parses with a pre-seeded class registry, so a host (the
// REPL) can carry classes declared by earlier inputs into later ones. The
// seed map is copied; the returned program owns its own registry.
func ParseWithClasses(l *Lexer, seed map[string]*Class) (*Program, error) {
	p := &parser{lexer: l, classes: make(map[string]*Class, len(seed))}
	for name, cls := range seed {
		p.classes[name] = cls
	}

	var stmts []Statement
	for !p.cur().Is(TokenEOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}

	return &Program{Statements: stmts, classes: p.classes, source: l.source}, nil
}

func (p *parser) cur() Token {
	return p.lexer.CurrentToken()
}

func (p *parser) next() Token {
	return p.lexer.NextToken()
}

func (p *parser) errorf(pos Position, format string, args ...any) error {
	return &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...), source: p.lexer.source}
}

func (p *parser) errorExpected(expected string) error {
	tok := p.cur()
	return p.errorf(tok.Pos, "expected %s, got %s", expected, tokenLabel(tok))
}

// expect verifies the current token's type without advancing.
func (p *parser) expect(tt TokenType) (Token, error) {
	tok := p.cur()
	if !tok.Is(tt) {
		return tok, p.errorExpected(tokenLabel(Token{Type: tt}))
	}
	return tok, nil
}

// expectNext advances, then verifies the new current token's type.
func (p *parser) expectNext(tt TokenType) (Token, error) {
	p.next()
	return p.expect(tt)
}

func (p *parser) expectChar(c byte) error {
	if !p.cur().IsChar(c) {
		return p.errorExpected(fmt.Sprintf("%q", string(c)))
	}
	return nil
}

func (p *parser) expectNextChar(c byte) error {
	p.next()
	return p.expectChar(c)
}

// Statement := 'class' ClassDef | 'if' Condition | SimpleStmt Newline
func (p *parser) parseStatement() (Statement, error) {
	switch p.cur().Type {
	case TokenClass:
		p.next()
		return p.parseClassDefinition()
	case TokenIf:
		return p.parseCondition()
	}

	stmt, err := p.parseSimpleStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenNewline); err != nil {
		return nil, err
	}
	p.next()
	return stmt, nil
}

// SimpleStmt := 'return' Test | 'print' [TestList] | AssignOrCall
func (p *parser) parseSimpleStatement() (Statement, error) {
	tok := p.cur()

	switch tok.Type {
	case TokenReturn:
		p.next()
		value, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		return &ReturnStmt{Value: value, position: tok.Pos}, nil

	case TokenPrint:
		p.next()
		// print accepts both comma-separated and juxtaposed arguments:
		// `print a, b` and `print a b` emit the same line.
		var args []Expression
		if !p.cur().Is(TokenNewline) {
			for {
				arg, err := p.parseTest()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.cur().IsChar(',') {
					p.next()
					continue
				}
				if p.cur().Is(TokenNewline) || p.cur().Is(TokenEOF) {
					break
				}
			}
		}
		return &PrintStmt{Args: args, position: tok.Pos}, nil
	}

	return p.parseAssignOrCall()
}

// AssignOrCall := DottedIds ('=' Test | '(' [TestList] ')')
func (p *parser) parseAssignOrCall() (Statement, error) {
	pos := p.cur().Pos
	names, err := p.parseDottedIds()
	if err != nil {
		return nil, err
	}
	last := names[len(names)-1]
	prefix := names[:len(names)-1]

	if p.cur().IsChar('=') {
		p.next()
		value, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		if len(prefix) == 0 {
			return &AssignStmt{Name: last, Value: value, position: pos}, nil
		}
		return &FieldAssignStmt{
			Object:   &VariableExpr{Names: prefix, position: pos},
			Field:    last,
			Value:    value,
			position: pos,
		}, nil
	}

	if err := p.expectChar('('); err != nil {
		return nil, err
	}
	p.next()

	var args []Expression
	if !p.cur().IsChar(')') {
		if args, err = p.parseTestList(); err != nil {
			return nil, err
		}
	}
	if err := p.expectChar(')'); err != nil {
		return nil, err
	}
	p.next()

	if len(prefix) == 0 {
		if last == "str" {
			if len(args) != 1 {
				return nil, p.errorf(pos, "str takes exactly one argument")
			}
			return &ExprStmt{Expr: &StringifyExpr{Operand: args[0], position: pos}, position: pos}, nil
		}
		return nil, p.errorf(pos, "only methods are supported, cannot call function %q", last)
	}

	call := &MethodCallExpr{
		Object:   &VariableExpr{Names: prefix, position: pos},
		Method:   last,
		Args:     args,
		position: pos,
	}
	return &ExprStmt{Expr: call, position: pos}, nil
}

// DottedIds := Id ('.' Id)*
func (p *parser) parseDottedIds() ([]string, error) {
	tok, err := p.expect(TokenId)
	if err != nil {
		return nil, err
	}
	names := []string{tok.Literal}

	for p.next().IsChar('.') {
		tok, err := p.expectNext(TokenId)
		if err != nil {
			return nil, err
		}
		names = append(names, tok.Literal)
	}

	return names, nil
}

// ClassDef := Id ['(' Id ')'] ':' Newline Indent Def+ Dedent
func (p *parser) parseClassDefinition() (Statement, error) {
	nameTok, err := p.expect(TokenId)
	if err != nil {
		return nil, err
	}
	className := nameTok.Literal
	p.next()

	var parent *Class
	if p.cur().IsChar('(') {
		parentTok, err := p.expectNext(TokenId)
		if err != nil {
			return nil, err
		}
		if err := p.expectNextChar(')'); err != nil {
			return nil, err
		}
		p.next()

		parent = p.classes[parentTok.Literal]
		if parent == nil {
			return nil, p.errorf(parentTok.Pos, "base class %q not found for class %q", parentTok.Literal, className)
		}
	}

	if err := p.expectChar(':'); err != nil {
		return nil, err
	}
	if _, err := p.expectNext(TokenNewline); err != nil {
		return nil, err
	}
	if _, err := p.expectNext(TokenIndent); err != nil {
		return nil, err
	}
	if _, err := p.expectNext(TokenDef); err != nil {
		return nil, err
	}

	methods, err := p.parseMethods()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(TokenDedent); err != nil {
		return nil, err
	}
	p.next()

	if _, exists := p.classes[className]; exists {
		return nil, p.errorf(nameTok.Pos, "class %q already exists", className)
	}

	cls := NewClass(className, methods, parent)
	p.classes[className] = cls

	return &ClassStmt{Class: cls, position: nameTok.Pos}, nil
}

// Def := 'def' Id '(' [Id (',' Id)*] ')' ':' Suite
func (p *parser) parseMethods() ([]*Method, error) {
	var methods []*Method

	for p.cur().Is(TokenDef) {
		nameTok, err := p.expectNext(TokenId)
		if err != nil {
			return nil, err
		}
		if err := p.expectNextChar('('); err != nil {
			return nil, err
		}

		var params []string
		if p.next().Is(TokenId) {
			params = append(params, p.cur().Literal)
			for p.next().IsChar(',') {
				tok, err := p.expectNext(TokenId)
				if err != nil {
					return nil, err
				}
				params = append(params, tok.Literal)
			}
		}

		if err := p.expectChar(')'); err != nil {
			return nil, err
		}
		if err := p.expectNextChar(':'); err != nil {
			return nil, err
		}
		p.next()

		body, err := p.parseSuite()
		if err != nil {
			return nil, err
		}

		// The call protocol seeds self implicitly and binds the remaining
		// formals positionally from the actual arguments.
		if len(params) > 0 && params[0] == "self" {
			params = params[1:]
		}

		methods = append(methods, &Method{Name: nameTok.Literal, FormalParams: params, Body: body})
	}

	return methods, nil
}

// Suite := Newline Indent Statement+ Dedent
func (p *parser) parseSuite() ([]Statement, error) {
	if _, err := p.expect(TokenNewline); err != nil {
		return nil, err
	}
	if _, err := p.expectNext(TokenIndent); err != nil {
		return nil, err
	}
	p.next()

	var stmts []Statement
	for !p.cur().Is(TokenDedent) && !p.cur().Is(TokenEOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}

	if _, err := p.expect(TokenDedent); err != nil {
		return nil, err
	}
	p.next()

	return stmts, nil
}

// Condition := 'if' Test ':' Suite ['else' ':' Suite]
func (p *parser) parseCondition() (Statement, error) {
	tok, err := p.expect(TokenIf)
	if err != nil {
		return nil, err
	}
	p.next()

	condition, err := p.parseTest()
	if err != nil {
		return nil, err
	}

	if err := p.expectChar(':'); err != nil {
		return nil, err
	}
	p.next()

	consequent, err := p.parseSuite()
	if err != nil {
		return nil, err
	}

	var alternate []Statement
	if p.cur().Is(TokenElse) {
		if err := p.expectNextChar(':'); err != nil {
			return nil, err
		}
		p.next()
		if alternate, err = p.parseSuite(); err != nil {
			return nil, err
		}
	}

	return &IfStmt{Condition: condition, Consequent: consequent, Alternate: alternate, position: tok.Pos}, nil
}

// TestList := Test (',' Test)*
func (p *parser) parseTestList() ([]Expression, error) {
	first, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	exprs := []Expression{first}

	for p.cur().IsChar(',') {
		p.next()
		expr, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}

	return exprs, nil
}

// Test := AndTest ('or' AndTest)*
func (p *parser) parseTest() (Expression, error) {
	result, err := p.parseAndTest()
	if err != nil {
		return nil, err
	}

	for p.cur().Is(TokenOr) {
		pos := p.cur().Pos
		p.next()
		right, err := p.parseAndTest()
		if err != nil {
			return nil, err
		}
		result = &OrExpr{Left: result, Right: right, position: pos}
	}

	return result, nil
}

// AndTest := NotTest ('and' NotTest)*
func (p *parser) parseAndTest() (Expression, error) {
	result, err := p.parseNotTest()
	if err != nil {
		return nil, err
	}

	for p.cur().Is(TokenAnd) {
		pos := p.cur().Pos
		p.next()
		right, err := p.parseNotTest()
		if err != nil {
			return nil, err
		}
		result = &AndExpr{Left: result, Right: right, position: pos}
	}

	return result, nil
}

// NotTest := 'not' NotTest | Comparison
func (p *parser) parseNotTest() (Expression, error) {
	if p.cur().Is(TokenNot) {
		pos := p.cur().Pos
		p.next()
		operand, err := p.parseNotTest()
		if err != nil {
			return nil, err
		}
		return &NotExpr{Operand: operand, position: pos}, nil
	}

	return p.parseComparison()
}

// Comparison := Expr [CMPOP Expr], single non-associative operator.
func (p *parser) parseComparison() (Expression, error) {
	left, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	tok := p.cur()
	var op CompareOp
	switch {
	case tok.IsChar('<'):
		op = CompareLess
	case tok.IsChar('>'):
		op = CompareGreater
	case tok.Is(TokenEq):
		op = CompareEq
	case tok.Is(TokenNotEq):
		op = CompareNotEq
	case tok.Is(TokenLessOrEq):
		op = CompareLessOrEq
	case tok.Is(TokenGreaterOrEq):
		op = CompareGreaterOrEq
	default:
		return left, nil
	}

	p.next()
	right, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &CompareExpr{Op: op, Left: left, Right: right, position: tok.Pos}, nil
}

// Expr := Term (('+'|'-') Term)*, left-associative.
func (p *parser) parseExpression() (Expression, error) {
	result, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for p.cur().IsChar('+') || p.cur().IsChar('-') {
		tok := p.cur()
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if tok.IsChar('+') {
			result = &AddExpr{Left: result, Right: right, position: tok.Pos}
		} else {
			result = &SubExpr{Left: result, Right: right, position: tok.Pos}
		}
	}

	return result, nil
}

// Term := Primary (('*'|'/') Primary)*
func (p *parser) parseTerm() (Expression, error) {
	result, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for p.cur().IsChar('*') || p.cur().IsChar('/') {
		tok := p.cur()
		p.next()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		if tok.IsChar('*') {
			result = &MultExpr{Left: result, Right: right, position: tok.Pos}
		} else {
			result = &DivExpr{Left: result, Right: right, position: tok.Pos}
		}
	}

	return result, nil
}

// Primary := '(' Test ')' | Number | '-' Primary | String | 'True'
// | 'False' | 'None' | DottedIds ['(' [TestList] ')']
func (p *parser) parsePrimary() (Expression, error) {
	tok := p.cur()

	switch {
	case tok.IsChar('('):
		p.next()
		inner, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		if err := p.expectChar(')'); err != nil {
			return nil, err
		}
		p.next()
		return inner, nil

	case tok.IsChar('-'):
		// Unary minus multiplies by negative one.
		p.next()
		operand, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &MultExpr{
			Left:     operand,
			Right:    &NumberLiteral{Value: -1, position: tok.Pos},
			position: tok.Pos,
		}, nil

	case tok.Is(TokenNumber):
		value, err := strconv.Atoi(tok.Literal)
		if err != nil {
			return nil, p.errorf(tok.Pos, "number %s is out of range", tok.Literal)
		}
		p.next()
		return &NumberLiteral{Value: value, position: tok.Pos}, nil

	case tok.Is(TokenString):
		p.next()
		return &StringLiteral{Value: tok.Literal, position: tok.Pos}, nil

	case tok.Is(TokenTrue):
		p.next()
		return &BoolLiteral{Value: true, position: tok.Pos}, nil

	case tok.Is(TokenFalse):
		p.next()
		return &BoolLiteral{Value: false, position: tok.Pos}, nil

	case tok.Is(TokenNone):
		p.next()
		return &NoneLiteral{position: tok.Pos}, nil
	}

	return p.parseDottedPrimary()
}

// A dotted path in expression position is a variable read, a method call,
// an instance creation when the head names a declared class, or str(x).
func (p *parser) parseDottedPrimary() (Expression, error) {
	pos := p.cur().Pos
	names, err := p.parseDottedIds()
	if err != nil {
		return nil, err
	}

	if !p.cur().IsChar('(') {
		return &VariableExpr{Names: names, position: pos}, nil
	}

	var args []Expression
	if !p.next().IsChar(')') {
		if args, err = p.parseTestList(); err != nil {
			return nil, err
		}
	}
	if err := p.expectChar(')'); err != nil {
		return nil, err
	}
	p.next()

	callee := names[len(names)-1]
	receiver := names[:len(names)-1]

	if len(receiver) > 0 {
		return &MethodCallExpr{
			Object:   &VariableExpr{Names: receiver, position: pos},
			Method:   callee,
			Args:     args,
			position: pos,
		}, nil
	}

	if cls, ok := p.classes[callee]; ok {
		return &NewInstanceExpr{Class: cls, Args: args, position: pos}, nil
	}

	if callee == "str" {
		if len(args) != 1 {
			return nil, p.errorf(pos, "str takes exactly one argument")
		}
		return &StringifyExpr{Operand: args[0], position: pos}, nil
	}

	return nil, p.errorf(pos, "unknown call to %s()", callee)
}

func tokenLabel(tok Token) string {
	switch tok.Type {
	case TokenEOF:
		return "end of input"
	case TokenId:
		return "identifier"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenChar:
		return fmt.Sprintf("%q", tok.Literal)
	case TokenNewline:
		return "end of line"
	case TokenIndent:
		return "indent"
	case TokenDedent:
		return "dedent"
	case TokenEq, TokenNotEq, TokenLessOrEq, TokenGreaterOrEq:
		return fmt.Sprintf("%q", string(tok.Type))
	default:
		return fmt.Sprintf("%q", strings.ToLower(string(tok.Type)))
	}
}
