// Package parser implements the recursive-descent, precedence-climbing
// parser described in spec.md §4.2: a token stream becomes an AST.
package parser

import (
	"github.com/btouchard/tacc/internal/compiler/ast"
	"github.com/btouchard/tacc/internal/compiler/diagnostics"
	"github.com/btouchard/tacc/internal/compiler/lexer"
	"github.com/btouchard/tacc/internal/compiler/token"
)

// Precedence levels for the expression parser, lowest to highest.
const (
	_ int = iota
	LOWEST
	OR          // or
	AND         // and
	EQUALS      // == !=
	LESSGREATER // < <= > >=
	SUM         // + -
	PRODUCT     // * / %
	UNARY       // not, unary -
	CALL        // call(), index[], **
)

var precedences = map[token.Type]int{
	token.OR:       OR,
	token.AND:      AND,
	token.EQ:       EQUALS,
	token.NOT_EQ:   EQUALS,
	token.LT:       LESSGREATER,
	token.LT_EQ:    LESSGREATER,
	token.GT:       LESSGREATER,
	token.GT_EQ:    LESSGREATER,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.STAR:     PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
	token.POWER:    CALL,
	token.LPAREN:   CALL,
	token.LBRACKET: CALL,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser consumes a Lexer's token stream and builds an *ast.Program,
// reporting syntax errors into a shared diagnostics.Sink rather than
// aborting on the first one (spec.md §2).
type Parser struct {
	l     *lexer.Lexer
	diags *diagnostics.Sink

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn
}

// New constructs a Parser over src, reporting lexical and syntax errors
// into the same sink (spec.md §5: phases share one Sink per invocation).
func New(src string, diags *diagnostics.Sink) *Parser {
	p := &Parser{
		l:     lexer.New(src, diags),
		diags: diags,
	}

	p.prefixParseFns = make(map[token.Type]prefixParseFn)
	p.registerPrefix(token.IDENTIFIER, p.parseIdentifier)
	p.registerPrefix(token.INTEGER, p.parseIntLiteral)
	p.registerPrefix(token.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.BOOLEAN, p.parseBooleanLiteral)
	p.registerPrefix(token.NONE, p.parseNoneLiteral)
	p.registerPrefix(token.MINUS, p.parseUnaryExpression)
	p.registerPrefix(token.NOT, p.parseUnaryExpression)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACKET, p.parseListLiteral)

	p.infixParseFns = make(map[token.Type]infixParseFn)
	p.registerInfix(token.PLUS, p.parseBinaryExpression)
	p.registerInfix(token.MINUS, p.parseBinaryExpression)
	p.registerInfix(token.STAR, p.parseBinaryExpression)
	p.registerInfix(token.SLASH, p.parseBinaryExpression)
	p.registerInfix(token.PERCENT, p.parseBinaryExpression)
	p.registerInfix(token.POWER, p.parsePowerExpression)
	p.registerInfix(token.EQ, p.parseBinaryExpression)
	p.registerInfix(token.NOT_EQ, p.parseBinaryExpression)
	p.registerInfix(token.LT, p.parseBinaryExpression)
	p.registerInfix(token.LT_EQ, p.parseBinaryExpression)
	p.registerInfix(token.GT, p.parseBinaryExpression)
	p.registerInfix(token.GT_EQ, p.parseBinaryExpression)
	p.registerInfix(token.AND, p.parseBinaryExpression)
	p.registerInfix(token.OR, p.parseBinaryExpression)
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.LBRACKET, p.parseIndexExpression)

	// prime curToken/peekToken
	p.nextToken()
	p.nextToken()

	return p
}

// ParseProgram parses the whole token stream into a Program. It never
// returns nil; on unrecoverable syntax errors it reports a diagnostic,
// skips to the next statement boundary, and keeps going so later
// statements still get parsed (spec.md §2's "keep going" rule).
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}

	for !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.DEDENT) {
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.nextToken()
	}

	return prog
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.Type) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.Type) bool { return p.peekToken.Type == t }

func (p *Parser) curPos() ast.Pos {
	return ast.Pos{Line: p.curToken.Pos.Line, Column: p.curToken.Pos.Column}
}

func (p *Parser) diagPos(tok token.Token) diagnostics.Position {
	return diagnostics.Position{Line: tok.Pos.Line, Column: tok.Pos.Column}
}

func (p *Parser) errorf(kind diagnostics.Kind, format string, args ...interface{}) {
	p.diags.Error(diagnostics.Parse, p.diagPos(p.curToken), kind, format, args...)
}

// expectPeek advances past peekToken if it has type t, reporting an
// UnexpectedToken diagnostic and leaving the cursor unmoved otherwise.
func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.diags.Error(diagnostics.Parse, p.diagPos(p.peekToken), "UnexpectedToken",
		"expected %s, got %s", t, p.peekToken.Type)
	return false
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) registerPrefix(t token.Type, fn prefixParseFn) { p.prefixParseFns[t] = fn }
func (p *Parser) registerInfix(t token.Type, fn infixParseFn)   { p.infixParseFns[t] = fn }

// skipToNewline discards tokens until it reaches (but does not consume)
// a NEWLINE, DEDENT, or EOF, the recovery point after a syntax error so
// the next statement can still be parsed (spec.md §2).
func (p *Parser) skipToNewline() {
	for !p.curTokenIs(token.NEWLINE) && !p.curTokenIs(token.DEDENT) && !p.curTokenIs(token.EOF) {
		p.nextToken()
	}
}

// ============ STATEMENTS ============

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.DEF:
		return p.parseFunctionDef()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.RESERVED:
		p.errorf("UnsupportedConstruct", "%q is not supported by this language subset", p.curToken.Literal)
		p.skipToNewline()
		return nil
	default:
		return p.parseSimpleStatement()
	}
}

// parseBlock parses "NEWLINE INDENT statement+ DEDENT". On return
// curToken is the terminating DEDENT (or EOF at end of input); the
// caller's own statement loop advances past it, which lets a single
// DEDENT close exactly one nesting level even when several DEDENTs are
// queued back to back.
func (p *Parser) parseBlock() *ast.Block {
	block := &ast.Block{}

	if !p.expectPeek(token.NEWLINE) {
		p.skipToNewline()
		return block
	}
	if !p.expectPeek(token.INDENT) {
		p.errorf("ExpectedIndentedBlock", "expected an indented block")
		return block
	}
	p.nextToken()

	for !p.curTokenIs(token.DEDENT) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) {
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
	}

	return block
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.If{Pos: p.curPos()}

	p.nextToken() // consume 'if'
	stmt.Cond = p.parseExpression(LOWEST)
	if !p.expectPeek(token.COLON) {
		p.skipToNewline()
		return stmt
	}
	stmt.Then = p.parseBlock()

	for p.peekTokenIs(token.ELIF) {
		p.nextToken() // curToken = ELIF
		elif := ast.ElifClause{}
		p.nextToken() // consume 'elif'
		elif.Cond = p.parseExpression(LOWEST)
		if !p.expectPeek(token.COLON) {
			p.skipToNewline()
			break
		}
		elif.Block = p.parseBlock()
		stmt.Elifs = append(stmt.Elifs, elif)
	}

	if p.peekTokenIs(token.ELSE) {
		p.nextToken() // curToken = ELSE
		if !p.expectPeek(token.COLON) {
			p.skipToNewline()
			return stmt
		}
		stmt.Else = p.parseBlock()
	}

	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.While{Pos: p.curPos()}

	p.nextToken() // consume 'while'
	stmt.Cond = p.parseExpression(LOWEST)
	if !p.expectPeek(token.COLON) {
		p.skipToNewline()
		return stmt
	}
	stmt.Block = p.parseBlock()
	return stmt
}

func (p *Parser) parseForStatement() ast.Statement {
	stmt := &ast.For{Pos: p.curPos()}

	if !p.expectPeek(token.IDENTIFIER) {
		p.skipToNewline()
		return stmt
	}
	stmt.Var = p.curToken.Literal

	if !p.expectPeek(token.IN) {
		p.skipToNewline()
		return stmt
	}
	p.nextToken()
	stmt.Iter = p.parseExpression(LOWEST)

	if !p.expectPeek(token.COLON) {
		p.skipToNewline()
		return stmt
	}
	stmt.Block = p.parseBlock()
	return stmt
}

func (p *Parser) parseFunctionDef() ast.Statement {
	stmt := &ast.FunctionDef{Pos: p.curPos()}

	if !p.expectPeek(token.IDENTIFIER) {
		p.skipToNewline()
		return stmt
	}
	stmt.Name = p.curToken.Literal

	if !p.expectPeek(token.LPAREN) {
		p.skipToNewline()
		return stmt
	}
	stmt.Params = p.parseParams()

	if !p.expectPeek(token.COLON) {
		p.skipToNewline()
		return stmt
	}
	stmt.Body = p.parseBlock()
	return stmt
}

func (p *Parser) parseParams() []string {
	var params []string

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params
	}

	if !p.expectPeek(token.IDENTIFIER) {
		return params
	}
	params = append(params, p.curToken.Literal)

	for p.peekTokenIs(token.COMMA) {
		p.nextToken() // consume ','
		if !p.expectPeek(token.IDENTIFIER) {
			return params
		}
		params = append(params, p.curToken.Literal)
	}

	p.expectPeek(token.RPAREN)
	return params
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.Return{Pos: p.curPos()}

	if p.peekTokenIs(token.NEWLINE) {
		p.nextToken()
		return stmt
	}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if !p.expectPeek(token.NEWLINE) {
		p.skipToNewline()
	}
	return stmt
}

// parseSimpleStatement parses an assignment or a bare expression
// statement, the two kinds of statement that don't introduce a block.
func (p *Parser) parseSimpleStatement() ast.Statement {
	pos := p.curPos()
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		p.skipToNewline()
		return nil
	}

	if p.peekTokenIs(token.ASSIGN) {
		ident, ok := expr.(*ast.Identifier)
		if !ok {
			p.errorf("InvalidAssignmentTarget", "left side of '=' must be a plain name")
			p.skipToNewline()
			return nil
		}
		p.nextToken() // consume '='
		p.nextToken() // move to the value expression
		value := p.parseExpression(LOWEST)
		if !p.expectPeek(token.NEWLINE) {
			p.skipToNewline()
		}
		return &ast.Assignment{Pos: pos, Target: ident.Name, Value: value}
	}

	if !p.expectPeek(token.NEWLINE) {
		p.skipToNewline()
	}
	return &ast.ExpressionStatement{Pos: pos, Expr: expr}
}

// ============ EXPRESSIONS ============

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.errorf("UnexpectedToken", "unexpected token %s in expression", p.curToken.Type)
		return nil
	}
	left := prefix()

	for !p.peekTokenIs(token.NEWLINE) && !p.peekTokenIs(token.EOF) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}

	return left
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Pos: p.curPos(), Name: p.curToken.Literal}
}

func (p *Parser) parseIntLiteral() ast.Expression {
	return &ast.Literal{Pos: p.curPos(), Kind: ast.LitInt, Int: p.curToken.Value.(int64)}
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	return &ast.Literal{Pos: p.curPos(), Kind: ast.LitFloat, Float: p.curToken.Value.(float64)}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.Literal{Pos: p.curPos(), Kind: ast.LitString, Str: p.curToken.Value.(string)}
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	return &ast.Literal{Pos: p.curPos(), Kind: ast.LitBool, Bool: p.curToken.Value.(bool)}
}

func (p *Parser) parseNoneLiteral() ast.Expression {
	return &ast.Literal{Pos: p.curPos(), Kind: ast.LitNone}
}

func (p *Parser) parseUnaryExpression() ast.Expression {
	expr := &ast.UnaryOp{Pos: p.curPos(), Op: p.curToken.Literal}
	p.nextToken()
	expr.Operand = p.parseExpression(UNARY)
	return expr
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return exp
}

func (p *Parser) parseListLiteral() ast.Expression {
	lit := &ast.ListLiteral{Pos: p.curPos()}

	if p.peekTokenIs(token.RBRACKET) {
		p.nextToken()
		return lit
	}

	p.nextToken()
	lit.Elements = append(lit.Elements, p.parseExpression(LOWEST))

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		lit.Elements = append(lit.Elements, p.parseExpression(LOWEST))
	}

	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return lit
}

func (p *Parser) parseBinaryExpression(left ast.Expression) ast.Expression {
	expr := &ast.BinaryOp{Pos: p.curPos(), Op: p.curToken.Literal, Left: left}
	precedence := p.curPrecedence()
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	return expr
}

// parsePowerExpression handles '**', the one right-associative operator
// (spec.md §4.2): it recurses at one precedence level lower than its
// own so a chain like "2 ** 3 ** 2" nests as "2 ** (3 ** 2)".
func (p *Parser) parsePowerExpression(left ast.Expression) ast.Expression {
	expr := &ast.BinaryOp{Pos: p.curPos(), Op: p.curToken.Literal, Left: left}
	p.nextToken()
	expr.Right = p.parseExpression(CALL - 1)
	return expr
}

func (p *Parser) parseCallExpression(left ast.Expression) ast.Expression {
	ident, ok := left.(*ast.Identifier)
	if !ok {
		p.errorf("InvalidCallTarget", "only plain names can be called")
		return nil
	}
	expr := &ast.Call{Pos: p.curPos(), Callee: ident.Name}

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return expr
	}

	p.nextToken()
	expr.Args = append(expr.Args, p.parseExpression(LOWEST))

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		expr.Args = append(expr.Args, p.parseExpression(LOWEST))
	}

	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return expr
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	expr := &ast.Index{Pos: p.curPos(), Collection: left}
	p.nextToken()
	expr.Key = p.parseExpression(LOWEST)
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return expr
}
