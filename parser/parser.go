package parser

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/example/jsviz/ast"
	"github.com/example/jsviz/lexer"
	"github.com/example/jsviz/token"
)

// Precedence levels for binary operators
const (
	_ int = iota
	precLogicalOr
	precLogicalAnd
	precBitwiseOr
	precBitwiseXor
	precBitwiseAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
)

// Error is a parse error with the position it was detected at.
type Error struct {
	Pos     token.Position
	End     token.Position
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

type Parser struct {
	l         *lexer.Lexer
	source    string
	curToken  token.Token
	peekToken token.Token
	prevEnd   token.Position
	errors    []error
	noIn      bool // suppress 'in' as binary operator (for-in disambiguation)

	funcDepth   int
	loopDepth   int
	switchDepth int

	sourceName string
	firstID    ast.NodeID
}

type Option func(*Parser)

// WithSourceName tags every node of the parsed program with name.
func WithSourceName(name string) Option {
	return func(p *Parser) { p.sourceName = name }
}

// WithFirstID makes node numbering start at id.
func WithFirstID(id ast.NodeID) Option {
	return func(p *Parser) { p.firstID = id }
}

func New(source string, opts ...Option) *Parser {
	p := &Parser{
		l:       lexer.New(source),
		source:  source,
		firstID: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.peekToken = p.l.NextToken()
	p.nextToken()
	return p
}

// ParseProgram parses the whole source. Parsing stops at the first
// error. On success every node is numbered and carries its span.
func (p *Parser) ParseProgram() (*ast.Program, []error) {
	program := &ast.Program{Code: p.source}
	for !p.curTokenIs(token.EOF) {
		program.Body = append(program.Body, p.parseStatement())
	}
	program.Start = token.Position{Line: 1}
	program.End = p.curToken.End
	if len(p.errors) > 0 {
		return program, p.errors
	}
	ast.Number(program, p.firstID, p.sourceName)
	return program, nil
}

// Parse is a convenience wrapper returning the first parse error.
func Parse(source string, opts ...Option) (*ast.Program, error) {
	prog, errs := New(source, opts...).ParseProgram()
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return prog, nil
}

func (p *Parser) nextToken() {
	if len(p.errors) > 0 {
		return
	}
	p.prevEnd = p.curToken.End
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
	if p.curToken.Type == token.Illegal {
		p.addError("%s", p.curToken.Literal)
	}
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expect(t token.TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	if p.curTokenIs(token.EOF) {
		p.addError("expected %s, got end of input", t)
	} else {
		p.addError("expected %s, got %q", t, p.curToken.Literal)
	}
	return false
}

// addError records an error and turns the token stream into EOF so every
// parse loop unwinds.
func (p *Parser) addError(format string, args ...interface{}) {
	if len(p.errors) > 0 {
		return
	}
	p.errors = append(p.errors, &Error{
		Pos:     p.curToken.Start,
		End:     p.curToken.End,
		Message: fmt.Sprintf(format, args...),
	})
	eof := token.Token{Type: token.EOF, Start: p.curToken.Start, End: p.curToken.End}
	p.curToken = eof
	p.peekToken = eof
}

func (p *Parser) unsupported(what string) {
	p.addError("%s is not supported", what)
}

func (p *Parser) finish(loc *ast.Loc, start token.Position) {
	loc.Start = start
	loc.End = p.prevEnd
	if loc.End.Offset < start.Offset {
		loc.End = start
	}
}

// consumeSemicolon applies automatic semicolon insertion.
func (p *Parser) consumeSemicolon() {
	switch {
	case p.curTokenIs(token.Semicolon):
		p.nextToken()
	case p.curTokenIs(token.RightBrace), p.curTokenIs(token.EOF), p.curToken.NewlineBefore:
	default:
		p.addError("expected ;, got %q", p.curToken.Literal)
	}
}

// ---------- Statements ----------

// parseStatement dispatches to the appropriate statement parser.
func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.Var:
		stmt := p.parseVariableDeclaration()
		p.consumeSemicolon()
		p.finish(&stmt.Loc, stmt.Start)
		return stmt
	case token.Let, token.Const:
		p.unsupported(fmt.Sprintf("'%s' declaration", p.curToken.Literal))
	case token.Class, token.Import, token.Export, token.Yield, token.Super:
		p.unsupported(fmt.Sprintf("'%s'", p.curToken.Literal))
	case token.LeftBrace:
		return p.parseBlockStatement()
	case token.Return:
		return p.parseReturnStatement()
	case token.If:
		return p.parseIfStatement()
	case token.While:
		return p.parseWhileStatement()
	case token.Do:
		return p.parseDoWhileStatement()
	case token.For:
		return p.parseForStatement()
	case token.Break, token.Continue:
		return p.parseJumpStatement()
	case token.Switch:
		return p.parseSwitchStatement()
	case token.Throw:
		return p.parseThrowStatement()
	case token.Try:
		return p.parseTryStatement()
	case token.Function:
		return p.parseFunctionDeclaration()
	case token.Debugger:
		start := p.curToken.Start
		p.nextToken()
		p.consumeSemicolon()
		stmt := &ast.DebuggerStatement{}
		p.finish(&stmt.Loc, start)
		return stmt
	case token.Semicolon:
		stmt := &ast.EmptyStatement{}
		start := p.curToken.Start
		p.nextToken()
		p.finish(&stmt.Loc, start)
		return stmt
	case token.With:
		return p.parseWithStatement()
	case token.Identifier:
		if p.peekTokenIs(token.Colon) {
			return p.parseLabeledStatement()
		}
	}
	return p.parseExpressionStatement()
}

// parseVariableDeclaration does not consume the trailing semicolon.
func (p *Parser) parseVariableDeclaration() *ast.VariableDeclaration {
	stmt := &ast.VariableDeclaration{}
	start := p.curToken.Start
	p.nextToken() // consume var

	for {
		decl := &ast.VariableDeclarator{}
		declStart := p.curToken.Start
		if p.curTokenIs(token.LeftBrace) || p.curTokenIs(token.LeftBracket) {
			p.unsupported("destructuring")
		}
		decl.Name = p.parseIdentifier()
		if p.curTokenIs(token.Assign) {
			p.nextToken() // consume =
			decl.Init = p.parseAssignment()
		}
		p.finish(&decl.Loc, declStart)
		stmt.Declarations = append(stmt.Declarations, decl)
		if !p.curTokenIs(token.Comma) {
			break
		}
		p.nextToken() // consume comma
	}
	p.finish(&stmt.Loc, start)
	return stmt
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	block := &ast.BlockStatement{}
	start := p.curToken.Start
	p.expect(token.LeftBrace)
	for !p.curTokenIs(token.RightBrace) && !p.curTokenIs(token.EOF) {
		block.Body = append(block.Body, p.parseStatement())
	}
	p.expect(token.RightBrace)
	p.finish(&block.Loc, start)
	return block
}

func (p *Parser) parseReturnStatement() *ast.ReturnStatement {
	stmt := &ast.ReturnStatement{}
	start := p.curToken.Start
	if p.funcDepth == 0 {
		p.addError("return outside of function")
	}
	p.nextToken() // consume return
	if !p.curTokenIs(token.Semicolon) && !p.curTokenIs(token.RightBrace) &&
		!p.curTokenIs(token.EOF) && !p.curToken.NewlineBefore {
		stmt.Argument = p.parseExpression()
	}
	p.consumeSemicolon()
	p.finish(&stmt.Loc, start)
	return stmt
}

func (p *Parser) parseIfStatement() *ast.IfStatement {
	stmt := &ast.IfStatement{}
	start := p.curToken.Start
	p.nextToken() // consume if
	p.expect(token.LeftParen)
	stmt.Test = p.parseExpression()
	p.expect(token.RightParen)
	stmt.Consequent = p.parseStatement()
	if p.curTokenIs(token.Else) {
		p.nextToken()
		stmt.Alternate = p.parseStatement()
	}
	p.finish(&stmt.Loc, start)
	return stmt
}

func (p *Parser) parseWhileStatement() *ast.WhileStatement {
	stmt := &ast.WhileStatement{}
	start := p.curToken.Start
	p.nextToken() // consume while
	p.expect(token.LeftParen)
	stmt.Test = p.parseExpression()
	p.expect(token.RightParen)
	stmt.Body = p.parseLoopBody()
	p.finish(&stmt.Loc, start)
	return stmt
}

func (p *Parser) parseLoopBody() ast.Statement {
	p.loopDepth++
	defer func() { p.loopDepth-- }()
	return p.parseStatement()
}

func (p *Parser) parseDoWhileStatement() *ast.DoWhileStatement {
	stmt := &ast.DoWhileStatement{}
	start := p.curToken.Start
	p.nextToken() // consume do
	stmt.Body = p.parseLoopBody()
	p.expect(token.While)
	p.expect(token.LeftParen)
	stmt.Test = p.parseExpression()
	p.expect(token.RightParen)
	if p.curTokenIs(token.Semicolon) {
		p.nextToken()
	}
	p.finish(&stmt.Loc, start)
	return stmt
}

func (p *Parser) parseForStatement() ast.Statement {
	start := p.curToken.Start
	p.nextToken() // consume for
	p.expect(token.LeftParen)

	var init ast.Node
	switch {
	case p.curTokenIs(token.Semicolon):
	case p.curTokenIs(token.Var):
		p.noIn = true
		decl := p.parseVariableDeclaration()
		p.noIn = false
		if p.curTokenIs(token.In) && len(decl.Declarations) == 1 && decl.Declarations[0].Init == nil {
			return p.parseForIn(start, decl)
		}
		init = decl
	case p.curTokenIs(token.Let), p.curTokenIs(token.Const):
		p.unsupported(fmt.Sprintf("'%s' declaration", p.curToken.Literal))
	default:
		p.noIn = true
		expr := p.parseExpression()
		p.noIn = false
		if p.curTokenIs(token.In) {
			switch expr.(type) {
			case *ast.Identifier, *ast.MemberExpression:
				return p.parseForIn(start, expr)
			}
			p.addError("invalid left-hand side in for-in")
		}
		init = expr
	}
	if p.curTokenIs(token.Identifier) && p.curToken.Literal == "of" {
		p.unsupported("for...of")
	}

	stmt := &ast.ForStatement{Init: init}
	p.expect(token.Semicolon)
	if !p.curTokenIs(token.Semicolon) {
		stmt.Test = p.parseExpression()
	}
	p.expect(token.Semicolon)
	if !p.curTokenIs(token.RightParen) {
		stmt.Update = p.parseExpression()
	}
	p.expect(token.RightParen)
	stmt.Body = p.parseLoopBody()
	p.finish(&stmt.Loc, start)
	return stmt
}

func (p *Parser) parseForIn(start token.Position, left ast.Node) *ast.ForInStatement {
	stmt := &ast.ForInStatement{Left: left}
	p.nextToken() // consume in
	stmt.Right = p.parseExpression()
	p.expect(token.RightParen)
	stmt.Body = p.parseLoopBody()
	p.finish(&stmt.Loc, start)
	return stmt
}

func (p *Parser) parseJumpStatement() ast.Statement {
	start := p.curToken.Start
	isBreak := p.curTokenIs(token.Break)
	p.nextToken()
	var label *ast.Identifier
	if p.curTokenIs(token.Identifier) && !p.curToken.NewlineBefore {
		label = p.parseIdentifier()
	}
	if label == nil {
		if isBreak && p.loopDepth == 0 && p.switchDepth == 0 {
			p.addError("illegal break statement")
		}
		if !isBreak && p.loopDepth == 0 {
			p.addError("illegal continue statement")
		}
	}
	p.consumeSemicolon()
	if isBreak {
		stmt := &ast.BreakStatement{Label: label}
		p.finish(&stmt.Loc, start)
		return stmt
	}
	stmt := &ast.ContinueStatement{Label: label}
	p.finish(&stmt.Loc, start)
	return stmt
}

func (p *Parser) parseSwitchStatement() *ast.SwitchStatement {
	stmt := &ast.SwitchStatement{}
	start := p.curToken.Start
	p.nextToken() // consume switch
	p.expect(token.LeftParen)
	stmt.Discriminant = p.parseExpression()
	p.expect(token.RightParen)
	p.expect(token.LeftBrace)
	p.switchDepth++
	defer func() { p.switchDepth-- }()

	seenDefault := false
	for !p.curTokenIs(token.RightBrace) && !p.curTokenIs(token.EOF) {
		sc := &ast.SwitchCase{}
		caseStart := p.curToken.Start
		switch {
		case p.curTokenIs(token.Case):
			p.nextToken()
			sc.Test = p.parseExpression()
		case p.curTokenIs(token.Default):
			if seenDefault {
				p.addError("more than one default clause in switch statement")
			}
			seenDefault = true
			p.nextToken()
		default:
			p.addError("expected case or default, got %q", p.curToken.Literal)
		}
		p.expect(token.Colon)
		for !p.curTokenIs(token.Case) && !p.curTokenIs(token.Default) &&
			!p.curTokenIs(token.RightBrace) && !p.curTokenIs(token.EOF) {
			sc.Consequent = append(sc.Consequent, p.parseStatement())
		}
		p.finish(&sc.Loc, caseStart)
		stmt.Cases = append(stmt.Cases, sc)
	}
	p.expect(token.RightBrace)
	p.finish(&stmt.Loc, start)
	return stmt
}

func (p *Parser) parseThrowStatement() *ast.ThrowStatement {
	stmt := &ast.ThrowStatement{}
	start := p.curToken.Start
	p.nextToken() // consume throw
	if p.curToken.NewlineBefore {
		p.addError("illegal newline after throw")
	}
	stmt.Argument = p.parseExpression()
	p.consumeSemicolon()
	p.finish(&stmt.Loc, start)
	return stmt
}

func (p *Parser) parseTryStatement() *ast.TryStatement {
	stmt := &ast.TryStatement{}
	start := p.curToken.Start
	p.nextToken() // consume try
	stmt.Block = p.parseBlockStatement()
	if p.curTokenIs(token.Catch) {
		clause := &ast.CatchClause{}
		clauseStart := p.curToken.Start
		p.nextToken()
		p.expect(token.LeftParen)
		clause.Param = p.parseIdentifier()
		p.expect(token.RightParen)
		clause.Body = p.parseBlockStatement()
		p.finish(&clause.Loc, clauseStart)
		stmt.Handler = clause
	}
	if p.curTokenIs(token.Finally) {
		p.nextToken()
		stmt.Finalizer = p.parseBlockStatement()
	}
	if stmt.Handler == nil && stmt.Finalizer == nil {
		p.addError("missing catch or finally after try")
	}
	p.finish(&stmt.Loc, start)
	return stmt
}

func (p *Parser) parseWithStatement() *ast.WithStatement {
	stmt := &ast.WithStatement{}
	start := p.curToken.Start
	p.nextToken() // consume with
	p.expect(token.LeftParen)
	stmt.Object = p.parseExpression()
	p.expect(token.RightParen)
	stmt.Body = p.parseStatement()
	p.finish(&stmt.Loc, start)
	return stmt
}

func (p *Parser) parseLabeledStatement() *ast.LabeledStatement {
	stmt := &ast.LabeledStatement{}
	start := p.curToken.Start
	stmt.Label = p.parseIdentifier()
	p.expect(token.Colon)
	stmt.Body = p.parseStatement()
	p.finish(&stmt.Loc, start)
	return stmt
}

func (p *Parser) parseExpressionStatement() *ast.ExpressionStatement {
	stmt := &ast.ExpressionStatement{}
	start := p.curToken.Start
	stmt.Expression = p.parseExpression()
	p.consumeSemicolon()
	p.finish(&stmt.Loc, start)
	return stmt
}

func (p *Parser) parseFunctionDeclaration() *ast.FunctionDeclaration {
	fn := &ast.FunctionDeclaration{}
	start := p.curToken.Start
	p.nextToken() // consume function
	if p.curTokenIs(token.Asterisk) {
		p.unsupported("generator function")
	}
	fn.Name = p.parseIdentifier()
	fn.Params, fn.Body = p.parseFunctionRest()
	p.finish(&fn.Loc, start)
	return fn
}

func (p *Parser) parseFunctionExpression() *ast.FunctionExpression {
	fn := &ast.FunctionExpression{}
	start := p.curToken.Start
	p.nextToken() // consume function
	if p.curTokenIs(token.Asterisk) {
		p.unsupported("generator function")
	}
	if p.curTokenIs(token.Identifier) {
		fn.Name = p.parseIdentifier()
	}
	fn.Params, fn.Body = p.parseFunctionRest()
	p.finish(&fn.Loc, start)
	return fn
}

// parseFunctionRest parses the parameter list and body of a function.
func (p *Parser) parseFunctionRest() ([]*ast.Identifier, *ast.BlockStatement) {
	var params []*ast.Identifier
	p.expect(token.LeftParen)
	seen := map[string]bool{}
	for !p.curTokenIs(token.RightParen) && !p.curTokenIs(token.EOF) {
		switch p.curToken.Type {
		case token.Spread:
			p.unsupported("rest parameter")
		case token.LeftBrace, token.LeftBracket:
			p.unsupported("destructuring")
		}
		param := p.parseIdentifier()
		if seen[param.Name] {
			p.addError("duplicate parameter name %q", param.Name)
		}
		seen[param.Name] = true
		params = append(params, param)
		if p.curTokenIs(token.Assign) {
			p.unsupported("default parameter")
		}
		if !p.curTokenIs(token.Comma) {
			break
		}
		p.nextToken()
	}
	p.expect(token.RightParen)
	saved, loops, switches := p.noIn, p.loopDepth, p.switchDepth
	p.noIn, p.loopDepth, p.switchDepth = false, 0, 0
	p.funcDepth++
	body := p.parseBlockStatement()
	p.funcDepth--
	p.noIn, p.loopDepth, p.switchDepth = saved, loops, switches
	return params, body
}

// ---------- Expressions ----------

func (p *Parser) parseExpression() ast.Expression {
	start := p.curToken.Start
	expr := p.parseAssignment()
	if !p.curTokenIs(token.Comma) {
		return expr
	}
	seq := &ast.SequenceExpression{Expressions: []ast.Expression{expr}}
	for p.curTokenIs(token.Comma) {
		p.nextToken()
		seq.Expressions = append(seq.Expressions, p.parseAssignment())
	}
	p.finish(&seq.Loc, start)
	return seq
}

func (p *Parser) parseAssignment() ast.Expression {
	start := p.curToken.Start
	left := p.parseConditional()
	if p.curTokenIs(token.Arrow) {
		p.unsupported("arrow function")
	}
	if !p.curToken.Type.IsAssign() {
		return left
	}
	switch left.(type) {
	case *ast.Identifier, *ast.MemberExpression:
	default:
		p.addError("invalid assignment target")
	}
	op := p.curToken.Type
	p.nextToken()
	expr := &ast.AssignmentExpression{Operator: op, Left: left, Right: p.parseAssignment()}
	p.finish(&expr.Loc, start)
	return expr
}

func (p *Parser) parseConditional() ast.Expression {
	start := p.curToken.Start
	test := p.parseBinary(0)
	if !p.curTokenIs(token.QuestionMark) {
		return test
	}
	p.nextToken()
	saved := p.noIn
	p.noIn = false
	cons := p.parseAssignment()
	p.noIn = saved
	p.expect(token.Colon)
	alt := p.parseAssignment()
	expr := &ast.ConditionalExpression{Test: test, Consequent: cons, Alternate: alt}
	p.finish(&expr.Loc, start)
	return expr
}

func (p *Parser) binaryPrecedence() int {
	switch p.curToken.Type {
	case token.Or:
		return precLogicalOr
	case token.And:
		return precLogicalAnd
	case token.BitwiseOr:
		return precBitwiseOr
	case token.BitwiseXor:
		return precBitwiseXor
	case token.BitwiseAnd:
		return precBitwiseAnd
	case token.Equal, token.NotEqual, token.StrictEqual, token.StrictNotEqual:
		return precEquality
	case token.LessThan, token.GreaterThan, token.LessThanOrEqual, token.GreaterThanOrEqual,
		token.Instanceof:
		return precRelational
	case token.In:
		if p.noIn {
			return 0
		}
		return precRelational
	case token.LeftShift, token.RightShift, token.UnsignedRightShift:
		return precShift
	case token.Plus, token.Minus:
		return precAdditive
	case token.Asterisk, token.Slash, token.Percent:
		return precMultiplicative
	case token.Exponent:
		p.unsupported("exponentiation operator")
	}
	return 0
}

func (p *Parser) parseBinary(minPrec int) ast.Expression {
	start := p.curToken.Start
	left := p.parseUnary()
	for {
		prec := p.binaryPrecedence()
		if prec <= minPrec {
			return left
		}
		op := p.curToken.Type
		p.nextToken()
		right := p.parseBinary(prec)
		if op == token.And || op == token.Or {
			expr := &ast.LogicalExpression{Operator: op, Left: left, Right: right}
			p.finish(&expr.Loc, start)
			left = expr
			continue
		}
		expr := &ast.BinaryExpression{Operator: op, Left: left, Right: right}
		p.finish(&expr.Loc, start)
		left = expr
	}
}

func (p *Parser) parseUnary() ast.Expression {
	start := p.curToken.Start
	switch p.curToken.Type {
	case token.Not, token.BitwiseNot, token.Plus, token.Minus, token.Typeof, token.Void, token.Delete:
		op := p.curToken.Type
		p.nextToken()
		expr := &ast.UnaryExpression{Operator: op, Argument: p.parseUnary()}
		if op == token.Delete {
			if _, ok := expr.Argument.(*ast.Identifier); ok {
				p.addError("delete of an unqualified identifier in strict mode")
			}
		}
		p.finish(&expr.Loc, start)
		return expr
	case token.Increment, token.Decrement:
		op := p.curToken.Type
		p.nextToken()
		expr := &ast.UpdateExpression{Operator: op, Prefix: true, Argument: p.parseUnary()}
		p.checkUpdateTarget(expr.Argument)
		p.finish(&expr.Loc, start)
		return expr
	}
	expr := p.parseLeftHandSide()
	if (p.curTokenIs(token.Increment) || p.curTokenIs(token.Decrement)) && !p.curToken.NewlineBefore {
		update := &ast.UpdateExpression{Operator: p.curToken.Type, Argument: expr}
		p.checkUpdateTarget(expr)
		p.nextToken()
		p.finish(&update.Loc, start)
		return update
	}
	return expr
}

func (p *Parser) checkUpdateTarget(expr ast.Expression) {
	switch expr.(type) {
	case *ast.Identifier, *ast.MemberExpression:
	default:
		p.addError("invalid update target")
	}
}

func (p *Parser) parseLeftHandSide() ast.Expression {
	start := p.curToken.Start
	var expr ast.Expression
	if p.curTokenIs(token.New) {
		expr = p.parseNewExpression()
	} else {
		expr = p.parsePrimary()
	}
	for {
		switch p.curToken.Type {
		case token.Dot, token.LeftBracket:
			expr = p.parseMember(expr)
		case token.LeftParen:
			call := &ast.CallExpression{Callee: expr, Arguments: p.parseArguments()}
			p.finish(&call.Loc, start)
			expr = call
		case token.Template:
			p.unsupported("tagged template")
			return expr
		default:
			return expr
		}
	}
}

func (p *Parser) parseNewExpression() ast.Expression {
	start := p.curToken.Start
	p.nextToken() // consume new
	if p.curTokenIs(token.Dot) {
		p.unsupported("new.target")
	}
	var callee ast.Expression
	if p.curTokenIs(token.New) {
		callee = p.parseNewExpression()
	} else {
		callee = p.parsePrimary()
	}
	for p.curTokenIs(token.Dot) || p.curTokenIs(token.LeftBracket) {
		callee = p.parseMember(callee)
	}
	expr := &ast.NewExpression{Callee: callee}
	if p.curTokenIs(token.LeftParen) {
		expr.Arguments = p.parseArguments()
	}
	p.finish(&expr.Loc, start)
	return expr
}

func (p *Parser) parseMember(object ast.Expression) ast.Expression {
	expr := &ast.MemberExpression{Object: object}
	if p.curTokenIs(token.Dot) {
		p.nextToken()
		expr.Property = p.parsePropertyIdentifier()
	} else {
		p.nextToken() // consume [
		saved := p.noIn
		p.noIn = false
		expr.Property = p.parseExpression()
		p.noIn = saved
		expr.Computed = true
		p.expect(token.RightBracket)
	}
	p.finish(&expr.Loc, object.Location().Start)
	return expr
}

// parsePropertyIdentifier accepts reserved words, which are valid
// property names after a dot.
func (p *Parser) parsePropertyIdentifier() *ast.Identifier {
	id := &ast.Identifier{Name: p.curToken.Literal}
	start := p.curToken.Start
	if p.curTokenIs(token.Identifier) || isKeyword(p.curToken.Type) {
		p.nextToken()
	} else {
		p.addError("expected property name, got %q", p.curToken.Literal)
	}
	p.finish(&id.Loc, start)
	return id
}

func (p *Parser) parseArguments() []ast.Expression {
	var args []ast.Expression
	p.nextToken() // consume (
	saved := p.noIn
	p.noIn = false
	for !p.curTokenIs(token.RightParen) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.Spread) {
			p.unsupported("spread")
		}
		args = append(args, p.parseAssignment())
		if !p.curTokenIs(token.Comma) {
			break
		}
		p.nextToken()
	}
	p.noIn = saved
	p.expect(token.RightParen)
	return args
}

func (p *Parser) parsePrimary() ast.Expression {
	start := p.curToken.Start
	switch p.curToken.Type {
	case token.Identifier:
		if p.peekTokenIs(token.Arrow) {
			p.unsupported("arrow function")
		}
		return p.parseIdentifier()
	case token.Number:
		return p.parseNumberLiteral()
	case token.String:
		lit := &ast.StringLiteral{Value: p.curToken.Literal}
		p.nextToken()
		p.finish(&lit.Loc, start)
		return lit
	case token.True, token.False:
		lit := &ast.BooleanLiteral{Value: p.curTokenIs(token.True)}
		p.nextToken()
		p.finish(&lit.Loc, start)
		return lit
	case token.Null:
		lit := &ast.NullLiteral{}
		p.nextToken()
		p.finish(&lit.Loc, start)
		return lit
	case token.This:
		expr := &ast.ThisExpression{}
		p.nextToken()
		p.finish(&expr.Loc, start)
		return expr
	case token.RegExp:
		lit := &ast.RegExpLiteral{Raw: p.curToken.Literal}
		p.nextToken()
		p.finish(&lit.Loc, start)
		return lit
	case token.Function:
		return p.parseFunctionExpression()
	case token.LeftParen:
		return p.parseGroup()
	case token.LeftBracket:
		return p.parseArrayLiteral()
	case token.LeftBrace:
		return p.parseObjectLiteral()
	case token.Template:
		p.unsupported("template literal")
	case token.Spread:
		p.unsupported("spread")
	case token.Class, token.Super, token.Yield, token.Let, token.Const, token.Import, token.Export:
		p.unsupported(fmt.Sprintf("'%s'", p.curToken.Literal))
	case token.EOF:
		p.addError("unexpected end of input")
	default:
		p.addError("unexpected token %q", p.curToken.Literal)
	}
	// placeholder so callers never see a nil expression
	id := &ast.Identifier{}
	p.finish(&id.Loc, start)
	return id
}

func (p *Parser) parseGroup() ast.Expression {
	p.nextToken() // consume (
	if p.curTokenIs(token.RightParen) {
		p.unsupported("arrow function")
	}
	saved := p.noIn
	p.noIn = false
	expr := p.parseExpression()
	p.noIn = saved
	p.expect(token.RightParen)
	if p.curTokenIs(token.Arrow) {
		p.unsupported("arrow function")
	}
	return expr
}

func (p *Parser) parseIdentifier() *ast.Identifier {
	id := &ast.Identifier{Name: p.curToken.Literal}
	start := p.curToken.Start
	switch {
	case p.curTokenIs(token.Identifier):
		p.nextToken()
	case isStrictReserved(p.curToken.Type):
		p.addError("unexpected strict mode reserved word %q", id.Name)
	default:
		p.addError("expected identifier, got %q", p.curToken.Literal)
	}
	p.finish(&id.Loc, start)
	return id
}

func (p *Parser) parseNumberLiteral() *ast.NumberLiteral {
	lit := &ast.NumberLiteral{Raw: p.curToken.Literal}
	start := p.curToken.Start
	val, err := parseJSNumber(p.curToken.Literal)
	if err != nil {
		p.addError("invalid number %q", p.curToken.Literal)
	}
	lit.Value = val
	p.nextToken()
	p.finish(&lit.Loc, start)
	return lit
}

func parseJSNumber(s string) (float64, error) {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		val, err := strconv.ParseUint(s[2:], 16, 64)
		return float64(val), err
	}
	if s[0] == '.' {
		s = "0" + s
	}
	return strconv.ParseFloat(s, 64)
}

func (p *Parser) parseArrayLiteral() *ast.ArrayLiteral {
	arr := &ast.ArrayLiteral{}
	start := p.curToken.Start
	p.nextToken() // consume [
	saved := p.noIn
	p.noIn = false
	for !p.curTokenIs(token.RightBracket) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.Comma) {
			arr.Elements = append(arr.Elements, nil)
			p.nextToken()
			continue
		}
		if p.curTokenIs(token.Spread) {
			p.unsupported("spread")
		}
		arr.Elements = append(arr.Elements, p.parseAssignment())
		if !p.curTokenIs(token.RightBracket) {
			p.expect(token.Comma)
		}
	}
	p.noIn = saved
	p.expect(token.RightBracket)
	p.finish(&arr.Loc, start)
	return arr
}

func (p *Parser) parseObjectLiteral() *ast.ObjectLiteral {
	obj := &ast.ObjectLiteral{}
	start := p.curToken.Start
	p.nextToken() // consume {
	saved := p.noIn
	p.noIn = false
	for !p.curTokenIs(token.RightBrace) && !p.curTokenIs(token.EOF) {
		obj.Properties = append(obj.Properties, p.parseProperty())
		if !p.curTokenIs(token.RightBrace) {
			p.expect(token.Comma)
		}
	}
	p.noIn = saved
	p.expect(token.RightBrace)
	p.finish(&obj.Loc, start)
	return obj
}

func (p *Parser) parseProperty() *ast.Property {
	prop := &ast.Property{}
	start := p.curToken.Start

	if p.curTokenIs(token.Identifier) && (p.curToken.Literal == "get" || p.curToken.Literal == "set") &&
		!p.peekTokenIs(token.Colon) && !p.peekTokenIs(token.Comma) &&
		!p.peekTokenIs(token.LeftParen) && !p.peekTokenIs(token.RightBrace) {
		if p.curToken.Literal == "get" {
			prop.PropKind = ast.PropertyGet
		} else {
			prop.PropKind = ast.PropertySet
		}
		p.nextToken()
		prop.KeyNode, prop.Key = p.parsePropertyKey()
		fn := &ast.FunctionExpression{}
		fnStart := p.curToken.Start
		fn.Params, fn.Body = p.parseFunctionRest()
		p.finish(&fn.Loc, fnStart)
		prop.Value = fn
		p.finish(&prop.Loc, start)
		return prop
	}

	prop.KeyNode, prop.Key = p.parsePropertyKey()
	switch p.curToken.Type {
	case token.Colon:
		p.nextToken()
		prop.Value = p.parseAssignment()
	case token.LeftParen:
		p.unsupported("method definition")
	case token.Comma, token.RightBrace:
		p.unsupported("shorthand property")
	default:
		p.expect(token.Colon)
	}
	if prop.Value == nil {
		prop.Value = &ast.Identifier{}
	}
	p.finish(&prop.Loc, start)
	return prop
}

func (p *Parser) parsePropertyKey() (ast.Expression, string) {
	start := p.curToken.Start
	switch p.curToken.Type {
	case token.String:
		lit := &ast.StringLiteral{Value: p.curToken.Literal}
		p.nextToken()
		p.finish(&lit.Loc, start)
		return lit, lit.Value
	case token.Number:
		lit := p.parseNumberLiteral()
		return lit, strconv.FormatFloat(lit.Value, 'g', -1, 64)
	case token.LeftBracket:
		p.unsupported("computed property")
	}
	id := p.parsePropertyIdentifier()
	return id, id.Name
}

func isKeyword(t token.TokenType) bool {
	return t >= token.Var
}

func isStrictReserved(t token.TokenType) bool {
	return t >= token.Let
}
