package ast

import (
	"github.com/example/jsviz/token"
)

// NodeID identifies a node within the programs of one evaluator. IDs are
// dense and assigned in pre-order by Number.
type NodeID int

// Loc is embedded by every node.
type Loc struct {
	ID    NodeID
	Start token.Position
	End   token.Position
	// Source names the program the node belongs to. Empty for user code.
	Source string
}

func (l *Loc) Location() *Loc { return l }

// Node is the interface all AST nodes implement.
type Node interface {
	Kind() Kind
	Location() *Loc
}

// Statement is a marker interface for statement nodes.
type Statement interface {
	Node
	statementNode()
}

// Expression is a marker interface for expression nodes.
type Expression interface {
	Node
	expressionNode()
}

// Function is implemented by FunctionDeclaration and FunctionExpression.
type Function interface {
	Node
	Signature() (name *Identifier, params []*Identifier, body *BlockStatement)
}

// ---------- Program ----------

type Program struct {
	Loc
	Body []Statement
	// Code is the text the program was parsed from. Spans slice into it.
	Code string
}

func (p *Program) Kind() Kind { return KindProgram }

// Text returns the source text covered by n, which must belong to p.
func (p *Program) Text(n Node) string {
	loc := n.Location()
	if loc.Start.Offset < 0 || loc.End.Offset > len(p.Code) || loc.Start.Offset > loc.End.Offset {
		return ""
	}
	return p.Code[loc.Start.Offset:loc.End.Offset]
}

// ---------- Statements ----------

type VariableDeclaration struct {
	Loc
	Declarations []*VariableDeclarator
}

type VariableDeclarator struct {
	Loc
	Name *Identifier
	Init Expression // may be nil
}

type FunctionDeclaration struct {
	Loc
	Name   *Identifier
	Params []*Identifier
	Body   *BlockStatement
}

func (f *FunctionDeclaration) Signature() (*Identifier, []*Identifier, *BlockStatement) {
	return f.Name, f.Params, f.Body
}

type ExpressionStatement struct {
	Loc
	Expression Expression
}

type BlockStatement struct {
	Loc
	Body []Statement
}

type EmptyStatement struct {
	Loc
}

type DebuggerStatement struct {
	Loc
}

type ReturnStatement struct {
	Loc
	Argument Expression // may be nil
}

type IfStatement struct {
	Loc
	Test       Expression
	Consequent Statement
	Alternate  Statement // may be nil
}

type WhileStatement struct {
	Loc
	Test Expression
	Body Statement
}

type DoWhileStatement struct {
	Loc
	Body Statement
	Test Expression
}

type ForStatement struct {
	Loc
	Init   Node // *VariableDeclaration, Expression, or nil
	Test   Expression
	Update Expression
	Body   Statement
}

type ForInStatement struct {
	Loc
	Left  Node // *VariableDeclaration or Expression
	Right Expression
	Body  Statement
}

type BreakStatement struct {
	Loc
	Label *Identifier
}

type ContinueStatement struct {
	Loc
	Label *Identifier
}

type SwitchStatement struct {
	Loc
	Discriminant Expression
	Cases        []*SwitchCase
}

type SwitchCase struct {
	Loc
	Test       Expression // nil for default
	Consequent []Statement
}

type ThrowStatement struct {
	Loc
	Argument Expression
}

// TryStatement, WithStatement and LabeledStatement are parsed so they can
// be diagnosed. The evaluator does not run them.
type TryStatement struct {
	Loc
	Block     *BlockStatement
	Handler   *CatchClause
	Finalizer *BlockStatement
}

type CatchClause struct {
	Loc
	Param *Identifier
	Body  *BlockStatement
}

type WithStatement struct {
	Loc
	Object Expression
	Body   Statement
}

type LabeledStatement struct {
	Loc
	Label *Identifier
	Body  Statement
}

// ---------- Expressions ----------

type Identifier struct {
	Loc
	Name string
}

type NumberLiteral struct {
	Loc
	Value float64
	Raw   string
}

type StringLiteral struct {
	Loc
	Value string
}

type BooleanLiteral struct {
	Loc
	Value bool
}

type NullLiteral struct {
	Loc
}

type RegExpLiteral struct {
	Loc
	Raw string
}

type ArrayLiteral struct {
	Loc
	Elements []Expression // nil entries are holes
}

type PropertyKind int

const (
	PropertyInit PropertyKind = iota
	PropertyGet
	PropertySet
)

type Property struct {
	Loc
	Key      string
	KeyNode  Expression // *Identifier, *StringLiteral or *NumberLiteral
	Value    Expression
	PropKind PropertyKind
}

type ObjectLiteral struct {
	Loc
	Properties []*Property
}

type FunctionExpression struct {
	Loc
	Name   *Identifier // may be nil
	Params []*Identifier
	Body   *BlockStatement
}

func (f *FunctionExpression) Signature() (*Identifier, []*Identifier, *BlockStatement) {
	return f.Name, f.Params, f.Body
}

type ThisExpression struct {
	Loc
}

type UnaryExpression struct {
	Loc
	Operator token.TokenType
	Argument Expression
}

type UpdateExpression struct {
	Loc
	Operator token.TokenType // ++ or --
	Prefix   bool
	Argument Expression
}

type BinaryExpression struct {
	Loc
	Operator token.TokenType
	Left     Expression
	Right    Expression
}

type LogicalExpression struct {
	Loc
	Operator token.TokenType // && or ||
	Left     Expression
	Right    Expression
}

type AssignmentExpression struct {
	Loc
	Operator token.TokenType
	Left     Expression // *Identifier or *MemberExpression
	Right    Expression
}

type ConditionalExpression struct {
	Loc
	Test       Expression
	Consequent Expression
	Alternate  Expression
}

type CallExpression struct {
	Loc
	Callee    Expression
	Arguments []Expression
}

type NewExpression struct {
	Loc
	Callee    Expression
	Arguments []Expression
}

type MemberExpression struct {
	Loc
	Object   Expression
	Property Expression // *Identifier when not computed
	Computed bool
}

type SequenceExpression struct {
	Loc
	Expressions []Expression
}

// ---------- markers ----------

func (*VariableDeclaration) statementNode() {}
func (*FunctionDeclaration) statementNode() {}
func (*ExpressionStatement) statementNode() {}
func (*BlockStatement) statementNode()      {}
func (*EmptyStatement) statementNode()      {}
func (*DebuggerStatement) statementNode()   {}
func (*ReturnStatement) statementNode()     {}
func (*IfStatement) statementNode()         {}
func (*WhileStatement) statementNode()      {}
func (*DoWhileStatement) statementNode()    {}
func (*ForStatement) statementNode()        {}
func (*ForInStatement) statementNode()      {}
func (*BreakStatement) statementNode()      {}
func (*ContinueStatement) statementNode()   {}
func (*SwitchStatement) statementNode()     {}
func (*ThrowStatement) statementNode()      {}
func (*TryStatement) statementNode()        {}
func (*WithStatement) statementNode()       {}
func (*LabeledStatement) statementNode()    {}

func (*Identifier) expressionNode()            {}
func (*NumberLiteral) expressionNode()         {}
func (*StringLiteral) expressionNode()         {}
func (*BooleanLiteral) expressionNode()        {}
func (*NullLiteral) expressionNode()           {}
func (*RegExpLiteral) expressionNode()         {}
func (*ArrayLiteral) expressionNode()          {}
func (*ObjectLiteral) expressionNode()         {}
func (*FunctionExpression) expressionNode()    {}
func (*ThisExpression) expressionNode()        {}
func (*UnaryExpression) expressionNode()       {}
func (*UpdateExpression) expressionNode()      {}
func (*BinaryExpression) expressionNode()      {}
func (*LogicalExpression) expressionNode()     {}
func (*AssignmentExpression) expressionNode()  {}
func (*ConditionalExpression) expressionNode() {}
func (*CallExpression) expressionNode()        {}
func (*NewExpression) expressionNode()         {}
func (*MemberExpression) expressionNode()      {}
func (*SequenceExpression) expressionNode()    {}

// ---------- kinds ----------

func (*VariableDeclaration) Kind() Kind   { return KindVariableDeclaration }
func (*VariableDeclarator) Kind() Kind    { return KindVariableDeclarator }
func (*FunctionDeclaration) Kind() Kind   { return KindFunctionDeclaration }
func (*ExpressionStatement) Kind() Kind   { return KindExpressionStatement }
func (*BlockStatement) Kind() Kind        { return KindBlockStatement }
func (*EmptyStatement) Kind() Kind        { return KindEmptyStatement }
func (*DebuggerStatement) Kind() Kind     { return KindDebuggerStatement }
func (*ReturnStatement) Kind() Kind       { return KindReturnStatement }
func (*IfStatement) Kind() Kind           { return KindIfStatement }
func (*WhileStatement) Kind() Kind        { return KindWhileStatement }
func (*DoWhileStatement) Kind() Kind      { return KindDoWhileStatement }
func (*ForStatement) Kind() Kind          { return KindForStatement }
func (*ForInStatement) Kind() Kind        { return KindForInStatement }
func (*BreakStatement) Kind() Kind        { return KindBreakStatement }
func (*ContinueStatement) Kind() Kind     { return KindContinueStatement }
func (*SwitchStatement) Kind() Kind       { return KindSwitchStatement }
func (*SwitchCase) Kind() Kind            { return KindSwitchCase }
func (*ThrowStatement) Kind() Kind        { return KindThrowStatement }
func (*TryStatement) Kind() Kind          { return KindTryStatement }
func (*CatchClause) Kind() Kind           { return KindCatchClause }
func (*WithStatement) Kind() Kind         { return KindWithStatement }
func (*LabeledStatement) Kind() Kind      { return KindLabeledStatement }
func (*Identifier) Kind() Kind            { return KindIdentifier }
func (*NumberLiteral) Kind() Kind         { return KindNumberLiteral }
func (*StringLiteral) Kind() Kind         { return KindStringLiteral }
func (*BooleanLiteral) Kind() Kind        { return KindBooleanLiteral }
func (*NullLiteral) Kind() Kind           { return KindNullLiteral }
func (*RegExpLiteral) Kind() Kind         { return KindRegExpLiteral }
func (*ArrayLiteral) Kind() Kind          { return KindArrayLiteral }
func (*Property) Kind() Kind              { return KindProperty }
func (*ObjectLiteral) Kind() Kind         { return KindObjectLiteral }
func (*FunctionExpression) Kind() Kind    { return KindFunctionExpression }
func (*ThisExpression) Kind() Kind        { return KindThisExpression }
func (*UnaryExpression) Kind() Kind       { return KindUnaryExpression }
func (*UpdateExpression) Kind() Kind      { return KindUpdateExpression }
func (*BinaryExpression) Kind() Kind      { return KindBinaryExpression }
func (*LogicalExpression) Kind() Kind     { return KindLogicalExpression }
func (*AssignmentExpression) Kind() Kind  { return KindAssignmentExpression }
func (*ConditionalExpression) Kind() Kind { return KindConditionalExpression }
func (*CallExpression) Kind() Kind        { return KindCallExpression }
func (*NewExpression) Kind() Kind         { return KindNewExpression }
func (*MemberExpression) Kind() Kind      { return KindMemberExpression }
func (*SequenceExpression) Kind() Kind    { return KindSequenceExpression }
