package ast

// Kind tags every node type. Step classification is keyed by Kind.
type Kind int

const (
	KindInvalid Kind = iota
	KindProgram
	KindVariableDeclaration
	KindVariableDeclarator
	KindFunctionDeclaration
	KindExpressionStatement
	KindBlockStatement
	KindEmptyStatement
	KindDebuggerStatement
	KindReturnStatement
	KindIfStatement
	KindWhileStatement
	KindDoWhileStatement
	KindForStatement
	KindForInStatement
	KindBreakStatement
	KindContinueStatement
	KindSwitchStatement
	KindSwitchCase
	KindThrowStatement
	KindTryStatement
	KindCatchClause
	KindWithStatement
	KindLabeledStatement
	KindIdentifier
	KindNumberLiteral
	KindStringLiteral
	KindBooleanLiteral
	KindNullLiteral
	KindRegExpLiteral
	KindArrayLiteral
	KindProperty
	KindObjectLiteral
	KindFunctionExpression
	KindThisExpression
	KindUnaryExpression
	KindUpdateExpression
	KindBinaryExpression
	KindLogicalExpression
	KindAssignmentExpression
	KindConditionalExpression
	KindCallExpression
	KindNewExpression
	KindMemberExpression
	KindSequenceExpression

	kindCount
)

var kindNames = [...]string{
	KindInvalid:               "Invalid",
	KindProgram:               "Program",
	KindVariableDeclaration:   "VariableDeclaration",
	KindVariableDeclarator:    "VariableDeclarator",
	KindFunctionDeclaration:   "FunctionDeclaration",
	KindExpressionStatement:   "ExpressionStatement",
	KindBlockStatement:        "BlockStatement",
	KindEmptyStatement:        "EmptyStatement",
	KindDebuggerStatement:     "DebuggerStatement",
	KindReturnStatement:       "ReturnStatement",
	KindIfStatement:           "IfStatement",
	KindWhileStatement:        "WhileStatement",
	KindDoWhileStatement:      "DoWhileStatement",
	KindForStatement:          "ForStatement",
	KindForInStatement:        "ForInStatement",
	KindBreakStatement:        "BreakStatement",
	KindContinueStatement:     "ContinueStatement",
	KindSwitchStatement:       "SwitchStatement",
	KindSwitchCase:            "SwitchCase",
	KindThrowStatement:        "ThrowStatement",
	KindTryStatement:          "TryStatement",
	KindCatchClause:           "CatchClause",
	KindWithStatement:         "WithStatement",
	KindLabeledStatement:      "LabeledStatement",
	KindIdentifier:            "Identifier",
	KindNumberLiteral:         "NumberLiteral",
	KindStringLiteral:         "StringLiteral",
	KindBooleanLiteral:        "BooleanLiteral",
	KindNullLiteral:           "NullLiteral",
	KindRegExpLiteral:         "RegExpLiteral",
	KindArrayLiteral:          "ArrayLiteral",
	KindProperty:              "Property",
	KindObjectLiteral:         "ObjectLiteral",
	KindFunctionExpression:    "FunctionExpression",
	KindThisExpression:        "ThisExpression",
	KindUnaryExpression:       "UnaryExpression",
	KindUpdateExpression:      "UpdateExpression",
	KindBinaryExpression:      "BinaryExpression",
	KindLogicalExpression:     "LogicalExpression",
	KindAssignmentExpression:  "AssignmentExpression",
	KindConditionalExpression: "ConditionalExpression",
	KindCallExpression:        "CallExpression",
	KindNewExpression:         "NewExpression",
	KindMemberExpression:      "MemberExpression",
	KindSequenceExpression:    "SequenceExpression",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// Kinds returns every valid node kind.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount-1)
	for k := KindProgram; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// KindSet is a set of node kinds.
type KindSet map[Kind]struct{}

func NewKindSet(kinds ...Kind) KindSet {
	s := make(KindSet, len(kinds))
	for _, k := range kinds {
		s[k] = struct{}{}
	}
	return s
}

func (s KindSet) Has(k Kind) bool {
	_, ok := s[k]
	return ok
}

// Union returns a new set holding the kinds of s and other.
func (s KindSet) Union(other KindSet) KindSet {
	out := make(KindSet, len(s)+len(other))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}
