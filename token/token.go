package token

import "fmt"

type TokenType int

const (
	// Literals
	Illegal TokenType = iota
	EOF
	Identifier
	Number
	String
	RegExp
	Template // `...`, recognized only to be rejected

	// Operators
	Plus
	Minus
	Asterisk
	Slash
	Percent
	Exponent // **
	Assign
	PlusAssign
	MinusAssign
	AsteriskAssign
	SlashAssign
	PercentAssign
	AmpersandAssign
	PipeAssign
	CaretAssign
	LeftShiftAssign
	RightShiftAssign
	UnsignedRightShiftAssign
	Equal
	NotEqual
	StrictEqual
	StrictNotEqual
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	And
	Or
	Not
	BitwiseAnd
	BitwiseOr
	BitwiseXor
	BitwiseNot
	LeftShift
	RightShift
	UnsignedRightShift
	Increment
	Decrement

	// Delimiters
	LeftParen
	RightParen
	LeftBrace
	RightBrace
	LeftBracket
	RightBracket
	Semicolon
	Colon
	Comma
	Dot
	Spread // ...
	Arrow  // =>
	QuestionMark

	// Keywords
	Var
	Function
	Return
	If
	Else
	While
	For
	Do
	Break
	Continue
	Switch
	Case
	Default
	Throw
	Try
	Catch
	Finally
	New
	Delete
	Typeof
	Void
	In
	Instanceof
	This
	True
	False
	Null
	Debugger
	With

	// Reserved in strict mode ES5; parsing them is an error.
	Let
	Const
	Class
	Extends
	Super
	Import
	Export
	Yield
)

// Position is a point in the source. Lines are 1-based, columns are
// 0-based rune offsets within the line, Offset is a byte offset.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type Token struct {
	Type    TokenType
	Literal string
	Start   Position
	End     Position
	// NewlineBefore is set when a line terminator separates this token
	// from the previous one. Used for automatic semicolon insertion.
	NewlineBefore bool
}

var Keywords = map[string]TokenType{
	"var":        Var,
	"function":   Function,
	"return":     Return,
	"if":         If,
	"else":       Else,
	"while":      While,
	"for":        For,
	"do":         Do,
	"break":      Break,
	"continue":   Continue,
	"switch":     Switch,
	"case":       Case,
	"default":    Default,
	"throw":      Throw,
	"try":        Try,
	"catch":      Catch,
	"finally":    Finally,
	"new":        New,
	"delete":     Delete,
	"typeof":     Typeof,
	"void":       Void,
	"in":         In,
	"instanceof": Instanceof,
	"this":       This,
	"true":       True,
	"false":      False,
	"null":       Null,
	"debugger":   Debugger,
	"with":       With,
	"let":        Let,
	"const":      Const,
	"class":      Class,
	"extends":    Extends,
	"super":      Super,
	"import":     Import,
	"export":     Export,
	"yield":      Yield,
}

func LookupIdentifier(ident string) TokenType {
	if tok, ok := Keywords[ident]; ok {
		return tok
	}
	return Identifier
}

var names = map[TokenType]string{
	Illegal:                  "ILLEGAL",
	EOF:                      "EOF",
	Identifier:               "identifier",
	Number:                   "number",
	String:                   "string",
	RegExp:                   "regexp",
	Template:                 "template literal",
	Plus:                     "+",
	Minus:                    "-",
	Asterisk:                 "*",
	Slash:                    "/",
	Percent:                  "%",
	Exponent:                 "**",
	Assign:                   "=",
	PlusAssign:               "+=",
	MinusAssign:              "-=",
	AsteriskAssign:           "*=",
	SlashAssign:              "/=",
	PercentAssign:            "%=",
	AmpersandAssign:          "&=",
	PipeAssign:               "|=",
	CaretAssign:              "^=",
	LeftShiftAssign:          "<<=",
	RightShiftAssign:         ">>=",
	UnsignedRightShiftAssign: ">>>=",
	Equal:                    "==",
	NotEqual:                 "!=",
	StrictEqual:              "===",
	StrictNotEqual:           "!==",
	LessThan:                 "<",
	GreaterThan:              ">",
	LessThanOrEqual:          "<=",
	GreaterThanOrEqual:       ">=",
	And:                      "&&",
	Or:                       "||",
	Not:                      "!",
	BitwiseAnd:               "&",
	BitwiseOr:                "|",
	BitwiseXor:               "^",
	BitwiseNot:               "~",
	LeftShift:                "<<",
	RightShift:               ">>",
	UnsignedRightShift:       ">>>",
	Increment:                "++",
	Decrement:                "--",
	LeftParen:                "(",
	RightParen:               ")",
	LeftBrace:                "{",
	RightBrace:               "}",
	LeftBracket:              "[",
	RightBracket:             "]",
	Semicolon:                ";",
	Colon:                    ":",
	Comma:                    ",",
	Dot:                      ".",
	Spread:                   "...",
	Arrow:                    "=>",
	QuestionMark:             "?",
}

func (t TokenType) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	for kw, typ := range Keywords {
		if typ == t {
			return kw
		}
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// IsAssign reports whether t is = or a compound assignment operator.
func (t TokenType) IsAssign() bool {
	return t >= Assign && t <= UnsignedRightShiftAssign
}

// BinaryOf maps a compound assignment operator to its binary operator.
func BinaryOf(t TokenType) (TokenType, bool) {
	switch t {
	case PlusAssign:
		return Plus, true
	case MinusAssign:
		return Minus, true
	case AsteriskAssign:
		return Asterisk, true
	case SlashAssign:
		return Slash, true
	case PercentAssign:
		return Percent, true
	case AmpersandAssign:
		return BitwiseAnd, true
	case PipeAssign:
		return BitwiseOr, true
	case CaretAssign:
		return BitwiseXor, true
	case LeftShiftAssign:
		return LeftShift, true
	case RightShiftAssign:
		return RightShift, true
	case UnsignedRightShiftAssign:
		return UnsignedRightShift, true
	}
	return Illegal, false
}
