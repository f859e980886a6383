package ast

// A Visitor's Visit method is invoked for each node encountered by Walk.
// If the result visitor w is not nil, Walk visits each of the children
// of node with w, followed by a call of w.Visit(nil).
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses an AST in depth-first order.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}
	for _, child := range Children(node) {
		Walk(v, child)
	}
	v.Visit(nil)
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if node != nil && f(node) {
		return f
	}
	return nil
}

// Inspect traverses an AST in depth-first order, calling f for each node.
// Children are skipped when f returns false.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

// Children returns the direct children of node in source order. Nil
// optional children are omitted.
func Children(node Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, n := range nodes {
			if !isNil(n) {
				out = append(out, n)
			}
		}
	}
	switch n := node.(type) {
	case *Program:
		for _, s := range n.Body {
			add(s)
		}
	case *VariableDeclaration:
		for _, d := range n.Declarations {
			add(d)
		}
	case *VariableDeclarator:
		add(n.Name, n.Init)
	case *FunctionDeclaration:
		add(n.Name)
		for _, p := range n.Params {
			add(p)
		}
		add(n.Body)
	case *FunctionExpression:
		add(n.Name)
		for _, p := range n.Params {
			add(p)
		}
		add(n.Body)
	case *ExpressionStatement:
		add(n.Expression)
	case *BlockStatement:
		for _, s := range n.Body {
			add(s)
		}
	case *ReturnStatement:
		add(n.Argument)
	case *IfStatement:
		add(n.Test, n.Consequent, n.Alternate)
	case *WhileStatement:
		add(n.Test, n.Body)
	case *DoWhileStatement:
		add(n.Body, n.Test)
	case *ForStatement:
		add(n.Init, n.Test, n.Update, n.Body)
	case *ForInStatement:
		add(n.Left, n.Right, n.Body)
	case *BreakStatement:
		add(n.Label)
	case *ContinueStatement:
		add(n.Label)
	case *SwitchStatement:
		add(n.Discriminant)
		for _, c := range n.Cases {
			add(c)
		}
	case *SwitchCase:
		add(n.Test)
		for _, s := range n.Consequent {
			add(s)
		}
	case *ThrowStatement:
		add(n.Argument)
	case *TryStatement:
		add(n.Block, n.Handler, n.Finalizer)
	case *CatchClause:
		add(n.Param, n.Body)
	case *WithStatement:
		add(n.Object, n.Body)
	case *LabeledStatement:
		add(n.Label, n.Body)
	case *ArrayLiteral:
		for _, e := range n.Elements {
			add(e)
		}
	case *ObjectLiteral:
		for _, p := range n.Properties {
			add(p)
		}
	case *Property:
		add(n.KeyNode, n.Value)
	case *UnaryExpression:
		add(n.Argument)
	case *UpdateExpression:
		add(n.Argument)
	case *BinaryExpression:
		add(n.Left, n.Right)
	case *LogicalExpression:
		add(n.Left, n.Right)
	case *AssignmentExpression:
		add(n.Left, n.Right)
	case *ConditionalExpression:
		add(n.Test, n.Consequent, n.Alternate)
	case *CallExpression:
		add(n.Callee)
		for _, a := range n.Arguments {
			add(a)
		}
	case *NewExpression:
		add(n.Callee)
		for _, a := range n.Arguments {
			add(a)
		}
	case *MemberExpression:
		add(n.Object, n.Property)
	case *SequenceExpression:
		for _, e := range n.Expressions {
			add(e)
		}
	case *EmptyStatement, *DebuggerStatement, *Identifier, *NumberLiteral, *StringLiteral,
		*BooleanLiteral, *NullLiteral, *RegExpLiteral, *ThisExpression:
		// leaves
	}
	return out
}

// isNil catches typed nil pointers stored in interfaces.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *Identifier:
		return v == nil
	case *BlockStatement:
		return v == nil
	case *CatchClause:
		return v == nil
	case *VariableDeclaration:
		return v == nil
	case *SwitchCase:
		return v == nil
	case *Property:
		return v == nil
	}
	return false
}

// Number assigns consecutive ids in pre-order starting at first, tags
// every node with source, and returns the nodes indexed by id-first.
func Number(root Node, first NodeID, source string) []Node {
	var nodes []Node
	Inspect(root, func(n Node) bool {
		loc := n.Location()
		loc.ID = first + NodeID(len(nodes))
		loc.Source = source
		nodes = append(nodes, n)
		return true
	})
	return nodes
}

// CollectLocals returns the names declared by var statements and function
// declarations directly inside node, in order of appearance and without
// duplicates. Nested functions are not entered.
func CollectLocals(node Node) []string {
	var names []string
	seen := map[string]bool{}
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	var collect func(n Node)
	collect = func(n Node) {
		if isNil(n) {
			return
		}
		switch s := n.(type) {
		case *VariableDeclaration:
			for _, d := range s.Declarations {
				add(d.Name.Name)
			}
		case *FunctionDeclaration:
			add(s.Name.Name)
		case *Program:
			for _, st := range s.Body {
				collect(st)
			}
		case *BlockStatement:
			for _, st := range s.Body {
				collect(st)
			}
		case *IfStatement:
			collect(s.Consequent)
			collect(s.Alternate)
		case *LabeledStatement:
			collect(s.Body)
		case *WithStatement:
			collect(s.Body)
		case *SwitchStatement:
			for _, c := range s.Cases {
				collect(c)
			}
		case *SwitchCase:
			for _, st := range s.Consequent {
				collect(st)
			}
		case *TryStatement:
			collect(s.Block)
			collect(s.Handler)
			collect(s.Finalizer)
		case *CatchClause:
			collect(s.Body)
		case *WhileStatement:
			collect(s.Body)
		case *DoWhileStatement:
			collect(s.Body)
		case *ForStatement:
			collect(s.Init)
			collect(s.Body)
		case *ForInStatement:
			collect(s.Left)
			collect(s.Body)
		}
	}
	collect(node)
	return names
}

// FunctionDeclarations returns the function declarations hoisted to the
// scope of node, in order of appearance. Nested functions are not entered.
func FunctionDeclarations(node Node) []*FunctionDeclaration {
	var out []*FunctionDeclaration
	Inspect(node, func(n Node) bool {
		switch f := n.(type) {
		case *FunctionDeclaration:
			out = append(out, f)
			return false
		case *FunctionExpression:
			return false
		case Expression:
			return false
		}
		return true
	})
	return out
}
