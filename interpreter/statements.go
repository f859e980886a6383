package interpreter

import (
	"fmt"

	"github.com/example/jsviz/ast"
	"github.com/example/jsviz/runtime"
)

// dispatch advances the state on top of the stack by one step.
func (interp *Interpreter) dispatch(st *State, node ast.Node) error {
	switch n := node.(type) {
	case *ast.Program:
		return interp.stepStatements(st, n.Body, false)
	case *ast.BlockStatement:
		return interp.stepStatements(st, n.Body, true)
	case *ast.ExpressionStatement:
		return interp.stepExpressionStatement(st, n)
	case *ast.VariableDeclaration:
		return interp.stepVariableDeclaration(st, n)
	case *ast.FunctionDeclaration, *ast.EmptyStatement, *ast.DebuggerStatement:
		interp.pop()
		return nil
	case *ast.IfStatement:
		return interp.stepIf(st, n)
	case *ast.LabeledStatement:
		return interp.stepLabeled(st, n)
	case *ast.WhileStatement:
		return interp.stepWhile(st, n)
	case *ast.DoWhileStatement:
		return interp.stepDoWhile(st, n)
	case *ast.ForStatement:
		return interp.stepFor(st, n)
	case *ast.ForInStatement:
		return interp.stepForIn(st, n)
	case *ast.SwitchStatement:
		return interp.stepSwitch(st, n)
	case *ast.BreakStatement:
		return interp.unwindBreak(n.Label, false)
	case *ast.ContinueStatement:
		return interp.unwindBreak(n.Label, true)
	case *ast.ReturnStatement:
		return interp.stepReturn(st, n)
	case *ast.ThrowStatement:
		return interp.stepThrow(st, n)
	case *ast.TryStatement:
		return runtime.Throwf("SyntaxError", "try statement is not supported")
	case *ast.WithStatement:
		return runtime.Throwf("SyntaxError", "with statement is not supported")
	case ast.Expression:
		return interp.evalStep(st, n)
	}
	return fmt.Errorf("%w: unexpected %s node", ErrFault, node.Kind())
}

func (interp *Interpreter) stepStatements(st *State, body []ast.Statement, popWhenDone bool) error {
	if st.N < len(body) {
		interp.push(body[st.N], st.Scope)
		st.N++
		return nil
	}
	if popWhenDone {
		interp.pop()
	}
	return nil
}

func (interp *Interpreter) stepExpressionStatement(st *State, n *ast.ExpressionStatement) error {
	if st.Phase == 0 {
		st.Phase = 1
		interp.push(n.Expression, st.Scope)
		return nil
	}
	interp.pop()
	return nil
}

func (interp *Interpreter) stepVariableDeclaration(st *State, n *ast.VariableDeclaration) error {
	if st.Phase == 1 {
		d := n.Declarations[st.N]
		if err := interp.heap.Assign(st.Scope, d.Name.Name, st.take()); err != nil {
			return err
		}
		st.Phase = 0
		st.N++
	}
	for ; st.N < len(n.Declarations); st.N++ {
		if d := n.Declarations[st.N]; d.Init != nil {
			st.Phase = 1
			interp.push(d.Init, st.Scope)
			return nil
		}
	}
	interp.pop()
	return nil
}

func (interp *Interpreter) stepIf(st *State, n *ast.IfStatement) error {
	switch st.Phase {
	case 0:
		st.Phase = 1
		interp.push(n.Test, st.Scope)
	case 1:
		st.Phase = 2
		if st.take().ToBoolean() {
			interp.push(n.Consequent, st.Scope)
		} else if n.Alternate != nil {
			interp.push(n.Alternate, st.Scope)
		}
	default:
		interp.pop()
	}
	return nil
}

func (interp *Interpreter) stepLabeled(st *State, n *ast.LabeledStatement) error {
	if st.Phase == 0 {
		st.Phase = 1
		child := interp.push(n.Body, st.Scope)
		child.Labels = append(append([]string{}, st.Labels...), n.Label.Name)
		return nil
	}
	interp.pop()
	return nil
}

// Loop phases are arranged so that a state left on top by continue
// resumes with its next test or update.

func (interp *Interpreter) stepWhile(st *State, n *ast.WhileStatement) error {
	if st.Phase == 0 {
		st.Phase = 1
		interp.push(n.Test, st.Scope)
		return nil
	}
	if !st.take().ToBoolean() {
		interp.pop()
		return nil
	}
	st.Phase = 0
	interp.push(n.Body, st.Scope)
	return nil
}

func (interp *Interpreter) stepDoWhile(st *State, n *ast.DoWhileStatement) error {
	switch st.Phase {
	case 0:
		st.Phase = 1
		interp.push(n.Body, st.Scope)
	case 1:
		st.Phase = 2
		interp.push(n.Test, st.Scope)
	default:
		if !st.take().ToBoolean() {
			interp.pop()
			return nil
		}
		st.Phase = 1
		interp.push(n.Body, st.Scope)
	}
	return nil
}

func (interp *Interpreter) stepFor(st *State, n *ast.ForStatement) error {
	switch st.Phase {
	case 0:
		st.Phase = 1
		if n.Init != nil {
			interp.push(n.Init, st.Scope)
		}
	case 1:
		st.Phase = 2
		if n.Test != nil {
			interp.push(n.Test, st.Scope)
			return nil
		}
		st.Value, st.HasValue = runtime.True, true
		return interp.stepFor(st, n)
	case 2:
		if !st.take().ToBoolean() {
			interp.pop()
			return nil
		}
		st.Phase = 3
		interp.push(n.Body, st.Scope)
	default:
		st.Phase = 1
		if n.Update != nil {
			interp.push(n.Update, st.Scope)
		}
	}
	return nil
}

func (interp *Interpreter) stepForIn(st *State, n *ast.ForInStatement) error {
	switch st.Phase {
	case 0:
		st.Phase = 1
		interp.push(n.Right, st.Scope)
		return nil
	case 1:
		subject := st.take()
		if subject.IsNullish() {
			interp.pop()
			return nil
		}
		if !subject.IsObject() {
			subject = runtime.NewRef(interp.heap.Box(subject).ID)
		}
		st.Left = subject
		st.Keys = interp.forInKeys(interp.heap.Deref(subject))
		st.Phase = 2
		return nil
	case 3:
		ref := st.Ref
		st.Ref, st.HasValue = nil, false
		if err := interp.putRef(ref, runtime.NewString(st.Keys[st.N-1])); err != nil {
			return err
		}
		st.Phase = 2
		interp.push(n.Body, st.Scope)
		return nil
	}

	obj := interp.heap.Deref(st.Left)
	for st.N < len(st.Keys) {
		key := st.Keys[st.N]
		st.N++
		if !interp.heap.Has(obj, key) {
			continue
		}
		switch left := n.Left.(type) {
		case *ast.VariableDeclaration:
			if err := interp.heap.Assign(st.Scope, left.Declarations[0].Name.Name, runtime.NewString(key)); err != nil {
				return err
			}
		case *ast.Identifier:
			if err := interp.heap.Assign(st.Scope, left.Name, runtime.NewString(key)); err != nil {
				return err
			}
		default:
			st.Phase = 3
			interp.pushComponents(n.Left, st.Scope)
			return nil
		}
		interp.push(n.Body, st.Scope)
		return nil
	}
	interp.pop()
	return nil
}

// forInKeys lists the enumerable keys of obj and its prototypes, own keys
// first, without duplicates.
func (interp *Interpreter) forInKeys(obj *runtime.Object) []string {
	var keys []string
	seen := map[string]bool{}
	for depth := 0; obj != nil && depth < 1000; depth++ {
		own := obj.EnumerableKeys()
		if obj.Class == runtime.ClassString && obj.Primitive != nil {
			own = nil
			for i := range []rune(obj.Primitive.Str) {
				own = append(own, runtime.Index(i))
			}
		}
		for _, k := range own {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
		obj = interp.heap.Object(obj.Proto)
	}
	return keys
}

func (interp *Interpreter) stepSwitch(st *State, n *ast.SwitchStatement) error {
	switch st.Phase {
	case 0:
		st.Phase = 1
		interp.push(n.Discriminant, st.Scope)
		return nil
	case 1:
		st.Left = st.take()
		st.Phase, st.N, st.Default = 2, 0, -1
		return interp.searchCases(st, n)
	case 2:
		return interp.searchCases(st, n)
	case 3:
		if runtime.StrictEquals(st.Left, st.take()) {
			st.Phase, st.M = 4, 0
			return interp.runCases(st, n)
		}
		st.Phase = 2
		st.N++
		return interp.searchCases(st, n)
	}
	return interp.runCases(st, n)
}

func (interp *Interpreter) searchCases(st *State, n *ast.SwitchStatement) error {
	for ; st.N < len(n.Cases); st.N++ {
		c := n.Cases[st.N]
		if c.Test == nil {
			st.Default = st.N
			continue
		}
		st.Phase = 3
		interp.push(c.Test, st.Scope)
		return nil
	}
	if st.Default < 0 {
		interp.pop()
		return nil
	}
	st.Phase, st.N, st.M = 4, st.Default, 0
	return interp.runCases(st, n)
}

// runCases executes consequents from case N, statement M, falling through
// into the following cases.
func (interp *Interpreter) runCases(st *State, n *ast.SwitchStatement) error {
	for st.N < len(n.Cases) {
		body := n.Cases[st.N].Consequent
		if st.M < len(body) {
			interp.push(body[st.M], st.Scope)
			st.M++
			return nil
		}
		st.N++
		st.M = 0
	}
	interp.pop()
	return nil
}

func isLoop(node ast.Node) bool {
	switch node.(type) {
	case *ast.WhileStatement, *ast.DoWhileStatement, *ast.ForStatement, *ast.ForInStatement:
		return true
	}
	return false
}

func hasLabel(st *State, label string) bool {
	for _, l := range st.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// unwindBreak pops states up to the target of a break or continue. A
// break also pops its target; a continue leaves the loop on top.
func (interp *Interpreter) unwindBreak(label *ast.Identifier, isContinue bool) error {
	interp.pop()
	for len(interp.stack) > 0 {
		st := interp.Top()
		node := interp.nodes[st.Node]
		if interp.isActiveCall(st) {
			break
		}
		var target bool
		switch {
		case label != nil:
			target = hasLabel(st, label.Name) && (!isContinue || isLoop(node))
		case isContinue:
			target = isLoop(node)
		default:
			_, isSwitch := node.(*ast.SwitchStatement)
			target = isLoop(node) || isSwitch
		}
		if target {
			if !isContinue {
				interp.pop()
			}
			return nil
		}
		interp.pop()
	}
	return fmt.Errorf("%w: break or continue outside of its target", ErrFault)
}

func (interp *Interpreter) stepReturn(st *State, n *ast.ReturnStatement) error {
	if n.Argument != nil && !st.Done {
		st.Done = true
		interp.push(n.Argument, st.Scope)
		return nil
	}
	v := runtime.Undefined
	if st.HasValue {
		v = st.Value
	}
	for len(interp.stack) > 0 {
		if top := interp.Top(); interp.isActiveCall(top) {
			top.Phase = callReturned
			top.Value, top.HasValue = v, true
			return nil
		}
		interp.pop()
	}
	return fmt.Errorf("%w: return outside of a function", ErrFault)
}

func (interp *Interpreter) stepThrow(st *State, n *ast.ThrowStatement) error {
	if !st.Done {
		st.Done = true
		interp.push(n.Argument, st.Scope)
		return nil
	}
	return &thrown{value: st.Value}
}
