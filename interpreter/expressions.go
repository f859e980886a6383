package interpreter

import (
	"fmt"

	"github.com/example/jsviz/ast"
	"github.com/example/jsviz/runtime"
	"github.com/example/jsviz/token"
)

func (interp *Interpreter) evalStep(st *State, node ast.Expression) error {
	switch n := node.(type) {
	case *ast.Identifier:
		return interp.evalIdentifier(st, n)
	case *ast.NumberLiteral:
		interp.ret(runtime.NewNumber(n.Value))
	case *ast.StringLiteral:
		interp.ret(runtime.NewString(n.Value))
	case *ast.BooleanLiteral:
		interp.ret(runtime.NewBool(n.Value))
	case *ast.NullLiteral:
		interp.ret(runtime.Null)
	case *ast.RegExpLiteral:
		return runtime.Throwf("SyntaxError", "regular expressions are not supported")
	case *ast.ThisExpression:
		v, _ := interp.heap.Lookup(st.Scope, "this")
		interp.ret(v)
	case *ast.FunctionExpression:
		interp.ret(interp.functionExpression(n, st.Scope))
	case *ast.ArrayLiteral:
		return interp.evalArrayLiteral(st, n)
	case *ast.ObjectLiteral:
		return interp.evalObjectLiteral(st, n)
	case *ast.UnaryExpression:
		return interp.evalUnary(st, n)
	case *ast.UpdateExpression:
		return interp.evalUpdate(st, n)
	case *ast.BinaryExpression:
		return interp.evalBinary(st, n)
	case *ast.LogicalExpression:
		return interp.evalLogical(st, n)
	case *ast.AssignmentExpression:
		return interp.evalAssignment(st, n)
	case *ast.ConditionalExpression:
		return interp.evalConditional(st, n)
	case *ast.SequenceExpression:
		return interp.evalSequence(st, n)
	case *ast.MemberExpression:
		return interp.evalMember(st, n)
	case *ast.CallExpression:
		return interp.stepCall(st, n, n.Callee, n.Arguments, false)
	case *ast.NewExpression:
		return interp.stepCall(st, n, n.Callee, n.Arguments, true)
	default:
		return fmt.Errorf("%w: unexpected %s expression", ErrFault, node.Kind())
	}
	return nil
}

func (interp *Interpreter) evalIdentifier(st *State, n *ast.Identifier) error {
	if st.Components {
		interp.retRef(&Reference{Scope: st.Scope, Name: n.Name, IsScope: true})
		return nil
	}
	v, ok := interp.heap.Lookup(st.Scope, n.Name)
	if !ok {
		return runtime.Throwf("ReferenceError", "%s is not defined", n.Name)
	}
	interp.ret(v)
	return nil
}

// getRef reads the value a reference points to.
func (interp *Interpreter) getRef(ref *Reference) (runtime.Value, error) {
	if ref.IsScope {
		v, ok := interp.heap.Lookup(ref.Scope, ref.Name)
		if !ok {
			return runtime.Undefined, runtime.Throwf("ReferenceError", "%s is not defined", ref.Name)
		}
		return v, nil
	}
	return interp.heap.Get(ref.Base, ref.Name)
}

// putRef stores v where a reference points.
func (interp *Interpreter) putRef(ref *Reference, v runtime.Value) error {
	if ref.IsScope {
		return interp.heap.Assign(ref.Scope, ref.Name, v)
	}
	return interp.heap.Put(ref.Base, ref.Name, v)
}

func (interp *Interpreter) evalArrayLiteral(st *State, n *ast.ArrayLiteral) error {
	if st.HasValue {
		st.Values = append(st.Values, st.take())
		st.N++
	}
	for st.N < len(n.Elements) {
		if el := n.Elements[st.N]; el != nil {
			interp.push(el, st.Scope)
			return nil
		}
		st.Values = append(st.Values, runtime.Undefined)
		st.N++
	}
	interp.ret(runtime.NewRef(interp.heap.NewArray(st.Values).ID))
	return nil
}

func (interp *Interpreter) evalObjectLiteral(st *State, n *ast.ObjectLiteral) error {
	if st.HasValue {
		st.Values = append(st.Values, st.take())
		st.N++
	}
	if st.N < len(n.Properties) {
		p := n.Properties[st.N]
		if p.PropKind != ast.PropertyInit {
			return runtime.Throwf("SyntaxError", "getters and setters are not supported")
		}
		interp.push(p.Value, st.Scope)
		return nil
	}
	obj := interp.heap.NewPlainObject()
	for i, p := range n.Properties {
		obj.Put(p.Key, st.Values[i])
	}
	interp.ret(runtime.NewRef(obj.ID))
	return nil
}

func (interp *Interpreter) evalUnary(st *State, n *ast.UnaryExpression) error {
	if st.Phase == 0 {
		st.Phase = 1
		switch n.Operator {
		case token.Typeof:
			if id, ok := n.Argument.(*ast.Identifier); ok {
				v, found := interp.heap.Lookup(st.Scope, id.Name)
				if !found {
					interp.ret(runtime.NewString("undefined"))
					return nil
				}
				interp.ret(runtime.NewString(interp.heap.TypeOf(v)))
				return nil
			}
		case token.Delete:
			if _, ok := n.Argument.(*ast.MemberExpression); ok {
				interp.pushComponents(n.Argument, st.Scope)
				return nil
			}
		}
		interp.push(n.Argument, st.Scope)
		return nil
	}

	if n.Operator == token.Delete {
		if st.Ref == nil {
			st.take()
			interp.ret(runtime.True)
			return nil
		}
		ref := st.Ref
		if ref.Base.IsNullish() {
			return runtime.Throwf("TypeError", "Cannot convert undefined or null to object")
		}
		obj := interp.heap.Deref(ref.Base)
		if obj == nil {
			interp.ret(runtime.True)
			return nil
		}
		interp.ret(runtime.NewBool(interp.heap.Remove(obj, ref.Name)))
		return nil
	}

	v := st.take()
	switch n.Operator {
	case token.Minus:
		v = runtime.NewNumber(-interp.heap.ToNumber(v))
	case token.Plus:
		v = runtime.NewNumber(interp.heap.ToNumber(v))
	case token.Not:
		v = runtime.NewBool(!v.ToBoolean())
	case token.BitwiseNot:
		v = runtime.NewNumber(float64(^runtime.ToInt32(interp.heap.ToNumber(v))))
	case token.Typeof:
		v = runtime.NewString(interp.heap.TypeOf(v))
	case token.Void:
		v = runtime.Undefined
	default:
		return fmt.Errorf("%w: unknown unary operator %s", ErrFault, n.Operator)
	}
	interp.ret(v)
	return nil
}

func (interp *Interpreter) evalUpdate(st *State, n *ast.UpdateExpression) error {
	if st.Phase == 0 {
		st.Phase = 1
		interp.pushComponents(n.Argument, st.Scope)
		return nil
	}
	if st.Ref == nil {
		return runtime.Throwf("SyntaxError", "Invalid left-hand side expression in update operation")
	}
	old, err := interp.getRef(st.Ref)
	if err != nil {
		return err
	}
	oldNum := interp.heap.ToNumber(old)
	newNum := oldNum + 1
	if n.Operator == token.Decrement {
		newNum = oldNum - 1
	}
	if err := interp.putRef(st.Ref, runtime.NewNumber(newNum)); err != nil {
		return err
	}
	if n.Prefix {
		interp.ret(runtime.NewNumber(newNum))
	} else {
		interp.ret(runtime.NewNumber(oldNum))
	}
	return nil
}

func (interp *Interpreter) evalAssignment(st *State, n *ast.AssignmentExpression) error {
	switch st.Phase {
	case 0:
		st.Phase = 1
		interp.pushComponents(n.Left, st.Scope)
		return nil
	case 1:
		st.HasValue = false
		if st.Ref == nil {
			return runtime.Throwf("ReferenceError", "Invalid left-hand side in assignment")
		}
		if n.Operator != token.Assign {
			left, err := interp.getRef(st.Ref)
			if err != nil {
				return err
			}
			st.Left = left
		}
		st.Phase = 2
		interp.push(n.Right, st.Scope)
		return nil
	}
	v := st.take()
	if op, ok := token.BinaryOf(n.Operator); ok {
		var err error
		if v, err = interp.binary(op, st.Left, v); err != nil {
			return err
		}
	}
	if err := interp.putRef(st.Ref, v); err != nil {
		return err
	}
	interp.ret(v)
	return nil
}

func (interp *Interpreter) evalBinary(st *State, n *ast.BinaryExpression) error {
	switch st.Phase {
	case 0:
		st.Phase = 1
		interp.push(n.Left, st.Scope)
		return nil
	case 1:
		st.Left = st.take()
		st.Phase = 2
		interp.push(n.Right, st.Scope)
		return nil
	}
	v, err := interp.binary(n.Operator, st.Left, st.take())
	if err != nil {
		return err
	}
	interp.ret(v)
	return nil
}

func (interp *Interpreter) evalLogical(st *State, n *ast.LogicalExpression) error {
	switch st.Phase {
	case 0:
		st.Phase = 1
		interp.push(n.Left, st.Scope)
		return nil
	case 1:
		v := st.take()
		if v.ToBoolean() == (n.Operator == token.Or) {
			interp.ret(v)
			return nil
		}
		st.Phase = 2
		interp.push(n.Right, st.Scope)
		return nil
	}
	interp.ret(st.take())
	return nil
}

func (interp *Interpreter) evalConditional(st *State, n *ast.ConditionalExpression) error {
	switch st.Phase {
	case 0:
		st.Phase = 1
		interp.push(n.Test, st.Scope)
	case 1:
		st.Phase = 2
		if st.take().ToBoolean() {
			interp.push(n.Consequent, st.Scope)
		} else {
			interp.push(n.Alternate, st.Scope)
		}
	default:
		interp.ret(st.take())
	}
	return nil
}

func (interp *Interpreter) evalSequence(st *State, n *ast.SequenceExpression) error {
	if st.N < len(n.Expressions) {
		interp.push(n.Expressions[st.N], st.Scope)
		st.N++
		return nil
	}
	interp.ret(st.take())
	return nil
}

func (interp *Interpreter) evalMember(st *State, n *ast.MemberExpression) error {
	var key string
	switch st.Phase {
	case 0:
		st.Phase = 1
		interp.push(n.Object, st.Scope)
		return nil
	case 1:
		st.Left = st.take()
		if n.Computed {
			st.Phase = 2
			interp.push(n.Property, st.Scope)
			return nil
		}
		key = n.Property.(*ast.Identifier).Name
	default:
		key = interp.heap.PropertyKey(st.take())
	}
	if st.Components {
		interp.retRef(&Reference{Base: st.Left, Name: key})
		return nil
	}
	v, err := interp.heap.Get(st.Left, key)
	if err != nil {
		return err
	}
	interp.ret(v)
	return nil
}
