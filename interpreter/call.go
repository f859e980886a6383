package interpreter

import (
	"fmt"

	"github.com/example/jsviz/ast"
	"github.com/example/jsviz/runtime"
)

// Phases of a call or new expression.
const (
	callCallee = iota
	callTarget
	callArguments
	callInvoke
	// callBody marks a call whose function body is on the stack above it.
	callBody
	// callReturned holds the value of a return statement in Value.
	callReturned
)

// isActiveCall reports whether st is a call currently running an
// interpreted function body.
func (interp *Interpreter) isActiveCall(st *State) bool {
	if st.Phase != callBody {
		return false
	}
	switch interp.nodes[st.Node].(type) {
	case *ast.CallExpression, *ast.NewExpression:
		return true
	}
	return false
}

// IsActiveCall reports whether st is a call or new expression whose
// function body is executing.
func (interp *Interpreter) IsActiveCall(st *State) bool { return interp.isActiveCall(st) }

func (interp *Interpreter) stepCall(st *State, n ast.Node, callee ast.Expression, args []ast.Expression, construct bool) error {
	switch st.Phase {
	case callCallee:
		st.Phase = callTarget
		if construct {
			interp.push(callee, st.Scope)
		} else {
			interp.pushComponents(callee, st.Scope)
		}
		return nil

	case callTarget:
		if ref := st.Ref; ref != nil {
			fn, err := interp.getRef(ref)
			if err != nil {
				return err
			}
			st.Func = fn
			if !ref.IsScope {
				st.This = ref.Base
			}
			st.Ref = nil
		} else {
			st.Func = st.Value
		}
		st.HasValue = false
		st.Phase = callArguments
		st.N = 0
		return interp.stepCall(st, n, callee, args, construct)

	case callArguments:
		if st.HasValue {
			st.Values = append(st.Values, st.take())
		}
		if st.N < len(args) {
			interp.push(args[st.N], st.Scope)
			st.N++
			return nil
		}
		st.Phase = callInvoke
		return interp.invoke(st, n, callee, construct)

	case callInvoke:
		return interp.invoke(st, n, callee, construct)

	case callBody:
		st.Value = runtime.Undefined
	}

	v := st.take()
	if construct && !v.IsObject() {
		v = st.This
	}
	interp.ret(v)
	return nil
}

// invoke calls st.Func with st.This and st.Values. Interpreted functions
// push their body; natives complete in this step unless they request a
// tail call.
func (interp *Interpreter) invoke(st *State, n ast.Node, callee ast.Expression, construct bool) error {
	for {
		fnObj := interp.heap.Deref(st.Func)
		if !fnObj.IsCallable() {
			what := "a function"
			if construct {
				what = "a constructor"
			}
			return runtime.Throwf("TypeError", "%s is not %s", interp.Text(callee), what)
		}
		fn := fnObj.Func

		if fn.IsNative() {
			native, ok := interp.natives[fn.Native]
			if !ok {
				return fmt.Errorf("%w: native %q is not registered", ErrFault, fn.Native)
			}
			c := &runtime.NativeCall{
				Heap:       interp.heap,
				This:       st.This,
				Args:       st.Values,
				Construct:  construct,
				Site:       n,
				StackTrace: interp.StackTrace,
			}
			v, err := native(c)
			if err != nil {
				return err
			}
			if c.Tail != nil {
				st.Func, st.This, st.Values = c.Tail.Func, c.Tail.This, c.Tail.Args
				construct = false
				continue
			}
			interp.ret(v)
			return nil
		}

		body, ok := interp.nodes[fn.Node].(ast.Function)
		if !ok {
			return fmt.Errorf("%w: function node %d not found", ErrFault, fn.Node)
		}
		if construct {
			proto := interp.heap.GetFrom(fnObj, "prototype")
			if !proto.IsObject() {
				proto = runtime.NewRef(interp.heap.Intrinsic(runtime.IntrinsicObjectPrototype))
			}
			st.This = runtime.NewRef(interp.heap.Alloc(runtime.ClassObject, proto.Ref).ID)
		}
		scope := interp.bindCall(fn, body, st.This, st.Values)
		st.Phase = callBody
		_, _, block := body.Signature()
		interp.push(block, scope)
		return nil
	}
}

// bindCall creates the scope of a call to an interpreted function.
func (interp *Interpreter) bindCall(fn *runtime.Function, node ast.Function, this runtime.Value, args []runtime.Value) runtime.ObjectID {
	h := interp.heap
	scope := h.NewScope(fn.Scope, true).ID
	h.Declare(scope, "this", this)

	_, params, body := node.Signature()
	arguments := h.Alloc(runtime.ClassArguments, h.Intrinsic(runtime.IntrinsicObjectPrototype))
	arguments.Elems = append([]runtime.Value{}, args...)
	h.Declare(scope, "arguments", runtime.NewRef(arguments.ID))
	for i, p := range params {
		v := runtime.Undefined
		if i < len(args) {
			v = args[i]
		}
		h.Declare(scope, p.Name, v)
	}
	interp.hoist(body, scope)
	return scope
}
