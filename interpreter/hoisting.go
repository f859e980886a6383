package interpreter

import (
	"github.com/example/jsviz/ast"
	"github.com/example/jsviz/runtime"
)

// hoist declares the var names of a program or function body as undefined
// in scope, then binds its function declarations. Existing bindings
// (parameters, host functions) keep their value unless a function
// declaration replaces them.
func (interp *Interpreter) hoist(body ast.Node, scope runtime.ObjectID) {
	bindings := interp.heap.Bindings(scope)
	for _, name := range ast.CollectLocals(body) {
		if _, ok := bindings.Own(name); !ok {
			bindings.Put(name, runtime.Undefined)
		}
	}
	// Declarations nested in blocks are hoisted to the enclosing function.
	for _, fd := range ast.FunctionDeclarations(body) {
		bindings.Put(fd.Name.Name, interp.createFunction(fd, scope))
	}
}

// createFunction allocates a closure over scope.
func (interp *Interpreter) createFunction(fn ast.Function, scope runtime.ObjectID) runtime.Value {
	name, params, _ := fn.Signature()
	f := &runtime.Function{
		Node:   fn.Location().ID,
		Scope:  scope,
		Length: len(params),
	}
	if name != nil {
		f.Name = name.Name
	}
	return runtime.NewRef(interp.heap.NewFunction(f).ID)
}

// functionExpression evaluates a function expression. A named expression
// gets an intermediate scope binding its own name.
func (interp *Interpreter) functionExpression(fn *ast.FunctionExpression, scope runtime.ObjectID) runtime.Value {
	if fn.Name == nil {
		return interp.createFunction(fn, scope)
	}
	own := interp.heap.NewScope(scope, true)
	v := interp.createFunction(fn, own.ID)
	interp.heap.Declare(own.ID, fn.Name.Name, v)
	return v
}
