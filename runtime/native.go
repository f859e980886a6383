package runtime

import "github.com/example/jsviz/ast"

// NativeCall carries the receiver and arguments of a call into Go code.
type NativeCall struct {
	Heap      *Heap
	This      Value
	Args      []Value
	Construct bool

	// Site is the call or new expression being evaluated, if any.
	Site ast.Node

	// StackTrace describes the interpreted call stack at the call site.
	StackTrace func() string

	// Tail, when set by the native, asks the evaluator to call Func with
	// the given receiver and arguments and use its result instead.
	Tail *TailCall
}

// TailCall is a call the evaluator performs on behalf of a native.
type TailCall struct {
	Func Value
	This Value
	Args []Value
}

// Arg returns the i-th argument, or undefined.
func (c *NativeCall) Arg(i int) Value {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return Undefined
}

// NativeFunc implements a function in Go. A returned *Throw raises an
// exception in interpreted code; any other error is a host fault.
type NativeFunc func(c *NativeCall) (Value, error)

// Natives maps the names stored in Function.Native to their Go code, so
// function objects can be restored from serialized heaps.
type Natives map[string]NativeFunc

// Merge returns a new registry holding the entries of n and other.
// Entries of other win.
func (n Natives) Merge(other Natives) Natives {
	out := make(Natives, len(n)+len(other))
	for k, v := range n {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
