package builtins

import (
	"github.com/example/jsviz/runtime"
)

func (in *installer) createFunctionConstructor(proto *runtime.Object) *runtime.Object {
	const path = "Function.prototype"
	in.setMethod(proto, path, "call", 1, functionCall)
	in.setMethod(proto, path, "apply", 2, functionApply)
	in.setMethod(proto, path, "toString", 0, functionToString)

	return in.newConstructor("Function", 1, functionConstructorCall, proto)
}

func functionConstructorCall(c *runtime.NativeCall) (runtime.Value, error) {
	return runtime.Undefined, runtime.Throwf("EvalError", "Function constructor is not supported")
}

func functionCall(c *runtime.NativeCall) (runtime.Value, error) {
	if !isCallable(c.Heap, c.This) {
		return runtime.Undefined, typeError("Function.prototype.call called on non-function")
	}
	var args []runtime.Value
	if len(c.Args) > 1 {
		args = append(args, c.Args[1:]...)
	}
	c.Tail = &runtime.TailCall{Func: c.This, This: c.Arg(0), Args: args}
	return runtime.Undefined, nil
}

func functionApply(c *runtime.NativeCall) (runtime.Value, error) {
	if !isCallable(c.Heap, c.This) {
		return runtime.Undefined, typeError("Function.prototype.apply called on non-function")
	}
	var args []runtime.Value
	switch list := c.Arg(1); {
	case list.IsNullish():
	case list.IsObject():
		obj := c.Heap.Deref(list)
		n := int(runtime.ToUint32(c.Heap.ToNumber(c.Heap.GetFrom(obj, "length"))))
		for i := 0; i < n; i++ {
			args = append(args, c.Heap.GetFrom(obj, runtime.Index(i)))
		}
	default:
		return runtime.Undefined, typeError("CreateListFromArrayLike called on non-object")
	}
	c.Tail = &runtime.TailCall{Func: c.This, This: c.Arg(0), Args: args}
	return runtime.Undefined, nil
}

func functionToString(c *runtime.NativeCall) (runtime.Value, error) {
	fn := c.Heap.Deref(c.This)
	if !fn.IsCallable() {
		return runtime.Undefined, typeError("Function.prototype.toString requires that 'this' be a Function")
	}
	return runtime.NewString(c.Heap.ToString(c.This)), nil
}
