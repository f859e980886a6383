package builtins

import (
	"github.com/example/jsviz/runtime"
)

func (in *installer) createErrorPrototype(objProto *runtime.Object) *runtime.Object {
	proto := in.heap.Alloc(runtime.ClassObject, objProto.ID)
	in.heap.SetIntrinsic(runtime.IntrinsicErrorPrototype, proto.ID)
	in.heap.SetIntrinsic(runtime.ErrorPrototypeOf("Error"), proto.ID)

	proto.PutHidden("name", runtime.NewString("Error"))
	proto.PutHidden("message", runtime.NewString(""))
	in.setMethod(proto, "Error.prototype", "toString", 0, errorToString)
	return proto
}

func (in *installer) createErrorConstructor(name string, proto *runtime.Object) *runtime.Object {
	return in.newConstructor(name, 1, func(c *runtime.NativeCall) (runtime.Value, error) {
		return makeErrorValue(c, name), nil
	}, proto)
}

// makeErrorValue creates an error whether or not the constructor was
// called with new.
func makeErrorValue(c *runtime.NativeCall, name string) runtime.Value {
	msg := ""
	if m := c.Arg(0); !m.IsUndefined() {
		msg = c.Heap.ToString(m)
	}
	obj := c.Heap.NewError(name, msg)
	if c.StackTrace != nil {
		obj.PutHidden("stack", runtime.NewString(c.StackTrace()))
	}
	return runtime.NewRef(obj.ID)
}

func errorToString(c *runtime.NativeCall) (runtime.Value, error) {
	obj, err := thisObject(c, "Error.prototype.toString")
	if err != nil {
		return runtime.Undefined, err
	}
	return runtime.NewString(c.Heap.ErrorString(obj)), nil
}
