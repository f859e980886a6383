package builtins

import (
	"github.com/example/jsviz/runtime"
)

func (in *installer) createBooleanConstructor(objProto *runtime.Object) *runtime.Object {
	proto := in.heap.Alloc(runtime.ClassBoolean, objProto.ID)
	f := runtime.False
	proto.Primitive = &f
	in.heap.SetIntrinsic(runtime.IntrinsicBooleanPrototype, proto.ID)

	in.setMethod(proto, "Boolean.prototype", "toString", 0, booleanToString)
	in.setMethod(proto, "Boolean.prototype", "valueOf", 0, booleanValueOf)

	return in.newConstructor("Boolean", 1, booleanConstructorCall, proto)
}

func getBoolValue(c *runtime.NativeCall) (bool, error) {
	if c.This.Type == runtime.TypeBoolean {
		return c.This.Bool, nil
	}
	if obj := c.Heap.Deref(c.This); obj != nil && obj.Class == runtime.ClassBoolean {
		return obj.Primitive.Bool, nil
	}
	return false, typeError("Boolean.prototype method requires that 'this' be a Boolean")
}

func booleanConstructorCall(c *runtime.NativeCall) (runtime.Value, error) {
	b := runtime.NewBool(c.Arg(0).ToBoolean())
	if c.Construct {
		return runtime.NewRef(c.Heap.Box(b).ID), nil
	}
	return b, nil
}

func booleanToString(c *runtime.NativeCall) (runtime.Value, error) {
	b, err := getBoolValue(c)
	if err != nil {
		return runtime.Undefined, err
	}
	if b {
		return runtime.NewString("true"), nil
	}
	return runtime.NewString("false"), nil
}

func booleanValueOf(c *runtime.NativeCall) (runtime.Value, error) {
	b, err := getBoolValue(c)
	if err != nil {
		return runtime.Undefined, err
	}
	return runtime.NewBool(b), nil
}
