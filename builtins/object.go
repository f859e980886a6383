package builtins

import (
	"math"

	"github.com/example/jsviz/runtime"
)

func (in *installer) createObjectConstructor(proto *runtime.Object) *runtime.Object {
	const path = "Object.prototype"
	in.setMethod(proto, path, "hasOwnProperty", 1, objectProtoHasOwnProperty)
	in.setMethod(proto, path, "toString", 0, objectProtoToString)
	in.setMethod(proto, path, "valueOf", 0, objectProtoValueOf)
	in.setMethod(proto, path, "isPrototypeOf", 1, objectProtoIsPrototypeOf)
	in.setMethod(proto, path, "propertyIsEnumerable", 1, objectProtoPropertyIsEnumerable)

	ctor := in.newConstructor("Object", 1, objectConstructorCall, proto)
	in.setMethod(ctor, "Object", "keys", 1, objectKeys)
	in.setMethod(ctor, "Object", "create", 2, objectCreate)
	in.setMethod(ctor, "Object", "getPrototypeOf", 1, objectGetPrototypeOf)
	in.setMethod(ctor, "Object", "getOwnPropertyNames", 1, objectGetOwnPropertyNames)
	in.setMethod(ctor, "Object", "is", 2, objectIs)
	return ctor
}

func objectConstructorCall(c *runtime.NativeCall) (runtime.Value, error) {
	v := c.Arg(0)
	switch {
	case v.IsNullish():
		return runtime.NewRef(c.Heap.NewPlainObject().ID), nil
	case v.IsObject():
		return v, nil
	}
	return runtime.NewRef(c.Heap.Box(v).ID), nil
}

// toObject converts a value for the Object.* functions, boxing
// primitives and rejecting null and undefined.
func toObject(c *runtime.NativeCall, v runtime.Value, method string) (*runtime.Object, error) {
	if v.IsNullish() {
		return nil, typeError("%s called on null or undefined", method)
	}
	if obj := c.Heap.Deref(v); obj != nil {
		return obj, nil
	}
	return c.Heap.Box(v), nil
}

func objectProtoHasOwnProperty(c *runtime.NativeCall) (runtime.Value, error) {
	obj, err := toObject(c, c.This, "Object.prototype.hasOwnProperty")
	if err != nil {
		return runtime.Undefined, err
	}
	key := c.Heap.PropertyKey(c.Arg(0))
	for _, k := range ownKeys(obj) {
		if k == key {
			return runtime.True, nil
		}
	}
	return runtime.False, nil
}

func objectProtoToString(c *runtime.NativeCall) (runtime.Value, error) {
	switch c.This.Type {
	case runtime.TypeUndefined:
		return runtime.NewString("[object Undefined]"), nil
	case runtime.TypeNull:
		return runtime.NewString("[object Null]"), nil
	}
	obj, _ := toObject(c, c.This, "")
	return runtime.NewString("[object " + obj.Class.String() + "]"), nil
}

func objectProtoValueOf(c *runtime.NativeCall) (runtime.Value, error) {
	obj, err := toObject(c, c.This, "Object.prototype.valueOf")
	if err != nil {
		return runtime.Undefined, err
	}
	return runtime.NewRef(obj.ID), nil
}

func objectProtoIsPrototypeOf(c *runtime.NativeCall) (runtime.Value, error) {
	v := c.Heap.Deref(c.Arg(0))
	if v == nil || !c.This.IsObject() {
		return runtime.False, nil
	}
	for p := c.Heap.Object(v.Proto); p != nil; p = c.Heap.Object(p.Proto) {
		if p.ID == c.This.Ref {
			return runtime.True, nil
		}
	}
	return runtime.False, nil
}

func objectProtoPropertyIsEnumerable(c *runtime.NativeCall) (runtime.Value, error) {
	obj, err := toObject(c, c.This, "Object.prototype.propertyIsEnumerable")
	if err != nil {
		return runtime.Undefined, err
	}
	key := c.Heap.PropertyKey(c.Arg(0))
	for _, k := range obj.EnumerableKeys() {
		if k == key {
			return runtime.True, nil
		}
	}
	return runtime.False, nil
}

func objectKeys(c *runtime.NativeCall) (runtime.Value, error) {
	obj, err := toObject(c, c.Arg(0), "Object.keys")
	if err != nil {
		return runtime.Undefined, err
	}
	return createStringArray(c.Heap, obj.EnumerableKeys()), nil
}

func objectGetOwnPropertyNames(c *runtime.NativeCall) (runtime.Value, error) {
	obj, err := toObject(c, c.Arg(0), "Object.getOwnPropertyNames")
	if err != nil {
		return runtime.Undefined, err
	}
	return createStringArray(c.Heap, ownKeys(obj)), nil
}

func objectCreate(c *runtime.NativeCall) (runtime.Value, error) {
	proto := c.Arg(0)
	if !proto.IsObject() && proto.Type != runtime.TypeNull {
		return runtime.Undefined, typeError("Object prototype may only be an Object or null")
	}
	if c.Arg(1).Type != runtime.TypeUndefined {
		return runtime.Undefined, typeError("Object.create with property descriptors is not supported")
	}
	obj := c.Heap.Alloc(runtime.ClassObject, proto.Ref)
	return runtime.NewRef(obj.ID), nil
}

func objectGetPrototypeOf(c *runtime.NativeCall) (runtime.Value, error) {
	obj, err := toObject(c, c.Arg(0), "Object.getPrototypeOf")
	if err != nil {
		return runtime.Undefined, err
	}
	if obj.Proto == 0 {
		return runtime.Null, nil
	}
	return runtime.NewRef(obj.Proto), nil
}

func objectIs(c *runtime.NativeCall) (runtime.Value, error) {
	return runtime.NewBool(sameValue(c.Arg(0), c.Arg(1))), nil
}

func sameValue(a, b runtime.Value) bool {
	if a.Type == runtime.TypeNumber && b.Type == runtime.TypeNumber {
		if math.IsNaN(a.Number) && math.IsNaN(b.Number) {
			return true
		}
		if a.Number == 0 && b.Number == 0 {
			return math.Signbit(a.Number) == math.Signbit(b.Number)
		}
	}
	return runtime.StrictEquals(a, b)
}

// ownKeys returns every own key, hidden ones included.
func ownKeys(obj *runtime.Object) []string {
	keys := obj.EnumerableKeys()
	if obj.Class == runtime.ClassArray || obj.Class == runtime.ClassString {
		keys = append(keys, "length")
	}
	for _, k := range obj.Keys {
		if obj.IsHidden(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func createStringArray(h *runtime.Heap, strs []string) runtime.Value {
	vals := make([]runtime.Value, len(strs))
	for i, s := range strs {
		vals[i] = runtime.NewString(s)
	}
	return runtime.NewRef(h.NewArray(vals).ID)
}
