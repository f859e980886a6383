package builtins

import (
	"strings"

	"github.com/example/jsviz/runtime"
)

func (in *installer) createArrayConstructor(objProto *runtime.Object) *runtime.Object {
	proto := in.heap.Alloc(runtime.ClassObject, objProto.ID)
	in.heap.SetIntrinsic(runtime.IntrinsicArrayPrototype, proto.ID)

	const path = "Array.prototype"
	in.setMethod(proto, path, "push", 1, arrayPush)
	in.setMethod(proto, path, "pop", 0, arrayPop)
	in.setMethod(proto, path, "shift", 0, arrayShift)
	in.setMethod(proto, path, "unshift", 1, arrayUnshift)
	in.setMethod(proto, path, "splice", 2, arraySplice)
	in.setMethod(proto, path, "slice", 2, arraySlice)
	in.setMethod(proto, path, "concat", 1, arrayConcat)
	in.setMethod(proto, path, "indexOf", 1, arrayIndexOf)
	in.setMethod(proto, path, "lastIndexOf", 1, arrayLastIndexOf)
	in.setMethod(proto, path, "reverse", 0, arrayReverse)
	in.setMethod(proto, path, "join", 1, arrayJoin)
	in.setMethod(proto, path, "toString", 0, arrayToString)

	ctor := in.newConstructor("Array", 1, arrayConstructorCall, proto)
	in.setMethod(ctor, "Array", "isArray", 1, arrayIsArray)
	return ctor
}

func arrayConstructorCall(c *runtime.NativeCall) (runtime.Value, error) {
	if len(c.Args) == 1 && c.Args[0].Type == runtime.TypeNumber {
		n := c.Args[0].Number
		if n < 0 || n != float64(runtime.ToUint32(n)) {
			return runtime.Undefined, rangeError("Invalid array length")
		}
		return runtime.NewRef(c.Heap.NewArray(make([]runtime.Value, int(n))).ID), nil
	}
	return runtime.NewRef(c.Heap.NewArray(c.Args).ID), nil
}

// thisArray returns the receiver when it stores its elements densely.
func thisArray(c *runtime.NativeCall, method string) (*runtime.Object, error) {
	obj := c.Heap.Deref(c.This)
	if obj == nil || (obj.Class != runtime.ClassArray && obj.Class != runtime.ClassArguments) {
		return nil, typeError("Array.prototype.%s called on non-array", method)
	}
	return obj, nil
}

func arrayPush(c *runtime.NativeCall) (runtime.Value, error) {
	arr, err := thisArray(c, "push")
	if err != nil {
		return runtime.Undefined, err
	}
	arr.Elems = append(arr.Elems, c.Args...)
	return runtime.NewNumber(float64(len(arr.Elems))), nil
}

func arrayPop(c *runtime.NativeCall) (runtime.Value, error) {
	arr, err := thisArray(c, "pop")
	if err != nil {
		return runtime.Undefined, err
	}
	if len(arr.Elems) == 0 {
		return runtime.Undefined, nil
	}
	last := arr.Elems[len(arr.Elems)-1]
	arr.Elems = arr.Elems[:len(arr.Elems)-1]
	return last, nil
}

func arrayShift(c *runtime.NativeCall) (runtime.Value, error) {
	arr, err := thisArray(c, "shift")
	if err != nil {
		return runtime.Undefined, err
	}
	if len(arr.Elems) == 0 {
		return runtime.Undefined, nil
	}
	first := arr.Elems[0]
	arr.Elems = append([]runtime.Value{}, arr.Elems[1:]...)
	return first, nil
}

func arrayUnshift(c *runtime.NativeCall) (runtime.Value, error) {
	arr, err := thisArray(c, "unshift")
	if err != nil {
		return runtime.Undefined, err
	}
	arr.Elems = append(append([]runtime.Value{}, c.Args...), arr.Elems...)
	return runtime.NewNumber(float64(len(arr.Elems))), nil
}

func arraySplice(c *runtime.NativeCall) (runtime.Value, error) {
	arr, err := thisArray(c, "splice")
	if err != nil {
		return runtime.Undefined, err
	}
	n := len(arr.Elems)
	start := relativeIndex(toInteger(c, 0), n)
	count := n - start
	if len(c.Args) == 0 {
		count = 0
	} else if len(c.Args) > 1 {
		count = int(min(max(toInteger(c, 1), 0), float64(n-start)))
	}
	removed := append([]runtime.Value{}, arr.Elems[start:start+count]...)
	var inserted []runtime.Value
	if len(c.Args) > 2 {
		inserted = c.Args[2:]
	}
	rest := append([]runtime.Value{}, arr.Elems[start+count:]...)
	arr.Elems = append(append(arr.Elems[:start], inserted...), rest...)
	return runtime.NewRef(c.Heap.NewArray(removed).ID), nil
}

func arraySlice(c *runtime.NativeCall) (runtime.Value, error) {
	arr, err := thisArray(c, "slice")
	if err != nil {
		return runtime.Undefined, err
	}
	n := len(arr.Elems)
	start := relativeIndex(toInteger(c, 0), n)
	end := n
	if !c.Arg(1).IsUndefined() {
		end = relativeIndex(toInteger(c, 1), n)
	}
	if end < start {
		end = start
	}
	return runtime.NewRef(c.Heap.NewArray(arr.Elems[start:end]).ID), nil
}

func arrayConcat(c *runtime.NativeCall) (runtime.Value, error) {
	arr, err := thisArray(c, "concat")
	if err != nil {
		return runtime.Undefined, err
	}
	out := append([]runtime.Value{}, arr.Elems...)
	for _, a := range c.Args {
		if other := c.Heap.Deref(a); other != nil && other.Class == runtime.ClassArray {
			out = append(out, other.Elems...)
			continue
		}
		out = append(out, a)
	}
	return runtime.NewRef(c.Heap.NewArray(out).ID), nil
}

func arrayIndexOf(c *runtime.NativeCall) (runtime.Value, error) {
	arr, err := thisArray(c, "indexOf")
	if err != nil {
		return runtime.Undefined, err
	}
	from := relativeIndex(toInteger(c, 1), len(arr.Elems))
	for i := from; i < len(arr.Elems); i++ {
		if runtime.StrictEquals(arr.Elems[i], c.Arg(0)) {
			return runtime.NewNumber(float64(i)), nil
		}
	}
	return runtime.NewNumber(-1), nil
}

func arrayLastIndexOf(c *runtime.NativeCall) (runtime.Value, error) {
	arr, err := thisArray(c, "lastIndexOf")
	if err != nil {
		return runtime.Undefined, err
	}
	from := len(arr.Elems) - 1
	if len(c.Args) > 1 {
		rel := toInteger(c, 1)
		if rel < 0 {
			from = len(arr.Elems) + int(rel)
		} else if int(rel) < from {
			from = int(rel)
		}
	}
	for i := from; i >= 0; i-- {
		if runtime.StrictEquals(arr.Elems[i], c.Arg(0)) {
			return runtime.NewNumber(float64(i)), nil
		}
	}
	return runtime.NewNumber(-1), nil
}

func arrayReverse(c *runtime.NativeCall) (runtime.Value, error) {
	arr, err := thisArray(c, "reverse")
	if err != nil {
		return runtime.Undefined, err
	}
	for i, j := 0, len(arr.Elems)-1; i < j; i, j = i+1, j-1 {
		arr.Elems[i], arr.Elems[j] = arr.Elems[j], arr.Elems[i]
	}
	return c.This, nil
}

func arrayJoin(c *runtime.NativeCall) (runtime.Value, error) {
	arr, err := thisArray(c, "join")
	if err != nil {
		return runtime.Undefined, err
	}
	sep := ","
	if !c.Arg(0).IsUndefined() {
		sep = c.Heap.ToString(c.Arg(0))
	}
	parts := make([]string, len(arr.Elems))
	for i, e := range arr.Elems {
		if !e.IsNullish() {
			parts[i] = c.Heap.ToString(e)
		}
	}
	return runtime.NewString(strings.Join(parts, sep)), nil
}

func arrayToString(c *runtime.NativeCall) (runtime.Value, error) {
	if _, err := thisArray(c, "toString"); err != nil {
		return objectProtoToString(c)
	}
	return runtime.NewString(c.Heap.ToString(c.This)), nil
}

func arrayIsArray(c *runtime.NativeCall) (runtime.Value, error) {
	obj := c.Heap.Deref(c.Arg(0))
	return runtime.NewBool(obj != nil && obj.Class == runtime.ClassArray), nil
}
