package builtins

import (
	"math"

	"github.com/example/jsviz/runtime"
)

// installer allocates the builtin objects on a heap and records the Go
// code behind every native function it creates.
type installer struct {
	heap    *runtime.Heap
	natives runtime.Natives
}

func (in *installer) newFuncObject(path string, name string, length int, fn runtime.NativeFunc) *runtime.Object {
	native := name
	if path != "" {
		native = path + "." + name
	}
	in.natives[native] = fn
	return in.heap.NewFunction(&runtime.Function{Name: name, Native: native, Length: length})
}

func (in *installer) setMethod(obj *runtime.Object, path, name string, length int, fn runtime.NativeFunc) {
	obj.PutHidden(name, runtime.NewRef(in.newFuncObject(path, name, length, fn).ID))
}

func setConstant(obj *runtime.Object, name string, val runtime.Value) {
	obj.PutHidden(name, val)
}

// newConstructor creates a native constructor and links it with proto.
func (in *installer) newConstructor(name string, length int, fn runtime.NativeFunc, proto *runtime.Object) *runtime.Object {
	ctor := in.newFuncObject("", name, length, fn)
	ctor.PutHidden("prototype", runtime.NewRef(proto.ID))
	proto.PutHidden("constructor", runtime.NewRef(ctor.ID))
	return ctor
}

func typeError(format string, args ...any) error {
	return runtime.Throwf("TypeError", format, args...)
}

func rangeError(format string, args ...any) error {
	return runtime.Throwf("RangeError", format, args...)
}

func toInteger(c *runtime.NativeCall, i int) float64 {
	return runtime.ToInteger(c.Heap.ToNumber(c.Arg(i)))
}

// relativeIndex resolves a possibly negative index against length, the
// way slice and splice do.
func relativeIndex(rel float64, length int) int {
	if rel < 0 {
		return int(math.Max(float64(length)+rel, 0))
	}
	return int(math.Min(rel, float64(length)))
}

// thisObject returns the receiver as an object, or a TypeError naming
// the method.
func thisObject(c *runtime.NativeCall, method string) (*runtime.Object, error) {
	obj := c.Heap.Deref(c.This)
	if obj == nil {
		return nil, typeError("%s called on non-object", method)
	}
	return obj, nil
}

func isCallable(h *runtime.Heap, v runtime.Value) bool {
	return h.Deref(v).IsCallable()
}
