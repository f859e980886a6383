package builtins

import (
	"math"
	"testing"

	"github.com/example/jsviz/runtime"
)

func setup(t *testing.T) (*runtime.Heap, runtime.Natives) {
	t.Helper()
	h := runtime.NewHeap()
	_, natives := Install(h)
	return h, natives
}

func call(t *testing.T, natives runtime.Natives, h *runtime.Heap, name string, this runtime.Value, args ...runtime.Value) runtime.Value {
	t.Helper()
	fn, ok := natives[name]
	if !ok {
		t.Fatalf("native %q not registered", name)
	}
	v, err := fn(&runtime.NativeCall{Heap: h, This: this, Args: args})
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", name, err)
	}
	return v
}

func makeTestArray(h *runtime.Heap, vals ...float64) runtime.Value {
	data := make([]runtime.Value, len(vals))
	for i, v := range vals {
		data[i] = runtime.NewNumber(v)
	}
	return runtime.NewRef(h.NewArray(data).ID)
}

func num(n float64) runtime.Value { return runtime.NewNumber(n) }
func str(s string) runtime.Value { return runtime.NewString(s) }

func TestInstallIntrinsics(t *testing.T) {
	h, _ := setup(t)
	for _, name := range []string{
		runtime.IntrinsicGlobal,
		runtime.IntrinsicObjectPrototype,
		runtime.IntrinsicFunctionPrototype,
		runtime.IntrinsicArrayPrototype,
		runtime.IntrinsicStringPrototype,
		runtime.IntrinsicNumberPrototype,
		runtime.IntrinsicBooleanPrototype,
		runtime.IntrinsicErrorPrototype,
		runtime.ErrorPrototypeOf("TypeError"),
	} {
		if h.Intrinsic(name) == 0 {
			t.Errorf("intrinsic %s not set", name)
		}
	}
	global := h.Object(h.Intrinsic(runtime.IntrinsicGlobal))
	if keys := global.VisibleKeys(); len(keys) != 0 {
		t.Errorf("global object should expose no enumerable keys, got %v", keys)
	}
}

func TestNativesMatchInstall(t *testing.T) {
	_, installed := setup(t)
	standalone := Natives()
	if len(installed) != len(standalone) {
		t.Fatalf("Natives() has %d entries, Install recorded %d", len(standalone), len(installed))
	}
	for name := range installed {
		if _, ok := standalone[name]; !ok {
			t.Errorf("native %q missing from Natives()", name)
		}
	}
}

func TestArrayPushPop(t *testing.T) {
	h, n := setup(t)
	arr := makeTestArray(h, 1, 2, 3)

	length := call(t, n, h, "Array.prototype.push", arr, num(4))
	if length.Number != 4 {
		t.Errorf("push: expected length 4, got %v", length.Number)
	}
	popped := call(t, n, h, "Array.prototype.pop", arr)
	if popped.Number != 4 {
		t.Errorf("pop: expected 4, got %v", popped.Number)
	}
}

func TestArraySpliceSlice(t *testing.T) {
	h, n := setup(t)
	arr := makeTestArray(h, 1, 2, 3, 4, 5)

	removed := call(t, n, h, "Array.prototype.splice", arr, num(1), num(2), num(9))
	if got := h.ToString(removed); got != "2,3" {
		t.Errorf("splice removed: got %q, want %q", got, "2,3")
	}
	if got := h.ToString(arr); got != "1,9,4,5" {
		t.Errorf("splice result: got %q, want %q", got, "1,9,4,5")
	}
	sliced := call(t, n, h, "Array.prototype.slice", arr, num(-2))
	if got := h.ToString(sliced); got != "4,5" {
		t.Errorf("slice: got %q, want %q", got, "4,5")
	}
}

func TestArrayJoinIndexOf(t *testing.T) {
	h, n := setup(t)
	arr := makeTestArray(h, 1, 2, 3)
	if got := call(t, n, h, "Array.prototype.join", arr, str("-")); got.Str != "1-2-3" {
		t.Errorf("join: got %q", got.Str)
	}
	if got := call(t, n, h, "Array.prototype.indexOf", arr, num(3)); got.Number != 2 {
		t.Errorf("indexOf: got %v", got.Number)
	}
	if got := call(t, n, h, "Array.prototype.indexOf", arr, num(7)); got.Number != -1 {
		t.Errorf("indexOf missing: got %v", got.Number)
	}
}

func TestStringMethods(t *testing.T) {
	h, n := setup(t)
	tests := []struct {
		method string
		this   string
		args   []runtime.Value
		want   string
	}{
		{"charAt", "hello", []runtime.Value{num(1)}, "e"},
		{"slice", "hello", []runtime.Value{num(1), num(-1)}, "ell"},
		{"substring", "hello", []runtime.Value{num(3), num(1)}, "el"},
		{"toUpperCase", "hello", nil, "HELLO"},
		{"trim", "  hi  ", nil, "hi"},
		{"replace", "a-b-c", []runtime.Value{str("-"), str("+")}, "a+b-c"},
	}
	for _, tt := range tests {
		got := call(t, n, h, "String.prototype."+tt.method, str(tt.this), tt.args...)
		if got.Str != tt.want {
			t.Errorf("%q.%s: got %q, want %q", tt.this, tt.method, got.Str, tt.want)
		}
	}
	parts := call(t, n, h, "String.prototype.split", str("a,b,c"), str(","))
	if arr := h.Deref(parts); arr == nil || len(arr.Elems) != 3 {
		t.Errorf("split: expected 3 parts")
	}
}

func TestNumberToString(t *testing.T) {
	h, n := setup(t)
	if got := call(t, n, h, "Number.prototype.toString", num(255), num(16)); got.Str != "ff" {
		t.Errorf("toString(16): got %q", got.Str)
	}
	if got := call(t, n, h, "Number.prototype.toFixed", num(3.14159), num(2)); got.Str != "3.14" {
		t.Errorf("toFixed: got %q", got.Str)
	}
	_, err := n["Number.prototype.toString"](&runtime.NativeCall{Heap: h, This: num(1), Args: []runtime.Value{num(1)}})
	if thr, ok := err.(*runtime.Throw); !ok || thr.Type != "RangeError" {
		t.Errorf("toString(1): expected RangeError, got %v", err)
	}
}

func TestGlobalParse(t *testing.T) {
	h, n := setup(t)
	tests := []struct {
		fn   string
		in   string
		want float64
	}{
		{"parseInt", "42px", 42},
		{"parseInt", "0x1F", 31},
		{"parseInt", "-7", -7},
		{"parseFloat", "3.5e2abc", 350},
		{"parseFloat", ".5", 0.5},
	}
	for _, tt := range tests {
		got := call(t, n, h, tt.fn, runtime.Undefined, str(tt.in))
		if got.Number != tt.want {
			t.Errorf("%s(%q): got %v, want %v", tt.fn, tt.in, got.Number, tt.want)
		}
	}
	if got := call(t, n, h, "parseInt", runtime.Undefined, str("zz")); !math.IsNaN(got.Number) {
		t.Errorf("parseInt(zz): expected NaN, got %v", got.Number)
	}
}

func TestMathRound(t *testing.T) {
	h, n := setup(t)
	for in, want := range map[float64]float64{2.5: 3, -2.5: -2, 0.4: 0} {
		if got := call(t, n, h, "Math.round", runtime.Undefined, num(in)); got.Number != want {
			t.Errorf("Math.round(%v): got %v, want %v", in, got.Number, want)
		}
	}
	if got := call(t, n, h, "Math.max", runtime.Undefined, num(1), num(5), num(3)); got.Number != 5 {
		t.Errorf("Math.max: got %v", got.Number)
	}
}

func TestErrorConstructor(t *testing.T) {
	h, n := setup(t)
	v := call(t, n, h, "TypeError", runtime.Undefined, str("bad"))
	obj := h.Deref(v)
	if obj == nil || obj.Class != runtime.ClassError {
		t.Fatalf("expected an error object")
	}
	if got := h.ErrorString(obj); got != "TypeError: bad" {
		t.Errorf("error string: got %q", got)
	}
	if got := call(t, n, h, "Error.prototype.toString", v); got.Str != "TypeError: bad" {
		t.Errorf("toString: got %q", got.Str)
	}
}

func TestFunctionCallRequestsTailCall(t *testing.T) {
	h, n := setup(t)
	fn := h.Object(h.Intrinsic(runtime.IntrinsicGlobal)).Props["isNaN"]
	c := &runtime.NativeCall{Heap: h, This: fn, Args: []runtime.Value{str("x"), num(1)}}
	if _, err := n["Function.prototype.call"](c); err != nil {
		t.Fatalf("call: %v", err)
	}
	if c.Tail == nil || c.Tail.This.Str != "x" || len(c.Tail.Args) != 1 {
		t.Errorf("unexpected tail call %+v", c.Tail)
	}
}

func TestObjectKeys(t *testing.T) {
	h, n := setup(t)
	obj := h.NewPlainObject()
	obj.Put("b", num(1))
	obj.Put("a", num(2))
	keys := call(t, n, h, "Object.keys", runtime.Undefined, runtime.NewRef(obj.ID))
	if got := h.ToString(keys); got != "b,a" {
		t.Errorf("Object.keys: got %q, want insertion order", got)
	}
}
