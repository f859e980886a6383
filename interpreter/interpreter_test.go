package interpreter

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/example/jsviz/ast"
	"github.com/example/jsviz/parser"
	"github.com/example/jsviz/runtime"
)

func newInterp(t *testing.T, source string, opts ...Option) *Interpreter {
	t.Helper()
	prog, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("parse error for %q: %v", source, err)
	}
	interp, err := New(prog, opts...)
	if err != nil {
		t.Fatalf("New error for %q: %v", source, err)
	}
	return interp
}

// evalResult runs source to completion and returns the global "result".
func evalResult(t *testing.T, source string) runtime.Value {
	t.Helper()
	interp := newInterp(t, source)
	if res := interp.Run(); res.Outcome != Ended {
		t.Fatalf("expected %q to end normally, got %s (%v, err=%v)", source, res.Outcome, interp.heap.ToString(res.Value), res.Err)
	}
	v, ok := interp.heap.Lookup(interp.GlobalScope(), "result")
	if !ok {
		t.Fatalf("no global result after %q", source)
	}
	return v
}

func evalException(t *testing.T, source string) (*Interpreter, runtime.Value) {
	t.Helper()
	interp := newInterp(t, source)
	res := interp.Run()
	if res.Outcome != Exception {
		t.Fatalf("expected exception for %q, got %s", source, res.Outcome)
	}
	return interp, res.Value
}

func expectNumber(t *testing.T, source string, expected float64) {
	t.Helper()
	val := evalResult(t, source)
	if val.Type != runtime.TypeNumber {
		t.Fatalf("expected number for %q, got type=%v", source, val.Type)
	}
	if math.IsNaN(expected) {
		if !math.IsNaN(val.Number) {
			t.Fatalf("expected NaN for %q, got %v", source, val.Number)
		}
		return
	}
	if val.Number != expected {
		t.Fatalf("expected %v for %q, got %v", expected, source, val.Number)
	}
}

func expectString(t *testing.T, source string, expected string) {
	t.Helper()
	val := evalResult(t, source)
	if val.Type != runtime.TypeString {
		t.Fatalf("expected string for %q, got type=%v", source, val.Type)
	}
	if val.Str != expected {
		t.Fatalf("expected %q for %q, got %q", expected, source, val.Str)
	}
}

func expectBool(t *testing.T, source string, expected bool) {
	t.Helper()
	val := evalResult(t, source)
	if val.Type != runtime.TypeBoolean {
		t.Fatalf("expected boolean for %q, got type=%v", source, val.Type)
	}
	if val.Bool != expected {
		t.Fatalf("expected %v for %q, got %v", expected, source, val.Bool)
	}
}

func TestArithmetic(t *testing.T) {
	expectNumber(t, "var result = 1 + 2 * 3;", 7)
	expectNumber(t, "var result = (1 + 2) * 3;", 9)
	expectNumber(t, "var result = 7 % 3;", 1)
	expectNumber(t, "var result = -7 % 3;", -1)
	expectNumber(t, "var result = 1 / 0;", math.Inf(1))
	expectNumber(t, "var result = 'a' * 2;", math.NaN())
	expectNumber(t, "var result = 5 & 3 | 8;", 9)
	expectNumber(t, "var result = -16 >> 2;", -4)
	expectNumber(t, "var result = -1 >>> 28;", 15)
	expectNumber(t, "var result = ~5;", -6)
}

func TestStringConcatenation(t *testing.T) {
	expectString(t, "var result = 'a' + 1 + 2;", "a12")
	expectString(t, "var result = 1 + 2 + 'a';", "3a")
	expectString(t, "var result = [1, 2] + '';", "1,2")
	expectString(t, "var result = 'x' + {};", "x[object Object]")
}

func TestComparison(t *testing.T) {
	expectBool(t, "var result = 1 < 2;", true)
	expectBool(t, "var result = 'b' > 'a';", true)
	expectBool(t, "var result = '10' < '9';", true)
	expectBool(t, "var result = 10 < 9;", false)
	expectBool(t, "var result = NaN <= 1;", false)
	expectBool(t, "var result = null == undefined;", true)
	expectBool(t, "var result = null === undefined;", false)
	expectBool(t, "var result = '1' == 1;", true)
}

func TestTypeofUndeclared(t *testing.T) {
	expectString(t, "var result = typeof notDeclared;", "undefined")
	expectString(t, "var result = typeof function () {};", "function")
	expectString(t, "var result = typeof null;", "object")
}

func TestLogicalShortCircuit(t *testing.T) {
	expectNumber(t, "var n = 0; var result = (false && n++) || n;", 0)
	expectString(t, "var result = 0 || 'fallback';", "fallback")
	expectNumber(t, "var result = 1 && 2;", 2)
}

func TestUpdateAndCompoundAssignment(t *testing.T) {
	expectNumber(t, "var i = 1; var result = i++ + i;", 3)
	expectNumber(t, "var i = 1; var result = ++i + i;", 4)
	expectNumber(t, "var result = 10; result -= 3; result *= 2;", 14)
	expectString(t, "var result = 'a'; result += 'b';", "ab")
	expectNumber(t, "var o = { n: 1 }; o.n += 5; var result = o.n;", 6)
}

func TestFunctionsAndClosures(t *testing.T) {
	expectNumber(t, `
function factorial(n) {
  if (n <= 1) return 1;
  return n * factorial(n - 1);
}
var result = factorial(5);`, 120)

	expectNumber(t, `
function counter() {
  var count = 0;
  return function () { count++; return count; };
}
var c = counter();
c(); c();
var result = c();`, 3)

	expectNumber(t, `
var fib = function f(n) { return n < 2 ? n : f(n - 1) + f(n - 2); };
var result = fib(10);`, 55)

	expectNumber(t, "var result = hoisted(); function hoisted() { return 4; }", 4)
	expectNumber(t, "function f(a, b) { return arguments.length; } var result = f(1, 2, 3);", 3)
}

func TestMissingArgumentsAreUndefined(t *testing.T) {
	expectBool(t, "function f(a, b) { return b; } var result = f(1) === undefined;", true)
}

func TestLoops(t *testing.T) {
	expectNumber(t, "var result = 0; for (var i = 0; i < 5; i++) { result += i; }", 10)
	expectNumber(t, "var result = 0; var i = 0; while (i < 4) { result += 2; i++; }", 8)
	expectNumber(t, "var result = 0; do { result++; } while (result < 3);", 3)
	expectNumber(t, "var result = 0; do { result++; } while (false);", 1)
	expectNumber(t, "var result = 0; for (;;) { if (result > 2) break; result++; }", 3)
}

func TestBreakContinue(t *testing.T) {
	expectNumber(t, `
var result = 0;
for (var i = 0; i < 10; i++) {
  if (i % 2) continue;
  if (i > 6) break;
  result += i;
}`, 12)

	expectNumber(t, `
var result = 0;
outer: for (var i = 0; i < 3; i++) {
  for (var j = 0; j < 3; j++) {
    if (j == 1) continue outer;
    if (i == 2) break outer;
    result++;
  }
}`, 2)

	expectNumber(t, `
var result = 0;
var i = 0;
do {
  i++;
  if (i < 3) continue;
  result = i;
} while (i < 5);`, 5)
}

func TestForIn(t *testing.T) {
	expectString(t, `
var o = { a: 1, b: 2, c: 3 };
var result = '';
for (var k in o) { result += k; }`, "abc")

	expectString(t, `
var o = { a: 1, b: 2, c: 3 };
var result = '';
for (var k in o) { delete o.b; result += k; }`, "ac")

	expectString(t, `
function P() { this.own = 1; }
P.prototype.inherited = 2;
var result = '';
for (var k in new P()) { result += k + ','; }`, "own,inherited,")

	expectString(t, `
var seen = {};
var result = '';
for (seen.key in { x: 1 }) { result = seen.key; }`, "x")

	expectNumber(t, "var result = 0; for (var k in null) { result++; }", 0)
}

func TestSwitch(t *testing.T) {
	src := `
function classify(x) {
  var out = '';
  switch (x) {
    case 1:
      out += 'one';
    case 2:
      out += 'two';
      break;
    default:
      out += 'other';
    case 3:
      out += 'three';
  }
  return out;
}
var result = classify(1) + '|' + classify(2) + '|' + classify(3) + '|' + classify(9);`
	expectString(t, src, "onetwo|two|three|otherthree")
	expectString(t, "var result = 'none'; switch ('1') { case 1: result = 'loose'; }", "none")
}

func TestObjectsAndPrototypes(t *testing.T) {
	expectNumber(t, `
function Point(x, y) { this.x = x; this.y = y; }
Point.prototype.sum = function () { return this.x + this.y; };
var result = new Point(2, 3).sum();`, 5)

	expectBool(t, "function A() {} var result = new A() instanceof A;", true)
	expectBool(t, "var result = 'x' in { x: undefined };", true)
	expectNumber(t, "var o = { a: { b: [10, 20] } }; var result = o.a.b[1];", 20)
	expectNumber(t, "function F() { return { v: 7 }; } var result = new F().v;", 7)
	expectNumber(t, "var a = [1, 2, 3]; a.length = 1; var result = a.length;", 1)
}

func TestBuiltinMethods(t *testing.T) {
	expectString(t, "var result = [1, 2, 3].map(function (x) { return x * 2; }).join(',');", "2,4,6")
	expectString(t, "var result = [3, 1, 2].sort().join(',');", "1,2,3")
	expectString(t, "var result = [3, 1, 10].sort(function (a, b) { return b - a; }).join(',');", "10,3,1")
	expectNumber(t, "var result = [1, 2, 3, 4].reduce(function (a, b) { return a + b; }, 0);", 10)
	expectNumber(t, "var result = [1, 2, 3, 4].filter(function (x) { return x % 2; }).length;", 2)
	expectString(t, "var result = 'Hello'.toUpperCase() + 'abc'.charAt(1);", "HELLOb")
	expectNumber(t, "var result = Math.max(1, 5, 3) + parseInt('10px');", 15)
	expectString(t, "var result = Object.keys({ a: 1, b: 2 }).join();", "a,b")
	expectNumber(t, "function add(a, b) { return a + b; } var result = add.call(null, 2, 3) + add.apply(null, [4, 5]);", 14)
}

func TestThrowPrimitive(t *testing.T) {
	interp, v := evalException(t, `var x = 1; throw "boom";`)
	if v.Type != runtime.TypeString || v.Str != "boom" {
		t.Fatalf("expected thrown string boom, got %v", interp.heap.ToString(v))
	}
	top := interp.Top()
	if _, ok := interp.Node(top.Node).(*ast.ThrowStatement); !ok || !top.Done {
		t.Fatalf("expected finished throw statement on top, got %s", interp.Node(top.Node).Kind())
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"notDefined + 1;", "ReferenceError: notDefined is not defined"},
		{"var x = 1; x();", "TypeError: x is not a function"},
		{"var o = {}; o.missing();", "TypeError: o.missing is not a function"},
		{"var u; u.prop;", "TypeError: Cannot read property 'prop' of undefined"},
		{"undeclared = 1;", "ReferenceError: undeclared is not defined"},
		{"throw new RangeError('too far');", "RangeError: too far"},
	}
	for _, tt := range tests {
		interp, v := evalException(t, tt.source)
		obj := interp.heap.Deref(v)
		if obj == nil || obj.Class != runtime.ClassError {
			t.Errorf("%q: expected an error object, got %v", tt.source, interp.heap.ToString(v))
			continue
		}
		if got := interp.heap.ErrorString(obj); got != tt.want {
			t.Errorf("%q: got %q, want %q", tt.source, got, tt.want)
		}
	}
}

func TestErrorStackTrace(t *testing.T) {
	interp, v := evalException(t, "function inner() {\n  missing();\n}\ninner();")
	stack, _ := interp.heap.Get(v, "stack")
	if !strings.Contains(stack.Str, "at inner (2:2)") || !strings.Contains(stack.Str, "at <global> (4:0)") {
		t.Fatalf("unexpected stack trace:\n%s", stack.Str)
	}
}

func TestMaxDepthIsAFault(t *testing.T) {
	prog, err := parser.Parse("function f() { return f(); } f();")
	if err != nil {
		t.Fatal(err)
	}
	interp, err := New(prog, WithMaxDepth(200))
	if err != nil {
		t.Fatal(err)
	}
	res := interp.Run()
	if res.Outcome != Fault {
		t.Fatalf("expected fault, got %s", res.Outcome)
	}
	if !errors.Is(res.Err, ErrStackOverflow) || !errors.Is(res.Err, ErrFault) {
		t.Fatalf("unexpected error %v", res.Err)
	}
}

func TestUnsupportedAtRuntime(t *testing.T) {
	interp, v := evalException(t, "var r = /x/;")
	if got := interp.heap.ToString(v); !strings.HasPrefix(got, "SyntaxError") {
		t.Fatalf("expected SyntaxError, got %q", got)
	}
}

func TestHostFunctions(t *testing.T) {
	var got []float64
	record := func(c *runtime.NativeCall) (runtime.Value, error) {
		got = append(got, c.Heap.ToNumber(c.Arg(0)))
		if c.Site == nil {
			t.Errorf("host function called without a call site")
		}
		return runtime.Undefined, nil
	}
	interp := newInterp(t, "for (var i = 0; i < 3; i++) record(i * i);", WithNative("record", record))
	if res := interp.Run(); res.Outcome != Ended {
		t.Fatalf("unexpected outcome %s", res.Outcome)
	}
	if len(got) != 3 || got[2] != 4 {
		t.Fatalf("unexpected host calls %v", got)
	}
}

func TestHostFunctionsInstallInNameOrder(t *testing.T) {
	nop := func(c *runtime.NativeCall) (runtime.Value, error) { return runtime.Undefined, nil }
	names := []string{"gamma", "alpha", "delta", "beta"}
	var opts, reversed []Option
	for i := range names {
		opts = append(opts, WithNative(names[i], nop))
		reversed = append(reversed, WithNative(names[len(names)-1-i], nop))
	}
	a := newInterp(t, "1;", opts...)
	b := newInterp(t, "1;", reversed...)

	var prev runtime.ObjectID
	for _, name := range []string{"alpha", "beta", "delta", "gamma"} {
		v, ok := a.heap.Lookup(a.GlobalScope(), name)
		if !ok || !v.IsObject() {
			t.Fatalf("host function %s not installed", name)
		}
		if v.Ref <= prev {
			t.Fatalf("host function %s allocated out of name order", name)
		}
		prev = v.Ref
	}

	sa, err := a.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	sb, err := b.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	if sa != sb {
		t.Fatalf("option order changed the evaluator state")
	}
}

func TestNewLeavesOnlyProgramState(t *testing.T) {
	interp := newInterp(t, "var a = 1;")
	stack := interp.StateStack()
	if len(stack) != 1 {
		t.Fatalf("expected one state, got %d", len(stack))
	}
	if interp.Node(stack[0].Node) != interp.Program() {
		t.Fatalf("bottom state is not the user program")
	}
	for _, n := range []string{"forEach", "map", "sort"} {
		proto := interp.heap.Object(interp.heap.Intrinsic(runtime.IntrinsicArrayPrototype))
		if !proto.IsHidden(n) {
			t.Errorf("polyfill %s should be hidden", n)
		}
	}
}

func TestProgramEndIsSticky(t *testing.T) {
	interp := newInterp(t, "1;")
	interp.Run()
	for i := 0; i < 3; i++ {
		if res := interp.Step(); res.Outcome != Ended {
			t.Fatalf("step after end: got %s", res.Outcome)
		}
	}
}

func TestSerializeRestoreRoundTrip(t *testing.T) {
	source := `
var list = [];
function push(v) { list.push({ value: v, next: null }); return list.length; }
for (var i = 0; i < 4; i++) { push(i * 1.5); }
var result = list.length + ':' + list[3].value;`
	prog, err := parser.Parse(source)
	if err != nil {
		t.Fatal(err)
	}
	a, err := New(prog)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 40; i++ {
		a.Step()
	}
	data, err := a.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	b, err := Restore(prog, data)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	again, err := b.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	if data != again {
		t.Fatalf("restored evaluator serializes differently")
	}

	ra, rb := a.Run(), b.Run()
	if ra.Outcome != Ended || rb.Outcome != Ended {
		t.Fatalf("expected both to end, got %s and %s", ra.Outcome, rb.Outcome)
	}
	va, _ := a.heap.Lookup(a.GlobalScope(), "result")
	vb, _ := b.heap.Lookup(b.GlobalScope(), "result")
	if va.Str != "4:4.5" || vb.Str != va.Str {
		t.Fatalf("results differ: %q vs %q", va.Str, vb.Str)
	}
}

func TestRestoreRejectsGarbage(t *testing.T) {
	prog, err := parser.Parse("1;")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Restore(prog, "{not json"); err == nil {
		t.Fatal("expected error")
	}
}
