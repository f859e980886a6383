package visualizer

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/jsviz/trace"
)

// output mirrors the output host function without its formatting.
var output = HostFunction{
	Name: "output",
	Fn: func(log func(string), args ...any) (any, error) {
		if len(args) == 0 {
			log("undefined")
			return nil, nil
		}
		switch v := args[0].(type) {
		case float64:
			log(strconv.FormatFloat(v, 'f', -1, 64))
		case string:
			log(v)
		default:
			log("?")
		}
		return nil, nil
	},
}

func newSession(t *testing.T, source string) *Session {
	t.Helper()
	s, err := New(source, WithFunctions(output))
	require.NoError(t, err)
	return s
}

func collect(t *testing.T, s *Session) *trace.Step {
	t.Helper()
	step, err := s.CollectState()
	require.NoError(t, err)
	return step
}

func TestMacroScenario(t *testing.T) {
	s := newSession(t, "var x = 1; x = x + 1; output(x);")
	tr, err := s.RunToEnd(Macro)
	require.NoError(t, err)

	// three macro stops, then the end of the program
	require.Len(t, tr.Steps, 4)
	assert.Equal(t, []trace.Output{{Content: "2", Line: 1}}, tr.Steps[3].Stdout)
	for _, step := range tr.Steps {
		assert.Empty(t, step.Heap)
		assert.Equal(t, trace.EventStepLine, step.Event)
	}
	assert.Equal(t, "var x = 1;", s.Source()[tr.Steps[0].ColStart:tr.Steps[0].ColEnd])
	assert.Equal(t, "x = x + 1", s.Source()[tr.Steps[1].ColStart:tr.Steps[1].ColEnd])
	assert.Equal(t, "output(x)", s.Source()[tr.Steps[2].ColStart:tr.Steps[2].ColEnd])
	assert.Equal(t, FinishedOK, s.Status().Kind)
}

func TestFactorialReturnValue(t *testing.T) {
	s := newSession(t, "function f(n) { if (n <= 1) return 1; return n * f(n - 1); } output(f(3));")
	tr, err := s.RunToEnd(Micro)
	require.NoError(t, err)
	assert.Equal(t, FinishedOK, s.Status().Kind)

	last := tr.Steps[len(tr.Steps)-1]
	assert.Equal(t, []trace.Output{{Content: "6", Line: 1}}, last.Stdout)

	var found bool
	for _, step := range tr.Steps {
		if step.Event != trace.EventReturn {
			continue
		}
		frames := step.StackFrames
		require.NotEmpty(t, frames)
		top := frames[len(frames)-1]
		if top.Locals["n"] != trace.Number(1) {
			continue
		}
		found = true
		assert.Equal(t, "f", top.FunctionName)
		assert.Equal(t, "f", step.FunctionName)
		assert.Equal(t, []string{"this", "n"}, top.OrderedLocals)
		require.NotNil(t, top.ReturnValue)
		assert.Equal(t, trace.Number(1), *top.ReturnValue)
		assert.Len(t, frames, 4)
		assert.Equal(t, "<global>", frames[0].FunctionName)
		assert.True(t, strings.HasPrefix(top.FunctionCode, "function f(n)"))
		break
	}
	assert.True(t, found, "no step returns from f(1)")
}

func TestUncaughtThrow(t *testing.T) {
	s := newSession(t, `throw "boom";`)
	_, err := s.RunToEnd(Micro)
	require.NoError(t, err)

	status := s.Status()
	assert.Equal(t, FinishedException, status.Kind)
	assert.Equal(t, "boom", status.Exception)

	step := collect(t, s)
	assert.Equal(t, trace.EventException, step.Event)
	require.NotNil(t, step.ExceptionMessage)
	assert.Contains(t, *step.ExceptionMessage, "boom")
}

func TestRuntimeErrorMessage(t *testing.T) {
	s := newSession(t, "var o = null;\no.x = 1;")
	_, err := s.RunToEnd(Macro)
	require.NoError(t, err)

	step := collect(t, s)
	require.NotNil(t, step.ExceptionMessage)
	assert.True(t, strings.HasPrefix(*step.ExceptionMessage, "TypeError: "), *step.ExceptionMessage)
	assert.Contains(t, *step.ExceptionMessage, "\n    at <global> (2:")
}

func TestErrorToStringFallbacks(t *testing.T) {
	s := newSession(t, "throw { code: 1 };")
	_, err := s.RunToEnd(Macro)
	require.NoError(t, err)
	assert.Equal(t, "<Unknown Error>: <no message>\n<no stack>", s.Status().Exception)
}

func TestBackwardFromFirstStep(t *testing.T) {
	s := newSession(t, "var a = 1;")
	assert.True(t, s.IsFirstStep())
	assert.ErrorIs(t, s.StepBackward(Micro), ErrFirstStep)
	assert.ErrorIs(t, s.StepBackward(Macro), ErrFirstStep)
}

func TestForwardPastEnd(t *testing.T) {
	s := newSession(t, "var a = 1;")
	_, err := s.RunToEnd(Macro)
	require.NoError(t, err)
	assert.True(t, s.IsLastStep())
	assert.ErrorIs(t, s.StepForward(Micro), ErrLastStep)
}

func TestUndoIdentity(t *testing.T) {
	programs := []string{
		"var x = 1; x = x + 1; output(x);",
		"function f(n) { if (n <= 1) return 1; return n * f(n - 1); } output(f(3));",
		"var a = [1, 2, 3].map(function (x) { return x * 2; }); output(a.length);",
		"var o = { n: 0 }; for (var i = 0; i < 3; i++) { o.n += i; } throw new Error('done');",
	}
	for _, src := range programs {
		for _, mode := range []Mode{Micro, Macro} {
			s := newSession(t, src)
			initial := collect(t, s)

			n := 0
			for !s.IsLastStep() {
				require.NoError(t, s.StepForward(mode), src)
				n++
			}
			for i := 0; i < n; i++ {
				require.NoError(t, s.StepBackward(mode), src)
			}
			assert.True(t, s.IsFirstStep(), src)
			assert.Equal(t, Started, s.Status().Kind)
			if diff := cmp.Diff(initial, collect(t, s)); diff != "" {
				t.Errorf("%s (%s): state after undo differs (-initial +got):\n%s", src, mode, diff)
			}
		}
	}
}

func TestBackwardDropsOutput(t *testing.T) {
	s := newSession(t, "output(1);\noutput(2);")
	_, err := s.RunToEnd(Macro)
	require.NoError(t, err)
	assert.Equal(t, []trace.Output{{Content: "1", Line: 1}, {Content: "2", Line: 2}}, collect(t, s).Stdout)

	require.NoError(t, s.StepBackward(Macro))
	assert.False(t, s.IsLastStep())
	assert.Equal(t, []trace.Output{{Content: "1", Line: 1}}, collect(t, s).Stdout)

	require.NoError(t, s.StepForward(Macro))
	assert.Equal(t, []trace.Output{{Content: "1", Line: 1}, {Content: "2", Line: 2}}, collect(t, s).Stdout)
}

func TestCycleSafety(t *testing.T) {
	s := newSession(t, "var a = {};\na.self = a;")
	_, err := s.RunToEnd(Macro)
	require.NoError(t, err)

	step := collect(t, s)
	require.Len(t, step.Heap, 1)
	global := step.StackFrames[0]
	ptr := global.Locals["a"]
	require.Equal(t, trace.KindPointer, ptr.Kind)
	elem := step.Heap[ptr.Ref]
	assert.Equal(t, trace.HeapObject, elem.Kind)
	assert.Equal(t, []trace.Entry{{Key: "self", Value: trace.Pointer(ptr.Ref)}}, elem.Entries)
}

func TestHeapIdentityIsStable(t *testing.T) {
	s := newSession(t, "var a = {};\nvar b = [a];\na.n = 1;\nb = [b];")
	tr, err := s.RunToEnd(Micro)
	require.NoError(t, err)

	refs := map[string]string{}
	for _, step := range tr.Steps {
		locals := step.StackFrames[0].Locals
		for _, name := range []string{"a"} {
			v := locals[name]
			if v.Kind != trace.KindPointer {
				continue
			}
			if prev, ok := refs[name]; ok {
				assert.Equal(t, prev, v.Ref, "identity of %s changed", name)
			}
			refs[name] = v.Ref
		}
	}
	final := tr.Steps[len(tr.Steps)-1]
	b := final.StackFrames[0].Locals["b"]
	outer := final.Heap[b.Ref]
	require.Equal(t, trace.HeapArray, outer.Kind)
	inner := final.Heap[outer.Values[0].Ref]
	require.Equal(t, trace.HeapArray, inner.Kind)
	assert.Equal(t, trace.Pointer(refs["a"]), inner.Values[0])
	assert.NotEqual(t, b.Ref, refs["a"])
}

func TestMacroStepsAreMicroSteps(t *testing.T) {
	const src = "function sq(n) { return n * n; }\nvar s = 0;\nfor (var i = 0; i < 3; i++) { s += sq(i); }\noutput(s);"
	type position struct{ line, col, endLine, endCol, depth int }
	positions := func(mode Mode) []position {
		s := newSession(t, src)
		tr, err := s.RunToEnd(mode)
		require.NoError(t, err)
		var out []position
		for _, st := range tr.Steps {
			out = append(out, position{st.LineStart, st.ColStart, st.LineEnd, st.ColEnd, len(st.StackFrames)})
		}
		return out
	}
	micro, macro := positions(Micro), positions(Macro)
	require.Less(t, len(macro), len(micro))

	// macro positions appear in micro order
	j := 0
	for _, p := range micro {
		if j < len(macro) && p == macro[j] {
			j++
		}
	}
	assert.Equal(t, len(macro), j, "macro steps are not a subsequence of micro steps")
}

func TestPolyfillFramesAreHidden(t *testing.T) {
	s := newSession(t, "var a = [1, 2].map(function (x) { return x + 1; });")
	tr, err := s.RunToEnd(Micro)
	require.NoError(t, err)
	sawCallback := false
	for _, step := range tr.Steps {
		for _, f := range step.StackFrames {
			assert.NotEqual(t, "map", f.FunctionName)
			if f.FunctionName == "<anon>" {
				sawCallback = true
			}
		}
	}
	assert.True(t, sawCallback)
}

func TestFunctionHeapElement(t *testing.T) {
	s := newSession(t, "function add(a, b) { return a + b; }\nvar f = add;")
	_, err := s.RunToEnd(Macro)
	require.NoError(t, err)
	step := collect(t, s)
	ref := step.StackFrames[0].Locals["f"].Ref
	assert.Equal(t, step.StackFrames[0].Locals["add"], trace.Pointer(ref))
	elem := step.Heap[ref]
	assert.Equal(t, trace.HeapFunction, elem.Kind)
	assert.Equal(t, "add", elem.Name)
	assert.Equal(t, "function add(a, b) { return a + b; }", elem.Code)
}

func TestHostValuesCrossTheBoundary(t *testing.T) {
	var got []any
	capture := HostFunction{Name: "capture", Fn: func(log func(string), args ...any) (any, error) {
		got = args
		return &Object{Keys: []string{"k"}, Fields: map[string]any{"k": []any{1.0, "two"}}}, nil
	}}
	s, err := New("var o = { a: 1 }; o.me = o;\nvar r = capture(o, [true, null], undefined);\nvar k = r.k[1];", WithFunctions(capture))
	require.NoError(t, err)
	_, err = s.RunToEnd(Macro)
	require.NoError(t, err)

	require.Len(t, got, 3)
	obj, ok := got[0].(*Object)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "me"}, obj.Keys)
	assert.Equal(t, 1.0, obj.Get("a"))
	assert.Nil(t, obj.Get("me"))
	assert.Equal(t, []any{true, Null}, got[1])
	assert.Nil(t, got[2])

	step := collect(t, s)
	assert.Equal(t, trace.String("two"), step.StackFrames[0].Locals["k"])
}

func TestHostErrorsAreFaults(t *testing.T) {
	failing := HostFunction{Name: "fail", Fn: func(func(string), ...any) (any, error) {
		return nil, errors.New("device unplugged")
	}}
	s, err := New("var a = 1;\nfail();", WithFunctions(failing))
	require.NoError(t, err)
	_, err = s.RunToEnd(Macro)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device unplugged")
}

func TestConstructionErrors(t *testing.T) {
	_, err := New("var a = 1;", WithFunctions(HostFunction{Fn: output.Fn}))
	assert.ErrorIs(t, err, ErrUnnamedFunction)

	_, err = New("with (a) {}")
	assert.ErrorIs(t, err, ErrRestrictedSyntax)

	_, err = New("var = ;")
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("macro")
	require.NoError(t, err)
	assert.Equal(t, Macro, m)
	_, err = ParseMode("nano")
	assert.Error(t, err)
}
