package trace

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueShapes(t *testing.T) {
	tests := []struct {
		value Value
		want  string
	}{
		{Number(1.5), `{"kind":"number","value":1.5}`},
		{Number(math.NaN()), `{"kind":"NaN"}`},
		{Number(math.Inf(1)), `{"kind":"Infinity"}`},
		{Number(math.Inf(-1)), `{"kind":"-Infinity"}`},
		{String("hi"), `{"kind":"string","value":"hi"}`},
		{Bool(false), `{"kind":"boolean","value":false}`},
		{Null(), `{"kind":"null"}`},
		{Undefined(), `{"kind":"undefined"}`},
		{Pointer("12"), `{"kind":"pointer","ref":"12"}`},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.value)
		require.NoError(t, err)
		assert.JSONEq(t, tt.want, string(data))
	}
}

func TestUnknownValueKindFails(t *testing.T) {
	_, err := json.Marshal(Value{Kind: "symbol"})
	assert.Error(t, err)
	var v Value
	assert.Error(t, json.Unmarshal([]byte(`{"kind":"symbol"}`), &v))
}

func TestHeapElementShapes(t *testing.T) {
	tests := []struct {
		elem HeapElement
		want string
	}{
		{
			HeapElement{Kind: HeapArray, ID: "3", Values: []Value{Number(1), Pointer("4")}},
			`{"kind":"array","id":"3","values":[{"kind":"number","value":1},{"kind":"pointer","ref":"4"}]}`,
		},
		{
			HeapElement{Kind: HeapArray, ID: "5"},
			`{"kind":"array","id":"5","values":[]}`,
		},
		{
			HeapElement{Kind: HeapObject, ID: "4", Entries: []Entry{{Key: "self", Value: Pointer("4")}}},
			`{"kind":"object","id":"4","entries":[{"key":"self","value":{"kind":"pointer","ref":"4"}}]}`,
		},
		{
			HeapElement{Kind: HeapFunction, ID: "9", Name: "log", Code: NativeCode},
			`{"kind":"function","id":"9","name":"log","code":"function() { [native code] }"}`,
		},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.elem)
		require.NoError(t, err)
		assert.JSONEq(t, tt.want, string(data))
	}
}

func TestStepFieldNames(t *testing.T) {
	msg := "Error: boom"
	ret := Number(1)
	step := Step{
		Stdout:       []Output{{Content: "2", Line: 1}},
		LineStart:    1,
		LineEnd:      1,
		ColEnd:       4,
		FunctionName: "f",
		Event:        EventException,
		StackFrames: []StackFrame{{
			FrameID:       7,
			FunctionName:  "f",
			Locals:        map[string]Value{"n": Number(1)},
			OrderedLocals: []string{"n"},
			ReturnValue:   &ret,
		}},
		Heap:             map[string]HeapElement{},
		ExceptionMessage: &msg,
	}
	data, err := json.Marshal(step)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, name := range []string{"stdout", "line_start", "line_end", "col_start", "col_end",
		"function_name", "event", "stack_frames", "heap", "exception_message"} {
		assert.Contains(t, fields, name)
	}

	var frames []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(fields["stack_frames"], &frames))
	require.Len(t, frames, 1)
	for _, name := range []string{"frame_id", "function_name", "function_code",
		"code_line_start", "code_col_start", "code_line_end", "code_col_end",
		"state_line_start", "state_col_start", "state_line_end", "state_col_end",
		"locals", "ordered_locals", "return_value"} {
		assert.Contains(t, frames[0], name)
	}
}

func TestOptionalFieldsAreOmitted(t *testing.T) {
	data, err := json.Marshal(Step{Event: EventStepLine, StackFrames: []StackFrame{{}}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "exception_message")
	assert.NotContains(t, string(data), "return_value")
}
