// Package trace defines the step-by-step execution trace handed to
// renderers. Field names and JSON shapes are part of the contract and
// must not change.
package trace

import (
	"encoding/json"
	"fmt"
	"math"
)

// Trace is a whole run of a program.
type Trace struct {
	ProgramCode string  `json:"programCode"`
	Steps       []*Step `json:"steps"`
}

// Event classifies a step.
type Event string

const (
	EventStepLine  Event = "step_line"
	EventReturn    Event = "return"
	EventException Event = "exception"
)

// Output is one line logged by the program.
type Output struct {
	Content string `json:"content"`
	Line    int    `json:"line"`
}

// Step is the visible state of a program at one position. Lines are
// 1-based and columns 0-based.
type Step struct {
	Stdout       []Output               `json:"stdout"`
	LineStart    int                    `json:"line_start"`
	LineEnd      int                    `json:"line_end"`
	ColStart     int                    `json:"col_start"`
	ColEnd       int                    `json:"col_end"`
	FunctionName string                 `json:"function_name"`
	Event        Event                  `json:"event"`
	StackFrames  []StackFrame           `json:"stack_frames"`
	Heap         map[string]HeapElement `json:"heap"`
	// ExceptionMessage is set only when Event is EventException.
	ExceptionMessage *string `json:"exception_message,omitempty"`
}

// StackFrame is one active function, the global code included. The
// Code* range spans the function, the State* range the node it is
// evaluating.
type StackFrame struct {
	FrameID        int64            `json:"frame_id"`
	FunctionName   string           `json:"function_name"`
	FunctionCode   string           `json:"function_code"`
	CodeLineStart  int              `json:"code_line_start"`
	CodeColStart   int              `json:"code_col_start"`
	CodeLineEnd    int              `json:"code_line_end"`
	CodeColEnd     int              `json:"code_col_end"`
	StateLineStart int              `json:"state_line_start"`
	StateColStart  int              `json:"state_col_start"`
	StateLineEnd   int              `json:"state_line_end"`
	StateColEnd    int              `json:"state_col_end"`
	Locals         map[string]Value `json:"locals"`
	OrderedLocals  []string         `json:"ordered_locals"`
	// ReturnValue is set while the frame is returning.
	ReturnValue *Value `json:"return_value,omitempty"`
}

// ValueKind tags a Value.
type ValueKind string

const (
	KindNumber      ValueKind = "number"
	KindString      ValueKind = "string"
	KindBoolean     ValueKind = "boolean"
	KindNull        ValueKind = "null"
	KindUndefined   ValueKind = "undefined"
	KindNaN         ValueKind = "NaN"
	KindInfinity    ValueKind = "Infinity"
	KindNegInfinity ValueKind = "-Infinity"
	KindPointer     ValueKind = "pointer"
)

// Value is a primitive or a pointer into the step's heap.
type Value struct {
	Kind   ValueKind
	Number float64
	Str    string
	Bool   bool
	Ref    string
}

// Number returns the value of n, mapping NaN and the infinities to their
// own kinds.
func Number(n float64) Value {
	switch {
	case math.IsNaN(n):
		return Value{Kind: KindNaN}
	case math.IsInf(n, 1):
		return Value{Kind: KindInfinity}
	case math.IsInf(n, -1):
		return Value{Kind: KindNegInfinity}
	}
	return Value{Kind: KindNumber, Number: n}
}

func String(s string) Value { return Value{Kind: KindString, Str: s} }

func Bool(b bool) Value { return Value{Kind: KindBoolean, Bool: b} }

func Null() Value { return Value{Kind: KindNull} }

func Undefined() Value { return Value{Kind: KindUndefined} }

func Pointer(ref string) Value { return Value{Kind: KindPointer, Ref: ref} }

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(struct {
			Kind  ValueKind `json:"kind"`
			Value float64   `json:"value"`
		}{v.Kind, v.Number})
	case KindString:
		return json.Marshal(struct {
			Kind  ValueKind `json:"kind"`
			Value string    `json:"value"`
		}{v.Kind, v.Str})
	case KindBoolean:
		return json.Marshal(struct {
			Kind  ValueKind `json:"kind"`
			Value bool      `json:"value"`
		}{v.Kind, v.Bool})
	case KindPointer:
		return json.Marshal(struct {
			Kind ValueKind `json:"kind"`
			Ref  string    `json:"ref"`
		}{v.Kind, v.Ref})
	case KindNull, KindUndefined, KindNaN, KindInfinity, KindNegInfinity:
		return json.Marshal(struct {
			Kind ValueKind `json:"kind"`
		}{v.Kind})
	}
	return nil, fmt.Errorf("trace: unknown value kind %q", v.Kind)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind  ValueKind       `json:"kind"`
		Value json.RawMessage `json:"value"`
		Ref   string          `json:"ref"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = Value{Kind: raw.Kind, Ref: raw.Ref}
	switch raw.Kind {
	case KindNumber:
		return json.Unmarshal(raw.Value, &v.Number)
	case KindString:
		return json.Unmarshal(raw.Value, &v.Str)
	case KindBoolean:
		return json.Unmarshal(raw.Value, &v.Bool)
	case KindNull, KindUndefined, KindNaN, KindInfinity, KindNegInfinity, KindPointer:
		return nil
	}
	return fmt.Errorf("trace: unknown value kind %q", raw.Kind)
}

// HeapKind tags a HeapElement.
type HeapKind string

const (
	HeapArray    HeapKind = "array"
	HeapObject   HeapKind = "object"
	HeapFunction HeapKind = "function"
)

// NativeCode is the code shown for functions implemented by the host.
const NativeCode = "function() { [native code] }"

// Entry is one property of a heap object.
type Entry struct {
	Key   string `json:"key"`
	Value Value  `json:"value"`
}

// HeapElement is an object reachable from a stack frame.
type HeapElement struct {
	Kind    HeapKind
	ID      string
	Values  []Value
	Entries []Entry
	Name    string
	Code    string
}

func (e HeapElement) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case HeapArray:
		values := e.Values
		if values == nil {
			values = []Value{}
		}
		return json.Marshal(struct {
			Kind   HeapKind `json:"kind"`
			ID     string   `json:"id"`
			Values []Value  `json:"values"`
		}{e.Kind, e.ID, values})
	case HeapObject:
		entries := e.Entries
		if entries == nil {
			entries = []Entry{}
		}
		return json.Marshal(struct {
			Kind    HeapKind `json:"kind"`
			ID      string   `json:"id"`
			Entries []Entry  `json:"entries"`
		}{e.Kind, e.ID, entries})
	case HeapFunction:
		return json.Marshal(struct {
			Kind HeapKind `json:"kind"`
			ID   string   `json:"id"`
			Name string   `json:"name"`
			Code string   `json:"code"`
		}{e.Kind, e.ID, e.Name, e.Code})
	}
	return nil, fmt.Errorf("trace: unknown heap element kind %q", e.Kind)
}

func (e *HeapElement) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind    HeapKind `json:"kind"`
		ID      string   `json:"id"`
		Values  []Value  `json:"values"`
		Entries []Entry  `json:"entries"`
		Name    string   `json:"name"`
		Code    string   `json:"code"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case HeapArray, HeapObject, HeapFunction:
	default:
		return fmt.Errorf("trace: unknown heap element kind %q", raw.Kind)
	}
	*e = HeapElement{
		Kind:    raw.Kind,
		ID:      raw.ID,
		Values:  raw.Values,
		Entries: raw.Entries,
		Name:    raw.Name,
		Code:    raw.Code,
	}
	return nil
}
