package runtime

import (
	"math"
	"strconv"
	"strings"
)

// TypeOf implements the typeof operator.
func (h *Heap) TypeOf(v Value) string {
	switch v.Type {
	case TypeNull:
		return "object"
	case TypeObject:
		if h.Deref(v).IsCallable() {
			return "function"
		}
		return "object"
	}
	return v.Type.String()
}

// ToPrimitive converts objects without running interpreted code:
// boxed values unwrap, arrays join, errors print name and message.
func (h *Heap) ToPrimitive(v Value) Value {
	return h.toPrimitive(v, map[ObjectID]bool{})
}

func (h *Heap) toPrimitive(v Value, seen map[ObjectID]bool) Value {
	obj := h.Deref(v)
	if obj == nil {
		return v
	}
	if obj.Primitive != nil {
		return *obj.Primitive
	}
	switch obj.Class {
	case ClassArray:
		if seen[obj.ID] {
			return NewString("")
		}
		seen[obj.ID] = true
		parts := make([]string, len(obj.Elems))
		for i, e := range obj.Elems {
			if !e.IsNullish() {
				parts[i] = h.toPrimitive(e, seen).primitiveString()
			}
		}
		delete(seen, obj.ID)
		return NewString(strings.Join(parts, ","))
	case ClassFunction:
		return NewString("function " + obj.Func.Name + "() { [native code] }")
	case ClassError:
		return NewString(h.ErrorString(obj))
	case ClassArguments:
		return NewString("[object Arguments]")
	}
	return NewString("[object Object]")
}

// ErrorString formats an error object as "Name: message".
func (h *Heap) ErrorString(obj *Object) string {
	name := h.ToString(h.GetFrom(obj, "name"))
	msg := h.ToString(h.GetFrom(obj, "message"))
	switch {
	case msg == "":
		return name
	case name == "":
		return msg
	}
	return name + ": " + msg
}

func (h *Heap) ToString(v Value) string {
	return h.ToPrimitive(v).primitiveString()
}

func (h *Heap) ToNumber(v Value) float64 {
	p := h.ToPrimitive(v)
	switch p.Type {
	case TypeUndefined:
		return math.NaN()
	case TypeNull:
		return 0
	case TypeBoolean:
		if p.Bool {
			return 1
		}
		return 0
	case TypeNumber:
		return p.Number
	case TypeString:
		return StringToNumber(p.Str)
	}
	return math.NaN()
}

// PropertyKey converts a value used as a computed property name.
func (h *Heap) PropertyKey(v Value) string {
	if v.Type == TypeNumber {
		return NumberToString(v.Number)
	}
	return h.ToString(v)
}

// LooseEquals implements ==.
func (h *Heap) LooseEquals(a, b Value) bool {
	if a.Type == b.Type {
		return StrictEquals(a, b)
	}
	switch {
	case a.IsNullish() && b.IsNullish():
		return true
	case a.IsNullish() || b.IsNullish():
		return false
	case a.Type == TypeNumber && b.Type == TypeString:
		return a.Number == StringToNumber(b.Str)
	case a.Type == TypeString && b.Type == TypeNumber:
		return StringToNumber(a.Str) == b.Number
	case a.Type == TypeBoolean:
		return h.LooseEquals(NewNumber(h.ToNumber(a)), b)
	case b.Type == TypeBoolean:
		return h.LooseEquals(a, NewNumber(h.ToNumber(b)))
	case a.Type == TypeObject:
		return h.LooseEquals(h.ToPrimitive(a), b)
	case b.Type == TypeObject:
		return h.LooseEquals(a, h.ToPrimitive(b))
	}
	return false
}

// Index formats an array index as a property key.
func Index(i int) string {
	return strconv.Itoa(i)
}
