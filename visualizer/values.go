package visualizer

import (
	"fmt"
	"sort"

	"github.com/example/jsviz/runtime"
)

// NullValue is the type of Null.
type NullValue struct{}

// Null is the null of interpreted code as seen by host functions. The
// undefined value is nil.
var Null = NullValue{}

// Object is an interpreted object as seen by host functions. Keys keep
// insertion order.
type Object struct {
	Keys   []string
	Fields map[string]any
}

// Get returns the field named key, or nil.
func (o *Object) Get(key string) any { return o.Fields[key] }

// Function stands for an interpreted function passed to a host function.
type Function struct {
	Name string
}

// toHost converts an interpreted value to a host value. Arrays become
// []any and objects *Object; a reference back to an object that is still
// being converted becomes nil.
func toHost(h *runtime.Heap, v runtime.Value) any {
	return toHostValue(h, v, map[runtime.ObjectID]bool{})
}

func toHostValue(h *runtime.Heap, v runtime.Value, converting map[runtime.ObjectID]bool) any {
	switch v.Type {
	case runtime.TypeUndefined:
		return nil
	case runtime.TypeNull:
		return Null
	case runtime.TypeBoolean:
		return v.Bool
	case runtime.TypeNumber:
		return v.Number
	case runtime.TypeString:
		return v.Str
	}
	obj := h.Deref(v)
	if obj == nil || converting[obj.ID] {
		return nil
	}
	if obj.Primitive != nil {
		return toHostValue(h, *obj.Primitive, converting)
	}
	if obj.IsCallable() {
		return Function{Name: obj.Func.Name}
	}
	converting[obj.ID] = true
	defer delete(converting, obj.ID)

	switch obj.Class {
	case runtime.ClassArray, runtime.ClassArguments:
		out := make([]any, len(obj.Elems))
		for i, e := range obj.Elems {
			out[i] = toHostValue(h, e, converting)
		}
		return out
	case runtime.ClassError:
		return &Object{
			Keys: []string{"name", "message"},
			Fields: map[string]any{
				"name":    h.ToString(h.GetFrom(obj, "name")),
				"message": h.ToString(h.GetFrom(obj, "message")),
			},
		}
	}
	keys := obj.VisibleKeys()
	out := &Object{Keys: keys, Fields: make(map[string]any, len(keys))}
	for _, k := range keys {
		val, _ := obj.Own(k)
		out.Fields[k] = toHostValue(h, val, converting)
	}
	return out
}

// fromHost converts the result of a host function to an interpreted
// value, allocating arrays and objects on h.
func fromHost(h *runtime.Heap, x any) (runtime.Value, error) {
	switch x := x.(type) {
	case nil:
		return runtime.Undefined, nil
	case NullValue:
		return runtime.Null, nil
	case bool:
		return runtime.NewBool(x), nil
	case float64:
		return runtime.NewNumber(x), nil
	case float32:
		return runtime.NewNumber(float64(x)), nil
	case int:
		return runtime.NewNumber(float64(x)), nil
	case int64:
		return runtime.NewNumber(float64(x)), nil
	case string:
		return runtime.NewString(x), nil
	case []any:
		elems := make([]runtime.Value, len(x))
		for i, e := range x {
			v, err := fromHost(h, e)
			if err != nil {
				return runtime.Undefined, err
			}
			elems[i] = v
		}
		return runtime.NewRef(h.NewArray(elems).ID), nil
	case *Object:
		obj := h.NewPlainObject()
		for _, k := range x.Keys {
			v, err := fromHost(h, x.Fields[k])
			if err != nil {
				return runtime.Undefined, err
			}
			obj.Put(k, v)
		}
		return runtime.NewRef(obj.ID), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fromHost(h, &Object{Keys: keys, Fields: x})
	}
	return runtime.Undefined, fmt.Errorf("host value of type %T cannot be passed to the program", x)
}
