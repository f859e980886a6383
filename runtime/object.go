package runtime

import (
	"sort"
	"strconv"

	"github.com/example/jsviz/ast"
)

// Class is the internal [[Class]] of an object.
type Class uint8

const (
	ClassObject Class = iota
	ClassArray
	ClassFunction
	ClassError
	ClassBoolean
	ClassNumber
	ClassString
	ClassArguments
)

func (c Class) String() string {
	switch c {
	case ClassArray:
		return "Array"
	case ClassFunction:
		return "Function"
	case ClassError:
		return "Error"
	case ClassBoolean:
		return "Boolean"
	case ClassNumber:
		return "Number"
	case ClassString:
		return "String"
	case ClassArguments:
		return "Arguments"
	}
	return "Object"
}

// Function holds what is needed to call a function object. Interpreted
// functions reference their AST node and closure scope; natives are
// resolved by name.
type Function struct {
	Name   string     `json:"name,omitempty"`
	Node   ast.NodeID `json:"node,omitempty"`
	Scope  ObjectID   `json:"scope,omitempty"`
	Native string     `json:"native,omitempty"`
	Length int        `json:"length,omitempty"`
}

func (f *Function) IsNative() bool { return f.Native != "" }

// Object is a heap-allocated value. Properties keep insertion order in
// Keys; arrays keep their elements in Elems.
type Object struct {
	ID        ObjectID         `json:"id"`
	Class     Class            `json:"class,omitempty"`
	Proto     ObjectID         `json:"proto,omitempty"`
	Keys      []string         `json:"keys,omitempty"`
	Props     map[string]Value `json:"props,omitempty"`
	Elems     []Value          `json:"elems,omitempty"`
	Func      *Function        `json:"func,omitempty"`
	Primitive *Value           `json:"prim,omitempty"`
	// Hidden lists own keys skipped by for-in and display.
	Hidden []string `json:"hidden,omitempty"`
}

// IsCallable reports whether the object can be invoked.
func (o *Object) IsCallable() bool {
	return o != nil && o.Func != nil
}

// Own returns an own property value.
func (o *Object) Own(key string) (Value, bool) {
	v, ok := o.Props[key]
	return v, ok
}

// Put sets an own data property, keeping insertion order.
func (o *Object) Put(key string, v Value) {
	if o.Props == nil {
		o.Props = make(map[string]Value)
	}
	if _, exists := o.Props[key]; !exists {
		o.Keys = append(o.Keys, key)
	}
	o.Props[key] = v
}

// PutHidden sets an own property that is not enumerable.
func (o *Object) PutHidden(key string, v Value) {
	o.Put(key, v)
	if !o.IsHidden(key) {
		o.Hidden = append(o.Hidden, key)
	}
}

func (o *Object) IsHidden(key string) bool {
	for _, k := range o.Hidden {
		if k == key {
			return true
		}
	}
	return false
}

// Delete removes an own property.
func (o *Object) Delete(key string) {
	if _, ok := o.Props[key]; !ok {
		return
	}
	delete(o.Props, key)
	for i, k := range o.Keys {
		if k == key {
			o.Keys = append(o.Keys[:i:i], o.Keys[i+1:]...)
			break
		}
	}
}

// EnumerableKeys returns the own keys visited by for-in, array indices
// first.
func (o *Object) EnumerableKeys() []string {
	var keys []string
	for i := range o.Elems {
		keys = append(keys, strconv.Itoa(i))
	}
	if o.Class == ClassString && o.Primitive != nil {
		for i := range []rune(o.Primitive.Str) {
			keys = append(keys, strconv.Itoa(i))
		}
	}
	for _, k := range o.Keys {
		if !o.IsHidden(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// VisibleKeys returns own enumerable non-index keys in insertion order.
func (o *Object) VisibleKeys() []string {
	var keys []string
	for _, k := range o.Keys {
		if !o.IsHidden(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// arrayIndex parses a canonical array index.
func arrayIndex(key string) (int, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	n, err := strconv.Atoi(key)
	if err != nil || n < 0 || n >= 1<<31 {
		return 0, false
	}
	return n, true
}

func sortedIDs[T any](m map[ObjectID]T) []ObjectID {
	ids := make([]ObjectID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
