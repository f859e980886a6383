package runtime

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// Names of the intrinsic objects every heap is expected to carry once the
// builtins are installed.
const (
	IntrinsicGlobal            = "global"
	IntrinsicObjectPrototype   = "Object.prototype"
	IntrinsicFunctionPrototype = "Function.prototype"
	IntrinsicArrayPrototype    = "Array.prototype"
	IntrinsicStringPrototype   = "String.prototype"
	IntrinsicNumberPrototype   = "Number.prototype"
	IntrinsicBooleanPrototype  = "Boolean.prototype"
	IntrinsicErrorPrototype    = "Error.prototype"
)

// ErrorPrototypeOf names the prototype intrinsic of an error type.
func ErrorPrototypeOf(errorType string) string {
	return errorType + ".prototype"
}

// Throw is a Go error carrying an exception to be raised in interpreted
// code. It never escapes the evaluator as a host fault.
type Throw struct {
	Type    string
	Message string
}

func (t *Throw) Error() string {
	return t.Type + ": " + t.Message
}

func Throwf(errorType, format string, args ...any) *Throw {
	return &Throw{Type: errorType, Message: fmt.Sprintf(format, args...)}
}

// Scope is a function or global environment. Its bindings live in the
// object with the same id. Parent is used for name resolution only.
type Scope struct {
	ID     ObjectID `json:"id"`
	Parent ObjectID `json:"parent,omitempty"`
	Strict bool     `json:"strict,omitempty"`
}

// Heap is the object arena of one evaluator. Identities come from a
// per-heap counter, start at 1 and are never reused.
type Heap struct {
	objects    map[ObjectID]*Object
	scopes     map[ObjectID]*Scope
	next       ObjectID
	intrinsics map[string]ObjectID
}

func NewHeap() *Heap {
	return &Heap{
		objects:    make(map[ObjectID]*Object),
		scopes:     make(map[ObjectID]*Scope),
		next:       1,
		intrinsics: make(map[string]ObjectID),
	}
}

// Alloc creates an empty object with a fresh identity.
func (h *Heap) Alloc(class Class, proto ObjectID) *Object {
	obj := &Object{ID: h.next, Class: class, Proto: proto}
	h.next++
	h.objects[obj.ID] = obj
	return obj
}

// Object returns the object with the given id, or nil.
func (h *Heap) Object(id ObjectID) *Object {
	return h.objects[id]
}

// Deref returns the object v refers to, or nil for primitives.
func (h *Heap) Deref(v Value) *Object {
	if v.Type != TypeObject {
		return nil
	}
	return h.objects[v.Ref]
}

// Len is the number of allocated objects.
func (h *Heap) Len() int { return len(h.objects) }

// NextID is the identity the next allocation will receive.
func (h *Heap) NextID() ObjectID { return h.next }

func (h *Heap) Intrinsic(name string) ObjectID {
	return h.intrinsics[name]
}

func (h *Heap) SetIntrinsic(name string, id ObjectID) {
	h.intrinsics[name] = id
}

func (h *Heap) NewPlainObject() *Object {
	return h.Alloc(ClassObject, h.Intrinsic(IntrinsicObjectPrototype))
}

func (h *Heap) NewArray(elems []Value) *Object {
	arr := h.Alloc(ClassArray, h.Intrinsic(IntrinsicArrayPrototype))
	arr.Elems = append([]Value{}, elems...)
	return arr
}

// NewFunction allocates a function object. Interpreted functions also get
// a fresh prototype object.
func (h *Heap) NewFunction(fn *Function) *Object {
	obj := h.Alloc(ClassFunction, h.Intrinsic(IntrinsicFunctionPrototype))
	obj.Func = fn
	if !fn.IsNative() {
		proto := h.NewPlainObject()
		proto.PutHidden("constructor", NewRef(obj.ID))
		obj.PutHidden("prototype", NewRef(proto.ID))
	}
	return obj
}

// NewError allocates an error of the given type, such as "TypeError".
func (h *Heap) NewError(errorType, message string) *Object {
	proto := h.Intrinsic(ErrorPrototypeOf(errorType))
	if proto == 0 {
		proto = h.Intrinsic(IntrinsicErrorPrototype)
	}
	obj := h.Alloc(ClassError, proto)
	obj.PutHidden("message", NewString(message))
	return obj
}

// Box wraps a primitive in its object form.
func (h *Heap) Box(v Value) *Object {
	var obj *Object
	switch v.Type {
	case TypeString:
		obj = h.Alloc(ClassString, h.Intrinsic(IntrinsicStringPrototype))
	case TypeNumber:
		obj = h.Alloc(ClassNumber, h.Intrinsic(IntrinsicNumberPrototype))
	case TypeBoolean:
		obj = h.Alloc(ClassBoolean, h.Intrinsic(IntrinsicBooleanPrototype))
	default:
		return nil
	}
	prim := v
	obj.Primitive = &prim
	return obj
}


// ---------- properties ----------

// Get reads a property of any value, following the prototype chain.
func (h *Heap) Get(v Value, key string) (Value, error) {
	switch v.Type {
	case TypeUndefined, TypeNull:
		return Undefined, Throwf("TypeError", "Cannot read property '%s' of %s", key, v.primitiveString())
	case TypeString:
		if r, ok := stringProp(v.Str, key); ok {
			return r, nil
		}
		return h.GetFrom(h.Object(h.Intrinsic(IntrinsicStringPrototype)), key), nil
	case TypeNumber:
		return h.GetFrom(h.Object(h.Intrinsic(IntrinsicNumberPrototype)), key), nil
	case TypeBoolean:
		return h.GetFrom(h.Object(h.Intrinsic(IntrinsicBooleanPrototype)), key), nil
	}
	return h.GetFrom(h.Deref(v), key), nil
}

// GetFrom reads a property of an object, following the prototype chain.
func (h *Heap) GetFrom(obj *Object, key string) Value {
	for depth := 0; obj != nil && depth < 1000; depth++ {
		if v, ok := h.getOwn(obj, key); ok {
			return v
		}
		obj = h.objects[obj.Proto]
	}
	return Undefined
}

func (h *Heap) getOwn(obj *Object, key string) (Value, bool) {
	switch obj.Class {
	case ClassArray, ClassArguments:
		if key == "length" {
			return NewNumber(float64(len(obj.Elems))), true
		}
		if i, ok := arrayIndex(key); ok {
			if i < len(obj.Elems) {
				return obj.Elems[i], true
			}
			return Undefined, false
		}
	case ClassString:
		if obj.Primitive != nil {
			if r, ok := stringProp(obj.Primitive.Str, key); ok {
				return r, true
			}
		}
	case ClassFunction:
		if v, ok := obj.Own(key); ok {
			return v, true
		}
		switch key {
		case "name":
			return NewString(obj.Func.Name), true
		case "length":
			return NewNumber(float64(obj.Func.Length)), true
		}
	}
	return obj.Own(key)
}

func stringProp(s, key string) (Value, bool) {
	if key == "length" {
		return NewNumber(float64(utf8.RuneCountInString(s))), true
	}
	if i, ok := arrayIndex(key); ok {
		runes := []rune(s)
		if i < len(runes) {
			return NewString(string(runes[i])), true
		}
	}
	return Undefined, false
}

// Put writes a property on an object value. Writing to a primitive or to
// null/undefined is a TypeError in strict mode.
func (h *Heap) Put(target Value, key string, v Value) error {
	obj := h.Deref(target)
	if obj == nil {
		if target.IsNullish() {
			return Throwf("TypeError", "Cannot set property '%s' of %s", key, target.primitiveString())
		}
		return Throwf("TypeError", "Cannot create property '%s' on %s '%s'", key, target.Type, target.primitiveString())
	}
	return h.PutOn(obj, key, v)
}

// PutOn writes an own property, handling array indices and length.
func (h *Heap) PutOn(obj *Object, key string, v Value) error {
	switch obj.Class {
	case ClassArray, ClassArguments:
		if key == "length" {
			n := h.ToNumber(v)
			if n < 0 || n != math.Trunc(n) || n > math.MaxUint32 {
				return Throwf("RangeError", "Invalid array length")
			}
			obj.Elems = resize(obj.Elems, int(n))
			return nil
		}
		if i, ok := arrayIndex(key); ok {
			if i >= len(obj.Elems) {
				obj.Elems = resize(obj.Elems, i+1)
			}
			obj.Elems[i] = v
			return nil
		}
	case ClassString:
		if _, ok := stringProp(obj.Primitive.Str, key); ok {
			return Throwf("TypeError", "Cannot assign to read only property '%s' of string", key)
		}
	}
	obj.Put(key, v)
	return nil
}

func resize(elems []Value, n int) []Value {
	if n <= len(elems) {
		return elems[:n]
	}
	for len(elems) < n {
		elems = append(elems, Undefined)
	}
	return elems
}

// Has implements the in operator.
func (h *Heap) Has(obj *Object, key string) bool {
	for depth := 0; obj != nil && depth < 1000; depth++ {
		if _, ok := h.getOwn(obj, key); ok {
			return true
		}
		obj = h.objects[obj.Proto]
	}
	return false
}

// Remove implements the delete operator on an object.
func (h *Heap) Remove(obj *Object, key string) bool {
	switch obj.Class {
	case ClassArray, ClassArguments:
		if key == "length" {
			return false
		}
		if i, ok := arrayIndex(key); ok {
			if i < len(obj.Elems) {
				obj.Elems[i] = Undefined
			}
			return true
		}
	}
	obj.Delete(key)
	return true
}

// InstanceOf implements the instanceof operator.
func (h *Heap) InstanceOf(v Value, ctor Value) (bool, error) {
	c := h.Deref(ctor)
	if !c.IsCallable() {
		return false, Throwf("TypeError", "Right-hand side of 'instanceof' is not callable")
	}
	obj := h.Deref(v)
	if obj == nil {
		return false, nil
	}
	protoVal := h.GetFrom(c, "prototype")
	if !protoVal.IsObject() {
		return false, Throwf("TypeError", "Function has non-object prototype in instanceof check")
	}
	for p := h.objects[obj.Proto]; p != nil; p = h.objects[p.Proto] {
		if p.ID == protoVal.Ref {
			return true, nil
		}
	}
	return false, nil
}
