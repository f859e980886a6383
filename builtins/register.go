package builtins

import (
	"math"

	"github.com/example/jsviz/runtime"
)

// Install creates the builtin objects on h and returns the global scope
// together with the Go code of every native function it created.
func Install(h *runtime.Heap) (*runtime.Scope, runtime.Natives) {
	in := &installer{heap: h, natives: runtime.Natives{}}

	// 1. Object.prototype and Function.prototype come first: every
	// later allocation links to them.
	objProto := h.Alloc(runtime.ClassObject, 0)
	h.SetIntrinsic(runtime.IntrinsicObjectPrototype, objProto.ID)
	funcProto := h.Alloc(runtime.ClassObject, objProto.ID)
	h.SetIntrinsic(runtime.IntrinsicFunctionPrototype, funcProto.ID)

	global := h.Alloc(runtime.ClassObject, objProto.ID)
	h.SetIntrinsic(runtime.IntrinsicGlobal, global.ID)
	scope := h.NewScopeWith(global, 0, true)
	declare := func(name string, obj *runtime.Object) {
		global.PutHidden(name, runtime.NewRef(obj.ID))
	}
	global.PutHidden("this", runtime.NewRef(global.ID))

	// 2. Object and Function
	declare("Object", in.createObjectConstructor(objProto))
	declare("Function", in.createFunctionConstructor(funcProto))

	// 3. Array, String, Number, Boolean
	declare("Array", in.createArrayConstructor(objProto))
	declare("String", in.createStringConstructor(objProto))
	declare("Number", in.createNumberConstructor(objProto))
	declare("Boolean", in.createBooleanConstructor(objProto))

	// 4. Error types
	errProto := in.createErrorPrototype(objProto)
	declare("Error", in.createErrorConstructor("Error", errProto))
	for _, name := range ErrorTypes[1:] {
		proto := h.Alloc(runtime.ClassObject, errProto.ID)
		proto.PutHidden("name", runtime.NewString(name))
		proto.PutHidden("message", runtime.NewString(""))
		h.SetIntrinsic(runtime.ErrorPrototypeOf(name), proto.ID)
		declare(name, in.createErrorConstructor(name, proto))
	}

	// 5. Math
	declare("Math", in.createMathObject(objProto))

	// 6. Global functions and constants
	in.registerGlobalFunctions(global)
	global.PutHidden("undefined", runtime.Undefined)
	global.PutHidden("NaN", runtime.NaN)
	global.PutHidden("Infinity", runtime.NewNumber(math.Inf(1)))

	return scope, in.natives
}

// Natives returns the Go code of every builtin native function, keyed the
// way Install records them on function objects.
func Natives() runtime.Natives {
	_, natives := Install(runtime.NewHeap())
	return natives
}

// ErrorTypes lists the error constructors, Error first.
var ErrorTypes = []string{"Error", "TypeError", "ReferenceError", "RangeError", "SyntaxError", "EvalError", "URIError"}
