package builtins

import (
	"math"
	"strings"
	"unicode/utf16"

	"github.com/example/jsviz/runtime"
)

func (in *installer) createStringConstructor(objProto *runtime.Object) *runtime.Object {
	proto := in.heap.Alloc(runtime.ClassString, objProto.ID)
	empty := runtime.NewString("")
	proto.Primitive = &empty
	in.heap.SetIntrinsic(runtime.IntrinsicStringPrototype, proto.ID)

	const path = "String.prototype"
	in.setMethod(proto, path, "charAt", 1, stringCharAt)
	in.setMethod(proto, path, "charCodeAt", 1, stringCharCodeAt)
	in.setMethod(proto, path, "indexOf", 1, stringIndexOf)
	in.setMethod(proto, path, "lastIndexOf", 1, stringLastIndexOf)
	in.setMethod(proto, path, "slice", 2, stringSlice)
	in.setMethod(proto, path, "substring", 2, stringSubstring)
	in.setMethod(proto, path, "substr", 2, stringSubstr)
	in.setMethod(proto, path, "toUpperCase", 0, stringToUpperCase)
	in.setMethod(proto, path, "toLowerCase", 0, stringToLowerCase)
	in.setMethod(proto, path, "trim", 0, stringTrim)
	in.setMethod(proto, path, "split", 2, stringSplit)
	in.setMethod(proto, path, "concat", 1, stringConcat)
	in.setMethod(proto, path, "replace", 2, stringReplace)
	in.setMethod(proto, path, "toString", 0, stringValueOf)
	in.setMethod(proto, path, "valueOf", 0, stringValueOf)

	ctor := in.newConstructor("String", 1, stringConstructorCall, proto)
	in.setMethod(ctor, "String", "fromCharCode", 1, stringFromCharCode)
	return ctor
}

func stringConstructorCall(c *runtime.NativeCall) (runtime.Value, error) {
	s := runtime.NewString("")
	if len(c.Args) > 0 {
		s = runtime.NewString(c.Heap.ToString(c.Args[0]))
	}
	if c.Construct {
		return runtime.NewRef(c.Heap.Box(s).ID), nil
	}
	return s, nil
}

// thisString coerces the receiver the way String.prototype methods do.
func thisString(c *runtime.NativeCall, method string) ([]rune, error) {
	if c.This.IsNullish() {
		return nil, typeError("String.prototype.%s called on null or undefined", method)
	}
	return []rune(c.Heap.ToString(c.This)), nil
}

func stringCharAt(c *runtime.NativeCall) (runtime.Value, error) {
	s, err := thisString(c, "charAt")
	if err != nil {
		return runtime.Undefined, err
	}
	i := toInteger(c, 0)
	if i < 0 || int(i) >= len(s) {
		return runtime.NewString(""), nil
	}
	return runtime.NewString(string(s[int(i)])), nil
}

func stringCharCodeAt(c *runtime.NativeCall) (runtime.Value, error) {
	s, err := thisString(c, "charCodeAt")
	if err != nil {
		return runtime.Undefined, err
	}
	i := toInteger(c, 0)
	if i < 0 || int(i) >= len(s) {
		return runtime.NaN, nil
	}
	return runtime.NewNumber(float64(s[int(i)])), nil
}

func stringIndexOf(c *runtime.NativeCall) (runtime.Value, error) {
	s, err := thisString(c, "indexOf")
	if err != nil {
		return runtime.Undefined, err
	}
	search := []rune(c.Heap.ToString(c.Arg(0)))
	from := int(min(max(toInteger(c, 1), 0), float64(len(s))))
	for i := from; i+len(search) <= len(s); i++ {
		if string(s[i:i+len(search)]) == string(search) {
			return runtime.NewNumber(float64(i)), nil
		}
	}
	return runtime.NewNumber(-1), nil
}

func stringLastIndexOf(c *runtime.NativeCall) (runtime.Value, error) {
	s, err := thisString(c, "lastIndexOf")
	if err != nil {
		return runtime.Undefined, err
	}
	search := []rune(c.Heap.ToString(c.Arg(0)))
	from := len(s) - len(search)
	if n := c.Heap.ToNumber(c.Arg(1)); !math.IsNaN(n) {
		from = min(from, int(max(runtime.ToInteger(n), 0)))
	}
	for i := from; i >= 0; i-- {
		if string(s[i:i+len(search)]) == string(search) {
			return runtime.NewNumber(float64(i)), nil
		}
	}
	return runtime.NewNumber(-1), nil
}

func stringSlice(c *runtime.NativeCall) (runtime.Value, error) {
	s, err := thisString(c, "slice")
	if err != nil {
		return runtime.Undefined, err
	}
	start := relativeIndex(toInteger(c, 0), len(s))
	end := len(s)
	if !c.Arg(1).IsUndefined() {
		end = relativeIndex(toInteger(c, 1), len(s))
	}
	if end < start {
		return runtime.NewString(""), nil
	}
	return runtime.NewString(string(s[start:end])), nil
}

func stringSubstring(c *runtime.NativeCall) (runtime.Value, error) {
	s, err := thisString(c, "substring")
	if err != nil {
		return runtime.Undefined, err
	}
	clamp := func(f float64) int { return int(min(max(f, 0), float64(len(s)))) }
	start := clamp(toInteger(c, 0))
	end := len(s)
	if !c.Arg(1).IsUndefined() {
		end = clamp(toInteger(c, 1))
	}
	if start > end {
		start, end = end, start
	}
	return runtime.NewString(string(s[start:end])), nil
}

func stringSubstr(c *runtime.NativeCall) (runtime.Value, error) {
	s, err := thisString(c, "substr")
	if err != nil {
		return runtime.Undefined, err
	}
	start := relativeIndex(toInteger(c, 0), len(s))
	length := len(s) - start
	if !c.Arg(1).IsUndefined() {
		length = int(min(max(toInteger(c, 1), 0), float64(length)))
	}
	return runtime.NewString(string(s[start : start+length])), nil
}

func stringToUpperCase(c *runtime.NativeCall) (runtime.Value, error) {
	s, err := thisString(c, "toUpperCase")
	if err != nil {
		return runtime.Undefined, err
	}
	return runtime.NewString(strings.ToUpper(string(s))), nil
}

func stringToLowerCase(c *runtime.NativeCall) (runtime.Value, error) {
	s, err := thisString(c, "toLowerCase")
	if err != nil {
		return runtime.Undefined, err
	}
	return runtime.NewString(strings.ToLower(string(s))), nil
}

func stringTrim(c *runtime.NativeCall) (runtime.Value, error) {
	s, err := thisString(c, "trim")
	if err != nil {
		return runtime.Undefined, err
	}
	return runtime.NewString(strings.TrimSpace(string(s))), nil
}

func stringSplit(c *runtime.NativeCall) (runtime.Value, error) {
	s, err := thisString(c, "split")
	if err != nil {
		return runtime.Undefined, err
	}
	limit := -1
	if !c.Arg(1).IsUndefined() {
		limit = int(runtime.ToUint32(c.Heap.ToNumber(c.Arg(1))))
	}
	var parts []string
	switch sep := c.Arg(0); {
	case sep.IsUndefined():
		parts = []string{string(s)}
	case c.Heap.ToString(sep) == "":
		for _, r := range s {
			parts = append(parts, string(r))
		}
	default:
		parts = strings.Split(string(s), c.Heap.ToString(sep))
	}
	if limit >= 0 && limit < len(parts) {
		parts = parts[:limit]
	}
	return createStringArray(c.Heap, parts), nil
}

func stringConcat(c *runtime.NativeCall) (runtime.Value, error) {
	s, err := thisString(c, "concat")
	if err != nil {
		return runtime.Undefined, err
	}
	var b strings.Builder
	b.WriteString(string(s))
	for _, a := range c.Args {
		b.WriteString(c.Heap.ToString(a))
	}
	return runtime.NewString(b.String()), nil
}

// stringReplace replaces the first occurrence of a string pattern.
// Replacement functions and patterns are not supported.
func stringReplace(c *runtime.NativeCall) (runtime.Value, error) {
	s, err := thisString(c, "replace")
	if err != nil {
		return runtime.Undefined, err
	}
	if isCallable(c.Heap, c.Arg(1)) {
		return runtime.Undefined, typeError("String.prototype.replace with a function is not supported")
	}
	pattern := c.Heap.ToString(c.Arg(0))
	repl := c.Heap.ToString(c.Arg(1))
	return runtime.NewString(strings.Replace(string(s), pattern, repl, 1)), nil
}

func stringValueOf(c *runtime.NativeCall) (runtime.Value, error) {
	if c.This.Type == runtime.TypeString {
		return c.This, nil
	}
	if obj := c.Heap.Deref(c.This); obj != nil && obj.Class == runtime.ClassString {
		return *obj.Primitive, nil
	}
	return runtime.Undefined, typeError("String.prototype.valueOf requires that 'this' be a String")
}

func stringFromCharCode(c *runtime.NativeCall) (runtime.Value, error) {
	units := make([]uint16, len(c.Args))
	for i, a := range c.Args {
		units[i] = uint16(runtime.ToUint32(c.Heap.ToNumber(a)))
	}
	return runtime.NewString(string(utf16.Decode(units))), nil
}
