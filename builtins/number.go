package builtins

import (
	"math"
	"strconv"

	"github.com/example/jsviz/runtime"
)

func (in *installer) createNumberConstructor(objProto *runtime.Object) *runtime.Object {
	proto := in.heap.Alloc(runtime.ClassNumber, objProto.ID)
	zero := runtime.NewNumber(0)
	proto.Primitive = &zero
	in.heap.SetIntrinsic(runtime.IntrinsicNumberPrototype, proto.ID)

	const path = "Number.prototype"
	in.setMethod(proto, path, "toFixed", 1, numberToFixed)
	in.setMethod(proto, path, "toPrecision", 1, numberToPrecision)
	in.setMethod(proto, path, "toString", 1, numberToString)
	in.setMethod(proto, path, "valueOf", 0, numberValueOf)

	ctor := in.newConstructor("Number", 1, numberConstructorCall, proto)
	setConstant(ctor, "MAX_VALUE", runtime.NewNumber(math.MaxFloat64))
	setConstant(ctor, "MIN_VALUE", runtime.NewNumber(math.SmallestNonzeroFloat64))
	setConstant(ctor, "NaN", runtime.NaN)
	setConstant(ctor, "POSITIVE_INFINITY", runtime.NewNumber(math.Inf(1)))
	setConstant(ctor, "NEGATIVE_INFINITY", runtime.NewNumber(math.Inf(-1)))
	return ctor
}

func thisNumber(c *runtime.NativeCall, method string) (float64, error) {
	if c.This.Type == runtime.TypeNumber {
		return c.This.Number, nil
	}
	if obj := c.Heap.Deref(c.This); obj != nil && obj.Class == runtime.ClassNumber {
		return obj.Primitive.Number, nil
	}
	return 0, typeError("Number.prototype.%s requires that 'this' be a Number", method)
}

func numberConstructorCall(c *runtime.NativeCall) (runtime.Value, error) {
	n := runtime.NewNumber(0)
	if len(c.Args) > 0 {
		n = runtime.NewNumber(c.Heap.ToNumber(c.Args[0]))
	}
	if c.Construct {
		return runtime.NewRef(c.Heap.Box(n).ID), nil
	}
	return n, nil
}

func numberToFixed(c *runtime.NativeCall) (runtime.Value, error) {
	n, err := thisNumber(c, "toFixed")
	if err != nil {
		return runtime.Undefined, err
	}
	digits := int(toInteger(c, 0))
	if digits < 0 || digits > 20 {
		return runtime.Undefined, rangeError("toFixed() digits argument must be between 0 and 20")
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || math.Abs(n) >= 1e21 {
		return runtime.NewString(runtime.NumberToString(n)), nil
	}
	return runtime.NewString(strconv.FormatFloat(n, 'f', digits, 64)), nil
}

func numberToPrecision(c *runtime.NativeCall) (runtime.Value, error) {
	n, err := thisNumber(c, "toPrecision")
	if err != nil {
		return runtime.Undefined, err
	}
	if c.Arg(0).IsUndefined() || math.IsNaN(n) || math.IsInf(n, 0) {
		return runtime.NewString(runtime.NumberToString(n)), nil
	}
	prec := int(toInteger(c, 0))
	if prec < 1 || prec > 21 {
		return runtime.Undefined, rangeError("toPrecision() argument must be between 1 and 21")
	}
	return runtime.NewString(strconv.FormatFloat(n, 'g', prec, 64)), nil
}

func numberToString(c *runtime.NativeCall) (runtime.Value, error) {
	n, err := thisNumber(c, "toString")
	if err != nil {
		return runtime.Undefined, err
	}
	radix := 10
	if !c.Arg(0).IsUndefined() {
		radix = int(toInteger(c, 0))
	}
	if radix < 2 || radix > 36 {
		return runtime.Undefined, rangeError("toString() radix must be between 2 and 36")
	}
	if radix == 10 || math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
		return runtime.NewString(runtime.NumberToString(n)), nil
	}
	return runtime.NewString(strconv.FormatInt(int64(n), radix)), nil
}

func numberValueOf(c *runtime.NativeCall) (runtime.Value, error) {
	n, err := thisNumber(c, "valueOf")
	if err != nil {
		return runtime.Undefined, err
	}
	return runtime.NewNumber(n), nil
}
