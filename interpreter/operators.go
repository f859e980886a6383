package interpreter

import (
	"fmt"
	"math"

	"github.com/example/jsviz/runtime"
	"github.com/example/jsviz/token"
)

// binary applies a binary operator to two evaluated operands.
func (interp *Interpreter) binary(op token.TokenType, a, b runtime.Value) (runtime.Value, error) {
	h := interp.heap
	switch op {
	case token.Plus:
		pa, pb := h.ToPrimitive(a), h.ToPrimitive(b)
		if pa.Type == runtime.TypeString || pb.Type == runtime.TypeString {
			return runtime.NewString(h.ToString(pa) + h.ToString(pb)), nil
		}
		return runtime.NewNumber(h.ToNumber(pa) + h.ToNumber(pb)), nil
	case token.Minus:
		return runtime.NewNumber(h.ToNumber(a) - h.ToNumber(b)), nil
	case token.Asterisk:
		return runtime.NewNumber(h.ToNumber(a) * h.ToNumber(b)), nil
	case token.Slash:
		return runtime.NewNumber(h.ToNumber(a) / h.ToNumber(b)), nil
	case token.Percent:
		return runtime.NewNumber(math.Mod(h.ToNumber(a), h.ToNumber(b))), nil

	case token.Equal:
		return runtime.NewBool(h.LooseEquals(a, b)), nil
	case token.NotEqual:
		return runtime.NewBool(!h.LooseEquals(a, b)), nil
	case token.StrictEqual:
		return runtime.NewBool(runtime.StrictEquals(a, b)), nil
	case token.StrictNotEqual:
		return runtime.NewBool(!runtime.StrictEquals(a, b)), nil

	case token.LessThan:
		return runtime.NewBool(interp.compare(a, b, false) == cmpTrue), nil
	case token.GreaterThan:
		return runtime.NewBool(interp.compare(b, a, true) == cmpTrue), nil
	case token.LessThanOrEqual:
		return runtime.NewBool(interp.compare(b, a, true) == cmpFalse), nil
	case token.GreaterThanOrEqual:
		return runtime.NewBool(interp.compare(a, b, false) == cmpFalse), nil

	case token.BitwiseAnd:
		return runtime.NewNumber(float64(runtime.ToInt32(h.ToNumber(a)) & runtime.ToInt32(h.ToNumber(b)))), nil
	case token.BitwiseOr:
		return runtime.NewNumber(float64(runtime.ToInt32(h.ToNumber(a)) | runtime.ToInt32(h.ToNumber(b)))), nil
	case token.BitwiseXor:
		return runtime.NewNumber(float64(runtime.ToInt32(h.ToNumber(a)) ^ runtime.ToInt32(h.ToNumber(b)))), nil
	case token.LeftShift:
		return runtime.NewNumber(float64(runtime.ToInt32(h.ToNumber(a)) << (runtime.ToUint32(h.ToNumber(b)) & 31))), nil
	case token.RightShift:
		return runtime.NewNumber(float64(runtime.ToInt32(h.ToNumber(a)) >> (runtime.ToUint32(h.ToNumber(b)) & 31))), nil
	case token.UnsignedRightShift:
		return runtime.NewNumber(float64(runtime.ToUint32(h.ToNumber(a)) >> (runtime.ToUint32(h.ToNumber(b)) & 31))), nil

	case token.In:
		obj := h.Deref(b)
		if obj == nil {
			return runtime.Undefined, runtime.Throwf("TypeError",
				"Cannot use 'in' operator to search for '%s' in %s", h.ToString(a), h.ToString(b))
		}
		return runtime.NewBool(h.Has(obj, h.PropertyKey(a))), nil
	case token.Instanceof:
		ok, err := h.InstanceOf(a, b)
		if err != nil {
			return runtime.Undefined, err
		}
		return runtime.NewBool(ok), nil
	}
	return runtime.Undefined, fmt.Errorf("%w: unknown binary operator %s", ErrFault, op)
}

type cmpResult int

const (
	cmpFalse cmpResult = iota
	cmpTrue
	cmpUndefined
)

// compare implements the abstract relational comparison a < b. leftFirst
// controls the order of primitive conversion.
func (interp *Interpreter) compare(a, b runtime.Value, leftFirst bool) cmpResult {
	h := interp.heap
	var pa, pb runtime.Value
	if leftFirst {
		pb = h.ToPrimitive(b)
		pa = h.ToPrimitive(a)
	} else {
		pa = h.ToPrimitive(a)
		pb = h.ToPrimitive(b)
	}
	if pa.Type == runtime.TypeString && pb.Type == runtime.TypeString {
		if pa.Str < pb.Str {
			return cmpTrue
		}
		return cmpFalse
	}
	na, nb := h.ToNumber(pa), h.ToNumber(pb)
	if math.IsNaN(na) || math.IsNaN(nb) {
		return cmpUndefined
	}
	if na < nb {
		return cmpTrue
	}
	return cmpFalse
}
