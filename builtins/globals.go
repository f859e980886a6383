package builtins

import (
	"math"
	"strconv"
	"strings"

	"github.com/example/jsviz/runtime"
)

func (in *installer) registerGlobalFunctions(global *runtime.Object) {
	in.setMethod(global, "", "parseInt", 2, globalParseInt)
	in.setMethod(global, "", "parseFloat", 1, globalParseFloat)
	in.setMethod(global, "", "isNaN", 1, globalIsNaN)
	in.setMethod(global, "", "isFinite", 1, globalIsFinite)
}

func globalParseInt(c *runtime.NativeCall) (runtime.Value, error) {
	s := strings.TrimSpace(c.Heap.ToString(c.Arg(0)))
	radix := int(runtime.ToInt32(c.Heap.ToNumber(c.Arg(1))))
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if radix == 0 || radix == 16 {
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			s = s[2:]
			radix = 16
		}
	}
	if radix == 0 {
		radix = 10
	}
	if radix < 2 || radix > 36 {
		return runtime.NaN, nil
	}
	// longest prefix of valid digits
	end := 0
	for end < len(s) && digitValue(s[end]) < radix {
		end++
	}
	if end == 0 {
		return runtime.NaN, nil
	}
	n := 0.0
	for i := 0; i < end; i++ {
		n = n*float64(radix) + float64(digitValue(s[i]))
	}
	if neg {
		n = -n
	}
	return runtime.NewNumber(n), nil
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	}
	return 99
}

func globalParseFloat(c *runtime.NativeCall) (runtime.Value, error) {
	s := strings.TrimSpace(c.Heap.ToString(c.Arg(0)))
	switch {
	case strings.HasPrefix(s, "Infinity"), strings.HasPrefix(s, "+Infinity"):
		return runtime.NewNumber(math.Inf(1)), nil
	case strings.HasPrefix(s, "-Infinity"):
		return runtime.NewNumber(math.Inf(-1)), nil
	}
	// Find the longest prefix that is a valid float
	end := 0
	hasDecimal := false
	hasE := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			end = i + 1
			continue
		}
		if c == '.' && !hasDecimal && !hasE {
			hasDecimal = true
			continue
		}
		if (c == 'e' || c == 'E') && !hasE && end > 0 {
			hasE = true
			if i+1 < len(s) && (s[i+1] == '+' || s[i+1] == '-') {
				i++
			}
			continue
		}
		if (c == '+' || c == '-') && i == 0 {
			continue
		}
		break
	}
	if end == 0 {
		return runtime.NaN, nil
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return runtime.NaN, nil
	}
	return runtime.NewNumber(f), nil
}

func globalIsNaN(c *runtime.NativeCall) (runtime.Value, error) {
	return runtime.NewBool(math.IsNaN(c.Heap.ToNumber(c.Arg(0)))), nil
}

func globalIsFinite(c *runtime.NativeCall) (runtime.Value, error) {
	n := c.Heap.ToNumber(c.Arg(0))
	return runtime.NewBool(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
}
