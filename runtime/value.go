package runtime

import (
	"math"
	"strconv"
	"strings"
)

// ValueType represents the type of a value.
type ValueType uint8

const (
	TypeUndefined ValueType = iota
	TypeNull
	TypeBoolean
	TypeNumber
	TypeString
	TypeObject
)

func (t ValueType) String() string {
	switch t {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// ObjectID is the stable identity of a heap object. Zero means none.
type ObjectID int64

// Value is a primitive or a reference into a Heap. Values are compared
// and copied by value; objects are shared through Ref.
type Value struct {
	Type   ValueType
	Bool   bool
	Number float64
	Str    string
	Ref    ObjectID
}

var (
	Undefined = Value{Type: TypeUndefined}
	Null      = Value{Type: TypeNull}
	True      = Value{Type: TypeBoolean, Bool: true}
	False     = Value{Type: TypeBoolean, Bool: false}
	NaN       = Value{Type: TypeNumber, Number: math.NaN()}
)

func NewNumber(n float64) Value {
	return Value{Type: TypeNumber, Number: n}
}

func NewString(s string) Value {
	return Value{Type: TypeString, Str: s}
}

func NewBool(b bool) Value {
	if b {
		return True
	}
	return False
}

func NewRef(id ObjectID) Value {
	return Value{Type: TypeObject, Ref: id}
}

func (v Value) IsObject() bool { return v.Type == TypeObject }

func (v Value) IsUndefined() bool { return v.Type == TypeUndefined }

func (v Value) IsNullish() bool { return v.Type == TypeUndefined || v.Type == TypeNull }

// ToBoolean implements the ECMAScript ToBoolean abstract operation.
func (v Value) ToBoolean() bool {
	switch v.Type {
	case TypeBoolean:
		return v.Bool
	case TypeNumber:
		return v.Number != 0 && !math.IsNaN(v.Number)
	case TypeString:
		return len(v.Str) > 0
	case TypeObject:
		return true
	}
	return false
}

// primitiveString converts a primitive. Objects need a Heap; see Heap.ToString.
func (v Value) primitiveString() string {
	switch v.Type {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case TypeNumber:
		return NumberToString(v.Number)
	case TypeString:
		return v.Str
	}
	return ""
}

// NumberToString formats n the way Number.prototype.toString does.
func NumberToString(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	// shortest round-trip digits and decimal exponent
	e := strconv.FormatFloat(n, 'e', -1, 64)
	mant, expPart, _ := strings.Cut(e, "e")
	digits := strings.Replace(mant, ".", "", 1)
	exp, _ := strconv.Atoi(expPart)
	k := len(digits)
	pos := exp + 1 // position of the decimal point relative to digits

	switch {
	case k <= pos && pos <= 21:
		return sign + digits + strings.Repeat("0", pos-k)
	case 0 < pos && pos <= 21:
		return sign + digits[:pos] + "." + digits[pos:]
	case -6 < pos && pos <= 0:
		return sign + "0." + strings.Repeat("0", -pos) + digits
	}
	expSign := "+"
	if pos-1 < 0 {
		expSign = "-"
	}
	absExp := pos - 1
	if absExp < 0 {
		absExp = -absExp
	}
	out := digits[:1]
	if k > 1 {
		out += "." + digits[1:]
	}
	return sign + out + "e" + expSign + strconv.Itoa(absExp)
}

// StringToNumber implements ToNumber applied to a string.
func StringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9') && c != '.' && c != 'e' && c != 'E' && c != '+' && c != '-' {
			return math.NaN()
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return n
		}
		return math.NaN()
	}
	return n
}

// ToInt32 implements the ECMAScript ToInt32 abstract operation.
func ToInt32(n float64) int32 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return int32(uint32(int64(math.Trunc(math.Mod(n, 4294967296)))))
}

// ToUint32 implements the ECMAScript ToUint32 abstract operation.
func ToUint32(n float64) uint32 {
	return uint32(ToInt32(n))
}

// ToInteger truncates towards zero; NaN becomes 0.
func ToInteger(n float64) float64 {
	if math.IsNaN(n) {
		return 0
	}
	return math.Trunc(n)
}

// StrictEquals implements ===. Objects are equal when they are the same
// heap object.
func StrictEquals(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case TypeUndefined, TypeNull:
		return true
	case TypeBoolean:
		return a.Bool == b.Bool
	case TypeNumber:
		return a.Number == b.Number
	case TypeString:
		return a.Str == b.Str
	case TypeObject:
		return a.Ref == b.Ref
	}
	return false
}
