package runtime

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Values encode as short tagged arrays so that NaN and the infinities
// survive a JSON round trip:
//
//	["u"] ["z"] ["b",true] ["n","1.5"] ["s","x"] ["o",3]
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Type {
	case TypeUndefined:
		return []byte(`["u"]`), nil
	case TypeNull:
		return []byte(`["z"]`), nil
	case TypeBoolean:
		return json.Marshal([]any{"b", v.Bool})
	case TypeNumber:
		return json.Marshal([]any{"n", formatFloat(v.Number)})
	case TypeString:
		return json.Marshal([]any{"s", v.Str})
	case TypeObject:
		return json.Marshal([]any{"o", v.Ref})
	}
	return nil, fmt.Errorf("runtime: cannot encode value type %d", v.Type)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) == 0 {
		return fmt.Errorf("runtime: empty value encoding")
	}
	var tag string
	if err := json.Unmarshal(parts[0], &tag); err != nil {
		return err
	}
	arg := func(dst any) error {
		if len(parts) != 2 {
			return fmt.Errorf("runtime: value %q needs one argument", tag)
		}
		return json.Unmarshal(parts[1], dst)
	}
	switch tag {
	case "u":
		*v = Undefined
	case "z":
		*v = Null
	case "b":
		var b bool
		if err := arg(&b); err != nil {
			return err
		}
		*v = NewBool(b)
	case "n":
		var s string
		if err := arg(&s); err != nil {
			return err
		}
		n, err := parseFloat(s)
		if err != nil {
			return err
		}
		*v = NewNumber(n)
	case "s":
		var s string
		if err := arg(&s); err != nil {
			return err
		}
		*v = NewString(s)
	case "o":
		var id ObjectID
		if err := arg(&id); err != nil {
			return err
		}
		*v = NewRef(id)
	default:
		return fmt.Errorf("runtime: unknown value tag %q", tag)
	}
	return nil
}

func formatFloat(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "+Inf"
	case math.IsInf(n, -1):
		return "-Inf"
	case n == 0 && math.Signbit(n):
		return "-0"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func parseFloat(s string) (float64, error) {
	switch s {
	case "NaN":
		return math.NaN(), nil
	case "-0":
		return math.Copysign(0, -1), nil
	}
	return strconv.ParseFloat(s, 64)
}

type heapJSON struct {
	Next       ObjectID            `json:"next"`
	Objects    []*Object           `json:"objects"`
	Scopes     []*Scope            `json:"scopes"`
	Intrinsics map[string]ObjectID `json:"intrinsics"`
}

// MarshalJSON writes the heap in id order. Equal heaps produce equal
// bytes.
func (h *Heap) MarshalJSON() ([]byte, error) {
	out := heapJSON{
		Next:       h.next,
		Objects:    make([]*Object, 0, len(h.objects)),
		Scopes:     make([]*Scope, 0, len(h.scopes)),
		Intrinsics: h.intrinsics,
	}
	for _, id := range sortedIDs(h.objects) {
		out.Objects = append(out.Objects, h.objects[id])
	}
	for _, id := range sortedIDs(h.scopes) {
		out.Scopes = append(out.Scopes, h.scopes[id])
	}
	return json.Marshal(out)
}

func (h *Heap) UnmarshalJSON(data []byte) error {
	var in heapJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*h = *NewHeap()
	h.next = in.Next
	for _, obj := range in.Objects {
		if obj.ID <= 0 || obj.ID >= in.Next {
			return fmt.Errorf("runtime: object id %d out of range", obj.ID)
		}
		h.objects[obj.ID] = obj
	}
	for _, s := range in.Scopes {
		if h.objects[s.ID] == nil {
			return fmt.Errorf("runtime: scope %d has no bindings object", s.ID)
		}
		h.scopes[s.ID] = s
	}
	for name, id := range in.Intrinsics {
		h.intrinsics[name] = id
	}
	return nil
}
