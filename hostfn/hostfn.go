// Package hostfn provides the host functions programs use for input and
// output.
package hostfn

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/example/jsviz/runtime"
	"github.com/example/jsviz/visualizer"
)

// InspectDepth is how many levels of nested arrays and objects Inspect
// shows.
const InspectDepth = 3

// InputPrompt is the question asked by Input.
const InputPrompt = "Enter a number:"

// Output logs its first argument the way Node's util.inspect shows it.
// Numbers are rounded to 6 decimals.
func Output() visualizer.HostFunction {
	return visualizer.HostFunction{
		Name: "output",
		Fn: func(log func(string), args ...any) (any, error) {
			var content any
			if len(args) > 0 {
				content = args[0]
			}
			if n, ok := content.(float64); ok {
				content = round6(n)
			}
			log(Inspect(content))
			return nil, nil
		},
	}
}

// Input asks prompt for a number. The answer is converted like Number()
// does, so anything unparsable is NaN.
func Input(prompt func(question string) (string, error)) visualizer.HostFunction {
	return visualizer.HostFunction{
		Name: "input",
		Fn: func(log func(string), args ...any) (any, error) {
			answer, err := prompt(InputPrompt)
			if err != nil {
				return nil, err
			}
			return runtime.StringToNumber(answer), nil
		},
	}
}

func round6(n float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(n, 'f', 6, 64), 64)
	if err != nil {
		return n
	}
	return r
}

// Inspect formats a host value.
func Inspect(x any) string {
	return inspect(x, 0)
}

var identifierKey = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\t", `\t`, "\r", `\r`)
	return "'" + r.Replace(s) + "'"
}

func inspect(x any, level int) string {
	switch x := x.(type) {
	case nil:
		return "undefined"
	case visualizer.NullValue:
		return "null"
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return runtime.NumberToString(x)
	case string:
		return quote(x)
	case visualizer.Function:
		if x.Name == "" {
			return "[Function (anonymous)]"
		}
		return "[Function: " + x.Name + "]"
	case []any:
		if len(x) == 0 {
			return "[]"
		}
		if level > InspectDepth {
			return "[Array]"
		}
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = inspect(e, level+1)
		}
		return group("[", parts, "]")
	case *visualizer.Object:
		if len(x.Keys) == 0 {
			return "{}"
		}
		if level > InspectDepth {
			return "[Object]"
		}
		parts := make([]string, len(x.Keys))
		for i, k := range x.Keys {
			key := k
			if !identifierKey.MatchString(k) {
				key = quote(k)
			}
			parts[i] = key + ": " + inspect(x.Fields[k], level+1)
		}
		return group("{", parts, "}")
	}
	return "[unknown]"
}

// group joins parts on one line, or one per line when that gets long.
func group(open string, parts []string, close string) string {
	length := 0
	for _, p := range parts {
		length += len(p) + 1
		if strings.Contains(p, "\n") {
			length += 60
		}
	}
	if length > 60 {
		return open + " " + strings.Join(parts, ",\n  ") + " " + close
	}
	return open + " " + strings.Join(parts, ", ") + " " + close
}
