package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/jsviz/parser"
)

func rules(diags []Diagnostic) []string {
	var out []string
	for _, d := range diags {
		out = append(out, d.Rule)
	}
	return out
}

func TestRestrictedSyntax(t *testing.T) {
	tests := []struct {
		source string
		rule   string
	}{
		{"var r = /ab+c/;", "no-regexp"},
		{"var r = new RegExp('a');", "no-regexp"},
		{"try { f(); } catch (e) {}", "no-try-catch"},
		{"with (o) { x; }", "no-with"},
		{"var o = { get x() { return 1; } };", "no-getter-setter"},
		{"eval('1');", "no-eval"},
	}
	for _, tt := range tests {
		prog, err := parser.Parse(tt.source)
		require.NoError(t, err, tt.source)
		diags := Restricted(prog)
		require.NotEmpty(t, diags, tt.source)
		assert.Equal(t, tt.rule, diags[0].Rule, tt.source)
		assert.Equal(t, SeverityError, diags[0].Severity, tt.source)
	}
}

func TestRestrictedIgnoresHygiene(t *testing.T) {
	prog, err := parser.Parse("var a = 1; var a = 2; if (a == 2) { a = (1, 2); }")
	require.NoError(t, err)
	assert.Empty(t, Restricted(prog))
}

func TestHygieneRules(t *testing.T) {
	tests := []struct {
		source string
		want   []string
	}{
		{"var a = 1; if (a == 1) {}", []string{"eqeqeq"}},
		{"var a; var a;", []string{"no-redeclare"}},
		{"function f() { var a; } var a;", nil},
		{"var a = (1, 2);", []string{"no-sequences"}},
		{"for (var i = 0, j = 0; i < 3; i++, j++) {}", nil},
		{"var a = [1, , 2];", []string{"no-sparse-arrays"}},
		{"var a; if (a = 1) {}", []string{"no-cond-assign"}},
		{"var a, b; a = b = 1;", []string{"no-multi-assign"}},
		{"outer: while (true) { break outer; }", []string{"no-labels"}},
		{"var n = Math.floor(1.5);", []string{"no-restricted-globals"}},
		{"var o = { Math: 1 }; o.Math = 2;", nil},
		{"var x = 1; x === 1;", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rules(Lint(tt.source)), tt.source)
	}
}

func TestScopeRules(t *testing.T) {
	tests := []struct {
		source string
		want   []string
	}{
		{"output(x);", []string{"no-undef"}},
		{"x++;", []string{"no-undef"}},
		{"output(x); var x = 10;", []string{"no-use-before-define"}},
		{"var x = 10; output(x);", nil},
		{"f(); function f() {}", []string{"no-use-before-define"}},
		{"function f(a) { return a + arguments.length + b; }", []string{"no-undef"}},
		{"function f() { return y; } var y = 1;", []string{"no-use-before-define"}},
		{"var f = function g(n) { return n ? g(n - 1) : 0; };", nil},
		{"var o = { k: 1 }; o.k = o.q;", nil},
		{"if (typeof z === 'undefined') {}", nil},
		{"var n = input() * 2; output(n, NaN, Infinity, undefined);", nil},
		{"output = 1;", []string{"no-global-assign"}},
		{"Infinity = 0;", []string{"no-global-assign"}},
		{"function f(output) { output = 1; }", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rules(Lint(tt.source)), tt.source)
	}
}

func TestScopeRulesAreWarnings(t *testing.T) {
	diags := Lint("output(later);\nmissing = 2;\nvar later;")
	require.Len(t, diags, 2)
	assert.Equal(t, Diagnostic{
		Rule: "no-use-before-define", Severity: SeverityWarning,
		Line: 1, Column: 8, EndLine: 1, EndColumn: 13,
		Message: "'later' was used before it was defined",
	}, diags[0])
	assert.Equal(t, "no-undef", diags[1].Rule)
	assert.Equal(t, SeverityWarning, diags[1].Severity)
	assert.Equal(t, "'missing' is not defined", diags[1].Message)
}

func TestParseErrorsBecomeDiagnostics(t *testing.T) {
	diags := Lint("var = 1;")
	require.Len(t, diags, 1)
	assert.Equal(t, "parse", diags[0].Rule)
	assert.Equal(t, 1, diags[0].Line)
	assert.NotEmpty(t, diags[0].Message)
}

func TestDiagnosticsAreOrderedAndOneBased(t *testing.T) {
	diags := Lint("var a = 1;\nif (a == 1) { a = (1, 2); }")
	require.Len(t, diags, 2)
	assert.Equal(t, Diagnostic{
		Rule: "eqeqeq", Severity: SeverityWarning,
		Line: 2, Column: 5, EndLine: 2, EndColumn: 11,
		Message: "Expected '===' and instead saw '=='",
	}, diags[0])
	assert.Equal(t, "no-sequences", diags[1].Rule)
}
