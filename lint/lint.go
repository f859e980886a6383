// Package lint reports constructs the visualizer cannot step through and
// common mistakes in programs written for it.
package lint

import (
	"errors"
	"sort"

	"github.com/example/jsviz/ast"
	"github.com/example/jsviz/parser"
	"github.com/example/jsviz/token"
)

// Severity of a diagnostic. Errors are restricted syntax or parse
// failures; warnings are advisory.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Diagnostic is one finding. Lines and columns are 1-based.
type Diagnostic struct {
	Rule      string   `json:"rule" yaml:"rule"`
	Severity  Severity `json:"severity" yaml:"severity"`
	Line      int      `json:"line" yaml:"line"`
	Column    int      `json:"column" yaml:"column"`
	EndLine   int      `json:"endLine,omitempty" yaml:"endLine,omitempty"`
	EndColumn int      `json:"endColumn,omitempty" yaml:"endColumn,omitempty"`
	Message   string   `json:"message" yaml:"message"`
}

// Lint parses source and runs every rule. A source that does not parse
// yields its parse error only.
func Lint(source string) []Diagnostic {
	prog, errs := parser.New(source).ParseProgram()
	if len(errs) > 0 {
		return parseDiagnostics(errs)
	}
	return Check(prog)
}

// Check runs every rule over a parsed program.
func Check(prog *ast.Program) []Diagnostic {
	return run(prog, restrictedRules, hygieneRules)
}

// Restricted runs only the rules for syntax the stepper rejects.
func Restricted(prog *ast.Program) []Diagnostic {
	return run(prog, restrictedRules)
}

func parseDiagnostics(errs []error) []Diagnostic {
	var out []Diagnostic
	for _, err := range errs {
		var pe *parser.Error
		if !errors.As(err, &pe) {
			out = append(out, Diagnostic{Rule: "parse", Line: 1, Column: 1, Message: err.Error()})
			continue
		}
		out = append(out, Diagnostic{
			Rule:      "parse",
			Line:      pe.Pos.Line,
			Column:    pe.Pos.Column + 1,
			EndLine:   pe.End.Line,
			EndColumn: pe.End.Column + 1,
			Message:   pe.Message,
		})
	}
	return out
}

func run(prog *ast.Program, sets ...[]rule) []Diagnostic {
	l := &linter{}
	for _, set := range sets {
		l.rules = append(l.rules, set...)
	}
	l.scopes = []map[string]bool{{}}
	l.decls = []map[string]int{declaredIn(prog)}
	ast.Walk(&walker{l: l}, prog)
	sort.SliceStable(l.diags, func(i, j int) bool {
		a, b := l.diags[i], l.diags[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return l.diags
}

type linter struct {
	rules []rule
	diags []Diagnostic
	// scopes holds the names declared so far in each enclosing function.
	scopes []map[string]bool
	// decls holds every name of each enclosing scope with the offset of
	// its declaration, -1 for parameters and implicit names.
	decls []map[string]int
}

// resolve finds the declaration offset of name in the enclosing scopes.
func (l *linter) resolve(name string) (int, bool) {
	for i := len(l.decls) - 1; i >= 0; i-- {
		if off, ok := l.decls[i][name]; ok {
			return off, true
		}
	}
	return 0, false
}

func (l *linter) report(r rule, n ast.Node, msg string) {
	loc := n.Location()
	l.diags = append(l.diags, Diagnostic{
		Rule:      r.name,
		Severity:  r.severity,
		Line:      loc.Start.Line,
		Column:    loc.Start.Column + 1,
		EndLine:   loc.End.Line,
		EndColumn: loc.End.Column + 1,
		Message:   msg,
	})
}

// walker keeps the ancestors of the visited node.
type walker struct {
	l     *linter
	stack []ast.Node
}

func (w *walker) Visit(n ast.Node) ast.Visitor {
	if n == nil {
		top := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]
		switch top.(type) {
		case ast.Function:
			w.l.scopes = w.l.scopes[:len(w.l.scopes)-1]
			w.l.decls = w.l.decls[:len(w.l.decls)-1]
		case *ast.CatchClause:
			w.l.decls = w.l.decls[:len(w.l.decls)-1]
		}
		return nil
	}
	var parent ast.Node
	if len(w.stack) > 0 {
		parent = w.stack[len(w.stack)-1]
	}
	for _, r := range w.l.rules {
		r.check(w.l, r, n, parent)
	}
	switch n := n.(type) {
	case ast.Function:
		w.l.scopes = append(w.l.scopes, map[string]bool{})
		w.l.decls = append(w.l.decls, functionScope(n))
	case *ast.CatchClause:
		decls := map[string]int{}
		if n.Param != nil {
			decls[n.Param.Name] = -1
		}
		w.l.decls = append(w.l.decls, decls)
	}
	w.stack = append(w.stack, n)
	return w
}

type rule struct {
	name     string
	severity Severity
	check    func(l *linter, r rule, n, parent ast.Node)
}

var restrictedRules = []rule{
	{"no-regexp", SeverityError, checkRegExp},
	{"no-try-catch", SeverityError, checkTryCatch},
	{"no-with", SeverityError, checkWith},
	{"no-getter-setter", SeverityError, checkGetterSetter},
	{"no-eval", SeverityError, checkEval},
}

var hygieneRules = []rule{
	{"eqeqeq", SeverityWarning, checkEqEqEq},
	{"no-labels", SeverityWarning, checkLabels},
	{"no-redeclare", SeverityWarning, checkRedeclare},
	{"no-sequences", SeverityWarning, checkSequences},
	{"no-sparse-arrays", SeverityWarning, checkSparseArrays},
	{"no-cond-assign", SeverityWarning, checkCondAssign},
	{"no-multi-assign", SeverityWarning, checkMultiAssign},
	{"no-restricted-globals", SeverityWarning, checkRestrictedGlobals},
	{"no-undef", SeverityWarning, checkUndef},
	{"no-use-before-define", SeverityWarning, checkUseBeforeDefine},
	{"no-global-assign", SeverityWarning, checkGlobalAssign},
}

func calleeName(n ast.Expression) string {
	if id, ok := n.(*ast.Identifier); ok {
		return id.Name
	}
	return ""
}

func checkRegExp(l *linter, r rule, n, _ ast.Node) {
	switch n := n.(type) {
	case *ast.RegExpLiteral:
		l.report(r, n, "The use of regular expressions is not allowed")
	case *ast.NewExpression:
		if calleeName(n.Callee) == "RegExp" {
			l.report(r, n, "The use of regular expressions is not allowed")
		}
	case *ast.CallExpression:
		if calleeName(n.Callee) == "RegExp" {
			l.report(r, n, "The use of regular expressions is not allowed")
		}
	}
}

func checkTryCatch(l *linter, r rule, n, _ ast.Node) {
	if _, ok := n.(*ast.TryStatement); ok {
		l.report(r, n, "The use of try/catch is not allowed")
	}
}

func checkWith(l *linter, r rule, n, _ ast.Node) {
	if _, ok := n.(*ast.WithStatement); ok {
		l.report(r, n, "The use of with is not allowed")
	}
}

func checkGetterSetter(l *linter, r rule, n, _ ast.Node) {
	if p, ok := n.(*ast.Property); ok && p.PropKind != ast.PropertyInit {
		l.report(r, n, "The use of getters and setters is not allowed")
	}
}

func checkEval(l *linter, r rule, n, _ ast.Node) {
	if c, ok := n.(*ast.CallExpression); ok && calleeName(c.Callee) == "eval" {
		l.report(r, n, "eval can be harmful")
	}
}

func checkEqEqEq(l *linter, r rule, n, _ ast.Node) {
	b, ok := n.(*ast.BinaryExpression)
	if !ok {
		return
	}
	switch b.Operator {
	case token.Equal:
		l.report(r, n, "Expected '===' and instead saw '=='")
	case token.NotEqual:
		l.report(r, n, "Expected '!==' and instead saw '!='")
	}
}

func checkLabels(l *linter, r rule, n, _ ast.Node) {
	if _, ok := n.(*ast.LabeledStatement); ok {
		l.report(r, n, "Unexpected labeled statement")
	}
}

func checkRedeclare(l *linter, r rule, n, _ ast.Node) {
	var id *ast.Identifier
	switch n := n.(type) {
	case *ast.VariableDeclarator:
		id = n.Name
	case *ast.FunctionDeclaration:
		id = n.Name
	default:
		return
	}
	scope := l.scopes[len(l.scopes)-1]
	if scope[id.Name] {
		l.report(r, id, "'"+id.Name+"' is already defined")
		return
	}
	scope[id.Name] = true
}

func checkSequences(l *linter, r rule, n, parent ast.Node) {
	if _, ok := n.(*ast.SequenceExpression); !ok {
		return
	}
	if f, ok := parent.(*ast.ForStatement); ok && (f.Init == n || f.Update == n) {
		return
	}
	l.report(r, n, "Unexpected use of comma operator")
}

func checkSparseArrays(l *linter, r rule, n, _ ast.Node) {
	a, ok := n.(*ast.ArrayLiteral)
	if !ok {
		return
	}
	for _, e := range a.Elements {
		if e == nil {
			l.report(r, n, "Unexpected comma in middle of array")
			return
		}
	}
}

func checkCondAssign(l *linter, r rule, n, _ ast.Node) {
	var test ast.Expression
	switch n := n.(type) {
	case *ast.IfStatement:
		test = n.Test
	case *ast.WhileStatement:
		test = n.Test
	case *ast.DoWhileStatement:
		test = n.Test
	case *ast.ForStatement:
		test = n.Test
	case *ast.ConditionalExpression:
		test = n.Test
	}
	if a, ok := test.(*ast.AssignmentExpression); ok {
		l.report(r, a, "Expected a conditional expression and instead saw an assignment")
	}
}

func checkMultiAssign(l *linter, r rule, n, _ ast.Node) {
	var right ast.Expression
	switch n := n.(type) {
	case *ast.AssignmentExpression:
		right = n.Right
	case *ast.VariableDeclarator:
		right = n.Init
	}
	if a, ok := right.(*ast.AssignmentExpression); ok {
		l.report(r, a, "Unexpected chained assignment")
	}
}

// restrictedGlobals are properties of the global object that programs
// should not touch directly.
var restrictedGlobals = map[string]bool{
	"window": true, "self": true, "constructor": true,
	"Function": true, "Object": true, "Array": true, "String": true,
	"Boolean": true, "Number": true, "Date": true, "RegExp": true,
	"Error": true, "EvalError": true, "RangeError": true, "ReferenceError": true,
	"SyntaxError": true, "TypeError": true, "URIError": true,
	"Math": true, "JSON": true, "eval": true,
	"parseInt": true, "parseFloat": true, "isNaN": true, "isFinite": true,
}

func checkRestrictedGlobals(l *linter, r rule, n, parent ast.Node) {
	id, ok := n.(*ast.Identifier)
	if !ok || !restrictedGlobals[id.Name] {
		return
	}
	switch p := parent.(type) {
	case *ast.MemberExpression:
		if p.Property == n && !p.Computed {
			return
		}
	case *ast.Property:
		if p.KeyNode == n {
			return
		}
	case *ast.VariableDeclarator, *ast.FunctionDeclaration, *ast.FunctionExpression,
		*ast.LabeledStatement, *ast.BreakStatement, *ast.ContinueStatement:
		return
	}
	l.report(r, n, "Unexpected use of '"+id.Name+"'")
}

// globals are the names the global object defines before a program runs,
// together with the host functions. All of them are read-only.
var globals = map[string]bool{
	"Object": true, "Function": true, "Array": true, "String": true,
	"Number": true, "Boolean": true, "Math": true,
	"Error": true, "TypeError": true, "ReferenceError": true, "RangeError": true,
	"SyntaxError": true, "EvalError": true, "URIError": true,
	"parseInt": true, "parseFloat": true, "isNaN": true, "isFinite": true,
	"undefined": true, "NaN": true, "Infinity": true,
	"input": true, "output": true,
}

// declaredIn returns the var and function declarations of the scope of
// node with the offset of each first declaration.
func declaredIn(node ast.Node) map[string]int {
	decls := map[string]int{}
	add := func(id *ast.Identifier) {
		if _, ok := decls[id.Name]; !ok {
			decls[id.Name] = id.Location().Start.Offset
		}
	}
	ast.Inspect(node, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.VariableDeclarator:
			add(n.Name)
		case *ast.FunctionDeclaration:
			add(n.Name)
			return false
		case *ast.FunctionExpression:
			return false
		}
		return true
	})
	return decls
}

func functionScope(f ast.Function) map[string]int {
	name, params, body := f.Signature()
	decls := declaredIn(body)
	for _, p := range params {
		decls[p.Name] = -1
	}
	if _, ok := decls["arguments"]; !ok {
		decls["arguments"] = -1
	}
	if _, expr := f.(*ast.FunctionExpression); expr && name != nil {
		if _, ok := decls[name.Name]; !ok {
			decls[name.Name] = -1
		}
	}
	return decls
}

// reference returns n as an identifier when it reads or writes a
// variable, as opposed to naming a property, a label or a declaration.
func reference(n, parent ast.Node) (*ast.Identifier, bool) {
	id, ok := n.(*ast.Identifier)
	if !ok {
		return nil, false
	}
	switch p := parent.(type) {
	case *ast.MemberExpression:
		if p.Property == n && !p.Computed {
			return nil, false
		}
	case *ast.Property:
		if p.KeyNode == n {
			return nil, false
		}
	case *ast.VariableDeclarator:
		if p.Name == id {
			return nil, false
		}
	case *ast.CatchClause:
		if p.Param == id {
			return nil, false
		}
	case ast.Function, *ast.LabeledStatement, *ast.BreakStatement, *ast.ContinueStatement:
		return nil, false
	}
	return id, true
}

func checkUndef(l *linter, r rule, n, parent ast.Node) {
	id, ok := reference(n, parent)
	if !ok || globals[id.Name] {
		return
	}
	if u, ok := parent.(*ast.UnaryExpression); ok && u.Operator == token.Typeof {
		return
	}
	if _, ok := l.resolve(id.Name); !ok {
		l.report(r, n, "'"+id.Name+"' is not defined")
	}
}

func checkUseBeforeDefine(l *linter, r rule, n, parent ast.Node) {
	id, ok := reference(n, parent)
	if !ok {
		return
	}
	off, ok := l.resolve(id.Name)
	if ok && off > id.Location().Start.Offset {
		l.report(r, n, "'"+id.Name+"' was used before it was defined")
	}
}

func checkGlobalAssign(l *linter, r rule, n, _ ast.Node) {
	var target ast.Expression
	switch n := n.(type) {
	case *ast.AssignmentExpression:
		target = n.Left
	case *ast.UpdateExpression:
		target = n.Argument
	default:
		return
	}
	id, ok := target.(*ast.Identifier)
	if !ok || !globals[id.Name] {
		return
	}
	if _, local := l.resolve(id.Name); !local {
		l.report(r, id, "Read-only global '"+id.Name+"' should not be modified")
	}
}
