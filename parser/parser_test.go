package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/example/jsviz/ast"
	"github.com/example/jsviz/token"
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := New(input)
	prog, errs := p.ParseProgram()
	if len(errs) > 0 {
		for _, e := range errs {
			t.Errorf("parser error: %s", e)
		}
		t.FailNow()
	}
	return prog
}

func expectStmtCount(t *testing.T, prog *ast.Program, n int) {
	t.Helper()
	if len(prog.Body) != n {
		t.Fatalf("expected %d statements, got %d", n, len(prog.Body))
	}
}

// expr parses input as a single expression statement.
func expr(t *testing.T, input string) ast.Expression {
	t.Helper()
	prog := parse(t, input)
	expectStmtCount(t, prog, 1)
	stmt, ok := prog.Body[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected ExpressionStatement, got %T", prog.Body[0])
	}
	return stmt.Expression
}

// render prints an expression fully parenthesized.
func render(e ast.Expression) string {
	switch e := e.(type) {
	case *ast.Identifier:
		return e.Name
	case *ast.NumberLiteral:
		return e.Raw
	case *ast.StringLiteral:
		return fmt.Sprintf("%q", e.Value)
	case *ast.BinaryExpression:
		return "(" + render(e.Left) + " " + e.Operator.String() + " " + render(e.Right) + ")"
	case *ast.LogicalExpression:
		return "(" + render(e.Left) + " " + e.Operator.String() + " " + render(e.Right) + ")"
	case *ast.AssignmentExpression:
		return "(" + render(e.Left) + " " + e.Operator.String() + " " + render(e.Right) + ")"
	case *ast.UnaryExpression:
		sep := ""
		if e.Operator == token.Typeof || e.Operator == token.Void || e.Operator == token.Delete {
			sep = " "
		}
		return "(" + e.Operator.String() + sep + render(e.Argument) + ")"
	case *ast.UpdateExpression:
		if e.Prefix {
			return "(" + e.Operator.String() + render(e.Argument) + ")"
		}
		return "(" + render(e.Argument) + e.Operator.String() + ")"
	case *ast.ConditionalExpression:
		return "(" + render(e.Test) + " ? " + render(e.Consequent) + " : " + render(e.Alternate) + ")"
	case *ast.CallExpression:
		return render(e.Callee) + "(" + renderList(e.Arguments) + ")"
	case *ast.NewExpression:
		return "new " + render(e.Callee) + "(" + renderList(e.Arguments) + ")"
	case *ast.MemberExpression:
		if e.Computed {
			return render(e.Object) + "[" + render(e.Property) + "]"
		}
		return render(e.Object) + "." + render(e.Property)
	case *ast.SequenceExpression:
		return "(" + renderList(e.Expressions) + ")"
	case *ast.ThisExpression:
		return "this"
	}
	return fmt.Sprintf("%T", e)
}

func renderList(list []ast.Expression) string {
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = render(e)
	}
	return strings.Join(parts, ", ")
}

// ---------- Declarations ----------

func TestVarDeclaration(t *testing.T) {
	prog := parse(t, `var x = 1;`)
	expectStmtCount(t, prog, 1)
	decl, ok := prog.Body[0].(*ast.VariableDeclaration)
	if !ok {
		t.Fatalf("expected VariableDeclaration, got %T", prog.Body[0])
	}
	if len(decl.Declarations) != 1 {
		t.Fatalf("expected 1 declarator, got %d", len(decl.Declarations))
	}
	if decl.Declarations[0].Name.Name != "x" {
		t.Errorf("expected x, got %s", decl.Declarations[0].Name.Name)
	}
	lit, ok := decl.Declarations[0].Init.(*ast.NumberLiteral)
	if !ok || lit.Value != 1 {
		t.Errorf("expected initializer 1, got %#v", decl.Declarations[0].Init)
	}
}

func TestMultipleDeclarators(t *testing.T) {
	prog := parse(t, `var a, b = 2, c;`)
	decl := prog.Body[0].(*ast.VariableDeclaration)
	if len(decl.Declarations) != 3 {
		t.Fatalf("expected 3 declarators, got %d", len(decl.Declarations))
	}
	if decl.Declarations[0].Init != nil || decl.Declarations[2].Init != nil {
		t.Errorf("expected a and c without initializer")
	}
	if decl.Declarations[1].Init == nil {
		t.Errorf("expected b to have an initializer")
	}
}

func TestFunctionDeclaration(t *testing.T) {
	prog := parse(t, `function add(a, b) { return a + b; }`)
	fn, ok := prog.Body[0].(*ast.FunctionDeclaration)
	if !ok {
		t.Fatalf("expected FunctionDeclaration, got %T", prog.Body[0])
	}
	name, params, body := fn.Signature()
	if name.Name != "add" {
		t.Errorf("expected add, got %s", name.Name)
	}
	if len(params) != 2 || params[0].Name != "a" || params[1].Name != "b" {
		t.Errorf("unexpected params %v", params)
	}
	if len(body.Body) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(body.Body))
	}
	ret := body.Body[0].(*ast.ReturnStatement)
	if got := render(ret.Argument); got != "(a + b)" {
		t.Errorf("expected (a + b), got %s", got)
	}
}

func TestFunctionExpression(t *testing.T) {
	e := expr(t, `(function fact(n) { return n; });`)
	fn, ok := e.(*ast.FunctionExpression)
	if !ok {
		t.Fatalf("expected FunctionExpression, got %T", e)
	}
	if fn.Name == nil || fn.Name.Name != "fact" {
		t.Errorf("expected name fact")
	}

	e = expr(t, `(function () {});`)
	if e.(*ast.FunctionExpression).Name != nil {
		t.Errorf("expected an anonymous function")
	}
}

// ---------- Literals ----------

func TestLiterals(t *testing.T) {
	tests := []struct {
		input string
		check func(ast.Expression) bool
	}{
		{"42;", func(e ast.Expression) bool { l, ok := e.(*ast.NumberLiteral); return ok && l.Value == 42 }},
		{"0x10;", func(e ast.Expression) bool { l, ok := e.(*ast.NumberLiteral); return ok && l.Value == 16 }},
		{".5;", func(e ast.Expression) bool { l, ok := e.(*ast.NumberLiteral); return ok && l.Value == 0.5 }},
		{"'str';", func(e ast.Expression) bool { l, ok := e.(*ast.StringLiteral); return ok && l.Value == "str" }},
		{"true;", func(e ast.Expression) bool { l, ok := e.(*ast.BooleanLiteral); return ok && l.Value }},
		{"false;", func(e ast.Expression) bool { l, ok := e.(*ast.BooleanLiteral); return ok && !l.Value }},
		{"null;", func(e ast.Expression) bool { _, ok := e.(*ast.NullLiteral); return ok }},
		{"this;", func(e ast.Expression) bool { _, ok := e.(*ast.ThisExpression); return ok }},
		{"/a+b/g;", func(e ast.Expression) bool { l, ok := e.(*ast.RegExpLiteral); return ok && l.Raw == "/a+b/g" }},
	}
	for _, tt := range tests {
		if e := expr(t, tt.input); !tt.check(e) {
			t.Errorf("%s: unexpected %#v", tt.input, e)
		}
	}
}

func TestArrayLiteral(t *testing.T) {
	tests := []struct {
		input string
		holes []bool
	}{
		{"[];", nil},
		{"[1, 2];", []bool{false, false}},
		{"[1, , 2];", []bool{false, true, false}},
		{"[, ];", []bool{true}},
		{"[1, ];", []bool{false}},
	}
	for _, tt := range tests {
		arr, ok := expr(t, tt.input).(*ast.ArrayLiteral)
		if !ok {
			t.Fatalf("%s: expected ArrayLiteral", tt.input)
		}
		if len(arr.Elements) != len(tt.holes) {
			t.Errorf("%s: expected %d elements, got %d", tt.input, len(tt.holes), len(arr.Elements))
			continue
		}
		for i, hole := range tt.holes {
			if (arr.Elements[i] == nil) != hole {
				t.Errorf("%s: element %d hole=%v", tt.input, i, arr.Elements[i] == nil)
			}
		}
	}
}

func TestObjectLiteral(t *testing.T) {
	obj, ok := expr(t, `({a: 1, 'b c': 2, 3: x, if: 4, get d() { return 1; }, set d(v) {}});`).(*ast.ObjectLiteral)
	if !ok {
		t.Fatalf("expected ObjectLiteral")
	}
	want := []struct {
		key  string
		kind ast.PropertyKind
	}{
		{"a", ast.PropertyInit},
		{"b c", ast.PropertyInit},
		{"3", ast.PropertyInit},
		{"if", ast.PropertyInit},
		{"d", ast.PropertyGet},
		{"d", ast.PropertySet},
	}
	if len(obj.Properties) != len(want) {
		t.Fatalf("expected %d properties, got %d", len(want), len(obj.Properties))
	}
	for i, w := range want {
		prop := obj.Properties[i]
		if prop.Key != w.key || prop.PropKind != w.kind {
			t.Errorf("property %d: expected %q/%d, got %q/%d", i, w.key, w.kind, prop.Key, prop.PropKind)
		}
	}
	if _, ok := obj.Properties[4].Value.(*ast.FunctionExpression); !ok {
		t.Errorf("expected getter to be a function, got %T", obj.Properties[4].Value)
	}
}

// ---------- Expressions ----------

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"1 + 2 * 3;", "(1 + (2 * 3))"},
		{"1 - 2 - 3;", "((1 - 2) - 3)"},
		{"a || b && c;", "(a || (b && c))"},
		{"a | b ^ c & d;", "(a | (b ^ (c & d)))"},
		{"a < b === c;", "((a < b) === c)"},
		{"a << 1 + 2;", "(a << (1 + 2))"},
		{"a in b && c instanceof d;", "((a in b) && (c instanceof d))"},
		{"a = b = c;", "(a = (b = c))"},
		{"x += y * 2;", "(x += (y * 2))"},
		{"!a + -b;", "((!a) + (-b))"},
		{"typeof a === 'x';", `((typeof a) === "x")`},
		{"a++ + ++b;", "((a++) + (++b))"},
		{"a ? b : c ? d : e;", "(a ? b : (c ? d : e))"},
		{"a = b ? c : d;", "(a = (b ? c : d))"},
		{"a, b = 1;", "(a, (b = 1))"},
		{"(1 + 2) * 3;", "((1 + 2) * 3)"},
	}
	for _, tt := range tests {
		if got := render(expr(t, tt.input)); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.input, tt.want, got)
		}
	}
}

func TestCallsAndMembers(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"f();", "f()"},
		{"a.b[c](d, e);", "a.b[c](d, e)"},
		{"a.if.new;", "a.if.new"},
		{"f(1)(2);", "f(1)(2)"},
		{"new F;", "new F()"},
		{"new F(1).g;", "new F(1).g"},
		{"new a.B(1);", "new a.B(1)"},
		{"new new F()();", "new new F()()"},
	}
	for _, tt := range tests {
		if got := render(expr(t, tt.input)); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.input, tt.want, got)
		}
	}
}

// ---------- Statements ----------

func TestIfElse(t *testing.T) {
	prog := parse(t, `if (a) b(); else if (c) d(); else { e(); }`)
	stmt := prog.Body[0].(*ast.IfStatement)
	inner, ok := stmt.Alternate.(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected else-if, got %T", stmt.Alternate)
	}
	if _, ok := inner.Alternate.(*ast.BlockStatement); !ok {
		t.Errorf("expected final else block, got %T", inner.Alternate)
	}
}

func TestLoops(t *testing.T) {
	prog := parse(t, `
for (var i = 0; i < 3; i++) {}
for (;;) { break; }
for (var k in o) {}
for (k in o);
while (a) { continue; }
do { a--; } while (a > 0);
`)
	expectStmtCount(t, prog, 6)
	f := prog.Body[0].(*ast.ForStatement)
	if _, ok := f.Init.(*ast.VariableDeclaration); !ok {
		t.Errorf("expected var init, got %T", f.Init)
	}
	if render(f.Test) != "(i < 3)" || render(f.Update) != "(i++)" {
		t.Errorf("unexpected for header %s; %s", render(f.Test), render(f.Update))
	}
	empty := prog.Body[1].(*ast.ForStatement)
	if empty.Init != nil || empty.Test != nil || empty.Update != nil {
		t.Errorf("expected an empty for header")
	}
	if _, ok := prog.Body[2].(*ast.ForInStatement).Left.(*ast.VariableDeclaration); !ok {
		t.Errorf("expected for-in with var")
	}
	if _, ok := prog.Body[3].(*ast.ForInStatement).Left.(*ast.Identifier); !ok {
		t.Errorf("expected for-in with identifier")
	}
	if _, ok := prog.Body[4].(*ast.WhileStatement); !ok {
		t.Errorf("expected while, got %T", prog.Body[4])
	}
	if _, ok := prog.Body[5].(*ast.DoWhileStatement); !ok {
		t.Errorf("expected do-while, got %T", prog.Body[5])
	}
}

func TestSwitchStatement(t *testing.T) {
	prog := parse(t, `switch (x) { case 1: a(); break; case 2: default: b(); }`)
	sw := prog.Body[0].(*ast.SwitchStatement)
	if len(sw.Cases) != 3 {
		t.Fatalf("expected 3 cases, got %d", len(sw.Cases))
	}
	if len(sw.Cases[0].Consequent) != 2 || len(sw.Cases[1].Consequent) != 0 {
		t.Errorf("unexpected consequents")
	}
	if sw.Cases[2].Test != nil {
		t.Errorf("expected default case")
	}
}

func TestDiagnosedStatementsParse(t *testing.T) {
	prog := parse(t, `
try { a(); } catch (e) { b(e); } finally { c(); }
with (o) { d(); }
outer: for (;;) { break outer; }
`)
	expectStmtCount(t, prog, 3)
	try := prog.Body[0].(*ast.TryStatement)
	if try.Handler == nil || try.Handler.Param.Name != "e" || try.Finalizer == nil {
		t.Errorf("unexpected try statement %#v", try)
	}
	if _, ok := prog.Body[1].(*ast.WithStatement); !ok {
		t.Errorf("expected with, got %T", prog.Body[1])
	}
	labeled := prog.Body[2].(*ast.LabeledStatement)
	if labeled.Label.Name != "outer" {
		t.Errorf("expected label outer, got %s", labeled.Label.Name)
	}
}

func TestAutomaticSemicolonInsertion(t *testing.T) {
	prog := parse(t, "var a = 1\nvar b = 2\na\n++b\nfunction f() { return\n1 }")
	expectStmtCount(t, prog, 5)
	upd := prog.Body[3].(*ast.ExpressionStatement).Expression.(*ast.UpdateExpression)
	if !upd.Prefix {
		t.Errorf("expected ++ to bind to b")
	}
	ret := prog.Body[4].(*ast.FunctionDeclaration).Body.Body[0].(*ast.ReturnStatement)
	if ret.Argument != nil {
		t.Errorf("expected return without argument")
	}
}

// ---------- Spans and ids ----------

func TestSpans(t *testing.T) {
	prog := parse(t, "var x = 1;\nfoo(x);")
	stmt := prog.Body[1].(*ast.ExpressionStatement)
	if got := prog.Text(stmt); got != "foo(x);" {
		t.Errorf("statement text: got %q", got)
	}
	call := stmt.Expression.(*ast.CallExpression)
	if got := prog.Text(call); got != "foo(x)" {
		t.Errorf("call text: got %q", got)
	}
	loc := call.Location()
	if loc.Start != (token.Position{Offset: 11, Line: 2, Column: 0}) || loc.End != (token.Position{Offset: 17, Line: 2, Column: 6}) {
		t.Errorf("call span: got %v-%v", loc.Start, loc.End)
	}
	if got := prog.Text(prog.Body[0]); got != "var x = 1;" {
		t.Errorf("declaration text: got %q", got)
	}
}

func TestNodeNumbering(t *testing.T) {
	p := New("a + b;", WithSourceName("lib"), WithFirstID(100))
	prog, errs := p.ParseProgram()
	if len(errs) > 0 {
		t.Fatalf("unexpected errors %v", errs)
	}
	var ids []ast.NodeID
	ast.Inspect(prog, func(n ast.Node) bool {
		loc := n.Location()
		if loc.Source != "lib" {
			t.Errorf("%s: expected source lib, got %q", n.Kind(), loc.Source)
		}
		ids = append(ids, loc.ID)
		return true
	})
	// Program, ExpressionStatement, BinaryExpression, a, b
	if len(ids) != 5 {
		t.Fatalf("expected 5 nodes, got %d", len(ids))
	}
	for i, id := range ids {
		if id != ast.NodeID(100+i) {
			t.Errorf("node %d: expected id %d, got %d", i, 100+i, id)
		}
	}
}

// ---------- Errors ----------

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"let a = 1;", "'let' declaration is not supported"},
		{"const a = 1;", "'const' declaration is not supported"},
		{"class A {}", "is not supported"},
		{"var f = x => x;", "arrow function is not supported"},
		{"var s = `t`;", "template literal is not supported"},
		{"a ** 2;", "exponentiation operator is not supported"},
		{"f(...a);", "spread is not supported"},
		{"var {a} = o;", "destructuring is not supported"},
		{"function f(a = 1) {}", "default parameter is not supported"},
		{"function* g() {}", "generator function is not supported"},
		{"({a});", "shorthand property is not supported"},
		{"({m() {}});", "method definition is not supported"},
		{"({[k]: 1});", "computed property is not supported"},
		{"for (var x of xs) {}", "for...of is not supported"},
		{"return 1;", "return outside of function"},
		{"break;", "illegal break statement"},
		{"continue;", "illegal continue statement"},
		{"function f(a, a) {}", "duplicate parameter name"},
		{"var x; delete x;", "delete of an unqualified identifier"},
		{"1 = 2;", "invalid assignment target"},
		{"1++;", "invalid update target"},
		{"throw\n1;", "illegal newline after throw"},
		{"try {}", "missing catch or finally after try"},
		{"switch (a) { default: default: }", "more than one default clause"},
		{"var a = 017;", "octal literals are not allowed"},
		{"var a = 'open", "unterminated string"},
		{"var = 1;", "expected identifier"},
		{"a b;", "expected ;"},
		{"f(;", "unexpected token"},
		{"(", "unexpected end of input"},
	}
	for _, tt := range tests {
		_, errs := New(tt.input).ParseProgram()
		if len(errs) == 0 {
			t.Errorf("%q: expected an error", tt.input)
			continue
		}
		if len(errs) != 1 {
			t.Errorf("%q: expected parsing to stop at the first error, got %d", tt.input, len(errs))
		}
		if !strings.Contains(errs[0].Error(), tt.want) {
			t.Errorf("%q: expected error containing %q, got %q", tt.input, tt.want, errs[0])
		}
	}
}

func TestErrorPosition(t *testing.T) {
	_, err := Parse("var a = 1;\nvar b = ;")
	if err == nil {
		t.Fatal("expected an error")
	}
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if pe.Pos.Line != 2 || pe.Pos.Column != 8 {
		t.Errorf("expected error at 2:8, got %s", pe.Pos)
	}
	if !strings.HasPrefix(err.Error(), "parse error at 2:8: ") {
		t.Errorf("unexpected message %q", err)
	}
}
