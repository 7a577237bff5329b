package evaluator

import (
	"bytes"
	"lox/internal/ast"
	"lox/internal/diag"
	"lox/internal/object"
	"lox/internal/parser"
	"lox/internal/resolver"
	"strings"
	"testing"
	"time"
)

// testRun parses, resolves and interprets src on ev. Static errors fail the
// test; the runtime error, if any, is returned with the printed output.
func testRun(t *testing.T, ev *Evaluator, out *bytes.Buffer, src string) (string, error) {
	t.Helper()
	program, errs := parser.ParseSource(src)
	if errs.Len() > 0 {
		t.Fatalf("parse errors for %q: %v", src, errs.Messages())
	}
	if errs := resolver.New(ev).Resolve(program.Statements); errs.Len() > 0 {
		t.Fatalf("resolve errors for %q: %v", src, errs.Messages())
	}
	out.Reset()
	err := ev.Interpret(program.Statements)
	return out.String(), err
}

func testEval(t *testing.T, src string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	return testRun(t, New(&out), &out, src)
}

func lines(s ...string) string {
	if len(s) == 0 {
		return ""
	}
	return strings.Join(s, "\n") + "\n"
}

func TestPrintExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"print 1 + 2 * 3;", lines("7")},
		{"print (1 + 2) * 3;", lines("9")},
		{"print 7 / 2;", lines("3.5")},
		{"print -4 - -4;", lines("0")},
		{"print -0;", lines("-0")},
		{"print 0.1 + 0.2;", lines("0.30000000000000004")},
		{"print 1 / 0;", lines("Infinity")},
		{"print -1 / 0;", lines("-Infinity")},
		{`print "foo" + "bar";`, lines("foobar")},
		{"print 1 < 2;", lines("true")},
		{"print 2 <= 1;", lines("false")},
		{"print 3 >= 3;", lines("true")},
		{"print 1 == 1;", lines("true")},
		{`print "1" == 1;`, lines("false")},
		{"print nil == nil;", lines("true")},
		{"print nil != false;", lines("true")},
		{"print !nil;", lines("true")},
		{"print !0;", lines("false")},
		{"print nil;", lines("nil")},
		{`print nil or "yes";`, lines("yes")},
		{`print "first" or "second";`, lines("first")},
		{"print false and 1;", lines("false")},
		{"print 1 and 2;", lines("2")},
		{"print clock;", lines("<native fn>")},
		{"fun f() {} print f;", lines("<fn f>")},
		{"class A {} print A; print A();", lines("A", "A instance")},
	}

	for _, tt := range tests {
		got, err := testEval(t, tt.input)
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("%q: expected=%q, got=%q", tt.input, tt.expected, got)
		}
	}
}

func TestStatements(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"var a; print a;", lines("nil")},
		{"var a = 1; a = a + 1; print a;", lines("2")},
		{"var a = 1; var b = a = 3; print a; print b;", lines("3", "3")},
		{"if (1 > 2) print \"then\"; else print \"else\";", lines("else")},
		{"if (nil) print 1;", lines()},
		{"var i = 0; while (i < 3) { print i; i = i + 1; }", lines("0", "1", "2")},
		{"for (var i = 0; i < 3; i = i + 1) print i;", lines("0", "1", "2")},
		{"var a = 1; { var a = 2; print a; } print a;", lines("2", "1")},
		{"var a = 1; { a = 2; } print a;", lines("2")},
	}

	for _, tt := range tests {
		got, err := testEval(t, tt.input)
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("%q: expected=%q, got=%q", tt.input, tt.expected, got)
		}
	}
}

func TestFunctionsAndClosures(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"fun add(a, b) { return a + b; } print add(1, 2);", lines("3")},
		{"fun f() { return; } print f();", lines("nil")},
		{"fun f() { while (true) { return 1; } } print f();", lines("1")},
		{"fun fib(n) { if (n < 2) return n; return fib(n - 1) + fib(n - 2); } print fib(10);", lines("55")},
		{`fun makeCounter() {
  var i = 0;
  fun count() { i = i + 1; return i; }
  return count;
}
var c = makeCounter();
print c(); print c();
var d = makeCounter();
print d();`, lines("1", "2", "1")},
		{"fun outer() { var x = \"x\"; fun inner() { print x; } inner(); } outer();", lines("x")},
	}

	for _, tt := range tests {
		got, err := testEval(t, tt.input)
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("%q: expected=%q, got=%q", tt.input, tt.expected, got)
		}
	}
}

func TestClasses(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`class P { init(x) { this.x = x; } get() { return this.x; } }
var p = P(3); print p.get(); print p.x;`, lines("3", "3")},
		{`class P { init() { this.v = 1; return; } }
var p = P(); print p.v; print p.init();`, lines("1", "P instance")},
		{`class A { init(n) { this.n = n; } }
class B < A {}
print B(5).n;`, lines("5")},
		{`class A { say() { return "A"; } }
class B < A { say() { return "B" + super.say(); } }
print B().say();`, lines("BA")},
		{`class A { m() { return this; } }
var a = A(); var m = a.m; print m() == a;`, lines("true")},
		{`class A {} var a = A(); a.f = 1; a.f = a.f + 1; print a.f;`, lines("2")},
		{`class A { m() { return "method"; } }
var a = A(); a.m = "field"; print a.m;`, lines("field")},
		{`class A { get() { fun inner() { return this.v; } return inner; } }
var a = A(); a.v = "bound"; print a.get()();`, lines("bound")},
	}

	for _, tt := range tests {
		got, err := testEval(t, tt.input)
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("%q: expected=%q, got=%q", tt.input, tt.expected, got)
		}
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		input    string
		kind     diag.Kind
		message  string
		expected string
	}{
		{"print x;", diag.UndefinedVariable, "Undefined variable 'x'.\n[line 1]", ""},
		{"x = 1;", diag.UndefinedVariable, "Undefined variable 'x'.\n[line 1]", ""},
		{"class A {} print A().nope;", diag.UndefinedProperty, "Undefined property 'nope'.\n[line 1]", ""},
		{"\"str\"();", diag.NotCallable, "Can only call functions and classes.\n[line 1]", ""},
		{"fun add(a, b) { return a + b; }\nadd(1);", diag.Arity, "Expected 2 arguments but got 1.\n[line 2]", ""},
		{"class A { init(a) {} } A();", diag.Arity, "Expected 1 arguments but got 0.\n[line 1]", ""},
		{"var NotAClass = 1; class B < NotAClass {}", diag.InheritanceTypeError, "Superclass must be a class.\n[line 1]", ""},
		{"print -\"a\";", diag.TypeMismatch, "Operand must be a number.\n[line 1]", ""},
		{"print 1 < \"a\";", diag.TypeMismatch, "Operands must be numbers.\n[line 1]", ""},
		{"print 1 + \"a\";", diag.TypeMismatch, "Operands must be two numbers or two strings.\n[line 1]", ""},
		{"print 1; print nil.x;", diag.TypeMismatch, "Only instances have properties.\n[line 1]", lines("1")},
		{"var a = 1; a.x = 2;", diag.TypeMismatch, "Only instances have fields.\n[line 1]", ""},
		{"class A {} class B < A { m() { return super.nope; } } B().m();", diag.UndefinedProperty, "Undefined property 'nope'.\n[line 1]", ""},
		{"print 1;\nprint 2 * nil;\nprint 3;", diag.TypeMismatch, "Operands must be numbers.\n[line 2]", lines("1")},
	}

	for _, tt := range tests {
		got, err := testEval(t, tt.input)
		if err == nil {
			t.Errorf("%q: expected a runtime error", tt.input)
			continue
		}
		if !diag.Is(err, tt.kind) {
			t.Errorf("%q: expected kind %s, got %v", tt.input, tt.kind, err)
		}
		if err.Error() != tt.message {
			t.Errorf("%q: expected message %q, got %q", tt.input, tt.message, err.Error())
		}
		if got != tt.expected {
			t.Errorf("%q: expected output %q before the error, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestEndToEndScenarios(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"closure capture", `var a = "global";
{ fun show() { print a; } show(); var a = "block"; show(); }`, lines("global", "global")},
		{"initializer returns instance", `class Foo { init() { return; } }
print Foo();`, lines("Foo instance")},
		{"super dispatch", `class A { m() { print "A"; } }
class B < A { m() { print "B"; super.m(); } }
class C < B { m() { print "C"; super.m(); } }
C().m();`, lines("C", "B", "A")},
	}

	for _, tt := range tests {
		got, err := testEval(t, tt.input)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("%s: expected=%q, got=%q", tt.name, tt.expected, got)
		}
	}
}

func TestStaticErrorsStopEvaluation(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"print 1; { var a = a; }", "Can't read local variable in its own initializer."},
		{"print 1; fun f() { var x = 1; var x = 2; }", "Already variable with this name in this scope."},
	}

	for _, tt := range tests {
		program, perrs := parser.ParseSource(tt.input)
		if perrs.Len() > 0 {
			t.Fatalf("%q: parse errors %v", tt.input, perrs.Messages())
		}
		var out bytes.Buffer
		ev := New(&out)
		errs := resolver.New(ev).Resolve(program.Statements)
		if errs.Len() != 1 || errs.Errors()[0].Message != tt.expected {
			t.Fatalf("%q: expected %q, got %v", tt.input, tt.expected, errs.Messages())
		}
		// the host never interprets a program with static errors
		if out.Len() != 0 {
			t.Errorf("%q: output produced during resolution: %q", tt.input, out.String())
		}
	}
}

func TestDeterministicAcrossFreshEvaluators(t *testing.T) {
	input := `class A { init(n) { this.n = n; } twice() { return this.n * 2; } }
var xs = 0;
for (var i = 0; i < 5; i = i + 1) { xs = xs + A(i).twice(); }
print xs;
print undefinedName;`

	first, firstErr := testEval(t, input)
	second, secondErr := testEval(t, input)
	if first != second {
		t.Errorf("outputs differ: %q vs %q", first, second)
	}
	if firstErr == nil || secondErr == nil || firstErr.Error() != secondErr.Error() {
		t.Errorf("errors differ: %v vs %v", firstErr, secondErr)
	}
	if first != lines("20") {
		t.Errorf("unexpected output %q", first)
	}
}

func TestGlobalsPersistAcrossInterpret(t *testing.T) {
	var out bytes.Buffer
	ev := New(&out)

	if _, err := testRun(t, ev, &out, "var a = 1; fun inc() { a = a + 1; }"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := testRun(t, ev, &out, "print missing;"); err == nil {
		t.Fatalf("expected runtime error")
	}
	got, err := testRun(t, ev, &out, "inc(); print a;")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got != lines("2") {
		t.Errorf("expected 2, got %q", got)
	}
	if len(ev.envStack) != 1 || ev.CurrentEnv() != ev.Globals() {
		t.Errorf("environment stack not restored to globals after a failed run")
	}
}

// Every resolved slot is read through GetAt, which panics on a miss, so a
// clean run shows each recorded distance lands on its binding.
func TestResolvedDistancesHitBindings(t *testing.T) {
	input := `var g = 1;
fun outer(p) {
  var l = p;
  {
    var b = l;
    fun inner() { return b + l + p + g; }
    return inner();
  }
}
class A { init() { this.v = outer(2); } }
class B < A { init() { super.init(); print this.v; } }
B();`

	var out bytes.Buffer
	ev := New(&out)
	program, _ := parser.ParseSource(input)
	if errs := resolver.New(ev).Resolve(program.Statements); errs.Len() > 0 {
		t.Fatalf("resolve errors %v", errs.Messages())
	}

	for expr, depth := range ev.locals {
		name := ""
		switch e := expr.(type) {
		case *ast.Variable:
			name = e.Name.Lexeme
		case *ast.Assign:
			name = e.Name.Lexeme
		case *ast.This:
			name = "this"
		case *ast.Super:
			name = "super"
		}
		if name == "" || depth < 0 {
			t.Errorf("unexpected resolution %T at depth %d", expr, depth)
		}
	}

	if err := ev.Interpret(program.Statements); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if out.String() != lines("7") {
		t.Errorf("expected 7, got %q", out.String())
	}
}

func TestClockBuiltin(t *testing.T) {
	fixed := time.Unix(1700000000, 500000000)
	var out bytes.Buffer
	ev := New(&out, WithClock(func() time.Time { return fixed }))

	got, err := testRun(t, ev, &out, "print clock();")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got != lines("1700000000.5") {
		t.Errorf("unexpected clock output %q", got)
	}
}

func TestWithGlobal(t *testing.T) {
	var out bytes.Buffer
	ev := New(&out, WithGlobal("answer", &object.Number{Value: 42}))

	got, err := testRun(t, ev, &out, "print answer;")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got != lines("42") {
		t.Errorf("unexpected output %q", got)
	}
}
