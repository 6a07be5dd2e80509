package mython

import (
	"errors"
	"regexp"
	"strings"
	"testing"
)

// run executes source against a fresh scope and returns everything it
// printed.
func run(t *testing.T, source string) string {
	t.Helper()
	output, _ := runScope(t, source)
	return output
}

func runScope(t *testing.T, source string) (string, Closure) {
	t.Helper()
	program, err := Compile(source)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	scope := make(Closure)
	var ctx BufferedContext
	if _, err := program.Run(scope, &ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return ctx.String(), scope
}

func runErr(t *testing.T, source string) error {
	t.Helper()
	program, err := Compile(source)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	var ctx BufferedContext
	_, err = program.Run(make(Closure), &ctx)
	if err == nil {
		t.Fatalf("expected runtime error, output was %q", ctx.String())
	}
	var runtimeErr *RuntimeError
	if !errors.As(err, &runtimeErr) {
		t.Fatalf("expected *RuntimeError, got %T: %v", err, err)
	}
	return err
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		expr string
		want string
	}{
		{"2 + 3", "5"},
		{"2 - 5", "-3"},
		{"4 * 6", "24"},
		{"7 / 2", "3"},
		{"-7 / 2", "-3"},
		{"7 + 3 * 2 - 4 / 2", "11"},
		{"(2 + 3) * 4", "20"},
		{"-(2 + 3)", "-5"},
		{"2 * -3", "-6"},
	}

	for _, tc := range cases {
		got := run(t, "print "+tc.expr+"\n")
		if got != tc.want+"\n" {
			t.Fatalf("%s: got %q, want %q", tc.expr, got, tc.want+"\n")
		}
	}
}

func TestDivisionByZero(t *testing.T) {
	err := runErr(t, "print 1 / 0\n")
	if !strings.Contains(err.Error(), "division by zero") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestAddTypeMismatch(t *testing.T) {
	err := runErr(t, "print 1 + 'x'\n")
	if !strings.Contains(err.Error(), "unsupported operand types for +") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestStringConcatenation(t *testing.T) {
	if got := run(t, "print 'x' + 'y'\n"); got != "xy\n" {
		t.Fatalf("got %q", got)
	}
}

func TestIfConditionMustBeBool(t *testing.T) {
	err := runErr(t, "if 1:\n  print 'x'\n")
	if !strings.Contains(err.Error(), "not a bool") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestIfWithoutElseYieldsNothing(t *testing.T) {
	got := run(t, "if False:\n  print 'x'\nprint 'after'\n")
	if got != "after\n" {
		t.Fatalf("got %q", got)
	}
}

func TestLogicalShortCircuit(t *testing.T) {
	// The right operand is an undefined variable: it must not be evaluated.
	if got := run(t, "print False and missing\n"); got != "False\n" {
		t.Fatalf("and: got %q", got)
	}
	if got := run(t, "print True or missing\n"); got != "True\n" {
		t.Fatalf("or: got %q", got)
	}
}

func TestLogicalOperandMustBeBool(t *testing.T) {
	err := runErr(t, "print 1 and True\n")
	if !strings.Contains(err.Error(), "not a bool") {
		t.Fatalf("and: %v", err)
	}

	err = runErr(t, "print False or 'x'\n")
	if !strings.Contains(err.Error(), "not a bool") {
		t.Fatalf("or: %v", err)
	}
}

func TestNot(t *testing.T) {
	if got := run(t, "print not True, not False\n"); got != "False True\n" {
		t.Fatalf("got %q", got)
	}

	err := runErr(t, "print not 1\n")
	if !strings.Contains(err.Error(), "not a bool") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestComparisons(t *testing.T) {
	cases := []struct {
		expr string
		want string
	}{
		{"1 < 2", "True"},
		{"2 < 1", "False"},
		{"2 > 1", "True"},
		{"2 > 2", "False"},
		{"2 >= 2", "True"},
		{"1 <= 2", "True"},
		{"2 <= 1", "False"},
		{"1 == 1", "True"},
		{"1 != 2", "True"},
		{"'abc' < 'abd'", "True"},
		{"'abc' == 'abc'", "True"},
		{"False < True", "True"},
		{"True <= True", "True"},
		{"True > False", "True"},
		{"None == None", "True"},
		{"None != None", "False"},
	}

	for _, tc := range cases {
		got := run(t, "print "+tc.expr+"\n")
		if got != tc.want+"\n" {
			t.Fatalf("%s: got %q, want %q", tc.expr, got, tc.want+"\n")
		}
	}
}

func TestIncomparableValues(t *testing.T) {
	err := runErr(t, "print 1 < 'x'\n")
	if !strings.Contains(err.Error(), "cannot compare") {
		t.Fatalf("unexpected message: %v", err)
	}

	err = runErr(t, "print None < None\n")
	if !strings.Contains(err.Error(), "cannot compare") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestCustomEqualityAndOrdering(t *testing.T) {
	source := "class Box:\n" +
		"  def __init__(self, v):\n" +
		"    self.v = v\n" +
		"  def __eq__(self, other):\n" +
		"    return self.v == other\n" +
		"  def __lt__(self, other):\n" +
		"    return self.v < other\n" +
		"\n" +
		"b = Box(5)\n" +
		"print b == 5\n" +
		"print b != 5\n" +
		"print b < 10\n" +
		"print b > 3\n" +
		"print b >= 6\n" +
		"print b <= 5\n"
	got := run(t, source)
	want := "True\nFalse\nTrue\nTrue\nFalse\nTrue\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestComparisonDispatchMustReturnBool(t *testing.T) {
	source := "class Bad:\n" +
		"  def __eq__(self, other):\n" +
		"    return 1\n" +
		"\n" +
		"b = Bad()\n" +
		"print b == 1\n"
	err := runErr(t, source)
	if !strings.Contains(err.Error(), "not a bool") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestMethodResolutionThroughParentChain(t *testing.T) {
	source := "class A:\n" +
		"  def name(self):\n" +
		"    return 'A'\n" +
		"  def greet(self):\n" +
		"    return 'hi'\n" +
		"\n" +
		"class B(A):\n" +
		"  def name(self):\n" +
		"    return 'B'\n" +
		"\n" +
		"class C(B):\n" +
		"  def nothing(self):\n" +
		"    return None\n" +
		"\n" +
		"c = C()\n" +
		"print c.name() c.greet()\n"
	if got := run(t, source); got != "B hi\n" {
		t.Fatalf("got %q", got)
	}
}

func TestReturnFromNestedBlocks(t *testing.T) {
	source := "class C:\n" +
		"  def pick(self, x):\n" +
		"    if x > 10:\n" +
		"      if x > 100:\n" +
		"        return 'huge'\n" +
		"      return 'big'\n" +
		"    else:\n" +
		"      if x < 0:\n" +
		"        return 'negative'\n" +
		"    return 'small'\n" +
		"\n" +
		"c = C()\n" +
		"print c.pick(500) c.pick(50) c.pick(-5) c.pick(5)\n"
	if got := run(t, source); got != "huge big negative small\n" {
		t.Fatalf("got %q", got)
	}
}

func TestReturnOutsideMethodBody(t *testing.T) {
	err := runErr(t, "return 1\n")
	if !strings.Contains(err.Error(), "return outside of a method body") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestMethodWithoutReturnYieldsNone(t *testing.T) {
	source := "class C:\n" +
		"  def noop(self):\n" +
		"    x = 1\n" +
		"\n" +
		"c = C()\n" +
		"print c.noop()\n"
	if got := run(t, source); got != "None\n" {
		t.Fatalf("got %q", got)
	}
}

func TestConstructorBindsFields(t *testing.T) {
	source := "class Point:\n" +
		"  def __init__(self, x, y):\n" +
		"    self.x = x\n" +
		"    self.y = y\n" +
		"\n" +
		"p = Point(3, 4)\n" +
		"print p.x p.y\n"
	if got := run(t, source); got != "3 4\n" {
		t.Fatalf("got %q", got)
	}
}

func TestFieldAssignmentScopedToReceiver(t *testing.T) {
	source := "class P:\n" +
		"  def __init__(self):\n" +
		"    self.x = 1\n" +
		"\n" +
		"p = P()\n" +
		"p.x = 5\n" +
		"print p.x\n"
	output, scope := runScope(t, source)
	if output != "5\n" {
		t.Fatalf("output: %q", output)
	}
	if _, leaked := scope["x"]; leaked {
		t.Fatalf("field assignment leaked %q into the top-level scope", "x")
	}
}

func TestEachEvaluationCreatesAFreshInstance(t *testing.T) {
	source := "class Cell:\n" +
		"  def set(self, v):\n" +
		"    self.v = v\n" +
		"  def get(self):\n" +
		"    return self.v\n" +
		"\n" +
		"a = Cell()\n" +
		"b = Cell()\n" +
		"a.set(1)\n" +
		"b.set(2)\n" +
		"print a.get() b.get()\n"
	if got := run(t, source); got != "1 2\n" {
		t.Fatalf("instances are aliased: %q", got)
	}
}

func TestAddDispatchesToAddMethod(t *testing.T) {
	source := "class Acc:\n" +
		"  def __init__(self, v):\n" +
		"    self.v = v\n" +
		"  def __add__(self, other):\n" +
		"    return self.v + other\n" +
		"\n" +
		"a = Acc(10)\n" +
		"print a + 5\n"
	if got := run(t, source); got != "15\n" {
		t.Fatalf("got %q", got)
	}
}

func TestMethodCallOnNonObject(t *testing.T) {
	err := runErr(t, "x = 1\nx.f()\n")
	if !strings.Contains(err.Error(), "cannot call method") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestMissingMethod(t *testing.T) {
	source := "class C:\n" +
		"  def f(self):\n" +
		"    return 1\n" +
		"\n" +
		"c = C()\n" +
		"c.g()\n"
	err := runErr(t, source)
	if !strings.Contains(err.Error(), "has no method") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestMethodArityMismatch(t *testing.T) {
	source := "class C:\n" +
		"  def f(self, x):\n" +
		"    return x\n" +
		"\n" +
		"c = C()\n" +
		"c.f()\n"
	err := runErr(t, source)
	if !strings.Contains(err.Error(), "has no method") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestUndefinedVariable(t *testing.T) {
	err := runErr(t, "print missing\n")
	if !strings.Contains(err.Error(), "undefined variable") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestDottedLookupThroughFields(t *testing.T) {
	source := "class Point:\n" +
		"  def __init__(self, x):\n" +
		"    self.x = x\n" +
		"\n" +
		"class Line:\n" +
		"  def __init__(self, a):\n" +
		"    self.start = a\n" +
		"\n" +
		"l = Line(Point(7))\n" +
		"print l.start.x\n"
	if got := run(t, source); got != "7\n" {
		t.Fatalf("got %q", got)
	}
}

func TestDottedLookupThroughNonObject(t *testing.T) {
	err := runErr(t, "x = 1\nprint x.y\n")
	if !strings.Contains(err.Error(), "not an object") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestInstanceCycles(t *testing.T) {
	source := "class Node:\n" +
		"  def link(self, other):\n" +
		"    self.next = other\n" +
		"  def tag(self, t):\n" +
		"    self.name = t\n" +
		"\n" +
		"a = Node()\n" +
		"b = Node()\n" +
		"a.link(b)\n" +
		"b.link(a)\n" +
		"a.tag('a')\n" +
		"print a.next.next.name\n"
	if got := run(t, source); got != "a\n" {
		t.Fatalf("got %q", got)
	}
}

func TestStringifyRoundTrip(t *testing.T) {
	source := "print str(42)\n" +
		"print str(-1)\n" +
		"print str(True)\n" +
		"print str(False)\n" +
		"print str(None)\n" +
		"print str('plain')\n"
	want := "42\n-1\nTrue\nFalse\nNone\nplain\n"
	if got := run(t, source); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestStringifyDoesNotWriteToOutput(t *testing.T) {
	output, scope := runScope(t, "a = str(10)\n")
	if output != "" {
		t.Fatalf("str wrote to the sink: %q", output)
	}
	if scope["a"].Str() != "10" {
		t.Fatalf("bound value: %#v", scope["a"])
	}
}

func TestPrintClassValue(t *testing.T) {
	source := "class C:\n" +
		"  def f(self):\n" +
		"    return 1\n" +
		"\n" +
		"print C\n"
	if got := run(t, source); got != "Class C\n" {
		t.Fatalf("got %q", got)
	}
}

func TestPrintInstanceWithoutStrMethodShowsAddress(t *testing.T) {
	source := "class C:\n" +
		"  def f(self):\n" +
		"    return 1\n" +
		"\n" +
		"print C()\n"
	got := run(t, source)
	if !regexp.MustCompile(`^0x[0-9a-f]+\n$`).MatchString(got) {
		t.Fatalf("got %q", got)
	}
}

func TestPrintEmptyLine(t *testing.T) {
	if got := run(t, "print\n"); got != "\n" {
		t.Fatalf("got %q", got)
	}
}

func TestPrintEscapedStrings(t *testing.T) {
	if got := run(t, "print 'a\\tb'\n"); got != "a\tb\n" {
		t.Fatalf("got %q", got)
	}
}

func TestTopLevelScopeIsCallerVisible(t *testing.T) {
	_, scope := runScope(t, "a = 10\nb = a + 5\n")
	if scope["a"].Number() != 10 || scope["b"].Number() != 15 {
		t.Fatalf("scope: %#v", scope)
	}
}

func TestRuntimeErrorCarriesCallFrames(t *testing.T) {
	source := "class C:\n" +
		"  def inner(self):\n" +
		"    return 1 / 0\n" +
		"  def outer(self):\n" +
		"    return self.inner()\n" +
		"\n" +
		"c = C()\n" +
		"c.outer()\n"
	err := runErr(t, source)

	var runtimeErr *RuntimeError
	errors.As(err, &runtimeErr)
	if len(runtimeErr.Frames) < 2 {
		t.Fatalf("frames: %+v", runtimeErr.Frames)
	}
	rendered := err.Error()
	if !strings.Contains(rendered, "C.inner") || !strings.Contains(rendered, "C.outer") {
		t.Fatalf("rendered error misses frames: %v", rendered)
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		val  Value
		want bool
	}{
		{NewNone(), false},
		{NewBool(true), true},
		{NewBool(false), false},
		{NewNumber(0), false},
		{NewNumber(-3), true},
		{NewString(""), false},
		{NewString("x"), true},
		{NewClassValue(NewClass("C", nil, nil)), false},
		{NewInstanceValue(NewInstance(NewClass("C", nil, nil))), false},
	}

	for _, tc := range cases {
		if got := tc.val.Truthy(); got != tc.want {
			t.Fatalf("%v: got %v, want %v", tc.val.Kind(), got, tc.want)
		}
	}
}

func TestGetMethodMatchesTwoLevelFlattening(t *testing.T) {
	base := NewClass("Base", []*Method{
		{Name: "a", Body: nil},
		{Name: "b", Body: nil},
	}, nil)
	child := NewClass("Child", []*Method{
		{Name: "b", Body: nil},
		{Name: "c", Body: nil},
	}, base)

	flattened := map[string]*Method{}
	for _, m := range base.Methods {
		flattened[m.Name] = m
	}
	for _, m := range child.Methods {
		flattened[m.Name] = m
	}

	for _, name := range []string{"a", "b", "c"} {
		if got := child.GetMethod(name); got != flattened[name] {
			t.Fatalf("method %q: chain lookup and flattening disagree", name)
		}
	}
	if child.GetMethod("missing") != nil {
		t.Fatalf("missing method resolved")
	}
}
