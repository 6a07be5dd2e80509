package mython

// Program is a parsed source text: the top-level statement sequence plus
// the registry of classes declared while parsing. The registry keeps every
// descriptor alive for as long as the program handle itself.
type Program struct {
	Statements []Statement

	classes map[string]*Class
	source  string
}

// Classes returns the program's class registry: the classes it declares plus
// any seeded through ParseWithClasses. The
// REPL feeds it back into ParseWithClasses so later inputs can refer to
// classes declared earlier.
func (p *Program) Classes() map[string]*Class {
	return p.classes
}

// Run executes the program against a caller-owned top-level scope and a
// context supplying the output sink. Assignments and class definitions
// mutate the scope in place. A successful run yields None; faults surface
// as *RuntimeError.
func (p *Program) Run(scope Closure, ctx Context) (Value, error) {
	exec := &Execution{ctx: ctx, source: p.source}

	_, returned, err := exec.evalStatements(p.Statements, scope)
	if err != nil {
		return NewNone(), err
	}
	if returned {
		return NewNone(), &RuntimeError{Message: "return outside of a method body"}
	}

	return NewNone(), nil
}

// Compile lexes and parses source in one step.
func Compile(source string) (*Program, error) {
	lexer, err := NewLexer(source)
	if err != nil {
		return nil, err
	}
	return Parse(lexer)
}
