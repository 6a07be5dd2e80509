package mython

import (
	"fmt"
	"strings"
)

// StackFrame records one method invocation for error reporting.
type StackFrame struct {
	Method string
	Pos    Position
}

// RuntimeError reports an evaluation fault: a type mismatch, a missing
// method or variable, division by zero, a non-bool condition or logical
// operand, or incomparable values.
type RuntimeError struct {
	Message   string
	CodeFrame string
	Frames    []StackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.CodeFrame != "" {
		b.WriteString("\n")
		b.WriteString(e.CodeFrame)
	}
	for _, frame := range e.Frames {
		if frame.Pos.Line > 0 {
			fmt.Fprintf(&b, "\n  at %s (%d:%d)", frame.Method, frame.Pos.Line, frame.Pos.Column)
		} else {
			fmt.Fprintf(&b, "\n  at %s", frame.Method)
		}
	}
	return b.String()
}

// Execution is the state of one program run: the output context, the source
// text for code frames, and the live method-call stack.
type Execution struct {
	ctx       Context
	source    string
	callStack []StackFrame
}

func (exec *Execution) errorAt(pos Position, format string, args ...any) error {
	message := fmt.Sprintf(format, args...)

	frames := make([]StackFrame, 0, len(exec.callStack)+1)
	if n := len(exec.callStack); n > 0 {
		frames = append(frames, StackFrame{Method: exec.callStack[n-1].Method, Pos: pos})
		for i := n - 1; i >= 0; i-- {
			frames = append(frames, exec.callStack[i])
		}
	} else {
		frames = append(frames, StackFrame{Method: "<program>", Pos: pos})
	}

	return &RuntimeError{
		Message:   message,
		CodeFrame: formatCodeFrame(exec.source, pos),
		Frames:    frames,
	}
}

// evalStatements runs a suite in order. The bool result is the return
// effect: true means a return statement fired and its value must unwind to
// the nearest method-call boundary untouched.
func (exec *Execution) evalStatements(stmts []Statement, scope Closure) (Value, bool, error) {
	for _, stmt := range stmts {
		val, returned, err := exec.evalStatement(stmt, scope)
		if err != nil {
			return NewNone(), false, err
		}
		if returned {
			return val, true, nil
		}
	}
	return NewNone(), false, nil
}

func (exec *Execution) evalStatement(stmt Statement, scope Closure) (Value, bool, error) {
	switch s := stmt.(type) {
	case *AssignStmt:
		val, err := exec.evalExpression(s.Value, scope)
		if err != nil {
			return NewNone(), false, err
		}
		scope[s.Name] = val
		return val, false, nil

	case *FieldAssignStmt:
		receiver, err := exec.evalExpression(s.Object, scope)
		if err != nil {
			return NewNone(), false, err
		}
		inst := receiver.Instance()
		if inst == nil {
			return NewNone(), false, exec.errorAt(s.Pos(), "cannot assign field %q on %s", s.Field, receiver.Kind())
		}
		val, err := exec.evalExpression(s.Value, scope)
		if err != nil {
			return NewNone(), false, err
		}
		inst.Fields[s.Field] = val
		return val, false, nil

	case *PrintStmt:
		val, err := exec.evalPrint(s, scope)
		return val, false, err

	case *ReturnStmt:
		val, err := exec.evalExpression(s.Value, scope)
		if err != nil {
			return NewNone(), false, err
		}
		return val, true, nil

	case *IfStmt:
		cond, err := exec.evalExpression(s.Condition, scope)
		if err != nil {
			return NewNone(), false, err
		}
		if cond.Kind() != KindBool {
			return NewNone(), false, exec.errorAt(s.Pos(), "if condition is %s, not a bool", cond.Kind())
		}
		if cond.Bool() {
			return exec.evalStatements(s.Consequent, scope)
		}
		if s.Alternate != nil {
			return exec.evalStatements(s.Alternate, scope)
		}
		return NewNone(), false, nil

	case *ClassStmt:
		val := NewClassValue(s.Class)
		scope[s.Class.Name] = val
		return val, false, nil

	case *ExprStmt:
		val, err := exec.evalExpression(s.Expr, scope)
		return val, false, err

	default:
		return NewNone(), false, exec.errorAt(stmt.Pos(), "unsupported statement")
	}
}

func (exec *Execution) evalExpression(expr Expression, scope Closure) (Value, error) {
	switch e := expr.(type) {
	case *VariableExpr:
		return exec.resolveVariable(e, scope)

	case *NumberLiteral:
		return NewNumber(e.Value), nil

	case *StringLiteral:
		return NewString(e.Value), nil

	case *BoolLiteral:
		return NewBool(e.Value), nil

	case *NoneLiteral:
		return NewNone(), nil

	case *AddExpr:
		return exec.evalAdd(e, scope)

	case *SubExpr:
		return exec.evalNumericBinary(e.Left, e.Right, "-", e.Pos(), scope)

	case *MultExpr:
		return exec.evalNumericBinary(e.Left, e.Right, "*", e.Pos(), scope)

	case *DivExpr:
		return exec.evalNumericBinary(e.Left, e.Right, "/", e.Pos(), scope)

	case *AndExpr:
		return exec.evalAnd(e, scope)

	case *OrExpr:
		return exec.evalOr(e, scope)

	case *NotExpr:
		operand, err := exec.evalExpression(e.Operand, scope)
		if err != nil {
			return NewNone(), err
		}
		if operand.Kind() != KindBool {
			return NewNone(), exec.errorAt(e.Pos(), "operand of %q is %s, not a bool", "not", operand.Kind())
		}
		return NewBool(!operand.Bool()), nil

	case *CompareExpr:
		return exec.evalComparison(e, scope)

	case *StringifyExpr:
		operand, err := exec.evalExpression(e.Operand, scope)
		if err != nil {
			return NewNone(), err
		}
		return exec.stringify(operand, e.Pos())

	case *NewInstanceExpr:
		return exec.evalNewInstance(e, scope)

	case *MethodCallExpr:
		return exec.evalMethodCall(e, scope)

	default:
		return NewNone(), exec.errorAt(expr.Pos(), "unsupported expression")
	}
}

// resolveVariable walks a dotted path. Every binding before the last must
// be an instance whose fields become the scope for the next segment.
func (exec *Execution) resolveVariable(e *VariableExpr, scope Closure) (Value, error) {
	current := scope
	last := len(e.Names) - 1

	for i, name := range e.Names {
		val, ok := current[name]
		if !ok {
			return NewNone(), exec.errorAt(e.Pos(), "undefined variable %q", strings.Join(e.Names[:i+1], "."))
		}
		if i == last {
			return val, nil
		}

		inst := val.Instance()
		if inst == nil {
			return NewNone(), exec.errorAt(e.Pos(), "%q is %s, not an object", strings.Join(e.Names[:i+1], "."), val.Kind())
		}
		current = inst.Fields
	}

	return NewNone(), exec.errorAt(e.Pos(), "undefined variable")
}
