package mython

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// callMethod runs a resolved method against a fresh scope holding self and
// the positionally bound formals. This is the only boundary that converts
// the return effect back into a plain value; a body that never returns
// yields None. Surplus arguments are ignored, missing ones are an error.
func (exec *Execution) callMethod(inst *Instance, name string, args []Value, pos Position) (Value, error) {
	method := inst.Class.GetMethod(name)
	if method == nil {
		return NewNone(), exec.errorAt(pos, "method %q is not implemented", name)
	}
	if len(args) < len(method.FormalParams) {
		return NewNone(), exec.errorAt(pos, "%d arguments were expected for method %q", len(method.FormalParams), name)
	}

	scope := Closure{"self": NewInstanceValue(inst)}
	for i, param := range method.FormalParams {
		scope[param] = args[i]
	}

	exec.callStack = append(exec.callStack, StackFrame{
		Method: inst.Class.Name + "." + name,
		Pos:    pos,
	})
	val, returned, err := exec.evalStatements(method.Body, scope)
	exec.callStack = exec.callStack[:len(exec.callStack)-1]

	if err != nil {
		return NewNone(), err
	}
	if returned {
		return val, nil
	}
	return NewNone(), nil
}

// evalNewInstance allocates a fresh instance per evaluation and runs
// __init__ when one with matching arity is defined.
func (exec *Execution) evalNewInstance(e *NewInstanceExpr, scope Closure) (Value, error) {
	inst := NewInstance(e.Class)

	if inst.HasMethod(initMethod, len(e.Args)) {
		args, err := exec.evalArgs(e.Args, scope)
		if err != nil {
			return NewNone(), err
		}
		if _, err := exec.callMethod(inst, initMethod, args, e.Pos()); err != nil {
			return NewNone(), err
		}
	}

	return NewInstanceValue(inst), nil
}

func (exec *Execution) evalMethodCall(e *MethodCallExpr, scope Closure) (Value, error) {
	receiver, err := exec.evalExpression(e.Object, scope)
	if err != nil {
		return NewNone(), err
	}

	inst := receiver.Instance()
	if inst == nil {
		return NewNone(), exec.errorAt(e.Pos(), "cannot call method %q on %s", e.Method, receiver.Kind())
	}
	if !inst.HasMethod(e.Method, len(e.Args)) {
		return NewNone(), exec.errorAt(e.Pos(), "class %s has no method %q taking %d arguments", inst.Class.Name, e.Method, len(e.Args))
	}

	args, err := exec.evalArgs(e.Args, scope)
	if err != nil {
		return NewNone(), err
	}

	return exec.callMethod(inst, e.Method, args, e.Pos())
}

func (exec *Execution) evalArgs(exprs []Expression, scope Closure) ([]Value, error) {
	args := make([]Value, len(exprs))
	for i, expr := range exprs {
		val, err := exec.evalExpression(expr, scope)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}
	return args, nil
}

// evalPrint joins the rendered arguments with single spaces, writes the
// line to the context's sink, and yields the unterminated text as a string.
func (exec *Execution) evalPrint(s *PrintStmt, scope Closure) (Value, error) {
	var line strings.Builder

	for i, arg := range s.Args {
		if i != 0 {
			line.WriteByte(' ')
		}
		val, err := exec.evalExpression(arg, scope)
		if err != nil {
			return NewNone(), err
		}
		if err := exec.printValue(val, &line, arg.Pos()); err != nil {
			return NewNone(), err
		}
	}

	if _, err := io.WriteString(exec.ctx.Output(), line.String()+"\n"); err != nil {
		return NewNone(), exec.errorAt(s.Pos(), "write to output failed: %v", err)
	}

	return NewString(line.String()), nil
}

// stringify renders a value into a buffer without touching the program's
// output sink.
func (exec *Execution) stringify(val Value, pos Position) (Value, error) {
	var buf bytes.Buffer
	if err := exec.printValue(val, &buf, pos); err != nil {
		return NewNone(), err
	}
	return NewString(buf.String()), nil
}

// printValue renders one value. An instance with a zero-argument __str__
// delegates to it; one without prints its address.
func (exec *Execution) printValue(val Value, w io.Writer, pos Position) error {
	switch val.Kind() {
	case KindNone:
		_, err := io.WriteString(w, "None")
		return err
	case KindBool:
		text := "False"
		if val.Bool() {
			text = "True"
		}
		_, err := io.WriteString(w, text)
		return err
	case KindNumber:
		_, err := io.WriteString(w, strconv.Itoa(val.Number()))
		return err
	case KindString:
		_, err := io.WriteString(w, val.Str())
		return err
	case KindClass:
		_, err := io.WriteString(w, "Class "+val.Class().Name)
		return err
	case KindInstance:
		inst := val.Instance()
		if inst.HasMethod(strMethod, 0) {
			rendered, err := exec.callMethod(inst, strMethod, nil, pos)
			if err != nil {
				return err
			}
			return exec.printValue(rendered, w, pos)
		}
		_, err := fmt.Fprintf(w, "%p", inst)
		return err
	default:
		return exec.errorAt(pos, "value of kind %s cannot be printed", val.Kind())
	}
}
