package mython

const (
	addMethod  = "__add__"
	initMethod = "__init__"
	strMethod  = "__str__"
	eqMethod   = "__eq__"
	ltMethod   = "__lt__"
)

// evalAdd handles number addition, string concatenation, and dispatch to a
// one-argument __add__ on an instance left operand.
func (exec *Execution) evalAdd(e *AddExpr, scope Closure) (Value, error) {
	lhs, err := exec.evalExpression(e.Left, scope)
	if err != nil {
		return NewNone(), err
	}
	rhs, err := exec.evalExpression(e.Right, scope)
	if err != nil {
		return NewNone(), err
	}

	if lhs.Kind() == KindNumber && rhs.Kind() == KindNumber {
		return NewNumber(lhs.Number() + rhs.Number()), nil
	}
	if lhs.Kind() == KindString && rhs.Kind() == KindString {
		return NewString(lhs.Str() + rhs.Str()), nil
	}
	if inst := lhs.Instance(); inst != nil && inst.HasMethod(addMethod, 1) {
		return exec.callMethod(inst, addMethod, []Value{rhs}, e.Pos())
	}

	return NewNone(), exec.errorAt(e.Pos(), "unsupported operand types for +: %s and %s", lhs.Kind(), rhs.Kind())
}

// evalNumericBinary handles -, * and /, which are defined on numbers only.
func (exec *Execution) evalNumericBinary(left, right Expression, op string, pos Position, scope Closure) (Value, error) {
	lhs, err := exec.evalExpression(left, scope)
	if err != nil {
		return NewNone(), err
	}
	rhs, err := exec.evalExpression(right, scope)
	if err != nil {
		return NewNone(), err
	}

	if lhs.Kind() != KindNumber || rhs.Kind() != KindNumber {
		return NewNone(), exec.errorAt(pos, "unsupported operand types for %s: %s and %s", op, lhs.Kind(), rhs.Kind())
	}

	switch op {
	case "-":
		return NewNumber(lhs.Number() - rhs.Number()), nil
	case "*":
		return NewNumber(lhs.Number() * rhs.Number()), nil
	default:
		if rhs.Number() == 0 {
			return NewNone(), exec.errorAt(pos, "division by zero")
		}
		return NewNumber(lhs.Number() / rhs.Number()), nil
	}
}

func (exec *Execution) evalAnd(e *AndExpr, scope Closure) (Value, error) {
	lhs, err := exec.boolOperand(e.Left, "and", scope)
	if err != nil {
		return NewNone(), err
	}
	if !lhs {
		return NewBool(false), nil
	}

	rhs, err := exec.boolOperand(e.Right, "and", scope)
	if err != nil {
		return NewNone(), err
	}
	return NewBool(rhs), nil
}

func (exec *Execution) evalOr(e *OrExpr, scope Closure) (Value, error) {
	lhs, err := exec.boolOperand(e.Left, "or", scope)
	if err != nil {
		return NewNone(), err
	}
	if lhs {
		return NewBool(true), nil
	}

	rhs, err := exec.boolOperand(e.Right, "or", scope)
	if err != nil {
		return NewNone(), err
	}
	return NewBool(rhs), nil
}

func (exec *Execution) boolOperand(expr Expression, op string, scope Closure) (bool, error) {
	val, err := exec.evalExpression(expr, scope)
	if err != nil {
		return false, err
	}
	if val.Kind() != KindBool {
		return false, exec.errorAt(expr.Pos(), "operand of %q is %s, not a bool", op, val.Kind())
	}
	return val.Bool(), nil
}

func (exec *Execution) evalComparison(e *CompareExpr, scope Closure) (Value, error) {
	lhs, err := exec.evalExpression(e.Left, scope)
	if err != nil {
		return NewNone(), err
	}
	rhs, err := exec.evalExpression(e.Right, scope)
	if err != nil {
		return NewNone(), err
	}

	var result bool
	switch e.Op {
	case CompareEq:
		result, err = exec.equal(lhs, rhs, e.Pos())
	case CompareNotEq:
		result, err = exec.equal(lhs, rhs, e.Pos())
		result = !result
	case CompareLess:
		result, err = exec.less(lhs, rhs, e.Pos())
	case CompareGreater:
		// Greater is: not less and not equal.
		var less, eq bool
		if less, err = exec.less(lhs, rhs, e.Pos()); err == nil {
			if eq, err = exec.equal(lhs, rhs, e.Pos()); err == nil {
				result = !less && !eq
			}
		}
	case CompareLessOrEq:
		var less, eq bool
		if less, err = exec.less(lhs, rhs, e.Pos()); err == nil {
			if less {
				result = true
			} else if eq, err = exec.equal(lhs, rhs, e.Pos()); err == nil {
				result = eq
			}
		}
	case CompareGreaterOrEq:
		result, err = exec.less(lhs, rhs, e.Pos())
		result = !result
	default:
		err = exec.errorAt(e.Pos(), "unsupported comparison %s", e.Op)
	}

	if err != nil {
		return NewNone(), err
	}
	return NewBool(result), nil
}

// equal compares two values: both None are equal, matching builtin pairs
// use builtin equality, and an instance left operand may define __eq__.
func (exec *Execution) equal(lhs, rhs Value, pos Position) (bool, error) {
	if lhs.IsNone() && rhs.IsNone() {
		return true, nil
	}

	switch {
	case lhs.Kind() == KindBool && rhs.Kind() == KindBool:
		return lhs.Bool() == rhs.Bool(), nil
	case lhs.Kind() == KindNumber && rhs.Kind() == KindNumber:
		return lhs.Number() == rhs.Number(), nil
	case lhs.Kind() == KindString && rhs.Kind() == KindString:
		return lhs.Str() == rhs.Str(), nil
	}

	return exec.dispatchComparison(lhs, rhs, eqMethod, pos)
}

// less orders two values, with false < true for bools and __lt__ dispatch
// for instances.
func (exec *Execution) less(lhs, rhs Value, pos Position) (bool, error) {
	switch {
	case lhs.Kind() == KindBool && rhs.Kind() == KindBool:
		return !lhs.Bool() && rhs.Bool(), nil
	case lhs.Kind() == KindNumber && rhs.Kind() == KindNumber:
		return lhs.Number() < rhs.Number(), nil
	case lhs.Kind() == KindString && rhs.Kind() == KindString:
		return lhs.Str() < rhs.Str(), nil
	}

	return exec.dispatchComparison(lhs, rhs, ltMethod, pos)
}

func (exec *Execution) dispatchComparison(lhs, rhs Value, method string, pos Position) (bool, error) {
	inst := lhs.Instance()
	if inst == nil || !inst.HasMethod(method, 1) {
		return false, exec.errorAt(pos, "cannot compare %s to %s", lhs.Kind(), rhs.Kind())
	}

	result, err := exec.callMethod(inst, method, []Value{rhs}, pos)
	if err != nil {
		return false, err
	}
	if result.Kind() != KindBool {
		return false, exec.errorAt(pos, "%s returned %s, not a bool", method, result.Kind())
	}
	return result.Bool(), nil
}
