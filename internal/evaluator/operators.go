package evaluator

import (
	"fmt"
	"lox/internal/diag"
	"lox/internal/object"
	"lox/internal/token"
)

func evalUnary(operator *token.Token, right object.Object) (object.Object, error) {
	switch operator.Type {
	case token.BANG:
		return object.NativeBoolToBooleanObject(!object.IsTruthy(right)), nil
	case token.MINUS:
		n, ok := right.(*object.Number)
		if !ok {
			return nil, diag.NewRuntime(diag.TypeMismatch, operator, "Operand must be a number.")
		}
		return &object.Number{Value: -n.Value}, nil
	}
	return nil, fmt.Errorf("unknown unary operator %s", operator.Lexeme)
}

func evalBinary(operator *token.Token, left, right object.Object) (object.Object, error) {
	switch operator.Type {
	case token.EQ:
		return object.NativeBoolToBooleanObject(object.Equal(left, right)), nil
	case token.NOT_EQ:
		return object.NativeBoolToBooleanObject(!object.Equal(left, right)), nil
	case token.PLUS:
		return evalPlus(operator, left, right)
	}

	l, r, err := numberOperands(operator, left, right)
	if err != nil {
		return nil, err
	}

	switch operator.Type {
	case token.MINUS:
		return &object.Number{Value: l - r}, nil
	case token.ASTERISK:
		return &object.Number{Value: l * r}, nil
	case token.SLASH:
		// division by zero yields an infinity or NaN
		return &object.Number{Value: l / r}, nil
	case token.GT:
		return object.NativeBoolToBooleanObject(l > r), nil
	case token.GT_EQ:
		return object.NativeBoolToBooleanObject(l >= r), nil
	case token.LT:
		return object.NativeBoolToBooleanObject(l < r), nil
	case token.LT_EQ:
		return object.NativeBoolToBooleanObject(l <= r), nil
	}
	return nil, fmt.Errorf("unknown binary operator %s", operator.Lexeme)
}

func evalPlus(operator *token.Token, left, right object.Object) (object.Object, error) {
	switch l := left.(type) {
	case *object.Number:
		if r, ok := right.(*object.Number); ok {
			return &object.Number{Value: l.Value + r.Value}, nil
		}
	case *object.String:
		if r, ok := right.(*object.String); ok {
			return &object.String{Value: l.Value + r.Value}, nil
		}
	}
	return nil, diag.NewRuntime(diag.TypeMismatch, operator, "Operands must be two numbers or two strings.")
}

func numberOperands(operator *token.Token, left, right object.Object) (float64, float64, error) {
	l, lok := left.(*object.Number)
	r, rok := right.(*object.Number)
	if !lok || !rok {
		return 0, 0, diag.NewRuntime(diag.TypeMismatch, operator, "Operands must be numbers.")
	}
	return l.Value, r.Value, nil
}
