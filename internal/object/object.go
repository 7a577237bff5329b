package object

import (
	"lox/internal/ast"
	"math"
	"strconv"
)

const (
	NIL_OBJ     = "NIL"
	BOOLEAN_OBJ = "BOOLEAN"
	NUMBER_OBJ  = "NUMBER"
	STRING_OBJ  = "STRING"

	FUNCTION_OBJ = "FUNCTION"
	FOREIGN_OBJ  = "FOREIGN"
	CLASS_OBJ    = "CLASS"
	INSTANCE_OBJ = "INSTANCE"

	RETURN_VALUE_OBJ = "RETURN_VALUE"
)

var (
	NIL   = &Nil{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

// EvaluatorContext is the part of the evaluator that callables need: running a
// function body in a prepared environment.
type EvaluatorContext interface {
	ExecuteBlock(stmts []ast.Stmt, env *Environment) (*ReturnValue, error)
}

type ObjectType string

type Object interface {
	Type() ObjectType
	Inspect() string
}

// Callable is anything invokable from a call expression. The caller checks
// the argument count against Arity before Call is entered.
type Callable interface {
	Object
	Arity() int
	Call(ctx EvaluatorContext, args []Object) (Object, error)
}

type Nil struct{}

func (n *Nil) Type() ObjectType { return NIL_OBJ }
func (n *Nil) Inspect() string  { return "nil" }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }

type Number struct {
	Value float64
}

func (n *Number) Type() ObjectType { return NUMBER_OBJ }
func (n *Number) Inspect() string  { return FormatNumber(n.Value) }

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

// ReturnValue carries a `return` out of nested block execution. It travels
// next to the error result, never as one.
type ReturnValue struct {
	Value Object
}

func (rv *ReturnValue) Type() ObjectType { return RETURN_VALUE_OBJ }
func (rv *ReturnValue) Inspect() string  { return rv.Value.Inspect() }

// FormatNumber prints the shortest round-trip form of v, in positional
// notation unless the magnitude is very large or very small.
func FormatNumber(v float64) string {
	abs := math.Abs(v)
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case math.IsNaN(v):
		return "NaN"
	case v == 0, abs >= 1e-7 && abs < 1e21:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}

func NativeBoolToBooleanObject(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

// IsTruthy: nil and false are falsey, everything else is truthy.
func IsTruthy(obj Object) bool {
	switch obj := obj.(type) {
	case nil, *Nil:
		return false
	case *Boolean:
		return obj.Value
	default:
		return true
	}
}

// Equal compares primitives by value and everything else by identity.
// Values of different types are never equal.
func Equal(a, b Object) bool {
	switch a := a.(type) {
	case *Nil:
		_, ok := b.(*Nil)
		return ok
	case *Boolean:
		bb, ok := b.(*Boolean)
		return ok && a.Value == bb.Value
	case *Number:
		bn, ok := b.(*Number)
		return ok && a.Value == bn.Value
	case *String:
		bs, ok := b.(*String)
		return ok && a.Value == bs.Value
	default:
		return a == b
	}
}

// FromLiteral converts a token literal produced by the lexer into a value.
func FromLiteral(v any) Object {
	switch v := v.(type) {
	case bool:
		return NativeBoolToBooleanObject(v)
	case float64:
		return &Number{Value: v}
	case string:
		return &String{Value: v}
	default:
		return NIL
	}
}
