package object

import (
	"fmt"
	"log/slog"
	"lox/internal/diag"
	"lox/internal/token"
	"sync/atomic"
)

var nextID atomic.Uint64

// Environment is one lexical frame. Frames form a tree through Outer; closures
// keep their frame alive for as long as they are reachable, cycles included,
// which the Go collector handles.
type Environment struct {
	ID     uint64
	Values map[string]Object
	Outer  *Environment
}

func nextEnvID() uint64 {
	return nextID.Add(1)
}

func NewEnvironment() *Environment {
	return &Environment{
		ID:     nextEnvID(),
		Values: make(map[string]Object),
	}
}

// NewEnclosedEnvironment initializes an environment nested inside outer.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.Outer = outer
	return env
}

// Define binds name in this frame, replacing any previous binding here.
func (e *Environment) Define(name string, val Object) {
	e.Values[name] = val
	slog.Debug("binding value",
		slog.Uint64("env", e.ID),
		slog.String("name", name),
		slog.Any("type", typeOf(val)))
}

func (e *Environment) Get(name *token.Token) (Object, error) {
	for env := e; env != nil; env = env.Outer {
		if val, ok := env.Values[name.Lexeme]; ok {
			return val, nil
		}
	}
	return nil, undefined(name)
}

// Assign updates the nearest frame that binds name. It never creates a binding.
func (e *Environment) Assign(name *token.Token, val Object) error {
	for env := e; env != nil; env = env.Outer {
		if _, ok := env.Values[name.Lexeme]; ok {
			env.Values[name.Lexeme] = val
			return nil
		}
	}
	return undefined(name)
}

// Ancestor walks exactly distance enclosing links.
func (e *Environment) Ancestor(distance int) *Environment {
	env := e
	for i := 0; i < distance; i++ {
		env = env.Outer
	}
	return env
}

// GetAt reads name from the frame distance links up. The resolver guarantees
// the binding exists there, so a miss is an interpreter bug.
func (e *Environment) GetAt(distance int, name string) Object {
	val, ok := e.Ancestor(distance).Values[name]
	if !ok {
		panic(fmt.Sprintf("resolved variable '%s' missing at distance %d", name, distance))
	}
	return val
}

func (e *Environment) AssignAt(distance int, name *token.Token, val Object) {
	e.Ancestor(distance).Values[name.Lexeme] = val
}

func undefined(name *token.Token) error {
	return diag.NewRuntime(diag.UndefinedVariable, name, "Undefined variable '%s'.", name.Lexeme)
}

func typeOf(val Object) ObjectType {
	if val == nil {
		return "<nil>"
	}
	return val.Type()
}
