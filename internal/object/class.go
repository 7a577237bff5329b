package object

import (
	"lox/internal/diag"
	"lox/internal/token"
)

const InitializerName = "init"

type Class struct {
	Name       string
	Superclass *Class // nil when the class has none
	Methods    map[string]*Function
}

func (c *Class) Type() ObjectType { return CLASS_OBJ }
func (c *Class) Inspect() string  { return c.Name }

// FindMethod returns the unbound method declared nearest to c.
func (c *Class) FindMethod(name string) (*Function, bool) {
	for class := c; class != nil; class = class.Superclass {
		if method, ok := class.Methods[name]; ok {
			return method, true
		}
	}
	return nil, false
}

func (c *Class) Arity() int {
	if initializer, ok := c.FindMethod(InitializerName); ok {
		return initializer.Arity()
	}
	return 0
}

// Call constructs an instance and runs the initializer, if any, on it.
func (c *Class) Call(ctx EvaluatorContext, args []Object) (Object, error) {
	instance := NewInstance(c)
	if initializer, ok := c.FindMethod(InitializerName); ok {
		if _, err := initializer.Bind(instance).Call(ctx, args); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

type Instance struct {
	Class  *Class
	Fields map[string]Object
}

func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Fields: make(map[string]Object)}
}

func (i *Instance) Type() ObjectType { return INSTANCE_OBJ }
func (i *Instance) Inspect() string  { return i.Class.Name + " instance" }

// Get looks up a field first, then a method which comes back bound to i.
func (i *Instance) Get(name *token.Token) (Object, error) {
	if val, ok := i.Fields[name.Lexeme]; ok {
		return val, nil
	}
	if method, ok := i.Class.FindMethod(name.Lexeme); ok {
		return method.Bind(i), nil
	}
	return nil, diag.NewRuntime(diag.UndefinedProperty, name, "Undefined property '%s'.", name.Lexeme)
}

func (i *Instance) Set(name *token.Token, val Object) {
	i.Fields[name.Lexeme] = val
}
