package object

import (
	"lox/internal/ast"
)

// Function is a user-declared function or method together with the
// environment it closed over.
type Function struct {
	Declaration   *ast.FunctionStatement
	Closure       *Environment
	IsInitializer bool
}

func NewFunction(decl *ast.FunctionStatement, closure *Environment, isInitializer bool) *Function {
	return &Function{Declaration: decl, Closure: closure, IsInitializer: isInitializer}
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string  { return "<fn " + f.Declaration.Name.Lexeme + ">" }

func (f *Function) Arity() int {
	return len(f.Declaration.Params)
}

func (f *Function) Call(ctx EvaluatorContext, args []Object) (Object, error) {
	env := NewEnclosedEnvironment(f.Closure)
	for i, param := range f.Declaration.Params {
		env.Define(param.Lexeme, args[i])
	}

	ret, err := ctx.ExecuteBlock(f.Declaration.Body, env)
	if err != nil {
		return nil, err
	}

	// initializers hand back the receiver whatever the body returned
	if f.IsInitializer {
		return f.Closure.GetAt(0, "this"), nil
	}
	if ret != nil {
		return ret.Value, nil
	}
	return NIL, nil
}

// Bind produces a copy of the method whose closure also binds `this`.
func (f *Function) Bind(instance *Instance) *Function {
	env := NewEnclosedEnvironment(f.Closure)
	env.Define("this", instance)
	return NewFunction(f.Declaration, env, f.IsInitializer)
}

// Foreign is a host-provided function.
type Foreign struct {
	Name   string
	ArityN int
	Fn     func(ctx EvaluatorContext, args []Object) (Object, error)
}

func (f *Foreign) Type() ObjectType { return FOREIGN_OBJ }
func (f *Foreign) Inspect() string  { return "<native fn>" }
func (f *Foreign) Arity() int       { return f.ArityN }

func (f *Foreign) Call(ctx EvaluatorContext, args []Object) (Object, error) {
	return f.Fn(ctx, args)
}
