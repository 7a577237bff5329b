package evaluator

import (
	"fmt"
	"io"
	"log/slog"
	"lox/internal/ast"
	"lox/internal/diag"
	"lox/internal/object"
	"lox/internal/token"
	"time"
)

type Evaluator struct {
	globals  *object.Environment
	envStack []*object.Environment // innermost frame last
	locals   map[ast.Expr]int
	out      io.Writer
	now      func() time.Time
}

type Option func(*Evaluator)

// WithClock replaces the time source behind the clock() builtin.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// WithGlobal binds an extra value in the global frame.
func WithGlobal(name string, val object.Object) Option {
	return func(e *Evaluator) { e.globals.Define(name, val) }
}

func New(out io.Writer, opts ...Option) *Evaluator {
	e := &Evaluator{
		globals: object.NewEnvironment(),
		locals:  make(map[ast.Expr]int),
		out:     out,
		now:     time.Now,
	}
	e.envStack = []*object.Environment{e.globals}
	e.installBuiltins()
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Evaluator) Globals() *object.Environment {
	return e.globals
}

// Resolve records the scope distance of a local reference. It is fed by the
// resolver before the program runs.
func (e *Evaluator) Resolve(expr ast.Expr, depth int) {
	e.locals[expr] = depth
}

func (e *Evaluator) PushEnv(env *object.Environment) {
	e.envStack = append(e.envStack, env)
}

func (e *Evaluator) CurrentEnv() *object.Environment {
	if len(e.envStack) == 0 {
		panic("Environment stack is empty in the current frame")
	}
	return e.envStack[len(e.envStack)-1]
}

func (e *Evaluator) PopEnv() {
	if len(e.envStack) <= 1 {
		panic("Attempted to pop the global environment")
	}
	e.envStack = e.envStack[:len(e.envStack)-1]
}

// Interpret runs a resolved program. The first runtime error stops the
// program and is returned; output written before it stays written.
func (e *Evaluator) Interpret(stmts []ast.Stmt) error {
	depth := len(e.envStack)
	defer func() { e.envStack = e.envStack[:depth] }()

	for _, stmt := range stmts {
		if _, err := e.execute(stmt); err != nil {
			slog.Debug("runtime error", slog.Any("error", err))
			return err
		}
	}
	return nil
}

// ExecuteBlock runs stmts in env and restores the previous frame afterwards,
// whether the block completes, returns or fails.
func (e *Evaluator) ExecuteBlock(stmts []ast.Stmt, env *object.Environment) (*object.ReturnValue, error) {
	e.PushEnv(env)
	defer e.PopEnv()

	for _, stmt := range stmts {
		ret, err := e.execute(stmt)
		if err != nil || ret != nil {
			return ret, err
		}
	}
	return nil, nil
}

func (e *Evaluator) execute(stmt ast.Stmt) (*object.ReturnValue, error) {
	switch node := stmt.(type) {
	case *ast.ExpressionStatement:
		_, err := e.evaluate(node.Expression)
		return nil, err

	case *ast.PrintStatement:
		val, err := e.evaluate(node.Expression)
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(e.out, val.Inspect())
		return nil, nil

	case *ast.VarStatement:
		var val object.Object = object.NIL
		if node.Initializer != nil {
			v, err := e.evaluate(node.Initializer)
			if err != nil {
				return nil, err
			}
			val = v
		}
		e.CurrentEnv().Define(node.Name.Lexeme, val)
		return nil, nil

	case *ast.BlockStatement:
		return e.ExecuteBlock(node.Statements, object.NewEnclosedEnvironment(e.CurrentEnv()))

	case *ast.IfStatement:
		cond, err := e.evaluate(node.Condition)
		if err != nil {
			return nil, err
		}
		if object.IsTruthy(cond) {
			return e.execute(node.ThenBranch)
		}
		if node.ElseBranch != nil {
			return e.execute(node.ElseBranch)
		}
		return nil, nil

	case *ast.WhileStatement:
		for {
			cond, err := e.evaluate(node.Condition)
			if err != nil {
				return nil, err
			}
			if !object.IsTruthy(cond) {
				return nil, nil
			}
			ret, err := e.execute(node.Body)
			if err != nil || ret != nil {
				return ret, err
			}
		}

	case *ast.FunctionStatement:
		fn := object.NewFunction(node, e.CurrentEnv(), false)
		e.CurrentEnv().Define(node.Name.Lexeme, fn)
		return nil, nil

	case *ast.ReturnStatement:
		var val object.Object = object.NIL
		if node.Value != nil {
			v, err := e.evaluate(node.Value)
			if err != nil {
				return nil, err
			}
			val = v
		}
		return &object.ReturnValue{Value: val}, nil

	case *ast.ClassStatement:
		return nil, e.executeClass(node)
	}

	return nil, fmt.Errorf("unhandled statement %T", stmt)
}

func (e *Evaluator) executeClass(node *ast.ClassStatement) error {
	var superclass *object.Class
	if node.Superclass != nil {
		val, err := e.evaluate(node.Superclass)
		if err != nil {
			return err
		}
		class, ok := val.(*object.Class)
		if !ok {
			return diag.NewRuntime(diag.InheritanceTypeError, node.Superclass.Name, "Superclass must be a class.")
		}
		superclass = class
	}

	e.CurrentEnv().Define(node.Name.Lexeme, object.NIL)

	// methods close over a frame binding super when there is a superclass
	closure := e.CurrentEnv()
	if superclass != nil {
		closure = object.NewEnclosedEnvironment(closure)
		closure.Define("super", superclass)
	}

	methods := make(map[string]*object.Function, len(node.Methods))
	for _, method := range node.Methods {
		isInit := method.Name.Lexeme == object.InitializerName
		methods[method.Name.Lexeme] = object.NewFunction(method, closure, isInit)
	}

	class := &object.Class{Name: node.Name.Lexeme, Superclass: superclass, Methods: methods}
	return e.CurrentEnv().Assign(node.Name, class)
}

func (e *Evaluator) evaluate(expr ast.Expr) (object.Object, error) {
	switch node := expr.(type) {
	case *ast.Literal:
		return object.FromLiteral(node.Value), nil

	case *ast.Grouping:
		return e.evaluate(node.Expression)

	case *ast.Variable:
		return e.lookUpVariable(node.Name, node)

	case *ast.Assign:
		val, err := e.evaluate(node.Value)
		if err != nil {
			return nil, err
		}
		if distance, ok := e.locals[node]; ok {
			e.CurrentEnv().AssignAt(distance, node.Name, val)
		} else if err := e.globals.Assign(node.Name, val); err != nil {
			return nil, err
		}
		return val, nil

	case *ast.Unary:
		right, err := e.evaluate(node.Right)
		if err != nil {
			return nil, err
		}
		return evalUnary(node.Operator, right)

	case *ast.Binary:
		left, err := e.evaluate(node.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.evaluate(node.Right)
		if err != nil {
			return nil, err
		}
		return evalBinary(node.Operator, left, right)

	case *ast.Logical:
		left, err := e.evaluate(node.Left)
		if err != nil {
			return nil, err
		}
		if node.Operator.Type == token.OR {
			if object.IsTruthy(left) {
				return left, nil
			}
		} else if !object.IsTruthy(left) {
			return left, nil
		}
		return e.evaluate(node.Right)

	case *ast.Call:
		return e.evalCall(node)

	case *ast.Get:
		obj, err := e.evaluate(node.Object)
		if err != nil {
			return nil, err
		}
		instance, ok := obj.(*object.Instance)
		if !ok {
			return nil, diag.NewRuntime(diag.TypeMismatch, node.Name, "Only instances have properties.")
		}
		return instance.Get(node.Name)

	case *ast.Set:
		obj, err := e.evaluate(node.Object)
		if err != nil {
			return nil, err
		}
		instance, ok := obj.(*object.Instance)
		if !ok {
			return nil, diag.NewRuntime(diag.TypeMismatch, node.Name, "Only instances have fields.")
		}
		val, err := e.evaluate(node.Value)
		if err != nil {
			return nil, err
		}
		instance.Set(node.Name, val)
		return val, nil

	case *ast.This:
		return e.lookUpVariable(node.Keyword, node)

	case *ast.Super:
		return e.evalSuper(node)
	}

	return nil, fmt.Errorf("unhandled expression %T", expr)
}

// lookUpVariable reads a resolved local at its recorded distance and falls
// back to the globals for anything the resolver left unrecorded.
func (e *Evaluator) lookUpVariable(name *token.Token, expr ast.Expr) (object.Object, error) {
	if distance, ok := e.locals[expr]; ok {
		return e.CurrentEnv().GetAt(distance, name.Lexeme), nil
	}
	return e.globals.Get(name)
}

func (e *Evaluator) evalCall(node *ast.Call) (object.Object, error) {
	callee, err := e.evaluate(node.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]object.Object, 0, len(node.Arguments))
	for _, arg := range node.Arguments {
		val, err := e.evaluate(arg)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}

	fn, ok := callee.(object.Callable)
	if !ok {
		return nil, diag.NewRuntime(diag.NotCallable, node.Paren, "Can only call functions and classes.")
	}
	if len(args) != fn.Arity() {
		return nil, diag.NewRuntime(diag.Arity, node.Paren, "Expected %d arguments but got %d.", fn.Arity(), len(args))
	}
	return fn.Call(e, args)
}

// evalSuper finds the method on the superclass and binds it to the current
// receiver, which always sits one frame inside the super frame.
func (e *Evaluator) evalSuper(node *ast.Super) (object.Object, error) {
	distance := e.locals[node]
	superclass := e.CurrentEnv().GetAt(distance, "super").(*object.Class)
	receiver := e.CurrentEnv().GetAt(distance-1, "this").(*object.Instance)

	method, ok := superclass.FindMethod(node.Method.Lexeme)
	if !ok {
		return nil, diag.NewRuntime(diag.UndefinedProperty, node.Method, "Undefined property '%s'.", node.Method.Lexeme)
	}
	return method.Bind(receiver), nil
}
