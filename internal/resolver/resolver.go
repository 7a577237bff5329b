// Package resolver performs the static scope pass. It records, for every
// local variable reference, how many frames separate the reference from its
// binding, and reports the structural errors that must stop a program before
// it runs.
package resolver

import (
	"log/slog"
	"lox/internal/ast"
	"lox/internal/diag"
	"lox/internal/object"
	"lox/internal/token"
)

// Locals receives the distance of every reference that resolved to a local
// scope. References it never hears about are globals.
type Locals interface {
	Resolve(expr ast.Expr, depth int)
}

type functionKind int

const (
	functionNone functionKind = iota
	functionPlain
	functionInitializer
	functionMethod
)

type classKind int

const (
	classNone classKind = iota
	classPlain
	classSubclass
)

// scope maps a name to whether its initializer has finished resolving.
type scope map[string]bool

type Resolver struct {
	locals Locals
	errors diag.List

	scopes          []scope
	currentFunction functionKind
	currentClass    classKind
}

func New(locals Locals) *Resolver {
	return &Resolver{locals: locals}
}

// Resolve walks a complete program. Errors accumulate; the caller must not
// evaluate the program when the returned list is non-empty.
func (r *Resolver) Resolve(stmts []ast.Stmt) *diag.List {
	r.resolveStatements(stmts)
	return &r.errors
}

// Depth is the number of open scopes; zero between top-level programs.
func (r *Resolver) Depth() int {
	return len(r.scopes)
}

func (r *Resolver) Errors() *diag.List {
	return &r.errors
}

func (r *Resolver) resolveStatements(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		r.resolveStatement(stmt)
	}
}

func (r *Resolver) resolveStatement(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.BlockStatement:
		r.beginScope()
		r.resolveStatements(s.Statements)
		r.endScope()

	case *ast.VarStatement:
		r.declare(s.Name)
		if s.Initializer != nil {
			r.resolveExpression(s.Initializer)
		}
		r.define(s.Name)

	case *ast.FunctionStatement:
		// defined before the body so the function can call itself
		r.declare(s.Name)
		r.define(s.Name)
		r.resolveFunction(s, functionPlain)

	case *ast.ClassStatement:
		r.resolveClass(s)

	case *ast.ExpressionStatement:
		r.resolveExpression(s.Expression)

	case *ast.PrintStatement:
		r.resolveExpression(s.Expression)

	case *ast.IfStatement:
		r.resolveExpression(s.Condition)
		r.resolveStatement(s.ThenBranch)
		if s.ElseBranch != nil {
			r.resolveStatement(s.ElseBranch)
		}

	case *ast.WhileStatement:
		r.resolveExpression(s.Condition)
		r.resolveStatement(s.Body)

	case *ast.ReturnStatement:
		if r.currentFunction == functionNone {
			r.errors.Report(diag.ReturnOutsideFunction, s.Keyword, "Can't return from top-level code.")
		}
		if s.Value != nil {
			if r.currentFunction == functionInitializer {
				r.errors.Report(diag.ReturnValueFromInit, s.Keyword, "Can't return a value from an initializer.")
			}
			r.resolveExpression(s.Value)
		}

	default:
		panic("resolver: unhandled statement type")
	}
}

func (r *Resolver) resolveClass(s *ast.ClassStatement) {
	enclosingClass := r.currentClass
	r.currentClass = classPlain
	defer func() { r.currentClass = enclosingClass }()

	r.declare(s.Name)
	r.define(s.Name)

	if s.Superclass != nil {
		if s.Superclass.Name.Lexeme == s.Name.Lexeme {
			r.errors.Report(diag.SelfInheritance, s.Superclass.Name, "A class can't inherit from itself.")
		}
		r.currentClass = classSubclass
		r.resolveExpression(s.Superclass)

		r.beginScope()
		r.peek()["super"] = true
	}

	r.beginScope()
	r.peek()["this"] = true

	for _, method := range s.Methods {
		kind := functionMethod
		if method.Name.Lexeme == object.InitializerName {
			kind = functionInitializer
		}
		r.resolveFunction(method, kind)
	}

	r.endScope()
	if s.Superclass != nil {
		r.endScope()
	}
}

func (r *Resolver) resolveFunction(fn *ast.FunctionStatement, kind functionKind) {
	enclosingFunction := r.currentFunction
	r.currentFunction = kind

	r.beginScope()
	for _, param := range fn.Params {
		r.declare(param)
		r.define(param)
	}
	r.resolveStatements(fn.Body)
	r.endScope()

	r.currentFunction = enclosingFunction
}

func (r *Resolver) resolveExpression(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Variable:
		if len(r.scopes) > 0 {
			if defined, declared := r.peek()[e.Name.Lexeme]; declared && !defined {
				r.errors.Report(diag.ReadInInitializer, e.Name, "Can't read local variable in its own initializer.")
			}
		}
		r.resolveLocal(e, e.Name)

	case *ast.Assign:
		r.resolveExpression(e.Value)
		r.resolveLocal(e, e.Name)

	case *ast.Binary:
		r.resolveExpression(e.Left)
		r.resolveExpression(e.Right)

	case *ast.Logical:
		r.resolveExpression(e.Left)
		r.resolveExpression(e.Right)

	case *ast.Unary:
		r.resolveExpression(e.Right)

	case *ast.Grouping:
		r.resolveExpression(e.Expression)

	case *ast.Call:
		r.resolveExpression(e.Callee)
		for _, arg := range e.Arguments {
			r.resolveExpression(arg)
		}

	case *ast.Get:
		// property names are looked up dynamically
		r.resolveExpression(e.Object)

	case *ast.Set:
		r.resolveExpression(e.Value)
		r.resolveExpression(e.Object)

	case *ast.This:
		if r.currentClass == classNone {
			r.errors.Report(diag.ThisOutsideClass, e.Keyword, "Can't use 'this' outside of a class.")
			return
		}
		r.resolveLocal(e, e.Keyword)

	case *ast.Super:
		switch r.currentClass {
		case classNone:
			r.errors.Report(diag.SuperOutsideClass, e.Keyword, "Can't use 'super' outside of a class.")
		case classPlain:
			r.errors.Report(diag.SuperWithoutSuperclass, e.Keyword, "Can't use 'super' in a class with no superclass.")
		}
		r.resolveLocal(e, e.Keyword)

	case *ast.Literal:

	default:
		panic("resolver: unhandled expression type")
	}
}

// resolveLocal records the distance to the innermost scope binding name.
// Nothing is recorded when the name is global.
func (r *Resolver) resolveLocal(expr ast.Expr, name *token.Token) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name.Lexeme]; ok {
			depth := len(r.scopes) - 1 - i
			slog.Debug("resolved local",
				slog.String("name", name.Lexeme),
				slog.Int("line", name.Line),
				slog.Int("depth", depth))
			r.locals.Resolve(expr, depth)
			return
		}
	}
}

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, scope{})
}

func (r *Resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *Resolver) peek() scope {
	return r.scopes[len(r.scopes)-1]
}

// declare and define are no-ops at global scope, where redeclaration and
// self-reference are allowed.
func (r *Resolver) declare(name *token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	s := r.peek()
	if _, exists := s[name.Lexeme]; exists {
		r.errors.Report(diag.DuplicateLocal, name, "Already variable with this name in this scope.")
	}
	s[name.Lexeme] = false
}

func (r *Resolver) define(name *token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	r.peek()[name.Lexeme] = true
}
