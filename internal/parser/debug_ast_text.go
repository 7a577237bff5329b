package parser

import (
	"fmt"
	"lox/internal/ast"
	"lox/internal/token"
	"strconv"
	"strings"
)

// RenderASTAsText produces a parenthesised, Lisp-like rendering of the AST,
// one top-level statement per line. It is meant for checking precedence and
// desugaring (for loops show up as their while form).
func RenderASTAsText(node ast.Node) string {
	switch n := node.(type) {
	case nil:
		return "nil"

	case *ast.Program:
		lines := make([]string, 0, len(n.Statements))
		for _, s := range n.Statements {
			lines = append(lines, RenderASTAsText(s))
		}
		return strings.Join(lines, "\n")

	// Statements
	case *ast.BlockStatement:
		var sb strings.Builder
		sb.WriteString("(block")
		for _, s := range n.Statements {
			sb.WriteString(" ")
			sb.WriteString(RenderASTAsText(s))
		}
		sb.WriteString(")")
		return sb.String()

	case *ast.ClassStatement:
		var sb strings.Builder
		sb.WriteString("(class ")
		sb.WriteString(n.Name.Lexeme)
		if n.Superclass != nil {
			sb.WriteString(" < ")
			sb.WriteString(RenderASTAsText(n.Superclass))
		}
		for _, m := range n.Methods {
			sb.WriteString(" ")
			sb.WriteString(RenderASTAsText(m))
		}
		sb.WriteString(")")
		return sb.String()

	case *ast.ExpressionStatement:
		return parenthesize(";", n.Expression)

	case *ast.FunctionStatement:
		params := make([]string, 0, len(n.Params))
		for _, p := range n.Params {
			params = append(params, p.Lexeme)
		}
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("(fun %s(%s)", n.Name.Lexeme, strings.Join(params, " ")))
		for _, s := range n.Body {
			sb.WriteString(" ")
			sb.WriteString(RenderASTAsText(s))
		}
		sb.WriteString(")")
		return sb.String()

	case *ast.IfStatement:
		if n.ElseBranch == nil {
			return parenthesize("if", n.Condition, n.ThenBranch)
		}
		return parenthesize("if-else", n.Condition, n.ThenBranch, n.ElseBranch)

	case *ast.PrintStatement:
		return parenthesize("print", n.Expression)

	case *ast.ReturnStatement:
		if n.Value == nil {
			return "(return)"
		}
		return parenthesize("return", n.Value)

	case *ast.VarStatement:
		if n.Initializer == nil {
			return parenthesize("var", n.Name)
		}
		return parenthesize("var", n.Name, "=", n.Initializer)

	case *ast.WhileStatement:
		return parenthesize("while", n.Condition, n.Body)

	// Expressions
	case *ast.Assign:
		return parenthesize("=", n.Name, n.Value)
	case *ast.Binary:
		return parenthesize(n.Operator.Lexeme, n.Left, n.Right)
	case *ast.Call:
		return parenthesize("call", n.Callee, n.Arguments)
	case *ast.Get:
		return parenthesize(".", n.Object, n.Name)
	case *ast.Grouping:
		return parenthesize("group", n.Expression)
	case *ast.Literal:
		return renderLiteral(n.Value)
	case *ast.Logical:
		return parenthesize(n.Operator.Lexeme, n.Left, n.Right)
	case *ast.Set:
		return parenthesize("=", n.Object, n.Name, n.Value)
	case *ast.Super:
		return parenthesize("super", n.Method)
	case *ast.This:
		return "this"
	case *ast.Unary:
		return parenthesize(n.Operator.Lexeme, n.Right)
	case *ast.Variable:
		return n.Name.Lexeme
	}

	return fmt.Sprintf("<unknown %T>", node)
}

func parenthesize(name string, parts ...any) string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(name)
	writeParts(&sb, parts)
	sb.WriteString(")")
	return sb.String()
}

func writeParts(sb *strings.Builder, parts []any) {
	for _, part := range parts {
		switch p := part.(type) {
		case ast.Node:
			sb.WriteString(" ")
			sb.WriteString(RenderASTAsText(p))
		case *token.Token:
			sb.WriteString(" ")
			sb.WriteString(p.Lexeme)
		case []ast.Expr:
			for _, e := range p {
				sb.WriteString(" ")
				sb.WriteString(RenderASTAsText(e))
			}
		default:
			sb.WriteString(fmt.Sprintf(" %v", p))
		}
	}
}

func renderLiteral(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
