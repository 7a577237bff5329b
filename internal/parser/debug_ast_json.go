package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"lox/internal/ast"
	"lox/internal/token"
)

// WalkAST recursively traverses an AST and serializes it into a machine-centric map structure.
// This output is designed for stability, canonical representation, and tool-chain consumption.
func WalkAST(node ast.Node) interface{} {
	switch n := node.(type) {
	case nil:
		return nil

	case *ast.Program:
		return map[string]interface{}{
			"type":       "Program",
			"statements": walkStmts(n.Statements),
		}

	case *ast.BlockStatement:
		return map[string]interface{}{
			"type":       "Block",
			"line":       n.Line(),
			"statements": walkStmts(n.Statements),
		}

	case *ast.ClassStatement:
		methods := make([]interface{}, len(n.Methods))
		for i, m := range n.Methods {
			methods[i] = WalkAST(m)
		}
		var superclass interface{}
		if n.Superclass != nil {
			superclass = WalkAST(n.Superclass)
		}
		return map[string]interface{}{
			"type":       "Class",
			"line":       n.Line(),
			"name":       n.Name.Lexeme,
			"superclass": superclass,
			"methods":    methods,
		}

	case *ast.ExpressionStatement:
		return map[string]interface{}{
			"type":       "Expression",
			"line":       n.Line(),
			"expression": WalkAST(n.Expression),
		}

	case *ast.FunctionStatement:
		return map[string]interface{}{
			"type":   "Function",
			"line":   n.Line(),
			"name":   n.Name.Lexeme,
			"params": walkTokens(n.Params),
			"body":   walkStmts(n.Body),
		}

	case *ast.IfStatement:
		var elseBranch interface{}
		if n.ElseBranch != nil {
			elseBranch = WalkAST(n.ElseBranch)
		}
		return map[string]interface{}{
			"type":       "If",
			"line":       n.Line(),
			"condition":  WalkAST(n.Condition),
			"thenBranch": WalkAST(n.ThenBranch),
			"elseBranch": elseBranch,
		}

	case *ast.PrintStatement:
		return map[string]interface{}{
			"type":       "Print",
			"line":       n.Line(),
			"expression": WalkAST(n.Expression),
		}

	case *ast.ReturnStatement:
		return map[string]interface{}{
			"type":  "Return",
			"line":  n.Line(),
			"value": walkOptional(n.Value),
		}

	case *ast.VarStatement:
		return map[string]interface{}{
			"type":        "Var",
			"line":        n.Line(),
			"name":        n.Name.Lexeme,
			"initializer": walkOptional(n.Initializer),
		}

	case *ast.WhileStatement:
		return map[string]interface{}{
			"type":      "While",
			"line":      n.Line(),
			"condition": WalkAST(n.Condition),
			"body":      WalkAST(n.Body),
		}

	case *ast.Assign:
		return map[string]interface{}{
			"type":  "Assign",
			"name":  n.Name.Lexeme,
			"value": WalkAST(n.Value),
		}

	case *ast.Binary:
		return map[string]interface{}{
			"type":     "Binary",
			"operator": n.Operator.Lexeme,
			"left":     WalkAST(n.Left),
			"right":    WalkAST(n.Right),
		}

	case *ast.Call:
		args := make([]interface{}, len(n.Arguments))
		for i, a := range n.Arguments {
			args[i] = WalkAST(a)
		}
		return map[string]interface{}{
			"type":      "Call",
			"callee":    WalkAST(n.Callee),
			"arguments": args,
		}

	case *ast.Get:
		return map[string]interface{}{
			"type":   "Get",
			"object": WalkAST(n.Object),
			"name":   n.Name.Lexeme,
		}

	case *ast.Grouping:
		return map[string]interface{}{
			"type":       "Grouping",
			"expression": WalkAST(n.Expression),
		}

	case *ast.Literal:
		return map[string]interface{}{
			"type":  "Literal",
			"value": n.Value,
		}

	case *ast.Logical:
		return map[string]interface{}{
			"type":     "Logical",
			"operator": n.Operator.Lexeme,
			"left":     WalkAST(n.Left),
			"right":    WalkAST(n.Right),
		}

	case *ast.Set:
		return map[string]interface{}{
			"type":   "Set",
			"object": WalkAST(n.Object),
			"name":   n.Name.Lexeme,
			"value":  WalkAST(n.Value),
		}

	case *ast.Super:
		return map[string]interface{}{
			"type":   "Super",
			"method": n.Method.Lexeme,
		}

	case *ast.This:
		return map[string]interface{}{"type": "This"}

	case *ast.Unary:
		return map[string]interface{}{
			"type":     "Unary",
			"operator": n.Operator.Lexeme,
			"right":    WalkAST(n.Right),
		}

	case *ast.Variable:
		return map[string]interface{}{
			"type": "Variable",
			"name": n.Name.Lexeme,
		}

	default:
		return map[string]interface{}{
			"type": "Unknown",
			"node": fmt.Sprintf("%T", n),
		}
	}
}

func walkStmts(stmts []ast.Stmt) []interface{} {
	result := make([]interface{}, len(stmts))
	for i, s := range stmts {
		result[i] = WalkAST(s)
	}
	return result
}

func walkTokens(tokens []*token.Token) []interface{} {
	result := make([]interface{}, len(tokens))
	for i, t := range tokens {
		result[i] = t.Lexeme
	}
	return result
}

func walkOptional(expr ast.Expr) interface{} {
	if expr == nil {
		return nil
	}
	return WalkAST(expr)
}

func RenderASTAsJSON(node ast.Node) (string, error) {
	astMap := WalkAST(node)
	buf := new(bytes.Buffer)
	encoder := json.NewEncoder(buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(astMap); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %w", err)
	}
	return buf.String(), nil
}
