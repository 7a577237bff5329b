package ast

import (
	"lox/internal/token"
)

// Every node is a pointer; the resolver and evaluator key side tables by that
// identity, so nodes must never be copied by value.

// The base Node interface
type Node interface {
	Line() int
}

type Expr interface {
	Node
	exprNode()
}

type Stmt interface {
	Node
	stmtNode()
}

type Program struct {
	Statements []Stmt
}

// Expressions

type Literal struct {
	Token *token.Token // nil for synthesized literals
	Value any          // nil, bool, float64 or string
}

type Variable struct {
	Name *token.Token
}

type Assign struct {
	Name  *token.Token
	Value Expr
}

type Unary struct {
	Operator *token.Token
	Right    Expr
}

type Binary struct {
	Left     Expr
	Operator *token.Token
	Right    Expr
}

type Logical struct {
	Left     Expr
	Operator *token.Token
	Right    Expr
}

type Grouping struct {
	Expression Expr
}

type Call struct {
	Callee    Expr
	Paren     *token.Token // the closing paren, used for error lines
	Arguments []Expr
}

type Get struct {
	Object Expr
	Name   *token.Token
}

type Set struct {
	Object Expr
	Name   *token.Token
	Value  Expr
}

type This struct {
	Keyword *token.Token
}

type Super struct {
	Keyword *token.Token
	Method  *token.Token
}

func (*Literal) exprNode()  {}
func (*Variable) exprNode() {}
func (*Assign) exprNode()   {}
func (*Unary) exprNode()    {}
func (*Binary) exprNode()   {}
func (*Logical) exprNode()  {}
func (*Grouping) exprNode() {}
func (*Call) exprNode()     {}
func (*Get) exprNode()      {}
func (*Set) exprNode()      {}
func (*This) exprNode()     {}
func (*Super) exprNode()    {}

func (n *Literal) Line() int {
	if n.Token == nil {
		return 0
	}
	return n.Token.Line
}
func (n *Variable) Line() int { return n.Name.Line }
func (n *Assign) Line() int   { return n.Name.Line }
func (n *Unary) Line() int    { return n.Operator.Line }
func (n *Binary) Line() int   { return n.Operator.Line }
func (n *Logical) Line() int  { return n.Operator.Line }
func (n *Grouping) Line() int { return n.Expression.Line() }
func (n *Call) Line() int     { return n.Paren.Line }
func (n *Get) Line() int      { return n.Name.Line }
func (n *Set) Line() int      { return n.Name.Line }
func (n *This) Line() int     { return n.Keyword.Line }
func (n *Super) Line() int    { return n.Keyword.Line }

// Statements

type ExpressionStatement struct {
	Expression Expr
}

type PrintStatement struct {
	Keyword    *token.Token
	Expression Expr
}

type VarStatement struct {
	Name        *token.Token
	Initializer Expr // nil when absent
}

type BlockStatement struct {
	Token      *token.Token // the { token
	Statements []Stmt
}

type IfStatement struct {
	Keyword    *token.Token
	Condition  Expr
	ThenBranch Stmt
	ElseBranch Stmt // nil when absent
}

type WhileStatement struct {
	Keyword   *token.Token
	Condition Expr
	Body      Stmt
}

type FunctionStatement struct {
	Name   *token.Token
	Params []*token.Token
	Body   []Stmt
}

type ReturnStatement struct {
	Keyword *token.Token
	Value   Expr // nil for a bare return
}

type ClassStatement struct {
	Name       *token.Token
	Superclass *Variable // nil when absent
	Methods    []*FunctionStatement
}

func (*ExpressionStatement) stmtNode() {}
func (*PrintStatement) stmtNode()      {}
func (*VarStatement) stmtNode()        {}
func (*BlockStatement) stmtNode()      {}
func (*IfStatement) stmtNode()         {}
func (*WhileStatement) stmtNode()      {}
func (*FunctionStatement) stmtNode()   {}
func (*ReturnStatement) stmtNode()     {}
func (*ClassStatement) stmtNode()      {}

func (n *ExpressionStatement) Line() int { return n.Expression.Line() }
func (n *PrintStatement) Line() int      { return n.Keyword.Line }
func (n *VarStatement) Line() int        { return n.Name.Line }
func (n *BlockStatement) Line() int      { return n.Token.Line }
func (n *IfStatement) Line() int         { return n.Keyword.Line }
func (n *WhileStatement) Line() int      { return n.Keyword.Line }
func (n *FunctionStatement) Line() int   { return n.Name.Line }
func (n *ReturnStatement) Line() int     { return n.Keyword.Line }
func (n *ClassStatement) Line() int      { return n.Name.Line }

func (p *Program) Line() int {
	if len(p.Statements) > 0 {
		return p.Statements[0].Line()
	}
	return 0
}
