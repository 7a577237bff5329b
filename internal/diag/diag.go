// Package diag defines the static and runtime errors reported by the
// interpreter and the formatting used to surface them to the host.
package diag

import (
	"errors"
	"fmt"
	"lox/internal/token"
)

type Kind int

const (
	Unknown Kind = iota

	// static
	Syntax
	ReadInInitializer
	DuplicateLocal
	ReturnOutsideFunction
	ReturnValueFromInit
	ThisOutsideClass
	SuperOutsideClass
	SuperWithoutSuperclass
	SelfInheritance

	// runtime
	UndefinedVariable
	UndefinedProperty
	NotCallable
	Arity
	InheritanceTypeError
	TypeMismatch
)

var kindNames = map[Kind]string{
	Unknown:                "Unknown",
	Syntax:                 "Syntax",
	ReadInInitializer:      "ReadInInitializer",
	DuplicateLocal:         "DuplicateLocal",
	ReturnOutsideFunction:  "ReturnOutsideFunction",
	ReturnValueFromInit:    "ReturnValueFromInit",
	ThisOutsideClass:       "ThisOutsideClass",
	SuperOutsideClass:      "SuperOutsideClass",
	SuperWithoutSuperclass: "SuperWithoutSuperclass",
	SelfInheritance:        "SelfInheritance",
	UndefinedVariable:      "UndefinedVariable",
	UndefinedProperty:      "UndefinedProperty",
	NotCallable:            "NotCallable",
	Arity:                  "Arity",
	InheritanceTypeError:   "InheritanceTypeError",
	TypeMismatch:           "TypeMismatch",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsStatic reports whether errors of this kind are produced before evaluation.
func (k Kind) IsStatic() bool {
	return k >= Syntax && k <= SelfInheritance
}

// StaticError is reported by the lexer, parser or resolver. Token is nil for
// lexer errors, which only know their line.
type StaticError struct {
	Kind    Kind
	Token   *token.Token
	Line    int
	Message string
}

func NewStatic(kind Kind, tok *token.Token, message string) *StaticError {
	line := 0
	if tok != nil {
		line = tok.Line
	}
	return &StaticError{Kind: kind, Token: tok, Line: line, Message: message}
}

func (e *StaticError) Error() string {
	where := ""
	if e.Token != nil {
		if e.Token.Type == token.EOF {
			where = " at end"
		} else {
			where = fmt.Sprintf(" at '%s'", e.Token.Lexeme)
		}
	}
	return fmt.Sprintf("[line %d] Error%s: %s", e.Line, where, e.Message)
}

// RuntimeError unwinds the current program and is surfaced to the host.
type RuntimeError struct {
	Kind    Kind
	Token   *token.Token
	Message string
}

func NewRuntime(kind Kind, tok *token.Token, format string, a ...any) *RuntimeError {
	return &RuntimeError{Kind: kind, Token: tok, Message: fmt.Sprintf(format, a...)}
}

func (e *RuntimeError) Error() string {
	if e.Token == nil {
		return e.Message
	}
	return fmt.Sprintf("%s\n[line %d]", e.Message, e.Token.Line)
}

// Line returns the line of the offending token, or 0 when unknown.
func (e *RuntimeError) Line() int {
	if e.Token == nil {
		return 0
	}
	return e.Token.Line
}

// Is reports whether err carries a static or runtime error of the given kind.
func Is(err error, kind Kind) bool {
	var se *StaticError
	if errors.As(err, &se) && se.Kind == kind {
		return true
	}
	var re *RuntimeError
	if errors.As(err, &re) && re.Kind == kind {
		return true
	}
	// errors.As stops at the first match, joined lists need a full walk
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if Is(e, kind) {
				return true
			}
		}
	}
	return false
}

// List accumulates static errors so a stage can keep going after each one.
type List struct {
	errs []*StaticError
}

func (l *List) Add(err *StaticError) {
	l.errs = append(l.errs, err)
}

func (l *List) Report(kind Kind, tok *token.Token, message string) {
	l.Add(NewStatic(kind, tok, message))
}

func (l *List) Len() int {
	return len(l.errs)
}

func (l *List) Errors() []*StaticError {
	return l.errs
}

// Messages returns the rendered form of every error, in report order.
func (l *List) Messages() []string {
	out := make([]string, 0, len(l.errs))
	for _, e := range l.errs {
		out = append(out, e.Error())
	}
	return out
}

// Err returns nil when the list is empty, otherwise all errors joined.
func (l *List) Err() error {
	if len(l.errs) == 0 {
		return nil
	}
	errs := make([]error, 0, len(l.errs))
	for _, e := range l.errs {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}
