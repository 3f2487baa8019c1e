package use

import (
	"fmt"
	"go/ast"
	"go/token"
)

func Err(message string) *Error {
	return &Error{message: message}
}

// DirectiveErr reports a malformed boxfit directive found in a source comment.
func DirectiveErr(message string, fset *token.FileSet, comment *ast.Comment) *Error {
	return &Error{message: message, comment: comment, fset: fset}
}

type Error struct {
	message string

	fset    *token.FileSet
	comment *ast.Comment
}

func (e *Error) Error() string {
	m := e.message
	if e.comment != nil {
		if e.fset != nil {
			m += fmt.Sprintf(" at %s", e.fset.Position(e.comment.Pos()))
		} else {
			m += fmt.Sprintf(" pos: %d", e.comment.Pos())
		}
	}
	return m
}
