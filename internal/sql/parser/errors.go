package parser

import "errors"

var (
	// ErrSyntax wraps a *grammar.SyntaxError.
	ErrSyntax                  = errors.New("syntax error")
	ErrNoStatement             = errors.New("no statement found")
	ErrMissingTableName        = errors.New("missing table name")
	ErrInvalidColumnDefinition = errors.New("invalid column definition")
	ErrInvalidDataType         = errors.New("invalid data type")
	// ErrInvalidVarcharLength wraps the *strconv.NumError of the length.
	ErrInvalidVarcharLength = errors.New("invalid VARCHAR length")
	// ErrUnexpectedRule means the grammar produced a node the builder does not
	// know how to fold.
	ErrUnexpectedRule = errors.New("unexpected grammar rule")
)
