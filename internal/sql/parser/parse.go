package parser

import (
	"fmt"

	"github.com/prymochenkovictoria/sql-create-parser/internal/sql/grammar"
)

// Parse parses a single CREATE TABLE statement into an AST.
// The trailing ';' is optional.
func Parse(sql string) (*CreateTableStmt, error) {
	trees, err := grammar.Recognize(sql)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	if len(trees) == 0 {
		return nil, ErrNoStatement
	}
	return buildCreateTable(trees[0])
}
