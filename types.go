// Package sqlcreate parses CREATE TABLE statements into a typed AST.
package sqlcreate

import "github.com/prymochenkovictoria/sql-create-parser/internal/sql/parser"

type (
	CreateTableQuery = parser.CreateTableStmt
	ColumnDef        = parser.ColumnDef
	DataType         = parser.DataType
	SimpleType       = parser.SimpleType
	VarcharType      = parser.VarcharType
)

var (
	ErrSyntax                  = parser.ErrSyntax
	ErrNoStatement             = parser.ErrNoStatement
	ErrMissingTableName        = parser.ErrMissingTableName
	ErrInvalidColumnDefinition = parser.ErrInvalidColumnDefinition
	ErrInvalidDataType         = parser.ErrInvalidDataType
	ErrInvalidVarcharLength    = parser.ErrInvalidVarcharLength
	ErrUnexpectedRule          = parser.ErrUnexpectedRule
)

// ParseQuery parses one CREATE TABLE statement. It is safe for concurrent use.
func ParseQuery(text string) (*CreateTableQuery, error) {
	return parser.Parse(text)
}
