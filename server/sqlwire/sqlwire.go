package sqlwire

import (
	"errors"

	"github.com/prymochenkovictoria/sql-create-parser/internal/sql/parser"
)

// ParseRequest asks the server to parse one statement.
type ParseRequest struct {
	ID  uint64 `json:"id"`
	SQL string `json:"sql"`
}

// ParseResponse answers the request with the same ID. Exactly one of Schema
// and Error is set; Kind classifies Error.
type ParseResponse struct {
	ID     uint64       `json:"id"`
	Schema *TableSchema `json:"schema,omitempty"`
	Kind   string       `json:"kind,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// TableSchema is the wire form of a parsed CREATE TABLE statement.
type TableSchema struct {
	Table   string         `json:"table"`
	Columns []ColumnSchema `json:"columns"`
}

type ColumnSchema struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Length  uint64 `json:"length,omitempty"`
	NotNull bool   `json:"not_null"`
}

// SchemaFromStmt converts the AST into its wire form.
func SchemaFromStmt(stmt *parser.CreateTableStmt) *TableSchema {
	ts := &TableSchema{
		Table:   stmt.TableName,
		Columns: make([]ColumnSchema, 0, len(stmt.Columns)),
	}
	for _, c := range stmt.Columns {
		col := ColumnSchema{Name: c.Name, NotNull: c.NotNull}
		switch t := c.Type.(type) {
		case parser.SimpleType:
			col.Type = t.Name
		case parser.VarcharType:
			col.Type = "VARCHAR"
			col.Length = t.Length
		default:
			col.Type = c.Type.String()
		}
		ts.Columns = append(ts.Columns, col)
	}
	return ts
}

// Error kinds carried in ParseResponse.Kind.
const (
	KindSyntax                  = "syntax"
	KindNoStatement             = "no_statement"
	KindMissingTableName        = "missing_table_name"
	KindInvalidColumnDefinition = "invalid_column_definition"
	KindInvalidDataType         = "invalid_data_type"
	KindInvalidVarcharLength    = "invalid_varchar_length"
	KindUnexpectedRule          = "unexpected_rule"
	KindInternal                = "internal"
)

// ErrorKind classifies a parser error for the wire.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, parser.ErrSyntax):
		return KindSyntax
	case errors.Is(err, parser.ErrNoStatement):
		return KindNoStatement
	case errors.Is(err, parser.ErrMissingTableName):
		return KindMissingTableName
	case errors.Is(err, parser.ErrInvalidColumnDefinition):
		return KindInvalidColumnDefinition
	case errors.Is(err, parser.ErrInvalidDataType):
		return KindInvalidDataType
	case errors.Is(err, parser.ErrInvalidVarcharLength):
		return KindInvalidVarcharLength
	case errors.Is(err, parser.ErrUnexpectedRule):
		return KindUnexpectedRule
	default:
		return KindInternal
	}
}
