package grammar

import "fmt"

// Rule tags a node of the parse tree with the grammar rule that produced it.
type Rule int

const (
	CreateQuery Rule = iota
	Create
	Table
	Identifier
	ColumnList
	ColumnDefinition
	DataType
	SimpleType
	VarcharType
	Length
	NotNull
	Terminator
	EOI
)

func (r Rule) String() string {
	switch r {
	case CreateQuery:
		return "create_query"
	case Create:
		return "CREATE"
	case Table:
		return "TABLE"
	case Identifier:
		return "identifier"
	case ColumnList:
		return "column_list"
	case ColumnDefinition:
		return "column_definition"
	case DataType:
		return "data_type"
	case SimpleType:
		return "simple_type"
	case VarcharType:
		return "varchar_type"
	case Length:
		return "length"
	case NotNull:
		return "not_null"
	case Terminator:
		return "terminator"
	case EOI:
		return "EOI"
	default:
		return fmt.Sprintf("Rule(%d)", int(r))
	}
}

// simpleTypes are the argument-less type keywords, keyed upper-case.
var simpleTypes = map[string]struct{}{
	"INT":       {},
	"INTEGER":   {},
	"SMALLINT":  {},
	"BIGINT":    {},
	"TEXT":      {},
	"BOOLEAN":   {},
	"BOOL":      {},
	"DATE":      {},
	"DATETIME":  {},
	"TIMESTAMP": {},
	"FLOAT":     {},
	"DOUBLE":    {},
	"REAL":      {},
}
