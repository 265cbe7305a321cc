package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prymochenkovictoria/sql-create-parser/internal/sql/grammar"
)

// buildCreateTable folds a create_query node into a CreateTableStmt.
func buildCreateTable(n *grammar.Node) (*CreateTableStmt, error) {
	var (
		tableName string
		found     bool
		columns   []ColumnDef
	)

	for _, child := range n.Children {
		switch child.Rule {
		case grammar.Identifier:
			if !found {
				tableName = child.Text
				found = true
			}
		case grammar.ColumnList:
			cols, err := buildColumnList(child)
			if err != nil {
				return nil, err
			}
			columns = cols
		case grammar.Create, grammar.Table, grammar.Terminator, grammar.EOI:
		default:
			return nil, fmt.Errorf("%w: %s in %s", ErrUnexpectedRule, child.Rule, n.Rule)
		}
	}

	if !found {
		return nil, ErrMissingTableName
	}

	return &CreateTableStmt{
		TableName: tableName,
		Columns:   columns,
	}, nil
}

// buildColumnList stops at the first column that fails.
func buildColumnList(n *grammar.Node) ([]ColumnDef, error) {
	cols := make([]ColumnDef, 0, len(n.Children))
	for _, child := range n.Children {
		if child.Rule != grammar.ColumnDefinition {
			return nil, fmt.Errorf("%w: %s in %s", ErrUnexpectedRule, child.Rule, n.Rule)
		}
		col, err := buildColumnDef(child)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, nil
}

func buildColumnDef(n *grammar.Node) (ColumnDef, error) {
	if len(n.Children) < 2 ||
		n.Children[0].Rule != grammar.Identifier ||
		n.Children[1].Rule != grammar.DataType {
		return ColumnDef{}, fmt.Errorf("%w: %q", ErrInvalidColumnDefinition, n.Text)
	}

	name := n.Children[0].Text
	dt, err := buildDataType(n.Children[1])
	if err != nil {
		return ColumnDef{}, fmt.Errorf("column %s: %w", name, err)
	}

	col := ColumnDef{Name: name, Type: dt}
	for _, rest := range n.Children[2:] {
		switch rest.Rule {
		case grammar.NotNull:
			col.NotNull = true
		default:
			return ColumnDef{}, fmt.Errorf("%w: %s in %s", ErrUnexpectedRule, rest.Rule, n.Rule)
		}
	}
	return col, nil
}

func buildDataType(n *grammar.Node) (DataType, error) {
	if len(n.Children) == 0 {
		return nil, ErrInvalidDataType
	}

	inner := n.Children[0]
	switch inner.Rule {
	case grammar.SimpleType:
		return SimpleType{Name: strings.ToUpper(inner.Text)}, nil
	case grammar.VarcharType:
		if len(inner.Children) == 0 || inner.Children[0].Rule != grammar.Length {
			return nil, ErrInvalidDataType
		}
		lit := inner.Children[0].Text
		length, err := strconv.ParseUint(lit, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidVarcharLength, err)
		}
		return VarcharType{Length: length}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDataType, inner.Text)
	}
}
