package parser

import "fmt"

// DataType is a column type. It is either SimpleType or VarcharType.
type DataType interface {
	fmt.Stringer
	dataTypeNode()
}

// SimpleType is an argument-less type keyword, upper-cased ("INT", "TEXT").
type SimpleType struct {
	Name string
}

func (SimpleType) dataTypeNode() {}

func (t SimpleType) String() string { return t.Name }

// VarcharType is VARCHAR(Length).
type VarcharType struct {
	Length uint64
}

func (VarcharType) dataTypeNode() {}

func (t VarcharType) String() string { return fmt.Sprintf("VARCHAR(%d)", t.Length) }

// ----- CREATE TABLE -----
type ColumnDef struct {
	Name    string
	Type    DataType
	NotNull bool
}

type CreateTableStmt struct {
	TableName string
	Columns   []ColumnDef
}
