package grammar

import (
	"fmt"
	"strings"
)

// SyntaxError reports the first point where the input diverged from the
// grammar.
type SyntaxError struct {
	Pos      Position
	Expected []string
	Found    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d, column %d: expected %s, found %s",
		e.Pos.Line, e.Pos.Column, joinExpected(e.Expected), e.Found)
}

func joinExpected(exp []string) string {
	switch len(exp) {
	case 0:
		return "nothing"
	case 1:
		return exp[0]
	default:
		return strings.Join(exp[:len(exp)-1], ", ") + " or " + exp[len(exp)-1]
	}
}

// Recognize matches src against create_query:
//
//	create_query      = CREATE TABLE identifier "(" column_list ")" [";"] EOI
//	column_list       = column_definition { "," column_definition }
//	column_definition = identifier data_type [NOT NULL]
//	data_type         = varchar_type | simple_type | identifier
//	varchar_type      = VARCHAR "(" length ")"
//	length            = (numeral | word) { numeral | word }  no space between
//
// Blank input matches nothing and yields no trees. Any other mismatch returns a
// *SyntaxError and no tree.
func Recognize(src string) ([]*Node, error) {
	r := &recognizer{src: src, lex: newLexer(src)}
	r.advance()

	if r.tok.kind == tokEOF {
		return nil, nil
	}

	root, err := r.createQuery()
	if err != nil {
		return nil, err
	}
	return []*Node{root}, nil
}

type recognizer struct {
	src string
	lex *lexer
	tok token
}

func (r *recognizer) advance() {
	r.tok = r.lex.next()
}

func (r *recognizer) fail(expected ...string) error {
	return &SyntaxError{
		Pos:      r.tok.pos,
		Expected: expected,
		Found:    r.tok.describe(),
	}
}

func (r *recognizer) node(rule Rule, start, end int, children ...*Node) *Node {
	return &Node{
		Rule:     rule,
		Span:     Span{Start: start, End: end},
		Text:     r.src[start:end],
		Children: children,
	}
}

// leaf turns the current token into a node and moves past it.
func (r *recognizer) leaf(rule Rule) *Node {
	n := r.node(rule, r.tok.pos.Offset, r.tok.end)
	r.advance()
	return n
}

func (r *recognizer) isKeyword(word string) bool {
	return r.tok.kind == tokWord && strings.EqualFold(r.tok.text, word)
}

func (r *recognizer) keyword(rule Rule, word string) (*Node, error) {
	if !r.isKeyword(word) {
		return nil, r.fail(word)
	}
	return r.leaf(rule), nil
}

func (r *recognizer) identifier(what string) (*Node, error) {
	if r.tok.kind != tokWord {
		return nil, r.fail(what)
	}
	return r.leaf(Identifier), nil
}

func (r *recognizer) expect(kind tokenKind, what string) (token, error) {
	if r.tok.kind != kind {
		return token{}, r.fail(what)
	}
	t := r.tok
	r.advance()
	return t, nil
}

func (r *recognizer) createQuery() (*Node, error) {
	start := r.tok.pos.Offset

	create, err := r.keyword(Create, "CREATE")
	if err != nil {
		return nil, err
	}
	table, err := r.keyword(Table, "TABLE")
	if err != nil {
		return nil, err
	}
	name, err := r.identifier("table name")
	if err != nil {
		return nil, err
	}
	if _, err := r.expect(tokParenOpen, "'('"); err != nil {
		return nil, err
	}
	cols, err := r.columnList()
	if err != nil {
		return nil, err
	}
	if _, err := r.expect(tokParenClose, "')'"); err != nil {
		return nil, err
	}

	children := []*Node{create, table, name, cols}
	if r.tok.kind == tokSemicolon {
		children = append(children, r.leaf(Terminator))
	} else if r.tok.kind != tokEOF {
		return nil, r.fail("';'", "end of input")
	}
	if r.tok.kind != tokEOF {
		return nil, r.fail("end of input")
	}

	end := len(r.src)
	children = append(children, r.node(EOI, end, end))
	return r.node(CreateQuery, start, end, children...), nil
}

func (r *recognizer) columnList() (*Node, error) {
	var defs []*Node
	for {
		def, err := r.columnDefinition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)

		if r.tok.kind != tokComma {
			break
		}
		r.advance()
	}

	if r.tok.kind != tokParenClose {
		last := defs[len(defs)-1]
		if last.Children[len(last.Children)-1].Rule == NotNull {
			return nil, r.fail("','", "')'")
		}
		return nil, r.fail("NOT", "','", "')'")
	}

	return r.node(ColumnList, defs[0].Span.Start, defs[len(defs)-1].Span.End, defs...), nil
}

func (r *recognizer) columnDefinition() (*Node, error) {
	name, err := r.identifier("column name")
	if err != nil {
		return nil, err
	}
	dt, err := r.dataType()
	if err != nil {
		return nil, err
	}

	children := []*Node{name, dt}
	if r.isKeyword("NOT") {
		start := r.tok.pos.Offset
		r.advance()
		if !r.isKeyword("NULL") {
			return nil, r.fail("NULL")
		}
		end := r.tok.end
		r.advance()
		children = append(children, r.node(NotNull, start, end))
	}

	last := children[len(children)-1]
	return r.node(ColumnDefinition, name.Span.Start, last.Span.End, children...), nil
}

func (r *recognizer) dataType() (*Node, error) {
	if r.tok.kind != tokWord {
		return nil, r.fail("data type")
	}

	var inner *Node
	switch word := strings.ToUpper(r.tok.text); {
	case word == "VARCHAR":
		start := r.tok.pos.Offset
		r.advance()
		if _, err := r.expect(tokParenOpen, "'('"); err != nil {
			return nil, err
		}
		length, err := r.length()
		if err != nil {
			return nil, err
		}
		closing, err := r.expect(tokParenClose, "')'")
		if err != nil {
			return nil, err
		}
		inner = r.node(VarcharType, start, closing.end, length)
	case isSimpleType(word):
		inner = r.leaf(SimpleType)
	default:
		// unknown type names are left for the builder to reject
		inner = r.leaf(Identifier)
	}

	return r.node(DataType, inner.Span.Start, inner.Span.End, inner), nil
}

// length matches a run of numerals and words with nothing between them, so
// "10abc" is one Length node just like "abc10".
func (r *recognizer) length() (*Node, error) {
	if !isLengthPart(r.tok.kind) {
		return nil, r.fail("length")
	}
	start, end := r.tok.pos.Offset, r.tok.end
	r.advance()
	for isLengthPart(r.tok.kind) && r.tok.pos.Offset == end {
		end = r.tok.end
		r.advance()
	}
	return r.node(Length, start, end), nil
}

func isLengthPart(kind tokenKind) bool {
	return kind == tokNumber || kind == tokWord
}

func isSimpleType(upper string) bool {
	_, ok := simpleTypes[upper]
	return ok
}
