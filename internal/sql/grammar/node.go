package grammar

// Span is a half-open byte range [Start, End) of the source.
type Span struct {
	Start int
	End   int
}

// Node is one matched rule of the concrete parse tree. Text is the source
// covered by Span. Punctuation is matched by the grammar but never becomes a
// node.
type Node struct {
	Rule     Rule
	Span     Span
	Text     string
	Children []*Node
}
