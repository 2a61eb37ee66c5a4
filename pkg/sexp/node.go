// Package sexp provides the S-expression tree model shared by the schematic
// parser, formatter, and symbol library loader. Unlike general-purpose sexp
// libraries, every node remembers the exact byte span and literal text it was
// parsed from, so untouched elements can be written back byte-identically.
package sexp

// NodeKind discriminates the node variants.
type NodeKind int

const (
	// KindAtom is an unquoted token: a tag, keyword, or numeric literal.
	KindAtom NodeKind = iota
	// KindString is a double-quoted string (Value holds the unescaped text).
	KindString
	// KindList is a parenthesized sequence of child nodes.
	KindList
)

// Span is a half-open byte range into the source the node was parsed from.
// Synthesized nodes have a zero Span.
type Span struct {
	Start int
	End   int
}

// Valid reports whether the span refers to real source bytes.
func (s Span) Valid() bool { return s.End > s.Start }

// Node is one S-expression tree node. Trees are pure values: no node owns
// external resources, and sharing subtrees between documents is safe as long
// as neither side mutates them.
type Node struct {
	Kind     NodeKind
	Value    string  // atom literal or unescaped string content
	Children []*Node // list elements, in source order

	// Span locates the node in the original source. Trivia holds the bytes
	// (whitespace, comments) between the previous sibling and this node;
	// the writer re-emits it verbatim for unmodified nodes.
	Span   Span
	Trivia string
}

// Atom creates an unquoted atom node.
func Atom(value string) *Node {
	return &Node{Kind: KindAtom, Value: value}
}

// String creates a quoted string node.
func String(value string) *Node {
	return &Node{Kind: KindString, Value: value}
}

// Number creates an atom node holding a formatted numeric literal.
func Number(value float64) *Node {
	return &Node{Kind: KindAtom, Value: FormatFloat(value)}
}

// Int creates an atom node holding a decimal integer literal.
func Int(value int) *Node {
	return &Node{Kind: KindAtom, Value: formatInt(value)}
}

// List creates a list node from the given children.
func List(children ...*Node) *Node {
	return &Node{Kind: KindList, Children: children}
}

// IsLeaf reports whether the node is an atom or string (not a list).
func (n *Node) IsLeaf() bool { return n.Kind != KindList }

// Tag returns the leading atom of a list, or "" if the node is not a list or
// does not start with an atom. By convention the tag names the element type.
func (n *Node) Tag() string {
	if n == nil || n.Kind != KindList || len(n.Children) == 0 {
		return ""
	}
	if first := n.Children[0]; first.Kind == KindAtom {
		return first.Value
	}
	return ""
}

// Len returns the number of children (0 for leaves).
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.Children)
}

// Get returns the child at index, or nil if out of range.
func (n *Node) Get(index int) *Node {
	if n == nil || index < 0 || index >= len(n.Children) {
		return nil
	}
	return n.Children[index]
}

// Append adds children to a list node.
func (n *Node) Append(children ...*Node) {
	n.Children = append(n.Children, children...)
}

// Clone returns a deep copy of the node with source spans and trivia cleared,
// suitable for grafting into a different document.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Kind: n.Kind, Value: n.Value}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// String returns a compact single-line rendering, mainly for debugging and
// error messages. Use Writer for file output.
func (n *Node) String() string {
	var w Writer
	return w.RenderInline(n)
}
