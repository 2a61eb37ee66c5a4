package sexp

import (
	"strconv"
	"strings"
)

// Base64LineWidth is the column at which embedded binary payloads (base64
// text inside a data element) are wrapped.
const Base64LineWidth = 76

// inlineTags are list tags rendered on a single line even though they contain
// sub-lists. Everything else goes multi-line as soon as a sub-list appears.
var inlineTags = map[string]bool{
	"pts":     true,
	"font":    true,
	"effects": true,
}

// multilineTags are list tags rendered one child per line even when all
// children are leaves. Used for wrapped base64 payloads.
var multilineTags = map[string]bool{
	"data": true,
}

// Writer renders Node trees in the canonical output style: tab indentation
// per nesting depth, small leaf-only lists on one line, closing parenthesis
// of multi-line lists on its own line.
type Writer struct {
	sb strings.Builder
}

// Render renders a node at the given indentation depth, without a trailing
// newline. The leading indent is the caller's responsibility so that elements
// can be spliced into preserved surrounding text.
func (w *Writer) Render(n *Node, depth int) string {
	w.sb.Reset()
	w.writeNode(n, depth)
	return w.sb.String()
}

// RenderInline renders a node on a single line regardless of nesting.
func (w *Writer) RenderInline(n *Node) string {
	w.sb.Reset()
	w.writeInline(n)
	return w.sb.String()
}

func (w *Writer) writeNode(n *Node, depth int) {
	if multilineTags[n.Tag()] {
		w.sb.WriteByte('(')
		w.writeInline(n.Children[0])
		for _, child := range n.Children[1:] {
			w.sb.WriteByte('\n')
			w.indent(depth + 1)
			w.writeInline(child)
		}
		w.sb.WriteByte('\n')
		w.indent(depth)
		w.sb.WriteByte(')')
		return
	}
	if n.IsLeaf() || isInline(n) {
		w.writeInline(n)
		return
	}

	w.sb.WriteByte('(')
	i := 0
	// Leading leaves (tag, names, flags) stay on the opening line.
	for ; i < len(n.Children) && n.Children[i].IsLeaf(); i++ {
		if i > 0 {
			w.sb.WriteByte(' ')
		}
		w.writeInline(n.Children[i])
	}
	for ; i < len(n.Children); i++ {
		w.sb.WriteByte('\n')
		w.indent(depth + 1)
		w.writeNode(n.Children[i], depth+1)
	}
	w.sb.WriteByte('\n')
	w.indent(depth)
	w.sb.WriteByte(')')
}

func (w *Writer) writeInline(n *Node) {
	switch n.Kind {
	case KindAtom:
		w.sb.WriteString(n.Value)
	case KindString:
		w.sb.WriteString(QuoteString(n.Value))
	case KindList:
		w.sb.WriteByte('(')
		for i, child := range n.Children {
			if i > 0 {
				w.sb.WriteByte(' ')
			}
			w.writeInline(child)
		}
		w.sb.WriteByte(')')
	}
}

func (w *Writer) indent(depth int) {
	for i := 0; i < depth; i++ {
		w.sb.WriteByte('\t')
	}
}

// isInline decides single-line vs multi-line rendering for a list.
func isInline(n *Node) bool {
	if inlineTags[n.Tag()] {
		return true
	}
	for _, child := range n.Children {
		if child.Kind == KindList {
			return false
		}
	}
	return true
}

// QuoteString renders a string value as a double-quoted literal with
// backslash escaping. Property values and display strings are always quoted,
// even when empty; tags and keywords never pass through here.
func QuoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// FormatFloat renders a coordinate-style number: up to 4 fractional digits
// with trailing zeros dropped, so 1.27 stays "1.27" and 100.0 becomes "100".
func FormatFloat(v float64) string {
	return FormatFloatPrec(v, 4)
}

// FormatFloatPrec renders a number with at most prec fractional digits,
// trimming trailing zeros and a dangling decimal point.
func FormatFloatPrec(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

func formatInt(v int) string {
	return strconv.Itoa(v)
}
