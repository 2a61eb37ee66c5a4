package sexp

import "fmt"

// ParseError reports malformed top-level structure: unbalanced parentheses,
// unterminated strings, stray tokens. It is fatal for the whole document.
type ParseError struct {
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("sexp: parse error at offset %d: %s", e.Offset, e.Msg)
}

// Parser parses S-expression source into Node trees.
type Parser struct {
	lexer   *Lexer
	current Token
}

// NewParser creates a parser over the given source bytes.
func NewParser(src []byte) *Parser {
	return &Parser{lexer: NewLexer(src)}
}

// Parse parses all top-level S-expressions from src.
func Parse(src []byte) ([]*Node, error) {
	return NewParser(src).ParseAll()
}

// ParseString parses all top-level S-expressions from a string.
func ParseString(s string) ([]*Node, error) {
	return Parse([]byte(s))
}

// ParseAll parses all top-level S-expressions until EOF.
func (p *Parser) ParseAll() ([]*Node, error) {
	var result []*Node

	if err := p.advance(); err != nil {
		return nil, err
	}
	for p.current.Type != TokenEOF {
		node, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		result = append(result, node)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (p *Parser) advance() error {
	tok, err := p.lexer.NextToken()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

// parseExpr parses a single expression from the current token.
func (p *Parser) parseExpr() (*Node, error) {
	tok := p.current
	switch tok.Type {
	case TokenLeftParen:
		return p.parseList()
	case TokenAtom:
		return &Node{Kind: KindAtom, Value: tok.Value, Span: Span{tok.Start, tok.End}, Trivia: tok.Trivia}, nil
	case TokenString:
		return &Node{Kind: KindString, Value: tok.Value, Span: Span{tok.Start, tok.End}, Trivia: tok.Trivia}, nil
	case TokenRightParen:
		return nil, &ParseError{Offset: tok.Start, Msg: "unexpected ')'"}
	default:
		return nil, &ParseError{Offset: tok.Start, Msg: "unexpected EOF"}
	}
}

// parseList parses a parenthesized list. The current token must be '('.
func (p *Parser) parseList() (*Node, error) {
	open := p.current
	node := &Node{Kind: KindList, Span: Span{Start: open.Start}, Trivia: open.Trivia}

	for {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.current.Type == TokenRightParen {
			node.Span.End = p.current.End
			return node, nil
		}
		if p.current.Type == TokenEOF {
			return nil, &ParseError{Offset: open.Start, Msg: "unbalanced parenthesis: list never closed"}
		}
		child, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
}
