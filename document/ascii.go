package document

import (
	"strconv"
	"strings"

	"github.com/mogaika/fbx"
	"github.com/pkg/errors"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

const (
	TOKEN_IDENT = iota
	TOKEN_NUMBER
	TOKEN_STRING
	TOKEN_ARRAY_SIZE
	TOKEN_COMMA
	TOKEN_OPEN
	TOKEN_CLOSE
	TOKEN_COMMENT
)

var asciiLexer *lexmachine.Lexer

func init() {
	asciiLexer = lexmachine.NewLexer()
	asciiLexer.Add([]byte(`[a-zA-Z_][a-zA-Z0-9_|]*:?`), getToken(TOKEN_IDENT))
	asciiLexer.Add([]byte(`[\+\-]?[0-9]*\.?[0-9]+(e[\+\-]?[0-9]+)?`), getToken(TOKEN_NUMBER))
	asciiLexer.Add([]byte(`"(\\.|[^"])*"`), getToken(TOKEN_STRING))
	asciiLexer.Add([]byte(`\*[0-9]+`), getToken(TOKEN_ARRAY_SIZE))
	asciiLexer.Add([]byte(`,`), getToken(TOKEN_COMMA))
	asciiLexer.Add([]byte(`{`), getToken(TOKEN_OPEN))
	asciiLexer.Add([]byte(`}`), getToken(TOKEN_CLOSE))
	asciiLexer.Add([]byte(`;[^\n]*`), skip)
	asciiLexer.Add([]byte(`\s+`), skip)
	if err := asciiLexer.Compile(); err != nil {
		panic(err)
	}
}

func getToken(tokenType int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(tokenType, string(m.Bytes), m), nil
	}
}

func skip(scan *lexmachine.Scanner, match *machines.Match) (interface{}, error) {
	return nil, nil
}

type asciiParser struct {
	tokens []*lexmachine.Token
	pos    int
}

func (p *asciiParser) peek() *lexmachine.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return p.tokens[p.pos]
}

func (p *asciiParser) next() *lexmachine.Token {
	tok := p.peek()
	if tok != nil {
		p.pos++
	}
	return tok
}

// nodeStart reports whether the token opens a node record ("Name:").
func nodeStart(tok *lexmachine.Token) bool {
	return tok != nil && tok.Type == TOKEN_IDENT && strings.HasSuffix(string(tok.Lexeme), ":")
}

func (p *asciiParser) parseValue(tok *lexmachine.Token) (interface{}, error) {
	switch tok.Type {
	case TOKEN_NUMBER:
		s := string(tok.Lexeme)
		if !strings.ContainsAny(s, ".e") {
			v, err := strconv.ParseInt(s, 10, 64)
			return v, errors.Wrapf(err, "Bad integer %q at line %v", s, tok.StartLine)
		}
		v, err := strconv.ParseFloat(s, 64)
		return v, errors.Wrapf(err, "Bad number %q at line %v", s, tok.StartLine)
	case TOKEN_STRING:
		s := string(tok.Lexeme)
		return strings.ReplaceAll(s[1:len(s)-1], `\"`, `"`), nil
	case TOKEN_IDENT:
		// bare letters used as flags (T, W, Y, ...)
		return string(tok.Lexeme), nil
	}
	return nil, errors.Errorf("Unexpected token %q at line %v", tok.Lexeme, tok.StartLine)
}

// parseArrayBody consumes "{ a: v, v, ... }" after a "*N" marker and packs the
// values into a single typed array property the way the binary reader does.
func (p *asciiParser) parseArrayBody(count int64) (interface{}, error) {
	if tok := p.next(); tok == nil || tok.Type != TOKEN_OPEN {
		return nil, errors.Errorf("Expected array block after *%v", count)
	}
	if tok := p.next(); !nodeStart(tok) || strings.TrimSuffix(string(tok.Lexeme), ":") != "a" {
		return nil, errors.Errorf("Expected a: inside array block")
	}

	ints := make([]int64, 0, count)
	floats := []float64(nil)
	for {
		tok := p.next()
		if tok == nil {
			return nil, errors.Errorf("Unterminated array block")
		}
		if tok.Type == TOKEN_CLOSE {
			break
		}
		if tok.Type == TOKEN_COMMA {
			continue
		}
		v, err := p.parseValue(tok)
		if err != nil {
			return nil, err
		}
		switch v := v.(type) {
		case int64:
			if floats != nil {
				floats = append(floats, float64(v))
			} else {
				ints = append(ints, v)
			}
		case float64:
			if floats == nil {
				floats = make([]float64, 0, count)
				for _, i := range ints {
					floats = append(floats, float64(i))
				}
			}
			floats = append(floats, v)
		default:
			return nil, errors.Errorf("Unexpected array element at line %v", tok.StartLine)
		}
	}
	if floats != nil {
		return floats, nil
	}
	// integer arrays are i typed in binary documents
	packed := make([]int32, len(ints))
	for i, v := range ints {
		packed[i] = int32(v)
	}
	return packed, nil
}

func (p *asciiParser) parseNode(nameTok *lexmachine.Token) (*fbx.Node, error) {
	n := &fbx.Node{Name: strings.TrimSuffix(string(nameTok.Lexeme), ":")}

	for {
		tok := p.peek()
		if tok == nil || tok.Type == TOKEN_CLOSE || nodeStart(tok) {
			return n, nil
		}
		switch tok.Type {
		case TOKEN_COMMA:
			p.next()
		case TOKEN_ARRAY_SIZE:
			p.next()
			count, _ := strconv.ParseInt(string(tok.Lexeme[1:]), 10, 64)
			array, err := p.parseArrayBody(count)
			if err != nil {
				return nil, err
			}
			n.Properties = append(n.Properties, array)
		case TOKEN_OPEN:
			p.next()
			for {
				tok := p.peek()
				if tok == nil {
					return nil, errors.Errorf("Unterminated node %q", n.Name)
				}
				if tok.Type == TOKEN_CLOSE {
					p.next()
					return n, nil
				}
				if !nodeStart(tok) {
					return nil, errors.Errorf("Unexpected token %q in node %q at line %v",
						tok.Lexeme, n.Name, tok.StartLine)
				}
				p.next()
				child, err := p.parseNode(tok)
				if err != nil {
					return nil, err
				}
				n.Nodes = append(n.Nodes, child)
			}
		default:
			p.next()
			v, err := p.parseValue(tok)
			if err != nil {
				return nil, err
			}
			n.Properties = append(n.Properties, v)
		}
	}
}

// parseASCII reads a text encoded document into the same node tree shape the
// binary reader produces.
func parseASCII(data []byte) (*fbx.Node, error) {
	scanner, err := asciiLexer.Scanner(data)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to create scanner")
	}

	p := &asciiParser{}
	for tok, err, eos := scanner.Next(); !eos; tok, err, eos = scanner.Next() {
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to tokenize document")
		}
		p.tokens = append(p.tokens, tok.(*lexmachine.Token))
	}

	root := &fbx.Node{}
	for {
		tok := p.next()
		if tok == nil {
			break
		}
		if !nodeStart(tok) {
			return nil, errors.Errorf("Unexpected top level token %q at line %v", tok.Lexeme, tok.StartLine)
		}
		node, err := p.parseNode(tok)
		if err != nil {
			return nil, err
		}
		root.Nodes = append(root.Nodes, node)
	}
	return root, nil
}
