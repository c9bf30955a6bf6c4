package bibtex

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/Aman-CERP/bibsearch/internal/bib"
	biberrors "github.com/Aman-CERP/bibsearch/internal/errors"
)

// standardMonths are the macros BibTeX predefines.
var standardMonths = map[string]string{
	"jan": "January", "feb": "February", "mar": "March", "apr": "April",
	"may": "May", "jun": "June", "jul": "July", "aug": "August",
	"sep": "September", "oct": "October", "nov": "November", "dec": "December",
}

// Result is the outcome of parsing one input.
type Result struct {
	// Source names the input (usually a file path).
	Source string
	// Database holds the parsed entries in file order.
	Database *bib.Database
	// DuplicateKeys lists citation keys seen more than once.
	DuplicateKeys []string
}

// Parse reads BibTeX from r. Every entry is inserted with the duplication
// check; repeated citation keys are kept and reported in DuplicateKeys.
func Parse(r io.Reader, source string) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}

	p := &parser{src: data, source: source, line: 1, macros: make(map[string]string)}
	res := &Result{Source: source, Database: bib.NewDatabase()}

	for {
		e, err := p.next()
		if err != nil {
			return nil, err
		}
		if e == nil {
			break
		}
		dup, err := res.Database.InsertEntryWithDuplicationCheck(e)
		if err != nil {
			return nil, err
		}
		if dup {
			res.DuplicateKeys = append(res.DuplicateKeys, e.CiteKey())
		}
	}
	return res, nil
}

// ParseString is Parse over a string.
func ParseString(s, source string) (*Result, error) {
	return Parse(strings.NewReader(s), source)
}

type parser struct {
	src    []byte
	pos    int
	line   int
	source string
	macros map[string]string
}

func (p *parser) errorf(format string, args ...any) error {
	msg := fmt.Sprintf("%s:%d: %s", p.source, p.line, fmt.Sprintf(format, args...))
	return biberrors.New(biberrors.ErrCodeParseFailed, msg, nil).
		WithDetail("source", p.source).
		WithDetail("line", fmt.Sprint(p.line))
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) advance() byte {
	c := p.src[p.pos]
	p.pos++
	if c == '\n' {
		p.line++
	}
	return c
}

func (p *parser) skipSpace() {
	for !p.eof() && unicode.IsSpace(rune(p.peek())) {
		p.advance()
	}
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		if p.eof() {
			return p.errorf("expected %q, got end of input", c)
		}
		return p.errorf("expected %q, got %q", c, p.peek())
	}
	p.advance()
	return nil
}

// next returns the next entry, or nil at end of input.
func (p *parser) next() (*bib.Entry, error) {
	for {
		// Anything outside an @block is a comment.
		i := bytes.IndexByte(p.src[p.pos:], '@')
		if i < 0 {
			p.pos = len(p.src)
			return nil, nil
		}
		for j := 0; j < i; j++ {
			p.advance()
		}
		p.advance() // '@'

		kind := strings.ToLower(p.identifier())
		if kind == "" {
			return nil, p.errorf("missing entry type after '@'")
		}

		switch kind {
		case "comment":
			if err := p.skipBlock(); err != nil {
				return nil, err
			}
		case "preamble":
			if err := p.skipBlock(); err != nil {
				return nil, err
			}
		case "string":
			if err := p.parseMacro(); err != nil {
				return nil, err
			}
		default:
			return p.parseEntry(kind)
		}
	}
}

func (p *parser) identifier() string {
	p.skipSpace()
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if unicode.IsSpace(rune(c)) || strings.IndexByte("{}(),=#\"@", c) >= 0 {
			break
		}
		p.advance()
	}
	return string(p.src[start:p.pos])
}

func closerFor(open byte) byte {
	if open == '(' {
		return ')'
	}
	return '}'
}

func (p *parser) openBlock() (byte, error) {
	p.skipSpace()
	switch c := p.peek(); c {
	case '{', '(':
		p.advance()
		return closerFor(c), nil
	default:
		if p.eof() {
			return 0, p.errorf("expected '{' or '(', got end of input")
		}
		return 0, p.errorf("expected '{' or '(', got %q", c)
	}
}

func (p *parser) skipBlock() error {
	closer, err := p.openBlock()
	if err != nil {
		return err
	}
	depth := 0
	for !p.eof() {
		c := p.advance()
		switch {
		case c == '{':
			depth++
		case c == '}' && depth > 0:
			depth--
		case c == closer && depth == 0:
			return nil
		}
	}
	return p.errorf("unterminated block")
}

func (p *parser) parseMacro() error {
	closer, err := p.openBlock()
	if err != nil {
		return err
	}
	name := strings.ToLower(p.identifier())
	if name == "" {
		return p.errorf("@string without a name")
	}
	if err := p.expect('='); err != nil {
		return err
	}
	value, err := p.value()
	if err != nil {
		return err
	}
	p.macros[name] = value
	return p.expect(closer)
}

func (p *parser) parseEntry(typ string) (*bib.Entry, error) {
	closer, err := p.openBlock()
	if err != nil {
		return nil, err
	}

	e := bib.NewEntryWithType(typ)
	key := p.identifier()
	if key != "" {
		e.SetCiteKey(key)
	}

	for {
		p.skipSpace()
		switch c := p.peek(); {
		case p.eof():
			return nil, p.errorf("unterminated entry %q", key)
		case c == closer:
			p.advance()
			return e, nil
		case c == ',':
			p.advance()
			continue
		}

		name := p.identifier()
		if name == "" {
			return nil, p.errorf("expected field name in entry %q, got %q", key, p.peek())
		}
		if err := p.expect('='); err != nil {
			return nil, err
		}
		value, err := p.value()
		if err != nil {
			return nil, err
		}
		e.SetField(name, value)
	}
}

// value parses a (possibly #-concatenated) field value.
func (p *parser) value() (string, error) {
	var sb strings.Builder
	for {
		p.skipSpace()
		part, err := p.valuePart()
		if err != nil {
			return "", err
		}
		sb.WriteString(part)

		p.skipSpace()
		if p.peek() != '#' {
			break
		}
		p.advance()
	}
	return collapseSpace(sb.String()), nil
}

func (p *parser) valuePart() (string, error) {
	switch c := p.peek(); {
	case c == '{':
		p.advance()
		return p.delimited('}')
	case c == '"':
		p.advance()
		return p.delimited('"')
	case p.eof():
		return "", p.errorf("expected value, got end of input")
	default:
		word := p.identifier()
		if word == "" {
			return "", p.errorf("expected value, got %q", c)
		}
		if isNumber(word) {
			return word, nil
		}
		if v, ok := p.macros[strings.ToLower(word)]; ok {
			return v, nil
		}
		if v, ok := standardMonths[strings.ToLower(word)]; ok {
			return v, nil
		}
		// Undefined macros are kept as written.
		return word, nil
	}
}

// delimited reads up to the closing delimiter, honouring nested braces.
func (p *parser) delimited(end byte) (string, error) {
	start := p.pos
	depth := 0
	for !p.eof() {
		c := p.peek()
		switch {
		case c == '\\' && p.pos+1 < len(p.src):
			p.advance()
		case c == '{':
			depth++
		case c == '}' && depth > 0:
			depth--
		case c == end && depth == 0:
			s := string(p.src[start:p.pos])
			p.advance()
			return s, nil
		}
		p.advance()
	}
	return "", p.errorf("unterminated value")
}

func isNumber(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
