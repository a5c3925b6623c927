package tomldoc

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// ParseError reports malformed TOML with the line it was found on.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

type parser struct {
	src     string
	pos     int
	line    int
	doc     *Document
	cur     *Table
	pending []string
}

// Parse reads a TOML document, keeping the formatting needed to write it
// back unchanged.
func Parse(data []byte) (*Document, error) {
	src := string(data)
	doc := NewDocument()
	if strings.HasPrefix(src, bom) {
		doc.bom = true
		src = src[len(bom):]
	}
	if strings.Contains(src, "\r\n") {
		doc.crlf = true
		src = strings.ReplaceAll(src, "\r\n", "\n")
	}

	p := &parser{src: src, line: 1, doc: doc, cur: doc.Root}
	for !p.eof() {
		if err := p.parseLine(); err != nil {
			return nil, err
		}
	}
	doc.trailer = p.pending
	return doc, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Line: p.line, Msg: fmt.Sprintf(format, args...)}
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

func (p *parser) hasPrefix(s string) bool {
	return strings.HasPrefix(p.src[p.pos:], s)
}

func (p *parser) skipSpaces() {
	for !p.eof() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) takePending() []string {
	lines := p.pending
	p.pending = nil
	return lines
}

func (p *parser) parseLine() error {
	start := p.pos
	p.skipSpaces()
	switch c := p.peek(); {
	case p.eof():
		return nil
	case c == '\n':
		p.pos++
		p.line++
		p.pending = append(p.pending, "")
		return nil
	case c == '#':
		p.readComment()
		p.pending = append(p.pending, p.src[start:p.pos])
		_, err := p.lineEnd()
		return err
	case c == '[':
		return p.parseHeader(start)
	default:
		return p.parseKeyValue(start)
	}
}

// readComment consumes a comment up to, not including, the newline.
func (p *parser) readComment() string {
	start := p.pos
	for !p.eof() && p.src[p.pos] != '\n' {
		p.pos++
	}
	return p.src[start:p.pos]
}

// lineEnd consumes optional whitespace, an optional comment and the line
// break. It returns the comment including the whitespace before it.
func (p *parser) lineEnd() (string, error) {
	start := p.pos
	p.skipSpaces()
	comment := ""
	if p.peek() == '#' {
		p.readComment()
		comment = p.src[start:p.pos]
	}
	if p.eof() {
		return comment, nil
	}
	if p.peek() != '\n' {
		return "", p.errorf("unexpected %q after value", p.peek())
	}
	p.pos++
	p.line++
	return comment, nil
}

func (p *parser) parseHeader(start int) error {
	p.pos++
	aot := false
	if p.peek() == '[' {
		aot = true
		p.pos++
	}
	keys, _, err := p.parseKey()
	if err != nil {
		return err
	}
	p.skipSpaces()
	closing := "]"
	if aot {
		closing = "]]"
	}
	if !p.hasPrefix(closing) {
		return p.errorf("expected %q to close table header", closing)
	}
	p.pos += len(closing)
	raw := p.src[start:p.pos]

	t, err := p.openTable(keys, aot)
	if err != nil {
		return err
	}
	comment, err := p.lineEnd()
	if err != nil {
		return err
	}
	t.header = Trivia{Leading: p.takePending(), Comment: comment}
	t.headerRaw = raw
	t.headerPath = keys
	p.cur = t
	return nil
}

func (p *parser) openTable(keys []string, aot bool) (*Table, error) {
	parent := p.doc.Root
	for _, k := range keys[:len(keys)-1] {
		next, err := p.descend(parent, k)
		if err != nil {
			return nil, err
		}
		parent = next
	}
	last := keys[len(keys)-1]
	existing := parent.Get(last)

	if aot {
		var arr *Array
		switch v := existing.(type) {
		case nil:
			arr = &Array{tables: true}
			parent.appendEntry(&entry{key: last, value: arr})
		case *Array:
			if !v.tables {
				return nil, p.errorf("key %q is already defined as an array", strings.Join(keys, "."))
			}
			arr = v
		default:
			return nil, p.errorf("key %q is already defined", strings.Join(keys, "."))
		}
		t := &Table{kind: KindSection}
		arr.items = append(arr.items, &item{value: t})
		return t, nil
	}

	switch v := existing.(type) {
	case nil:
		t := &Table{kind: KindSection}
		parent.appendEntry(&entry{key: last, value: t})
		return t, nil
	case *Table:
		if v.kind == KindImplicit {
			v.kind = KindSection
			return v, nil
		}
	}
	return nil, p.errorf("table %q is already defined", strings.Join(keys, "."))
}

// descend walks one level down a header path, creating super-tables and
// entering the last table of an array of tables.
func (p *parser) descend(t *Table, key string) (*Table, error) {
	switch v := t.Get(key).(type) {
	case nil:
		sub := &Table{kind: KindImplicit}
		t.appendEntry(&entry{key: key, value: sub})
		return sub, nil
	case *Table:
		if v.kind != KindInline {
			return v, nil
		}
	case *Array:
		if v.tables && len(v.items) > 0 {
			if last, ok := v.items[len(v.items)-1].value.(*Table); ok {
				return last, nil
			}
		}
	}
	return nil, p.errorf("key %q is not a table", key)
}

// descendDotted walks one level down a dotted key inside t.
func (p *parser) descendDotted(t *Table, key string) (*Table, error) {
	switch v := t.Get(key).(type) {
	case nil:
		sub := &Table{kind: KindDotted}
		t.appendEntry(&entry{key: key, value: sub})
		return sub, nil
	case *Table:
		if v.kind == KindDotted {
			return v, nil
		}
	}
	return nil, p.errorf("key %q is already defined", key)
}

func (p *parser) parseKeyValue(start int) error {
	keyStart := p.pos
	keys, raw, err := p.parseKey()
	if err != nil {
		return err
	}
	keyEnd := p.pos
	p.skipSpaces()
	if p.peek() != '=' {
		return p.errorf("expected '=' after key %q", strings.Join(keys, "."))
	}
	p.pos++
	p.skipSpaces()
	sep := p.src[keyEnd:p.pos]

	v, err := p.parseValue()
	if err != nil {
		return err
	}

	target := p.cur
	for _, k := range keys[:len(keys)-1] {
		if target, err = p.descendDotted(target, k); err != nil {
			return err
		}
	}
	last := keys[len(keys)-1]
	if target.Has(last) {
		return p.errorf("duplicate key %q", strings.Join(keys, "."))
	}
	comment, err := p.lineEnd()
	if err != nil {
		return err
	}

	e := &entry{
		key:    last,
		indent: p.src[start:keyStart],
		sep:    sep,
		value:  v,
		Trivia: Trivia{Leading: p.takePending(), Comment: comment},
	}
	if len(keys) == 1 {
		e.rawKey = raw
	}
	target.appendEntry(e)
	return nil
}

// parseKey reads a possibly dotted key. It returns the decoded parts and the
// source text of the whole key.
func (p *parser) parseKey() ([]string, string, error) {
	p.skipSpaces()
	start := p.pos
	var parts []string
	for {
		p.skipSpaces()
		partStart := p.pos
		switch p.peek() {
		case '"', '\'':
			if err := p.scanString(); err != nil {
				return nil, "", err
			}
			val, err := decodeScalar(p.src[partStart:p.pos])
			if err != nil {
				return nil, "", p.errorf("invalid key: %v", err)
			}
			s, ok := val.(string)
			if !ok {
				return nil, "", p.errorf("invalid key %q", p.src[partStart:p.pos])
			}
			parts = append(parts, s)
		default:
			for !p.eof() && isBareKeyChar(p.src[p.pos]) {
				p.pos++
			}
			if p.pos == partStart {
				return nil, "", p.errorf("expected a key")
			}
			parts = append(parts, p.src[partStart:p.pos])
		}
		end := p.pos
		p.skipSpaces()
		if p.peek() != '.' {
			p.pos = end
			return parts, p.src[start:end], nil
		}
		p.pos++
	}
}

func isBareKeyChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
}

func (p *parser) parseValue() (Node, error) {
	start := p.pos
	switch p.peek() {
	case '"', '\'':
		if err := p.scanString(); err != nil {
			return nil, err
		}
		return p.scalar(p.src[start:p.pos])
	case '[':
		return p.parseArray()
	case '{':
		return p.parseInlineTable()
	}
	for !p.eof() && !strings.ContainsRune(",]}#\n", rune(p.src[p.pos])) {
		p.pos++
	}
	raw := strings.TrimRight(p.src[start:p.pos], " \t")
	p.pos = start + len(raw)
	if raw == "" {
		return nil, p.errorf("expected a value")
	}
	return p.scalar(raw)
}

func (p *parser) scalar(raw string) (Node, error) {
	val, err := decodeScalar(raw)
	if err != nil {
		return nil, p.errorf("invalid value %s", raw)
	}
	return &Scalar{val: val, raw: raw}, nil
}

// decodeScalar interprets the source text of a single TOML value.
func decodeScalar(raw string) (any, error) {
	var m map[string]any
	if _, err := toml.Decode("v = "+raw, &m); err != nil {
		return nil, err
	}
	return m["v"], nil
}

// scanString advances past a basic, literal or multi-line string.
func (p *parser) scanString() error {
	q := p.peek()
	triple := strings.Repeat(string(q), 3)
	if p.hasPrefix(triple) {
		p.pos += 3
		for !p.eof() {
			c := p.src[p.pos]
			switch {
			case c == '\\' && q == '"':
				if p.pos+1 < len(p.src) && p.src[p.pos+1] == '\n' {
					p.line++
				}
				p.pos += 2
			case p.hasPrefix(triple):
				p.pos += 3
				// Up to two quotes may sit right before the delimiter.
				for extra := 0; extra < 2 && p.peek() == q; extra++ {
					p.pos++
				}
				return nil
			default:
				if c == '\n' {
					p.line++
				}
				p.pos++
			}
		}
		return p.errorf("unterminated multi-line string")
	}

	p.pos++
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == '\\' && q == '"':
			p.pos += 2
		case c == q:
			p.pos++
			return nil
		case c == '\n':
			return p.errorf("unterminated string")
		default:
			p.pos++
		}
	}
	return p.errorf("unterminated string")
}

// skipArrayTrivia consumes whitespace, newlines and comments between array
// items. Comments on their own line are returned.
func (p *parser) skipArrayTrivia(a *Array) []string {
	var lines []string
	for !p.eof() {
		p.skipSpaces()
		switch p.peek() {
		case '\n':
			p.pos++
			p.line++
			a.multiline = true
			lineStart := p.pos
			p.skipSpaces()
			if a.indent == "" && !p.eof() && p.peek() != '\n' && p.peek() != ']' {
				a.indent = p.src[lineStart:p.pos]
			}
		case '#':
			lines = append(lines, strings.TrimSpace(p.readComment()))
		default:
			return lines
		}
	}
	return lines
}

func (p *parser) parseArray() (Node, error) {
	start := p.pos
	p.pos++
	a := &Array{}
	for {
		lead := p.skipArrayTrivia(a)
		if p.eof() {
			return nil, p.errorf("unterminated array")
		}
		if p.peek() == ']' {
			p.pos++
			a.closing = lead
			break
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		it := &item{value: v, Trivia: Trivia{Leading: lead}}
		a.items = append(a.items, it)

		mark := p.pos
		p.skipSpaces()
		if p.peek() == ',' {
			p.pos++
			mark = p.pos
			p.skipSpaces()
			if p.peek() == '#' {
				p.readComment()
				it.Comment = p.src[mark:p.pos]
			}
			continue
		}
		if p.peek() == '#' {
			p.readComment()
			it.Comment = p.src[mark:p.pos]
		}
		a.closing = p.skipArrayTrivia(a)
		if p.peek() != ']' {
			return nil, p.errorf("expected ',' or ']' in array")
		}
		p.pos++
		break
	}
	a.raw = p.src[start:p.pos]
	return a, nil
}

func (p *parser) parseInlineTable() (Node, error) {
	start := p.pos
	p.pos++
	t := &Table{kind: KindInline}
	p.skipSpaces()
	if p.peek() == '}' {
		p.pos++
		t.raw = p.src[start:p.pos]
		return t, nil
	}
	for {
		keys, _, err := p.parseKey()
		if err != nil {
			return nil, err
		}
		p.skipSpaces()
		if p.peek() != '=' {
			return nil, p.errorf("expected '=' in inline table")
		}
		p.pos++
		p.skipSpaces()
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}

		target := t
		for _, k := range keys[:len(keys)-1] {
			if target, err = p.descendDotted(target, k); err != nil {
				return nil, err
			}
		}
		last := keys[len(keys)-1]
		if target.Has(last) {
			return nil, p.errorf("duplicate key %q in inline table", strings.Join(keys, "."))
		}
		target.appendEntry(&entry{key: last, value: v})

		p.skipSpaces()
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpaces()
		case '}':
			p.pos++
			t.raw = p.src[start:p.pos]
			return t, nil
		default:
			return nil, p.errorf("expected ',' or '}' in inline table")
		}
	}
}
