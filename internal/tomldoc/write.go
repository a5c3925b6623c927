package tomldoc

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var bareKeyRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

const bom = "\ufeff"

type writer struct {
	b strings.Builder
}

// String renders the document. Untouched regions come out as they were read.
func (d *Document) String() string {
	w := &writer{}
	w.body(d.Root, nil)
	w.sections(d.Root, nil)
	for _, l := range d.trailer {
		w.line(l)
	}
	out := w.b.String()
	if d.crlf {
		out = strings.ReplaceAll(out, "\n", "\r\n")
	}
	if d.bom {
		out = bom + out
	}
	return out
}

// Bytes renders the document as bytes.
func (d *Document) Bytes() []byte {
	return []byte(d.String())
}

func (w *writer) line(s string) {
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

func (w *writer) lines(ls []string) {
	for _, l := range ls {
		w.line(l)
	}
}

// body writes the key/value lines owned by t. prefix holds the dotted path
// of t relative to the enclosing section.
func (w *writer) body(t *Table, prefix []string) {
	for _, e := range t.entries {
		if isSection(e.value) {
			continue
		}
		if sub, ok := e.value.(*Table); ok && sub.kind == KindDotted {
			w.lines(e.Leading)
			w.body(sub, appendPath(prefix, e.key))
			continue
		}
		w.lines(e.Leading)
		key := e.rawKey
		if key == "" || len(prefix) > 0 {
			key = renderPath(appendPath(prefix, e.key))
		}
		sep := e.sep
		if sep == "" {
			sep = " = "
		}
		w.line(e.indent + key + sep + renderValue(e.value, e.indent) + e.Comment)
	}
}

// sections writes the [headers] below t, depth first, in entry order.
func (w *writer) sections(t *Table, path []string) {
	for _, e := range t.entries {
		p := appendPath(path, e.key)
		switch v := e.value.(type) {
		case *Table:
			switch v.kind {
			case KindSection, KindImplicit:
				if v.hasBody() || (v.kind == KindSection && (v.headerRaw != "" || !v.hasSections())) {
					w.header(v, p, false)
					w.body(v, nil)
				}
				w.sections(v, p)
			case KindDotted:
				w.sections(v, p)
			}
		case *Array:
			if !v.tables {
				continue
			}
			for _, it := range v.items {
				sub, ok := it.value.(*Table)
				if !ok {
					continue
				}
				w.header(sub, p, true)
				w.body(sub, nil)
				w.sections(sub, p)
			}
		}
	}
}

func (w *writer) header(t *Table, path []string, aot bool) {
	parsed := t.headerRaw != "" && samePath(t.headerPath, path)
	if len(t.header.Leading) == 0 && w.b.Len() > 0 && !parsed {
		w.line("")
	}
	w.lines(t.header.Leading)
	if parsed {
		w.line(t.headerRaw + t.header.Comment)
		return
	}
	if aot {
		w.line("[[" + renderPath(path) + "]]" + t.header.Comment)
		return
	}
	w.line("[" + renderPath(path) + "]" + t.header.Comment)
}

func samePath(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func appendPath(path []string, key string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, key)
}

func renderPath(path []string) string {
	parts := make([]string, len(path))
	for i, k := range path {
		parts[i] = renderKey(k)
	}
	return strings.Join(parts, ".")
}

func renderKey(k string) string {
	if bareKeyRe.MatchString(k) {
		return k
	}
	return quoteBasic(k)
}

// Render returns the inline TOML spelling of n.
func Render(n Node) string {
	return renderValue(n, "")
}

func renderValue(n Node, indent string) string {
	switch v := n.(type) {
	case *Scalar:
		if v.raw != "" {
			return v.raw
		}
		return encodeScalar(v)
	case *Array:
		if clean(v) {
			return v.raw
		}
		return renderArray(v, indent)
	case *Table:
		if clean(v) {
			return v.raw
		}
		return renderInline(v, indent)
	}
	return ""
}

// clean reports whether n can be written from its source text.
func clean(n Node) bool {
	switch v := n.(type) {
	case *Scalar:
		return v.raw != ""
	case *Array:
		if v.raw == "" || v.dirty {
			return false
		}
		for _, it := range v.items {
			if !clean(it.value) {
				return false
			}
		}
		return true
	case *Table:
		if v.raw == "" || v.dirty {
			return false
		}
		for _, e := range v.entries {
			if !clean(e.value) {
				return false
			}
		}
		return true
	}
	return false
}

func renderArray(a *Array, indent string) string {
	if len(a.items) == 0 && len(a.closing) == 0 {
		return "[]"
	}
	if !a.multiline {
		parts := make([]string, len(a.items))
		for i, it := range a.items {
			parts[i] = renderValue(it.value, indent)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}

	inner := a.indent
	if inner == "" {
		inner = indent + "    "
	}
	var b strings.Builder
	b.WriteString("[\n")
	for _, it := range a.items {
		for _, l := range it.Leading {
			b.WriteString(inner + l + "\n")
		}
		b.WriteString(inner + renderValue(it.value, inner) + "," + it.Comment + "\n")
	}
	for _, l := range a.closing {
		b.WriteString(inner + l + "\n")
	}
	b.WriteString(indent + "]")
	return b.String()
}

func renderInline(t *Table, indent string) string {
	var parts []string
	var walk func(t *Table, prefix []string)
	walk = func(t *Table, prefix []string) {
		for _, e := range t.entries {
			if sub, ok := e.value.(*Table); ok && sub.kind == KindDotted {
				walk(sub, appendPath(prefix, e.key))
				continue
			}
			parts = append(parts, renderPath(appendPath(prefix, e.key))+" = "+renderValue(e.value, indent))
		}
	}
	walk(t, nil)
	if len(parts) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func encodeScalar(s *Scalar) string {
	switch v := s.val.(type) {
	case string:
		if s.literal && canBeLiteral(v) {
			return "'" + v + "'"
		}
		return quoteBasic(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		switch {
		case math.IsInf(v, 1):
			return "inf"
		case math.IsInf(v, -1):
			return "-inf"
		case math.IsNaN(v):
			return "nan"
		}
		out := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(out, ".eE") {
			out += ".0"
		}
		return out
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	}
	return quoteBasic(fmt.Sprint(s.val))
}

func canBeLiteral(s string) bool {
	for _, r := range s {
		if r == '\'' || r == 0x7f || (r < 0x20 && r != '\t') {
			return false
		}
	}
	return true
}

func quoteBasic(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
