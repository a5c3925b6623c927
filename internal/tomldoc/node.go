// Package tomldoc implements a format-preserving TOML document model.
//
// A document is an ordered tree of tables and arrays over scalar leaves.
// Comments, blank lines, key order and the source text of untouched values
// survive a Parse/String round trip, so a document can be edited in place
// and written back without reformatting the regions that were not edited.
package tomldoc

import (
	"time"
)

// Node is a value in the document tree: *Table, *Array or *Scalar.
type Node interface {
	node()
}

// TableKind describes how a table is spelled in the source.
type TableKind int

const (
	// KindSection is a table declared with a [header].
	KindSection TableKind = iota
	// KindImplicit is a super-table that only exists because a deeper
	// header names it, e.g. "tool" for [tool.poetry].
	KindImplicit
	// KindDotted is a table created by a dotted key (a.b = 1).
	KindDotted
	// KindInline is an inline table ({ a = 1 }).
	KindInline
)

// Trivia is the formatting attached to an entry, array item or header.
type Trivia struct {
	// Leading holds whole lines preceding the item: comments (with their
	// indentation) or "" for blank lines.
	Leading []string
	// Comment is the trailing comment on the item's line, including the
	// whitespace before '#'.
	Comment string
}

type entry struct {
	key    string
	rawKey string
	indent string
	sep    string
	value  Node
	Trivia
}

// Table is an insertion-ordered mapping of keys to nodes.
type Table struct {
	kind    TableKind
	entries []*entry

	header     Trivia
	headerRaw  string
	headerPath []string

	raw   string
	dirty bool
}

type item struct {
	value Node
	Trivia
}

// Array is an index-ordered list of nodes. An array of tables holds the
// [[header]] tables that share one key.
type Array struct {
	items     []*item
	tables    bool
	multiline bool
	indent    string
	closing   []string

	raw   string
	dirty bool
}

// Scalar is a leaf value: string, int64, float64, bool or time.Time.
type Scalar struct {
	val     any
	raw     string
	literal bool
}

func (*Table) node()  {}
func (*Array) node()  {}
func (*Scalar) node() {}

// NewTable returns an empty table rendered as a [section].
func NewTable() *Table {
	return &Table{kind: KindSection}
}

// NewInlineTable returns an empty inline table.
func NewInlineTable() *Table {
	return &Table{kind: KindInline}
}

// Kind reports how the table is spelled.
func (t *Table) Kind() TableKind {
	return t.kind
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Keys returns a snapshot of the keys in insertion order.
func (t *Table) Keys() []string {
	keys := make([]string, len(t.entries))
	for i, e := range t.entries {
		keys[i] = e.key
	}
	return keys
}

func (t *Table) find(key string) int {
	for i, e := range t.entries {
		if e.key == key {
			return i
		}
	}
	return -1
}

// Has reports whether key is present.
func (t *Table) Has(key string) bool {
	return t.find(key) >= 0
}

// Get returns the node stored under key, or nil.
func (t *Table) Get(key string) Node {
	if i := t.find(key); i >= 0 {
		return t.entries[i].value
	}
	return nil
}

// Set stores v under key. An existing entry keeps its position and comments.
func (t *Table) Set(key string, v Node) {
	t.dirty = true
	if i := t.find(key); i >= 0 {
		t.entries[i].value = v
		return
	}
	t.entries = append(t.entries, &entry{key: key, value: v})
}

// Delete removes key and reports whether it was present.
func (t *Table) Delete(key string) bool {
	i := t.find(key)
	if i < 0 {
		return false
	}
	t.dirty = true
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
	return true
}

// Table returns the table stored under key.
func (t *Table) Table(key string) (*Table, bool) {
	sub, ok := t.Get(key).(*Table)
	return sub, ok
}

// Array returns the array stored under key.
func (t *Table) Array(key string) (*Array, bool) {
	arr, ok := t.Get(key).(*Array)
	return arr, ok
}

// GetString returns the string stored under key.
func (t *Table) GetString(key string) (string, bool) {
	return AsString(t.Get(key))
}

// EnsureTable returns the table under key, creating a [section] when the
// key is absent. It returns nil when key holds something other than a table.
func (t *Table) EnsureTable(key string) *Table {
	switch v := t.Get(key).(type) {
	case nil:
		sub := NewTable()
		t.Set(key, sub)
		return sub
	case *Table:
		return v
	default:
		return nil
	}
}

// EnsureArray returns the array under key, creating an empty one when the
// key is absent. It returns nil when key holds something other than an array.
func (t *Table) EnsureArray(key string) *Array {
	switch v := t.Get(key).(type) {
	case nil:
		arr := NewArray()
		t.Set(key, arr)
		return arr
	case *Array:
		return v
	default:
		return nil
	}
}

// EntryTrivia returns the comments attached to key.
func (t *Table) EntryTrivia(key string) Trivia {
	if i := t.find(key); i >= 0 {
		return cloneTrivia(t.entries[i].Trivia)
	}
	return Trivia{}
}

// SetEntryTrivia replaces the comments attached to key.
func (t *Table) SetEntryTrivia(key string, tr Trivia) {
	if i := t.find(key); i >= 0 {
		t.entries[i].Trivia = cloneTrivia(tr)
	}
}

func (t *Table) appendEntry(e *entry) {
	t.entries = append(t.entries, e)
}

// hasBody reports whether the table owns key/value lines of its own.
func (t *Table) hasBody() bool {
	for _, e := range t.entries {
		if !isSection(e.value) {
			return true
		}
	}
	return false
}

// hasSections reports whether the table holds [headers] of its own.
func (t *Table) hasSections() bool {
	for _, e := range t.entries {
		if isSection(e.value) {
			return true
		}
	}
	return false
}

func isSection(n Node) bool {
	switch v := n.(type) {
	case *Table:
		return v.kind == KindSection || v.kind == KindImplicit
	case *Array:
		return v.tables
	}
	return false
}

// NewArray returns an array holding values.
func NewArray(values ...Node) *Array {
	a := &Array{}
	for _, v := range values {
		a.items = append(a.items, &item{value: v})
	}
	return a
}

// Len returns the number of items.
func (a *Array) Len() int {
	return len(a.items)
}

// At returns the item at index i, or nil when out of range.
func (a *Array) At(i int) Node {
	if i < 0 || i >= len(a.items) {
		return nil
	}
	return a.items[i].value
}

// Values returns a snapshot of the items.
func (a *Array) Values() []Node {
	out := make([]Node, len(a.items))
	for i, it := range a.items {
		out[i] = it.value
	}
	return out
}

// Set replaces the item at index i, keeping its comments.
func (a *Array) Set(i int, v Node) {
	a.dirty = true
	a.items[i].value = v
}

// Append adds v at the end.
func (a *Array) Append(v Node) {
	a.dirty = true
	a.items = append(a.items, &item{value: v})
}

// Insert places v at index i, shifting later items right.
func (a *Array) Insert(i int, v Node) {
	a.dirty = true
	a.items = append(a.items, nil)
	copy(a.items[i+1:], a.items[i:])
	a.items[i] = &item{value: v}
}

// Remove deletes and returns the item at index i.
func (a *Array) Remove(i int) Node {
	a.dirty = true
	v := a.items[i].value
	a.items = append(a.items[:i], a.items[i+1:]...)
	return v
}

// Index returns the index of the first item equal to v, or -1.
func (a *Array) Index(v Node) int {
	for i, it := range a.items {
		if Equal(it.value, v) {
			return i
		}
	}
	return -1
}

// ItemTrivia returns the comments attached to the item at index i.
func (a *Array) ItemTrivia(i int) Trivia {
	if i < 0 || i >= len(a.items) {
		return Trivia{}
	}
	return cloneTrivia(a.items[i].Trivia)
}

// SetItemTrivia replaces the comments attached to the item at index i.
func (a *Array) SetItemTrivia(i int, tr Trivia) {
	if i < 0 || i >= len(a.items) {
		return
	}
	a.dirty = true
	a.items[i].Trivia = cloneTrivia(tr)
}

// Multiline reports whether the array is rendered one item per line.
func (a *Array) Multiline() bool {
	return a.multiline
}

// IsTables reports whether this is an array of [[tables]].
func (a *Array) IsTables() bool {
	return a.tables
}

// SetMultiline renders the array one item per line.
func (a *Array) SetMultiline(on bool) {
	if a.multiline != on {
		a.dirty = true
	}
	a.multiline = on
}

// NewString returns a string scalar rendered as a basic string.
func NewString(s string) *Scalar {
	return &Scalar{val: s}
}

// NewLiteral returns a string scalar rendered as a literal string when the
// content allows it, and as a basic string otherwise.
func NewLiteral(s string) *Scalar {
	return &Scalar{val: s, literal: true}
}

// NewInt returns an integer scalar.
func NewInt(n int64) *Scalar {
	return &Scalar{val: n}
}

// NewBool returns a boolean scalar.
func NewBool(b bool) *Scalar {
	return &Scalar{val: b}
}

// Value returns the Go value of the scalar.
func (s *Scalar) Value() any {
	return s.val
}

// AsString returns the string held by n when n is a string scalar.
func AsString(n Node) (string, bool) {
	s, ok := n.(*Scalar)
	if !ok {
		return "", false
	}
	str, ok := s.val.(string)
	return str, ok
}

// AsBool returns the bool held by n when n is a boolean scalar.
func AsBool(n Node) (bool, bool) {
	s, ok := n.(*Scalar)
	if !ok {
		return false, false
	}
	b, ok := s.val.(bool)
	return b, ok
}

// Equal compares two nodes by value, ignoring formatting and, for tables,
// key order.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case *Scalar:
		y, ok := b.(*Scalar)
		if !ok {
			return false
		}
		if tx, ok := x.val.(time.Time); ok {
			ty, ok := y.val.(time.Time)
			return ok && tx.Equal(ty)
		}
		return x.val == y.val
	case *Array:
		y, ok := b.(*Array)
		if !ok || len(x.items) != len(y.items) {
			return false
		}
		for i := range x.items {
			if !Equal(x.items[i].value, y.items[i].value) {
				return false
			}
		}
		return true
	case *Table:
		y, ok := b.(*Table)
		if !ok || len(x.entries) != len(y.entries) {
			return false
		}
		for _, e := range x.entries {
			other := y.Get(e.key)
			if other == nil || !Equal(e.value, other) {
				return false
			}
		}
		return true
	}
	return a == nil && b == nil
}

// Clone returns a deep copy of n.
func Clone(n Node) Node {
	switch v := n.(type) {
	case *Scalar:
		c := *v
		return &c
	case *Array:
		c := &Array{
			tables:    v.tables,
			multiline: v.multiline,
			indent:    v.indent,
			closing:   cloneLines(v.closing),
			raw:       v.raw,
			dirty:     v.dirty,
		}
		for _, it := range v.items {
			c.items = append(c.items, &item{value: Clone(it.value), Trivia: cloneTrivia(it.Trivia)})
		}
		return c
	case *Table:
		return v.clone()
	}
	return nil
}

func (t *Table) clone() *Table {
	c := &Table{
		kind:       t.kind,
		header:     cloneTrivia(t.header),
		headerRaw:  t.headerRaw,
		headerPath: cloneLines(t.headerPath),
		raw:        t.raw,
		dirty:      t.dirty,
	}
	for _, e := range t.entries {
		ce := *e
		ce.value = Clone(e.value)
		ce.Trivia = cloneTrivia(e.Trivia)
		c.entries = append(c.entries, &ce)
	}
	return c
}

func cloneTrivia(t Trivia) Trivia {
	return Trivia{Leading: cloneLines(t.Leading), Comment: t.Comment}
}

func cloneLines(lines []string) []string {
	if lines == nil {
		return nil
	}
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}

// Document is a parsed TOML file.
type Document struct {
	Root *Table

	trailer []string
	crlf    bool
	bom     bool
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{Root: &Table{kind: KindImplicit}}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	return &Document{
		Root:    d.Root.clone(),
		trailer: cloneLines(d.trailer),
		crlf:    d.crlf,
		bom:     d.bom,
	}
}
