package migrate

import (
	"fmt"
	"strconv"

	"github.com/aidanlsb/poetry-migrate/internal/tomldoc"
)

// Key addresses an entry of a table (by name) or an item of an array (by
// index).
type Key struct {
	name    string
	index   int
	isIndex bool
}

// Name addresses the table entry called name.
func Name(name string) Key {
	return Key{name: name}
}

// Index addresses the array item at i.
func Index(i int) Key {
	return Key{index: i, isIndex: true}
}

func (k Key) String() string {
	if k.isIndex {
		return strconv.Itoa(k.index)
	}
	return k.name
}

type outcomeKind int

const (
	passThrough outcomeKind = iota
	skip
	copyModified
)

// Outcome is what a Transformer decides for one item.
type Outcome struct {
	kind    outcomeKind
	value   tomldoc.Node
	residue tomldoc.Node
}

// PassThrough moves value in place of the original item.
func PassThrough(value tomldoc.Node) Outcome {
	return Outcome{kind: passThrough, value: value}
}

// Skip leaves the item where it is.
func Skip() Outcome {
	return Outcome{kind: skip}
}

// CopyModified moves value and leaves residue behind in the source.
func CopyModified(residue, value tomldoc.Node) Outcome {
	return Outcome{kind: copyModified, value: value, residue: residue}
}

// Transformer inspects one item of a sub-container before it is moved.
// container is the table or array holding the item.
type Transformer func(k Key, container tomldoc.Node) Outcome

// Mover moves values between containers. It never overwrites: collisions
// keep the destination value and are reported as warnings.
type Mover struct {
	warnings *Warnings
}

// NewMover returns a Mover reporting into w.
func NewMover(w *Warnings) *Mover {
	return &Mover{warnings: w}
}

// Move moves the item at k from src to dst. When dst is a table the item
// keeps its key; when dst is an array it is appended. A non-nil residue
// replaces the item in src instead of removing it. Missing items are
// ignored.
func (m *Mover) Move(k Key, src, dst tomldoc.Node, from, to string, residue tomldoc.Node) {
	m.move(k, src, dst, from, to, residue, -1)
}

// move is Move with an insertion point for array destinations; at < 0
// appends.
func (m *Mover) move(k Key, src, dst tomldoc.Node, from, to string, residue tomldoc.Node, at int) {
	value := itemAt(src, k)
	if value == nil {
		return
	}
	trivia := triviaAt(src, k)

	switch d := dst.(type) {
	case *tomldoc.Table:
		if k.isIndex {
			return
		}
		if d.Has(k.name) {
			m.warnings.Addf("%s.%s and %s.%s are both set; the former is kept", to, k, from, k)
		} else {
			d.Set(k.name, value)
			if residue == nil {
				d.SetEntryTrivia(k.name, trivia)
			}
		}
	case *tomldoc.Array:
		switch {
		case d.Index(value) >= 0:
			m.warnings.Addf("value %s already present in %s, removed from %s", tomldoc.Render(value), to, from)
		case at >= 0 && at <= d.Len():
			d.Insert(at, value)
			d.SetItemTrivia(at, trivia)
		default:
			d.Append(value)
			d.SetItemTrivia(d.Len()-1, trivia)
		}
	default:
		return
	}

	if residue != nil {
		setItem(src, k, residue)
	} else {
		removeItem(src, k)
	}
}

// MoveSub moves every item of the sub-container src[name] into dst,
// running tf on each item first. Tables are walked over a snapshot of their
// keys, arrays from the last index down, so removals never disturb the
// walk. Array items keep their relative order in dst. The sub-container is
// removed from src once it is empty.
func (m *Mover) MoveSub(name string, src *tomldoc.Table, dst tomldoc.Node, from, to string, tf Transformer) {
	sub := src.Get(name)
	if sub == nil {
		return
	}
	subFrom := from + "." + name

	switch s := sub.(type) {
	case *tomldoc.Table:
		for _, key := range s.Keys() {
			k := Name(key)
			residue, ok := m.apply(tf, k, s)
			if !ok {
				continue
			}
			m.move(k, s, dst, subFrom, to, residue, -1)
		}
		if s.Len() == 0 {
			src.Delete(name)
		}
	case *tomldoc.Array:
		at := -1
		if d, ok := dst.(*tomldoc.Array); ok {
			at = d.Len()
		}
		for i := s.Len() - 1; i >= 0; i-- {
			k := Index(i)
			residue, ok := m.apply(tf, k, s)
			if !ok {
				continue
			}
			m.move(k, s, dst, subFrom, to, residue, at)
		}
		if s.Len() == 0 {
			src.Delete(name)
		}
	default:
		m.warnings.Addf("unexpected type of [%s]: %s; left untouched", subFrom, typeName(sub))
	}
}

// apply runs tf for one item and reports the residue to leave behind, and
// whether the item should be moved at all.
func (m *Mover) apply(tf Transformer, k Key, container tomldoc.Node) (tomldoc.Node, bool) {
	if tf == nil {
		return nil, true
	}
	out := tf(k, container)
	switch out.kind {
	case skip:
		return nil, false
	case copyModified:
		setItem(container, k, out.value)
		return out.residue, true
	default:
		if out.value != nil {
			setItem(container, k, out.value)
		}
		return nil, true
	}
}

func itemAt(container tomldoc.Node, k Key) tomldoc.Node {
	switch c := container.(type) {
	case *tomldoc.Table:
		if k.isIndex {
			return nil
		}
		return c.Get(k.name)
	case *tomldoc.Array:
		if !k.isIndex {
			return nil
		}
		return c.At(k.index)
	}
	return nil
}

func triviaAt(container tomldoc.Node, k Key) tomldoc.Trivia {
	var tr tomldoc.Trivia
	switch c := container.(type) {
	case *tomldoc.Table:
		tr = c.EntryTrivia(k.name)
	case *tomldoc.Array:
		tr = c.ItemTrivia(k.index)
	}
	// Blank lines belong to the old layout; comments travel with the value.
	var leading []string
	for _, l := range tr.Leading {
		if l != "" {
			leading = append(leading, l)
		}
	}
	tr.Leading = leading
	return tr
}

func setItem(container tomldoc.Node, k Key, v tomldoc.Node) {
	switch c := container.(type) {
	case *tomldoc.Table:
		c.Set(k.name, v)
	case *tomldoc.Array:
		c.Set(k.index, v)
	}
}

func removeItem(container tomldoc.Node, k Key) {
	switch c := container.(type) {
	case *tomldoc.Table:
		c.Delete(k.name)
	case *tomldoc.Array:
		c.Remove(k.index)
	}
}

func typeName(n tomldoc.Node) string {
	switch v := n.(type) {
	case *tomldoc.Table:
		return "table"
	case *tomldoc.Array:
		return "array"
	case *tomldoc.Scalar:
		switch v.Value().(type) {
		case string:
			return "string"
		case bool:
			return "boolean"
		case int64:
			return "integer"
		case float64:
			return "float"
		}
		return "datetime"
	}
	return fmt.Sprintf("%T", n)
}
