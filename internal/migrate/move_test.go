package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/poetry-migrate/internal/tomldoc"
)

func stringsOf(t *testing.T, a *tomldoc.Array) []string {
	t.Helper()
	out := make([]string, 0, a.Len())
	for _, v := range a.Values() {
		s, ok := tomldoc.AsString(v)
		require.True(t, ok, "array item %s is not a string", tomldoc.Render(v))
		out = append(out, s)
	}
	return out
}

func TestMoveIntoTable(t *testing.T) {
	w := &Warnings{}
	m := NewMover(w)

	src := tomldoc.NewTable()
	src.Set("name", tomldoc.NewString("demo"))
	dst := tomldoc.NewTable()

	m.Move(Name("name"), src, dst, "tool.poetry", "project", nil)

	assert.False(t, src.Has("name"))
	got, _ := dst.GetString("name")
	assert.Equal(t, "demo", got)
	assert.Empty(t, w.List())
}

func TestMoveCollisionKeepsDestination(t *testing.T) {
	w := &Warnings{}
	m := NewMover(w)

	src := tomldoc.NewTable()
	src.Set("name", tomldoc.NewString("old"))
	dst := tomldoc.NewTable()
	dst.Set("name", tomldoc.NewString("new"))

	m.Move(Name("name"), src, dst, "tool.poetry", "project", nil)

	assert.False(t, src.Has("name"))
	got, _ := dst.GetString("name")
	assert.Equal(t, "new", got)
	assert.Equal(t, []string{"project.name and tool.poetry.name are both set; the former is kept"}, w.List())
}

func TestMoveMissingKeyIsNoop(t *testing.T) {
	w := &Warnings{}
	m := NewMover(w)
	src, dst := tomldoc.NewTable(), tomldoc.NewTable()

	m.Move(Name("absent"), src, dst, "a", "b", nil)
	m.Move(Index(3), tomldoc.NewArray(), tomldoc.NewArray(), "a", "b", nil)

	assert.Equal(t, 0, dst.Len())
	assert.Equal(t, 0, w.Len())
}

func TestMoveWithResidueCopies(t *testing.T) {
	w := &Warnings{}
	m := NewMover(w)

	src := tomldoc.NewTable()
	src.Set("pkg", tomldoc.NewString("pkg (>=1.0)"))
	dst := tomldoc.NewArray()
	residue := tomldoc.NewInlineTable()
	residue.Set("source", tomldoc.NewString("private"))

	m.Move(Name("pkg"), src, dst, "tool.poetry.dependencies", "project.dependencies", residue)

	assert.Equal(t, []string{"pkg (>=1.0)"}, stringsOf(t, dst))
	assert.Same(t, residue, src.Get("pkg"))
}

func TestMoveIntoArrayDeduplicates(t *testing.T) {
	w := &Warnings{}
	m := NewMover(w)

	src := tomldoc.NewArray(tomldoc.NewString("x"))
	dst := tomldoc.NewArray(tomldoc.NewString("x"))

	m.Move(Index(0), src, dst, "tool.poetry.classifiers", "project.classifiers", nil)

	assert.Equal(t, 0, src.Len())
	assert.Equal(t, 1, dst.Len())
	assert.Equal(t, []string{`value "x" already present in project.classifiers, removed from tool.poetry.classifiers`}, w.List())
}

func TestMoveSubTableOutcomes(t *testing.T) {
	w := &Warnings{}
	m := NewMover(w)

	root := tomldoc.NewTable()
	sub := root.EnsureTable("scripts")
	sub.Set("skip", tomldoc.NewString("stays"))
	sub.Set("pass", tomldoc.NewString("raw"))
	sub.Set("copy", tomldoc.NewString("full"))
	dst := tomldoc.NewTable()

	tf := func(k Key, container tomldoc.Node) Outcome {
		switch k.String() {
		case "skip":
			return Skip()
		case "pass":
			return PassThrough(tomldoc.NewString("transformed"))
		default:
			return CopyModified(tomldoc.NewString("residue"), tomldoc.NewString("copied"))
		}
	}
	m.MoveSub("scripts", root, dst, "tool.poetry", "project.scripts", tf)

	assert.Equal(t, []string{"skip", "copy"}, sub.Keys())
	left, _ := sub.GetString("copy")
	assert.Equal(t, "residue", left)
	assert.Equal(t, []string{"pass", "copy"}, dst.Keys())
	moved, _ := dst.GetString("pass")
	assert.Equal(t, "transformed", moved)
	copied, _ := dst.GetString("copy")
	assert.Equal(t, "copied", copied)
	assert.True(t, root.Has("scripts"))
}

func TestMoveSubArrayKeepsOrderAndDropsEmpty(t *testing.T) {
	w := &Warnings{}
	m := NewMover(w)

	root := tomldoc.NewTable()
	root.Set("keywords", tomldoc.NewArray(tomldoc.NewString("a"), tomldoc.NewString("b"), tomldoc.NewString("c")))
	dst := tomldoc.NewArray(tomldoc.NewString("z"))

	var seen []string
	tf := func(k Key, container tomldoc.Node) Outcome {
		seen = append(seen, k.String())
		return PassThrough(nil)
	}
	m.MoveSub("keywords", root, dst, "tool.poetry", "project.keywords", tf)

	assert.Equal(t, []string{"2", "1", "0"}, seen, "arrays are walked from the end")
	assert.Equal(t, []string{"z", "a", "b", "c"}, stringsOf(t, dst))
	assert.False(t, root.Has("keywords"))
}

func TestMoveSubSkipsNonContainers(t *testing.T) {
	w := &Warnings{}
	m := NewMover(w)

	root := tomldoc.NewTable()
	root.Set("urls", tomldoc.NewString("https://example.com"))

	m.MoveSub("urls", root, tomldoc.NewTable(), "tool.poetry", "project.urls", nil)

	assert.True(t, root.Has("urls"))
	assert.Equal(t, []string{"unexpected type of [tool.poetry.urls]: string; left untouched"}, w.List())
}

func TestMoveSubMissingIsNoop(t *testing.T) {
	w := &Warnings{}
	m := NewMover(w)
	root := tomldoc.NewTable()

	m.MoveSub("plugins", root, tomldoc.NewTable(), "tool.poetry", "project.entry-points", nil)

	assert.Equal(t, 0, root.Len())
	assert.Equal(t, 0, w.Len())
}
