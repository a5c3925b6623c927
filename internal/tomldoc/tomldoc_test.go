package tomldoc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `# Project metadata
[tool.poetry]
name = "demo"   # the package name
version = '1.2.3'
keywords = ["a", "b"]
authors = [
    "Jane Doe <jane@example.com>",  # maintainer
    # former author
    "John Roe",
]

[tool.poetry.dependencies]
python = "^3.9"
requests = { version = "^2.31", extras = ["socks"] }
"zope.interface" = "*"
numpy = [
    { version = "^1.24", python = "<3.12" },
    { version = "^1.26", python = ">=3.12" },
]

[[tool.poetry.source]]
name = "private"
url = "https://example.com/simple"

[build-system]
requires = ["poetry-core"]
build-backend = "poetry.core.masonry.api"
`

func TestRoundTripUnchanged(t *testing.T) {
	doc, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, sample, doc.String())
}

func TestRoundTripCRLF(t *testing.T) {
	in := "[a]\r\nb = 1\r\n"
	doc, err := Parse([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, in, doc.String())
}

func TestRoundTripByteOrderMark(t *testing.T) {
	in := "\ufeff[tool.poetry]\r\nname = \"demo\"\r\n"
	doc, err := Parse([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, in, doc.String())
	assert.Equal(t, in, doc.Clone().String())

	tool, ok := doc.Root.Table("tool")
	require.True(t, ok)
	assert.Equal(t, []string{"poetry"}, tool.Keys())

	poetry, ok := tool.Table("poetry")
	require.True(t, ok)
	poetry.Set("version", NewString("1.0.0"))
	assert.Equal(t, "\ufeff[tool.poetry]\r\nname = \"demo\"\r\nversion = \"1.0.0\"\r\n", doc.String())
}

func TestParseStructure(t *testing.T) {
	doc, err := Parse([]byte(sample))
	require.NoError(t, err)

	tool, ok := doc.Root.Table("tool")
	require.True(t, ok)
	assert.Equal(t, KindImplicit, tool.Kind())

	poetry, ok := tool.Table("poetry")
	require.True(t, ok)
	assert.Equal(t, []string{"name", "version", "keywords", "authors", "dependencies", "source"}, poetry.Keys())

	name, ok := poetry.GetString("name")
	require.True(t, ok)
	assert.Equal(t, "demo", name)

	deps, ok := poetry.Table("dependencies")
	require.True(t, ok)
	assert.True(t, deps.Has("zope.interface"))

	req, ok := deps.Table("requests")
	require.True(t, ok)
	assert.Equal(t, KindInline, req.Kind())

	numpy, ok := deps.Array("numpy")
	require.True(t, ok)
	assert.Equal(t, 2, numpy.Len())

	sources, ok := poetry.Array("source")
	require.True(t, ok)
	assert.True(t, sources.IsTables())
	assert.Equal(t, 1, sources.Len())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		line int
	}{
		{"duplicate key", "a = 1\na = 2\n", 2},
		{"redefined table", "[a]\n[a]\n", 2},
		{"missing equals", "a 1\n", 1},
		{"unterminated string", "a = \"x\n", 1},
		{"bad value", "a = nope\n", 1},
		{"trailing garbage", "a = 1 2\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.in))
			require.Error(t, err)
			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.line, perr.Line)
		})
	}
}

func TestEditsKeepUntouchedLines(t *testing.T) {
	doc, err := Parse([]byte(sample))
	require.NoError(t, err)

	poetry, _ := doc.Root.Table("tool")
	poetry, _ = poetry.Table("poetry")
	poetry.Delete("version")
	poetry.Set("description", NewLiteral("A demo"))

	out := doc.String()
	assert.Contains(t, out, "name = \"demo\"   # the package name\n")
	assert.NotContains(t, out, "version = '1.2.3'")
	assert.Contains(t, out, "description = 'A demo'\n")
	assert.Contains(t, out, "    # former author\n")
}

func TestNewSectionsAreAppended(t *testing.T) {
	doc, err := Parse([]byte("[tool.poetry]\nname = \"x\"\n"))
	require.NoError(t, err)

	project := doc.Root.EnsureTable("project")
	project.Set("name", NewString("x"))
	urls := project.EnsureTable("urls")
	urls.Set("homepage", NewString("https://example.com"))

	want := "[tool.poetry]\nname = \"x\"\n\n[project]\nname = \"x\"\n\n[project.urls]\nhomepage = \"https://example.com\"\n"
	assert.Equal(t, want, doc.String())
}

func TestMovedSectionGetsNewHeader(t *testing.T) {
	in := "[tool.poetry.plugins.\"app.plugin\"]\nfoo = \"pkg:Foo\"\n"
	doc, err := Parse([]byte(in))
	require.NoError(t, err)

	tool, _ := doc.Root.Table("tool")
	poetry, _ := tool.Table("poetry")
	plugins, _ := poetry.Table("plugins")
	group := plugins.Get("app.plugin")
	plugins.Delete("app.plugin")

	project := doc.Root.EnsureTable("project")
	project.EnsureTable("entry-points").Set("app.plugin", group)

	assert.Contains(t, doc.String(), "[project.entry-points.\"app.plugin\"]\nfoo = \"pkg:Foo\"\n")
}

func TestDirtyArrayIsRerendered(t *testing.T) {
	in := "a = [\n  \"x\",  # keep\n]\nb = [1, 2]\n"
	doc, err := Parse([]byte(in))
	require.NoError(t, err)

	a, _ := doc.Root.Array("a")
	a.Append(NewString("y"))
	b, _ := doc.Root.Array("b")
	b.Remove(0)

	assert.Equal(t, "a = [\n  \"x\",  # keep\n  \"y\",\n]\nb = [2]\n", doc.String())
}

func TestInlineTableRendering(t *testing.T) {
	tbl := NewInlineTable()
	tbl.Set("name", NewString("Jane"))
	tbl.Set("email", NewString("jane@example.com"))
	assert.Equal(t, `{ name = "Jane", email = "jane@example.com" }`, Render(tbl))
	assert.Equal(t, "{}", Render(NewInlineTable()))
}

func TestLiteralFallsBackToBasic(t *testing.T) {
	assert.Equal(t, `'>=3.9,<4.0'`, Render(NewLiteral(">=3.9,<4.0")))
	assert.Equal(t, `"it's"`, Render(NewLiteral("it's")))
	assert.Equal(t, `"a\nb"`, Render(NewLiteral("a\nb")))
}

func TestEqualIgnoresFormatting(t *testing.T) {
	doc, err := Parse([]byte("a = 'x'\nb = { k = 1, j = [true] }\n"))
	require.NoError(t, err)

	assert.True(t, Equal(doc.Root.Get("a"), NewString("x")))

	other := NewInlineTable()
	other.Set("j", NewArray(NewBool(true)))
	other.Set("k", NewInt(1))
	assert.True(t, Equal(doc.Root.Get("b"), other))
	assert.False(t, Equal(doc.Root.Get("a"), NewInt(1)))
}

func TestCloneIsDeep(t *testing.T) {
	doc, err := Parse([]byte(sample))
	require.NoError(t, err)
	before := doc.String()

	c := doc.Clone()
	tool, _ := c.Root.Table("tool")
	poetry, _ := tool.Table("poetry")
	poetry.Delete("name")
	authors, _ := poetry.Array("authors")
	authors.Remove(0)

	assert.Equal(t, before, doc.String())
	assert.NotEqual(t, before, c.String())
}

func TestArrayInsertAndIndex(t *testing.T) {
	a := NewArray(NewString("a"), NewString("c"))
	a.Insert(1, NewString("b"))
	assert.Equal(t, 1, a.Index(NewString("b")))
	assert.Equal(t, -1, a.Index(NewString("z")))
	assert.Equal(t, `["a", "b", "c"]`, Render(a))
}
