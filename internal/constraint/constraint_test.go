package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"*", "*"},
		{"", "*"},
		{"^1.2", ">=1.2,<2.0"},
		{"^1.2.3", ">=1.2.3,<2.0.0"},
		{"^0.2.3", ">=0.2.3,<0.3.0"},
		{"^0.0.3", ">=0.0.3,<0.0.4"},
		{"^0", ">=0,<1"},
		{"^3.9", ">=3.9,<4.0"},
		{"~1.2.3", ">=1.2.3,<1.3.0"},
		{"~1.2", ">=1.2,<1.3"},
		{"~1", ">=1,<2"},
		{"~=1.2", ">=1.2,<2.0"},
		{"~=1.2.3", ">=1.2.3,<1.3.0"},
		{"1.2.*", ">=1.2.0,<1.3.0"},
		{"1.*", ">=1.0.0,<2.0.0"},
		{"0.*", "<1.0.0"},
		{"==1.2.*", ">=1.2.0,<1.3.0"},
		{"1.2.3", "1.2.3"},
		{"==1.2.3", "1.2.3"},
		{">= 2.0", ">=2.0"},
		{">=2.0,<3.0", ">=2.0,<3.0"},
		{">=2.0 <3.0", ">=2.0,<3.0"},
		{"!=1.3", "!=1.3"},
		{">1.0,<=2.0", ">1.0,<=2.0"},
		{"^1.0 || ^3.0", ">=1.0,<2.0 || >=3.0,<4.0"},
		{"^1.0 | ^1.5", ">=1.0,<2.0"},
		{">=1.0,<1.0", "<empty>"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.String())
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"abc", "^", ">=x.y", "~=1"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestWildcardExclusion(t *testing.T) {
	c := mustParse("!=1.2.*")
	assert.True(t, c.Allows(mustParseVersion(t, "1.1.9")))
	assert.False(t, c.Allows(mustParseVersion(t, "1.2.5")))
	assert.True(t, c.Allows(mustParseVersion(t, "1.3.0")))
}

func TestAllows(t *testing.T) {
	c := mustParse("^2.31")
	assert.True(t, c.Allows(mustParseVersion(t, "2.31")))
	assert.True(t, c.Allows(mustParseVersion(t, "2.99.1")))
	assert.False(t, c.Allows(mustParseVersion(t, "3.0")))
	assert.False(t, c.Allows(mustParseVersion(t, "2.30.9")))
}

func TestIntersect(t *testing.T) {
	tests := []struct {
		a, b  string
		want  string
		empty bool
	}{
		{">=1.0", "<2.0", ">=1.0,<2.0", false},
		{">=2.0", "^1.0", "<empty>", true},
		{"^1.0", ">=1.5", ">=1.5,<2.0", false},
		{"*", ">=2.0,<3.0", ">=2.0,<3.0", false},
		{"<2.0", ">=2.0.0", "<empty>", true},
		{"^1.0 || ^3.0", ">=1.5,<3.5", ">=1.5,<2.0 || >=3.0,<3.5", false},
	}
	for _, tt := range tests {
		t.Run(tt.a+" & "+tt.b, func(t *testing.T) {
			got := mustParse(tt.a).Intersect(mustParse(tt.b))
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, tt.empty, got.IsEmpty())
		})
	}
}

func TestAnyAndEmpty(t *testing.T) {
	assert.True(t, mustParse("*").IsAny())
	assert.False(t, mustParse(">=0").IsAny())
	assert.True(t, Empty().IsEmpty())
	assert.False(t, Any().IsEmpty())
	assert.True(t, Any().Union(Empty()).IsAny())
}

func TestUnionMergesAdjacentRanges(t *testing.T) {
	c := mustParse("<1.0").Union(mustParse(">=1.0"))
	assert.True(t, c.IsAny())

	c = mustParse("<1.0").Union(mustParse(">1.0"))
	assert.Equal(t, "!=1.0", c.String())
}

func TestExact(t *testing.T) {
	v, ok := mustParse("==2.0.1").Exact()
	require.True(t, ok)
	assert.Equal(t, "2.0.1", v.String())

	_, ok = mustParse("^2.0").Exact()
	assert.False(t, ok)
}

func TestVersionNext(t *testing.T) {
	v := mustParseVersion(t, "1.2.3")
	assert.Equal(t, "2.0.0", v.NextMajor().String())
	assert.Equal(t, "1.3.0", v.NextMinor().String())
	assert.Equal(t, "1.2.4", v.NextPatch().String())
	assert.Equal(t, 3, v.Precision())

	pre := mustParseVersion(t, "2.0.0rc1")
	assert.Equal(t, -1, pre.Compare(mustParseVersion(t, "2.0.0")))
	assert.Equal(t, "2.0.0rc1", pre.String())
	assert.Equal(t, 0, mustParseVersion(t, "2.0").Compare(mustParseVersion(t, "2.0.0")))
}

func TestPostReleasesSortAfterRelease(t *testing.T) {
	post := mustParseVersion(t, "1.0.post1")
	assert.Equal(t, 1, post.Compare(mustParseVersion(t, "1.0")))
	assert.Equal(t, -1, post.Compare(mustParseVersion(t, "1.0.1")))
	assert.Equal(t, -1, mustParseVersion(t, "1.0.dev0").Compare(mustParseVersion(t, "1.0a1")))

	assert.True(t, mustParse(">=1.0").Allows(post))
	assert.False(t, mustParse("<1.0").Allows(post))
	assert.False(t, mustParse("==1.0.post1").Intersect(mustParse(">=1.0")).IsEmpty())
	assert.True(t, mustParse("==1.0.post1").Intersect(mustParse("<=1.0")).IsEmpty())
}

func mustParse(s string) Constraint {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

func mustParseVersion(t *testing.T, s string) Version {
	t.Helper()
	v, err := ParseVersion(s)
	require.NoError(t, err)
	return v
}
