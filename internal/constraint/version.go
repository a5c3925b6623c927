// Package constraint implements the version constraint algebra used when
// migrating dependency specifications: parsing Poetry and PEP 440 constraint
// strings, intersecting them and rendering them back.
package constraint

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
)

var releaseRe = regexp.MustCompile(`^\d+(\.\d+)*`)

// Version is a parsed version that remembers how it was written.
type Version struct {
	text    string
	release []int
	v       pep440.Version
}

// ParseVersion parses a PEP 440 style version such as "1.2", "2.0.0rc1" or
// "1.0.post1".
func ParseVersion(s string) (Version, error) {
	text := strings.TrimSpace(s)
	text = strings.TrimPrefix(strings.TrimPrefix(text, "v"), "V")
	rel := releaseRe.FindString(text)
	if rel == "" {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}
	v, err := pep440.Parse(text)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	segs := strings.Split(rel, ".")
	release := make([]int, len(segs))
	for i, seg := range segs {
		n, err := strconv.Atoi(seg)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
		}
		release[i] = n
	}
	return Version{text: text, release: release, v: v}, nil
}

func mustVersion(release []int) Version {
	parts := make([]string, len(release))
	for i, n := range release {
		parts[i] = strconv.Itoa(n)
	}
	v, err := ParseVersion(strings.Join(parts, "."))
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as written.
func (v Version) String() string {
	return v.text
}

// Precision is the number of release segments that were written.
func (v Version) Precision() int {
	return len(v.release)
}

// Compare returns -1, 0 or 1 in PEP 440 order: pre-releases sort before
// the release, post-releases after it. Missing trailing segments compare as
// zero.
func (v Version) Compare(o Version) int {
	return v.v.Compare(o.v)
}

func (v Version) segment(i int) int {
	if i < len(v.release) {
		return v.release[i]
	}
	return 0
}

// NextMajor returns the next major release with the same precision.
func (v Version) NextMajor() Version {
	next := make([]int, len(v.release))
	next[0] = v.release[0] + 1
	return mustVersion(next)
}

// NextMinor returns the next minor release, with at least two segments.
func (v Version) NextMinor() Version {
	next := make([]int, max(len(v.release), 2))
	next[0] = v.segment(0)
	next[1] = v.segment(1) + 1
	return mustVersion(next)
}

// NextPatch returns the next patch release, with at least three segments.
func (v Version) NextPatch() Version {
	next := make([]int, max(len(v.release), 3))
	next[0] = v.segment(0)
	next[1] = v.segment(1)
	next[2] = v.segment(2) + 1
	return mustVersion(next)
}

// NextBreaking returns the first version a caret constraint excludes.
func (v Version) NextBreaking() Version {
	if v.segment(0) > 0 || len(v.release) == 1 {
		return v.NextMajor()
	}
	if v.segment(1) > 0 || len(v.release) == 2 {
		return v.NextMinor()
	}
	return v.NextPatch()
}
