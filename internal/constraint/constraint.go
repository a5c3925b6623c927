package constraint

import (
	"sort"
	"strings"
)

// Range is a contiguous set of versions. A nil bound is unbounded.
type Range struct {
	Min, Max               *Version
	IncludeMin, IncludeMax bool
}

// Constraint is a union of disjoint ranges, kept sorted. The zero value
// allows nothing.
type Constraint struct {
	ranges []Range
}

// Any returns the constraint that allows every version.
func Any() Constraint {
	return Constraint{ranges: []Range{{}}}
}

// Empty returns the constraint that allows no version.
func Empty() Constraint {
	return Constraint{}
}

// Exact returns the constraint allowing only v.
func Exact(v Version) Constraint {
	return Constraint{ranges: []Range{{Min: &v, Max: &v, IncludeMin: true, IncludeMax: true}}}
}

// Between returns the range from lo to hi with either bound optional.
func Between(lo, hi *Version, includeLo, includeHi bool) Constraint {
	return union([]Range{{Min: lo, Max: hi, IncludeMin: includeLo, IncludeMax: includeHi}})
}

// IsAny reports whether every version is allowed.
func (c Constraint) IsAny() bool {
	return len(c.ranges) == 1 && c.ranges[0].Min == nil && c.ranges[0].Max == nil
}

// IsEmpty reports whether no version is allowed.
func (c Constraint) IsEmpty() bool {
	return len(c.ranges) == 0
}

// Ranges returns the disjoint ranges making up c.
func (c Constraint) Ranges() []Range {
	return append([]Range(nil), c.ranges...)
}

// Allows reports whether v satisfies c.
func (c Constraint) Allows(v Version) bool {
	for _, r := range c.ranges {
		if r.allows(v) {
			return true
		}
	}
	return false
}

// Exact reports the single version c allows, if that is all it allows.
func (c Constraint) Exact() (Version, bool) {
	if len(c.ranges) != 1 {
		return Version{}, false
	}
	r := c.ranges[0]
	if r.Min != nil && r.Max != nil && r.IncludeMin && r.IncludeMax && r.Min.Compare(*r.Max) == 0 {
		return *r.Min, true
	}
	return Version{}, false
}

// Intersect returns the versions allowed by both c and o.
func (c Constraint) Intersect(o Constraint) Constraint {
	var out []Range
	for _, a := range c.ranges {
		for _, b := range o.ranges {
			if r, ok := a.intersect(b); ok {
				out = append(out, r)
			}
		}
	}
	return union(out)
}

// Union returns the versions allowed by either c or o.
func (c Constraint) Union(o Constraint) Constraint {
	return union(append(c.Ranges(), o.ranges...))
}

// String renders c the way Poetry prints constraints: ">=1.2,<2.0" for a
// range, "1.2.3" for a single version, "!=1.3" for a single exclusion and
// " || " between alternatives.
func (c Constraint) String() string {
	switch {
	case c.IsEmpty():
		return "<empty>"
	case c.IsAny():
		return "*"
	}
	if v, ok := c.excludedVersion(); ok {
		return "!=" + v.String()
	}
	parts := make([]string, len(c.ranges))
	for i, r := range c.ranges {
		parts[i] = r.String()
	}
	return strings.Join(parts, " || ")
}

// excludedVersion detects "<v || >v".
func (c Constraint) excludedVersion() (Version, bool) {
	if len(c.ranges) != 2 {
		return Version{}, false
	}
	lo, hi := c.ranges[0], c.ranges[1]
	if lo.Min != nil || hi.Max != nil || lo.Max == nil || hi.Min == nil {
		return Version{}, false
	}
	if lo.IncludeMax || hi.IncludeMin || lo.Max.Compare(*hi.Min) != 0 {
		return Version{}, false
	}
	return *lo.Max, true
}

// String renders a single range.
func (r Range) String() string {
	if r.Min != nil && r.Max != nil && r.IncludeMin && r.IncludeMax && r.Min.Compare(*r.Max) == 0 {
		return r.Min.String()
	}
	var b strings.Builder
	if r.Min != nil {
		if r.IncludeMin {
			b.WriteString(">=")
		} else {
			b.WriteString(">")
		}
		b.WriteString(r.Min.String())
	}
	if r.Max != nil {
		if r.Min != nil {
			b.WriteString(",")
		}
		if r.IncludeMax {
			b.WriteString("<=")
		} else {
			b.WriteString("<")
		}
		b.WriteString(r.Max.String())
	}
	if b.Len() == 0 {
		return "*"
	}
	return b.String()
}

func (r Range) allows(v Version) bool {
	if r.Min != nil {
		cmp := v.Compare(*r.Min)
		if cmp < 0 || (cmp == 0 && !r.IncludeMin) {
			return false
		}
	}
	if r.Max != nil {
		cmp := v.Compare(*r.Max)
		if cmp > 0 || (cmp == 0 && !r.IncludeMax) {
			return false
		}
	}
	return true
}

func (r Range) empty() bool {
	if r.Min == nil || r.Max == nil {
		return false
	}
	cmp := r.Min.Compare(*r.Max)
	return cmp > 0 || (cmp == 0 && !(r.IncludeMin && r.IncludeMax))
}

func (r Range) intersect(o Range) (Range, bool) {
	out := Range{Min: r.Min, IncludeMin: r.IncludeMin, Max: r.Max, IncludeMax: r.IncludeMax}
	if o.Min != nil {
		switch {
		case out.Min == nil:
			out.Min, out.IncludeMin = o.Min, o.IncludeMin
		default:
			cmp := o.Min.Compare(*out.Min)
			if cmp > 0 {
				out.Min, out.IncludeMin = o.Min, o.IncludeMin
			} else if cmp == 0 {
				out.IncludeMin = out.IncludeMin && o.IncludeMin
			}
		}
	}
	if o.Max != nil {
		switch {
		case out.Max == nil:
			out.Max, out.IncludeMax = o.Max, o.IncludeMax
		default:
			cmp := o.Max.Compare(*out.Max)
			if cmp < 0 {
				out.Max, out.IncludeMax = o.Max, o.IncludeMax
			} else if cmp == 0 {
				out.IncludeMax = out.IncludeMax && o.IncludeMax
			}
		}
	}
	if out.empty() {
		return Range{}, false
	}
	return out, true
}

// union sorts ranges by lower bound and merges overlapping ones.
func union(ranges []Range) Constraint {
	var rs []Range
	for _, r := range ranges {
		if !r.empty() {
			rs = append(rs, r)
		}
	}
	sort.SliceStable(rs, func(i, j int) bool {
		return lowerLess(rs[i], rs[j])
	})

	var out []Range
	for _, r := range rs {
		if len(out) == 0 {
			out = append(out, r)
			continue
		}
		last := &out[len(out)-1]
		if !touches(*last, r) {
			out = append(out, r)
			continue
		}
		if upperLess(*last, r) {
			last.Max, last.IncludeMax = r.Max, r.IncludeMax
		}
	}
	return Constraint{ranges: out}
}

func lowerLess(a, b Range) bool {
	switch {
	case a.Min == nil:
		return b.Min != nil
	case b.Min == nil:
		return false
	}
	cmp := a.Min.Compare(*b.Min)
	if cmp != 0 {
		return cmp < 0
	}
	return a.IncludeMin && !b.IncludeMin
}

func upperLess(a, b Range) bool {
	switch {
	case a.Max == nil:
		return false
	case b.Max == nil:
		return true
	}
	cmp := a.Max.Compare(*b.Max)
	if cmp != 0 {
		return cmp < 0
	}
	return !a.IncludeMax && b.IncludeMax
}

// touches reports whether b, starting at or after a, overlaps or abuts a.
func touches(a, b Range) bool {
	if a.Max == nil || b.Min == nil {
		return true
	}
	cmp := b.Min.Compare(*a.Max)
	if cmp < 0 {
		return true
	}
	return cmp == 0 && (a.IncludeMax || b.IncludeMin)
}
