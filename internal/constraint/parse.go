package constraint

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	opSpaceRe  = regexp.MustCompile(`(===|>=|<=|==|!=|~=|>|<|=|\^|~)\s+`)
	wildcardRe = regexp.MustCompile(`^(==|!=)?\s*v?(\d+)(?:\.(\d+))?(?:\.\*)+$`)
	operatorRe = regexp.MustCompile(`^(===|>=|<=|==|!=|~=|>|<|=|\^|~)?\s*(.+)$`)
)

// Parse reads a constraint in Poetry or PEP 440 syntax. "*" or an empty
// string allows any version. Otherwise:
//
//	^1.2         >=1.2,<2.0
//	~1.2.3       >=1.2.3,<1.3.0
//	~=1.2        >=1.2,<2.0
//	1.2.*        >=1.2.0,<1.3.0
//	>=1,<2       comma or space separated conjunction
//	^1 || ^2     union, "|" is accepted too
func Parse(s string) (Constraint, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return Any(), nil
	}

	var result Constraint
	for _, alt := range splitOr(s) {
		c, err := parseConjunction(alt)
		if err != nil {
			return Constraint{}, err
		}
		result = result.Union(c)
	}
	return result, nil
}

func splitOr(s string) []string {
	s = strings.ReplaceAll(s, "||", "|")
	var out []string
	for _, part := range strings.Split(s, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseConjunction(s string) (Constraint, error) {
	s = opSpaceRe.ReplaceAllString(s, "$1")
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return Constraint{}, fmt.Errorf("empty constraint")
	}
	result := Any()
	for _, f := range fields {
		c, err := parseSingle(f)
		if err != nil {
			return Constraint{}, err
		}
		result = result.Intersect(c)
	}
	return result, nil
}

func parseSingle(s string) (Constraint, error) {
	if s == "*" || s == "x" || s == "X" {
		return Any(), nil
	}
	if m := wildcardRe.FindStringSubmatch(s); m != nil {
		return parseWildcard(m[1], m[2], m[3])
	}

	m := operatorRe.FindStringSubmatch(s)
	if m == nil {
		return Constraint{}, fmt.Errorf("invalid constraint %q", s)
	}
	op := m[1]
	v, err := ParseVersion(m[2])
	if err != nil {
		return Constraint{}, fmt.Errorf("invalid constraint %q: %w", s, err)
	}

	switch op {
	case "^":
		next := v.NextBreaking()
		return Between(&v, &next, true, false), nil
	case "~":
		next := v.NextMinor()
		if v.Precision() == 1 {
			next = v.NextMajor()
		}
		return Between(&v, &next, true, false), nil
	case "~=":
		if v.Precision() < 2 {
			return Constraint{}, fmt.Errorf("invalid constraint %q: ~= needs at least two segments", s)
		}
		next := v.NextMinor()
		if v.Precision() == 2 {
			next = v.NextMajor()
		}
		return Between(&v, &next, true, false), nil
	case ">=":
		return Between(&v, nil, true, false), nil
	case ">":
		return Between(&v, nil, false, false), nil
	case "<=":
		return Between(nil, &v, false, true), nil
	case "<":
		return Between(nil, &v, false, false), nil
	case "!=":
		return Between(nil, &v, false, false).Union(Between(&v, nil, false, false)), nil
	default:
		return Exact(v), nil
	}
}

func parseWildcard(op, major, minor string) (Constraint, error) {
	maj, err := strconv.Atoi(major)
	if err != nil {
		return Constraint{}, err
	}
	var c Constraint
	switch {
	case minor != "":
		min, err := strconv.Atoi(minor)
		if err != nil {
			return Constraint{}, err
		}
		lo := mustVersion([]int{maj, min, 0})
		hi := lo.NextMinor()
		c = Between(&lo, &hi, true, false)
	case maj == 0:
		hi := mustVersion([]int{1, 0, 0})
		c = Between(nil, &hi, false, false)
	default:
		lo := mustVersion([]int{maj, 0, 0})
		hi := lo.NextMajor()
		c = Between(&lo, &hi, true, false)
	}
	if op == "!=" {
		return Any().difference(c), nil
	}
	return c, nil
}

// difference returns the versions in c that o does not allow. Only needed
// for a single range o, which is all wildcard exclusion produces.
func (c Constraint) difference(o Constraint) Constraint {
	result := c
	for _, r := range o.ranges {
		var outside []Range
		if r.Min != nil {
			outside = append(outside, Range{Max: r.Min, IncludeMax: !r.IncludeMin})
		}
		if r.Max != nil {
			outside = append(outside, Range{Min: r.Max, IncludeMin: !r.IncludeMax})
		}
		result = result.Intersect(union(outside))
	}
	return result
}
