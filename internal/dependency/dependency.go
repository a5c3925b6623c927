// Package dependency models a single project dependency. It reads the
// legacy [tool.poetry.dependencies] notation (a bare constraint string or an
// attribute table), renders PEP 508 requirement strings and parses them back.
package dependency

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/aidanlsb/poetry-migrate/internal/constraint"
	"github.com/aidanlsb/poetry-migrate/internal/tomldoc"
)

// Kind is where a dependency is fetched from.
type Kind int

const (
	Registry Kind = iota
	Git
	Path
	File
	URL
)

func (k Kind) String() string {
	switch k {
	case Git:
		return "git"
	case Path:
		return "path"
	case File:
		return "file"
	case URL:
		return "url"
	default:
		return "registry"
	}
}

var normalizeRe = regexp.MustCompile(`[-_.]+`)

// Normalize returns the canonical form of a distribution name, so that
// "Foo_Bar" and "foo-bar" compare equal.
func Normalize(name string) string {
	return normalizeRe.ReplaceAllString(strings.ToLower(name), "-")
}

// Spec is one dependency with everything a requirement string can carry
// plus the legacy-only optional flag.
type Spec struct {
	Name string
	Kind Kind

	Constraint constraint.Constraint
	// Pretty is the constraint as written.
	Pretty string

	Extras   []string
	Python   string
	Platform string
	Markers  string
	Optional bool

	Git          string
	Branch       string
	Tag          string
	Rev          string
	Path         string
	URL          string
	Subdirectory string
}

// FromLegacy builds a Spec from a legacy constraint value: either a string
// such as "^1.2" or a table such as { version = "^1.2", extras = ["x"] }.
func FromLegacy(name string, n tomldoc.Node) (*Spec, error) {
	switch v := n.(type) {
	case *tomldoc.Scalar:
		s, ok := tomldoc.AsString(v)
		if !ok {
			return nil, fmt.Errorf("dependency %s: expected a string or table, got %v", name, v.Value())
		}
		return registry(name, s)
	case *tomldoc.Table:
		return fromTable(name, v)
	case nil:
		return nil, fmt.Errorf("dependency %s: missing value", name)
	default:
		return nil, fmt.Errorf("dependency %s: expected a string or table", name)
	}
}

func registry(name, pretty string) (*Spec, error) {
	c, err := constraint.Parse(pretty)
	if err != nil {
		return nil, fmt.Errorf("dependency %s: %w", name, err)
	}
	if strings.TrimSpace(pretty) == "" {
		pretty = "*"
	}
	return &Spec{Name: name, Constraint: c, Pretty: pretty}, nil
}

func fromTable(name string, t *tomldoc.Table) (*Spec, error) {
	str := func(key string) string {
		s, _ := t.GetString(key)
		return s
	}

	version := str("version")
	spec, err := registry(name, version)
	if err != nil {
		return nil, err
	}

	spec.Python = str("python")
	spec.Platform = str("platform")
	spec.Markers = str("markers")
	spec.Optional, _ = tomldoc.AsBool(t.Get("optional"))
	if extras, ok := t.Array("extras"); ok {
		for _, e := range extras.Values() {
			if s, ok := tomldoc.AsString(e); ok {
				spec.Extras = append(spec.Extras, s)
			}
		}
	}
	if spec.Python != "" {
		if _, err := constraint.Parse(spec.Python); err != nil {
			return nil, fmt.Errorf("dependency %s: python: %w", name, err)
		}
	}

	spec.Subdirectory = str("subdirectory")
	switch {
	case t.Has("git"):
		spec.Kind = Git
		spec.Git = str("git")
		spec.Branch = str("branch")
		spec.Tag = str("tag")
		spec.Rev = str("rev")
	case t.Has("path"):
		spec.Kind = Path
		spec.Path = str("path")
	case t.Has("file"):
		spec.Kind = File
		spec.Path = str("file")
	case t.Has("url"):
		spec.Kind = URL
		spec.URL = str("url")
	}
	if spec.Kind != Registry {
		spec.Pretty = spec.Kind.String() + " " + spec.source()
	}
	return spec, nil
}

func (s *Spec) source() string {
	switch s.Kind {
	case Git:
		return s.Git
	case Path, File:
		return s.Path
	case URL:
		return s.URL
	}
	return ""
}

// Reference is the git ref to check out: branch, then tag, then rev.
func (s *Spec) Reference() string {
	switch {
	case s.Branch != "":
		return s.Branch
	case s.Tag != "":
		return s.Tag
	default:
		return s.Rev
	}
}

// IsRelativePath reports whether s points at a local path that is not
// absolute. Such dependencies cannot be written as PEP 508 requirements.
func (s *Spec) IsRelativePath() bool {
	return (s.Kind == Path || s.Kind == File) && !filepath.IsAbs(s.Path)
}

// String renders the name with the constraint as written, e.g.
// "requests (^2.31)".
func (s *Spec) String() string {
	pretty := s.Pretty
	if pretty == "" {
		pretty = "*"
	}
	return s.Name + " (" + pretty + ")"
}

// PEP508 renders s as a requirement string, e.g.
// `requests[socks] (>=2.31,<3.0) ; python_version >= "3.9"`.
func (s *Spec) PEP508() string {
	var b strings.Builder
	b.WriteString(s.Name)
	if len(s.Extras) > 0 {
		extras := append([]string(nil), s.Extras...)
		sort.Strings(extras)
		b.WriteString("[" + strings.Join(extras, ",") + "]")
	}

	switch s.Kind {
	case Git:
		b.WriteString(" @ git+" + gitURL(s.Git))
		if ref := s.Reference(); ref != "" {
			b.WriteString("@" + ref)
		}
		if s.Subdirectory != "" {
			b.WriteString("#subdirectory=" + s.Subdirectory)
		}
	case Path, File:
		b.WriteString(" @ " + fileURL(s.Path))
	case URL:
		b.WriteString(" @ " + s.URL)
		if s.Subdirectory != "" {
			b.WriteString("#subdirectory=" + s.Subdirectory)
		}
	default:
		if clause := versionClause(s.Constraint); clause != "" {
			b.WriteString(" (" + clause + ")")
		}
	}

	if m := s.markerExpr(); m != "" {
		b.WriteString(" ; " + m)
	}
	return b.String()
}

func versionClause(c constraint.Constraint) string {
	if c.IsAny() {
		return ""
	}
	if v, ok := c.Exact(); ok {
		return "==" + v.String()
	}
	return strings.ReplaceAll(c.String(), " ", "")
}

var scpLikeRe = regexp.MustCompile(`^([\w.-]+@[\w.-]+):(.+)$`)

// gitURL turns scp-like "git@host:org/repo.git" into an ssh URL.
func gitURL(u string) string {
	if strings.Contains(u, "://") {
		return u
	}
	if m := scpLikeRe.FindStringSubmatch(u); m != nil {
		return "ssh://" + m[1] + "/" + m[2]
	}
	return u
}

func fileURL(p string) string {
	p = filepath.ToSlash(p)
	if strings.HasPrefix(p, "/") {
		return "file://" + p
	}
	if filepath.IsAbs(filepath.FromSlash(p)) {
		return "file:///" + p
	}
	return "file:" + p
}

// markerExpr joins the python, platform and free-form markers with "and".
func (s *Spec) markerExpr() string {
	var parts []string
	if s.Python != "" {
		if m := pythonMarker(s.Python); m != "" {
			parts = append(parts, m)
		}
	}
	if s.Platform != "" {
		parts = append(parts, fmt.Sprintf("sys_platform == %q", s.Platform))
	}
	if s.Markers != "" {
		parts = append(parts, s.Markers)
	}
	if len(parts) > 1 {
		for i, p := range parts {
			if strings.Contains(p, " or ") {
				parts[i] = "(" + p + ")"
			}
		}
	}
	return strings.Join(parts, " and ")
}

// pythonMarker converts a python constraint such as "^3.8" into
// `python_version >= "3.8" and python_version < "4.0"`.
func pythonMarker(pretty string) string {
	c, err := constraint.Parse(pretty)
	if err != nil || c.IsAny() {
		return ""
	}
	if v, ok := excluded(c); ok {
		return markerVar(v) + fmt.Sprintf(" != %q", v.String())
	}

	ranges := c.Ranges()
	alts := make([]string, 0, len(ranges))
	for _, r := range ranges {
		var parts []string
		switch {
		case r.Min != nil && r.Max != nil && r.IncludeMin && r.IncludeMax && r.Min.Compare(*r.Max) == 0:
			parts = append(parts, markerVar(*r.Min)+fmt.Sprintf(" == %q", r.Min.String()))
		default:
			if r.Min != nil {
				op := ">"
				if r.IncludeMin {
					op = ">="
				}
				parts = append(parts, fmt.Sprintf("%s %s %q", markerVar(*r.Min), op, r.Min.String()))
			}
			if r.Max != nil {
				op := "<"
				if r.IncludeMax {
					op = "<="
				}
				parts = append(parts, fmt.Sprintf("%s %s %q", markerVar(*r.Max), op, r.Max.String()))
			}
		}
		alt := strings.Join(parts, " and ")
		if len(ranges) > 1 && len(parts) > 1 {
			alt = "(" + alt + ")"
		}
		alts = append(alts, alt)
	}
	return strings.Join(alts, " or ")
}

func excluded(c constraint.Constraint) (constraint.Version, bool) {
	s := c.String()
	if !strings.HasPrefix(s, "!=") {
		return constraint.Version{}, false
	}
	v, err := constraint.ParseVersion(strings.TrimPrefix(s, "!="))
	if err != nil {
		return constraint.Version{}, false
	}
	return v, true
}

func markerVar(v constraint.Version) string {
	if v.Precision() > 2 {
		return "python_full_version"
	}
	return "python_version"
}
