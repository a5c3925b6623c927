package dependency

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aidanlsb/poetry-migrate/internal/constraint"
)

var requirementRe = regexp.MustCompile(`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)\s*(?:\[([^\]]*)\])?\s*(.*)$`)

// ParseSpecifier parses a PEP 508 requirement string such as
// "poetry-core>=1.0.0", "requests[socks] (>=2.31,<3.0)" or
// "pkg @ git+https://example.com/pkg.git@main ; sys_platform == 'linux'".
func ParseSpecifier(s string) (*Spec, error) {
	body, markers, _ := strings.Cut(s, ";")
	body = strings.TrimSpace(body)

	m := requirementRe.FindStringSubmatch(body)
	if m == nil {
		return nil, fmt.Errorf("invalid requirement %q", s)
	}
	spec := &Spec{Name: m[1], Constraint: constraint.Any(), Pretty: "*", Markers: strings.TrimSpace(markers)}
	if m[2] != "" {
		for _, e := range strings.Split(m[2], ",") {
			if e = strings.TrimSpace(e); e != "" {
				spec.Extras = append(spec.Extras, e)
			}
		}
	}

	rest := strings.TrimSpace(m[3])
	if strings.HasPrefix(rest, "@") {
		if err := spec.setURL(strings.TrimSpace(rest[1:])); err != nil {
			return nil, fmt.Errorf("invalid requirement %q: %w", s, err)
		}
		return spec, nil
	}

	rest = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(rest, "("), ")"))
	if rest == "" {
		return spec, nil
	}
	c, err := constraint.Parse(rest)
	if err != nil {
		return nil, fmt.Errorf("invalid requirement %q: %w", s, err)
	}
	spec.Constraint = c
	spec.Pretty = rest
	return spec, nil
}

func (s *Spec) setURL(u string) error {
	if u == "" {
		return fmt.Errorf("empty url")
	}
	s.Pretty = u
	switch {
	case strings.HasPrefix(u, "git+"):
		s.Kind = Git
		u = strings.TrimPrefix(u, "git+")
		u, s.Subdirectory = cutFragment(u)
		// A ref follows the last '@' of the path, not the user@host part.
		if at := strings.LastIndex(u, "@"); at > strings.LastIndex(u, "/") {
			u, s.Rev = u[:at], u[at+1:]
		}
		s.Git = u
	case strings.HasPrefix(u, "file://"):
		s.Kind = Path
		s.Path = strings.TrimPrefix(u, "file://")
	default:
		s.Kind = URL
		s.URL, s.Subdirectory = cutFragment(u)
	}
	return nil
}

func cutFragment(u string) (string, string) {
	base, frag, ok := strings.Cut(u, "#")
	if !ok {
		return u, ""
	}
	return base, strings.TrimPrefix(frag, "subdirectory=")
}
