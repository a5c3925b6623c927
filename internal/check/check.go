// Package check validates the structure of a pyproject.toml before it is
// migrated.
package check

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/poetry-migrate/internal/constraint"
)

// IssueLevel indicates the severity of an issue.
type IssueLevel int

const (
	LevelError IssueLevel = iota
	LevelWarning
)

func (l IssueLevel) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarning:
		return "WARN"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the level as "error" or "warn".
func (l IssueLevel) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(l.String())), nil
}

// Issue is a single finding. Field is the dotted key it concerns, Line is
// set for syntax errors only.
type Issue struct {
	Level   IssueLevel `json:"level"`
	Field   string     `json:"field,omitempty"`
	Line    int        `json:"line,omitempty"`
	Message string     `json:"message"`
}

func (i Issue) String() string {
	switch {
	case i.Line > 0:
		return fmt.Sprintf("line %d: %s", i.Line, i.Message)
	case i.Field != "":
		return fmt.Sprintf("[%s] %s", i.Field, i.Message)
	default:
		return i.Message
	}
}

// Report collects the issues found in one file.
type Report struct {
	Issues []Issue
}

// Errors returns the error-level issues.
func (r Report) Errors() []Issue { return r.filter(LevelError) }

// Warnings returns the warning-level issues.
func (r Report) Warnings() []Issue { return r.filter(LevelWarning) }

// Failed reports whether the check blocks migration. In strict mode
// warnings block as well.
func (r Report) Failed(strict bool) bool {
	if len(r.Errors()) > 0 {
		return true
	}
	return strict && len(r.Warnings()) > 0
}

func (r Report) filter(level IssueLevel) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Level == level {
			out = append(out, i)
		}
	}
	return out
}

type checker struct {
	issues []Issue
}

func (c *checker) errorf(field, format string, args ...interface{}) {
	c.issues = append(c.issues, Issue{Level: LevelError, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) warnf(field, format string, args ...interface{}) {
	c.issues = append(c.issues, Issue{Level: LevelWarning, Field: field, Message: fmt.Sprintf(format, args...)})
}

// Run checks a pyproject.toml file. Syntax errors are reported as a single
// issue; everything else is a shape check of the sections the migration
// reads.
func Run(data []byte) Report {
	var doc map[string]interface{}
	if _, err := toml.Decode(string(data), &doc); err != nil {
		issue := Issue{Level: LevelError, Message: err.Error()}
		var perr toml.ParseError
		if errors.As(err, &perr) {
			issue.Line = perr.Position.Line
			issue.Message = perr.Message
		}
		return Report{Issues: []Issue{issue}}
	}

	c := &checker{}
	legacy, hasLegacy := c.table(doc, "tool", "poetry")
	project, hasProject := c.table(doc, "project")

	if !hasLegacy && !hasProject {
		c.warnf("", "neither [tool.poetry] nor [project] found; nothing to migrate")
	}
	if hasLegacy {
		c.checkLegacy(legacy, project)
	}
	if hasProject {
		c.checkProject(project)
	}
	c.checkBuildSystem(doc)

	return Report{Issues: c.issues}
}

// table returns the table at path. A value of another type is an error.
func (c *checker) table(root map[string]interface{}, path ...string) (map[string]interface{}, bool) {
	cur := root
	for i, key := range path {
		v, ok := cur[key]
		if !ok {
			return nil, false
		}
		t, ok := v.(map[string]interface{})
		if !ok {
			c.errorf(strings.Join(path[:i+1], "."), "must be a table, got %s", kind(v))
			return nil, false
		}
		cur = t
	}
	return cur, true
}

func (c *checker) checkLegacy(legacy, project map[string]interface{}) {
	const prefix = "tool.poetry."

	if _, ok := legacy["name"]; !ok {
		if _, ok := project["name"]; !ok {
			c.errorf("tool.poetry", "name is required")
		}
	}
	for _, key := range []string{"name", "version", "description", "license", "homepage", "repository", "documentation"} {
		c.expectString(legacy, key, prefix+key)
	}
	for _, key := range []string{"authors", "maintainers", "keywords", "classifiers"} {
		c.expectStrings(legacy, key, prefix+key)
	}
	if v, ok := legacy["readme"]; ok {
		switch v.(type) {
		case string:
		case []interface{}:
			c.expectStrings(legacy, "readme", prefix+"readme")
		default:
			c.errorf(prefix+"readme", "must be a string or an array of strings, got %s", kind(v))
		}
	}
	if s, ok := legacy["version"].(string); ok {
		if _, err := constraint.ParseVersion(s); err != nil {
			c.warnf(prefix+"version", "%q is not a valid version", s)
		}
	}

	if deps, ok := c.table(legacy, "dependencies"); ok {
		c.checkDependencies(deps, prefix+"dependencies")
		if _, ok := deps["python"]; !ok {
			if _, ok := project["requires-python"]; !ok {
				c.warnf(prefix+"dependencies", "no python constraint declared")
			}
		}
	}
	if deps, ok := c.table(legacy, "dev-dependencies"); ok {
		c.warnf(prefix+"dev-dependencies", "deprecated, use [tool.poetry.group.dev.dependencies]")
		c.checkDependencies(deps, prefix+"dev-dependencies")
	}
	if groups, ok := c.table(legacy, "group"); ok {
		for _, name := range sortedKeys(groups) {
			if deps, ok := c.table(groups, name, "dependencies"); ok {
				c.checkDependencies(deps, prefix+"group."+name+".dependencies")
			}
		}
	}
	if extras, ok := c.table(legacy, "extras"); ok {
		deps, _ := legacy["dependencies"].(map[string]interface{})
		for _, name := range sortedKeys(extras) {
			field := prefix + "extras." + name
			if !c.expectStrings(extras, name, field) {
				continue
			}
			for _, pkg := range extras[name].([]interface{}) {
				if _, ok := deps[pkg.(string)]; !ok {
					c.warnf(field, "%s is not declared in [tool.poetry.dependencies]", pkg)
				}
			}
		}
	}
	for _, key := range []string{"urls", "scripts", "plugins"} {
		c.table(legacy, key)
	}
}

func (c *checker) checkDependencies(deps map[string]interface{}, field string) {
	for _, name := range sortedKeys(deps) {
		f := field + "." + name
		switch v := deps[name].(type) {
		case string:
			c.checkConstraint(v, f)
		case map[string]interface{}:
			c.checkDependencyTable(v, f)
		case []interface{}:
			if len(v) == 0 {
				c.errorf(f, "empty list of constraints")
			}
			alts := make([]map[string]interface{}, 0, len(v))
			for _, alt := range v {
				t, ok := alt.(map[string]interface{})
				if !ok {
					c.errorf(f, "alternatives must be tables, got %s", kind(alt))
					continue
				}
				alts = append(alts, t)
			}
			c.checkAlternatives(alts, f)
		case []map[string]interface{}:
			// [[tool.poetry.dependencies.name]] blocks
			c.checkAlternatives(v, f)
		default:
			c.errorf(f, "must be a string, a table or an array of tables, got %s", kind(v))
		}
	}
}

func (c *checker) checkAlternatives(alts []map[string]interface{}, field string) {
	for _, t := range alts {
		c.checkDependencyTable(t, field)
		_, hasPython := t["python"]
		_, hasMarkers := t["markers"]
		_, hasPlatform := t["platform"]
		if !hasPython && !hasMarkers && !hasPlatform {
			c.warnf(field, "alternative without python, platform or markers cannot be told apart")
		}
	}
}

func (c *checker) checkDependencyTable(t map[string]interface{}, field string) {
	sources := 0
	for _, key := range []string{"version", "git", "path", "file", "url"} {
		if _, ok := t[key]; ok {
			sources++
		}
	}
	if sources == 0 {
		c.errorf(field, "one of version, git, path, file or url is required")
	}
	if _, ok := t["version"]; ok && sources > 1 {
		c.warnf(field, "version is ignored when a git, path, file or url source is given")
	}
	if s, ok := t["version"].(string); ok {
		c.checkConstraint(s, field)
	}
	if s, ok := t["python"].(string); ok {
		c.checkConstraint(s, field+".python")
	}
	refs := 0
	for _, key := range []string{"branch", "tag", "rev"} {
		if _, ok := t[key]; ok {
			refs++
		}
	}
	if refs > 1 {
		c.errorf(field, "only one of branch, tag or rev may be set")
	}
	if refs > 0 {
		if _, ok := t["git"]; !ok {
			c.errorf(field, "branch, tag and rev require git")
		}
	}
	c.expectStrings(t, "extras", field+".extras")
	if v, ok := t["optional"]; ok {
		if _, ok := v.(bool); !ok {
			c.errorf(field+".optional", "must be a boolean, got %s", kind(v))
		}
	}
}

func (c *checker) checkConstraint(s, field string) {
	if _, err := constraint.Parse(s); err != nil {
		c.warnf(field, "invalid constraint %q: %v", s, err)
	}
}

func (c *checker) checkProject(project map[string]interface{}) {
	const prefix = "project."
	for _, key := range []string{"name", "version", "description", "requires-python"} {
		c.expectString(project, key, prefix+key)
	}
	for _, key := range []string{"dynamic", "dependencies", "keywords", "classifiers"} {
		c.expectStrings(project, key, prefix+key)
	}
	if dynamic, ok := project["dynamic"].([]interface{}); ok {
		for _, v := range dynamic {
			name, _ := v.(string)
			if name == "name" {
				c.errorf(prefix+"dynamic", "name cannot be dynamic")
			}
			if _, ok := project[name]; ok && name != "" {
				c.warnf(prefix+"dynamic", "%s is both listed as dynamic and set statically", name)
			}
		}
	}
	for _, key := range []string{"urls", "scripts", "gui-scripts", "entry-points", "optional-dependencies"} {
		c.table(project, key)
	}
}

func (c *checker) checkBuildSystem(doc map[string]interface{}) {
	bs, ok := c.table(doc, "build-system")
	if !ok {
		return
	}
	if !c.expectStrings(bs, "requires", "build-system.requires") {
		return
	}
	c.expectString(bs, "build-backend", "build-system.build-backend")
	backend, _ := bs["build-backend"].(string)
	for _, r := range bs["requires"].([]interface{}) {
		req := strings.ToLower(strings.TrimSpace(r.(string)))
		if strings.HasPrefix(req, "poetry-core") || strings.HasPrefix(req, "poetry_core") {
			if backend != "" && backend != "poetry.core.masonry.api" {
				c.warnf("build-system.build-backend", "poetry-core is required but the backend is %s", backend)
			}
		}
	}
}

func (c *checker) expectString(t map[string]interface{}, key, field string) bool {
	v, ok := t[key]
	if !ok {
		return false
	}
	if _, ok := v.(string); !ok {
		c.errorf(field, "must be a string, got %s", kind(v))
		return false
	}
	return true
}

func (c *checker) expectStrings(t map[string]interface{}, key, field string) bool {
	v, ok := t[key]
	if !ok {
		return false
	}
	items, ok := v.([]interface{})
	if !ok {
		c.errorf(field, "must be an array of strings, got %s", kind(v))
		return false
	}
	for _, item := range items {
		if _, ok := item.(string); !ok {
			c.errorf(field, "must be an array of strings, found %s", kind(item))
			return false
		}
	}
	return true
}

func kind(v interface{}) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case int64:
		return "integer"
	case float64:
		return "float"
	case map[string]interface{}:
		return "table"
	case []interface{}, []map[string]interface{}:
		return "array"
	default:
		return "datetime"
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
