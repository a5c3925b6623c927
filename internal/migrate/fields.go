package migrate

import (
	"strings"

	"github.com/aidanlsb/poetry-migrate/internal/decide"
	"github.com/aidanlsb/poetry-migrate/internal/tomldoc"
)

// Prompts asked during a run. Exported so callers can script answers.
const (
	PromptVersion      = "Keep Poetry managing the version in [tool.poetry] (dynamic versioning)?"
	PromptClassifiers  = "Keep Poetry managing classifiers in [tool.poetry] (auto-enrichment)?"
	PromptPython       = "How should [tool.poetry.dependencies.python] be migrated?"
	PromptDependencies = "Keep dependencies in [tool.poetry]?"
)

var (
	sameNamedFields = []string{"name", "description", "license", "keywords"}
	urlFields       = []string{"homepage", "repository", "documentation"}
)

func (r *run) moveSameNamed() {
	for _, field := range sameNamedFields {
		r.mover.Move(Name(field), r.legacy, r.project, legacyLabel, projectLabel, nil)
	}
}

func (r *run) moveURLs() {
	found := r.legacy.Has("urls")
	for _, field := range urlFields {
		found = found || r.legacy.Has(field)
	}
	if !found {
		return
	}
	urls := r.projectTable("urls")
	if urls == nil {
		return
	}
	to := projectLabel + ".urls"
	for _, field := range urlFields {
		r.mover.Move(Name(field), r.legacy, urls, legacyLabel, to, nil)
	}
	r.mover.MoveSub("urls", r.legacy, urls, legacyLabel, to, nil)
}

func (r *run) movePlugins() {
	if !r.legacy.Has("plugins") {
		return
	}
	entryPoints := r.projectTable("entry-points")
	if entryPoints == nil {
		return
	}
	r.mover.MoveSub("plugins", r.legacy, entryPoints, legacyLabel, projectLabel+".entry-points", nil)
}

func (r *run) moveScripts() {
	if !r.legacy.Has("scripts") {
		return
	}
	scripts := r.projectTable("scripts")
	if scripts == nil {
		return
	}
	// { reference = "bin.exe", type = "file" } scripts have no [project]
	// equivalent and stay where they are.
	keepFileScripts := func(k Key, container tomldoc.Node) Outcome {
		v := itemAt(container, k)
		if _, ok := tomldoc.AsString(v); !ok {
			return Skip()
		}
		return PassThrough(v)
	}
	r.mover.MoveSub("scripts", r.legacy, scripts, legacyLabel, projectLabel+".scripts", keepFileScripts)
}

func (r *run) migrateVersion() {
	if !r.legacy.Has("version") {
		return
	}
	dynamic := r.decider.Confirm(decide.Question{
		Prompt: PromptVersion,
		Info: "Use dynamic versioning if the version is set at build time, e.g. by " +
			"`poetry build --local-version` or a plugin. Otherwise it moves to [project].",
		Default: true,
	})
	if dynamic {
		r.addDynamic("version")
		return
	}
	r.mover.Move(Name("version"), r.legacy, r.project, legacyLabel, projectLabel, nil)
}

func (r *run) migrateClassifiers() {
	if !r.legacy.Has("classifiers") {
		return
	}
	dynamic := r.decider.Confirm(decide.Question{
		Prompt: PromptClassifiers,
		Info: "Poetry adds classifiers for the supported Python versions and the license. " +
			"Classifiers set in [project] disable that enrichment.",
		Default: true,
	})
	if dynamic {
		r.addDynamic("classifiers")
		return
	}
	classifiers := r.projectArray("classifiers")
	if classifiers == nil {
		return
	}
	if src, ok := r.legacy.Array("classifiers"); ok && src.Multiline() {
		classifiers.SetMultiline(true)
	}
	r.mover.MoveSub("classifiers", r.legacy, classifiers, legacyLabel, projectLabel+".classifiers", nil)
}

func (r *run) migrateReadme() {
	switch v := r.legacy.Get("readme").(type) {
	case nil:
	case *tomldoc.Array:
		// Several readmes have no [project] spelling.
		r.addDynamic("readme")
	default:
		if _, ok := tomldoc.AsString(v); ok {
			r.mover.Move(Name("readme"), r.legacy, r.project, legacyLabel, projectLabel, nil)
			return
		}
		r.warnings.Addf("unexpected type of [%s.readme]: %s; left untouched", legacyLabel, typeName(v))
	}
}

func (r *run) migratePeople() {
	for _, field := range []string{"authors", "maintainers"} {
		if !r.legacy.Has(field) {
			continue
		}
		people := r.projectArray(field)
		if people == nil {
			continue
		}
		if src, ok := r.legacy.Array(field); ok && src.Multiline() {
			people.SetMultiline(true)
		}
		from := legacyLabel + "." + field
		toPerson := func(k Key, container tomldoc.Node) Outcome {
			s, ok := tomldoc.AsString(itemAt(container, k))
			if !ok {
				r.warnings.Addf("unexpected type of [%s] item %s; left untouched", from, k)
				return Skip()
			}
			return PassThrough(person(s))
		}
		r.mover.MoveSub(field, r.legacy, people, legacyLabel, projectLabel+"."+field, toPerson)
	}
}

// person turns "Jane Doe <jane@example.com>" into
// { name = "Jane Doe", email = "jane@example.com" }.
func person(s string) *tomldoc.Table {
	name, email, _ := strings.Cut(s, " <")
	email = strings.TrimRight(email, ">")

	t := tomldoc.NewInlineTable()
	t.Set("name", tomldoc.NewString(name))
	if email != "" {
		t.Set("email", tomldoc.NewString(email))
	}
	return t
}
