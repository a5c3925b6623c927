package migrate

import (
	"github.com/aidanlsb/poetry-migrate/internal/constraint"
	"github.com/aidanlsb/poetry-migrate/internal/decide"
	"github.com/aidanlsb/poetry-migrate/internal/dependency"
	"github.com/aidanlsb/poetry-migrate/internal/tomldoc"
)

const dependenciesLabel = legacyLabel + ".dependencies"

// Answers to PromptPython.
const (
	PythonMove    = "Move to [project.requires-python]"
	PythonDynamic = "Add requires-python to [project.dynamic]"
	PythonCopy    = "Copy value to [project.requires-python]"
	PythonKeep    = "Keep it as-is"
)

var (
	// locatorFields say which version and from where; PEP 508 can carry all
	// of them.
	locatorFields = []string{"version", "git", "branch", "tag", "rev", "file", "path", "url", "subdirectory"}
	// markerFields end up in the marker part of a requirement. They are the
	// only thing telling alternatives apart, so alternatives keep them.
	markerFields = []string{"python", "platform", "markers", "extras"}
)

// A legacy dependency value is either a single constraint (a string or a
// table) or an array of alternative constraints for the same package:
//
//	numpy = [
//	    { version = "^1.24", python = "<3.12" },
//	    { version = "^1.26", python = ">=3.12" },
//	]
//
// Alternatives are handled in place: each item is rendered and stripped on
// its own, exhausted items are removed from the array, and the array (at
// its original position) keeps only the survivors.

func alternatives(n tomldoc.Node) (*tomldoc.Array, bool) {
	a, ok := n.(*tomldoc.Array)
	return a, ok
}

// strip removes the fields a requirement string can express from a table
// constraint. Markers stay when keepMarkers is set. String constraints are
// left alone.
func strip(n tomldoc.Node, keepMarkers bool, extra ...string) {
	t, ok := n.(*tomldoc.Table)
	if !ok {
		return
	}
	for _, f := range extra {
		t.Delete(f)
	}
	for _, f := range locatorFields {
		t.Delete(f)
	}
	if keepMarkers {
		return
	}
	for _, f := range markerFields {
		t.Delete(f)
	}
}

// exhausted reports whether nothing of a constraint needs to stay in
// [tool.poetry] any more.
func exhausted(n tomldoc.Node) bool {
	t, ok := n.(*tomldoc.Table)
	if !ok {
		return true
	}
	return t.Len() == 0
}

func (r *run) migrateDependencies() {
	deps, ok := r.legacy.Table("dependencies")
	if !ok {
		if r.legacy.Has("dependencies") {
			r.warnings.Addf("unexpected type of [%s]: %s; left untouched", dependenciesLabel, typeName(r.legacy.Get("dependencies")))
		}
		return
	}

	r.migratePython(deps)
	r.migrateExtras(deps)
	r.moveDependencies(deps)
	r.contractAlternatives(deps)
}

// migratePython offers to turn the python constraint into requires-python.
func (r *run) migratePython(deps *tomldoc.Table) {
	if !deps.Has("python") || r.project.Has("requires-python") {
		return
	}
	answer := r.decider.Choose(decide.Choice{
		Prompt:  PromptPython,
		Options: []string{PythonMove, PythonDynamic, PythonCopy, PythonKeep},
		Default: 2,
	})

	switch answer {
	case PythonMove, PythonCopy:
		raw, ok := deps.GetString("python")
		if !ok {
			r.warnings.Addf("unexpected type of [%s.python]: %s; left untouched", dependenciesLabel, typeName(deps.Get("python")))
			return
		}
		c, err := constraint.Parse(raw)
		if err != nil {
			r.warnings.Addf("cannot parse [%s.python] %q: %v; left untouched", dependenciesLabel, raw, err)
			return
		}
		r.project.Set("requires-python", r.str(c.String()))
		if answer == PythonMove {
			deps.Delete("python")
		}
	case PythonDynamic:
		r.addDynamic("requires-python")
	}
}

// migrateExtras turns [tool.poetry.extras], which lists package names,
// into [project.optional-dependencies], which lists requirement strings.
func (r *run) migrateExtras(deps *tomldoc.Table) {
	if !r.legacy.Has("extras") {
		return
	}
	optional := r.projectTable("optional-dependencies")
	if optional == nil {
		return
	}
	from := legacyLabel + ".extras"
	renderCluster := func(k Key, container tomldoc.Node) Outcome {
		v := itemAt(container, k)
		cluster, ok := v.(*tomldoc.Array)
		if !ok {
			r.warnings.Addf("unexpected type of [%s.%s]: %s; left untouched", from, k, typeName(v))
			return Skip()
		}
		for i := cluster.Len() - 1; i >= 0; i-- {
			if name, ok := tomldoc.AsString(cluster.At(i)); ok {
				r.renderExtra(deps, cluster, i, name)
			}
		}
		return PassThrough(cluster)
	}
	r.mover.MoveSub("extras", r.legacy, optional, legacyLabel, projectLabel+".optional-dependencies", renderCluster)
}

// renderExtra replaces the package name at cluster[i] with requirement
// strings and strips what those strings now carry from the legacy entry.
// The optional flag is left for moveDependencies.
func (r *run) renderExtra(deps *tomldoc.Table, cluster *tomldoc.Array, i int, name string) {
	value := deps.Get(name)
	if value == nil {
		return
	}

	alts, ok := alternatives(value)
	if !ok {
		spec, err := dependency.FromLegacy(name, value)
		if err != nil {
			r.warnings.Addf("cannot render dependency %s for [%s.extras]: %v", name, legacyLabel, err)
			return
		}
		cluster.Set(i, r.str(spec.PEP508()))
		strip(value, false)
		if exhausted(value) {
			deps.Delete(name)
		}
		return
	}

	var rendered []tomldoc.Node
	for _, alt := range alts.Values() {
		spec, err := dependency.FromLegacy(name, alt)
		if err != nil {
			r.warnings.Addf("cannot render dependency %s for [%s.extras]: %v", name, legacyLabel, err)
			continue
		}
		rendered = append(rendered, r.str(spec.PEP508()))
		strip(alt, true)
	}
	for j := alts.Len() - 1; j >= 0; j-- {
		if exhausted(alts.At(j)) {
			alts.Remove(j)
		}
	}
	if len(rendered) == 0 {
		return
	}
	// Every alternative goes into the name's slot, one after the other, so
	// the cluster ends up listing them last to first.
	cluster.Remove(i)
	for _, s := range rendered {
		cluster.Insert(i, s)
	}
}

// moveDependencies moves what PEP 508 can express into
// [project.dependencies], unless the operator keeps dependencies dynamic.
func (r *run) moveDependencies(deps *tomldoc.Table) {
	keep := r.decider.Confirm(decide.Question{
		Prompt: PromptDependencies,
		Info: "Keeping them adds dependencies to [project.dynamic]. Otherwise everything " +
			"a requirement string can express moves to [project.dependencies].",
		Default: false,
	})
	if keep {
		r.addDynamic("dependencies")
		return
	}

	created := !r.project.Has("dependencies")
	dst := r.projectArray("dependencies")
	if dst == nil {
		return
	}
	existing := r.declaredDependencies(dst)
	to := projectLabel + ".dependencies"

	r.mover.MoveSub("dependencies", r.legacy, dst, legacyLabel, to, r.dependencyMover(existing, ""))
	for _, name := range deps.Keys() {
		if _, ok := alternatives(deps.Get(name)); ok {
			r.mover.MoveSub(name, deps, dst, dependenciesLabel, to, r.dependencyMover(existing, name))
		}
	}

	if created && dst.Len() > 1 {
		dst.SetMultiline(true)
	}
}

// declaredDependencies returns the normalized names already listed in
// [project.dependencies].
func (r *run) declaredDependencies(dst *tomldoc.Array) map[string]bool {
	names := make(map[string]bool)
	for _, v := range dst.Values() {
		s, ok := tomldoc.AsString(v)
		if !ok {
			continue
		}
		spec, err := dependency.ParseSpecifier(s)
		if err != nil {
			r.warnings.Addf("cannot parse [%s.dependencies] entry %q: %v", projectLabel, s, err)
			continue
		}
		names[dependency.Normalize(spec.Name)] = true
	}
	return names
}

// dependencyMover decides for one legacy dependency what moves and what
// stays. altOf is the package name when walking its alternatives.
func (r *run) dependencyMover(existing map[string]bool, altOf string) Transformer {
	return func(k Key, container tomldoc.Node) Outcome {
		value := itemAt(container, k)
		name := altOf
		if altOf == "" {
			if _, ok := alternatives(value); ok {
				return Skip()
			}
			name = k.String()
		}
		if dependency.Normalize(name) == "python" {
			return Skip()
		}

		spec, err := dependency.FromLegacy(name, value)
		if err != nil {
			r.warnings.Addf("cannot migrate dependency %s: %v; left in [%s]", name, err, dependenciesLabel)
			return Skip()
		}
		if spec.IsRelativePath() {
			return Skip()
		}
		if existing[dependency.Normalize(spec.Name)] {
			r.warnings.Addf("dependency %s is already defined in [%s.dependencies]; skipped", spec, projectLabel)
			return Skip()
		}

		strip(value, altOf != "", "optional")
		if spec.Optional {
			// Optional dependencies only live in [project.optional-dependencies].
			if t, ok := value.(*tomldoc.Table); ok && t.Len() == 0 {
				removeItem(container, k)
			}
			return Skip()
		}

		requirement := r.str(spec.PEP508())
		if exhausted(value) {
			return PassThrough(requirement)
		}
		return CopyModified(value, requirement)
	}
}

// contractAlternatives drops alternative arrays left without survivors, and
// the dependency table itself once it is empty.
func (r *run) contractAlternatives(deps *tomldoc.Table) {
	for _, name := range deps.Keys() {
		if alts, ok := alternatives(deps.Get(name)); ok && alts.Len() == 0 {
			deps.Delete(name)
		}
	}
	if current, ok := r.legacy.Table("dependencies"); ok && current == deps && deps.Len() == 0 {
		r.legacy.Delete("dependencies")
	}
}
