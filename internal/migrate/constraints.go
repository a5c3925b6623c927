package migrate

import (
	"github.com/aidanlsb/poetry-migrate/internal/constraint"
	"github.com/aidanlsb/poetry-migrate/internal/decide"
	"github.com/aidanlsb/poetry-migrate/internal/dependency"
	"github.com/aidanlsb/poetry-migrate/internal/tomldoc"
)

// Prompts for the Poetry 2 constraint updates.
const (
	PromptRequiresPoetry = "Update [tool.poetry.requires-poetry] to which constraint?"
	PromptPoetryCore     = "Update [build-system.requires.poetry-core] to which constraint?"
)

// selectPreset asks for one of the presets. ok is false for NoUpdate.
func (r *run) selectPreset(prompt, info string) (constraint.Constraint, bool) {
	options := append(append([]string(nil), r.presets...), NoUpdate)
	answer := r.decider.Choose(decide.Choice{
		Prompt:  prompt,
		Info:    info,
		Options: options,
		Default: len(options) - 1,
	})
	if answer == NoUpdate || answer == "" {
		return constraint.Constraint{}, false
	}
	c, err := constraint.Parse(answer)
	if err != nil {
		r.warnings.Addf("invalid constraint preset %q: %v", answer, err)
		return constraint.Constraint{}, false
	}
	return c, true
}

func (r *run) updateRequiresPoetry() {
	const key = "requires-poetry"
	label := legacyLabel + "." + key

	current := r.legacy.Get(key)
	if current == nil {
		if target, ok := r.selectPreset(PromptRequiresPoetry, ""); ok {
			r.legacy.Set(key, r.str(target.String()))
		}
		return
	}

	raw, ok := tomldoc.AsString(current)
	if !ok {
		r.warnings.Addf("unexpected type of [%s]: %s; left untouched", label, typeName(current))
		return
	}
	c, err := constraint.Parse(raw)
	if err != nil {
		r.warnings.Addf("cannot parse [%s] %q: %v; left untouched", label, raw, err)
		return
	}
	target, ok := r.selectPreset(PromptRequiresPoetry, "[tool.poetry.requires-poetry] is currently "+c.String()+".")
	if !ok {
		return
	}
	if c.Intersect(target).IsEmpty() {
		r.warnings.Addf("not updating [%s]: current value %s is not compatible with %s", label, c, target)
		return
	}
	r.legacy.Set(key, r.str(target.String()))
}

// updateBuildSystem offers a constraint for an unconstrained poetry-core
// build requirement. Only the first such requirement is considered.
func (r *run) updateBuildSystem() {
	bs, ok := r.doc.Root.Table("build-system")
	if !ok {
		return
	}
	requires, ok := bs.Array("requires")
	if !ok {
		return
	}
	for i, v := range requires.Values() {
		s, ok := tomldoc.AsString(v)
		if !ok {
			continue
		}
		spec, err := dependency.ParseSpecifier(s)
		if err != nil || dependency.Normalize(spec.Name) != "poetry-core" || !spec.Constraint.IsAny() {
			continue
		}
		if target, ok := r.selectPreset(PromptPoetryCore, ""); ok {
			spec.Constraint = target
			requires.Set(i, r.str(spec.PEP508()))
		}
		return
	}
}
