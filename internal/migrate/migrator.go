// Package migrate rewrites a pyproject.toml from the Poetry v1 layout
// ([tool.poetry]) to the PEP 621 layout ([project]).
//
// A run works on a deep copy of the document, so the caller's tree is never
// touched. Nothing is overwritten or dropped silently: collisions keep the
// [project] value and produce a warning, and whatever cannot be expressed
// in [project] stays behind in [tool.poetry].
package migrate

import (
	"github.com/aidanlsb/poetry-migrate/internal/decide"
	"github.com/aidanlsb/poetry-migrate/internal/tomldoc"
)

const (
	legacyLabel  = "tool.poetry"
	projectLabel = "project"
)

// NoUpdate is the preset choice that leaves a constraint alone.
const NoUpdate = "No update"

// DefaultPresets are the Poetry 2 constraints offered for requires-poetry
// and the poetry-core build requirement.
var DefaultPresets = []string{
	">=2.0",
	">=2.0,<3.0",
	">=2.0.0",
	">=2.0.0,<3.0.0",
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithLiteral controls whether new string values are written as TOML
// literal strings. Defaults to true.
func WithLiteral(on bool) Option {
	return func(m *Migrator) { m.literal = on }
}

// WithPresets replaces the constraint presets offered to the operator.
func WithPresets(presets []string) Option {
	return func(m *Migrator) {
		m.presets = append([]string(nil), presets...)
	}
}

// Migrator runs the migration pipeline.
type Migrator struct {
	decider decide.Decider
	literal bool
	presets []string
}

// New returns a Migrator that settles ambiguous steps with d.
func New(d decide.Decider, opts ...Option) *Migrator {
	if d == nil {
		d = decide.Fixed{}
	}
	m := &Migrator{
		decider: d,
		literal: true,
		presets: DefaultPresets,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Result is the outcome of one run.
type Result struct {
	Document  *tomldoc.Document
	Warnings  []string
	Decisions []decide.Record
}

// Run migrates a copy of doc. It never fails: every anomaly becomes a
// warning next to a best-effort result.
func (m *Migrator) Run(doc *tomldoc.Document) Result {
	warnings := &Warnings{}
	rec := decide.NewRecorder(m.decider)
	r := &run{
		doc:      doc.Clone(),
		decider:  rec,
		warnings: warnings,
		mover:    NewMover(warnings),
		literal:  m.literal,
		presets:  m.presets,
	}

	r.migrateLegacy()
	r.updateBuildSystem()

	return Result{
		Document:  r.doc,
		Warnings:  warnings.List(),
		Decisions: rec.Records,
	}
}

// run is the state of one migration.
type run struct {
	doc      *tomldoc.Document
	decider  decide.Decider
	warnings *Warnings
	mover    *Mover
	literal  bool
	presets  []string

	legacy  *tomldoc.Table
	project *tomldoc.Table
	// created lists the [project] keys this run added, so the ones left
	// empty can be dropped again.
	created []string
}

func (r *run) migrateLegacy() {
	tool, _ := r.doc.Root.Table("tool")
	if tool != nil {
		r.legacy, _ = tool.Table("poetry")
	}
	if r.legacy == nil {
		r.warnings.Addf("[%s] section not found; related migration skipped", legacyLabel)
		return
	}

	createdProject := !r.doc.Root.Has("project")
	r.project = r.doc.Root.EnsureTable("project")
	if r.project == nil {
		r.warnings.Addf("unexpected type of [%s]; related migration skipped", projectLabel)
		return
	}

	r.moveSameNamed()
	r.moveURLs()
	r.movePlugins()
	r.moveScripts()
	r.migrateVersion()
	r.migrateClassifiers()
	r.migrateReadme()
	r.migratePeople()
	r.migrateDependencies()
	r.updateRequiresPoetry()

	r.dropEmptyCreated()
	if createdProject && r.project.Len() == 0 {
		r.doc.Root.Delete("project")
	}
}

// str builds a string value in the configured style.
func (r *run) str(s string) *tomldoc.Scalar {
	if r.literal {
		return tomldoc.NewLiteral(s)
	}
	return tomldoc.NewString(s)
}

// projectTable returns [project.key], creating it when absent.
func (r *run) projectTable(key string) *tomldoc.Table {
	if !r.project.Has(key) {
		r.created = append(r.created, key)
	}
	t := r.project.EnsureTable(key)
	if t == nil {
		r.warnings.Addf("unexpected type of [%s.%s]: %s; related migration skipped",
			projectLabel, key, typeName(r.project.Get(key)))
	}
	return t
}

// projectArray returns [project.key] as an array, creating it when absent.
func (r *run) projectArray(key string) *tomldoc.Array {
	if !r.project.Has(key) {
		r.created = append(r.created, key)
	}
	a := r.project.EnsureArray(key)
	if a == nil {
		r.warnings.Addf("unexpected type of [%s.%s]: %s; related migration skipped",
			projectLabel, key, typeName(r.project.Get(key)))
	}
	return a
}

func (r *run) dropEmptyCreated() {
	for _, key := range r.created {
		switch v := r.project.Get(key).(type) {
		case *tomldoc.Table:
			if v.Len() == 0 {
				r.project.Delete(key)
			}
		case *tomldoc.Array:
			if v.Len() == 0 {
				r.project.Delete(key)
			}
		}
	}
}

// addDynamic lists field in [project.dynamic], removing a [project] value
// of the same name first.
func (r *run) addDynamic(field string) {
	if r.project.Has(field) {
		r.warnings.Addf("[%s.%s] already exists and will be removed when adding it to [%s.dynamic]",
			projectLabel, field, projectLabel)
		r.project.Delete(field)
	}
	dynamic := r.projectArray("dynamic")
	if dynamic == nil {
		return
	}
	name := tomldoc.NewString(field)
	if dynamic.Index(name) < 0 {
		dynamic.Append(name)
	}
}
