// Package buildinfo holds release metadata stamped in with -ldflags -X.
package buildinfo

// Empty for local builds.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)

// Stamped reports whether any release metadata was injected.
func Stamped() bool {
	return Version != "" || Commit != "" || Date != ""
}
