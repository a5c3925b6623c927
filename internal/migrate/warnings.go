package migrate

import "fmt"

// Warnings collects messages for the operator in the order they occur.
type Warnings struct {
	list []string
}

// Addf records a formatted warning.
func (w *Warnings) Addf(format string, args ...any) {
	w.list = append(w.list, fmt.Sprintf(format, args...))
}

// Len returns the number of warnings recorded so far.
func (w *Warnings) Len() int {
	return len(w.list)
}

// List returns a copy of the recorded warnings.
func (w *Warnings) List() []string {
	return append([]string(nil), w.list...)
}
