package cli

import (
	"os"

	"github.com/mattn/go-isatty"

	"github.com/aidanlsb/poetry-migrate/internal/decide"
)

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func shouldPrompt(noInteraction bool) bool {
	if noInteraction || isJSONOutput() {
		return false
	}
	return isTerminal(os.Stdout) && isTerminal(os.Stdin)
}

// newDecider picks the terminal forms when a person can answer them and
// the defaults otherwise. The returned func reports a cancelled prompt.
var newDecider = func(noInteraction bool) (decide.Decider, func() error) {
	if !shouldPrompt(noInteraction) {
		return decide.Fixed{}, func() error { return nil }
	}
	d := decide.NewInteractive()
	return d, d.Err
}
