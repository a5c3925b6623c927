package decide

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

// Interactive asks through terminal forms. After the first failed or
// cancelled prompt it stops asking and falls back to defaults; Err reports
// what went wrong.
type Interactive struct {
	theme *huh.Theme
	err   error
}

// NewInteractive returns a terminal decider.
func NewInteractive() *Interactive {
	return &Interactive{theme: huh.ThemeCharm()}
}

// Err returns ErrAborted if the operator cancelled, or the prompt failure.
func (d *Interactive) Err() error {
	return d.err
}

func (d *Interactive) Confirm(q Question) bool {
	if d.err != nil {
		return q.Default
	}
	answer := q.Default
	field := huh.NewConfirm().
		Title(q.Prompt).
		Description(q.Info).
		Affirmative("Yes").
		Negative("No").
		Value(&answer)
	if err := d.run(field); err != nil {
		return q.Default
	}
	return answer
}

func (d *Interactive) Choose(c Choice) string {
	if d.err != nil || len(c.Options) == 0 {
		return c.DefaultOption()
	}
	options := make([]huh.Option[int], len(c.Options))
	for i, o := range c.Options {
		options[i] = huh.NewOption(o, i)
	}
	picked := c.Default
	field := huh.NewSelect[int]().
		Title(c.Prompt).
		Description(c.Info).
		Options(options...).
		Value(&picked)
	if err := d.run(field); err != nil {
		return c.DefaultOption()
	}
	if picked < 0 || picked >= len(c.Options) {
		return c.DefaultOption()
	}
	return c.Options[picked]
}

func (d *Interactive) run(field huh.Field) error {
	err := huh.NewForm(huh.NewGroup(field)).WithTheme(d.theme).Run()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, huh.ErrUserAborted):
		d.err = ErrAborted
	default:
		d.err = fmt.Errorf("prompt failed: %w", err)
	}
	return d.err
}
