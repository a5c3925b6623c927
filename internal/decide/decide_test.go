package decide

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedReturnsDefaults(t *testing.T) {
	var d Decider = Fixed{}
	assert.True(t, d.Confirm(Question{Prompt: "keep?", Default: true}))
	assert.False(t, d.Confirm(Question{Prompt: "keep?"}))

	c := Choice{Prompt: "which?", Options: []string{"a", "b", "c"}, Default: 2}
	assert.Equal(t, "c", d.Choose(c))
	assert.Equal(t, "c", d.Choose(c), "answers are deterministic")
}

func TestDefaultOptionOutOfRange(t *testing.T) {
	assert.Equal(t, "", Choice{Options: []string{"a"}, Default: 3}.DefaultOption())
	assert.Equal(t, "", Choice{Default: 0}.DefaultOption())
}

type canned struct {
	yes    bool
	option string
}

func (c canned) Confirm(Question) bool { return c.yes }
func (c canned) Choose(Choice) string  { return c.option }

func TestRecorderKeepsOrder(t *testing.T) {
	r := NewRecorder(canned{yes: false, option: "b"})

	assert.False(t, r.Confirm(Question{Prompt: "first", Default: true}))
	assert.Equal(t, "b", r.Choose(Choice{Prompt: "second", Options: []string{"a", "b"}, Default: 1}))

	assert.Equal(t, []Record{
		{Prompt: "first", Answer: "false", IsDefault: false},
		{Prompt: "second", Answer: "b", IsDefault: true},
	}, r.Records)
}

func TestInteractiveFallsBackAfterAbort(t *testing.T) {
	d := NewInteractive()
	d.err = ErrAborted

	assert.True(t, d.Confirm(Question{Default: true}))
	assert.Equal(t, "x", d.Choose(Choice{Options: []string{"x", "y"}}))
	assert.ErrorIs(t, d.Err(), ErrAborted)
}
