// Package decide asks the operator to settle ambiguous migration steps.
//
// The engine only sees the Decider interface. Fixed answers every question
// with its default and never blocks; Interactive renders prompts with huh.
package decide

import (
	"errors"
	"strconv"
)

// ErrAborted is reported when the operator cancels a prompt.
var ErrAborted = errors.New("aborted by user")

// Question is a yes/no decision.
type Question struct {
	Prompt  string
	Info    string
	Default bool
}

// Choice is a pick-one decision. Default indexes Options.
type Choice struct {
	Prompt  string
	Info    string
	Options []string
	Default int
}

// DefaultOption returns the option picked when nobody answers.
func (c Choice) DefaultOption() string {
	if c.Default < 0 || c.Default >= len(c.Options) {
		return ""
	}
	return c.Options[c.Default]
}

// Decider answers questions. Implementations must return one of the
// choice's options.
type Decider interface {
	Confirm(q Question) bool
	Choose(c Choice) string
}

// Fixed answers every question with its default.
type Fixed struct{}

func (Fixed) Confirm(q Question) bool { return q.Default }

func (Fixed) Choose(c Choice) string { return c.DefaultOption() }

// Record is one answered decision.
type Record struct {
	Prompt    string `json:"prompt"`
	Answer    string `json:"answer"`
	IsDefault bool   `json:"default"`
}

// Recorder wraps a Decider and keeps every answer in order.
type Recorder struct {
	Decider Decider
	Records []Record
}

// NewRecorder wraps d.
func NewRecorder(d Decider) *Recorder {
	return &Recorder{Decider: d}
}

func (r *Recorder) Confirm(q Question) bool {
	answer := r.Decider.Confirm(q)
	r.Records = append(r.Records, Record{
		Prompt:    q.Prompt,
		Answer:    strconv.FormatBool(answer),
		IsDefault: answer == q.Default,
	})
	return answer
}

func (r *Recorder) Choose(c Choice) string {
	answer := r.Decider.Choose(c)
	r.Records = append(r.Records, Record{
		Prompt:    c.Prompt,
		Answer:    answer,
		IsDefault: answer == c.DefaultOption(),
	})
	return answer
}
