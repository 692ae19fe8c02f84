// Package prompt asks the user to pick an action or enter tags.
package prompt

import (
	"context"
	"slices"
)

// Kind distinguishes prompt shapes.
type Kind string

const (
	// KindChoice asks for one of a fixed set of options.
	KindChoice Kind = "choice"
	// KindTags asks for a free-form tag list.
	KindTags Kind = "tags"
)

// Option is one labelled action of a choice prompt.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Prompt is a modal question shown to the user.
type Prompt struct {
	ID      string   `json:"id"`
	Kind    Kind     `json:"kind"`
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Paths   []string `json:"paths"`
	Options []Option `json:"options,omitempty"`
	// Suggested pre-fills a tag entry prompt.
	Suggested []string `json:"suggested,omitempty"`
}

// HasOption reports whether id names one of the prompt's options.
func (p Prompt) HasOption(id string) bool {
	return slices.ContainsFunc(p.Options, func(o Option) bool { return o.ID == id })
}

// Answer is the user's response. A dismissed prompt carries no choice.
type Answer struct {
	Choice    string   `json:"choice,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Dismissed bool     `json:"dismissed,omitempty"`
}

// Dismissed is the answer given when the user closes a prompt.
var Dismissed = Answer{Dismissed: true}

// Prompter shows a prompt and blocks until it is answered, dismissed or
// ctx is done.
type Prompter interface {
	Ask(ctx context.Context, p Prompt) (Answer, error)
}

// Policy answers prompts without user interaction. Choice prompts get the
// first entry of Prefer that the prompt offers; tag prompts and prompts
// offering none of Prefer are dismissed.
type Policy struct {
	Prefer []string
}

// Ask implements Prompter.
func (p Policy) Ask(_ context.Context, pr Prompt) (Answer, error) {
	if pr.Kind != KindChoice {
		return Dismissed, nil
	}
	for _, id := range p.Prefer {
		if pr.HasOption(id) {
			return Answer{Choice: id}, nil
		}
	}
	return Dismissed, nil
}
