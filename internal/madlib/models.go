// Package madlib implements the template fill engine: placeholder parsing,
// concurrent word sourcing, reassembly, and the session state machine that
// orchestrates the external collaborators.
package madlib

import (
	"fmt"
	"time"
)

// Kind is a closed enumeration of placeholder kinds.
type Kind string

const (
	KindNoun      Kind = "noun"
	KindVerb      Kind = "verb"
	KindAdjective Kind = "adjective"
)

// Kinds lists every valid placeholder kind.
func Kinds() []Kind {
	return []Kind{KindNoun, KindVerb, KindAdjective}
}

// SlotRef identifies one distinct fill value: a kind plus a per-kind index.
// Indices are positive but neither contiguous nor 1-based by contract.
type SlotRef struct {
	Kind  Kind
	Index int
}

// Marker renders the literal slot marker, e.g. "{noun_2}".
func (r SlotRef) Marker() string {
	return fmt.Sprintf("{%s_%d}", r.Kind, r.Index)
}

// Placeholder is one marker occurrence in a template, in order of
// appearance. IDs are sequential from 1 per template.
type Placeholder struct {
	ID          int    `json:"id"`
	Kind        Kind   `json:"type"`
	Index       int    `json:"index"`
	FilledValue string `json:"filledValue,omitempty"`
}

// Ref returns the slot reference this occurrence resolves through.
func (p Placeholder) Ref() SlotRef {
	return SlotRef{Kind: p.Kind, Index: p.Index}
}

// Template is the generator's output, immutable once produced.
type Template struct {
	Topic        string        `json:"topic"`
	Text         string        `json:"templateText"`
	Placeholders []Placeholder `json:"placeholders"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// CompletedMadlib is the finished artifact handed to the persistence sink.
type CompletedMadlib struct {
	Topic        string        `json:"topic"`
	TemplateText string        `json:"templateText"`
	FilledText   string        `json:"filledText"`
	Placeholders []Placeholder `json:"placeholders"`
	CreatedAt    time.Time     `json:"createdAt"`
	CompletedAt  time.Time     `json:"completedAt"`
}
