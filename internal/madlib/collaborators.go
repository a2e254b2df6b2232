package madlib

import "context"

// The engine consumes its collaborators through these interfaces so that
// sessions can be wired with the agent-backed workers in production and
// with deterministic fakes in tests.

// SafetyVerdict is the content checker's judgment of a topic.
type SafetyVerdict struct {
	FamilyFriendly bool
	Reasoning      string
}

// SafetyGate decides whether a topic may proceed to generation.
type SafetyGate interface {
	Check(ctx context.Context, topic string) (SafetyVerdict, error)
}

// TemplateGenerator produces a madlib template for a topic.
type TemplateGenerator interface {
	Generate(ctx context.Context, topic string) (*Template, error)
}

// NounVerdict is the validator's judgment of a candidate word.
type NounVerdict struct {
	IsNoun    bool
	Reasoning string
}

// NounValidator judges whether a word is primarily a noun. The judgment has
// no side effects on the word.
type NounValidator interface {
	Validate(ctx context.Context, word string) (NounVerdict, error)
}

// WordGenerator returns exactly count unique words of the requested kind.
type WordGenerator interface {
	Generate(ctx context.Context, kind Kind, count int) ([]string, error)
}

// WordSource supplies candidate words from the player. Read blocks until a
// word is entered or ctx is cancelled; it always returns something,
// possibly invalid. Reject tells the player a word was turned down.
type WordSource interface {
	Read(ctx context.Context, kind Kind, index int) (string, error)
	Reject(word, reasoning string)
}

// SaveSink persists a completed madlib and returns an opaque identifier.
type SaveSink interface {
	Save(ctx context.Context, m *CompletedMadlib) (string, error)
}
