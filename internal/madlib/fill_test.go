package madlib

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "madlib-engine/internal/common/errors"
	"madlib-engine/internal/common/logger"
)

// ==========================
// Collaborator Fakes
// ==========================

// scriptedSource replays a fixed sequence of player inputs.
type scriptedSource struct {
	mu       sync.Mutex
	words    []string
	next     int
	rejected []string
}

func (s *scriptedSource) Read(ctx context.Context, kind Kind, index int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.words) {
		return "", fmt.Errorf("script exhausted after %d words", len(s.words))
	}
	w := s.words[s.next]
	s.next++
	return w, nil
}

func (s *scriptedSource) Reject(word, reasoning string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected = append(s.rejected, word)
}

// mapValidator accepts exactly the words in its accept set.
type mapValidator struct {
	accept map[string]bool
	err    error
	calls  int
}

func (v *mapValidator) Validate(ctx context.Context, word string) (NounVerdict, error) {
	v.calls++
	if v.err != nil {
		return NounVerdict{}, v.err
	}
	if v.accept[word] {
		return NounVerdict{IsNoun: true, Reasoning: "clearly a noun"}, nil
	}
	return NounVerdict{IsNoun: false, Reasoning: "not primarily a noun"}, nil
}

// fixedGenerator serves canned batches per kind, ignoring the count unless
// the batch is nil.
type fixedGenerator struct {
	mu      sync.Mutex
	batches map[Kind][]string
	err     error
	calls   map[Kind]int
}

func (g *fixedGenerator) Generate(ctx context.Context, kind Kind, count int) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.calls == nil {
		g.calls = make(map[Kind]int)
	}
	g.calls[kind]++
	if g.err != nil {
		return nil, g.err
	}
	return g.batches[kind], nil
}

func acceptAll(words ...string) *mapValidator {
	accept := make(map[string]bool, len(words))
	for _, w := range words {
		accept[w] = true
	}
	return &mapValidator{accept: accept}
}

// ==========================
// Fill Tests
// ==========================

func TestCoordinator_Fill_AllKinds(t *testing.T) {
	tmpl := &Template{
		Topic: "pets",
		Text:  "The {adjective_1} {noun_1} likes to {verb_1} near the {noun_2}.",
	}

	source := &scriptedSource{words: []string{"dog", "pool"}}
	generator := &fixedGenerator{batches: map[Kind][]string{
		KindVerb:      {"jump"},
		KindAdjective: {"fuzzy"},
	}}

	c := NewCoordinator(source, acceptAll("dog", "pool"), generator, logger.NewTestLogger(t))
	values, err := c.Fill(context.Background(), tmpl)

	require.NoError(t, err)
	assert.Equal(t, map[SlotRef]string{
		{KindNoun, 1}:      "dog",
		{KindNoun, 2}:      "pool",
		{KindVerb, 1}:      "jump",
		{KindAdjective, 1}: "fuzzy",
	}, values)

	// Completeness: every referenced slot has a non-empty value.
	for _, ref := range Parse(tmpl.Text).Occurrences {
		assert.NotEmpty(t, values[ref], "missing value for %s", ref.Marker())
	}

	// One batch request per non-empty kind.
	assert.Equal(t, 1, generator.calls[KindVerb])
	assert.Equal(t, 1, generator.calls[KindAdjective])
}

func TestCoordinator_Fill_NoMarkers(t *testing.T) {
	tmpl := &Template{Topic: "void", Text: "Nothing to fill here."}

	source := &scriptedSource{}
	generator := &fixedGenerator{}

	c := NewCoordinator(source, acceptAll(), generator, logger.NewTestLogger(t))
	values, err := c.Fill(context.Background(), tmpl)

	require.NoError(t, err)
	assert.Empty(t, values)
	assert.Zero(t, source.next, "no player input should be requested")
	assert.Empty(t, generator.calls, "no generator call for empty index sets")
}

func TestCoordinator_Fill_Disjointness(t *testing.T) {
	tmpl := &Template{
		Topic: "space",
		Text:  "{noun_1} {noun_2} {verb_1} {verb_2} {adjective_1} {adjective_2} {adjective_3}",
	}

	source := &scriptedSource{words: []string{"rocket", "moon"}}
	generator := &fixedGenerator{batches: map[Kind][]string{
		KindVerb:      {"orbit", "launch"},
		KindAdjective: {"vast", "silent", "cold"},
	}}

	c := NewCoordinator(source, acceptAll("rocket", "moon"), generator, logger.NewTestLogger(t))
	values, err := c.Fill(context.Background(), tmpl)

	require.NoError(t, err)
	// Merged size equals the sum of each producer's contribution.
	assert.Len(t, values, 2+2+3)
}

func TestCoordinator_Fill_ZipsSortedIndices(t *testing.T) {
	// Indices out of order and non-contiguous: the i-th smallest index
	// gets the i-th returned word.
	tmpl := &Template{Topic: "order", Text: "{verb_9} before {verb_2}"}

	generator := &fixedGenerator{batches: map[Kind][]string{
		KindVerb: {"first", "second"},
	}}

	c := NewCoordinator(&scriptedSource{}, acceptAll(), generator, logger.NewTestLogger(t))
	values, err := c.Fill(context.Background(), tmpl)

	require.NoError(t, err)
	assert.Equal(t, "first", values[SlotRef{KindVerb, 2}])
	assert.Equal(t, "second", values[SlotRef{KindVerb, 9}])
}

func TestCoordinator_Fill_NounRetryUntilValid(t *testing.T) {
	tmpl := &Template{Topic: "retry", Text: "A {noun_1} appears."}

	source := &scriptedSource{words: []string{"jump", "happy", "", "castle"}}
	validator := acceptAll("castle")

	c := NewCoordinator(source, validator, &fixedGenerator{}, logger.NewTestLogger(t))
	values, err := c.Fill(context.Background(), tmpl)

	require.NoError(t, err)
	assert.Equal(t, "castle", values[SlotRef{KindNoun, 1}])
	// Rejected: two invalid words plus the empty input; empty input is
	// re-prompted without a validator call.
	assert.Equal(t, []string{"jump", "happy", ""}, source.rejected)
	assert.Equal(t, 3, validator.calls)
}

func TestCoordinator_Fill_ShortBatchFails(t *testing.T) {
	tmpl := &Template{Topic: "short", Text: "{verb_1} {verb_2} {verb_3}"}

	generator := &fixedGenerator{batches: map[Kind][]string{
		KindVerb: {"run", "hide"},
	}}

	c := NewCoordinator(&scriptedSource{}, acceptAll(), generator, logger.NewTestLogger(t))
	values, err := c.Fill(context.Background(), tmpl)

	require.Error(t, err)
	assert.Nil(t, values, "no partial mapping on failure")
	assert.Equal(t, apperrors.ErrCodeWordGenerationFailed, apperrors.CodeOf(err))
}

func TestCoordinator_Fill_DuplicateBatchFails(t *testing.T) {
	tmpl := &Template{Topic: "dupes", Text: "{adjective_1} and {adjective_2}"}

	generator := &fixedGenerator{batches: map[Kind][]string{
		KindAdjective: {"shiny", "shiny"},
	}}

	c := NewCoordinator(&scriptedSource{}, acceptAll(), generator, logger.NewTestLogger(t))
	_, err := c.Fill(context.Background(), tmpl)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeWordGenerationFailed, apperrors.CodeOf(err))
}

func TestCoordinator_Fill_GeneratorErrorFails(t *testing.T) {
	tmpl := &Template{Topic: "down", Text: "{verb_1} the {noun_1}"}

	source := &scriptedSource{words: []string{"tree"}}
	generator := &fixedGenerator{err: errors.New("agent unreachable")}

	c := NewCoordinator(source, acceptAll("tree"), generator, logger.NewTestLogger(t))
	values, err := c.Fill(context.Background(), tmpl)

	require.Error(t, err)
	assert.Nil(t, values)
	assert.Equal(t, apperrors.ErrCodeWordGenerationFailed, apperrors.CodeOf(err))
}

func TestCoordinator_Fill_ValidatorUnavailableFails(t *testing.T) {
	tmpl := &Template{Topic: "down", Text: "the {noun_1}"}

	source := &scriptedSource{words: []string{"tree"}}
	validator := &mapValidator{err: errors.New("connection refused")}

	c := NewCoordinator(source, validator, &fixedGenerator{}, logger.NewTestLogger(t))
	_, err := c.Fill(context.Background(), tmpl)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNounValidationUnavailable, apperrors.CodeOf(err))
	assert.True(t, apperrors.IsRetryable(err))
}

// blockingSource never returns until its context is cancelled. Used to
// observe sibling cancellation.
type blockingSource struct {
	reading chan struct{}
	once    sync.Once
}

func (s *blockingSource) Read(ctx context.Context, kind Kind, index int) (string, error) {
	s.once.Do(func() { close(s.reading) })
	<-ctx.Done()
	return "", ctx.Err()
}

func (s *blockingSource) Reject(word, reasoning string) {}

func TestCoordinator_Fill_FirstFailureCancelsSiblings(t *testing.T) {
	tmpl := &Template{Topic: "cancel", Text: "{noun_1} will {verb_1}"}

	source := &blockingSource{reading: make(chan struct{})}
	generator := &fixedGenerator{err: errors.New("boom")}

	c := NewCoordinator(source, acceptAll(), generator, logger.NewTestLogger(t))

	done := make(chan error, 1)
	go func() {
		_, err := c.Fill(context.Background(), tmpl)
		done <- err
	}()

	// The noun producer is blocked on input when the verb batch fails;
	// the cancellation must unblock it.
	<-source.reading
	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeWordGenerationFailed, apperrors.CodeOf(err))
	case <-time.After(5 * time.Second):
		t.Fatal("fill did not unwind after sibling failure")
	}
}
