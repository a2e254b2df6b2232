package madlib

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	apperrors "madlib-engine/internal/common/errors"
	"madlib-engine/internal/common/logger"
	"madlib-engine/internal/common/observability"
)

// Coordinator resolves every slot reference in a template by running the
// three kind producers concurrently. Each producer writes its own mapping;
// the maps are merged only after all three have joined, so the producers
// never share mutable state.
type Coordinator struct {
	source    WordSource
	validator NounValidator
	generator WordGenerator
	logger    logger.Logger
	metrics   *observability.Observability
}

func NewCoordinator(source WordSource, validator NounValidator, generator WordGenerator, log logger.Logger) *Coordinator {
	return &Coordinator{
		source:    source,
		validator: validator,
		generator: generator,
		logger: log.With(map[string]interface{}{
			"component": "fill-coordinator",
		}),
	}
}

// WithMetrics attaches the observability sink. Optional.
func (c *Coordinator) WithMetrics(obs *observability.Observability) *Coordinator {
	c.metrics = obs
	return c
}

// Fill builds the complete value mapping for the template. The fill is
// all-or-nothing: the first producer failure cancels the siblings and no
// partial mapping is returned.
func (c *Coordinator) Fill(ctx context.Context, tmpl *Template) (map[SlotRef]string, error) {
	inv := Parse(tmpl.Text)

	nounValues := make(map[SlotRef]string)
	verbValues := make(map[SlotRef]string)
	adjValues := make(map[SlotRef]string)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.fetchNouns(ctx, inv.Indices[KindNoun], nounValues)
	})
	g.Go(func() error {
		return c.fetchBatch(ctx, KindVerb, inv.Indices[KindVerb], verbValues)
	})
	g.Go(func() error {
		return c.fetchBatch(ctx, KindAdjective, inv.Indices[KindAdjective], adjValues)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	values := make(map[SlotRef]string, len(nounValues)+len(verbValues)+len(adjValues))
	for _, contribution := range []map[SlotRef]string{nounValues, verbValues, adjValues} {
		for ref, word := range contribution {
			values[ref] = word
		}
	}

	c.logger.Info("fill complete", map[string]interface{}{
		"slots":       len(values),
		"occurrences": len(inv.Occurrences),
	})

	return values, nil
}

// fetchNouns sources one validated word per distinct noun index. Indices are
// processed one at a time since a human drives them. A rejected word is
// re-prompted without limit; only ctx cancellation breaks the loop. Keeping
// no retry cap is deliberate, the player decides when to give up.
func (c *Coordinator) fetchNouns(ctx context.Context, indices []int, out map[SlotRef]string) error {
	for _, idx := range indices {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			word, err := c.source.Read(ctx, KindNoun, idx)
			if err != nil {
				return err
			}
			word = strings.TrimSpace(word)
			if word == "" {
				c.source.Reject(word, "empty input")
				continue
			}

			verdict, err := c.validator.Validate(ctx, word)
			if err != nil {
				return apperrors.NewNounValidationUnavailable(err)
			}
			if c.metrics != nil {
				c.metrics.RecordWordValidated(ctx, verdict.IsNoun)
			}
			if verdict.IsNoun {
				out[SlotRef{Kind: KindNoun, Index: idx}] = word
				break
			}

			c.source.Reject(word, verdict.Reasoning)
		}
	}
	return nil
}

// fetchBatch requests one batch of exactly len(indices) unique words and
// zips it positionally against the sorted index list. An empty index set
// performs no external call.
func (c *Coordinator) fetchBatch(ctx context.Context, kind Kind, indices []int, out map[SlotRef]string) error {
	if len(indices) == 0 {
		return nil
	}

	words, err := c.generator.Generate(ctx, kind, len(indices))
	if err != nil {
		return apperrors.NewWordGenerationFailed(string(kind), err)
	}
	if err := checkBatch(words, len(indices)); err != nil {
		return apperrors.NewWordGenerationFailed(string(kind), err)
	}

	for i, idx := range indices {
		out[SlotRef{Kind: kind, Index: idx}] = words[i]
	}
	return nil
}

// checkBatch enforces the generator contract: exactly n items, mutually
// distinct, none empty.
func checkBatch(words []string, n int) error {
	if len(words) != n {
		return fmt.Errorf("requested %d words, got %d", n, len(words))
	}
	seen := make(map[string]bool, n)
	for _, w := range words {
		if strings.TrimSpace(w) == "" {
			return fmt.Errorf("batch contains an empty word")
		}
		if seen[w] {
			return fmt.Errorf("batch contains duplicate word %q", w)
		}
		seen[w] = true
	}
	return nil
}
