package madlib

import (
	"strings"
	"time"
)

// Assemble substitutes every slot marker with its mapped value and rebuilds
// the placeholder records in occurrence order, ids sequential from 1.
//
// A marker without a mapping entry cannot happen after a successful fill.
// If it does, the marker is replaced with the empty string and the slot is
// returned in the second result for error reporting rather than crashing.
func Assemble(tmpl *Template, values map[SlotRef]string) (*CompletedMadlib, []SlotRef) {
	inv := Parse(tmpl.Text)

	filled := tmpl.Text
	var missing []SlotRef
	substituted := make(map[SlotRef]bool)
	for _, ref := range inv.Occurrences {
		if substituted[ref] {
			continue
		}
		substituted[ref] = true

		value, ok := values[ref]
		if !ok {
			missing = append(missing, ref)
		}
		filled = strings.ReplaceAll(filled, ref.Marker(), value)
	}

	placeholders := make([]Placeholder, 0, len(inv.Occurrences))
	for i, ref := range inv.Occurrences {
		placeholders = append(placeholders, Placeholder{
			ID:          i + 1,
			Kind:        ref.Kind,
			Index:       ref.Index,
			FilledValue: values[ref],
		})
	}

	return &CompletedMadlib{
		Topic:        tmpl.Topic,
		TemplateText: tmpl.Text,
		FilledText:   filled,
		Placeholders: placeholders,
		CreatedAt:    tmpl.CreatedAt,
		CompletedAt:  time.Now().UTC(),
	}, missing
}
