package madlib

import (
	"regexp"
	"sort"
	"strconv"
)

// markerPattern is the fixed slot marker surface syntax. Anything else in
// the template text is not a slot.
var markerPattern = regexp.MustCompile(`\{(noun|verb|adjective)_(\d+)\}`)

// Inventory is the result of scanning a template text.
type Inventory struct {
	// Occurrences holds one entry per textual marker occurrence, in
	// left-to-right order. The same SlotRef appears once per occurrence.
	Occurrences []SlotRef

	// Indices maps each kind to the sorted distinct indices appearing for
	// it. Kinds with no markers map to an empty slice.
	Indices map[Kind][]int
}

// Parse scans template text for slot markers. It never fails: a text with
// no markers yields an empty inventory.
func Parse(text string) Inventory {
	inv := Inventory{Indices: make(map[Kind][]int)}

	seen := make(map[SlotRef]bool)
	for _, m := range markerPattern.FindAllStringSubmatch(text, -1) {
		idx, _ := strconv.Atoi(m[2])
		ref := SlotRef{Kind: Kind(m[1]), Index: idx}
		inv.Occurrences = append(inv.Occurrences, ref)
		if !seen[ref] {
			seen[ref] = true
			inv.Indices[ref.Kind] = append(inv.Indices[ref.Kind], ref.Index)
		}
	}

	for _, kind := range Kinds() {
		sort.Ints(inv.Indices[kind])
	}

	return inv
}
