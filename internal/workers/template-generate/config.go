package templategen

import "madlib-engine/internal/agent"

type Config struct {
	Agent agent.Config

	// SlotsPerKind is how many distinct indices of each kind a template
	// must carry, indices 1..SlotsPerKind.
	SlotsPerKind int

	// MaxWords bounds the template length in the instructions.
	MaxWords int
}
