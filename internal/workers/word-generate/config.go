package wordgen

import "madlib-engine/internal/agent"

type Config struct {
	Agent agent.Config
}
