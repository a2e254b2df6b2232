package nounvalidate

import "madlib-engine/internal/agent"

type Config struct {
	Agent agent.Config
}
