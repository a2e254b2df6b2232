package madlibsave

import "time"

type Config struct {
	Endpoint   string
	Timeout    time.Duration
	MaxRetries int
}
