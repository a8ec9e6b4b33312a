package cache

import (
	"github.com/flexprice/flexprice/internal/logger"
)

// Initialize wires the process-local cache tier in. fx.Provide calls
// this once at startup and hands the same Cache to every consumer
// (the rate limiter excluded — that one talks to Redis directly for
// cross-process correctness).
func Initialize(log *logger.Logger) Cache {
	log.Info("initializing cache")
	return NewInMemoryCache()
}
