package kv

import (
	"os"
	"strings"

	"github.com/tejaspachgade2315/Voosh/internal/platform/logger"
)

// Open selects the backend for the process lifetime. Redis is preferred when
// REDIS_ADDR is set and answers within the dial timeout; anything else falls
// back to the in-process store. There is no mid-run hot-swap.
func Open(log *logger.Logger) Store {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		log.Info("REDIS_ADDR not set, using in-memory KV store")
		return NewMemoryStore()
	}

	store, err := NewRedisStore(log)
	if err != nil {
		log.Warn("redis unavailable, falling back to in-memory KV store", "addr", addr, "error", err)
		return NewMemoryStore()
	}
	log.Info("redis KV store selected", "addr", addr)
	return store
}
