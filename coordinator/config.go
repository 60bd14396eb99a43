package coordinator

import (
	"time"

	"github.com/bold-minds/includekit-go/insights"
	"github.com/bold-minds/includekit-go/internal/logging"
)

// Config configures a Coordinator. Every field has a documented default
// applied by DefaultConfig; a host application constructs a Config value
// (or starts from DefaultConfig and overrides fields) rather than reading
// environment variables itself.
type Config struct {
	// DefaultTTL is the TTL ExecuteRead passes to cache.Set for every entry
	// it stores; ExecuteRead takes no per-call TTL.
	DefaultTTL time.Duration

	// SingleFlightTimeout bounds how long an executeRead caller waits behind
	// a shared in-flight call before it fails with ErrTimeout. Zero disables
	// the timeout (the caller waits until the in-flight call settles).
	SingleFlightTimeout time.Duration

	// EvictionWorkers bounds fan-out concurrency for deleting ShapeIds from
	// the cache on commit or on an immediate (non-transactional) write.
	EvictionWorkers int

	Logger  *logging.Logger
	Bus     *insights.Bus
	Metrics *insights.Metrics
}

// DefaultConfig mirrors the reference cache service's Config defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTTL:          time.Hour,
		SingleFlightTimeout: 30 * time.Second,
		EvictionWorkers:     8,
	}
}
