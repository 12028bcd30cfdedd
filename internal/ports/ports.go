// Package ports defines the interfaces between the pure metrics engine
// and its external collaborators: record ingestion, result caching, and
// metrics collection. The engine itself depends on none of them; they
// exist so the surrounding dashboard can be wired without touching the
// engine.
package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-rostrum/internal/domain"
)

// RecordSource streams validated debate records from wherever the
// benchmark stored them (typically line-delimited JSON in an object
// store). Implementations own retrieval, decoding and validation; the
// engine only ever sees in-memory records.
type RecordSource interface {
	// Records returns every available debate record in storage order.
	// The engine re-sorts deterministically, so storage order does not
	// affect results.
	Records(ctx context.Context) ([]domain.DebateRecord, error)
}

// DerivedCache stores computed DerivedData between refreshes. The
// engine is a pure function with no hidden state; all memoization
// belongs behind this interface.
type DerivedCache interface {
	// Get retrieves the cached result for a key, reporting whether a
	// live entry was found.
	Get(key string) (domain.DerivedData, bool)

	// Set stores a result under key with the given TTL. A zero TTL
	// uses the cache's default expiration.
	Set(key string, data domain.DerivedData, ttl time.Duration)

	// Flush discards every cached entry.
	Flush()
}

// MetricsCollector receives latency and counter observations from the
// instrumented engine facade. Implementations typically forward to
// Prometheus; a nil collector disables instrumentation.
type MetricsCollector interface {
	// RecordLatency records how long an operation took.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a named counter.
	RecordCounter(name string, value float64, labels map[string]string)
}
