// Package blob provides the durable object stores that hold raw audio,
// addressed by the blob key derived at ingest time.
package blob

import "context"

// Store is the blob storage contract: one durable write per key, single
// attempt, no retries.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
}
