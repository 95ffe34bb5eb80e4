// Package checkpoint defines the pluggable checkpoint store contract and
// ships in-memory and Redis-backed adapters.
package checkpoint

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the requested checkpoint (or thread)
// does not exist.
var ErrNotFound = errors.New("checkpoint: not found")

// Checkpoint is the persisted record of a single step: the node just
// dispatched, the node routing will resume at, and the state at that
// point, encoded through a Serializer.
type Checkpoint struct {
	ID         string
	NodeID     string
	NextNodeID string
	State      []byte
}

// Store is the pluggable persistence contract every checkpoint adapter
// must satisfy: a per-thread append-only log ordered by insertion.
type Store interface {
	// Put appends checkpoint to threadID's log, returning its assigned id
	// (checkpoint.ID is ignored on input and populated by the store).
	Put(ctx context.Context, threadID string, cp Checkpoint) (string, error)

	// Get returns the checkpoint with the given id, or the most recently
	// inserted one for threadID if id is empty. Returns ErrNotFound if
	// threadID (or the specific id) does not exist.
	Get(ctx context.Context, threadID, id string) (Checkpoint, error)

	// List returns every checkpoint for threadID in insertion order.
	List(ctx context.Context, threadID string) ([]Checkpoint, error)

	// Delete removes a single checkpoint from threadID's log.
	Delete(ctx context.Context, threadID, id string) error
}
