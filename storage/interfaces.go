package storage

import (
	"context"

	"github.com/poiesic/bizmatch/corpus"
)

// SnapshotRepository persists built corpus snapshots.
// Implementations must be thread-safe and support concurrent access.
type SnapshotRepository interface {
	// SaveSnapshot stores a snapshot and makes it current. Readers see either
	// the previous or the new snapshot, never a partially written one.
	SaveSnapshot(ctx context.Context, snapshot *corpus.Snapshot) error

	// LoadSnapshot returns the current snapshot.
	// Returns ErrNotFound if no snapshot has been saved, and
	// ErrUnsupportedVersion if it was written in another format.
	LoadSnapshot(ctx context.Context) (*corpus.Snapshot, error)

	// CurrentFingerprint returns the fingerprint of the current snapshot
	// without decoding it. Returns ErrNotFound if none has been saved.
	CurrentFingerprint(ctx context.Context) (string, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
