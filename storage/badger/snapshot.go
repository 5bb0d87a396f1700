package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/bizmatch/corpus"
	"github.com/poiesic/bizmatch/storage"
)

// defaultChunkSize keeps each value well below badger's transaction limits.
const defaultChunkSize = 1 << 20

// SnapshotRepository implements storage.SnapshotRepository for BadgerDB.
//
// A snapshot blob is split into chunks stored under its build id. The
// snap:current key names the build id of the current snapshot and is moved
// in a single transaction once every chunk is written, so readers never
// observe a partial snapshot.
type SnapshotRepository struct {
	backend   *Backend
	chunkSize int
	mu        sync.Mutex // serializes saves
}

var _ storage.SnapshotRepository = (*SnapshotRepository)(nil)

// RepositoryOption configures a SnapshotRepository.
type RepositoryOption func(*SnapshotRepository) error

// WithChunkSize sets the maximum size of one stored chunk in bytes.
func WithChunkSize(size int) RepositoryOption {
	return func(r *SnapshotRepository) error {
		if size < 1 {
			return fmt.Errorf("chunk size must be positive, got %d", size)
		}
		r.chunkSize = size
		return nil
	}
}

// NewSnapshotRepository creates a repository over backend. The repository
// owns the backend and closes it on Close.
func NewSnapshotRepository(backend *Backend, opts ...RepositoryOption) (*SnapshotRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend cannot be nil")
	}
	r := &SnapshotRepository{
		backend:   backend,
		chunkSize: defaultChunkSize,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Close closes the underlying backend.
func (r *SnapshotRepository) Close() error {
	if r.backend.IsClosed() {
		return nil
	}
	return r.backend.Close()
}

type manifest struct {
	buildID     string
	fingerprint string
	chunks      uint32
}

// SaveSnapshot writes snapshot and makes it current, then removes the
// snapshot it replaced.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, snapshot *corpus.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if snapshot.BuildID == "" {
		return fmt.Errorf("%w: snapshot has no build id", storage.ErrSerializationFailed)
	}

	data, err := storage.MarshalSnapshot(snapshot)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	buildID := snapshot.BuildID
	var count uint32
	err = r.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for start := 0; start < len(data) || count == 0; start += r.chunkSize {
			end := min(start+r.chunkSize, len(data))
			if err := wb.Set(makeChunkKey(buildID, count), data[start:end]); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write snapshot chunks: %w", err)
	}

	var previous *manifest
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		old, err := readManifest(tx)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if err == nil && old.buildID != buildID {
			previous = old
		}

		value := append(encodeChunkCount(count), snapshot.Fingerprint...)
		if err := tx.Set(makeManifestKey(buildID), value); err != nil {
			return err
		}
		if err := tx.Set([]byte(snapshotCurrentKey), []byte(buildID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}

	r.backend.logger.Info("snapshot saved",
		"build_id", buildID,
		"fingerprint", snapshot.Fingerprint,
		"bytes", len(data),
		"chunks", count)

	if previous != nil {
		if err := r.deleteSnapshot(previous); err != nil {
			r.backend.logger.Warn("failed to delete previous snapshot", "build_id", previous.buildID, "err", err)
		}
	}
	return nil
}

// LoadSnapshot reads and decodes the current snapshot.
func (r *SnapshotRepository) LoadSnapshot(ctx context.Context) (*corpus.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var data []byte
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		m, err := readManifest(tx)
		if err != nil {
			return err
		}
		for i := uint32(0); i < m.chunks; i++ {
			item, err := tx.Get(makeChunkKey(m.buildID, i))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("%w: chunk %d of %s missing", storage.ErrTruncatedData, i, m.buildID)
				}
				return err
			}
			err = item.Value(func(val []byte) error {
				data = append(data, val...)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return storage.UnmarshalSnapshot(data)
}

// CurrentFingerprint returns the fingerprint recorded for the current snapshot.
func (r *SnapshotRepository) CurrentFingerprint(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r.backend.IsClosed() {
		return "", storage.ErrStorageClosed
	}

	var fingerprint string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		m, err := readManifest(tx)
		if err != nil {
			return err
		}
		fingerprint = m.fingerprint
		return nil
	}, false)
	return fingerprint, err
}

func (r *SnapshotRepository) deleteSnapshot(m *manifest) error {
	return r.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for i := uint32(0); i < m.chunks; i++ {
			if err := wb.Delete(makeChunkKey(m.buildID, i)); err != nil {
				return err
			}
		}
		return wb.Delete(makeManifestKey(m.buildID))
	})
}

// readManifest resolves snap:current to the current snapshot's manifest.
func readManifest(tx *badger.Txn) (*manifest, error) {
	item, err := tx.Get([]byte(snapshotCurrentKey))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	current, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}

	buildID := string(current)
	item, err = tx.Get(makeManifestKey(buildID))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: manifest for %s missing", storage.ErrTruncatedData, buildID)
		}
		return nil, err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}

	count, ok := decodeChunkCount(value[:min(4, len(value))])
	if !ok {
		return nil, fmt.Errorf("%w: manifest for %s is malformed", storage.ErrSerializationFailed, buildID)
	}
	return &manifest{
		buildID:     buildID,
		fingerprint: string(value[4:]),
		chunks:      count,
	}, nil
}
