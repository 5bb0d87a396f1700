// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package bizmatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/bizmatch/ai"
	"github.com/poiesic/bizmatch/ai/openai"
	"github.com/poiesic/bizmatch/core"
	"github.com/poiesic/bizmatch/corpus"
	"github.com/poiesic/bizmatch/embedding"
	"github.com/poiesic/bizmatch/search"
	"github.com/poiesic/bizmatch/storage"
	"github.com/poiesic/bizmatch/storage/badger"
)

// Index owns the corpus snapshot, its persisted copy and the search engine.
// Searches are safe to run concurrently with each other and with Refresh.
type Index struct {
	repo    storage.SnapshotRepository
	encoder *embedding.Encoder
	builder *corpus.Builder
	cache   *corpus.Cache
	engine  *search.Engine
	logger  *slog.Logger

	mu sync.Mutex // serializes refreshes
}

// IndexOption configures an Index.
type IndexOption func(*indexOptions)

type indexOptions struct {
	aiConfig       *ai.Config
	embedder       ai.Embedder
	repo           storage.SnapshotRepository
	encoderOptions []embedding.Option
	builderOptions []corpus.Option
	searchOptions  []search.Option
	logger         *slog.Logger
}

// WithAIConfig sets the embedding service configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) IndexOption {
	return func(o *indexOptions) {
		o.aiConfig = cfg
	}
}

// WithEmbedder uses embedder instead of an OpenAI-compatible client built
// from the AI config. The config's model name still identifies the model.
func WithEmbedder(embedder ai.Embedder) IndexOption {
	return func(o *indexOptions) {
		o.embedder = embedder
	}
}

// WithRepository uses repo instead of opening BadgerDB at the index path.
// The index takes ownership of repo.
func WithRepository(repo storage.SnapshotRepository) IndexOption {
	return func(o *indexOptions) {
		o.repo = repo
	}
}

// WithEncoderOptions passes options to the corpus and query encoder.
func WithEncoderOptions(opts ...embedding.Option) IndexOption {
	return func(o *indexOptions) {
		o.encoderOptions = append(o.encoderOptions, opts...)
	}
}

// WithBuilderOptions passes options to the corpus builder.
func WithBuilderOptions(opts ...corpus.Option) IndexOption {
	return func(o *indexOptions) {
		o.builderOptions = append(o.builderOptions, opts...)
	}
}

// WithSearchOptions passes options to the search engine.
func WithSearchOptions(opts ...search.Option) IndexOption {
	return func(o *indexOptions) {
		o.searchOptions = append(o.searchOptions, opts...)
	}
}

// WithLogger sets the logger used by the index and its components.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) IndexOption {
	return func(o *indexOptions) {
		o.logger = logger
	}
}

// NewIndex opens the snapshot store at filePath and assembles the pipeline.
// filePath is ignored when WithRepository is given. The index starts empty;
// call Open or Refresh before searching.
func NewIndex(filePath string, opts ...IndexOption) (*Index, error) {
	options := &indexOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if err := options.aiConfig.Validate(); err != nil {
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		var err error
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	repo := options.repo
	if repo == nil {
		backend, err := badger.OpenBackend(filePath, false)
		if err != nil {
			return nil, err
		}
		repo, err = badger.NewSnapshotRepository(backend)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	encoderOptions := append([]embedding.Option{
		embedding.WithMaxTokens(options.aiConfig.MaxTokens),
		embedding.WithLogger(options.logger),
	}, options.encoderOptions...)
	encoder, err := embedding.NewEncoder(embedder, encoderOptions...)
	if err != nil {
		repo.Close()
		return nil, err
	}

	builderOptions := append([]corpus.Option{
		corpus.WithLogger(options.logger),
	}, options.builderOptions...)
	builder, err := corpus.NewBuilder(encoder, options.aiConfig.EmbeddingModel, builderOptions...)
	if err != nil {
		encoder.Release()
		repo.Close()
		return nil, err
	}

	cache := corpus.NewCache()
	searchOptions := append([]search.Option{
		search.WithLogger(options.logger),
	}, options.searchOptions...)
	engine, err := search.NewEngine(cache, encoder, searchOptions...)
	if err != nil {
		encoder.Release()
		repo.Close()
		return nil, err
	}

	return &Index{
		repo:    repo,
		encoder: encoder,
		builder: builder,
		cache:   cache,
		engine:  engine,
		logger:  options.logger.With("component", "index"),
	}, nil
}

// Close releases the encoder pool and closes the snapshot store.
func (ix *Index) Close() error {
	ix.encoder.Release()
	if err := ix.repo.Close(); err != nil {
		ix.logger.Error("error closing snapshot repository", "err", err)
		return err
	}
	return nil
}

// Open loads the persisted snapshot, if any, so the index can serve
// searches without the source data. It reports whether a snapshot was
// loaded. A snapshot in an unsupported format is ignored.
func (ix *Index) Open(ctx context.Context) (bool, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	snapshot, err := ix.repo.LoadSnapshot(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return false, nil
	case errors.Is(err, storage.ErrUnsupportedVersion):
		ix.logger.Warn("persisted snapshot has an unsupported format, rebuild required", "err", err)
		return false, nil
	case err != nil:
		return false, err
	}

	ix.cache.Swap(snapshot)
	ix.logger.Info("snapshot loaded", "build_id", snapshot.BuildID, "units", len(snapshot.Units))
	return true, nil
}

// RefreshSource says where a refreshed snapshot came from.
type RefreshSource string

const (
	// SourceMemory means the snapshot already in memory was current.
	SourceMemory RefreshSource = "memory"
	// SourceStore means the persisted snapshot was current and was loaded.
	SourceStore RefreshSource = "store"
	// SourceBuild means the corpus was embedded and persisted.
	SourceBuild RefreshSource = "build"
)

// RefreshResult describes the snapshot installed by a refresh.
type RefreshResult struct {
	Source      RefreshSource
	Fingerprint string
	BuildID     string
	Stats       corpus.Stats
}

// Refresh makes the index current for entities. A snapshot with a matching
// fingerprint is reused from memory or from the store; otherwise the corpus
// is rebuilt, persisted and swapped in. On failure the previous snapshot
// stays in place.
func (ix *Index) Refresh(ctx context.Context, entities []core.Entity) (*RefreshResult, error) {
	return ix.refresh(ctx, entities, false)
}

// Rebuild embeds entities and replaces the current snapshot regardless of
// any cached copy.
func (ix *Index) Rebuild(ctx context.Context, entities []core.Entity) (*RefreshResult, error) {
	return ix.refresh(ctx, entities, true)
}

func (ix *Index) refresh(ctx context.Context, entities []core.Entity, force bool) (*RefreshResult, error) {
	if err := core.ValidateEntities(entities); err != nil {
		return nil, err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	fingerprint := ix.builder.Fingerprint(entities)

	if !force {
		if current := ix.cache.Load(); current != nil && current.Fingerprint == fingerprint {
			ix.logger.Debug("snapshot in memory is current", "fingerprint", fingerprint)
			return newRefreshResult(SourceMemory, current), nil
		}

		snapshot, err := ix.loadMatching(ctx, fingerprint)
		if err != nil {
			return nil, err
		}
		if snapshot != nil {
			ix.cache.Swap(snapshot)
			ix.logger.Info("reusing persisted snapshot", "fingerprint", fingerprint, "build_id", snapshot.BuildID)
			return newRefreshResult(SourceStore, snapshot), nil
		}
	}

	snapshot, err := ix.builder.Build(ctx, entities)
	if err != nil {
		return nil, err
	}
	if err := ix.repo.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to persist snapshot: %w", err)
	}
	ix.cache.Swap(snapshot)

	return newRefreshResult(SourceBuild, snapshot), nil
}

// loadMatching returns the persisted snapshot when its fingerprint matches,
// and nil when there is none or it is stale.
func (ix *Index) loadMatching(ctx context.Context, fingerprint string) (*corpus.Snapshot, error) {
	stored, err := ix.repo.CurrentFingerprint(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if stored != fingerprint {
		ix.logger.Info("persisted snapshot is stale", "stored", stored, "current", fingerprint)
		return nil, nil
	}

	snapshot, err := ix.repo.LoadSnapshot(ctx)
	if errors.Is(err, storage.ErrUnsupportedVersion) || errors.Is(err, storage.ErrTruncatedData) {
		ix.logger.Warn("persisted snapshot unreadable, rebuilding", "err", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func newRefreshResult(source RefreshSource, s *corpus.Snapshot) *RefreshResult {
	return &RefreshResult{
		Source:      source,
		Fingerprint: s.Fingerprint,
		BuildID:     s.BuildID,
		Stats:       s.Stats(),
	}
}

// Search returns up to topN companies ranked against query.
func (ix *Index) Search(ctx context.Context, query string, topN int) ([]core.RankedResult, error) {
	return ix.engine.Search(ctx, query, topN)
}

// SearchWithRequest runs a search with exclusions and monitoring.
func (ix *Index) SearchWithRequest(ctx context.Context, req search.Request) ([]core.RankedResult, error) {
	return ix.engine.SearchWithRequest(ctx, req)
}

// Snapshot returns the current snapshot, or nil before Open or Refresh
// has installed one.
func (ix *Index) Snapshot() *corpus.Snapshot {
	return ix.cache.Load()
}

// Status reports whether the entity can appear in results, and if not why.
func (ix *Index) Status(entityID string) core.EntityStatus {
	snapshot := ix.cache.Load()
	if snapshot == nil {
		return core.StatusUnknown
	}
	return snapshot.Status(entityID)
}
