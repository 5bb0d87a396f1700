package corpus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/bizmatch/core"
	"github.com/poiesic/bizmatch/embedding"
	"github.com/poiesic/bizmatch/text"
)

// Builder turns raw entities into a Snapshot: normalize, filter, embed.
type Builder struct {
	encoder    *embedding.Encoder
	normalizer *text.Normalizer
	filter     *text.FunctionalFilter
	model      string
	progress   io.Writer
	logger     *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder) error

// WithFilter replaces the default functional filter.
func WithFilter(filter *text.FunctionalFilter) Option {
	return func(b *Builder) error {
		if filter == nil {
			return fmt.Errorf("filter cannot be nil")
		}
		b.filter = filter
		return nil
	}
}

// WithProgress reports embedding progress to w.
func WithProgress(w io.Writer) Option {
	return func(b *Builder) error {
		b.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBuilder creates a builder that embeds with encoder. model names the
// embedding model and is part of every snapshot fingerprint.
func NewBuilder(encoder *embedding.Encoder, model string, opts ...Option) (*Builder, error) {
	if encoder == nil {
		return nil, fmt.Errorf("encoder cannot be nil")
	}

	normalizer, err := text.NewNormalizer()
	if err != nil {
		return nil, err
	}

	b := &Builder{
		encoder:    encoder,
		normalizer: normalizer,
		filter:     text.NewDefaultFunctionalFilter(),
		model:      model,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	b.logger = b.logger.With("component", "corpus-builder")
	return b, nil
}

// Fingerprint returns the fingerprint a snapshot of entities would carry.
func (b *Builder) Fingerprint(entities []core.Entity) string {
	return Fingerprint(b.model, b.filter.Phrases(), entities)
}

// Prepare normalizes and filters entities without embedding them.
// It returns the functional units in corpus order and a status per entity.
func (b *Builder) Prepare(entities []core.Entity) ([]core.TextUnit, map[string]core.EntityStatus) {
	var units []core.TextUnit
	statuses := make(map[string]core.EntityStatus, len(entities))

	for _, entity := range entities {
		if !entity.HasDescription() {
			statuses[entity.ID] = core.StatusEmptyDescription
			continue
		}

		sentences := b.normalizer.Normalize(entity.Description)
		candidates := make([]core.TextUnit, len(sentences))
		for i, s := range sentences {
			candidates[i] = core.TextUnit{
				ID:       core.UnitID(entity.ID, i),
				EntityID: entity.ID,
				Ordinal:  i,
				Text:     s,
			}
		}

		kept, removed := b.filter.Partition(candidates)
		if len(kept) == 0 {
			statuses[entity.ID] = core.StatusNoFunctionalUnits
			b.logger.Debug("entity has no functional units", "entity", entity.ID, "removed", len(removed))
			continue
		}

		statuses[entity.ID] = core.StatusIndexed
		units = append(units, kept...)
	}

	return units, statuses
}

// Build produces a complete snapshot of entities. Entities with no
// description or no functional sentences are recorded but not embedded.
// A model failure fails the whole build.
func (b *Builder) Build(ctx context.Context, entities []core.Entity) (*Snapshot, error) {
	if err := core.ValidateEntities(entities); err != nil {
		return nil, err
	}

	start := time.Now()
	units, statuses := b.Prepare(entities)

	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.Text
	}

	b.logger.Info("building corpus", "entities", len(entities), "units", len(texts))

	var onBatch func(int)
	if b.progress != nil && len(texts) > 0 {
		tracker := NewProgressTracker(b.progress, len(texts), b.encoder.BatchSize())
		tracker.Start()
		defer tracker.Finish()
		onBatch = tracker.Increment
	}

	vectors, err := b.encoder.EncodeWithProgress(ctx, texts, onBatch)
	if err != nil {
		return nil, fmt.Errorf("failed to embed corpus: %w", err)
	}

	dimension := 0
	if len(vectors) > 0 {
		dimension = len(vectors[0])
	}

	snapshot := &Snapshot{
		FormatVersion: FormatVersion,
		Fingerprint:   b.Fingerprint(entities),
		BuildID:       uuid.NewString(),
		Model:         b.model,
		Dimension:     dimension,
		BuiltAt:       time.Now().UTC(),
		Entities:      append([]core.Entity(nil), entities...),
		Units:         units,
		Vectors:       vectors,
		Statuses:      statuses,
	}

	b.logger.Info("corpus built",
		"entities", len(entities),
		"units", len(units),
		"dimension", dimension,
		"duration", time.Since(start))

	return snapshot, nil
}
