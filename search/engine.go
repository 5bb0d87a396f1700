package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/bizmatch/core"
	"github.com/poiesic/bizmatch/corpus"
	"github.com/poiesic/bizmatch/embedding"
	"github.com/poiesic/bizmatch/rank"
	"github.com/poiesic/bizmatch/similarity"
)

const (
	// DefaultTopN is the result count used when a caller does not choose one.
	DefaultTopN = 5

	// DefaultExcludeThreshold is the similarity at which a sentence matches an
	// exclusion exemplar.
	DefaultExcludeThreshold = 0.6
)

// Request describes one search.
type Request struct {
	Query string
	TopN  int

	// Exclude lists exemplar sentences of unwanted business activity.
	Exclude []string
	// ExcludeThreshold overrides DefaultExcludeThreshold when non-zero.
	ExcludeThreshold float64

	// Monitor observes the search stages. Nil means no monitoring.
	Monitor SearchMonitor
}

// Engine ranks companies of the current corpus snapshot against queries.
type Engine struct {
	cache   *corpus.Cache
	encoder *embedding.Encoder
	policy  rank.ScorePolicy
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithScorePolicy sets which sentence scores contribute to a company's mean.
// Default is rank.KeepAll().
func WithScorePolicy(policy rank.ScorePolicy) Option {
	return func(e *Engine) error {
		if policy == nil {
			policy = rank.KeepAll()
		}
		e.policy = policy
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a search engine over cache. encoder embeds queries and
// must use the same model the snapshot was built with.
func NewEngine(cache *corpus.Cache, encoder *embedding.Encoder, opts ...Option) (*Engine, error) {
	if cache == nil {
		return nil, ErrCacheRequired
	}
	if encoder == nil {
		return nil, ErrEncoderRequired
	}

	e := &Engine{
		cache:   cache,
		encoder: encoder,
		policy:  rank.KeepAll(),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	e.logger = e.logger.With("component", "search")
	return e, nil
}

// Search returns up to topN companies ranked by mean similarity to query.
func (e *Engine) Search(ctx context.Context, query string, topN int) ([]core.RankedResult, error) {
	return e.SearchWithRequest(ctx, Request{Query: query, TopN: topN})
}

// SearchWithRequest runs a search with exclusions and monitoring.
func (e *Engine) SearchWithRequest(ctx context.Context, req Request) ([]core.RankedResult, error) {
	if err := core.ValidateQuery(req.Query, req.TopN); err != nil {
		return nil, err
	}
	threshold := req.ExcludeThreshold
	if threshold == 0 {
		threshold = DefaultExcludeThreshold
	}
	if threshold < -1 || threshold > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}

	snapshot := e.cache.Load()
	if snapshot == nil {
		return nil, core.ErrNotReady
	}

	monitor := req.Monitor
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(req.Query)

	queryVector, err := e.encoder.EncodeQuery(ctx, req.Query)
	if err != nil {
		e.logger.Error("error generating embedding for query", "query", req.Query, "err", err)
		return nil, err
	}
	monitor.AfterQueryEmbedding(queryVector)

	scores, err := similarity.Score(queryVector, snapshot.Vectors)
	if err != nil {
		e.logger.Error("query does not match corpus", "model", snapshot.Model, "err", err)
		return nil, err
	}

	matches := make([]core.MatchRecord, len(snapshot.Units))
	for i, unit := range snapshot.Units {
		entity, _ := snapshot.Entity(unit.EntityID)
		matches[i] = core.MatchRecord{
			EntityID:    unit.EntityID,
			EntityName:  entity.Name,
			Description: entity.Description,
			Text:        unit.Text,
			Score:       scores[i],
		}
	}
	monitor.AfterScoring(matches)

	if len(req.Exclude) > 0 {
		excluded, err := e.excludedEntities(ctx, snapshot, req.Exclude, threshold)
		if err != nil {
			return nil, err
		}
		matches = dropEntities(matches, excluded)
		monitor.AfterExclusion(excluded)
	}

	agg := rank.Aggregate(matches, e.policy)
	monitor.AfterAggregation(agg.Len())

	results, err := rank.TopN(agg, req.TopN)
	if err != nil {
		return nil, err
	}
	monitor.Finish(results)

	e.logger.Debug("search complete", "query", req.Query, "results", len(results))
	return results, nil
}

// excludedEntities returns, in corpus order, the ids of entities with at
// least one sentence whose similarity to any exemplar reaches threshold.
func (e *Engine) excludedEntities(ctx context.Context, snapshot *corpus.Snapshot, exemplars []string, threshold float64) ([]string, error) {
	vectors, err := e.encoder.Encode(ctx, exemplars)
	if err != nil {
		e.logger.Error("error generating embeddings for exclusions", "count", len(exemplars), "err", err)
		return nil, err
	}

	hit := make([]bool, len(snapshot.Units))
	for _, v := range vectors {
		scores, err := similarity.Score(v, snapshot.Vectors)
		if err != nil {
			return nil, err
		}
		for i, s := range scores {
			if s >= threshold {
				hit[i] = true
			}
		}
	}

	var excluded []string
	seen := make(map[string]bool)
	for i, unit := range snapshot.Units {
		if hit[i] && !seen[unit.EntityID] {
			seen[unit.EntityID] = true
			excluded = append(excluded, unit.EntityID)
		}
	}
	return excluded, nil
}

func dropEntities(matches []core.MatchRecord, ids []string) []core.MatchRecord {
	if len(ids) == 0 {
		return matches
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := matches[:0:0]
	for _, m := range matches {
		if !drop[m.EntityID] {
			kept = append(kept, m)
		}
	}
	return kept
}
