package bizmatch

import (
	"math"

	"github.com/poiesic/bizmatch/config"
	"github.com/poiesic/bizmatch/corpus"
	"github.com/poiesic/bizmatch/embedding"
	"github.com/poiesic/bizmatch/rank"
	"github.com/poiesic/bizmatch/search"
	"github.com/poiesic/bizmatch/text"
)

// OptionsFromConfig translates a validated configuration into index options.
func OptionsFromConfig(cfg *config.Config) ([]IndexOption, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout, err := cfg.Embedding.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	encoderOptions := []embedding.Option{
		embedding.WithBatchSize(cfg.Embedding.BatchSize),
		embedding.WithMaxRetries(cfg.Embedding.MaxRetries),
		embedding.WithTimeout(timeout),
	}
	if cfg.Embedding.Workers > 0 {
		encoderOptions = append(encoderOptions, embedding.WithPoolSize(cfg.Embedding.Workers))
	}
	if rps := cfg.Embedding.RequestsPerSecond; rps > 0 {
		encoderOptions = append(encoderOptions, embedding.WithRateLimit(rps, int(math.Ceil(rps))))
	}

	opts := []IndexOption{
		WithAIConfig(cfg.AI()),
		WithEncoderOptions(encoderOptions...),
	}
	if len(cfg.Corpus.TriggerPhrases) > 0 {
		opts = append(opts, WithBuilderOptions(
			corpus.WithFilter(text.NewFunctionalFilter(cfg.Corpus.TriggerPhrases...))))
	}
	if cfg.Search.MinScore != nil {
		opts = append(opts, WithSearchOptions(
			search.WithScorePolicy(rank.MinScore(*cfg.Search.MinScore))))
	}
	return opts, nil
}
