package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/bizmatch/ai"
	"github.com/poiesic/bizmatch/core"
	"golang.org/x/time/rate"
)

const (
	// DefaultBatchSize is the number of texts sent to the model per call.
	DefaultBatchSize = 64

	// DefaultMaxTokens matches the input window of common sentence-transformer models.
	DefaultMaxTokens = 384

	// DefaultMaxRetries is the number of retries for a batch after a transient failure.
	DefaultMaxRetries = 3

	// charsPerToken is the rough token estimate used for truncation.
	charsPerToken = 4
)

// Encoder maps ordered texts to ordered vectors through an ai.Embedder.
// It batches inputs, truncates over-long texts, runs batches concurrently
// and retries transient model failures. The i-th output always belongs to
// the i-th input.
type Encoder struct {
	embedder      ai.Embedder
	pool          *ants.Pool
	batchSize     int
	maxTokens     int
	maxRetries    uint64
	retryInterval time.Duration
	timeout       time.Duration
	limiter       *rate.Limiter
	logger        *slog.Logger
}

// Option configures an Encoder.
type Option func(*Encoder) error

// WithBatchSize sets the number of texts per model call.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(e *Encoder) error {
		if size < 1 {
			return fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidOption, size)
		}
		e.batchSize = size
		return nil
	}
}

// WithPoolSize sets the number of batches embedded concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(e *Encoder) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if e.pool != nil {
			e.pool.Release()
		}
		e.pool = pool
		return nil
	}
}

// WithMaxTokens sets the model input limit used for truncation.
// Default is DefaultMaxTokens.
func WithMaxTokens(tokens int) Option {
	return func(e *Encoder) error {
		if tokens < 1 {
			return fmt.Errorf("%w: max tokens must be positive, got %d", ErrInvalidOption, tokens)
		}
		e.maxTokens = tokens
		return nil
	}
}

// WithMaxRetries sets how many times a batch is retried after a transient
// model failure. Zero disables retries.
func WithMaxRetries(retries int) Option {
	return func(e *Encoder) error {
		if retries < 0 {
			return fmt.Errorf("%w: max retries must not be negative, got %d", ErrInvalidOption, retries)
		}
		e.maxRetries = uint64(retries)
		return nil
	}
}

// WithRetryInterval sets the initial backoff delay between retries.
// Default is 500ms.
func WithRetryInterval(interval time.Duration) Option {
	return func(e *Encoder) error {
		e.retryInterval = interval
		return nil
	}
}

// WithTimeout bounds a whole Encode call. Zero means no timeout beyond
// the caller's context.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Encoder) error {
		e.timeout = timeout
		return nil
	}
}

// WithRateLimit throttles model calls to requestsPerSecond with the given
// burst. Retries count against the limit. Zero requestsPerSecond disables
// throttling.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(e *Encoder) error {
		if requestsPerSecond < 0 {
			return fmt.Errorf("%w: rate must not be negative, got %v", ErrInvalidOption, requestsPerSecond)
		}
		if requestsPerSecond == 0 {
			e.limiter = nil
			return nil
		}
		e.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), max(burst, 1))
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Encoder) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEncoder creates an encoder over the given model client.
func NewEncoder(embedder ai.Embedder, opts ...Option) (*Encoder, error) {
	if embedder == nil {
		return nil, ErrNilEmbedder
	}

	e := &Encoder{
		embedder:      embedder,
		batchSize:     DefaultBatchSize,
		maxTokens:     DefaultMaxTokens,
		maxRetries:    DefaultMaxRetries,
		retryInterval: 500 * time.Millisecond,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			e.Release()
			return nil, err
		}
	}

	if e.pool == nil {
		poolSize := runtime.NumCPU() / 2
		if poolSize < 1 {
			poolSize = 1
		}
		pool, err := ants.NewPool(poolSize)
		if err != nil {
			return nil, err
		}
		e.pool = pool
	}

	e.logger = e.logger.With("component", "encoder")
	return e, nil
}

// Release releases the worker pool.
func (e *Encoder) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// BatchSize returns the configured batch size.
func (e *Encoder) BatchSize() int {
	return e.batchSize
}

// Encode embeds texts and returns one vector per input, in input order.
// Any failed batch fails the whole call; no partial results are returned.
func (e *Encoder) Encode(ctx context.Context, texts []string) ([]core.Vector, error) {
	return e.EncodeWithProgress(ctx, texts, nil)
}

// EncodeWithProgress is Encode with a callback invoked with the size of each
// completed batch. The callback may be called from several goroutines.
func (e *Encoder) EncodeWithProgress(ctx context.Context, texts []string, onBatch func(n int)) ([]core.Vector, error) {
	if len(texts) == 0 {
		return []core.Vector{}, nil
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	maxChars := e.maxTokens * charsPerToken
	inputs := make([]string, len(texts))
	for i, text := range texts {
		inputs[i] = Truncate(text, maxChars)
	}

	numBatches := (len(inputs) + e.batchSize - 1) / e.batchSize
	results := make([][][]float32, numBatches)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	e.logger.Debug("encoding texts", "count", len(inputs), "batches", numBatches)

	for b := 0; b < numBatches; b++ {
		start := b * e.batchSize
		end := min(start+e.batchSize, len(inputs))
		batchIdx := b
		batch := inputs[start:end]

		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			vectors, err := e.embedBatch(ctx, batch)
			if err != nil {
				fail(fmt.Errorf("batch %d: %w", batchIdx, err))
				return
			}
			results[batchIdx] = vectors
			if onBatch != nil {
				onBatch(len(batch))
			}
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("failed to submit batch %d: %w", batchIdx, err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		e.logger.Error("encoding failed", "count", len(inputs), "err", firstErr)
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]core.Vector, 0, len(inputs))
	dim := 0
	for _, batch := range results {
		for _, v := range batch {
			if len(v) == 0 {
				return nil, fmt.Errorf("%w: empty vector", ai.ErrMalformedResponse)
			}
			if dim == 0 {
				dim = len(v)
			}
			if len(v) != dim {
				return nil, fmt.Errorf("%w: vector dimension %d, expected %d",
					ai.ErrMalformedResponse, len(v), dim)
			}
			out = append(out, core.Vector(v))
		}
	}
	return out, nil
}

// EncodeQuery embeds a single query text. Query vectors are never cached.
func (e *Encoder) EncodeQuery(ctx context.Context, query string) (core.Vector, error) {
	vectors, err := e.Encode(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// embedBatch calls the model for one batch, retrying transient failures
// with exponential backoff.
func (e *Encoder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	var vectors [][]float32

	operation := func() error {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		result, err := e.embedder.EmbedTexts(ctx, batch)
		if err != nil {
			err = ai.Classify(err)
			if ai.IsRetriable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(result) != len(batch) {
			return backoff.Permanent(fmt.Errorf("%w: expected %d vectors, received %d",
				ai.ErrMalformedResponse, len(batch), len(result)))
		}
		vectors = result
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.retryInterval
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		e.logger.Warn("embedding batch failed, will retry", "size", len(batch), "wait", wait, "err", err)
	}

	err := backoff.RetryNotify(operation,
		backoff.WithContext(backoff.WithMaxRetries(b, e.maxRetries), ctx), notify)
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

// Truncate shortens text to at most maxChars runes, cutting at the last
// word boundary when one exists.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	cut := string(runes[:maxChars])
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}
