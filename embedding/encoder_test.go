package embedding

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/bizmatch/ai"
	"github.com/poiesic/bizmatch/ai/mock"
	"github.com/poiesic/bizmatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEncoder(t *testing.T, embedder ai.Embedder, opts ...Option) *Encoder {
	t.Helper()
	opts = append([]Option{WithRetryInterval(time.Millisecond)}, opts...)
	encoder, err := NewEncoder(embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(encoder.Release)
	return encoder
}

func sampleTexts(n int) []string {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("sentence number %d", i)
	}
	return texts
}

func TestNewEncoder_Validation(t *testing.T) {
	_, err := NewEncoder(nil)
	assert.ErrorIs(t, err, ErrNilEmbedder)

	_, err = NewEncoder(mock.NewMockEmbedder(), WithBatchSize(0))
	assert.ErrorIs(t, err, ErrInvalidOption)

	_, err = NewEncoder(mock.NewMockEmbedder(), WithMaxTokens(-1))
	assert.ErrorIs(t, err, ErrInvalidOption)

	_, err = NewEncoder(mock.NewMockEmbedder(), WithMaxRetries(-1))
	assert.ErrorIs(t, err, ErrInvalidOption)

	_, err = NewEncoder(mock.NewMockEmbedder(), WithRateLimit(-1, 1))
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestEncode_PreservesOrder(t *testing.T) {
	texts := sampleTexts(11)

	for _, tc := range []struct {
		batch int
		pool  int
	}{{1, 1}, {2, 3}, {4, 8}, {64, 2}} {
		t.Run(fmt.Sprintf("batch=%d pool=%d", tc.batch, tc.pool), func(t *testing.T) {
			m := mock.NewMockEmbedder()
			m.Dimension = 8
			encoder := newTestEncoder(t, m, WithBatchSize(tc.batch), WithPoolSize(tc.pool))

			vectors, err := encoder.Encode(context.Background(), texts)
			require.NoError(t, err)
			require.Len(t, vectors, len(texts))
			for i, text := range texts {
				assert.Equal(t, core.Vector(mock.DeterministicVector(text, 8)), vectors[i])
			}
			assert.Equal(t, (len(texts)+tc.batch-1)/tc.batch, m.CallCount())
		})
	}
}

func TestEncode_Empty(t *testing.T) {
	m := mock.NewMockEmbedder()
	encoder := newTestEncoder(t, m)

	vectors, err := encoder.Encode(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Zero(t, m.CallCount())
}

func TestEncode_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	m := mock.NewMockEmbedder()
	m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if calls.Add(1) <= 2 {
			return nil, fmt.Errorf("API returned unexpected status code: 503")
		}
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.DeterministicVector(text, 4)
		}
		return out, nil
	}
	encoder := newTestEncoder(t, m, WithMaxRetries(3))

	vectors, err := encoder.Encode(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vectors, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestEncode_GivesUpAfterMaxRetries(t *testing.T) {
	m := mock.NewMockEmbedder()
	m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, ai.ErrModelUnavailable
	}
	encoder := newTestEncoder(t, m, WithMaxRetries(2))

	_, err := encoder.Encode(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.True(t, ai.IsRetriable(err))
	assert.Equal(t, 3, m.CallCount())
}

func TestEncode_FatalFailuresNotRetried(t *testing.T) {
	m := mock.NewMockEmbedder()
	m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, fmt.Errorf("API returned unexpected status code: 401")
	}
	encoder := newTestEncoder(t, m, WithMaxRetries(5))

	_, err := encoder.Encode(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrModelRejected)
	assert.Equal(t, 1, m.CallCount())
}

func TestEncode_MalformedResponses(t *testing.T) {
	tests := []struct {
		name   string
		result func(texts []string) [][]float32
	}{
		{"wrong count", func(texts []string) [][]float32 {
			return [][]float32{{1, 0}}
		}},
		{"empty vector", func(texts []string) [][]float32 {
			return [][]float32{{}, {}}
		}},
		{"ragged dimensions", func(texts []string) [][]float32 {
			return [][]float32{{1, 0}, {1, 0, 0}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mock.NewMockEmbedder()
			m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
				return tt.result(texts), nil
			}
			encoder := newTestEncoder(t, m)

			vectors, err := encoder.Encode(context.Background(), []string{"a", "b"})
			assert.Nil(t, vectors)
			assert.ErrorIs(t, err, ai.ErrMalformedResponse)
			assert.Equal(t, 1, m.CallCount())
		})
	}
}

func TestEncode_RaggedAcrossBatches(t *testing.T) {
	m := mock.NewMockEmbedder()
	m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if texts[0] == "a" {
			return [][]float32{{1, 0}}, nil
		}
		return [][]float32{{1, 0, 0}}, nil
	}
	encoder := newTestEncoder(t, m, WithBatchSize(1))

	_, err := encoder.Encode(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ai.ErrMalformedResponse)
}

func TestEncode_Timeout(t *testing.T) {
	m := mock.NewMockEmbedder()
	m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	encoder := newTestEncoder(t, m, WithTimeout(20*time.Millisecond))

	_, err := encoder.Encode(context.Background(), []string{"stalled"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEncode_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	encoder := newTestEncoder(t, mock.NewMockEmbedder())
	_, err := encoder.Encode(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEncode_RateLimited(t *testing.T) {
	m := mock.NewMockEmbedder()
	encoder := newTestEncoder(t, m, WithBatchSize(1), WithPoolSize(2), WithRateLimit(1000, 1))

	vectors, err := encoder.Encode(context.Background(), sampleTexts(5))
	require.NoError(t, err)
	assert.Len(t, vectors, 5)
	assert.Equal(t, 5, m.CallCount())
}

func TestEncode_RateLimitExceedsDeadline(t *testing.T) {
	m := mock.NewMockEmbedder()
	encoder := newTestEncoder(t, m,
		WithBatchSize(1),
		WithPoolSize(1),
		WithRateLimit(0.01, 1),
		WithTimeout(50*time.Millisecond))

	_, err := encoder.Encode(context.Background(), sampleTexts(2))
	assert.Error(t, err)
	assert.Equal(t, 1, m.CallCount())
}

func TestEncode_TruncatesLongInputs(t *testing.T) {
	m := mock.NewMockEmbedder()
	encoder := newTestEncoder(t, m, WithMaxTokens(2))

	_, err := encoder.Encode(context.Background(), []string{"alpha beta gamma", "short"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "short"}, m.Texts())
}

func TestEncodeQuery(t *testing.T) {
	m := mock.NewStubEmbedder(map[string][]float32{"query": {0, 1}})
	encoder := newTestEncoder(t, m)

	v, err := encoder.EncodeQuery(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, core.Vector{0, 1}, v)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxChars int
		want     string
	}{
		{"fits", "short text", 20, "short text"},
		{"word boundary", "alpha beta gamma", 12, "alpha beta"},
		{"no boundary", "abcdefghij", 4, "abcd"},
		{"multibyte", "ééééé ü", 5, "ééééé"},
		{"disabled", "anything", 0, "anything"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.text, tt.maxChars))
		})
	}
}
