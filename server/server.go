package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/bizmatch/ai"
	"github.com/poiesic/bizmatch/core"
	"github.com/poiesic/bizmatch/corpus"
	"github.com/poiesic/bizmatch/search"
)

// Index is the part of an index the server needs.
type Index interface {
	SearchWithRequest(ctx context.Context, req search.Request) ([]core.RankedResult, error)
	Snapshot() *corpus.Snapshot
}

// Server serves search requests for an Index.
type Server struct {
	index       Index
	defaultTopN int
	logger      *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithDefaultTopN sets the result count used when a request omits top_n.
// Default is search.DefaultTopN.
func WithDefaultTopN(n int) Option {
	return func(s *Server) error {
		if n < 1 {
			return fmt.Errorf("default top_n must be positive, got %d", n)
		}
		s.defaultTopN = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// New creates a server for index.
func New(index Index, opts ...Option) (*Server, error) {
	if index == nil {
		return nil, errors.New("index cannot be nil")
	}
	s := &Server{
		index:       index,
		defaultTopN: search.DefaultTopN,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "server")
	return s, nil
}

// Router returns the HTTP handler with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.POST("/search", s.Search)
	r.GET("/health", s.Health)
	r.GET("/entities/:id/status", s.EntityStatus)

	return r
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query            string   `json:"query"`
	TopN             *int     `json:"top_n"`
	Exclude          []string `json:"exclude"`
	ExcludeThreshold float64  `json:"exclude_threshold"`
}

// SearchResponse is the body of a successful POST /search.
type SearchResponse struct {
	Query   string              `json:"query"`
	Count   int                 `json:"count"`
	Results []core.RankedResult `json:"results"`
}

// Search handles POST /search.
func (s *Server) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	topN := s.defaultTopN
	if req.TopN != nil {
		topN = *req.TopN
	}

	results, err := s.index.SearchWithRequest(c.Request.Context(), search.Request{
		Query:            req.Query,
		TopN:             topN,
		Exclude:          req.Exclude,
		ExcludeThreshold: req.ExcludeThreshold,
	})
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("search failed", "query", req.Query, "err", err)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, SearchResponse{
		Query:   req.Query,
		Count:   len(results),
		Results: results,
	})
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string       `json:"status"`
	BuildID     string       `json:"build_id,omitempty"`
	Fingerprint string       `json:"fingerprint,omitempty"`
	Model       string       `json:"model,omitempty"`
	BuiltAt     *time.Time   `json:"built_at,omitempty"`
	Stats       *StatsReport `json:"stats,omitempty"`
}

// StatsReport is the JSON form of corpus.Stats.
type StatsReport struct {
	Entities          int `json:"entities"`
	Indexed           int `json:"indexed"`
	EmptyDescription  int `json:"empty_description"`
	NoFunctionalUnits int `json:"no_functional_units"`
	Units             int `json:"units"`
	Dimension         int `json:"dimension"`
}

// Health handles GET /health.
func (s *Server) Health(c *gin.Context) {
	snapshot := s.index.Snapshot()
	if snapshot == nil {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "not_ready"})
		return
	}

	stats := snapshot.Stats()
	builtAt := snapshot.BuiltAt
	c.JSON(http.StatusOK, HealthResponse{
		Status:      "ok",
		BuildID:     snapshot.BuildID,
		Fingerprint: snapshot.Fingerprint,
		Model:       snapshot.Model,
		BuiltAt:     &builtAt,
		Stats: &StatsReport{
			Entities:          stats.Entities,
			Indexed:           stats.Indexed,
			EmptyDescription:  stats.EmptyDescription,
			NoFunctionalUnits: stats.NoFunctionalUnits,
			Units:             stats.Units,
			Dimension:         stats.Dimension,
		},
	})
}

// EntityStatus handles GET /entities/:id/status.
func (s *Server) EntityStatus(c *gin.Context) {
	snapshot := s.index.Snapshot()
	if snapshot == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": core.ErrNotReady.Error()})
		return
	}

	id := c.Param("id")
	status := snapshot.Status(id)
	c.JSON(http.StatusOK, gin.H{
		"entity_id": id,
		"status":    status.String(),
		"rankable":  status.Rankable(),
	})
}

// statusFor maps a search error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrDimensionMismatch):
		// The query model no longer matches the corpus; not the caller's fault.
		return http.StatusInternalServerError
	case core.IsValidationError(err), errors.Is(err, search.ErrInvalidThreshold):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotReady), ai.IsRetriable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
