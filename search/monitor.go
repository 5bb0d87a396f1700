package search

import (
	"log/slog"

	"github.com/poiesic/bizmatch/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(vector core.Vector)
	AfterScoring(matches []core.MatchRecord)
	AfterExclusion(excluded []string)
	AfterAggregation(groups int)
	Finish(results []core.RankedResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                    {}
func (n *noopMonitor) AfterQueryEmbedding(_ core.Vector) {}
func (n *noopMonitor) AfterScoring(_ []core.MatchRecord) {}
func (n *noopMonitor) AfterExclusion(_ []string)         {}
func (n *noopMonitor) AfterAggregation(_ int)            {}
func (n *noopMonitor) Finish(_ []core.RankedResult)      {}

// LogMonitor reports each search stage at debug level.
type LogMonitor struct {
	Logger *slog.Logger
}

var _ SearchMonitor = (*LogMonitor)(nil)

func (m *LogMonitor) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

func (m *LogMonitor) Start(query string) {
	m.logger().Debug("search started", "query", query)
}

func (m *LogMonitor) AfterQueryEmbedding(vector core.Vector) {
	m.logger().Debug("query embedded", "dimension", len(vector))
}

func (m *LogMonitor) AfterScoring(matches []core.MatchRecord) {
	m.logger().Debug("units scored", "count", len(matches))
}

func (m *LogMonitor) AfterExclusion(excluded []string) {
	m.logger().Debug("entities excluded", "count", len(excluded), "entities", excluded)
}

func (m *LogMonitor) AfterAggregation(groups int) {
	m.logger().Debug("matches aggregated", "entities", groups)
}

func (m *LogMonitor) Finish(results []core.RankedResult) {
	m.logger().Debug("search finished", "results", len(results))
}
