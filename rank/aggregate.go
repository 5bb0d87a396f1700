package rank

import (
	"github.com/poiesic/bizmatch/core"
)

// ScorePolicy decides whether a unit score contributes to its entity.
type ScorePolicy func(score float64) bool

// KeepAll lets every unit contribute. An entity with one strong sentence and
// several weak ones is penalized by the weak ones.
func KeepAll() ScorePolicy {
	return func(float64) bool { return true }
}

// MinScore keeps only units scoring at least threshold. Entities left with
// no units are dropped.
func MinScore(threshold float64) ScorePolicy {
	return func(score float64) bool { return score >= threshold }
}

// Group is the aggregated evidence for one entity.
type Group struct {
	EntityID    string
	Name        string
	Description string
	Matches     []core.UnitScore // Discovery order
	Score       float64          // Mean of Matches scores
}

type groupKey struct {
	entityID    string
	description string
}

// Aggregation holds entity groups in first-seen order.
type Aggregation struct {
	groups []*Group
	index  map[groupKey]int
}

// Aggregate groups matches by entity and description and reduces each group
// to the arithmetic mean of its kept scores. A nil policy keeps everything.
func Aggregate(matches []core.MatchRecord, policy ScorePolicy) *Aggregation {
	if policy == nil {
		policy = KeepAll()
	}

	agg := &Aggregation{index: make(map[groupKey]int)}
	sums := []float64{}

	for _, m := range matches {
		if !policy(m.Score) {
			continue
		}
		key := groupKey{entityID: m.EntityID, description: m.Description}
		idx, ok := agg.index[key]
		if !ok {
			idx = len(agg.groups)
			agg.index[key] = idx
			agg.groups = append(agg.groups, &Group{
				EntityID:    m.EntityID,
				Name:        m.EntityName,
				Description: m.Description,
			})
			sums = append(sums, 0)
		}
		g := agg.groups[idx]
		g.Matches = append(g.Matches, core.UnitScore{Text: m.Text, Score: m.Score})
		sums[idx] += m.Score
	}

	for i, g := range agg.groups {
		g.Score = sums[i] / float64(len(g.Matches))
	}
	return agg
}

// Len returns the number of entity groups.
func (a *Aggregation) Len() int {
	if a == nil {
		return 0
	}
	return len(a.groups)
}

// Groups returns copies of the groups in first-seen order.
func (a *Aggregation) Groups() []Group {
	if a == nil {
		return nil
	}
	out := make([]Group, len(a.groups))
	for i, g := range a.groups {
		out[i] = *g
		out[i].Matches = append([]core.UnitScore(nil), g.Matches...)
	}
	return out
}

// Get returns the group for an entity id and description.
func (a *Aggregation) Get(entityID, description string) (Group, bool) {
	if a == nil {
		return Group{}, false
	}
	idx, ok := a.index[groupKey{entityID: entityID, description: description}]
	if !ok {
		return Group{}, false
	}
	return *a.groups[idx], true
}
