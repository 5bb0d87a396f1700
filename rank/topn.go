package rank

import (
	"fmt"
	"slices"

	"github.com/poiesic/bizmatch/core"
)

// TopN returns the n highest scoring groups as ranked results.
// Equal scores keep first-seen order. n larger than the number of groups
// returns every group.
func TopN(agg *Aggregation, n int) ([]core.RankedResult, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: got %d", core.ErrInvalidTopN, n)
	}

	groups := agg.Groups()
	slices.SortStableFunc(groups, func(a, b Group) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(groups) > n {
		groups = groups[:n]
	}

	results := make([]core.RankedResult, 0, len(groups))
	for _, g := range groups {
		results = append(results, core.RankedResult{
			EntityID:    g.EntityID,
			Name:        g.Name,
			Description: g.Description,
			Matches:     g.Matches,
			Score:       g.Score,
		})
	}
	return results, nil
}
