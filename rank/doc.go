// Package rank reduces per-sentence matches to ranked entities.
//
// Aggregate groups match records by entity (keyed on id and description so
// colliding ids with different text never merge) and scores each group by
// the mean of its sentence scores. TopN orders groups by that score with a
// stable sort, so equal scores keep the order in which entities were first
// seen and repeated queries produce identical output.
//
// A ScorePolicy decides which sentence scores count. The default, KeepAll,
// applies no threshold: every functional sentence contributes, rewarding
// descriptions that are consistently aligned with the query.
package rank
