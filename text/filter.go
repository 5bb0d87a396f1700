package text

import (
	"slices"
	"strings"

	"github.com/poiesic/bizmatch/core"
)

// DefaultTriggerPhrases returns the phrases that mark organizational, location
// and history boilerplate in company filings. A fresh slice is returned on
// every call.
func DefaultTriggerPhrases() []string {
	return []string{
		"headquartered in",
		"headquarters in",
		"located in",
		"based in",
		"founded in",
		"incorporated in",
		"was incorporated",
		"was founded",
		"formerly known as",
		"previously known as",
		"changed its name",
		"renamed to",
		"was renamed",
		"subsidiary of",
	}
}

// FunctionalFilter rejects sentences that do not describe operational activity.
//
// Matching is a lowercase substring test. It will also reject functional
// sentences that happen to contain a trigger phrase ("consulting firms located
// in rural areas"); that over-rejection is a known limitation.
type FunctionalFilter struct {
	phrases []string
}

// NewFunctionalFilter creates a filter from the given trigger phrases.
// Phrases are lowercased, trimmed, deduplicated and sorted; blanks are ignored.
func NewFunctionalFilter(phrases ...string) *FunctionalFilter {
	normalized := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(CollapseWhitespace(p))
		if p != "" {
			normalized = append(normalized, p)
		}
	}
	slices.Sort(normalized)
	return &FunctionalFilter{phrases: slices.Compact(normalized)}
}

// NewDefaultFunctionalFilter creates a filter with DefaultTriggerPhrases.
func NewDefaultFunctionalFilter() *FunctionalFilter {
	return NewFunctionalFilter(DefaultTriggerPhrases()...)
}

// Phrases returns a copy of the filter's trigger phrases in canonical order.
func (f *FunctionalFilter) Phrases() []string {
	return slices.Clone(f.phrases)
}

// IsFunctional reports whether text contains none of the trigger phrases.
func (f *FunctionalFilter) IsFunctional(text string) bool {
	lowered := strings.ToLower(text)
	for _, p := range f.phrases {
		if strings.Contains(lowered, p) {
			return false
		}
	}
	return true
}

// Partition splits units into functional and non-functional sets.
// Relative order is preserved in both; each returned unit has Functional set.
func (f *FunctionalFilter) Partition(units []core.TextUnit) (kept, removed []core.TextUnit) {
	for _, u := range units {
		u.Functional = f.IsFunctional(u.Text)
		if u.Functional {
			kept = append(kept, u)
		} else {
			removed = append(removed, u)
		}
	}
	return kept, removed
}
