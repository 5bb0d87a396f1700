package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/bizmatch/core"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := NewNormalizer()
	require.NoError(t, err)
	return n
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseWhitespace("  a\n\tb   c \r\n"))
	assert.Equal(t, "", CollapseWhitespace(" \n\t "))
}

func TestNormalize_Empty(t *testing.T) {
	n := newTestNormalizer(t)

	assert.Empty(t, n.Normalize(""))
	assert.Empty(t, n.Normalize("   \n\t "))
}

func TestNormalize_SplitsSentences(t *testing.T) {
	n := newTestNormalizer(t)

	units := n.Normalize("Acme Corp provides cloud security software.\n\n  Acme was founded in 1999 and is headquartered in Texas.")

	require.Len(t, units, 2)
	assert.Equal(t, "Acme Corp provides cloud security software.", units[0])
	assert.Equal(t, "Acme was founded in 1999 and is headquartered in Texas.", units[1])
}

func TestNormalize_PreservesCase(t *testing.T) {
	n := newTestNormalizer(t)

	units := n.Normalize("IBM   provides   IT services.")
	require.Len(t, units, 1)
	assert.Equal(t, "IBM provides IT services.", units[0])
}

func TestNormalize_Idempotent(t *testing.T) {
	n := newTestNormalizer(t)

	inputs := []string{
		"Beta Inc manufactures automobile parts.",
		"The company designs chips.\tIt also licenses patents.\n",
		"Acme Corp provides cloud security software. Acme was founded in 1999 and is headquartered in Texas.",
	}

	for _, in := range inputs {
		once := n.Normalize(in)
		twice := n.Normalize(strings.Join(once, " "))
		assert.Equal(t, once, twice, "input %q", in)

		for _, unit := range once {
			assert.Equal(t, []string{unit}, n.Normalize(unit))
		}
	}
}

func TestFunctionalFilter_IsFunctional(t *testing.T) {
	f := NewDefaultFunctionalFilter()

	tests := []struct {
		text string
		want bool
	}{
		{"Acme Corp provides cloud security software.", true},
		{"Acme was founded in 1999 and is headquartered in Texas.", false},
		{"The company is LOCATED IN Ohio.", false},
		{"Formerly known as Widget Co, the firm rebranded.", false},
		{"Beta Inc manufactures automobile parts.", true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IsFunctional(tt.text))
		})
	}
}

func TestFunctionalFilter_OverRejectsByDesign(t *testing.T) {
	f := NewDefaultFunctionalFilter()
	assert.False(t, f.IsFunctional("It advises clinics located in rural regions."))
}

func TestFunctionalFilter_CustomPhrases(t *testing.T) {
	f := NewFunctionalFilter("  Listed ON ", "", "listed on")

	assert.Equal(t, []string{"listed on"}, f.Phrases())
	assert.False(t, f.IsFunctional("The shares are listed on NASDAQ."))
	assert.True(t, f.IsFunctional("Acme was founded in 1999."))
}

func TestFunctionalFilter_PhrasesIsCopy(t *testing.T) {
	f := NewFunctionalFilter("founded in")
	phrases := f.Phrases()
	phrases[0] = "mutated"
	assert.Equal(t, []string{"founded in"}, f.Phrases())

	defaults := DefaultTriggerPhrases()
	defaults[0] = "mutated"
	assert.NotEqual(t, "mutated", DefaultTriggerPhrases()[0])
}

func TestFunctionalFilter_Partition(t *testing.T) {
	f := NewDefaultFunctionalFilter()

	input := []core.TextUnit{
		{ID: "A#0", EntityID: "A", Ordinal: 0, Text: "Acme sells anvils."},
		{ID: "A#1", EntityID: "A", Ordinal: 1, Text: "Acme was founded in 1901."},
		{ID: "A#2", EntityID: "A", Ordinal: 2, Text: "Acme also rents rockets."},
		{ID: "B#0", EntityID: "B", Ordinal: 0, Text: "Beta is based in Ohio."},
		{ID: "B#1", EntityID: "B", Ordinal: 1, Text: "Beta builds bridges."},
	}

	kept, removed := f.Partition(input)

	assert.Equal(t, []string{"A#0", "A#2", "B#1"}, unitIDs(kept))
	assert.Equal(t, []string{"A#1", "B#0"}, unitIDs(removed))
	for _, u := range kept {
		assert.True(t, u.Functional)
	}
	for _, u := range removed {
		assert.False(t, u.Functional)
	}

	// Union covers the input exactly once.
	seen := make(map[string]int)
	for _, u := range append(append([]core.TextUnit{}, kept...), removed...) {
		seen[u.ID]++
	}
	assert.Len(t, seen, len(input))
	for id, count := range seen {
		assert.Equal(t, 1, count, id)
	}
}

func unitIDs(units []core.TextUnit) []string {
	ids := make([]string, len(units))
	for i, u := range units {
		ids[i] = u.ID
	}
	return ids
}
