package text

import (
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Normalizer cleans raw descriptions and splits them into sentence units.
// It is safe for concurrent use; the punkt model is read-only after construction.
type Normalizer struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewNormalizer loads the English punkt model used for sentence boundaries.
func NewNormalizer() (*Normalizer, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load sentence model: %w", err)
	}
	return &Normalizer{tokenizer: tokenizer}, nil
}

// Normalize collapses whitespace, trims, and splits raw into sentences.
// Case is preserved. Empty or blank input yields no units.
func (n *Normalizer) Normalize(raw string) []string {
	cleaned := CollapseWhitespace(raw)
	if cleaned == "" {
		return nil
	}

	var units []string
	for _, s := range n.tokenizer.Tokenize(cleaned) {
		if unit := strings.TrimSpace(s.Text); unit != "" {
			units = append(units, unit)
		}
	}
	return units
}

// CollapseWhitespace replaces every run of whitespace with a single space
// and trims both ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
