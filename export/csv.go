package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/poiesic/bizmatch/core"
)

// Header is the column layout written by WriteCSV.
var Header = []string{
	"entity_id",
	"display_name",
	"raw_description",
	"matched_sentences",
	"matched_scores",
	"aggregate_score",
}

// WriteCSV writes results to w, one row per result, preceded by Header.
// An empty result set produces a header-only file.
func WriteCSV(w io.Writer, results []core.RankedResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range results {
		row, err := record(r)
		if err != nil {
			return fmt.Errorf("failed to encode result %s: %w", r.EntityID, err)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write result %s: %w", r.EntityID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func record(r core.RankedResult) ([]string, error) {
	sentences := make([]string, len(r.Matches))
	scores := make([]float64, len(r.Matches))
	for i, m := range r.Matches {
		sentences[i] = m.Text
		scores[i] = m.Score
	}

	sentencesJSON, err := json.Marshal(sentences)
	if err != nil {
		return nil, err
	}
	scoresJSON, err := json.Marshal(scores)
	if err != nil {
		return nil, err
	}

	return []string{
		r.EntityID,
		r.Name,
		r.Description,
		string(sentencesJSON),
		string(scoresJSON),
		strconv.FormatFloat(r.Score, 'g', -1, 64),
	}, nil
}
