package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/poiesic/bizmatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []core.RankedResult {
	return []core.RankedResult{
		{
			EntityID:    "A",
			Name:        "Acme",
			Description: "Acme Corp provides cloud security software. It also sells \"firewalls\", routers.",
			Matches: []core.UnitScore{
				{Text: "Acme Corp provides cloud security software.", Score: 0.9},
				{Text: "It also sells \"firewalls\", routers.", Score: 0.5},
			},
			Score: 0.7,
		},
		{
			EntityID:    "B",
			Name:        "Beta, Inc.",
			Description: "Beta Inc manufactures automobile parts.",
			Matches:     []core.UnitScore{{Text: "Beta Inc manufactures automobile parts.", Score: 0.1}},
			Score:       0.1,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	results := sampleResults()
	require.NoError(t, WriteCSV(&buf, results))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])

	for i, r := range results {
		row := rows[i+1]
		assert.Equal(t, r.EntityID, row[0])
		assert.Equal(t, r.Name, row[1])
		assert.Equal(t, r.Description, row[2])

		var sentences []string
		require.NoError(t, json.Unmarshal([]byte(row[3]), &sentences))
		var scores []float64
		require.NoError(t, json.Unmarshal([]byte(row[4]), &scores))
		require.Len(t, scores, len(sentences))

		for j, m := range r.Matches {
			assert.Equal(t, m.Text, sentences[j])
			assert.Equal(t, m.Score, scores[j])
		}

		score, err := strconv.ParseFloat(row[5], 64)
		require.NoError(t, err)
		assert.Equal(t, r.Score, score)
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "entity_id,display_name,raw_description,matched_sentences,matched_scores,aggregate_score\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteCSV_WriterError(t *testing.T) {
	err := WriteCSV(failingWriter{}, sampleResults())
	assert.ErrorContains(t, err, "disk full")
}
