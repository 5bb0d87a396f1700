package storage

import (
	"testing"
	"time"

	"github.com/poiesic/bizmatch/core"
	"github.com/poiesic/bizmatch/corpus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() *corpus.Snapshot {
	return &corpus.Snapshot{
		FormatVersion: corpus.FormatVersion,
		Fingerprint:   "f00d",
		BuildID:       "3d1c8c8e-5b4e-4f7a-9a55-6f7d1f0e2b11",
		Model:         "all-mpnet-base-v2",
		Dimension:     3,
		BuiltAt:       time.Date(2025, 3, 14, 15, 9, 26, 535897000, time.UTC),
		Entities: []core.Entity{
			{ID: "A", Name: "Acme", Description: "Acme Corp provides cloud security software."},
			{ID: "C", Name: "Gamma", Description: ""},
			{ID: "É", Name: "Ünïcode Co", Description: "Makes naïve café furniture. Also tables."},
		},
		Units: []core.TextUnit{
			{ID: "A#0", EntityID: "A", Ordinal: 0, Text: "Acme Corp provides cloud security software.", Functional: true},
			{ID: "É#0", EntityID: "É", Ordinal: 0, Text: "Makes naïve café furniture.", Functional: true},
			{ID: "É#1", EntityID: "É", Ordinal: 1, Text: "Also tables.", Functional: true},
		},
		Vectors: []core.Vector{
			{0.1, -0.2, 0.3},
			{1, 0, 0},
			{-0.5, 0.25, 1e-7},
		},
		Statuses: map[string]core.EntityStatus{
			"A": core.StatusIndexed,
			"C": core.StatusEmptyDescription,
			"É": core.StatusIndexed,
		},
	}
}

func TestMarshalUnmarshalSnapshot(t *testing.T) {
	original := testSnapshot()

	data, err := MarshalSnapshot(original)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalSnapshot(data)
	require.NoError(t, err)

	assert.Equal(t, original.FormatVersion, decoded.FormatVersion)
	assert.Equal(t, original.Fingerprint, decoded.Fingerprint)
	assert.Equal(t, original.BuildID, decoded.BuildID)
	assert.Equal(t, original.Model, decoded.Model)
	assert.Equal(t, original.Dimension, decoded.Dimension)
	assert.True(t, original.BuiltAt.Truncate(time.Microsecond).Equal(decoded.BuiltAt))
	assert.Equal(t, original.Entities, decoded.Entities)
	assert.Equal(t, original.Units, decoded.Units)
	assert.Equal(t, original.Vectors, decoded.Vectors)
	assert.Equal(t, original.Statuses, decoded.Statuses)
}

func TestMarshalSnapshot_Empty(t *testing.T) {
	original := &corpus.Snapshot{
		FormatVersion: corpus.FormatVersion,
		Fingerprint:   "empty",
		Statuses:      map[string]core.EntityStatus{},
	}

	data, err := MarshalSnapshot(original)
	require.NoError(t, err)

	decoded, err := UnmarshalSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, "empty", decoded.Fingerprint)
	assert.Empty(t, decoded.Units)
	assert.Empty(t, decoded.Vectors)
	assert.Empty(t, decoded.Entities)
}

func TestMarshalSnapshot_Misaligned(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *corpus.Snapshot)
	}{
		{"missing vector", func(s *corpus.Snapshot) { s.Vectors = s.Vectors[:2] }},
		{"ragged vector", func(s *corpus.Snapshot) { s.Vectors[1] = core.Vector{1, 0} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSnapshot()
			tt.mutate(s)
			_, err := MarshalSnapshot(s)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}

func TestUnmarshalSnapshot_Invalid(t *testing.T) {
	valid, err := MarshalSnapshot(testSnapshot())
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty data", []byte{}, ErrTruncatedData},
		{"truncated", valid[:len(valid)/2], ErrTruncatedData},
		{"trailing bytes", append(append([]byte(nil), valid...), 0x00), ErrSerializationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := UnmarshalSnapshot(tt.data)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUnmarshalSnapshot_UnsupportedVersion(t *testing.T) {
	w := &writer{}
	w.int(corpus.FormatVersion + 1)
	w.bs = make([]byte, w.n)
	w.n = 0
	w.int(corpus.FormatVersion + 1)

	s, err := UnmarshalSnapshot(w.bs)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}
