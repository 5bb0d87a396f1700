package core

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// Entity is one company in the input corpus.
// Entities are immutable once ingested.
type Entity struct {
	ID          string // Unique identifier, typically a ticker
	Name        string // Display name
	Description string // Raw business description, may be empty
}

// HasDescription reports whether the entity carries any non-blank description text.
func (e Entity) HasDescription() bool {
	return strings.TrimSpace(e.Description) != ""
}

// TextUnit is one sentence derived from an entity's description.
type TextUnit struct {
	ID         string // "<entity id>#<ordinal>"
	EntityID   string
	Ordinal    int    // Position within the entity's normalized sentences
	Text       string // Normalized sentence text
	Functional bool   // Result of functional filtering
}

// UnitID derives the identifier of the ordinal-th unit of an entity.
func UnitID(entityID string, ordinal int) string {
	return entityID + "#" + strconv.Itoa(ordinal)
}

// Vector is a dense embedding. All vectors of a corpus share one dimension.
type Vector []float32

// MatchRecord is the score of a single corpus unit against a query.
type MatchRecord struct {
	EntityID    string
	EntityName  string
	Description string
	Text        string
	Score       float64
}

// UnitScore is a matched sentence and its similarity to the query.
type UnitScore struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// RankedResult is one entity in a ranked search response.
// Matches is never empty and keeps unit discovery order.
type RankedResult struct {
	EntityID    string      `json:"entity_id"`
	Name        string      `json:"display_name"`
	Description string      `json:"raw_description"`
	Matches     []UnitScore `json:"matched_units"`
	Score       float64     `json:"aggregate_score"`
}

// EntityStatus explains whether an entity can appear in search results.
type EntityStatus int

const (
	// StatusUnknown means the entity was never part of the ingested corpus.
	StatusUnknown EntityStatus = iota
	// StatusIndexed means at least one functional unit was embedded.
	StatusIndexed
	// StatusEmptyDescription means the description was empty or missing.
	StatusEmptyDescription
	// StatusNoFunctionalUnits means every sentence was filtered out.
	StatusNoFunctionalUnits
)

func (s EntityStatus) String() string {
	switch s {
	case StatusIndexed:
		return "indexed"
	case StatusEmptyDescription:
		return "empty-description"
	case StatusNoFunctionalUnits:
		return "no-functional-units"
	default:
		return "unknown"
	}
}

// Rankable reports whether an entity with this status can be ranked.
func (s EntityStatus) Rankable() bool {
	return s == StatusIndexed
}

// ContentHash returns a hex encoded BLAKE2b-256 digest of the given parts.
// Parts are length-prefixed so that ("ab", "c") and ("a", "bc") differ.
func ContentHash(parts ...string) string {
	h, _ := blake2b.New(32, nil)
	for _, p := range parts {
		h.Write([]byte(strconv.Itoa(len(p))))
		h.Write([]byte{':'})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
