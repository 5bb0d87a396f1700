package corpus

import (
	"strconv"
	"sync"
	"time"

	"github.com/poiesic/bizmatch/core"
)

// FormatVersion identifies the snapshot layout. Persisted snapshots with a
// different version are rebuilt rather than read.
const FormatVersion = 1

// Snapshot is an immutable, fully built corpus: every functional unit and
// its vector, plus the status of every ingested entity.
// Units[i] and Vectors[i] always refer to the same unit.
type Snapshot struct {
	FormatVersion int
	Fingerprint   string
	BuildID       string
	Model         string
	Dimension     int
	BuiltAt       time.Time
	Entities      []core.Entity
	Units         []core.TextUnit
	Vectors       []core.Vector
	Statuses      map[string]core.EntityStatus

	indexOnce sync.Once
	index     map[string]int
}

// Stats summarizes a snapshot for diagnostics.
type Stats struct {
	Entities          int
	Indexed           int
	EmptyDescription  int
	NoFunctionalUnits int
	Units             int
	Dimension         int
}

// Entity returns the ingested entity with the given id.
func (s *Snapshot) Entity(id string) (core.Entity, bool) {
	s.indexOnce.Do(s.buildIndex)
	idx, ok := s.index[id]
	if !ok {
		return core.Entity{}, false
	}
	return s.Entities[idx], true
}

// Status reports why an entity can or cannot be ranked.
// Entities that were never ingested report core.StatusUnknown.
func (s *Snapshot) Status(id string) core.EntityStatus {
	return s.Statuses[id]
}

// Stats counts entities by status.
func (s *Snapshot) Stats() Stats {
	stats := Stats{
		Entities:  len(s.Entities),
		Units:     len(s.Units),
		Dimension: s.Dimension,
	}
	for _, status := range s.Statuses {
		switch status {
		case core.StatusIndexed:
			stats.Indexed++
		case core.StatusEmptyDescription:
			stats.EmptyDescription++
		case core.StatusNoFunctionalUnits:
			stats.NoFunctionalUnits++
		}
	}
	return stats
}

func (s *Snapshot) buildIndex() {
	s.index = make(map[string]int, len(s.Entities))
	for i, e := range s.Entities {
		s.index[e.ID] = i
	}
}

// Fingerprint identifies the inputs a snapshot was built from. Any change to
// the model, the filter phrases or any entity record yields a new value.
func Fingerprint(model string, phrases []string, entities []core.Entity) string {
	parts := make([]string, 0, 4+len(phrases)+3*len(entities))
	parts = append(parts, strconv.Itoa(FormatVersion), model, strconv.Itoa(len(phrases)))
	parts = append(parts, phrases...)
	parts = append(parts, strconv.Itoa(len(entities)))
	for _, e := range entities {
		parts = append(parts, e.ID, e.Name, e.Description)
	}
	return core.ContentHash(parts...)
}
